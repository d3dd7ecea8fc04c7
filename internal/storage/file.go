package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"localnotify/internal/notification"
	logx "localnotify/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.pending.snapshot.json (periodic snapshot)
//   - <prefix>.pending.journal.jsonl (append-only journal)
//
// The journal is compacted into the snapshot every CompactEvery records and on Close.
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	snapshotPath string
	journal      *os.File

	pending map[int]PendingEntry
	types   map[string]notification.ActionType

	writes       int
	compactEvery int
}

type journalOp string

const (
	opPut   journalOp = "put"
	opDel   journalOp = "del"
	opClear journalOp = "clear"
	opTypes journalOp = "types"
)

type journalRecord struct {
	Op    journalOp                 `json:"op"`
	Entry *PendingEntry             `json:"entry,omitempty"`
	IDs   []int                     `json:"ids,omitempty"`
	Types []notification.ActionType `json:"types,omitempty"`
}

type snapshot struct {
	Pending []PendingEntry            `json:"pending"`
	Types   []notification.ActionType `json:"types"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	s := &fileStore{
		log:          log,
		snapshotPath: prefix + ".pending.snapshot.json",
		pending:      map[int]PendingEntry{},
		types:        map[string]notification.ActionType{},
		compactEvery: cfg.CompactEvery,
	}
	if s.compactEvery <= 0 {
		s.compactEvery = 200
	}

	journalPath := prefix + ".pending.journal.jsonl"
	if err := s.loadSnapshot(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("pending snapshot unreadable; starting empty", logx.String("path", s.snapshotPath), logx.Err(err))
	}
	if err := s.replayJournal(journalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("pending journal replay incomplete", logx.String("path", journalPath), logx.Err(err))
	}

	jf, err := os.OpenFile(journalPath, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}
	s.journal = jf
	return s, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journal == nil {
		return nil
	}
	cerr := s.compactLocked()
	err := s.journal.Close()
	s.journal = nil
	if cerr != nil {
		return cerr
	}
	return err
}

func (s *fileStore) PutPending(ctx context.Context, e PendingEntry) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[e.Request.ID] = e
	return s.appendLocked(journalRecord{Op: opPut, Entry: &e})
}

func (s *fileStore) DeletePending(ctx context.Context, ids ...int) error {
	_ = ctx
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.pending, id)
	}
	return s.appendLocked(journalRecord{Op: opDel, IDs: slices.Clone(ids)})
}

func (s *fileStore) ClearPending(ctx context.Context) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.pending)
	return s.appendLocked(journalRecord{Op: opClear})
}

// LoadPending returns entries ordered by NextAt, then id.
func (s *fileStore) LoadPending(ctx context.Context) ([]PendingEntry, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journal == nil {
		return nil, ErrClosed
	}
	out := make([]PendingEntry, 0, len(s.pending))
	for _, e := range s.pending {
		out = append(out, e)
	}
	sortEntries(out)
	return out, nil
}

func (s *fileStore) PutActionTypes(ctx context.Context, types []notification.ActionType) error {
	_ = ctx
	if len(types) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range types {
		s.types[t.ID] = t
	}
	return s.appendLocked(journalRecord{Op: opTypes, Types: slices.Clone(types)})
}

func (s *fileStore) LoadActionTypes(ctx context.Context) ([]notification.ActionType, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journal == nil {
		return nil, ErrClosed
	}
	out := make([]notification.ActionType, 0, len(s.types))
	for _, t := range s.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fileStore) appendLocked(r journalRecord) error {
	if s.journal == nil {
		return ErrClosed
	}
	if err := json.NewEncoder(s.journal).Encode(r); err != nil {
		return err
	}
	s.writes++
	if s.writes%s.compactEvery == 0 {
		// Best-effort compact; the journal still holds everything on failure.
		if err := s.compactLocked(); err != nil {
			s.log.Debug("pending compact failed", logx.Err(err))
		}
	}
	return nil
}

func (s *fileStore) compactLocked() error {
	snap := snapshot{
		Pending: make([]PendingEntry, 0, len(s.pending)),
		Types:   make([]notification.ActionType, 0, len(s.types)),
	}
	for _, e := range s.pending {
		snap.Pending = append(snap.Pending, e)
	}
	sortEntries(snap.Pending)
	for _, t := range s.types {
		snap.Types = append(snap.Types, t)
	}

	tmp := s.snapshotPath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(snap); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.snapshotPath); err != nil {
		return err
	}
	if err := s.journal.Truncate(0); err != nil {
		return err
	}
	_, err = s.journal.Seek(0, 2)
	return err
}

func (s *fileStore) loadSnapshot() error {
	f, err := os.Open(s.snapshotPath)
	if err != nil {
		return err
	}
	defer f.Close()
	var snap snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return err
	}
	for _, e := range snap.Pending {
		s.pending[e.Request.ID] = e
	}
	for _, t := range snap.Types {
		s.types[t.ID] = t
	}
	return nil
}

func (s *fileStore) replayJournal(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		var r journalRecord
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			// A torn last line after a crash is expected; skip it.
			continue
		}
		switch r.Op {
		case opPut:
			if r.Entry != nil {
				s.pending[r.Entry.Request.ID] = *r.Entry
			}
		case opDel:
			for _, id := range r.IDs {
				delete(s.pending, id)
			}
		case opClear:
			clear(s.pending)
		case opTypes:
			for _, t := range r.Types {
				s.types[t.ID] = t
			}
		}
	}
	return sc.Err()
}

func sortEntries(es []PendingEntry) {
	sort.Slice(es, func(i, j int) bool {
		if !es[i].NextAt.Equal(es[j].NextAt) {
			return es[i].NextAt.Before(es[j].NextAt)
		}
		return es[i].Request.ID < es[j].Request.ID
	})
}
