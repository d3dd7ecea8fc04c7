package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"localnotify/internal/notification"
	logx "localnotify/pkg/logx"
)

//go:embed migrations.sql
var migrations string

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a single writer; one connection also keeps ":memory:" coherent.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if _, err := db.ExecContext(context.Background(), migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return st, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) PutPending(ctx context.Context, e PendingEntry) error {
	b, err := json.Marshal(e.Request)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pending(id, next_at, fired, request) VALUES(?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET next_at=excluded.next_at, fired=excluded.fired, request=excluded.request`,
		e.Request.ID, e.NextAt.UnixMilli(), e.Fired, string(b),
	)
	return err
}

func (s *sqliteStore) DeletePending(ctx context.Context, ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pending WHERE id = ?`, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) ClearPending(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pending`)
	return err
}

func (s *sqliteStore) LoadPending(ctx context.Context) ([]PendingEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT next_at, fired, request FROM pending ORDER BY next_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PendingEntry
	for rows.Next() {
		var (
			nextAt int64
			fired  int
			raw    string
		)
		if err := rows.Scan(&nextAt, &fired, &raw); err != nil {
			return nil, err
		}
		var req notification.Request
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			s.log.Warn("skipping unreadable pending row", logx.Err(err))
			continue
		}
		out = append(out, PendingEntry{Request: req, Fired: fired, NextAt: time.UnixMilli(nextAt)})
	}
	return out, rows.Err()
}

func (s *sqliteStore) PutActionTypes(ctx context.Context, types []notification.ActionType) error {
	if len(types) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, t := range types {
		b, err := json.Marshal(t.Actions)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO action_types(id, actions) VALUES(?,?)
			 ON CONFLICT(id) DO UPDATE SET actions=excluded.actions`,
			t.ID, string(b),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) LoadActionTypes(ctx context.Context) ([]notification.ActionType, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, actions FROM action_types ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []notification.ActionType
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		t := notification.ActionType{ID: id}
		if err := json.Unmarshal([]byte(raw), &t.Actions); err != nil {
			return nil, fmt.Errorf("action type %s: %w", id, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
