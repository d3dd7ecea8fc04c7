// Package memory is an in-process notification platform.
//
// It keeps the pending set in memory (optionally mirrored to storage.Store),
// fires due notifications from a supervised loop, re-arms repeating schedules,
// and lets callers emulate a user tapping a notification action. It implements
// platform.Platform and is what the CLI and the integration tests run against.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"localnotify/internal/eventbus"
	"localnotify/internal/notification"
	"localnotify/internal/platform"
	rtsup "localnotify/internal/runtime/supervisor"
	"localnotify/internal/storage"
	logx "localnotify/pkg/logx"
)

var (
	ErrStopped             = errors.New("memory platform stopped")
	ErrUnknownNotification = errors.New("unknown notification")
	ErrUnknownAction       = errors.New("unknown action")
	ErrUnknownEvent        = errors.New("unknown event name")
)

// Config controls the simulator.
type Config struct {
	// PermissionAnswer is what a permission prompt resolves to. Default granted.
	PermissionAnswer notification.PermissionState
	// Tick bounds the sleep of the firing loop. Default 1s.
	Tick time.Duration
	// ListenerBuffer is the per-listener event buffer. Default 64.
	ListenerBuffer int
	// HistorySize bounds the delivered history and the set of delivered
	// notifications PerformAction accepts. Default 100.
	HistorySize int
	// Clock overrides time.Now (tests).
	Clock func() time.Time
}

// HistoryItem records one delivery.
type HistoryItem struct {
	At      time.Time            `json:"at"`
	Request notification.Request `json:"request"`
}

type Platform struct {
	mu sync.Mutex

	cfg   Config
	log   logx.Logger
	store storage.Store
	now   func() time.Time

	perm      notification.PermissionState
	available bool
	stopped   bool
	started   bool

	pending   map[int]storage.PendingEntry
	delivered map[int]notification.Request
	types     map[string]notification.ActionType
	history   []HistoryItem

	events *eventbus.Bus[platform.Event]
	sup    *rtsup.Supervisor
	wake   chan struct{}
}

var _ platform.Platform = (*Platform)(nil)

func New(cfg Config, store storage.Store, log logx.Logger) *Platform {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.PermissionAnswer == "" {
		cfg.PermissionAnswer = notification.PermissionGranted
	}
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	if cfg.ListenerBuffer <= 0 {
		cfg.ListenerBuffer = 64
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 100
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	log = log.With(logx.String("comp", "platform.memory"))
	return &Platform{
		cfg:       cfg,
		log:       log,
		store:     store,
		now:       now,
		perm:      notification.PermissionPrompt,
		available: true,
		pending:   map[int]storage.PendingEntry{},
		delivered: map[int]notification.Request{},
		types:     map[string]notification.ActionType{},
		events:    eventbus.New[platform.Event](),
		sup:       rtsup.New(context.Background(), rtsup.WithLogger(log)),
		wake:      make(chan struct{}, 1),
	}
}

// Start restores persisted state and starts the firing loop. Start is idempotent.
func (p *Platform) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrStopped
	}
	if p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = true
	p.mu.Unlock()

	if p.store != nil {
		entries, err := p.store.LoadPending(ctx)
		if err != nil {
			return fmt.Errorf("load pending: %w", err)
		}
		types, err := p.store.LoadActionTypes(ctx)
		if err != nil {
			return fmt.Errorf("load action types: %w", err)
		}
		p.mu.Lock()
		for _, e := range entries {
			p.pending[e.Request.ID] = e
		}
		for _, t := range types {
			p.types[t.ID] = t
		}
		p.mu.Unlock()
		p.log.Info("restored state", logx.Int("pending", len(entries)), logx.Int("action_types", len(types)))
	}

	p.sup.GoRestart("memory.fire", p.loop, 250*time.Millisecond, 5*time.Second)
	return nil
}

// Stop ends the firing loop and every listener goroutine.
func (p *Platform) Stop(ctx context.Context) error {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	return p.sup.Stop(ctx)
}

// SetAvailable toggles whether platform calls succeed.
func (p *Platform) SetAvailable(ok bool) {
	p.mu.Lock()
	p.available = ok
	p.mu.Unlock()
}

// SetPermissionAnswer changes what the next permission prompt resolves to and
// resets the current state to prompt.
func (p *Platform) SetPermissionAnswer(state notification.PermissionState) {
	p.mu.Lock()
	p.cfg.PermissionAnswer = state
	p.perm = notification.PermissionPrompt
	p.mu.Unlock()
}

func (p *Platform) checkLocked(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.stopped {
		return fmt.Errorf("%w: %w", notification.ErrUnavailable, ErrStopped)
	}
	if !p.available {
		return notification.ErrUnavailable
	}
	return nil
}

func (p *Platform) RequestPermissions(ctx context.Context) (notification.PermissionStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkLocked(ctx); err != nil {
		return notification.PermissionStatus{}, err
	}
	// Only an undecided state prompts; a decision sticks like on a real device.
	if p.perm == notification.PermissionPrompt || p.perm == notification.PermissionUnknown {
		p.perm = p.cfg.PermissionAnswer
	}
	return notification.PermissionStatus{Display: p.perm}, nil
}

func (p *Platform) CheckPermissions(ctx context.Context) (notification.PermissionStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkLocked(ctx); err != nil {
		return notification.PermissionStatus{}, err
	}
	return notification.PermissionStatus{Display: p.perm}, nil
}

// Schedule adds or overwrites pending entries. Duplicate ids: last write wins.
func (p *Platform) Schedule(ctx context.Context, reqs []notification.Request) error {
	p.mu.Lock()
	if err := p.checkLocked(ctx); err != nil {
		p.mu.Unlock()
		return err
	}
	if p.perm == notification.PermissionDenied {
		p.mu.Unlock()
		return notification.ErrPermissionDenied
	}
	for _, r := range reqs {
		if err := r.Validate(); err != nil {
			p.mu.Unlock()
			return err
		}
	}
	entries := make([]storage.PendingEntry, 0, len(reqs))
	for _, r := range reqs {
		if r.ActionTypeID != "" {
			if _, ok := p.types[r.ActionTypeID]; !ok {
				p.log.Warn("scheduled notification references unregistered action type",
					logx.Int("id", r.ID), logx.String("action_type", r.ActionTypeID))
			}
		}
		e := storage.PendingEntry{Request: r, NextAt: r.Schedule.At}
		p.pending[r.ID] = e
		entries = append(entries, e)
	}
	p.mu.Unlock()

	for _, e := range entries {
		p.persist(func(st storage.Store) error { return st.PutPending(ctx, e) })
	}
	p.log.Debug("scheduled", logx.Int("count", len(reqs)))
	p.poke()
	return nil
}

// GetPending returns pending entries ordered by next fire time, then id.
func (p *Platform) GetPending(ctx context.Context) (platform.PendingResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkLocked(ctx); err != nil {
		return platform.PendingResult{}, err
	}
	entries := make([]storage.PendingEntry, 0, len(p.pending))
	for _, e := range p.pending {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].NextAt.Equal(entries[j].NextAt) {
			return entries[i].NextAt.Before(entries[j].NextAt)
		}
		return entries[i].Request.ID < entries[j].Request.ID
	})
	out := make([]notification.Request, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Request)
	}
	return platform.PendingResult{Notifications: out}, nil
}

// Cancel removes the targeted entries; an empty target list removes all of them.
func (p *Platform) Cancel(ctx context.Context, targets []platform.Target) error {
	p.mu.Lock()
	if err := p.checkLocked(ctx); err != nil {
		p.mu.Unlock()
		return err
	}
	if len(targets) == 0 {
		clear(p.pending)
		p.mu.Unlock()
		p.persist(func(st storage.Store) error { return st.ClearPending(ctx) })
		p.log.Debug("cancelled all")
		return nil
	}
	ids := make([]int, 0, len(targets))
	for _, t := range targets {
		delete(p.pending, t.ID)
		ids = append(ids, t.ID)
	}
	p.mu.Unlock()
	p.persist(func(st storage.Store) error { return st.DeletePending(ctx, ids...) })
	return nil
}

// RegisterActionTypes stores types by id, overwriting earlier registrations.
func (p *Platform) RegisterActionTypes(ctx context.Context, types []notification.ActionType) error {
	p.mu.Lock()
	if err := p.checkLocked(ctx); err != nil {
		p.mu.Unlock()
		return err
	}
	for _, t := range types {
		p.types[t.ID] = notification.ActionType{ID: t.ID, Actions: slices.Clone(t.Actions)}
	}
	p.mu.Unlock()
	p.persist(func(st storage.Store) error { return st.PutActionTypes(ctx, types) })
	return nil
}

// ActionType returns a registered action type.
func (p *Platform) ActionType(id string) (notification.ActionType, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.types[id]
	return t, ok
}

// AddListener runs h on a dedicated goroutine for every event named name.
func (p *Platform) AddListener(ctx context.Context, name platform.EventName, h platform.Handler) (platform.Subscription, error) {
	if name != platform.EventDelivered && name != platform.EventActionPerformed {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
	if h == nil {
		return nil, errors.New("nil handler")
	}
	p.mu.Lock()
	if err := p.checkLocked(ctx); err != nil {
		p.mu.Unlock()
		return nil, err
	}
	p.mu.Unlock()

	ch, unsub := p.events.Subscribe(p.cfg.ListenerBuffer)
	id := uuid.NewString()
	p.sup.Go("listener."+string(name)+"."+id, func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-ch:
				if !ok {
					return nil
				}
				if ev.Name == name {
					h(ctx, ev)
				}
			}
		}
	})
	p.log.Debug("listener added", logx.String("event", string(name)), logx.String("sub", id))
	return platform.NewSubscription(unsub), nil
}

// PerformAction emulates the user choosing actionID on notification id. The
// notification must have been delivered or still be pending.
func (p *Platform) PerformAction(ctx context.Context, id int, actionID string) error {
	p.mu.Lock()
	if err := p.checkLocked(ctx); err != nil {
		p.mu.Unlock()
		return err
	}
	req, ok := p.delivered[id]
	if !ok {
		var e storage.PendingEntry
		if e, ok = p.pending[id]; ok {
			req = e.Request
		}
	}
	if !ok {
		p.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownNotification, id)
	}
	if actionID != platform.ActionTap {
		t, ok := p.types[req.ActionTypeID]
		if !ok || !slices.ContainsFunc(t.Actions, func(a notification.Action) bool { return a.ID == actionID }) {
			p.mu.Unlock()
			return fmt.Errorf("%w: %q on notification %d", ErrUnknownAction, actionID, id)
		}
	}
	p.mu.Unlock()

	p.events.Publish(platform.Event{
		Name:   platform.EventActionPerformed,
		Action: &platform.ActionPerformed{ActionID: actionID, Notification: req},
	})
	return nil
}

// History returns recent deliveries, oldest first.
func (p *Platform) History() []HistoryItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.history)
}

// FireDue delivers every entry whose next fire time is not after now and
// re-arms repeating ones. The loop calls it; tests call it directly.
func (p *Platform) FireDue(ctx context.Context) []notification.Request {
	now := p.now()

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	var (
		fired   []notification.Request
		updated []storage.PendingEntry
		removed []int
	)
	for id, e := range p.pending {
		if e.NextAt.After(now) {
			continue
		}
		e.Fired++
		fired = append(fired, e.Request)
		p.delivered[id] = e.Request
		p.history = append(p.history, HistoryItem{At: now, Request: e.Request})

		if next, ok := e.Request.Schedule.Next(now, e.Fired); ok {
			e.NextAt = next
			p.pending[id] = e
			updated = append(updated, e)
		} else {
			delete(p.pending, id)
			removed = append(removed, id)
		}
	}
	if over := len(p.history) - p.cfg.HistorySize; over > 0 {
		for _, h := range p.history[:over] {
			delete(p.delivered, h.Request.ID)
		}
		p.history = slices.Delete(p.history, 0, over)
		// delivered holds exactly the ids still in history.
		for _, h := range p.history {
			p.delivered[h.Request.ID] = h.Request
		}
	}
	p.mu.Unlock()

	sort.Slice(fired, func(i, j int) bool { return fired[i].ID < fired[j].ID })
	for _, e := range updated {
		p.persist(func(st storage.Store) error { return st.PutPending(ctx, e) })
	}
	p.persist(func(st storage.Store) error { return st.DeletePending(ctx, removed...) })

	for i := range fired {
		req := fired[i]
		p.log.Info("notification delivered", logx.Int("id", req.ID), logx.String("title", req.Title))
		p.events.Publish(platform.Event{Name: platform.EventDelivered, Delivered: &req})
	}
	return fired
}

func (p *Platform) nextWake() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	wait := p.cfg.Tick
	now := p.now()
	for _, e := range p.pending {
		if d := e.NextAt.Sub(now); d < wait {
			wait = d
		}
	}
	if wait < 0 {
		wait = 0
	}
	return wait
}

func (p *Platform) loop(ctx context.Context) error {
	timer := time.NewTimer(p.cfg.Tick)
	defer timer.Stop()
	for {
		p.FireDue(ctx)
		timer.Reset(p.nextWake())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.wake:
		case <-timer.C:
		}
	}
}

func (p *Platform) poke() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// persist mirrors a change to storage. Storage failures are logged, not returned:
// the in-memory pending set stays authoritative for this process.
func (p *Platform) persist(fn func(st storage.Store) error) {
	if p.store == nil {
		return
	}
	if err := fn(p.store); err != nil {
		p.log.Warn("persist failed", logx.Err(err))
	}
}
