// Package platformtest provides a recording platform.Platform for tests.
package platformtest

import (
	"context"
	"slices"
	"sync"

	"localnotify/internal/notification"
	"localnotify/internal/platform"
)

// Call is one recorded platform call.
type Call struct {
	Method  string
	Reqs    []notification.Request
	Targets []platform.Target
	Types   []notification.ActionType
	Event   platform.EventName
}

type listener struct {
	name    platform.EventName
	h       platform.Handler
	removed bool
}

// Recorder records every call and keeps a pending map. Error fields, when set,
// are returned by the matching method. Listeners run synchronously on Emit.
type Recorder struct {
	mu sync.Mutex

	Permission    notification.PermissionState
	PendingOrder  []int
	ScheduleErr   error
	RegisterErr   error
	PendingErr    error
	CancelErr     error
	PermissionErr error
	ListenErr     error
	// ListenErrFor limits ListenErr to one event name when set.
	ListenErrFor platform.EventName

	calls     []Call
	pending   map[int]notification.Request
	listeners []*listener
}

func New() *Recorder {
	return &Recorder{Permission: notification.PermissionGranted, pending: map[int]notification.Request{}}
}

func (r *Recorder) record(c Call) {
	r.calls = append(r.calls, c)
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// CallsTo returns the recorded calls of one method.
func (r *Recorder) CallsTo(method string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Call
	for _, c := range r.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Scheduled returns every request passed to Schedule, in call order.
func (r *Recorder) Scheduled() []notification.Request {
	var out []notification.Request
	for _, c := range r.CallsTo("Schedule") {
		out = append(out, c.Reqs...)
	}
	return out
}

// Listeners returns the number of listeners not yet removed.
func (r *Recorder) Listeners() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.listeners {
		if !l.removed {
			n++
		}
	}
	return n
}

// Emit runs every live listener for ev.Name on the calling goroutine.
func (r *Recorder) Emit(ctx context.Context, ev platform.Event) {
	r.mu.Lock()
	var hs []platform.Handler
	for _, l := range r.listeners {
		if !l.removed && l.name == ev.Name {
			hs = append(hs, l.h)
		}
	}
	r.mu.Unlock()
	for _, h := range hs {
		h(ctx, ev)
	}
}

func (r *Recorder) RequestPermissions(ctx context.Context) (notification.PermissionStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Method: "RequestPermissions"})
	if r.PermissionErr != nil {
		return notification.PermissionStatus{}, r.PermissionErr
	}
	return notification.PermissionStatus{Display: r.Permission}, nil
}

func (r *Recorder) CheckPermissions(ctx context.Context) (notification.PermissionStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Method: "CheckPermissions"})
	if r.PermissionErr != nil {
		return notification.PermissionStatus{}, r.PermissionErr
	}
	return notification.PermissionStatus{Display: r.Permission}, nil
}

func (r *Recorder) Schedule(ctx context.Context, reqs []notification.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Method: "Schedule", Reqs: slices.Clone(reqs)})
	if r.ScheduleErr != nil {
		return r.ScheduleErr
	}
	for _, q := range reqs {
		if _, ok := r.pending[q.ID]; !ok {
			r.PendingOrder = append(r.PendingOrder, q.ID)
		}
		r.pending[q.ID] = q
	}
	return nil
}

// GetPending returns the pending map in PendingOrder.
func (r *Recorder) GetPending(ctx context.Context) (platform.PendingResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Method: "GetPending"})
	if r.PendingErr != nil {
		return platform.PendingResult{}, r.PendingErr
	}
	var out []notification.Request
	for _, id := range r.PendingOrder {
		if q, ok := r.pending[id]; ok {
			out = append(out, q)
		}
	}
	return platform.PendingResult{Notifications: out}, nil
}

func (r *Recorder) Cancel(ctx context.Context, targets []platform.Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Method: "Cancel", Targets: slices.Clone(targets)})
	if r.CancelErr != nil {
		return r.CancelErr
	}
	if len(targets) == 0 {
		clear(r.pending)
		r.PendingOrder = nil
		return nil
	}
	for _, t := range targets {
		delete(r.pending, t.ID)
	}
	return nil
}

func (r *Recorder) RegisterActionTypes(ctx context.Context, types []notification.ActionType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Method: "RegisterActionTypes", Types: slices.Clone(types)})
	return r.RegisterErr
}

func (r *Recorder) AddListener(ctx context.Context, name platform.EventName, h platform.Handler) (platform.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Method: "AddListener", Event: name})
	if r.ListenErr != nil && (r.ListenErrFor == "" || r.ListenErrFor == name) {
		return nil, r.ListenErr
	}
	l := &listener{name: name, h: h}
	r.listeners = append(r.listeners, l)
	return platform.NewSubscription(func() {
		r.mu.Lock()
		l.removed = true
		r.mu.Unlock()
	}), nil
}

var _ platform.Platform = (*Recorder)(nil)
