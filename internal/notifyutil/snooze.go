package notifyutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"localnotify/internal/notification"
	"localnotify/internal/platform"
	logx "localnotify/pkg/logx"
)

const (
	ActionSnooze  = "snooze"
	ActionDismiss = "dismiss"
	// SnoozeKeyExtra is the extra key carrying the snooze correlation key.
	SnoozeKeyExtra = "snoozeKey"
)

// SnoozeHandle owns the one-shot listener installed by ScheduleWithSnooze.
// Done is closed once the snoozed follow-up was submitted or the handle was closed.
type SnoozeHandle struct {
	ID      int
	Key     string
	Request notification.Request

	mu      sync.Mutex
	sub     platform.Subscription
	fired   bool
	snoozed *notification.Request
	err     error

	done      chan struct{}
	closeOnce sync.Once
}

func (h *SnoozeHandle) Done() <-chan struct{} { return h.done }

// Snoozed returns the follow-up request once it was submitted.
func (h *SnoozeHandle) Snoozed() (notification.Request, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.snoozed == nil {
		return notification.Request{}, false
	}
	return *h.snoozed, true
}

// Err returns the last follow-up submission error, if any.
func (h *SnoozeHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Close removes the listener. It is idempotent.
func (h *SnoozeHandle) Close() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		sub := h.sub
		h.mu.Unlock()
		if sub != nil {
			sub.Remove()
		}
		close(h.done)
	})
}

type snoozeArgs struct {
	Title   string `validate:"required"`
	Body    string `validate:"required"`
	Minutes int    `validate:"gte=0"`
}

// ScheduleWithSnooze submits a notification with snooze and dismiss actions
// that fires after the snooze lead time. Choosing snooze on it submits
// "<title> (Snoozed)" with id+1, snoozeMinutes later, and removes the listener.
// snoozeMinutes 0 makes the follow-up due immediately.
//
// The request carries a correlation key in Extra[SnoozeKeyExtra]; an action
// event for the same id but a different key is ignored.
func (u *Utils) ScheduleWithSnooze(ctx context.Context, title, body string, snoozeMinutes int, id *int) (*SnoozeHandle, error) {
	if err := notification.ValidateStruct(snoozeArgs{Title: title, Body: body, Minutes: snoozeMinutes}); err != nil {
		return nil, err
	}
	if id == nil {
		n, err := u.sch.NextID(ctx)
		if err != nil {
			return nil, err
		}
		id = notification.Int(n)
	}

	h := &SnoozeHandle{ID: *id, Key: uuid.NewString(), done: make(chan struct{})}
	snoozeFor := time.Duration(snoozeMinutes) * time.Minute

	// Listen before submitting so an early action cannot be missed.
	sub, err := u.sch.AddListener(ctx, platform.EventActionPerformed, func(ctx context.Context, ev platform.Event) {
		u.onSnoozeAction(ctx, h, ev, title, body, snoozeFor)
	})
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	h.sub = sub
	h.mu.Unlock()

	at := u.sch.Now().Add(u.snoozeLead)
	req, err := u.sch.Send(ctx, notification.Options{
		Title:       title,
		Body:        body,
		ID:          id,
		ScheduledAt: &at,
		Actions: []notification.Action{
			{ID: ActionSnooze, Title: fmt.Sprintf("Snooze %d min", snoozeMinutes)},
			{ID: ActionDismiss, Title: "Dismiss"},
		},
		Extra: map[string]any{SnoozeKeyExtra: h.Key},
	})
	if err != nil {
		h.Close()
		return nil, err
	}
	h.Request = req
	u.log.Debug("snoozable notification scheduled", logx.Int("id", h.ID), logx.String("key", h.Key))
	return h, nil
}

func (u *Utils) onSnoozeAction(ctx context.Context, h *SnoozeHandle, ev platform.Event, title, body string, snoozeFor time.Duration) {
	a := ev.Action
	if a == nil || a.ActionID != ActionSnooze || a.Notification.ID != h.ID {
		return
	}
	if key, ok := a.Notification.ExtraString(SnoozeKeyExtra); ok && key != h.Key {
		return
	}

	h.mu.Lock()
	if h.fired {
		h.mu.Unlock()
		return
	}
	h.fired = true
	h.mu.Unlock()

	at := u.sch.Now().Add(snoozeFor)
	req, err := u.sch.Send(ctx, notification.Options{
		Title:       title + " (Snoozed)",
		Body:        body,
		ID:          notification.Int(h.ID + 1),
		ScheduledAt: &at,
	})
	if err != nil {
		// Keep listening; a later snooze tap retries.
		u.log.Warn("snooze follow-up failed", logx.Int("id", h.ID), logx.Err(err))
		h.mu.Lock()
		h.fired = false
		h.err = err
		h.mu.Unlock()
		return
	}

	h.mu.Lock()
	h.snoozed = &req
	h.err = nil
	h.mu.Unlock()
	u.log.Info("notification snoozed", logx.Int("id", h.ID), logx.Int("follow_up", req.ID), logx.Time("at", at))
	h.Close()
}
