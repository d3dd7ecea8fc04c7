// Package platform defines the contract of the local-notification collaborator:
// the OS-level subsystem that fires notifications at wall-clock time and reports
// user interaction. The scheduling core only talks to it through Platform.
package platform

import (
	"context"
	"sync"

	"localnotify/internal/notification"
)

// EventName identifies a listener channel on the platform.
type EventName string

const (
	// EventDelivered fires when a notification is delivered while the app is in the foreground.
	EventDelivered EventName = "delivered"
	// EventActionPerformed fires when the user taps a notification or one of its actions.
	EventActionPerformed EventName = "actionPerformed"
)

// ActionTap is the action id reported when the notification body itself is tapped.
const ActionTap = "tap"

// ActionPerformed is the payload of EventActionPerformed.
type ActionPerformed struct {
	ActionID     string               `json:"actionId"`
	Notification notification.Request `json:"notification"`
}

// Event is what listeners receive. Exactly one of Delivered/Action is set,
// matching Name.
type Event struct {
	Name      EventName
	Delivered *notification.Request
	Action    *ActionPerformed
}

// Handler is invoked on the platform's delivery goroutine.
type Handler func(ctx context.Context, ev Event)

// Subscription is an owned listener registration. Remove is idempotent.
type Subscription interface {
	Remove()
}

// Target names one pending notification in a cancellation.
type Target struct {
	ID int `json:"id"`
}

// PendingResult is the platform's current view of not-yet-fired notifications.
type PendingResult struct {
	Notifications []notification.Request `json:"notifications"`
}

// Platform is the collaborator contract.
//
// Cancel with an empty target list cancels every pending notification.
type Platform interface {
	RequestPermissions(ctx context.Context) (notification.PermissionStatus, error)
	CheckPermissions(ctx context.Context) (notification.PermissionStatus, error)
	Schedule(ctx context.Context, reqs []notification.Request) error
	GetPending(ctx context.Context) (PendingResult, error)
	Cancel(ctx context.Context, targets []Target) error
	RegisterActionTypes(ctx context.Context, types []notification.ActionType) error
	AddListener(ctx context.Context, name EventName, h Handler) (Subscription, error)
}

// SubscriptionFunc adapts a plain func to Subscription.
type SubscriptionFunc func()

func (f SubscriptionFunc) Remove() {
	if f != nil {
		f()
	}
}

// NewSubscription returns a Subscription whose Remove runs fn at most once.
func NewSubscription(fn func()) Subscription {
	if fn == nil {
		return SubscriptionFunc(nil)
	}
	return SubscriptionFunc(sync.OnceFunc(fn))
}
