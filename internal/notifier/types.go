package notifier

import (
	"context"
	"errors"
	"time"

	"localnotify/internal/notification"
	"localnotify/internal/platform"
)

var (
	ErrAlreadyInitialized = errors.New("notifier already initialized")
	ErrIDExhausted        = errors.New("no free notification id found")
)

// IDPolicy selects how ids are allocated when a caller does not supply one.
type IDPolicy string

const (
	// IDPolicyRandom draws without checking for collisions.
	IDPolicyRandom IDPolicy = "random"
	// IDPolicyChecked redraws ids already present in the pending set.
	IDPolicyChecked IDPolicy = "checked"
)

// Config controls id allocation and submission pacing.
type Config struct {
	IDPolicy    IDPolicy
	MaxRandomID int
	// IDAttempts bounds redraws under IDPolicyChecked.
	IDAttempts int
	// RatePerSec limits platform schedule calls; 0 disables the limit.
	RatePerSec float64
	Burst      int
	// Location is the zone wall-clock resolvers work in. Nil means time.Local.
	Location     *time.Location
	ActionTypeID string
}

// Hooks receive platform events after they are logged. Both are optional and
// run on the platform's delivery goroutine.
type Hooks struct {
	OnDelivered func(ctx context.Context, req notification.Request)
	OnAction    func(ctx context.Context, ev platform.ActionPerformed)
}

// HistoryItem is one submitted request, kept for status output.
type HistoryItem struct {
	At    time.Time `json:"at"`
	ID    int       `json:"id"`
	Title string    `json:"title"`
	Error string    `json:"error,omitempty"`
}
