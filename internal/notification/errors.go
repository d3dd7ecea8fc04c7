package notification

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidRequest marks a request rejected before it reached the platform.
	ErrInvalidRequest = errors.New("invalid notification request")
	// ErrPermissionDenied is reported when the platform refuses to post notifications.
	ErrPermissionDenied = errors.New("notification permission denied")
	// ErrUnavailable is reported when the platform call itself fails.
	ErrUnavailable = errors.New("notification platform unavailable")
)

// PartialRegistrationError reports that action types were registered but the
// request referencing them was not scheduled. The registration is not undone.
type PartialRegistrationError struct {
	RequestID     int
	ActionTypeIDs []string
	Err           error
}

func (e *PartialRegistrationError) Error() string {
	return fmt.Sprintf("notification %d: action types [%s] registered but schedule failed: %v",
		e.RequestID, strings.Join(e.ActionTypeIDs, ","), e.Err)
}

func (e *PartialRegistrationError) Unwrap() error { return e.Err }
