package notification

import (
	"fmt"
	"strings"

	"localnotify/internal/schedule"
)

// DefaultSound is used when a request does not name a sound.
const DefaultSound = "default"

// DefaultActionTypeID is the action type id used for actions bundled without an explicit id.
const DefaultActionTypeID = "CUSTOM_ACTIONS"

type Attachment struct {
	ID  string `json:"id,omitempty"`
	URL string `json:"url" validate:"required"`
}

type Action struct {
	ID    string `json:"id" validate:"required"`
	Title string `json:"title" validate:"required"`
}

// ActionType is a named set of interactive buttons. It must be registered with
// the platform before a request referencing it is scheduled.
type ActionType struct {
	ID      string   `json:"id"`
	Actions []Action `json:"actions"`
}

// Request is the unit submitted to the platform.
//
// ID uniqueness is the caller's responsibility; the platform overwrites on collision.
type Request struct {
	ID           int               `json:"id"`
	Title        string            `json:"title"`
	Body         string            `json:"body"`
	Schedule     schedule.Schedule `json:"schedule"`
	Sound        string            `json:"sound,omitempty"`
	Attachments  []Attachment      `json:"attachments,omitempty"`
	ActionTypeID string            `json:"actionTypeId,omitempty"`
	Extra        map[string]any    `json:"extra"`
}

// Validate is a best-effort shape check; it does not catch everything the
// platform may reject.
func (r Request) Validate() error {
	var problems []string
	if r.ID <= 0 {
		problems = append(problems, fmt.Sprintf("id must be > 0 (got %d)", r.ID))
	}
	if strings.TrimSpace(r.Title) == "" {
		problems = append(problems, "title required")
	}
	if err := r.Schedule.Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(problems, "; "))
	}
	return nil
}

// ExtraString returns Extra[key] when it is a non-empty string.
func (r Request) ExtraString(key string) (string, bool) {
	if r.Extra == nil {
		return "", false
	}
	v, ok := r.Extra[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	if s == "" {
		return "", false
	}
	return s, true
}

// Submission pairs a request with the action types that must be registered
// before it is scheduled.
type Submission struct {
	Request     Request
	ActionTypes []ActionType
}

// PermissionState is the platform's display value for notification permission.
// It is passed through as reported; the constants only name the common values.
type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	PermissionPrompt  PermissionState = "prompt"
	PermissionUnknown PermissionState = "unknown"
)

type PermissionStatus struct {
	Display PermissionState `json:"display"`
}

func (s PermissionStatus) Granted() bool { return s.Display == PermissionGranted }
