package notification

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"localnotify/internal/schedule"
)

// Options is the loose call shape accepted by Builder.Build.
//
// ScheduledAt takes precedence over DelaySeconds; with neither, the request fires
// as soon as the platform processes it.
type Options struct {
	Title        string         `validate:"required"`
	Body         string         `validate:"required"`
	ID           *int           `validate:"omitempty,gt=0"`
	DelaySeconds *int           `validate:"omitempty,gte=0"`
	ScheduledAt  *time.Time     `validate:"-"`
	Repeats      bool           `validate:"-"`
	Every        schedule.Unit  `validate:"required_if=Repeats true"`
	Count        int            `validate:"gte=0"`
	Sound        string         `validate:"-"`
	Attachments  []Attachment   `validate:"dive"`
	Actions      []Action       `validate:"dive"`
	ActionTypeID string         `validate:"-"`
	Extra        map[string]any `validate:"-"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validator exposes the shared validator so sibling packages check arguments the same way.
func Validator() *validator.Validate { return validate }

// Builder assembles Requests. It is safe for concurrent use.
type Builder struct {
	now          func() time.Time
	ids          IDGenerator
	actionTypeID string
}

type BuilderOption func(*Builder)

func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

func WithIDGenerator(g IDGenerator) BuilderOption {
	return func(b *Builder) { b.ids = g }
}

// WithDefaultActionType overrides the id given to bundled actions.
func WithDefaultActionType(id string) BuilderOption {
	return func(b *Builder) { b.actionTypeID = id }
}

func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{}
	for _, o := range opts {
		o(b)
	}
	if b.now == nil {
		b.now = time.Now
	}
	if b.ids == nil {
		b.ids = NewRandomIDs(DefaultMaxRandomID, 0)
	}
	if strings.TrimSpace(b.actionTypeID) == "" {
		b.actionTypeID = DefaultActionTypeID
	}
	return b
}

func (b *Builder) Now() time.Time { return b.now() }

// Build turns opts into a Submission. Bundled actions produce an ActionType in the
// submission and set Request.ActionTypeID; nothing is registered here.
func (b *Builder) Build(opts Options) (Submission, error) {
	if err := ValidateStruct(opts); err != nil {
		return Submission{}, err
	}

	now := b.now()
	at := now
	switch {
	case opts.ScheduledAt != nil:
		at = *opts.ScheduledAt
	case opts.DelaySeconds != nil:
		var err error
		if at, err = schedule.ResolveDelay(now, *opts.DelaySeconds); err != nil {
			return Submission{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}

	sch := schedule.Schedule{At: at, Repeats: opts.Repeats, Every: opts.Every, Count: opts.Count}
	if err := sch.Validate(); err != nil {
		return Submission{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	var id int
	if opts.ID != nil {
		id = *opts.ID
	} else {
		id = b.ids.NextID()
	}

	sound := opts.Sound
	if strings.TrimSpace(sound) == "" {
		sound = DefaultSound
	}

	req := Request{
		ID:           id,
		Title:        opts.Title,
		Body:         opts.Body,
		Schedule:     sch,
		Sound:        sound,
		Attachments:  slices.Clone(opts.Attachments),
		ActionTypeID: opts.ActionTypeID,
		Extra:        maps.Clone(opts.Extra),
	}

	var types []ActionType
	if len(opts.Actions) > 0 {
		if req.ActionTypeID == "" {
			req.ActionTypeID = b.actionTypeID
		}
		types = []ActionType{{ID: req.ActionTypeID, Actions: slices.Clone(opts.Actions)}}
	}

	return Submission{Request: req, ActionTypes: types}, nil
}

// ValidateStruct runs struct-tag validation and maps failures to ErrInvalidRequest.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			problems = append(problems, fmt.Sprintf("%s: %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		problems = append(problems, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(problems, "; "))
}
