package notification

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"localnotify/internal/schedule"
)

var fixedNow = time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

type seqIDs struct{ next int }

func (s *seqIDs) NextID() int { s.next++; return s.next }

func newTestBuilder() *Builder {
	return NewBuilder(
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(&seqIDs{next: 41}),
	)
}

func TestBuildDefaults(t *testing.T) {
	t.Parallel()
	sub, err := newTestBuilder().Build(Options{Title: "Hi", Body: "there"})
	require.NoError(t, err)

	req := sub.Request
	require.Equal(t, 42, req.ID)
	require.Equal(t, DefaultSound, req.Sound)
	require.True(t, fixedNow.Equal(req.Schedule.At))
	require.False(t, req.Schedule.Repeats)
	require.Empty(t, req.ActionTypeID)
	require.Nil(t, req.Extra)
	require.Empty(t, sub.ActionTypes)
}

func TestBuildSchedulePrecedence(t *testing.T) {
	t.Parallel()
	b := newTestBuilder()
	at := fixedNow.Add(time.Hour)

	sub, err := b.Build(Options{Title: "t", Body: "b", DelaySeconds: Int(5), ScheduledAt: At(at)})
	require.NoError(t, err)
	require.True(t, at.Equal(sub.Request.Schedule.At))

	sub, err = b.Build(Options{Title: "t", Body: "b", DelaySeconds: Int(5)})
	require.NoError(t, err)
	require.True(t, fixedNow.Add(5*time.Second).Equal(sub.Request.Schedule.At))

	sub, err = b.Build(Options{Title: "t", Body: "b", ID: Int(7), DelaySeconds: Int(0)})
	require.NoError(t, err)
	require.Equal(t, 7, sub.Request.ID)
	require.True(t, fixedNow.Equal(sub.Request.Schedule.At))
}

func TestBuildRepeating(t *testing.T) {
	t.Parallel()
	sub, err := newTestBuilder().Build(Options{
		Title: "t", Body: "b", Repeats: true, Every: schedule.EveryHour, Count: 3,
	})
	require.NoError(t, err)
	require.Equal(t, schedule.Repeating(fixedNow, schedule.EveryHour, 3), sub.Request.Schedule)
}

func TestBuildBundlesActions(t *testing.T) {
	t.Parallel()
	actions := []Action{{ID: "reply", Title: "Reply"}, {ID: "dismiss", Title: "Dismiss"}}
	sub, err := newTestBuilder().Build(Options{Title: "t", Body: "b", Actions: actions})
	require.NoError(t, err)
	require.Equal(t, DefaultActionTypeID, sub.Request.ActionTypeID)
	require.Equal(t, []ActionType{{ID: DefaultActionTypeID, Actions: actions}}, sub.ActionTypes)

	// Mutating the caller's slice must not leak into the submission.
	actions[0].Title = "changed"
	require.Equal(t, "Reply", sub.ActionTypes[0].Actions[0].Title)

	sub, err = newTestBuilder().Build(Options{Title: "t", Body: "b", Actions: actions[:1], ActionTypeID: "CHAT"})
	require.NoError(t, err)
	require.Equal(t, "CHAT", sub.Request.ActionTypeID)
	require.Equal(t, "CHAT", sub.ActionTypes[0].ID)
}

func TestBuildReferencesRegisteredTypeWithoutBundling(t *testing.T) {
	t.Parallel()
	sub, err := newTestBuilder().Build(Options{Title: "t", Body: "b", ActionTypeID: "ALREADY_THERE"})
	require.NoError(t, err)
	require.Equal(t, "ALREADY_THERE", sub.Request.ActionTypeID)
	require.Empty(t, sub.ActionTypes)
}

func TestBuildInvalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{name: "missing title", opts: Options{Body: "b"}, want: "Title"},
		{name: "missing body", opts: Options{Title: "t"}, want: "Body"},
		{name: "repeats without every", opts: Options{Title: "t", Body: "b", Repeats: true}, want: "Every"},
		{name: "unknown unit", opts: Options{Title: "t", Body: "b", Repeats: true, Every: "fortnight"}, want: "unknown repeat unit"},
		{name: "negative delay", opts: Options{Title: "t", Body: "b", DelaySeconds: Int(-1)}, want: "DelaySeconds"},
		{name: "zero id", opts: Options{Title: "t", Body: "b", ID: Int(0)}, want: "ID"},
		{name: "negative count", opts: Options{Title: "t", Body: "b", Count: -2}, want: "Count"},
		{name: "action without title", opts: Options{Title: "t", Body: "b", Actions: []Action{{ID: "x"}}}, want: "Actions[0].Title"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestBuilder().Build(tt.opts)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalidRequest), "err = %v", err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRequestValidate(t *testing.T) {
	t.Parallel()
	ok := Request{ID: 1, Title: "t", Schedule: schedule.Once(fixedNow)}
	require.NoError(t, ok.Validate())

	bad := Request{Schedule: schedule.Schedule{At: fixedNow, Repeats: true}}
	err := bad.Validate()
	require.ErrorIs(t, err, ErrInvalidRequest)
	require.Contains(t, err.Error(), "id must be > 0")
	require.Contains(t, err.Error(), "title required")
}

func TestRandomIDsRange(t *testing.T) {
	t.Parallel()
	g := NewRandomIDs(3, 1)
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		id := g.NextID()
		require.GreaterOrEqual(t, id, 1)
		require.LessOrEqual(t, id, 3)
		seen[id] = true
	}
	require.Len(t, seen, 3)
	require.Equal(t, DefaultMaxRandomID, NewRandomIDs(0, 1).Max())
}

func TestPartialRegistrationError(t *testing.T) {
	t.Parallel()
	err := error(&PartialRegistrationError{RequestID: 9, ActionTypeIDs: []string{"A"}, Err: ErrUnavailable})
	require.ErrorIs(t, err, ErrUnavailable)
	var pe *PartialRegistrationError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, 9, pe.RequestID)
	require.Contains(t, err.Error(), "action types [A] registered")
}
