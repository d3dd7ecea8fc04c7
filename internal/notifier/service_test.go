package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"localnotify/internal/notification"
	"localnotify/internal/platform"
	"localnotify/internal/platform/platformtest"
	"localnotify/internal/schedule"
	logx "localnotify/pkg/logx"
)

var noon = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type seqIDs struct{ next []int }

func (s *seqIDs) NextID() int {
	id := s.next[0]
	s.next = s.next[1:]
	return id
}

func newService(t *testing.T, cfg Config, opts ...Option) (*Service, *platformtest.Recorder) {
	t.Helper()
	rec := platformtest.New()
	cfg.Location = time.UTC
	opts = append([]Option{WithClock(func() time.Time { return noon })}, opts...)
	return New(cfg, rec, logx.Nop(), opts...), rec
}

func TestInitializeSubscribesOnceAndCloses(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var delivered []int
	var actions []string
	svc, rec := newService(t, Config{}, WithHooks(Hooks{
		OnDelivered: func(_ context.Context, r notification.Request) { delivered = append(delivered, r.ID) },
		OnAction:    func(_ context.Context, a platform.ActionPerformed) { actions = append(actions, a.ActionID) },
	}))

	subs, err := svc.Initialize(ctx)
	require.NoError(t, err)
	require.Equal(t, notification.PermissionGranted, subs.Permission.Display)
	require.Len(t, rec.CallsTo("RequestPermissions"), 1)
	require.Len(t, rec.CallsTo("AddListener"), 2)
	require.Equal(t, 2, rec.Listeners())

	_, err = svc.Initialize(ctx)
	require.ErrorIs(t, err, ErrAlreadyInitialized)
	require.Len(t, rec.CallsTo("AddListener"), 2)

	req := notification.Request{ID: 3, Title: "t"}
	rec.Emit(ctx, platform.Event{Name: platform.EventDelivered, Delivered: &req})
	rec.Emit(ctx, platform.Event{Name: platform.EventActionPerformed, Action: &platform.ActionPerformed{ActionID: "tap", Notification: req}})
	require.Equal(t, []int{3}, delivered)
	require.Equal(t, []string{"tap"}, actions)

	subs.Close()
	subs.Close()
	require.Equal(t, 0, rec.Listeners())

	again, err := svc.Initialize(ctx)
	require.NoError(t, err)
	defer again.Close()
}

func TestInitializeDenied(t *testing.T) {
	t.Parallel()
	svc, rec := newService(t, Config{})
	rec.Permission = notification.PermissionDenied

	subs, err := svc.Initialize(context.Background())
	require.Nil(t, subs)
	require.ErrorIs(t, err, notification.ErrPermissionDenied)
	require.Empty(t, rec.CallsTo("AddListener"))
}

func TestInitializeRemovesFirstListenerWhenSecondFails(t *testing.T) {
	t.Parallel()
	svc, rec := newService(t, Config{})
	boom := errors.New("boom")

	rec.ListenErr = boom
	rec.ListenErrFor = platform.EventActionPerformed
	_, err := svc.Initialize(context.Background())
	require.ErrorIs(t, err, boom)
	require.Len(t, rec.CallsTo("AddListener"), 2)
	require.Equal(t, 0, rec.Listeners())
}

func TestCheckPermissionsIsIdempotent(t *testing.T) {
	t.Parallel()
	svc, rec := newService(t, Config{})
	rec.Permission = "provisional"

	for range 3 {
		st, err := svc.CheckPermissions(context.Background())
		require.NoError(t, err)
		require.Equal(t, notification.PermissionState("provisional"), st.Display)
	}
	require.Len(t, rec.CallsTo("CheckPermissions"), 3)
	require.Empty(t, rec.CallsTo("RequestPermissions"))
}

func TestCancelAllSendsEmptyList(t *testing.T) {
	t.Parallel()
	svc, rec := newService(t, Config{})
	require.NoError(t, svc.CancelAll(context.Background()))

	calls := rec.CallsTo("Cancel")
	require.Len(t, calls, 1)
	require.NotNil(t, calls[0].Targets)
	require.Empty(t, calls[0].Targets)
}

func TestCancelSingleTarget(t *testing.T) {
	t.Parallel()
	svc, rec := newService(t, Config{})
	require.NoError(t, svc.Cancel(context.Background(), 42))
	require.Equal(t, []platform.Target{{ID: 42}}, rec.CallsTo("Cancel")[0].Targets)
}

func TestSubmitTwoPhase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, rec := newService(t, Config{})

	req, err := svc.ScheduleWithActions(ctx, "T", "B", []notification.Action{{ID: "ok", Title: "OK"}}, notification.Int(5))
	require.NoError(t, err)
	require.Equal(t, notification.DefaultActionTypeID, req.ActionTypeID)

	calls := rec.Calls()
	require.Len(t, calls, 2)
	require.Equal(t, "RegisterActionTypes", calls[0].Method)
	require.Equal(t, "Schedule", calls[1].Method)
}

func TestSubmitPartialRegistration(t *testing.T) {
	t.Parallel()
	svc, rec := newService(t, Config{})
	rec.ScheduleErr = notification.ErrUnavailable

	_, err := svc.ScheduleWithActions(context.Background(), "T", "B", []notification.Action{{ID: "ok", Title: "OK"}}, notification.Int(5))
	var perr *notification.PartialRegistrationError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, 5, perr.RequestID)
	require.Equal(t, []string{notification.DefaultActionTypeID}, perr.ActionTypeIDs)
	require.ErrorIs(t, err, notification.ErrUnavailable)
	require.Empty(t, rec.CallsTo("Cancel"), "no compensation")
}

func TestSubmitRegistrationFailureSkipsSchedule(t *testing.T) {
	t.Parallel()
	svc, rec := newService(t, Config{})
	rec.RegisterErr = notification.ErrUnavailable

	_, err := svc.ScheduleWithActions(context.Background(), "T", "B", []notification.Action{{ID: "ok", Title: "OK"}}, notification.Int(5))
	require.ErrorIs(t, err, notification.ErrUnavailable)
	var perr *notification.PartialRegistrationError
	require.False(t, errors.As(err, &perr))
	require.Empty(t, rec.CallsTo("Schedule"))
}

func TestSubmitPropagatesCollaboratorError(t *testing.T) {
	t.Parallel()
	svc, rec := newService(t, Config{})
	rec.ScheduleErr = notification.ErrPermissionDenied

	_, err := svc.ScheduleNotification(context.Background(), "T", "B", notification.Int(1), 0)
	require.ErrorIs(t, err, notification.ErrPermissionDenied)
	require.Len(t, svc.Snapshot(), 1)
	require.NotEmpty(t, svc.Snapshot()[0].Error)
}

func TestSubmitRejectsInvalidBeforePlatform(t *testing.T) {
	t.Parallel()
	svc, rec := newService(t, Config{})
	_, err := svc.Send(context.Background(), notification.Options{Body: "no title"})
	require.ErrorIs(t, err, notification.ErrInvalidRequest)
	require.Empty(t, rec.Calls())
}

func TestConvenienceCalls(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, rec := newService(t, Config{})

	r, err := svc.ScheduleNotification(ctx, "a", "b", notification.Int(1), 30)
	require.NoError(t, err)
	require.True(t, r.Schedule.At.Equal(noon.Add(30*time.Second)))

	at := noon.Add(2 * time.Hour)
	r, err = svc.ScheduleNotificationAt(ctx, "a", "b", at, notification.Int(2))
	require.NoError(t, err)
	require.True(t, r.Schedule.At.Equal(at))

	r, err = svc.ScheduleRepeating(ctx, "a", "b", 86400, notification.Int(3))
	require.NoError(t, err)
	require.True(t, r.Schedule.Repeats)
	require.Equal(t, schedule.EveryDay, r.Schedule.Every)
	require.True(t, r.Schedule.At.Equal(noon.Add(24*time.Hour)))

	r, err = svc.ScheduleWithData(ctx, "a", "b", map[string]any{"category": "work"}, notification.Int(4))
	require.NoError(t, err)
	require.Equal(t, "work", r.Extra["category"])

	require.Len(t, rec.Scheduled(), 4)
}

func TestListPendingIsNeverCached(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, rec := newService(t, Config{})

	_, err := svc.ScheduleNotification(ctx, "a", "b", notification.Int(9), 10)
	require.NoError(t, err)
	_, err = svc.ScheduleNotification(ctx, "a", "b", notification.Int(4), 10)
	require.NoError(t, err)

	got, err := svc.ListPending(ctx)
	require.NoError(t, err)
	require.Equal(t, 9, got[0].ID, "platform order kept")

	require.NoError(t, svc.Cancel(ctx, 9))
	got, err = svc.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, rec.CallsTo("GetPending"), 2)

	rec.PendingErr = notification.ErrUnavailable
	_, err = svc.ListPending(ctx)
	require.ErrorIs(t, err, notification.ErrUnavailable)
}

func TestNextIDPolicies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("random does not query", func(t *testing.T) {
		svc, rec := newService(t, Config{}, WithIDGenerator(&seqIDs{next: []int{7}}))
		id, err := svc.NextID(ctx)
		require.NoError(t, err)
		require.Equal(t, 7, id)
		require.Empty(t, rec.Calls())
	})

	t.Run("checked skips pending", func(t *testing.T) {
		svc, rec := newService(t, Config{IDPolicy: IDPolicyChecked}, WithIDGenerator(&seqIDs{next: []int{1, 1, 2}}))
		require.NoError(t, rec.Schedule(ctx, []notification.Request{{ID: 1, Title: "x"}}))
		id, err := svc.NextID(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, id)
	})

	t.Run("checked gives up", func(t *testing.T) {
		svc, rec := newService(t, Config{IDPolicy: IDPolicyChecked, IDAttempts: 2}, WithIDGenerator(&seqIDs{next: []int{1, 1}}))
		require.NoError(t, rec.Schedule(ctx, []notification.Request{{ID: 1, Title: "x"}}))
		_, err := svc.NextID(ctx)
		require.ErrorIs(t, err, ErrIDExhausted)
	})

	t.Run("send allocates", func(t *testing.T) {
		svc, _ := newService(t, Config{}, WithIDGenerator(&seqIDs{next: []int{77}}))
		r, err := svc.Send(ctx, notification.Options{Title: "a", Body: "b"})
		require.NoError(t, err)
		require.Equal(t, 77, r.ID)
	})
}

func TestRateLimitHonorsContext(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t, Config{RatePerSec: 0.001, Burst: 1})

	ctx := context.Background()
	_, err := svc.ScheduleNotification(ctx, "a", "b", notification.Int(1), 0)
	require.NoError(t, err)

	cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = svc.ScheduleNotification(cctx, "a", "b", notification.Int(2), 0)
	require.Error(t, err)

	svc.Apply(Config{Location: time.UTC})
	_, err = svc.ScheduleNotification(ctx, "a", "b", notification.Int(3), 0)
	require.NoError(t, err)
}
