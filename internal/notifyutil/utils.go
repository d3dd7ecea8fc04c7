package notifyutil

import (
	"context"
	"fmt"
	"time"

	"localnotify/internal/notification"
	"localnotify/internal/platform"
	"localnotify/internal/schedule"
	logx "localnotify/pkg/logx"
)

// Scheduler is the part of notifier.Service the helpers need.
type Scheduler interface {
	Send(ctx context.Context, opts notification.Options) (notification.Request, error)
	NextID(ctx context.Context) (int, error)
	AddListener(ctx context.Context, name platform.EventName, h platform.Handler) (platform.Subscription, error)
	Now() time.Time
}

const (
	DefaultSnoozeMinutes = 10
	DefaultSnoozeLead    = 5 * time.Second
)

type Utils struct {
	sch        Scheduler
	log        logx.Logger
	snoozeLead time.Duration
}

type Option func(*Utils)

// WithSnoozeLead sets how long after submission a snoozable notification fires.
func WithSnoozeLead(d time.Duration) Option {
	return func(u *Utils) { u.snoozeLead = d }
}

func New(sch Scheduler, log logx.Logger, opts ...Option) *Utils {
	if log.IsZero() {
		log = logx.Nop()
	}
	u := &Utils{sch: sch, log: log.With(logx.String("comp", "notifyutil"))}
	for _, o := range opts {
		o(u)
	}
	if u.snoozeLead <= 0 {
		u.snoozeLead = DefaultSnoozeLead
	}
	return u
}

// ScheduleAtTimeOfDay fires at hour:minute today, or tomorrow when that time
// has already passed.
func (u *Utils) ScheduleAtTimeOfDay(ctx context.Context, title, body string, hour, minute int, id *int) (notification.Request, error) {
	at, err := schedule.ResolveTimeOfDay(u.sch.Now(), hour, minute)
	if err != nil {
		return notification.Request{}, fmt.Errorf("%w: %w", notification.ErrInvalidRequest, err)
	}
	return u.sch.Send(ctx, notification.Options{Title: title, Body: body, ID: id, ScheduledAt: &at})
}

// ScheduleAtDayOfWeek fires at hour:minute on the next occurrence of day.
// The current weekday always resolves to next week.
func (u *Utils) ScheduleAtDayOfWeek(ctx context.Context, title, body string, day time.Weekday, hour, minute int, id *int) (notification.Request, error) {
	at, err := schedule.ResolveDayOfWeek(u.sch.Now(), day, hour, minute)
	if err != nil {
		return notification.Request{}, fmt.Errorf("%w: %w", notification.ErrInvalidRequest, err)
	}
	return u.sch.Send(ctx, notification.Options{Title: title, Body: body, ID: id, ScheduledAt: &at})
}
