package notifier

import (
	"context"
	"time"

	"localnotify/internal/notification"
	"localnotify/internal/schedule"
)

// ScheduleNotification fires once after delaySeconds. A nil id is allocated.
func (s *Service) ScheduleNotification(ctx context.Context, title, body string, id *int, delaySeconds int) (notification.Request, error) {
	return s.Send(ctx, notification.Options{
		Title:        title,
		Body:         body,
		ID:           id,
		DelaySeconds: notification.Int(delaySeconds),
	})
}

// ScheduleNotificationAt fires once at at.
func (s *Service) ScheduleNotificationAt(ctx context.Context, title, body string, at time.Time, id *int) (notification.Request, error) {
	return s.Send(ctx, notification.Options{
		Title:       title,
		Body:        body,
		ID:          id,
		ScheduledAt: notification.At(at),
	})
}

// ScheduleRepeating fires first after intervalSeconds and then repeats on the
// largest calendar unit that fits the interval.
func (s *Service) ScheduleRepeating(ctx context.Context, title, body string, intervalSeconds int, id *int) (notification.Request, error) {
	return s.Send(ctx, notification.Options{
		Title:        title,
		Body:         body,
		ID:           id,
		DelaySeconds: notification.Int(intervalSeconds),
		Repeats:      true,
		Every:        schedule.UnitForInterval(intervalSeconds),
	})
}

// ScheduleWithActions bundles actions under the default action type and fires
// immediately.
func (s *Service) ScheduleWithActions(ctx context.Context, title, body string, actions []notification.Action, id *int) (notification.Request, error) {
	return s.Send(ctx, notification.Options{
		Title:   title,
		Body:    body,
		ID:      id,
		Actions: actions,
	})
}

// ScheduleWithData attaches extra to the request and fires immediately.
func (s *Service) ScheduleWithData(ctx context.Context, title, body string, extra map[string]any, id *int) (notification.Request, error) {
	return s.Send(ctx, notification.Options{
		Title: title,
		Body:  body,
		ID:    id,
		Extra: extra,
	})
}
