package notifyutil

import (
	"context"
	"fmt"

	"localnotify/internal/notification"
	"localnotify/internal/schedule"
	logx "localnotify/pkg/logx"
)

// Countdown describes a countdown series. Fields are used as given; callers
// wanting the usual series start from CountdownDefaults.
type Countdown struct {
	Title           string `validate:"required"`
	FinalBody       string `validate:"required"`
	From            int    `validate:"gte=0"`
	IntervalSeconds int    `validate:"gte=0"`
	BaseID          int    `validate:"gte=0"`
}

var CountdownDefaults = Countdown{From: 5, IntervalSeconds: 60, BaseID: 10000}

// ScheduleCountdown submits From countdown entries followed by the final one.
// Entry i (From down to 1) is titled "<title> - i", has id BaseID+i and fires
// after IntervalSeconds*(From-i+1). The final entry keeps the plain title, has
// id BaseID and fires one interval after the last countdown entry. Submissions
// are sequential; the first failure stops the series and is returned together
// with the requests already submitted. countFrom 0 submits only the final entry
// and intervalSeconds 0 makes every entry due immediately.
func (u *Utils) ScheduleCountdown(ctx context.Context, title, finalBody string, countFrom, intervalSeconds, baseID int) ([]notification.Request, error) {
	return u.Countdown(ctx, Countdown{
		Title:           title,
		FinalBody:       finalBody,
		From:            countFrom,
		IntervalSeconds: intervalSeconds,
		BaseID:          baseID,
	})
}

func (u *Utils) Countdown(ctx context.Context, c Countdown) ([]notification.Request, error) {
	if err := notification.ValidateStruct(c); err != nil {
		return nil, err
	}

	now := u.sch.Now()
	out := make([]notification.Request, 0, c.From+1)
	for i := c.From; i > 0; i-- {
		at := schedule.ResolveCountdownStep(now, c.IntervalSeconds, c.From-i+1)
		req, err := u.sch.Send(ctx, notification.Options{
			Title:       fmt.Sprintf("%s - %d", c.Title, i),
			Body:        remaining(i),
			ID:          notification.Int(c.BaseID + i),
			ScheduledAt: &at,
		})
		if err != nil {
			return out, fmt.Errorf("countdown step %d: %w", i, err)
		}
		out = append(out, req)
	}

	at := schedule.ResolveCountdownStep(now, c.IntervalSeconds, c.From+1)
	req, err := u.sch.Send(ctx, notification.Options{
		Title:       c.Title,
		Body:        c.FinalBody,
		ID:          notification.Int(c.BaseID),
		ScheduledAt: &at,
	})
	if err != nil {
		return out, fmt.Errorf("countdown final: %w", err)
	}
	out = append(out, req)

	u.log.Debug("countdown scheduled", logx.String("title", c.Title), logx.Int("entries", len(out)))
	return out, nil
}

func remaining(n int) string {
	if n == 1 {
		return "1 minute remaining"
	}
	return fmt.Sprintf("%d minutes remaining", n)
}
