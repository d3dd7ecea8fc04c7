package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	ErrMissingAt     = errors.New("schedule: first fire time required")
	ErrMissingEvery  = errors.New("schedule: every is required when repeats is set")
	ErrUnknownUnit   = errors.New("schedule: unknown repeat unit")
	ErrNegativeCount = errors.New("schedule: count must be >= 0")
)

// Schedule is either a single instant or a recurring rule anchored on At.
//
// Count bounds the total number of fires of a recurring schedule; 0 means unbounded.
type Schedule struct {
	At      time.Time `json:"at"`
	Repeats bool      `json:"repeats,omitempty"`
	Every   Unit      `json:"every,omitempty"`
	Count   int       `json:"count,omitempty"`
}

// Once returns a one-shot schedule.
func Once(at time.Time) Schedule { return Schedule{At: at} }

// Repeating returns a recurring schedule.
func Repeating(at time.Time, every Unit, count int) Schedule {
	return Schedule{At: at, Repeats: true, Every: every, Count: count}
}

func (s Schedule) Validate() error {
	if s.At.IsZero() {
		return ErrMissingAt
	}
	if s.Repeats && s.Every == "" {
		return ErrMissingEvery
	}
	if s.Every != "" && !s.Every.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownUnit, s.Every)
	}
	if s.Count < 0 {
		return ErrNegativeCount
	}
	return nil
}

// 6-field specs (with seconds) so sub-minute anchors survive.
var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// CronSpec renders the recurrence rule as a 6-field cron expression whose fixed
// fields come from At (in At's location). It returns "" for one-shot schedules.
func (s Schedule) CronSpec() string {
	if !s.Repeats {
		return ""
	}
	at := s.At
	switch s.Every {
	case EveryMinute:
		return fmt.Sprintf("%d * * * * *", at.Second())
	case EveryHour:
		return fmt.Sprintf("%d %d * * * *", at.Second(), at.Minute())
	case EveryDay:
		return fmt.Sprintf("%d %d %d * * *", at.Second(), at.Minute(), at.Hour())
	case EveryWeek:
		return fmt.Sprintf("%d %d %d * * %d", at.Second(), at.Minute(), at.Hour(), int(at.Weekday()))
	case EveryMonth:
		return fmt.Sprintf("%d %d %d %d * *", at.Second(), at.Minute(), at.Hour(), at.Day())
	case EveryYear:
		return fmt.Sprintf("%d %d %d %d %d *", at.Second(), at.Minute(), at.Hour(), at.Day(), int(at.Month()))
	default:
		return ""
	}
}

// Next returns the first fire time strictly after `after`, given that the schedule
// has already fired `fired` times. ok is false when there is no further occurrence.
//
// Months lacking At's day of month are skipped, as cron does.
func (s Schedule) Next(after time.Time, fired int) (time.Time, bool) {
	if s.At.IsZero() {
		return time.Time{}, false
	}
	if fired == 0 && s.At.After(after) {
		return s.At, true
	}
	if !s.Repeats {
		return time.Time{}, false
	}
	if s.Count > 0 && fired >= s.Count {
		return time.Time{}, false
	}
	sched, err := cronParser.Parse(s.CronSpec())
	if err != nil {
		return time.Time{}, false
	}
	if after.Before(s.At) {
		after = s.At
	}
	next := sched.Next(after.In(s.At.Location()))
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}
