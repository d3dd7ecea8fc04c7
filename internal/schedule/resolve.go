package schedule

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNegativeDelay = errors.New("schedule: delay must be >= 0")
	ErrOutOfRange    = errors.New("schedule: value out of range")
)

// ResolveDelay returns now + delaySeconds. Zero means "as soon as possible".
func ResolveDelay(now time.Time, delaySeconds int) (time.Time, error) {
	if delaySeconds < 0 {
		return time.Time{}, fmt.Errorf("%w: %d", ErrNegativeDelay, delaySeconds)
	}
	return now.Add(time.Duration(delaySeconds) * time.Second), nil
}

// ResolveTimeOfDay returns today at hour:minute:00 in now's location, or the same
// wall-clock time on the next calendar day when that instant is not after now.
func ResolveTimeOfDay(now time.Time, hour, minute int) (time.Time, error) {
	if err := checkClock(hour, minute); err != nil {
		return time.Time{}, err
	}
	y, m, d := now.Date()
	at := time.Date(y, m, d, hour, minute, 0, 0, now.Location())
	if !at.After(now) {
		// time.Date normalizes d+1, keeping the wall clock across DST changes.
		at = time.Date(y, m, d+1, hour, minute, 0, 0, now.Location())
	}
	return at, nil
}

// ResolveDayOfWeek returns the next target weekday at hour:minute. The current
// weekday always rolls to next week, so the result is never today.
func ResolveDayOfWeek(now time.Time, target time.Weekday, hour, minute int) (time.Time, error) {
	if target < time.Sunday || target > time.Saturday {
		return time.Time{}, fmt.Errorf("%w: weekday %d", ErrOutOfRange, int(target))
	}
	if err := checkClock(hour, minute); err != nil {
		return time.Time{}, err
	}
	offset := (int(target) - int(now.Weekday())) % 7
	if offset <= 0 {
		offset += 7
	}
	y, m, d := now.Date()
	return time.Date(y, m, d+offset, hour, minute, 0, 0, now.Location()), nil
}

// ResolveCountdownStep returns now + intervalSeconds*step.
func ResolveCountdownStep(now time.Time, intervalSeconds, step int) time.Time {
	return now.Add(time.Duration(intervalSeconds) * time.Duration(step) * time.Second)
}

func checkClock(hour, minute int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("%w: hour %d", ErrOutOfRange, hour)
	}
	if minute < 0 || minute > 59 {
		return fmt.Errorf("%w: minute %d", ErrOutOfRange, minute)
	}
	return nil
}
