package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Unit is the repeat step of a recurring schedule.
type Unit string

const (
	EveryMinute Unit = "minute"
	EveryHour   Unit = "hour"
	EveryDay    Unit = "day"
	EveryWeek   Unit = "week"
	EveryMonth  Unit = "month"
	EveryYear   Unit = "year"
)

// Units lists the supported repeat steps, shortest first.
var Units = []Unit{EveryMinute, EveryHour, EveryDay, EveryWeek, EveryMonth, EveryYear}

func (u Unit) Valid() bool {
	switch u {
	case EveryMinute, EveryHour, EveryDay, EveryWeek, EveryMonth, EveryYear:
		return true
	default:
		return false
	}
}

func (u Unit) String() string { return string(u) }

// ParseUnit accepts a unit name, case-insensitive, with an optional plural "s".
func ParseUnit(raw string) (Unit, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimSuffix(s, "s")
	u := Unit(s)
	if !u.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, raw)
	}
	return u, nil
}

// UnitForInterval maps an interval in seconds to the largest unit it spans.
// Intervals shorter than an hour map to EveryMinute.
func UnitForInterval(seconds int) Unit {
	d := time.Duration(seconds) * time.Second
	switch {
	case d >= 365*24*time.Hour:
		return EveryYear
	case d >= 30*24*time.Hour:
		return EveryMonth
	case d >= 7*24*time.Hour:
		return EveryWeek
	case d >= 24*time.Hour:
		return EveryDay
	case d >= time.Hour:
		return EveryHour
	default:
		return EveryMinute
	}
}
