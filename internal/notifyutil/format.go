package notifyutil

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"localnotify/internal/notification"
)

// Uncategorized labels requests without a usable category value.
const Uncategorized = "uncategorized"

// FormatRelativeTime describes when at fires relative to now: "in N seconds",
// "in N minutes", "in N hours", "in N days" (each floored), and beyond a week
// "on 1/2/2006 at 3:04:05 PM". Past times produce negative second counts.
func FormatRelativeTime(at, now time.Time) string {
	sec := floorDiv(at.Sub(now).Milliseconds(), 1000)
	mins := floorDiv(sec, 60)
	hours := floorDiv(mins, 60)
	days := floorDiv(hours, 24)

	switch {
	case sec < 60:
		return fmt.Sprintf("in %d seconds", sec)
	case mins < 60:
		return fmt.Sprintf("in %d minutes", mins)
	case hours < 24:
		return fmt.Sprintf("in %d hours", hours)
	case days < 7:
		return fmt.Sprintf("in %d days", days)
	default:
		return "on " + at.Format("1/2/2006") + " at " + at.Format("3:04:05 PM")
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Group is one category bucket.
type Group struct {
	Label    string
	Requests []notification.Request
}

type Groups []Group

// Map returns the groups keyed by label.
func (g Groups) Map() map[string][]notification.Request {
	out := make(map[string][]notification.Request, len(g))
	for _, grp := range g {
		out[grp.Label] = grp.Requests
	}
	return out
}

// Labels returns the group labels in order.
func (g Groups) Labels() []string {
	out := make([]string, 0, len(g))
	for _, grp := range g {
		out = append(out, grp.Label)
	}
	return out
}

// GroupByCategory buckets reqs by Extra[key], in order of first appearance.
// An empty key means "category". Missing, nil, empty, false or zero values
// fall into Uncategorized.
func GroupByCategory(reqs []notification.Request, key string) Groups {
	if strings.TrimSpace(key) == "" {
		key = "category"
	}
	var groups Groups
	index := map[string]int{}
	for _, r := range reqs {
		label := Uncategorized
		if v, ok := r.Extra[key]; ok && truthy(v) {
			label = fmt.Sprint(v)
		}
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, Group{Label: label})
		}
		groups[i].Requests = append(groups[i].Requests, r)
	}
	return groups
}

func truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.Len() > 0
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}
