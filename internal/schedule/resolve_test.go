package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var noon = time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC) // Wednesday

func TestResolveDelayExact(t *testing.T) {
	t.Parallel()
	for _, d := range []int{0, 1, 59, 3600, 86400 * 400} {
		got, err := ResolveDelay(noon, d)
		require.NoError(t, err)
		require.Equal(t, noon.UnixMilli()+int64(d)*1000, got.UnixMilli(), "delay %d", d)
	}

	_, err := ResolveDelay(noon, -1)
	require.ErrorIs(t, err, ErrNegativeDelay)
}

func TestResolveTimeOfDay(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		hour, minute int
		want         time.Time
	}{
		{name: "later today", hour: 15, minute: 0, want: time.Date(2025, 1, 1, 15, 0, 0, 0, time.UTC)},
		{name: "already passed", hour: 9, minute: 0, want: time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)},
		{name: "exactly now rolls over", hour: 12, minute: 0, want: time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)},
		{name: "one minute ahead", hour: 12, minute: 1, want: time.Date(2025, 1, 1, 12, 1, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveTimeOfDay(noon, tt.hour, tt.minute)
			require.NoError(t, err)
			require.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestResolveTimeOfDayRange(t *testing.T) {
	t.Parallel()
	_, err := ResolveTimeOfDay(noon, 24, 0)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = ResolveTimeOfDay(noon, 0, 60)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestResolveTimeOfDayAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 2025-03-09 is the spring-forward day; the next day is only 23h later in wall terms.
	now := time.Date(2025, time.March, 8, 10, 0, 0, 0, loc)
	got, err := ResolveTimeOfDay(now, 9, 30)
	require.NoError(t, err)
	require.Equal(t, 9, got.Hour())
	require.Equal(t, 30, got.Minute())
	require.Equal(t, 9, got.Day())
}

func TestResolveDayOfWeek(t *testing.T) {
	t.Parallel()
	saturday := time.Date(2025, time.January, 4, 12, 0, 0, 0, time.UTC)

	got, err := ResolveDayOfWeek(noon, time.Saturday, 10, 0)
	require.NoError(t, err)
	require.True(t, time.Date(2025, 1, 4, 10, 0, 0, 0, time.UTC).Equal(got))

	got, err = ResolveDayOfWeek(saturday, time.Wednesday, 10, 0)
	require.NoError(t, err)
	require.True(t, time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC).Equal(got))

	// Same weekday, even later today, goes to next week.
	got, err = ResolveDayOfWeek(noon, time.Wednesday, 23, 0)
	require.NoError(t, err)
	require.True(t, time.Date(2025, 1, 8, 23, 0, 0, 0, time.UTC).Equal(got))
}

func TestResolveDayOfWeekAlwaysFuture(t *testing.T) {
	t.Parallel()
	for day := 0; day < 7; day++ {
		now := noon.AddDate(0, 0, day)
		for target := time.Sunday; target <= time.Saturday; target++ {
			for _, hm := range [][2]int{{0, 0}, {12, 0}, {23, 59}} {
				got, err := ResolveDayOfWeek(now, target, hm[0], hm[1])
				require.NoError(t, err)
				require.True(t, got.After(now), "now=%v target=%v got=%v", now, target, got)
				require.Equal(t, target, got.Weekday())
			}
		}
	}

	_, err := ResolveDayOfWeek(noon, time.Weekday(7), 0, 0)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestResolveCountdownStep(t *testing.T) {
	t.Parallel()
	require.True(t, noon.Add(180*time.Second).Equal(ResolveCountdownStep(noon, 60, 3)))
	require.True(t, noon.Equal(ResolveCountdownStep(noon, 60, 0)))
}
