package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduleValidate(t *testing.T) {
	t.Parallel()
	require.NoError(t, Once(noon).Validate())
	require.NoError(t, Repeating(noon, EveryDay, 0).Validate())

	require.ErrorIs(t, Schedule{}.Validate(), ErrMissingAt)
	require.ErrorIs(t, Schedule{At: noon, Repeats: true}.Validate(), ErrMissingEvery)
	require.ErrorIs(t, Schedule{At: noon, Repeats: true, Every: "fortnight"}.Validate(), ErrUnknownUnit)
	require.ErrorIs(t, Schedule{At: noon, Count: -1}.Validate(), ErrNegativeCount)
}

func TestScheduleCronSpec(t *testing.T) {
	t.Parallel()
	at := time.Date(2025, time.March, 15, 9, 30, 5, 0, time.UTC) // Saturday
	tests := []struct {
		every Unit
		want  string
	}{
		{EveryMinute, "5 * * * * *"},
		{EveryHour, "5 30 * * * *"},
		{EveryDay, "5 30 9 * * *"},
		{EveryWeek, "5 30 9 * * 6"},
		{EveryMonth, "5 30 9 15 * *"},
		{EveryYear, "5 30 9 15 3 *"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Repeating(at, tt.every, 0).CronSpec(), string(tt.every))
	}
	require.Empty(t, Once(at).CronSpec())
}

func TestScheduleNext(t *testing.T) {
	t.Parallel()

	next, ok := Once(noon).Next(noon.Add(-time.Second), 0)
	require.True(t, ok)
	require.True(t, noon.Equal(next))

	_, ok = Once(noon).Next(noon, 1)
	require.False(t, ok)

	daily := Repeating(noon, EveryDay, 0)
	next, ok = daily.Next(noon, 1)
	require.True(t, ok)
	require.True(t, noon.AddDate(0, 0, 1).Equal(next), "got %v", next)

	monthly := Repeating(time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC), EveryMonth, 0)
	next, ok = monthly.Next(time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC), 1)
	require.True(t, ok)
	require.True(t, time.Date(2025, 3, 31, 8, 0, 0, 0, time.UTC).Equal(next), "got %v", next)
}

func TestScheduleNextHonorsCount(t *testing.T) {
	t.Parallel()
	hourly := Repeating(noon, EveryHour, 2)
	_, ok := hourly.Next(noon, 1)
	require.True(t, ok)
	_, ok = hourly.Next(noon.Add(time.Hour), 2)
	require.False(t, ok)
}

func TestUnitForInterval(t *testing.T) {
	t.Parallel()
	require.Equal(t, EveryMinute, UnitForInterval(60))
	require.Equal(t, EveryHour, UnitForInterval(3600))
	require.Equal(t, EveryDay, UnitForInterval(86400))
	require.Equal(t, EveryWeek, UnitForInterval(7*86400))
	require.Equal(t, EveryMonth, UnitForInterval(31*86400))
	require.Equal(t, EveryYear, UnitForInterval(366*86400))
}

func TestParseUnit(t *testing.T) {
	t.Parallel()
	u, err := ParseUnit(" Hours ")
	require.NoError(t, err)
	require.Equal(t, EveryHour, u)

	_, err = ParseUnit("decade")
	require.ErrorIs(t, err, ErrUnknownUnit)
}

func TestParseClockAndWeekday(t *testing.T) {
	t.Parallel()
	h, m, err := ParseClock("07:05")
	require.NoError(t, err)
	require.Equal(t, [2]int{7, 5}, [2]int{h, m})

	_, _, err = ParseClock("24:00")
	require.Error(t, err)
	_, _, err = ParseClock("noon")
	require.Error(t, err)

	d, err := ParseWeekday("Sat")
	require.NoError(t, err)
	require.Equal(t, time.Saturday, d)
	d, err = ParseWeekday("0")
	require.NoError(t, err)
	require.Equal(t, time.Sunday, d)
	_, err = ParseWeekday("7")
	require.Error(t, err)
}
