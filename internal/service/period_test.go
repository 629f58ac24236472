package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/solidario/donation-api/internal/models"
)

func TestGrowthPercent(t *testing.T) {
	cases := []struct {
		name     string
		current  float64
		previous float64
		want     int
	}{
		{"no activity at all", 0, 0, 0},
		{"new activity from zero", 42, 0, 100},
		{"doubled", 20, 10, 100},
		{"halved", 10, 20, -50},
		{"unchanged", 15, 15, 0},
		{"rounded up", 10.5, 10, 5},
		{"full drop", 0, 30, -100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, GrowthPercent(tc.current, tc.previous))
		})
	}
}

func TestRatePercent(t *testing.T) {
	require.Equal(t, 0, RatePercent(5, 0))
	require.Equal(t, 50, RatePercent(1, 2))
	require.Equal(t, 33, RatePercent(1, 3))
	require.Equal(t, 67, RatePercent(2, 3))
	require.Equal(t, 100, RatePercent(3, 3))
}

func TestDaysBetweenFractional(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(36 * time.Hour)
	require.InDelta(t, 1.5, DaysBetween(from, to), 1e-9)
}

func TestResolvePeriodRangeExplicitDatesWin(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	rng := ResolvePeriodRange(now, models.AnalyticsFilter{
		Period:    models.PeriodYear,
		StartDate: &start,
		EndDate:   &end,
	})
	require.Equal(t, &start, rng.From)
	require.Equal(t, &end, rng.To)
}

func TestResolvePeriodRange(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC)

	cases := []struct {
		period models.Period
		from   time.Time
	}{
		{models.PeriodToday, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)},
		{models.PeriodWeek, now.AddDate(0, 0, -7)},
		{models.PeriodMonth, now.AddDate(0, -1, 0)},
		{models.PeriodQuarter, now.AddDate(0, -3, 0)},
		{models.PeriodYear, now.AddDate(-1, 0, 0)},
	}
	for _, tc := range cases {
		t.Run(string(tc.period), func(t *testing.T) {
			rng := ResolvePeriodRange(now, models.AnalyticsFilter{Period: tc.period})
			require.NotNil(t, rng.From)
			require.NotNil(t, rng.To)
			require.Equal(t, tc.from, *rng.From)
			require.Equal(t, now, *rng.To)
		})
	}
}

func TestResolvePeriodRangeAllIsOpen(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	rng := ResolvePeriodRange(now, models.AnalyticsFilter{Period: models.PeriodAll})
	require.Nil(t, rng.From)
	require.Nil(t, rng.To)
}

func TestGrowthWindowsWeekly(t *testing.T) {
	// Wednesday 2024-06-12; the Sunday-based week starts 2024-06-09.
	now := time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)
	current, previous := GrowthWindows(now, models.PeriodWeek)

	require.Equal(t, time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC), *current.From)
	require.Equal(t, now, *current.To)
	require.Equal(t, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), *previous.From)
	require.Equal(t, time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC), *previous.To)
}

func TestGrowthWindowsMonthly(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	current, previous := GrowthWindows(now, models.PeriodYear)

	require.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), *current.From)
	require.Equal(t, now, *current.To)
	require.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), *previous.From)
	require.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), *previous.To)
}
