package service

import (
	"math"
	"time"

	"github.com/solidario/donation-api/internal/models"
)

// millisPerDay is the divisor for day-difference calculations. Deltas are
// millisecond subtractions, so fractional days are valid results.
const millisPerDay = 86_400_000.0

// ResolvePeriodRange turns a period filter into a concrete date range.
// Explicit start/end dates take precedence over the named period.
func ResolvePeriodRange(now time.Time, filter models.AnalyticsFilter) models.DateRange {
	if filter.StartDate != nil || filter.EndDate != nil {
		return models.DateRange{From: filter.StartDate, To: filter.EndDate}
	}

	now = now.UTC()
	var from time.Time
	switch filter.Period {
	case models.PeriodToday:
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case models.PeriodWeek:
		from = now.AddDate(0, 0, -7)
	case models.PeriodMonth:
		from = now.AddDate(0, -1, 0)
	case models.PeriodQuarter:
		from = now.AddDate(0, -3, 0)
	case models.PeriodYear:
		from = now.AddDate(-1, 0, 0)
	default:
		return models.DateRange{}
	}
	return models.DateRange{From: &from, To: &now}
}

// GrowthWindows returns the current and immediately preceding window of
// equal length used for period-over-period growth. Today/week granularity
// compares calendar weeks (Sunday-based); everything else compares calendar
// months.
func GrowthWindows(now time.Time, period models.Period) (current, previous models.DateRange) {
	now = now.UTC()
	switch period {
	case models.PeriodToday, models.PeriodWeek:
		weekStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
			AddDate(0, 0, -int(now.Weekday()))
		prevStart := weekStart.AddDate(0, 0, -7)
		return rangeBetween(weekStart, now), rangeBetween(prevStart, weekStart)
	default:
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		prevStart := monthStart.AddDate(0, -1, 0)
		return rangeBetween(monthStart, now), rangeBetween(prevStart, monthStart)
	}
}

func rangeBetween(from, to time.Time) models.DateRange {
	f, t := from, to
	return models.DateRange{From: &f, To: &t}
}

// GrowthPercent computes the period-over-period growth percentage. A zero
// previous value yields 100 when there is any current activity, otherwise 0.
func GrowthPercent(current, previous float64) int {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return int(math.Round((current - previous) / previous * 100))
}

// RatePercent computes part/total*100 rounded to the nearest integer,
// yielding 0 for a zero total.
func RatePercent(part, total float64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(part / total * 100))
}

// DaysBetween returns the fractional day count between two instants.
func DaysBetween(from, to time.Time) float64 {
	return float64(to.Sub(from).Milliseconds()) / millisPerDay
}
