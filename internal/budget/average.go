package budget

import (
	"time"

	"bilancio/internal/core"
)

const (
	// DefaultLookbackMonths is the rolling window used for the variable
	// average when the profile has no explicit override.
	DefaultLookbackMonths = 6

	// MinConfidenceMonths is the minimum number of averaged months
	// below which the result is flagged as an estimate.
	MinConfidenceMonths = 3
)

// MonthTotal is the variable spend of one calendar month.
type MonthTotal struct {
	Month time.Time // first day of the month, UTC
	Total core.Money
}

// ProgressiveAverageResult is the adaptive monthly average of variable
// spend. The lookback window shrinks to fit the available history so a
// young profile is never averaged against months it did not exist in.
type ProgressiveAverageResult struct {
	// VariableMonthlyAverage is in euros; rounding is left to the
	// presentation layer.
	VariableMonthlyAverage float64
	MonthsConsidered       int
	ProfileAgeMonths       int
	IsEstimated            bool
	VariableByMonth        []MonthTotal
}

// CalculateProgressiveVariableAverage averages the variable bucket over
// an adaptive window: min(configured lookback or default, profile age,
// months with any data), floored at one month. Months inside the window
// with zero spend still divide the average down; they are real quiet
// months, not missing data. profileCreatedAt may be zero, in which case
// the expense span stands in for the profile age.
func CalculateProgressiveVariableAverage(variable []core.Expense, profileCreatedAt time.Time, configuredLookback int, now time.Time) ProgressiveAverageResult {
	res := ProgressiveAverageResult{
		ProfileAgeMonths: profileAgeMonths(variable, profileCreatedAt, now),
	}

	lookback := configuredLookback
	if lookback <= 0 {
		lookback = DefaultLookbackMonths
	}
	if res.ProfileAgeMonths < lookback {
		lookback = res.ProfileAgeMonths
	}
	if n := monthsWithData(variable); n < lookback {
		lookback = n
	}
	if lookback < 1 {
		lookback = 1
	}

	totals := make(map[time.Time]int64)
	for _, e := range variable {
		totals[monthOf(e.Date)] += e.Amount.Cents
	}

	var windowTotal int64
	current := monthOf(now)
	for i := lookback - 1; i >= 0; i-- {
		month := current.AddDate(0, -i, 0)
		cents := totals[month]
		windowTotal += cents
		res.VariableByMonth = append(res.VariableByMonth, MonthTotal{
			Month: month,
			Total: core.Money{Cents: cents},
		})
	}

	res.MonthsConsidered = lookback
	res.VariableMonthlyAverage = float64(windowTotal) / 100.0 / float64(lookback)
	res.IsEstimated = lookback < MinConfidenceMonths
	return res
}

func profileAgeMonths(variable []core.Expense, createdAt, now time.Time) int {
	if !createdAt.IsZero() {
		n := monthsBetween(createdAt, now)
		if n < 0 {
			return 0
		}
		return n
	}
	// No profile timestamp: fall back to the span of the expense
	// history itself, inclusive of both ends.
	if len(variable) == 0 {
		return 0
	}
	earliest, latest := variable[0].Date, variable[0].Date
	for _, e := range variable[1:] {
		if e.Date.Before(earliest) {
			earliest = e.Date
		}
		if e.Date.After(latest) {
			latest = e.Date
		}
	}
	return monthsBetween(earliest, latest) + 1
}

func monthsWithData(expenses []core.Expense) int {
	months := make(map[time.Time]bool)
	for _, e := range expenses {
		months[monthOf(e.Date)] = true
	}
	return len(months)
}

// monthsBetween counts whole calendar months from a to b.
func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
