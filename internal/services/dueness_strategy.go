// Package services provides business logic and orchestration services.
//
// This file implements the dueness check for recurring templates: each
// repetition frequency has its own strategy deciding whether a template
// should produce an expense now.

package services

import (
	"fmt"
	"time"

	"bilancio/internal/core"
)

// DuenessChecker is the strategy interface for checking if a recurring
// template is due for execution.
type DuenessChecker interface {
	// IsDue reports whether the template should be processed given its
	// last execution, the current time, and the template's start date.
	IsDue(lastExecution, now, startDate time.Time) bool
}

// MonthlyChecker implements DuenessChecker for monthly templates.
type MonthlyChecker struct{}

// IsDue returns true in a new month once the start date's day of month
// has been reached.
func (MonthlyChecker) IsDue(lastExecution, now, startDate time.Time) bool {
	if lastExecution.IsZero() {
		return true
	}

	// Already processed this month?
	if lastExecution.Year() == now.Year() && lastExecution.Month() == now.Month() {
		return false
	}

	// Clamp the target day to the current month's length (a template
	// anchored on the 31st runs on Feb 28th).
	targetDay := startDate.Day()
	lastDayOfMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if targetDay > lastDayOfMonth {
		targetDay = lastDayOfMonth
	}

	return now.Day() >= targetDay
}

// YearlyChecker implements DuenessChecker for yearly templates.
type YearlyChecker struct{}

// IsDue returns true in a new year once the start date's month and day
// have been reached.
func (YearlyChecker) IsDue(lastExecution, now, startDate time.Time) bool {
	if lastExecution.IsZero() {
		return true
	}

	// Already processed this year?
	if lastExecution.Year() == now.Year() {
		return false
	}

	targetMonth := int(startDate.Month())
	targetDay := startDate.Day()

	if int(now.Month()) < targetMonth {
		return false
	}
	if int(now.Month()) == targetMonth {
		lastDayOfMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
		if targetDay > lastDayOfMonth {
			targetDay = lastDayOfMonth
		}
		return now.Day() >= targetDay
	}

	// Past the target month.
	return true
}

var duenessStrategies = map[core.RepetitionTypes]DuenessChecker{
	core.Monthly: MonthlyChecker{},
	core.Yearly:  YearlyChecker{},
}

// GetDuenessChecker returns the checker for a repetition type.
func GetDuenessChecker(frequency core.RepetitionTypes) (DuenessChecker, error) {
	checker, ok := duenessStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown repetition type: %s", frequency)
	}
	return checker, nil
}
