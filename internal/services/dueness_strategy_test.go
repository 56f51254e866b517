package services

import (
	"testing"
	"time"

	"bilancio/internal/core"
)

func date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func TestMonthlyCheckerIsDue(t *testing.T) {
	checker := MonthlyChecker{}
	start := date(2025, 1, 15)

	tests := []struct {
		name          string
		lastExecution time.Time
		now           time.Time
		want          bool
	}{
		{"never executed", time.Time{}, date(2025, 8, 1), true},
		{"already ran this month", date(2025, 8, 15), date(2025, 8, 20), false},
		{"new month, target day reached", date(2025, 7, 15), date(2025, 8, 15), true},
		{"new month, target day passed", date(2025, 7, 15), date(2025, 8, 20), true},
		{"new month, before target day", date(2025, 7, 15), date(2025, 8, 10), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.lastExecution, tt.now, start); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthlyCheckerClampsTargetDay(t *testing.T) {
	checker := MonthlyChecker{}
	start := date(2025, 1, 31)

	// February has no 31st: the template runs on the 28th.
	if !checker.IsDue(date(2025, 1, 31), date(2025, 2, 28), start) {
		t.Error("template anchored on the 31st should run on Feb 28th")
	}
	if checker.IsDue(date(2025, 1, 31), date(2025, 2, 27), start) {
		t.Error("should not run before the clamped day")
	}
}

func TestYearlyCheckerIsDue(t *testing.T) {
	checker := YearlyChecker{}
	start := date(2023, 6, 15)

	tests := []struct {
		name          string
		lastExecution time.Time
		now           time.Time
		want          bool
	}{
		{"never executed", time.Time{}, date(2025, 1, 1), true},
		{"already ran this year", date(2025, 6, 15), date(2025, 12, 1), false},
		{"new year, before target month", date(2024, 6, 15), date(2025, 5, 20), false},
		{"new year, target month before day", date(2024, 6, 15), date(2025, 6, 10), false},
		{"new year, target day reached", date(2024, 6, 15), date(2025, 6, 15), true},
		{"new year, past target month", date(2024, 6, 15), date(2025, 7, 1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.lastExecution, tt.now, start); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetDuenessChecker(t *testing.T) {
	if _, err := GetDuenessChecker(core.Monthly); err != nil {
		t.Errorf("monthly checker: %v", err)
	}
	if _, err := GetDuenessChecker(core.Yearly); err != nil {
		t.Errorf("yearly checker: %v", err)
	}
	if _, err := GetDuenessChecker(core.RepetitionTypes("weekly")); err == nil {
		t.Error("unknown frequency should error")
	}
}
