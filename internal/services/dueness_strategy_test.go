package services

import (
	"testing"
	"time"

	"finpulse/internal/core"
)

func at(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestDuenessCheckers(t *testing.T) {
	tests := []struct {
		name  string
		every core.RepetitionTypes
		last  time.Time
		now   time.Time
		start core.Date
		want  bool
	}{
		{"daily never run", core.Daily, time.Time{}, at(2024, 1, 15, 12), core.NewDate(2024, 1, 1), true},
		{"daily ran today", core.Daily, at(2024, 1, 15, 8), at(2024, 1, 15, 12), core.NewDate(2024, 1, 1), false},
		{"daily ran yesterday", core.Daily, at(2024, 1, 14, 23), at(2024, 1, 15, 1), core.NewDate(2024, 1, 1), true},

		{"weekly ran 3 days ago", core.Weekly, at(2024, 1, 12, 12), at(2024, 1, 15, 12), core.NewDate(2024, 1, 1), false},
		{"weekly ran 7 days ago", core.Weekly, at(2024, 1, 8, 12), at(2024, 1, 15, 12), core.NewDate(2024, 1, 1), true},
		{"weekly a few hours short", core.Weekly, at(2024, 1, 8, 18), at(2024, 1, 15, 12), core.NewDate(2024, 1, 1), false},

		{"monthly ran this month", core.Monthly, at(2024, 1, 10, 12), at(2024, 1, 15, 12), core.NewDate(2024, 1, 10), false},
		{"monthly before target day", core.Monthly, at(2024, 1, 15, 12), at(2024, 2, 10, 12), core.NewDate(2024, 1, 15), false},
		{"monthly on target day", core.Monthly, at(2024, 1, 15, 12), at(2024, 2, 15, 12), core.NewDate(2024, 1, 15), true},
		{"monthly day 31 in leap february", core.Monthly, at(2024, 1, 31, 12), at(2024, 2, 29, 12), core.NewDate(2024, 1, 31), true},
		{"monthly day 31 in april", core.Monthly, at(2024, 3, 31, 12), at(2024, 4, 30, 12), core.NewDate(2024, 1, 31), true},
		{"monthly across year end", core.Monthly, at(2023, 12, 5, 12), at(2024, 1, 5, 12), core.NewDate(2023, 1, 5), true},

		{"yearly ran this year", core.Yearly, at(2024, 3, 15, 12), at(2024, 6, 15, 12), core.NewDate(2024, 3, 15), false},
		{"yearly before target month", core.Yearly, at(2024, 6, 15, 12), at(2025, 3, 15, 12), core.NewDate(2024, 6, 15), false},
		{"yearly past target month", core.Yearly, at(2024, 3, 15, 12), at(2025, 6, 15, 12), core.NewDate(2024, 3, 15), true},
		{"yearly target month before day", core.Yearly, at(2024, 6, 15, 12), at(2025, 6, 10, 12), core.NewDate(2024, 6, 15), false},
		{"yearly february 29 in common year", core.Yearly, at(2024, 2, 29, 12), at(2025, 2, 28, 12), core.NewDate(2024, 2, 29), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker, err := GetDuenessChecker(tt.every)
			if err != nil {
				t.Fatalf("GetDuenessChecker(%s): %v", tt.every, err)
			}
			if got := checker.IsDue(tt.last, tt.now, tt.start); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetDuenessCheckerUnknown(t *testing.T) {
	if _, err := GetDuenessChecker(core.RepetitionTypes("biweekly")); err == nil {
		t.Fatal("expected error for unknown frequency")
	}
}

func TestRegisterDuenessChecker(t *testing.T) {
	freq := core.RepetitionTypes("biweekly")
	RegisterDuenessChecker(freq, WeeklyChecker{})
	t.Cleanup(func() { delete(duenessStrategies, freq) })

	checker, err := GetDuenessChecker(freq)
	if err != nil || checker == nil {
		t.Fatalf("GetDuenessChecker after register: %v", err)
	}
}
