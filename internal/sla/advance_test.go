package sla

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestAdvanceSkipsWeekend(t *testing.T) {
	// Friday start, next calendar day is Saturday.
	start := date(2025, time.January, 10, 9, 0)
	due := AdvanceWorkingDays(start, 1, nil)
	want := date(2025, time.January, 13, 17, 0) // Monday
	if !due.Equal(want) {
		t.Fatalf("expected %v got %v", want, due)
	}
}

func TestAdvanceSkipsHoliday(t *testing.T) {
	// Monday start; Tuesday is a holiday, so day one lands on Wednesday.
	start := date(2025, time.January, 6, 9, 0)
	holidays := map[time.Time]struct{}{
		date(2025, time.January, 7, 0, 0): {},
	}
	due := AdvanceWorkingDays(start, 1, holidays)
	want := date(2025, time.January, 8, 17, 0)
	if !due.Equal(want) {
		t.Fatalf("expected %v got %v", want, due)
	}
}

func TestAdvanceZeroDaysIsIdentity(t *testing.T) {
	start := date(2025, time.March, 14, 11, 30)
	holidays := map[time.Time]struct{}{DateKey(start.AddDate(0, 0, 1)): {}}
	if got := AdvanceWorkingDays(start, 0, holidays); !got.Equal(start) {
		t.Fatalf("expected %v got %v", start, got)
	}
}

func TestAdvanceDeterministic(t *testing.T) {
	start := date(2025, time.June, 2, 8, 15)
	holidays := map[time.Time]struct{}{date(2025, time.June, 4, 0, 0): {}}
	a := AdvanceWorkingDays(start, 5, holidays)
	b := AdvanceWorkingDays(start, 5, holidays)
	if !a.Equal(b) {
		t.Fatalf("non-deterministic: %v vs %v", a, b)
	}
}

func TestAdvanceMonotonic(t *testing.T) {
	start := date(2025, time.June, 2, 8, 15)
	holidays := map[time.Time]struct{}{
		date(2025, time.June, 4, 0, 0):  {},
		date(2025, time.June, 10, 0, 0): {},
	}
	prev := AdvanceWorkingDays(start, 1, holidays)
	for n := 2; n <= 10; n++ {
		cur := AdvanceWorkingDays(start, n, holidays)
		if !cur.After(prev) {
			t.Fatalf("n=%d: %v not after %v", n, cur, prev)
		}
		prev = cur
	}
}

func TestAdvanceHolidayOnWeekendNotDoubleCounted(t *testing.T) {
	// Saturday holiday is skipped once by the weekend check.
	start := date(2025, time.January, 10, 9, 0) // Friday
	holidays := map[time.Time]struct{}{
		date(2025, time.January, 11, 0, 0): {}, // Saturday
	}
	due := AdvanceWorkingDays(start, 1, holidays)
	want := date(2025, time.January, 13, 17, 0) // still Monday
	if !due.Equal(want) {
		t.Fatalf("expected %v got %v", want, due)
	}
}

func TestAdvanceNegativePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on negative working days")
		}
	}()
	AdvanceWorkingDays(date(2025, time.January, 6, 9, 0), -1, nil)
}

func TestAdvanceNewYearScenario(t *testing.T) {
	// Ticket created Monday 2024-12-30 09:00, three working days, New Year
	// holiday on Wednesday: Tue counts, Wed skips, Thu and Fri count.
	start := date(2024, time.December, 30, 9, 0)
	holidays := map[time.Time]struct{}{
		date(2025, time.January, 1, 0, 0): {},
	}
	due := AdvanceWorkingDays(start, 3, holidays)
	want := date(2025, time.January, 3, 17, 0)
	if !due.Equal(want) {
		t.Fatalf("expected %v got %v", want, due)
	}
}
