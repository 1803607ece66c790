package sla

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestListHolidaysPlainDates(t *testing.T) {
	db := &fakeDB{holidays: []holRow{
		{date: date(2025, time.January, 1, 0, 0)},
		{date: date(2025, time.January, 29, 0, 0)},
	}}
	set, err := ListHolidays(context.Background(), db, "q1",
		date(2025, time.January, 1, 0, 0), date(2025, time.February, 1, 0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("expected 2 holidays, got %d", len(set))
	}
	if _, ok := set[date(2025, time.January, 1, 0, 0)]; !ok {
		t.Fatal("missing Jan 1")
	}
}

func TestListHolidaysExpandsRecurring(t *testing.T) {
	// Stored once for 2024; requested range spans the 2025/2026 boundary.
	db := &fakeDB{holidays: []holRow{
		{date: date(2024, time.January, 1, 0, 0), recurring: true},
	}}
	set, err := ListHolidays(context.Background(), db, "q1",
		date(2025, time.December, 15, 0, 0), date(2026, time.January, 15, 0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := set[date(2026, time.January, 1, 0, 0)]; !ok {
		t.Fatal("recurring holiday not expanded into 2026")
	}
	if _, ok := set[date(2025, time.January, 1, 0, 0)]; ok {
		t.Fatal("expanded date outside requested range")
	}
}

func TestListHolidaysRecurringLeapDay(t *testing.T) {
	db := &fakeDB{holidays: []holRow{
		{date: date(2024, time.February, 29, 0, 0), recurring: true},
	}}
	set, err := ListHolidays(context.Background(), db, "q1",
		date(2025, time.February, 1, 0, 0), date(2025, time.March, 31, 0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("Feb 29 must not leak into a non-leap year: %v", set)
	}
}

func TestListHolidaysPropagatesError(t *testing.T) {
	db := &fakeDB{holidayErr: errors.New("boom")}
	if _, err := ListHolidays(context.Background(), db, "q1",
		date(2025, time.January, 1, 0, 0), date(2025, time.January, 31, 0, 0)); err == nil {
		t.Fatal("expected error")
	}
}
