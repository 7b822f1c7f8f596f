package roster

import (
	"testing"
	"time"
)

// --- StartOfDay ---

func TestStartOfDay_TruncatesToMidnight(t *testing.T) {
	now := time.Date(2026, 3, 2, 14, 35, 12, 999, time.Local)
	got := StartOfDay(now)
	want := time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("StartOfDay = %v, want %v", got, want)
	}
}

func TestStartOfDay_PreservesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	now := time.Date(2026, 3, 2, 23, 0, 0, 0, loc)
	got := StartOfDay(now)
	if got.Location() != loc {
		t.Errorf("StartOfDay location = %v, want %v", got.Location(), loc)
	}
	if got.Hour() != 0 {
		t.Errorf("StartOfDay hour = %d, want 0", got.Hour())
	}
}

// --- IsWeekend ---

func TestIsWeekend_Cases(t *testing.T) {
	cases := []struct {
		day  int // March 2026: the 2nd is a Monday
		want bool
	}{
		{2, false}, // Monday
		{4, false}, // Wednesday
		{6, false}, // Friday
		{7, true},  // Saturday
		{8, true},  // Sunday
		{9, false}, // Monday again
	}

	for _, tc := range cases {
		now := time.Date(2026, 3, tc.day, 10, 0, 0, 0, time.Local)
		if got := IsWeekend(now); got != tc.want {
			t.Errorf("IsWeekend(%s) = %v, want %v", now.Weekday(), got, tc.want)
		}
	}
}

// --- SameDay ---

func TestSameDay_WithinOneDay(t *testing.T) {
	a := time.Date(2026, 3, 2, 0, 0, 1, 0, time.Local)
	b := time.Date(2026, 3, 2, 23, 59, 59, 0, time.Local)
	if !SameDay(a, b) {
		t.Error("SameDay should be true for two instants on the same date")
	}
}

func TestSameDay_AcrossMidnight(t *testing.T) {
	a := time.Date(2026, 3, 2, 23, 59, 59, 0, time.Local)
	b := time.Date(2026, 3, 3, 0, 0, 1, 0, time.Local)
	if SameDay(a, b) {
		t.Error("SameDay should be false across midnight")
	}
}
