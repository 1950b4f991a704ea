package calendar

import (
	"testing"
	"time"

	"gymflow/internal/domain/blockeddate"
	"gymflow/internal/domain/class"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// TestVisibleRange pads the month to whole weeks.
func TestVisibleRange(t *testing.T) {
	tests := []struct {
		name      string
		anchor    time.Time
		weekStart time.Weekday
		first     string
		last      string
	}{
		{"july monday start", d(2024, 7, 15), time.Monday, "2024-07-01", "2024-08-04"},
		{"july sunday start", d(2024, 7, 15), time.Sunday, "2024-06-30", "2024-08-03"},
		{"february leap year", d(2024, 2, 10), time.Monday, "2024-01-29", "2024-03-03"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := VisibleRange(tt.anchor, tt.weekStart)
			if class.FormatDate(first) != tt.first || class.FormatDate(last) != tt.last {
				t.Errorf("VisibleRange = %s..%s, want %s..%s", class.FormatDate(first), class.FormatDate(last), tt.first, tt.last)
			}
		})
	}
}

// TestBuildMonth buckets classes by date and attaches blocked days.
func TestBuildMonth(t *testing.T) {
	classes := []class.Class{
		{ID: "late", Name: "HIIT", Date: d(2024, 7, 3), StartTime: "18:00", DurationMinutes: 45},
		{ID: "early", Name: "Yoga", Date: d(2024, 7, 3), StartTime: "07:00", DurationMinutes: 60},
		{ID: "pad", Name: "Spin", Date: d(2024, 8, 2), StartTime: "07:00", DurationMinutes: 60},
		{ID: "outside", Name: "Spin", Date: d(2024, 9, 2), StartTime: "07:00", DurationMinutes: 60},
	}
	blocked := []blockeddate.BlockedDate{{Date: d(2024, 7, 8), Reason: "Deep clean"}}

	m := BuildMonth(d(2024, 7, 20), classes, blocked, time.Monday)

	if len(m.Weeks) != 5 {
		t.Fatalf("weeks = %d, want 5", len(m.Weeks))
	}
	for i, w := range m.Weeks {
		if len(w) != 7 {
			t.Errorf("week %d has %d days", i, len(w))
		}
		if w[0].Date.Weekday() != time.Monday {
			t.Errorf("week %d starts on %s", i, w[0].Date.Weekday())
		}
	}

	day3, ok := m.Day(d(2024, 7, 3))
	if !ok {
		t.Fatal("2024-07-03 not in grid")
	}
	if len(day3.Classes) != 2 || day3.Classes[0].ID != "early" || day3.Classes[1].ID != "late" {
		t.Errorf("2024-07-03 classes = %+v, want early then late", day3.Classes)
	}

	day8, _ := m.Day(d(2024, 7, 8))
	if day8.Blocked == nil || day8.Blocked.Reason != "Deep clean" {
		t.Errorf("2024-07-08 blocked = %+v", day8.Blocked)
	}

	pad, ok := m.Day(d(2024, 8, 2))
	if !ok || pad.InMonth || len(pad.Classes) != 1 {
		t.Errorf("padding day = %+v (ok=%v)", pad, ok)
	}

	if m.ClassCount() != 2 {
		t.Errorf("ClassCount = %d, want 2", m.ClassCount())
	}
}

// TestMonthNavigation never overflows into the following month.
func TestMonthNavigation(t *testing.T) {
	tests := []struct {
		name string
		got  time.Time
		want string
	}{
		{"next from jan 31", NextMonth(d(2024, 1, 31)), "2024-02-01"},
		{"next from december", NextMonth(d(2024, 12, 15)), "2025-01-01"},
		{"prev from march 31", PrevMonth(d(2024, 3, 31)), "2024-02-01"},
		{"prev from january", PrevMonth(d(2024, 1, 1)), "2023-12-01"},
	}
	for _, tt := range tests {
		if class.FormatDate(tt.got) != tt.want {
			t.Errorf("%s: got %s, want %s", tt.name, class.FormatDate(tt.got), tt.want)
		}
	}
}

// TestParseMonth accepts YYYY-MM only.
func TestParseMonth(t *testing.T) {
	got, err := ParseMonth("2024-07")
	if err != nil {
		t.Fatalf("ParseMonth: %v", err)
	}
	if class.FormatDate(got) != "2024-07-01" {
		t.Errorf("ParseMonth = %s", class.FormatDate(got))
	}
	if _, err := ParseMonth("July"); err == nil {
		t.Error("expected error for non-numeric month")
	}
}
