package slot_test

import (
	"testing"
	"time"

	"gymflow/internal/domain/class"
	"gymflow/internal/domain/slot"
)

var day = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

func mustMinute(t *testing.T, hhmm string) int {
	t.Helper()
	m, err := class.ParseTimeOfDay(hhmm)
	if err != nil {
		t.Fatalf("ParseTimeOfDay(%q): %v", hhmm, err)
	}
	return m
}

func existing() []class.Class {
	return []class.Class{
		{ID: "spin", LocationID: "loc-1", Name: "Spin", Trainer: "Tom", Date: day, StartTime: "09:00", DurationMinutes: 45, Spots: 10},
	}
}

// TestIsBooked_Scenario reproduces the 09:00-09:45 example.
func TestIsBooked_Scenario(t *testing.T) {
	tests := []struct {
		slot string
		want bool
	}{
		{"08:30", false},
		{"09:00", true},
		{"09:30", true},
		{"09:45", false},
		{"10:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.slot, func(t *testing.T) {
			if got := slot.IsBooked(mustMinute(t, tt.slot), existing(), ""); got != tt.want {
				t.Errorf("IsBooked(%s) = %v, want %v", tt.slot, got, tt.want)
			}
		})
	}
}

// TestIsBooked_ExcludesEditedClass lets a class keep its own slot while being edited.
func TestIsBooked_ExcludesEditedClass(t *testing.T) {
	if slot.IsBooked(mustMinute(t, "09:00"), existing(), "spin") {
		t.Error("slot should be free when the covering class is the one being edited")
	}
}

// TestHalfHourSlots checks the slot grid bounds.
func TestHalfHourSlots(t *testing.T) {
	got := slot.HalfHourSlots(mustMinute(t, "06:00"), mustMinute(t, "08:00"))
	want := []int{360, 390, 420, 450}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slot[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	if slot.HalfHourSlots(600, 600) != nil {
		t.Error("empty range should produce no slots")
	}
}

// TestAvailability marks covered slots and names the class holding them.
func TestAvailability(t *testing.T) {
	got := slot.Availability(mustMinute(t, "08:30"), mustMinute(t, "10:30"), existing(), "")

	want := map[string]bool{"08:30": false, "09:00": true, "09:30": true, "10:00": false}
	if len(got) != len(want) {
		t.Fatalf("got %d slots, want %d", len(got), len(want))
	}
	for _, st := range got {
		if st.Booked != want[st.Time] {
			t.Errorf("slot %s booked = %v, want %v", st.Time, st.Booked, want[st.Time])
		}
		if st.Booked && (st.BookedBy != "spin" || st.ClassName != "Spin") {
			t.Errorf("slot %s held by %q/%q", st.Time, st.BookedBy, st.ClassName)
		}
	}
}

// TestFindConflict covers adjacency and self-exclusion.
func TestFindConflict(t *testing.T) {
	candidate := class.Class{ID: "new", Date: day, StartTime: "09:45", DurationMinutes: 30}
	if c, ok := slot.FindConflict(candidate, existing()); ok {
		t.Errorf("adjacent class reported as conflict: %s", c.ID)
	}

	candidate.StartTime = "09:30"
	c, ok := slot.FindConflict(candidate, existing())
	if !ok || c.ID != "spin" {
		t.Errorf("FindConflict = %v %v, want spin", c.ID, ok)
	}

	self := existing()[0]
	self.DurationMinutes = 60
	if _, ok := slot.FindConflict(self, existing()); ok {
		t.Error("class conflicts with its own stored copy")
	}
}
