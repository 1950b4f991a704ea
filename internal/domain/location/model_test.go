package location_test

import (
	"strings"
	"testing"

	"gymflow/internal/domain/location"
)

// TestLocation_Validate tests validation of Location.
func TestLocation_Validate(t *testing.T) {
	tests := []struct {
		name    string
		loc     location.Location
		wantErr bool
	}{
		{"valid", location.Location{ID: "1", Name: "Westlands", OpensAt: "06:00", ClosesAt: "21:00", MaxClassesPerDay: 5}, false},
		{"no cap", location.Location{ID: "2", Name: "CBD", OpensAt: "05:30", ClosesAt: "23:00"}, false},
		{"empty name", location.Location{ID: "3", OpensAt: "06:00", ClosesAt: "21:00"}, true},
		{"closes before opens", location.Location{ID: "4", Name: "X", OpensAt: "21:00", ClosesAt: "06:00"}, true},
		{"bad hours", location.Location{ID: "5", Name: "X", OpensAt: "six", ClosesAt: "21:00"}, true},
		{"negative cap", location.Location{ID: "6", Name: "X", OpensAt: "06:00", ClosesAt: "21:00", MaxClassesPerDay: -1}, true},
		{"multibyte name within limit", location.Location{ID: "7", Name: strings.Repeat("道", 80), OpensAt: "06:00", ClosesAt: "21:00"}, false},
		{"name too long", location.Location{ID: "8", Name: strings.Repeat("道", 81), OpensAt: "06:00", ClosesAt: "21:00"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.loc.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Location.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestLocation_AtCapacity treats a zero cap as unlimited.
func TestLocation_AtCapacity(t *testing.T) {
	capped := location.Location{MaxClassesPerDay: 5}
	if capped.AtCapacity(4) {
		t.Error("4 of 5 should not be at capacity")
	}
	if !capped.AtCapacity(5) {
		t.Error("5 of 5 should be at capacity")
	}
	unlimited := location.Location{}
	if unlimited.AtCapacity(100) {
		t.Error("zero cap should never be at capacity")
	}
}

// TestLocation_ApplyDefaults fills missing hours.
func TestLocation_ApplyDefaults(t *testing.T) {
	l := location.Location{Name: "Karen"}
	l.ApplyDefaults()
	if l.OpensAt != location.DefaultOpensAt || l.ClosesAt != location.DefaultClosesAt {
		t.Errorf("hours = %s-%s", l.OpensAt, l.ClosesAt)
	}
	opens, closes := l.Hours()
	if opens != 360 || closes != 1320 {
		t.Errorf("Hours() = %d, %d", opens, closes)
	}
}

// TestLocation_ApplyDefaultsPadsHours rewrites unpadded hours as HH:MM.
func TestLocation_ApplyDefaultsPadsHours(t *testing.T) {
	l := location.Location{Name: "Karen", OpensAt: "6:30", ClosesAt: "21:00"}
	l.ApplyDefaults()
	if l.OpensAt != "06:30" || l.ClosesAt != "21:00" {
		t.Errorf("hours = %s-%s, want 06:30-21:00", l.OpensAt, l.ClosesAt)
	}
}
