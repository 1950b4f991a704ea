package blockeddate_test

import (
	"strings"
	"testing"
	"time"

	"gymflow/internal/domain/blockeddate"
)

// TestBlockedDate_Validate tests validation of BlockedDate.
func TestBlockedDate_Validate(t *testing.T) {
	day := time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		bd      blockeddate.BlockedDate
		wantErr bool
	}{
		{"valid", blockeddate.BlockedDate{Date: day, Reason: "Christmas"}, false},
		{"zero date", blockeddate.BlockedDate{Reason: "Christmas"}, true},
		{"blank reason", blockeddate.BlockedDate{Date: day, Reason: "  "}, true},
		{"multibyte reason within limit", blockeddate.BlockedDate{Date: day, Reason: strings.Repeat("休", 500)}, false},
		{"reason too long", blockeddate.BlockedDate{Date: day, Reason: strings.Repeat("休", 501)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bd.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("BlockedDate.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestSet_Contains ignores the clock part of the queried time.
func TestSet_Contains(t *testing.T) {
	set := blockeddate.NewSet([]blockeddate.BlockedDate{
		{Date: time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC), Reason: "Maintenance"},
	})

	if !set.Contains(time.Date(2024, 7, 8, 18, 30, 0, 0, time.UTC)) {
		t.Error("expected 2024-07-08 evening to be blocked")
	}
	if set.Contains(time.Date(2024, 7, 9, 0, 0, 0, 0, time.UTC)) {
		t.Error("did not expect 2024-07-09 to be blocked")
	}

	var empty blockeddate.Set
	if empty.Contains(time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)) {
		t.Error("nil set should block nothing")
	}
}
