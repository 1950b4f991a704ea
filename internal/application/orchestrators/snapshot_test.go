package orchestrators

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	classstore "gymflow/internal/adapters/storage/class"
	"gymflow/internal/adapters/storage/snapshot"
	"gymflow/internal/domain/class"
	"gymflow/internal/domain/location"
)

func (s schedule) exportDeps() ExportSnapshotDeps {
	return ExportSnapshotDeps{Locations: s.locations, Classes: s.classes, Blocked: s.blocked, Now: fixedNow}
}

func (s schedule) importDeps() ImportSnapshotDeps {
	return ImportSnapshotDeps{Replacer: s.calendar, Locations: s.locations, Changes: s.changes, Now: fixedNow}
}

func TestExportImportSnapshot(t *testing.T) {
	ctx := context.Background()
	src := newSchedule(t, 5)
	mustCreate(t, src, yoga(), 1)
	mustCreate(t, src, yoga(), 3)
	if _, err := ExecuteBlockDate(ctx, BlockDateInput{Date: july(4), Reason: "Holiday"}, src.blockDeps()); err != nil {
		t.Fatalf("block: %v", err)
	}

	data, err := ExecuteExportSnapshot(ctx, src.exportDeps())
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	dst := newSchedule(t, 5)
	mustCreate(t, dst, yoga(), 20)
	res, err := ExecuteImportSnapshot(ctx, data, dst.importDeps())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.SourceVersion != snapshot.CurrentVersion || res.Classes != 2 || res.Blocked != 1 {
		t.Errorf("unexpected result %+v", res)
	}

	all, err := dst.classes.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if got := dateKeys(all); !equalStrings(got, []string{"2024-07-01", "2024-07-03"}) {
		t.Errorf("expected imported schedule to replace the old one, got %v", got)
	}
	blocked, err := dst.blocked.IsBlocked(ctx, july(4))
	if err != nil || !blocked {
		t.Errorf("expected 2024-07-04 blocked after import, got %v (%v)", blocked, err)
	}
}

func TestExecuteImportSnapshot_RejectsBadData(t *testing.T) {
	ctx := context.Background()
	s := newSchedule(t, 5)
	mustCreate(t, s, yoga(), 1)

	studio := location.Location{ID: "studio", Name: "Studio", OpensAt: "06:00", ClosesAt: "22:00", MaxClassesPerDay: 5}
	signed, err := snapshot.Encode([]location.Location{studio}, nil, nil, fixedTime)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	tampered := bytes.Replace(signed, []byte(`"Studio"`), []byte(`"Gym"`), 1)

	stray := yoga().Materialize("stray", july(2))
	stray.LocationID = "nowhere"
	orphaned, err := snapshot.Encode(nil, []class.Class{stray}, nil, fixedTime)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty", nil, snapshot.ErrEmpty},
		{"future version", []byte(`{"version": 9}`), snapshot.ErrUnsupportedVersion},
		{"checksum mismatch", tampered, snapshot.ErrChecksumMismatch},
		{"unknown location", orphaned, ErrUnknownLocation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExecuteImportSnapshot(ctx, tt.data, s.importDeps())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	n, err := s.classes.Count(ctx, classstore.ListFilter{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("failed imports must leave the schedule untouched, got %d classes", n)
	}
}

func TestExecuteImportSnapshot_LegacyArray(t *testing.T) {
	ctx := context.Background()
	s := newSchedule(t, 5)
	legacy := []byte(`[{"id":"old-1","name":"Spin","trainer":"","date":"2024-07-01T00:00:00Z","time":"18:00","duration":45,"spots":10,"booked":3}]`)

	res, err := ExecuteImportSnapshot(ctx, legacy, s.importDeps())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.SourceVersion != 0 {
		t.Errorf("expected source version 0, got %d", res.SourceVersion)
	}
	c, err := s.classes.GetByID(ctx, "old-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.LocationID != snapshot.LegacyLocationID || c.Trainer != snapshot.LegacyTrainer || c.Booked != 3 {
		t.Errorf("unexpected migrated class %+v", c)
	}
}

func TestExecuteSeedSchedule(t *testing.T) {
	ctx := context.Background()
	s := newSchedule(t, 5)
	deps := SeedScheduleDeps{
		Replacer:   s.calendar,
		Locations:  s.locations,
		Classes:    s.classes,
		Changes:    s.changes,
		GenerateID: sequentialIDs("seed"),
		Now:        fixedNow,
	}

	seeded, err := ExecuteSeedSchedule(ctx, "", deps)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if seeded {
		t.Error("a store with a location must not be seeded")
	}
}

func TestExecuteSeedSchedule_FallsBackToBuiltin(t *testing.T) {
	ctx := context.Background()
	s := newSchedule(t, 5)
	if err := s.locations.Delete(ctx, "studio"); err != nil {
		t.Fatalf("delete location: %v", err)
	}
	broken := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(broken, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	deps := SeedScheduleDeps{
		Replacer:   s.calendar,
		Locations:  s.locations,
		Classes:    s.classes,
		GenerateID: sequentialIDs("seed"),
		Now:        fixedNow,
	}

	seeded, err := ExecuteSeedSchedule(ctx, broken, deps)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !seeded {
		t.Fatal("expected the built-in schedule to be loaded")
	}
	want := len(DefaultSeed(fixedTime, sequentialIDs("x")).Classes)
	n, err := s.classes.Count(ctx, classstore.ListFilter{LocationID: SeedLocationID})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != want || n == 0 {
		t.Errorf("expected %d seeded classes, got %d", want, n)
	}

	again, err := ExecuteSeedSchedule(ctx, broken, deps)
	if err != nil || again {
		t.Errorf("expected second seed to be a no-op, got %v (%v)", again, err)
	}
}

func TestDefaultSeed_StartsOnMonday(t *testing.T) {
	thursday := time.Date(2024, 6, 20, 15, 0, 0, 0, time.UTC)
	snap := DefaultSeed(thursday, sequentialIDs("seed"))
	for _, c := range snap.Classes {
		if c.Date.Before(time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC)) || c.Date.After(time.Date(2024, 6, 23, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("class %s on %s falls outside the week of 2024-06-17", c.ID, c.DateKey())
		}
		if err := c.Validate(); err != nil {
			t.Errorf("seed class %s invalid: %v", c.ID, err)
		}
	}
	if first := snap.Classes[0].DateKey(); first != "2024-06-17" {
		t.Errorf("expected first class on Monday 2024-06-17, got %s", first)
	}
}
