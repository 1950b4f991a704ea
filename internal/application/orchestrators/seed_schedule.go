package orchestrators

import (
	"context"
	"log/slog"
	"time"

	classstore "gymflow/internal/adapters/storage/class"
	"gymflow/internal/adapters/storage/snapshot"
	"gymflow/internal/application/changefeed"
	"gymflow/internal/domain/class"
	"gymflow/internal/domain/location"
	"gymflow/internal/domain/recurrence"
	"gymflow/internal/observability"
)

// SeedLocationID is the location the built-in seed schedules at.
const SeedLocationID = "main"

// ClassCounter counts classes matching a filter.
type ClassCounter interface {
	Count(ctx context.Context, filter classstore.ListFilter) (int, error)
}

// SeedScheduleDeps holds dependencies for SeedSchedule.
type SeedScheduleDeps struct {
	Replacer   ScheduleReplacer
	Locations  LocationLister
	Classes    ClassCounter
	Changes    changefeed.Publisher
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteSeedSchedule loads a starter schedule into an empty store.
// seedFile is read first; when it is unset or cannot be decoded the built-in
// week is used instead.
// PRE: Deps are valid and stores are connected
// POST: Store unchanged if it already holds locations or classes; returns whether it seeded
func ExecuteSeedSchedule(ctx context.Context, seedFile string, deps SeedScheduleDeps) (bool, error) {
	locs, err := deps.Locations.List(ctx)
	if err != nil {
		return false, err
	}
	n, err := deps.Classes.Count(ctx, classstore.ListFilter{})
	if err != nil {
		return false, err
	}
	if len(locs) > 0 || n > 0 {
		return false, nil // Already seeded
	}

	now := nowFrom(deps.Now)
	snap, source := loadSeed(seedFile, now, idFrom(deps.GenerateID))
	if err := applySnapshot(ctx, snap, deps.Replacer, nil); err != nil {
		return false, err
	}

	observability.RecordClassesCreated("seed", len(snap.Classes))
	observability.SetBlockedDates(len(snap.Blocked))
	publisherOrDiscard(deps.Changes).Publish(changefeed.Change{Kind: changefeed.ScheduleLoaded, At: now})
	slog.Info("schedule_seeded", "source", source, "locations", len(snap.Locations), "classes", len(snap.Classes))
	return true, nil
}

func loadSeed(path string, now time.Time, newID func() string) (snapshot.Snapshot, string) {
	if path != "" {
		snap, err := snapshot.LoadFile(path)
		if err == nil {
			return snap, path
		}
		slog.Warn("seed_file_unusable", "path", path, "error", err)
	}
	return DefaultSeed(now, newID), "builtin"
}

// DefaultSeed builds one week of classes at a single studio, starting on the
// Monday of now's week.
// POST: every class is valid and none overlap
func DefaultSeed(now time.Time, newID func() string) snapshot.Snapshot {
	main := location.Location{
		ID:               SeedLocationID,
		Name:             "Main Studio",
		MaxClassesPerDay: location.DefaultMaxClassesPerDay,
	}
	main.ApplyDefaults()

	today := class.NormalizeDate(now)
	monday := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
	week := recurrence.Request{StartDate: monday, EndDate: monday.AddDate(0, 0, 6)}

	programme := []struct {
		tpl  class.Template
		days []time.Weekday
	}{
		{class.Template{Name: "Morning Yoga", Trainer: "Ana", StartTime: "07:00", DurationMinutes: 60, Spots: 12}, []time.Weekday{time.Monday, time.Wednesday, time.Friday}},
		{class.Template{Name: "HIIT", Trainer: "Ben", StartTime: "12:15", DurationMinutes: 45, Spots: 16}, []time.Weekday{time.Tuesday, time.Thursday}},
		{class.Template{Name: "Spin", Trainer: "Cat", StartTime: "18:00", DurationMinutes: 45, Spots: 20}, []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}},
		{class.Template{Name: "Pilates", Trainer: "Ana", StartTime: "09:30", DurationMinutes: 50, Spots: 10}, []time.Weekday{time.Saturday}},
	}

	var classes []class.Class
	for _, p := range programme {
		p.tpl.LocationID = main.ID
		req := week
		req.Weekdays = p.days
		made, _, err := recurrence.Expand(p.tpl, req, nil, newID)
		if err != nil {
			// the programme above is fixed and always expands
			panic(err)
		}
		for i := range made {
			made[i].CreatedAt = now
			made[i].UpdatedAt = now
		}
		classes = append(classes, made...)
	}
	return snapshot.Snapshot{
		SourceVersion: snapshot.CurrentVersion,
		ExportedAt:    now,
		Locations:     []location.Location{main},
		Classes:       classes,
	}
}
