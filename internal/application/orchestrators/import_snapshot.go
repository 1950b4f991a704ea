package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gymflow/internal/adapters/storage/snapshot"
	"gymflow/internal/application/changefeed"
	"gymflow/internal/domain/location"
	"gymflow/internal/observability"
)

// LocationLister lists every location.
type LocationLister interface {
	List(ctx context.Context) ([]location.Location, error)
}

// ImportSnapshotDeps holds dependencies for ImportSnapshot.
type ImportSnapshotDeps struct {
	Replacer  ScheduleReplacer
	Locations LocationLister
	Changes   changefeed.Publisher
	Now       func() time.Time
}

// ImportSnapshotResult reports what an import loaded.
type ImportSnapshotResult struct {
	SourceVersion int
	Locations     int
	Classes       int
	Blocked       int
}

// ExecuteImportSnapshot replaces the whole schedule with the contents of data.
// Version 0 documents are migrated on the way in.
// PRE: data is a snapshot document
// POST: Schedule replaced, or an error and the previous schedule untouched
func ExecuteImportSnapshot(ctx context.Context, data []byte, deps ImportSnapshotDeps) (ImportSnapshotResult, error) {
	snap, err := snapshot.Decode(data)
	if err != nil {
		slog.Warn("snapshot_import_rejected", "error", err)
		return ImportSnapshotResult{}, err
	}
	if err := applySnapshot(ctx, snap, deps.Replacer, deps.Locations); err != nil {
		return ImportSnapshotResult{}, err
	}

	observability.RecordClassesCreated("import", len(snap.Classes))
	observability.SetBlockedDates(len(snap.Blocked))
	publisherOrDiscard(deps.Changes).Publish(changefeed.Change{
		Kind: changefeed.ScheduleLoaded,
		At:   nowFrom(deps.Now),
	})
	slog.Info("snapshot_imported",
		"source_version", snap.SourceVersion,
		"locations", len(snap.Locations),
		"classes", len(snap.Classes),
		"blocked_dates", len(snap.Blocked))
	return ImportSnapshotResult{
		SourceVersion: snap.SourceVersion,
		Locations:     len(snap.Locations),
		Classes:       len(snap.Classes),
		Blocked:       len(snap.Blocked),
	}, nil
}

// applySnapshot checks location references and swaps the schedule.
// Locations already in the store stay valid targets even if the snapshot omits them.
func applySnapshot(ctx context.Context, snap snapshot.Snapshot, replacer ScheduleReplacer, locations LocationLister) error {
	known := make(map[string]bool, len(snap.Locations))
	for _, l := range snap.Locations {
		known[l.ID] = true
	}
	if locations != nil {
		existing, err := locations.List(ctx)
		if err != nil {
			return fmt.Errorf("list locations: %w", err)
		}
		for _, l := range existing {
			known[l.ID] = true
		}
	}
	for _, c := range snap.Classes {
		if !known[c.LocationID] {
			return fmt.Errorf("%w: class %s references %s", ErrUnknownLocation, c.ID, c.LocationID)
		}
	}
	return replacer.ReplaceAll(ctx, snap.Locations, snap.Classes, snap.Blocked)
}
