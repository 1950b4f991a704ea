package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gymflow/internal/adapters/storage/snapshot"
	"gymflow/internal/domain/blockeddate"
	"gymflow/internal/domain/class"
)

// ClassDumper returns every class.
type ClassDumper interface {
	All(ctx context.Context) ([]class.Class, error)
}

// BlockedLister returns the whole blocked-date registry.
type BlockedLister interface {
	List(ctx context.Context) ([]blockeddate.BlockedDate, error)
}

// ExportSnapshotDeps holds dependencies for ExportSnapshot.
type ExportSnapshotDeps struct {
	Locations LocationLister
	Classes   ClassDumper
	Blocked   BlockedLister
	Now       func() time.Time
}

// ExecuteExportSnapshot serializes the whole schedule at the current snapshot version.
// PRE: Deps are valid and stores are connected
// POST: Returns a document ExecuteImportSnapshot accepts
func ExecuteExportSnapshot(ctx context.Context, deps ExportSnapshotDeps) ([]byte, error) {
	locs, err := deps.Locations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	classes, err := deps.Classes.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	blocked, err := deps.Blocked.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list blocked dates: %w", err)
	}

	data, err := snapshot.Encode(locs, classes, blocked, nowFrom(deps.Now))
	if err != nil {
		return nil, err
	}
	slog.Info("snapshot_exported", "locations", len(locs), "classes", len(classes), "blocked_dates", len(blocked), "bytes", len(data))
	return data, nil
}
