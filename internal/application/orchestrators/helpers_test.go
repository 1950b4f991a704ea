package orchestrators

import (
	"fmt"
	"sync"
	"testing"
	"time"

	blockedstore "gymflow/internal/adapters/storage/blockeddate"
	calendarstore "gymflow/internal/adapters/storage/calendar"
	classstore "gymflow/internal/adapters/storage/class"
	locationstore "gymflow/internal/adapters/storage/location"
	outboxstore "gymflow/internal/adapters/storage/outbox"
	"gymflow/internal/adapters/storage/storagetest"
	"gymflow/internal/application/changefeed"
	"gymflow/internal/domain/class"
)

var fixedTime = time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

// sequentialIDs returns a generator yielding prefix-1, prefix-2, ...
func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func july(day int) time.Time {
	return time.Date(2024, 7, day, 0, 0, 0, 0, time.UTC)
}

// recordingPublisher captures published changes.
type recordingPublisher struct {
	mu      sync.Mutex
	changes []changefeed.Change
}

func (p *recordingPublisher) Publish(c changefeed.Change) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
}

func (p *recordingPublisher) kinds() []changefeed.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]changefeed.Kind, 0, len(p.changes))
	for _, c := range p.changes {
		out = append(out, c.Kind)
	}
	return out
}

// schedule wires real SQLite stores for one test.
type schedule struct {
	calendar  *calendarstore.SQLiteStore
	classes   *classstore.SQLiteStore
	blocked   *blockedstore.SQLiteStore
	locations *locationstore.SQLiteStore
	outbox    *outboxstore.SQLiteStore
	changes   *recordingPublisher
}

// newSchedule opens a migrated database with a "studio" location capped at maxPerDay.
func newSchedule(t *testing.T, maxPerDay int) schedule {
	t.Helper()
	db := storagetest.Open(t)
	storagetest.SeedLocation(t, db, "studio", "Studio", maxPerDay)
	return schedule{
		calendar:  calendarstore.NewSQLiteStore(db),
		classes:   classstore.NewSQLiteStore(db),
		blocked:   blockedstore.NewSQLiteStore(db),
		locations: locationstore.NewSQLiteStore(db),
		outbox:    outboxstore.NewSQLiteStore(db),
		changes:   &recordingPublisher{},
	}
}

func yoga() class.Template {
	return class.Template{
		LocationID:      "studio",
		Name:            "Yoga",
		Trainer:         "Ana",
		StartTime:       "07:00",
		DurationMinutes: 60,
		Spots:           10,
	}
}

func (s schedule) createDeps() CreateClassDeps {
	return CreateClassDeps{
		Scheduler:  s.calendar,
		Changes:    s.changes,
		GenerateID: sequentialIDs("class"),
		Now:        fixedNow,
	}
}

func (s schedule) blockDeps() BlockDateDeps {
	return BlockDateDeps{Registry: s.calendar, Blocked: s.blocked, Changes: s.changes, Now: fixedNow}
}
