// Package changefeed fans schedule mutations out to subscribers such as the
// calendar view's Server-Sent Events stream.
package changefeed

import (
	"sync"
	"time"

	"gymflow/internal/observability"
)

// Kind names the mutation that produced a Change.
type Kind string

// Change kinds.
const (
	ClassesCreated Kind = "classes_created"
	ClassUpdated   Kind = "class_updated"
	ClassDeleted   Kind = "class_deleted"
	ClassBooked    Kind = "class_booked"
	ClassReviewed  Kind = "class_reviewed"
	DateBlocked    Kind = "date_blocked"
	DateUnblocked  Kind = "date_unblocked"
	ScheduleLoaded Kind = "schedule_loaded"
)

// Change describes one committed mutation.
type Change struct {
	Kind     Kind      `json:"kind"`
	ClassIDs []string  `json:"class_ids,omitempty"`
	Dates    []string  `json:"dates,omitempty"` // YYYY-MM-DD of affected days
	At       time.Time `json:"at"`
}

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 16

// Publisher is what orchestrators depend on.
type Publisher interface {
	Publish(c Change)
}

// Broker is a mutex-guarded fan-out. Publish never blocks: a subscriber whose
// buffer is full misses the event.
type Broker struct {
	mu     sync.Mutex
	subs   map[int]chan Change
	nextID int
	buffer int
	closed bool
}

// NewBroker creates a broker whose subscriber channels hold buffer events.
// PRE: buffer >= 0 (0 uses DefaultBuffer)
func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broker{subs: make(map[int]chan Change), buffer: buffer}
}

// Subscribe registers a new listener.
// POST: the returned channel receives every later Change until cancel is called
// or the broker is closed; cancel is idempotent
func (b *Broker) Subscribe() (<-chan Change, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Change, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

// Publish delivers c to every subscriber that has room.
func (b *Broker) Publish(c Change) {
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- c:
		default:
			observability.RecordChangeFeedDrop()
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription. Later Subscribe calls get a closed channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// Discard is a Publisher that drops every change.
type Discard struct{}

// Publish does nothing.
func (Discard) Publish(Change) {}
