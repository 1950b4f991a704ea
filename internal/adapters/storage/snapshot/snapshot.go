// Package snapshot encodes the whole schedule as a versioned JSON document
// used for export, import and seed data.
package snapshot

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"gymflow/internal/domain/blockeddate"
	"gymflow/internal/domain/class"
	"gymflow/internal/domain/location"
)

// CurrentVersion is written by Encode. Version 0 is the legacy bare array of classes.
const CurrentVersion = 1

// LegacyLocationID is assigned to version 0 classes, which predate locations.
const LegacyLocationID = "main"

// LegacyTrainer fills version 0 classes saved without a trainer.
const LegacyTrainer = "Unassigned"

// Decode errors.
var (
	ErrEmpty              = errors.New("snapshot is empty")
	ErrUnsupportedVersion = errors.New("snapshot version is not supported")
	ErrChecksumMismatch   = errors.New("snapshot checksum does not match its contents")
	ErrInvalidRecord      = errors.New("snapshot contains an invalid record")
)

// Snapshot is the decoded schedule.
type Snapshot struct {
	SourceVersion int
	ExportedAt    time.Time
	Locations     []location.Location
	Classes       []class.Class
	Blocked       []blockeddate.BlockedDate
}

type document struct {
	Version    int       `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	Checksum   string    `json:"checksum"`
	body
}

type body struct {
	Locations []locationRecord `json:"locations"`
	Classes   []classRecord    `json:"classes"`
	Blocked   []blockedRecord  `json:"blocked_dates"`
}

type locationRecord struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	OpensAt          string `json:"opens_at"`
	ClosesAt         string `json:"closes_at"`
	MaxClassesPerDay int    `json:"max_classes_per_day"`
}

type onlineRecord struct {
	MeetingURL      string `json:"meeting_url,omitempty"`
	PriceCents      int    `json:"price_cents,omitempty"`
	PaymentRequired bool   `json:"payment_required,omitempty"`
}

type classRecord struct {
	ID              string        `json:"id"`
	LocationID      string        `json:"location_id"`
	Name            string        `json:"name"`
	Trainer         string        `json:"trainer"`
	Date            string        `json:"date"`
	StartTime       string        `json:"start_time"`
	DurationMinutes int           `json:"duration_minutes"`
	Spots           int           `json:"spots"`
	Booked          int           `json:"booked"`
	Online          *onlineRecord `json:"online,omitempty"`
	Status          string        `json:"status,omitempty"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	Note            string        `json:"note,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type blockedRecord struct {
	Date      string    `json:"date"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// legacyClass is one element of a version 0 document.
type legacyClass struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Trainer  string `json:"trainer"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Duration int    `json:"duration"`
	Spots    int    `json:"spots"`
	Booked   int    `json:"booked"`
}

// Encode serializes the schedule at CurrentVersion with a BLAKE2b-256 checksum over its body.
// PRE: inputs have been validated
// POST: Decode(Encode(...)) returns the same records
func Encode(locations []location.Location, classes []class.Class, blocked []blockeddate.BlockedDate, now time.Time) ([]byte, error) {
	b := body{
		Locations: make([]locationRecord, 0, len(locations)),
		Classes:   make([]classRecord, 0, len(classes)),
		Blocked:   make([]blockedRecord, 0, len(blocked)),
	}
	for _, l := range locations {
		b.Locations = append(b.Locations, locationRecord(l))
	}
	for _, c := range classes {
		b.Classes = append(b.Classes, toRecord(c))
	}
	for _, d := range blocked {
		b.Blocked = append(b.Blocked, blockedRecord{Date: d.Key(), Reason: d.Reason, CreatedAt: d.CreatedAt.UTC()})
	}
	sum, err := checksum(b)
	if err != nil {
		return nil, err
	}
	doc := document{Version: CurrentVersion, ExportedAt: now.UTC(), Checksum: sum, body: b}
	return json.MarshalIndent(doc, "", "  ")
}

// Decode parses a snapshot of any supported version, migrating it to the current model.
// PRE: none
// POST: Returns validated records, or an error wrapping one of the Decode errors
func Decode(data []byte) (Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Snapshot{}, ErrEmpty
	}
	if trimmed[0] == '[' {
		return decodeLegacy(trimmed)
	}

	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot: %w", err)
	}
	if doc.Version != CurrentVersion {
		return Snapshot{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	sum, err := checksum(doc.body)
	if err != nil {
		return Snapshot{}, err
	}
	if !strings.EqualFold(sum, doc.Checksum) {
		return Snapshot{}, ErrChecksumMismatch
	}

	snap := Snapshot{SourceVersion: doc.Version, ExportedAt: doc.ExportedAt}
	for _, r := range doc.Locations {
		l := location.Location(r)
		l.ApplyDefaults()
		if err := l.Validate(); err != nil {
			return Snapshot{}, fmt.Errorf("%w: location %s: %v", ErrInvalidRecord, r.ID, err)
		}
		snap.Locations = append(snap.Locations, l)
	}
	for _, r := range doc.Classes {
		c, err := fromRecord(r)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Classes = append(snap.Classes, c)
	}
	for _, r := range doc.Blocked {
		date, err := class.ParseDate(r.Date)
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: blocked date: %v", ErrInvalidRecord, err)
		}
		b := blockeddate.BlockedDate{Date: date, Reason: r.Reason, CreatedAt: r.CreatedAt}
		if err := b.Validate(); err != nil {
			return Snapshot{}, fmt.Errorf("%w: blocked date %s: %v", ErrInvalidRecord, r.Date, err)
		}
		snap.Blocked = append(snap.Blocked, b)
	}
	return snap, nil
}

// LoadFile reads and decodes the snapshot at path.
func LoadFile(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	snap, err := Decode(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return snap, nil
}

// decodeLegacy migrates a version 0 array. Every class lands at LegacyLocationID.
func decodeLegacy(data []byte) (Snapshot, error) {
	var legacy []legacyClass
	if err := json.Unmarshal(data, &legacy); err != nil {
		return Snapshot{}, fmt.Errorf("parse legacy snapshot: %w", err)
	}
	snap := Snapshot{SourceVersion: 0}
	main := location.Location{ID: LegacyLocationID, Name: "Main", MaxClassesPerDay: location.DefaultMaxClassesPerDay}
	main.ApplyDefaults()
	snap.Locations = []location.Location{main}

	for i, lc := range legacy {
		if lc.ID == "" {
			lc.ID = fmt.Sprintf("legacy-%d", i+1)
		}
		if strings.TrimSpace(lc.Trainer) == "" {
			lc.Trainer = LegacyTrainer
		}
		if len(lc.Date) > len(class.DateLayout) {
			// legacy exports sometimes carried a full ISO timestamp
			lc.Date = lc.Date[:len(class.DateLayout)]
		}
		c, err := fromRecord(classRecord{
			ID:              lc.ID,
			LocationID:      LegacyLocationID,
			Name:            lc.Name,
			Trainer:         lc.Trainer,
			Date:            lc.Date,
			StartTime:       lc.Time,
			DurationMinutes: lc.Duration,
			Spots:           lc.Spots,
			Booked:          lc.Booked,
		})
		if err != nil {
			return Snapshot{}, err
		}
		snap.Classes = append(snap.Classes, c)
	}
	return snap, nil
}

func checksum(b body) (string, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("encode snapshot body: %w", err)
	}
	sum := blake2b.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func toRecord(c class.Class) classRecord {
	r := classRecord{
		ID:              c.ID,
		LocationID:      c.LocationID,
		Name:            c.Name,
		Trainer:         c.Trainer,
		Date:            c.DateKey(),
		StartTime:       c.StartTime,
		DurationMinutes: c.DurationMinutes,
		Spots:           c.Spots,
		Booked:          c.Booked,
		Status:          c.Status,
		RejectionReason: c.RejectionReason,
		Note:            c.Note,
		CreatedAt:       c.CreatedAt.UTC(),
		UpdatedAt:       c.UpdatedAt.UTC(),
	}
	if c.Online != nil {
		r.Online = &onlineRecord{MeetingURL: c.Online.MeetingURL, PriceCents: c.Online.PriceCents, PaymentRequired: c.Online.PaymentRequired}
	}
	return r
}

func fromRecord(r classRecord) (class.Class, error) {
	date, err := class.ParseDate(r.Date)
	if err != nil {
		return class.Class{}, fmt.Errorf("%w: class %s: %v", ErrInvalidRecord, r.ID, err)
	}
	c := class.Class{
		ID:              r.ID,
		LocationID:      r.LocationID,
		Name:            r.Name,
		Trainer:         r.Trainer,
		Date:            date,
		StartTime:       class.CanonicalTimeOfDay(r.StartTime),
		DurationMinutes: r.DurationMinutes,
		Spots:           r.Spots,
		Booked:          r.Booked,
		Status:          r.Status,
		RejectionReason: r.RejectionReason,
		Note:            r.Note,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.Online != nil {
		c.Online = &class.Online{MeetingURL: r.Online.MeetingURL, PriceCents: r.Online.PriceCents, PaymentRequired: r.Online.PaymentRequired}
	}
	if err := c.Validate(); err != nil {
		return class.Class{}, fmt.Errorf("%w: class %s: %v", ErrInvalidRecord, r.ID, err)
	}
	return c, nil
}
