package class

import "time"

// Template is everything a class needs except the date it runs on.
// Recurring schedules materialize one Class per matching date from it.
type Template struct {
	LocationID      string
	Name            string
	Trainer         string
	StartTime       string
	DurationMinutes int
	Spots           int
	Online          *Online
	Status          string
	Note            string
}

// Materialize creates the class instance for date.
// PRE: id is unique, date is a civil date
// POST: Returns a Class with Booked = 0, a canonical HH:MM start and a copy of the online metadata
func (t Template) Materialize(id string, date time.Time) Class {
	var online *Online
	if t.Online != nil {
		o := *t.Online
		online = &o
	}
	return Class{
		ID:              id,
		LocationID:      t.LocationID,
		Name:            t.Name,
		Trainer:         t.Trainer,
		Date:            NormalizeDate(date),
		StartTime:       CanonicalTimeOfDay(t.StartTime),
		DurationMinutes: t.DurationMinutes,
		Spots:           t.Spots,
		Booked:          0,
		Online:          online,
		Status:          t.Status,
		Note:            t.Note,
	}
}

// TemplateOf extracts the date-independent fields of c.
func TemplateOf(c Class) Template {
	return Template{
		LocationID:      c.LocationID,
		Name:            c.Name,
		Trainer:         c.Trainer,
		StartTime:       c.StartTime,
		DurationMinutes: c.DurationMinutes,
		Spots:           c.Spots,
		Online:          c.Online,
		Status:          c.Status,
		Note:            c.Note,
	}
}
