package web

import (
	"time"

	"gymflow/internal/application/orchestrators"
	"gymflow/internal/application/projections"
	blockedDomain "gymflow/internal/domain/blockeddate"
	"gymflow/internal/domain/calendar"
	classDomain "gymflow/internal/domain/class"
	locationDomain "gymflow/internal/domain/location"
	"gymflow/internal/domain/recurrence"
	"gymflow/internal/domain/slot"
)

// --- Requests ---

type onlineDTO struct {
	MeetingURL      string `json:"meeting_url" validate:"omitempty,url"`
	PriceCents      int    `json:"price_cents" validate:"gte=0"`
	PaymentRequired bool   `json:"payment_required"`
}

// classFields are the editable fields shared by single, recurring and update requests.
// Presence rules (name, trainer) stay with the domain so their messages reach the user.
type classFields struct {
	LocationID      string     `json:"location_id"`
	Name            string     `json:"name"`
	Trainer         string     `json:"trainer"`
	StartTime       string     `json:"start_time" validate:"omitempty,datetime=15:04"`
	DurationMinutes int        `json:"duration_minutes" validate:"gte=0,lte=1440"`
	Spots           int        `json:"spots" validate:"gte=0"`
	Status          string     `json:"status" validate:"omitempty,oneof=Approved Pending Rejected"`
	Note            string     `json:"note"`
	Online          *onlineDTO `json:"online"`
}

func (f classFields) template() classDomain.Template {
	tpl := classDomain.Template{
		LocationID:      f.LocationID,
		Name:            f.Name,
		Trainer:         f.Trainer,
		StartTime:       f.StartTime,
		DurationMinutes: f.DurationMinutes,
		Spots:           f.Spots,
		Status:          f.Status,
		Note:            f.Note,
	}
	if f.Online != nil {
		tpl.Online = &classDomain.Online{
			MeetingURL:      f.Online.MeetingURL,
			PriceCents:      f.Online.PriceCents,
			PaymentRequired: f.Online.PaymentRequired,
		}
	}
	return tpl
}

type classRequest struct {
	classFields
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type recurringRequest struct {
	classFields
	Weekdays  []int  `json:"weekdays" validate:"dive,gte=0,lte=6"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// request converts the payload. A missing end date is left zero for the domain to reject.
func (r recurringRequest) request() (recurrence.Request, error) {
	req := recurrence.Request{}
	for _, d := range r.Weekdays {
		req.Weekdays = append(req.Weekdays, time.Weekday(d))
	}
	start, err := classDomain.ParseDate(r.StartDate)
	if err != nil {
		return recurrence.Request{}, err
	}
	req.StartDate = start
	if r.EndDate != "" {
		end, err := classDomain.ParseDate(r.EndDate)
		if err != nil {
			return recurrence.Request{}, err
		}
		req.EndDate = end
	}
	return req, nil
}

type reviewRequest struct {
	Decision string `json:"decision" validate:"required"`
	Reason   string `json:"reason" validate:"max=500"`
}

type blockDateRequest struct {
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Reason string `json:"reason"`
}

type locationRequest struct {
	Name             string `json:"name"`
	OpensAt          string `json:"opens_at" validate:"omitempty,datetime=15:04"`
	ClosesAt         string `json:"closes_at" validate:"omitempty,datetime=15:04"`
	MaxClassesPerDay *int   `json:"max_classes_per_day" validate:"omitempty,gte=0"`
}

// maxPerDay returns the requested cap. Omitted means the default; an explicit 0 lifts the cap.
func (r locationRequest) maxPerDay() int {
	if r.MaxClassesPerDay == nil {
		return locationDomain.DefaultMaxClassesPerDay
	}
	return *r.MaxClassesPerDay
}

// --- Responses ---

type classResponse struct {
	ID              string     `json:"id"`
	LocationID      string     `json:"location_id"`
	Name            string     `json:"name"`
	Trainer         string     `json:"trainer"`
	Date            string     `json:"date"`
	StartTime       string     `json:"start_time"`
	EndTime         string     `json:"end_time"`
	DurationMinutes int        `json:"duration_minutes"`
	Spots           int        `json:"spots"`
	Booked          int        `json:"booked"`
	SpotsLeft       int        `json:"spots_left"`
	Online          *onlineDTO `json:"online,omitempty"`
	Status          string     `json:"status,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	Note            string     `json:"note,omitempty"`
	NoteHTML        string     `json:"note_html,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toClassResponse(c classDomain.Class) classResponse {
	resp := classResponse{
		ID:              c.ID,
		LocationID:      c.LocationID,
		Name:            c.Name,
		Trainer:         c.Trainer,
		Date:            classDomain.FormatDate(c.Date),
		StartTime:       c.StartTime,
		EndTime:         c.EndTime(),
		DurationMinutes: c.DurationMinutes,
		Spots:           c.Spots,
		Booked:          c.Booked,
		SpotsLeft:       c.SpotsLeft(),
		Status:          c.Status,
		RejectionReason: c.RejectionReason,
		Note:            c.Note,
		NoteHTML:        renderNote(c.Note),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
	if c.Online != nil {
		resp.Online = &onlineDTO{
			MeetingURL:      c.Online.MeetingURL,
			PriceCents:      c.Online.PriceCents,
			PaymentRequired: c.Online.PaymentRequired,
		}
	}
	return resp
}

func toClassResponses(classes []classDomain.Class) []classResponse {
	out := make([]classResponse, 0, len(classes))
	for _, c := range classes {
		out = append(out, toClassResponse(c))
	}
	return out
}

type blockedDateResponse struct {
	Date      string    `json:"date"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

func toBlockedResponse(b blockedDomain.BlockedDate) blockedDateResponse {
	return blockedDateResponse{Date: b.Key(), Reason: b.Reason, CreatedAt: b.CreatedAt}
}

func toBlockedResponses(dates []blockedDomain.BlockedDate) []blockedDateResponse {
	out := make([]blockedDateResponse, 0, len(dates))
	for _, b := range dates {
		out = append(out, toBlockedResponse(b))
	}
	return out
}

type locationResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	OpensAt          string `json:"opens_at"`
	ClosesAt         string `json:"closes_at"`
	MaxClassesPerDay int    `json:"max_classes_per_day"`
}

func toLocationResponse(l locationDomain.Location) locationResponse {
	return locationResponse{
		ID:               l.ID,
		Name:             l.Name,
		OpensAt:          l.OpensAt,
		ClosesAt:         l.ClosesAt,
		MaxClassesPerDay: l.MaxClassesPerDay,
	}
}

type skippedResponse struct {
	Date         string `json:"date"`
	Reason       string `json:"reason"`
	ConflictWith string `json:"conflict_with,omitempty"`
}

type recurringResponse struct {
	Created []classResponse   `json:"created"`
	Skipped []skippedResponse `json:"skipped"`
}

func toRecurringResponse(res orchestrators.CreateRecurringClassesResult) recurringResponse {
	out := recurringResponse{
		Created: toClassResponses(res.Created),
		Skipped: make([]skippedResponse, 0, len(res.Skipped)),
	}
	for _, s := range res.Skipped {
		out.Skipped = append(out.Skipped, skippedResponse{
			Date:         classDomain.FormatDate(s.Date),
			Reason:       s.Reason,
			ConflictWith: s.ConflictWith,
		})
	}
	return out
}

type dayResponse struct {
	Date          string          `json:"date"`
	InMonth       bool            `json:"in_month"`
	BlockedReason string          `json:"blocked_reason,omitempty"`
	Classes       []classResponse `json:"classes"`
}

type calendarResponse struct {
	Month      string          `json:"month"`
	Prev       string          `json:"prev"`
	Next       string          `json:"next"`
	WeekStart  string          `json:"week_start"`
	ClassCount int             `json:"class_count"`
	Weeks      [][]dayResponse `json:"weeks"`
}

func toCalendarResponse(res projections.GetCalendarMonthResult) calendarResponse {
	out := calendarResponse{
		Month:      res.Month.Anchor.Format(calendar.MonthLayout),
		Prev:       res.Prev.Format(calendar.MonthLayout),
		Next:       res.Next.Format(calendar.MonthLayout),
		WeekStart:  res.Month.WeekStart.String(),
		ClassCount: res.Month.ClassCount(),
		Weeks:      make([][]dayResponse, 0, len(res.Month.Weeks)),
	}
	for _, week := range res.Month.Weeks {
		row := make([]dayResponse, 0, len(week))
		for _, d := range week {
			day := dayResponse{
				Date:    classDomain.FormatDate(d.Date),
				InMonth: d.InMonth,
				Classes: toClassResponses(d.Classes),
			}
			if d.Blocked != nil {
				day.BlockedReason = d.Blocked.Reason
			}
			row = append(row, day)
		}
		out.Weeks = append(out.Weeks, row)
	}
	return out
}

type slotResponse struct {
	Time      string `json:"time"`
	Booked    bool   `json:"booked"`
	BookedBy  string `json:"booked_by,omitempty"`
	ClassName string `json:"class_name,omitempty"`
}

type slotsResponse struct {
	Date          string           `json:"date"`
	Location      locationResponse `json:"location"`
	BlockedReason string           `json:"blocked_reason,omitempty"`
	ClassesToday  int              `json:"classes_today"`
	AtCapacity    bool             `json:"at_capacity"`
	Slots         []slotResponse   `json:"slots"`
}

func toSlotsResponse(res projections.GetSlotAvailabilityResult) slotsResponse {
	out := slotsResponse{
		Date:         classDomain.FormatDate(res.Date),
		Location:     toLocationResponse(res.Location),
		ClassesToday: res.ClassesToday,
		AtCapacity:   res.AtCapacity,
		Slots:        make([]slotResponse, 0, len(res.Slots)),
	}
	if res.Blocked != nil {
		out.BlockedReason = res.Blocked.Reason
	}
	for _, s := range res.Slots {
		out.Slots = append(out.Slots, toSlotResponse(s))
	}
	return out
}

func toSlotResponse(s slot.Status) slotResponse {
	return slotResponse{Time: s.Time, Booked: s.Booked, BookedBy: s.BookedBy, ClassName: s.ClassName}
}
