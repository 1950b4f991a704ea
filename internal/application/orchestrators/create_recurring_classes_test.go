package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	classstore "gymflow/internal/adapters/storage/class"
	"gymflow/internal/domain/class"
	"gymflow/internal/domain/outbox"
	"gymflow/internal/domain/recurrence"
)

func monWed(start, end time.Time) recurrence.Request {
	return recurrence.Request{Weekdays: []time.Weekday{time.Monday, time.Wednesday}, StartDate: start, EndDate: end}
}

func (s schedule) recurringDeps() CreateRecurringClassesDeps {
	return CreateRecurringClassesDeps{
		Scheduler:    s.calendar,
		BlockedDates: s.blocked,
		Changes:      s.changes,
		GenerateID:   sequentialIDs("rec"),
		Now:          fixedNow,
	}
}

func dateKeys(classes []class.Class) []string {
	out := make([]string, 0, len(classes))
	for _, c := range classes {
		out = append(out, c.DateKey())
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestExecuteCreateRecurringClasses_MondayWednesday(t *testing.T) {
	ctx := context.Background()
	s := newSchedule(t, 5)

	res, err := ExecuteCreateRecurringClasses(ctx, CreateRecurringClassesInput{
		Template:   yoga(),
		Recurrence: monWed(july(1), july(10)),
	}, s.recurringDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"2024-07-01", "2024-07-03", "2024-07-08", "2024-07-10"}
	if got := dateKeys(res.Created); !equalStrings(got, want) {
		t.Errorf("expected dates %v, got %v", want, got)
	}
	if len(res.Skipped) != 0 {
		t.Errorf("expected no skipped dates, got %v", res.Skipped)
	}
	seen := map[string]bool{}
	for _, c := range res.Created {
		if seen[c.ID] {
			t.Errorf("duplicate ID %s", c.ID)
		}
		seen[c.ID] = true
		if c.Booked != 0 {
			t.Errorf("expected Booked=0 for %s, got %d", c.ID, c.Booked)
		}
	}

	n, err := s.classes.CountOnDate(ctx, july(8), "studio")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 class on 2024-07-08, got %d", n)
	}
}

func TestExecuteCreateRecurringClasses_SkipsBlockedDate(t *testing.T) {
	ctx := context.Background()
	s := newSchedule(t, 5)
	if _, err := ExecuteBlockDate(ctx, BlockDateInput{Date: july(8), Reason: "Deep clean"}, s.blockDeps()); err != nil {
		t.Fatalf("block: %v", err)
	}

	res, err := ExecuteCreateRecurringClasses(ctx, CreateRecurringClassesInput{
		Template:   yoga(),
		Recurrence: monWed(july(1), july(10)),
	}, s.recurringDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"2024-07-01", "2024-07-03", "2024-07-10"}
	if got := dateKeys(res.Created); !equalStrings(got, want) {
		t.Errorf("expected dates %v, got %v", want, got)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != recurrence.SkipBlocked || class.FormatDate(res.Skipped[0].Date) != "2024-07-08" {
		t.Errorf("expected 2024-07-08 skipped as blocked, got %v", res.Skipped)
	}
}

func TestExecuteCreateRecurringClasses_SkipsConflicts(t *testing.T) {
	ctx := context.Background()
	s := newSchedule(t, 5)

	busy := yoga()
	busy.Name = "Boxing"
	busy.Trainer = "Ben"
	busy.StartTime = "07:30"
	if _, err := ExecuteCreateClass(ctx, CreateClassInput{Template: busy, Date: july(3)}, s.createDeps()); err != nil {
		t.Fatalf("seed class: %v", err)
	}

	res, err := ExecuteCreateRecurringClasses(ctx, CreateRecurringClassesInput{
		Template:   yoga(),
		Recurrence: monWed(july(1), july(10)),
	}, s.recurringDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Created) != 3 {
		t.Errorf("expected 3 classes, got %d", len(res.Created))
	}
	if len(res.Skipped) != 1 {
		t.Fatalf("expected 1 skipped date, got %v", res.Skipped)
	}
	if res.Skipped[0].Reason != recurrence.SkipConflict || res.Skipped[0].ConflictWith != "class-1" {
		t.Errorf("expected conflict with class-1, got %+v", res.Skipped[0])
	}
}

func TestExecuteCreateRecurringClasses_SkippedSortedByDate(t *testing.T) {
	ctx := context.Background()
	s := newSchedule(t, 1)
	if _, err := ExecuteBlockDate(ctx, BlockDateInput{Date: july(8), Reason: "Closed"}, s.blockDeps()); err != nil {
		t.Fatalf("block: %v", err)
	}
	other := yoga()
	other.Trainer = "Cat"
	other.StartTime = "18:00"
	if _, err := ExecuteCreateClass(ctx, CreateClassInput{Template: other, Date: july(3)}, s.createDeps()); err != nil {
		t.Fatalf("seed class: %v", err)
	}

	res, err := ExecuteCreateRecurringClasses(ctx, CreateRecurringClassesInput{
		Template:   yoga(),
		Recurrence: monWed(july(1), july(10)),
	}, s.recurringDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []string
	for _, sk := range res.Skipped {
		got = append(got, class.FormatDate(sk.Date)+":"+sk.Reason)
	}
	want := []string{"2024-07-03:daily_cap", "2024-07-08:blocked"}
	if !equalStrings(got, want) {
		t.Errorf("expected skipped %v, got %v", want, got)
	}
}

func TestExecuteCreateRecurringClasses_InvalidRequest(t *testing.T) {
	s := newSchedule(t, 5)
	tests := []struct {
		name    string
		req     recurrence.Request
		tpl     func(*class.Template)
		wantErr error
	}{
		{"no weekdays", recurrence.Request{StartDate: july(1), EndDate: july(10)}, nil, recurrence.ErrNoWeekdays},
		{"no end date", recurrence.Request{Weekdays: []time.Weekday{time.Monday}, StartDate: july(1)}, nil, recurrence.ErrMissingEndDate},
		{"end before start", monWed(july(10), july(1)), nil, recurrence.ErrEndBeforeStart},
		{"bad template", monWed(july(1), july(10)), func(tpl *class.Template) { tpl.Trainer = "" }, class.ErrEmptyTrainer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := yoga()
			if tt.tpl != nil {
				tt.tpl(&tpl)
			}
			_, err := ExecuteCreateRecurringClasses(context.Background(), CreateRecurringClassesInput{Template: tpl, Recurrence: tt.req}, s.recurringDeps())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	n, err := s.classes.Count(context.Background(), classstore.ListFilter{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no classes after rejected requests, got %d", n)
	}
}

func TestExecuteCreateRecurringClasses_PendingSeriesQueuesOneNotification(t *testing.T) {
	ctx := context.Background()
	s := newSchedule(t, 5)
	deps := s.recurringDeps()
	deps.Notify = Notifier{Outbox: s.outbox, To: []string{"staff@gym.example"}, GenerateID: sequentialIDs("mail")}

	tpl := yoga()
	tpl.Status = class.StatusPending
	res, err := ExecuteCreateRecurringClasses(ctx, CreateRecurringClassesInput{Template: tpl, Recurrence: monWed(july(1), july(10))}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Created) != 4 {
		t.Fatalf("expected 4 classes, got %d", len(res.Created))
	}

	entries, err := s.outbox.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one notification for the series, got %d", len(entries))
	}
	if entries[0].ActionType != outbox.ActionClassPending {
		t.Errorf("expected action %s, got %s", outbox.ActionClassPending, entries[0].ActionType)
	}
	payload, err := entries[0].Email()
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Subject != "4 classes awaiting review: Yoga" {
		t.Errorf("unexpected subject %q", payload.Subject)
	}
	if payload.ClassID != res.Created[0].ID {
		t.Errorf("expected class_id %s, got %s", res.Created[0].ID, payload.ClassID)
	}
	if !strings.Contains(payload.HTML, "2024-07-10") {
		t.Errorf("expected series dates in body, got %s", payload.HTML)
	}

	// approved series need no review
	s2 := newSchedule(t, 5)
	deps2 := s2.recurringDeps()
	deps2.Notify = Notifier{Outbox: s2.outbox, To: []string{"staff@gym.example"}, GenerateID: sequentialIDs("mail")}
	if _, err := ExecuteCreateRecurringClasses(ctx, CreateRecurringClassesInput{Template: yoga(), Recurrence: monWed(july(1), july(10))}, deps2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entries, _ := s2.outbox.ListPending(ctx, 10); len(entries) != 0 {
		t.Errorf("expected no notification for an approved series, got %d", len(entries))
	}
}
