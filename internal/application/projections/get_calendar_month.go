package projections

import (
	"context"
	"time"

	"gymflow/internal/domain/calendar"
)

// GetCalendarMonthQuery carries query parameters.
type GetCalendarMonthQuery struct {
	Anchor     time.Time // any day in the month to show
	LocationID string    // empty shows every location
	WeekStart  time.Weekday
}

// GetCalendarMonthResult carries the query result.
type GetCalendarMonthResult struct {
	Month calendar.Month
	Prev  time.Time // anchor of the previous month
	Next  time.Time // anchor of the next month
}

// GetCalendarMonthDeps holds dependencies for GetCalendarMonth.
type GetCalendarMonthDeps struct {
	ClassStore       ClassStore
	BlockedDateStore BlockedDateStore
}

// QueryGetCalendarMonth builds the month grid from stored classes and blocked dates.
// PRE: Anchor is non-zero
// POST: Every class in the visible range (including padding days) is placed on its day
func QueryGetCalendarMonth(ctx context.Context, query GetCalendarMonthQuery, deps GetCalendarMonthDeps) (GetCalendarMonthResult, error) {
	anchor := calendar.MonthStart(query.Anchor)
	first, last := calendar.VisibleRange(anchor, query.WeekStart)

	classes, err := deps.ClassStore.ListByRange(ctx, first, last, query.LocationID)
	if err != nil {
		return GetCalendarMonthResult{}, err
	}
	blocked, err := deps.BlockedDateStore.ListByRange(ctx, first, last)
	if err != nil {
		return GetCalendarMonthResult{}, err
	}

	return GetCalendarMonthResult{
		Month: calendar.BuildMonth(anchor, classes, blocked, query.WeekStart),
		Prev:  calendar.PrevMonth(anchor),
		Next:  calendar.NextMonth(anchor),
	}, nil
}
