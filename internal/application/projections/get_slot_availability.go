package projections

import (
	"context"
	"errors"
	"time"

	domainBlocked "gymflow/internal/domain/blockeddate"
	domainClass "gymflow/internal/domain/class"
	domainLocation "gymflow/internal/domain/location"
	"gymflow/internal/domain/slot"
)

// ErrLocationRequired is returned when no location is given for a slot query.
var ErrLocationRequired = errors.New("location is required to list slots")

// GetSlotAvailabilityQuery carries query parameters.
type GetSlotAvailabilityQuery struct {
	Date       time.Time
	LocationID string
	ExcludeID  string // class being edited; its own slots show as free
}

// GetSlotAvailabilityResult carries the query result.
type GetSlotAvailabilityResult struct {
	Date         time.Time
	Location     domainLocation.Location
	Blocked      *domainBlocked.BlockedDate
	Slots        []slot.Status
	ClassesToday int
	AtCapacity   bool
}

// GetSlotAvailabilityDeps holds dependencies for GetSlotAvailability.
type GetSlotAvailabilityDeps struct {
	ClassStore       ClassStore
	BlockedDateStore BlockedDateStore
	LocationStore    LocationStore
}

// QueryGetSlotAvailability builds the half-hour slot selector for one day at one location.
// PRE: Date is non-zero; LocationID names an existing location
// POST: One Status per slot between opening and closing; a blocked day has every slot booked
// INVARIANT: Rejected classes never occupy a slot
func QueryGetSlotAvailability(ctx context.Context, query GetSlotAvailabilityQuery, deps GetSlotAvailabilityDeps) (GetSlotAvailabilityResult, error) {
	if query.LocationID == "" {
		return GetSlotAvailabilityResult{}, ErrLocationRequired
	}
	loc, err := deps.LocationStore.GetByID(ctx, query.LocationID)
	if err != nil {
		return GetSlotAvailabilityResult{}, err
	}
	date := domainClass.NormalizeDate(query.Date)

	dayClasses, err := deps.ClassStore.ListByDate(ctx, date, loc.ID)
	if err != nil {
		return GetSlotAvailabilityResult{}, err
	}
	occupying := make([]domainClass.Class, 0, len(dayClasses))
	for _, c := range dayClasses {
		if c.Status != domainClass.StatusRejected {
			occupying = append(occupying, c)
		}
	}

	blocked, err := deps.BlockedDateStore.ListByRange(ctx, date, date)
	if err != nil {
		return GetSlotAvailabilityResult{}, err
	}

	opens, closes := loc.Hours()
	result := GetSlotAvailabilityResult{
		Date:     date,
		Location: loc,
		Slots:    slot.Availability(opens, closes, occupying, query.ExcludeID),
	}
	for _, c := range occupying {
		if c.ID != query.ExcludeID {
			result.ClassesToday++
		}
	}
	result.AtCapacity = loc.AtCapacity(result.ClassesToday)

	if len(blocked) > 0 {
		b := blocked[0]
		result.Blocked = &b
		for i := range result.Slots {
			result.Slots[i].Booked = true
		}
	}
	return result, nil
}
