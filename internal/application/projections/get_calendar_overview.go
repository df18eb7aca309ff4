package projections

import (
	"context"
	"fmt"
	"time"

	"advent/internal/domain/door"
	"advent/internal/domain/gate"
)

// CalendarOverviewDoorStore defines the store interface needed by the calendar overview projection.
type CalendarOverviewDoorStore interface {
	Load(ctx context.Context) ([]door.Record, error)
}

// DoorState is how a door looks on the overview grid.
type DoorState string

const (
	DoorOpen     DoorState = "open"
	DoorSealed   DoorState = "sealed"
	DoorDisabled DoorState = "disabled"
)

// GetCalendarOverviewQuery carries input for the calendar overview projection.
type GetCalendarOverviewQuery struct {
	Today    time.Time
	Calendar gate.Calendar
}

// GetCalendarOverviewDeps holds dependencies for the calendar overview projection.
type GetCalendarOverviewDeps struct {
	DoorStore CalendarOverviewDoorStore
}

// CalendarOverviewResult carries the output of the calendar overview projection.
type CalendarOverviewResult struct {
	Title     string     `json:"title"`
	MonthName string     `json:"month_name"`
	Year      int        `json:"year"`
	Active    bool       `json:"active"` // today falls inside the configured month
	Override  bool       `json:"override"`
	Doors     []DoorTile `json:"doors"`
	Counts    DoorCounts `json:"counts"`
}

// DoorCounts tallies doors by state.
type DoorCounts struct {
	Open     int `json:"open"`
	Sealed   int `json:"sealed"`
	Disabled int `json:"disabled"`
}

func (c *DoorCounts) add(state DoorState) {
	switch state {
	case DoorOpen:
		c.Open++
	case DoorSealed:
		c.Sealed++
	case DoorDisabled:
		c.Disabled++
	}
}

// DoorTile is one door on the grid. Message text is never included.
type DoorTile struct {
	Date  string    `json:"date"`
	Day   int       `json:"day"`
	State DoorState `json:"state"`
}

// QueryGetCalendarOverview lists every door with its current state.
// PRE: Calendar carries the configured year and month
// POST: Doors sorted by date; disabled wins over the gate, the gate decides open vs sealed
func QueryGetCalendarOverview(ctx context.Context, query GetCalendarOverviewQuery, deps GetCalendarOverviewDeps) (CalendarOverviewResult, error) {
	records, err := deps.DoorStore.Load(ctx)
	if err != nil {
		return CalendarOverviewResult{}, fmt.Errorf("load door table: %w", err)
	}
	sorted := make([]door.Record, len(records))
	copy(sorted, records)
	door.SortByDate(sorted)

	result := CalendarOverviewResult{
		Title:     fmt.Sprintf("Advent Calendar %d", query.Calendar.Year),
		MonthName: query.Calendar.MonthName(),
		Year:      query.Calendar.Year,
		Active:    query.Calendar.IsActiveOn(query.Today),
		Override:  query.Calendar.Override,
		Doors:     make([]DoorTile, 0, len(sorted)),
	}

	for _, rec := range sorted {
		tile := DoorTile{Date: rec.Date, Day: rec.Day()}
		switch {
		case !rec.IsActive:
			tile.State = DoorDisabled
		case gate.Decide(query.Today, query.Calendar, rec.Date).Allowed:
			tile.State = DoorOpen
		default:
			tile.State = DoorSealed
		}
		result.Counts.add(tile.State)
		result.Doors = append(result.Doors, tile)
	}
	return result, nil
}
