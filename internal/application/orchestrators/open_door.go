package orchestrators

import (
	"context"
	"fmt"

	"advent/internal/domain/door"
)

// DoorStoreForRead defines the store interface needed to read the door table.
type DoorStoreForRead interface {
	Load(ctx context.Context) ([]door.Record, error)
}

// debugDatesShown is how many loaded dates the debug panel lists.
const debugDatesShown = 5

// OpenDoorInput carries input for the open door orchestrator.
type OpenDoorInput struct {
	Request door.Request
	Env     door.Environment
}

// OpenDoorDeps holds dependencies for OpenDoor.
type OpenDoorDeps struct {
	DoorStore DoorStoreForRead
}

// OpenDoorResult carries the resolved door plus what the debug panel shows.
type OpenDoorResult struct {
	Outcome     door.Outcome
	LoadedDates []string // first few dates in file order
	TotalDates  int
}

// ExecuteOpenDoor reads the door table fresh and resolves the request.
// PRE: Env carries today's date and the calendar configuration
// POST: Returns the outcome, or an error when the table cannot be loaded
// INVARIANT: The message file is never written
func ExecuteOpenDoor(ctx context.Context, input OpenDoorInput, deps OpenDoorDeps) (OpenDoorResult, error) {
	records, err := deps.DoorStore.Load(ctx)
	if err != nil {
		return OpenDoorResult{}, fmt.Errorf("load door table: %w", err)
	}

	result := OpenDoorResult{
		Outcome:    door.Resolve(records, input.Request, input.Env),
		TotalDates: len(records),
	}
	for i, r := range records {
		if i == debugDatesShown {
			break
		}
		result.LoadedDates = append(result.LoadedDates, r.Date)
	}
	return result, nil
}
