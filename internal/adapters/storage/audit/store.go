package audit

import (
	"context"
	"errors"

	domain "advent/internal/domain/audit"
)

// ErrNotFound is returned when no event has the requested ID.
var ErrNotFound = errors.New("audit event not found")

// Store defines the interface for audit event persistence.
type Store interface {
	// Save persists an audit event.
	// PRE: event has an ID, category and action
	// POST: Event is persisted
	Save(ctx context.Context, event domain.Event) error

	// List returns audit events with optional filtering.
	// PRE: limit > 0
	// POST: Returns events ordered by timestamp desc
	List(ctx context.Context, filter Filter, limit int) ([]domain.Event, error)

	// GetByID retrieves a specific audit event.
	// PRE: id is non-empty
	// POST: Returns the event or ErrNotFound
	GetByID(ctx context.Context, id string) (domain.Event, error)
}

// Filter defines query parameters for listing audit events.
// Nil fields are not filtered on.
type Filter struct {
	Category  *domain.Category
	Action    *domain.Action
	SessionID *string
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
