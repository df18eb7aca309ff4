package door

import (
	"context"
	"errors"
	"fmt"

	domain "advent/internal/domain/door"
)

// ErrNotFound is returned by Load when the message file does not exist.
var ErrNotFound = errors.New("advent messages file not found")

// ParseError is returned by Load when the message file cannot be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("error reading message data %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Store persists the door table.
type Store interface {
	// Load reads every record, dates trimmed.
	// POST: Returns an empty slice together with ErrNotFound or *ParseError on failure
	Load(ctx context.Context) ([]domain.Record, error)

	// Save validates and replaces the whole table, sorted by date.
	// POST: On *domain.ValidationError nothing is written
	Save(ctx context.Context, records []domain.Record) error
}

// Ensure JSONStore implements Store interface.
var _ Store = (*JSONStore)(nil)
