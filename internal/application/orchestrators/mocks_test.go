package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"advent/internal/domain/audit"
	"advent/internal/domain/door"
)

// mockDoorStore implements the door store interfaces for testing.
type mockDoorStore struct {
	records []door.Record
	loadErr error
	saveErr error
	saved   []door.Record
	saves   int
}

// Load returns the seeded records.
// PRE: none
// POST: Returns a copy of the seeded records or loadErr
func (m *mockDoorStore) Load(_ context.Context) ([]door.Record, error) {
	if m.loadErr != nil {
		return []door.Record{}, m.loadErr
	}
	out := make([]door.Record, len(m.records))
	copy(out, m.records)
	return out, nil
}

// Save validates like the real store and keeps the records.
// PRE: none
// POST: saved holds the records unless validation or saveErr fails
func (m *mockDoorStore) Save(_ context.Context, records []door.Record) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if err := door.ValidateAll(records); err != nil {
		return err
	}
	m.saves++
	m.saved = append([]door.Record(nil), records...)
	return nil
}

// mockAuditRecorder captures audit events.
type mockAuditRecorder struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

// Save appends the event.
// PRE: none
// POST: Event captured unless err is set
func (m *mockAuditRecorder) Save(_ context.Context, e audit.Event) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *mockAuditRecorder) actions() []audit.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]audit.Action, len(m.events))
	for i, e := range m.events {
		out[i] = e.Action
	}
	return out
}

// fakeEncoder returns the content as bytes so tests can inspect it.
type fakeEncoder struct {
	failOn string
}

// Encode returns a deterministic fake image.
// PRE: none
// POST: Returns "PNG:<size>:<content>"
func (f *fakeEncoder) Encode(content string, size int) ([]byte, error) {
	if f.failOn != "" && content == f.failOn {
		return nil, errors.New("encoder failure")
	}
	return []byte(fmt.Sprintf("PNG:%d:%s", size, content)), nil
}
