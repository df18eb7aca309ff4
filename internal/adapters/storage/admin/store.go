package admin

import (
	"context"
	"sync"

	domain "advent/internal/domain/admin"
)

// Store holds the single admin credential and its failed-login state.
type Store interface {
	// Get returns a copy of the current credential.
	Get(ctx context.Context) (domain.Credential, error)

	// Update applies fn to the credential while holding the store lock.
	// POST: Changes made by fn are kept even when fn returns an error
	Update(ctx context.Context, fn func(*domain.Credential) error) error
}

// MemoryStore keeps the credential in process memory. Lockout state resets
// on restart.
type MemoryStore struct {
	mu   sync.Mutex
	cred domain.Credential
}

// Ensure MemoryStore implements Store interface.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store seeded with cred.
func NewMemoryStore(cred domain.Credential) *MemoryStore {
	return &MemoryStore{cred: cred}
}

// Get returns a copy of the current credential.
func (s *MemoryStore) Get(ctx context.Context) (domain.Credential, error) {
	if err := ctx.Err(); err != nil {
		return domain.Credential{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred, nil
}

// Update runs fn against the stored credential under the lock.
func (s *MemoryStore) Update(ctx context.Context, fn func(*domain.Credential) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.cred)
}
