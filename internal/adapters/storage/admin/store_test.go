package admin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domain "advent/internal/domain/admin"
)

// TestMemoryStore_UpdateKeepsChangesOnError verifies fn's mutations persist even when it fails.
func TestMemoryStore_UpdateKeepsChangesOnError(t *testing.T) {
	s := NewMemoryStore(domain.Credential{PasswordHash: "x"})
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Update(ctx, func(c *domain.Credential) error {
		c.RecordFailedLogin(time.Now())
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update() error = %v, want boom", err)
	}
	got, _ := s.Get(ctx)
	if got.FailedLogins != 1 {
		t.Errorf("FailedLogins = %d, want 1", got.FailedLogins)
	}
}

// TestMemoryStore_ConcurrentUpdates verifies updates are serialized.
func TestMemoryStore_ConcurrentUpdates(t *testing.T) {
	s := NewMemoryStore(domain.Credential{PasswordHash: "x"})
	ctx := context.Background()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update(ctx, func(c *domain.Credential) error {
				c.RecordFailedLogin(now)
				return nil
			})
		}()
	}
	wg.Wait()

	got, _ := s.Get(ctx)
	if got.FailedLogins != 50 {
		t.Errorf("FailedLogins = %d, want 50", got.FailedLogins)
	}
}

// TestMemoryStore_CancelledContext verifies cancelled contexts are rejected.
func TestMemoryStore_CancelledContext(t *testing.T) {
	s := NewMemoryStore(domain.Credential{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Get(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Get() error = %v", err)
	}
	called := false
	if err := s.Update(ctx, func(*domain.Credential) error { called = true; return nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("Update() error = %v", err)
	}
	if called {
		t.Error("fn should not run on a cancelled context")
	}
}
