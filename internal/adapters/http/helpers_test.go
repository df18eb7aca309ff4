package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"advent/internal/adapters/http/middleware"
	"advent/internal/adapters/qrcode"
	adminStore "advent/internal/adapters/storage/admin"
	auditStore "advent/internal/adapters/storage/audit"
	doorStore "advent/internal/adapters/storage/door"
	"advent/internal/config"
	"advent/internal/domain/admin"
	"advent/internal/domain/audit"
	"advent/internal/domain/door"
)

const testPassword = "north-pole"

// mockAuditStore implements auditStore.Store for testing.
type mockAuditStore struct {
	mu     sync.Mutex
	events []audit.Event
}

// Save appends the event.
// PRE: none
// POST: Event captured
func (m *mockAuditStore) Save(_ context.Context, e audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

// List returns captured events, newest first.
// PRE: limit > 0
// POST: Returns at most limit events
func (m *mockAuditStore) List(_ context.Context, _ auditStore.Filter, limit int) ([]audit.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []audit.Event{}
	for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.events[i])
	}
	return out, nil
}

// GetByID finds a captured event.
// PRE: id is non-empty
// POST: Returns the event or auditStore.ErrNotFound
func (m *mockAuditStore) GetByID(_ context.Context, id string) (audit.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			return e, nil
		}
	}
	return audit.Event{}, auditStore.ErrNotFound
}

func (m *mockAuditStore) actions() []audit.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]audit.Action, len(m.events))
	for i, e := range m.events {
		out[i] = e.Action
	}
	return out
}

// testApp is the wired state for one handler test.
type testApp struct {
	doors *doorStore.JSONStore
	audit *mockAuditStore
}

func testConfig() config.Config {
	return config.Config{
		Year:     2025,
		Month:    12,
		MaxDay:   24,
		Kid1Name: "Ana",
		Kid2Name: "Ben",
		BaseURL:  "http://localhost:8080/door",
		Env:      config.DefaultEnv,
		QRSize:   128,
	}
}

// setupTestApp wires the package globals against a temp data file.
// A nil records slice leaves the data file absent.
func setupTestApp(t *testing.T, records []door.Record, today time.Time, mutate func(*config.Config)) *testApp {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	doors := doorStore.NewJSONStore(filepath.Join(t.TempDir(), "advent_messages.json"))
	if records != nil {
		if err := doors.Save(context.Background(), records); err != nil {
			t.Fatalf("seed door table: %v", err)
		}
	}

	cred, err := admin.NewCredential("", testPassword, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewCredential: %v", err)
	}

	app := &testApp{doors: doors, audit: &mockAuditStore{}}
	stores = &Stores{
		DoorStore:       doors,
		AuditStore:      app.audit,
		CredentialStore: adminStore.NewMemoryStore(cred),
	}
	appConfig = cfg
	qrEncoder = qrcode.NewPNGEncoder()
	sessions = middleware.NewSessionStore()

	prevNow := timeNow
	timeNow = func() time.Time { return today }
	t.Cleanup(func() { timeNow = prevNow })
	return app
}

// adminRequest returns a request carrying an admin session.
func adminRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.RemoteAddr = "192.0.2.50:4000"
	return req.WithContext(middleware.ContextWithSession(req.Context(), middleware.Session{Token: "0123456789abcdef", IP: "192.0.2.50"}))
}

func december(day int) time.Time {
	return time.Date(2025, time.December, day, 9, 0, 0, 0, time.Local)
}

func sampleRecords() []door.Record {
	return []door.Record{
		{Date: "2025-12-01", MessageKid1: "**Look** under the tree!\n<script>alert(1)</script>", MessageKid2: "Check the fridge.", IsActive: true},
		{Date: "2025-12-02", MessageKid1: "Broken door", IsActive: false},
		{Date: "2025-12-24", MessageKid1: "Big surprise", MessageKid2: "", IsActive: true},
	}
}
