package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLDB is the database interface used by the SQLite stores.
// Both *sql.DB and *TimedDB satisfy this interface.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Compile-time check that *sql.DB satisfies SQLDB.
var _ SQLDB = (*sql.DB)(nil)

// DSN returns the SQLite connection string for the audit database file.
func DSN(path string) string {
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_event (
	id TEXT PRIMARY KEY,
	timestamp TEXT NOT NULL,
	category TEXT NOT NULL,
	action TEXT NOT NULL,
	severity TEXT NOT NULL DEFAULT 'info',
	session_id TEXT NOT NULL DEFAULT '',
	resource TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	ip_address TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_audit_event_timestamp ON audit_event(timestamp);
`

// InitDB creates the audit schema. Safe to run on every start.
// PRE: db is a valid database connection
// POST: All tables and indexes exist
func InitDB(ctx context.Context, db SQLDB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create audit schema: %w", err)
	}
	return nil
}
