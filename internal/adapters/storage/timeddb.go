package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// DefaultSlowQueryMs is the default threshold for slow query warnings.
const DefaultSlowQueryMs = 50

// SlowQueryThreshold reads ADVENT_SLOW_QUERY_MS, falling back to the default.
func SlowQueryThreshold() time.Duration {
	ms := DefaultSlowQueryMs
	if v := os.Getenv("ADVENT_SLOW_QUERY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ms = n
		}
	}
	return time.Duration(ms) * time.Millisecond
}

// TimedDB wraps a *sql.DB and logs query durations.
// Queries at or above the threshold log at WARN, the rest at DEBUG.
type TimedDB struct {
	db        *sql.DB
	threshold time.Duration
	logger    *slog.Logger
}

// Compile-time check that *TimedDB satisfies SQLDB.
var _ SQLDB = (*TimedDB)(nil)

// NewTimedDB wraps db with timing instrumentation.
// PRE: db is a valid database connection
// POST: Returns a TimedDB logging through the default slog logger
func NewTimedDB(db *sql.DB, threshold time.Duration) *TimedDB {
	return &TimedDB{db: db, threshold: threshold, logger: slog.Default()}
}

// RawDB returns the underlying *sql.DB.
func (t *TimedDB) RawDB() *sql.DB {
	return t.db
}

func (t *TimedDB) logQuery(ctx context.Context, op string, start time.Time, err error) {
	elapsed := time.Since(start)
	level := slog.LevelDebug
	msg := "query"
	if elapsed >= t.threshold {
		level = slog.LevelWarn
		msg = "slow_query"
	}
	attrs := []any{"op", op, "duration_ms", float64(elapsed.Microseconds()) / 1000.0}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	t.logger.Log(ctx, level, msg, attrs...)
}

// ExecContext wraps sql.DB.ExecContext with timing.
func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := t.db.ExecContext(ctx, query, args...)
	t.logQuery(ctx, "ExecContext", start, err)
	return result, err
}

// QueryContext wraps sql.DB.QueryContext with timing.
func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.db.QueryContext(ctx, query, args...)
	t.logQuery(ctx, "QueryContext", start, err)
	return rows, err
}

// QueryRowContext wraps sql.DB.QueryRowContext with timing.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := t.db.QueryRowContext(ctx, query, args...)
	t.logQuery(ctx, "QueryRowContext", start, row.Err())
	return row
}

// Close closes the underlying database.
func (t *TimedDB) Close() error {
	return t.db.Close()
}
