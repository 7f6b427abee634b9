// File: internal/reporting/store/store.go
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/api/schemas"
)

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const createTable = `
CREATE TABLE IF NOT EXISTS test_outcomes (
    id          UUID PRIMARY KEY,
    unique_id   TEXT        NOT NULL,
    suite       TEXT        NOT NULL,
    method      TEXT        NOT NULL,
    passed      BOOLEAN     NOT NULL,
    error       TEXT        NOT NULL DEFAULT '',
    session_id  TEXT        NOT NULL DEFAULT '',
    attempts    INTEGER     NOT NULL,
    duration_ms BIGINT      NOT NULL,
    finished_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS test_outcomes_unique_id_idx ON test_outcomes (unique_id);`

const insertOutcome = `
INSERT INTO test_outcomes (id, unique_id, suite, method, passed, error, session_id, attempts, duration_ms, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const selectRun = `
SELECT id::text, unique_id, suite, method, passed, error, session_id, attempts, duration_ms, finished_at
FROM test_outcomes
WHERE unique_id = $1
ORDER BY finished_at, suite, method`

// Row is one stored outcome.
type Row struct {
	ID         string    `json:"id"`
	UniqueID   string    `json:"unique_id"`
	Suite      string    `json:"suite"`
	Method     string    `json:"method"`
	Passed     bool      `json:"passed"`
	Error      string    `json:"error,omitempty"`
	SessionID  string    `json:"session_id,omitempty"`
	Attempts   int       `json:"attempts"`
	DurationMS int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}

// Store keeps the history of final test outcomes in PostgreSQL.
type Store struct {
	pool DBPool
	log  *zap.Logger
	now  func() time.Time
}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{pool: pool, log: logger.Named("store"), now: time.Now}, nil
}

// EnsureSchema creates the outcome table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create test_outcomes table: %w", err)
	}
	return nil
}

func (s *Store) values(o schemas.Outcome, finished time.Time) []any {
	return []any{
		uuid.New(), o.UniqueID, o.Descriptor.Suite, o.Descriptor.Method,
		o.Passed, o.ErrorMessage(), o.SessionID, o.Attempts,
		o.Duration.Milliseconds(), finished.UTC(),
	}
}

// Record inserts one row for a final outcome.
func (s *Store) Record(ctx context.Context, outcome schemas.Outcome) error {
	tag, err := s.pool.Exec(ctx, insertOutcome, s.values(outcome, s.now())...)
	if err != nil {
		return fmt.Errorf("failed to record outcome for %s: %w", outcome.Descriptor.Name(), err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("failed to record outcome for %s: %d rows affected", outcome.Descriptor.Name(), tag.RowsAffected())
	}
	return nil
}

// History returns the stored outcomes of one run.
func (s *Store) History(ctx context.Context, uniqueID string) ([]Row, error) {
	rows, err := s.pool.Query(ctx, selectRun, uniqueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run %s: %w", uniqueID, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.UniqueID, &r.Suite, &r.Method, &r.Passed, &r.Error,
			&r.SessionID, &r.Attempts, &r.DurationMS, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outcome row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read run %s: %w", uniqueID, err)
	}
	return out, nil
}
