package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	aterrors "github.com/otherjamesbrown/attend-cli/pkg/errors"
)

// execer is the subset of *pgxpool.Pool used by PostgresSink.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresSink inserts one row per run into a table.
type PostgresSink struct {
	db     execer
	table  string
	closer func()
}

// NewPostgresSink creates a sink writing to table, which may be
// schema-qualified ("reports.attendance_runs"). closer, when non-nil, runs
// on Close.
func NewPostgresSink(db execer, table string, closer func()) (*PostgresSink, error) {
	quoted, err := quoteTable(table)
	if err != nil {
		return nil, err
	}
	return &PostgresSink{db: db, table: quoted, closer: closer}, nil
}

func quoteTable(table string) (string, error) {
	parts := strings.Split(table, ".")
	if len(parts) > 2 {
		return "", fmt.Errorf("%w: table %q has too many dots", aterrors.ErrInvalidConfig, table)
	}
	for i, p := range parts {
		if strings.TrimSpace(p) == "" {
			return "", fmt.Errorf("%w: table %q has an empty name part", aterrors.ErrInvalidConfig, table)
		}
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, "."), nil
}

// Name implements Sink.
func (s *PostgresSink) Name() string { return "postgres" }

// EnsureSchema creates the run table if it does not exist.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
	run_id            UUID PRIMARY KEY,
	source            TEXT NOT NULL,
	window_start      TIMESTAMP NOT NULL,
	window_end        TIMESTAMP NOT NULL,
	min_fraction      DOUBLE PRECISION NOT NULL,
	threshold_minutes BIGINT NOT NULL,
	qualified         TEXT[] NOT NULL,
	qualified_count   INTEGER NOT NULL,
	delimited         TEXT NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	if _, err := s.db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("creating table %s: %w", s.table, err)
	}
	return nil
}

// Write implements Sink. Re-writing a run ID is a no-op.
func (s *PostgresSink) Write(ctx context.Context, r *Report) error {
	query := `INSERT INTO ` + s.table + ` (
	run_id, source, window_start, window_end, min_fraction,
	threshold_minutes, qualified, qualified_count, delimited, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (run_id) DO NOTHING`

	_, err := s.db.Exec(ctx, query,
		r.RunID,
		r.Source,
		r.WindowStart,
		r.WindowEnd,
		r.MinFraction,
		r.ThresholdMinutes,
		r.Qualified,
		len(r.Qualified),
		r.Delimited(),
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", r.RunID, err)
	}
	return nil
}

// Close implements Sink.
func (s *PostgresSink) Close() error {
	if s.closer != nil {
		s.closer()
	}
	return nil
}
