// Package runstore provides an optional durable index of runs, queryable
// independently of any single trace.json file (spec §6A, NEW). It is
// strictly additive: the Trace Recorder remains the single source of
// truth for one run's detail, and nothing in internal/runner requires a
// Store to function — cmd/nexous-server wires one in only when
// NEXOUS_DATABASE_URL is set.
//
// Grounded on tarsy's pkg/database (connection pooling + golang-migrate
// migrations over an embedded migrations/ directory), adapted from Ent
// to a direct github.com/jackc/pgx/v5/pgxpool client: Ent's generated
// client cannot be hand-produced without running `go generate`, so this
// package talks to Postgres with plain SQL instead (see DESIGN.md).
package runstore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations
var migrationsFS embed.FS

// RunRecord is one durable row describing a completed or in-flight run.
type RunRecord struct {
	ProjectID     string
	RunID         string
	Status        string
	ExecutionMode string
	TracePath     string
	StartedAt     time.Time
	EndedAt       *time.Time
	DurationMS    int64
}

// Store is a connection-pooled handle to the runs index.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn, applies pending migrations, and returns a ready
// Store. Mirrors database.NewClient's connect-then-migrate sequence.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("runstore: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("runstore: ping: %w", err)
	}
	if err := runMigrations(ctx, dsn); err != nil {
		pool.Close()
		return nil, fmt.Errorf("runstore: migrate: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool wraps an already-open pool, skipping migration (tests that
// manage their own container/migration lifecycle).
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func runMigrations(ctx context.Context, dsn string) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	defer sourceDriver.Close()

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, dsn)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Upsert records a run. For an existing row with the same
// (project_id, run_id) pair it updates status, trace_path, ended_at and
// duration_ms and keeps the stored execution_mode and started_at — a run
// may be upserted once at start and again at completion.
func (s *Store) Upsert(ctx context.Context, r RunRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO runs (project_id, run_id, status, execution_mode, trace_path, started_at, ended_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (project_id, run_id) DO UPDATE SET
			status = EXCLUDED.status,
			trace_path = EXCLUDED.trace_path,
			ended_at = EXCLUDED.ended_at,
			duration_ms = EXCLUDED.duration_ms
	`, r.ProjectID, r.RunID, r.Status, r.ExecutionMode, r.TracePath, r.StartedAt, r.EndedAt, r.DurationMS)
	if err != nil {
		return fmt.Errorf("runstore: upsert: %w", err)
	}
	return nil
}

// Get looks up one run by its (project_id, run_id) key.
func (s *Store) Get(ctx context.Context, projectID, runID string) (*RunRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT project_id, run_id, status, execution_mode, trace_path, started_at, ended_at, duration_ms
		FROM runs WHERE project_id = $1 AND run_id = $2
	`, projectID, runID)

	var r RunRecord
	if err := row.Scan(&r.ProjectID, &r.RunID, &r.Status, &r.ExecutionMode, &r.TracePath, &r.StartedAt, &r.EndedAt, &r.DurationMS); err != nil {
		return nil, fmt.Errorf("runstore: get: %w", err)
	}
	return &r, nil
}

// ListByProject returns every recorded run for projectID, most recent first.
func (s *Store) ListByProject(ctx context.Context, projectID string) ([]RunRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT project_id, run_id, status, execution_mode, trace_path, started_at, ended_at, duration_ms
		FROM runs WHERE project_id = $1 ORDER BY started_at DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("runstore: list: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ProjectID, &r.RunID, &r.Status, &r.ExecutionMode, &r.TracePath, &r.StartedAt, &r.EndedAt, &r.DurationMS); err != nil {
			return nil, fmt.Errorf("runstore: scan: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
