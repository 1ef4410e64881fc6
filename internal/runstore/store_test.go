package runstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newTestStore starts a disposable Postgres container, applies the
// embedded migrations through Open, and registers cleanup.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("nexous_test"),
		postgres.WithUsername("nexous"),
		postgres.WithPassword("nexous"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	return store
}

func TestStore_UpsertGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	startedAt := time.Now().UTC().Truncate(time.Millisecond)
	rec := RunRecord{
		ProjectID:     "demo-project",
		RunID:         "run_20260730_120000_abcdef",
		Status:        "RUNNING",
		ExecutionMode: "sequential",
		TracePath:     "traces/demo-project/run_20260730_120000_abcdef/trace.json",
		StartedAt:     startedAt,
	}
	require.NoError(t, store.Upsert(ctx, rec))

	got, err := store.Get(ctx, rec.ProjectID, rec.RunID)
	require.NoError(t, err)
	require.Equal(t, rec.Status, got.Status)
	require.Nil(t, got.EndedAt)

	endedAt := startedAt.Add(2500 * time.Millisecond)
	rec.Status = "COMPLETED"
	rec.EndedAt = &endedAt
	rec.DurationMS = 2500
	require.NoError(t, store.Upsert(ctx, rec))

	got, err = store.Get(ctx, rec.ProjectID, rec.RunID)
	require.NoError(t, err)
	require.Equal(t, "COMPLETED", got.Status)
	require.NotNil(t, got.EndedAt)
	require.Equal(t, int64(2500), got.DurationMS)
}

func TestStore_ListByProject(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, runID := range []string{"run_a", "run_b", "run_c"} {
		require.NoError(t, store.Upsert(ctx, RunRecord{
			ProjectID:     "multi-run-project",
			RunID:         runID,
			Status:        "COMPLETED",
			ExecutionMode: "sequential",
			TracePath:     "traces/multi-run-project/" + runID + "/trace.json",
			StartedAt:     base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, store.Upsert(ctx, RunRecord{
		ProjectID:     "other-project",
		RunID:         "run_x",
		Status:        "COMPLETED",
		ExecutionMode: "sequential",
		TracePath:     "traces/other-project/run_x/trace.json",
		StartedAt:     base,
	}))

	runs, err := store.ListByProject(ctx, "multi-run-project")
	require.NoError(t, err)
	require.Len(t, runs, 3)
	// most recent first
	require.Equal(t, "run_c", runs[0].RunID)
	require.Equal(t, "run_a", runs[2].RunID)
}

func TestStore_GetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "nope", "nope")
	require.Error(t, err)
}
