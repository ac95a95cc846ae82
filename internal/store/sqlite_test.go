package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterforge/legend-engine/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_CreateAndGetRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "players-abc123", "deadbeef")
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "players-abc123", got.SnapshotID)
	assert.Equal(t, "deadbeef", got.ConfigHash)
	assert.Nil(t, got.Result)
}

func TestSQLite_UpdateRunStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "snap", "hash")
	require.NoError(t, err)

	require.NoError(t, st.UpdateRunStatus(ctx, run.ID, model.RunStatusRanking))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusRanking, got.Status)
}

func TestSQLite_UpdateRunStatus_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.UpdateRunStatus(context.Background(), "missing", model.RunStatusFailed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_UpdateRunResult_RoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "snap", "hash")
	require.NoError(t, err)

	result := &model.RunResult{
		Manifest: &model.RunManifest{
			RunID:       run.ID,
			SnapshotID:  "snap",
			ConfigHash:  "hash",
			RecordCount: 42,
		},
		Selection: &model.SelectionManifest{
			Entries: []model.SelectionEntry{
				{IndividualID: "p1", Position: model.PosQB, Rank: 1, Included: true, Reason: model.ReasonSelected},
			},
		},
		TotalRanked: 42,
	}
	require.NoError(t, st.UpdateRunResult(ctx, run.ID, result))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, 42, got.Result.Manifest.RecordCount)
	require.Len(t, got.Result.Selection.Entries, 1)
	assert.Equal(t, "p1", got.Result.Selection.Entries[0].IndividualID)
}

func TestSQLite_ListRuns_FilterByStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	r1, err := st.CreateRun(ctx, "snap-a", "h1")
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, "snap-b", "h2")
	require.NoError(t, err)
	require.NoError(t, st.UpdateRunStatus(ctx, r1.ID, model.RunStatusComplete))

	runs, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, r1.ID, runs[0].ID)

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLite_ListRuns_FilterBySnapshot(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.CreateRun(ctx, "snap-a", "h1")
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, "snap-b", "h2")
	require.NoError(t, err)

	runs, err := st.ListRuns(ctx, RunFilter{SnapshotID: "snap-b"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "snap-b", runs[0].SnapshotID)
}
