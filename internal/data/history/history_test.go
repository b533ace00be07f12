package history

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SaveAndLoadRuns(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)

	first := Run{
		ID:             "run-1",
		Command:        "policy",
		Roots:          []string{"src"},
		StartedAt:      base,
		FinishedAt:     base.Add(time.Second),
		FileCount:      3,
		FailedCount:    1,
		ViolationCount: 2,
		KindCounts:     map[string]int{"prohibited-import": 2},
	}
	second := Run{
		ID:             "run-2",
		Command:        "scan",
		Roots:          []string{"src", "tools"},
		StartedAt:      base.Add(time.Hour),
		FinishedAt:     base.Add(time.Hour + time.Second),
		FileCount:      4,
		FailedCount:    2,
		ViolationCount: 5,
		Partial:        true,
		KindCounts:     map[string]int{"disallowed-call": 1, "style:semicolon": 4},
	}
	files := []FileResult{
		{Path: "src/b.py", Status: "clean"},
		{Path: "src/a.py", Status: "prohibited-import", ViolationCount: 2},
	}

	require.NoError(t, store.SaveRun(ctx, first, files))
	require.NoError(t, store.SaveRun(ctx, second, nil))

	runs, err := store.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "run-2", runs[0].ID)
	assert.True(t, runs[0].Partial)
	assert.Equal(t, []string{"src", "tools"}, runs[0].Roots)
	assert.Equal(t, map[string]int{"disallowed-call": 1, "style:semicolon": 4}, runs[0].KindCounts)
	assert.Equal(t, base.Add(time.Hour), runs[0].StartedAt)

	assert.Equal(t, "run-1", runs[1].ID)
	assert.Equal(t, 1, runs[1].FailedCount)

	got, err := store.RunFiles(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []FileResult{
		{Path: "src/a.py", Status: "prohibited-import", ViolationCount: 2},
		{Path: "src/b.py", Status: "clean"},
	}, got)

	limited, err := store.RecentRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStore_SaveRunReplacesSameID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.SaveRun(ctx, Run{ID: "r", StartedAt: now, FinishedAt: now, FileCount: 1,
		KindCounts: map[string]int{"parse-error": 1}}, []FileResult{{Path: "a.py", Status: "parse-error", ViolationCount: 1}}))
	require.NoError(t, store.SaveRun(ctx, Run{ID: "r", StartedAt: now, FinishedAt: now, FileCount: 2}, nil))

	runs, err := store.RecentRuns(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].FileCount)
	assert.Empty(t, runs[0].KindCounts)

	files, err := store.RunFiles(ctx, "r")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestStore_SaveRunRequiresID(t *testing.T) {
	store := openTestStore(t)
	assert.Error(t, store.SaveRun(context.Background(), Run{}, nil))
}

func TestStore_OpenRejectsDirectoryPath(t *testing.T) {
	_, err := Open(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestStore_OpenCorruptDBPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not sqlite"), 0o644))

	_, err := Open(path)
	require.Error(t, err)
}

func TestEnsureSchema_DetectsNewerVersionDrift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.db.Exec(`INSERT OR REPLACE INTO schema_migrations(version) VALUES (?)`, SchemaVersion+1)
	require.NoError(t, err)

	db, err := sql.Open(driverName, "file:"+path)
	require.NoError(t, err)
	defer db.Close()

	err = EnsureSchema(db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestBuildTrends(t *testing.T) {
	runs := []Run{
		{ID: "c", FailedCount: 1, ViolationCount: 3},
		{ID: "b", FailedCount: 4, ViolationCount: 9},
		{ID: "a", FailedCount: 2, ViolationCount: 2},
	}
	trends := BuildTrends(runs)
	require.Len(t, trends, 3)
	assert.Equal(t, -3, trends[0].DeltaFailed)
	assert.Equal(t, -6, trends[0].DeltaViolation)
	assert.Equal(t, 2, trends[1].DeltaFailed)
	assert.Equal(t, 0, trends[2].DeltaFailed)
}

func TestIsCorruptError(t *testing.T) {
	assert.True(t, IsCorruptError(errors.New("database disk image is malformed")))
	assert.False(t, IsCorruptError(nil))
}
