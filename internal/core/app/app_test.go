package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pyward/internal/core/config"
	"pyward/internal/engine/rules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, cfg *config.Config, families rules.Families) *App {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	a, err := New(cfg, Options{
		Command:  "scan",
		Families: families,
		Policy:   rules.NewPolicyConfig([]string{"os"}, []string{"requests", "os"}, nil),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestApp_Scan(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"clean.py":  "import os\n",
		"bad.py":    "import requests\neval('1')\n",
		"broken.py": "def f(:\n",
	})
	a := newTestApp(t, nil, rules.AllFamilies)

	result, err := a.Scan(context.Background(), []string{root})
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "scan", result.Command)
	assert.False(t, result.Partial)
	assert.True(t, result.Failed())
	require.Len(t, result.Reports, 3)

	byPath := map[string]rules.FileReport{}
	for _, r := range result.Reports {
		byPath[r.RelPath] = r
	}
	assert.Equal(t, rules.StatusClean, byPath["clean.py"].Status())
	assert.Equal(t, rules.StatusDisallowedCall, byPath["bad.py"].Status())
	assert.Equal(t, rules.StatusParseError, byPath["broken.py"].Status())

	summary := result.Summary()
	assert.Equal(t, 3, summary.Files)
	assert.Equal(t, 2, summary.Failed)
}

func TestApp_ScanMissingRoot(t *testing.T) {
	a := newTestApp(t, nil, rules.AllFamilies)
	_, err := a.Scan(context.Background(), []string{filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
}

func TestApp_ScanMultipleRoots(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, map[string]string{
		"one/a.py": "",
		"two/a.py": "",
	})
	one := filepath.Join(base, "one")
	two := filepath.Join(base, "two")
	a := newTestApp(t, nil, rules.AllFamilies)

	result, err := a.Scan(context.Background(), []string{one, two, one})
	require.NoError(t, err)
	require.Len(t, result.Reports, 2)
	assert.NotEqual(t, result.Reports[0].RelPath, result.Reports[1].RelPath)
	assert.Equal(t, filepath.ToSlash(filepath.Join(one, "a.py")), result.Reports[0].RelPath)
}

func TestApp_RecordHistory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"bad.py": "import requests\n"})

	cfg := config.DefaultConfig()
	cfg.History.Enabled = true
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")
	a := newTestApp(t, cfg, rules.AllFamilies)

	result, err := a.Scan(context.Background(), []string{root})
	require.NoError(t, err)
	require.NoError(t, a.Record(context.Background(), result))

	runs, err := a.History().RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, result.RunID, runs[0].ID)
	assert.Equal(t, 1, runs[0].FailedCount)
	assert.Equal(t, 1, runs[0].KindCounts[string(rules.KindProhibitedImport)])

	files, err := a.History().RunFiles(context.Background(), result.RunID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "bad.py", files[0].Path)
	assert.Equal(t, "prohibited-import", files[0].Status)
}

func TestApp_RecordWithoutHistory(t *testing.T) {
	a := newTestApp(t, nil, rules.AllFamilies)
	assert.Nil(t, a.History())
	require.NoError(t, a.Record(context.Background(), &ScanResult{RunID: "x"}))
}

func TestApp_WriteOutputs(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"bad.py": "import requests\nx = 1;\n"})
	out := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Output.Log = filepath.Join(out, "logs", "pyward.log")
	cfg.Output.SARIF = filepath.Join(out, "pyward.sarif")
	cfg.Output.JSON = filepath.Join(out, "pyward.json")
	a := newTestApp(t, cfg, rules.AllFamilies)

	result, err := a.Scan(context.Background(), []string{root})
	require.NoError(t, err)
	paths, err := a.WriteOutputs(result)
	require.NoError(t, err)
	assert.Equal(t, cfg.Output.Log, paths.Log)

	logData, err := os.ReadFile(paths.Log)
	require.NoError(t, err)
	assert.Contains(t, string(logData), "[FAIL]")
	assert.Contains(t, string(logData), "File checked:")
	assert.Contains(t, string(logData), "Semicolons detected")

	sarifData, err := os.ReadFile(paths.SARIF)
	require.NoError(t, err)
	assert.True(t, json.Valid(sarifData))

	jsonData, err := os.ReadFile(paths.JSON)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(jsonData, &doc))
	assert.Equal(t, result.RunID, doc["run_id"])
}

func TestApp_RenderLogFamilies(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.py": "x = 1;\n"})

	a := newTestApp(t, nil, rules.Families{Semantic: true})
	result, err := a.Scan(context.Background(), []string{root})
	require.NoError(t, err)
	log := a.RenderLog(result)
	assert.Contains(t, log, "[=OK=]")
	assert.NotContains(t, log, "File checked:")

	a = newTestApp(t, nil, rules.Families{Style: true})
	result, err = a.Scan(context.Background(), []string{root})
	require.NoError(t, err)
	log = a.RenderLog(result)
	assert.NotContains(t, log, "[=OK=]")
	assert.Contains(t, log, "File checked:")
}

func TestApp_Watch(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.py": "import os\n"})

	cfg := config.DefaultConfig()
	cfg.Watch.Debounce = 50 * time.Millisecond
	a := newTestApp(t, cfg, rules.AllFamilies)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	results := make(chan *ScanResult, 8)
	done := make(chan error, 1)
	go func() {
		done <- a.Watch(ctx, []string{root}, func(r *ScanResult) { results <- r })
	}()

	waitResult := func() *ScanResult {
		select {
		case r := <-results:
			return r
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for scan result")
			return nil
		}
	}

	initial := waitResult()
	require.Len(t, initial.Reports, 1)
	assert.False(t, initial.Failed())

	// Give the watcher time to register the root before writing.
	time.Sleep(200 * time.Millisecond)
	writeTree(t, root, map[string]string{"b.py": "import requests\n"})

	var next *ScanResult
	deadline := time.After(5 * time.Second)
	for next == nil || len(next.Reports) < 2 {
		select {
		case next = <-results:
		case <-deadline:
			t.Fatal("timed out waiting for rescan")
		}
	}
	assert.NotEqual(t, initial.RunID, next.RunID)
	assert.Equal(t, "a.py", next.Reports[0].RelPath)
	assert.Equal(t, "b.py", next.Reports[1].RelPath)
	assert.True(t, next.Failed())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
