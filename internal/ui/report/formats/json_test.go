package formats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateJSON(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	data, err := GenerateJSON(JSONMeta{
		RunID:      "run-1",
		Command:    "scan",
		StartedAt:  start,
		FinishedAt: start.Add(time.Second),
		Partial:    true,
	}, sampleReports())
	require.NoError(t, err)

	var doc jsonReport
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "pyward", doc.Tool)
	assert.Equal(t, "run-1", doc.RunID)
	assert.True(t, doc.Partial)
	require.Len(t, doc.Files, 3)

	assert.Equal(t, "pkg/a.py", doc.Files[0].Path)
	assert.Equal(t, "disallowed-call", doc.Files[0].Status)
	require.Len(t, doc.Files[0].Violations, 4)
	assert.Equal(t, "eval", doc.Files[0].Violations[0].Name)
	assert.Equal(t, 512, doc.Files[0].Violations[3].Count)

	assert.Equal(t, "parse-error", doc.Files[1].Status)
	assert.Equal(t, "clean", doc.Files[2].Status)
	assert.Empty(t, doc.Files[2].Violations)

	assert.Equal(t, map[string]int{
		"disallowed-call":   1,
		"prohibited-import": 1,
		"style:semicolon":   1,
		"style:file-length": 1,
		"parse-error":       1,
	}, doc.Totals)
}
