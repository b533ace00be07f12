package history

import (
	"time"
)

const SchemaVersion = 2

// Run is one persisted scan.
type Run struct {
	ID             string
	Command        string
	Roots          []string
	StartedAt      time.Time
	FinishedAt     time.Time
	FileCount      int
	FailedCount    int
	ViolationCount int
	Partial        bool
	// KindCounts maps violation kind to the number of violations of that kind.
	KindCounts map[string]int
}

// FileResult is the per-file outcome stored alongside a Run.
type FileResult struct {
	Path           string
	Status         string
	ViolationCount int
}

// Trend compares a run against the run that preceded it.
type Trend struct {
	Run            Run
	DeltaFailed    int
	DeltaViolation int
}

// BuildTrends pairs each run with the one before it. Runs must be ordered
// newest first, as RecentRuns returns them; the oldest run has zero deltas.
func BuildTrends(runs []Run) []Trend {
	out := make([]Trend, len(runs))
	for i, r := range runs {
		out[i].Run = r
		if i+1 < len(runs) {
			prev := runs[i+1]
			out[i].DeltaFailed = r.FailedCount - prev.FailedCount
			out[i].DeltaViolation = r.ViolationCount - prev.ViolationCount
		}
	}
	return out
}
