package formats

import (
	"encoding/json"
	"time"

	"pyward/internal/engine/rules"
	"pyward/internal/shared/version"
)

// JSONMeta describes the run a JSON report belongs to.
type JSONMeta struct {
	RunID      string
	Command    string
	StartedAt  time.Time
	FinishedAt time.Time
	Partial    bool
}

type jsonReport struct {
	Tool       string         `json:"tool"`
	Version    string         `json:"version"`
	RunID      string         `json:"run_id,omitempty"`
	Command    string         `json:"command,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Partial    bool           `json:"partial"`
	Files      []jsonFile     `json:"files"`
	Totals     map[string]int `json:"totals"`
}

type jsonFile struct {
	Path       string          `json:"path"`
	Status     string          `json:"status"`
	Violations []jsonViolation `json:"violations"`
}

type jsonViolation struct {
	Kind     string   `json:"kind"`
	Rule     string   `json:"rule"`
	Name     string   `json:"name,omitempty"`
	Lines    []int    `json:"lines,omitempty"`
	Evidence []string `json:"evidence,omitempty"`
	Count    int      `json:"count,omitempty"`
}

// GenerateJSON renders reports, in order, as a machine-readable document.
func GenerateJSON(meta JSONMeta, reports []rules.FileReport) ([]byte, error) {
	doc := jsonReport{
		Tool:       "pyward",
		Version:    version.Version,
		RunID:      meta.RunID,
		Command:    meta.Command,
		StartedAt:  meta.StartedAt.UTC(),
		FinishedAt: meta.FinishedAt.UTC(),
		Partial:    meta.Partial,
		Files:      make([]jsonFile, 0, len(reports)),
		Totals:     make(map[string]int),
	}
	for _, r := range reports {
		f := jsonFile{
			Path:       relativeURI(r.RelPath, r.Path),
			Status:     r.Status().String(),
			Violations: make([]jsonViolation, 0),
		}
		for _, v := range r.Violations() {
			f.Violations = append(f.Violations, jsonViolation{
				Kind:     string(v.Kind),
				Rule:     RuleCode(v.Kind),
				Name:     v.Name,
				Lines:    v.Lines,
				Evidence: v.Evidence,
				Count:    v.Count,
			})
			doc.Totals[string(v.Kind)]++
		}
		doc.Files = append(doc.Files, f)
	}
	return json.MarshalIndent(doc, "", "  ")
}
