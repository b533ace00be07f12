package report

import (
	"fmt"
	"strings"

	"pyward/internal/engine/rules"
	"pyward/internal/shared/util"
)

// Summary aggregates a scan for the closing console line and history rows.
type Summary struct {
	Files      int
	Failed     int
	Violations int
	ByKind     map[rules.Kind]int
	ByStatus   map[rules.Status]int
	Partial    bool
}

// Summarize counts violations. A violation spanning several lines counts
// once per line, matching how the logs and SARIF list them.
func Summarize(reports []rules.FileReport, partial bool) Summary {
	s := Summary{
		Files:    len(reports),
		ByKind:   make(map[rules.Kind]int),
		ByStatus: make(map[rules.Status]int),
		Partial:  partial,
	}
	for _, r := range reports {
		status := r.Status()
		s.ByStatus[status]++
		if status.Failed() {
			s.Failed++
		}
		for _, v := range r.Violations() {
			n := len(v.Lines)
			if n == 0 {
				n = 1
			}
			s.ByKind[v.Kind] += n
			s.Violations += n
		}
	}
	return s
}

// KindCounts returns ByKind keyed by string, for persistence.
func (s Summary) KindCounts() map[string]int {
	out := make(map[string]int, len(s.ByKind))
	for k, v := range s.ByKind {
		out[string(k)] = v
	}
	return out
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d files scanned, %d failing, %d violations", s.Files, s.Failed, s.Violations)
	if counts := s.KindCounts(); len(counts) > 0 {
		parts := make([]string, 0, len(counts))
		for _, k := range util.SortedStringKeys(counts) {
			parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
		}
		b.WriteString(" (" + strings.Join(parts, ", ") + ")")
	}
	if s.Partial {
		b.WriteString(" [interrupted: partial results]")
	}
	return b.String()
}
