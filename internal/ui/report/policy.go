package report

import (
	"fmt"
	"strings"

	"pyward/internal/engine/rules"
	"pyward/internal/shared/util"
)

// Policy log tags.
const (
	TagOK    = "[=OK=]"
	TagFail  = "[FAIL]"
	TagDeath = "[FAIL ☠️]"
)

// PolicyEntry is one rendered policy log line before styling.
type PolicyEntry struct {
	Tag    string
	Path   string
	Text   string
	Detail string
}

func (e PolicyEntry) String() string {
	return fmt.Sprintf("%s %s: %s%s", e.Tag, e.Path, e.Text, e.Detail)
}

// PolicyEntries renders the semantic verdict of one file: one entry per
// violation category present, or a single OK entry.
func PolicyEntries(r rules.FileReport) []PolicyEntry {
	path := displayPath(r)
	if r.ReadError != nil {
		return []PolicyEntry{{Tag: TagFail, Path: path, Text: "Could not read file: ", Detail: r.ReadError.Error()}}
	}
	if r.Semantic.ParseError != nil {
		return []PolicyEntry{{Tag: TagFail, Path: path, Text: "Syntax error in file"}}
	}

	var out []PolicyEntry
	if len(r.Semantic.DisallowedCalls) > 0 {
		out = append(out, PolicyEntry{
			Tag:    TagDeath,
			Path:   path,
			Text:   "Uses prohibited built-ins: ",
			Detail: nameLines(r.Semantic.DisallowedCalls),
		})
	}
	if len(r.Semantic.ProhibitedImports) > 0 {
		out = append(out, PolicyEntry{
			Tag:    TagFail,
			Path:   path,
			Text:   "Imported prohibited modules: ",
			Detail: nameLines(r.Semantic.ProhibitedImports),
		})
	}
	if len(out) == 0 {
		out = append(out, PolicyEntry{Tag: TagOK, Path: path, Text: "All Good"})
	}
	return out
}

// PolicyLog renders the whole policy log. Lines are joined with "\n" and the
// log has no trailing newline.
func PolicyLog(reports []rules.FileReport) string {
	var lines []string
	for _, r := range reports {
		for _, e := range PolicyEntries(r) {
			lines = append(lines, e.String())
		}
	}
	return strings.Join(lines, "\n")
}

func WritePolicyLog(path string, reports []rules.FileReport) error {
	return util.WriteStringWithDirs(path, PolicyLog(reports), 0o644)
}

// nameLines formats "eval (line 1), exec (line 4)".
func nameLines(vs []rules.Violation) string {
	items := make([]string, 0, len(vs))
	for _, v := range vs {
		for _, line := range v.Lines {
			items = append(items, fmt.Sprintf("%s (line %d)", v.Name, line))
		}
	}
	return strings.Join(items, ", ")
}

func displayPath(r rules.FileReport) string {
	if r.RelPath != "" {
		return r.RelPath
	}
	return r.Path
}
