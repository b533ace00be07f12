package rules

import (
	"sort"
	"strings"

	"pyward/internal/engine/parser"
)

// SemanticResult is the outcome of the semantic rule engine for one file.
// When ParseError is set the other lists are empty.
type SemanticResult struct {
	ParseError        *parser.ParseError
	DisallowedCalls   []Violation
	ProhibitedImports []Violation
}

// EvaluateSemantic applies the import policy and the disallowed-call set to
// the extracted structure of one file. It is pure: the same input always
// yields the same, sorted, de-duplicated output.
func EvaluateSemantic(file *parser.File, policy PolicyConfig) SemanticResult {
	if file == nil {
		return SemanticResult{}
	}
	if file.ParseError != nil {
		return SemanticResult{ParseError: file.ParseError}
	}

	imports := make([]nameLine, 0, len(file.Imports))
	for _, ref := range file.Imports {
		// Allowed wins outright; the prohibited list is not consulted.
		if policy.IsAllowed(ref.Name) {
			continue
		}
		if policy.IsProhibited(ref.Name) {
			imports = append(imports, nameLine{name: topLevel(ref.Name), line: ref.Line})
		}
	}

	calls := make([]nameLine, 0, len(file.Calls))
	for _, call := range file.Calls {
		if policy.IsDisallowedCall(call.Name) {
			calls = append(calls, nameLine{name: call.Name, line: call.Line})
		}
	}

	return SemanticResult{
		DisallowedCalls:   toViolations(KindDisallowedCall, calls),
		ProhibitedImports: toViolations(KindProhibitedImport, imports),
	}
}

func (r SemanticResult) Violations() []Violation {
	if r.ParseError != nil {
		v := Violation{Kind: KindParseError, Evidence: []string{r.ParseError.Error()}}
		if r.ParseError.Line > 0 {
			v.Lines = []int{r.ParseError.Line}
		}
		return []Violation{v}
	}
	out := make([]Violation, 0, len(r.DisallowedCalls)+len(r.ProhibitedImports))
	out = append(out, r.DisallowedCalls...)
	out = append(out, r.ProhibitedImports...)
	return out
}

func (r SemanticResult) Status() Status {
	switch {
	case r.ParseError != nil:
		return StatusParseError
	case len(r.DisallowedCalls) > 0:
		return StatusDisallowedCall
	case len(r.ProhibitedImports) > 0:
		return StatusProhibitedImport
	default:
		return StatusClean
	}
}

type nameLine struct {
	name string
	line int
}

func toViolations(kind Kind, items []nameLine) []Violation {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[nameLine]bool, len(items))
	unique := make([]nameLine, 0, len(items))
	for _, it := range items {
		if seen[it] {
			continue
		}
		seen[it] = true
		unique = append(unique, it)
	}
	sort.Slice(unique, func(i, j int) bool {
		if unique[i].name != unique[j].name {
			return unique[i].name < unique[j].name
		}
		return unique[i].line < unique[j].line
	})

	out := make([]Violation, 0, len(unique))
	for _, it := range unique {
		out = append(out, Violation{Kind: kind, Name: it.name, Lines: []int{it.line}})
	}
	return out
}

func topLevel(name string) string {
	if idx := strings.IndexByte(name, '.'); idx >= 0 {
		return name[:idx]
	}
	return name
}
