package rules

// FileReport is the complete verdict for one file. It is built once by
// Aggregate (or ReadFailure) and not modified afterwards.
type FileReport struct {
	Path      string
	RelPath   string
	ReadError error

	// Semantic and Style record which families ran.
	SemanticRan bool
	StyleRan    bool

	Semantic SemanticResult
	Style    []CheckResult

	violations []Violation
}

// Aggregate merges both engines' output. Violations are ordered: parse
// status, disallowed calls, prohibited imports, then the style checks in
// StyleRuleIDs order. A parse failure is terminal and drops style results.
func Aggregate(path, relPath string, semantic *SemanticResult, style []CheckResult) FileReport {
	r := FileReport{Path: path, RelPath: relPath}
	if semantic != nil {
		r.SemanticRan = true
		r.Semantic = *semantic
	}
	if style != nil && r.Semantic.ParseError == nil {
		r.StyleRan = true
		r.Style = orderChecks(style)
	}

	r.violations = append(r.violations, r.Semantic.Violations()...)
	for _, check := range r.Style {
		if v, ok := check.Violation(); ok {
			r.violations = append(r.violations, v)
		}
	}
	return r
}

// ReadFailure records a file that could not be read.
func ReadFailure(path, relPath string, err error) FileReport {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return FileReport{
		Path:      path,
		RelPath:   relPath,
		ReadError: err,
		violations: []Violation{{
			Kind:     KindReadError,
			Evidence: []string{msg},
		}},
	}
}

func orderChecks(style []CheckResult) []CheckResult {
	byRule := make(map[RuleID]CheckResult, len(style))
	for _, c := range style {
		byRule[c.Rule] = c
	}
	out := make([]CheckResult, 0, len(style))
	for _, id := range StyleRuleIDs {
		if c, ok := byRule[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

func (r FileReport) Violations() []Violation {
	return append([]Violation(nil), r.violations...)
}

// Status is the highest-precedence status across all violations.
func (r FileReport) Status() Status {
	status := StatusClean
	for _, v := range r.violations {
		if s := statusForKind(v.Kind); s > status {
			status = s
		}
	}
	return status
}

// SemanticStatus ignores style results; read failures still count.
func (r FileReport) SemanticStatus() Status {
	if r.ReadError != nil {
		return StatusReadError
	}
	return r.Semantic.Status()
}

// StyleStatus ignores semantic results.
func (r FileReport) StyleStatus() Status {
	if r.ReadError != nil {
		return StatusReadError
	}
	for _, c := range r.Style {
		if c.Violated {
			return StatusStyleViolation
		}
	}
	return StatusClean
}

// Check returns the result of one style check, if the style family ran.
func (r FileReport) Check(id RuleID) (CheckResult, bool) {
	for _, c := range r.Style {
		if c.Rule == id {
			return c, true
		}
	}
	return CheckResult{}, false
}
