package rules

import (
	"bytes"
	"regexp"
	"strings"
	"unicode/utf8"
)

// StyleConfig holds the thresholds used by the lexical checks.
type StyleConfig struct {
	MaxLineLength int
	MaxFileLines  int
	IndentWidth   int
}

func DefaultStyleConfig() StyleConfig {
	return StyleConfig{
		MaxLineLength: 100,
		MaxFileLines:  400,
		IndentWidth:   4,
	}
}

func (c StyleConfig) withDefaults() StyleConfig {
	def := DefaultStyleConfig()
	if c.MaxLineLength <= 0 {
		c.MaxLineLength = def.MaxLineLength
	}
	if c.MaxFileLines <= 0 {
		c.MaxFileLines = def.MaxFileLines
	}
	if c.IndentWidth <= 0 {
		c.IndentWidth = def.IndentWidth
	}
	return c
}

// CheckResult is the outcome of one lexical predicate. Lines and Evidence may
// be populated even when Violated is false (a single tolerated long line).
type CheckResult struct {
	Rule     RuleID
	Violated bool
	Lines    []int
	Evidence []string
	Count    int
}

// Violation converts a failing check into a Violation.
func (r CheckResult) Violation() (Violation, bool) {
	if !r.Violated {
		return Violation{}, false
	}
	return Violation{
		Kind:     StyleKind(r.Rule),
		Lines:    append([]int(nil), r.Lines...),
		Evidence: append([]string(nil), r.Evidence...),
		Count:    r.Count,
	}, true
}

type styleCheck struct {
	id      RuleID
	title   string
	summary string
	eval    func(lines []string, cfg StyleConfig) CheckResult
}

var styleChecks = []styleCheck{
	{RuleLineLength, "Long lines", "More than one line exceeds the maximum line length.", CheckLineLength},
	{RuleIndentation, "Inconsistent indentation", "Indentation is not a multiple of the indent width or contains tabs.", CheckIndentation},
	{RuleCommaSpacing, "Missing space after comma", "A comma is followed by something other than a space or end of line.", CheckCommaSpacing},
	{RuleWildcardImport, "Wildcard import", "Use of 'import *'.", CheckWildcardImport},
	{RuleNaming, "Naming convention", "Variables and functions must be snake_case, classes CamelCase.", CheckNaming},
	{RuleSemicolon, "Semicolon", "Semicolons outside comments.", CheckSemicolons},
	{RuleFileLength, "File too long", "The file exceeds the maximum number of lines.", CheckFileLength},
}

// LexicalEngine runs every style check over raw file text. Checks are
// independent; all of them always run.
type LexicalEngine struct {
	cfg StyleConfig
}

func NewLexicalEngine(cfg StyleConfig) *LexicalEngine {
	return &LexicalEngine{cfg: cfg.withDefaults()}
}

func (e *LexicalEngine) Config() StyleConfig {
	return e.cfg
}

// Evaluate returns one result per check in StyleRuleIDs order.
func (e *LexicalEngine) Evaluate(content []byte) []CheckResult {
	lines := SplitLines(content)
	out := make([]CheckResult, 0, len(styleChecks))
	for _, check := range styleChecks {
		res := check.eval(lines, e.cfg)
		res.Rule = check.id
		out = append(out, res)
	}
	return out
}

// SplitLines splits text into lines without terminators. "\r\n" counts as one
// terminator and a trailing newline does not open an extra empty line.
func SplitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	raw := bytes.Split(content, []byte("\n"))
	if len(raw[len(raw)-1]) == 0 {
		raw = raw[:len(raw)-1]
	}
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = string(bytes.TrimSuffix(l, []byte("\r")))
	}
	return lines
}

// stripComment drops everything from the first '#'. String literals are not
// understood; a '#' inside quotes also starts the "comment".
func stripComment(line string) string {
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		return line[:idx]
	}
	return line
}

// CheckLineLength flags lines longer than the limit, but only once a file
// has two or more of them.
func CheckLineLength(lines []string, cfg StyleConfig) CheckResult {
	res := CheckResult{Rule: RuleLineLength}
	for i, line := range lines {
		if utf8.RuneCountInString(line) > cfg.MaxLineLength {
			res.Lines = append(res.Lines, i+1)
		}
	}
	res.Violated = len(res.Lines) > 1
	return res
}

func CheckIndentation(lines []string, cfg StyleConfig) CheckResult {
	res := CheckResult{Rule: RuleIndentation}
	for i, line := range lines {
		stripped := strings.TrimLeft(line, " \t\f\v")
		if stripped == "" || strings.HasPrefix(stripped, "#") {
			continue
		}
		indent := line[:len(line)-len(stripped)]
		if indent == "" {
			continue
		}
		if len(indent)%cfg.IndentWidth != 0 || strings.Contains(indent, "\t") {
			res.Lines = append(res.Lines, i+1)
		}
	}
	res.Violated = len(res.Lines) > 0
	return res
}

func CheckCommaSpacing(lines []string, _ StyleConfig) CheckResult {
	res := CheckResult{Rule: RuleCommaSpacing}
	for i, line := range lines {
		code := stripComment(line)
		for j := 0; j < len(code); j++ {
			if code[j] == ',' && j+1 < len(code) && code[j+1] != ' ' {
				res.Lines = append(res.Lines, i+1)
				break
			}
		}
	}
	res.Violated = len(res.Lines) > 0
	return res
}

// CheckWildcardImport matches the whole line, comments included, and reports
// the offending line contents as evidence.
func CheckWildcardImport(lines []string, _ StyleConfig) CheckResult {
	res := CheckResult{Rule: RuleWildcardImport}
	for i, line := range lines {
		if strings.Contains(line, "import *") {
			res.Lines = append(res.Lines, i+1)
			res.Evidence = append(res.Evidence, line)
		}
	}
	res.Violated = len(res.Evidence) > 0
	return res
}

var (
	identifierToken = regexp.MustCompile(`\b[a-z_][A-Za-z0-9_]*\b`)
	snakeCase       = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
	classDecl       = regexp.MustCompile(`\bclass\s+([A-Za-z0-9_]+)\b`)
	camelCase       = regexp.MustCompile(`^[A-Z][a-zA-Z0-9]*$`)
)

func CheckNaming(lines []string, _ StyleConfig) CheckResult {
	res := CheckResult{Rule: RuleNaming}
	for i, line := range lines {
		code := stripComment(line)
		flagged := false
		for _, word := range identifierToken.FindAllString(code, -1) {
			if !snakeCase.MatchString(word) && word != strings.ToLower(word) {
				flagged = true
				break
			}
		}
		if !flagged {
			if m := classDecl.FindStringSubmatch(code); m != nil && !camelCase.MatchString(m[1]) {
				flagged = true
			}
		}
		if flagged {
			res.Lines = append(res.Lines, i+1)
		}
	}
	res.Violated = len(res.Lines) > 0
	return res
}

func CheckSemicolons(lines []string, _ StyleConfig) CheckResult {
	res := CheckResult{Rule: RuleSemicolon}
	for i, line := range lines {
		if strings.Contains(stripComment(line), ";") {
			res.Lines = append(res.Lines, i+1)
		}
	}
	res.Violated = len(res.Lines) > 0
	return res
}

func CheckFileLength(lines []string, cfg StyleConfig) CheckResult {
	return CheckResult{
		Rule:     RuleFileLength,
		Count:    len(lines),
		Violated: len(lines) > cfg.MaxFileLines,
	}
}
