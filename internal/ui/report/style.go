package report

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"pyward/internal/engine/rules"
	"pyward/internal/shared/util"
)

// StyleLogName is the file written into the style command's output directory.
const StyleLogName = "pep8_check_log.txt"

type styleText struct {
	fail string
	pass string
}

func styleTexts(cfg rules.StyleConfig) map[rules.RuleID]styleText {
	return map[rules.RuleID]styleText{
		rules.RuleLineLength:     {"Long lines", "Long lines check passed"},
		rules.RuleIndentation:    {"Inconsistent indentation", "Indentation check passed"},
		rules.RuleCommaSpacing:   {"Missing space after commas", "Comma spacing check passed"},
		rules.RuleWildcardImport: {"Use of 'import *' detected", "'import *' check passed"},
		rules.RuleNaming:         {"Naming convention issues", "Naming conventions check passed"},
		rules.RuleSemicolon:      {"Semicolons detected", "Semicolon check passed"},
		rules.RuleFileLength:     {fmt.Sprintf("File too long (>%d lines)", cfg.MaxFileLines), "File length check passed"},
	}
}

// StyleLine is one rendered style check result.
type StyleLine struct {
	Failed bool
	Text   string
}

func (l StyleLine) String() string {
	if l.Failed {
		return TagFail + " - " + l.Text
	}
	return TagOK + " - " + l.Text
}

// StyleLines renders the seven check results of one file in report order.
// Files that were not style-checked yield a single failure line.
func StyleLines(r rules.FileReport, cfg rules.StyleConfig) []StyleLine {
	if r.ReadError != nil {
		return []StyleLine{{Failed: true, Text: "Could not read file: " + r.ReadError.Error()}}
	}
	if r.Semantic.ParseError != nil {
		return []StyleLine{{Failed: true, Text: "Syntax error in file"}}
	}

	texts := styleTexts(cfg)
	out := make([]StyleLine, 0, len(r.Style))
	for _, c := range r.Style {
		t := texts[c.Rule]
		if !c.Violated {
			out = append(out, StyleLine{Text: t.pass})
			continue
		}
		out = append(out, StyleLine{Failed: true, Text: t.fail + ": " + evidence(c)})
	}
	return out
}

// StyleBlock renders one file's block, terminated by a blank line.
func StyleBlock(r rules.FileReport, cfg rules.StyleConfig) string {
	var b strings.Builder
	b.WriteString("File checked: ")
	b.WriteString(checkedPath(r))
	b.WriteString("\n")
	for _, l := range StyleLines(r, cfg) {
		b.WriteString(l.String())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// checkedPath is the absolute form of the file path, as the style header
// names it.
func checkedPath(r rules.FileReport) string {
	if abs, err := filepath.Abs(r.Path); err == nil {
		return abs
	}
	return r.Path
}

func StyleLog(reports []rules.FileReport, cfg rules.StyleConfig) string {
	var b strings.Builder
	for _, r := range reports {
		b.WriteString(StyleBlock(r, cfg))
	}
	return b.String()
}

// WriteStyleLog writes the style log into dir and returns the file path.
func WriteStyleLog(dir string, reports []rules.FileReport, cfg rules.StyleConfig) (string, error) {
	path := filepath.Join(dir, StyleLogName)
	return path, util.WriteStringWithDirs(path, StyleLog(reports, cfg), 0o644)
}

func evidence(c rules.CheckResult) string {
	switch c.Rule {
	case rules.RuleFileLength:
		return strconv.Itoa(c.Count)
	case rules.RuleWildcardImport:
		return quotedList(c.Evidence)
	default:
		return intList(c.Lines)
	}
}

// intList formats [1, 2, 3].
func intList(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// quotedList formats ['from a import *', 'b'].
func quotedList(values []string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		v = strings.ReplaceAll(v, `\`, `\\`)
		v = strings.ReplaceAll(v, `'`, `\'`)
		parts[i] = "'" + v + "'"
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
