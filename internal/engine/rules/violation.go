package rules

import (
	"strings"
)

// Kind tags a Violation. Style kinds are "style:<rule-id>".
type Kind string

const (
	KindReadError        Kind = "read-error"
	KindParseError       Kind = "parse-error"
	KindDisallowedCall   Kind = "disallowed-call"
	KindProhibitedImport Kind = "prohibited-import"

	stylePrefix = "style:"
)

// RuleID names one lexical style check.
type RuleID string

const (
	RuleLineLength     RuleID = "line-length"
	RuleIndentation    RuleID = "indentation"
	RuleCommaSpacing   RuleID = "comma-spacing"
	RuleWildcardImport RuleID = "wildcard-import"
	RuleNaming         RuleID = "naming"
	RuleSemicolon      RuleID = "semicolon"
	RuleFileLength     RuleID = "file-length"
)

// StyleRuleIDs lists the lexical checks in evaluation and report order.
var StyleRuleIDs = []RuleID{
	RuleLineLength,
	RuleIndentation,
	RuleCommaSpacing,
	RuleWildcardImport,
	RuleNaming,
	RuleSemicolon,
	RuleFileLength,
}

func StyleKind(id RuleID) Kind {
	return Kind(stylePrefix + string(id))
}

func (k Kind) IsStyle() bool {
	return strings.HasPrefix(string(k), stylePrefix)
}

// Rule returns the style rule id for style kinds, or "" otherwise.
func (k Kind) Rule() RuleID {
	if !k.IsStyle() {
		return ""
	}
	return RuleID(strings.TrimPrefix(string(k), stylePrefix))
}

// Violation is one discrete infraction. Which payload fields are set depends
// on Kind:
//
//	parse-error / read-error: Lines holds the failure line when known, Evidence the message
//	prohibited-import:        Name is the top-level module, Lines one import line
//	disallowed-call:          Name is the called built-in, Lines one call line
//	style:wildcard-import:    Evidence holds the offending line contents
//	style:file-length:        Count holds the total line count
//	other style kinds:        Lines holds every offending line
type Violation struct {
	Kind     Kind
	Name     string
	Lines    []int
	Evidence []string
	Count    int
}

// Status is the overall verdict for a file, ordered by precedence.
type Status int

const (
	StatusClean Status = iota
	StatusStyleViolation
	StatusProhibitedImport
	StatusDisallowedCall
	StatusParseError
	StatusReadError
)

func (s Status) String() string {
	switch s {
	case StatusClean:
		return "clean"
	case StatusStyleViolation:
		return "style-violation"
	case StatusProhibitedImport:
		return "prohibited-import"
	case StatusDisallowedCall:
		return "disallowed-call"
	case StatusParseError:
		return "parse-error"
	case StatusReadError:
		return "read-error"
	default:
		return "unknown"
	}
}

func (s Status) Failed() bool {
	return s != StatusClean
}

func statusForKind(k Kind) Status {
	switch k {
	case KindReadError:
		return StatusReadError
	case KindParseError:
		return StatusParseError
	case KindDisallowedCall:
		return StatusDisallowedCall
	case KindProhibitedImport:
		return StatusProhibitedImport
	}
	if k.IsStyle() {
		return StatusStyleViolation
	}
	return StatusClean
}

// RuleInfo describes a violation kind for reports and SARIF rule tables.
type RuleInfo struct {
	Kind    Kind
	Title   string
	Summary string
	Level   string // SARIF level: error, warning or note
}

// Catalogue lists every kind in report order.
func Catalogue() []RuleInfo {
	out := []RuleInfo{
		{Kind: KindReadError, Title: "Unreadable file", Summary: "The file could not be read.", Level: "error"},
		{Kind: KindParseError, Title: "Syntax error", Summary: "The file is not valid Python and could not be parsed.", Level: "error"},
		{Kind: KindDisallowedCall, Title: "Prohibited built-in", Summary: "Direct call to a dynamic code execution built-in.", Level: "error"},
		{Kind: KindProhibitedImport, Title: "Prohibited module", Summary: "Import of a module on the prohibited list.", Level: "error"},
	}
	for _, check := range styleChecks {
		out = append(out, RuleInfo{
			Kind:    StyleKind(check.id),
			Title:   check.title,
			Summary: check.summary,
			Level:   "warning",
		})
	}
	return out
}
