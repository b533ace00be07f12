// # internal/engine/parser/types.go
package parser

import (
	"fmt"
	"time"
)

// File is the structural view of one Python source file: the import
// declarations and disallowed call sites found in its syntax tree.
type File struct {
	Path       string
	Imports    []ModuleReference
	Calls      []CallSite
	ParseError *ParseError // Set when the source could not be parsed; Imports and Calls are then empty
	ParsedAt   time.Time
}

// ModuleReference is one imported module or imported symbol.
type ModuleReference struct {
	Name  string // Dotted name used for policy matching ("a.b.c" or "module.symbol")
	Alias string // Local binding from "as", if any
	Line  int    // Line of the import statement
}

// CallSite is a direct call to a disallowed operation.
type CallSite struct {
	Name string
	Line int
}

// ParseError describes why a file could not be turned into a syntax tree.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if e.Line > 0 {
		return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return "syntax error: " + e.Message
}

func (f *File) Failed() bool {
	return f != nil && f.ParseError != nil
}

// DefaultDisallowedCalls are the dynamic code execution built-ins that are
// always flagged when called directly.
var DefaultDisallowedCalls = []string{"eval", "exec"}
