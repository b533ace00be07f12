package parser

import (
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type PythonExtractor struct{}

func (e *PythonExtractor) Extract(root *sitter.Node, source []byte, filePath string, disallowed map[string]bool) *File {
	file := &File{
		Path:     filePath,
		ParsedAt: time.Now(),
	}

	ctx := &ExtractionContext{Source: source, File: file, Disallowed: disallowed}
	engine := NewExtractorEngine(map[string]NodeHandler{
		"import_statement":        e.extractImport,
		"import_from_statement":   e.extractFromImport,
		"future_import_statement": e.extractFutureImport,
		"call":                    e.extractCall,
		"print_statement":         e.rejectLegacyStatement,
		"exec_statement":          e.rejectLegacyStatement,
	})
	engine.Walk(ctx, root)

	if file.ParseError != nil {
		file.Imports = nil
		file.Calls = nil
	}
	return file
}

// import a.b.c [as d], e
func (e *PythonExtractor) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	line := ctx.Line(node)
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "dotted_name":
			ctx.File.Imports = append(ctx.File.Imports, ModuleReference{
				Name: normalizeDotted(ctx.Text(child)),
				Line: line,
			})
		case "aliased_import":
			ctx.File.Imports = append(ctx.File.Imports, ModuleReference{
				Name:  normalizeDotted(ctx.Text(child.ChildByFieldName("name"))),
				Alias: ctx.Text(child.ChildByFieldName("alias")),
				Line:  line,
			})
		}
	}
	return true
}

// from a.b import c [as d], e
// from . import x has no module and is skipped.
func (e *PythonExtractor) extractFromImport(ctx *ExtractionContext, node *sitter.Node) bool {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		return true
	}

	var module string
	switch moduleNode.Kind() {
	case "relative_import":
		for i := uint(0); i < moduleNode.ChildCount(); i++ {
			if child := moduleNode.Child(i); child.Kind() == "dotted_name" {
				module = normalizeDotted(ctx.Text(child))
			}
		}
	default:
		module = normalizeDotted(ctx.Text(moduleNode))
	}
	if module == "" {
		return true
	}

	e.appendFromItems(ctx, node, module, moduleNode)
	return true
}

// from __future__ import annotations
func (e *PythonExtractor) extractFutureImport(ctx *ExtractionContext, node *sitter.Node) bool {
	e.appendFromItems(ctx, node, "__future__", nil)
	return true
}

func (e *PythonExtractor) appendFromItems(ctx *ExtractionContext, node *sitter.Node, module string, moduleNode *sitter.Node) {
	line := ctx.Line(node)
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if moduleNode != nil && child.StartByte() == moduleNode.StartByte() && child.Kind() == moduleNode.Kind() {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			ctx.File.Imports = append(ctx.File.Imports, ModuleReference{
				Name: module + "." + normalizeDotted(ctx.Text(child)),
				Line: line,
			})
		case "aliased_import":
			ctx.File.Imports = append(ctx.File.Imports, ModuleReference{
				Name:  module + "." + normalizeDotted(ctx.Text(child.ChildByFieldName("name"))),
				Alias: ctx.Text(child.ChildByFieldName("alias")),
				Line:  line,
			})
		case "wildcard_import":
			ctx.File.Imports = append(ctx.File.Imports, ModuleReference{
				Name: module + ".*",
				Line: line,
			})
		}
	}
}

// Only bare identifiers count: obj.eval(...) is a method call, not the built-in.
func (e *PythonExtractor) extractCall(ctx *ExtractionContext, node *sitter.Node) bool {
	fn := node.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "identifier" {
		return false
	}
	name := ctx.Text(fn)
	if ctx.Disallowed[name] {
		ctx.File.Calls = append(ctx.File.Calls, CallSite{
			Name: name,
			Line: ctx.Line(node),
		})
	}
	return false
}

// The grammar still accepts the Python 2 print and exec statements, which a
// Python 3 compiler rejects. The first one in document order becomes the
// file's parse error.
func (e *PythonExtractor) rejectLegacyStatement(ctx *ExtractionContext, node *sitter.Node) bool {
	if ctx.File.ParseError == nil {
		keyword := "print"
		if node.Kind() == "exec_statement" {
			keyword = "exec"
		}
		ctx.File.ParseError = &ParseError{
			Line:    ctx.Line(node),
			Column:  int(node.StartPosition().Column) + 1,
			Message: "Missing parentheses in call to '" + keyword + "'",
		}
	}
	return true
}

// normalizeDotted drops whitespace and line continuations that the grammar
// allows inside a dotted name ("a . b").
func normalizeDotted(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\\':
			return -1
		}
		return r
	}, value)
}
