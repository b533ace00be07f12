// # internal/engine/parser/parser.go
package parser

import (
	"pyward/internal/core/errors"
	"pyward/internal/shared/observability"
	"sort"
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// Parser is the syntax extractor: it turns Python source into a File holding
// import references and disallowed call sites, or a parse failure.
type Parser struct {
	pool       *ParserPool
	extractor  *PythonExtractor
	disallowed map[string]bool
}

// NewParser builds a parser flagging the given call names. A nil or empty
// list selects DefaultDisallowedCalls.
func NewParser(disallowedCalls []string) *Parser {
	if len(disallowedCalls) == 0 {
		disallowedCalls = DefaultDisallowedCalls
	}
	disallowed := make(map[string]bool, len(disallowedCalls))
	for _, name := range disallowedCalls {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		disallowed[name] = true
	}

	lang := sitter.NewLanguage(tree_sitter_python.Language())
	return &Parser{
		pool:       NewParserPool(lang),
		extractor:  &PythonExtractor{},
		disallowed: disallowed,
	}
}

// ParseFile never returns an error for malformed source: that outcome is
// reported through File.ParseError. An error means the parser itself failed.
func (p *Parser) ParseFile(path string, content []byte) (*File, error) {
	start := time.Now()
	defer func() {
		observability.ParsingDuration.WithLabelValues("python").Observe(time.Since(start).Seconds())
	}()

	sp := p.pool.Get()
	defer p.pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, errors.AddContext(errors.New(errors.CodeParse, "parser produced no syntax tree"), errors.CtxPath, path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return &File{
			Path:       path,
			ParseError: describeParseError(root, content),
			ParsedAt:   time.Now(),
		}, nil
	}

	return p.extractor.Extract(root, content, path, p.disallowed), nil
}

func describeParseError(root *sitter.Node, content []byte) *ParseError {
	node := firstErrorNode(root)
	if node == nil {
		return &ParseError{Message: "invalid syntax"}
	}
	pe := &ParseError{
		Line:    int(node.StartPosition().Row) + 1,
		Column:  int(node.StartPosition().Column) + 1,
		Message: "invalid syntax",
	}
	if node.IsMissing() {
		pe.Message = "missing " + node.Kind()
	} else if text := strings.TrimSpace(string(content[node.StartByte():node.EndByte()])); text != "" {
		if len(text) > 40 {
			text = text[:40]
		}
		pe.Message = "unexpected " + strings.SplitN(text, "\n", 2)[0]
	}
	return pe
}

func (p *Parser) IsDisallowed(name string) bool {
	return p.disallowed[name]
}

func (p *Parser) DisallowedCalls() []string {
	out := make([]string, 0, len(p.disallowed))
	for name := range p.disallowed {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Pool exposes the parser pool for diagnostics.
func (p *Parser) Pool() *ParserPool {
	return p.pool
}
