package report

import (
	"fmt"
	"io"
	"strings"

	"pyward/internal/engine/rules"

	"github.com/charmbracelet/lipgloss"
)

// Console prints reports to a terminal. Colour is applied only here; the
// persisted logs are always plain text.
type Console struct {
	w     io.Writer
	color bool

	ok     lipgloss.Style
	fail   lipgloss.Style
	warn   lipgloss.Style
	module lipgloss.Style
	info   lipgloss.Style
	path   lipgloss.Style
}

func NewConsole(w io.Writer, color bool) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:      w,
		color:  color,
		ok:     r.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
		fail:   r.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true),
		warn:   r.NewStyle().Foreground(lipgloss.Color("#FBBF24")),
		module: r.NewStyle().Foreground(lipgloss.Color("#E879F9")),
		info:   r.NewStyle().Foreground(lipgloss.Color("#22D3EE")),
		path:   r.NewStyle().Foreground(lipgloss.Color("#FBBF24")).Italic(true),
	}
}

func (c *Console) render(s lipgloss.Style, text string) string {
	if !c.color || text == "" {
		return text
	}
	return s.Render(text)
}

// PrintPolicy writes the policy entries of one file.
func (c *Console) PrintPolicy(r rules.FileReport) {
	for _, e := range PolicyEntries(r) {
		tag := c.render(c.fail, e.Tag)
		detail := e.Detail
		text := e.Text
		switch e.Tag {
		case TagOK:
			tag = c.render(c.ok, e.Tag)
		case TagDeath:
			detail = c.render(c.fail, detail)
		default:
			if r.Semantic.ParseError != nil || r.ReadError != nil {
				text = c.render(c.warn, text)
				detail = c.render(c.warn, detail)
			} else {
				detail = c.render(c.module, detail)
			}
		}
		fmt.Fprintf(c.w, "%s %s: %s%s\n", tag, e.Path, text, detail)
	}
}

// PrintStyle writes the style block of one file.
func (c *Console) PrintStyle(r rules.FileReport, cfg rules.StyleConfig) {
	var b strings.Builder
	b.WriteString("File checked: " + checkedPath(r) + "\n")
	for _, l := range StyleLines(r, cfg) {
		if l.Failed {
			b.WriteString(c.render(c.fail, TagFail) + " - " + l.Text + "\n")
		} else {
			b.WriteString(c.render(c.ok, TagOK) + " - " + l.Text + "\n")
		}
	}
	b.WriteString("\n")
	fmt.Fprint(c.w, b.String())
}

// PrintFindings writes only what failed in one file: the policy entries when
// the semantic family failed, then one line per failing style check.
func (c *Console) PrintFindings(r rules.FileReport, cfg rules.StyleConfig) {
	if r.SemanticRan && r.SemanticStatus().Failed() || r.ReadError != nil {
		c.PrintPolicy(r)
	}
	if r.ReadError != nil || !r.StyleStatus().Failed() {
		return
	}
	path := displayPath(r)
	for _, l := range StyleLines(r, cfg) {
		if l.Failed {
			fmt.Fprintf(c.w, "%s %s: %s\n", c.render(c.fail, TagFail), path, l.Text)
		}
	}
}

func (c *Console) PrintSummary(s Summary) {
	style := c.ok
	if s.Failed > 0 || s.Partial {
		style = c.fail
	}
	fmt.Fprintln(c.w, c.render(style, s.String()))
}

// Completed prints the closing banner naming the written log.
func (c *Console) Completed(path string) {
	fmt.Fprintf(c.w, "\n%s%s\n", c.render(c.info, "Check completed. Results saved to: "), c.render(c.path, path))
}

func (c *Console) Info(format string, args ...any) {
	fmt.Fprintln(c.w, c.render(c.info, fmt.Sprintf(format, args...)))
}
