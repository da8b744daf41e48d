package artifact

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa")).Bold(true)
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6adc8")).Italic(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#cdd6f4"))
)

// Markdown styles accepted by the renderer.
const (
	StyleAuto  = "auto"
	StyleDark  = "dark"
	StyleLight = "light"
	StyleNoTTY = "notty"
)

// Renderer is the generic artifact renderer. Bodies are rendered as markdown
// with glamour; the term renderer is rebuilt only when the wrap width changes.
type Renderer struct {
	mu    sync.Mutex
	style string
	wrap  int
	term  *glamour.TermRenderer
	err   error
}

func NewRenderer(style string) *Renderer {
	return &Renderer{style: normalizeStyle(style), wrap: -1}
}

func normalizeStyle(style string) string {
	switch strings.ToLower(strings.TrimSpace(style)) {
	case StyleDark:
		return StyleDark
	case StyleLight:
		return StyleLight
	case StyleNoTTY, "plain":
		return StyleNoTTY
	default:
		return StyleAuto
	}
}

// Render draws a. An artifact that carries its own RenderFunc is drawn by it.
func (r *Renderer) Render(a Artifact, width int) string {
	if a.Render != nil {
		return a.Render(a, width)
	}
	if width <= 0 {
		return ""
	}
	lines := []string{titleStyle.Render(ansi.Truncate(a.Title, width, "…"))}
	if s := strings.TrimSpace(a.Summary); s != "" {
		lines = append(lines, summaryStyle.Render(ansi.Wordwrap(s, width, "")))
	}
	if len(a.Fields) > 0 {
		lines = append(lines, "", renderFields(a.Fields, width))
	}
	if body := strings.TrimSpace(a.Body); body != "" {
		lines = append(lines, "", r.Markdown(body, width))
	}
	return strings.Join(lines, "\n")
}

func renderFields(fields []Field, width int) string {
	labelW := 0
	for _, f := range fields {
		labelW = max(labelW, ansi.StringWidth(f.Label))
	}
	labelW = min(labelW, max(4, width/3))
	rows := make([]string, 0, len(fields))
	for _, f := range fields {
		label := ansi.Truncate(f.Label, labelW, "…")
		pad := strings.Repeat(" ", labelW-ansi.StringWidth(label))
		valueW := max(1, width-labelW-2)
		rows = append(rows, labelStyle.Render(label+pad)+"  "+valueStyle.Render(ansi.Truncate(f.Value, valueW, "…")))
	}
	return strings.Join(rows, "\n")
}

// Markdown renders body with glamour, falling back to the raw text.
func (r *Renderer) Markdown(body string, width int) string {
	term := r.termFor(width)
	if term == nil {
		return body
	}
	out, err := term.Render(body)
	if err != nil {
		return body
	}
	return strings.TrimRight(out, "\n")
}

func (r *Renderer) termFor(width int) *glamour.TermRenderer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if width < 0 {
		width = 0
	}
	if r.wrap == width && r.term != nil && r.err == nil {
		return r.term
	}
	options := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if r.style == StyleAuto {
		options = append(options, glamour.WithAutoStyle())
	} else {
		options = append(options, glamour.WithStandardStyle(r.style))
	}
	r.wrap = width
	r.term, r.err = glamour.NewTermRenderer(options...)
	if r.err != nil {
		return nil
	}
	return r.term
}
