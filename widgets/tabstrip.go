package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// MaxTabTitle is the widest title a strip cell shows before truncating.
const MaxTabTitle = 20

var (
	tabActiveStyle = lipgloss.NewStyle().
			Foreground(ColorSelected).
			Background(lipgloss.Color("#313244")).
			Bold(true).
			Padding(0, 1)
	tabIdleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1)
	tabBlankStyle = tabIdleStyle.Italic(true)
	tabSepStyle   = lipgloss.NewStyle().Foreground(ColorBorder)
)

// TabCell is one tab as the strip draws it.
type TabCell struct {
	ID     string
	Title  string
	Active bool
	Blank  bool
}

// TabLabel is the cell text without styling.
func TabLabel(c TabCell) string {
	title := strings.TrimSpace(c.Title)
	if title == "" {
		title = "untitled"
	}
	return ansi.Truncate(title, MaxTabTitle, "…") + " ×"
}

func renderCell(c TabCell) string {
	style := tabIdleStyle
	switch {
	case c.Active:
		style = tabActiveStyle
	case c.Blank:
		style = tabBlankStyle
	}
	return style.Render(TabLabel(c)) + tabSepStyle.Render("│")
}

// CellWidth is the number of columns the strip spends on c, separator
// included.
func CellWidth(c TabCell) int {
	return ansi.StringWidth(renderCell(c))
}

// TabStrip draws its cells on one line and shows the window starting at
// Offset columns.
type TabStrip struct {
	Cells  []TabCell
	Offset int
}

func (s TabStrip) Render(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	var b strings.Builder
	for _, c := range s.Cells {
		b.WriteString(renderCell(c))
	}
	line := b.String()
	offset := max(0, s.Offset)
	if offset > 0 {
		line = ansi.Cut(line, offset, offset+width)
	}
	return Fit(line, width, height)
}
