package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var (
	ColorBorder   lipgloss.Color = "#6c7086"
	ColorSelected lipgloss.Color = "#89b4fa"
	ColorFocused  lipgloss.Color = "#a6e3a1"
	ColorText     lipgloss.Color = "#cdd6f4"
	ColorMuted    lipgloss.Color = "#7f849c"
)

// Pane draws rounded chrome with the title set into the top border. A
// selected pane gets an accent border and a focused pane a green one.
type Pane struct {
	Title    string
	Content  string
	Hint     string
	Selected bool
	Focused  bool
}

func (p Pane) Render(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	width = max(width, 4)
	height = max(height, 3)

	border := ColorBorder
	marker := "  "
	if p.Selected {
		border, marker = ColorSelected, "▶ "
	}
	if p.Focused {
		border, marker = ColorFocused, "● "
	}
	edge := lipgloss.NewStyle().Foreground(border)
	titleStyle := lipgloss.NewStyle().Foreground(ColorText).Bold(true)
	hintStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	inner := width - 2
	contentW := max(1, inner-2)

	title := " " + strings.TrimSpace(marker+p.Title) + " "
	if ansi.StringWidth(title) > inner {
		title = ansi.Truncate(title, inner, "…")
	}
	lead := min(1, inner-ansi.StringWidth(title))
	rest := max(0, inner-ansi.StringWidth(title)-lead)
	top := edge.Render("╭"+strings.Repeat("─", lead)) + titleStyle.Render(title) + edge.Render(strings.Repeat("─", rest)+"╮")

	bottom := edge.Render("╰" + strings.Repeat("─", inner) + "╯")
	if hint := strings.TrimSpace(p.Hint); hint != "" && ansi.StringWidth(hint)+4 <= inner {
		hint = " " + hint + " "
		fill := inner - ansi.StringWidth(hint) - 1
		bottom = edge.Render("╰"+strings.Repeat("─", fill)) + hintStyle.Render(hint) + edge.Render("─╯")
	}

	lines := strings.Split(p.Content, "\n")
	rows := make([]string, 0, height)
	rows = append(rows, top)
	side := edge.Render("│")
	for i := 0; i < height-2; i++ {
		line := ""
		if i < len(lines) {
			line = lines[i]
		}
		rows = append(rows, side+" "+padRight(line, contentW)+" "+side)
	}
	rows = append(rows, bottom)
	return strings.Join(rows, "\n")
}

// InnerSize is the content box of a pane rendered at width x height.
func InnerSize(width, height int) (int, int) {
	return max(1, width-4), max(1, height-2)
}
