package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// RenderPopup centres popup in a rounded card over base. Rows and columns of
// base outside the card stay visible.
func RenderPopup(base, popup string, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	canvas := Fit(base, width, height)
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorSelected).
		Padding(1, 2).
		Render(popup)
	cardLines := strings.Split(card, "\n")
	cardW := 0
	for _, l := range cardLines {
		cardW = max(cardW, ansi.StringWidth(l))
	}
	if cardW == 0 {
		return canvas
	}
	x := max(0, (width-cardW)/2)
	y := max(0, (height-len(cardLines))/2)
	return overlayAt(canvas, cardLines, x, y, width)
}

func overlayAt(canvas string, card []string, x, y, width int) string {
	rows := strings.Split(canvas, "\n")
	for i, line := range card {
		row := y + i
		if row >= len(rows) {
			break
		}
		base := rows[row]
		left := padRight(ansi.Truncate(base, x, ""), x)
		mid := ansi.Truncate(line, max(0, width-x), "")
		end := x + ansi.StringWidth(mid)
		right := ""
		if end < width {
			right = ansi.Cut(base, end, width)
		}
		rows[row] = padRight(left+mid+right, width)
	}
	return strings.Join(rows, "\n")
}
