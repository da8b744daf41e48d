package widgets

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Widget renders into a width x height box.
type Widget interface {
	Render(width, height int) string
}

// Func adapts a plain render function.
type Func func(width, height int) string

func (f Func) Render(width, height int) string {
	if f == nil {
		return ""
	}
	return f(width, height)
}

// Text is a block of pre-rendered lines clipped to the box.
type Text string

func (t Text) Render(width, height int) string {
	return Fit(string(t), width, height)
}

// Fit clips s to height lines and pads every line to exactly width cells.
func Fit(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i := range lines {
		lines[i] = padRight(lines[i], width)
	}
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = ansi.Truncate(s, width, "")
	w := ansi.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}
