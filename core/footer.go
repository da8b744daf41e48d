package core

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/riskdesk/internal/tabs"
)

// RenderFooter shows where the artifact panel stands (active tab and its
// history) followed by the bindings of the active scope that can act right
// now, one entry per action.
func RenderFooter(m Model) string {
	bg := colorMantle
	keyStyle := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Background(bg)
	descStyle := lipgloss.NewStyle().Foreground(colorMuted).Background(bg)
	space := lipgloss.NewStyle().Background(bg).Render(" ")
	sep := lipgloss.NewStyle().Background(bg).Render("  ")

	var parts []string
	if pos := tabPosition(m.Artifacts); pos != "" {
		parts = append(parts, keyStyle.Render(pos))
	}
	bindings := m.keys.BindingsForScope(m.ActiveScope())
	seen := make(map[string]bool, len(bindings))
	for _, b := range bindings {
		if b.Hidden || len(b.Keys) == 0 || seen[b.Action] || !actionAvailable(m.Artifacts, b.Action) {
			continue
		}
		seen[b.Action] = true
		h := key.NewBinding(key.WithKeys(b.Keys...), key.WithHelp(b.Keys[0], b.Description)).Help()
		if h.Key == "" && h.Desc == "" {
			continue
		}
		parts = append(parts, keyStyle.Render(h.Key)+space+descStyle.Render(h.Desc))
	}
	line := strings.Join(parts, sep)
	if line == "" {
		line = descStyle.Render("No shortcuts")
	}
	return renderBar(footerStyle, max(1, m.width), line, bg)
}

// tabPosition is e.g. "tab 2/3 ‹" for the second of three tabs when its
// history can go back. Empty without tabs.
func tabPosition(h *ArtifactHost) string {
	if h == nil {
		return ""
	}
	all := h.Tabs.Tabs()
	idx := slices.IndexFunc(all, func(t tabs.Tab) bool { return t.ID == h.Tabs.ActiveID() })
	if idx < 0 {
		return ""
	}
	pos := fmt.Sprintf("tab %d/%d", idx+1, len(all))
	back, _ := h.Tabs.CanGoBack()
	fwd, _ := h.Tabs.CanGoForward()
	switch {
	case back && fwd:
		pos += " ‹›"
	case back:
		pos += " ‹"
	case fwd:
		pos += " ›"
	}
	return pos
}

// actionAvailable hides panel hints that would do nothing in the current tab
// state.
func actionAvailable(h *ArtifactHost, action string) bool {
	if h == nil {
		return true
	}
	switch action {
	case ActionCloseTab:
		return h.Tabs.Len() > 0
	case ActionBack:
		can, _ := h.Tabs.CanGoBack()
		return can
	case ActionForward:
		can, _ := h.Tabs.CanGoForward()
		return can
	case ActionNextTab, ActionPrevTab:
		return h.Tabs.Len() > 1
	}
	return true
}

// RenderStatusBar shows the status message next to the current navigation.
func RenderStatusBar(m Model) string {
	msg := strings.TrimSpace(m.status)
	if msg == "" {
		msg = "Ready"
	}
	if nav := m.Workspace.Navigation().String(); nav != "" {
		msg = nav + " · " + msg
	}
	if m.statusErr {
		return renderBar(statusErrBarStyle, max(1, m.width), msg, colorSurface0)
	}
	return renderBar(statusBarStyle, max(1, m.width), msg, colorSurface0)
}

func renderBar(style lipgloss.Style, width int, text string, bg lipgloss.TerminalColor) string {
	line := strings.ReplaceAll(text, "\n", " ")
	line = ansi.Truncate(line, width, "")
	lineW := ansi.StringWidth(line)
	if lineW < width {
		line += strings.Repeat(" ", width-lineW)
	}
	return style.
		Background(bg).
		Width(width).
		MaxWidth(width).
		Render(line)
}

func ClipHeight(s string, height int) string {
	if height <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

// TrimToWidth truncates every line of s to width cells.
func TrimToWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, width, "")
	}
	return strings.Join(lines, "\n")
}
