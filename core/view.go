package core

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/riskdesk/widgets"
)

// headerRows, statusRows and footerRows frame the body.
const (
	headerRows = 1
	statusRows = 1
	footerRows = 1
)

func (m Model) bodyHeight() int {
	return max(0, m.height-headerRows-statusRows-footerRows)
}

func (m Model) View() string {
	if m.quitting {
		return "Goodbye\n"
	}
	bodyHeight := m.bodyHeight()
	body := m.renderBody(bodyHeight)
	if top := m.screens.Top(); top != nil && bodyHeight > 0 {
		popup := top.View(max(20, m.width-16), max(6, bodyHeight-6))
		body = widgets.RenderPopup(body, popup, m.width, bodyHeight)
	}
	parts := []string{renderHeader(m), RenderStatusBar(m)}
	if bodyHeight > 0 {
		parts = append(parts, widgets.Fit(body, max(1, m.width), bodyHeight))
	}
	parts = append(parts, RenderFooter(m))
	view := ClipHeight(strings.Join(parts, "\n"), max(1, m.height))
	return appStyle.Width(max(1, m.width)).MaxWidth(max(1, m.width)).Render(view)
}

// renderBody lays the active page and the artifact panel side by side. The
// panel takes the width it published to the layout; the page gets the rest.
func (m Model) renderBody(height int) string {
	if height <= 0 {
		return ""
	}
	var page widgets.Widget = widgets.Text("")
	if p := m.ActivePage(); p != nil {
		page = p.Build(&m)
	}
	panelWidth := m.panelWidth()
	fixed := -1
	if panelWidth > 0 {
		fixed = panelWidth
	}
	focused := m.focus == FocusArtifacts && m.screens.Top() == nil
	panel := widgets.Func(func(w, h int) string { return m.Artifacts.View(w, h, focused) })
	return widgets.HStack{
		Widgets: []widgets.Widget{page, panel},
		Fixed:   []int{0, fixed},
	}.Render(max(1, m.width), height)
}

// panelWidth is the artifact column as read from the shared layout.
func (m Model) panelWidth() int {
	return LayoutWidth(m.Layout, m.width)
}

func renderHeader(m Model) string {
	left := headerAppStyle.Render(" riskdesk ")
	var groups []string
	group := ""
	var items []string
	flush := func() {
		if len(items) == 0 {
			return
		}
		groups = append(groups, groupStyle.Render(" "+group+" ")+strings.Join(items, pageSepStyle.Render("│")))
		items = nil
	}
	for i, p := range m.pages {
		if p.Group() != group {
			flush()
			group = p.Group()
		}
		label := fmt.Sprintf("%d:%s", i+1, p.Title())
		if i == m.activePage {
			items = append(items, activePageStyle.Render(label))
		} else {
			items = append(items, inactivePageStyle.Render(label))
		}
	}
	flush()
	right := strings.Join(groups, pageSepStyle.Render("  "))
	return renderHeaderBar(headerBarStyle, max(1, m.width), left+pageSepStyle.Render(" ")+right)
}

func renderHeaderBar(style lipgloss.Style, width int, line string) string {
	line = ansi.Truncate(strings.ReplaceAll(line, "\n", " "), width, "")
	if lineW := ansi.StringWidth(line); lineW < width {
		line += style.Render(strings.Repeat(" ", width-lineW))
	}
	return line
}
