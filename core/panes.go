package core

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/riskdesk/widgets"
)

// Pane is one boxed region of a page. A page selects one pane at a time and
// may focus it, after which keys go to the pane.
type Pane interface {
	ID() string
	Title() string
	Scope() string
	JumpKey() byte
	Focusable() bool
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View(width, height int, selected, focused bool) string
	OnSelect() tea.Cmd
	OnDeselect() tea.Cmd
	OnFocus() tea.Cmd
	OnBlur() tea.Cmd
}

type StaticPane struct {
	id    string
	title string
	scope string
	jump  byte
	focus bool
	text  string
}

func NewStaticPane(id, title, scope string, jumpKey byte, focusable bool, text string) *StaticPane {
	return &StaticPane{id: id, title: title, scope: scope, jump: jumpKey, focus: focusable, text: text}
}

func (p *StaticPane) ID() string                 { return p.id }
func (p *StaticPane) Title() string              { return p.title }
func (p *StaticPane) Scope() string              { return p.scope }
func (p *StaticPane) JumpKey() byte              { return p.jump }
func (p *StaticPane) Focusable() bool            { return p.focus }
func (p *StaticPane) Init() tea.Cmd              { return nil }
func (p *StaticPane) Update(msg tea.Msg) tea.Cmd { return nil }
func (p *StaticPane) View(width, height int, selected, focused bool) string {
	return widgets.Pane{Title: p.title, Content: p.text, Selected: selected, Focused: focused}.Render(width, height)
}
func (p *StaticPane) OnSelect() tea.Cmd   { return nil }
func (p *StaticPane) OnDeselect() tea.Cmd { return nil }
func (p *StaticPane) OnFocus() tea.Cmd    { return nil }
func (p *StaticPane) OnBlur() tea.Cmd     { return nil }

// SetText replaces the body of the pane.
func (p *StaticPane) SetText(text string) { p.text = text }

type PaneHost struct {
	panes    []Pane
	selected int
	focused  int
}

// NewPaneHost panics when two panes share a jump key or a pane has none.
func NewPaneHost(panes ...Pane) PaneHost {
	seen := make(map[byte]string, len(panes))
	for _, pane := range panes {
		if pane == nil {
			continue
		}
		key := normalizeJumpByte(pane.JumpKey())
		if key == 0 {
			panic(fmt.Sprintf("pane %q must declare a single alphanumeric jump key", pane.ID()))
		}
		if other, exists := seen[key]; exists {
			panic(fmt.Sprintf("duplicate jump key %q across panes %q and %q", string(key), other, pane.ID()))
		}
		seen[key] = pane.ID()
	}
	return PaneHost{panes: panes, selected: 0, focused: -1}
}

func (h *PaneHost) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(h.panes))
	for _, p := range h.panes {
		if p == nil {
			continue
		}
		if cmd := p.Init(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

func (h *PaneHost) activeIndex() int {
	if h.focused >= 0 && h.focused < len(h.panes) {
		return h.focused
	}
	if h.selected >= 0 && h.selected < len(h.panes) {
		return h.selected
	}
	return -1
}

// Scope is the focused pane's scope. Without a focused pane it is the
// page scope, so page-level bindings apply.
func (h *PaneHost) Scope(pageScope string) string {
	if h.focused >= 0 && h.focused < len(h.panes) {
		return h.panes[h.focused].Scope()
	}
	return pageScope
}

func (h *PaneHost) ActivePaneTitle() string {
	if idx := h.activeIndex(); idx >= 0 {
		return h.panes[idx].Title()
	}
	return ""
}

func (h *PaneHost) Focused() (Pane, bool) {
	if h.focused >= 0 && h.focused < len(h.panes) {
		return h.panes[h.focused], true
	}
	return nil, false
}

// Panes returns the hosted panes in layout order.
func (h *PaneHost) Panes() []Pane {
	return append([]Pane(nil), h.panes...)
}

// Pane looks a pane up by id.
func (h *PaneHost) Pane(id string) (Pane, bool) {
	for _, p := range h.panes {
		if p != nil && p.ID() == id {
			return p, true
		}
	}
	return nil, false
}

func (h *PaneHost) UpdateActive(msg tea.Msg) tea.Cmd {
	idx := h.activeIndex()
	if idx < 0 {
		return nil
	}
	return h.panes[idx].Update(msg)
}

// UpdateAll delivers msg to every pane. Data loads use it so a pane that is
// not selected still receives its rows.
func (h *PaneHost) UpdateAll(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(h.panes))
	for _, p := range h.panes {
		if p == nil {
			continue
		}
		if cmd := p.Update(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

// HandlePaneKey moves selection and focus between panes. Keys it does not
// claim go to the focused pane.
func (h *PaneHost) HandlePaneKey(m *Model, msg tea.KeyMsg, scope string) (bool, tea.Cmd) {
	if len(h.panes) == 0 {
		return false, nil
	}
	action := m.keys.ActionFor(msg, scope, "pane-nav", "pane-focus", "pane-blur")
	if h.focused >= 0 && h.focused < len(h.panes) {
		if action == "pane-blur" {
			return true, h.unfocus(m)
		}
		return false, nil
	}
	switch action {
	case "pane-nav":
		if msg.String() == "left" {
			return true, h.move(m, -1)
		}
		return true, h.move(m, 1)
	case "pane-focus":
		return true, h.focusSelected(m)
	}
	return false, nil
}

func (h *PaneHost) move(m *Model, delta int) tea.Cmd {
	if len(h.panes) <= 1 {
		return nil
	}
	prev := h.selected
	h.selected = (h.selected + delta + len(h.panes)) % len(h.panes)
	if prev == h.selected {
		return nil
	}
	h.focused = -1
	m.SetStatus("Selected pane: " + h.panes[h.selected].Title())
	return tea.Batch(h.panes[prev].OnDeselect(), h.panes[h.selected].OnSelect())
}

func (h *PaneHost) focusSelected(m *Model) tea.Cmd {
	if h.selected < 0 || h.selected >= len(h.panes) {
		return nil
	}
	if !h.panes[h.selected].Focusable() {
		return nil
	}
	h.focused = h.selected
	m.SetStatus("Focused pane: " + h.panes[h.focused].Title())
	return h.panes[h.focused].OnFocus()
}

func (h *PaneHost) unfocus(m *Model) tea.Cmd {
	idx := h.focused
	h.focused = -1
	m.SetStatus("Pane unfocused: " + h.panes[idx].Title())
	return h.panes[idx].OnBlur()
}

type paneWidget struct {
	pane     Pane
	selected bool
	focused  bool
}

func (w paneWidget) Render(width, height int) string {
	return w.pane.View(width, height, w.selected, w.focused)
}

func (h *PaneHost) BuildPane(id string) widgets.Widget {
	for idx, p := range h.panes {
		if p != nil && p.ID() == id {
			return paneWidget{pane: p, selected: idx == h.selected, focused: idx == h.focused}
		}
	}
	return widgets.Pane{Title: "Missing Pane", Content: id}
}

func (h *PaneHost) JumpTargets() []JumpTarget {
	out := make([]JumpTarget, 0, len(h.panes))
	for _, pane := range h.panes {
		if pane == nil || !pane.Focusable() {
			continue
		}
		key := normalizeJumpByte(pane.JumpKey())
		if key == 0 {
			continue
		}
		out = append(out, JumpTarget{Key: string(key), Label: pane.Title()})
	}
	return out
}

func (h *PaneHost) JumpToTarget(m *Model, key string) (bool, tea.Cmd) {
	jumpKey := normalizeJumpKey(key)
	if jumpKey == 0 {
		return false, nil
	}
	target := -1
	for idx, pane := range h.panes {
		if pane == nil || !pane.Focusable() {
			continue
		}
		if normalizeJumpByte(pane.JumpKey()) == jumpKey {
			target = idx
			break
		}
	}
	if target < 0 {
		return false, nil
	}

	prevSelected := h.selected
	prevFocused := h.focused
	h.selected = target
	h.focused = target
	m.SetStatus("Focused pane: " + h.panes[target].Title())

	cmds := make([]tea.Cmd, 0, 4)
	if prevSelected >= 0 && prevSelected < len(h.panes) && prevSelected != target {
		cmds = append(cmds, h.panes[prevSelected].OnDeselect(), h.panes[target].OnSelect())
	}
	if prevFocused >= 0 && prevFocused < len(h.panes) && prevFocused != target {
		cmds = append(cmds, h.panes[prevFocused].OnBlur())
	}
	if prevFocused != target {
		cmds = append(cmds, h.panes[target].OnFocus())
	}
	return true, tea.Batch(cmds...)
}

type PaneSpec struct {
	ID        string
	Title     string
	Scope     string
	JumpKey   byte
	Focusable bool
	Text      string
	Factory   func(spec PaneSpec) Pane
}

type LayoutBuilder func(host *PaneHost, m *Model) widgets.Widget

// GeneratedPage is a page assembled from pane specs and a layout function.
type GeneratedPage struct {
	id     string
	title  string
	group  string
	host   PaneHost
	layout LayoutBuilder
}

func NewGeneratedPage(id, group, title string, specs []PaneSpec, layout LayoutBuilder) *GeneratedPage {
	panes := make([]Pane, 0, len(specs))
	for _, spec := range specs {
		if spec.Factory != nil {
			panes = append(panes, spec.Factory(spec))
			continue
		}
		panes = append(panes, NewStaticPane(spec.ID, spec.Title, spec.Scope, spec.JumpKey, spec.Focusable, spec.Text))
	}
	return &GeneratedPage{id: id, title: title, group: group, host: NewPaneHost(panes...), layout: layout}
}

func (p *GeneratedPage) ID() string              { return p.id }
func (p *GeneratedPage) Title() string           { return p.title }
func (p *GeneratedPage) Group() string           { return p.group }
func (p *GeneratedPage) Scope() string           { return p.host.Scope("page:" + p.id) }
func (p *GeneratedPage) ActivePaneTitle() string { return p.host.ActivePaneTitle() }
func (p *GeneratedPage) Host() *PaneHost         { return &p.host }

func (p *GeneratedPage) JumpTargets() []JumpTarget {
	return p.host.JumpTargets()
}

func (p *GeneratedPage) JumpToTarget(m *Model, key string) (bool, tea.Cmd) {
	return p.host.JumpToTarget(m, key)
}

func (p *GeneratedPage) InitPage(m *Model) tea.Cmd {
	return p.host.Init()
}

func (p *GeneratedPage) HandlePaneKey(m *Model, msg tea.KeyMsg) (bool, tea.Cmd) {
	return p.host.HandlePaneKey(m, msg, p.Scope())
}

// Update sends keys to the selected pane and any other message to all panes.
func (p *GeneratedPage) Update(m *Model, msg tea.Msg) tea.Cmd {
	if _, ok := msg.(tea.KeyMsg); ok {
		return p.host.UpdateActive(msg)
	}
	return p.host.UpdateAll(msg)
}

func (p *GeneratedPage) Build(m *Model) widgets.Widget {
	if p.layout == nil {
		return widgets.Pane{Title: p.title}
	}
	return p.layout(&p.host, m)
}
