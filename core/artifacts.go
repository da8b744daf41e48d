package core

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"pkt.systems/pslog"

	"github.com/jask/riskdesk/internal/artifact"
	"github.com/jask/riskdesk/internal/logx"
	"github.com/jask/riskdesk/internal/panel"
	"github.com/jask/riskdesk/internal/scroll"
	"github.com/jask/riskdesk/internal/tabs"
	"github.com/jask/riskdesk/internal/workspace"
	"github.com/jask/riskdesk/widgets"
)

// ScopeArtifacts is the key scope while the artifact panel has focus.
const ScopeArtifacts = "pane:artifacts"

// chromeRows are the strip and address rows above the artifact body.
const chromeRows = 2

type ArtifactOptions struct {
	Debounce        time.Duration
	Policy          tabs.PublishPolicy
	CollapsedWidth  int
	ExpandedPercent int
	MarkdownStyle   string
	FPS             int
	Clock           func() time.Time
	Logger          pslog.Logger
	// TabOptions are applied after the options derived from the fields above.
	TabOptions      []tabs.Option
}

// ArtifactHost runs the artifact panel inside the event loop. Publications
// reach it through the workspace store; its tab manager decides which tab
// shows them and the panel follows the active tab.
type ArtifactHost struct {
	Tabs   *tabs.Manager
	Panel  *panel.Panel
	Scroll *scroll.Coordinator

	layout      *panel.Layout
	renderer    *artifact.Renderer
	content     viewport.Model
	unsubscribe func()
	log         pslog.Logger

	total  int
	height int
	wrap   int
	dirty  bool
}

func NewArtifactHost(store *workspace.Store, layout *panel.Layout, opts ArtifactOptions) *ArtifactHost {
	if opts.Logger == nil {
		opts.Logger = pslog.Ctx(context.Background())
	}
	if layout == nil {
		layout = panel.NewLayout()
	}
	h := &ArtifactHost{
		layout:   layout,
		renderer: artifact.NewRenderer(opts.MarkdownStyle),
		content:  viewport.New(0, 0),
		log:      opts.Logger,
		wrap:     -1,
		dirty:    true,
	}
	managerOpts := []tabs.Option{tabs.WithLogger(opts.Logger), tabs.WithOnTabChange(h.onTabChange)}
	if opts.Debounce > 0 {
		managerOpts = append(managerOpts, tabs.WithDebounce(opts.Debounce))
	}
	if opts.Policy != "" {
		managerOpts = append(managerOpts, tabs.WithPolicy(opts.Policy))
	}
	if opts.Clock != nil {
		managerOpts = append(managerOpts, tabs.WithClock(opts.Clock))
	}
	h.Tabs = tabs.NewManager(append(managerOpts, opts.TabOptions...)...)
	h.Panel = panel.New(layout, panel.Options{
		CollapsedWidth:  opts.CollapsedWidth,
		ExpandedPercent: opts.ExpandedPercent,
		Logger:          opts.Logger,
	})
	h.Panel.Attach(store)
	h.Scroll = scroll.New(opts.FPS, opts.Logger)
	h.unsubscribe = store.Subscribe(func(ev workspace.Event) {
		if ev.Kind == workspace.EventArtifactPublished && ev.Artifact != nil {
			h.Tabs.Publish(*ev.Artifact)
		}
	})
	return h
}

func (h *ArtifactHost) onTabChange(t *tabs.Tab) {
	h.Panel.OnTabChange(t)
	h.dirty = true
	h.content.GotoTop()
	if t == nil {
		h.log.Debug("artifact panel emptied")
		return
	}
	logx.WithTab(h.log, t.ID).Debug("artifact tab shown", "display", h.Panel.Display().String(), "url", t.URL)
}

// Close stops following the store and releases the panel's layout entry.
func (h *ArtifactHost) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
		h.unsubscribe = nil
	}
	h.Panel.Close()
}

// Resize records the terminal width and the body height the panel can use.
func (h *ArtifactHost) Resize(total, height int) {
	h.total = max(0, total)
	h.height = max(0, height)
	h.Sync()
}

// Width is the number of columns the panel takes from the body, as published
// to the layout. Without a layout entry the panel has no column.
func (h *ArtifactHost) Width() int {
	return LayoutWidth(h.layout, h.total)
}

// LayoutWidth resolves the panel's layout entry against the terminal width.
func LayoutWidth(layout *panel.Layout, total int) int {
	l, ok := layout.Get(panel.ArtifactWidthKey)
	if !ok || l.IsZero() {
		return 0
	}
	return l.Resolve(total)
}

func (h *ArtifactHost) inner() (int, int) {
	return widgets.InnerSize(h.Width(), h.height)
}

// Sync brings the strip geometry and the body viewport in line with the
// current tabs and panel width.
func (h *ArtifactHost) Sync() {
	innerW, innerH := h.inner()
	cells := h.cells()
	items := make([]scroll.Item, len(cells))
	for i, c := range cells {
		items[i] = scroll.Item{ID: c.ID, Width: widgets.CellWidth(c)}
	}
	h.Scroll.SetLayout(items, innerW)

	h.content.Width = innerW
	h.content.Height = max(1, innerH-chromeRows)
	if h.dirty || h.wrap != innerW {
		h.content.SetContent(h.body(innerW))
		h.wrap = innerW
		h.dirty = false
	}
}

func (h *ArtifactHost) cells() []widgets.TabCell {
	all := h.Tabs.Tabs()
	active := h.Tabs.ActiveID()
	out := make([]widgets.TabCell, len(all))
	for i, t := range all {
		out[i] = widgets.TabCell{ID: t.ID, Title: t.Title, Active: t.ID == active, Blank: t.Blank}
	}
	return out
}

func (h *ArtifactHost) body(width int) string {
	cur := h.Panel.Current()
	if cur == nil {
		return placeholderStyle.Render(h.Panel.Placeholder())
	}
	return h.renderer.Render(*cur, width)
}

// Pending returns the commands that must run after the current update:
// queued strip scrolls and the flush of deferred tab notifications.
func (h *ArtifactHost) Pending() tea.Cmd {
	var cmds []tea.Cmd
	for _, req := range h.Tabs.DrainScroll() {
		switch {
		case req.ToEnd:
			cmds = append(cmds, scroll.ScrollToEnd())
		case req.ID != "":
			cmds = append(cmds, scroll.ScrollIntoView(req.ID))
		}
	}
	if h.Tabs.HasPending() {
		cmds = append(cmds, func() tea.Msg { return FlushTabsMsg{} })
	}
	return tea.Batch(cmds...)
}

// Update handles the panel's own messages.
func (h *ArtifactHost) Update(msg tea.Msg) tea.Cmd {
	switch msg.(type) {
	case scroll.ScrollToEndMsg, scroll.ScrollIntoViewMsg, scroll.FrameMsg:
		h.Sync()
		return h.Scroll.Update(msg)
	case FlushTabsMsg:
		h.Tabs.Flush()
	}
	return nil
}

// ScrollContent forwards keys to the body viewport.
func (h *ArtifactHost) ScrollContent(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	h.content, cmd = h.content.Update(msg)
	return cmd
}

func (h *ArtifactHost) NewTab() {
	h.Tabs.NewBlankTab()
	h.Panel.Expand()
}

func (h *ArtifactHost) CloseActive() bool { return h.Tabs.RemoveActive() }
func (h *ArtifactHost) Back() bool        { return h.Tabs.Back() }
func (h *ArtifactHost) Forward() bool     { return h.Tabs.Forward() }
func (h *ArtifactHost) Next() bool        { return h.Tabs.Next() }
func (h *ArtifactHost) Previous() bool    { return h.Tabs.Previous() }
func (h *ArtifactHost) Move(delta int) bool {
	return h.Tabs.MoveActive(delta)
}
func (h *ArtifactHost) Toggle() { h.Panel.Toggle() }

func (h *ArtifactHost) DuplicateActive() bool {
	return h.Tabs.Duplicate(h.Tabs.ActiveID())
}

// stripRow and stripCol locate the tab strip inside the panel chrome.
const (
	stripRow = 1
	stripCol = 2
)

// Click handles a left click at x, y relative to the panel's top-left
// corner. A collapsed panel expands; a click on a strip cell selects that
// tab, or closes it when it lands on the × mark.
func (h *ArtifactHost) Click(x, y int) bool {
	if x < 0 || y < 0 || x >= h.Width() {
		return false
	}
	if h.Panel.Collapsed() {
		h.Panel.Expand()
		return true
	}
	if y != stripRow {
		return false
	}
	id, rel, ok := h.Scroll.ItemAt(x - stripCol)
	if !ok {
		return false
	}
	for _, c := range h.cells() {
		if c.ID != id {
			continue
		}
		// cell layout: padding, label ending in "×", padding, separator
		if rel == widgets.CellWidth(c)-3 {
			return h.Tabs.Remove(id)
		}
		return h.Tabs.Select(id)
	}
	return false
}

// View draws the panel into width x height.
func (h *ArtifactHost) View(width, height int, focused bool) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	if h.Panel.Collapsed() {
		return h.collapsedView(width, height)
	}
	innerW, _ := widgets.InnerSize(width, height)
	strip := widgets.TabStrip{Cells: h.cells(), Offset: h.Scroll.Offset()}.Render(innerW, 1)
	content := strings.Join([]string{strip, h.addressLine(innerW), h.content.View()}, "\n")
	return widgets.Pane{
		Title:   "Artifacts",
		Content: content,
		Hint:    "\\ collapse",
		Focused: focused,
	}.Render(width, height)
}

func (h *ArtifactHost) addressLine(width int) string {
	back, forward := mutedStyle.Render("◀"), mutedStyle.Render("▶")
	if can, ok := h.Tabs.CanGoBack(); ok && can {
		back = keyStyle.Render("◀")
	}
	if can, ok := h.Tabs.CanGoForward(); ok && can {
		forward = keyStyle.Render("▶")
	}
	url := ""
	if t, ok := h.Tabs.ActiveTab(); ok {
		url = t.URL
	}
	return TrimToWidth(back+" "+forward+" "+mutedStyle.Render(url), width)
}

func (h *ArtifactHost) collapsedView(width, height int) string {
	rows := make([]string, height)
	rows[0] = keyStyle.Render("«")
	if n := h.Tabs.Len(); n > 0 && height > 1 {
		rows[1] = mutedStyle.Render(strconv.Itoa(n))
	}
	edge := collapsedEdgeStyle.Render("│")
	for i := range rows {
		rows[i] = edge + " " + rows[i]
	}
	return widgets.Fit(strings.Join(rows, "\n"), width, height)
}

var (
	placeholderStyle   = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
	collapsedEdgeStyle = lipgloss.NewStyle().Foreground(colorBorder)
)
