package core

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/riskdesk/internal/artifact"
	"github.com/jask/riskdesk/internal/panel"
	"github.com/jask/riskdesk/internal/tabs"
	"github.com/jask/riskdesk/internal/workspace"
	"github.com/jask/riskdesk/widgets"
)

type routerPage struct {
	id    string
	group string
	hits  int
	other int
}

func (p *routerPage) ID() string    { return p.id }
func (p *routerPage) Title() string { return strings.ToUpper(p.id) }
func (p *routerPage) Group() string { return p.group }
func (p *routerPage) Scope() string { return "page:" + p.id }
func (p *routerPage) Build(m *Model) widgets.Widget {
	return widgets.Text("page " + p.id)
}
func (p *routerPage) Update(m *Model, msg tea.Msg) tea.Cmd {
	if _, ok := msg.(tea.KeyMsg); ok {
		p.hits++
	} else {
		p.other++
	}
	return nil
}

type fakeScreen struct{ hits int }

func (s *fakeScreen) Title() string        { return "Screen" }
func (s *fakeScreen) Scope() string        { return "screen:test" }
func (s *fakeScreen) View(int, int) string { return "screen" }
func (s *fakeScreen) Update(msg tea.Msg) (Screen, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		s.hits++
		if km.String() == "esc" {
			return s, nil, true
		}
	}
	return s, nil, false
}

type loadedMsg struct{}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T) (Model, *routerPage, *routerPage) {
	t.Helper()
	rules := &routerPage{id: "rules", group: "Strategy"}
	activity := &routerPage{id: "activity", group: "Merchant"}
	m := NewModel([]Page{rules, activity}, NewKeyRegistry(DefaultKeyBindings()), nil, Deps{StartPage: "rules"})
	t.Cleanup(m.Artifacts.Close)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), rules, activity
}

func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestStartPageAndNavigation(t *testing.T) {
	m, _, _ := newTestModel(t)
	if got := m.ActivePage().ID(); got != "rules" {
		t.Fatalf("active page = %q, want rules", got)
	}
	if got := m.Workspace.Navigation().String(); got != "Strategy / RULES" {
		t.Fatalf("navigation = %q", got)
	}
	if got := m.ActiveScope(); got != "page:rules" {
		t.Fatalf("scope = %q", got)
	}
}

func TestScreenGetsKeyBeforePage(t *testing.T) {
	m, rules, _ := newTestModel(t)
	screen := &fakeScreen{}
	m.PushScreen(screen)

	m = step(t, m, runes("x"))
	if screen.hits != 1 {
		t.Fatalf("screen should handle key first")
	}
	if rules.hits != 0 {
		t.Fatalf("page should not receive key when screen open")
	}
	if m.screens.Len() != 1 {
		t.Fatalf("screen should remain open")
	}
}

func TestScreenCanPopItself(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.PushScreen(&fakeScreen{})
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.screens.Len() != 0 {
		t.Fatalf("expected screen to pop on esc")
	}
}

func TestNonKeyMessagesReachEveryPage(t *testing.T) {
	m, rules, activity := newTestModel(t)
	_ = step(t, m, loadedMsg{})
	if rules.other == 0 || activity.other == 0 {
		t.Fatalf("broadcast missed a page: rules=%d activity=%d", rules.other, activity.other)
	}
}

func TestPublishOpensTabAndExpandsPanel(t *testing.T) {
	m, _, _ := newTestModel(t)
	if !m.Artifacts.Panel.Collapsed() {
		t.Fatalf("panel should start collapsed")
	}

	m = step(t, m, PublishArtifactMsg{Artifact: artifact.Artifact{ID: "txn-1", Title: "TXN 1"}})
	if m.Artifacts.Panel.Collapsed() {
		t.Fatalf("publication should expand the panel")
	}
	if got := m.Artifacts.Tabs.Len(); got != 1 {
		t.Fatalf("tabs = %d, want 1", got)
	}
	if got := m.Artifacts.Panel.Display(); got != panel.DisplayContent {
		t.Fatalf("display = %v, want content", got)
	}
	if status, isErr := m.Status(); status != "Opened TXN 1" || isErr {
		t.Fatalf("status = %q err=%v", status, isErr)
	}
	if m.Artifacts.Width() <= 0 {
		t.Fatalf("expanded panel should take width")
	}
}

func TestPageSwitchCollapsesPanelAndKeepsTabs(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = step(t, m, PublishArtifactMsg{Artifact: artifact.Artifact{ID: "txn-1", Title: "TXN 1"}})
	m = step(t, m, runes("2"))

	if got := m.ActivePage().ID(); got != "activity" {
		t.Fatalf("active page = %q, want activity", got)
	}
	if !m.Artifacts.Panel.Collapsed() {
		t.Fatalf("page switch should collapse the panel")
	}
	if got := m.Artifacts.Tabs.Len(); got != 1 {
		t.Fatalf("tabs = %d, want 1 after page switch", got)
	}
}

func TestPageSwitchMsgByID(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = step(t, m, PageSwitchMsg{ID: "activity"})
	if got := m.ActivePage().ID(); got != "activity" {
		t.Fatalf("active page = %q", got)
	}
	next, cmd := m.Update(PageSwitchMsg{ID: "nope"})
	m = next.(Model)
	if cmd == nil {
		t.Fatalf("unknown page should report a status")
	}
	if got := m.ActivePage().ID(); got != "activity" {
		t.Fatalf("unknown page changed the active page to %q", got)
	}
}

func TestNewTabKeyOpensBlankTabThenPublishFillsIt(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if m.Artifacts.Panel.Collapsed() {
		t.Fatalf("new tab should expand the panel")
	}
	if got := m.Artifacts.Panel.Display(); got != panel.DisplayBlank {
		t.Fatalf("display = %v, want blank", got)
	}

	m = step(t, m, PublishArtifactMsg{Artifact: artifact.Artifact{ID: "rule-1", Title: "ATO01"}})
	if got := m.Artifacts.Tabs.Len(); got != 1 {
		t.Fatalf("publication should fill the blank tab, tabs = %d", got)
	}
	active, ok := m.Artifacts.Tabs.ActiveTab()
	if !ok || active.Blank || active.Title != "ATO01" {
		t.Fatalf("active tab = %+v", active)
	}
}

func TestCloseAndBackReportWhenNothingHappens(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlW})
	if status, _ := m.Status(); status != "No tab to close" {
		t.Fatalf("status = %q", status)
	}
	m = step(t, m, runes("["))
	if status, _ := m.Status(); status != "Nothing to go back to" {
		t.Fatalf("status = %q", status)
	}
}

func TestFocusToggleMovesScopeToArtifacts(t *testing.T) {
	m, rules, _ := newTestModel(t)
	m = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.Focus() != FocusArtifacts || m.ActiveScope() != ScopeArtifacts {
		t.Fatalf("focus = %v scope = %q", m.Focus(), m.ActiveScope())
	}
	if m.Artifacts.Panel.Collapsed() {
		t.Fatalf("focusing the panel should expand it")
	}

	m = step(t, m, runes("x"))
	if rules.hits != 0 {
		t.Fatalf("page received a key while the panel had focus")
	}

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.Focus() != FocusPage {
		t.Fatalf("esc should return focus to the page")
	}
}

func TestPanelToggleCollapseReturnsFocus(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = step(t, m, runes("\\"))
	if !m.Artifacts.Panel.Collapsed() {
		t.Fatalf("toggle should collapse the open panel")
	}
	if m.Focus() != FocusPage {
		t.Fatalf("collapsing should return focus to the page")
	}
}

func TestQuitKey(t *testing.T) {
	m, _, _ := newTestModel(t)
	next, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if got := next.(Model).View(); got != "Goodbye\n" {
		t.Fatalf("view after quit = %q", got)
	}
}

func TestViewFillsTerminal(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = step(t, m, PublishArtifactMsg{Artifact: artifact.Artifact{ID: "txn-1", Title: "TXN 1"}})
	view := m.View()
	if got := strings.Count(view, "\n") + 1; got != 40 {
		t.Fatalf("view has %d lines, want 40", got)
	}
	for _, want := range []string{"riskdesk", "1:RULES", "Artifacts", "/artifact/txn-1"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

func TestCollapsedViewShowsTabCount(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = step(t, m, PublishArtifactMsg{Artifact: artifact.Artifact{ID: "txn-1", Title: "TXN 1"}})
	m = step(t, m, runes("2"))
	view := m.Artifacts.View(m.Artifacts.Width(), 10, false)
	if !strings.Contains(view, "«") || !strings.Contains(view, "1") {
		t.Fatalf("collapsed view = %q", view)
	}
}

func click(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func TestClickSelectsAndClosesTabs(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = step(t, m, PublishArtifactMsg{Artifact: artifact.Artifact{ID: "txn-1", Title: "TXN 1"}})
	m = step(t, m, PublishArtifactMsg{Artifact: artifact.Artifact{ID: "txn-2", Title: "TXN 2"}})
	first := m.Artifacts.Tabs.Tabs()[0].ID
	if m.Artifacts.Tabs.ActiveID() == first {
		t.Fatalf("second publication should be active")
	}

	left := 120 - m.Artifacts.Width()
	stripY := headerRows + statusRows + stripRow
	m = step(t, m, click(left+stripCol+1, stripY))
	if got := m.Artifacts.Tabs.ActiveID(); got != first {
		t.Fatalf("active after click = %q, want %q", got, first)
	}

	// "TXN 1 ×" sits after one column of padding
	m = step(t, m, click(left+stripCol+7, stripY))
	if got := m.Artifacts.Tabs.Len(); got != 1 {
		t.Fatalf("tabs after clicking × = %d, want 1", got)
	}
}

func TestClickExpandsCollapsedPanel(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = step(t, m, click(119, headerRows+statusRows+1))
	if m.Artifacts.Panel.Collapsed() {
		t.Fatalf("clicking the collapsed edge should expand the panel")
	}
	m = step(t, m, click(1, headerRows+statusRows+1))
	if m.Artifacts.Panel.Collapsed() {
		t.Fatalf("clicks on the page leave the panel alone")
	}
}

func firstBodyLine(m Model) string {
	return strings.TrimRight(strings.Split(ansi.Strip(m.renderBody(10)), "\n")[0], " ")
}

func TestBodySplitFollowsLayoutEntry(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = step(t, m, PublishArtifactMsg{Artifact: artifact.Artifact{ID: "txn-1", Title: "TXN 1"}})
	want := m.Artifacts.Panel.Width(120)
	if got := m.panelWidth(); want == 0 || got != want {
		t.Fatalf("panel column = %d, want %d", got, want)
	}

	m.Layout.Set(panel.ArtifactWidthKey, panel.Length{Cells: 7})
	if got := m.panelWidth(); got != 7 {
		t.Fatalf("panel column after layout change = %d, want 7", got)
	}
	if got := m.Artifacts.Width(); got != 7 {
		t.Fatalf("host width after layout change = %d, want 7", got)
	}
	if line := firstBodyLine(m); line == "page rules" {
		t.Fatalf("panel column missing from body: %q", line)
	}

	// teardown drops the entry and the page gets the whole row
	m.Artifacts.Close()
	if got := m.panelWidth(); got != 0 {
		t.Fatalf("panel column after teardown = %d, want 0", got)
	}
	if line := firstBodyLine(m); line != "page rules" {
		t.Fatalf("body after teardown = %q", line)
	}
	active := m.Artifacts.Tabs.ActiveID()
	m = step(t, m, click(119, headerRows+statusRows+stripRow))
	if got := m.Artifacts.Tabs.ActiveID(); got != active || m.Artifacts.Tabs.Len() != 1 {
		t.Fatalf("click reached a panel without a column")
	}
}

// drain runs cmd and flattens batches into the messages they produce.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func currentID(m Model) string {
	if cur := m.Artifacts.Panel.Current(); cur != nil {
		return cur.ID
	}
	return ""
}

func TestHistoryBackReachesPanelOnNextTurn(t *testing.T) {
	first := artifact.Artifact{ID: "txn-1", Title: "TXN 1"}
	second := artifact.Artifact{ID: "txn-2", Title: "TXN 2"}
	other := artifact.Artifact{ID: "txn-3", Title: "TXN 3"}
	withHistory := tabs.Tab{
		ID:           "tab-1",
		Title:        second.Title,
		Artifact:     &second,
		URL:          artifact.URL(&second),
		History:      []artifact.Artifact{first, second},
		HistoryIndex: 1,
	}

	store := workspace.New(nil)
	layout := panel.NewLayout()
	host := NewArtifactHost(store, layout, ArtifactOptions{TabOptions: []tabs.Option{
		tabs.WithTabs([]tabs.Tab{withHistory, tabs.NewBoundTab("tab-2", other)}, "tab-2"),
	}})
	t.Cleanup(host.Close)
	rules := &routerPage{id: "rules", group: "Strategy"}
	m := NewModel([]Page{rules}, NewKeyRegistry(DefaultKeyBindings()), nil, Deps{
		Workspace: store, Layout: layout, Artifacts: host, StartPage: "rules",
	})
	m = step(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	// switching tabs notifies right away
	m = step(t, m, runes("{"))
	if got := currentID(m); got != "txn-2" {
		t.Fatalf("panel after tab switch = %q, want txn-2", got)
	}

	next, cmd := m.Update(runes("["))
	m = next.(Model)
	if got := currentID(m); got != "txn-2" {
		t.Fatalf("back reached the panel in the same turn: %q", got)
	}
	var flush tea.Msg
	for _, msg := range drain(cmd) {
		if _, ok := msg.(FlushTabsMsg); ok {
			flush = msg
		}
	}
	if flush == nil {
		t.Fatalf("back should schedule a FlushTabsMsg")
	}

	m = step(t, m, flush)
	if got := currentID(m); got != "txn-1" {
		t.Fatalf("panel after flush = %q, want txn-1", got)
	}
	if m.Artifacts.Tabs.HasPending() {
		t.Fatalf("notifications left after flush")
	}
}
