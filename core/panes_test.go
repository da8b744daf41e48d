package core

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/riskdesk/widgets"
)

type countingPane struct {
	*StaticPane
	keys int
}

func (p *countingPane) Update(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(tea.KeyMsg); ok {
		p.keys++
	}
	return nil
}

func newPanesPage(t *testing.T) (*GeneratedPage, *countingPane) {
	t.Helper()
	table := &countingPane{StaticPane: NewStaticPane("txns", "Transactions", "pane:records:txns", 't', true, "")}
	page := NewGeneratedPage("activity", "Merchant", "Activity", []PaneSpec{
		{ID: "summary", Title: "Summary", Scope: "pane:summary", JumpKey: 's', Text: "6 transactions"},
		{ID: "txns", Factory: func(PaneSpec) Pane { return table }},
	}, func(host *PaneHost, m *Model) widgets.Widget {
		return widgets.VStack{Widgets: []widgets.Widget{host.BuildPane("summary"), host.BuildPane("txns")}}
	})
	return page, table
}

func TestPaneHostRejectsDuplicateJumpKeys(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for duplicate jump key")
		}
	}()
	NewPaneHost(
		NewStaticPane("a", "A", "pane:a", 'x', true, ""),
		NewStaticPane("b", "B", "pane:b", 'X', true, ""),
	)
}

func TestPaneNavigationFocusAndBlur(t *testing.T) {
	page, table := newPanesPage(t)
	m := NewModel([]Page{page}, NewKeyRegistry(DefaultKeyBindings()), nil, Deps{})
	t.Cleanup(m.Artifacts.Close)

	if got := page.Scope(); got != "page:activity" {
		t.Fatalf("scope before focus = %q", got)
	}
	m = step(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if got := page.ActivePaneTitle(); got != "Transactions" {
		t.Fatalf("selected pane = %q", got)
	}
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := page.Scope(); got != "pane:records:txns" {
		t.Fatalf("scope after focus = %q", got)
	}
	m = step(t, m, runes("j"))
	if table.keys != 1 {
		t.Fatalf("focused pane keys = %d, want 1", table.keys)
	}
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if got := page.Scope(); got != "page:activity" {
		t.Fatalf("scope after blur = %q", got)
	}
	if status, _ := m.Status(); status != "Pane unfocused: Transactions" {
		t.Fatalf("status = %q", status)
	}
}

func TestUnfocusablePaneIsNotFocused(t *testing.T) {
	page, _ := newPanesPage(t)
	m := NewModel([]Page{page}, NewKeyRegistry(DefaultKeyBindings()), nil, Deps{})
	t.Cleanup(m.Artifacts.Close)
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := page.Scope(); got != "page:activity" {
		t.Fatalf("summary pane should not take focus, scope = %q", got)
	}
}

func TestJumpFocusesPaneByKey(t *testing.T) {
	page, _ := newPanesPage(t)
	m := NewModel([]Page{page}, NewKeyRegistry(DefaultKeyBindings()), nil, Deps{})
	t.Cleanup(m.Artifacts.Close)

	targets := page.JumpTargets()
	if len(targets) != 1 || targets[0].Key != "t" {
		t.Fatalf("targets = %+v", targets)
	}
	m = step(t, m, runes("v"))
	if m.screens.Len() != 1 {
		t.Fatalf("jump key should open the picker")
	}
	next, cmd := m.Update(runes("t"))
	m = next.(Model)
	if m.screens.Len() != 0 || cmd == nil {
		t.Fatalf("picker should close with a selection")
	}
	m = step(t, m, JumpTargetSelectedMsg{Key: "t"})
	if got := page.Scope(); got != "pane:records:txns" {
		t.Fatalf("scope after jump = %q", got)
	}
}

func TestGeneratedPageBuildsLayout(t *testing.T) {
	page, _ := newPanesPage(t)
	m := NewModel([]Page{page}, nil, nil, Deps{})
	t.Cleanup(m.Artifacts.Close)
	out := page.Build(&m).Render(40, 12)
	if !containsPlain(out, "Summary") || !containsPlain(out, "Transactions") {
		t.Fatalf("layout = %q", out)
	}
}
