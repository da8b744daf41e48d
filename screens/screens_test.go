package screens

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/riskdesk/core"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPickerModalSelectsFilteredRecord(t *testing.T) {
	items := []PickerItem{
		{ID: "txn:1", Label: "TXN 4411", Desc: "Card payment", Section: "Transactions"},
		{ID: "rule:ATO01", Label: "ATO01", Desc: "Account takeover", Section: "Rules"},
	}
	var picked PickerItem
	s := NewPickerModal("Find record", "screen:record-picker", items, func(it PickerItem) tea.Msg {
		picked = it
		return nil
	})
	for _, r := range "ato" {
		s.Update(runes(string(r)))
	}
	got := s.Items()
	if len(got) != 1 || got[0].ID != "rule:ATO01" {
		t.Fatalf("filtered = %+v", got)
	}
	_, cmd, pop := s.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !pop || cmd == nil {
		t.Fatalf("enter should select and close")
	}
	cmd()
	if picked.ID != "rule:ATO01" {
		t.Fatalf("picked = %+v", picked)
	}
}

func TestPickerModalViewShowsSections(t *testing.T) {
	s := NewPickerModal("Find record", "screen:record-picker", []PickerItem{
		{ID: "a", Label: "TXN 1", Section: "Transactions"},
		{ID: "b", Label: "ATO01", Section: "Rules"},
	}, nil)
	view := ansi.Strip(s.View(60, 20))
	for _, want := range []string{"Find record", "Transactions", "Rules", "TXN 1", "ATO01"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	if _, _, pop := s.Update(tea.KeyMsg{Type: tea.KeyEsc}); !pop {
		t.Fatalf("esc should close")
	}
}

func TestCommandScreenFiltersAndExecutes(t *testing.T) {
	all := []CommandOption{
		{ID: "rules:simulate", Name: "Simulate rule"},
		{ID: "app:new-tab", Name: "New artifact tab"},
	}
	search := func(q string) []CommandOption {
		var out []CommandOption
		for _, c := range all {
			if q == "" || strings.Contains(strings.ToLower(c.Name), strings.ToLower(q)) {
				out = append(out, c)
			}
		}
		return out
	}
	s := NewCommandScreen("page:rules", search, func(id string) tea.Msg {
		return core.CommandExecuteMsg{CommandID: id}
	})
	if s.Len() != 2 {
		t.Fatalf("initial commands = %d", s.Len())
	}
	for _, r := range "simu" {
		s.Update(runes(string(r)))
	}
	if s.Len() != 1 {
		t.Fatalf("filtered commands = %d", s.Len())
	}
	_, cmd, pop := s.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !pop || cmd == nil {
		t.Fatalf("enter should run the command")
	}
	if msg, ok := cmd().(core.CommandExecuteMsg); !ok || msg.CommandID != "rules:simulate" {
		t.Fatalf("msg = %#v", cmd())
	}
}

func TestCommandScreenDisabledReportsReason(t *testing.T) {
	s := NewCommandScreen("page:rules", func(string) []CommandOption {
		return []CommandOption{{ID: "x", Name: "X", Disabled: true, Reason: "no rule selected"}}
	}, nil)
	_, cmd, pop := s.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !pop {
		t.Fatalf("enter should close the palette")
	}
	if msg, ok := cmd().(core.StatusMsg); !ok || msg.Text != "no rule selected" {
		t.Fatalf("msg = %#v", cmd())
	}
}

func TestOpenCommandScreenUsesRegistry(t *testing.T) {
	reg := core.NewCommandRegistry([]core.Command{
		{ID: "rules:simulate", Name: "Simulate rule", Scopes: []string{"page:rules"}},
		{ID: "alerts:toggle", Name: "Toggle alert", Scopes: []string{"page:alerts"}},
	})
	m := core.NewModel(nil, nil, reg, core.Deps{})
	t.Cleanup(m.Artifacts.Close)
	s := OpenCommandScreen(&m, "page:rules").(*CommandScreen)
	if s.Len() != 1 {
		t.Fatalf("scoped commands = %d, want 1", s.Len())
	}
}
