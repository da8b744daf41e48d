package screens

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/riskdesk/core"
	"github.com/jask/riskdesk/widgets"
)

type CommandOption struct {
	ID       string
	Name     string
	Desc     string
	Disabled bool
	Reason   string
}

func (i CommandOption) Title() string {
	if i.Disabled && i.Reason != "" {
		return fmt.Sprintf("%s (%s)", i.Name, i.Reason)
	}
	return i.Name
}
func (i CommandOption) Description() string { return i.Desc }
func (i CommandOption) FilterValue() string { return i.Name + " " + i.Desc + " " + i.ID }

// CommandScreen is the command palette. The list is refreshed from search on
// every keystroke, so commands disabled by the current state show up greyed.
type CommandScreen struct {
	scope    string
	search   func(query string) []CommandOption
	onSelect func(id string) tea.Msg
	input    textinput.Model
	list     list.Model
}

func NewCommandScreen(scope string, search func(query string) []CommandOption, onSelect func(id string) tea.Msg) *CommandScreen {
	inp := textinput.New()
	inp.Placeholder = "Search commands"
	inp.Prompt = "› "
	inp.Focus()
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(widgets.ColorSelected).BorderForeground(widgets.ColorSelected)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(widgets.ColorMuted).BorderForeground(widgets.ColorSelected)
	lst := list.New(nil, delegate, 64, 14)
	lst.SetShowTitle(false)
	lst.SetShowStatusBar(false)
	lst.SetFilteringEnabled(false)
	lst.SetShowHelp(false)
	s := &CommandScreen{scope: scope, search: search, onSelect: onSelect, input: inp, list: lst}
	s.refresh()
	return s
}

// OpenCommandScreen builds a palette over the model's command registry for
// the scope that was active when it opened.
func OpenCommandScreen(m *core.Model, scope string) core.Screen {
	reg := m.CommandRegistry()
	search := func(query string) []CommandOption {
		results := reg.Search(query, scope, m)
		out := make([]CommandOption, len(results))
		for i, r := range results {
			out[i] = CommandOption{ID: r.CommandID, Name: r.Name, Desc: r.Desc, Disabled: r.Disabled, Reason: r.Reason}
		}
		return out
	}
	return NewCommandScreen(scope, search, func(id string) tea.Msg {
		return core.CommandExecuteMsg{CommandID: id}
	})
}

func (s *CommandScreen) Title() string { return "Commands" }
func (s *CommandScreen) Scope() string { return "screen:command" }

// Len is the number of commands currently listed.
func (s *CommandScreen) Len() int { return len(s.list.Items()) }

func (s *CommandScreen) Update(msg tea.Msg) (core.Screen, tea.Cmd, bool) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			return s, nil, true
		case "enter":
			it, ok := s.list.SelectedItem().(CommandOption)
			if !ok {
				return s, nil, true
			}
			if it.Disabled {
				return s, core.StatusCmd(it.Reason), true
			}
			if s.onSelect != nil {
				return s, func() tea.Msg { return s.onSelect(it.ID) }, true
			}
			return s, nil, true
		case "up", "down", "ctrl+p", "ctrl+n":
			var cmd tea.Cmd
			s.list, cmd = s.list.Update(navKey(msg))
			return s, cmd, false
		}
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	s.refresh()
	return s, cmd, false
}

// navKey maps the emacs-style keys onto the arrows the list understands.
func navKey(msg tea.KeyMsg) tea.KeyMsg {
	switch msg.String() {
	case "ctrl+p":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return msg
}

func (s *CommandScreen) refresh() {
	query := strings.TrimSpace(s.input.Value())
	items := s.search(query)
	ls := make([]list.Item, 0, len(items))
	for _, it := range items {
		ls = append(ls, it)
	}
	_ = s.list.SetItems(ls)
}

var (
	screenTitleStyle = lipgloss.NewStyle().Foreground(widgets.ColorSelected).Bold(true)
	screenHintStyle  = lipgloss.NewStyle().Foreground(widgets.ColorMuted)
)

func (s *CommandScreen) View(width, height int) string {
	s.list.SetWidth(width)
	s.list.SetHeight(max(4, height-3))
	s.input.Width = max(10, width-4)
	header := screenTitleStyle.Render("Commands") + screenHintStyle.Render("  "+s.scope)
	return core.ClipHeight(strings.Join([]string{header, s.input.View(), "", s.list.View()}, "\n"), height)
}
