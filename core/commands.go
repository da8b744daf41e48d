package core

import (
	"cmp"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Command is an entry of the command palette. Scopes use the same patterns
// as key bindings; Disabled keeps a command listed but greyed out.
type Command struct {
	ID          string
	Name        string
	Description string
	Scopes      []string
	Execute     func(m *Model) tea.Cmd
	Disabled    func(m *Model) (bool, string)
}

type CommandResult struct {
	CommandID string
	Name      string
	Desc      string
	Disabled  bool
	Reason    string
	score     int
}

type CommandRegistry struct {
	commands map[string]Command
}

func NewCommandRegistry(cmds []Command) *CommandRegistry {
	reg := &CommandRegistry{commands: map[string]Command{}}
	for _, c := range cmds {
		reg.Register(c)
	}
	return reg
}

func (r *CommandRegistry) Register(c Command) {
	if c.ID == "" {
		return
	}
	r.commands[c.ID] = c
}

func (r *CommandRegistry) Len() int { return len(r.commands) }

// descPenalty ranks hits on the description or id below hits on the name.
const descPenalty = 15

// Search ranks the commands visible in scope against query with the record
// picker's matching, so "dupliate tab" still finds "Duplicate artifact tab".
// Enabled commands come first, then better matches, then names.
func (r *CommandRegistry) Search(query, scope string, m *Model) []CommandResult {
	q := strings.TrimSpace(query)
	results := make([]CommandResult, 0, len(r.commands))
	for _, c := range r.commands {
		if !scopeMatch(scope, c.Scopes) {
			continue
		}
		ok, score := matchScore(c.Name, q)
		if !ok {
			ok, score = matchScore(c.Description+" "+c.ID, q)
			score -= descPenalty
		}
		if !ok {
			continue
		}
		res := CommandResult{CommandID: c.ID, Name: c.Name, Desc: c.Description, score: score}
		if c.Disabled != nil {
			res.Disabled, res.Reason = c.Disabled(m)
		}
		results = append(results, res)
	}
	slices.SortFunc(results, func(a, b CommandResult) int {
		if a.Disabled != b.Disabled {
			if !a.Disabled {
				return -1
			}
			return 1
		}
		if a.score != b.score {
			return cmp.Compare(b.score, a.score)
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return results
}

func (r *CommandRegistry) Execute(id string, m *Model) tea.Cmd {
	c, ok := r.commands[id]
	if !ok {
		return StatusCmd("Unknown command: " + id)
	}
	if c.Disabled != nil {
		if disabled, reason := c.Disabled(m); disabled {
			if reason == "" {
				reason = "command is disabled"
			}
			return StatusCmd(reason)
		}
	}
	if c.Execute == nil {
		return nil
	}
	return c.Execute(m)
}

// ArtifactCommands are the palette entries for the artifact panel. Their
// availability follows the tab state: nothing to close without tabs, no
// history step at either end of the active tab's history.
func ArtifactCommands() []Command {
	return []Command{
		{
			ID:          "artifacts:new-tab",
			Name:        "New artifact tab",
			Description: "Open a blank tab that the next record fills",
			Scopes:      []string{"*"},
			Execute: func(m *Model) tea.Cmd {
				m.Artifacts.NewTab()
				return nil
			},
		},
		{
			ID:          "artifacts:close-tab",
			Name:        "Close artifact tab",
			Description: "Close the active tab",
			Scopes:      []string{"*"},
			Disabled:    needsActiveTab,
			Execute: func(m *Model) tea.Cmd {
				m.Artifacts.CloseActive()
				return nil
			},
		},
		{
			ID:          "artifacts:duplicate-tab",
			Name:        "Duplicate artifact tab",
			Description: "Open the active artifact in a second tab",
			Scopes:      []string{"*"},
			Disabled: func(m *Model) (bool, string) {
				t, ok := m.Artifacts.Tabs.ActiveTab()
				if !ok {
					return true, "No active tab"
				}
				if t.Blank {
					return true, "Active tab has no artifact to duplicate"
				}
				return false, ""
			},
			Execute: func(m *Model) tea.Cmd {
				m.Artifacts.DuplicateActive()
				return nil
			},
		},
		{
			ID:          "artifacts:back",
			Name:        "Artifact back",
			Description: "Show the previous entry of the active tab",
			Scopes:      []string{"*"},
			Disabled: func(m *Model) (bool, string) {
				can, ok := m.Artifacts.Tabs.CanGoBack()
				if !ok {
					return true, "No active tab"
				}
				if !can {
					return true, "Nothing to go back to"
				}
				return false, ""
			},
			Execute: func(m *Model) tea.Cmd {
				m.Artifacts.Back()
				return nil
			},
		},
		{
			ID:          "artifacts:forward",
			Name:        "Artifact forward",
			Description: "Show the next entry of the active tab",
			Scopes:      []string{"*"},
			Disabled: func(m *Model) (bool, string) {
				can, ok := m.Artifacts.Tabs.CanGoForward()
				if !ok {
					return true, "No active tab"
				}
				if !can {
					return true, "Nothing to go forward to"
				}
				return false, ""
			},
			Execute: func(m *Model) tea.Cmd {
				m.Artifacts.Forward()
				return nil
			},
		},
		{
			ID:          "artifacts:toggle-panel",
			Name:        "Toggle artifact panel",
			Description: "Collapse or expand the artifact panel",
			Scopes:      []string{"*"},
			Execute: func(m *Model) tea.Cmd {
				m.Artifacts.Toggle()
				return nil
			},
		},
	}
}

func needsActiveTab(m *Model) (bool, string) {
	if _, ok := m.Artifacts.Tabs.ActiveTab(); !ok {
		return true, "No tab to close"
	}
	return false, ""
}
