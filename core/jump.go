package core

import (
	"fmt"
	"strings"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
)

type JumpTarget struct {
	Key   string
	Label string
}

// JumpTargetProvider is implemented by pages whose panes can be focused by
// a single key from the jump picker.
type JumpTargetProvider interface {
	JumpTargets() []JumpTarget
	JumpToTarget(m *Model, key string) (bool, tea.Cmd)
}

func (m *Model) activateJumpPicker() tea.Cmd {
	provider, ok := m.ActivePage().(JumpTargetProvider)
	if !ok {
		return StatusCmd("No jump targets on this page")
	}
	targets := provider.JumpTargets()
	if len(targets) == 0 {
		return StatusCmd("No jump targets on this page")
	}
	open := m.OpenJumpPicker
	if open == nil {
		open = func(_ *Model, targets []JumpTarget) Screen { return newJumpPickerScreen(targets) }
	}
	m.focus = FocusPage
	m.screens.Push(open(m, targets))
	return nil
}

type jumpPickerScreen struct {
	targetByK map[string]JumpTarget
	picker    *Picker
}

func newJumpPickerScreen(targets []JumpTarget) *jumpPickerScreen {
	items := make([]PickerItem, 0, len(targets))
	targetByK := make(map[string]JumpTarget, len(targets))
	for _, target := range targets {
		k := normalizeJumpKey(target.Key)
		if k == 0 {
			continue
		}
		target.Key = string(k)
		targetByK[target.Key] = target
		items = append(items, PickerItem{
			ID:     target.Key,
			Label:  fmt.Sprintf("[%s] %s", target.Key, target.Label),
			Search: target.Key + " " + target.Label,
		})
	}
	return &jumpPickerScreen{targetByK: targetByK, picker: NewPicker("Jump", items)}
}

func (s *jumpPickerScreen) Title() string { return "Jump" }
func (s *jumpPickerScreen) Scope() string { return "screen:jump-picker" }

func (s *jumpPickerScreen) Update(msg tea.Msg) (Screen, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil, false
	}
	keyName := normalizeKey(keyMsg.String())
	if target, found := s.targetByK[keyName]; found {
		return s, selectJumpTarget(target.Key), true
	}
	result := s.picker.HandleKey(keyName)
	switch result.Action {
	case PickerActionCancelled:
		return s, nil, true
	case PickerActionSelected:
		return s, selectJumpTarget(result.Item.ID), true
	}
	return s, nil, false
}

func selectJumpTarget(key string) tea.Cmd {
	return func() tea.Msg { return JumpTargetSelectedMsg{Key: key} }
}

func (s *jumpPickerScreen) View(width, height int) string {
	lines := []string{mutedStyle.Render("Press a pane key. Esc cancels."), ""}
	cursor := s.picker.Cursor()
	for i, item := range s.picker.Items() {
		prefix := "  "
		if i == cursor {
			prefix = keyStyle.Render("> ")
		}
		lines = append(lines, prefix+item.Label)
	}
	if len(lines) == 2 {
		lines = append(lines, "  No jump targets")
	}
	return ClipHeight(TrimToWidth(strings.Join(lines, "\n"), width), height)
}

func normalizeJumpByte(key byte) byte {
	r := rune(key)
	if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
		return 0
	}
	return byte(unicode.ToLower(r))
}

func normalizeJumpKey(key string) byte {
	key = normalizeKey(key)
	if len(key) != 1 {
		return 0
	}
	return normalizeJumpByte(key[0])
}
