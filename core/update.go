package core

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/riskdesk/internal/scroll"
)

// Update routes msg and then lets the artifact host catch up: the strip and
// body are re-laid out and any scroll or deferred tab notification the
// update produced is scheduled.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.route(msg)
	if m.quitting {
		return m, cmd
	}
	m.Artifacts.Sync()
	return m, tea.Batch(cmd, m.Artifacts.Pending())
}

func (m *Model) route(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.Artifacts.Resize(m.width, m.bodyHeight())
		return m.broadcast(msg)
	case StatusMsg:
		m.status = msg.Text
		m.statusErr = msg.IsErr
		return nil
	case PushScreenMsg:
		m.screens.Push(msg.Screen)
		return nil
	case PopScreenMsg:
		m.screens.Pop()
		return nil
	case CommandExecuteMsg:
		return m.commands.Execute(msg.CommandID, m)
	case PageSwitchMsg:
		if !m.SwitchPageByID(msg.ID) {
			return StatusCmd("Unknown page: " + msg.ID)
		}
		return nil
	case PublishArtifactMsg:
		a := msg.Artifact
		m.Workspace.Publish(&a)
		m.SetStatus("Opened " + a.Title)
		return nil
	case FlushTabsMsg, scroll.ScrollToEndMsg, scroll.ScrollIntoViewMsg, scroll.FrameMsg:
		return m.Artifacts.Update(msg)
	case JumpTargetSelectedMsg:
		provider, ok := m.ActivePage().(JumpTargetProvider)
		if !ok {
			return nil
		}
		_, cmd := provider.JumpToTarget(m, msg.Key)
		return cmd
	case tea.KeyMsg:
		return m.routeKey(msg)
	case tea.MouseMsg:
		m.routeMouse(msg)
		return nil
	}

	cmds := []tea.Cmd{}
	if top := m.screens.Top(); top != nil {
		cmds = append(cmds, m.updateScreen(top, msg))
	}
	return tea.Batch(append(cmds, m.broadcast(msg))...)
}

func (m *Model) routeKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return tea.Quit
	}
	if top := m.screens.Top(); top != nil {
		return m.updateScreen(top, msg)
	}

	scope := m.ActiveScope()
	if m.keys.IsAction(msg, ActionQuit, scope) {
		m.quitting = true
		return tea.Quit
	}
	if handled, cmd := m.routeArtifactKey(msg, scope); handled {
		return cmd
	}
	if m.keys.IsAction(msg, ActionJump, scope) {
		return m.activateJumpPicker()
	}
	for i := range m.pages {
		if m.keys.IsAction(msg, SwitchPageAction(i+1), scope) {
			m.SwitchPage(i)
			return nil
		}
	}
	if m.keys.IsAction(msg, ActionCommandPalette, scope) && m.OpenCommandModal != nil {
		m.screens.Push(m.OpenCommandModal(m, scope))
		return nil
	}
	if m.keys.IsAction(msg, ActionRecordPicker, scope) && m.OpenRecordPicker != nil {
		m.screens.Push(m.OpenRecordPicker(m))
		return nil
	}
	if m.focus == FocusArtifacts {
		return m.routeFocusedArtifactKey(msg, scope)
	}
	if handler, ok := m.ActivePage().(PaneKeyHandler); ok {
		if handled, cmd := handler.HandlePaneKey(m, msg); handled {
			return cmd
		}
	}
	return m.updatePage(msg)
}

// routeMouse maps left clicks on the artifact panel to panel coordinates.
func (m *Model) routeMouse(msg tea.MouseMsg) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft || m.screens.Top() != nil {
		return
	}
	left := m.width - m.panelWidth()
	top := headerRows + statusRows
	m.Artifacts.Click(msg.X-left, msg.Y-top)
}

func (m *Model) routeArtifactKey(msg tea.KeyMsg, scope string) (bool, tea.Cmd) {
	action := m.keys.ActionFor(msg, scope,
		ActionFocusToggle, ActionPanelToggle, ActionNewTab, ActionCloseTab,
		ActionBack, ActionForward, ActionNextTab, ActionPrevTab,
		ActionMoveTabLeft, ActionMoveTabRight, ActionDuplicateTab,
	)
	host := m.Artifacts
	switch action {
	case ActionFocusToggle:
		if m.focus == FocusPage && host.Panel.Collapsed() {
			host.Panel.Expand()
		}
		m.ToggleFocus()
	case ActionPanelToggle:
		host.Toggle()
		if host.Panel.Collapsed() {
			m.focus = FocusPage
		}
	case ActionNewTab:
		host.NewTab()
	case ActionCloseTab:
		if !host.CloseActive() {
			m.SetStatus("No tab to close")
		}
	case ActionBack:
		if !host.Back() {
			m.SetStatus("Nothing to go back to")
		}
	case ActionForward:
		if !host.Forward() {
			m.SetStatus("Nothing to go forward to")
		}
	case ActionNextTab:
		host.Next()
	case ActionPrevTab:
		host.Previous()
	case ActionMoveTabLeft:
		host.Move(-1)
	case ActionMoveTabRight:
		host.Move(1)
	case ActionDuplicateTab:
		if !host.DuplicateActive() {
			m.SetStatus("Active tab has no artifact to duplicate")
		}
	default:
		return false, nil
	}
	return true, nil
}

func (m *Model) routeFocusedArtifactKey(msg tea.KeyMsg, scope string) tea.Cmd {
	switch m.keys.ActionFor(msg, scope, "pane-blur", "scroll-up", "scroll-down") {
	case "pane-blur":
		m.ToggleFocus()
		return nil
	case "scroll-up", "scroll-down":
		return m.Artifacts.ScrollContent(msg)
	}
	return nil
}

func (m *Model) updateScreen(top Screen, msg tea.Msg) tea.Cmd {
	next, cmd, pop := top.Update(msg)
	if pop {
		m.screens.Pop()
		return cmd
	}
	m.screens.Replace(next)
	return cmd
}

// broadcast hands msg to every page so loads finishing for a page in the
// background are not lost.
func (m *Model) broadcast(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.pages))
	for _, p := range m.pages {
		cmds = append(cmds, p.Update(m, msg))
	}
	return tea.Batch(cmds...)
}

func (m *Model) updatePage(msg tea.Msg) tea.Cmd {
	page := m.ActivePage()
	if page == nil {
		return nil
	}
	return page.Update(m, msg)
}
