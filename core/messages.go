package core

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/riskdesk/internal/artifact"
)

type StatusMsg struct {
	Text  string
	IsErr bool
}

type PushScreenMsg struct {
	Screen Screen
}

type PopScreenMsg struct{}

type CommandExecuteMsg struct {
	CommandID string
}

type PageSwitchMsg struct {
	ID string
}

// PublishArtifactMsg hands an artifact to the workspace store.
type PublishArtifactMsg struct {
	Artifact artifact.Artifact
}

// FlushTabsMsg delivers tab notifications that were deferred during the
// previous update.
type FlushTabsMsg struct{}

type JumpTargetSelectedMsg struct {
	Key string
}

func StatusCmd(text string) tea.Cmd {
	return func() tea.Msg { return StatusMsg{Text: text} }
}

func ErrorCmd(err error) tea.Cmd {
	return func() tea.Msg {
		if err == nil {
			return StatusMsg{Text: "", IsErr: false}
		}
		return StatusMsg{Text: err.Error(), IsErr: true}
	}
}

// PublishCmd publishes a to the workspace on the next loop turn.
func PublishCmd(a artifact.Artifact) tea.Cmd {
	return func() tea.Msg { return PublishArtifactMsg{Artifact: a} }
}
