package core

import (
	"context"
	"database/sql"

	tea "github.com/charmbracelet/bubbletea"
	"pkt.systems/pslog"

	"github.com/jask/riskdesk/internal/panel"
	"github.com/jask/riskdesk/internal/workspace"
	"github.com/jask/riskdesk/widgets"
)

type Screen interface {
	Update(msg tea.Msg) (Screen, tea.Cmd, bool)
	View(width, height int) string
	Scope() string
	Title() string
}

// Page is one entry of the sidebar, e.g. Strategy / Rules.
type Page interface {
	ID() string
	Title() string
	Group() string
	Scope() string
	Update(m *Model, msg tea.Msg) tea.Cmd
	Build(m *Model) widgets.Widget
}

type PaneKeyHandler interface {
	HandlePaneKey(m *Model, msg tea.KeyMsg) (bool, tea.Cmd)
	ActivePaneTitle() string
}

type PageInitializer interface {
	InitPage(m *Model) tea.Cmd
}

// Focus says whether keys go to the page or to the artifact panel.
type Focus int

const (
	FocusPage Focus = iota
	FocusArtifacts
)

// Deps are the shared services handed to the model.
type Deps struct {
	DB        *sql.DB
	Workspace *workspace.Store
	Layout    *panel.Layout
	Artifacts *ArtifactHost
	Logger    pslog.Logger
	StartPage string
}

type Model struct {
	width      int
	height     int
	pages      []Page
	activePage int
	screens    ScreenStack
	keys       *KeyRegistry
	commands   *CommandRegistry
	status     string
	statusErr  bool
	quitting   bool
	focus      Focus

	DB        *sql.DB
	Workspace *workspace.Store
	Layout    *panel.Layout
	Artifacts *ArtifactHost
	Log       pslog.Logger

	OpenCommandModal func(m *Model, scope string) Screen
	OpenRecordPicker func(m *Model) Screen
	OpenJumpPicker   func(m *Model, targets []JumpTarget) Screen
}

func NewModel(pages []Page, keys *KeyRegistry, commands *CommandRegistry, deps Deps) Model {
	if deps.Logger == nil {
		deps.Logger = pslog.Ctx(context.Background())
	}
	if deps.Workspace == nil {
		deps.Workspace = workspace.New(deps.Logger)
	}
	if deps.Layout == nil {
		deps.Layout = panel.NewLayout()
	}
	if deps.Artifacts == nil {
		deps.Artifacts = NewArtifactHost(deps.Workspace, deps.Layout, ArtifactOptions{Logger: deps.Logger})
	}
	if keys == nil {
		keys = NewKeyRegistry(nil)
	}
	if commands == nil {
		commands = NewCommandRegistry(nil)
	}
	m := Model{
		pages:     pages,
		keys:      keys,
		commands:  commands,
		status:    "Ready",
		width:     100,
		height:    32,
		DB:        deps.DB,
		Workspace: deps.Workspace,
		Layout:    deps.Layout,
		Artifacts: deps.Artifacts,
		Log:       deps.Logger,
	}
	if idx := m.pageIndex(deps.StartPage); idx >= 0 {
		m.activePage = idx
	}
	m.syncPage()
	m.Artifacts.Resize(m.width, m.bodyHeight())
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.pages))
	for _, p := range m.pages {
		if init, ok := p.(PageInitializer); ok {
			if cmd := init.InitPage(&m); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) SetStatus(msg string) {
	m.status = msg
	m.statusErr = false
}

func (m *Model) SetError(err error) {
	if err == nil {
		m.status = ""
		m.statusErr = false
		return
	}
	m.status = err.Error()
	m.statusErr = true
}

func (m Model) Status() (string, bool) { return m.status, m.statusErr }

func (m Model) ActiveScope() string {
	if top := m.screens.Top(); top != nil {
		return top.Scope()
	}
	if m.focus == FocusArtifacts {
		return ScopeArtifacts
	}
	if page := m.ActivePage(); page != nil {
		return page.Scope()
	}
	return "app"
}

func (m Model) ActivePage() Page {
	if m.activePage < 0 || m.activePage >= len(m.pages) {
		return nil
	}
	return m.pages[m.activePage]
}

func (m Model) Pages() []Page { return m.pages }

func (m Model) Focus() Focus { return m.focus }

func (m Model) Size() (int, int) { return m.width, m.height }

func (m *Model) pageIndex(id string) int {
	for i, p := range m.pages {
		if p.ID() == id {
			return i
		}
	}
	return -1
}

// SwitchPage activates the page at index. Leaving a page collapses the
// artifact panel through the workspace store.
func (m *Model) SwitchPage(index int) {
	if index < 0 || index >= len(m.pages) {
		return
	}
	m.activePage = index
	m.focus = FocusPage
	m.syncPage()
}

// SwitchPageByID is SwitchPage for a page id; unknown ids are ignored.
func (m *Model) SwitchPageByID(id string) bool {
	idx := m.pageIndex(id)
	if idx < 0 {
		return false
	}
	m.SwitchPage(idx)
	return true
}

func (m *Model) syncPage() {
	page := m.ActivePage()
	if page == nil {
		return
	}
	m.Workspace.SetActivePage(page.ID())
	m.Workspace.SetNavigation(workspace.Navigation{Group: page.Group(), Item: page.Title()})
}

// ToggleFocus moves key focus between the page and the artifact panel.
func (m *Model) ToggleFocus() {
	if m.focus == FocusArtifacts {
		m.focus = FocusPage
		m.SetStatus("Focus: " + m.Workspace.Navigation().String())
		return
	}
	m.focus = FocusArtifacts
	m.SetStatus("Focus: artifacts")
}

func (m *Model) PushScreen(s Screen) {
	m.screens.Push(s)
}

func (m *Model) CommandRegistry() *CommandRegistry {
	return m.commands
}

func (m *Model) KeyRegistry() *KeyRegistry {
	return m.keys
}
