package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/riskdesk/core"
	"github.com/jask/riskdesk/screens"
)

const recordPickerScope = "screen:record-picker"

// ConfigureModel installs the screens and commands of the workspace.
func ConfigureModel(m *core.Model, src *Source, sim *Simulator) {
	if m == nil {
		return
	}
	m.OpenCommandModal = screens.OpenCommandScreen
	m.OpenRecordPicker = OpenRecordPicker

	keys := m.KeyRegistry()
	keys.Register(core.KeyBinding{Keys: []string{"s"}, Action: "rules:simulate", Description: "simulate", Scopes: []string{"pane:records:rules"}})
	keys.Register(core.KeyBinding{Keys: []string{"e"}, Action: "alerts:toggle", Description: "enable/disable", Scopes: []string{"pane:records:alerts"}})
	keys.Register(core.KeyBinding{Keys: []string{"a"}, Action: "rules:analyze-feature", Description: "analyze", Scopes: []string{"pane:records:features"}})

	RegisterCommands(m.CommandRegistry(), src, sim)
}

// OpenRecordPicker lists every loaded record across pages. Choosing one
// publishes its artifact.
func OpenRecordPicker(m *core.Model) core.Screen {
	var items []screens.PickerItem
	records := map[string]Record{}
	for _, pane := range recordPanes(m.Pages()) {
		for _, rec := range pane.Records() {
			id := rec.Artifact.ID
			if _, dup := records[id]; dup || id == "" {
				continue
			}
			records[id] = rec
			items = append(items, screens.PickerItem{
				ID:      id,
				Label:   rec.Artifact.Title,
				Desc:    rec.Artifact.Summary,
				Section: pane.Title(),
			})
		}
	}
	return screens.NewPickerModal("Find record", recordPickerScope, items, func(it screens.PickerItem) tea.Msg {
		return core.PublishArtifactMsg{Artifact: records[it.ID].Artifact}
	})
}

// selectedRecord is the record under the cursor of a page's record pane.
func selectedRecord(m *core.Model, pageID, paneID string) (Record, bool) {
	for _, p := range m.Pages() {
		gp, ok := p.(*core.GeneratedPage)
		if !ok || gp.ID() != pageID {
			continue
		}
		pane, ok := gp.Host().Pane(paneID)
		if !ok {
			return Record{}, false
		}
		rp, ok := pane.(*RecordPane)
		if !ok {
			return Record{}, false
		}
		return rp.Selected()
	}
	return Record{}, false
}

type reloader interface {
	Reload() tea.Cmd
}

// ReloadCmd queries every pane again.
func ReloadCmd(pages []core.Page) tea.Cmd {
	var cmds []tea.Cmd
	for _, p := range pages {
		gp, ok := p.(*core.GeneratedPage)
		if !ok {
			continue
		}
		for _, pane := range gp.Host().Panes() {
			if r, ok := pane.(reloader); ok {
				cmds = append(cmds, r.Reload())
			}
		}
	}
	return tea.Batch(cmds...)
}

func RegisterCommands(reg *core.CommandRegistry, src *Source, sim *Simulator) {
	for _, p := range []struct{ id, name string }{
		{"investigation", "Merchant / Investigation"},
		{"profile", "Merchant / Profile"},
		{"activity", "Merchant / Activity"},
		{"comms", "Merchant / Comms"},
		{"rules", "Strategy / Rules"},
		{"models", "Strategy / Models"},
		{"alerts", "Strategy / Alerts"},
	} {
		reg.Register(core.Command{
			ID:          "switch-" + p.id,
			Name:        "Go to " + p.name,
			Description: "Activate page",
			Scopes:      []string{"*"},
			Execute: func(m *core.Model) tea.Cmd {
				if !m.SwitchPageByID(p.id) {
					return core.StatusCmd("Unknown page: " + p.id)
				}
				return core.StatusCmd(p.name)
			},
		})
	}
	reg.Register(core.Command{
		ID:          "rules:simulate",
		Name:        "Simulate rule",
		Description: "Replay the selected rule over recent traffic",
		Scopes:      []string{"page:rules", "pane:records:rules", "pane:rules:*"},
		Disabled: func(m *core.Model) (bool, string) {
			if _, ok := selectedRecord(m, "rules", "rules"); !ok {
				return true, "No rule selected"
			}
			return false, ""
		},
		Execute: func(m *core.Model) tea.Cmd {
			rec, _ := selectedRecord(m, "rules", "rules")
			return SimulateCmd(src, sim, rec.Key)
		},
	})
	reg.Register(core.Command{
		ID:          "rules:analyze-feature",
		Name:        "Analyze feature",
		Description: "Fraud rate per bucket of the selected feature",
		Scopes:      []string{"page:rules", "pane:records:features", "pane:rules:*"},
		Disabled: func(m *core.Model) (bool, string) {
			if _, ok := selectedRecord(m, "rules", "features"); !ok {
				return true, "No feature selected"
			}
			return false, ""
		},
		Execute: func(m *core.Model) tea.Cmd {
			rec, _ := selectedRecord(m, "rules", "features")
			return AnalyzeFeatureCmd(src, rec.Key)
		},
	})
	reg.Register(core.Command{
		ID:          "merchant:open",
		Name:        "Open merchant summary",
		Description: "Show the merchant under investigation in the artifact panel",
		Scopes:      []string{"*"},
		Execute: func(m *core.Model) tea.Cmd {
			return OpenMerchantCmd(src)
		},
	})
	reg.Register(core.Command{
		ID:          "alerts:toggle",
		Name:        "Enable/disable alert",
		Description: "Flip the selected alert",
		Scopes:      []string{"page:alerts", "pane:records:alerts"},
		Disabled: func(m *core.Model) (bool, string) {
			if _, ok := selectedRecord(m, "alerts", "alerts"); !ok {
				return true, "No alert selected"
			}
			return false, ""
		},
		Execute: func(m *core.Model) tea.Cmd {
			rec, _ := selectedRecord(m, "alerts", "alerts")
			return tea.Sequence(ToggleAlertCmd(src, rec.Key), ReloadCmd(m.Pages()))
		},
	})
	for _, c := range core.ArtifactCommands() {
		reg.Register(c)
	}
	reg.Register(core.Command{
		ID:          "data:reload",
		Name:        "Reload data",
		Description: "Query every pane again",
		Scopes:      []string{"*"},
		Execute: func(m *core.Model) tea.Cmd {
			return tea.Batch(ReloadCmd(m.Pages()), core.StatusCmd("Reloading"))
		},
	})
}
