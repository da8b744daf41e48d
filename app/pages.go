package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/riskdesk/core"
	"github.com/jask/riskdesk/widgets"
)

// Page groups shown in the header.
const (
	GroupMerchant = "Merchant"
	GroupStrategy = "Strategy"
)

// DefaultStartPage is the page shown at launch unless configured otherwise.
const DefaultStartPage = "rules"

var (
	channelColumns = []Column{
		{Title: "Ref", Weight: 1}, {Title: "Type", Weight: 1}, {Title: "Name", Weight: 2}, {Title: "Status", Weight: 1},
	}
	flagColumns = []Column{
		{Title: "Section", Weight: 1}, {Title: "Severity", Weight: 1}, {Title: "Finding", Weight: 4},
	}
	transactionColumns = []Column{
		{Title: "Time", Weight: 1.2}, {Title: "Ref", Weight: 1.2}, {Title: "Counterparty", Weight: 2}, {Title: "Amount", Weight: 1}, {Title: "Risk", Weight: 0.5}, {Title: "Status", Weight: 1},
	}
	payoutColumns = []Column{
		{Title: "Time", Weight: 1}, {Title: "Ref", Weight: 1}, {Title: "Amount", Weight: 1}, {Title: "Status", Weight: 1},
	}
	communicationColumns = []Column{
		{Title: "Time", Weight: 1}, {Title: "Kind", Weight: 0.7}, {Title: "Subject", Weight: 2.5}, {Title: "Status", Weight: 0.8},
	}
	timelineColumns = []Column{
		{Title: "Time", Weight: 1}, {Title: "Kind", Weight: 0.8}, {Title: "Event", Weight: 2.5},
	}
	ruleColumns = []Column{
		{Title: "Code", Weight: 0.7}, {Title: "Name", Weight: 2.5}, {Title: "Category", Weight: 1}, {Title: "Risk", Weight: 0.8}, {Title: "Triggers", Weight: 0.8},
	}
	modelColumns = []Column{
		{Title: "Name", Weight: 2}, {Title: "Version", Weight: 1}, {Title: "Stage", Weight: 1}, {Title: "AUC", Weight: 0.7},
	}
	alertColumns = []Column{
		{Title: "Name", Weight: 2}, {Title: "Severity", Weight: 1}, {Title: "Channel", Weight: 1}, {Title: "Enabled", Weight: 0.7},
	}
	riskColumns = []Column{
		{Title: "Category", Weight: 1.3}, {Title: "Score", Weight: 0.5}, {Title: "Level", Weight: 0.6}, {Title: "Top indicator", Weight: 2},
	}
	caseColumns = []Column{
		{Title: "Case", Weight: 0.8}, {Title: "Title", Weight: 2}, {Title: "Status", Weight: 0.9}, {Title: "Priority", Weight: 0.7}, {Title: "Assignee", Weight: 1},
	}
	linkageColumns = []Column{
		{Title: "Entity", Weight: 2}, {Title: "Relation", Weight: 1.3}, {Title: "Links", Weight: 0.5}, {Title: "Risk", Weight: 0.6},
	}
	footprintColumns = []Column{
		{Title: "Source", Weight: 1}, {Title: "Signal", Weight: 2}, {Title: "Score", Weight: 0.5},
	}
	featureColumns = []Column{
		{Title: "Feature", Weight: 2}, {Title: "Type", Weight: 1}, {Title: "Language", Weight: 0.8}, {Title: "Fraud rate", Weight: 0.8},
	}
)

// Listing is a record query and the columns it fills.
type Listing struct {
	Kind    string
	Columns []Column
	Load    func(ctx context.Context) ([]Record, error)
}

// Listings returns every record query by kind, as printed by the CLI.
func Listings(src *Source) []Listing {
	return []Listing{
		{Kind: "transactions", Columns: transactionColumns, Load: src.TransactionRecords},
		{Kind: "payouts", Columns: payoutColumns, Load: src.PayoutRecords},
		{Kind: "channels", Columns: channelColumns, Load: src.ChannelRecords},
		{Kind: "communications", Columns: communicationColumns, Load: src.CommunicationRecords},
		{Kind: "timeline", Columns: timelineColumns, Load: src.TimelineRecords},
		{Kind: "flags", Columns: flagColumns, Load: src.FlagRecords},
		{Kind: "rules", Columns: ruleColumns, Load: src.RuleRecords},
		{Kind: "models", Columns: modelColumns, Load: src.ModelRecords},
		{Kind: "alerts", Columns: alertColumns, Load: src.AlertRecords},
		{Kind: "risk", Columns: riskColumns, Load: src.RiskRecords},
		{Kind: "cases", Columns: caseColumns, Load: src.CaseRecords},
		{Kind: "linkages", Columns: linkageColumns, Load: src.LinkageRecords},
		{Kind: "footprint", Columns: footprintColumns, Load: src.FootprintRecords},
		{Kind: "features", Columns: featureColumns, Load: src.FeatureRecords},
	}
}

// Pages builds the workspace pages in header order.
func Pages(src *Source, sim *Simulator) []core.Page {
	return []core.Page{
		NewInvestigationPage(src),
		NewProfilePage(src),
		NewActivityPage(src),
		NewCommsPage(src),
		NewRulesPage(src, sim),
		NewModelsPage(src),
		NewAlertsPage(src),
	}
}

func recordFactory(columns []Column, load func(ctx context.Context) ([]Record, error), actions ...RecordAction) func(core.PaneSpec) core.Pane {
	return func(spec core.PaneSpec) core.Pane {
		return NewRecordPane(spec, columns, load, actions...)
	}
}

func textFactory(load func(ctx context.Context) (string, error)) func(core.PaneSpec) core.Pane {
	return func(spec core.PaneSpec) core.Pane {
		return NewTextPane(spec, load)
	}
}

// NewInvestigationPage is the analyst's case view of the merchant: overview,
// risk breakdown, red flags, cases, linkages and digital footprint.
func NewInvestigationPage(src *Source) *core.GeneratedPage {
	specs := []core.PaneSpec{
		{ID: "overview", Title: "Overview", Scope: "pane:investigation:overview", JumpKey: 'o', Factory: textFactory(src.InvestigationOverview)},
		{ID: "risk", Title: "Risk", Scope: "pane:records:risk", JumpKey: 'r', Focusable: true, Factory: recordFactory(riskColumns, src.RiskRecords)},
		{ID: "flags", Title: "Red Flags", Scope: "pane:records:flags", JumpKey: 'f', Focusable: true, Factory: recordFactory(flagColumns, src.FlagRecords)},
		{ID: "cases", Title: "Cases", Scope: "pane:records:cases", JumpKey: 'c', Focusable: true, Factory: recordFactory(caseColumns, src.CaseRecords)},
		{ID: "linkages", Title: "Linkages", Scope: "pane:records:linkages", JumpKey: 'l', Focusable: true, Factory: recordFactory(linkageColumns, src.LinkageRecords)},
		{ID: "footprint", Title: "Digital Footprint", Scope: "pane:records:footprint", JumpKey: 'd', Focusable: true, Factory: recordFactory(footprintColumns, src.FootprintRecords)},
	}
	row := func(host *core.PaneHost, left, right string, ratios ...float64) widgets.Widget {
		return widgets.HStack{
			Widgets: []widgets.Widget{host.BuildPane(left), host.BuildPane(right)},
			Ratios:  ratios,
			Gap:     1,
		}
	}
	layout := func(host *core.PaneHost, m *core.Model) widgets.Widget {
		return widgets.VStack{
			Widgets: []widgets.Widget{
				row(host, "overview", "risk", 0.45, 0.55),
				row(host, "flags", "cases", 0.5, 0.5),
				row(host, "linkages", "footprint", 0.55, 0.45),
			},
			Ratios: []float64{0.36, 0.32, 0.32},
		}
	}
	return core.NewGeneratedPage("investigation", GroupMerchant, "Investigation", specs, layout)
}

func NewProfilePage(src *Source) *core.GeneratedPage {
	specs := []core.PaneSpec{
		{ID: "summary", Title: "Merchant", Scope: "pane:profile:summary", JumpKey: 's', Factory: textFactory(src.MerchantProfile)},
		{ID: "channels", Title: "Channels", Scope: "pane:records:channels", JumpKey: 'c', Focusable: true, Factory: recordFactory(channelColumns, src.ChannelRecords)},
	}
	layout := func(host *core.PaneHost, m *core.Model) widgets.Widget {
		return widgets.VStack{
			Widgets: []widgets.Widget{host.BuildPane("summary"), host.BuildPane("channels")},
			Ratios:  []float64{0.4, 0.6},
		}
	}
	return core.NewGeneratedPage("profile", GroupMerchant, "Profile", specs, layout)
}

func NewActivityPage(src *Source) *core.GeneratedPage {
	specs := []core.PaneSpec{
		{ID: "transactions", Title: "Transactions", Scope: "pane:records:transactions", JumpKey: 't', Focusable: true, Factory: recordFactory(transactionColumns, src.TransactionRecords)},
		{ID: "payouts", Title: "Payouts", Scope: "pane:records:payouts", JumpKey: 'p', Focusable: true, Factory: recordFactory(payoutColumns, src.PayoutRecords)},
	}
	layout := func(host *core.PaneHost, m *core.Model) widgets.Widget {
		return widgets.VStack{
			Widgets: []widgets.Widget{host.BuildPane("transactions"), host.BuildPane("payouts")},
			Ratios:  []float64{0.6, 0.4},
		}
	}
	return core.NewGeneratedPage("activity", GroupMerchant, "Activity", specs, layout)
}

func NewCommsPage(src *Source) *core.GeneratedPage {
	specs := []core.PaneSpec{
		{ID: "communications", Title: "Communications", Scope: "pane:records:communications", JumpKey: 'c', Focusable: true, Factory: recordFactory(communicationColumns, src.CommunicationRecords)},
		{ID: "timeline", Title: "Timeline", Scope: "pane:records:timeline", JumpKey: 't', Focusable: true, Factory: recordFactory(timelineColumns, src.TimelineRecords)},
	}
	layout := func(host *core.PaneHost, m *core.Model) widgets.Widget {
		return widgets.HStack{
			Widgets: []widgets.Widget{host.BuildPane("communications"), host.BuildPane("timeline")},
			Ratios:  []float64{0.55, 0.45},
			Gap:     1,
		}
	}
	return core.NewGeneratedPage("comms", GroupMerchant, "Comms", specs, layout)
}

// SimulateCmd replays the rule with the given code and publishes the result.
func SimulateCmd(src *Source, sim *Simulator, code string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		rule, err := src.Rule(ctx, code)
		if err != nil {
			return core.StatusMsg{Text: err.Error(), IsErr: true}
		}
		return core.PublishArtifactMsg{Artifact: SimulationArtifact(sim.Simulate(rule))}
	}
}

func NewRulesPage(src *Source, sim *Simulator) *core.GeneratedPage {
	simulate := RecordAction{Key: "s", Description: "simulate", Run: func(rec Record) tea.Cmd {
		return SimulateCmd(src, sim, rec.Key)
	}}
	analyze := RecordAction{Key: "a", Description: "analyze", Run: func(rec Record) tea.Cmd {
		return AnalyzeFeatureCmd(src, rec.Key)
	}}
	specs := []core.PaneSpec{
		{ID: "rules", Title: "Rules", Scope: "pane:records:rules", JumpKey: 'r', Focusable: true, Factory: recordFactory(ruleColumns, src.RuleRecords, simulate)},
		{ID: "performance", Title: "Performance", Scope: "pane:rules:performance", JumpKey: 'p', Factory: textFactory(src.RulePerformance)},
		{ID: "features", Title: "Features", Scope: "pane:records:features", JumpKey: 'f', Focusable: true, Factory: recordFactory(featureColumns, src.FeatureRecords, analyze)},
	}
	layout := func(host *core.PaneHost, m *core.Model) widgets.Widget {
		return widgets.VStack{
			Widgets: []widgets.Widget{
				host.BuildPane("rules"),
				widgets.HStack{
					Widgets: []widgets.Widget{host.BuildPane("performance"), host.BuildPane("features")},
					Ratios:  []float64{0.45, 0.55},
					Gap:     1,
				},
			},
			Ratios: []float64{0.6, 0.4},
		}
	}
	return core.NewGeneratedPage("rules", GroupStrategy, "Rules", specs, layout)
}

func NewModelsPage(src *Source) *core.GeneratedPage {
	specs := []core.PaneSpec{
		{ID: "models", Title: "Models", Scope: "pane:records:models", JumpKey: 'm', Focusable: true, Factory: recordFactory(modelColumns, src.ModelRecords)},
	}
	layout := func(host *core.PaneHost, m *core.Model) widgets.Widget {
		return host.BuildPane("models")
	}
	return core.NewGeneratedPage("models", GroupStrategy, "Models", specs, layout)
}

// ToggleAlertCmd flips an alert and reports the new state.
func ToggleAlertCmd(src *Source, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		alert, err := src.ToggleAlert(ctx, id)
		if err != nil {
			return core.StatusMsg{Text: err.Error(), IsErr: true}
		}
		return core.StatusMsg{Text: fmt.Sprintf("Alert %s %s", alert.Name, enabledLabel(alert.Enabled))}
	}
}

func NewAlertsPage(src *Source) *core.GeneratedPage {
	var pane *RecordPane
	toggle := RecordAction{Key: "e", Description: "enable/disable", Run: func(rec Record) tea.Cmd {
		return tea.Sequence(ToggleAlertCmd(src, rec.Key), pane.Reload())
	}}
	specs := []core.PaneSpec{
		{ID: "alerts", Title: "Alerts", Scope: "pane:records:alerts", JumpKey: 'a', Focusable: true, Factory: func(spec core.PaneSpec) core.Pane {
			pane = NewRecordPane(spec, alertColumns, src.AlertRecords, toggle)
			return pane
		}},
	}
	layout := func(host *core.PaneHost, m *core.Model) widgets.Widget {
		return host.BuildPane("alerts")
	}
	return core.NewGeneratedPage("alerts", GroupStrategy, "Alerts", specs, layout)
}

// recordPanes lists the record panes of every generated page, in page order.
func recordPanes(pages []core.Page) []*RecordPane {
	var out []*RecordPane
	for _, p := range pages {
		gp, ok := p.(*core.GeneratedPage)
		if !ok {
			continue
		}
		for _, pane := range gp.Host().Panes() {
			if rp, ok := pane.(*RecordPane); ok {
				out = append(out, rp)
			}
		}
	}
	return out
}
