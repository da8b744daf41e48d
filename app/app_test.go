package app

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/jask/riskdesk/core"
	"github.com/jask/riskdesk/internal/artifact"
	"github.com/jask/riskdesk/internal/database"
	"github.com/jask/riskdesk/internal/database/repository"
	"github.com/jask/riskdesk/screens"
)

var fixedNow = time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)

func newSource(t *testing.T) *Source {
	t.Helper()
	db, err := database.Bootstrap(context.Background(), database.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSource(db)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// collect runs cmd and flattens batches into the messages they produce.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func findPublish(msgs []tea.Msg) (core.PublishArtifactMsg, bool) {
	for _, msg := range msgs {
		if p, ok := msg.(core.PublishArtifactMsg); ok {
			return p, true
		}
	}
	return core.PublishArtifactMsg{}, false
}

func newWorkspace(t *testing.T) (core.Model, *Source) {
	t.Helper()
	src := newSource(t)
	sim := NewSimulator(7, func() time.Time { return fixedNow })
	m := core.NewModel(Pages(src, sim), core.NewKeyRegistry(core.DefaultKeyBindings()), nil, core.Deps{StartPage: DefaultStartPage})
	t.Cleanup(m.Artifacts.Close)
	ConfigureModel(&m, src, sim)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	m = next.(core.Model)
	for _, msg := range collect(m.Init()) {
		switch msg.(type) {
		case recordsLoadedMsg, textLoadedMsg:
			next, _ = m.Update(msg)
			m = next.(core.Model)
		}
	}
	return m, src
}

func step(t *testing.T, m core.Model, msg tea.Msg) (core.Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(core.Model), cmd
}

func TestPagesHaveUniqueIDs(t *testing.T) {
	src := newSource(t)
	pages := Pages(src, NewSimulator(1, nil))
	seen := map[string]bool{}
	for _, p := range pages {
		require.False(t, seen[p.ID()], "duplicate page %s", p.ID())
		seen[p.ID()] = true
		require.Contains(t, []string{GroupMerchant, GroupStrategy}, p.Group())
	}
	require.True(t, seen[DefaultStartPage])
	require.Equal(t, "investigation", pages[0].ID())
}

func TestRuleRecords(t *testing.T) {
	src := newSource(t)
	records, err := src.RuleRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 9)

	first := records[0]
	require.Equal(t, "ATO01", first.Key)
	require.Equal(t, "rule/ATO01", first.Artifact.ID)
	require.Equal(t, artifact.KindRule, first.Artifact.Kind)
	require.Contains(t, first.Artifact.Body, "## Conditions")
}

func TestMerchantProfile(t *testing.T) {
	src := newSource(t)
	text, err := src.MerchantProfile(context.Background())
	require.NoError(t, err)
	require.Contains(t, text, "Sharma Digital Traders · MER-58213")
	require.Contains(t, text, "risk 92 (high)")
	require.Contains(t, text, "Total value ₹")
}

func TestRulePerformanceCoversEveryCategory(t *testing.T) {
	src := newSource(t)
	ctx := context.Background()
	text, err := src.RulePerformance(ctx)
	require.NoError(t, err)
	categories, err := src.Strategy.RuleCategories(ctx)
	require.NoError(t, err)
	for _, c := range categories {
		require.Contains(t, text, c)
	}
	require.Contains(t, text, "9 rules ·")
}

func TestToggleAlert(t *testing.T) {
	src := newSource(t)
	ctx := context.Background()
	alerts, err := src.Strategy.Alerts(ctx)
	require.NoError(t, err)
	target := alerts[0]

	got, err := src.ToggleAlert(ctx, target.ID)
	require.NoError(t, err)
	require.Equal(t, !target.Enabled, got.Enabled)

	got, err = src.ToggleAlert(ctx, target.ID)
	require.NoError(t, err)
	require.Equal(t, target.Enabled, got.Enabled)

	_, err = src.ToggleAlert(ctx, "missing")
	require.Error(t, err)
}

func TestToggleAlertCmdReportsState(t *testing.T) {
	src := newSource(t)
	alerts, err := src.Strategy.Alerts(context.Background())
	require.NoError(t, err)
	msg, ok := ToggleAlertCmd(src, alerts[0].ID)().(core.StatusMsg)
	require.True(t, ok)
	require.False(t, msg.IsErr)
	require.Equal(t, "Alert "+alerts[0].Name+" "+enabledLabel(!alerts[0].Enabled), msg.Text)
}

func TestSimulatorIsDeterministicForSeed(t *testing.T) {
	rule := repository.Rule{Code: "ATO01", Name: "Profile Changes", Queue: "ATO Review", Conditions: []string{"a", "b"}}
	clock := func() time.Time { return fixedNow }
	a := NewSimulator(42, clock).Simulate(rule)
	b := NewSimulator(42, clock).Simulate(rule)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same seed differs (-a +b):\n%s", diff)
	}

	months := make([]string, len(a.Monthly))
	for i, m := range a.Monthly {
		months[i] = m.Month
		require.LessOrEqual(t, m.FraudCaught, m.Triggers)
	}
	require.Equal(t, []string{"2023-12", "2024-01", "2024-02"}, months)
	require.Equal(t, "ATO01 Profile Changes", a.Rule)
	require.InDelta(t, 0.75, a.Precision, 0.15)
	require.GreaterOrEqual(t, a.TotalAccounts, 10000)
}

func TestSimulationArtifactRender(t *testing.T) {
	res := NewSimulator(3, func() time.Time { return fixedNow }).Simulate(repository.Rule{
		Code: "SYN01", Name: "Shared Device", Queue: "Synthetic ID", Conditions: []string{"devices≥3"},
	})
	a := SimulationArtifact(res)
	require.Equal(t, artifact.KindSimulation, a.Kind)
	require.NotNil(t, a.Render)

	out := ansi.Strip(a.Render(a, 80))
	for _, want := range []string{"Simulation: SYN01 Shared Device", "devices≥3", "→ Route to Synthetic ID", "Precision", "Month", "2024-02"} {
		require.Contains(t, out, want)
	}
	require.Empty(t, a.Render(a, 0))
}

func TestVerdictThresholds(t *testing.T) {
	require.Equal(t, "good", verdict(0.7, goodPrecision))
	require.Equal(t, "needs improvement", verdict(0.69, goodPrecision))
	require.Equal(t, "needs improvement", verdict(0.79, goodRecall))
}

func staticRecords(records ...Record) func(context.Context) ([]Record, error) {
	return func(context.Context) ([]Record, error) { return records, nil }
}

func testPane(load func(context.Context) ([]Record, error), actions ...RecordAction) *RecordPane {
	spec := core.PaneSpec{ID: "rules", Title: "Rules", Scope: "pane:records:rules", JumpKey: 'r', Focusable: true}
	return NewRecordPane(spec, []Column{{Title: "Code", Weight: 1}, {Title: "Name", Weight: 2}}, load, actions...)
}

func TestRecordPaneLoadsAndPublishes(t *testing.T) {
	rec := Record{Key: "ATO01", Cells: []string{"ATO01", "Profile"}, Artifact: artifact.Artifact{ID: "rule/ATO01", Title: "ATO01"}}
	p := testPane(staticRecords(rec))

	require.Nil(t, p.Update(p.Init()()))
	require.Len(t, p.Records(), 1)

	// keys are ignored until the table has focus
	require.Nil(t, p.Update(tea.KeyMsg{Type: tea.KeyEnter}))

	p.OnFocus()
	msg := p.Update(tea.KeyMsg{Type: tea.KeyEnter})()
	pub, ok := msg.(core.PublishArtifactMsg)
	require.True(t, ok)
	require.Equal(t, "rule/ATO01", pub.Artifact.ID)

	view := ansi.Strip(p.View(60, 8, true, true))
	require.Contains(t, view, "Rules (1)")
}

func TestRecordPaneIgnoresOtherScopes(t *testing.T) {
	p := testPane(nil)
	p.Update(recordsLoadedMsg{Scope: "pane:records:alerts", Records: []Record{{Key: "x"}}})
	require.Empty(t, p.Records())
	require.Contains(t, ansi.Strip(p.View(40, 6, false, false)), "Loading")
}

func TestRecordPaneReportsLoadError(t *testing.T) {
	p := testPane(func(context.Context) ([]Record, error) { return nil, errors.New("db gone") })
	cmd := p.Update(p.Init()())
	require.NotNil(t, cmd)
	msg, ok := cmd().(core.StatusMsg)
	require.True(t, ok)
	require.True(t, msg.IsErr)
	require.Contains(t, msg.Text, "load rules: db gone")
}

func TestRecordPaneActionRunsOnSelected(t *testing.T) {
	var got string
	action := RecordAction{Key: "s", Description: "simulate", Run: func(rec Record) tea.Cmd {
		got = rec.Key
		return nil
	}}
	p := testPane(nil, action)
	p.SetRecords([]Record{{Key: "ATO01", Cells: []string{"ATO01"}}, {Key: "ATO02", Cells: []string{"ATO02"}}})
	p.OnFocus()
	p.Update(tea.KeyMsg{Type: tea.KeyDown})
	p.Update(runes("s"))
	require.Equal(t, "ATO02", got)

	// shrinking the rows keeps the cursor in range
	p.SetRecords([]Record{{Key: "ATO01", Cells: []string{"ATO01"}}})
	sel, ok := p.Selected()
	require.True(t, ok)
	require.Equal(t, "ATO01", sel.Key)
}

func TestWorkspaceOpensRuleFromFocusedPane(t *testing.T) {
	m, _ := newWorkspace(t)
	require.Equal(t, "rules", m.ActivePage().ID())

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, "pane:records:rules", m.ActiveScope())

	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	pub, ok := findPublish(collect(cmd))
	require.True(t, ok, "enter on a focused rule should publish it")
	require.Equal(t, "rule/ATO01", pub.Artifact.ID)

	m, _ = step(t, m, pub)
	require.Equal(t, 1, m.Artifacts.Tabs.Len())
	require.False(t, m.Artifacts.Panel.Collapsed())
	require.Contains(t, ansi.Strip(m.View()), "ATO01")
}

func TestSimulateCommandPublishesResult(t *testing.T) {
	m, _ := newWorkspace(t)
	pub, ok := findPublish(collect(m.CommandRegistry().Execute("rules:simulate", &m)))
	require.True(t, ok)
	require.Equal(t, artifact.KindSimulation, pub.Artifact.Kind)
	require.True(t, strings.HasPrefix(pub.Artifact.Title, "Simulation: ATO01"))
}

func TestRecordPickerPublishesChoice(t *testing.T) {
	m, _ := newWorkspace(t)
	picker, ok := OpenRecordPicker(&m).(*screens.PickerModal)
	require.True(t, ok)

	sections := map[string]bool{}
	for _, it := range picker.Items() {
		sections[it.Section] = true
	}
	for _, want := range []string{"Transactions", "Rules", "Alerts", "Channels"} {
		require.True(t, sections[want], "missing section %s", want)
	}

	for _, r := range "IDT01" {
		picker.Update(runes(string(r)))
	}
	idx := -1
	for i, it := range picker.Items() {
		if it.ID == "rule/IDT01" {
			idx = i
			break
		}
	}
	require.GreaterOrEqual(t, idx, 0, "IDT01 should match")
	for range idx {
		picker.Update(tea.KeyMsg{Type: tea.KeyDown})
	}

	_, cmd, pop := picker.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, pop)
	pub, ok := cmd().(core.PublishArtifactMsg)
	require.True(t, ok)
	require.Equal(t, "rule/IDT01", pub.Artifact.ID)
}

func TestCommandsAreScoped(t *testing.T) {
	m, _ := newWorkspace(t)
	ids := func(scope string) []string {
		var out []string
		for _, r := range m.CommandRegistry().Search("", scope, &m) {
			out = append(out, r.CommandID)
		}
		return out
	}
	require.Contains(t, ids("page:rules"), "rules:simulate")
	require.NotContains(t, ids("page:activity"), "rules:simulate")
	require.Contains(t, ids("page:alerts"), "alerts:toggle")
	require.Contains(t, ids("page:activity"), "switch-alerts")
	require.Contains(t, ids("page:rules"), "rules:analyze-feature")
	require.NotContains(t, ids("page:investigation"), "rules:analyze-feature")
	require.Contains(t, ids("page:investigation"), "switch-investigation")

	m, cmd := step(t, m, core.CommandExecuteMsg{CommandID: "switch-activity"})
	require.Equal(t, "activity", m.ActivePage().ID())
	require.NotNil(t, cmd)
}

func TestInvestigationOverview(t *testing.T) {
	src := newSource(t)
	src.Now = func() time.Time { return fixedNow }
	text, err := src.InvestigationOverview(context.Background())
	require.NoError(t, err)

	require.Contains(t, text, "Sharma Digital Traders · MER-58213 · under_review")
	for _, pattern := range []string{
		`Days since onboarding\s+139\n`,
		`Avg daily transactions\s+0\.0\n`,
		`Active cases\s+2\n`,
		`Category risk\s+66 \(medium\)`,
	} {
		require.Regexp(t, regexp.MustCompile(pattern), text)
	}
	notes := text[strings.Index(text, "Recent notes"):]
	require.Less(t, strings.Index(notes, "CASE-123"), strings.Index(notes, "CASE-122"))
	require.NotContains(t, notes, "INV-001")
}

func TestInvestigationRecords(t *testing.T) {
	src := newSource(t)
	ctx := context.Background()

	risk, err := src.RiskRecords(ctx)
	require.NoError(t, err)
	require.Len(t, risk, 4)
	require.Equal(t, []string{"Transaction Risk", "85", "high", "Unusual transaction patterns"}, risk[0].Cells)
	require.Equal(t, "risk/Transaction Risk", risk[0].Artifact.ID)
	require.Contains(t, risk[0].Artifact.Body, "- **high** Unusual transaction patterns")

	cases, err := src.CaseRecords(ctx)
	require.NoError(t, err)
	require.Len(t, cases, 4)
	require.Equal(t, "in progress", cases[1].Cells[2])
	require.Equal(t, artifact.KindCase, cases[1].Artifact.Kind)

	links, err := src.LinkageRecords(ctx)
	require.NoError(t, err)
	require.Len(t, links, 6)
	require.Equal(t, "TechServe Solutions", links[0].Cells[0])
	last := links[len(links)-1]
	require.Equal(t, "Phone: +91 98765 43210", last.Artifact.Title)
	require.Equal(t, "Shared phone", last.Cells[1])
	require.Contains(t, last.Artifact.Body, "- Digital Payments Ltd")

	footprint, err := src.FootprintRecords(ctx)
	require.NoError(t, err)
	require.Len(t, footprint, 4)
	require.Equal(t, []string{"Website", "techserve.com", "85"}, footprint[0].Cells)
	require.Equal(t, "-", footprint[3].Cells[2])
	v, ok := footprint[0].Artifact.Field("SSL")
	require.True(t, ok)
	require.Equal(t, "Valid", v)
}

func TestAnalyzeFeature(t *testing.T) {
	f := repository.Feature{Name: "velocity", Buckets: []repository.FeatureBucket{
		{Label: "low", Total: 100, Fraud: 2},
		{Label: "empty", Total: 0, Fraud: 0},
		{Label: "high", Total: 50, Fraud: 10},
	}}
	p := AnalyzeFeature(f)
	require.Equal(t, 150, p.Accounts)
	require.Equal(t, 12, p.Fraud)
	require.InDelta(t, 0.08, p.Overall, 1e-9)
	require.InDeltaSlice(t, []float64{0.02, 0, 0.2}, p.Rates, 1e-9)
	require.Equal(t, 2, p.WorstIndex)

	empty := AnalyzeFeature(repository.Feature{Name: "none"})
	require.Equal(t, -1, empty.WorstIndex)
	require.Zero(t, empty.Overall)
}

func TestFeaturePerformanceArtifactRender(t *testing.T) {
	src := newSource(t)
	f, err := src.Feature(context.Background(), "days_since_last_txn")
	require.NoError(t, err)

	a := FeaturePerformanceArtifact(AnalyzeFeature(f))
	require.Equal(t, "feature/days_since_last_txn/performance", a.ID)
	v, ok := a.Field("Overall fraud rate")
	require.True(t, ok)
	require.Equal(t, "7.0%", v)

	out := ansi.Strip(a.Render(a, 80))
	for _, want := range []string{"Feature: days_since_last_txn", "Overall fraud rate 7.0%", "50+", "17.0%", "12,400", "868"} {
		require.Contains(t, out, want)
	}
	require.Empty(t, a.Render(a, 0))

	_, err = src.Feature(context.Background(), "missing")
	require.Error(t, err)
}

func TestFeaturePaneAnalyzesSelected(t *testing.T) {
	m, _ := newWorkspace(t)
	var rules *core.GeneratedPage
	for _, p := range m.Pages() {
		if p.ID() == "rules" {
			rules = p.(*core.GeneratedPage)
		}
	}
	require.NotNil(t, rules)
	pane, ok := rules.Host().Pane("features")
	require.True(t, ok)
	features := pane.(*RecordPane)
	require.Len(t, features.Records(), 2)

	features.OnFocus()
	features.Update(tea.KeyMsg{Type: tea.KeyDown})
	pub, ok := findPublish(collect(features.Update(runes("a"))))
	require.True(t, ok)
	require.Equal(t, "feature/max_amt_percentile/performance", pub.Artifact.ID)
}

func TestAnalyzeFeatureCommandPublishes(t *testing.T) {
	m, _ := newWorkspace(t)
	pub, ok := findPublish(collect(m.CommandRegistry().Execute("rules:analyze-feature", &m)))
	require.True(t, ok)
	require.Equal(t, artifact.KindFeature, pub.Artifact.Kind)
	require.Equal(t, "Feature: days_since_last_txn", pub.Artifact.Title)

	m, _ = step(t, m, pub)
	require.Contains(t, ansi.Strip(m.View()), "Feature: days_since_last_txn")
}

func TestMerchantOpenCommand(t *testing.T) {
	m, _ := newWorkspace(t)
	pub, ok := findPublish(collect(m.CommandRegistry().Execute("merchant:open", &m)))
	require.True(t, ok)
	require.Equal(t, "merchant/MER-58213", pub.Artifact.ID)
	v, ok := pub.Artifact.Field("Transactions")
	require.True(t, ok)
	require.Equal(t, "6", v)
}
