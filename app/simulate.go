package app

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/jask/riskdesk/internal/artifact"
	"github.com/jask/riskdesk/internal/database/repository"
	"github.com/jask/riskdesk/widgets"
)

// Thresholds below which a simulated metric is flagged.
const (
	goodPrecision = 0.7
	goodRecall    = 0.8
)

// simulationMonths is how many trailing months a simulation reports.
const simulationMonths = 3

type MonthlyStat struct {
	Month       string
	Triggers    int
	FraudCaught int
	Precision   float64
}

// SimulationResult is the outcome of replaying a rule over past traffic.
type SimulationResult struct {
	Rule          string
	Conditions    []string
	Queue         string
	TotalAccounts int
	FraudAccounts int
	Precision     float64
	Recall        float64
	Monthly       []MonthlyStat
	RanAt         time.Time
}

// Simulator produces simulation results. There is no replay backend, so the
// figures are drawn at random around plausible values.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func NewSimulator(seed uint64, now func() time.Time) *Simulator {
	if now == nil {
		now = time.Now
	}
	return &Simulator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), now: now}
}

func (s *Simulator) between(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// Simulate is safe to call from concurrent commands.
func (s *Simulator) Simulate(rule repository.Rule) SimulationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	res := SimulationResult{
		Rule:          strings.TrimSpace(rule.Code + " " + rule.Name),
		Conditions:    append([]string(nil), rule.Conditions...),
		Queue:         rule.Queue,
		TotalAccounts: 10000 + s.rng.IntN(10000),
		Precision:     s.between(0.6, 0.9),
		Recall:        s.between(0.7, 0.95),
		RanAt:         now,
	}
	res.FraudAccounts = res.TotalAccounts * (2 + s.rng.IntN(3)) / 100
	for i := simulationMonths; i >= 1; i-- {
		triggers := 250 + s.rng.IntN(200)
		precision := s.between(0.6, 0.9)
		res.Monthly = append(res.Monthly, MonthlyStat{
			Month:       now.AddDate(0, -i, 0).Format("2006-01"),
			Triggers:    triggers,
			FraudCaught: int(float64(triggers) * precision),
			Precision:   precision,
		})
	}
	return res
}

func verdict(value, threshold float64) string {
	if value >= threshold {
		return "good"
	}
	return "needs improvement"
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func SimulationArtifact(res SimulationResult) artifact.Artifact {
	a := artifact.Artifact{
		ID:      artifactID(artifact.KindSimulation, res.Rule+"@"+res.RanAt.Format(time.RFC3339Nano)),
		Title:   "Simulation: " + res.Rule,
		Kind:    artifact.KindSimulation,
		Summary: "Route to " + res.Queue,
		Fields: []artifact.Field{
			{Label: "Total accounts", Value: humanize.Comma(int64(res.TotalAccounts))},
			{Label: "Fraud accounts", Value: humanize.Comma(int64(res.FraudAccounts))},
			{Label: "Precision", Value: percent(res.Precision) + " " + verdict(res.Precision, goodPrecision)},
			{Label: "Recall", Value: percent(res.Recall) + " " + verdict(res.Recall, goodRecall)},
		},
	}
	a.Render = func(a artifact.Artifact, width int) string {
		return renderSimulation(a, res, width)
	}
	return a
}

var (
	simTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(widgets.ColorSelected)
	simLabelStyle = lipgloss.NewStyle().Foreground(widgets.ColorMuted)
	simGoodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	simWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af"))
)

func metric(label string, value, threshold float64) string {
	style := simWarnStyle
	if value >= threshold {
		style = simGoodStyle
	}
	return simLabelStyle.Render(label+" ") + style.Render(percent(value)+" "+verdict(value, threshold))
}

func renderSimulation(a artifact.Artifact, res SimulationResult, width int) string {
	if width <= 0 {
		return ""
	}
	lines := []string{simTitleStyle.Render(a.Title), "", simLabelStyle.Render("Rule definition")}
	for i, c := range res.Conditions {
		prefix := "  "
		if i > 0 {
			prefix = "  AND "
		}
		lines = append(lines, prefix+c)
	}
	lines = append(lines,
		"  → "+a.Summary,
		"",
		simLabelStyle.Render("Total accounts ")+humanize.Comma(int64(res.TotalAccounts)),
		simLabelStyle.Render("Fraud accounts ")+humanize.Comma(int64(res.FraudAccounts)),
		metric("Precision", res.Precision, goodPrecision),
		metric("Recall   ", res.Recall, goodRecall),
		"",
	)
	rows := make([][]string, len(res.Monthly))
	for i, m := range res.Monthly {
		rows[i] = []string{m.Month, humanize.Comma(int64(m.Triggers)), humanize.Comma(int64(m.FraudCaught)), percent(m.Precision)}
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(widgets.ColorBorder)).
		Headers("Month", "Triggers", "Fraud caught", "Precision").
		Rows(rows...).
		Width(min(width, 60))
	lines = append(lines, t.Render())
	return strings.Join(lines, "\n")
}
