package app

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/jask/riskdesk/core"
	"github.com/jask/riskdesk/internal/artifact"
	"github.com/jask/riskdesk/internal/database/repository"
	"github.com/jask/riskdesk/widgets"
)

// FeaturePerformance is a feature's fraud rate per bucket and overall.
type FeaturePerformance struct {
	Feature    repository.Feature
	Accounts   int
	Fraud      int
	Rates      []float64
	Overall    float64
	WorstIndex int
}

// AnalyzeFeature computes fraud rates from the feature's buckets. Buckets
// without accounts have a zero rate. WorstIndex is -1 without buckets.
func AnalyzeFeature(f repository.Feature) FeaturePerformance {
	p := FeaturePerformance{Feature: f, Rates: make([]float64, len(f.Buckets)), WorstIndex: -1}
	for i, b := range f.Buckets {
		p.Accounts += b.Total
		p.Fraud += b.Fraud
		if b.Total > 0 {
			p.Rates[i] = float64(b.Fraud) / float64(b.Total)
		}
		if p.WorstIndex < 0 || p.Rates[i] > p.Rates[p.WorstIndex] {
			p.WorstIndex = i
		}
	}
	if p.Accounts > 0 {
		p.Overall = float64(p.Fraud) / float64(p.Accounts)
	}
	return p
}

func (s *Source) FeatureRecords(ctx context.Context) ([]Record, error) {
	features, err := s.Strategy.Features(ctx)
	if err != nil {
		return nil, fmt.Errorf("list features: %w", err)
	}
	out := make([]Record, len(features))
	for i, f := range features {
		out[i] = Record{
			Key:      f.Name,
			Cells:    []string{f.Name, f.Type, f.Language, percent(AnalyzeFeature(f).Overall)},
			Artifact: FeatureArtifact(f),
		}
	}
	return out, nil
}

// Feature looks a feature up by name.
func (s *Source) Feature(ctx context.Context, name string) (repository.Feature, error) {
	features, err := s.Strategy.Features(ctx)
	if err != nil {
		return repository.Feature{}, fmt.Errorf("list features: %w", err)
	}
	for _, f := range features {
		if f.Name == name {
			return f, nil
		}
	}
	return repository.Feature{}, fmt.Errorf("feature %s not found", name)
}

// AnalyzeFeatureCmd publishes the performance of the named feature.
func AnalyzeFeatureCmd(src *Source, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		f, err := src.Feature(ctx, name)
		if err != nil {
			return core.StatusMsg{Text: err.Error(), IsErr: true}
		}
		return core.PublishArtifactMsg{Artifact: FeaturePerformanceArtifact(AnalyzeFeature(f))}
	}
}

// FeatureArtifact shows a feature's definition.
func FeatureArtifact(f repository.Feature) artifact.Artifact {
	body := "## Definition\n\n```" + f.Language + "\n" + strings.TrimRight(f.Expression, "\n") + "\n```\n"
	return artifact.Artifact{
		ID:      artifactID(artifact.KindFeature, f.Name),
		Title:   f.Name,
		Kind:    artifact.KindFeature,
		Summary: f.Description,
		Fields: []artifact.Field{
			{Label: "Type", Value: f.Type},
			{Label: "Language", Value: f.Language},
			{Label: "Buckets", Value: fmt.Sprint(len(f.Buckets))},
		},
		Body: body,
	}
}

// FeaturePerformanceArtifact is the bucket table of an analysed feature.
func FeaturePerformanceArtifact(p FeaturePerformance) artifact.Artifact {
	f := p.Feature
	a := artifact.Artifact{
		ID:      artifactID(artifact.KindFeature, f.Name+"/performance"),
		Title:   "Feature: " + f.Name,
		Kind:    artifact.KindFeature,
		Summary: f.Description,
		Fields: []artifact.Field{
			{Label: "Type", Value: f.Type},
			{Label: "Accounts", Value: humanize.Comma(int64(p.Accounts))},
			{Label: "Fraud", Value: humanize.Comma(int64(p.Fraud))},
			{Label: "Overall fraud rate", Value: percent(p.Overall)},
		},
	}
	a.Render = func(a artifact.Artifact, width int) string {
		return renderFeaturePerformance(a, p, width)
	}
	return a
}

func renderFeaturePerformance(a artifact.Artifact, p FeaturePerformance, width int) string {
	if width <= 0 {
		return ""
	}
	lines := []string{
		simTitleStyle.Render(a.Title),
		simLabelStyle.Render(p.Feature.Type + " · " + p.Feature.Language),
		"",
		simLabelStyle.Render("Overall fraud rate ") + percent(p.Overall),
		"",
	}
	rows := make([][]string, 0, len(p.Feature.Buckets)+1)
	for i, b := range p.Feature.Buckets {
		rows = append(rows, []string{b.Label, humanize.Comma(int64(b.Total)), humanize.Comma(int64(b.Fraud)), percent(p.Rates[i])})
	}
	rows = append(rows, []string{"Total", humanize.Comma(int64(p.Accounts)), humanize.Comma(int64(p.Fraud)), percent(p.Overall)})
	worst := p.WorstIndex
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(widgets.ColorBorder)).
		Headers("Bucket", "Accounts", "Fraud", "Fraud rate").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == worst && col == 3 {
				return simWarnStyle
			}
			return lipgloss.NewStyle()
		}).
		Width(min(width, 60))
	lines = append(lines, t.Render())
	return strings.Join(lines, "\n")
}
