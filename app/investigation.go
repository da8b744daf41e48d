package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/jask/riskdesk/core"
	"github.com/jask/riskdesk/internal/artifact"
	"github.com/jask/riskdesk/internal/database/repository"
)

// overviewNotes is how many closed-case notes the overview repeats.
const overviewNotes = 2

// InvestigationOverview is the text of the overview pane: onboarding age,
// activity averages, open cases and the latest case notes.
func (s *Source) InvestigationOverview(ctx context.Context) (string, error) {
	m, err := s.Merchant(ctx)
	if err != nil {
		return "", err
	}
	sum, err := s.Transactions.Summary(ctx, m.ID, HighRiskScore)
	if err != nil {
		return "", fmt.Errorf("summarise transactions: %w", err)
	}
	payouts, err := s.Transactions.Payouts(ctx, m.ID)
	if err != nil {
		return "", fmt.Errorf("list payouts: %w", err)
	}
	cases, err := s.Investigation.Cases(ctx, m.ID)
	if err != nil {
		return "", fmt.Errorf("list cases: %w", err)
	}
	categories, err := s.Investigation.RiskCategories(ctx, m.ID)
	if err != nil {
		return "", fmt.Errorf("list risk categories: %w", err)
	}

	now := s.now()
	days := max(1, int(now.Sub(m.OnboardedOn).Hours()/24))
	avgPayout := "-"
	if len(payouts) > 0 {
		var total int64
		for _, p := range payouts {
			total += p.Amount
		}
		avgPayout = formatAmount(total / int64(len(payouts)))
	}
	active := 0
	var notes []string
	for _, c := range cases {
		if c.Status != "closed" {
			active++
			continue
		}
		if c.Note != "" && len(notes) < overviewNotes {
			notes = append(notes, fmt.Sprintf("  %s %s: %s", c.Ref, c.Title, c.Note))
		}
	}

	lines := []string{
		m.Name + " · " + m.Ref + " · " + m.Status,
		fmt.Sprintf("Onboarded %s (%s)", m.OnboardedOn.Format(dateLayout), humanize.RelTime(m.OnboardedOn, now, "ago", "from now")),
		"",
		fmt.Sprintf("%-24s %d", "Days since onboarding", days),
		fmt.Sprintf("%-24s %.1f", "Avg daily transactions", float64(sum.Count)/float64(days)),
		fmt.Sprintf("%-24s %s", "Average payout", avgPayout),
		fmt.Sprintf("%-24s %d", "Active cases", active),
	}
	if len(categories) > 0 {
		total := 0
		for _, c := range categories {
			total += c.Score
		}
		avg := total / len(categories)
		lines = append(lines, fmt.Sprintf("%-24s %d (%s)", "Category risk", avg, riskLabel(avg)))
	}
	if len(notes) > 0 {
		lines = append(lines, "", "Recent notes")
		lines = append(lines, notes...)
	}
	return strings.Join(lines, "\n"), nil
}

// MerchantSummary is the merchant artifact with its transaction summary.
func (s *Source) MerchantSummary(ctx context.Context) (artifact.Artifact, error) {
	m, err := s.Merchant(ctx)
	if err != nil {
		return artifact.Artifact{}, err
	}
	sum, err := s.Transactions.Summary(ctx, m.ID, HighRiskScore)
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("summarise transactions: %w", err)
	}
	return MerchantArtifact(m, sum), nil
}

func (s *Source) RiskRecords(ctx context.Context) ([]Record, error) {
	m, err := s.Merchant(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.Investigation.RiskCategories(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("list risk categories: %w", err)
	}
	out := make([]Record, len(categories))
	for i, c := range categories {
		top := ""
		if len(c.Indicators) > 0 {
			top = c.Indicators[0].Text
		}
		out[i] = Record{
			Key:      c.Name,
			Cells:    []string{c.Name, strconv.Itoa(c.Score), riskLabel(c.Score), top},
			Artifact: RiskArtifact(c),
		}
	}
	return out, nil
}

func (s *Source) CaseRecords(ctx context.Context) ([]Record, error) {
	m, err := s.Merchant(ctx)
	if err != nil {
		return nil, err
	}
	cases, err := s.Investigation.Cases(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	out := make([]Record, len(cases))
	for i, c := range cases {
		out[i] = Record{
			Key:      c.Ref,
			Cells:    []string{c.Ref, c.Title, caseStatus(c.Status), c.Priority, c.Assignee},
			Artifact: CaseArtifact(c),
		}
	}
	return out, nil
}

// LinkageRecords lists connected entities followed by the identifiers the
// merchant shares with other accounts.
func (s *Source) LinkageRecords(ctx context.Context) ([]Record, error) {
	m, err := s.Merchant(ctx)
	if err != nil {
		return nil, err
	}
	entities, err := s.Investigation.LinkedEntities(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("list linked entities: %w", err)
	}
	shared, err := s.Investigation.SharedIdentifiers(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("list shared identifiers: %w", err)
	}
	out := make([]Record, 0, len(entities)+len(shared))
	for _, e := range entities {
		out = append(out, Record{
			Key:      e.ID,
			Cells:    []string{e.Name, e.Relation, strconv.Itoa(e.ConnectionCount), e.RiskLevel},
			Artifact: LinkedEntityArtifact(e),
		})
	}
	for _, id := range shared {
		out = append(out, Record{
			Key:      id.ID,
			Cells:    []string{id.Value, "Shared " + strings.ToLower(id.Kind), strconv.Itoa(len(id.SharedWith)), "-"},
			Artifact: SharedIdentifierArtifact(id),
		})
	}
	return out, nil
}

func (s *Source) FootprintRecords(ctx context.Context) ([]Record, error) {
	m, err := s.Merchant(ctx)
	if err != nil {
		return nil, err
	}
	signals, err := s.Investigation.FootprintSignals(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("list footprint: %w", err)
	}
	out := make([]Record, len(signals))
	for i, f := range signals {
		out[i] = Record{
			Key:      f.Source,
			Cells:    []string{f.Source, f.Headline, footprintScore(f.Score)},
			Artifact: FootprintArtifact(f),
		}
	}
	return out, nil
}

func caseStatus(status string) string {
	return strings.ReplaceAll(status, "_", " ")
}

func footprintScore(score float64) string {
	if score == 0 {
		return "-"
	}
	return strconv.FormatFloat(score, 'f', -1, 64)
}

func RiskArtifact(c repository.RiskCategory) artifact.Artifact {
	var body strings.Builder
	body.WriteString("## Indicators\n\n")
	for _, ind := range c.Indicators {
		body.WriteString("- **" + ind.Severity + "** " + ind.Text + "\n")
	}
	return artifact.Artifact{
		ID:      artifactID(artifact.KindRisk, c.Name),
		Title:   c.Name,
		Kind:    artifact.KindRisk,
		Summary: fmt.Sprintf("Scored %d of 100", c.Score),
		Fields: []artifact.Field{
			{Label: "Score", Value: strconv.Itoa(c.Score)},
			{Label: "Level", Value: riskLabel(c.Score)},
			{Label: "Indicators", Value: strconv.Itoa(len(c.Indicators))},
		},
		Body: body.String(),
	}
}

func CaseArtifact(c repository.Case) artifact.Artifact {
	a := artifact.Artifact{
		ID:      artifactID(artifact.KindCase, c.Ref),
		Title:   c.Ref + " " + c.Title,
		Kind:    artifact.KindCase,
		Summary: caseStatus(c.Status) + ", assigned to " + c.Assignee,
		Fields: []artifact.Field{
			{Label: "Status", Value: caseStatus(c.Status)},
			{Label: "Priority", Value: c.Priority},
			{Label: "Assignee", Value: c.Assignee},
			{Label: "Opened", Value: c.OpenedOn.Format(dateLayout)},
		},
	}
	if c.Note != "" {
		a.Body = "## Notes\n\n" + c.Note
	}
	return a
}

func LinkedEntityArtifact(e repository.LinkedEntity) artifact.Artifact {
	fields := []artifact.Field{
		{Label: "Relation", Value: e.Relation},
		{Label: "Connections", Value: strconv.Itoa(e.ConnectionCount)},
		{Label: "Risk level", Value: e.RiskLevel},
	}
	for _, d := range e.Details {
		fields = append(fields, artifact.Field{Label: d.Label, Value: d.Value})
	}
	return artifact.Artifact{
		ID:      artifactID(artifact.KindLinkage, e.Name),
		Title:   e.Name,
		Kind:    artifact.KindLinkage,
		Summary: e.Relation,
		Fields:  fields,
	}
}

func SharedIdentifierArtifact(s repository.SharedIdentifier) artifact.Artifact {
	var body strings.Builder
	body.WriteString("## Shared with\n\n")
	for _, w := range s.SharedWith {
		body.WriteString("- " + w + "\n")
	}
	return artifact.Artifact{
		ID:      artifactID(artifact.KindLinkage, s.Kind+"/"+s.Value),
		Title:   s.Kind + ": " + s.Value,
		Kind:    artifact.KindLinkage,
		Summary: fmt.Sprintf("Shared with %d other accounts", len(s.SharedWith)),
		Fields: []artifact.Field{
			{Label: "Kind", Value: s.Kind},
			{Label: "Value", Value: s.Value},
		},
		Body: body.String(),
	}
}

func FootprintArtifact(f repository.FootprintSignal) artifact.Artifact {
	fields := []artifact.Field{{Label: "Score", Value: footprintScore(f.Score)}}
	for _, d := range f.Details {
		fields = append(fields, artifact.Field{Label: d.Label, Value: d.Value})
	}
	return artifact.Artifact{
		ID:      artifactID(artifact.KindFootprint, f.Source),
		Title:   f.Source,
		Kind:    artifact.KindFootprint,
		Summary: f.Headline,
		Fields:  fields,
	}
}

// OpenMerchantCmd publishes the merchant summary.
func OpenMerchantCmd(src *Source) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		a, err := src.MerchantSummary(ctx)
		if err != nil {
			return core.StatusMsg{Text: err.Error(), IsErr: true}
		}
		return core.PublishArtifactMsg{Artifact: a}
	}
}
