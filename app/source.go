package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jask/riskdesk/internal/database/repository"
)

// HighRiskScore is the score from which a transaction counts as high risk.
const HighRiskScore = 70

var errNoMerchant = errors.New("no merchant under investigation")

// Source turns repository rows into records for the panes.
type Source struct {
	Merchants     *repository.MerchantRepo
	Transactions  *repository.TransactionRepo
	Activity      *repository.ActivityRepo
	Strategy      *repository.StrategyRepo
	Investigation *repository.InvestigationRepo
	// Now dates the investigation overview. Nil means time.Now.
	Now func() time.Time
}

func NewSource(db *sql.DB) *Source {
	return &Source{
		Merchants:     repository.NewMerchantRepo(db),
		Transactions:  repository.NewTransactionRepo(db),
		Activity:      repository.NewActivityRepo(db),
		Strategy:      repository.NewStrategyRepo(db),
		Investigation: repository.NewInvestigationRepo(db),
		Now:           time.Now,
	}
}

func (s *Source) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Merchant is the merchant under investigation, the first one on file.
func (s *Source) Merchant(ctx context.Context) (repository.Merchant, error) {
	all, err := s.Merchants.List(ctx)
	if err != nil {
		return repository.Merchant{}, fmt.Errorf("list merchants: %w", err)
	}
	if len(all) == 0 {
		return repository.Merchant{}, errNoMerchant
	}
	return all[0], nil
}

func (s *Source) TransactionRecords(ctx context.Context) ([]Record, error) {
	m, err := s.Merchant(ctx)
	if err != nil {
		return nil, err
	}
	txns, err := s.Transactions.List(ctx, repository.TransactionFilters{MerchantID: m.ID})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]Record, len(txns))
	for i, t := range txns {
		out[i] = Record{
			Cells:    []string{shortDate(t.OccurredAt), t.Ref, t.Counterparty, formatAmount(t.Amount), fmt.Sprint(t.RiskScore), t.Status},
			Artifact: TransactionArtifact(t),
		}
	}
	return out, nil
}

func (s *Source) PayoutRecords(ctx context.Context) ([]Record, error) {
	m, err := s.Merchant(ctx)
	if err != nil {
		return nil, err
	}
	payouts, err := s.Transactions.Payouts(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}
	out := make([]Record, len(payouts))
	for i, p := range payouts {
		out[i] = Record{
			Cells:    []string{shortDate(p.OccurredAt), p.Ref, formatAmount(p.Amount), p.Status},
			Artifact: PayoutArtifact(p),
		}
	}
	return out, nil
}

func (s *Source) ChannelRecords(ctx context.Context) ([]Record, error) {
	m, err := s.Merchant(ctx)
	if err != nil {
		return nil, err
	}
	channels, err := s.Merchants.Channels(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	out := make([]Record, len(channels))
	for i, c := range channels {
		out[i] = Record{
			Cells:    []string{c.Ref, c.Type, c.Name, c.Status},
			Artifact: ChannelArtifact(c),
		}
	}
	return out, nil
}

func (s *Source) CommunicationRecords(ctx context.Context) ([]Record, error) {
	m, err := s.Merchant(ctx)
	if err != nil {
		return nil, err
	}
	comms, err := s.Activity.Communications(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("list communications: %w", err)
	}
	out := make([]Record, len(comms))
	for i, c := range comms {
		out[i] = Record{
			Cells:    []string{shortDate(c.OccurredAt), c.Kind, c.Subject, c.Status},
			Artifact: CommunicationArtifact(c),
		}
	}
	return out, nil
}

func (s *Source) TimelineRecords(ctx context.Context) ([]Record, error) {
	m, err := s.Merchant(ctx)
	if err != nil {
		return nil, err
	}
	events, err := s.Activity.Timeline(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("list timeline: %w", err)
	}
	out := make([]Record, len(events))
	for i, e := range events {
		out[i] = Record{
			Cells:    []string{shortDate(e.OccurredAt), e.Kind, e.Event},
			Artifact: TimelineArtifact(e),
		}
	}
	return out, nil
}

func (s *Source) FlagRecords(ctx context.Context) ([]Record, error) {
	m, err := s.Merchant(ctx)
	if err != nil {
		return nil, err
	}
	flags, err := s.Activity.RedFlags(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("list red flags: %w", err)
	}
	out := make([]Record, len(flags))
	for i, f := range flags {
		out[i] = Record{
			Cells:    []string{f.Section, f.Severity, f.Text},
			Artifact: FlagArtifact(f),
		}
	}
	return out, nil
}

func (s *Source) RuleRecords(ctx context.Context) ([]Record, error) {
	rules, err := s.Strategy.Rules(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	out := make([]Record, len(rules))
	for i, r := range rules {
		out[i] = Record{
			Key:      r.Code,
			Cells:    []string{r.Code, r.Name, r.Category, r.RiskLevel, humanize.Comma(int64(r.TriggerCount))},
			Artifact: RuleArtifact(r),
		}
	}
	return out, nil
}

// Rule looks a rule up by code.
func (s *Source) Rule(ctx context.Context, code string) (repository.Rule, error) {
	rules, err := s.Strategy.Rules(ctx, "")
	if err != nil {
		return repository.Rule{}, fmt.Errorf("list rules: %w", err)
	}
	for _, r := range rules {
		if r.Code == code {
			return r, nil
		}
	}
	return repository.Rule{}, fmt.Errorf("rule %s not found", code)
}

func (s *Source) ModelRecords(ctx context.Context) ([]Record, error) {
	models, err := s.Strategy.Models(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	out := make([]Record, len(models))
	for i, m := range models {
		out[i] = Record{
			Cells:    []string{m.Name, m.Version, m.Stage, fmt.Sprintf("%.3f", m.AUC)},
			Artifact: ModelArtifact(m),
		}
	}
	return out, nil
}

func (s *Source) AlertRecords(ctx context.Context) ([]Record, error) {
	alerts, err := s.Strategy.Alerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	out := make([]Record, len(alerts))
	for i, a := range alerts {
		out[i] = Record{
			Key:      a.ID,
			Cells:    []string{a.Name, a.Severity, a.Channel, enabledLabel(a.Enabled)},
			Artifact: AlertArtifact(a),
		}
	}
	return out, nil
}

// ToggleAlert flips an alert on or off and returns it as stored.
func (s *Source) ToggleAlert(ctx context.Context, id string) (repository.Alert, error) {
	alerts, err := s.Strategy.Alerts(ctx)
	if err != nil {
		return repository.Alert{}, fmt.Errorf("list alerts: %w", err)
	}
	for _, a := range alerts {
		if a.ID != id {
			continue
		}
		ok, err := s.Strategy.SetAlertEnabled(ctx, id, !a.Enabled)
		if err != nil {
			return repository.Alert{}, fmt.Errorf("update alert %s: %w", a.Name, err)
		}
		if !ok {
			break
		}
		a.Enabled = !a.Enabled
		return a, nil
	}
	return repository.Alert{}, fmt.Errorf("alert %s not found", id)
}

// MerchantProfile is the text of the profile pane.
func (s *Source) MerchantProfile(ctx context.Context) (string, error) {
	m, err := s.Merchant(ctx)
	if err != nil {
		return "", err
	}
	sum, err := s.Transactions.Summary(ctx, m.ID, HighRiskScore)
	if err != nil {
		return "", fmt.Errorf("summarise transactions: %w", err)
	}
	lines := []string{
		m.Name + " · " + m.Ref,
		fmt.Sprintf("%s, %s %s", m.BusinessType, m.City, m.CountryCode),
		fmt.Sprintf("Status %s · risk %d (%s)", m.Status, m.RiskScore, riskLabel(m.RiskScore)),
		"Onboarded " + m.OnboardedOn.Format(dateLayout),
		"",
		fmt.Sprintf("%d transactions · %d high risk · avg risk %.1f", sum.Count, sum.HighRisk, sum.AvgRisk),
		"Total value " + formatAmount(sum.TotalValue),
	}
	return strings.Join(lines, "\n"), nil
}

// RulePerformance summarises trigger volume per category.
func (s *Source) RulePerformance(ctx context.Context) (string, error) {
	categories, err := s.Strategy.RuleCategories(ctx)
	if err != nil {
		return "", fmt.Errorf("list rule categories: %w", err)
	}
	rules, err := s.Strategy.Rules(ctx, "")
	if err != nil {
		return "", fmt.Errorf("list rules: %w", err)
	}
	type stat struct {
		rules    int
		triggers int
		top      repository.Rule
	}
	stats := make(map[string]*stat, len(categories))
	for _, c := range categories {
		stats[c] = &stat{}
	}
	total := 0
	for _, r := range rules {
		st, ok := stats[r.Category]
		if !ok {
			continue
		}
		st.rules++
		st.triggers += r.TriggerCount
		total += r.TriggerCount
		if r.TriggerCount > st.top.TriggerCount {
			st.top = r
		}
	}
	lines := make([]string, 0, len(categories)+2)
	for _, c := range categories {
		st := stats[c]
		line := fmt.Sprintf("%-10s %2d rules %8s triggers", c, st.rules, humanize.Comma(int64(st.triggers)))
		if st.top.Code != "" {
			line += "  top " + st.top.Code
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", fmt.Sprintf("%d rules · %s triggers in total", len(rules), humanize.Comma(int64(total))))
	return strings.Join(lines, "\n"), nil
}
