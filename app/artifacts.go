package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jask/riskdesk/internal/artifact"
	"github.com/jask/riskdesk/internal/database/repository"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

func artifactID(kind artifact.Kind, key string) string {
	return string(kind) + "/" + key
}

func formatAmount(amount int64) string {
	return "₹" + humanize.Comma(amount)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func riskLabel(score int) string {
	switch {
	case score >= 80:
		return "high"
	case score >= 50:
		return "medium"
	default:
		return "low"
	}
}

func TransactionArtifact(t repository.Transaction) artifact.Artifact {
	a := artifact.Artifact{
		ID:      artifactID(artifact.KindTransaction, t.Ref),
		Title:   t.Ref,
		Kind:    artifact.KindTransaction,
		Summary: fmt.Sprintf("%s to %s, %s", t.Type, t.Counterparty, formatAmount(t.Amount)),
		Fields: []artifact.Field{
			{Label: "Type", Value: t.Type},
			{Label: "Counterparty", Value: t.Counterparty},
			{Label: "Merchant type", Value: t.MerchantType},
			{Label: "Amount", Value: formatAmount(t.Amount)},
			{Label: "Location", Value: t.City + ", " + t.CountryCode},
			{Label: "Status", Value: t.Status},
			{Label: "Risk score", Value: fmt.Sprintf("%d (%s)", t.RiskScore, riskLabel(t.RiskScore))},
			{Label: "Time", Value: t.OccurredAt.Format(dateTimeLayout)},
		},
	}
	if t.Product != nil {
		a.Fields = append(a.Fields, artifact.Field{Label: "Product", Value: *t.Product})
	}
	if t.RiskDescription != nil {
		a.Body = "## Risk assessment\n\n" + *t.RiskDescription
	}
	return a
}

func PayoutArtifact(p repository.Payout) artifact.Artifact {
	return artifact.Artifact{
		ID:      artifactID(artifact.KindPayout, p.Ref),
		Title:   p.Ref,
		Kind:    artifact.KindPayout,
		Summary: fmt.Sprintf("Payout of %s to %s", formatAmount(p.Amount), p.BankAccount),
		Fields: []artifact.Field{
			{Label: "Amount", Value: formatAmount(p.Amount)},
			{Label: "Status", Value: p.Status},
			{Label: "Bank account", Value: p.BankAccount},
			{Label: "UTR", Value: p.UTR},
			{Label: "Type", Value: orDash(deref(p.Type))},
			{Label: "Priority", Value: orDash(deref(p.Priority))},
			{Label: "Time", Value: p.OccurredAt.Format(dateTimeLayout)},
		},
	}
}

func ChannelArtifact(c repository.Channel) artifact.Artifact {
	fields := []artifact.Field{
		{Label: "Type", Value: c.Type},
		{Label: "Status", Value: c.Status},
		{Label: "Added", Value: c.AddedOn.Format(dateLayout)},
	}
	for _, d := range c.Details {
		fields = append(fields, artifact.Field{Label: d.Label, Value: d.Value})
	}
	return artifact.Artifact{
		ID:      artifactID(artifact.KindChannel, c.Ref),
		Title:   c.Name,
		Kind:    artifact.KindChannel,
		Summary: c.Type + " channel " + c.Ref,
		Fields:  fields,
	}
}

func CommunicationArtifact(c repository.Communication) artifact.Artifact {
	fields := []artifact.Field{
		{Label: "Kind", Value: c.Kind},
		{Label: "Status", Value: c.Status},
		{Label: "Time", Value: c.OccurredAt.Format(dateTimeLayout)},
	}
	if c.From != nil {
		fields = append(fields, artifact.Field{Label: "From", Value: *c.From})
	}
	if c.To != nil {
		fields = append(fields, artifact.Field{Label: "To", Value: *c.To})
	}
	return artifact.Artifact{
		ID:     artifactID(artifact.KindCommunication, c.Ref),
		Title:  c.Subject,
		Kind:   artifact.KindCommunication,
		Fields: fields,
		Body:   c.Content,
	}
}

func TimelineArtifact(e repository.TimelineEvent) artifact.Artifact {
	return artifact.Artifact{
		ID:      artifactID(artifact.KindTimeline, e.Ref),
		Title:   e.Event,
		Kind:    artifact.KindTimeline,
		Summary: e.Kind + " event",
		Fields: []artifact.Field{
			{Label: "Kind", Value: e.Kind},
			{Label: "Time", Value: e.OccurredAt.Format(dateTimeLayout)},
		},
	}
}

func FlagArtifact(f repository.RedFlag) artifact.Artifact {
	return artifact.Artifact{
		ID:      artifactID(artifact.KindFlag, f.ID),
		Title:   "Red flag: " + f.Section,
		Kind:    artifact.KindFlag,
		Summary: f.Text,
		Fields: []artifact.Field{
			{Label: "Section", Value: f.Section},
			{Label: "Severity", Value: f.Severity},
			{Label: "Raised", Value: f.RaisedAt.Format(dateTimeLayout)},
		},
	}
}

func MerchantArtifact(m repository.Merchant, s repository.RiskSummary) artifact.Artifact {
	return artifact.Artifact{
		ID:      artifactID(artifact.KindMerchant, m.Ref),
		Title:   m.Name,
		Kind:    artifact.KindMerchant,
		Summary: fmt.Sprintf("%s in %s, %s", m.BusinessType, m.City, m.CountryCode),
		Fields: []artifact.Field{
			{Label: "Merchant", Value: m.Ref},
			{Label: "Status", Value: m.Status},
			{Label: "Risk score", Value: fmt.Sprintf("%d (%s)", m.RiskScore, riskLabel(m.RiskScore))},
			{Label: "Onboarded", Value: m.OnboardedOn.Format(dateLayout)},
			{Label: "Transactions", Value: strconv.Itoa(s.Count)},
			{Label: "High risk", Value: strconv.Itoa(s.HighRisk)},
			{Label: "Average risk", Value: fmt.Sprintf("%.1f", s.AvgRisk)},
			{Label: "Total value", Value: formatAmount(s.TotalValue)},
		},
	}
}

func RuleArtifact(r repository.Rule) artifact.Artifact {
	var body strings.Builder
	body.WriteString("## Conditions\n\n")
	for _, c := range r.Conditions {
		body.WriteString("- `" + c + "`\n")
	}
	if r.Description != "" {
		body.WriteString("\n## Description\n\n" + r.Description + "\n")
	}
	return artifact.Artifact{
		ID:      artifactID(artifact.KindRule, r.Code),
		Title:   r.Code + " " + r.Name,
		Kind:    artifact.KindRule,
		Summary: r.Category + " rule routed to " + r.Queue,
		Fields: []artifact.Field{
			{Label: "Category", Value: r.Category},
			{Label: "Risk level", Value: r.RiskLevel},
			{Label: "Queue", Value: r.Queue},
			{Label: "Triggers", Value: humanize.Comma(int64(r.TriggerCount))},
			{Label: "Author", Value: r.Author},
			{Label: "Created", Value: r.CreatedOn.Format(dateLayout)},
			{Label: "Modified", Value: r.ModifiedOn.Format(dateLayout)},
		},
		Body: body.String(),
	}
}

func ModelArtifact(m repository.Model) artifact.Artifact {
	return artifact.Artifact{
		ID:      artifactID(artifact.KindModel, m.Name),
		Title:   m.Name + " " + m.Version,
		Kind:    artifact.KindModel,
		Summary: m.Description,
		Fields: []artifact.Field{
			{Label: "Version", Value: m.Version},
			{Label: "Stage", Value: m.Stage},
			{Label: "AUC", Value: fmt.Sprintf("%.3f", m.AUC)},
			{Label: "Updated", Value: m.UpdatedOn.Format(dateLayout)},
		},
	}
}

func AlertArtifact(a repository.Alert) artifact.Artifact {
	lastFired := "never"
	if a.LastFired != nil {
		lastFired = a.LastFired.Format(dateTimeLayout)
	}
	return artifact.Artifact{
		ID:      artifactID(artifact.KindAlert, a.Name),
		Title:   a.Name,
		Kind:    artifact.KindAlert,
		Summary: a.Description,
		Fields: []artifact.Field{
			{Label: "Severity", Value: a.Severity},
			{Label: "Channel", Value: a.Channel},
			{Label: "Enabled", Value: enabledLabel(a.Enabled)},
			{Label: "Last fired", Value: lastFired},
		},
	}
}

func enabledLabel(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

func shortDate(t time.Time) string {
	return t.Format("Jan 02 15:04")
}
