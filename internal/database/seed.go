package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jask/riskdesk/internal/database/repository"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

type fixtureDetail struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
}

// Fixtures is the decoded fixture file.
type Fixtures struct {
	Merchant struct {
		Ref          string    `yaml:"ref"`
		Name         string    `yaml:"name"`
		BusinessType string    `yaml:"business_type"`
		City         string    `yaml:"city"`
		CountryCode  string    `yaml:"country_code"`
		RiskScore    int       `yaml:"risk_score"`
		Status       string    `yaml:"status"`
		OnboardedOn  time.Time `yaml:"onboarded_on"`
	} `yaml:"merchant"`
	Transactions []struct {
		Ref             string    `yaml:"ref"`
		Type            string    `yaml:"type"`
		MerchantType    string    `yaml:"merchant_type"`
		Counterparty    string    `yaml:"counterparty"`
		Amount          int64     `yaml:"amount"`
		City            string    `yaml:"city"`
		CountryCode     string    `yaml:"country_code"`
		Product         *string   `yaml:"product"`
		RiskScore       int       `yaml:"risk_score"`
		RiskDescription *string   `yaml:"risk_description"`
		Status          string    `yaml:"status"`
		At              time.Time `yaml:"at"`
	} `yaml:"transactions"`
	Payouts []struct {
		Ref         string    `yaml:"ref"`
		Amount      int64     `yaml:"amount"`
		Status      string    `yaml:"status"`
		BankAccount string    `yaml:"bank_account"`
		UTR         string    `yaml:"utr"`
		Type        *string   `yaml:"type"`
		Priority    *string   `yaml:"priority"`
		At          time.Time `yaml:"at"`
	} `yaml:"payouts"`
	Channels []struct {
		Ref     string          `yaml:"ref"`
		Type    string          `yaml:"type"`
		Name    string          `yaml:"name"`
		Status  string          `yaml:"status"`
		AddedOn time.Time       `yaml:"added_on"`
		Details []fixtureDetail `yaml:"details"`
	} `yaml:"channels"`
	Communications []struct {
		Ref     string    `yaml:"ref"`
		Kind    string    `yaml:"kind"`
		Subject string    `yaml:"subject"`
		Content string    `yaml:"content"`
		From    *string   `yaml:"from"`
		To      *string   `yaml:"to"`
		Status  string    `yaml:"status"`
		At      time.Time `yaml:"at"`
	} `yaml:"communications"`
	Timeline []struct {
		Ref   string    `yaml:"ref"`
		Event string    `yaml:"event"`
		Kind  string    `yaml:"kind"`
		At    time.Time `yaml:"at"`
	} `yaml:"timeline"`
	Flags []struct {
		Section  string    `yaml:"section"`
		Severity string    `yaml:"severity"`
		Text     string    `yaml:"text"`
		At       time.Time `yaml:"at"`
	} `yaml:"flags"`
	Rules []struct {
		Code         string    `yaml:"code"`
		Name         string    `yaml:"name"`
		Description  string    `yaml:"description"`
		Category     string    `yaml:"category"`
		RiskLevel    string    `yaml:"risk_level"`
		Conditions   []string  `yaml:"conditions"`
		Queue        string    `yaml:"queue"`
		TriggerCount int       `yaml:"trigger_count"`
		Author       string    `yaml:"author"`
		CreatedOn    time.Time `yaml:"created_on"`
		ModifiedOn   time.Time `yaml:"modified_on"`
	} `yaml:"rules"`
	Models []struct {
		Name        string    `yaml:"name"`
		Version     string    `yaml:"version"`
		Stage       string    `yaml:"stage"`
		AUC         float64   `yaml:"auc"`
		Description string    `yaml:"description"`
		UpdatedOn   time.Time `yaml:"updated_on"`
	} `yaml:"models"`
	Alerts []struct {
		Name        string     `yaml:"name"`
		Severity    string     `yaml:"severity"`
		Channel     string     `yaml:"channel"`
		Enabled     bool       `yaml:"enabled"`
		Description string     `yaml:"description"`
		LastFired   *time.Time `yaml:"last_fired"`
	} `yaml:"alerts"`
	RiskCategories []struct {
		Name       string `yaml:"name"`
		Score      int    `yaml:"score"`
		Indicators []struct {
			Text     string `yaml:"text"`
			Severity string `yaml:"severity"`
		} `yaml:"indicators"`
	} `yaml:"risk_categories"`
	Cases []struct {
		Ref      string    `yaml:"ref"`
		Title    string    `yaml:"title"`
		Status   string    `yaml:"status"`
		Priority string    `yaml:"priority"`
		Assignee string    `yaml:"assignee"`
		Note     string    `yaml:"note"`
		OpenedOn time.Time `yaml:"opened_on"`
	} `yaml:"cases"`
	Linkages []struct {
		Name            string          `yaml:"name"`
		Relation        string          `yaml:"relation"`
		ConnectionCount int             `yaml:"connection_count"`
		RiskLevel       string          `yaml:"risk_level"`
		Details         []fixtureDetail `yaml:"details"`
	} `yaml:"linkages"`
	SharedIdentifiers []struct {
		Kind       string   `yaml:"kind"`
		Value      string   `yaml:"value"`
		SharedWith []string `yaml:"shared_with"`
	} `yaml:"shared_identifiers"`
	Footprint []struct {
		Source   string          `yaml:"source"`
		Headline string          `yaml:"headline"`
		Score    float64         `yaml:"score"`
		Details  []fixtureDetail `yaml:"details"`
	} `yaml:"footprint"`
	Features []struct {
		Name        string `yaml:"name"`
		Type        string `yaml:"type"`
		Language    string `yaml:"language"`
		Description string `yaml:"description"`
		Expression  string `yaml:"expression"`
		Buckets     []struct {
			Label string `yaml:"label"`
			Total int    `yaml:"total"`
			Fraud int    `yaml:"fraud"`
		} `yaml:"buckets"`
	} `yaml:"features"`
}

func details(in []fixtureDetail) []repository.Detail {
	out := make([]repository.Detail, len(in))
	for i, d := range in {
		out[i] = repository.Detail{Label: d.Label, Value: d.Value}
	}
	return out
}

// LoadFixtures decodes the embedded fixture file.
func LoadFixtures() (Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(fixturesYAML, &f); err != nil {
		return Fixtures{}, fmt.Errorf("decode fixtures: %w", err)
	}
	return f, nil
}

// RecordID derives a stable id so reseeding updates rows in place.
func RecordID(kind, key string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(kind+":"+key)).String()
}

// Seed loads the fixtures into db. It is idempotent and safe to run on every
// startup.
func Seed(ctx context.Context, db *sql.DB) error {
	f, err := LoadFixtures()
	if err != nil {
		return err
	}
	return WithTx(ctx, db, func(tx *sql.Tx) error {
		return seed(ctx, tx, f)
	})
}

func seed(ctx context.Context, tx *sql.Tx, f Fixtures) error {
	merchants := repository.NewMerchantRepo(tx)
	txns := repository.NewTransactionRepo(tx)
	activity := repository.NewActivityRepo(tx)
	strategy := repository.NewStrategyRepo(tx)
	investigation := repository.NewInvestigationRepo(tx)

	fm := f.Merchant
	merchantID := RecordID("merchant", fm.Ref)
	if err := merchants.Upsert(ctx, repository.Merchant{
		ID: merchantID, Ref: fm.Ref, Name: fm.Name, BusinessType: fm.BusinessType, City: fm.City,
		CountryCode: fm.CountryCode, RiskScore: fm.RiskScore, Status: fm.Status, OnboardedOn: fm.OnboardedOn,
	}); err != nil {
		return fmt.Errorf("seed merchant: %w", err)
	}

	for _, t := range f.Transactions {
		if err := txns.Upsert(ctx, repository.Transaction{
			ID: RecordID("txn", t.Ref), MerchantID: merchantID, Ref: t.Ref, Type: t.Type,
			MerchantType: t.MerchantType, Counterparty: t.Counterparty, Amount: t.Amount, City: t.City,
			CountryCode: t.CountryCode, Product: t.Product, RiskScore: t.RiskScore,
			RiskDescription: t.RiskDescription, Status: t.Status, OccurredAt: t.At,
		}); err != nil {
			return fmt.Errorf("seed transaction %s: %w", t.Ref, err)
		}
	}
	for _, p := range f.Payouts {
		if err := txns.UpsertPayout(ctx, repository.Payout{
			ID: RecordID("payout", p.Ref), MerchantID: merchantID, Ref: p.Ref, Amount: p.Amount, Status: p.Status,
			BankAccount: p.BankAccount, UTR: p.UTR, Type: p.Type, Priority: p.Priority, OccurredAt: p.At,
		}); err != nil {
			return fmt.Errorf("seed payout %s: %w", p.Ref, err)
		}
	}
	for _, c := range f.Channels {
		if err := merchants.UpsertChannel(ctx, repository.Channel{
			ID: RecordID("channel", c.Ref), MerchantID: merchantID, Ref: c.Ref, Type: c.Type, Name: c.Name,
			Status: c.Status, AddedOn: c.AddedOn, Details: details(c.Details),
		}); err != nil {
			return fmt.Errorf("seed channel %s: %w", c.Ref, err)
		}
	}
	for _, c := range f.Communications {
		if err := activity.UpsertCommunication(ctx, repository.Communication{
			ID: RecordID("comm", c.Ref), MerchantID: merchantID, Ref: c.Ref, Kind: c.Kind, Subject: c.Subject,
			Content: c.Content, From: c.From, To: c.To, Status: c.Status, OccurredAt: c.At,
		}); err != nil {
			return fmt.Errorf("seed communication %s: %w", c.Ref, err)
		}
	}
	for _, e := range f.Timeline {
		if err := activity.UpsertTimelineEvent(ctx, repository.TimelineEvent{
			ID: RecordID("event", e.Ref), MerchantID: merchantID, Ref: e.Ref, Event: e.Event, Kind: e.Kind, OccurredAt: e.At,
		}); err != nil {
			return fmt.Errorf("seed timeline %s: %w", e.Ref, err)
		}
	}
	for _, fl := range f.Flags {
		if err := activity.UpsertRedFlag(ctx, repository.RedFlag{
			ID: RecordID("flag", fl.Section+"/"+fl.Text), MerchantID: merchantID, Section: fl.Section,
			Severity: fl.Severity, Text: fl.Text, RaisedAt: fl.At,
		}); err != nil {
			return fmt.Errorf("seed flag: %w", err)
		}
	}
	for _, r := range f.Rules {
		if err := strategy.UpsertRule(ctx, repository.Rule{
			ID: RecordID("rule", r.Code), Code: r.Code, Name: r.Name, Description: r.Description,
			Category: r.Category, RiskLevel: r.RiskLevel, Conditions: r.Conditions, Queue: r.Queue,
			TriggerCount: r.TriggerCount, Author: r.Author, CreatedOn: r.CreatedOn, ModifiedOn: r.ModifiedOn,
		}); err != nil {
			return fmt.Errorf("seed rule %s: %w", r.Code, err)
		}
	}
	for _, m := range f.Models {
		if err := strategy.UpsertModel(ctx, repository.Model{
			ID: RecordID("model", m.Name), Name: m.Name, Version: m.Version, Stage: m.Stage, AUC: m.AUC,
			Description: m.Description, UpdatedOn: m.UpdatedOn,
		}); err != nil {
			return fmt.Errorf("seed model %s: %w", m.Name, err)
		}
	}
	for _, a := range f.Alerts {
		if err := strategy.UpsertAlert(ctx, repository.Alert{
			ID: RecordID("alert", a.Name), Name: a.Name, Severity: a.Severity, Channel: a.Channel,
			Enabled: a.Enabled, Description: a.Description, LastFired: a.LastFired,
		}); err != nil {
			return fmt.Errorf("seed alert %s: %w", a.Name, err)
		}
	}
	for _, fe := range f.Features {
		buckets := make([]repository.FeatureBucket, len(fe.Buckets))
		for i, b := range fe.Buckets {
			buckets[i] = repository.FeatureBucket{Label: b.Label, Total: b.Total, Fraud: b.Fraud}
		}
		if err := strategy.UpsertFeature(ctx, repository.Feature{
			ID: RecordID("feature", fe.Name), Name: fe.Name, Type: fe.Type, Language: fe.Language,
			Description: fe.Description, Expression: fe.Expression, Buckets: buckets,
		}); err != nil {
			return fmt.Errorf("seed feature %s: %w", fe.Name, err)
		}
	}
	return seedInvestigation(ctx, investigation, merchantID, f)
}

func seedInvestigation(ctx context.Context, repo *repository.InvestigationRepo, merchantID string, f Fixtures) error {
	for i, rc := range f.RiskCategories {
		indicators := make([]repository.Indicator, len(rc.Indicators))
		for j, ind := range rc.Indicators {
			indicators[j] = repository.Indicator{Text: ind.Text, Severity: ind.Severity}
		}
		if err := repo.UpsertRiskCategory(ctx, repository.RiskCategory{
			ID: RecordID("risk", rc.Name), MerchantID: merchantID, Name: rc.Name, Score: rc.Score,
			Position: i, Indicators: indicators,
		}); err != nil {
			return fmt.Errorf("seed risk category %s: %w", rc.Name, err)
		}
	}
	for _, c := range f.Cases {
		if err := repo.UpsertCase(ctx, repository.Case{
			ID: RecordID("case", c.Ref), MerchantID: merchantID, Ref: c.Ref, Title: c.Title, Status: c.Status,
			Priority: c.Priority, Assignee: c.Assignee, Note: c.Note, OpenedOn: c.OpenedOn,
		}); err != nil {
			return fmt.Errorf("seed case %s: %w", c.Ref, err)
		}
	}
	for _, l := range f.Linkages {
		if err := repo.UpsertLinkedEntity(ctx, repository.LinkedEntity{
			ID: RecordID("linkage", l.Name), MerchantID: merchantID, Name: l.Name, Relation: l.Relation,
			ConnectionCount: l.ConnectionCount, RiskLevel: l.RiskLevel, Details: details(l.Details),
		}); err != nil {
			return fmt.Errorf("seed linkage %s: %w", l.Name, err)
		}
	}
	for _, s := range f.SharedIdentifiers {
		if err := repo.UpsertSharedIdentifier(ctx, repository.SharedIdentifier{
			ID: RecordID("shared", s.Kind+"/"+s.Value), MerchantID: merchantID, Kind: s.Kind, Value: s.Value,
			SharedWith: s.SharedWith,
		}); err != nil {
			return fmt.Errorf("seed shared identifier %s: %w", s.Kind, err)
		}
	}
	for i, fp := range f.Footprint {
		if err := repo.UpsertFootprintSignal(ctx, repository.FootprintSignal{
			ID: RecordID("footprint", fp.Source), MerchantID: merchantID, Source: fp.Source, Headline: fp.Headline,
			Score: fp.Score, Position: i, Details: details(fp.Details),
		}); err != nil {
			return fmt.Errorf("seed footprint %s: %w", fp.Source, err)
		}
	}
	return nil
}
