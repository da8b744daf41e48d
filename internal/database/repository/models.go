package repository

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx so repositories work inside a
// seeding transaction as well as on the pool.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Merchant represents a merchant under investigation.
type Merchant struct {
	ID           string
	Ref          string
	Name         string
	BusinessType string
	City         string
	CountryCode  string
	RiskScore    int
	Status       string
	OnboardedOn  time.Time
}

// Transaction represents a payment processed by the merchant.
type Transaction struct {
	ID              string
	MerchantID      string
	Ref             string
	Type            string
	MerchantType    string
	Counterparty    string
	Amount          int64
	City            string
	CountryCode     string
	Product         *string
	RiskScore       int
	RiskDescription *string
	Status          string
	OccurredAt      time.Time
}

// Payout represents a settlement to the merchant's bank account.
type Payout struct {
	ID          string
	MerchantID  string
	Ref         string
	Amount      int64
	Status      string
	BankAccount string
	UTR         string
	Type        *string
	Priority    *string
	OccurredAt  time.Time
}

// Detail is an ordered label/value pair.
type Detail struct {
	Label string
	Value string
}

// Channel represents a payment acceptance channel.
type Channel struct {
	ID         string
	MerchantID string
	Ref        string
	Type       string
	Name       string
	Status     string
	AddedOn    time.Time
	Details    []Detail
}

// Communication represents an email, call or chat with the merchant.
type Communication struct {
	ID         string
	MerchantID string
	Ref        string
	Kind       string
	Subject    string
	Content    string
	From       *string
	To         *string
	Status     string
	OccurredAt time.Time
}

// TimelineEvent represents one entry in the merchant event timeline.
type TimelineEvent struct {
	ID         string
	MerchantID string
	Ref        string
	Event      string
	Kind       string
	OccurredAt time.Time
}

// RedFlag represents an investigation finding.
type RedFlag struct {
	ID         string
	MerchantID string
	Section    string
	Severity   string
	Text       string
	RaisedAt   time.Time
}

// Indicator is one finding behind a risk category score.
type Indicator struct {
	Text     string
	Severity string
}

// RiskCategory is a scored area of the merchant's risk assessment.
type RiskCategory struct {
	ID         string
	MerchantID string
	Name       string
	Score      int
	Position   int
	Indicators []Indicator
}

// Case represents an investigation case opened against the merchant.
type Case struct {
	ID         string
	MerchantID string
	Ref        string
	Title      string
	Status     string
	Priority   string
	Assignee   string
	Note       string
	OpenedOn   time.Time
}

// LinkedEntity is a business or person connected to the merchant.
type LinkedEntity struct {
	ID              string
	MerchantID      string
	Name            string
	Relation        string
	ConnectionCount int
	RiskLevel       string
	Details         []Detail
}

// SharedIdentifier is a phone, email domain or address the merchant shares
// with other accounts.
type SharedIdentifier struct {
	ID         string
	MerchantID string
	Kind       string
	Value      string
	SharedWith []string
}

// FootprintSignal summarises one public source about the merchant, such as
// its website or an app store listing.
type FootprintSignal struct {
	ID         string
	MerchantID string
	Source     string
	Headline   string
	Score      float64
	Position   int
	Details    []Detail
}

// FeatureBucket is one value range of a feature with its observed fraud.
type FeatureBucket struct {
	Label string
	Total int
	Fraud int
}

// Feature is an engineered rule input and its performance per bucket.
type Feature struct {
	ID          string
	Name        string
	Type        string
	Language    string
	Description string
	Expression  string
	Buckets     []FeatureBucket
}

// Rule represents a fraud detection rule.
type Rule struct {
	ID           string
	Code         string
	Name         string
	Description  string
	Category     string
	RiskLevel    string
	Conditions   []string
	Queue        string
	TriggerCount int
	Author       string
	CreatedOn    time.Time
	ModifiedOn   time.Time
}

// Model represents a scoring model.
type Model struct {
	ID          string
	Name        string
	Version     string
	Stage       string
	AUC         float64
	Description string
	UpdatedOn   time.Time
}

// Alert represents an alert configuration.
type Alert struct {
	ID          string
	Name        string
	Severity    string
	Channel     string
	Enabled     bool
	Description string
	LastFired   *time.Time
}

// scanner handles both Row and Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
