package repository

import (
	"context"
	"database/sql"
	"strings"
)

// StrategyRepo handles rules, models and alert configurations.
type StrategyRepo struct {
	db DBTX
}

func NewStrategyRepo(db DBTX) *StrategyRepo { return &StrategyRepo{db: db} }

func (r *StrategyRepo) UpsertRule(ctx context.Context, rule Rule) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO rules(id, code, name, description, category, risk_level, conditions, queue, trigger_count, author, created_on, modified_on)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 name=excluded.name, description=excluded.description, category=excluded.category,
	 risk_level=excluded.risk_level, conditions=excluded.conditions, queue=excluded.queue,
	 trigger_count=excluded.trigger_count, author=excluded.author, modified_on=excluded.modified_on;
	`, rule.ID, rule.Code, rule.Name, rule.Description, rule.Category, rule.RiskLevel,
		strings.Join(rule.Conditions, "\n"), rule.Queue, rule.TriggerCount, rule.Author, rule.CreatedOn, rule.ModifiedOn)
	return err
}

// Rules lists rules, optionally restricted to one category.
func (r *StrategyRepo) Rules(ctx context.Context, category string) ([]Rule, error) {
	query := `SELECT id, code, name, description, category, risk_level, conditions, queue, trigger_count, author, created_on, modified_on FROM rules`
	var args []interface{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY code`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Rule
	for rows.Next() {
		var rule Rule
		var conditions string
		if err := rows.Scan(&rule.ID, &rule.Code, &rule.Name, &rule.Description, &rule.Category, &rule.RiskLevel,
			&conditions, &rule.Queue, &rule.TriggerCount, &rule.Author, &rule.CreatedOn, &rule.ModifiedOn); err != nil {
			return nil, err
		}
		if conditions != "" {
			rule.Conditions = strings.Split(conditions, "\n")
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

// RuleCategories returns the distinct rule categories in name order.
func (r *StrategyRepo) RuleCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT category FROM rules ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *StrategyRepo) UpsertModel(ctx context.Context, m Model) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO models(id, name, version, stage, auc, description, updated_on)
	VALUES(?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 version=excluded.version, stage=excluded.stage, auc=excluded.auc,
	 description=excluded.description, updated_on=excluded.updated_on;
	`, m.ID, m.Name, m.Version, m.Stage, m.AUC, m.Description, m.UpdatedOn)
	return err
}

func (r *StrategyRepo) Models(ctx context.Context) ([]Model, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, version, stage, auc, description, updated_on FROM models ORDER BY stage, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Model
	for rows.Next() {
		var m Model
		if err := rows.Scan(&m.ID, &m.Name, &m.Version, &m.Stage, &m.AUC, &m.Description, &m.UpdatedOn); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *StrategyRepo) UpsertAlert(ctx context.Context, a Alert) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO alerts(id, name, severity, channel, enabled, description, last_fired)
	VALUES(?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 severity=excluded.severity, channel=excluded.channel, enabled=excluded.enabled,
	 description=excluded.description, last_fired=excluded.last_fired;
	`, a.ID, a.Name, a.Severity, a.Channel, a.Enabled, a.Description, a.LastFired)
	return err
}

func (r *StrategyRepo) Alerts(ctx context.Context) ([]Alert, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, severity, channel, enabled, description, last_fired FROM alerts ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Alert
	for rows.Next() {
		var a Alert
		var fired sql.NullTime
		if err := rows.Scan(&a.ID, &a.Name, &a.Severity, &a.Channel, &a.Enabled, &a.Description, &fired); err != nil {
			return nil, err
		}
		if fired.Valid {
			t := fired.Time
			a.LastFired = &t
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SetAlertEnabled toggles an alert and reports whether it exists.
func (r *StrategyRepo) SetAlertEnabled(ctx context.Context, id string, enabled bool) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE alerts SET enabled = ? WHERE id = ?`, enabled, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *StrategyRepo) UpsertFeature(ctx context.Context, f Feature) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO features(id, name, feature_type, language, description, expression)
	VALUES(?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 feature_type=excluded.feature_type, language=excluded.language,
	 description=excluded.description, expression=excluded.expression;
	`, f.ID, f.Name, f.Type, f.Language, f.Description, f.Expression)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM feature_buckets WHERE feature_id = ?`, f.ID); err != nil {
		return err
	}
	for i, b := range f.Buckets {
		if _, err := r.db.ExecContext(ctx, `INSERT INTO feature_buckets(feature_id, position, label, total, fraud) VALUES(?, ?, ?, ?, ?)`,
			f.ID, i, b.Label, b.Total, b.Fraud); err != nil {
			return err
		}
	}
	return nil
}

// Features lists the engineered features by name, each with its buckets.
func (r *StrategyRepo) Features(ctx context.Context) ([]Feature, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, feature_type, language, description, expression FROM features ORDER BY name`)
	if err != nil {
		return nil, err
	}
	out, err := scanAll(rows, func(rows *sql.Rows) (Feature, error) {
		var f Feature
		err := rows.Scan(&f.ID, &f.Name, &f.Type, &f.Language, &f.Description, &f.Expression)
		return f, err
	})
	if err != nil {
		return nil, err
	}
	for i := range out {
		buckets, err := r.buckets(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Buckets = buckets
	}
	return out, nil
}

func (r *StrategyRepo) buckets(ctx context.Context, featureID string) ([]FeatureBucket, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT label, total, fraud FROM feature_buckets WHERE feature_id = ? ORDER BY position`, featureID)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, func(rows *sql.Rows) (FeatureBucket, error) {
		var b FeatureBucket
		err := rows.Scan(&b.Label, &b.Total, &b.Fraud)
		return b, err
	})
}
