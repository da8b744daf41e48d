package repository

import (
	"context"
	"database/sql"
	"strings"
)

// InvestigationRepo handles the merchant's risk assessment, cases, linkages
// and digital footprint.
type InvestigationRepo struct {
	db DBTX
}

func NewInvestigationRepo(db DBTX) *InvestigationRepo { return &InvestigationRepo{db: db} }

// detailRow is a line of investigation_details. Severity is empty for plain
// label/value details.
type detailRow struct {
	Label    string
	Value    string
	Severity string
}

func (r *InvestigationRepo) replaceDetails(ctx context.Context, ownerID string, details []detailRow) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM investigation_details WHERE owner_id = ?`, ownerID); err != nil {
		return err
	}
	for i, d := range details {
		if _, err := r.db.ExecContext(ctx, `INSERT INTO investigation_details(owner_id, position, label, value, severity) VALUES(?, ?, ?, ?, ?)`,
			ownerID, i, d.Label, d.Value, d.Severity); err != nil {
			return err
		}
	}
	return nil
}

func (r *InvestigationRepo) details(ctx context.Context, ownerID string) ([]detailRow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT label, value, severity FROM investigation_details WHERE owner_id = ? ORDER BY position`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []detailRow
	for rows.Next() {
		var d detailRow
		if err := rows.Scan(&d.Label, &d.Value, &d.Severity); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func plainDetails(details []Detail) []detailRow {
	out := make([]detailRow, len(details))
	for i, d := range details {
		out[i] = detailRow{Label: d.Label, Value: d.Value}
	}
	return out
}

func toDetails(rows []detailRow) []Detail {
	if len(rows) == 0 {
		return nil
	}
	out := make([]Detail, len(rows))
	for i, d := range rows {
		out[i] = Detail{Label: d.Label, Value: d.Value}
	}
	return out
}

// scanAll reads every row and closes rows before returning, so follow-up
// queries can run on the single pooled connection.
func scanAll[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *InvestigationRepo) UpsertRiskCategory(ctx context.Context, c RiskCategory) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO risk_categories(id, merchant_id, name, score, position)
	VALUES(?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 name=excluded.name, score=excluded.score, position=excluded.position;
	`, c.ID, c.MerchantID, c.Name, c.Score, c.Position)
	if err != nil {
		return err
	}
	details := make([]detailRow, len(c.Indicators))
	for i, ind := range c.Indicators {
		details[i] = detailRow{Label: "indicator", Value: ind.Text, Severity: ind.Severity}
	}
	return r.replaceDetails(ctx, c.ID, details)
}

// RiskCategories lists the merchant's risk categories in assessment order.
func (r *InvestigationRepo) RiskCategories(ctx context.Context, merchantID string) ([]RiskCategory, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, merchant_id, name, score, position FROM risk_categories WHERE merchant_id = ? ORDER BY position`, merchantID)
	if err != nil {
		return nil, err
	}
	out, err := scanAll(rows, func(rows *sql.Rows) (RiskCategory, error) {
		var c RiskCategory
		err := rows.Scan(&c.ID, &c.MerchantID, &c.Name, &c.Score, &c.Position)
		return c, err
	})
	if err != nil {
		return nil, err
	}
	for i := range out {
		details, err := r.details(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		for _, d := range details {
			out[i].Indicators = append(out[i].Indicators, Indicator{Text: d.Value, Severity: d.Severity})
		}
	}
	return out, nil
}

func (r *InvestigationRepo) UpsertCase(ctx context.Context, c Case) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO cases(id, merchant_id, ref, title, status, priority, assignee, note, opened_on)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 title=excluded.title, status=excluded.status, priority=excluded.priority,
	 assignee=excluded.assignee, note=excluded.note, opened_on=excluded.opened_on;
	`, c.ID, c.MerchantID, c.Ref, c.Title, c.Status, c.Priority, c.Assignee, c.Note, c.OpenedOn)
	return err
}

// Cases lists the merchant's cases, newest first.
func (r *InvestigationRepo) Cases(ctx context.Context, merchantID string) ([]Case, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, merchant_id, ref, title, status, priority, assignee, note, opened_on FROM cases WHERE merchant_id = ? ORDER BY opened_on DESC, ref DESC`, merchantID)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, func(rows *sql.Rows) (Case, error) {
		var c Case
		err := rows.Scan(&c.ID, &c.MerchantID, &c.Ref, &c.Title, &c.Status, &c.Priority, &c.Assignee, &c.Note, &c.OpenedOn)
		return c, err
	})
}

func (r *InvestigationRepo) UpsertLinkedEntity(ctx context.Context, e LinkedEntity) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO linked_entities(id, merchant_id, name, relation, connection_count, risk_level)
	VALUES(?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 name=excluded.name, relation=excluded.relation, connection_count=excluded.connection_count,
	 risk_level=excluded.risk_level;
	`, e.ID, e.MerchantID, e.Name, e.Relation, e.ConnectionCount, e.RiskLevel)
	if err != nil {
		return err
	}
	return r.replaceDetails(ctx, e.ID, plainDetails(e.Details))
}

// LinkedEntities lists connected entities, most connected first.
func (r *InvestigationRepo) LinkedEntities(ctx context.Context, merchantID string) ([]LinkedEntity, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, merchant_id, name, relation, connection_count, risk_level FROM linked_entities WHERE merchant_id = ? ORDER BY connection_count DESC, name`, merchantID)
	if err != nil {
		return nil, err
	}
	out, err := scanAll(rows, func(rows *sql.Rows) (LinkedEntity, error) {
		var e LinkedEntity
		err := rows.Scan(&e.ID, &e.MerchantID, &e.Name, &e.Relation, &e.ConnectionCount, &e.RiskLevel)
		return e, err
	})
	if err != nil {
		return nil, err
	}
	for i := range out {
		details, err := r.details(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Details = toDetails(details)
	}
	return out, nil
}

func (r *InvestigationRepo) UpsertSharedIdentifier(ctx context.Context, s SharedIdentifier) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO shared_identifiers(id, merchant_id, kind, value, shared_with)
	VALUES(?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 kind=excluded.kind, value=excluded.value, shared_with=excluded.shared_with;
	`, s.ID, s.MerchantID, s.Kind, s.Value, strings.Join(s.SharedWith, "\n"))
	return err
}

func (r *InvestigationRepo) SharedIdentifiers(ctx context.Context, merchantID string) ([]SharedIdentifier, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, merchant_id, kind, value, shared_with FROM shared_identifiers WHERE merchant_id = ? ORDER BY kind`, merchantID)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, func(rows *sql.Rows) (SharedIdentifier, error) {
		var s SharedIdentifier
		var with string
		if err := rows.Scan(&s.ID, &s.MerchantID, &s.Kind, &s.Value, &with); err != nil {
			return s, err
		}
		if with != "" {
			s.SharedWith = strings.Split(with, "\n")
		}
		return s, nil
	})
}

func (r *InvestigationRepo) UpsertFootprintSignal(ctx context.Context, f FootprintSignal) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO footprint_signals(id, merchant_id, source, headline, score, position)
	VALUES(?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 source=excluded.source, headline=excluded.headline, score=excluded.score, position=excluded.position;
	`, f.ID, f.MerchantID, f.Source, f.Headline, f.Score, f.Position)
	if err != nil {
		return err
	}
	return r.replaceDetails(ctx, f.ID, plainDetails(f.Details))
}

func (r *InvestigationRepo) FootprintSignals(ctx context.Context, merchantID string) ([]FootprintSignal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, merchant_id, source, headline, score, position FROM footprint_signals WHERE merchant_id = ? ORDER BY position`, merchantID)
	if err != nil {
		return nil, err
	}
	out, err := scanAll(rows, func(rows *sql.Rows) (FootprintSignal, error) {
		var f FootprintSignal
		err := rows.Scan(&f.ID, &f.MerchantID, &f.Source, &f.Headline, &f.Score, &f.Position)
		return f, err
	})
	if err != nil {
		return nil, err
	}
	for i := range out {
		details, err := r.details(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Details = toDetails(details)
	}
	return out, nil
}
