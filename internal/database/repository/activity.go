package repository

import (
	"context"
	"database/sql"
)

// ActivityRepo handles communications, the event timeline and red flags.
type ActivityRepo struct {
	db DBTX
}

func NewActivityRepo(db DBTX) *ActivityRepo { return &ActivityRepo{db: db} }

func (r *ActivityRepo) UpsertCommunication(ctx context.Context, c Communication) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO communications(id, merchant_id, ref, kind, subject, content, sender, recipient, status, occurred_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 kind=excluded.kind, subject=excluded.subject, content=excluded.content, sender=excluded.sender,
	 recipient=excluded.recipient, status=excluded.status, occurred_at=excluded.occurred_at;
	`, c.ID, c.MerchantID, c.Ref, c.Kind, c.Subject, c.Content, c.From, c.To, c.Status, c.OccurredAt)
	return err
}

func (r *ActivityRepo) Communications(ctx context.Context, merchantID string) ([]Communication, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, merchant_id, ref, kind, subject, content, sender, recipient, status, occurred_at FROM communications WHERE merchant_id = ? ORDER BY occurred_at DESC`, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Communication
	for rows.Next() {
		var c Communication
		var from, to sql.NullString
		if err := rows.Scan(&c.ID, &c.MerchantID, &c.Ref, &c.Kind, &c.Subject, &c.Content, &from, &to, &c.Status, &c.OccurredAt); err != nil {
			return nil, err
		}
		c.From = nullString(from)
		c.To = nullString(to)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ActivityRepo) UpsertTimelineEvent(ctx context.Context, e TimelineEvent) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO timeline_events(id, merchant_id, ref, event, kind, occurred_at)
	VALUES(?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET event=excluded.event, kind=excluded.kind, occurred_at=excluded.occurred_at;
	`, e.ID, e.MerchantID, e.Ref, e.Event, e.Kind, e.OccurredAt)
	return err
}

func (r *ActivityRepo) Timeline(ctx context.Context, merchantID string) ([]TimelineEvent, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, merchant_id, ref, event, kind, occurred_at FROM timeline_events WHERE merchant_id = ? ORDER BY occurred_at DESC`, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TimelineEvent
	for rows.Next() {
		var e TimelineEvent
		if err := rows.Scan(&e.ID, &e.MerchantID, &e.Ref, &e.Event, &e.Kind, &e.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *ActivityRepo) UpsertRedFlag(ctx context.Context, f RedFlag) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO red_flags(id, merchant_id, section, severity, text, raised_at)
	VALUES(?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET section=excluded.section, severity=excluded.severity, text=excluded.text, raised_at=excluded.raised_at;
	`, f.ID, f.MerchantID, f.Section, f.Severity, f.Text, f.RaisedAt)
	return err
}

// RedFlags lists flags grouped by section, most severe first within each.
func (r *ActivityRepo) RedFlags(ctx context.Context, merchantID string) ([]RedFlag, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, merchant_id, section, severity, text, raised_at FROM red_flags
	WHERE merchant_id = ?
	ORDER BY section,
	 CASE severity WHEN 'critical' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END,
	 raised_at DESC`, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RedFlag
	for rows.Next() {
		var f RedFlag
		if err := rows.Scan(&f.ID, &f.MerchantID, &f.Section, &f.Severity, &f.Text, &f.RaisedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
