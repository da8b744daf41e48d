package repository

import (
	"context"
	"database/sql"
)

// MerchantRepo handles merchants and their payment channels.
type MerchantRepo struct {
	db DBTX
}

func NewMerchantRepo(db DBTX) *MerchantRepo { return &MerchantRepo{db: db} }

func (r *MerchantRepo) Upsert(ctx context.Context, m Merchant) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO merchants(id, ref, name, business_type, city, country_code, risk_score, status, onboarded_on)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 name=excluded.name, business_type=excluded.business_type, city=excluded.city,
	 country_code=excluded.country_code, risk_score=excluded.risk_score, status=excluded.status,
	 onboarded_on=excluded.onboarded_on;
	`, m.ID, m.Ref, m.Name, m.BusinessType, m.City, m.CountryCode, m.RiskScore, m.Status, m.OnboardedOn)
	return err
}

func (r *MerchantRepo) List(ctx context.Context) ([]Merchant, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, ref, name, business_type, city, country_code, risk_score, status, onboarded_on FROM merchants ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Merchant
	for rows.Next() {
		m, err := scanMerchant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Get returns nil when no merchant has id.
func (r *MerchantRepo) Get(ctx context.Context, id string) (*Merchant, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, ref, name, business_type, city, country_code, risk_score, status, onboarded_on FROM merchants WHERE id = ?`, id)
	m, err := scanMerchant(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func scanMerchant(row scanner) (Merchant, error) {
	var m Merchant
	err := row.Scan(&m.ID, &m.Ref, &m.Name, &m.BusinessType, &m.City, &m.CountryCode, &m.RiskScore, &m.Status, &m.OnboardedOn)
	return m, err
}

func (r *MerchantRepo) UpsertChannel(ctx context.Context, c Channel) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO channels(id, merchant_id, ref, channel_type, name, status, added_on)
	VALUES(?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 channel_type=excluded.channel_type, name=excluded.name, status=excluded.status, added_on=excluded.added_on;
	`, c.ID, c.MerchantID, c.Ref, c.Type, c.Name, c.Status, c.AddedOn)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM channel_details WHERE channel_id = ?`, c.ID); err != nil {
		return err
	}
	for i, d := range c.Details {
		if _, err := r.db.ExecContext(ctx, `INSERT INTO channel_details(channel_id, position, label, value) VALUES(?, ?, ?, ?)`, c.ID, i, d.Label, d.Value); err != nil {
			return err
		}
	}
	return nil
}

// Channels lists a merchant's channels, newest first, with their details.
func (r *MerchantRepo) Channels(ctx context.Context, merchantID string) ([]Channel, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, merchant_id, ref, channel_type, name, status, added_on FROM channels WHERE merchant_id = ? ORDER BY added_on DESC`, merchantID)
	if err != nil {
		return nil, err
	}
	var out []Channel
	for rows.Next() {
		var c Channel
		if err := rows.Scan(&c.ID, &c.MerchantID, &c.Ref, &c.Type, &c.Name, &c.Status, &c.AddedOn); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, c)
	}
	err = rows.Err()
	// details are fetched after rows is closed; the pool has one connection
	rows.Close()
	if err != nil {
		return nil, err
	}
	for i := range out {
		details, err := r.fetchDetails(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Details = details
	}
	return out, nil
}

func (r *MerchantRepo) fetchDetails(ctx context.Context, channelID string) ([]Detail, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT label, value FROM channel_details WHERE channel_id = ? ORDER BY position`, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Detail
	for rows.Next() {
		var d Detail
		if err := rows.Scan(&d.Label, &d.Value); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
