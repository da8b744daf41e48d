package repository

import (
	"context"
	"database/sql"
	"strings"
)

// TransactionFilters defines list filters.
type TransactionFilters struct {
	MerchantID string
	Status     string
	MinRisk    int
	Search     string
}

// TransactionRepo handles transactions and payouts.
type TransactionRepo struct {
	db DBTX
}

func NewTransactionRepo(db DBTX) *TransactionRepo { return &TransactionRepo{db: db} }

func (r *TransactionRepo) Upsert(ctx context.Context, t Transaction) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO transactions(
	 id, merchant_id, ref, txn_type, merchant_type, counterparty, amount, city, country_code,
	 product, risk_score, risk_description, status, occurred_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 txn_type=excluded.txn_type, merchant_type=excluded.merchant_type, counterparty=excluded.counterparty,
	 amount=excluded.amount, city=excluded.city, country_code=excluded.country_code, product=excluded.product,
	 risk_score=excluded.risk_score, risk_description=excluded.risk_description, status=excluded.status,
	 occurred_at=excluded.occurred_at;
	`,
		t.ID, t.MerchantID, t.Ref, t.Type, t.MerchantType, t.Counterparty, t.Amount, t.City, t.CountryCode,
		t.Product, t.RiskScore, t.RiskDescription, t.Status, t.OccurredAt)
	return err
}

const transactionColumns = "id, merchant_id, ref, txn_type, merchant_type, counterparty, amount, city, country_code, product, risk_score, risk_description, status, occurred_at"

func (r *TransactionRepo) List(ctx context.Context, f TransactionFilters) ([]Transaction, error) {
	var where []string
	var args []interface{}

	if f.MerchantID != "" {
		where = append(where, "merchant_id = ?")
		args = append(args, f.MerchantID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.MinRisk > 0 {
		where = append(where, "risk_score >= ?")
		args = append(args, f.MinRisk)
	}
	if f.Search != "" {
		where = append(where, "(counterparty LIKE ? OR ref LIKE ?)")
		args = append(args, "%"+f.Search+"%", "%"+f.Search+"%")
	}

	query := "SELECT " + transactionColumns + " FROM transactions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY occurred_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetByRef returns nil when no transaction has ref.
func (r *TransactionRepo) GetByRef(ctx context.Context, ref string) (*Transaction, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE ref = ?", ref)
	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func scanTransaction(row scanner) (Transaction, error) {
	var t Transaction
	var product, riskDesc sql.NullString
	if err := row.Scan(&t.ID, &t.MerchantID, &t.Ref, &t.Type, &t.MerchantType, &t.Counterparty, &t.Amount,
		&t.City, &t.CountryCode, &product, &t.RiskScore, &riskDesc, &t.Status, &t.OccurredAt); err != nil {
		return Transaction{}, err
	}
	t.Product = nullString(product)
	t.RiskDescription = nullString(riskDesc)
	return t, nil
}

func (r *TransactionRepo) UpsertPayout(ctx context.Context, p Payout) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO payouts(id, merchant_id, ref, amount, status, bank_account, utr, payout_type, priority, occurred_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 amount=excluded.amount, status=excluded.status, bank_account=excluded.bank_account, utr=excluded.utr,
	 payout_type=excluded.payout_type, priority=excluded.priority, occurred_at=excluded.occurred_at;
	`, p.ID, p.MerchantID, p.Ref, p.Amount, p.Status, p.BankAccount, p.UTR, p.Type, p.Priority, p.OccurredAt)
	return err
}

func (r *TransactionRepo) Payouts(ctx context.Context, merchantID string) ([]Payout, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, merchant_id, ref, amount, status, bank_account, utr, payout_type, priority, occurred_at FROM payouts WHERE merchant_id = ? ORDER BY occurred_at DESC`, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Payout
	for rows.Next() {
		var p Payout
		var kind, priority sql.NullString
		if err := rows.Scan(&p.ID, &p.MerchantID, &p.Ref, &p.Amount, &p.Status, &p.BankAccount, &p.UTR, &kind, &priority, &p.OccurredAt); err != nil {
			return nil, err
		}
		p.Type = nullString(kind)
		p.Priority = nullString(priority)
		out = append(out, p)
	}
	return out, rows.Err()
}

// RiskSummary aggregates transaction risk for the investigation overview.
type RiskSummary struct {
	Count      int
	HighRisk   int
	AvgRisk    float64
	TotalValue int64
}

func (r *TransactionRepo) Summary(ctx context.Context, merchantID string, highRisk int) (RiskSummary, error) {
	var s RiskSummary
	row := r.db.QueryRowContext(ctx, `
	SELECT COUNT(*), COALESCE(SUM(CASE WHEN risk_score >= ? THEN 1 ELSE 0 END), 0),
	 COALESCE(AVG(risk_score), 0), COALESCE(SUM(amount), 0)
	FROM transactions WHERE merchant_id = ?`, highRisk, merchantID)
	err := row.Scan(&s.Count, &s.HighRisk, &s.AvgRisk, &s.TotalValue)
	return s, err
}
