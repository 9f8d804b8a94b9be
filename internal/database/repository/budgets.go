package repository

import (
	"context"
	"database/sql"
)

// BudgetRepo stores per-bucket budget amounts.
type BudgetRepo struct{ db *sql.DB }

func NewBudgetRepo(db *sql.DB) *BudgetRepo { return &BudgetRepo{db: db} }

func (r *BudgetRepo) Upsert(ctx context.Context, b Budget) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO budgets(id, bucket_tag_id, month, amount)
	VALUES(?, ?, ?, ?)
	ON CONFLICT(bucket_tag_id, month) DO UPDATE SET amount=excluded.amount`,
		b.ID, b.BucketTagID, b.Month, b.AmountCents)
	return err
}

func (r *BudgetRepo) List(ctx context.Context) ([]Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, bucket_tag_id, month, amount FROM budgets ORDER BY bucket_tag_id, month`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Budget
	for rows.Next() {
		var b Budget
		if err := rows.Scan(&b.ID, &b.BucketTagID, &b.Month, &b.AmountCents); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ForMonth resolves the effective budget per bucket tag: the month override
// row when present, otherwise the default ('' month) row.
func (r *BudgetRepo) ForMonth(ctx context.Context, month string) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT bucket_tag_id, month, amount FROM budgets WHERE month = '' OR month = ?`, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	defaults := map[string]int64{}
	overrides := map[string]int64{}
	for rows.Next() {
		var tagID, m string
		var cents int64
		if err := rows.Scan(&tagID, &m, &cents); err != nil {
			return nil, err
		}
		if m == "" {
			defaults[tagID] = cents
		} else {
			overrides[tagID] = cents
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := defaults
	for tagID, cents := range overrides {
		out[tagID] = cents
	}
	return out, nil
}

func (r *BudgetRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	return err
}
