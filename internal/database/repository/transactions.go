package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// TransactionFilters defines list filters.
type TransactionFilters struct {
	TagID  string
	Month  time.Time // use first day of month; zero time = no month filter
	Search string
	Limit  int
}

// TransactionRepo handles transactions.
type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

const transactionColumns = `id, date, amount, description, merchant, reference, notes, source_hash, created_at, updated_at`

func (r *TransactionRepo) Insert(ctx context.Context, t Transaction) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO transactions(id, date, amount, description, merchant, reference, notes, source_hash, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`, t.ID, t.Date, t.AmountCents, t.Description, t.Merchant, t.Reference, t.Notes, t.SourceHash)
	return err
}

func (r *TransactionRepo) Update(ctx context.Context, t Transaction) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE transactions
	SET date = ?, amount = ?, description = ?, merchant = ?, reference = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`,
		t.Date, t.AmountCents, t.Description, t.Merchant, t.Reference, t.Notes, t.ID)
	return err
}

func (r *TransactionRepo) UpdateMerchant(ctx context.Context, id string, merchant *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE transactions SET merchant = ?, updated_at=CURRENT_TIMESTAMP WHERE id = ?`, merchant, id)
	return err
}

func (r *TransactionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	return err
}

func (r *TransactionRepo) AttachTag(ctx context.Context, transactionID, tagID string) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO transaction_tags(transaction_id, tag_id) VALUES(?, ?)`, transactionID, tagID)
	return err
}

func (r *TransactionRepo) RemoveTag(ctx context.Context, transactionID, tagID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transaction_tags WHERE transaction_id = ? AND tag_id = ?`, transactionID, tagID)
	return err
}

// ReplaceTags swaps the full tag set on a transaction.
func (r *TransactionRepo) ReplaceTags(ctx context.Context, transactionID string, tagIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM transaction_tags WHERE transaction_id = ?`, transactionID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO transaction_tags(transaction_id, tag_id) VALUES(?, ?)`, transactionID, tagID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *TransactionRepo) List(ctx context.Context, f TransactionFilters) ([]Transaction, error) {
	var where []string
	var args []interface{}

	if f.TagID != "" {
		where = append(where, "id IN (SELECT transaction_id FROM transaction_tags WHERE tag_id = ?)")
		args = append(args, f.TagID)
	}
	if !f.Month.IsZero() {
		start := time.Date(f.Month.Year(), f.Month.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0)
		where = append(where, "date >= ? AND date < ?")
		args = append(args, start, end)
	}
	if f.Search != "" {
		where = append(where, "(description LIKE ? OR merchant LIKE ?)")
		args = append(args, "%"+f.Search+"%", "%"+f.Search+"%")
	}

	query := "SELECT " + transactionColumns + " FROM transactions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

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
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		tags, err := r.fetchTags(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Tags = tags
	}
	return out, nil
}

func (r *TransactionRepo) Get(ctx context.Context, id string) (*Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	tags, err := r.fetchTags(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.Tags = tags
	return &t, nil
}

func (r *TransactionRepo) fetchTags(ctx context.Context, transactionID string) ([]Tag, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT t.id, t.name FROM tags t JOIN transaction_tags tt ON tt.tag_id = t.id WHERE tt.transaction_id = ? ORDER BY t.name`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// TagTotal aggregates signed cents per tag.
type TagTotal struct {
	TagID      string
	TagName    string
	TotalCents int64
}

// SumByTagForRange returns per-tag spend for tags under the given namespace
// prefix, restricted to [start, end). Transactions tagged with excludeTagID
// (e.g. occasion:transfer) are left out.
func (r *TransactionRepo) SumByTagForRange(ctx context.Context, prefix string, start, end time.Time, excludeTagID string) ([]TagTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT t.id, t.name, SUM(x.amount) AS total
	FROM transactions x
	JOIN transaction_tags tt ON tt.transaction_id = x.id
	JOIN tags t ON t.id = tt.tag_id
	WHERE t.name LIKE ? || ':%'
	  AND x.date >= ? AND x.date < ?
	  AND (? = '' OR x.id NOT IN (SELECT transaction_id FROM transaction_tags WHERE tag_id = ?))
	GROUP BY t.id
	ORDER BY total ASC;
	`, prefix, start, end, excludeTagID, excludeTagID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TagTotal
	for rows.Next() {
		var tt TagTotal
		if err := rows.Scan(&tt.TagID, &tt.TagName, &tt.TotalCents); err != nil {
			return nil, err
		}
		out = append(out, tt)
	}
	return out, rows.Err()
}

// DayTotal aggregates signed cents per calendar day.
type DayTotal struct {
	Day        string
	TotalCents int64
}

func (r *TransactionRepo) SumByDayForRange(ctx context.Context, start, end time.Time) ([]DayTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT strftime('%Y-%m-%d', date) AS day, SUM(amount) AS total
	FROM transactions
	WHERE date >= ? AND date < ? AND amount < 0
	GROUP BY day
	ORDER BY day;
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DayTotal
	for rows.Next() {
		var dt DayTotal
		if err := rows.Scan(&dt.Day, &dt.TotalCents); err != nil {
			return nil, err
		}
		out = append(out, dt)
	}
	return out, rows.Err()
}

// CountForMonth returns stats for dashboard widgets.
func (r *TransactionRepo) CountForMonth(ctx context.Context, month time.Time) (total int, unbucketed int, err error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	row := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE date >= ? AND date < ?`, start, end)
	if err = row.Scan(&total); err != nil {
		return
	}
	row = r.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM transactions x
	WHERE x.date >= ? AND x.date < ?
	  AND x.id NOT IN (
	    SELECT tt.transaction_id FROM transaction_tags tt
	    JOIN tags t ON t.id = tt.tag_id WHERE t.name LIKE 'bucket:%')`, start, end)
	if err = row.Scan(&unbucketed); err != nil {
		return
	}
	return
}

// scanTransaction handles nullable fields for both Row and Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row scanner) (Transaction, error) {
	var t Transaction
	var merchant, reference, notes, source sql.NullString
	if err := row.Scan(&t.ID, &t.Date, &t.AmountCents, &t.Description, &merchant, &reference,
		&notes, &source, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Transaction{}, err
	}
	if merchant.Valid {
		t.Merchant = &merchant.String
	}
	if reference.Valid {
		t.Reference = &reference.String
	}
	if notes.Valid {
		t.Notes = &notes.String
	}
	if source.Valid {
		t.SourceHash = &source.String
	}
	return t, nil
}
