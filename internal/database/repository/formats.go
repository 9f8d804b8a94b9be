package repository

import (
	"context"
	"database/sql"
)

// FormatRepo stores custom format configurations.
type FormatRepo struct{ db *sql.DB }

func NewFormatRepo(db *sql.DB) *FormatRepo { return &FormatRepo{db: db} }

const formatColumns = `id, name, config, use_count, created_at, updated_at`

func (r *FormatRepo) Insert(ctx context.Context, f ImportFormat) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO import_formats(id, name, config, use_count, created_at, updated_at)
	VALUES(?, ?, ?, 0, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		f.ID, f.Name, f.Config)
	return err
}

func (r *FormatRepo) Update(ctx context.Context, f ImportFormat) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE import_formats SET name = ?, config = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		f.Name, f.Config, f.ID)
	return err
}

func (r *FormatRepo) Get(ctx context.Context, id string) (*ImportFormat, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+formatColumns+` FROM import_formats WHERE id = ?`, id)
	var f ImportFormat
	if err := row.Scan(&f.ID, &f.Name, &f.Config, &f.UseCount, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

func (r *FormatRepo) List(ctx context.Context) ([]ImportFormat, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+formatColumns+` FROM import_formats ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ImportFormat
	for rows.Next() {
		var f ImportFormat
		if err := rows.Scan(&f.ID, &f.Name, &f.Config, &f.UseCount, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *FormatRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM import_formats WHERE id = ?`, id)
	return err
}

// IncrementUseCount bumps usage after a committed import.
func (r *FormatRepo) IncrementUseCount(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE import_formats SET use_count = use_count + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

// ImportRepo records import history.
type ImportRepo struct{ db *sql.DB }

func NewImportRepo(db *sql.DB) *ImportRepo { return &ImportRepo{db: db} }

func (r *ImportRepo) Add(ctx context.Context, rec ImportRecord) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO imports(id, filename, format_id, imported, skipped, failed, created_at)
	VALUES(?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		rec.ID, rec.Filename, rec.FormatID, rec.Imported, rec.Skipped, rec.Failed)
	return err
}

func (r *ImportRepo) List(ctx context.Context, limit int) ([]ImportRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, filename, format_id, imported, skipped, failed, created_at
	FROM imports ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ImportRecord
	for rows.Next() {
		var rec ImportRecord
		var formatID sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Filename, &formatID, &rec.Imported, &rec.Skipped, &rec.Failed, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if formatID.Valid {
			rec.FormatID = &formatID.String
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
