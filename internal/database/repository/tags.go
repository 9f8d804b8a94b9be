package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// TagRepo handles tags.
type TagRepo struct {
	db *sql.DB
}

func NewTagRepo(db *sql.DB) *TagRepo { return &TagRepo{db: db} }

// ValidateTagName checks the namespace prefix. Plain names (no colon) are
// allowed; prefixed names must use a known namespace.
func ValidateTagName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("tag name required")
	}
	idx := strings.Index(name, ":")
	if idx < 0 {
		return nil
	}
	ns := name[:idx]
	if ns != NamespaceBucket && ns != NamespaceAccount && ns != NamespaceOccasion {
		return fmt.Errorf("unknown tag namespace %q", ns)
	}
	if strings.TrimSpace(name[idx+1:]) == "" {
		return fmt.Errorf("tag value required after %q", ns+":")
	}
	return nil
}

func (r *TagRepo) Upsert(ctx context.Context, t Tag) error {
	if err := ValidateTagName(t.Name); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO tags(id, name) VALUES (?, ?)
	ON CONFLICT(id) DO UPDATE SET name=excluded.name;
	`, t.ID, t.Name)
	return err
}

func (r *TagRepo) ByName(ctx context.Context, name string) (*Tag, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name FROM tags WHERE name = ?`, name)
	var t Tag
	if err := row.Scan(&t.ID, &t.Name); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TagRepo) List(ctx context.Context) ([]Tag, error) {
	return r.listWhere(ctx, ``)
}

// ListNamespace returns tags under one namespace, e.g. all bucket tags.
func (r *TagRepo) ListNamespace(ctx context.Context, ns string) ([]Tag, error) {
	return r.listWhere(ctx, ns+":%")
}

func (r *TagRepo) listWhere(ctx context.Context, pattern string) ([]Tag, error) {
	query := `SELECT id, name FROM tags`
	var args []interface{}
	if pattern != "" {
		query += ` WHERE name LIKE ?`
		args = append(args, pattern)
	}
	query += ` ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TagRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	return err
}
