package repository

import (
	"context"
	"database/sql"
)

// AliasRepo stores merchant aliases.
type AliasRepo struct{ db *sql.DB }

func NewAliasRepo(db *sql.DB) *AliasRepo { return &AliasRepo{db: db} }

func (r *AliasRepo) Upsert(ctx context.Context, a MerchantAlias) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO merchant_aliases(id, pattern, match_type, alias, created_at)
	VALUES(?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(id) DO UPDATE SET pattern=excluded.pattern, match_type=excluded.match_type, alias=excluded.alias`,
		a.ID, a.Pattern, a.MatchType, a.Alias)
	return err
}

func (r *AliasRepo) List(ctx context.Context) ([]MerchantAlias, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, pattern, match_type, alias, created_at FROM merchant_aliases ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MerchantAlias
	for rows.Next() {
		var a MerchantAlias
		if err := rows.Scan(&a.ID, &a.Pattern, &a.MatchType, &a.Alias, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AliasRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM merchant_aliases WHERE id = ?`, id)
	return err
}

// TagRuleRepo stores tag rules.
type TagRuleRepo struct{ db *sql.DB }

func NewTagRuleRepo(db *sql.DB) *TagRuleRepo { return &TagRuleRepo{db: db} }

func (r *TagRuleRepo) Upsert(ctx context.Context, tr TagRule) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO tag_rules(id, name, field, pattern, match_type, tag_id, enabled, created_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(id) DO UPDATE SET
	 name=excluded.name, field=excluded.field, pattern=excluded.pattern,
	 match_type=excluded.match_type, tag_id=excluded.tag_id, enabled=excluded.enabled`,
		tr.ID, tr.Name, tr.Field, tr.Pattern, tr.MatchType, tr.TagID, tr.Enabled)
	return err
}

func (r *TagRuleRepo) List(ctx context.Context) ([]TagRule, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, name, field, pattern, match_type, tag_id, enabled, created_at
	FROM tag_rules ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TagRule
	for rows.Next() {
		var tr TagRule
		if err := rows.Scan(&tr.ID, &tr.Name, &tr.Field, &tr.Pattern, &tr.MatchType, &tr.TagID, &tr.Enabled, &tr.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (r *TagRuleRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tag_rules WHERE id = ?`, id)
	return err
}
