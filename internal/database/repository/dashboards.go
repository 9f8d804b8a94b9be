package repository

import (
	"context"
	"database/sql"
)

// DashboardRepo stores dashboards and their widgets.
type DashboardRepo struct{ db *sql.DB }

func NewDashboardRepo(db *sql.DB) *DashboardRepo { return &DashboardRepo{db: db} }

func (r *DashboardRepo) Upsert(ctx context.Context, d Dashboard) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO dashboards(id, name, is_default) VALUES(?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET name=excluded.name, is_default=excluded.is_default`,
		d.ID, d.Name, d.IsDefault)
	return err
}

func (r *DashboardRepo) List(ctx context.Context) ([]Dashboard, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, is_default FROM dashboards ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Dashboard
	for rows.Next() {
		var d Dashboard
		if err := rows.Scan(&d.ID, &d.Name, &d.IsDefault); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		widgets, err := r.Widgets(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Widgets = widgets
	}
	return out, nil
}

func (r *DashboardRepo) Get(ctx context.Context, id string) (*Dashboard, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, is_default FROM dashboards WHERE id = ?`, id)
	var d Dashboard
	if err := row.Scan(&d.ID, &d.Name, &d.IsDefault); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	widgets, err := r.Widgets(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	d.Widgets = widgets
	return &d, nil
}

func (r *DashboardRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM dashboards WHERE id = ?`, id)
	return err
}

func (r *DashboardRepo) Widgets(ctx context.Context, dashboardID string) ([]Widget, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, dashboard_id, kind, title, position, config
	FROM widgets WHERE dashboard_id = ? ORDER BY position`, dashboardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Widget
	for rows.Next() {
		var w Widget
		if err := rows.Scan(&w.ID, &w.DashboardID, &w.Kind, &w.Title, &w.Position, &w.Config); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *DashboardRepo) UpsertWidget(ctx context.Context, w Widget) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO widgets(id, dashboard_id, kind, title, position, config)
	VALUES(?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 kind=excluded.kind, title=excluded.title, position=excluded.position, config=excluded.config`,
		w.ID, w.DashboardID, w.Kind, w.Title, w.Position, w.Config)
	return err
}

func (r *DashboardRepo) DeleteWidget(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM widgets WHERE id = ?`, id)
	return err
}
