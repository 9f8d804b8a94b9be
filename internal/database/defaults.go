package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/jask/bucketd/internal/database/repository"
)

// SeedDefaults ensures baseline bucket tags and a default dashboard exist
// for new databases. It is idempotent and safe to run on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB) error {
	tagRepo := repository.NewTagRepo(db)
	existing, err := tagRepo.ListNamespace(ctx, repository.NamespaceBucket)
	if err == nil && len(existing) > 0 {
		return nil
	}
	buckets := []string{
		"groceries",
		"restaurants",
		"transport",
		"shopping",
		"utilities",
		"subscriptions",
		"health",
		"entertainment",
	}
	for _, b := range buckets {
		name := repository.NamespaceBucket + ":" + b
		tag := repository.Tag{
			ID:   uuid.NewSHA1(uuid.NameSpaceOID, []byte("tag:"+name)).String(),
			Name: name,
		}
		if err := tagRepo.Upsert(ctx, tag); err != nil {
			return err
		}
	}

	dashRepo := repository.NewDashboardRepo(db)
	dashboards, err := dashRepo.List(ctx)
	if err != nil || len(dashboards) > 0 {
		return err
	}
	dash := repository.Dashboard{
		ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte("dashboard:default")).String(),
		Name:      "Overview",
		IsDefault: true,
	}
	if err := dashRepo.Upsert(ctx, dash); err != nil {
		return err
	}
	widgets := []repository.Widget{
		{Kind: "month-summary", Title: "This month"},
		{Kind: "spend-by-bucket", Title: "Spending by bucket"},
		{Kind: "daily-spend", Title: "Daily spend"},
		{Kind: "budget-report", Title: "Budgets"},
	}
	for i, w := range widgets {
		w.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("widget:"+w.Kind)).String()
		w.DashboardID = dash.ID
		w.Position = i
		w.Config = "{}"
		if err := dashRepo.UpsertWidget(ctx, w); err != nil {
			return err
		}
	}
	return nil
}
