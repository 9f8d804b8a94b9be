package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jask/bucketd/internal/database/repository"
)

// BudgetLine is one bucket's row in the monthly budget report.
type BudgetLine struct {
	BucketTagID    string `json:"bucket_tag_id"`
	Bucket         string `json:"bucket"`
	BudgetedCents  int64  `json:"budgeted_cents"`
	SpentCents     int64  `json:"spent_cents"`
	RemainingCents int64  `json:"remaining_cents"`
	OverBudget     bool   `json:"over_budget"`
}

// BucketSpend is one slice of the spend-by-bucket widget.
type BucketSpend struct {
	Bucket     string `json:"bucket"`
	SpentCents int64  `json:"spent_cents"`
}

// DaySpend is one point of the daily spend widget.
type DaySpend struct {
	Day        string `json:"day"`
	SpentCents int64  `json:"spent_cents"`
}

// MonthSummary feeds the overview widget.
type MonthSummary struct {
	Month        string `json:"month"`
	Transactions int    `json:"transactions"`
	Unbucketed   int    `json:"unbucketed"`
}

// ReportService computes budget and dashboard widget data.
type ReportService struct {
	Transactions *repository.TransactionRepo
	Tags         *repository.TagRepo
	Budgets      *repository.BudgetRepo
}

// ParseMonth validates a "YYYY-MM" key, defaulting to the current month.
func ParseMonth(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q, want YYYY-MM", s)
	}
	return t, nil
}

// BudgetReport resolves per-bucket budgeted vs spent for a month. Spend is
// the negated sum of negative amounts; transfer-tagged rows are excluded.
func (s *ReportService) BudgetReport(ctx context.Context, month time.Time) ([]BudgetLine, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	budgets, err := s.Budgets.ForMonth(ctx, start.Format("2006-01"))
	if err != nil {
		return nil, err
	}
	spent, err := s.spendByBucketTag(ctx, start, end)
	if err != nil {
		return nil, err
	}
	tags, err := s.Tags.ListNamespace(ctx, repository.NamespaceBucket)
	if err != nil {
		return nil, err
	}

	var out []BudgetLine
	for _, tag := range tags {
		budgeted := budgets[tag.ID]
		sp := spent[tag.ID]
		if budgeted == 0 && sp == 0 {
			continue
		}
		line := BudgetLine{
			BucketTagID:    tag.ID,
			Bucket:         strings.TrimPrefix(tag.Name, repository.NamespaceBucket+":"),
			BudgetedCents:  budgeted,
			SpentCents:     sp,
			RemainingCents: budgeted - sp,
		}
		line.OverBudget = budgeted > 0 && sp > budgeted
		out = append(out, line)
	}
	return out, nil
}

func (s *ReportService) spendByBucketTag(ctx context.Context, start, end time.Time) (map[string]int64, error) {
	excludeID := ""
	if transferTag, err := s.Tags.ByName(ctx, transferTagName); err != nil {
		return nil, err
	} else if transferTag != nil {
		excludeID = transferTag.ID
	}
	totals, err := s.Transactions.SumByTagForRange(ctx, repository.NamespaceBucket, start, end, excludeID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(totals))
	for _, tt := range totals {
		if tt.TotalCents < 0 {
			out[tt.TagID] = -tt.TotalCents
		}
	}
	return out, nil
}

// SpendByBucket returns widget data for a month.
func (s *ReportService) SpendByBucket(ctx context.Context, month time.Time) ([]BucketSpend, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	spent, err := s.spendByBucketTag(ctx, start, end)
	if err != nil {
		return nil, err
	}
	tags, err := s.Tags.ListNamespace(ctx, repository.NamespaceBucket)
	if err != nil {
		return nil, err
	}
	var out []BucketSpend
	for _, tag := range tags {
		if cents, ok := spent[tag.ID]; ok {
			out = append(out, BucketSpend{
				Bucket:     strings.TrimPrefix(tag.Name, repository.NamespaceBucket+":"),
				SpentCents: cents,
			})
		}
	}
	return out, nil
}

// DailySpend returns the spend series for a month.
func (s *ReportService) DailySpend(ctx context.Context, month time.Time) ([]DaySpend, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	days, err := s.Transactions.SumByDayForRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	out := make([]DaySpend, 0, len(days))
	for _, d := range days {
		out = append(out, DaySpend{Day: d.Day, SpentCents: -d.TotalCents})
	}
	return out, nil
}

// Summary returns the month overview counts.
func (s *ReportService) Summary(ctx context.Context, month time.Time) (MonthSummary, error) {
	total, unbucketed, err := s.Transactions.CountForMonth(ctx, month)
	if err != nil {
		return MonthSummary{}, err
	}
	return MonthSummary{
		Month:        month.Format("2006-01"),
		Transactions: total,
		Unbucketed:   unbucketed,
	}, nil
}
