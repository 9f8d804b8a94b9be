package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/bucketd/internal/database/repository"
)

func TestParseMonth(t *testing.T) {
	t.Parallel()

	got, err := ParseMonth("2026-02")
	require.NoError(t, err)
	require.Equal(t, time.February, got.Month())
	require.Equal(t, 2026, got.Year())

	_, err = ParseMonth("Feb 2026")
	require.Error(t, err)

	now, err := ParseMonth("")
	require.NoError(t, err)
	require.Equal(t, 1, now.Day())
}

func TestBudgetReport(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	txRepo := repository.NewTransactionRepo(db)
	tagRepo := repository.NewTagRepo(db)
	budgetRepo := repository.NewBudgetRepo(db)
	svc := &ReportService{Transactions: txRepo, Tags: tagRepo, Budgets: budgetRepo}

	a := insertTx(t, txRepo, "2026-02-05", -4500, "WOOLWORTHS")
	b := insertTx(t, txRepo, "2026-02-12", -6000, "COLES")
	c := insertTx(t, txRepo, "2026-02-20", -12000, "DAN MURPHY'S")
	tagTx(t, tagRepo, txRepo, a.ID, "bucket:groceries")
	tagTx(t, tagRepo, txRepo, b.ID, "bucket:groceries")
	tagTx(t, tagRepo, txRepo, c.ID, "bucket:alcohol")

	// transfer-tagged spend must not count
	tr := insertTx(t, txRepo, "2026-02-15", -50000, "TRANSFER TO SAVINGS")
	tagTx(t, tagRepo, txRepo, tr.ID, "bucket:groceries")
	tagTx(t, tagRepo, txRepo, tr.ID, "occasion:transfer")

	// spend outside the month must not count
	late := insertTx(t, txRepo, "2026-03-01", -9999, "WOOLWORTHS")
	tagTx(t, tagRepo, txRepo, late.ID, "bucket:groceries")

	groceriesID := deterministicTagID("bucket:groceries")
	require.NoError(t, budgetRepo.Upsert(ctx, repository.Budget{
		ID: "b1", BucketTagID: groceriesID, Month: "", AmountCents: 10000,
	}))

	month, err := ParseMonth("2026-02")
	require.NoError(t, err)
	lines, err := svc.BudgetReport(ctx, month)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	byBucket := map[string]BudgetLine{}
	for _, l := range lines {
		byBucket[l.Bucket] = l
	}

	groceries := byBucket["groceries"]
	require.Equal(t, int64(10000), groceries.BudgetedCents)
	require.Equal(t, int64(10500), groceries.SpentCents)
	require.Equal(t, int64(-500), groceries.RemainingCents)
	require.True(t, groceries.OverBudget)

	alcohol := byBucket["alcohol"]
	require.Equal(t, int64(0), alcohol.BudgetedCents)
	require.Equal(t, int64(12000), alcohol.SpentCents)
	require.False(t, alcohol.OverBudget)
}

func TestBudgetReportMonthOverride(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	txRepo := repository.NewTransactionRepo(db)
	tagRepo := repository.NewTagRepo(db)
	budgetRepo := repository.NewBudgetRepo(db)
	svc := &ReportService{Transactions: txRepo, Tags: tagRepo, Budgets: budgetRepo}

	a := insertTx(t, txRepo, "2026-02-05", -4500, "WOOLWORTHS")
	tagTx(t, tagRepo, txRepo, a.ID, "bucket:groceries")

	groceriesID := deterministicTagID("bucket:groceries")
	require.NoError(t, budgetRepo.Upsert(ctx, repository.Budget{
		ID: "b1", BucketTagID: groceriesID, Month: "", AmountCents: 10000,
	}))
	require.NoError(t, budgetRepo.Upsert(ctx, repository.Budget{
		ID: "b2", BucketTagID: groceriesID, Month: "2026-02", AmountCents: 25000,
	}))

	month, _ := ParseMonth("2026-02")
	lines, err := svc.BudgetReport(ctx, month)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, int64(25000), lines[0].BudgetedCents)

	other, _ := ParseMonth("2026-03")
	lines, err = svc.BudgetReport(ctx, other)
	require.NoError(t, err)
	require.Len(t, lines, 1) // default budget still reported with zero spend
	require.Equal(t, int64(10000), lines[0].BudgetedCents)
	require.Equal(t, int64(0), lines[0].SpentCents)
}

func TestSpendWidgets(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	txRepo := repository.NewTransactionRepo(db)
	tagRepo := repository.NewTagRepo(db)
	svc := &ReportService{
		Transactions: txRepo,
		Tags:         tagRepo,
		Budgets:      repository.NewBudgetRepo(db),
	}

	a := insertTx(t, txRepo, "2026-02-05", -4500, "WOOLWORTHS")
	b := insertTx(t, txRepo, "2026-02-05", -2000, "COFFEE")
	insertTx(t, txRepo, "2026-02-06", 500000, "PAYROLL")
	tagTx(t, tagRepo, txRepo, a.ID, "bucket:groceries")
	tagTx(t, tagRepo, txRepo, b.ID, "bucket:eating-out")

	month, _ := ParseMonth("2026-02")

	buckets, err := svc.SpendByBucket(ctx, month)
	require.NoError(t, err)
	require.Len(t, buckets, 2)

	days, err := svc.DailySpend(ctx, month)
	require.NoError(t, err)
	require.Len(t, days, 1) // income days excluded
	require.Equal(t, "2026-02-05", days[0].Day)
	require.Equal(t, int64(6500), days[0].SpentCents)

	summary, err := svc.Summary(ctx, month)
	require.NoError(t, err)
	require.Equal(t, "2026-02", summary.Month)
	require.Equal(t, 3, summary.Transactions)
	require.Equal(t, 1, summary.Unbucketed)
}
