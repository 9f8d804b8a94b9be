package repository_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jask/bucketd/internal/database"
	"github.com/jask/bucketd/internal/database/repository"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.RunMigrations(db))
	return db
}

func mustInsert(t *testing.T, repo *repository.TransactionRepo, date string, cents int64, desc string) repository.Transaction {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	tx := repository.Transaction{ID: uuid.NewString(), Date: d, AmountCents: cents, Description: desc}
	require.NoError(t, repo.Insert(context.Background(), tx))
	return tx
}

func TestValidateTagName(t *testing.T) {
	t.Parallel()

	require.NoError(t, repository.ValidateTagName("bucket:groceries"))
	require.NoError(t, repository.ValidateTagName("account:anz-everyday"))
	require.NoError(t, repository.ValidateTagName("occasion:japan-2026"))
	require.NoError(t, repository.ValidateTagName("holiday")) // plain tags carry no namespace

	require.Error(t, repository.ValidateTagName(""))
	require.Error(t, repository.ValidateTagName("   "))
	require.Error(t, repository.ValidateTagName("wallet:cash"))
	require.Error(t, repository.ValidateTagName("bucket:"))
}

func TestTransactionFilters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	txRepo := repository.NewTransactionRepo(db)
	tagRepo := repository.NewTagRepo(db)

	a := mustInsert(t, txRepo, "2026-02-05", -4520, "WOOLWORTHS 3046")
	mustInsert(t, txRepo, "2026-02-09", -1250, "COFFEE SHOP")
	mustInsert(t, txRepo, "2026-03-01", -9900, "WOOLWORTHS 3046")

	groceries := repository.Tag{ID: uuid.NewString(), Name: "bucket:groceries"}
	require.NoError(t, tagRepo.Upsert(ctx, groceries))
	require.NoError(t, txRepo.AttachTag(ctx, a.ID, groceries.ID))

	feb, _ := time.Parse("2006-01", "2026-02")
	byMonth, err := txRepo.List(ctx, repository.TransactionFilters{Month: feb})
	require.NoError(t, err)
	require.Len(t, byMonth, 2)

	byTag, err := txRepo.List(ctx, repository.TransactionFilters{TagID: groceries.ID})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	require.Equal(t, a.ID, byTag[0].ID)

	bySearch, err := txRepo.List(ctx, repository.TransactionFilters{Search: "woolworths"})
	require.NoError(t, err)
	require.Len(t, bySearch, 2)

	limited, err := txRepo.List(ctx, repository.TransactionFilters{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestReplaceTags(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	txRepo := repository.NewTransactionRepo(db)
	tagRepo := repository.NewTagRepo(db)

	tx := mustInsert(t, txRepo, "2026-02-05", -4520, "WOOLWORTHS")
	t1 := repository.Tag{ID: uuid.NewString(), Name: "bucket:groceries"}
	t2 := repository.Tag{ID: uuid.NewString(), Name: "occasion:housewarming"}
	require.NoError(t, tagRepo.Upsert(ctx, t1))
	require.NoError(t, tagRepo.Upsert(ctx, t2))

	require.NoError(t, txRepo.AttachTag(ctx, tx.ID, t1.ID))
	require.NoError(t, txRepo.ReplaceTags(ctx, tx.ID, []string{t2.ID}))

	got, err := txRepo.Get(ctx, tx.ID)
	require.NoError(t, err)
	require.Len(t, got.Tags, 1)
	require.Equal(t, "occasion:housewarming", got.Tags[0].Name)

	require.NoError(t, txRepo.ReplaceTags(ctx, tx.ID, nil))
	got, err = txRepo.Get(ctx, tx.ID)
	require.NoError(t, err)
	require.Empty(t, got.Tags)
}

func TestDuplicateSourceHashRejected(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	txRepo := repository.NewTransactionRepo(db)

	hash := "abc123"
	first := repository.Transaction{ID: uuid.NewString(), Date: time.Now(), AmountCents: -100, Description: "X", SourceHash: &hash}
	require.NoError(t, txRepo.Insert(ctx, first))

	dup := repository.Transaction{ID: uuid.NewString(), Date: time.Now(), AmountCents: -100, Description: "X", SourceHash: &hash}
	err := txRepo.Insert(ctx, dup)
	require.Error(t, err)
	require.Contains(t, err.Error(), "UNIQUE")

	// rows without a hash never collide
	require.NoError(t, txRepo.Insert(ctx, repository.Transaction{ID: uuid.NewString(), Date: time.Now(), AmountCents: -1, Description: "A"}))
	require.NoError(t, txRepo.Insert(ctx, repository.Transaction{ID: uuid.NewString(), Date: time.Now(), AmountCents: -1, Description: "A"}))
}

func TestBudgetForMonthOverride(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	repo := repository.NewBudgetRepo(db)
	tags := repository.NewTagRepo(db)

	require.NoError(t, tags.Upsert(ctx, repository.Tag{ID: "tag-1", Name: "bucket:groceries"}))
	require.NoError(t, tags.Upsert(ctx, repository.Tag{ID: "tag-2", Name: "bucket:transport"}))
	require.NoError(t, repo.Upsert(ctx, repository.Budget{ID: "b1", BucketTagID: "tag-1", Month: "", AmountCents: 10000}))
	require.NoError(t, repo.Upsert(ctx, repository.Budget{ID: "b2", BucketTagID: "tag-1", Month: "2026-02", AmountCents: 25000}))
	require.NoError(t, repo.Upsert(ctx, repository.Budget{ID: "b3", BucketTagID: "tag-2", Month: "", AmountCents: 5000}))

	feb, err := repo.ForMonth(ctx, "2026-02")
	require.NoError(t, err)
	require.Equal(t, int64(25000), feb["tag-1"])
	require.Equal(t, int64(5000), feb["tag-2"])

	march, err := repo.ForMonth(ctx, "2026-03")
	require.NoError(t, err)
	require.Equal(t, int64(10000), march["tag-1"])
	require.Equal(t, int64(5000), march["tag-2"])
}

func TestFormatUseCount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	repo := repository.NewFormatRepo(db)

	f := repository.ImportFormat{ID: "f1", Name: "ANZ", Config: "{}"}
	require.NoError(t, repo.Insert(ctx, f))
	require.NoError(t, repo.IncrementUseCount(ctx, "f1"))
	require.NoError(t, repo.IncrementUseCount(ctx, "f1"))

	got, err := repo.Get(ctx, "f1")
	require.NoError(t, err)
	require.Equal(t, 2, got.UseCount)
}
