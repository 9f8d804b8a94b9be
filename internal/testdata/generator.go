package testdata

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/jask/bucketd/internal/database"
	"github.com/jask/bucketd/internal/database/repository"
)

// Repos bundles repos used by Seed.
type Repos struct {
	Tags         *repository.TagRepo
	Transactions *repository.TransactionRepo
}

type sample struct {
	desc   string
	bucket string
	min    int64
	max    int64
}

var samples = []sample{
	{desc: "WOOLWORTHS 3046 YARRAVILLE", bucket: "bucket:groceries", min: 1500, max: 18000},
	{desc: "COLES 0583 FOOTSCRAY", bucket: "bucket:groceries", min: 1500, max: 15000},
	{desc: "UBER EATS* SUSHI", bucket: "bucket:eating-out", min: 1800, max: 6500},
	{desc: "COFFEE SHOP YARRAVILLE", bucket: "bucket:eating-out", min: 400, max: 1400},
	{desc: "SPOTIFY P2B4C3D5E6", bucket: "bucket:subscriptions", min: 1399, max: 1399},
	{desc: "MYKI TOPUP", bucket: "bucket:transport", min: 1000, max: 5000},
	{desc: "DAN MURPHY'S/580 MELBOURN", bucket: "bucket:alcohol", min: 2000, max: 12000},
	{desc: "CHEMIST WAREHOUSE", bucket: "bucket:health", min: 800, max: 9000},
}

// Seed fills the database with a couple of weeks of plausible spending plus
// one salary credit, all tagged with a demo account. Intended for trying the
// API against a fresh database, not for tests.
func Seed(ctx context.Context, repos Repos) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	acctTag := repository.Tag{ID: uuid.NewString(), Name: "account:demo-everyday"}
	if err := repos.Tags.Upsert(ctx, acctTag); err != nil {
		return err
	}

	buckets := map[string]string{}
	for _, s := range samples {
		if _, ok := buckets[s.bucket]; ok {
			continue
		}
		existing, err := repos.Tags.ByName(ctx, s.bucket)
		if err != nil {
			return err
		}
		if existing != nil {
			buckets[s.bucket] = existing.ID
			continue
		}
		tag := repository.Tag{ID: uuid.NewString(), Name: s.bucket}
		if err := repos.Tags.Upsert(ctx, tag); err != nil {
			return err
		}
		buckets[s.bucket] = tag.ID
	}

	now := database.Now()
	for i := 0; i < 40; i++ {
		s := samples[rng.Intn(len(samples))]
		amount := s.min
		if s.max > s.min {
			amount += rng.Int63n(s.max - s.min)
		}
		tx := repository.Transaction{
			ID:          uuid.NewString(),
			Date:        now.AddDate(0, 0, -rng.Intn(21)),
			AmountCents: -amount,
			Description: s.desc,
		}
		if err := repos.Transactions.Insert(ctx, tx); err != nil {
			return err
		}
		if err := repos.Transactions.AttachTag(ctx, tx.ID, acctTag.ID); err != nil {
			return err
		}
		if err := repos.Transactions.AttachTag(ctx, tx.ID, buckets[s.bucket]); err != nil {
			return err
		}
	}

	salary := repository.Transaction{
		ID:          uuid.NewString(),
		Date:        now.AddDate(0, 0, -14),
		AmountCents: 520000,
		Description: "PAYROLL ACME PTY LTD",
	}
	if err := repos.Transactions.Insert(ctx, salary); err != nil {
		return err
	}
	return repos.Transactions.AttachTag(ctx, salary.ID, acctTag.ID)
}
