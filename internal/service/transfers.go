package service

import (
	"context"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/jask/bucketd/internal/database/repository"
)

const (
	transferMaxDaysApart = 3
	transferTagName      = repository.NamespaceOccasion + ":transfer"
)

// TransferCandidate is a likely internal transfer pair.
type TransferCandidate struct {
	OutgoingID string  `json:"outgoing_id"`
	IncomingID string  `json:"incoming_id"`
	Score      float64 `json:"score"`
}

// TransferService pairs opposite-amount transactions across accounts.
type TransferService struct {
	Transactions *repository.TransactionRepo
	Tags         *repository.TagRepo
}

// Candidates scans for pairs in different accounts with opposite amounts
// dated within a few days of each other. Pairs already tagged as transfers
// are skipped.
func (s *TransferService) Candidates(ctx context.Context) ([]TransferCandidate, error) {
	txs, err := s.Transactions.List(ctx, repository.TransactionFilters{})
	if err != nil {
		return nil, err
	}
	transferTag, err := s.Tags.ByName(ctx, transferTagName)
	if err != nil {
		return nil, err
	}

	var out []TransferCandidate
	for i := 0; i < len(txs); i++ {
		for j := i + 1; j < len(txs); j++ {
			a, b := txs[i], txs[j]
			if a.AmountCents >= 0 {
				a, b = b, a
			}
			if a.AmountCents >= 0 || b.AmountCents <= 0 || a.AmountCents != -b.AmountCents {
				continue
			}
			if daysApart(a.Date, b.Date) > transferMaxDaysApart {
				continue
			}
			if accountTag(a) == "" || accountTag(a) == accountTag(b) {
				continue
			}
			if transferTag != nil && (hasTag(a, transferTag.ID) || hasTag(b, transferTag.ID)) {
				continue
			}
			out = append(out, TransferCandidate{
				OutgoingID: a.ID,
				IncomingID: b.ID,
				Score:      transferScore(a, b),
			})
		}
	}
	return out, nil
}

// Confirm tags both sides of a pair as a transfer, excluding them from
// budget spend.
func (s *TransferService) Confirm(ctx context.Context, outgoingID, incomingID string) error {
	existing, err := s.Tags.ByName(ctx, transferTagName)
	if err != nil {
		return err
	}
	tag := repository.Tag{ID: deterministicTagID(transferTagName), Name: transferTagName}
	if existing != nil {
		tag = *existing
	} else if err := s.Tags.Upsert(ctx, tag); err != nil {
		return err
	}
	if err := s.Transactions.AttachTag(ctx, outgoingID, tag.ID); err != nil {
		return err
	}
	return s.Transactions.AttachTag(ctx, incomingID, tag.ID)
}

func accountTag(t repository.Transaction) string {
	for _, tag := range t.Tags {
		if strings.HasPrefix(tag.Name, repository.NamespaceAccount+":") {
			return tag.Name
		}
	}
	return ""
}

// transferScore blends date proximity with description similarity.
func transferScore(a, b repository.Transaction) float64 {
	dateScore := 1 - float64(daysApart(a.Date, b.Date))/float64(transferMaxDaysApart+1)
	dist := levenshtein.ComputeDistance(strings.ToUpper(a.Description), strings.ToUpper(b.Description))
	maxlen := len(a.Description)
	if len(b.Description) > maxlen {
		maxlen = len(b.Description)
	}
	sim := 0.0
	if maxlen > 0 {
		sim = 1 - float64(dist)/float64(maxlen)
		if sim < 0 {
			sim = 0
		}
	}
	return 0.6*dateScore + 0.4*sim
}

func daysApart(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}
