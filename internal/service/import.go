package service

import (
	"bufio"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jask/bucketd/internal/database/repository"
	"github.com/jask/bucketd/internal/importer"
)

// ImportService runs the analyze / preview / commit pipeline.
type ImportService struct {
	Transactions *repository.TransactionRepo
	Tags         *repository.TagRepo
	Formats      *repository.FormatRepo
	Imports      *repository.ImportRepo
	Rules        *RulesService
	Builtins     []importer.BuiltinFormat
	Log          *logrus.Logger

	SampleSize int
	MaxRows    int
}

// CommitResult summarizes a committed import.
type CommitResult struct {
	Imported int                 `json:"imported"`
	Skipped  int                 `json:"skipped"`
	Failed   int                 `json:"failed"`
	Errors   []importer.RowError `json:"errors,omitempty"`
}

// Analyze runs column/format detection over an uploaded file.
func (s *ImportService) Analyze(ctx context.Context, r io.Reader, skipRows int) (*importer.Analysis, error) {
	return importer.Analyze(r, importer.AnalyzeOptions{
		SkipRows:   skipRows,
		SampleSize: s.SampleSize,
		MaxRows:    s.MaxRows,
	})
}

// ResolveConfig turns a request into a concrete configuration: an ad-hoc
// JSON config, a saved format id, or a built-in key. The returned id is
// non-nil only for saved formats (their use count is tracked). Ad-hoc
// configs are not validated here; an OFX upload needs only the account tag,
// and the CSV path validates the mapping when the file kind is known.
func (s *ImportService) ResolveConfig(ctx context.Context, configJSON, formatID string) (importer.FormatConfig, *string, error) {
	switch {
	case strings.TrimSpace(configJSON) != "":
		cfg, err := importer.DecodeConfigJSON(configJSON)
		return cfg, nil, err
	case strings.TrimSpace(formatID) != "":
		saved, err := s.Formats.Get(ctx, formatID)
		if err != nil {
			return importer.FormatConfig{}, nil, err
		}
		if saved != nil {
			cfg, err := importer.ParseConfigJSON(saved.Config)
			if err != nil {
				return importer.FormatConfig{}, nil, fmt.Errorf("saved format %q: %w", saved.Name, err)
			}
			id := saved.ID
			return cfg, &id, nil
		}
		for _, b := range s.Builtins {
			if b.Key == formatID {
				return b.Config, nil, nil
			}
		}
		return importer.FormatConfig{}, nil, fmt.Errorf("format %q not found", formatID)
	default:
		return importer.FormatConfig{}, nil, fmt.Errorf("config or format id required")
	}
}

// Preview parses without persisting. OFX files ignore the column mapping
// but honor the config's account tag.
func (s *ImportService) Preview(ctx context.Context, filename string, r io.Reader, cfg importer.FormatConfig) (*importer.ParseResult, error) {
	return s.parse(filename, r, cfg)
}

func (s *ImportService) parse(filename string, r io.Reader, cfg importer.FormatConfig) (*importer.ParseResult, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(512)
	if importer.DetectKind(filename, head) == importer.KindOFX {
		return importer.ParseOFX(br, cfg.AccountTag)
	}
	return importer.Parse(br, cfg, importer.ParseOptions{MaxRows: s.MaxRows})
}

// Commit parses and persists. Per-row parse failures and duplicate rows are
// reported, not fatal; a file yielding zero parsed transactions is an error.
func (s *ImportService) Commit(ctx context.Context, filename string, r io.Reader, cfg importer.FormatConfig, formatID *string) (*CommitResult, error) {
	parsed, err := s.parse(filename, r, cfg)
	if err != nil {
		return nil, err
	}
	if len(parsed.Transactions) == 0 {
		return nil, fmt.Errorf("no transactions parsed (%d rows failed)", len(parsed.Errors))
	}

	res := &CommitResult{Errors: parsed.Errors, Failed: len(parsed.Errors)}
	var inserted []repository.Transaction
	for _, pt := range parsed.Transactions {
		t := repository.Transaction{
			ID:          uuid.NewString(),
			Date:        pt.Date,
			AmountCents: pt.AmountCents,
			Description: pt.Description,
			Merchant:    nullableStr(pt.Merchant),
			Reference:   nullableStr(pt.Reference),
			SourceHash:  hashSource(pt.AccountTag, pt.Date.Format("2006-01-02"), fmt.Sprintf("%d", pt.AmountCents), pt.Description),
		}
		if err := s.Transactions.Insert(ctx, t); err != nil {
			// skip duplicates on unique constraint
			if strings.Contains(err.Error(), "UNIQUE") {
				res.Skipped++
				continue
			}
			res.Errors = append(res.Errors, importer.RowError{Row: pt.Row, Message: err.Error()})
			res.Failed++
			continue
		}
		if pt.AccountTag != "" {
			if err := s.attachTag(ctx, t.ID, repository.NamespaceAccount+":"+pt.AccountTag); err != nil {
				return nil, err
			}
		}
		if pt.Bucket != "" {
			if err := s.attachTag(ctx, t.ID, repository.NamespaceBucket+":"+pt.Bucket); err != nil {
				return nil, err
			}
		}
		inserted = append(inserted, t)
		res.Imported++
	}

	if s.Rules != nil && len(inserted) > 0 {
		if err := s.Rules.ApplyToTransactions(ctx, inserted); err != nil {
			s.Log.WithError(err).Warn("post-import rules failed")
		}
	}

	rec := repository.ImportRecord{
		ID:       uuid.NewString(),
		Filename: filename,
		FormatID: formatID,
		Imported: res.Imported,
		Skipped:  res.Skipped,
		Failed:   res.Failed,
	}
	if err := s.Imports.Add(ctx, rec); err != nil {
		return nil, err
	}
	if formatID != nil {
		if err := s.Formats.IncrementUseCount(ctx, *formatID); err != nil {
			return nil, err
		}
	}

	s.Log.WithFields(logrus.Fields{
		"file":     filename,
		"imported": res.Imported,
		"skipped":  res.Skipped,
		"failed":   res.Failed,
	}).Info("import committed")
	return res, nil
}

func (s *ImportService) attachTag(ctx context.Context, transactionID, tagName string) error {
	tag, err := s.tagForName(ctx, tagName)
	if err != nil {
		return err
	}
	return s.Transactions.AttachTag(ctx, transactionID, tag.ID)
}

// tagForName resolves a tag by name, creating it if absent. No caching: the
// service is shared across request goroutines and a cached tag can go stale
// when a tag is deleted between imports. ByName is a single indexed lookup.
func (s *ImportService) tagForName(ctx context.Context, name string) (repository.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return repository.Tag{}, fmt.Errorf("tag name required")
	}
	if existing, err := s.Tags.ByName(ctx, name); err != nil {
		return repository.Tag{}, err
	} else if existing != nil {
		return *existing, nil
	}
	tag := repository.Tag{ID: deterministicTagID(name), Name: name}
	if err := s.Tags.Upsert(ctx, tag); err != nil {
		return repository.Tag{}, err
	}
	return tag, nil
}

func deterministicTagID(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

func nullableStr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func hashSource(parts ...string) *string {
	joined := strings.Join(parts, "|")
	sum := sha256.Sum256([]byte(joined))
	h := fmt.Sprintf("%x", sum[:])
	return &h
}
