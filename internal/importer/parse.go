package importer

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PreviewTransaction is the normalized result of applying a format to one
// row. It is ephemeral; commit-mode persistence happens in the service layer.
type PreviewTransaction struct {
	Row         int       `json:"row"`
	Date        time.Time `json:"date"`
	AmountCents int64     `json:"amount_cents"`
	Description string    `json:"description"`
	Merchant    string    `json:"merchant,omitempty"`
	Reference   string    `json:"reference,omitempty"`
	Bucket      string    `json:"bucket,omitempty"`
	AccountTag  string    `json:"account_tag,omitempty"`
}

// RowError describes a non-fatal per-row parse failure.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ParseResult carries parsed rows alongside collected errors. Unparseable
// rows are excluded from Transactions rather than aborting the whole file.
type ParseResult struct {
	Transactions []PreviewTransaction `json:"transactions"`
	Errors       []RowError           `json:"errors"`
	TotalRows    int                  `json:"total_rows"`
}

// ParseOptions bounds parsing work.
type ParseOptions struct {
	MaxRows int // 0 = unlimited
	Limit   int // cap on returned transactions (preview); 0 = all
}

// Parse applies a format configuration to a CSV stream. Row numbers in
// errors are 1-based over the raw file, including skipped header rows.
func Parse(r io.Reader, cfg FormatConfig, opts ParseOptions) (*ParseResult, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1
	if runes := []rune(cfg.Delimiter); len(runes) == 1 {
		csvr.Comma = runes[0]
	}

	type rawRow struct {
		num int
		rec []string
	}
	var rows []rawRow
	var readErrors []RowError
	rowNum := 0
	for {
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if rowNum <= cfg.SkipHeaderRows {
			// junk the user asked to skip; malformed lines here are expected
			continue
		}
		if err != nil {
			// malformed CSV line; csv.Reader resumes on the next line
			readErrors = append(readErrors, RowError{Row: rowNum, Message: err.Error()})
			continue
		}
		rows = append(rows, rawRow{num: rowNum, rec: rec})
		if opts.MaxRows > 0 && len(rows) > opts.MaxRows {
			return nil, fmt.Errorf("file exceeds %d rows", opts.MaxRows)
		}
	}
	if rowNum == 0 {
		return nil, fmt.Errorf("empty file")
	}
	if cfg.SkipFooterRows > 0 {
		// the footer is the last N raw rows, malformed lines included
		cutoff := rowNum - cfg.SkipFooterRows
		var keptRows []rawRow
		for _, row := range rows {
			if row.num <= cutoff {
				keptRows = append(keptRows, row)
			}
		}
		rows = keptRows
		var keptErrs []RowError
		for _, e := range readErrors {
			if e.Row <= cutoff {
				keptErrs = append(keptErrs, e)
			}
		}
		readErrors = keptErrs
	}

	res := &ParseResult{TotalRows: rowNum, Errors: readErrors}
	minCols := cfg.DateColumn
	for _, c := range []int{cfg.AmountColumn, cfg.DescriptionColumn} {
		if c > minCols {
			minCols = c
		}
	}
	minCols++

	for _, row := range rows {
		if isBlankRecord(row.rec) {
			continue
		}
		if matchesSkipPattern(row.rec, cfg.SkipPatterns) {
			continue
		}
		if len(row.rec) < minCols {
			res.Errors = append(res.Errors, RowError{Row: row.num, Message: fmt.Sprintf("expected at least %d columns, got %d", minCols, len(row.rec))})
			continue
		}

		date, err := time.Parse(cfg.DateFormat, strings.TrimSpace(row.rec[cfg.DateColumn]))
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: row.num, Field: "date", Message: fmt.Sprintf("unparseable date %q with format %q", row.rec[cfg.DateColumn], cfg.DateFormat)})
			continue
		}

		cents, err := ParseAmount(row.rec[cfg.AmountColumn], cfg)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: row.num, Field: "amount", Message: err.Error()})
			continue
		}

		desc := strings.TrimSpace(row.rec[cfg.DescriptionColumn])
		if desc == "" {
			res.Errors = append(res.Errors, RowError{Row: row.num, Field: "description", Message: "description is empty"})
			continue
		}

		t := PreviewTransaction{
			Row:         row.num,
			Date:        date.UTC(),
			AmountCents: cents,
			Description: desc,
			AccountTag:  cfg.AccountTag,
		}
		if cfg.MerchantColumn != nil && *cfg.MerchantColumn < len(row.rec) {
			t.Merchant = strings.TrimSpace(row.rec[*cfg.MerchantColumn])
		}
		if t.Merchant == "" {
			t.Merchant = ExtractMerchant(desc, cfg)
		}
		if cfg.ReferenceColumn != nil && *cfg.ReferenceColumn < len(row.rec) {
			t.Reference = strings.TrimSpace(row.rec[*cfg.ReferenceColumn])
		}
		if cfg.BucketColumn != nil && *cfg.BucketColumn < len(row.rec) {
			t.Bucket = strings.ToLower(strings.TrimSpace(row.rec[*cfg.BucketColumn]))
		}
		res.Transactions = append(res.Transactions, t)
		if opts.Limit > 0 && len(res.Transactions) >= opts.Limit {
			break
		}
	}
	return res, nil
}

// ParseAmount converts a raw amount cell to signed cents under the
// configured convention. The currency prefix and thousands separator are
// stripped before sign handling; InvertSign flips last.
func ParseAmount(raw string, cfg FormatConfig) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("amount is empty")
	}

	negative := false
	if cfg.SignConvention == SignParentheses && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	// sign may precede or follow the currency prefix
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if cfg.CurrencyPrefix != "" {
		s = strings.TrimSpace(strings.TrimPrefix(s, cfg.CurrencyPrefix))
	}
	s = strings.TrimPrefix(s, "$")
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	if cfg.ThousandsSeparator != "" {
		s = strings.ReplaceAll(s, cfg.ThousandsSeparator, "")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	if cfg.DecimalSeparator != "" && cfg.DecimalSeparator != "." {
		s = strings.ReplaceAll(s, cfg.DecimalSeparator, ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	cents := d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if negative {
		cents = -cents
	}
	if cfg.InvertSign {
		cents = -cents
	}
	return cents, nil
}

// ExtractMerchant splits a merchant name out of the description at the first
// configured delimiter, truncated to the configured maximum.
func ExtractMerchant(desc string, cfg FormatConfig) string {
	m := strings.TrimSpace(desc)
	if cfg.MerchantSplitChars != "" {
		if idx := strings.IndexAny(m, cfg.MerchantSplitChars); idx > 0 {
			m = strings.TrimSpace(m[:idx])
		}
	} else {
		return ""
	}
	max := cfg.MaxMerchantLen
	if max <= 0 {
		max = DefaultMaxMerchantLen
	}
	if runes := []rune(m); len(runes) > max {
		m = strings.TrimSpace(string(runes[:max]))
	}
	return m
}

func matchesSkipPattern(rec []string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	joined := strings.ToLower(strings.Join(rec, ","))
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" && strings.Contains(joined, p) {
			return true
		}
	}
	return false
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
