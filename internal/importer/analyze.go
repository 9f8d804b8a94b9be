package importer

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// Column types the analyzer can infer.
const (
	TypeDate        = "date"
	TypeAmount      = "amount"
	TypeDescription = "description"
	TypeReference   = "reference"
	TypeBucket      = "bucket"
	TypeUnknown     = "unknown"
)

// Auto-fill thresholds. The mapping UI only pre-populates a field when the
// hint's confidence reaches the threshold for that field class.
const (
	AutoFillThresholdValue = 0.7 // date, amount
	AutoFillThresholdText  = 0.5 // description, reference, bucket
)

// candidateDateLayouts is the fixed set of layouts the analyzer tries.
// Day-first layouts come before month-first so ties break toward them.
var candidateDateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/01/2006",
	"01/02/2006",
	"2006/01/02",
	"02-01-2006",
	"02.01.2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"20060102",
	"2006-01-02T15:04:05",
}

// ColumnHint is the per-header inference result.
type ColumnHint struct {
	Header             string  `json:"header"`
	LikelyType         string  `json:"likely_type"`
	Confidence         float64 `json:"confidence"`
	DetectedDateFormat string  `json:"detected_date_format,omitempty"`
	DetectedSign       string  `json:"detected_sign,omitempty"`
	DetectedPrefix     string  `json:"detected_prefix,omitempty"`
	DetectedThousands  string  `json:"detected_thousands,omitempty"`
	SuggestInvert      bool    `json:"suggest_invert,omitempty"`
}

// Analysis is the analyzer output consumed by the mapping wizard.
type Analysis struct {
	Headers   []string     `json:"headers"`
	Sample    [][]string   `json:"sample"`
	Columns   []ColumnHint `json:"columns"`
	TotalRows int          `json:"total_rows"`
}

// AnalyzeOptions control sampling.
type AnalyzeOptions struct {
	SkipRows   int // rows to discard before the header row
	SampleSize int // data rows to sample; default 20
	MaxRows    int // hard cap on file length; 0 = unlimited
}

// Analyze reads a CSV file, treats the first non-skipped row as headers and
// infers a role for each column from a bounded sample of data rows.
func Analyze(r io.Reader, opts AnalyzeOptions) (*Analysis, error) {
	if opts.SampleSize <= 0 {
		opts.SampleSize = 20
	}

	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1

	var headers []string
	var sample [][]string
	rowNum := 0
	dataRows := 0
	for {
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			continue
		}
		if opts.MaxRows > 0 && rowNum > opts.MaxRows {
			return nil, fmt.Errorf("file exceeds %d rows", opts.MaxRows)
		}
		if rowNum <= opts.SkipRows {
			continue
		}
		if headers == nil {
			headers = trimAll(rec)
			continue
		}
		if isBlankRecord(rec) {
			continue
		}
		dataRows++
		if len(sample) < opts.SampleSize {
			sample = append(sample, trimAll(rec))
		}
	}
	if headers == nil {
		return nil, fmt.Errorf("empty file")
	}
	if len(sample) == 0 {
		return nil, fmt.Errorf("no data rows after row %d", opts.SkipRows+1)
	}

	a := &Analysis{Headers: headers, Sample: sample, TotalRows: dataRows}
	for col, header := range headers {
		values := columnValues(sample, col)
		a.Columns = append(a.Columns, classifyColumn(header, values))
	}
	return a, nil
}

func trimAll(rec []string) []string {
	out := make([]string, len(rec))
	for i, v := range rec {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func columnValues(sample [][]string, col int) []string {
	var out []string
	for _, row := range sample {
		if col >= len(row) {
			continue
		}
		if v := row[col]; v != "" {
			out = append(out, v)
		}
	}
	return out
}

// header keyword lists, matched as substrings of the lowercased header
var (
	dateHeaderWords   = []string{"date", "posted", "when"}
	amountHeaderWords = []string{"amount", "amt", "debit", "credit", "value", "total"}
	descHeaderWords   = []string{"description", "details", "narrative", "memo", "payee", "particulars"}
	refHeaderWords    = []string{"reference", "ref", "id", "number", "receipt"}
	bucketHeaderWords = []string{"category", "bucket", "type"}
)

func classifyColumn(header string, values []string) ColumnHint {
	hint := ColumnHint{Header: header, LikelyType: TypeUnknown}
	if len(values) == 0 {
		return hint
	}

	layout, dateFrac := bestDateLayout(values)
	amountFrac, amountSettings := amountProfile(values)
	refFrac := fraction(values, looksLikeReference)
	textFrac := fraction(values, looksLikeFreeText)

	headerIs := func(words []string) bool { return headerMatches(header, words) }

	switch {
	case dateFrac >= 0.6 || (dateFrac >= 0.3 && headerIs(dateHeaderWords)):
		hint.LikelyType = TypeDate
		hint.Confidence = dateFrac
		hint.DetectedDateFormat = layout
	case amountFrac >= 0.6 || (amountFrac >= 0.3 && headerIs(amountHeaderWords)):
		hint.LikelyType = TypeAmount
		hint.Confidence = amountFrac
		hint.DetectedSign = amountSettings.sign
		hint.DetectedPrefix = amountSettings.prefix
		hint.DetectedThousands = amountSettings.thousands
		hint.SuggestInvert = amountSettings.allPositive && headerIs([]string{"debit", "withdrawal"})
	case headerIs(bucketHeaderWords) && textFrac+refFrac > 0:
		hint.LikelyType = TypeBucket
		hint.Confidence = clamp01(textFrac + refFrac)
	case textFrac >= 0.5 && !headerIs(refHeaderWords):
		hint.LikelyType = TypeDescription
		hint.Confidence = textFrac
	case refFrac >= 0.5:
		hint.LikelyType = TypeReference
		hint.Confidence = refFrac
	case headerIs(descHeaderWords):
		hint.LikelyType = TypeDescription
		hint.Confidence = clamp01(textFrac)
	}
	return hint
}

func headerMatches(header string, words []string) bool {
	h := strings.ToLower(strings.TrimSpace(header))
	if h == "" {
		return false
	}
	for _, w := range words {
		if strings.Contains(h, w) {
			return true
		}
	}
	return false
}

// bestDateLayout returns the candidate layout parsing the most values and
// the fraction of values it parses.
func bestDateLayout(values []string) (string, float64) {
	bestLayout := ""
	bestCount := 0
	for _, layout := range candidateDateLayouts {
		count := 0
		for _, v := range values {
			if _, err := time.Parse(layout, v); err == nil {
				count++
			}
		}
		if count > bestCount {
			bestCount = count
			bestLayout = layout
		}
	}
	if bestCount == 0 {
		return "", 0
	}
	return bestLayout, float64(bestCount) / float64(len(values))
}

type amountSettingsGuess struct {
	sign        string
	prefix      string
	thousands   string
	allPositive bool
}

// amountProfile measures how many values parse as signed, parenthesized or
// currency-prefixed numerics and infers the settings shared by them.
func amountProfile(values []string) (float64, amountSettingsGuess) {
	guess := amountSettingsGuess{sign: SignNegativePrefix, allPositive: true}
	count := 0
	sawParens := false
	sawPlus := false
	for _, v := range values {
		s := v
		if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
			sawParens = true
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
		if strings.HasPrefix(s, "+") {
			sawPlus = true
			s = s[1:]
		}
		neg := strings.HasPrefix(s, "-")
		s = strings.TrimPrefix(s, "-")
		for _, p := range []string{"$", "€", "£", "AUD", "USD", "NZD", "GBP", "EUR"} {
			if strings.HasPrefix(s, p) {
				guess.prefix = p
				s = strings.TrimSpace(strings.TrimPrefix(s, p))
				break
			}
		}
		if strings.HasPrefix(s, "-") { // prefix before the sign
			neg = true
			s = s[1:]
		}
		if strings.Contains(s, ",") {
			guess.thousands = ","
			s = strings.ReplaceAll(s, ",", "")
		}
		if _, err := decimal.NewFromString(s); err != nil {
			continue
		}
		count++
		if neg || strings.HasPrefix(v, "(") {
			guess.allPositive = false
		}
	}
	if sawParens {
		guess.sign = SignParentheses
	} else if sawPlus {
		guess.sign = SignPlusMinus
	}
	return float64(count) / float64(len(values)), guess
}

// looksLikeReference matches short alphanumeric ids: no spaces, contains a
// digit, not free text.
func looksLikeReference(v string) bool {
	if len(v) == 0 || len(v) > 24 || strings.ContainsAny(v, " \t") {
		return false
	}
	hasDigit := false
	for _, r := range v {
		if unicode.IsDigit(r) {
			hasDigit = true
		} else if !unicode.IsLetter(r) && r != '-' && r != '_' {
			return false
		}
	}
	return hasDigit
}

// looksLikeFreeText matches multi-word or long strings with letters.
func looksLikeFreeText(v string) bool {
	hasLetter := false
	for _, r := range v {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return false
	}
	return strings.Contains(v, " ") || len(v) > 12
}

func fraction(values []string, pred func(string) bool) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if pred(v) {
			count++
		}
	}
	return float64(count) / float64(len(values))
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
