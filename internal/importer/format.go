package importer

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Amount sign conventions.
const (
	SignNegativePrefix = "negative_prefix" // -12.34
	SignParentheses    = "parentheses"    // (12.34)
	SignPlusMinus      = "plus_minus"     // +12.34 / -12.34
)

// FormatConfig is a declarative, reusable mapping from a bank export layout
// to normalized transactions. It round-trips through JSON; saved
// configurations store exactly this shape in a text column.
type FormatConfig struct {
	Name string `json:"name,omitempty"`

	Delimiter string `json:"delimiter,omitempty"` // default ","

	DateColumn        int  `json:"date_column"`
	AmountColumn      int  `json:"amount_column"`
	DescriptionColumn int  `json:"description_column"`
	MerchantColumn    *int `json:"merchant_column,omitempty"`
	ReferenceColumn   *int `json:"reference_column,omitempty"`
	BucketColumn      *int `json:"bucket_column,omitempty"`

	DateFormat string `json:"date_format"` // Go reference layout

	SignConvention     string `json:"sign_convention,omitempty"` // default negative_prefix
	CurrencyPrefix     string `json:"currency_prefix,omitempty"`
	InvertSign         bool   `json:"invert_sign,omitempty"`
	ThousandsSeparator string `json:"thousands_separator,omitempty"`
	DecimalSeparator   string `json:"decimal_separator,omitempty"` // default "."

	SkipHeaderRows int      `json:"skip_header_rows,omitempty"`
	SkipFooterRows int      `json:"skip_footer_rows,omitempty"`
	SkipPatterns   []string `json:"skip_patterns,omitempty"` // substring match

	MerchantSplitChars string `json:"merchant_split_chars,omitempty"`
	MaxMerchantLen     int    `json:"max_merchant_len,omitempty"` // default 40

	AccountTag string `json:"account_tag,omitempty"` // value for the account: tag
}

// DefaultMaxMerchantLen bounds merchant names split out of descriptions.
const DefaultMaxMerchantLen = 40

// Normalize fills defaulted fields in place.
func (c *FormatConfig) Normalize() {
	if strings.TrimSpace(c.Delimiter) == "" {
		c.Delimiter = ","
	}
	if c.SignConvention == "" {
		c.SignConvention = SignNegativePrefix
	}
	if c.DecimalSeparator == "" {
		c.DecimalSeparator = "."
	}
	if c.MaxMerchantLen <= 0 {
		c.MaxMerchantLen = DefaultMaxMerchantLen
	}
}

// Validate reports the first problem with the configuration. Columns may
// legitimately collide (a single-column date+description file cannot), except
// that date, amount and description must be assigned.
func (c *FormatConfig) Validate() error {
	if c.DateColumn < 0 || c.AmountColumn < 0 || c.DescriptionColumn < 0 {
		return fmt.Errorf("date, amount and description columns are required")
	}
	if strings.TrimSpace(c.DateFormat) == "" {
		return fmt.Errorf("date format is required")
	}
	switch c.SignConvention {
	case "", SignNegativePrefix, SignParentheses, SignPlusMinus:
	default:
		return fmt.Errorf("unknown sign convention %q", c.SignConvention)
	}
	if len([]rune(c.Delimiter)) > 1 {
		return fmt.Errorf("delimiter must be a single character")
	}
	if c.SkipHeaderRows < 0 || c.SkipFooterRows < 0 {
		return fmt.Errorf("skip counts must be >= 0")
	}
	for _, col := range []*int{c.MerchantColumn, c.ReferenceColumn, c.BucketColumn} {
		if col != nil && *col < 0 {
			return fmt.Errorf("column indexes must be >= 0")
		}
	}
	return nil
}

// DecodeConfigJSON loads a configuration without validating the column
// mapping. Ad-hoc upload configs go through here: a self-describing OFX file
// needs only the account tag, and the CSV parser validates at parse time.
// Unknown fields are ignored for forward compatibility.
func DecodeConfigJSON(raw string) (FormatConfig, error) {
	var cfg FormatConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return FormatConfig{}, fmt.Errorf("parse format config: %w", err)
	}
	cfg.Normalize()
	return cfg, nil
}

// ParseConfigJSON loads a stored configuration. A config that fails
// validation is rejected outright rather than half-applied.
func ParseConfigJSON(raw string) (FormatConfig, error) {
	cfg, err := DecodeConfigJSON(raw)
	if err != nil {
		return FormatConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return FormatConfig{}, fmt.Errorf("invalid format config: %w", err)
	}
	return cfg, nil
}

// ConfigJSON serializes a configuration for storage.
func ConfigJSON(c FormatConfig) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode format config: %w", err)
	}
	return string(b), nil
}
