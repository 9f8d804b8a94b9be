package importer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// defaultFormatsTOML ships the bank layouts bucketd knows out of the box.
// A formats file on disk (import.formats_file) replaces this set.
const defaultFormatsTOML = `version = 1

[format.anz]
name = "ANZ (AU)"
date_column = 0
amount_column = 1
description_column = 2
date_format = "2/01/2006"
account_tag = "anz"

[format.commbank]
name = "CommBank (AU)"
date_column = 0
amount_column = 1
description_column = 2
date_format = "02/01/2006"
account_tag = "commbank"

[format.chase]
name = "Chase (US)"
skip_header_rows = 1
date_column = 0
description_column = 2
amount_column = 5
date_format = "01/02/2006"
account_tag = "chase"
merchant_split_chars = "*"
`

type builtinFormatTOML struct {
	Name               string   `toml:"name"`
	Delimiter          string   `toml:"delimiter"`
	DateColumn         int      `toml:"date_column"`
	AmountColumn       int      `toml:"amount_column"`
	DescriptionColumn  int      `toml:"description_column"`
	MerchantColumn     *int     `toml:"merchant_column"`
	ReferenceColumn    *int     `toml:"reference_column"`
	BucketColumn       *int     `toml:"bucket_column"`
	DateFormat         string   `toml:"date_format"`
	SignConvention     string   `toml:"sign_convention"`
	CurrencyPrefix     string   `toml:"currency_prefix"`
	InvertSign         bool     `toml:"invert_sign"`
	ThousandsSeparator string   `toml:"thousands_separator"`
	SkipHeaderRows     int      `toml:"skip_header_rows"`
	SkipFooterRows     int      `toml:"skip_footer_rows"`
	SkipPatterns       []string `toml:"skip_patterns"`
	MerchantSplitChars string   `toml:"merchant_split_chars"`
	AccountTag         string   `toml:"account_tag"`
}

type builtinFormatsFile struct {
	Version int                          `toml:"version"`
	Format  map[string]builtinFormatTOML `toml:"format"`
}

// BuiltinFormat pairs a stable key with its configuration.
type BuiltinFormat struct {
	Key    string
	Config FormatConfig
}

// LoadBuiltinFormats parses the compiled-in defaults, or the file at path
// when set.
func LoadBuiltinFormats(path string) ([]BuiltinFormat, error) {
	var file builtinFormatsFile
	var err error
	if strings.TrimSpace(path) != "" {
		_, err = toml.DecodeFile(path, &file)
	} else {
		_, err = toml.Decode(defaultFormatsTOML, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("parse formats: %w", err)
	}
	if file.Version != 0 && file.Version != 1 {
		return nil, fmt.Errorf("unsupported formats version %d", file.Version)
	}

	out := make([]BuiltinFormat, 0, len(file.Format))
	for key, bf := range file.Format {
		cfg := FormatConfig{
			Name:               bf.Name,
			Delimiter:          bf.Delimiter,
			DateColumn:         bf.DateColumn,
			AmountColumn:       bf.AmountColumn,
			DescriptionColumn:  bf.DescriptionColumn,
			MerchantColumn:     bf.MerchantColumn,
			ReferenceColumn:    bf.ReferenceColumn,
			BucketColumn:       bf.BucketColumn,
			DateFormat:         bf.DateFormat,
			SignConvention:     bf.SignConvention,
			CurrencyPrefix:     bf.CurrencyPrefix,
			InvertSign:         bf.InvertSign,
			ThousandsSeparator: bf.ThousandsSeparator,
			SkipHeaderRows:     bf.SkipHeaderRows,
			SkipFooterRows:     bf.SkipFooterRows,
			SkipPatterns:       bf.SkipPatterns,
			MerchantSplitChars: bf.MerchantSplitChars,
			AccountTag:         bf.AccountTag,
		}
		if cfg.Name == "" {
			cfg.Name = key
		}
		cfg.Normalize()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("format %q: %w", key, err)
		}
		out = append(out, BuiltinFormat{Key: key, Config: cfg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
