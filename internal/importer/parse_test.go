package importer

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func TestParseBasic(t *testing.T) {
	t.Parallel()

	data := strings.Join([]string{
		"Date,Amount,Description",
		"03/02/2026,-20.50,DAN MURPHY'S SPOTSWOOD",
		"04/02/2026,1250.00,PAYROLL ACME PTY LTD",
	}, "\n")

	cfg := FormatConfig{
		DateColumn:        0,
		AmountColumn:      1,
		DescriptionColumn: 2,
		DateFormat:        "02/01/2006",
		SkipHeaderRows:    1,
		AccountTag:        "anz",
	}

	res, err := Parse(strings.NewReader(data), cfg, ParseOptions{})
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	require.Len(t, res.Transactions, 2)
	require.Equal(t, 3, res.TotalRows)

	first := res.Transactions[0]
	require.Equal(t, int64(-2050), first.AmountCents)
	require.Equal(t, "DAN MURPHY'S SPOTSWOOD", first.Description)
	require.Equal(t, "2026-02-03", first.Date.Format("2006-01-02"))
	require.Equal(t, "anz", first.AccountTag)

	require.Equal(t, int64(125000), res.Transactions[1].AmountCents)
}

func TestParseCollectsRowErrorsWithoutAborting(t *testing.T) {
	t.Parallel()

	data := strings.Join([]string{
		"2026-02-01,10.00,ok row",
		"not-a-date,10.00,bad date",
		"2026-02-03,abc,bad amount",
		"2026-02-04,5.00,",
		"2026-02-05,-7.25,another ok row",
	}, "\n")

	cfg := FormatConfig{
		DateColumn:        0,
		AmountColumn:      1,
		DescriptionColumn: 2,
		DateFormat:        "2006-01-02",
	}

	res, err := Parse(strings.NewReader(data), cfg, ParseOptions{})
	require.NoError(t, err)
	require.Len(t, res.Transactions, 2)
	require.Len(t, res.Errors, 3)

	fields := map[string]int{}
	for _, re := range res.Errors {
		fields[re.Field]++
	}
	require.Equal(t, 1, fields["date"])
	require.Equal(t, 1, fields["amount"])
	require.Equal(t, 1, fields["description"])
	require.Equal(t, 2, res.Errors[0].Row)
}

func TestParseSkipRules(t *testing.T) {
	t.Parallel()

	data := strings.Join([]string{
		"Exported by Example Bank",
		"Date,Amount,Description",
		"2026-02-01,1.00,first",
		"",
		"2026-02-02,2.00,second",
		"Pending transactions are not included",
		"2026-02-03,3.00,third",
		"Total,,6.00",
	}, "\n")

	cfg := FormatConfig{
		DateColumn:        0,
		AmountColumn:      1,
		DescriptionColumn: 2,
		DateFormat:        "2006-01-02",
		SkipHeaderRows:    2,
		SkipFooterRows:    1,
		SkipPatterns:      []string{"pending transactions"},
	}

	res, err := Parse(strings.NewReader(data), cfg, ParseOptions{})
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	require.Len(t, res.Transactions, 3)
	require.Equal(t, "first", res.Transactions[0].Description)
	require.Equal(t, "third", res.Transactions[2].Description)
}

func TestParseIgnoresMalformedLinesInSkippedRegions(t *testing.T) {
	t.Parallel()

	// bare quotes make the preamble and footer unreadable as CSV; both
	// sit inside the configured skip bounds and must not surface errors
	data := strings.Join([]string{
		`Statement for "everyday account`,
		"Date,Amount,Description",
		"2026-02-01,1.00,first",
		"2026-02-02,2.00,second",
		`Generated "automatically`,
	}, "\n")

	cfg := FormatConfig{
		DateColumn:        0,
		AmountColumn:      1,
		DescriptionColumn: 2,
		DateFormat:        "2006-01-02",
		SkipHeaderRows:    2,
		SkipFooterRows:    1,
	}

	res, err := Parse(strings.NewReader(data), cfg, ParseOptions{})
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	require.Len(t, res.Transactions, 2)
	require.Equal(t, "second", res.Transactions[1].Description)
}

func TestParseEmptyFile(t *testing.T) {
	t.Parallel()

	cfg := FormatConfig{DateFormat: "2006-01-02"}
	_, err := Parse(strings.NewReader(""), cfg, ParseOptions{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty file")
}

func TestParseAmountConventions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		cfg  FormatConfig
		want int64
	}{
		{"negative prefix", "-12.34", FormatConfig{SignConvention: SignNegativePrefix}, -1234},
		{"parentheses", "(1,234.56)", FormatConfig{SignConvention: SignParentheses}, -123456},
		{"plus minus", "+99.99", FormatConfig{SignConvention: SignPlusMinus}, 9999},
		{"currency prefix", "$45.00", FormatConfig{CurrencyPrefix: "$"}, 4500},
		{"prefix then sign", "AUD -3.50", FormatConfig{CurrencyPrefix: "AUD "}, -350},
		{"sign then prefix", "-$3.50", FormatConfig{CurrencyPrefix: "$"}, -350},
		{"invert", "12.00", FormatConfig{InvertSign: true}, -1200},
		{"invert negative", "(12.00)", FormatConfig{SignConvention: SignParentheses, InvertSign: true}, 1200},
		{"thousands", "1.234,56", FormatConfig{ThousandsSeparator: ".", DecimalSeparator: ","}, 123456},
		{"whole dollars", "250", FormatConfig{}, 25000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := tt.cfg
			cfg.Normalize()
			got, err := ParseAmount(tt.raw, cfg)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	cfg := FormatConfig{}
	cfg.Normalize()
	_, err := ParseAmount("", cfg)
	require.Error(t, err)
	_, err = ParseAmount("12.34.56", cfg)
	require.Error(t, err)
}

func TestExtractMerchant(t *testing.T) {
	t.Parallel()

	cfg := FormatConfig{MerchantSplitChars: "*/", MaxMerchantLen: 10}
	require.Equal(t, "UBER", ExtractMerchant("UBER*TRIP HELP.UBER.COM", cfg))
	require.Equal(t, "DAN MURPHY", ExtractMerchant("DAN MURPHYS LONG NAME/580 MELBOURNE", cfg))

	// truncation counts runes so a multibyte name is never cut mid-rune
	got := ExtractMerchant("CAFÉ ÑOÑO BAKERY*MELB", cfg)
	require.True(t, utf8.ValidString(got))
	require.Equal(t, "CAFÉ ÑOÑO", got)

	// no split chars configured: merchant extraction is off
	require.Equal(t, "", ExtractMerchant("WHATEVER", FormatConfig{}))
}

func TestParseMerchantColumnWinsOverSplit(t *testing.T) {
	t.Parallel()

	data := "2026-02-01,5.00,UBER*TRIP,Uber\n"
	cfg := FormatConfig{
		DateColumn:         0,
		AmountColumn:       1,
		DescriptionColumn:  2,
		MerchantColumn:     intp(3),
		DateFormat:         "2006-01-02",
		MerchantSplitChars: "*",
	}
	res, err := Parse(strings.NewReader(data), cfg, ParseOptions{})
	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	require.Equal(t, "Uber", res.Transactions[0].Merchant)
}

func TestParseConfigJSONRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := FormatConfig{
		Name:              "My Bank",
		DateColumn:        1,
		AmountColumn:      2,
		DescriptionColumn: 0,
		ReferenceColumn:   intp(3),
		DateFormat:        "02/01/2006",
		SignConvention:    SignParentheses,
		SkipHeaderRows:    1,
		AccountTag:        "mybank",
	}
	cfg.Normalize()

	raw, err := ConfigJSON(cfg)
	require.NoError(t, err)

	got, err := ParseConfigJSON(raw)
	require.NoError(t, err)
	require.Equal(t, cfg, got)

	// unknown fields are tolerated
	_, err = ParseConfigJSON(`{"date_column":0,"amount_column":1,"description_column":2,"date_format":"2006-01-02","some_future_field":true}`)
	require.NoError(t, err)

	// invalid configs are rejected outright
	_, err = ParseConfigJSON(`{"date_column":0,"amount_column":1,"description_column":2}`)
	require.Error(t, err)
	_, err = ParseConfigJSON(`{"date_column":-1,"amount_column":1,"description_column":2,"date_format":"2006-01-02"}`)
	require.Error(t, err)
}
