package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnalyzeClassifiesColumns(t *testing.T) {
	t.Parallel()

	data := strings.Join([]string{
		"Date,Amount,Transaction Details,Receipt Number",
		"13/02/2026,-20.50,DAN MURPHY'S SPOTSWOOD VIC,R829301",
		"14/02/2026,-8.20,COLES EXPRESS 1904 YARRAVILLE,R829344",
		"15/02/2026,1250.00,PAYROLL ACME PTY LTD,R830001",
		"16/02/2026,-64.00,CHEMIST WAREHOUSE FOOTSCRAY,R830177",
	}, "\n")

	a, err := Analyze(strings.NewReader(data), AnalyzeOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"Date", "Amount", "Transaction Details", "Receipt Number"}, a.Headers)
	require.Equal(t, 4, a.TotalRows)
	require.Len(t, a.Sample, 4)
	require.Len(t, a.Columns, 4)

	date := a.Columns[0]
	require.Equal(t, TypeDate, date.LikelyType)
	require.GreaterOrEqual(t, date.Confidence, AutoFillThresholdValue)
	// 13/02 only parses day-first
	require.Equal(t, "02/01/2006", date.DetectedDateFormat)

	amount := a.Columns[1]
	require.Equal(t, TypeAmount, amount.LikelyType)
	require.GreaterOrEqual(t, amount.Confidence, AutoFillThresholdValue)
	require.Equal(t, SignNegativePrefix, amount.DetectedSign)
	require.False(t, amount.SuggestInvert)

	desc := a.Columns[2]
	require.Equal(t, TypeDescription, desc.LikelyType)
	require.GreaterOrEqual(t, desc.Confidence, AutoFillThresholdText)

	ref := a.Columns[3]
	require.Equal(t, TypeReference, ref.LikelyType)
	require.GreaterOrEqual(t, ref.Confidence, AutoFillThresholdText)
}

func TestAnalyzeSkipRowsAndSampleBound(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("Example Bank export\n")
	b.WriteString("Generated 2026-03-01\n")
	b.WriteString("Date,Amount,Description\n")
	for i := 0; i < 30; i++ {
		b.WriteString("2026-02-01,-1.00,row\n")
	}

	a, err := Analyze(strings.NewReader(b.String()), AnalyzeOptions{SkipRows: 2, SampleSize: 5})
	require.NoError(t, err)
	require.Equal(t, []string{"Date", "Amount", "Description"}, a.Headers)
	require.Len(t, a.Sample, 5)
	require.Equal(t, 30, a.TotalRows)
}

func TestAnalyzeAmountSettings(t *testing.T) {
	t.Parallel()

	data := strings.Join([]string{
		"Posted,Debit Amount,Details",
		"2026-02-01,$1200.50,A LONG DESCRIPTION HERE",
		"2026-02-02,\"$3,400.00\",ANOTHER LONG DESCRIPTION",
		"2026-02-03,$18.95,THIRD LONG DESCRIPTION OK",
	}, "\n")

	a, err := Analyze(strings.NewReader(data), AnalyzeOptions{})
	require.NoError(t, err)

	amount := a.Columns[1]
	require.Equal(t, TypeAmount, amount.LikelyType)
	require.Equal(t, "$", amount.DetectedPrefix)
	require.Equal(t, ",", amount.DetectedThousands)
	// all values positive under a debit header: suggest inverting the sign
	require.True(t, amount.SuggestInvert)
}

func TestAnalyzeParenthesesConvention(t *testing.T) {
	t.Parallel()

	data := strings.Join([]string{
		"Date,Amount,Description",
		"2026-02-01,(20.50),GROCERY STORE PURCHASE",
		"2026-02-02,100.00,DEPOSIT FROM EMPLOYER",
	}, "\n")

	a, err := Analyze(strings.NewReader(data), AnalyzeOptions{})
	require.NoError(t, err)
	require.Equal(t, SignParentheses, a.Columns[1].DetectedSign)
}

func TestAnalyzeEmptyAndHeaderOnly(t *testing.T) {
	t.Parallel()

	_, err := Analyze(strings.NewReader(""), AnalyzeOptions{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty file")

	_, err = Analyze(strings.NewReader("Date,Amount,Description\n"), AnalyzeOptions{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no data rows")
}

func TestAnalyzeAllEmptyColumnIsUnknown(t *testing.T) {
	t.Parallel()

	data := strings.Join([]string{
		"Date,Amount,Description,Spare",
		"2026-02-01,-1.00,SOMETHING DESCRIPTIVE HERE,",
		"2026-02-02,-2.00,SOMETHING ELSE ENTIRELY NOW,",
	}, "\n")

	a, err := Analyze(strings.NewReader(data), AnalyzeOptions{})
	require.NoError(t, err)
	spare := a.Columns[3]
	require.Equal(t, TypeUnknown, spare.LikelyType)
	require.Zero(t, spare.Confidence)
}

func TestLoadBuiltinFormats(t *testing.T) {
	t.Parallel()

	formats, err := LoadBuiltinFormats("")
	require.NoError(t, err)
	require.NotEmpty(t, formats)
	for _, f := range formats {
		require.NotEmpty(t, f.Key)
		require.NoError(t, f.Config.Validate())
	}
}
