package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20260301000000
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>AUD
<BANKACCTFROM>
<BANKID>123456
<ACCTID>00012345
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20260201
<DTEND>20260228
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20260205
<TRNAMT>-12.34
<FITID>F0001
<NAME>COFFEE SHOP YARRAVILLE
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20260206
<TRNAMT>1000.00
<FITID>F0002
<NAME>PAYROLL
<MEMO>FEB SALARY
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>987.66
<DTASOF>20260228
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>
`

func TestParseOFX(t *testing.T) {
	t.Parallel()

	res, err := ParseOFX(strings.NewReader(sampleOFX), "anz")
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	require.Len(t, res.Transactions, 2)

	first := res.Transactions[0]
	require.Equal(t, int64(-1234), first.AmountCents)
	require.Equal(t, "COFFEE SHOP YARRAVILLE", first.Description)
	require.Equal(t, "F0001", first.Reference)
	require.Equal(t, "2026-02-05", first.Date.Format("2006-01-02"))
	require.Equal(t, "anz", first.AccountTag)

	second := res.Transactions[1]
	require.Equal(t, int64(100000), second.AmountCents)
	require.Equal(t, "PAYROLL FEB SALARY", second.Description)
}

func TestParseOFXRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := ParseOFX(strings.NewReader("this is not an ofx file"), "")
	require.Error(t, err)
}

func TestDetectKind(t *testing.T) {
	t.Parallel()

	require.Equal(t, KindOFX, DetectKind("export.ofx", nil))
	require.Equal(t, KindOFX, DetectKind("export.QFX", nil))
	require.Equal(t, KindOFX, DetectKind("statement.txt", []byte("OFXHEADER:100")))
	require.Equal(t, KindOFX, DetectKind("statement.xml", []byte(`<?OFX OFXHEADER="200"?>`)))
	require.Equal(t, KindCSV, DetectKind("export.csv", []byte("Date,Amount,Description")))
}
