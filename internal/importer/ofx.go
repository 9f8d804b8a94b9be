package importer

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

// File kinds the importer understands.
const (
	KindCSV = "csv"
	KindOFX = "ofx"
)

// DetectKind distinguishes OFX/QFX statements from CSV by extension and
// header markers (both v1 SGML and v2 XML forms).
func DetectKind(filename string, header []byte) string {
	ext := strings.ToLower(filepath.Ext(filename))
	upper := strings.ToUpper(string(header))
	hasMarker := strings.Contains(upper, "OFXHEADER") ||
		strings.Contains(upper, "<?OFX") ||
		strings.Contains(upper, "<OFX>")
	if ext == ".ofx" || ext == ".qfx" || hasMarker {
		return KindOFX
	}
	return KindCSV
}

// ParseOFX extracts transactions from an OFX/QFX statement. Column mapping
// does not apply; FITID becomes the reference, NAME (with MEMO appended)
// the description, and the statement amount is converted exactly to cents.
func ParseOFX(r io.Reader, accountTag string) (*ParseResult, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read ofx content: %w", err)
	}
	resp, err := ofxgo.ParseResponse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse ofx: %w", err)
	}
	msgs := append(resp.Bank, resp.CreditCard...)
	if len(msgs) == 0 {
		return nil, fmt.Errorf("ofx file has no bank or credit card statements")
	}

	res := &ParseResult{}
	row := 0
	for _, msg := range msgs {
		var list *ofxgo.TransactionList
		switch stmt := msg.(type) {
		case *ofxgo.StatementResponse:
			list = stmt.BankTranList
		case *ofxgo.CCStatementResponse:
			list = stmt.BankTranList
		default:
			continue
		}
		if list == nil {
			continue
		}
		for _, txn := range list.Transactions {
			row++
			res.TotalRows++
			cents, err := ofxAmountCents(txn.TrnAmt.String())
			if err != nil {
				res.Errors = append(res.Errors, RowError{Row: row, Field: "amount", Message: err.Error()})
				continue
			}
			desc := strings.TrimSpace(string(txn.Name))
			if memo := strings.TrimSpace(string(txn.Memo)); memo != "" && memo != desc {
				if desc == "" {
					desc = memo
				} else {
					desc = desc + " " + memo
				}
			}
			if desc == "" {
				res.Errors = append(res.Errors, RowError{Row: row, Field: "description", Message: "transaction has no NAME or MEMO"})
				continue
			}
			res.Transactions = append(res.Transactions, PreviewTransaction{
				Row:         row,
				Date:        txn.DtPosted.Time.UTC(),
				AmountCents: cents,
				Description: desc,
				Reference:   txn.FiTID.String(),
				AccountTag:  accountTag,
			})
		}
	}
	if len(res.Transactions) == 0 && len(res.Errors) == 0 {
		return nil, fmt.Errorf("ofx file has no transactions")
	}
	return res, nil
}

func ofxAmountCents(raw string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}
