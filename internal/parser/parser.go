package parser

import (
	"errors"
	"strings"

	"github.com/insightdelivered/phonepe-statement-analyzer/internal/models"
)

// ErrNoTransactions is returned when a document yields no transaction lines.
var ErrNoTransactions = errors.New("no transactions found")

// Parser defines the interface for statement parsers.
type Parser interface {
	// Parse takes raw text from PDF pages and returns structured statement data.
	Parse(pages []string) (*models.Statement, error)
	// Name returns the human-readable statement provider.
	Name() string
}

// New returns the PhonePe statement parser.
func New() Parser {
	return &PhonePeParser{}
}

// PhonePeParser handles PhonePe transaction statement PDFs.
//
// Each transaction occupies one text line:
//
//	Oct 30, 2025 Paid to John Doe DEBIT ₹500
//
// UTR numbers, timestamps and account hints wrap onto following lines and
// are ignored.
type PhonePeParser struct{}

func (p *PhonePeParser) Name() string {
	return "PhonePe"
}

// Parse assembles every transaction in page order and traces each line.
func (p *PhonePeParser) Parse(pages []string) (*models.Statement, error) {
	st := &models.Statement{Pages: len(pages)}

	for i, page := range pages {
		if strings.TrimSpace(page) == "" {
			st.DebugLines = append(st.DebugLines, models.DebugLine{Page: i + 1, Result: "blank"})
			continue
		}
		for j, line := range strings.Split(page, "\n") {
			dl := models.DebugLine{
				Page:    i + 1,
				LineNum: j + 1,
				Text:    line,
				HasDate: startsWithDate(line),
				Result:  "skipped",
			}
			if txn, ok := ExtractLine(line); ok {
				st.Transactions = append(st.Transactions, txn)
				dl.Result = "parsed"
			}
			st.DebugLines = append(st.DebugLines, dl)
		}
	}

	return st, nil
}

// Assemble returns the transactions found across pages, in source order.
func Assemble(pages []string) []models.Transaction {
	st, _ := (&PhonePeParser{}).Parse(pages)
	return st.Transactions
}

// Validate reports ErrNoTransactions for an empty statement.
func Validate(st *models.Statement) error {
	if st == nil || len(st.Transactions) == 0 {
		return ErrNoTransactions
	}
	return nil
}

// IsPhonePe reports whether the text looks like a PhonePe statement. It is a
// hint for logging only; parsing never depends on it.
func IsPhonePe(pages []string) bool {
	for _, p := range pages {
		if strings.Contains(strings.ToLower(p), "phonepe") {
			return true
		}
	}
	return false
}
