package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/insightdelivered/phonepe-statement-analyzer/internal/models"
	"github.com/insightdelivered/phonepe-statement-analyzer/internal/summary"
)

// Column headers shared by the CSV and XLSX exports.
var (
	TransactionHeader = []string{"Date", "Transaction Details", "Type", "Amount"}
	SummaryHeader     = []string{"Date", "Total Received (₹)"}
)

// CSVWriter writes transactions to CSV format.
type CSVWriter struct{}

// WriteToFile writes transactions to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, txns []models.Transaction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	if err := w.Write(f, txns); err != nil {
		return err
	}
	return f.Close()
}

// Write writes transactions in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, txns []models.Transaction) error {
	rows := make([][]string, 0, len(txns))
	for _, txn := range txns {
		rows = append(rows, transactionRow(txn))
	}
	return writeCSV(out, TransactionHeader, rows)
}

// WriteSummary writes the daily credit summary in CSV format.
func (w *CSVWriter) WriteSummary(out io.Writer, s *summary.Summary) error {
	rows := make([][]string, 0, len(s.Entries))
	for _, e := range s.Entries {
		rows = append(rows, []string{e.Day(), formatAmount(e.TotalCredited)})
	}
	return writeCSV(out, SummaryHeader, rows)
}

func writeCSV(out io.Writer, header []string, rows [][]string) error {
	writer := csv.NewWriter(out)

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func transactionRow(txn models.Transaction) []string {
	return []string{
		txn.Date,
		txn.Description,
		string(txn.Direction),
		formatAmount(txn.Amount),
	}
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
