package writer

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/phonepe-statement-analyzer/internal/models"
	"github.com/insightdelivered/phonepe-statement-analyzer/internal/summary"
)

// Worksheet names in the exported workbook.
const (
	TransactionsSheet = "All Transactions"
	SummarySheet      = "Daily Summary"
)

// XLSXWriter writes a workbook with the full transaction list and the daily
// credit summary on separate sheets.
type XLSXWriter struct{}

// Write encodes the workbook to out.
func (w *XLSXWriter) Write(out io.Writer, txns []models.Transaction, s *summary.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with "Sheet1"; rename it rather than leave it empty.
	if err := f.SetSheetName(f.GetSheetName(0), TransactionsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	if err := writeRow(f, TransactionsSheet, 1, toCells(TransactionHeader)); err != nil {
		return err
	}
	for i, txn := range txns {
		row := []interface{}{txn.Date, txn.Description, string(txn.Direction), txn.Amount}
		if err := writeRow(f, TransactionsSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := writeRow(f, SummarySheet, 1, toCells(SummaryHeader)); err != nil {
		return err
	}
	for i, e := range s.Entries {
		if err := writeRow(f, SummarySheet, i+2, []interface{}{e.Day(), e.TotalCredited}); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteToFile writes the workbook to path.
func (w *XLSXWriter) WriteToFile(path string, txns []models.Transaction, s *summary.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	if err := w.Write(f, txns, s); err != nil {
		return err
	}
	return f.Close()
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("invalid row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(header []string) []interface{} {
	cells := make([]interface{}, len(header))
	for i, h := range header {
		cells[i] = h
	}
	return cells
}
