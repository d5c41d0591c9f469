package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"invoiceqc/internal/validator"
)

const (
	resultsSheet = "Results"
	summarySheet = "Summary"
)

// WriteXLSX writes a workbook with a Results sheet holding the CSV columns
// and a Summary sheet with totals and per-message error counts.
func WriteXLSX(w io.Writer, rep *validator.BatchReport) error {
	f := excelize.NewFile()
	defer f.Close()

	// The default workbook starts with Sheet1; rename it rather than leave it empty.
	if err := f.SetSheetName(f.GetSheetName(0), resultsSheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}

	for i, h := range columns {
		if err := setCell(f, resultsSheet, i+1, 1, h); err != nil {
			return err
		}
	}
	row := 2
	for _, r := range rep.Results {
		if r == nil {
			continue
		}
		values := []any{
			r.InvoiceID,
			strconv.FormatBool(r.IsValid),
			len(r.Errors),
			len(r.Warnings),
			strings.Join(r.Errors, messageSeparator),
			strings.Join(r.Warnings, messageSeparator),
		}
		for col, v := range values {
			if err := setCell(f, resultsSheet, col+1, row, v); err != nil {
				return err
			}
		}
		row++
	}

	s := rep.Summary
	summary := [][]any{
		{"total_invoices", s.TotalInvoices},
		{"valid_invoices", s.ValidInvoices},
		{"invalid_invoices", s.InvalidInvoices},
		{"validation_rate", fmt.Sprintf("%.1f%%", s.ValidationRate())},
		{"validation_timestamp", s.ValidationTimestamp.Format("2006-01-02T15:04:05Z07:00")},
		{"error", "count"},
	}
	for _, ec := range s.TopErrors(-1) {
		summary = append(summary, []any{ec.Message, ec.Count})
	}
	for i, vals := range summary {
		for col, v := range vals {
			if err := setCell(f, summarySheet, col+1, i+1, v); err != nil {
				return err
			}
		}
	}

	idx, err := f.GetSheetIndex(resultsSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, v)
}
