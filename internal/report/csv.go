package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"invoiceqc/internal/validator"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the header row shared by the CSV and XLSX reports.
var columns = []string{
	"invoice_id",
	"is_valid",
	"error_count",
	"warning_count",
	"errors",
	"warnings",
}

// messageSeparator joins multiple messages into one cell.
const messageSeparator = "; "

// Writer wraps csv.Writer for exporting validation results as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteResults converts results to CSV rows and writes them.
func (w *Writer) WriteResults(results []*validator.Result) error {
	for _, r := range results {
		if r == nil {
			continue
		}
		if err := w.csv.Write(resultToRow(r)); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// WriteCSV writes the BOM, the header and one row per result.
func WriteCSV(w io.Writer, rep *validator.BatchReport) error {
	if _, err := w.Write(BOM); err != nil {
		return err
	}
	cw := NewWriter(w)
	if err := cw.WriteHeader(); err != nil {
		return err
	}
	if err := cw.WriteResults(rep.Results); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func resultToRow(r *validator.Result) []string {
	return []string{
		r.InvoiceID,
		strconv.FormatBool(r.IsValid),
		strconv.Itoa(len(r.Errors)),
		strconv.Itoa(len(r.Warnings)),
		strings.Join(r.Errors, messageSeparator),
		strings.Join(r.Warnings, messageSeparator),
	}
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "validation_report"
	}
	return s
}

// BuildFilename returns {sanitized_name}_{YYYY-MM-DD}.{ext}.
func BuildFilename(name string, f Format, at time.Time) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename(name), at.Format("2006-01-02"), f.Extension())
}
