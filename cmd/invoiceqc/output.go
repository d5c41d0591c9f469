package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"invoiceqc/internal/validator"
)

const topErrorLimit = 5

// writeJSONFile writes v as indented JSON, creating parent directories.
func writeJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// table prints aligned label/value rows.
type table struct {
	tw *tabwriter.Writer
}

func newTable(w io.Writer) *table {
	return &table{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (t *table) row(label string, value any) {
	fmt.Fprintf(t.tw, "  %s\t%v\n", label, value)
}

func (t *table) flush() {
	_ = t.tw.Flush()
}

// printSummary prints the batch totals, the success rate and the most
// frequent errors.
func printSummary(w io.Writer, title string, s validator.Summary) {
	fmt.Fprintf(w, "\n%s\n", title)
	t := newTable(w)
	t.row("Total Invoices", s.TotalInvoices)
	t.row("Valid Invoices", s.ValidInvoices)
	t.row("Invalid Invoices", s.InvalidInvoices)
	if s.TotalInvoices > 0 {
		t.row("Success Rate", fmt.Sprintf("%.1f%%", s.ValidationRate()))
	}
	t.flush()

	top := s.TopErrors(topErrorLimit)
	if len(top) == 0 {
		return
	}
	fmt.Fprintln(w, "\nTop Validation Errors:")
	t = newTable(w)
	for _, ec := range top {
		t.row(ec.Message, ec.Count)
	}
	t.flush()
}
