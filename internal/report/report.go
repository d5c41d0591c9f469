// Package report renders validation batch reports as JSON, CSV and XLSX and
// archives them to object storage.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"invoiceqc/internal/validator"
)

// Format names an output encoding for a batch report.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat resolves a user-supplied format name. An empty name means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported report format %q", s)
	}
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string { return string(f) }

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// Write encodes rep to w in the given format.
func Write(w io.Writer, f Format, rep *validator.BatchReport) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, rep)
	case FormatXLSX:
		return WriteXLSX(w, rep)
	default:
		return WriteJSON(w, rep)
	}
}

// WriteJSON encodes rep as indented JSON.
func WriteJSON(w io.Writer, rep *validator.BatchReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(rep)
}
