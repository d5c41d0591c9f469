package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"invoiceqc/internal/report"
	"invoiceqc/internal/validator/invoice"
)

func newValidateCmd(c *cli) *cobra.Command {
	var (
		reportPath string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "validate <input.json>",
		Short: "Validate invoices from a JSON file",
		Long: `Validate reads a JSON array of invoices, writes a validation report and
exits with status 1 when any invoice is invalid.

The report format follows --format, or the report file extension when
--format is not given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			out := cmd.OutOrStdout()

			f, err := reportFormat(format, reportPath)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("file not found: %s", input)
			}
			records, err := invoice.DecodeRecords(data)
			if err != nil {
				return fmt.Errorf("invalid JSON in %s: %w", input, err)
			}
			fmt.Fprintf(out, "Loaded %d invoice(s)\n", len(records))

			a, err := c.newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			rep, err := a.Validation.ValidateBatch(cmd.Context(), records, false)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := report.Write(&buf, f, rep); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(reportPath), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(reportPath, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}

			printSummary(out, "Validation Summary", rep.Summary)
			fmt.Fprintf(out, "\nReport saved to: %s\n", absPath(reportPath))

			if rep.Summary.InvalidInvoices > 0 {
				fmt.Fprintf(out, "\nCompleted with %d invalid invoice(s)\n", rep.Summary.InvalidInvoices)
				return errInvalidInvoices
			}
			fmt.Fprintln(out, "\nAll invoices are valid!")
			return nil
		},
	}

	cmd.Flags().StringVarP(&reportPath, "report", "r", "validation_report.json", "Output report file")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Report format: json, csv or xlsx")
	return cmd
}

// reportFormat resolves the explicit format or falls back to the report
// file extension, then to JSON.
func reportFormat(explicit, path string) (report.Format, error) {
	if explicit != "" {
		return report.ParseFormat(explicit)
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if f, err := report.ParseFormat(ext); err == nil {
		return f, nil
	}
	return report.FormatJSON, nil
}
