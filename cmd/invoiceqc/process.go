package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"invoiceqc/internal/report"
	"invoiceqc/internal/validator/invoice"
)

const (
	extractedFileName = "extracted_invoices.json"
	reportFileName    = "validation_report.json"
)

func newProcessCmd(c *cli) *cobra.Command {
	var (
		outputDir string
		saveDB    bool
		noSaveDB  bool
	)

	cmd := &cobra.Command{
		Use:   "process <pdf_dir>",
		Short: "Run the full pipeline: extract, validate and store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			out := cmd.OutOrStdout()
			ctx := cmd.Context()
			persist := saveDB && !noSaveDB && !c.noDB

			if _, err := os.Stat(dir); err != nil {
				return fmt.Errorf("directory not found: %s", dir)
			}
			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return err
			}

			a, err := c.newApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintln(out, "=== Step 1/3: Extraction ===")
			fields, err := a.Extraction.ExtractDir(ctx, dir)
			if err != nil {
				return err
			}
			if len(fields) == 0 {
				fmt.Fprintln(out, "Warning: no PDF files found")
				return nil
			}
			fmt.Fprintf(out, "Extracted %d invoice(s)\n", len(fields))

			extractedFile := filepath.Join(outputDir, extractedFileName)
			if err := writeJSONFile(extractedFile, fields); err != nil {
				return err
			}

			fmt.Fprintln(out, "\n=== Step 2/3: Validation ===")
			records := make([]*invoice.Record, len(fields))
			for i, f := range fields {
				records[i] = invoice.NewRecord(f)
			}
			rep, err := a.Validation.ValidateBatch(ctx, records, persist)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Validated %d invoice(s)\n", rep.Summary.TotalInvoices)

			reportFile := filepath.Join(outputDir, reportFileName)
			f, err := os.Create(reportFile)
			if err != nil {
				return err
			}
			if err := report.WriteJSON(f, rep); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			if persist {
				fmt.Fprintln(out, "\n=== Step 3/3: Database Storage ===")
			} else {
				fmt.Fprintln(out, "\n=== Step 3/3: Database Storage (Skipped) ===")
			}

			fmt.Fprintln(out, "\n"+strings.Repeat("=", 60))
			printSummary(out, "Final Summary", rep.Summary)
			t := newTable(out)
			t.row("PDF Files", len(fields))
			t.row("Extracted Data", absPath(extractedFile))
			t.row("Validation Report", absPath(reportFile))
			if persist {
				t.row("Database", databaseLocation(c))
			}
			t.flush()
			fmt.Fprintln(out, strings.Repeat("=", 60))

			if rep.Summary.InvalidInvoices > 0 {
				fmt.Fprintln(out, "\nPipeline completed with validation errors")
				return errInvalidInvoices
			}
			fmt.Fprintln(out, "\nPipeline completed successfully!")
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "outputs", "Output directory for results")
	cmd.Flags().BoolVar(&saveDB, "save-db", true, "Save invoices and results to the database")
	cmd.Flags().BoolVar(&noSaveDB, "no-save-db", false, "Do not save to the database")
	return cmd
}

func databaseLocation(c *cli) string {
	db := c.cfg.DB
	if db.Driver == "postgres" {
		return fmt.Sprintf("postgres://%s:%d/%s", db.Host, db.Port, db.Name)
	}
	return absPath(db.Path)
}
