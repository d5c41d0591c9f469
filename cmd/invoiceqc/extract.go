package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExtractCmd(c *cli) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "extract <pdf_dir>",
		Short: "Extract invoice data from PDF files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			out := cmd.OutOrStdout()
			if _, err := os.Stat(dir); err != nil {
				return fmt.Errorf("directory not found: %s", dir)
			}

			a, err := c.newApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			invoices, err := a.Extraction.ExtractDir(cmd.Context(), dir)
			if err != nil {
				return err
			}
			if len(invoices) == 0 {
				fmt.Fprintf(out, "Warning: no PDF files found in %s\n", dir)
				return nil
			}

			if err := writeJSONFile(output, invoices); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}

			fmt.Fprintln(out, "\nExtraction Summary")
			t := newTable(out)
			t.row("PDF Files Processed", len(invoices))
			t.row("Invoices Extracted", len(invoices))
			t.row("Output File", absPath(output))
			t.flush()
			fmt.Fprintln(out, "\nExtraction complete!")
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "extracted_invoices.json", "Output JSON file")
	return cmd
}
