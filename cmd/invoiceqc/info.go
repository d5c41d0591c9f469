package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"invoiceqc/internal/parser"
)

func newInfoCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show system information and status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			a, err := c.newApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			var ai []string
			for _, name := range a.ParserNames() {
				if name != parser.RegexModel {
					ai = append(ai, name)
				}
			}
			aiStatus := "disabled (using regex fallback)"
			if len(ai) > 0 {
				aiStatus = "enabled (" + strings.Join(ai, ", ") + ")"
			}

			fmt.Fprintln(out, "Invoice QC System Information")
			t := newTable(out)
			t.row("AI Extraction", aiStatus)
			t.row("Parser Chain", strings.Join(a.ParserNames(), " -> "))
			t.row("Database", databaseLocation(c))
			t.row("API Address", c.cfg.Server.Port)
			t.row("Log Level", c.cfg.Log.Level)
			t.row("Report Archive", archiveStatus(c))
			t.flush()

			if c.noDB {
				fmt.Fprintln(out, "\nDatabase disabled")
				return nil
			}
			withDB, err := c.newApp(ctx, false)
			if err != nil {
				fmt.Fprintln(out, "\nDatabase not initialized")
				return nil
			}
			defer withDB.Close()
			_, total, err := withDB.InvoiceSvc.List(ctx, 0, 1)
			if err != nil {
				fmt.Fprintln(out, "\nDatabase not initialized")
				return nil
			}
			fmt.Fprintf(out, "\nDatabase contains %d invoice(s)\n", total)
			return nil
		},
	}
}

func archiveStatus(c *cli) string {
	if !c.cfg.Archive.Enabled {
		return "disabled"
	}
	return fmt.Sprintf("s3://%s/%s", c.cfg.Archive.Bucket, c.cfg.Archive.Prefix)
}
