package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"invoiceqc/internal/app"
	"invoiceqc/internal/config"
	"invoiceqc/internal/logging"
)

// errInvalidInvoices signals a completed run that found invalid invoices.
// It maps to exit code 1 without an error message.
var errInvalidInvoices = errors.New("invalid invoices found")

// cli holds the global flags and the configuration loaded from them.
type cli struct {
	configFile string
	noDB       bool
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "invoiceqc",
		Short: "Invoice Quality Control - extract and validate invoices from PDFs",
		Long: `invoiceqc extracts structured invoice data from PDF files and runs it
through the validation rules: required fields, formats, totals, dates,
anomalies and duplicates.

Example Usage:
  invoiceqc extract pdfs --output extracted.json
  invoiceqc validate extracted.json --report report.csv
  invoiceqc process pdfs --output-dir outputs`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&c.configFile, "config", "", "Path to a configuration file (yaml, toml or json)")
	root.PersistentFlags().BoolVar(&c.noDB, "no-db", false, "Run without the database: no duplicate checks, nothing stored")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		newExtractCmd(c),
		newValidateCmd(c),
		newProcessCmd(c),
		newInfoCmd(c),
	)
	return root
}

func (c *cli) init(cmd *cobra.Command) error {
	var err error
	if c.configFile != "" {
		c.cfg, err = config.LoadFile(c.configFile)
	} else {
		c.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	// Per-invoice INFO lines would drown the summary tables.
	logCfg := c.cfg.Log
	if c.verbose {
		logCfg.Level = "debug"
	} else if logging.ParseLevel(logCfg.Level) < slog.LevelWarn {
		logCfg.Level = "warn"
	}
	c.logger = logging.NewWithWriter(logCfg, cmd.ErrOrStderr())
	slog.SetDefault(c.logger)
	return nil
}

func (c *cli) newApp(ctx context.Context, noDB bool) (*app.App, error) {
	return app.New(ctx, c.cfg, app.Options{NoDB: noDB || c.noDB, Logger: c.logger})
}
