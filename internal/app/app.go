// Package app wires configuration into the repositories, rule engine and
// services shared by the HTTP server and the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"invoiceqc/internal/config"
	"invoiceqc/internal/extractor"
	"invoiceqc/internal/metrics"
	"invoiceqc/internal/parser"
	_ "invoiceqc/internal/parser/gemini"
	_ "invoiceqc/internal/parser/openai"
	"invoiceqc/internal/port"
	"invoiceqc/internal/report"
	"invoiceqc/internal/repository/sqlstore"
	"invoiceqc/internal/service"
	s3storage "invoiceqc/internal/storage/s3"
	"invoiceqc/internal/validator"
)

// Options adjusts how the application is assembled.
type Options struct {
	// NoDB runs without a database: no duplicate lookups, nothing persisted,
	// no stored-invoice queries.
	NoDB bool
	// Registerer receives the validation metrics; nil leaves them unregistered.
	Registerer prometheus.Registerer
	Logger     *slog.Logger
}

// App holds the assembled components. DB, Invoices, Results and InvoiceSvc
// are nil when the database is disabled.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	DB       *sqlx.DB
	Invoices port.InvoiceRepository
	Results  port.ValidationResultRepository

	Metrics   *metrics.Metrics
	Engine    *validator.Engine
	Parser    *parser.FallbackParser
	Extractor *extractor.Extractor
	Archiver  *report.Archiver

	Validation service.ValidationService
	Extraction service.ExtractionService
	InvoiceSvc service.InvoiceService
}

// New assembles the application from cfg.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger, Metrics: metrics.New(opts.Registerer)}

	var oracle port.DuplicateOracle = port.NoDuplicates{}
	if !opts.NoDB {
		db, err := sqlstore.Open(&cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.DB = db
		a.Invoices = sqlstore.NewInvoiceRepo(db)
		a.Results = sqlstore.NewValidationResultRepo(db)
		oracle = a.Invoices
	}

	rules, err := cfg.Validation.RuleOptions()
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Engine, err = validator.NewEngine(oracle, validator.Options{
		Rules:       rules,
		Concurrency: cfg.Validation.BatchConcurrency,
		Metrics:     a.Metrics,
		Logger:      logger,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	if cfg.Archive.Enabled {
		store, err := s3storage.NewS3Client(ctx, &cfg.Archive)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to initialize report archive: %w", err)
		}
		a.Archiver = report.NewArchiver(store, cfg.Archive.Bucket, cfg.Archive.Prefix, cfg.Archive.PresignExpiry)
	}

	a.Parser = parser.NewChain(&cfg.Parser)
	a.Extractor = extractor.New(a.Parser, extractor.Options{
		MaxBytes:    cfg.Extract.MaxPDFSizeMB << 20,
		Concurrency: cfg.Extract.Concurrency,
		Logger:      logger,
	})

	var archiver service.ReportArchiver
	if a.Archiver != nil {
		archiver = a.Archiver
	}
	a.Validation = service.NewValidationService(a.Engine, a.Invoices, a.Results, archiver)
	a.Extraction = service.NewExtractionService(a.Extractor, a.Engine, cfg.Extract.Concurrency)
	if a.Invoices != nil {
		a.InvoiceSvc = service.NewInvoiceService(a.Invoices, a.Results)
	}

	logger.InfoContext(ctx, "application ready",
		"db", a.DB != nil, "parsers", a.Parser.Names(), "archive", a.Archiver != nil)
	return a, nil
}

// ParserNames lists the parser chain in the order it is tried.
func (a *App) ParserNames() []string {
	return a.Parser.Names()
}

// Close releases the database connection.
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	err := a.DB.Close()
	a.DB = nil
	return err
}
