package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"invoiceqc/internal/domain"
	"invoiceqc/internal/port"
	"invoiceqc/internal/validator/invoice"
)

const (
	defaultMaxBytes    = 50 << 20
	defaultConcurrency = 4
)

// Options configures an Extractor.
type Options struct {
	MaxBytes    int64
	Concurrency int
	Logger      *slog.Logger
}

// Extractor turns PDF invoices into raw invoice records. Extraction never
// fails a batch: any problem with a single document yields the empty
// record for it.
type Extractor struct {
	parser      port.DocumentParser
	maxBytes    int64
	concurrency int
	logger      *slog.Logger
}

// New creates an Extractor that hands document text to parser.
func New(parser port.DocumentParser, opts Options) *Extractor {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Extractor{
		parser:      parser,
		maxBytes:    opts.MaxBytes,
		concurrency: opts.Concurrency,
		logger:      opts.Logger.With("component", "extractor.Extractor"),
	}
}

// IsPDF reports whether name carries an allowed document extension.
func IsPDF(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	_, ok := domain.AllowedExtensions[ext]
	return ok
}

// ExtractBytes extracts one document held in memory.
func (e *Extractor) ExtractBytes(ctx context.Context, name string, data []byte) map[string]any {
	fields, err := e.extract(ctx, name, data)
	if err != nil {
		e.logger.WarnContext(ctx, "extraction failed, using empty record", "file", name, "error", err)
		return invoice.EmptyFields(name)
	}
	return fields
}

// ExtractFile extracts one document from disk.
func (e *Extractor) ExtractFile(ctx context.Context, path string) map[string]any {
	name := filepath.Base(path)
	info, err := os.Stat(path)
	if err != nil {
		e.logger.WarnContext(ctx, "cannot stat file", "file", path, "error", err)
		return invoice.EmptyFields(name)
	}
	if info.Size() > e.maxBytes {
		e.logger.WarnContext(ctx, "extraction failed, using empty record", "file", name, "error", domain.ErrFileTooLarge)
		return invoice.EmptyFields(name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		e.logger.WarnContext(ctx, "cannot read file", "file", path, "error", err)
		return invoice.EmptyFields(name)
	}
	return e.ExtractBytes(ctx, name, data)
}

// ExtractDir extracts every *.pdf file directly inside dir, in name order.
func (e *Extractor) ExtractDir(ctx context.Context, dir string) ([]map[string]any, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)
	e.logger.InfoContext(ctx, "extracting directory", "dir", dir, "files", len(paths))

	out := make([]map[string]any, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = e.ExtractFile(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Extractor) extract(ctx context.Context, name string, data []byte) (map[string]any, error) {
	if int64(len(data)) > e.maxBytes {
		return nil, domain.ErrFileTooLarge
	}
	text, err := ReadText(data)
	if err != nil {
		return nil, err
	}
	if e.parser == nil {
		return nil, errors.New("no parser configured")
	}
	out, err := e.parser.Parse(ctx, port.ParseInput{Text: text, SourceFile: name})
	if err != nil {
		return nil, err
	}
	if out == nil || out.Fields == nil {
		return nil, domain.ErrNoText
	}
	fields := out.Fields
	fields[invoice.FieldSourceFile] = name
	if _, ok := fields[invoice.FieldLineItems]; !ok {
		fields[invoice.FieldLineItems] = []any{}
	}
	e.logger.InfoContext(ctx, "extracted invoice", "file", name, "model", out.ModelUsed,
		"invoice_number", fields[invoice.FieldInvoiceNumber])
	return fields, nil
}
