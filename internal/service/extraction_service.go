package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"invoiceqc/internal/extractor"
	"invoiceqc/internal/validator"
	"invoiceqc/internal/validator/invoice"
)

// UploadedFile is one document submitted for extraction.
type UploadedFile struct {
	Name string
	Data []byte
}

// FileResult pairs a document with what was extracted from it and the
// validation outcome of that record.
type FileResult struct {
	Filename      string            `json:"filename"`
	ExtractedData map[string]any    `json:"extracted_data"`
	Validation    *validator.Result `json:"validation"`
}

// ExtractionReport is the wire shape returned for a set of uploaded documents.
// TotalFiles counts every submitted file, including skipped non-PDFs.
type ExtractionReport struct {
	TotalFiles int               `json:"total_files"`
	Results    []FileResult      `json:"results"`
	Summary    validator.Summary `json:"summary"`
}

// DocumentExtractor turns a document into a raw invoice record.
type DocumentExtractor interface {
	ExtractBytes(ctx context.Context, name string, data []byte) map[string]any
	ExtractDir(ctx context.Context, dir string) ([]map[string]any, error)
}

// ExtractionService extracts invoice records from PDFs and validates them.
type ExtractionService interface {
	ExtractAndValidate(ctx context.Context, files []UploadedFile) (*ExtractionReport, error)
	ExtractDir(ctx context.Context, dir string) ([]map[string]any, error)
}

type extractionService struct {
	extractor   DocumentExtractor
	engine      *validator.Engine
	concurrency int
	logger      *slog.Logger
}

// NewExtractionService creates an ExtractionService.
func NewExtractionService(ext DocumentExtractor, engine *validator.Engine, concurrency int) ExtractionService {
	if concurrency <= 0 {
		concurrency = validator.DefaultConcurrency
	}
	return &extractionService{
		extractor:   ext,
		engine:      engine,
		concurrency: concurrency,
		logger:      slog.Default().With("component", "service.ExtractionService"),
	}
}

func (s *extractionService) ExtractDir(ctx context.Context, dir string) ([]map[string]any, error) {
	return s.extractor.ExtractDir(ctx, dir)
}

func (s *extractionService) ExtractAndValidate(ctx context.Context, files []UploadedFile) (*ExtractionReport, error) {
	s.logger.InfoContext(ctx, "processing uploaded files", "count", len(files))

	pdfs := make([]UploadedFile, 0, len(files))
	for _, f := range files {
		if !extractor.IsPDF(f.Name) {
			s.logger.WarnContext(ctx, "skipping non-PDF file", "filename", f.Name)
			continue
		}
		pdfs = append(pdfs, f)
	}

	extracted := make([]map[string]any, len(pdfs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, f := range pdfs {
		g.Go(func() error {
			fields := s.extractor.ExtractBytes(gctx, f.Name, f.Data)
			fields["filename"] = f.Name
			extracted[i] = fields
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]*invoice.Record, len(extracted))
	for i, fields := range extracted {
		records[i] = invoice.NewRecord(fields)
	}
	batch := s.engine.ValidateBatch(ctx, records)

	out := &ExtractionReport{
		TotalFiles: len(files),
		Results:    make([]FileResult, len(pdfs)),
		Summary:    batch.Summary,
	}
	for i, f := range pdfs {
		out.Results[i] = FileResult{
			Filename:      f.Name,
			ExtractedData: extracted[i],
			Validation:    batch.Results[i],
		}
	}
	s.logger.InfoContext(ctx, "completed processing",
		"valid", batch.Summary.ValidInvoices, "total", batch.Summary.TotalInvoices)
	return out, nil
}
