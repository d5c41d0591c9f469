package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"invoiceqc/internal/domain"
	"invoiceqc/internal/port"
	"invoiceqc/internal/report"
	"invoiceqc/internal/validator"
	"invoiceqc/internal/validator/invoice"
)

// ValidationService validates invoice batches and optionally records them.
type ValidationService interface {
	// ValidateBatch validates every record. When persist is set and a store
	// is configured, invoices and their results are saved after the whole
	// batch has been validated so members never flag each other as duplicates.
	ValidateBatch(ctx context.Context, records []*invoice.Record, persist bool) (*validator.BatchReport, error)
}

// ReportArchiver stores a finished batch report.
type ReportArchiver interface {
	Archive(ctx context.Context, rep *validator.BatchReport) (*report.ArchiveResult, error)
}

type validationService struct {
	engine   *validator.Engine
	invoices port.InvoiceRepository
	results  port.ValidationResultRepository
	archiver ReportArchiver
	logger   *slog.Logger
}

// NewValidationService creates a ValidationService. The repositories and the
// archiver may be nil, in which case nothing is persisted or archived.
func NewValidationService(
	engine *validator.Engine,
	invoices port.InvoiceRepository,
	results port.ValidationResultRepository,
	archiver ReportArchiver,
) ValidationService {
	return &validationService{
		engine:   engine,
		invoices: invoices,
		results:  results,
		archiver: archiver,
		logger:   slog.Default().With("component", "service.ValidationService"),
	}
}

func (s *validationService) ValidateBatch(ctx context.Context, records []*invoice.Record, persist bool) (*validator.BatchReport, error) {
	for i, rec := range records {
		if rec == nil {
			return nil, fmt.Errorf("invoice %d: %w", i, domain.ErrInvalidRecord)
		}
	}

	s.logger.InfoContext(ctx, "validating invoices", "count", len(records))
	rep := s.engine.ValidateBatch(ctx, records)

	if persist && s.invoices != nil {
		s.persist(ctx, records, rep.Results)
	}
	if s.archiver != nil {
		if res, err := s.archiver.Archive(ctx, rep); err != nil {
			s.logger.WarnContext(ctx, "report archive failed", "error", err)
		} else {
			s.logger.InfoContext(ctx, "report archived", "key", res.Key)
		}
	}
	return rep, nil
}

// persist stores each record with its result. Storage faults are logged and
// never change the returned report.
func (s *validationService) persist(ctx context.Context, records []*invoice.Record, results []*validator.Result) {
	saved := 0
	for i, rec := range records {
		id, err := s.invoices.Save(ctx, rec.Fields())
		if err != nil {
			if errors.Is(err, domain.ErrMissingKeyFields) {
				s.logger.InfoContext(ctx, "invoice not stored: key fields missing", "invoice_id", results[i].InvoiceID)
			} else {
				s.logger.ErrorContext(ctx, "failed to store invoice", "invoice_id", results[i].InvoiceID, "error", err)
			}
			continue
		}
		saved++

		if s.results == nil {
			continue
		}
		stored, err := toStoredResult(id, results[i])
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to encode validation result", "invoice_id", results[i].InvoiceID, "error", err)
			continue
		}
		if err := s.results.Create(ctx, stored); err != nil {
			s.logger.ErrorContext(ctx, "failed to store validation result", "invoice_id", results[i].InvoiceID, "error", err)
		}
	}
	s.logger.InfoContext(ctx, "batch persisted", "stored", saved, "total", len(records))
}

func toStoredResult(invoiceID int64, r *validator.Result) (*domain.StoredValidationResult, error) {
	errs, err := json.Marshal(r.Errors)
	if err != nil {
		return nil, err
	}
	warns, err := json.Marshal(r.Warnings)
	if err != nil {
		return nil, err
	}
	return &domain.StoredValidationResult{
		InvoiceID:    invoiceID,
		IsValid:      r.IsValid,
		ErrorsJSON:   string(errs),
		WarningsJSON: string(warns),
	}, nil
}
