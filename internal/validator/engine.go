package validator

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"invoiceqc/internal/domain"
	"invoiceqc/internal/metrics"
	"invoiceqc/internal/port"
	"invoiceqc/internal/validator/invoice"
)

// DefaultConcurrency bounds how many invoices of a batch are validated at once.
const DefaultConcurrency = 4

// Options configures an Engine.
type Options struct {
	Rules       invoice.RuleOptions
	Concurrency int
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Engine applies the rule battery to invoice records.
type Engine struct {
	registry    *Registry
	concurrency int
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// NewEngine creates an engine with every built-in rule registered. The
// oracle backs the duplicate check; pass port.NoDuplicates{} to run without
// a database.
func NewEngine(oracle port.DuplicateOracle, opts Options) (*Engine, error) {
	if oracle == nil {
		return nil, domain.ErrNoDuplicateOracle
	}
	opts = opts.withDefaults()

	m := opts.Metrics
	rules := opts.Rules
	userHook := rules.OnDuplicateLookupError
	rules.OnDuplicateLookupError = func(err error) {
		m.IncrementDuplicateLookupFailure()
		if userHook != nil {
			userHook(err)
		}
	}

	registry := NewRegistry()
	for _, v := range invoice.AllBuiltinValidators(rules, oracle) {
		registry.Register(v)
	}
	return NewEngineWithRegistry(registry, opts), nil
}

// NewEngineWithRegistry creates an engine over a caller-assembled rule set.
func NewEngineWithRegistry(registry *Registry, opts Options) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		registry:    registry,
		concurrency: opts.Concurrency,
		metrics:     opts.Metrics,
		logger:      opts.Logger.With("component", "validator.Engine"),
		now:         opts.Rules.Now,
	}
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Rules.Logger == nil {
		o.Rules.Logger = o.Logger
	}
	o.Rules = o.Rules.WithDefaults()
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	return o
}

// Registry exposes the engine's rule set.
func (e *Engine) Registry() *Registry { return e.registry }

// Validate runs every rule against one record. It never fails: missing,
// blank or mistyped fields become findings. A nil record is validated as
// an empty one.
func (e *Engine) Validate(ctx context.Context, rec *invoice.Record) *Result {
	if rec == nil {
		rec = invoice.NewRecord(nil)
	}
	res := &Result{
		InvoiceID: rec.InvoiceID(),
		Errors:    []string{},
		Warnings:  []string{},
	}

	for _, v := range e.registry.All() {
		for _, vr := range v.Validate(ctx, rec) {
			if vr.Passed {
				continue
			}
			res.Findings = append(res.Findings, Finding{
				RuleKey:  v.RuleKey(),
				RuleType: v.RuleType(),
				Severity: v.Severity(),
				Field:    vr.FieldPath,
				Message:  vr.Message,
			})
			if v.Severity() == domain.ValidationSeverityError {
				res.Errors = append(res.Errors, vr.Message)
			} else {
				res.Warnings = append(res.Warnings, vr.Message)
			}
			e.metrics.IncrementFinding(v.RuleKey(), string(v.Severity()))
		}
	}
	res.IsValid = len(res.Errors) == 0

	outcome := domain.OutcomeValid
	if !res.IsValid {
		outcome = domain.OutcomeInvalid
	}
	e.metrics.IncrementOutcome(string(outcome))
	e.logger.InfoContext(ctx, "invoice validated",
		"invoice_id", res.InvoiceID, "valid", res.IsValid,
		"errors", len(res.Errors), "warnings", len(res.Warnings))
	return res
}

// ValidateBatch validates records concurrently and returns the results in
// input order together with their summary.
func (e *Engine) ValidateBatch(ctx context.Context, records []*invoice.Record) *BatchReport {
	start := time.Now()
	results := make([]*Result, len(records))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, rec := range records {
		g.Go(func() error {
			rctx := ctx
			if rec != nil {
				src := rec.Get(invoice.FieldSourceFile)
				rctx = invoice.WithValidationContext(ctx, src.String(), i)
			}
			results[i] = e.Validate(rctx, rec)
			return nil
		})
	}
	_ = g.Wait()

	summary := Summarize(results, e.now())
	e.metrics.ObserveBatchDuration(time.Since(start))
	e.logger.InfoContext(ctx, "batch validation complete",
		"valid", summary.ValidInvoices, "total", summary.TotalInvoices)
	return &BatchReport{Summary: summary, Results: results}
}
