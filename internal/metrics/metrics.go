package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for invoice validation.
type Metrics struct {
	// Validated invoices by outcome (valid, invalid)
	InvoicesValidated *prometheus.CounterVec

	// Failed rule checks by rule key and severity
	Findings *prometheus.CounterVec

	// Wall time of a whole batch
	BatchDuration prometheus.Histogram

	// Duplicate oracle lookups that errored or timed out
	DuplicateLookupFailures prometheus.Counter
}

// New creates the validation metrics and registers them with reg. A nil
// registerer leaves them unregistered, which is convenient in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		InvoicesValidated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "invoiceqc_invoices_validated_total",
			Help: "Total validated invoices by outcome",
		}, []string{"outcome"}),

		Findings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "invoiceqc_findings_total",
			Help: "Total validation findings by rule and severity",
		}, []string{"rule", "severity"}),

		BatchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "invoiceqc_batch_duration_seconds",
			Help:    "Duration of batch validation",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		DuplicateLookupFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "invoiceqc_duplicate_lookup_failures_total",
			Help: "Duplicate oracle lookups that failed and were skipped",
		}),
	}
}

// IncrementOutcome records one validated invoice.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.InvoicesValidated.WithLabelValues(outcome).Inc()
	}
}

// IncrementFinding records one failed rule check.
func (m *Metrics) IncrementFinding(rule, severity string) {
	if m != nil {
		m.Findings.WithLabelValues(rule, severity).Inc()
	}
}

// ObserveBatchDuration records how long a batch took.
func (m *Metrics) ObserveBatchDuration(d time.Duration) {
	if m != nil {
		m.BatchDuration.Observe(d.Seconds())
	}
}

// IncrementDuplicateLookupFailure records a skipped duplicate check.
func (m *Metrics) IncrementDuplicateLookupFailure() {
	if m != nil {
		m.DuplicateLookupFailures.Inc()
	}
}
