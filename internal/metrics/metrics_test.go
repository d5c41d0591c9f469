package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceqc/internal/metrics"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.IncrementOutcome("valid")
	m.IncrementOutcome("valid")
	m.IncrementOutcome("invalid")
	m.IncrementFinding("required.invoice_number", "error")
	m.IncrementDuplicateLookupFailure()
	m.ObserveBatchDuration(20 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.InvoicesValidated.WithLabelValues("valid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InvoicesValidated.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Findings.WithLabelValues("required.invoice_number", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DuplicateLookupFailures))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "invoiceqc_batch_duration_seconds")
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.IncrementOutcome("valid")
		m.IncrementFinding("r", "warning")
		m.ObserveBatchDuration(time.Second)
		m.IncrementDuplicateLookupFailure()
	})
}
