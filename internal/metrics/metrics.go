// Package metrics tracks one glidebill run's outcome counters the way
// internal/observability/metrics tracks scheduler job health: named
// Counter/CounterVec/Gauge instruments registered against a private
// prometheus.Registry, exposed through small Inc/Set methods so callers
// never touch the registry directly. Unlike the teacher's scheduler
// metrics, a batch run never serves /metrics over HTTP — WriteTextfile
// renders the registry once at the end of the run, the textfile
// collector pattern for processes that exit rather than stay up.
package metrics

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Metrics holds one run's billing-pass counters and gauges.
type Metrics struct {
	registry *prometheus.Registry

	eventsMatched     prometheus.Counter
	eventsUnmatched   *prometheus.CounterVec
	eventsSkipped     prometheus.Counter
	validatorRejected *prometheus.CounterVec
	cappedRewrites    *prometheus.CounterVec
	invoiceCount      prometheus.Gauge
	zeroInvoiceCount  prometheus.Gauge
	invoiceTotal      prometheus.Gauge
}

// New builds a fresh, unregistered-with-anything-global metrics set for
// one run. A private registry (not prometheus.DefaultRegisterer) keeps
// repeated runs in the same test process from colliding on duplicate
// registration, which the teacher's process-lifetime singleton doesn't
// need to worry about.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		eventsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "glidebill_events_matched_total",
			Help: "Events that matched at least one rule.",
		}),
		eventsUnmatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "glidebill_events_unmatched_total",
			Help: "Events that matched no rule, by event kind.",
		}, []string{"kind"}),
		eventsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "glidebill_events_skipped_no_invoicing_total",
			Help: "Events skipped because their account carries a no-invoicing prefix.",
		}),
		validatorRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "glidebill_validator_rejected_total",
			Help: "Events the validator flagged as invalid, by event kind.",
		}, []string{"kind"}),
		cappedRewrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "glidebill_capped_rule_rewrites_total",
			Help: "Charge lines a capped rule zeroed or reduced, by rule family.",
		}, []string{"rule"}),
		invoiceCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "glidebill_invoices_total",
			Help: "Non-zero invoices produced by the run.",
		}),
		zeroInvoiceCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "glidebill_invoices_zero_total",
			Help: "Zero-total invoices suppressed from output.",
		}),
		invoiceTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "glidebill_invoice_total_amount",
			Help: "Sum of all non-zero invoice totals, in currency units.",
		}),
	}

	registry.MustRegister(
		m.eventsMatched,
		m.eventsUnmatched,
		m.eventsSkipped,
		m.validatorRejected,
		m.cappedRewrites,
		m.invoiceCount,
		m.zeroInvoiceCount,
		m.invoiceTotal,
	)

	return m
}

func (m *Metrics) AddMatched(n int)         { m.eventsMatched.Add(float64(n)) }
func (m *Metrics) IncUnmatched(kind string) { m.eventsUnmatched.WithLabelValues(kind).Inc() }
func (m *Metrics) IncSkippedNoInvoicing()   { m.eventsSkipped.Inc() }
func (m *Metrics) AddValidatorRejected(kind string, n int) {
	m.validatorRejected.WithLabelValues(kind).Add(float64(n))
}
func (m *Metrics) IncCappedRewrite(ruleFamily string) {
	m.cappedRewrites.WithLabelValues(ruleFamily).Inc()
}

// SetInvoiceSummary records the final invoice counts and total amount.
func (m *Metrics) SetInvoiceSummary(nonZero, zero int, total float64) {
	m.invoiceCount.Set(float64(nonZero))
	m.zeroInvoiceCount.Set(float64(zero))
	m.invoiceTotal.Set(total)
}

// WriteTextfile renders the registry in Prometheus text exposition
// format to path, atomically via a temp-file rename, matching
// node_exporter's textfile collector contract.
func (m *Metrics) WriteTextfile(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	families, err := m.registry.Gather()
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	encoder := expfmt.NewEncoder(f, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := encoder.Encode(family); err != nil {
			f.Close()
			os.Remove(tmp)
			return err
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
