package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SelectionMetrics records reconciliation-engine outcomes: selection write
// results, sync repair activity, and degraded (fallback) order writes.
type SelectionMetrics struct {
	selectOutcome *prometheus.CounterVec
	syncRepairs   prometheus.Counter
	syncFailures  prometheus.Counter
	syncDuration  prometheus.Histogram
	orderFallback prometheus.Counter
}

// NewSelectionMetrics registers the engine metrics on the provided registerer.
func NewSelectionMetrics(reg prometheus.Registerer) *SelectionMetrics {
	if reg == nil {
		return &SelectionMetrics{}
	}
	selectOutcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "selection_writes",
		Help: "Gift selection writes by step result.",
	}, []string{"step", "result"})
	syncRepairs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "selection_sync_repairs",
		Help: "Local-only records uploaded to the remote store by sync.",
	})
	syncFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "selection_sync_repair_failures",
		Help: "Repair uploads that failed and were skipped.",
	})
	syncDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "selection_sync_duration_seconds",
		Help:    "Duration of sync passes in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	orderFallback := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_fallback_writes",
		Help: "Orders persisted through the low-level fallback path.",
	})
	reg.MustRegister(selectOutcome, syncRepairs, syncFailures, syncDuration, orderFallback)
	return &SelectionMetrics{
		selectOutcome: selectOutcome,
		syncRepairs:   syncRepairs,
		syncFailures:  syncFailures,
		syncDuration:  syncDuration,
		orderFallback: orderFallback,
	}
}

// ObserveSelectStep records the result of one step of the select pipeline.
func (m *SelectionMetrics) ObserveSelectStep(step string, ok bool) {
	if m == nil || m.selectOutcome == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.selectOutcome.WithLabelValues(step, result).Inc()
}

// IncSyncRepair counts one successfully uploaded local-only record.
func (m *SelectionMetrics) IncSyncRepair() {
	if m == nil || m.syncRepairs == nil {
		return
	}
	m.syncRepairs.Inc()
}

// IncSyncFailure counts one repair upload that failed.
func (m *SelectionMetrics) IncSyncFailure() {
	if m == nil || m.syncFailures == nil {
		return
	}
	m.syncFailures.Inc()
}

// ObserveSyncDuration records the duration of a full sync pass.
func (m *SelectionMetrics) ObserveSyncDuration(d time.Duration) {
	if m == nil || m.syncDuration == nil {
		return
	}
	m.syncDuration.Observe(d.Seconds())
}

// IncOrderFallback counts one order persisted via the fallback write path.
func (m *SelectionMetrics) IncOrderFallback() {
	if m == nil || m.orderFallback == nil {
		return
	}
	m.orderFallback.Inc()
}
