package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestSelectionMetricsRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSelectionMetrics(reg)

	m.ObserveSelectStep("remote", false)
	m.ObserveSelectStep("local", true)
	m.IncSyncRepair()
	m.IncSyncFailure()
	m.IncOrderFallback()
	m.ObserveSyncDuration(120 * time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"selection_writes",
		"selection_sync_repairs",
		"selection_sync_repair_failures",
		"selection_sync_duration_seconds",
		"order_fallback_writes",
	} {
		if !names[want] {
			t.Fatalf("expected metric %q to be registered, got %v", want, names)
		}
	}
}

func TestSelectionMetricsNilSafe(t *testing.T) {
	var m *SelectionMetrics
	m.ObserveSelectStep("local", true)
	m.IncSyncRepair()
	m.IncSyncFailure()
	m.IncOrderFallback()
	m.ObserveSyncDuration(time.Second)

	unregistered := NewSelectionMetrics(nil)
	unregistered.IncSyncRepair()
}
