package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the runtime's Prometheus collectors in a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	Ticks        prometheus.Counter
	Executed     prometheus.Counter
	TickDuration prometheus.Histogram
	UnitLoads    *prometheus.CounterVec
	NodeReloads  *prometheus.CounterVec
	Faults       *prometheus.CounterVec
	Patches      *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "weft_ticks_total",
			Help: "Total number of completed ticks",
		}),
		Executed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "weft_entry_executions_total",
			Help: "Ticks where the entry callable ran without a fault",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "weft_tick_duration_seconds",
			Help:    "Duration of a tick",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		UnitLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weft_unit_loads_total",
			Help: "Code unit load attempts by outcome",
		}, []string{"module", "result"}),
		NodeReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weft_node_reloads_total",
			Help: "Node handler reloads by outcome",
		}, []string{"result"}),
		Faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weft_node_faults_total",
			Help: "Nodes invalidated by a fault, by phase",
		}, []string{"phase"}),
		Patches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weft_signal_patches_total",
			Help: "Signal patch and unpatch operations",
		}, []string{"op", "result"}),
	}
	m.Registry.MustRegister(m.Ticks, m.Executed, m.TickDuration, m.UnitLoads, m.NodeReloads, m.Faults, m.Patches)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTick: func(_ context.Context, e *domain.TickEvent) {
			m.Ticks.Inc()
			m.TickDuration.Observe(e.Duration.Seconds())
			if e.Executed {
				m.Executed.Inc()
			}
		},
		OnUnitLoad: func(_ context.Context, e *domain.UnitEvent) {
			m.UnitLoads.WithLabelValues(e.Module, unitResult(e)).Inc()
		},
		OnNodeReload: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeReloads.WithLabelValues(result(e.Err)).Inc()
		},
		OnNodeFault: func(_ context.Context, e *domain.FaultEvent) {
			m.Faults.WithLabelValues(string(e.Phase)).Inc()
		},
		OnSignalPatch: func(_ context.Context, e *domain.SignalEvent) {
			op := "unpatch"
			if e.Patched || e.Err != nil {
				op = "patch"
			}
			m.Patches.WithLabelValues(op, result(e.Err)).Inc()
		},
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func unitResult(e *domain.UnitEvent) string {
	if e.Removed {
		return "removed"
	}
	return result(e.Err)
}
