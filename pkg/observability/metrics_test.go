package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics()
	h := m.Hooks()
	ctx := context.Background()
	boom := errors.New("boom")

	h.OnTick(ctx, &domain.TickEvent{Tick: 1, Duration: time.Millisecond, Executed: true})
	h.OnTick(ctx, &domain.TickEvent{Tick: 2, Duration: time.Millisecond})
	h.OnUnitLoad(ctx, &domain.UnitEvent{Module: "m1"})
	h.OnUnitLoad(ctx, &domain.UnitEvent{Module: "m1", Err: boom})
	h.OnUnitLoad(ctx, &domain.UnitEvent{Module: "m1", Removed: true})
	h.OnNodeReload(ctx, &domain.NodeEvent{Err: boom})
	h.OnNodeFault(ctx, &domain.FaultEvent{Phase: domain.PhaseExec, Err: boom})
	h.OnSignalPatch(ctx, &domain.SignalEvent{Patched: true})
	h.OnSignalPatch(ctx, &domain.SignalEvent{Err: boom})
	h.OnSignalPatch(ctx, &domain.SignalEvent{})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Ticks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Executed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnitLoads.WithLabelValues("m1", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnitLoads.WithLabelValues("m1", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnitLoads.WithLabelValues("m1", "removed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodeReloads.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Faults.WithLabelValues("exec")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Patches.WithLabelValues("patch", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Patches.WithLabelValues("patch", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Patches.WithLabelValues("unpatch", "ok")))
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics()
	m.Hooks().OnTick(context.Background(), &domain.TickEvent{Tick: 1})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "weft_ticks_total 1")
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	h := observability.LoggingHooks(logger)
	ctx := context.Background()

	h.OnTick(ctx, &domain.TickEvent{Tick: 1})
	assert.Empty(t, buf.String())

	h.OnNodeFault(ctx, &domain.FaultEvent{
		Node:  domain.NodeDefinition{GUID: "2", Name: "B"},
		Phase: domain.PhaseInit,
		Err:   errors.New("nope"),
	})
	assert.Contains(t, buf.String(), "node_fault")
	assert.Contains(t, buf.String(), "phase=init")
}
