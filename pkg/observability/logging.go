package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/weft/pkg/domain"
)

// LoggingHooks logs lifecycle events at debug level, and faults as warnings.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTick: func(ctx context.Context, e *domain.TickEvent) {
			logger.DebugContext(ctx, "tick", "tick", e.Tick, "duration", e.Duration, "executed", e.Executed)
		},
		OnUnitLoad: func(ctx context.Context, e *domain.UnitEvent) {
			logger.DebugContext(ctx, "unit_load", "module", e.Module, "removed", e.Removed, "error", e.Err)
		},
		OnNodeReload: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_reload", "node", e.Node.String(), "error", e.Err)
		},
		OnNodeFault: func(ctx context.Context, e *domain.FaultEvent) {
			logger.WarnContext(ctx, "node_fault", "node", e.Node.String(), "phase", e.Phase, "error", e.Err)
		},
		OnSignalPatch: func(ctx context.Context, e *domain.SignalEvent) {
			logger.DebugContext(ctx, "signal_patch", "signal", e.Signal.String(), "patched", e.Patched, "error", e.Err)
		},
	}
}
