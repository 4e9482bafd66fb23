package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTick        EventType = "tick"
	EventUnitLoad    EventType = "unit_load"
	EventNodeReload  EventType = "node_reload"
	EventNodeFault   EventType = "node_fault"
	EventSignalPatch EventType = "signal_patch"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// TickEvent is emitted once per completed tick.
type TickEvent struct {
	EventBase
	Tick     uint64        `json:"tick"`
	Duration time.Duration `json:"duration"`
	Executed bool          `json:"executed"`
}

// UnitEvent reports a code unit load, reload failure or removal.
type UnitEvent struct {
	EventBase
	Module  string `json:"module"`
	Removed bool   `json:"removed,omitempty"`
	Err     error  `json:"-"`
}

// NodeEvent reports a handler reload outcome.
type NodeEvent struct {
	EventBase
	Node NodeDefinition `json:"node"`
	Err  error          `json:"-"`
}

// FaultEvent reports a node marked invalid because of a fault.
type FaultEvent struct {
	EventBase
	Node  NodeDefinition `json:"node"`
	Phase Phase          `json:"phase"`
	Err   error          `json:"-"`
}

// SignalEvent reports a patch or unpatch.
type SignalEvent struct {
	EventBase
	Signal  SignalDefinition `json:"signal"`
	Patched bool             `json:"patched"`
	Err     error            `json:"-"`
}

// LifecycleHooks defines callbacks for runtime observability.
// Hooks run synchronously inside Tick and must not block.
type LifecycleHooks struct {
	OnTick        func(context.Context, *TickEvent)
	OnUnitLoad    func(context.Context, *UnitEvent)
	OnNodeReload  func(context.Context, *NodeEvent)
	OnNodeFault   func(context.Context, *FaultEvent)
	OnSignalPatch func(context.Context, *SignalEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTick:        chain(h.OnTick, other.OnTick),
		OnUnitLoad:    chain(h.OnUnitLoad, other.OnUnitLoad),
		OnNodeReload:  chain(h.OnNodeReload, other.OnNodeReload),
		OnNodeFault:   chain(h.OnNodeFault, other.OnNodeFault),
		OnSignalPatch: chain(h.OnSignalPatch, other.OnSignalPatch),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
