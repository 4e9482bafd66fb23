package runtime

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/weft/internal/codeunit"
	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/node"
)

// Handler owns the live instance bound to one node definition.
type Handler struct {
	def     domain.NodeDefinition
	watcher *codeunit.Watcher
	frame   *domain.FrameContext
	logger  *slog.Logger

	class node.Class
	inst  node.Instance
	ports *node.Ports

	valid  bool
	inited bool
	err    error

	// carried survives failed reloads so state is not lost while the code is broken.
	carried *domain.Snapshot
	// instance counts successful constructions; bindings made against an older one are stale.
	instance uint64
	// calls is shared by every handler of a manager.
	calls *cascade
}

func newHandler(def domain.NodeDefinition, w *codeunit.Watcher, frame *domain.FrameContext, logger *slog.Logger, restored *domain.Snapshot) *Handler {
	return &Handler{
		def:     def,
		watcher: w,
		frame:   frame,
		logger:  logger.With("node", def.Name, "guid", def.GUID, "module", def.Module),
		ports:   node.NewPorts(node.Spec{}),
		carried: restored,
	}
}

func (h *Handler) Definition() domain.NodeDefinition { return h.def }

func (h *Handler) Valid() bool { return h.valid }

func (h *Handler) Inited() bool { return h.inited }

func (h *Handler) Err() error { return h.err }

func (h *Handler) Ports() *node.Ports { return h.ports }

// Spec returns the declared ports of the current class.
func (h *Handler) Spec() node.Spec {
	if h.class == nil {
		return node.Spec{}
	}
	return h.class.Spec()
}

// Reload replaces the instance with a fresh one built from the watcher's current class,
// migrating state from the outgoing instance. Failures are recorded, never propagated
// as panics; the returned error is the recorded one.
func (h *Handler) Reload() error {
	snap := h.snapshot()
	h.carried = snap

	class, err := h.watcher.Class(h.def.Class)
	if err != nil {
		return h.fail(domain.PhaseConstruct, err)
	}
	if err := node.Verify(class); err != nil {
		return h.fail(domain.PhaseConstruct, err)
	}

	spec := class.Spec()
	ports := node.NewPorts(spec)
	env := node.Env{GUID: h.def.GUID, Frame: h.frame, Ports: ports, Logger: h.logger}

	var inst node.Instance
	err = capture(func() error {
		var cerr error
		inst, cerr = class.New(env)
		return cerr
	})
	if err == nil {
		err = node.VerifyInstance(spec, inst)
	}
	if err != nil {
		return h.fail(domain.PhaseConstruct, fmt.Errorf("construct %s: %w", h.def.Class, err))
	}

	if snap != nil {
		if err := capture(func() error { return inst.SetState(snap.Data) }); err != nil {
			return h.fail(domain.PhaseState, fmt.Errorf("restore state: %w", err))
		}
	}

	h.class = class
	h.inst = inst
	h.ports = ports
	h.valid = true
	h.inited = false
	h.err = nil
	h.carried = nil
	h.instance++
	logging.Success(h.logger, "node reloaded", "class", h.def.Class)
	return nil
}

func (h *Handler) fail(phase domain.Phase, err error) error {
	f := &domain.NodeFault{GUID: h.def.GUID, Phase: phase, Err: err}
	// The outgoing instance is orphaned; its state already moved to carried.
	h.inst = nil
	h.valid = false
	h.err = f
	h.logger.Error("node reload failed", "error", err)
	return f
}

// snapshot asks the current instance for its state, falling back to whatever was carried.
func (h *Handler) snapshot() *domain.Snapshot {
	if h.inst == nil {
		return h.carried
	}
	var data map[string]any
	err := capture(func() error {
		var gerr error
		data, gerr = h.inst.GetState()
		return gerr
	})
	if err != nil {
		h.logger.Warn("getState failed, state not migrated", "error", err)
		return h.carried
	}
	return domain.NewSnapshot(h.def.Class, data)
}

// Snapshot returns the state a replacement instance would receive.
func (h *Handler) Snapshot() *domain.Snapshot {
	return h.snapshot().Clone()
}

// RunInit calls Init once per successful reload.
func (h *Handler) RunInit() error {
	if !h.valid || h.inited {
		return nil
	}
	h.inited = true
	if err := guard(h.def.GUID, domain.PhaseInit, "", h.inst.Init); err != nil {
		h.Invalidate(err)
		h.logger.Error("node init failed", "error", err)
		return err
	}
	return nil
}

// Invalidate disables the node until its next successful reload.
// The instance is kept so that reload can still migrate its state.
func (h *Handler) Invalidate(err error) {
	h.valid = false
	h.err = err
}

// Teardown discards the instance and returns its final state.
func (h *Handler) Teardown() *domain.Snapshot {
	snap := h.snapshot()
	h.inst = nil
	h.carried = nil
	h.valid = false
	h.ports.Reset(node.Spec{})
	return snap
}

// dataOutput returns the guarded callable of a data output on the current instance.
func (h *Handler) dataOutput(name string) (node.DataFunc, bool) {
	if h.inst == nil {
		return nil, false
	}
	fn, ok := h.inst.DataOutput(name)
	if !ok || fn == nil {
		return nil, false
	}
	guid, calls := h.def.GUID, h.calls
	return func() (v any, err error) {
		if err := calls.enter(guid, name); err != nil {
			return nil, err
		}
		defer calls.leave()
		err = guard(guid, domain.PhaseExec, name, func() error {
			var ferr error
			v, ferr = fn()
			return ferr
		})
		if err != nil {
			return nil, err
		}
		return v, nil
	}, true
}

// execInput returns the guarded callable of an exec input on the current instance.
func (h *Handler) execInput(name string) (node.ExecFunc, bool) {
	if h.inst == nil {
		return nil, false
	}
	fn, ok := h.inst.ExecInput(name)
	if !ok || fn == nil {
		return nil, false
	}
	guid, calls := h.def.GUID, h.calls
	return func() error {
		if err := calls.enter(guid, name); err != nil {
			return err
		}
		defer calls.leave()
		return guard(guid, domain.PhaseExec, name, fn)
	}, true
}

// execOutput returns a callable that fires an exec output of the current instance.
func (h *Handler) execOutput(name string) node.ExecFunc {
	ports := h.ports
	guid := h.def.GUID
	return func() error {
		return guard(guid, domain.PhaseExec, name, func() error { return ports.Fire(name) })
	}
}

func (h *Handler) status() domain.NodeStatus {
	st := domain.NodeStatus{
		Node:   h.def,
		Valid:  h.valid,
		Inited: h.inited,
		Loaded: h.inst != nil,
	}
	if h.err != nil {
		st.Error = h.err.Error()
	}
	return st
}
