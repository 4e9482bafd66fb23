// Package runtime reconciles a project against live node instances and drives
// the per-tick execution of the graph.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/aretw0/weft/internal/codeunit"
	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/node"
	"github.com/aretw0/weft/pkg/ports"
)

// Config wires a Manager to its collaborators.
type Config struct {
	Projects  ports.ProjectLoader
	Units     ports.UnitLoader
	Frame     *domain.FrameContext
	Logger    *slog.Logger
	Hooks     domain.LifecycleHooks
	Snapshots ports.SnapshotStore
	Locker    ports.DistributedLocker
}

type unitRef struct {
	watcher *codeunit.Watcher
	refs    int
}

type signalState struct {
	def     domain.SignalDefinition
	paired  bool
	patched bool
	err     error
	// owner holds the binding: the target's table for data, the source's for exec.
	owner *node.Ports
}

const (
	entryFire = "fire"
	entryCall = "call"
)

type entryBinding struct {
	ref   domain.EntryRef
	owner *Handler
	mode  string
	call  func() error
}

// Manager owns every handler, watcher and signal binding of one project.
// All methods except Status must be called from the host's tick goroutine.
type Manager struct {
	cfg    Config
	logger *slog.Logger

	project  *domain.Project
	byGUID   map[string]domain.NodeDefinition
	handlers map[domain.NodeDefinition]*Handler
	units    map[string]*unitRef
	signals  map[domain.SignalKey]*signalState
	parked   map[string]*domain.Snapshot

	entry     *entryBinding
	lastWarn  string
	tick      uint64
	lastFault string
	calls     cascade

	status atomic.Pointer[domain.GraphStatus]
}

// NewManager validates cfg. Nothing is loaded until Start.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Projects == nil {
		return nil, errors.New("runtime: project loader is required")
	}
	if cfg.Units == nil {
		return nil, errors.New("runtime: unit loader is required")
	}
	if cfg.Frame == nil {
		cfg.Frame = &domain.FrameContext{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	m := &Manager{
		cfg:      cfg,
		logger:   cfg.Logger,
		byGUID:   make(map[string]domain.NodeDefinition),
		handlers: make(map[domain.NodeDefinition]*Handler),
		units:    make(map[string]*unitRef),
		signals:  make(map[domain.SignalKey]*signalState),
		parked:   make(map[string]*domain.Snapshot),
	}
	m.publish()
	return m, nil
}

// Start loads the project for the first time and builds the graph.
// An unreadable project is returned as an error.
func (m *Manager) Start(ctx context.Context) error {
	project, err := m.cfg.Projects.Load(ctx)
	if err != nil {
		return fmt.Errorf("load project %s: %w", m.cfg.Projects.Source(), err)
	}
	m.logger.Info("project loaded", "project", project.Name, "nodes", len(project.Nodes), "signals", len(project.Signals))
	m.reconcile(ctx, project)
	m.publish()
	return nil
}

// Tick runs one frame: project reconciliation, code unit reloads, entry
// resolution and entry invocation, in that order. Only a structurally
// unreadable project is returned; the previous graph keeps running.
func (m *Manager) Tick(ctx context.Context) error {
	start := time.Now()
	m.tick++

	var structural error
	if p, ok := m.cfg.Projects.(ports.Pollable); ok && p.Poll() {
		project, err := m.cfg.Projects.Load(ctx)
		if err != nil {
			structural = fmt.Errorf("reload project %s: %w", m.cfg.Projects.Source(), err)
			m.logger.Error("project unreadable, keeping current graph", "error", err)
		} else {
			m.logger.Info("project changed", "nodes", len(project.Nodes), "signals", len(project.Signals))
			m.reconcile(ctx, project)
		}
	}

	m.pollUnits(ctx)

	if m.entry == nil {
		m.resolveEntry()
	}
	executed := m.invokeEntry(ctx)

	m.publish()
	if m.cfg.Hooks.OnTick != nil {
		m.cfg.Hooks.OnTick(ctx, &domain.TickEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventTick},
			Tick:      m.tick,
			Duration:  time.Since(start),
			Executed:  executed,
		})
	}
	return structural
}

// reconcile diffs project against the current definitions and converges
// watchers, handlers and signals.
func (m *Manager) reconcile(ctx context.Context, project *domain.Project) {
	next := project.NodeSet()
	var prevEntry domain.EntryRef
	if m.project != nil {
		prevEntry = m.project.Entry
	}

	// Removals first so a guid moving to another class gets a fresh handler.
	for _, def := range m.currentDefs() {
		if _, keep := next[def]; !keep {
			m.removeNode(ctx, def)
		}
	}

	m.project = project
	m.byGUID = make(map[string]domain.NodeDefinition, len(project.Nodes))
	for _, def := range project.Nodes {
		m.byGUID[def.GUID] = def
	}
	m.syncUnits(ctx)

	nextSignals := project.SignalSet()
	for _, st := range m.sortedSignals() {
		key := st.def.Key()
		if def, keep := nextSignals[key]; keep && def.Kind == st.def.Kind {
			continue
		}
		m.unpatch(ctx, st)
		delete(m.signals, key)
	}

	var created []*Handler
	for _, def := range project.Nodes {
		if _, exists := m.handlers[def]; exists {
			continue
		}
		ref := m.units[def.Module]
		if ref == nil || !ref.watcher.Valid() {
			m.logger.Warn("code unit invalid, node not created", "node", def.Name, "guid", def.GUID, "module", def.Module)
			continue
		}
		h := m.createHandler(ctx, def, ref.watcher)
		m.reloadHandler(ctx, h)
		created = append(created, h)
	}

	for key, def := range nextSignals {
		if _, ok := m.signals[key]; !ok {
			m.signals[key] = &signalState{def: def}
		}
	}
	for _, st := range m.sortedSignals() {
		if !st.paired {
			_, srcOK := m.byGUID[st.def.Source]
			_, dstOK := m.byGUID[st.def.Target]
			if !srcOK || !dstOK {
				st.err = fmt.Errorf("%w: %s", domain.ErrUnresolvedEndpoint, st.def.Key())
				m.logger.Warn("signal endpoint unresolved, signal dropped", "signal", st.def.Key().String())
				continue
			}
			st.paired = true
		}
		if !st.patched {
			m.patch(ctx, st)
		}
	}

	for _, h := range created {
		m.initHandler(ctx, h)
	}

	if project.Entry != prevEntry {
		m.clearEntry()
	}
}

// syncUnits keeps one watcher per referenced module and closes watchers nothing references.
func (m *Manager) syncUnits(ctx context.Context) {
	refs := make(map[string]int)
	for _, def := range m.project.Nodes {
		refs[def.Module]++
	}
	for module, ref := range m.units {
		if refs[module] > 0 {
			continue
		}
		if err := ref.watcher.Close(); err != nil {
			m.logger.Debug("closing code unit", "module", module, "error", err)
		}
		delete(m.units, module)
		m.logger.Info("code unit released", "module", module)
	}
	for _, module := range m.project.Modules() {
		ref, ok := m.units[module]
		if !ok {
			w := codeunit.New(module, m.cfg.Units, m.logger)
			ref = &unitRef{watcher: w}
			m.units[module] = ref
			m.emitUnit(ctx, module, false, w.Load())
		}
		ref.refs = refs[module]
	}
}

func (m *Manager) createHandler(ctx context.Context, def domain.NodeDefinition, w *codeunit.Watcher) *Handler {
	h := newHandler(def, w, m.cfg.Frame, m.logger, m.restore(ctx, def.GUID))
	h.calls = &m.calls
	m.handlers[def] = h
	return h
}

// restore finds the state a brand new handler starts from: state parked when its
// unit disappeared, else the snapshot store.
func (m *Manager) restore(ctx context.Context, guid string) *domain.Snapshot {
	if snap, ok := m.parked[guid]; ok {
		delete(m.parked, guid)
		return snap
	}
	if m.cfg.Snapshots == nil {
		return nil
	}
	snap, err := m.cfg.Snapshots.Load(ctx, guid)
	if err != nil {
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			m.logger.Warn("snapshot store load failed", "guid", guid, "error", err)
		}
		return nil
	}
	return snap
}

func (m *Manager) reloadHandler(ctx context.Context, h *Handler) bool {
	if m.entry != nil && m.entry.owner == h {
		m.clearEntry()
	}
	err := h.Reload()
	if m.cfg.Hooks.OnNodeReload != nil {
		m.cfg.Hooks.OnNodeReload(ctx, &domain.NodeEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventNodeReload},
			Node:      h.def,
			Err:       err,
		})
	}
	if err != nil {
		m.unpatchNode(ctx, h.def.GUID)
		m.emitFault(ctx, h.def, err)
		return false
	}
	return true
}

func (m *Manager) initHandler(ctx context.Context, h *Handler) {
	if !h.Valid() || h.Inited() {
		return
	}
	if err := h.RunInit(); err != nil {
		m.unpatchNode(ctx, h.def.GUID)
		m.emitFault(ctx, h.def, err)
	}
}

func (m *Manager) removeNode(ctx context.Context, def domain.NodeDefinition) {
	h, ok := m.handlers[def]
	if ok {
		m.unpatchNode(ctx, def.GUID)
		h.Teardown()
		delete(m.handlers, def)
		if m.entry != nil && m.entry.owner == h {
			m.clearEntry()
		}
	}
	delete(m.parked, def.GUID)
	for _, st := range m.signals {
		if st.def.Source == def.GUID || st.def.Target == def.GUID {
			st.paired = false
		}
	}
	if m.cfg.Snapshots != nil {
		if err := m.cfg.Snapshots.Delete(ctx, def.GUID); err != nil {
			m.logger.Warn("snapshot store delete failed", "guid", def.GUID, "error", err)
		}
	}
	m.logger.Info("node removed", "node", def.Name, "guid", def.GUID)
}

// pollUnits polls every watcher in module order and applies the outcome to its handlers.
func (m *Manager) pollUnits(ctx context.Context) {
	modules := make([]string, 0, len(m.units))
	for module := range m.units {
		modules = append(modules, module)
	}
	sort.Strings(modules)

	for _, module := range modules {
		ref := m.units[module]
		switch ref.watcher.Poll() {
		case codeunit.ChangeReloaded:
			m.emitUnit(ctx, module, false, nil)
			m.unitReloaded(ctx, module, ref.watcher)
		case codeunit.ChangeRemoved:
			m.emitUnit(ctx, module, true, nil)
			m.unitRemoved(ctx, module)
		case codeunit.ChangeFailed:
			m.emitUnit(ctx, module, false, ref.watcher.Err())
			m.logger.Warn("code unit reload failed, keeping previous code", "module", module)
		}
	}
	for _, ref := range m.units {
		ref.watcher.Sweep()
	}
}

func (m *Manager) unitReloaded(ctx context.Context, module string, w *codeunit.Watcher) {
	var reloaded []*Handler
	for _, def := range m.defsOf(module) {
		h, ok := m.handlers[def]
		if !ok {
			h = m.createHandler(ctx, def, w)
		}
		if m.reloadHandler(ctx, h) {
			reloaded = append(reloaded, h)
		}
	}
	for _, h := range reloaded {
		m.patchNode(ctx, h.def.GUID)
	}
	for _, h := range reloaded {
		m.initHandler(ctx, h)
	}
}

func (m *Manager) unitRemoved(ctx context.Context, module string) {
	for _, def := range m.defsOf(module) {
		h, ok := m.handlers[def]
		if !ok {
			continue
		}
		m.unpatchNode(ctx, def.GUID)
		if snap := h.Teardown(); snap != nil {
			m.parked[def.GUID] = snap
		}
		delete(m.handlers, def)
		if m.entry != nil && m.entry.owner == h {
			m.clearEntry()
		}
		m.logger.Warn("node disabled, code unit removed", "node", def.Name, "guid", def.GUID, "module", module)
	}
}

// patch installs the binding of one signal. Both endpoints must be valid handlers
// declaring the named ports.
func (m *Manager) patch(ctx context.Context, st *signalState) {
	err := m.bind(st)
	st.err = err
	st.patched = err == nil
	if err != nil {
		m.logger.Warn("signal not patched", "signal", st.def.Key().String(), "error", err)
	} else {
		m.logger.Debug("signal patched", "signal", st.def.Key().String(), "kind", st.def.Kind)
	}
	m.emitSignal(ctx, st)
}

func (m *Manager) bind(st *signalState) error {
	def := st.def
	src := m.handlerFor(def.Source)
	dst := m.handlerFor(def.Target)
	if src == nil || !src.Valid() || dst == nil || !dst.Valid() {
		return fmt.Errorf("%w: %s", domain.ErrEndpointInvalid, def.Key())
	}
	if !src.Spec().HasOutput(def.Kind, def.SourceSig) {
		return fmt.Errorf("%w: %s output %q on %s", domain.ErrPortNotFound, def.Kind, def.SourceSig, def.Source)
	}
	if !dst.Spec().HasInput(def.Kind, def.TargetSig) {
		return fmt.Errorf("%w: %s input %q on %s", domain.ErrPortNotFound, def.Kind, def.TargetSig, def.Target)
	}

	key := def.Key()
	switch def.Kind {
	case domain.SignalData:
		// Pull: the target's input slot runs the source's output.
		fn, ok := src.dataOutput(def.SourceSig)
		if !ok {
			return fmt.Errorf("%w: data output %q on %s", domain.ErrPortNotFound, def.SourceSig, def.Source)
		}
		if err := dst.Ports().BindData(def.TargetSig, key, fn); err != nil {
			return err
		}
		st.owner = dst.Ports()
	case domain.SignalExec:
		// Push: the source's output slot runs the target's input.
		fn, ok := dst.execInput(def.TargetSig)
		if !ok {
			return fmt.Errorf("%w: exec input %q on %s", domain.ErrPortNotFound, def.TargetSig, def.Target)
		}
		if err := src.Ports().BindExec(def.SourceSig, key, fn); err != nil {
			return err
		}
		st.owner = src.Ports()
	default:
		return fmt.Errorf("unknown signal kind %q", def.Kind)
	}
	return nil
}

func (m *Manager) unpatch(ctx context.Context, st *signalState) {
	if !st.patched {
		return
	}
	if st.owner != nil {
		key := st.def.Key()
		switch st.def.Kind {
		case domain.SignalData:
			st.owner.UnbindData(st.def.TargetSig, key)
		case domain.SignalExec:
			st.owner.UnbindExec(st.def.SourceSig, key)
		}
	}
	st.owner = nil
	st.patched = false
	m.logger.Debug("signal unpatched", "signal", st.def.Key().String())
	m.emitSignal(ctx, st)
}

// patchNode re-patches every paired signal touching guid against the current instances.
func (m *Manager) patchNode(ctx context.Context, guid string) {
	for _, st := range m.sortedSignals() {
		if !st.paired || (st.def.Source != guid && st.def.Target != guid) {
			continue
		}
		m.unpatch(ctx, st)
		m.patch(ctx, st)
	}
}

func (m *Manager) unpatchNode(ctx context.Context, guid string) {
	for _, st := range m.sortedSignals() {
		if st.def.Source == guid || st.def.Target == guid {
			m.unpatch(ctx, st)
		}
	}
}

// resolveEntry binds the declared entry: an exec output of that name is fired,
// otherwise an exec input of that name is called.
func (m *Manager) resolveEntry() {
	if m.project == nil {
		return
	}
	ref := m.project.Entry
	if ref.IsZero() {
		m.warnEntry("none", "project declares no entry point")
		return
	}
	h := m.handlerFor(ref.GUID)
	if h == nil || !h.Valid() {
		m.warnEntry("node:"+ref.GUID, "entry node unavailable, execution skipped", "guid", ref.GUID)
		return
	}

	b := &entryBinding{ref: ref, owner: h}
	spec := h.Spec()
	switch {
	case spec.HasOutput(domain.SignalExec, ref.SigName):
		b.mode = entryFire
		b.call = h.execOutput(ref.SigName)
	case spec.HasInput(domain.SignalExec, ref.SigName):
		fn, ok := h.execInput(ref.SigName)
		if !ok {
			m.warnEntry("port:"+ref.GUID+"."+ref.SigName, "entry port unavailable, execution skipped", "guid", ref.GUID, "port", ref.SigName)
			return
		}
		b.mode = entryCall
		b.call = fn
	default:
		m.warnEntry("port:"+ref.GUID+"."+ref.SigName, "entry port not declared, execution skipped", "guid", ref.GUID, "port", ref.SigName)
		return
	}
	m.entry = b
	m.lastWarn = ""
	logging.Success(m.logger, "entry point resolved", "guid", ref.GUID, "port", ref.SigName, "mode", b.mode)
}

func (m *Manager) warnEntry(cause, msg string, args ...any) {
	if m.lastWarn == cause {
		return
	}
	m.lastWarn = cause
	m.logger.Warn(msg, args...)
}

func (m *Manager) clearEntry() {
	m.entry = nil
}

// invokeEntry runs the cascade. A fault disables the innermost faulting node.
func (m *Manager) invokeEntry(ctx context.Context) bool {
	b := m.entry
	if b == nil {
		return false
	}
	if !b.owner.Valid() {
		m.clearEntry()
		m.warnEntry("invalid:"+b.ref.GUID, "entry node invalid, execution halted", "guid", b.ref.GUID)
		return false
	}

	m.calls = cascade{}
	err := b.call()
	if err == nil {
		return true
	}

	culprit := b.owner
	if f, ok := domain.AsFault(err); ok {
		if h := m.handlerFor(f.GUID); h != nil {
			culprit = h
		}
	}
	m.lastFault = err.Error()
	m.logger.Error("execution fault, node disabled", "node", culprit.def.Name, "guid", culprit.def.GUID, "error", err)
	culprit.Invalidate(err)
	m.unpatchNode(ctx, culprit.def.GUID)
	m.emitFault(ctx, culprit.def, err)
	if culprit == b.owner {
		m.clearEntry()
		m.warnEntry("invalid:"+b.ref.GUID, "entry node invalid, execution halted", "guid", b.ref.GUID)
	}
	return true
}

// Checkpoint saves the state of every valid node to the snapshot store.
func (m *Manager) Checkpoint(ctx context.Context) error {
	if m.cfg.Snapshots == nil {
		return nil
	}
	if m.cfg.Locker != nil {
		name := m.cfg.Projects.Source()
		if m.project != nil && m.project.Name != "" {
			name = m.project.Name
		}
		unlock, err := m.cfg.Locker.Lock(ctx, "checkpoint:"+name, 30*time.Second)
		if err != nil {
			return fmt.Errorf("checkpoint lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("checkpoint unlock failed", "error", err)
			}
		}()
	}

	var errs []error
	saved := 0
	for _, def := range m.sortedDefs() {
		h := m.handlers[def]
		if !h.Valid() {
			continue
		}
		snap := h.Snapshot()
		if snap == nil {
			continue
		}
		if err := m.cfg.Snapshots.Save(ctx, def.GUID, snap); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", def.GUID, err))
			continue
		}
		saved++
	}
	m.logger.Info("checkpoint written", "nodes", saved)
	return errors.Join(errs...)
}

// Close tears down every node and releases every code unit and the project loader.
func (m *Manager) Close() error {
	for _, def := range m.sortedDefs() {
		m.handlers[def].Teardown()
	}
	m.handlers = make(map[domain.NodeDefinition]*Handler)
	m.entry = nil

	var errs []error
	for module, ref := range m.units {
		errs = append(errs, ref.watcher.Close())
		delete(m.units, module)
	}
	if c, ok := m.cfg.Projects.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	m.publish()
	return errors.Join(errs...)
}

// NodeState returns the state a node would carry into its next instance.
func (m *Manager) NodeState(guid string) (*domain.Snapshot, bool) {
	h := m.handlerFor(guid)
	if h == nil {
		return nil, false
	}
	return h.Snapshot(), true
}

// Project returns the current project snapshot.
func (m *Manager) Project() *domain.Project {
	return m.project
}

func (m *Manager) handlerFor(guid string) *Handler {
	def, ok := m.byGUID[guid]
	if !ok {
		return nil
	}
	return m.handlers[def]
}

func (m *Manager) defsOf(module string) []domain.NodeDefinition {
	var defs []domain.NodeDefinition
	if m.project == nil {
		return defs
	}
	for _, def := range m.project.Nodes {
		if def.Module == module {
			defs = append(defs, def)
		}
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].GUID < defs[j].GUID })
	return defs
}

// currentDefs lists the definitions of the current project plus any handler
// left over from it, sorted by guid.
func (m *Manager) currentDefs() []domain.NodeDefinition {
	seen := make(map[domain.NodeDefinition]bool)
	var defs []domain.NodeDefinition
	if m.project != nil {
		for _, def := range m.project.Nodes {
			if !seen[def] {
				seen[def] = true
				defs = append(defs, def)
			}
		}
	}
	for def := range m.handlers {
		if !seen[def] {
			seen[def] = true
			defs = append(defs, def)
		}
	}
	sortDefs(defs)
	return defs
}

func sortDefs(defs []domain.NodeDefinition) {
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].GUID != defs[j].GUID {
			return defs[i].GUID < defs[j].GUID
		}
		return defs[i].Class < defs[j].Class
	})
}

func (m *Manager) sortedDefs() []domain.NodeDefinition {
	defs := make([]domain.NodeDefinition, 0, len(m.handlers))
	for def := range m.handlers {
		defs = append(defs, def)
	}
	sortDefs(defs)
	return defs
}

func (m *Manager) sortedSignals() []*signalState {
	out := make([]*signalState, 0, len(m.signals))
	for _, st := range m.signals {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].def.Key().Less(out[j].def.Key()) })
	return out
}

func (m *Manager) emitUnit(ctx context.Context, module string, removed bool, err error) {
	if m.cfg.Hooks.OnUnitLoad == nil {
		return
	}
	m.cfg.Hooks.OnUnitLoad(ctx, &domain.UnitEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventUnitLoad},
		Module:    module,
		Removed:   removed,
		Err:       err,
	})
}

func (m *Manager) emitFault(ctx context.Context, def domain.NodeDefinition, err error) {
	if m.cfg.Hooks.OnNodeFault == nil {
		return
	}
	ev := &domain.FaultEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventNodeFault},
		Node:      def,
		Err:       err,
	}
	if f, ok := domain.AsFault(err); ok {
		ev.Phase = f.Phase
	}
	m.cfg.Hooks.OnNodeFault(ctx, ev)
}

func (m *Manager) emitSignal(ctx context.Context, st *signalState) {
	if m.cfg.Hooks.OnSignalPatch == nil {
		return
	}
	m.cfg.Hooks.OnSignalPatch(ctx, &domain.SignalEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventSignalPatch},
		Signal:    st.def,
		Patched:   st.patched,
		Err:       st.err,
	})
}
