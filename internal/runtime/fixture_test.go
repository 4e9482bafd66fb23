package runtime_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/weft/internal/runtime"
	"github.com/aretw0/weft/pkg/adapters/memory"
	"github.com/aretw0/weft/pkg/adapters/native"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/node"
	"github.com/stretchr/testify/require"
)

// recorder counts calls per "guid.port" and keeps the last value pulled per data input.
type recorder struct {
	calls  map[string]int
	pulled map[string]any
	order  []string
}

func newRecorder() *recorder {
	return &recorder{calls: make(map[string]int), pulled: make(map[string]any)}
}

func (r *recorder) hit(key string) {
	r.calls[key]++
	r.order = append(r.order, key)
}

// probe is a configurable class: every exec input records the call, pulls every
// data input, then fires every exec output. Data outputs return the call count.
type probe struct {
	name      string
	spec      node.Spec
	rec       *recorder
	newErr    error
	initErr   error
	execErr   map[string]error
	execPanic string
}

func (p *probe) Name() string    { return p.name }
func (p *probe) Spec() node.Spec { return p.spec }

func (p *probe) New(env node.Env) (node.Instance, error) {
	if p.newErr != nil {
		return nil, p.newErr
	}
	inst := &probeNode{class: p, env: env}
	for _, in := range p.spec.ExecInputs {
		inst.Input(in, func() error {
			key := env.GUID + "." + in
			p.rec.hit(key)
			if in == p.execPanic {
				panic("probe exploded")
			}
			if err := p.execErr[in]; err != nil {
				return err
			}
			inst.count++
			for _, d := range p.spec.DataInputs {
				v, err := env.Ports.Pull(d)
				if err != nil {
					return err
				}
				p.rec.pulled[env.GUID+"."+d] = v
			}
			for _, out := range p.spec.ExecOutputs {
				if err := env.Ports.Fire(out); err != nil {
					return err
				}
			}
			return nil
		})
	}
	for _, out := range p.spec.DataOutputs {
		inst.Output(out, func() (any, error) {
			p.rec.hit(env.GUID + "." + out)
			return inst.count, nil
		})
	}
	return inst, nil
}

type probeNode struct {
	node.Base
	class *probe
	env   node.Env
	count int
}

func (n *probeNode) Init() error {
	n.class.rec.hit(n.env.GUID + ".init")
	return n.class.initErr
}

func (n *probeNode) GetState() (map[string]any, error) {
	return map[string]any{"count": n.count}, nil
}

func (n *probeNode) SetState(data map[string]any) error {
	switch v := data["count"].(type) {
	case int:
		n.count = v
	case float64:
		n.count = int(v)
	default:
		return fmt.Errorf("bad count %v", data["count"])
	}
	return nil
}

type harness struct {
	t        *testing.T
	reg      *native.Registry
	projects *memory.Loader
	rec      *recorder
	mgr      *runtime.Manager
	store    *memory.Store
	faults   []*domain.FaultEvent
	patches  []*domain.SignalEvent
}

func newHarness(t *testing.T, project *domain.Project) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		reg:      native.NewRegistry(),
		projects: memory.NewLoader(project),
		rec:      newRecorder(),
		store:    memory.NewStore(),
	}
	return h
}

// start builds the manager once all modules are registered.
func (h *harness) start() *harness {
	h.t.Helper()
	mgr, err := runtime.NewManager(runtime.Config{
		Projects:  h.projects,
		Units:     h.reg,
		Frame:     domain.NewFrameContext(320, 240),
		Snapshots: h.store,
		Hooks: domain.LifecycleHooks{
			OnNodeFault:   func(_ context.Context, e *domain.FaultEvent) { h.faults = append(h.faults, e) },
			OnSignalPatch: func(_ context.Context, e *domain.SignalEvent) { h.patches = append(h.patches, e) },
		},
	})
	require.NoError(h.t, err)
	require.NoError(h.t, mgr.Start(context.Background()))
	h.mgr = mgr
	h.t.Cleanup(func() { _ = mgr.Close() })
	return h
}

func (h *harness) tick() {
	h.t.Helper()
	require.NoError(h.t, h.mgr.Tick(context.Background()))
}

func (h *harness) probe(name string, spec node.Spec) *probe {
	return &probe{name: name, spec: spec, rec: h.rec, execErr: map[string]error{}}
}

func (h *harness) node(guid string) domain.NodeStatus {
	h.t.Helper()
	st, ok := h.mgr.Status().NodeByGUID(guid)
	require.True(h.t, ok, "node %s not in status", guid)
	return st
}

func (h *harness) signal(key domain.SignalKey) domain.SignalStatus {
	h.t.Helper()
	for _, s := range h.mgr.Status().Signals {
		if s.Signal.Key() == key {
			return s
		}
	}
	h.t.Fatalf("signal %s not in status", key)
	return domain.SignalStatus{}
}

func execSig(src, out, dst, in string) domain.SignalDefinition {
	return domain.SignalDefinition{Source: src, SourceSig: out, Target: dst, TargetSig: in, Kind: domain.SignalExec}
}

func dataSig(src, out, dst, in string) domain.SignalDefinition {
	return domain.SignalDefinition{Source: src, SourceSig: out, Target: dst, TargetSig: in, Kind: domain.SignalData}
}

func def(guid, name, module, class string) domain.NodeDefinition {
	return domain.NodeDefinition{GUID: guid, Name: name, Module: module, Class: class}
}

var (
	sourceSpec  = node.Spec{ExecOutputs: []string{"out"}}
	printerSpec = node.Spec{ExecInputs: []string{"in"}}
	relaySpec   = node.Spec{ExecInputs: []string{"in"}, ExecOutputs: []string{"out"}}
)

// pairProject is the two node project A(out) -> B(in) with entry A.out.
func pairProject() *domain.Project {
	return &domain.Project{
		Name: "pair",
		Nodes: []domain.NodeDefinition{
			def("1", "A", "m1", "Add"),
			def("2", "B", "m2", "Printer"),
		},
		Signals: []domain.SignalDefinition{execSig("1", "out", "2", "in")},
		Entry:   domain.EntryRef{GUID: "1", SigName: "out"},
	}
}
