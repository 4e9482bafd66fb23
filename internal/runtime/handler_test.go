package runtime

import (
	"errors"
	"testing"

	"github.com/aretw0/weft/internal/codeunit"
	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/pkg/adapters/native"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterNode struct {
	node.Base
	count    int
	inits    *int
	getErr   error
	setErr   error
	setPanic bool
}

func (c *counterNode) Init() error {
	*c.inits++
	return nil
}

func (c *counterNode) GetState() (map[string]any, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return map[string]any{"count": c.count}, nil
}

func (c *counterNode) SetState(data map[string]any) error {
	if c.setPanic {
		panic("corrupt state")
	}
	if c.setErr != nil {
		return c.setErr
	}
	c.count = data["count"].(int)
	return nil
}

type counterOpts struct {
	getErr        error
	setErr        error
	setPanic      bool
	ctorPanic     bool
	missingOutput bool
}

func counterClass(inits *int, opts counterOpts) node.Class {
	spec := node.Spec{DataOutputs: []string{"count"}, ExecInputs: []string{"inc"}}
	return node.NewClass("Counter", spec, func(env node.Env) (node.Instance, error) {
		if opts.ctorPanic {
			panic("constructor exploded")
		}
		c := &counterNode{inits: inits, getErr: opts.getErr, setErr: opts.setErr, setPanic: opts.setPanic}
		if !opts.missingOutput {
			c.Output("count", func() (any, error) { return c.count, nil })
		}
		c.Input("inc", func() error { c.count++; return nil })
		return c, nil
	})
}

func newTestHandler(t *testing.T, reg *native.Registry) *Handler {
	t.Helper()
	w := codeunit.New("m", reg, nil)
	require.NoError(t, w.Load())
	def := domain.NodeDefinition{GUID: "1", Name: "counter", Module: "m", Class: "Counter"}
	return newHandler(def, w, domain.NewFrameContext(1, 1), logging.NewNop(), nil)
}

func inc(t *testing.T, h *Handler, n int) {
	t.Helper()
	fn, ok := h.execInput("inc")
	require.True(t, ok)
	for i := 0; i < n; i++ {
		require.NoError(t, fn())
	}
}

func reloadUnit(t *testing.T, reg *native.Registry, h *Handler, class node.Class) {
	t.Helper()
	reg.Register("m", class)
	require.Equal(t, codeunit.ChangeReloaded, h.watcher.Poll())
}

func TestHandler_ReloadIsIdempotentForState(t *testing.T) {
	inits := 0
	reg := native.NewRegistry()
	reg.Register("m", counterClass(&inits, counterOpts{}))
	h := newTestHandler(t, reg)

	require.NoError(t, h.Reload())
	require.NoError(t, h.RunInit())
	inc(t, h, 3)
	before := h.Snapshot()

	reloadUnit(t, reg, h, counterClass(&inits, counterOpts{}))
	require.NoError(t, h.Reload())
	assert.Equal(t, before, h.Snapshot())
	assert.True(t, h.Valid())
	assert.False(t, h.Inited())
}

func TestHandler_RunInitOncePerReload(t *testing.T) {
	inits := 0
	reg := native.NewRegistry()
	reg.Register("m", counterClass(&inits, counterOpts{}))
	h := newTestHandler(t, reg)

	assert.NoError(t, h.RunInit(), "no instance yet, nothing to run")
	assert.Equal(t, 0, inits)

	require.NoError(t, h.Reload())
	require.NoError(t, h.RunInit())
	require.NoError(t, h.RunInit())
	assert.Equal(t, 1, inits)

	require.NoError(t, h.Reload())
	require.NoError(t, h.RunInit())
	assert.Equal(t, 2, inits)
}

func TestHandler_FailedReloadCarriesState(t *testing.T) {
	inits := 0
	reg := native.NewRegistry()
	reg.Register("m", counterClass(&inits, counterOpts{}))
	h := newTestHandler(t, reg)
	require.NoError(t, h.Reload())
	inc(t, h, 2)

	tests := []struct {
		name  string
		opts  counterOpts
		phase domain.Phase
	}{
		{"constructor panic", counterOpts{ctorPanic: true}, domain.PhaseConstruct},
		{"missing output", counterOpts{missingOutput: true}, domain.PhaseConstruct},
		{"setState error", counterOpts{setErr: errors.New("schema changed")}, domain.PhaseState},
		{"setState panic", counterOpts{setPanic: true}, domain.PhaseState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reloadUnit(t, reg, h, counterClass(&inits, tt.opts))
			err := h.Reload()
			require.Error(t, err)
			f, ok := domain.AsFault(err)
			require.True(t, ok)
			assert.Equal(t, tt.phase, f.Phase)
			assert.False(t, h.Valid())
			assert.Equal(t, 2, h.Snapshot().Data["count"], "state carried across the failure")
		})
	}

	reloadUnit(t, reg, h, counterClass(&inits, counterOpts{}))
	require.NoError(t, h.Reload())
	assert.True(t, h.Valid())
	assert.Equal(t, 2, h.Snapshot().Data["count"])
}

func TestHandler_GetStateFaultIsTolerated(t *testing.T) {
	inits := 0
	reg := native.NewRegistry()
	reg.Register("m", counterClass(&inits, counterOpts{getErr: errors.New("nope")}))
	h := newTestHandler(t, reg)
	require.NoError(t, h.Reload())

	reloadUnit(t, reg, h, counterClass(&inits, counterOpts{}))
	require.NoError(t, h.Reload())
	assert.Equal(t, 0, h.Snapshot().Data["count"])
}

func TestHandler_UnknownClass(t *testing.T) {
	reg := native.NewRegistry()
	reg.Register("m", node.NewClass("Other", node.Spec{}, func(node.Env) (node.Instance, error) { return &node.Base{}, nil }))
	h := newTestHandler(t, reg)

	err := h.Reload()
	assert.ErrorIs(t, err, domain.ErrClassNotFound)
	assert.False(t, h.Valid())
	assert.Equal(t, "1", h.status().Node.GUID)
	assert.NotEmpty(t, h.status().Error)
}

func TestGuard_AttributesInnermostFault(t *testing.T) {
	inner := guard("3", domain.PhaseExec, "in", func() error { return errors.New("boom") })
	outer := guard("1", domain.PhaseExec, "out", func() error { return fmtWrap(inner) })

	f, ok := domain.AsFault(outer)
	require.True(t, ok)
	assert.Equal(t, "3", f.GUID)

	panicked := guard("2", domain.PhaseExec, "in", func() error { panic("x") })
	f, ok = domain.AsFault(panicked)
	require.True(t, ok)
	assert.Equal(t, "2", f.GUID)
	var pe *domain.PanicError
	assert.ErrorAs(t, panicked, &pe)

	assert.NoError(t, guard("1", domain.PhaseExec, "", func() error { return nil }))
}

func fmtWrap(err error) error {
	return errors.Join(errors.New("relay failed"), err)
}
