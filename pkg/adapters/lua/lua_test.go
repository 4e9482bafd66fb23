package lua_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/weft/internal/testutils"
	"github.com/aretw0/weft/pkg/adapters/lua"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const counterScript = `
local Counter = {
  inputs  = { data = { "step" }, exec = { "tick" } },
  outputs = { data = { "value" }, exec = { "done" } },
}

function Counter:init()
  self.count = self.count or 0
end

function Counter:tick()
  self.count = self.count + (self:pull("step") or 1)
  self:fire("done")
end

function Counter:value()
  return self.count
end

function Counter:getState()
  return { count = self.count }
end

function Counter:setState(s)
  self.count = s.count
end

return { Counter = Counter }
`

func writeScript(t *testing.T, root, rel, src string) string {
	t.Helper()
	return testutils.WriteFile(t, root, rel, src)
}

func instantiate(t *testing.T, u node.Unit, class string) (node.Instance, *node.Ports) {
	t.Helper()
	c, ok := u.Class(class)
	require.True(t, ok)
	require.NoError(t, node.Verify(c))
	p := node.NewPorts(c.Spec())
	inst, err := c.New(node.Env{GUID: "1", Frame: domain.NewFrameContext(640, 480), Ports: p})
	require.NoError(t, err)
	require.NoError(t, node.VerifyInstance(c.Spec(), inst))
	return inst, p
}

func TestLoader_Path(t *testing.T) {
	root := t.TempDir()
	l := lua.NewLoader(root)

	tests := []struct {
		module string
		want   string
		err    error
	}{
		{module: "fx.blur", want: filepath.Join(root, "fx", "blur.lua")},
		{module: "fx/blur", want: filepath.Join(root, "fx", "blur.lua")},
		{module: "fx/blur.lua", want: filepath.Join(root, "fx", "blur.lua")},
		{module: "top", want: filepath.Join(root, "top.lua")},
		{module: "../outside", err: domain.ErrUnitNotFound},
		{module: "", err: domain.ErrUnitNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			got, err := l.Path(tt.module)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoader_LoadClasses(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "count.lua", counterScript)

	u, err := lua.NewLoader(root).Load("count")
	require.NoError(t, err)
	defer u.Close()

	assert.Equal(t, []string{"Counter"}, u.ClassNames())
	c, ok := u.Class("Counter")
	require.True(t, ok)
	assert.Equal(t, node.Spec{
		DataInputs:  []string{"step"},
		DataOutputs: []string{"value"},
		ExecInputs:  []string{"tick"},
		ExecOutputs: []string{"done"},
	}, c.Spec())
}

func TestLoader_LoadFailures(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "syntax.lua", "return {")
	writeScript(t, root, "scalar.lua", "return 42")
	writeScript(t, root, "badports.lua", `return { X = { inputs = { data = "nope" } } }`)
	l := lua.NewLoader(root)

	_, err := l.Load("missing")
	assert.ErrorIs(t, err, domain.ErrUnitNotFound)

	for _, module := range []string{"syntax", "scalar", "badports"} {
		t.Run(module, func(t *testing.T) {
			u, err := l.Load(module)
			assert.Error(t, err)
			assert.Nil(t, u)
		})
	}
}

func TestClass_Verify(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "v.lua", `
local NoMethod = { outputs = { data = { "x" } } }
local Reserved = { inputs = { exec = { "init" } } }
function Reserved:init() end
local Fine = { inputs = { data = { "a" } }, outputs = { exec = { "go" } } }
return { NoMethod = NoMethod, Reserved = Reserved, Fine = Fine }
`)
	u, err := lua.NewLoader(root).Load("v")
	require.NoError(t, err)
	defer u.Close()

	for name, wantErr := range map[string]bool{"NoMethod": true, "Reserved": true, "Fine": false} {
		c, ok := u.Class(name)
		require.True(t, ok, name)
		err := node.Verify(c)
		if wantErr {
			assert.ErrorIs(t, err, domain.ErrCapability, name)
		} else {
			assert.NoError(t, err, name)
		}
	}
}

func TestInstance_PortsAndState(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "count.lua", counterScript)
	u, err := lua.NewLoader(root).Load("count")
	require.NoError(t, err)
	defer u.Close()

	inst, p := instantiate(t, u, "Counter")
	require.NoError(t, inst.Init())

	key := domain.SignalKey{Source: "0", Target: "1", SourceSig: "n", TargetSig: "step"}
	require.NoError(t, p.BindData("step", key, func() (any, error) { return 5, nil }))

	fired := 0
	doneKey := domain.SignalKey{Source: "1", Target: "2", SourceSig: "done", TargetSig: "in"}
	require.NoError(t, p.BindExec("done", doneKey, func() error { fired++; return nil }))

	tick, ok := inst.ExecInput("tick")
	require.True(t, ok)
	require.NoError(t, tick())
	require.NoError(t, tick())
	assert.Equal(t, 2, fired)

	value, ok := inst.DataOutput("value")
	require.True(t, ok)
	v, err := value()
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	state, err := inst.GetState()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"count": 10}, state)

	fresh, _ := instantiate(t, u, "Counter")
	require.NoError(t, fresh.SetState(map[string]any{"count": 3}))
	require.NoError(t, fresh.Init())
	out, _ := fresh.DataOutput("value")
	v, err = out()
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestInstance_DownstreamFaultPassesThrough(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "count.lua", counterScript)
	u, err := lua.NewLoader(root).Load("count")
	require.NoError(t, err)
	defer u.Close()

	inst, p := instantiate(t, u, "Counter")
	require.NoError(t, inst.Init())

	fault := &domain.NodeFault{GUID: "2", Port: "in", Phase: domain.PhaseExec, Err: errors.New("boom")}
	key := domain.SignalKey{Source: "1", Target: "2", SourceSig: "done", TargetSig: "in"}
	require.NoError(t, p.BindExec("done", key, func() error { return fault }))

	tick, _ := inst.ExecInput("tick")
	err = tick()
	require.Error(t, err)
	got, ok := domain.AsFault(err)
	require.True(t, ok)
	assert.Equal(t, "2", got.GUID)
}

func TestInstance_ScriptErrorSurfaces(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "bad.lua", `
local Bad = { inputs = { exec = { "run" } } }
function Bad:run() error("kaput") end
return { Bad = Bad }
`)
	u, err := lua.NewLoader(root).Load("bad")
	require.NoError(t, err)
	defer u.Close()

	inst, _ := instantiate(t, u, "Bad")
	run, _ := inst.ExecInput("run")
	err = run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaput")
	_, isFault := domain.AsFault(err)
	assert.False(t, isFault)
}

func TestInstance_CaughtFaultDoesNotShadowOwnError(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "guarded.lua", `
local Guarded = {
  inputs  = { exec = { "swallow", "rethrow", "describe" } },
  outputs = { exec = { "out" } },
}

function Guarded:swallow()
  pcall(function() self:fire("out") end)
  error("own bug")
end

function Guarded:rethrow()
  local ok, e = pcall(function() self:fire("out") end)
  if not ok then error(e) end
end

function Guarded:describe()
  local ok, e = pcall(function() self:fire("out") end)
  error("caught: " .. tostring(e))
end

return { Guarded = Guarded }
`)
	u, err := lua.NewLoader(root).Load("guarded")
	require.NoError(t, err)
	defer u.Close()

	inst, p := instantiate(t, u, "Guarded")
	fault := &domain.NodeFault{GUID: "2", Port: "in", Phase: domain.PhaseExec, Err: errors.New("boom")}
	key := domain.SignalKey{Source: "1", Target: "2", SourceSig: "out", TargetSig: "in"}
	require.NoError(t, p.BindExec("out", key, func() error { return fault }))

	tests := []struct {
		input     string
		wantFault bool
		contains  string
	}{
		{input: "swallow", contains: "own bug"},
		{input: "rethrow", wantFault: true},
		{input: "describe", contains: "caught: node 2"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			run, ok := inst.ExecInput(tt.input)
			require.True(t, ok)
			err := run()
			require.Error(t, err)
			got, isFault := domain.AsFault(err)
			assert.Equal(t, tt.wantFault, isFault)
			if tt.wantFault {
				assert.Equal(t, "2", got.GUID)
			}
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}

	// A later call with no fault in flight must not inherit the old one.
	run, _ := inst.ExecInput("swallow")
	_, isFault := domain.AsFault(run())
	assert.False(t, isFault)
}

func TestInstance_Frame(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "f.lua", `
local F = { outputs = { data = { "width" } } }
function F:width() return self:frame().width end
return { F = F }
`)
	u, err := lua.NewLoader(root).Load("f")
	require.NoError(t, err)
	defer u.Close()

	inst, _ := instantiate(t, u, "F")
	width, _ := inst.DataOutput("width")
	v, err := width()
	require.NoError(t, err)
	assert.Equal(t, 640, v)
}

func TestLoader_RequireFromRoot(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "helpers.lua", `return { twice = function(x) return x * 2 end }`)
	writeScript(t, root, "uses.lua", `
local h = require("helpers")
local U = { outputs = { data = { "v" } } }
function U:v() return h.twice(21) end
return { U = U }
`)
	u, err := lua.NewLoader(root).Load("uses")
	require.NoError(t, err)
	defer u.Close()

	inst, _ := instantiate(t, u, "U")
	v, _ := inst.DataOutput("v")
	got, err := v()
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestLoader_WatchFollowsOwnScriptOnly(t *testing.T) {
	root := t.TempDir()
	helpers := writeScript(t, root, "helpers.lua", `return { base = 1 }`)
	uses := writeScript(t, root, "uses.lua", `
local h = require("helpers")
local U = { outputs = { data = { "v" } } }
function U:v() return h.base end
return { U = U }
`)
	l := lua.NewLoader(root)
	w, err := l.Watch("uses")
	require.NoError(t, err)
	defer w.Close()

	_, changed := w.Poll()
	assert.False(t, changed)

	poll := func() bool { _, ok := w.Poll(); return ok }

	testutils.Rewrite(t, helpers, `return { base = 2 }`)
	assert.Never(t, poll, 200*time.Millisecond, 20*time.Millisecond, "required modules are not watched")

	testutils.Rewrite(t, uses, `
local h = require("helpers")
local U = { outputs = { data = { "v" } } }
function U:v() return h.base * 10 end
return { U = U }
`)
	require.Eventually(t, poll, 5*time.Second, 20*time.Millisecond)

	u, err := l.Load("uses")
	require.NoError(t, err)
	defer u.Close()
	inst, _ := instantiate(t, u, "U")
	v, _ := inst.DataOutput("v")
	got, err := v()
	require.NoError(t, err)
	assert.Equal(t, 20, got, "a reload picks up the required module's edit too")
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "a.lua", "return {}")
	writeScript(t, root, "fx/blur.lua", "return {}")
	writeScript(t, root, "fx/deep/glow.lua", "return {}")
	writeScript(t, root, "notes.txt", "")

	modules, err := lua.Discover(root)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "fx.blur", "fx.deep.glow"}, modules)
}
