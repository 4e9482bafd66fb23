package lua

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/aretw0/weft/pkg/node"
)

type class struct {
	unit  *unit
	name  string
	table *lua.LTable
	spec  node.Spec
}

func (c *class) Name() string { return c.name }

func (c *class) Spec() node.Spec { return c.spec }

// Verify checks that every callable port has a method and no port shadows a helper.
func (c *class) Verify() error {
	check := func(kind string, names []string, needMethod bool) error {
		for _, n := range names {
			if reserved[n] {
				return fmt.Errorf("%s %q uses a reserved name", kind, n)
			}
			if needMethod && c.table.RawGetString(n).Type() != lua.LTFunction {
				return fmt.Errorf("%s %q has no method", kind, n)
			}
		}
		return nil
	}
	return errors.Join(
		check("data input", c.spec.DataInputs, false),
		check("data output", c.spec.DataOutputs, true),
		check("exec input", c.spec.ExecInputs, true),
		check("exec output", c.spec.ExecOutputs, false),
	)
}

func (c *class) New(env node.Env) (node.Instance, error) {
	L := c.unit.L
	self := L.NewTable()
	mt := L.NewTable()
	mt.RawSetString("__index", c.table)
	L.SetMetatable(self, mt)

	inst := &instance{class: c, self: self, env: env}
	self.RawSetString("pull", L.NewFunction(inst.luaPull))
	self.RawSetString("fire", L.NewFunction(inst.luaFire))
	self.RawSetString("frame", L.NewFunction(inst.luaFrame))
	self.RawSetString("log", L.NewFunction(inst.luaLog))

	if _, err := inst.callOptional("new"); err != nil {
		return nil, err
	}
	return inst, nil
}

type instance struct {
	class *class
	self  *lua.LTable
	env   node.Env
}

// raised carries a runtime error through the Lua stack as userdata, so a
// fault raised by a helper keeps its identity only while it is the value
// that unwinds the script.
type raised struct{ err error }

func (i *instance) call(name string, args ...lua.LValue) (lua.LValue, error) {
	L := i.class.unit.L
	fn := L.GetField(i.self, name)
	if fn.Type() != lua.LTFunction {
		return lua.LNil, fmt.Errorf("%s has no method %q", i.class.name, name)
	}
	err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, append([]lua.LValue{i.self}, args...)...)
	if err != nil {
		if r := raisedBy(err); r != nil {
			return lua.LNil, r.err
		}
		return lua.LNil, fmt.Errorf("%s.%s: %w", i.class.name, name, err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

func (i *instance) callOptional(name string, args ...lua.LValue) (lua.LValue, error) {
	if L := i.class.unit.L; L.GetField(i.self, name).Type() != lua.LTFunction {
		return lua.LNil, nil
	}
	return i.call(name, args...)
}

func (i *instance) Init() error {
	_, err := i.callOptional("init")
	return err
}

func (i *instance) GetState() (map[string]any, error) {
	ret, err := i.callOptional("getState")
	if err != nil || ret == lua.LNil {
		return nil, err
	}
	m, ok := toGo(ret).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s.getState must return a table with string keys", i.class.name)
	}
	return m, nil
}

func (i *instance) SetState(data map[string]any) error {
	_, err := i.callOptional("setState", toLua(i.class.unit.L, data))
	return err
}

func (i *instance) DataOutput(name string) (node.DataFunc, bool) {
	if i.class.table.RawGetString(name).Type() != lua.LTFunction {
		return nil, false
	}
	return func() (any, error) {
		ret, err := i.call(name)
		if err != nil {
			return nil, err
		}
		return toGo(ret), nil
	}, true
}

func (i *instance) ExecInput(name string) (node.ExecFunc, bool) {
	if i.class.table.RawGetString(name).Type() != lua.LTFunction {
		return nil, false
	}
	return func() error {
		_, err := i.call(name)
		return err
	}, true
}

func (i *instance) raise(L *lua.LState, err error) int {
	ud := L.NewUserData()
	ud.Value = &raised{err: err}
	L.SetMetatable(ud, faultMeta(L))
	L.Error(ud, 1)
	return 0
}

// faultMeta lets scripts that catch a raised fault with pcall print it.
func faultMeta(L *lua.LState) *lua.LTable {
	mt := L.NewTypeMetatable("weft.fault")
	if mt.RawGetString("__tostring") == lua.LNil {
		L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
			if r, ok := L.CheckUserData(1).Value.(*raised); ok {
				L.Push(lua.LString(r.err.Error()))
				return 1
			}
			L.Push(lua.LString("fault"))
			return 1
		}))
	}
	return mt
}

func raisedBy(err error) *raised {
	var apiErr *lua.ApiError
	if !errors.As(err, &apiErr) {
		return nil
	}
	ud, ok := apiErr.Object.(*lua.LUserData)
	if !ok {
		return nil
	}
	r, _ := ud.Value.(*raised)
	return r
}

func (i *instance) luaPull(L *lua.LState) int {
	name := L.CheckString(2)
	v, err := i.env.Ports.Pull(name)
	if err != nil {
		return i.raise(L, err)
	}
	L.Push(toLua(L, v))
	return 1
}

func (i *instance) luaFire(L *lua.LState) int {
	name := L.CheckString(2)
	if err := i.env.Ports.Fire(name); err != nil {
		return i.raise(L, err)
	}
	return 0
}

func (i *instance) luaFrame(L *lua.LState) int {
	L.Push(toLua(L, i.env.Frame.Values()))
	return 1
}

func (i *instance) luaLog(L *lua.LState) int {
	msg := L.CheckString(2)
	if i.env.Logger != nil {
		i.env.Logger.Info(msg, "class", i.class.name)
	}
	return 0
}
