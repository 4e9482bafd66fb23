package lua

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/mitchellh/mapstructure"
	lua "github.com/yuin/gopher-lua"

	"github.com/aretw0/weft/pkg/node"
)

// reserved names are installed on every instance and cannot be ports.
var reserved = map[string]bool{
	"new": true, "init": true, "getState": true, "setState": true,
	"pull": true, "fire": true, "frame": true, "log": true,
	"inputs": true, "outputs": true, "name": true,
}

type unit struct {
	L       *lua.LState
	module  string
	classes map[string]*class
	logger  *slog.Logger
}

type portDecl struct {
	Data []string `mapstructure:"data"`
	Exec []string `mapstructure:"exec"`
}

func (u *unit) exec(root, path string) error {
	pkgPath := filepath.ToSlash(filepath.Join(root, "?.lua"))
	if err := u.L.DoString(fmt.Sprintf("package.path = %q .. ';' .. package.path", pkgPath)); err != nil {
		return fmt.Errorf("configure package.path: %w", err)
	}
	if err := u.L.DoFile(path); err != nil {
		return fmt.Errorf("run %s: %w", path, err)
	}
	ret := u.L.Get(-1)
	u.L.Pop(1)

	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return fmt.Errorf("%s must return a table of classes, got %s", path, ret.Type())
	}

	var errs []error
	tbl.ForEach(func(k, v lua.LValue) {
		ct, ok := v.(*lua.LTable)
		if !ok {
			return
		}
		name := k.String()
		if n, ok := ct.RawGetString("name").(lua.LString); ok && n != "" {
			name = string(n)
		}
		c, err := u.newClass(name, ct)
		if err != nil {
			errs = append(errs, err)
			return
		}
		u.classes[name] = c
	})
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func (u *unit) newClass(name string, tbl *lua.LTable) (*class, error) {
	var in, out portDecl
	if err := decodePorts(tbl.RawGetString("inputs"), &in); err != nil {
		return nil, fmt.Errorf("class %s inputs: %w", name, err)
	}
	if err := decodePorts(tbl.RawGetString("outputs"), &out); err != nil {
		return nil, fmt.Errorf("class %s outputs: %w", name, err)
	}
	return &class{
		unit:  u,
		name:  name,
		table: tbl,
		spec: node.Spec{
			DataInputs:  in.Data,
			DataOutputs: out.Data,
			ExecInputs:  in.Exec,
			ExecOutputs: out.Exec,
		},
	}, nil
}

func decodePorts(lv lua.LValue, into *portDecl) error {
	if lv == lua.LNil {
		return nil
	}
	raw := toGo(lv)
	// An empty Lua table converts to an empty map, which is fine.
	return mapstructure.Decode(raw, into)
}

func (u *unit) Class(name string) (node.Class, bool) {
	c, ok := u.classes[name]
	if !ok {
		return nil, false
	}
	return c, true
}

func (u *unit) ClassNames() []string {
	names := make([]string, 0, len(u.classes))
	for n := range u.classes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (u *unit) Close() error {
	u.L.Close()
	return nil
}
