// Package stdnodes holds the built-in node classes.
//
// They are served by a native registry, usually mounted under the "std"
// scheme, so a project refers to them as "std:clock", "std:counter" and
// "std:print".
package stdnodes

import (
	"fmt"
	"io"
	"os"

	"github.com/aretw0/weft/pkg/adapters/native"
	"github.com/aretw0/weft/pkg/node"
)

// Scheme is the router prefix the built-ins are usually mounted under.
const Scheme = "std"

// NewRegistry registers every built-in class. Printer writes to out,
// or stdout when out is nil.
func NewRegistry(out io.Writer) *native.Registry {
	if out == nil {
		out = os.Stdout
	}
	reg := native.NewRegistry()
	reg.Register("clock", Clock())
	reg.Register("counter", Counter())
	reg.Register("print", Printer(out))
	return reg
}

// Clock exposes the frame context. Its tick output is meant to be the entry.
func Clock() node.Class {
	spec := node.Spec{
		DataOutputs: []string{"time", "delta", "frame"},
		ExecOutputs: []string{"tick"},
	}
	return node.NewClass("Clock", spec, func(env node.Env) (node.Instance, error) {
		inst := &node.Base{}
		inst.Output("time", func() (any, error) { return env.Frame.Time, nil })
		inst.Output("delta", func() (any, error) { return env.Frame.DeltaTime, nil })
		inst.Output("frame", func() (any, error) { return env.Frame.Frame, nil })
		return inst, nil
	})
}

type counter struct {
	node.Base
	count float64
}

func (c *counter) GetState() (map[string]any, error) {
	return map[string]any{"count": c.count}, nil
}

func (c *counter) SetState(data map[string]any) error {
	v, ok := data["count"]
	if !ok {
		return nil
	}
	n, err := number(v)
	if err != nil {
		return fmt.Errorf("count: %w", err)
	}
	c.count = n
	return nil
}

// Counter adds its step input (1 when unbound) on every inc, then fires done.
func Counter() node.Class {
	spec := node.Spec{
		DataInputs:  []string{"step"},
		DataOutputs: []string{"count"},
		ExecInputs:  []string{"inc"},
		ExecOutputs: []string{"done"},
	}
	return node.NewClass("Counter", spec, func(env node.Env) (node.Instance, error) {
		c := &counter{}
		c.Output("count", func() (any, error) { return c.count, nil })
		c.Input("inc", func() error {
			step := 1.0
			v, err := env.Ports.Pull("step")
			if err != nil {
				return err
			}
			if v != nil {
				if step, err = number(v); err != nil {
					return fmt.Errorf("step: %w", err)
				}
			}
			c.count += step
			return env.Ports.Fire("done")
		})
		return c, nil
	})
}

// Printer writes its value input on every in.
func Printer(out io.Writer) node.Class {
	spec := node.Spec{
		DataInputs: []string{"value"},
		ExecInputs: []string{"in"},
	}
	return node.NewClass("Printer", spec, func(env node.Env) (node.Instance, error) {
		inst := &node.Base{}
		inst.Input("in", func() error {
			v, err := env.Ports.Pull("value")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "[%s] %v\n", env.GUID, v)
			return err
		})
		return inst, nil
	})
}

func number(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}
