package node

import "sort"

// Base is an embeddable helper for Go node implementations.
// Register callables with Output and Input; lifecycle methods default to no-ops.
type Base struct {
	outputs map[string]DataFunc
	inputs  map[string]ExecFunc
}

// Output registers a data output.
func (b *Base) Output(name string, fn DataFunc) {
	if b.outputs == nil {
		b.outputs = make(map[string]DataFunc)
	}
	b.outputs[name] = fn
}

// Input registers an exec input.
func (b *Base) Input(name string, fn ExecFunc) {
	if b.inputs == nil {
		b.inputs = make(map[string]ExecFunc)
	}
	b.inputs[name] = fn
}

func (b *Base) DataOutput(name string) (DataFunc, bool) {
	fn, ok := b.outputs[name]
	return fn, ok
}

func (b *Base) ExecInput(name string) (ExecFunc, bool) {
	fn, ok := b.inputs[name]
	return fn, ok
}

func (b *Base) Init() error { return nil }

func (b *Base) GetState() (map[string]any, error) { return nil, nil }

func (b *Base) SetState(map[string]any) error { return nil }

type funcClass struct {
	name string
	spec Spec
	ctor func(Env) (Instance, error)
}

// NewClass builds a Class from a constructor.
func NewClass(name string, spec Spec, ctor func(Env) (Instance, error)) Class {
	return &funcClass{name: name, spec: spec, ctor: ctor}
}

func (c *funcClass) Name() string { return c.name }

func (c *funcClass) Spec() Spec { return c.spec }

func (c *funcClass) New(env Env) (Instance, error) {
	return c.ctor(env)
}

// ClassSet is a static Unit.
type ClassSet map[string]Class

// NewUnit indexes classes by name.
func NewUnit(classes ...Class) ClassSet {
	set := make(ClassSet, len(classes))
	for _, c := range classes {
		if c != nil {
			set[c.Name()] = c
		}
	}
	return set
}

func (s ClassSet) Class(name string) (Class, bool) {
	c, ok := s[name]
	return c, ok
}

func (s ClassSet) ClassNames() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s ClassSet) Close() error { return nil }
