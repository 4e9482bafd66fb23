package node

import (
	"log/slog"

	"github.com/aretw0/weft/pkg/domain"
)

// DataFunc produces the value of a data output.
type DataFunc func() (any, error)

// ExecFunc runs an exec input.
type ExecFunc func() error

// Instance is a live node object.
type Instance interface {
	// Init runs once after every successful reload, once signals are patched.
	Init() error
	// GetState returns the serializable state carried to the next instance. Nil means no state.
	GetState() (map[string]any, error)
	// SetState restores state produced by a previous instance.
	SetState(data map[string]any) error
	// DataOutput returns the callable for a declared data output.
	DataOutput(name string) (DataFunc, bool)
	// ExecInput returns the callable for a declared exec input.
	ExecInput(name string) (ExecFunc, bool)
}

// Class builds instances and declares their ports.
type Class interface {
	Name() string
	Spec() Spec
	New(env Env) (Instance, error)
}

// Verifier is optionally implemented by classes that can check themselves before use.
type Verifier interface {
	Verify() error
}

// Env is handed to every new instance.
type Env struct {
	GUID   string
	Frame  *domain.FrameContext
	Ports  *Ports
	Logger *slog.Logger
}

// Unit is one loaded code unit exposing node classes by name.
type Unit interface {
	Class(name string) (Class, bool)
	ClassNames() []string
	Close() error
}
