package domain

import (
	"errors"
	"fmt"
)

// Structural errors. These are the only errors allowed to reach the host.
var (
	// ErrProjectUnreadable is returned when the project description cannot be parsed.
	ErrProjectUnreadable = errors.New("project description unreadable")
	// ErrDuplicateGUID is returned when two node definitions share a guid.
	ErrDuplicateGUID = errors.New("duplicate node guid")
)

// Load errors.
var (
	// ErrUnitNotFound is returned when a code unit does not exist at its path.
	ErrUnitNotFound = errors.New("code unit not found")
	// ErrUnitInvalid is returned when a class is requested from a unit that never loaded.
	ErrUnitInvalid = errors.New("code unit invalid")
	// ErrNoClasses is returned when a unit loads but exposes no node classes.
	ErrNoClasses = errors.New("code unit exposes no node classes")
	// ErrClassNotFound is returned when a unit has no class with the requested name.
	ErrClassNotFound = errors.New("node class not found")
)

// Construction and wiring errors.
var (
	// ErrCapability is returned when a class or instance does not satisfy the node capability set.
	ErrCapability = errors.New("class does not satisfy node capability set")
	// ErrNodeInvalid is returned when an operation needs a valid node handler.
	ErrNodeInvalid = errors.New("node invalid")
	// ErrPortNotFound is returned when a signal or entry names a port the class does not declare.
	ErrPortNotFound = errors.New("port not found")
	// ErrEndpointInvalid is returned when a signal endpoint handler is missing or invalid.
	ErrEndpointInvalid = errors.New("signal endpoint invalid")
	// ErrUnresolvedEndpoint is returned when a signal references a guid absent from the project.
	ErrUnresolvedEndpoint = errors.New("signal endpoint unresolved")
	// ErrSlotOccupied is returned when a data input is already fed by another signal.
	ErrSlotOccupied = errors.New("data input already bound")
	// ErrEntryUnresolved is returned when the declared entry cannot be bound.
	ErrEntryUnresolved = errors.New("entry point unresolved")
)

// ErrCascadeDepth is returned when one tick nests more node calls than the runtime allows,
// which only happens when exec or data signals form a cycle.
var ErrCascadeDepth = errors.New("cascade too deep, signals form a cycle")

// ErrSnapshotNotFound is returned by snapshot stores for unknown guids.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Phase tells in which part of a node's life a fault happened.
type Phase string

const (
	PhaseConstruct Phase = "construct"
	PhaseState     Phase = "state"
	PhaseInit      Phase = "init"
	PhaseExec      Phase = "exec"
)

// NodeFault attributes an error to the node that raised it.
type NodeFault struct {
	GUID  string
	Port  string
	Phase Phase
	Err   error
}

func (f *NodeFault) Error() string {
	if f.Port != "" {
		return fmt.Sprintf("node %s: %s %s: %v", f.GUID, f.Phase, f.Port, f.Err)
	}
	return fmt.Sprintf("node %s: %s: %v", f.GUID, f.Phase, f.Err)
}

func (f *NodeFault) Unwrap() error {
	return f.Err
}

// AsFault extracts the innermost-attributed fault from err, if any.
func AsFault(err error) (*NodeFault, bool) {
	var f *NodeFault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// PanicError carries a recovered panic value.
type PanicError struct {
	Value any
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", p.Value)
}
