package node

import (
	"fmt"
	"slices"

	"github.com/aretw0/weft/pkg/domain"
)

// Spec declares the named ports of a class.
type Spec struct {
	DataInputs  []string `mapstructure:"data_inputs" json:"data_inputs,omitempty"`
	DataOutputs []string `mapstructure:"data_outputs" json:"data_outputs,omitempty"`
	ExecInputs  []string `mapstructure:"exec_inputs" json:"exec_inputs,omitempty"`
	ExecOutputs []string `mapstructure:"exec_outputs" json:"exec_outputs,omitempty"`
}

// HasInput reports whether s declares an input of the given kind.
func (s Spec) HasInput(kind domain.SignalKind, name string) bool {
	switch kind {
	case domain.SignalData:
		return slices.Contains(s.DataInputs, name)
	case domain.SignalExec:
		return slices.Contains(s.ExecInputs, name)
	}
	return false
}

// HasOutput reports whether s declares an output of the given kind.
func (s Spec) HasOutput(kind domain.SignalKind, name string) bool {
	switch kind {
	case domain.SignalData:
		return slices.Contains(s.DataOutputs, name)
	case domain.SignalExec:
		return slices.Contains(s.ExecOutputs, name)
	}
	return false
}

// Validate checks that port names are non-empty and unique within each list.
func (s Spec) Validate() error {
	lists := []struct {
		what  string
		names []string
	}{
		{"data input", s.DataInputs},
		{"data output", s.DataOutputs},
		{"exec input", s.ExecInputs},
		{"exec output", s.ExecOutputs},
	}
	for _, l := range lists {
		seen := make(map[string]bool, len(l.names))
		for _, n := range l.names {
			if n == "" {
				return fmt.Errorf("%w: empty %s name", domain.ErrCapability, l.what)
			}
			if seen[n] {
				return fmt.Errorf("%w: duplicate %s %q", domain.ErrCapability, l.what, n)
			}
			seen[n] = true
		}
	}
	return nil
}

// Verify checks that a class satisfies the capability set before it is bound.
func Verify(c Class) error {
	if c == nil {
		return fmt.Errorf("%w: nil class", domain.ErrCapability)
	}
	if c.Name() == "" {
		return fmt.Errorf("%w: class has no name", domain.ErrCapability)
	}
	if err := c.Spec().Validate(); err != nil {
		return fmt.Errorf("class %s: %w", c.Name(), err)
	}
	if v, ok := c.(Verifier); ok {
		if err := v.Verify(); err != nil {
			return fmt.Errorf("%w: class %s: %v", domain.ErrCapability, c.Name(), err)
		}
	}
	return nil
}

// VerifyInstance checks that inst provides every callable its spec promises.
func VerifyInstance(spec Spec, inst Instance) error {
	if inst == nil {
		return fmt.Errorf("%w: constructor returned nil", domain.ErrCapability)
	}
	for _, name := range spec.DataOutputs {
		if fn, ok := inst.DataOutput(name); !ok || fn == nil {
			return fmt.Errorf("%w: missing data output %q", domain.ErrCapability, name)
		}
	}
	for _, name := range spec.ExecInputs {
		if fn, ok := inst.ExecInput(name); !ok || fn == nil {
			return fmt.Errorf("%w: missing exec input %q", domain.ErrCapability, name)
		}
	}
	return nil
}
