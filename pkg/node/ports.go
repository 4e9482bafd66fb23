package node

import (
	"fmt"
	"sort"

	"github.com/aretw0/weft/pkg/domain"
)

type dataSlot struct {
	key domain.SignalKey
	fn  DataFunc
}

// Ports is the per-node slot table. Data inputs hold at most one binding;
// exec outputs fan out to every bound target in signal key order.
// It is not safe for concurrent use.
type Ports struct {
	spec Spec
	data map[string]dataSlot
	exec map[string]map[domain.SignalKey]ExecFunc
}

// NewPorts creates an empty table for spec.
func NewPorts(spec Spec) *Ports {
	p := &Ports{}
	p.Reset(spec)
	return p
}

// Reset replaces the declared ports and drops every binding.
func (p *Ports) Reset(spec Spec) {
	p.spec = spec
	p.data = make(map[string]dataSlot)
	p.exec = make(map[string]map[domain.SignalKey]ExecFunc)
}

// Spec returns the declared ports.
func (p *Ports) Spec() Spec {
	return p.spec
}

// Pull executes the source bound to a data input.
// An unbound input yields nil without error.
func (p *Ports) Pull(name string) (any, error) {
	if !p.spec.HasInput(domain.SignalData, name) {
		return nil, fmt.Errorf("%w: data input %q", domain.ErrPortNotFound, name)
	}
	slot, ok := p.data[name]
	if !ok {
		return nil, nil
	}
	return slot.fn()
}

// Fire executes every target bound to an exec output and stops at the first error.
// An unbound output is a no-op.
func (p *Ports) Fire(name string) error {
	if !p.spec.HasOutput(domain.SignalExec, name) {
		return fmt.Errorf("%w: exec output %q", domain.ErrPortNotFound, name)
	}
	targets := p.exec[name]
	if len(targets) == 0 {
		return nil
	}
	keys := make([]domain.SignalKey, 0, len(targets))
	for k := range targets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	for _, k := range keys {
		fn, ok := targets[k]
		if !ok {
			continue
		}
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

// BindData points a data input at a source. Rebinding the same signal replaces it.
func (p *Ports) BindData(input string, key domain.SignalKey, fn DataFunc) error {
	if !p.spec.HasInput(domain.SignalData, input) {
		return fmt.Errorf("%w: data input %q", domain.ErrPortNotFound, input)
	}
	if cur, ok := p.data[input]; ok && cur.key != key {
		return fmt.Errorf("%w: %q is fed by %s", domain.ErrSlotOccupied, input, cur.key)
	}
	p.data[input] = dataSlot{key: key, fn: fn}
	return nil
}

// UnbindData removes the binding if it belongs to key.
func (p *Ports) UnbindData(input string, key domain.SignalKey) bool {
	cur, ok := p.data[input]
	if !ok || cur.key != key {
		return false
	}
	delete(p.data, input)
	return true
}

// BindExec adds a target to an exec output.
func (p *Ports) BindExec(output string, key domain.SignalKey, fn ExecFunc) error {
	if !p.spec.HasOutput(domain.SignalExec, output) {
		return fmt.Errorf("%w: exec output %q", domain.ErrPortNotFound, output)
	}
	targets, ok := p.exec[output]
	if !ok {
		targets = make(map[domain.SignalKey]ExecFunc)
		p.exec[output] = targets
	}
	targets[key] = fn
	return nil
}

// UnbindExec removes one target from an exec output.
func (p *Ports) UnbindExec(output string, key domain.SignalKey) bool {
	targets, ok := p.exec[output]
	if !ok {
		return false
	}
	if _, ok := targets[key]; !ok {
		return false
	}
	delete(targets, key)
	if len(targets) == 0 {
		delete(p.exec, output)
	}
	return true
}

// DataSource reports which signal feeds a data input.
func (p *Ports) DataSource(input string) (domain.SignalKey, bool) {
	slot, ok := p.data[input]
	return slot.key, ok
}

// ExecTargets lists the signals bound to an exec output, sorted.
func (p *Ports) ExecTargets(output string) []domain.SignalKey {
	targets := p.exec[output]
	keys := make([]domain.SignalKey, 0, len(targets))
	for k := range targets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Bindings counts installed bindings.
func (p *Ports) Bindings() int {
	n := len(p.data)
	for _, t := range p.exec {
		n += len(t)
	}
	return n
}
