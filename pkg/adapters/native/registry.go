// Package native serves code units made of Go node classes registered in-process.
package native

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/node"
	"github.com/aretw0/weft/pkg/ports"
)

type module struct {
	classes []node.Class
	version uint64
	err     error
	removed bool
}

// Registry manages modules of Go node classes.
// Every mutation bumps the module version, which its watches report as a change.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]*module
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		modules: make(map[string]*module),
	}
}

func (r *Registry) entry(name string) *module {
	m, ok := r.modules[name]
	if !ok {
		m = &module{}
		r.modules[name] = m
	}
	return m
}

// Register sets the classes of a module.
// If the module exists its classes are replaced, which reads as a reload.
func (r *Registry) Register(name string, classes ...node.Class) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.entry(name)
	m.classes = classes
	m.err = nil
	m.removed = false
	m.version++
}

// Remove deletes a module. Watches report it as removed.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.modules[name]
	if !ok {
		return
	}
	m.classes = nil
	m.removed = true
	m.version++
}

// Fail makes every load of the module return err until the next Register.
func (r *Registry) Fail(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.entry(name)
	m.err = err
	m.version++
}

// Modules lists registered module names, sorted.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modules))
	for name, m := range r.modules {
		if !m.removed {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Load returns a unit holding the module's current classes.
func (r *Registry) Load(name string) (node.Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	if !ok || m.removed {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnitNotFound, name)
	}
	if m.err != nil {
		return nil, m.err
	}
	return node.NewUnit(m.classes...), nil
}

// Watch reports module version bumps. Watching an unknown module is allowed.
func (r *Registry) Watch(name string) (ports.ChangeWatch, error) {
	return &versionWatch{reg: r, name: name, seen: r.version(name)}, nil
}

func (r *Registry) version(name string) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if m, ok := r.modules[name]; ok {
		return m.version
	}
	return 0
}

type versionWatch struct {
	reg  *Registry
	name string
	seen uint64
}

func (w *versionWatch) Poll() (ports.ChangeEvent, bool) {
	w.reg.mu.RLock()
	m, ok := w.reg.modules[w.name]
	var version uint64
	removed := true
	if ok {
		version, removed = m.version, m.removed
	}
	w.reg.mu.RUnlock()

	if version == w.seen {
		return ports.ChangeEvent{}, false
	}
	w.seen = version
	ev := ports.ChangeEvent{Path: w.name, Kind: ports.ChangeModified}
	if removed {
		ev.Kind = ports.ChangeRemoved
	}
	return ev, true
}

func (w *versionWatch) Close() error {
	return nil
}
