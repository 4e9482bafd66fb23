// Package router composes several unit loaders behind scheme prefixes.
//
// A module written "std:clock" is served by the loader mounted as "std",
// which sees the module name "clock". Modules without a known scheme go to
// the fallback loader.
package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/node"
	"github.com/aretw0/weft/pkg/ports"
)

// Router implements ports.UnitLoader.
type Router struct {
	loaders  map[string]ports.UnitLoader
	fallback ports.UnitLoader
}

// New creates a router. fallback may be nil.
func New(fallback ports.UnitLoader) *Router {
	return &Router{loaders: make(map[string]ports.UnitLoader), fallback: fallback}
}

// Mount routes modules prefixed with scheme+":" to l.
func (r *Router) Mount(scheme string, l ports.UnitLoader) *Router {
	r.loaders[scheme] = l
	return r
}

// Schemes lists the mounted schemes.
func (r *Router) Schemes() []string {
	out := make([]string, 0, len(r.loaders))
	for s := range r.loaders {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (r *Router) route(module string) (ports.UnitLoader, string, error) {
	if scheme, rest, ok := strings.Cut(module, ":"); ok {
		if l, found := r.loaders[scheme]; found {
			return l, rest, nil
		}
	}
	if r.fallback == nil {
		return nil, "", fmt.Errorf("%w: no loader for %q", domain.ErrUnitNotFound, module)
	}
	return r.fallback, module, nil
}

func (r *Router) Load(module string) (node.Unit, error) {
	l, name, err := r.route(module)
	if err != nil {
		return nil, err
	}
	return l.Load(name)
}

func (r *Router) Watch(module string) (ports.ChangeWatch, error) {
	l, name, err := r.route(module)
	if err != nil {
		return nil, err
	}
	return l.Watch(name)
}
