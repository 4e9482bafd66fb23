package ports

import (
	"context"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/node"
)

// ProjectLoader produces the current project description.
type ProjectLoader interface {
	// Load parses the project. A structurally unreadable description
	// returns an error wrapping domain.ErrProjectUnreadable.
	Load(ctx context.Context) (*domain.Project, error)

	// Source names where the project comes from (a path, "memory", ...).
	Source() string
}

// Pollable is implemented by loaders that can tell, without blocking,
// whether the description changed since the last call.
type Pollable interface {
	Poll() bool
}

// UnitLoader loads code units by module path.
type UnitLoader interface {
	// Load imports the unit fresh. It returns domain.ErrUnitNotFound when nothing
	// exists at the module path.
	Load(module string) (node.Unit, error)

	// Watch installs a change-watch on the unit's backing location.
	Watch(module string) (ChangeWatch, error)
}
