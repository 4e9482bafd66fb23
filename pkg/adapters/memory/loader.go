package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/weft/internal/compiler"
	"github.com/aretw0/weft/pkg/domain"
)

// Loader implements ports.ProjectLoader with a project held in memory.
// Set and Fail flag a change that the next Poll reports. A project whose
// nodes share a guid is held as unreadable, the way a file loader reports it.
// Safe for concurrent use.
type Loader struct {
	mu      sync.Mutex
	project *domain.Project
	err     error
	changed bool
}

// NewLoader creates a loader serving project.
func NewLoader(project *domain.Project) *Loader {
	if project == nil {
		project = &domain.Project{}
	}
	return &Loader{project: project, err: check(project)}
}

// NewFromDocument parses a JSON or YAML document.
func NewFromDocument(data []byte, format compiler.Format) (*Loader, error) {
	project, err := compiler.NewParser().Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse project: %w", err)
	}
	return NewLoader(project), nil
}

// Set replaces the project wholesale.
func (l *Loader) Set(project *domain.Project) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.project = project
	l.err = check(project)
	l.changed = true
}

// Fail makes the next loads report err, as if the description became unreadable.
func (l *Loader) Fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = unreadable(err)
	l.changed = true
}

func unreadable(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrProjectUnreadable, err)
}

func check(project *domain.Project) error {
	if project == nil {
		return unreadable(errors.New("no project"))
	}
	seen := make(map[string]bool, len(project.Nodes))
	for _, n := range project.Nodes {
		if seen[n.GUID] {
			return unreadable(fmt.Errorf("%w: %s", domain.ErrDuplicateGUID, n.GUID))
		}
		seen[n.GUID] = true
	}
	return nil
}

func (l *Loader) Load(ctx context.Context) (*domain.Project, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	return l.project, nil
}

func (l *Loader) Poll() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	changed := l.changed
	l.changed = false
	return changed
}

func (l *Loader) Source() string {
	return "memory"
}
