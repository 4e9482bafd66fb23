package file

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/aretw0/weft/internal/compiler"
	"github.com/aretw0/weft/internal/watch"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/ports"
)

// Loader implements ports.ProjectLoader over a JSON or YAML file.
// It also implements ports.Pollable, reporting edits to the file.
type Loader struct {
	path   string
	format compiler.Format
	parser *compiler.Parser

	mu sync.Mutex
	w  ports.ChangeWatch
}

// NewLoader creates a loader for path. The format follows the extension.
func NewLoader(path string) *Loader {
	return &Loader{
		path:   path,
		format: compiler.FormatFor(path),
		parser: compiler.NewParser(),
	}
}

// Load reads and compiles the project file.
func (l *Loader) Load(ctx context.Context) (*domain.Project, error) {
	l.mu.Lock()
	if l.w == nil {
		l.w = watch.New(l.path)
	}
	l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProjectUnreadable, err)
	}
	return l.parser.Parse(data, l.format)
}

// Poll reports whether the file changed since the last call.
func (l *Loader) Poll() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		l.w = watch.New(l.path)
		return false
	}
	_, changed := l.w.Poll()
	return changed
}

func (l *Loader) Source() string {
	return l.path
}

// Close releases the file watch.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return nil
	}
	err := l.w.Close()
	l.w = nil
	return err
}
