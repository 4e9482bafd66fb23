package lua

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	lua "github.com/yuin/gopher-lua"

	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/internal/watch"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/node"
	"github.com/aretw0/weft/pkg/ports"
)

// Loader implements ports.UnitLoader for Lua scripts under a root directory.
type Loader struct {
	root   string
	logger *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger used while loading scripts.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a loader resolving modules under root.
func NewLoader(root string, opts ...LoaderOption) *Loader {
	l := &Loader{root: filepath.Clean(root), logger: logging.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path maps a module name to its script.
func (l *Loader) Path(module string) (string, error) {
	name := strings.TrimSuffix(module, ".lua")
	if !strings.Contains(name, "/") {
		name = strings.ReplaceAll(name, ".", "/")
	}
	if name == "" {
		return "", fmt.Errorf("%w: empty module name", domain.ErrUnitNotFound)
	}
	path := filepath.Join(l.root, filepath.FromSlash(name)+".lua")
	rel, err := filepath.Rel(l.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s escapes %s", domain.ErrUnitNotFound, module, l.root)
	}
	return path, nil
}

// Load runs the script in a fresh interpreter and collects its classes.
func (l *Loader) Load(module string) (node.Unit, error) {
	path, err := l.Path(module)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnitNotFound, path)
		}
		return nil, err
	}

	L := lua.NewState()
	u := &unit{L: L, module: module, classes: make(map[string]*class), logger: l.logger.With("module", module)}
	if err := u.exec(l.root, path); err != nil {
		L.Close()
		return nil, err
	}
	return u, nil
}

// Watch installs a file watch on the module's script. Modules it requires
// are not watched.
func (l *Loader) Watch(module string) (ports.ChangeWatch, error) {
	path, err := l.Path(module)
	if err != nil {
		return nil, err
	}
	return watch.New(path), nil
}

// Discover lists every module under root, in dotted form.
func Discover(root string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(root), "**/*.lua")
	if err != nil {
		return nil, fmt.Errorf("discover units in %s: %w", root, err)
	}
	modules := make([]string, 0, len(matches))
	for _, m := range matches {
		modules = append(modules, strings.ReplaceAll(strings.TrimSuffix(m, ".lua"), "/", "."))
	}
	return modules, nil
}
