package weft

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/internal/runtime"
	"github.com/aretw0/weft/pkg/adapters/file"
	"github.com/aretw0/weft/pkg/adapters/lua"
	"github.com/aretw0/weft/pkg/adapters/router"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/ports"
	"github.com/aretw0/weft/pkg/stdnodes"
	"github.com/google/uuid"
)

// Runtime is the high-level entry point for the weft library.
// It wraps the internal manager and is driven by the host's Tick calls.
type Runtime struct {
	manager  *runtime.Manager
	projects ports.ProjectLoader
	units    ports.UnitLoader
	hooks    domain.LifecycleHooks
	store    ports.SnapshotStore
	locker   ports.DistributedLocker
	logger   *slog.Logger
	unitRoot string
	stdout   io.Writer
	frame    *domain.FrameContext

	Name  string
	RunID string
}

// Option defines a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithProjectLoader injects a custom ProjectLoader instead of the file loader.
func WithProjectLoader(l ports.ProjectLoader) Option {
	return func(r *Runtime) {
		r.projects = l
	}
}

// WithUnitLoader injects a custom UnitLoader instead of Lua plus built-ins.
func WithUnitLoader(l ports.UnitLoader) Option {
	return func(r *Runtime) {
		r.units = l
	}
}

// WithUnitRoot sets the directory Lua code units are resolved from.
// It defaults to the directory of the project file.
func WithUnitRoot(dir string) Option {
	return func(r *Runtime) {
		r.unitRoot = dir
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Runtime) {
		r.hooks = r.hooks.Merge(hooks)
	}
}

// WithSnapshotStore persists node state across runs.
func WithSnapshotStore(store ports.SnapshotStore) Option {
	return func(r *Runtime) {
		r.store = store
	}
}

// WithLocker guards Checkpoint with a distributed lock.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(r *Runtime) {
		r.locker = locker
	}
}

// WithStdout sets where the built-in Printer writes. Defaults to os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(r *Runtime) {
		r.stdout = w
	}
}

// New builds a runtime for the project at projectPath and loads it.
// If WithProjectLoader is given, projectPath is only used as a label.
// An unreadable project is returned as an error.
func New(projectPath string, frame *domain.FrameContext, opts ...Option) (*Runtime, error) {
	r := &Runtime{frame: frame}
	for _, opt := range opts {
		opt(r)
	}

	if r.projects == nil {
		if projectPath == "" {
			return nil, errors.New("projectPath is required when no custom loader is provided")
		}
		absPath, err := filepath.Abs(projectPath)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		projectPath = absPath
		r.projects = file.NewLoader(absPath)
	}
	if projectPath != "" {
		r.Name = trimExt(filepath.Base(projectPath))
	}

	if r.frame == nil {
		r.frame = domain.NewFrameContext(0, 0)
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	r.RunID = uuid.NewString()
	r.logger = r.logger.With("run_id", r.RunID)
	if r.Name != "" {
		r.logger = r.logger.With("project", r.Name)
	}

	if r.units == nil {
		root := r.unitRoot
		if root == "" {
			root = filepath.Dir(projectPath)
		}
		r.units = router.New(lua.NewLoader(root, lua.WithLogger(r.logger))).
			Mount(stdnodes.Scheme, stdnodes.NewRegistry(r.stdout))
	}

	m, err := runtime.NewManager(runtime.Config{
		Projects:  r.projects,
		Units:     r.units,
		Frame:     r.frame,
		Logger:    r.logger,
		Hooks:     r.hooks,
		Snapshots: r.store,
		Locker:    r.locker,
	})
	if err != nil {
		return nil, err
	}
	if err := m.Start(context.Background()); err != nil {
		_ = m.Close()
		return nil, err
	}
	r.manager = m
	return r, nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

// Tick runs one frame. Only a structurally unreadable project is returned.
func (r *Runtime) Tick(ctx context.Context) error {
	return r.manager.Tick(ctx)
}

// Status returns the latest published graph status. Safe for concurrent use.
func (r *Runtime) Status() *domain.GraphStatus {
	return r.manager.Status()
}

// Checkpoint saves every valid node's state to the snapshot store.
func (r *Runtime) Checkpoint(ctx context.Context) error {
	return r.manager.Checkpoint(ctx)
}

// NodeState returns a node's current state snapshot.
func (r *Runtime) NodeState(guid string) (*domain.Snapshot, bool) {
	return r.manager.NodeState(guid)
}

// Project returns the project currently loaded.
func (r *Runtime) Project() *domain.Project {
	return r.manager.Project()
}

// Frame returns the frame context shared with every node.
func (r *Runtime) Frame() *domain.FrameContext {
	return r.frame
}

// Logger returns the runtime's enriched logger.
func (r *Runtime) Logger() *slog.Logger {
	return r.logger
}

// Close tears down every node and releases watchers and loaders.
func (r *Runtime) Close() error {
	return r.manager.Close()
}

var _ io.Closer = (*Runtime)(nil)
