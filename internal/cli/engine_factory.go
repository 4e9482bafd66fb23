package cli

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/weft"
	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/pkg/adapters/file"
	"github.com/aretw0/weft/pkg/adapters/redis"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/observability"
	"github.com/aretw0/weft/pkg/persistence/middleware"
	"github.com/aretw0/weft/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// RunOptions contains the configuration shared by the run, graph and inspect commands.
type RunOptions struct {
	ProjectPath string
	UnitRoot    string
	FPS         float64
	Ticks       int
	Width       int
	Height      int
	HTTPAddr    string
	SnapshotDir string
	RedisURL    string
	SnapshotKey string   // hex-encoded AES-256 key sealing stored snapshots
	Redact      []string // key patterns masked before snapshots are stored
	Debug       bool
	JSON        bool
	NoBanner    bool
}

// Host is a runtime plus the resources the CLI created for it.
type Host struct {
	*weft.Runtime
	Metrics *observability.Metrics
	Store   ports.SnapshotStore
	closers []io.Closer
}

// Close stops the runtime, then releases the stores.
func (h *Host) Close() error {
	errs := []error{h.Runtime.Close()}
	for _, c := range h.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// NewLogger configures the application logger: colored console or JSON lines.
func NewLogger(w io.Writer, debug, json bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	if json {
		return logging.NewJSON(w, level)
	}
	return logging.NewConsole(w, level)
}

// CreateHost initializes a runtime with standard CLI conventions:
// metrics always on, debug hooks with --debug, a snapshot store when asked.
func CreateHost(opts RunOptions, logger *slog.Logger, stdout io.Writer) (*Host, error) {
	h := &Host{Metrics: observability.NewMetrics()}

	hooks := h.Metrics.Hooks()
	if opts.Debug {
		hooks = hooks.Merge(observability.LoggingHooks(logger))
	}

	runtimeOpts := []weft.Option{
		weft.WithLogger(logger),
		weft.WithLifecycleHooks(hooks),
		weft.WithStdout(stdout),
	}
	if opts.UnitRoot != "" {
		runtimeOpts = append(runtimeOpts, weft.WithUnitRoot(opts.UnitRoot))
	}

	mws, err := storeMiddlewares(opts)
	if err != nil {
		return nil, err
	}

	switch {
	case opts.RedisURL != "":
		redisOpts, err := backend.ParseURL(opts.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid --redis url: %w", err)
		}
		client := backend.NewClient(redisOpts)
		store := redis.NewFromClient(client)
		h.Store = middleware.Chain(store, mws...)
		h.closers = append(h.closers, store)
		runtimeOpts = append(runtimeOpts,
			weft.WithSnapshotStore(h.Store),
			weft.WithLocker(redis.NewLocker(client, "weft:")),
		)
	case opts.SnapshotDir != "":
		h.Store = middleware.Chain(file.NewStore(opts.SnapshotDir), mws...)
		runtimeOpts = append(runtimeOpts, weft.WithSnapshotStore(h.Store))
	}

	rt, err := weft.New(opts.ProjectPath, domain.NewFrameContext(opts.Width, opts.Height), runtimeOpts...)
	if err != nil {
		for _, c := range h.closers {
			_ = c.Close()
		}
		return nil, fmt.Errorf("error initializing runtime: %w", err)
	}
	h.Runtime = rt
	return h, nil
}

// storeMiddlewares builds the at-rest pipeline: redaction runs before encryption.
func storeMiddlewares(opts RunOptions) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(opts.Redact) > 0 {
		mw, err := middleware.NewRedactMiddleware(opts.Redact)
		if err != nil {
			return nil, fmt.Errorf("invalid --redact pattern: %w", err)
		}
		mws = append(mws, mw)
	}
	if opts.SnapshotKey != "" {
		key, err := hex.DecodeString(opts.SnapshotKey)
		if err != nil {
			return nil, fmt.Errorf("snapshot key must be hex encoded: %w", err)
		}
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}
