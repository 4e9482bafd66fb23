package cli

import (
	"context"
	"io"
	"time"

	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/internal/presentation/tui"
	weftHTTP "github.com/aretw0/weft/pkg/adapters/http"
)

// Run hosts the runtime until ctx ends or opts.Ticks ticks have run.
// Logs go to stderr; the built-in Printer writes to stdout.
func Run(ctx context.Context, opts RunOptions, stdout, stderr io.Writer) error {
	logger := NewLogger(stderr, opts.Debug, opts.JSON)
	if !opts.JSON && !opts.NoBanner {
		tui.PrintBanner(stderr)
	}

	host, err := CreateHost(opts, logger, stdout)
	if err != nil {
		return err
	}
	defer func() {
		if err := host.Close(); err != nil {
			logger.Warn("shutdown incomplete", "error", err)
		}
	}()
	logger = host.Logger()

	serveCtx, stopServe := context.WithCancel(ctx)
	served := make(chan struct{})
	if opts.HTTPAddr != "" {
		handler := weftHTTP.NewHandler(host, host.Metrics.Handler(), logger)
		go func() {
			defer close(served)
			if err := weftHTTP.Serve(serveCtx, opts.HTTPAddr, handler, logger); err != nil {
				logger.Error("introspection server failed", "error", err)
			}
		}()
	} else {
		close(served)
	}

	Loop(ctx, host, opts.FPS, opts.Ticks)
	stopServe()
	<-served

	if host.Store != nil {
		if err := host.Checkpoint(context.Background()); err != nil {
			logger.Error("checkpoint failed", "error", err)
		}
	}

	var ticks uint64
	if st := host.Status(); st != nil {
		ticks = st.Tick
	}
	logging.Success(logger, "runtime stopped", "ticks", ticks)
	return nil
}

// Loop ticks at fps until ctx ends, or maxTicks ticks when maxTicks > 0.
// The frame clock advances before each tick. Structural errors are logged
// by the runtime and do not stop the loop.
func Loop(ctx context.Context, host *Host, fps float64, maxTicks int) {
	if fps <= 0 {
		fps = 60
	}
	interval := time.Duration(float64(time.Second) / fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	frame := host.Frame()
	start := time.Now()
	for n := 0; maxTicks <= 0 || n < maxTicks; n++ {
		frame.Advance(time.Since(start).Seconds())
		_ = host.Tick(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
