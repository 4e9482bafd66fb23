package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/weft/internal/compiler"
	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/internal/presentation/graph"
	"github.com/aretw0/weft/internal/presentation/tui"
	"github.com/aretw0/weft/pkg/adapters/file"
	"github.com/aretw0/weft/pkg/domain"
)

// settle builds a host quietly and runs a few ticks so the status reflects
// entry resolution and any faults.
func settle(ctx context.Context, opts RunOptions, stderr io.Writer) (*domain.GraphStatus, error) {
	logger := logging.NewNop()
	if opts.Debug {
		logger = NewLogger(stderr, true, opts.JSON)
	}
	host, err := CreateHost(opts, logger, io.Discard)
	if err != nil {
		return nil, err
	}
	defer host.Close()

	ticks := opts.Ticks
	if ticks <= 0 {
		ticks = 1
	}
	for range ticks {
		host.Frame().Advance(float64(host.Frame().Frame+1) / 60)
		_ = host.Tick(ctx)
	}
	return host.Status(), nil
}

// Inspect prints a markdown report of the graph after it settles.
func Inspect(ctx context.Context, opts RunOptions, w, stderr io.Writer) error {
	st, err := settle(ctx, opts, stderr)
	if err != nil {
		return err
	}
	render := tui.NewRenderer(!logging.IsTerminal(w))
	out, err := render(tui.Report(st))
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// Graph prints the live graph as Mermaid.
func Graph(ctx context.Context, opts RunOptions, w, stderr io.Writer) error {
	st, err := settle(ctx, opts, stderr)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, graph.GenerateMermaid(st))
	return err
}

// Validate parses the project file and lints it. Lint errors fail validation;
// warnings are only printed.
func Validate(ctx context.Context, projectPath string, w io.Writer) error {
	loader := file.NewLoader(projectPath)
	defer loader.Close()

	p, err := loader.Load(ctx)
	if err != nil {
		return err
	}
	issues := compiler.Lint(p)
	for _, i := range issues {
		fmt.Fprintln(w, i.String())
	}
	if compiler.HasErrors(issues) {
		return fmt.Errorf("%s has %d issue(s)", projectPath, len(issues))
	}
	fmt.Fprintf(w, "%s: %d nodes, %d signals, ok\n", projectPath, len(p.Nodes), len(p.Signals))
	return nil
}
