package main

import (
	"context"
	"os"

	"github.com/aretw0/weft"
	"github.com/aretw0/weft/internal/cli"
	"github.com/aretw0/weft/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [project]",
	Short: "Run the project and expose it as a Model Context Protocol server",
	Long: `Runs the project like 'run' and serves introspection tools over stdio:
get_status, list_nodes, get_node and get_graph, plus the weft://graph resource.
Printer output and logs go to stderr so stdout stays JSON-RPC.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runOptions(cmd, args)
		opts.FPS, _ = cmd.Flags().GetFloat64("fps")

		logger := cli.NewLogger(os.Stderr, opts.Debug, true)
		host, err := cli.CreateHost(opts, logger, os.Stderr)
		if err != nil {
			return err
		}
		defer host.Close()

		sc := cli.NewSignalContext(context.Background())
		defer sc.Cancel()
		done := make(chan struct{})
		go func() {
			defer close(done)
			cli.Loop(sc, host, opts.FPS, 0)
		}()

		srv := mcp.NewServer(host, weft.Version)
		host.Logger().Info("starting MCP server (stdio)")
		err = srv.ServeStdio()
		sc.Cancel()
		<-done
		return err
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().Float64("fps", 30, "Ticks per second")
}
