package main

import (
	"os"

	"github.com/aretw0/weft/internal/cli"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [project]",
	Short: "Export the live graph as a Mermaid diagram",
	Long:  `Loads the project, runs a tick so the entry and faults are resolved, and prints a Mermaid flowchart.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runOptions(cmd, args)
		opts.Ticks, _ = cmd.Flags().GetInt("ticks")
		return cli.Graph(cmd.Context(), opts, os.Stdout, os.Stderr)
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [project]",
	Short: "Print a report of nodes, signals and code units",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runOptions(cmd, args)
		opts.Ticks, _ = cmd.Flags().GetInt("ticks")
		return cli.Inspect(cmd.Context(), opts, os.Stdout, os.Stderr)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd, inspectCmd)

	graphCmd.Flags().Int("ticks", 1, "Ticks to run before rendering")
	inspectCmd.Flags().Int("ticks", 1, "Ticks to run before rendering")
}
