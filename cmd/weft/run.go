package main

import (
	"context"
	"os"

	"github.com/aretw0/weft/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [project]",
	Short: "Run the project, reloading it and its code units on change",
	Long: `Run the project, reloading it and its code units on change.

Set WEFT_SNAPSHOT_KEY to a hex-encoded 32 byte key to encrypt stored snapshots.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runOptions(cmd, args)
		opts.FPS, _ = cmd.Flags().GetFloat64("fps")
		opts.Ticks, _ = cmd.Flags().GetInt("ticks")
		opts.Width, _ = cmd.Flags().GetInt("width")
		opts.Height, _ = cmd.Flags().GetInt("height")
		opts.HTTPAddr, _ = cmd.Flags().GetString("http")
		opts.SnapshotDir, _ = cmd.Flags().GetString("snapshots")
		opts.RedisURL, _ = cmd.Flags().GetString("redis")
		opts.Redact, _ = cmd.Flags().GetStringSlice("redact")
		opts.SnapshotKey = os.Getenv("WEFT_SNAPSHOT_KEY")
		opts.NoBanner, _ = cmd.Flags().GetBool("no-banner")

		sc := cli.NewSignalContext(context.Background())
		defer sc.Cancel()
		return cli.Run(sc, opts, os.Stdout, os.Stderr)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Float64("fps", 60, "Ticks per second")
	runCmd.Flags().Int("ticks", 0, "Stop after this many ticks (0 runs until interrupted)")
	runCmd.Flags().Int("width", 1280, "Frame width exposed to nodes")
	runCmd.Flags().Int("height", 720, "Frame height exposed to nodes")
	runCmd.Flags().String("http", "", "Serve the introspection API on this address (e.g. :8080)")
	runCmd.Flags().String("snapshots", "", "Directory to restore and checkpoint node state")
	runCmd.Flags().String("redis", "", "Redis URL to restore and checkpoint node state")
	runCmd.Flags().StringSlice("redact", nil, "Mask snapshot keys matching these patterns before storing")
	runCmd.Flags().Bool("no-banner", false, "Do not print the banner")
	runCmd.MarkFlagsMutuallyExclusive("snapshots", "redis")
}
