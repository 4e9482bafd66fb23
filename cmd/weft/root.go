package main

import (
	"fmt"
	"os"

	"github.com/aretw0/weft/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "weft",
	Short: "weft runs hot-reloadable dataflow graphs",
	Long: `weft loads a project of nodes and signals, runs it frame by frame,
and reloads code units and the project itself while it runs.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("project", "p", "project.yaml", "Project file (JSON or YAML)")
	rootCmd.PersistentFlags().String("units", "", "Directory of Lua code units (default: the project's directory)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("json", false, "Log as JSON lines")
}

// projectPath prefers the positional argument over --project.
func projectPath(cmd *cobra.Command, args []string) string {
	path, _ := cmd.Flags().GetString("project")
	if !cmd.Flags().Changed("project") && len(args) > 0 {
		path = args[0]
	}
	return path
}

// runOptions reads the flags shared by every command that builds a runtime.
func runOptions(cmd *cobra.Command, args []string) cli.RunOptions {
	units, _ := cmd.Flags().GetString("units")
	debug, _ := cmd.Flags().GetBool("debug")
	jsonMode, _ := cmd.Flags().GetBool("json")
	return cli.RunOptions{
		ProjectPath: projectPath(cmd, args),
		UnitRoot:    units,
		Debug:       debug,
		JSON:        jsonMode,
	}
}
