package main

import (
	"os"

	"github.com/aretw0/weft/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [project]",
	Short: "Check the project file for structural and wiring problems",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Validate(cmd.Context(), projectPath(cmd, args), os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
