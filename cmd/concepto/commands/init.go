package commands

import (
	"fmt"
	"os"

	"github.com/concepto-studio/concepto/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	forceInit bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new Concepto project",
	Long: `Initialize a new Concepto project with a default configuration and an
example show.

Creates:
  • concepto.yml - Store and sync configuration
  • seed/example-show.yml - Example show for 'concepto seed'

Use --force to reinitialize an existing project (WARNING: destroys existing configuration).`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Force reinitialization (removes existing concepto.yml and seed/)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to determine working directory: %w", err)
	}

	if err := scaffold.Initialize(dir, forceInit, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	scaffold.PrintSuccess(cmd.OutOrStdout())
	return nil
}
