package commands

import (
	"context"

	"github.com/concepto-studio/concepto/internal/inventory"
	"github.com/concepto-studio/concepto/internal/printer"
	"github.com/spf13/cobra"
)

var showsCmd = &cobra.Command{
	Use:   "shows",
	Short: "List the shows in the catalog",
	Long: `List every show of the configured store, ordered by name.

Examples:
  concepto shows
  concepto --config studio.yml shows`,
	Args: cobra.NoArgs,
	RunE: runShows,
}

func init() {
	rootCmd.AddCommand(showsCmd)
}

func runShows(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.Close()

	sess := newSession(cfg, be, newLogger())
	if err := loadCatalog(ctx, sess); err != nil {
		return err
	}

	if inventory.FormatShows(cmd.OutOrStdout(), sess.Shows(), "") == 0 {
		printer.Info("No shows yet. Seed some with 'concepto seed <file>'.\n")
	}
	return nil
}
