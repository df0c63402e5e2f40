package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/concepto-studio/concepto/internal/printer"
	"github.com/concepto-studio/concepto/pkg/catalog"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed <FILE>",
	Short: "Write shows and documents from a YAML file into the store",
	Long: `Load shows and their documents from a YAML seed file into the configured
store. Existing documents with the same IDs are overwritten.

Only writable backends (redis, sqlite) can be seeded.

Examples:
  concepto seed seed/example-show.yml`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return printer.Error(
			fmt.Sprintf("cannot read %s", path),
			err.Error(),
			nil,
		)
	}
	seed, err := catalog.ParseSeedYAML(data)
	if err != nil {
		return printer.ErrorWithContext("invalid seed file", err.Error(), map[string]string{"File": path}, nil)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.Close()

	store, ok := be.(catalog.Store)
	if !ok {
		return printer.Error(
			"store is read-only",
			fmt.Sprintf("The %s backend cannot be seeded.", cfg.Store.Backend),
			[]string{"Switch store.backend to redis or sqlite in " + configPath},
		)
	}

	printer.Step("Seeding %d show(s) from %s...\n", len(seed.Shows), path)
	written, err := catalog.SeedStore(ctx, store, seed)
	if err != nil {
		return printer.ErrorWithContext(
			"seeding failed",
			err.Error(),
			map[string]string{"Written before failure": fmt.Sprintf("%d", written)},
			nil,
		)
	}

	printer.Success("Seeded %d document(s)\n", written)
	return nil
}
