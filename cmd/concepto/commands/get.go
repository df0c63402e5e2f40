package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/concepto-studio/concepto/internal/inventory"
	"github.com/concepto-studio/concepto/internal/printer"
	"github.com/concepto-studio/concepto/internal/resolver"
	"github.com/spf13/cobra"
)

var getTimeout = defaultLoadTimeout

var getCmd = &cobra.Command{
	Use:   "get <SHOW> <DOCUMENT_ID>",
	Short: "Print one document of a show as JSON",
	Long: `Load a show and print a single document as pretty-printed JSON.

DOCUMENT_ID may be a full UUID or a unique prefix of at least 6 characters.
Every collection of the show is searched.

Examples:
  concepto get "Nova Patrol" 0b9a3c1e-1111
  concepto get 2f8d0c 0b9a3c`,
	Args: cobra.ExactArgs(2),
	RunE: runGet,
}

func init() {
	getCmd.Flags().DurationVar(&getTimeout, "timeout", defaultLoadTimeout, "How long to wait for show data")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	showRef, docRef := args[0], args[1]

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
	show, d, err := loadShow(ctx, sess, showRef, false, getTimeout)
	if err != nil {
		return err
	}

	err = inventory.GetDocument(d.Data, show.ID, docRef, cmd.OutOrStdout())
	if err == nil {
		return nil
	}

	var amb *resolver.AmbiguousError
	switch {
	case inventory.IsNotFound(err):
		return printer.Error(
			fmt.Sprintf("document '%s' not found", docRef),
			fmt.Sprintf("No document of show '%s' matches that ID.", show.Name),
			[]string{fmt.Sprintf("List the show's documents:\n  concepto load %q", show.Name)},
		)
	case errors.As(err, &amb):
		return printer.Error(
			fmt.Sprintf("ambiguous document ID '%s'", docRef),
			resolver.FormatAmbiguousError(amb),
			nil,
		)
	default:
		return err
	}
}
