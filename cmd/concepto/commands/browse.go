package commands

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/concepto-studio/concepto/internal/printer"
	"github.com/concepto-studio/concepto/internal/tui"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const browseLogFile = "concepto-browse.log"

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse shows interactively",
	Long: `Open an interactive browser over the catalog.

Selecting a show loads it; the screen shows a spinner while data is loading,
the error (press r to retry) if the load failed, and the show's collections
once its data is valid.

Keys:
  enter      open the highlighted show
  esc        back to the show list
  c          cycle the asset category filter
  r          retry a failed load
  q, ctrl+c  quit

With --verbose, sync activity is logged to ` + browseLogFile + `.`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return printer.Error(
			"browse needs a terminal",
			"Standard output is not a terminal.",
			[]string{"List shows non-interactively:\n  concepto shows", "Load one show:\n  concepto load <SHOW>"},
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.Close()

	logger := log.New(io.Discard, "", 0)
	if verbose {
		f, err := tea.LogToFile(browseLogFile, "concepto")
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", browseLogFile, err)
		}
		defer f.Close()
		logger = log.Default()
	}

	sess := newSession(cfg, be, logger)
	program := tea.NewProgram(tui.NewApp(ctx, sess), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("browser failed: %w", err)
	}
	return nil
}
