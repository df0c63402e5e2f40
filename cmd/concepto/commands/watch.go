package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/concepto-studio/concepto/internal/printer"
	"github.com/concepto-studio/concepto/internal/showsync"
	"github.com/concepto-studio/concepto/internal/watch"
	"github.com/concepto-studio/concepto/pkg/catalog"
	"github.com/spf13/cobra"
)

var watchTimeout = defaultLoadTimeout

var watchCmd = &cobra.Command{
	Use:   "watch <SHOW>",
	Short: "Keep a show loaded and reload it on every change",
	Long: `Load a show, then follow its change feed. Every change reloads the show;
changes that arrive during a reload are folded into one follow-up reload.

Streams change events, load outcomes and the resulting view as they occur.
Requires the redis backend (change events travel over Redis Pub/Sub).

Examples:
  concepto watch "Nova Patrol"`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", defaultLoadTimeout, "How long to wait for the initial load")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.Close()

	client, ok := be.(*catalog.Client)
	if !ok {
		return printer.Error(
			"change feed unavailable",
			fmt.Sprintf("The %s backend does not publish change events.", cfg.Store.Backend),
			[]string{"Switch store.backend to redis in " + configPath},
		)
	}

	logger := newLogger()
	sess := newSession(cfg, be, logger)
	show, d, err := loadShow(ctx, sess, args[0], false, watchTimeout)
	if err != nil {
		return err
	}

	formatter := watch.NewFormatter(cmd.OutOrStdout())
	if err := formatter.FormatDecision(d); err != nil {
		return err
	}
	printer.Info("Watching '%s' (Ctrl+C to stop)\n", show.Name)

	err = watch.Follow(ctx, client, sess, show.ID, watch.FollowOptions{
		Logger: logger,
		OnChange: func(event catalog.ChangeEvent) {
			formatter.FormatChange(event)
		},
		OnSettle: func(outcome showsync.Outcome) {
			formatter.FormatOutcome(outcome)
			formatter.FormatDecision(sess.Decision())
		},
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return printer.Error("watch stopped", err.Error(), []string{"Check the Redis connection and run again"})
	}
	return nil
}
