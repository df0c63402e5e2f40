package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/concepto-studio/concepto/internal/printer"
	"github.com/concepto-studio/concepto/internal/statusapi"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the sync status over HTTP",
	Long: `Run a session behind a small HTTP API so other tools can select shows and
read the loading state.

Endpoints:
  GET  /healthz                 store health
  GET  /status                  isLoading, currentError, loadedShowId and the view
  GET  /shows                   the catalog
  POST /select?showId=<id>     select a show (episodeId, assetId, category, wait)
  POST /retry                   retry the failed load

Examples:
  concepto serve
  concepto serve --addr 0.0.0.0:8787`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: status.addr from concepto.yml)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
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

	logger := newLogger()
	sess := newSession(cfg, be, logger)
	if err := sess.LoadCatalog(ctx); err != nil {
		printer.Warning("Catalog not loaded yet (POST /retry to try again): %v\n", err)
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Status.Addr
	}

	server := statusapi.New(be, sess, logger)
	bound, err := server.Start(addr)
	if err != nil {
		return printer.Error(
			"cannot start status server",
			err.Error(),
			[]string{"Pick another address:\n  concepto serve --addr 127.0.0.1:0"},
		)
	}
	printer.Success("Serving sync status on http://%s (Ctrl+C to stop)\n", bound)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return printer.Error("unclean shutdown", err.Error(), nil)
	}
	printer.Info("Stopped\n")
	return nil
}
