package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"

	"github.com/concepto-studio/concepto/internal/config"
	"github.com/concepto-studio/concepto/internal/printer"
	"github.com/concepto-studio/concepto/internal/remote"
	"github.com/concepto-studio/concepto/internal/resolver"
	"github.com/concepto-studio/concepto/internal/session"
	"github.com/concepto-studio/concepto/internal/showsync"
	"github.com/concepto-studio/concepto/internal/store/sqlitestore"
	"github.com/concepto-studio/concepto/pkg/catalog"
	"github.com/redis/go-redis/v9"
)

// backend is what every configured store offers the commands: the catalog
// read, the per-show collection reads and a health check.
type backend interface {
	io.Closer
	Ping(ctx context.Context) error
	session.CatalogSource
	showsync.Source
}

var (
	_ backend = (*catalog.Client)(nil)
	_ backend = (*sqlitestore.Store)(nil)
	_ backend = (*remote.Client)(nil)
)

// loadConfig reads concepto.yml, rendering failures through the printer.
func loadConfig(path string) (*config.ConceptoConfig, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, printer.Error(
				fmt.Sprintf("%s not found", path),
				"No Concepto configuration found.",
				[]string{
					"Initialize a project here:\n  concepto init",
					"Point at an existing file:\n  concepto --config path/to/concepto.yml <command>",
				},
			)
		}
		return nil, printer.ErrorWithContext(
			"invalid configuration",
			err.Error(),
			map[string]string{"File": path},
			[]string{fmt.Sprintf("Fix %s and try again", path)},
		)
	}
	return cfg, nil
}

// openBackend connects to the configured store and verifies it answers.
func openBackend(ctx context.Context, cfg *config.ConceptoConfig) (backend, error) {
	be, target, err := dialBackend(cfg)
	if err != nil {
		return nil, err
	}

	if err := be.Ping(ctx); err != nil {
		be.Close()
		return nil, printer.ErrorWithContext(
			"store unavailable",
			fmt.Sprintf("Could not reach the %s store.", cfg.Store.Backend),
			map[string]string{"Target": target, "Error": err.Error()},
			[]string{fmt.Sprintf("Check that %s is reachable and matches store settings in %s", target, configPath)},
		)
	}
	return be, nil
}

func dialBackend(cfg *config.ConceptoConfig) (backend, string, error) {
	switch cfg.Store.Backend {
	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.Store.RedisURL)
		if err != nil {
			return nil, "", fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		client, err := catalog.NewClient(opts, cfg.Store.Namespace)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create catalog client: %w", err)
		}
		return client, cfg.Store.RedisURL, nil

	case config.BackendSQLite:
		store, err := sqlitestore.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open SQLite store: %w", err)
		}
		return store, cfg.Store.SQLitePath, nil

	case config.BackendRemote:
		client, err := remote.New(cfg.Remote.Endpoint, cfg.Remote.APIKey, remote.WithTimeout(cfg.Remote.Timeout))
		if err != nil {
			return nil, "", fmt.Errorf("failed to create remote client: %w", err)
		}
		return client, cfg.Remote.Endpoint, nil

	default:
		return nil, "", fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}
}

// newSession wires a coordinator over be using the sync settings.
func newSession(cfg *config.ConceptoConfig, be backend, logger *log.Logger) *session.Session {
	fetcher := showsync.NewFetcher(be, cfg.Sync.FetchTimeout)
	coord := showsync.NewCoordinator(fetcher, showsync.Options{
		ThrottleWindow: cfg.Sync.ThrottleWindow,
		Logger:         logger,
	})
	return session.New(coord, be, logger)
}

// loadCatalog loads the show list into sess.
func loadCatalog(ctx context.Context, sess *session.Session) error {
	if err := sess.LoadCatalog(ctx); err != nil {
		return printer.Error(
			"failed to load shows",
			showsync.Reason(err),
			[]string{"Retry, or run with --verbose for details"},
		)
	}
	return nil
}

// resolveShow maps a show name or ID prefix to a catalog show.
func resolveShow(sess *session.Session, ref string) (catalog.Show, error) {
	show, err := resolver.ResolveShow(sess.Shows(), ref)
	if err == nil {
		return show, nil
	}

	var amb *resolver.AmbiguousError
	if errors.As(err, &amb) {
		return catalog.Show{}, printer.Error(
			fmt.Sprintf("ambiguous show '%s'", ref),
			resolver.FormatAmbiguousError(amb),
			nil,
		)
	}
	if resolver.IsNotFoundError(err) {
		return catalog.Show{}, printer.Error(
			fmt.Sprintf("show '%s' not found", ref),
			"No show has that name or ID.",
			[]string{"List shows:\n  concepto shows"},
		)
	}
	return catalog.Show{}, fmt.Errorf("failed to resolve show: %w", err)
}
