package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/concepto-studio/concepto/internal/filter"
	"github.com/concepto-studio/concepto/internal/inventory"
	"github.com/concepto-studio/concepto/internal/printer"
	"github.com/concepto-studio/concepto/internal/session"
	"github.com/concepto-studio/concepto/internal/showsync"
	"github.com/concepto-studio/concepto/internal/timespec"
	"github.com/concepto-studio/concepto/internal/watch"
	"github.com/concepto-studio/concepto/pkg/catalog"
	"github.com/spf13/cobra"
)

const defaultLoadTimeout = 30 * time.Second

var (
	loadForce        bool
	loadOutputFormat string
	loadCategory     string
	loadName         string
	loadSince        string
	loadUntil        string
	loadCollections  []string
	loadTimeout      time.Duration
)

var loadCmd = &cobra.Command{
	Use:   "load <SHOW>",
	Short: "Load a show and list its documents",
	Long: `Select a show, wait for its data to load and list the resident documents.

SHOW is a show name (case-insensitive) or an ID prefix of at least 6 characters.

Output Formats:
  table - Human-readable table with ID, Collection, Name, Detail and Age
  jsonl - Line-delimited JSON, one {"collection", "document"} object per line

Time Filters:
  --since  - Documents updated after this time
  --until  - Documents updated before this time

Content Filters:
  --category    - Assets of one category (character, location, gadget, ...)
  --name        - Name or title glob ("Captain*", "*Patrol")
  --collection  - Restrict to collections (assets, episodes, episode_ideas, ...)

Examples:
  # Everything in a show
  concepto load "Nova Patrol"

  # Characters only
  concepto load 2f8d0c --category=character

  # Recently touched episodes as JSONL for jq
  concepto load "Nova Patrol" --collection=episodes --since=2h -o jsonl | jq .document.title`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().BoolVar(&loadForce, "force", false, "Reload even if the show was loaded recently")
	loadCmd.Flags().StringVarP(&loadOutputFormat, "output", "o", "table", "Output format: table or jsonl")
	loadCmd.Flags().StringVar(&loadCategory, "category", "", "Filter assets by category")
	loadCmd.Flags().StringVar(&loadName, "name", "", "Filter by name or title (glob pattern)")
	loadCmd.Flags().StringVar(&loadSince, "since", "", "Documents updated after time (duration or RFC3339)")
	loadCmd.Flags().StringVar(&loadUntil, "until", "", "Documents updated before time (duration or RFC3339)")
	loadCmd.Flags().StringSliceVar(&loadCollections, "collection", nil, "Restrict to these collections")
	loadCmd.Flags().DurationVar(&loadTimeout, "timeout", defaultLoadTimeout, "How long to wait for show data")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	format, err := inventory.ParseOutputFormat(loadOutputFormat)
	if err != nil {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", loadOutputFormat),
			[]string{"Valid formats: table, jsonl"},
		)
	}

	criteria, err := loadCriteria()
	if err != nil {
		return err
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

	sess := newSession(cfg, be, newLogger())
	show, d, err := loadShow(ctx, sess, args[0], loadForce, loadTimeout)
	if err != nil {
		return err
	}

	return inventory.Write(cmd.OutOrStdout(), format, show.Name, criteria.Apply(d.Data), time.Now())
}

// loadCriteria builds the document filter from the load flags.
func loadCriteria() (*filter.Criteria, error) {
	since, until, err := timespec.ParseRange(loadSince, loadUntil)
	if err != nil {
		return nil, printer.Error(
			"invalid time filter",
			err.Error(),
			[]string{"Use a duration (\"2h\", \"30m\") or an RFC3339 timestamp"},
		)
	}

	criteria := &filter.Criteria{
		SinceTimestampMs: since,
		UntilTimestampMs: until,
		NameGlob:         loadName,
	}

	if loadCategory != "" {
		category := catalog.AssetCategory(loadCategory)
		if err := category.Validate(); err != nil {
			return nil, printer.Error("invalid category", err.Error(), nil)
		}
		criteria.Category = category
	}

	for _, raw := range loadCollections {
		c := catalog.Collection(raw)
		if err := c.Validate(); err != nil {
			return nil, printer.Error("invalid collection", err.Error(), nil)
		}
		criteria.Collections = append(criteria.Collections, c)
	}

	return criteria, nil
}

// loadShow loads the catalog, selects ref and waits until the view settles.
// It returns the Render decision or a printed error.
func loadShow(ctx context.Context, sess *session.Session, ref string, force bool, timeout time.Duration) (catalog.Show, showsync.Decision, error) {
	if err := loadCatalog(ctx, sess); err != nil {
		return catalog.Show{}, showsync.Decision{}, err
	}

	show, err := resolveShow(sess, ref)
	if err != nil {
		return catalog.Show{}, showsync.Decision{}, err
	}

	if _, err := sess.SelectShow(ctx, show.ID); err != nil {
		return catalog.Show{}, showsync.Decision{}, fmt.Errorf("failed to select show: %w", err)
	}
	if force {
		sess.Refresh(ctx, show.ID)
	}

	d, err := watch.WaitForDecision(ctx, sess, watch.DefaultPollInterval, timeout)
	if err != nil {
		return catalog.Show{}, showsync.Decision{}, printer.Error(
			fmt.Sprintf("timed out loading '%s'", show.Name),
			err.Error(),
			[]string{fmt.Sprintf("Wait longer:\n  --timeout %s", 2*timeout)},
		)
	}
	if d.Kind == showsync.DecisionError {
		return catalog.Show{}, showsync.Decision{}, printer.ErrorWithContext(
			fmt.Sprintf("failed to load '%s'", show.Name),
			d.Reason,
			map[string]string{"Show": show.ID},
			[]string{"Run again to retry, or add --verbose for details"},
		)
	}
	return show, d, nil
}
