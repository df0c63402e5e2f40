package watch

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/concepto-studio/concepto/internal/showsync"
	"github.com/concepto-studio/concepto/pkg/catalog"
)

// Formatter renders watch output.
type Formatter interface {
	FormatChange(event catalog.ChangeEvent) error
	FormatDecision(d showsync.Decision) error
	FormatOutcome(outcome showsync.Outcome) error
}

type defaultFormatter struct {
	writer io.Writer
}

// NewFormatter returns the human-readable line formatter.
func NewFormatter(w io.Writer) Formatter {
	return &defaultFormatter{writer: w}
}

func timestamp(ms int64) string {
	if ms == 0 {
		return time.Now().Format("15:04:05")
	}
	return time.UnixMilli(ms).Format("15:04:05")
}

func (f *defaultFormatter) FormatChange(event catalog.ChangeEvent) error {
	verb := "updated"
	icon := "✏️ "
	if event.Op == catalog.ChangeOpDelete {
		verb = "deleted"
		icon = "🗑️ "
	}

	var line string
	if event.Collection == "" {
		line = fmt.Sprintf("[%s] %s Show %s", timestamp(event.OccurredAtMs), icon, verb)
	} else {
		line = fmt.Sprintf("[%s] %s %s %s: id=%s", timestamp(event.OccurredAtMs), icon,
			collectionLabel(event.Collection), verb, event.EntityID)
	}
	_, err := fmt.Fprintln(f.writer, line)
	return err
}

func (f *defaultFormatter) FormatDecision(d showsync.Decision) error {
	var line string
	switch d.Kind {
	case showsync.DecisionLoading:
		line = fmt.Sprintf("⏳ Loading %s...", d.Label)
	case showsync.DecisionError:
		line = fmt.Sprintf("❌ %s", d.Reason)
	default:
		counts := d.Data.Counts()
		parts := make([]string, 0, len(catalog.AllCollections))
		for _, c := range catalog.AllCollections {
			parts = append(parts, fmt.Sprintf("%d %s", counts[c], collectionLabel(c)))
		}
		line = fmt.Sprintf("✅ Ready: %s", strings.Join(parts, ", "))
	}
	_, err := fmt.Fprintln(f.writer, line)
	return err
}

func (f *defaultFormatter) FormatOutcome(outcome showsync.Outcome) error {
	var line string
	switch outcome.Status {
	case showsync.OutcomeCommitted:
		line = "🔄 Reloaded"
	case showsync.OutcomeFailed:
		line = fmt.Sprintf("⚠️  Reload failed: %s", showsync.Reason(outcome.Err))
	default:
		// Skipped and stale reloads are not interesting to a watcher.
		return nil
	}
	_, err := fmt.Fprintf(f.writer, "[%s] %s\n", timestamp(0), line)
	return err
}

func collectionLabel(c catalog.Collection) string {
	return strings.ReplaceAll(string(c), "_", " ")
}
