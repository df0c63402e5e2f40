package inventory

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/concepto-studio/concepto/internal/filter"
	"github.com/concepto-studio/concepto/internal/showsync"
	"github.com/concepto-studio/concepto/pkg/catalog"
)

// OutputFormat specifies how to format a show's document list.
type OutputFormat string

const (
	// OutputFormatDefault uses a table with truncated text columns
	OutputFormatDefault OutputFormat = "table"

	// OutputFormatJSONL outputs complete documents as line-delimited JSON
	OutputFormatJSONL OutputFormat = "jsonl"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputFormatDefault, "default", "":
		return OutputFormatDefault, nil
	case OutputFormatJSONL:
		return OutputFormatJSONL, nil
	default:
		return "", fmt.Errorf("unknown output format: %s (use 'table' or 'jsonl')", s)
	}
}

// Write renders agg in the requested format.
func Write(w io.Writer, format OutputFormat, showName string, agg *showsync.Aggregate, now time.Time) error {
	switch format {
	case OutputFormatDefault:
		FormatTable(w, showName, agg, now)
		return nil
	case OutputFormatJSONL:
		if err := FormatJSONL(w, agg); err != nil {
			return fmt.Errorf("failed to format JSONL output: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

// FormatTable writes a show's documents as a table: ID, COLLECTION, NAME,
// DETAIL and AGE. Returns the number of documents formatted.
func FormatTable(w io.Writer, showName string, agg *showsync.Aggregate, now time.Time) int {
	docs := agg.Documents()
	if len(docs) == 0 {
		fmt.Fprintf(w, "No documents found for show '%s'\n", showName)
		return 0
	}

	fmt.Fprintf(w, "Documents for show '%s':\n\n", showName)

	rows := make([][]string, 0, len(docs))
	for _, doc := range docs {
		info := filter.Describe(doc)
		rows = append(rows, []string{
			formatID(doc.DocumentID()),
			string(doc.Collection()),
			formatText(info.Name, 32),
			formatText(info.Detail, 40),
			formatAge(info.UpdatedAtMs, now),
		})
	}
	fmt.Fprintln(w, renderTable([]string{"ID", "COLLECTION", "NAME", "DETAIL", "AGE"}, rows, []int{5}))

	countMsg := "document"
	if len(docs) != 1 {
		countMsg = "documents"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(docs), countMsg)

	return len(docs)
}

// FormatSummary writes per-collection counts.
func FormatSummary(w io.Writer, agg *showsync.Aggregate) {
	counts := agg.Counts()
	rows := make([][]string, 0, len(catalog.AllCollections)+1)
	for _, c := range catalog.AllCollections {
		rows = append(rows, []string{string(c), fmt.Sprintf("%d", counts[c])})
	}
	rows = append(rows, []string{"total", fmt.Sprintf("%d", agg.Len())})
	fmt.Fprintln(w, renderTable([]string{"COLLECTION", "COUNT"}, rows, []int{2}))
}

// FormatShows writes the catalog, marking the resident show.
func FormatShows(w io.Writer, shows []catalog.Show, loadedShowID string) int {
	if len(shows) == 0 {
		fmt.Fprintln(w, "No shows found")
		return 0
	}

	rows := make([][]string, 0, len(shows))
	for _, s := range shows {
		loaded := ""
		if s.ID == loadedShowID {
			loaded = "●"
		}
		rows = append(rows, []string{formatID(s.ID), s.Name, formatText(s.Description, 48), loaded})
	}
	fmt.Fprintln(w, renderTable([]string{"ID", "NAME", "DESCRIPTION", "LOADED"}, rows, nil))
	return len(shows)
}

// jsonlRecord tags each document with its collection.
type jsonlRecord struct {
	Collection catalog.Collection `json:"collection"`
	Document   catalog.Document   `json:"document"`
}

// FormatJSONL writes documents as line-delimited JSON (JSONL) to the provided
// writer, one {"collection", "document"} object per line.
func FormatJSONL(w io.Writer, agg *showsync.Aggregate) error {
	for _, doc := range agg.Documents() {
		data, err := json.Marshal(jsonlRecord{Collection: doc.Collection(), Document: doc})
		if err != nil {
			return fmt.Errorf("failed to marshal %s %s to JSON: %w", doc.Collection(), doc.DocumentID(), err)
		}

		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}

	return nil
}

// FormatSingleJSON writes a single document as pretty-printed JSON.
func FormatSingleJSON(w io.Writer, doc catalog.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document to JSON: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}

	fmt.Fprintln(w)
	return nil
}

// renderTable renders rows with go-pretty. rightAligned holds 1-based column
// numbers.
func renderTable(headers []string, rows [][]string, rightAligned []int) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(rightAligned))
	for _, col := range rightAligned {
		configs = append(configs, table.ColumnConfig{Number: col, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// formatID truncates an ID to its first 8 characters.
func formatID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatText keeps the first non-empty line, truncated to max runes.
// Empty text returns "-".
func formatText(s string, max int) string {
	var firstLine string
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			firstLine = trimmed
			break
		}
	}
	if firstLine == "" {
		return "-"
	}

	runes := []rune(firstLine)
	if len(runes) > max {
		return string(runes[:max-3]) + "..."
	}
	return firstLine
}

// formatAge renders a Unix ms timestamp as "2m ago", "1h ago", and so on.
func formatAge(timestampMs int64, now time.Time) string {
	if timestampMs == 0 {
		return "-"
	}

	diff := now.Sub(time.UnixMilli(timestampMs))
	switch {
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}
