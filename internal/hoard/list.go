package hoard

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dyluth/modcat/internal/filter"
	"github.com/dyluth/modcat/pkg/catalog"
)

// OutputFormat specifies how to format record output.
type OutputFormat string

const (
	// OutputFormatDefault uses a table format with truncated descriptions
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL outputs complete records as line-delimited JSON
	OutputFormatJSONL OutputFormat = "jsonl"

	// OutputFormatJSON outputs complete records as one JSON array
	OutputFormatJSON OutputFormat = "json"
)

// ParseOutputFormat validates a user-supplied output format.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case OutputFormatDefault, OutputFormatJSONL, OutputFormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format: %s (must be 'default', 'jsonl', or 'json')", s)
	}
}

// Write renders entries in the requested format.
func Write(w io.Writer, entries []*catalog.Entry, resourceName string, format OutputFormat) error {
	switch format {
	case OutputFormatDefault:
		FormatTable(w, entries, resourceName)
	case OutputFormatJSONL:
		if err := FormatJSONL(w, entries); err != nil {
			return fmt.Errorf("failed to format JSONL output: %w", err)
		}
	case OutputFormatJSON:
		if err := FormatJSON(w, entries); err != nil {
			return fmt.Errorf("failed to format JSON output: %w", err)
		}
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
	return nil
}

// ListRecords retrieves the published records of the client's resource and
// writes them to w. Records are scanned with Redis SCAN, filtered, and sorted
// by handle for stable output. Malformed records are skipped with a warning
// to stderr.
func ListRecords(ctx context.Context, client *catalog.Client, format OutputFormat, filters *filter.Criteria, w io.Writer) error {
	ids, err := client.ScanRecordIDs(ctx, "")
	if err != nil {
		return err
	}

	filtering := filters != nil && filters.HasFilters()

	var entries []*catalog.Entry
	for _, id := range ids {
		entry, err := client.GetEntry(ctx, id)
		if err != nil {
			if catalog.IsNotFound(err) {
				// Expired between SCAN and read.
				continue
			}
			fmt.Fprintf(os.Stderr, "⚠️  Skipping malformed record: id=%s (error: %v)\n", id, err)
			continue
		}

		if filtering && !filters.Matches(entry.Record) {
			continue
		}

		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		hi, hj := formatHandle(entries[i]), formatHandle(entries[j])
		if hi != hj {
			return hi < hj
		}
		return entries[i].Record.ID < entries[j].Record.ID
	})

	return Write(w, entries, client.ResourceName(), format)
}
