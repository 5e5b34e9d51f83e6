package hoard

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dyluth/modcat/pkg/catalog"
)

// FormatTable writes entries as a formatted table to the provided writer.
// The table includes columns: ID, HANDLE, CATEGORY, STATUS, AGE and DESCRIPTION (truncated).
// Returns the number of entries formatted.
func FormatTable(w io.Writer, entries []*catalog.Entry, resourceName string) int {
	if len(entries) == 0 {
		fmt.Fprintf(w, "No records found for resource '%s'\n", resourceName)
		return 0
	}

	fmt.Fprintf(w, "Records for resource '%s':\n\n", resourceName)

	fmt.Fprintf(w, "%-8s  %-28s %-14s %-11s %-8s %s\n",
		"ID", "HANDLE", "CATEGORY", "STATUS", "AGE", "DESCRIPTION")
	fmt.Fprintf(w, "%-8s  %-28s %-14s %-11s %-8s %s\n",
		"--------", "----------------------------", "--------------", "-----------", "--------", "----------------------------------------")

	for _, e := range entries {
		r := e.Record
		fmt.Fprintf(w, "%-8s  %-28s %-14s %-11s %-8s %s\n",
			formatID(r.ID),
			truncate(formatHandle(e), 28),
			truncate(formatList(r.Extension.Categories), 14),
			truncate(orDash(r.Extension.SupportStatus), 11),
			formatTimestamp(r.CreatedAtMs),
			formatDescription(r.Description),
		)
	}

	countMsg := "record"
	if len(entries) != 1 {
		countMsg = "records"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(entries), countMsg)

	return len(entries)
}

// FormatJSONL writes entries as line-delimited JSON (JSONL) to the provided writer.
// Each entry is written as a single JSON object on its own line.
func FormatJSONL(w io.Writer, entries []*catalog.Entry) error {
	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal record to JSON: %w", err)
		}

		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}

	return nil
}

// FormatJSON writes entries as one pretty-printed JSON array.
// An empty list is written as [].
func FormatJSON(w io.Writer, entries []*catalog.Entry) error {
	if entries == nil {
		entries = []*catalog.Entry{}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records to JSON: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)

	return nil
}

// FormatSingleJSON writes a single entry as pretty-printed JSON to the provided writer.
func FormatSingleJSON(w io.Writer, entry *catalog.Entry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record to JSON: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)

	return nil
}

// formatID truncates a record ID to its first 8 characters.
func formatID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatHandle returns the first handle value, falling back to the record's own handle.
func formatHandle(e *catalog.Entry) string {
	if len(e.Handles) > 0 {
		return e.Handles[0].Value
	}
	return e.Record.Handle().Value
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ",")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatDescription shows the first non-empty line, at most 40 characters.
func formatDescription(description string) string {
	for _, line := range strings.Split(description, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return truncate(trimmed, 40)
		}
	}
	return "-"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// formatTimestamp formats Unix milliseconds as a relative age like "2m ago".
func formatTimestamp(timestampMs int64) string {
	if timestampMs == 0 {
		return "-"
	}

	diff := time.Since(time.UnixMilli(timestampMs))

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
