package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dyluth/modcat/pkg/catalog"
)

// OutputFormat specifies how streamed events are written.
type OutputFormat string

const (
	// OutputFormatDefault writes one human-readable line per event
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSON writes line-delimited JSON
	OutputFormatJSON OutputFormat = "json"
)

// StreamRecords writes every record published for the client's resource until
// ctx is cancelled. Malformed events are reported inline and skipped.
func StreamRecords(ctx context.Context, client *catalog.Client, format OutputFormat, w io.Writer) error {
	sub, err := client.SubscribeRecordEvents(ctx)
	if err != nil {
		return err
	}
	defer sub.Close()

	events, errs := sub.Events(), sub.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil

		case entry, ok := <-events:
			if !ok {
				return nil
			}
			if err := writeEvent(w, entry, format); err != nil {
				return err
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if format == OutputFormatDefault {
				fmt.Fprintf(w, "⚠️  %v\n", err)
			}
		}
	}
}

func writeEvent(w io.Writer, entry *catalog.Entry, format OutputFormat) error {
	switch format {
	case OutputFormatJSON:
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	default:
		_, err := fmt.Fprintln(w, FormatEvent(entry, time.Now()))
		return err
	}
}

// FormatEvent renders a publication event as a single line.
func FormatEvent(entry *catalog.Entry, at time.Time) string {
	r := entry.Record

	handle := r.Handle().Value
	if len(entry.Handles) > 0 {
		handle = entry.Handles[0].Value
	}

	id := r.ID
	if len(id) > 8 {
		id = id[:8]
	}

	line := fmt.Sprintf("[%s] 📦 Published: %s (id=%s)", at.Format("15:04:05"), handle, id)
	if r.Description != "" {
		line += " " + r.Description
	}
	return line
}

// WaitForHandle polls until a record is published under handle.
// Returns the first matching entry or an error if timeout occurs.
// Polls every 200ms for the specified timeout duration.
func WaitForHandle(ctx context.Context, client *catalog.Client, handle string, timeout time.Duration) (*catalog.Entry, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-timeoutCh:
			return nil, fmt.Errorf("timeout waiting for %s after %v", handle, timeout)

		case <-ticker.C:
			ids, err := client.RecordIDsForHandle(ctx, handle)
			if err != nil {
				return nil, err
			}
			for _, id := range ids {
				entry, err := client.GetEntry(ctx, id)
				if err != nil {
					if catalog.IsNotFound(err) {
						// Expired since indexed, keep polling
						continue
					}
					return nil, fmt.Errorf("failed to read record: %w", err)
				}
				return entry, nil
			}
		}
	}
}
