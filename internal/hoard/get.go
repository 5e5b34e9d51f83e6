package hoard

import (
	"context"
	"fmt"
	"io"

	"github.com/dyluth/modcat/pkg/catalog"
	"github.com/google/uuid"
)

// GetRecord retrieves a single record by ID and writes it as pretty-printed JSON to the writer.
// Returns an error if the record ID is invalid or the record does not exist.
func GetRecord(ctx context.Context, client *catalog.Client, recordID string, w io.Writer) error {
	if _, err := uuid.Parse(recordID); err != nil {
		return fmt.Errorf("invalid record ID format: must be a valid UUID")
	}

	entry, err := client.GetEntry(ctx, recordID)
	if err != nil {
		if catalog.IsNotFound(err) {
			return &RecordNotFoundError{RecordID: recordID}
		}
		return fmt.Errorf("failed to fetch record: %w", err)
	}

	if err := FormatSingleJSON(w, entry); err != nil {
		return fmt.Errorf("failed to format record: %w", err)
	}

	return nil
}

// RecordNotFoundError represents a specific "record not found" error.
// This allows callers to distinguish not-found errors from other failures.
type RecordNotFoundError struct {
	RecordID string
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("record with ID '%s' not found", e.RecordID)
}

// IsNotFound returns true if the error is a RecordNotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*RecordNotFoundError)
	return ok
}
