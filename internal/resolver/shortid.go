package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/dyluth/modcat/pkg/catalog"
)

// MinShortIDLength is the minimum required length for short ID prefixes.
const MinShortIDLength = 6

// ResolveRecordID resolves a user-supplied reference to a full record ID.
//
// The reference may be:
//  1. a full UUID (36 chars, 4 hyphens), whose existence is verified
//  2. a module handle such as "gcc/9.2.0", looked up in the handle index
//  3. a short ID prefix of at least MinShortIDLength characters
func ResolveRecordID(ctx context.Context, client *catalog.Client, ref string) (string, error) {
	if len(ref) == 36 && strings.Count(ref, "-") == 4 {
		exists, err := client.RecordExists(ctx, ref)
		if err != nil {
			return "", fmt.Errorf("failed to verify record existence: %w", err)
		}
		if !exists {
			return "", &NotFoundError{Ref: ref}
		}
		return ref, nil
	}

	byHandle, err := client.RecordIDsForHandle(ctx, ref)
	if err != nil {
		return "", err
	}
	switch len(byHandle) {
	case 0:
	case 1:
		return byHandle[0], nil
	default:
		return "", &AmbiguousError{Ref: ref, Matches: byHandle}
	}

	if len(ref) < MinShortIDLength {
		return "", fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(ref))
	}

	matches, err := client.ScanRecordIDs(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("failed to search for record: %w", err)
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{Ref: ref}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{Ref: ref, Matches: matches}
	}
}

// NotFoundError indicates no record matched the reference.
type NotFoundError struct {
	Ref string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no records found matching '%s'", e.Ref)
}

// AmbiguousError indicates multiple records matched the reference.
type AmbiguousError struct {
	Ref     string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous reference '%s' matches %d records", e.Ref, len(e.Matches))
}

// FormatAmbiguousError creates a user-friendly error message for ambiguous references.
// Lists all matching IDs (up to 10, then "...and N more").
func FormatAmbiguousError(err *AmbiguousError) string {
	msg := fmt.Sprintf("Error: ambiguous reference '%s' matches %d records:\n", err.Ref, len(err.Matches))

	displayCount := len(err.Matches)
	if displayCount > 10 {
		displayCount = 10
	}

	for i := 0; i < displayCount; i++ {
		msg += fmt.Sprintf("  %s\n", err.Matches[i])
	}

	if len(err.Matches) > 10 {
		msg += fmt.Sprintf("  ...and %d more\n", len(err.Matches)-10)
	}

	msg += "\nUse a longer prefix or the full record ID."
	return msg
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	_, ok := err.(*AmbiguousError)
	return ok
}
