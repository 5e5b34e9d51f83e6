package commands

import (
	"fmt"

	"github.com/dyluth/modcat/internal/filter"
	"github.com/dyluth/modcat/internal/hoard"
	"github.com/dyluth/modcat/internal/printer"
	"github.com/dyluth/modcat/internal/resolver"
	"github.com/dyluth/modcat/internal/timespec"
	"github.com/spf13/cobra"
)

var (
	hoardOutputFormat  string
	hoardSince         string
	hoardUntil         string
	hoardName          string
	hoardCategory      string
	hoardSupportStatus string
)

var hoardCmd = &cobra.Command{
	Use:   "hoard [RECORD]",
	Short: "Inspect published catalog records with filtering",
	Long: `Inspect the published catalog of a resource in list or get mode.

List Mode (no RECORD):
  Displays records matching filters as a table, JSONL stream or JSON array.

Get Mode (with RECORD):
  Displays one record with its handles as pretty-printed JSON.
  RECORD is a full record ID, a short ID prefix (at least 6 characters)
  or a handle such as "gcc/9.2.0".

Time Filters (list mode only):
  --since  - Show records scanned after this time
  --until  - Show records scanned before this time

Content Filters (list mode only):
  --name            - Filter by module name (glob pattern: "py*")
  --category        - Filter by category (exact match)
  --support-status  - Filter by support status (exact match)

Examples:
  # List the catalog of this host
  modcat hoard

  # Compilers scanned in the last day
  modcat hoard --category=compilers --since=1d

  # Pipe records to jq
  modcat hoard --output=jsonl | jq -r '.record.name'

  # Get one record
  modcat hoard gcc/9.2.0`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHoard,
}

func init() {
	hoardCmd.Flags().StringVarP(&hoardOutputFormat, "output", "o", "default", "Output format: default, jsonl or json (ignored in get mode)")

	// Time-based filters
	hoardCmd.Flags().StringVar(&hoardSince, "since", "", "Show records created after time (duration or RFC3339)")
	hoardCmd.Flags().StringVar(&hoardUntil, "until", "", "Show records created before time (duration or RFC3339)")

	// Content-based filters
	hoardCmd.Flags().StringVar(&hoardName, "name", "", "Filter by module name (glob pattern)")
	hoardCmd.Flags().StringVar(&hoardCategory, "category", "", "Filter by category (exact match)")
	hoardCmd.Flags().StringVar(&hoardSupportStatus, "support-status", "", "Filter by support status (exact match)")

	rootCmd.AddCommand(hoardCmd)
}

func runHoard(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	isGetMode := len(args) > 0

	var outputFormat hoard.OutputFormat
	if !isGetMode {
		var err error
		outputFormat, err = hoard.ParseOutputFormat(hoardOutputFormat)
		if err != nil {
			return printer.Error(
				"invalid output format",
				fmt.Sprintf("Unknown format: %s", hoardOutputFormat),
				[]string{"Valid formats: default, jsonl, json"},
			)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := connectCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	if !isGetMode {
		sinceMS, untilMS, err := timespec.ParseRange(hoardSince, hoardUntil)
		if err != nil {
			return printer.Error(
				"invalid time filter",
				err.Error(),
				[]string{"Use a duration like '2h', '7d' or RFC3339 like '2026-10-01T00:00:00Z'"},
			)
		}

		criteria := &filter.Criteria{
			SinceTimestampMs: sinceMS,
			UntilTimestampMs: untilMS,
			NameGlob:         hoardName,
			Category:         hoardCategory,
			SupportStatus:    hoardSupportStatus,
		}

		if err := hoard.ListRecords(ctx, client, outputFormat, criteria, cmd.OutOrStdout()); err != nil {
			return printer.ErrorWithContext(
				"failed to list records",
				err.Error(),
				map[string]string{"resource": cfg.ResourceName},
				nil,
			)
		}
		return nil
	}

	ref := args[0]
	recordID, err := resolver.ResolveRecordID(ctx, client, ref)
	if err != nil {
		if resolver.IsNotFoundError(err) {
			return printer.Error(
				fmt.Sprintf("record '%s' not found", ref),
				fmt.Sprintf("No published record of resource '%s' matches.", cfg.ResourceName),
				[]string{
					"List all records:\n  modcat hoard",
					"Publish the catalog first:\n  modcat scan --publish",
				},
			)
		}
		if resolver.IsAmbiguousError(err) {
			ambigErr := err.(*resolver.AmbiguousError)
			fmt.Fprintln(cmd.ErrOrStderr(), resolver.FormatAmbiguousError(ambigErr))
			return printer.Error("ambiguous record reference", "", nil)
		}
		return printer.Error("failed to resolve record", err.Error(), nil)
	}

	if err := hoard.GetRecord(ctx, client, recordID, cmd.OutOrStdout()); err != nil {
		if hoard.IsNotFound(err) {
			return printer.Error(
				fmt.Sprintf("record '%s' not found", recordID),
				"The record was resolved but expired before it could be fetched.",
				[]string{"Republish the catalog:\n  modcat scan --publish"},
			)
		}
		return printer.Error("failed to get record", err.Error(), nil)
	}
	return nil
}
