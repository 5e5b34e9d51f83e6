package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/modcat/internal/hoard"
	"github.com/dyluth/modcat/internal/printer"
	"github.com/dyluth/modcat/internal/watch"
	"github.com/spf13/cobra"
)

var (
	watchOutputFormat string
	watchWaitHandle   string
	watchTimeout      time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow catalog publications in real time",
	Long: `Stream every record published for the resource as it happens.

Output Formats:
  default - Human-readable output with timestamps and emojis
  json    - Line-delimited JSON for programmatic processing

With --wait the command instead blocks until a record with the given handle
is published, prints it and exits.

Examples:
  # Follow publications
  modcat watch

  # Export events as JSON
  modcat watch --output=json > events.jsonl

  # Block until a new build appears in the catalog
  modcat watch --wait gcc/14.1.0 --timeout 10m`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or json)")
	watchCmd.Flags().StringVar(&watchWaitHandle, "wait", "", "Wait for a record with this handle, then exit")
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", 5*time.Minute, "Maximum time to wait with --wait")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var outputFormat watch.OutputFormat
	switch watchOutputFormat {
	case "default":
		outputFormat = watch.OutputFormatDefault
	case "json":
		outputFormat = watch.OutputFormatJSON
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, json"},
		)
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

	if watchWaitHandle != "" {
		entry, err := watch.WaitForHandle(ctx, client, watchWaitHandle, watchTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return printer.Error(
				fmt.Sprintf("%s was not published", watchWaitHandle),
				err.Error(),
				[]string{"Increase the wait:\n  modcat watch --wait " + watchWaitHandle + " --timeout 30m"},
			)
		}
		if outputFormat == watch.OutputFormatJSON {
			if err := hoard.FormatSingleJSON(cmd.OutOrStdout(), entry); err != nil {
				return printer.Error("failed to write record", err.Error(), nil)
			}
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), watch.FormatEvent(entry, time.Now()))
		return nil
	}

	if outputFormat == watch.OutputFormatDefault {
		printer.Info("Watching catalog of %s (Ctrl+C to stop)\n", cfg.ResourceName)
	}

	err = watch.StreamRecords(ctx, client, outputFormat, cmd.OutOrStdout())
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return printer.ErrorWithContext(
		"watch stopped",
		err.Error(),
		map[string]string{"resource": cfg.ResourceName},
		nil,
	)
}
