package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/dyluth/modcat/internal/config"
	"github.com/dyluth/modcat/internal/hoard"
	"github.com/dyluth/modcat/internal/printer"
	"github.com/dyluth/modcat/internal/scan"
	"github.com/spf13/cobra"
)

var (
	scanOutputFormat string
	scanPublish      bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan module trees and build the software catalog",
	Long: `Scan every root of the module search path and build one catalog record
per module file.

The search path comes from --module-path, MODCAT_MODULE_PATH, module_path in
the configuration file, or MODULEPATH, in that order. Scanning without any of
them is an error.

Output Formats:
  default - Human-readable table with ID, Handle, Category and Description
  jsonl   - Line-delimited JSON, one record per line
  json    - A single JSON array

With --publish the catalog is written to Redis instead of being printed.

Examples:
  # Preview the catalog of the current MODULEPATH
  modcat scan

  # Scan a flat tree, leaving out two packages
  modcat scan --module-path /opt/modulefiles --strategy flat --exclude python,perl

  # Publish the catalog
  modcat scan --publish --redis-url redis://catalog:6379/0`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanOutputFormat, "output", "o", "default", "Output format: default, jsonl or json (ignored with --publish)")
	scanCmd.Flags().BoolVar(&scanPublish, "publish", false, "Publish the catalog to Redis")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	outputFormat, err := hoard.ParseOutputFormat(scanOutputFormat)
	if err != nil {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", scanOutputFormat),
			[]string{"Valid formats: default, jsonl, json"},
		)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	scanner, err := scan.New(cfg, logger)
	if err != nil {
		return printer.Error("invalid configuration", err.Error(), nil)
	}

	result, err := scanner.Run(ctx)
	if err != nil {
		if errors.Is(err, config.ErrNoModulePath) {
			return printer.Error(
				"no module search path",
				"Neither the configuration nor the environment names any module roots.",
				[]string{
					"Load your environment modules setup so MODULEPATH is set",
					"Pass the roots explicitly:\n  modcat scan --module-path /opt/modulefiles",
					"Set module_path in modcat.yml:\n  modcat init",
				},
			)
		}
		return printer.ErrorWithContext(
			"scan failed",
			err.Error(),
			map[string]string{"module_path": cfg.ModulePath, "strategy": string(cfg.Strategy)},
			nil,
		)
	}

	if !scanPublish {
		if err := hoard.Write(cmd.OutOrStdout(), result.Entries, cfg.ResourceName, outputFormat); err != nil {
			return printer.Error("failed to write catalog", err.Error(), nil)
		}
		return nil
	}

	if len(result.Entries) == 0 {
		printer.Warning("No module files found under %d module roots\n", len(result.Roots))
	}

	client, err := connectCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	printer.Step("Publishing %d records for %s\n", len(result.Entries), cfg.ResourceName)
	summary, err := client.PublishCatalog(ctx, result.Entries)
	if err != nil {
		return printer.ErrorWithContext(
			"failed to publish catalog",
			err.Error(),
			map[string]string{"resource": cfg.ResourceName},
			[]string{"Records published before the failure expire after their validity. Rerun:\n  modcat scan --publish"},
		)
	}

	printer.Success("Published %d records for %s\n", summary.Records, cfg.ResourceName)
	printer.Field("Strategy", result.Strategy)
	printer.Field("Roots", len(result.Roots))
	printer.Field("Candidates", result.Stats.Candidates)
	printer.Field("Excluded", result.Stats.Excluded)
	printer.Field("Suppressed", result.Stats.Suppressed)
	printer.Field("Valid for", cfg.ValidityDuration().Round(time.Second))
	return nil
}
