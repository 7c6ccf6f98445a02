package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/namesweep/namesweep/internal/config"
	"github.com/namesweep/namesweep/internal/database"
	"github.com/namesweep/namesweep/internal/model"
	"github.com/namesweep/namesweep/internal/report"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export discovered names from the query log",
		Long: `Export reads the SQLite query log written by previous crawl runs and
emits the discovered names in the standard results JSON schema. Use it
to recover results without re-crawling, or to merge the output of
several runs that shared a query log.

Examples:
  # Print all logged names as JSON
  namesweep export

  # Write to a file from a custom log directory
  namesweep export --db-dir ./run1 --output names.json`,
		Args: cobra.NoArgs,
		RunE: runExportCmd,
	}

	cmd.Flags().String("db-dir", "", "SQLite query log directory (default: XDG data dir)")
	cmd.Flags().StringP("output", "o", "", "Write JSON to this file instead of stdout")

	return cmd
}

// runExportCmd executes the export command.
func runExportCmd(cmd *cobra.Command, _ []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("open query log: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()

	names, err := db.Names(ctx)
	if err != nil {
		return fmt.Errorf("read names: %w", err)
	}
	if names == nil {
		names = []string{}
	}

	// The live request counter is stored at the end of each run; fall
	// back to the number of logged queries for logs from aborted runs.
	var totalRequests int64
	if raw, err := db.GetMeta(ctx, "request_count"); err == nil && raw != "" {
		totalRequests, _ = strconv.ParseInt(raw, 10, 64)
	}
	if totalRequests == 0 {
		count, err := db.QueryCount(ctx)
		if err != nil {
			return fmt.Errorf("count queries: %w", err)
		}
		totalRequests = int64(count)
	}

	rep := &model.CrawlReport{
		TotalRequests: totalRequests,
		TotalNames:    len(names),
		Names:         names,
	}

	if outputPath != "" {
		if err := report.SaveJSON(outputPath, rep); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d names to %s\n", len(names), outputPath)
		return nil
	}

	_, err = report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint()).Write(rep)
	return err
}
