package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/namesweep/namesweep/internal/checkpoint"
	"github.com/namesweep/namesweep/internal/client"
	"github.com/namesweep/namesweep/internal/config"
	"github.com/namesweep/namesweep/internal/crawler"
	"github.com/namesweep/namesweep/internal/database"
	nslog "github.com/namesweep/namesweep/internal/log"
	"github.com/namesweep/namesweep/internal/model"
	"github.com/namesweep/namesweep/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Enumerate every name behind an autocomplete endpoint",
		Long: `Crawl queries the service's autocomplete endpoint with successively
longer prefixes, using truncated result pages to decide which branches
still hide names. The crawl finishes when no queued prefix can reveal
anything new.

State is checkpointed periodically; rerunning with the same checkpoint
file resumes an interrupted crawl instead of starting over.

Examples:
  # Crawl a local v3 endpoint
  namesweep crawl --url http://localhost:8000

  # Older API version with its smaller result cap
  namesweep crawl --url http://localhost:8000 --api-version 1

  # Include punctuation characters in the search alphabet
  namesweep crawl --url http://localhost:8000 --punctuation

  # Resume from an explicit checkpoint and emit a Markdown summary
  namesweep crawl --url http://localhost:8000 --checkpoint run1.json --markdown

Configuration file (.namesweep) example:
  base_url: http://localhost:8000
  api_version: 3
  workers: 5
  min_delay: 800ms
  max_delay: 3s`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	// Target flags
	cmd.Flags().StringP("url", "u", "", "Base URL of the lookup service (required unless set in config file)")
	cmd.Flags().Int("api-version", config.DefaultAPIVersion, "Autocomplete API version (1, 2, or 3)")
	cmd.Flags().Int("max-results", 0, "max_results sent per query (default: the version's cap)")
	cmd.Flags().Bool("punctuation", false, "Include punctuation characters in the search alphabet")

	// Crawl behavior flags
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers, "Number of concurrent crawl workers")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Per-request HTTP timeout")
	cmd.Flags().Int("max-attempts", config.DefaultMaxAttempts, "Retry budget per lookup before abandoning the prefix")
	cmd.Flags().String("user-agent", config.DefaultUserAgent, "User-Agent header sent with every request")

	// Pacing flags
	cmd.Flags().Duration("initial-delay", config.DefaultInitialDelay, "Starting inter-request delay")
	cmd.Flags().Duration("min-delay", config.DefaultMinDelay, "Adaptive delay floor")
	cmd.Flags().Duration("max-delay", config.DefaultMaxDelay, "Adaptive delay ceiling")
	cmd.Flags().Duration("jitter", config.DefaultRequestJitter, "Random delay bound added before each request")

	// Checkpoint flags
	cmd.Flags().String("checkpoint", config.DefaultCheckpointFile, "Checkpoint file path (empty disables checkpointing)")
	cmd.Flags().Int("checkpoint-requests", config.DefaultCheckpointRequests, "Save a checkpoint every N requests (0 disables)")
	cmd.Flags().Duration("checkpoint-interval", config.DefaultCheckpointInterval, "Save a checkpoint after this much elapsed time (0 disables)")

	// Output and report flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputFile, "Results JSON file path")
	cmd.Flags().BoolP("json", "j", false, "Print the run summary as JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false, "Print the run summary as Markdown (mutually exclusive with --json)")
	cmd.Flags().String("report-file", "", "Also write the run summary to this file")

	// Persistence and observability flags
	cmd.Flags().String("db-dir", "", "SQLite query log directory (default: XDG data dir)")
	cmd.Flags().Bool("no-db", false, "Disable the SQLite query log")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. 127.0.0.1:9190)")
	cmd.Flags().Int("cache-size", config.DefaultCacheSize, "Response cache capacity (0 disables)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .namesweep in current or home directory)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildCrawlConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, finishing in-flight work...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// buildCrawlConfig creates a Config from the config file and flags.
// Precedence: built-in defaults < config file < explicitly set flags.
func buildCrawlConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicitly requested config file must exist; the implicit
	// search may come up empty.
	found := config.FindConfigFile(configPath)
	if found == "" && configPath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configPath)
	}
	if found != "" {
		cf, err := config.LoadConfigFile(found)
		if err != nil {
			return nil, fmt.Errorf("load config file %s: %w", found, err)
		}
		if err := cf.Apply(cfg); err != nil {
			return nil, fmt.Errorf("apply config file %s: %w", found, err)
		}
	}

	// Flags override file values only when the user set them, so a
	// file-provided worker count survives the flag's default.
	stringFlags := map[string]*string{
		"url":          &cfg.BaseURL,
		"user-agent":   &cfg.UserAgent,
		"checkpoint":   &cfg.CheckpointPath,
		"output":       &cfg.OutputPath,
		"report-file":  &cfg.ReportFile,
		"db-dir":       &cfg.DBDir,
		"metrics-addr": &cfg.MetricsAddr,
	}
	for name, dst := range stringFlags {
		if flags.Changed(name) {
			if *dst, err = flags.GetString(name); err != nil {
				return nil, err
			}
		}
	}

	intFlags := map[string]*int{
		"api-version":         &cfg.APIVersion,
		"max-results":         &cfg.MaxResults,
		"workers":             &cfg.Workers,
		"max-attempts":        &cfg.MaxAttempts,
		"checkpoint-requests": &cfg.CheckpointRequests,
		"cache-size":          &cfg.CacheSize,
	}
	for name, dst := range intFlags {
		if flags.Changed(name) {
			if *dst, err = flags.GetInt(name); err != nil {
				return nil, err
			}
		}
	}

	durationFlags := map[string]*time.Duration{
		"timeout":             &cfg.Timeout,
		"initial-delay":       &cfg.InitialDelay,
		"min-delay":           &cfg.MinDelay,
		"max-delay":           &cfg.MaxDelay,
		"jitter":              &cfg.RequestJitter,
		"checkpoint-interval": &cfg.CheckpointInterval,
	}
	for name, dst := range durationFlags {
		if flags.Changed(name) {
			if *dst, err = flags.GetDuration(name); err != nil {
				return nil, err
			}
		}
	}

	if flags.Changed("punctuation") {
		if cfg.IncludePunctuation, err = flags.GetBool("punctuation"); err != nil {
			return nil, err
		}
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}

	// Query log goes to the XDG data directory unless redirected or
	// disabled.
	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	if noDB {
		cfg.DBDir = ""
	} else if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates a structured logger based on verbosity setting.
// Attribute values are truncated so a giant result page never floods
// the log.
func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	return slog.New(nslog.NewTruncateHandler(handler, nslog.DefaultMaxValueLen))
}

// runCrawl executes the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"baseURL", cfg.BaseURL,
		"apiVersion", cfg.APIVersion,
		"maxResults", cfg.EffectiveMaxResults(),
		"workers", cfg.Workers,
		"charset", cfg.Charset().All(),
	)

	rate := crawler.NewRateController(cfg.InitialDelay, cfg.MinDelay, cfg.MaxDelay, logger)

	httpClient := &http.Client{Timeout: cfg.Timeout}
	fetcher, err := client.New(httpClient, cfg.BaseURL,
		client.WithAPIVersion(cfg.APIVersion),
		client.WithMaxResults(cfg.EffectiveMaxResults()),
		client.WithMaxRetries(cfg.MaxAttempts),
		client.WithUserAgent(cfg.UserAgent),
		client.WithRequestJitter(cfg.RequestJitter),
		client.WithRateReporter(rate),
		client.WithLogger(logger),
		client.WithCacheSize(cfg.CacheSize),
	)
	if err != nil {
		return fmt.Errorf("create lookup client: %w", err)
	}

	metrics := crawler.NewMetrics()
	if cfg.MetricsAddr != "" {
		stopMetrics := serveMetrics(cfg.MetricsAddr, metrics, logger)
		defer stopMetrics()
	}

	opts := []crawler.CrawlerOption{
		crawler.WithLogger(logger),
		crawler.WithMetrics(metrics),
		crawler.WithRateController(rate),
	}

	if cfg.CheckpointPath != "" {
		mgr := checkpoint.NewManager(
			cfg.CheckpointPath,
			int64(cfg.CheckpointRequests),
			cfg.CheckpointInterval,
			logger,
		)
		opts = append(opts, crawler.WithCheckpointManager(mgr))
	}

	var db *database.CrawlDB
	if cfg.DBDir != "" {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("open query log: %w", err)
		}
		defer db.Close()
		logger.Info("query log opened", "dir", cfg.DBDir)
		opts = append(opts, crawler.WithRecorder(db))
	}

	cr := crawler.New(cfg, fetcher, opts...)

	rep, err := cr.Run(ctx)
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	if db != nil {
		if err := db.SetMeta(context.Background(),
			"request_count", fmt.Sprintf("%d", rep.TotalRequests)); err != nil {
			logger.Warn("record request count", "error", err)
		}
	}

	if err := report.SaveJSON(cfg.OutputPath, rep); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	logger.Info("results written", "path", cfg.OutputPath, "names", rep.TotalNames)

	return writeSummary(cfg, rep)
}

// serveMetrics exposes the crawl's Prometheus registry over HTTP for
// the run's duration. The returned function shuts the server down.
func serveMetrics(addr string, metrics *crawler.Metrics, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

// writeSummary prints the run summary in the selected format, and
// mirrors it to the report file when one is configured.
func writeSummary(cfg *config.Config, rep *model.CrawlReport) error {
	writers := []report.Writer{newSummaryWriter(cfg, os.Stdout)}

	if cfg.ReportFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.ReportFile), 0o750); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
		f, err := os.Create(cfg.ReportFile) //nolint:gosec // User-provided report path is intentional
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		defer f.Close()
		writers = append(writers, newSummaryWriter(cfg, f))
	}

	if _, err := report.NewMultiWriter(writers...).Write(rep); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

func newSummaryWriter(cfg *config.Config, out *os.File) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(out, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}
}
