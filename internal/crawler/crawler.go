package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/namesweep/namesweep/internal/checkpoint"
	"github.com/namesweep/namesweep/internal/client"
	"github.com/namesweep/namesweep/internal/config"
	"github.com/namesweep/namesweep/internal/model"
)

// Initial frontier priorities: alphanumeric roots are explored before
// punctuation roots.
const (
	seedPrimaryPriority = 1
	seedSpecialPriority = 2

	// quiescenceGrace is the settle interval between the two halves of
	// the completion check. The check is distributed, not atomic: a
	// worker may have popped the last item but not yet raised the
	// in-flight counter, so an apparently idle pool is re-examined
	// after this interval before the crawl is declared done.
	quiescenceGrace = 200 * time.Millisecond
)

// Fetcher issues one autocomplete lookup per call. *client.Client is
// the production implementation.
type Fetcher interface {
	Fetch(ctx context.Context, prefix string) (*model.QueryResult, error)
	Requests() int64
	RestoreRequests(n int64)
}

// Recorder persists per-query outcomes, typically to the SQLite query
// log. Recording failures are logged and never stop the crawl.
type Recorder interface {
	RecordQuery(ctx context.Context, res *model.QueryResult) error
	RecordNames(ctx context.Context, sourcePrefix string, names []string) error
}

// Checkpointer persists and restores crawl snapshots.
// *checkpoint.Manager is the production implementation.
type Checkpointer interface {
	ShouldSave(requestCount int64) bool
	Save(rec *checkpoint.Record) error
	Load() (*checkpoint.Record, error)
}

// Crawler drives the whole extraction: it owns the frontier, the
// shared name and explored sets, the adaptive rate controller, and the
// worker pool that ties them together.
type Crawler struct {
	cfg      *config.Config
	fetcher  Fetcher
	frontier *Frontier
	names    *NameSet
	explored *ExploredSet
	rate     *RateController
	stats    *model.LengthStats
	metrics  *Metrics
	ckpt     Checkpointer
	recorder Recorder
	logger   *slog.Logger
	charset  model.Charset

	maxResults int
	inflight   atomic.Int64
	start      time.Time
}

// CrawlerOption configures a Crawler.
type CrawlerOption func(*Crawler)

// WithLogger sets the crawl logger.
func WithLogger(logger *slog.Logger) CrawlerOption {
	return func(c *Crawler) { c.logger = logger }
}

// WithMetrics wires Prometheus collectors into the crawl.
func WithMetrics(m *Metrics) CrawlerOption {
	return func(c *Crawler) { c.metrics = m }
}

// WithCheckpointManager enables periodic checkpointing and resume.
func WithCheckpointManager(m Checkpointer) CrawlerOption {
	return func(c *Crawler) { c.ckpt = m }
}

// WithRecorder persists query outcomes through the given Recorder.
func WithRecorder(r Recorder) CrawlerOption {
	return func(c *Crawler) { c.recorder = r }
}

// WithRateController replaces the controller built from the config,
// used by tests to observe delay evolution directly.
func WithRateController(rc *RateController) CrawlerOption {
	return func(c *Crawler) { c.rate = rc }
}

// New creates a Crawler. The fetcher is injected so transports and
// failure modes can be simulated in tests.
func New(cfg *config.Config, fetcher Fetcher, opts ...CrawlerOption) *Crawler {
	c := &Crawler{
		cfg:        cfg,
		fetcher:    fetcher,
		frontier:   NewFrontier(),
		names:      NewNameSet(),
		explored:   NewExploredSet(),
		stats:      model.NewLengthStats(),
		charset:    cfg.Charset(),
		maxResults: cfg.EffectiveMaxResults(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.rate == nil {
		c.rate = NewRateController(cfg.InitialDelay, cfg.MinDelay, cfg.MaxDelay, c.logger)
	}
	if c.metrics != nil {
		c.rate.SetOnChange(c.metrics.SetAdaptiveDelay)
		c.metrics.SetAdaptiveDelay(c.rate.Delay())
	}
	return c
}

// RateController returns the controller gating the worker pool, so
// the fetcher can be wired to report outcomes into it.
func (c *Crawler) RateController() *RateController { return c.rate }

// Names returns the shared discovered-name set.
func (c *Crawler) Names() *NameSet { return c.names }

// Explored returns the shared explored-prefix set.
func (c *Crawler) Explored() *ExploredSet { return c.explored }

// Run executes the crawl to quiescence or context cancellation and
// returns the final report. A cancelled context is a graceful stop,
// not an error: in-flight lookups finish, a final checkpoint is saved,
// and the partial report is returned. The only fatal error is a
// back-to-back double failure writing a checkpoint.
func (c *Crawler) Run(ctx context.Context) (*model.CrawlReport, error) {
	c.start = time.Now()

	resumed, err := c.restore()
	if err != nil {
		c.logger.Warn("checkpoint restore failed, starting fresh", "error", err)
	}
	if !resumed {
		c.seedFrontier()
	}

	c.logger.Info("starting crawl",
		"workers", c.cfg.Workers,
		"max_results", c.maxResults,
		"charset_size", len(c.charset.All()),
		"frontier", c.frontier.Len(),
		"resumed", resumed,
	)

	statusDone := make(chan struct{})
	go c.statusLoop(ctx, statusDone)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)
	for i := 0; i < c.cfg.Workers; i++ {
		g.Go(func() error { return c.worker(gctx) })
	}
	runErr := g.Wait()
	close(statusDone)

	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		runErr = nil
	}

	c.finalCheckpoint()

	report := c.buildReport()
	report.Interrupted = ctx.Err() != nil
	c.logger.Info("crawl finished",
		"names", report.TotalNames,
		"requests", report.TotalRequests,
		"explored", report.ExploredPrefixes,
		"elapsed", report.Elapsed.Round(time.Second),
		"interrupted", report.Interrupted,
	)
	return report, runErr
}

// seedFrontier queues every single-character prefix of the charset.
func (c *Crawler) seedFrontier() {
	for i := 0; i < len(c.charset.Primary); i++ {
		c.frontier.Push(string(c.charset.Primary[i]), seedPrimaryPriority)
	}
	for i := 0; i < len(c.charset.Special); i++ {
		c.frontier.Push(string(c.charset.Special[i]), seedSpecialPriority)
	}
	c.metrics.SetFrontierSize(c.frontier.Len())
}

// restore loads the checkpoint, if any, and rebuilds an equivalent
// frontier. Returns true when state was restored.
func (c *Crawler) restore() (bool, error) {
	if c.ckpt == nil {
		return false, nil
	}
	rec, err := c.ckpt.Load()
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}

	c.names.Add(rec.DiscoveredNames...)
	for _, p := range rec.ExploredPrefixes {
		c.explored.Add(p)
	}
	c.stats.Restore(rec.PrefixLengthStats)
	c.fetcher.RestoreRequests(rec.RequestCount)
	c.frontier.MarkSeen(rec.ExploredPrefixes...)

	queued := checkpoint.RebuildFrontier(rec, c.charset, c.frontier.Push)
	c.metrics.SetFrontierSize(c.frontier.Len())
	c.metrics.AddNames(len(rec.DiscoveredNames))

	c.logger.Info("resumed from checkpoint",
		"names", len(rec.DiscoveredNames),
		"explored", len(rec.ExploredPrefixes),
		"requests", rec.RequestCount,
		"frontier", queued,
	)
	return true, nil
}

// worker is one pool member: pop, fetch, expand, record, sleep, until
// quiescence or cancellation.
func (c *Crawler) worker(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		item, ok := c.frontier.Pop(c.cfg.PopTimeout)
		if !ok {
			if c.quiescent() {
				// Settle and recheck: another worker may be about to
				// push children it popped moments ago.
				if err := sleepCtx(ctx, quiescenceGrace); err != nil {
					return nil
				}
				if c.quiescent() {
					return nil
				}
			}
			continue
		}

		c.inflight.Add(1)
		err := c.process(ctx, item)
		c.inflight.Add(-1)
		if err != nil {
			return err
		}
	}
}

// quiescent reports whether the crawl appears complete: empty frontier
// and no worker mid-cycle.
func (c *Crawler) quiescent() bool {
	return c.frontier.Len() == 0 && c.inflight.Load() == 0
}

// process handles one dequeued prefix end to end. Its only error is a
// fatal checkpoint failure.
func (c *Crawler) process(ctx context.Context, item Item) error {
	prefix := item.Prefix

	// A prefix can arrive twice across a checkpoint resume boundary;
	// skipping here keeps the no-redundant-work invariant.
	if c.explored.Contains(prefix) {
		return nil
	}

	res, err := c.fetcher.Fetch(ctx, prefix)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		c.metrics.IncError(classifyLabel(err))
		c.logger.Warn("prefix abandoned",
			"prefix", prefix,
			"error", err,
		)
		// The loss is accepted for this run; the prefix still counts
		// as explored so the crawl can terminate.
		c.markExplored(prefix)
		return nil
	}

	if !res.Cached {
		c.stats.Record(len(prefix), len(res.Names) > 0)
	}
	c.metrics.ObserveFetch(fetchOutcome(res), res.Duration, res.Attempts-1)

	names, children := Expand(prefix, res.Names, c.maxResults, c.charset)
	added := c.names.Add(names...)
	c.metrics.AddNames(added)

	for _, child := range children {
		if c.explored.Contains(child.Prefix) {
			continue
		}
		c.frontier.Push(child.Prefix, child.Priority)
	}
	c.metrics.SetFrontierSize(c.frontier.Len())

	c.markExplored(prefix)
	c.record(ctx, res, names)

	if err := c.maybeCheckpoint(); err != nil {
		return err
	}

	// Mandatory inter-request delay; deeper prefixes get a reduced
	// share.
	if err := sleepCtx(ctx, c.rate.DelayFor(len(prefix))); err != nil {
		return nil //nolint:nilerr // Cancellation is a graceful stop.
	}
	return nil
}

func (c *Crawler) markExplored(prefix string) {
	if c.explored.Add(prefix) {
		c.metrics.IncExplored()
	}
}

// record persists the query outcome; failures are logged only.
func (c *Crawler) record(ctx context.Context, res *model.QueryResult, names []string) {
	if c.recorder == nil || res.Cached {
		return
	}
	if err := c.recorder.RecordQuery(ctx, res); err != nil {
		c.logger.Warn("query log write failed", "prefix", res.Prefix, "error", err)
		return
	}
	if err := c.recorder.RecordNames(ctx, res.Prefix, names); err != nil {
		c.logger.Warn("name store write failed", "prefix", res.Prefix, "error", err)
	}
}

// maybeCheckpoint saves a snapshot when either trigger has fired. A
// failed save is retried immediately; failing both times is the one
// globally fatal condition in the system.
func (c *Crawler) maybeCheckpoint() error {
	if c.ckpt == nil {
		return nil
	}
	if !c.ckpt.ShouldSave(c.fetcher.Requests()) {
		return nil
	}
	rec := c.snapshot()
	if err := c.ckpt.Save(rec); err != nil {
		c.logger.Error("checkpoint save failed, retrying", "error", err)
		if err2 := c.ckpt.Save(rec); err2 != nil {
			return fmt.Errorf("checkpoint save failed twice: %w", errors.Join(err, err2))
		}
	}
	return nil
}

// finalCheckpoint saves the shutdown snapshot; at this point a failure
// can only be logged.
func (c *Crawler) finalCheckpoint() {
	if c.ckpt == nil {
		return
	}
	if err := c.ckpt.Save(c.snapshot()); err != nil {
		c.logger.Error("final checkpoint save failed", "error", err)
	}
}

func (c *Crawler) snapshot() *checkpoint.Record {
	return &checkpoint.Record{
		DiscoveredNames:   c.names.Sorted(),
		ExploredPrefixes:  c.explored.All(),
		RequestCount:      c.fetcher.Requests(),
		Timestamp:         float64(time.Now().UnixNano()) / float64(time.Second),
		PrefixLengthStats: c.stats.Snapshot(),
	}
}

func (c *Crawler) buildReport() *model.CrawlReport {
	return &model.CrawlReport{
		TotalRequests:    c.fetcher.Requests(),
		TotalNames:       c.names.Len(),
		Names:            c.names.Sorted(),
		ExploredPrefixes: c.explored.Len(),
		Elapsed:          time.Since(c.start),
		LengthStats:      c.stats.Snapshot(),
		FinalDelay:       c.rate.Delay(),
	}
}

// statusLoop logs crawl progress at the configured interval until the
// run ends.
func (c *Crawler) statusLoop(ctx context.Context, done <-chan struct{}) {
	if c.cfg.StatusInterval <= 0 {
		return
	}
	ticker := time.NewTicker(c.cfg.StatusInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.logStatus()
		}
	}
}

func (c *Crawler) logStatus() {
	elapsed := time.Since(c.start)
	minutes := elapsed.Minutes()
	if minutes < 0.01 {
		minutes = 0.01
	}
	names := c.names.Len()
	requests := c.fetcher.Requests()
	successes, failures := c.rate.Counters()

	c.logger.Info("crawl status",
		"names", names,
		"requests", requests,
		"queued", c.frontier.Len(),
		"explored", c.explored.Len(),
		"names_per_min", fmt.Sprintf("%.1f", float64(names)/minutes),
		"requests_per_min", fmt.Sprintf("%.1f", float64(requests)/minutes),
		"delay", c.rate.Delay(),
		"successes", successes,
		"failures", failures,
	)

	for _, length := range c.stats.Lengths() {
		stat := c.stats.Snapshot()[length]
		c.logger.Debug("prefix length stats",
			"length", length,
			"success", stat.Success,
			"queries", stat.Queries,
			"rate", fmt.Sprintf("%.1f%%", stat.SuccessRate()*100),
		)
	}
}

// fetchOutcome labels a completed lookup for metrics.
func fetchOutcome(res *model.QueryResult) string {
	switch {
	case res.Cached:
		return "cached"
	case len(res.Names) == 0:
		return "empty"
	default:
		return "success"
	}
}

// classifyLabel maps a fetch error to its metrics label. Exhausted
// retries are checked first because they wrap the underlying kind.
func classifyLabel(err error) string {
	switch {
	case errors.Is(err, client.ErrRetriesExhausted):
		return "retries_exhausted"
	case errors.Is(err, client.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, client.ErrServer):
		return "server_error"
	case errors.Is(err, client.ErrNetwork):
		return "network_error"
	default:
		return "other"
	}
}

// sleepCtx sleeps for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
