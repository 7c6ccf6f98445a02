package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/namesweep/namesweep/internal/model"
)

// Default configuration values. The delay and retry defaults mirror the
// tolerances observed against the reference lookup service; they can all
// be overridden via CLI flags.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "namesweep"

	// DefaultAPIVersion selects the newest autocomplete endpoint.
	DefaultAPIVersion = 3

	// DefaultWorkers is the number of concurrent crawl workers. Each
	// worker holds at most one request in flight, so this value also
	// bounds concurrent load on the remote service.
	DefaultWorkers = 5

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxAttempts bounds retries for a single lookup. Past this
	// many attempts the prefix is abandoned for the run.
	DefaultMaxAttempts = 8

	// DefaultInitialDelay is the starting adaptive inter-request delay.
	DefaultInitialDelay = time.Second

	// DefaultMinDelay is the adaptive delay floor. A non-zero floor
	// keeps the crawl under the service's rate limits even after a
	// long run of successes.
	DefaultMinDelay = 800 * time.Millisecond

	// DefaultMaxDelay is the adaptive delay ceiling.
	DefaultMaxDelay = 3 * time.Second

	// DefaultRequestJitter is the upper bound of the random delay
	// added before each request, spreading workers apart.
	DefaultRequestJitter = 300 * time.Millisecond

	// DefaultPopTimeout bounds how long a worker blocks on an empty
	// frontier before rechecking for crawl completion.
	DefaultPopTimeout = 5 * time.Second

	// DefaultStatusInterval is how often crawl progress is logged.
	DefaultStatusInterval = 30 * time.Second

	// DefaultCheckpointRequests saves a checkpoint every N completed
	// requests.
	DefaultCheckpointRequests = 200

	// DefaultCheckpointInterval saves a checkpoint after this much
	// wall-clock time even when the request trigger has not fired.
	DefaultCheckpointInterval = 5 * time.Minute

	// DefaultCheckpointFile is the checkpoint file name in the
	// current directory when no explicit path is given.
	DefaultCheckpointFile = "namesweep_checkpoint.json"

	// DefaultOutputFile is the final results file name.
	DefaultOutputFile = "discovered_names.json"

	// DefaultCacheSize is the number of recent query results kept in
	// the fetcher's response cache.
	DefaultCacheSize = 1024

	// DefaultUserAgent identifies namesweep in HTTP requests.
	DefaultUserAgent = "namesweep/1.0 (+https://github.com/namesweep/namesweep)"
)

// DefaultMaxResults returns the per-query result cap supported by an
// autocomplete API version: v1 caps at 50, v2 at 75, v3 at 100.
func DefaultMaxResults(apiVersion int) int {
	switch {
	case apiVersion <= 1:
		return 50
	case apiVersion == 2:
		return 75
	default:
		return 100
	}
}

// Config holds all options for a crawl run. A single flat struct keeps
// flag wiring simple; it is populated once and treated as immutable for
// the run's duration.
type Config struct {
	// BaseURL is the lookup service root, e.g. "http://host:8000".
	// The version path segment is appended per request.
	BaseURL string

	// APIVersion selects the endpoint path /v{N}/autocomplete and the
	// per-version defaults for MaxResults and the charset.
	APIVersion int

	// MaxResults is the max_results value sent with every query. Zero
	// means use the per-version default.
	MaxResults int

	// Workers is the number of concurrent crawl workers.
	Workers int

	// IncludePunctuation adds the punctuation set to the crawl
	// charset. Punctuation branches always enqueue at lower priority
	// than alphanumeric ones.
	IncludePunctuation bool

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// MaxAttempts bounds retries for one lookup, including the first
	// attempt's follow-ups. Zero disables retries entirely.
	MaxAttempts int

	// UserAgent is sent with every HTTP request.
	UserAgent string

	// InitialDelay seeds the adaptive inter-request delay.
	InitialDelay time.Duration

	// MinDelay and MaxDelay bound the adaptive delay. The controller
	// never moves the shared delay outside [MinDelay, MaxDelay].
	MinDelay time.Duration
	MaxDelay time.Duration

	// RequestJitter is the upper bound of the uniform random sleep
	// added before each request.
	RequestJitter time.Duration

	// PopTimeout bounds a worker's blocking wait on an empty frontier.
	PopTimeout time.Duration

	// StatusInterval is how often progress is logged. Zero disables
	// periodic status logging.
	StatusInterval time.Duration

	// CheckpointPath is the checkpoint file location. Empty disables
	// checkpointing (and resume).
	CheckpointPath string

	// CheckpointRequests triggers a checkpoint save every N completed
	// requests. Zero disables the request-count trigger.
	CheckpointRequests int

	// CheckpointInterval triggers a checkpoint save after this much
	// elapsed time since the last save. Zero disables the time trigger.
	CheckpointInterval time.Duration

	// OutputPath is where the final results JSON is written.
	OutputPath string

	// JSONReport and MarkdownReport select the run summary format
	// printed after the crawl; mutually exclusive. When both are
	// false a human-readable summary is printed.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile writes the run summary to a file in addition to
	// stdout.
	ReportFile string

	// DBDir is the directory for the SQLite query log. Empty disables
	// database persistence.
	DBDir string

	// MetricsAddr, when set, serves Prometheus metrics on this
	// address for the run's duration (e.g. "127.0.0.1:9190").
	MetricsAddr string

	// CacheSize is the fetcher's LRU response cache capacity. Zero
	// disables the cache.
	CacheSize int

	// Verbose enables debug-level logging.
	Verbose bool
}

// NewConfig returns a Config populated with defaults. BaseURL has no
// default and must be supplied.
func NewConfig() *Config {
	return &Config{
		APIVersion:         DefaultAPIVersion,
		Workers:            DefaultWorkers,
		Timeout:            DefaultTimeout,
		MaxAttempts:        DefaultMaxAttempts,
		UserAgent:          DefaultUserAgent,
		InitialDelay:       DefaultInitialDelay,
		MinDelay:           DefaultMinDelay,
		MaxDelay:           DefaultMaxDelay,
		RequestJitter:      DefaultRequestJitter,
		PopTimeout:         DefaultPopTimeout,
		StatusInterval:     DefaultStatusInterval,
		CheckpointPath:     DefaultCheckpointFile,
		CheckpointRequests: DefaultCheckpointRequests,
		CheckpointInterval: DefaultCheckpointInterval,
		OutputPath:         DefaultOutputFile,
		CacheSize:          DefaultCacheSize,
	}
}

// Charset returns the crawl charset derived from the API version and
// the punctuation option.
func (c *Config) Charset() model.Charset {
	cs := model.DefaultCharset(c.APIVersion)
	if c.IncludePunctuation {
		cs.Special = model.PunctuationCharset
	}
	return cs
}

// EffectiveMaxResults returns MaxResults, falling back to the
// per-version default when unset.
func (c *Config) EffectiveMaxResults() int {
	if c.MaxResults > 0 {
		return c.MaxResults
	}
	return DefaultMaxResults(c.APIVersion)
}

// XDGDataDir returns the XDG data directory for namesweep, the default
// location for the SQLite query log.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for namesweep.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem
// found. Called once after flag parsing, before the crawl starts.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidBaseURL
	}
	if c.APIVersion < 1 {
		return ErrInvalidAPIVersion
	}
	if c.MaxResults < 0 || c.EffectiveMaxResults() <= 0 {
		return ErrInvalidMaxResults
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MinDelay < 0 || c.MaxDelay < c.MinDelay {
		return ErrInvalidDelayBounds
	}
	if c.MaxAttempts < 0 {
		return ErrInvalidMaxAttempts
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.CheckpointPath != "" && c.CheckpointRequests <= 0 && c.CheckpointInterval <= 0 {
		return ErrInvalidCheckpointTriggers
	}
	return nil
}
