package config

import "errors"

var (
	// ErrNoBaseURL is returned when no lookup service base URL is set.
	ErrNoBaseURL = errors.New("config: base URL is required")

	// ErrInvalidBaseURL is returned when the base URL cannot be parsed
	// or has no host.
	ErrInvalidBaseURL = errors.New("config: base URL must be a valid http(s) URL with a host")

	// ErrInvalidAPIVersion is returned for a non-positive API version.
	ErrInvalidAPIVersion = errors.New("config: API version must be 1 or greater")

	// ErrInvalidMaxResults is returned for a non-positive per-query
	// result cap.
	ErrInvalidMaxResults = errors.New("config: max results must be positive")

	// ErrInvalidWorkers is returned for a non-positive worker count.
	ErrInvalidWorkers = errors.New("config: worker count must be positive")

	// ErrInvalidTimeout is returned for a non-positive request timeout.
	ErrInvalidTimeout = errors.New("config: timeout must be positive")

	// ErrInvalidDelayBounds is returned when the adaptive delay bounds
	// are negative or inverted.
	ErrInvalidDelayBounds = errors.New("config: delay bounds must satisfy 0 <= min <= max")

	// ErrInvalidMaxAttempts is returned for a negative retry budget.
	ErrInvalidMaxAttempts = errors.New("config: max attempts must not be negative")

	// ErrConflictingReportFormats is returned when both JSON and
	// Markdown report output are requested.
	ErrConflictingReportFormats = errors.New("config: --json and --markdown are mutually exclusive")

	// ErrInvalidCheckpointTriggers is returned when both checkpoint
	// triggers are disabled while a checkpoint path is configured.
	ErrInvalidCheckpointTriggers = errors.New("config: checkpoint requires a request or time interval")
)
