package model

import "time"

// QueryResult is the classified outcome of one autocomplete lookup.
// Names are opaque strings returned by the service, already sorted
// ascending; they are never parsed or normalized.
type QueryResult struct {
	// Prefix is the query string that produced this result.
	Prefix string

	// Names holds the suggestions returned by the service.
	Names []string

	// Truncated is true when the page size equals the configured
	// max_results cap, meaning the true match set may be larger.
	Truncated bool

	// StatusCode is the HTTP status of the final (successful) attempt.
	StatusCode int

	// Attempts is the total number of HTTP requests issued for this
	// lookup, including retries.
	Attempts int

	// Duration is the wall-clock time spent on this lookup, including
	// backoff sleeps between retries.
	Duration time.Duration

	// Cached is true when the result was served from the local
	// response cache instead of the remote service.
	Cached bool
}

// CrawlReport is the final outcome of a crawl run.
//
// TotalRequests, TotalNames and Names form the fixed output schema;
// the remaining fields feed the human-readable and Markdown reports.
type CrawlReport struct {
	// TotalRequests is the number of HTTP requests issued, including
	// retries.
	TotalRequests int64 `json:"total_requests"`

	// TotalNames is the number of distinct names discovered.
	TotalNames int `json:"total_names"`

	// Names is the sorted projection of the discovered name set.
	Names []string `json:"names"`

	// ExploredPrefixes is the number of prefixes fully processed.
	ExploredPrefixes int `json:"-"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"-"`

	// Interrupted is true when the run stopped on an operator signal
	// rather than frontier exhaustion.
	Interrupted bool `json:"-"`

	// LengthStats maps prefix length to query success statistics.
	LengthStats map[int]LengthStat `json:"-"`

	// FinalDelay is the adaptive inter-request delay at shutdown.
	FinalDelay time.Duration `json:"-"`
}

// Efficiency returns discovered names per request, the headline
// measure of how well pivot pruning worked. Zero when no requests
// were made.
func (r *CrawlReport) Efficiency() float64 {
	if r.TotalRequests == 0 {
		return 0
	}
	return float64(r.TotalNames) / float64(r.TotalRequests)
}

// NamesPerMinute returns the discovery rate over the run.
func (r *CrawlReport) NamesPerMinute() float64 {
	minutes := r.Elapsed.Minutes()
	if minutes < 0.01 {
		minutes = 0.01
	}
	return float64(r.TotalNames) / minutes
}

// RequestsPerMinute returns the request rate over the run.
func (r *CrawlReport) RequestsPerMinute() float64 {
	minutes := r.Elapsed.Minutes()
	if minutes < 0.01 {
		minutes = 0.01
	}
	return float64(r.TotalRequests) / minutes
}
