package client

import "errors"

var (
	// ErrRateLimited indicates the service answered 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrServer indicates a 5xx response.
	ErrServer = errors.New("server error")

	// ErrNetwork indicates a transport-level failure.
	ErrNetwork = errors.New("network error")

	// ErrMalformedResponse indicates a 2xx body without a results list.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrRetriesExhausted indicates the retry budget for one lookup ran
	// out. Names reachable only under that prefix are lost for this
	// attempt; the crawl continues.
	ErrRetriesExhausted = errors.New("retries exhausted")
)
