// Package client implements the autocomplete lookup fetcher.
//
// A Client issues one lookup per Fetch call against
// GET {base}/v{N}/autocomplete?query=<prefix>&max_results=<K>, classifies
// the outcome, and retries rate-limit, server, and transport failures
// locally with jittered backoff. Only an exhausted retry budget surfaces
// to the caller; every other failure mode resolves to an empty result so
// the crawl can continue.
package client
