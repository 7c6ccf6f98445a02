// Package model defines the core data types shared across namesweep:
// the query charset, autocomplete query results, per-length statistics,
// and the final crawl report.
package model
