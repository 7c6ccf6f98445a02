// Package checkpoint persists and restores crawl state so a multi-hour
// run survives crashes and interrupts.
//
// A checkpoint is a JSON snapshot of the discovered names, the explored
// prefixes, the request counter, and the per-length statistics. Saves
// are atomic: the record is written to a temporary file and renamed
// over the previous checkpoint, so a crash mid-write never corrupts the
// last good snapshot. The frontier itself is never persisted; on load
// it is reconstructed from the explored set's unexplored single
// character extensions, a coarse approximation that the expansion
// algorithm refines again as those prefixes are queried.
package checkpoint
