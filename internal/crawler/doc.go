// Package crawler implements the prefix-expansion crawl engine.
//
// The engine holds a frontier of pending prefixes in a priority queue,
// drains it with a fixed pool of workers, and grows it through the
// pivot-based expansion rule: a full (truncated) result page names, via
// its lexicographically last entry, the single character that must be
// explored next, eliminating every lexicographically earlier branch.
// A shared adaptive delay keeps the pool under the remote service's
// undocumented rate limits.
package crawler
