// Package report renders crawl results in multiple output formats.
//
// Writers implement the Writer interface and can be composed with
// MultiWriter to emit the same report to several destinations:
//   - SimpleWriter: human-readable text for terminal display
//   - JSONWriter: the machine-readable output schema
//   - MarkdownWriter: a shareable Markdown summary with tables
//
// SaveJSON writes the output schema to a file atomically so an
// interrupted write never leaves a half-formed result on disk.
package report
