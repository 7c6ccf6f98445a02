// Package log provides a slog.Handler wrapper that truncates oversized
// attribute values before they reach the underlying handler. Autocomplete
// pages can hold a hundred suggestions; logging them verbatim at debug
// level would drown the rest of the output.
package log
