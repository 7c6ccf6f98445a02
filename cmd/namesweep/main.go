// Package main provides the entry point for the namesweep CLI.
//
// Namesweep reconstructs the full name inventory behind an
// autocomplete-only lookup service by systematically expanding query
// prefixes and following truncated result pages.
//
// Usage:
//
//	namesweep crawl --url http://host:8000
//	namesweep export --output names.json
//
// See --help for all available options.
package main

// main is the entry point for namesweep.
func main() {
	Execute()
}
