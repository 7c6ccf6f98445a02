// Package config holds the runtime configuration for namesweep.
//
// Configuration is assembled once at startup from CLI flags and an
// optional YAML file, validated, and then passed unchanged through the
// application by dependency injection. No component mutates it after
// the crawl starts.
package config
