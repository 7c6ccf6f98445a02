// Package main provides the entry point for the namesweep CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for namesweep.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "namesweep",
		Short: "Reconstruct a name inventory from an autocomplete endpoint",
		Long: `Namesweep enumerates every name reachable through an autocomplete
lookup service that answers prefix queries with capped, sorted result
pages. Truncated pages reveal where more names hide; namesweep expands
those prefixes until the whole namespace is recovered.

Progress is checkpointed so interrupted runs resume where they left
off, and request pacing adapts to the service's rate limiting.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
