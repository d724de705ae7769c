package main

import (
	"github.com/spf13/cobra"

	"depgraph/internal/version"
)

var (
	// logFormatFlag is the CLI --log-format flag value, shared across
	// every subcommand's logger.
	logFormatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "depgraph",
	Short: "depgraph - static dependency-graph analyzer",
	Long: `depgraph is a static dependency-graph analyzer for a multi-language web
codebase. It resolves module imports, extracts framework symbols and HTML
selectors, and projects the resulting dependency graph onto a set of root
files (page modules, whitelisted anchors, or frontend test files) so that
downstream tooling can decide which end-to-end suites a change affects.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("depgraph version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "human", "Log output format (human, json)")
}
