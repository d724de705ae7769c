package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"depgraph/internal/config"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the parsed route table",
	Long: `routes runs the Route Registry (H) over the configured routing files
and prints the ordered (path, pathMatch, pageModule) table it resolves,
manual overrides first.`,
	RunE: runRoutes,
}

func init() {
	rootCmd.AddCommand(routesCmd)
}

func runRoutes(cmd *cobra.Command, args []string) error {
	ctx := newContext()
	repoRoot := mustGetRepoRoot()
	cfg := loadConfig(repoRoot)

	facade, res, err := buildResolver(cfg)
	if err != nil {
		return err
	}

	manualOverrides, err := config.LoadManualOverrides(cfg.Overrides.ManualOverridesFile)
	if err != nil {
		return err
	}

	registry, err := loadRegistry(ctx, facade, res, cfg, manualOverrides)
	if err != nil {
		return err
	}

	for _, e := range registry.Entries() {
		pathMatch := e.Route.PathMatch
		if pathMatch == "" {
			pathMatch = "-"
		}
		fmt.Printf("%-40s %-8s %s\n", e.Route.Path, pathMatch, e.PageModulePath)
	}
	return nil
}
