package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"depgraph/internal/artifacts"
	"depgraph/internal/config"
	"depgraph/internal/graph"
	depgraphhistory "depgraph/internal/history"
	"depgraph/internal/roots"
)

var (
	buildSCIPIndex string
	buildNoHistory bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the dependency graph and project root files",
	Long: `build drives the Edge-Set Builder (C, D, E) over every tracked file,
then the Root Projector (G) over the resulting graph and the Route
Registry's page-module set, and writes the three JSON artifacts:
dependencies-mapping.json, dependency-graph.json, and root-files-mapping.json.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildSCIPIndex, "scip-index", "", "Path to an optional SCIP index to overlay onto the graph")
	buildCmd.Flags().BoolVar(&buildNoHistory, "no-history", false, "Skip the SQLite history store (resolution-miss cache)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	logger := newLogger()
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

	var history *depgraphhistory.Store
	if !buildNoHistory {
		history, err = depgraphhistory.Open(repoRoot)
		if err != nil {
			logger.Warn("failed to open history store, continuing without it", map[string]interface{}{"error": err.Error()})
		} else {
			defer history.Close()
			res.SetMissRecorder(func(specifier, fromFile string) {
				_ = history.RecordResolutionMiss(specifier, fromFile, logger.RunID())
			})
			res.SetMissChecker(func(specifier, fromFile string) bool {
				known, err := history.IsKnownMiss(specifier, fromFile)
				return err == nil && known
			})
		}
	}

	logger.Info("building dependency graph", map[string]interface{}{"repoRoot": repoRoot})

	result, err := graph.BuildAll(ctx, facade, res, manualOverrides.Dependencies)
	if err != nil {
		return err
	}

	if buildSCIPIndex != "" {
		overlay, err := graph.LoadSCIPOverlay(buildSCIPIndex)
		if err != nil {
			return err
		}
		graph.ApplyOverlay(result.Graph, overlay)
		logger.Info("applied SCIP overlay", map[string]interface{}{"index": buildSCIPIndex})
	}

	registry, err := loadRegistry(ctx, facade, res, cfg, manualOverrides)
	if err != nil {
		return err
	}
	pageModules := pageModulesOf(registry)

	whitelist, err := effectiveWhitelist(cfg)
	if err != nil {
		return err
	}

	projector := roots.New(result.Graph, result.FrameworkInfo, pageModules, whitelist)
	rootFiles, err := projector.Project()
	if err != nil {
		return err
	}

	if err := writeArtifacts(cfg, result.Graph, rootFiles); err != nil {
		return err
	}

	stats := result.Graph.Stats()
	logger.Info("build complete", map[string]interface{}{
		"files":  stats.TotalNodes,
		"edges":  stats.TotalEdges,
		"routes": len(registry.Entries()),
	})
	fmt.Printf("depgraph build: %d files, %d edges, %d routes\n", stats.TotalNodes, stats.TotalEdges, len(registry.Entries()))
	return nil
}

func effectiveWhitelist(cfg *config.Config) ([]string, error) {
	ciModules, err := config.WhitelistFromCISuites(cfg.CISuites)
	if err != nil {
		return nil, err
	}
	whitelist := append([]string{}, cfg.Whitelist...)
	whitelist = append(whitelist, ciModules...)
	return whitelist, nil
}

func writeArtifacts(cfg *config.Config, g *graph.Graph, rootFiles roots.RootFilesMap) error {
	dependencies := make(map[string][]string, len(g.Nodes()))
	for _, f := range g.Nodes() {
		dependencies[f] = g.Dependencies(f)
	}

	if err := artifacts.WriteJSON(artifactPath(cfg.RepoRoot, cfg.Artifacts.DependenciesMapping), dependencies); err != nil {
		return err
	}
	if err := artifacts.WriteJSON(artifactPath(cfg.RepoRoot, cfg.Artifacts.DependencyGraph), rootFiles); err != nil {
		return err
	}
	if err := artifacts.WriteJSON(artifactPath(cfg.RepoRoot, cfg.Artifacts.RootFilesMapping), rootFiles); err != nil {
		return err
	}
	return nil
}

func artifactPath(repoRoot, configured string) string {
	if filepath.IsAbs(configured) {
		return configured
	}
	return filepath.Join(repoRoot, configured)
}
