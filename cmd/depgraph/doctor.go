package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"depgraph/internal/graph"
	"depgraph/internal/symbols"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Validate configuration and surface preview diagnostics",
	Long: `doctor checks that tsconfig.json, the routing files, and the constants
module are readable, prints the effective config as TOML, and flags any
Component FrameworkInfo whose templateFilePath was declared but does not
exist (spec.md's Component invariant). depgraph build does not check
template paths for existence; it records the edge as declared.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := newContext()
	repoRoot := mustGetRepoRoot()
	cfg := loadConfig(repoRoot)

	problems := 0
	check := func(label, path string) {
		if _, err := os.Stat(path); err != nil {
			fmt.Printf("FAIL %-28s %s (%v)\n", label, path, err)
			problems++
			return
		}
		fmt.Printf("OK   %-28s %s\n", label, path)
	}
	check("tsconfig.json", cfg.TSConfigPath)
	check("routes (main)", absUnderRoot(cfg.RepoRoot, cfg.Routes.Main))
	check("routes (lite)", absUnderRoot(cfg.RepoRoot, cfg.Routes.Lite))
	check("constants module", absUnderRoot(cfg.RepoRoot, cfg.Constants))

	facade, res, err := buildResolver(cfg)
	if err != nil {
		return err
	}

	result, err := graph.BuildAll(ctx, facade, res, nil)
	if err != nil {
		return err
	}
	for file, infos := range result.FrameworkInfo {
		for _, info := range infos {
			if info.Kind != symbols.KindComponent || info.TemplateFilePath == "" {
				continue
			}
			if !facade.Exists(info.TemplateFilePath) {
				fmt.Printf("FAIL %-28s %s declares templateUrl %s which does not exist\n", "component template", file, info.TemplateFilePath)
				problems++
			}
		}
	}

	encoded, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Println("\n--- effective config ---")
	fmt.Print(string(encoded))

	if problems > 0 {
		return fmt.Errorf("doctor found %d problem(s)", problems)
	}
	return nil
}

func absUnderRoot(repoRoot, rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(repoRoot, rel)
}
