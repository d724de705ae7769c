package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"depgraph/internal/ast"
	"depgraph/internal/snapshot"
)

var snapshotCheck bool

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Fingerprint the tracked file tree and compare against the last recorded snapshot",
	Long: `snapshot hashes every file the Facade discovers and writes the
digest list to .depgraph/snapshot.json. With --check, it instead loads the
previously recorded digest list and reports whether the tree has changed
since, the way a CI job would assert that re-running depgraph build on an
untouched checkout reproduces identical artifacts.`,
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().BoolVar(&snapshotCheck, "check", false, "Compare against the previously recorded snapshot instead of overwriting it")
	rootCmd.AddCommand(snapshotCmd)
}

func snapshotPath(repoRoot string) string {
	return filepath.Join(repoRoot, ".depgraph", "snapshot.json")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	repoRoot := mustGetRepoRoot()
	cfg := loadConfig(repoRoot)

	facade, err := ast.NewFacade(cfg.RepoRoot, cfg.GitignorePath)
	if err != nil {
		return err
	}

	current, err := snapshot.Fingerprint(facade)
	if err != nil {
		return err
	}

	path := snapshotPath(repoRoot)

	if !snapshotCheck {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		data, err := json.MarshalIndent(current, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		logger.Info("snapshot recorded", map[string]interface{}{"files": len(current), "path": path})
		fmt.Printf("depgraph snapshot: recorded %d files to %s\n", len(current), path)
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no recorded snapshot at %s; run `depgraph snapshot` first", path)
		}
		return err
	}
	var previous []snapshot.FileDigest
	if err := json.Unmarshal(data, &previous); err != nil {
		return err
	}

	if snapshot.Equal(previous, current) {
		fmt.Println("depgraph snapshot --check: tree unchanged")
		return nil
	}

	diff := snapshot.ComputeDiff(previous, current)
	fmt.Printf("depgraph snapshot --check: tree changed (%d added, %d removed, %d changed)\n",
		len(diff.Added), len(diff.Removed), len(diff.Changed))
	for _, f := range diff.Added {
		fmt.Printf("  + %s\n", f)
	}
	for _, f := range diff.Removed {
		fmt.Printf("  - %s\n", f)
	}
	for _, f := range diff.Changed {
		fmt.Printf("  ~ %s\n", f)
	}
	return fmt.Errorf("tree changed since last snapshot")
}
