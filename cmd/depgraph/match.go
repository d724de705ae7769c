package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"depgraph/internal/config"
	depgraphhistory "depgraph/internal/history"
	"depgraph/internal/paths"
	"depgraph/internal/urlmatch"
)

var (
	matchURLsFile       string
	matchGoldenPath     string
	matchHostPrefix     string
	matchExclusionsFile string
	matchNoHistory      bool
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match recorded URLs against the route table and diff against a golden manifest",
	Long: `match feeds a file of URLs recorded by the browser test harness (one per
line) through the URL -> Module Matcher (I), accumulating the implicated
page-module set, then diffs it against the golden manifest and writes the
"-generated.txt" sibling.`,
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().StringVar(&matchURLsFile, "urls", "", "Path to a file of registered URLs, one per line (required)")
	matchCmd.Flags().StringVar(&matchGoldenPath, "golden", "", "Path to the golden manifest file (required)")
	matchCmd.Flags().StringVar(&matchHostPrefix, "host-prefix", "", "The http://<host>:<port>/ prefix registerUrl strips before matching")
	matchCmd.Flags().StringVar(&matchExclusionsFile, "exclusions", "", "Path to a JSON file of {goldenPath: [pageModulePath, ...]} exclusions")
	matchCmd.Flags().BoolVar(&matchNoHistory, "no-history", false, "Skip recording this run in the SQLite history store")
	_ = matchCmd.MarkFlagRequired("urls")
	_ = matchCmd.MarkFlagRequired("golden")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := newContext()
	logger := newLogger()
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

	exclusions, err := loadExclusions(matchExclusionsFile)
	if err != nil {
		return err
	}

	if !paths.IsWithinRepo(absPath(repoRoot, matchGoldenPath), repoRoot) {
		logger.Warn("golden manifest path is outside the repo root", map[string]interface{}{"path": matchGoldenPath})
	}

	matcher := urlmatch.New(registry.Entries(), matchHostPrefix, exclusions)
	matcher.SetGoldenFilePath(matchGoldenPath)

	urls, err := readLines(matchURLsFile)
	if err != nil {
		return err
	}
	for _, u := range urls {
		matcher.RegisterURL(u)
	}

	result, compareErr := matcher.CompareAndOutputModules()

	if !matchNoHistory {
		if store, openErr := depgraphhistory.Open(repoRoot); openErr == nil {
			_ = store.RecordMatchRun(logger.RunID(), matchGoldenPath, result.OK(), fmt.Sprintf("%v", result.Errors))
			store.Close()
		}
	}

	fmt.Printf("depgraph match: %d collected, %d extra, %d missing, %d errors\n",
		len(result.Collected), len(result.Extra), len(result.Missing), len(result.Errors))

	return compareErr
}

func loadExclusions(path string) (map[string]map[string]bool, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]map[string]bool, len(raw))
	for golden, modules := range raw {
		set := make(map[string]bool, len(modules))
		for _, m := range modules {
			set[m] = true
		}
		out[golden] = set
	}
	return out, nil
}

func absPath(repoRoot, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(repoRoot, p)
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
