package main

import (
	"fmt"

	"github.com/spf13/cobra"

	depgraphhistory "depgraph/internal/history"
)

var (
	historyGoldenPath  string
	historyLimit       int
	historyClearMisses bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect or clear the SQLite history store",
	Long: `history prints the most recent depgraph match runs recorded for a given
golden manifest path, or, with --clear-misses, drops every recorded
resolution-miss negative-cache entry (use after a tree-wide change that
could invalidate them).`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyGoldenPath, "golden", "", "Golden manifest path to look up recent match runs for")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Maximum number of match runs to print")
	historyCmd.Flags().BoolVar(&historyClearMisses, "clear-misses", false, "Drop every recorded resolution-miss negative-cache entry")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	repoRoot := mustGetRepoRoot()

	store, err := depgraphhistory.Open(repoRoot)
	if err != nil {
		return err
	}
	defer store.Close()

	if historyClearMisses {
		if err := store.ClearResolutionMisses(); err != nil {
			return err
		}
		fmt.Println("depgraph history: cleared resolution-miss cache")
	}

	if historyGoldenPath == "" {
		return nil
	}

	runs, err := store.RecentMatchRuns(historyGoldenPath, historyLimit)
	if err != nil {
		return err
	}
	for _, run := range runs {
		status := "PASS"
		if !run.Passed {
			status = "FAIL"
		}
		fmt.Printf("%-8s %-20s run=%s %s\n", status, run.CreatedAt, run.RunID, run.OffendingURLs)
	}
	return nil
}
