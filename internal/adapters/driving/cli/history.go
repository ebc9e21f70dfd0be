package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/placerank/internal/core/domain"
)

var (
	historyLimit int
	historyBatch string
)

var historyCmd = &cobra.Command{
	Use:   "history [listing-id] [keyword]",
	Short: "Show saved rank results",
	Long: `Shows saved rank results for a listing, newest first, optionally
restricted to one keyword. With --batch, shows the results of one batch.`,
	Example: `  placerank history 1716926393
  placerank history 1716926393 "강남역 맛집" --limit 5
  placerank history --batch 3f1c2a9e-...`,
	Args: cobra.MaximumNArgs(2),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of results (0 = all)")
	historyCmd.Flags().StringVar(&historyBatch, "batch", "", "show the results of a batch")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyBatch == "" && len(args) == 0 {
		return errors.New("a listing id or --batch is required")
	}

	history, err := requireRankHistory(cmd)
	if err != nil {
		return err
	}

	var results []domain.RankResult
	if historyBatch != "" {
		results, err = history.BatchResults(cmd.Context(), historyBatch)
	} else {
		keyword := ""
		if len(args) > 1 {
			keyword = args[1]
		}
		results, err = history.RankHistory(cmd.Context(), args[0], keyword, historyLimit)
	}
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	if jsonOutput {
		if results == nil {
			results = []domain.RankResult{}
		}
		return printJSON(cmd, results)
	}

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}
	for _, r := range results {
		rank := "-"
		if r.Found() {
			rank = fmt.Sprintf("%d", *r.Rank)
		}
		cmd.Printf("  %s  %-30s %5s\n", r.FoundAt.Local().Format("2006-01-02 15:04"), r.Keyword, rank)
	}
	return nil
}
