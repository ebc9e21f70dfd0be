package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/placerank/internal/core/domain"
	"github.com/custodia-labs/placerank/internal/core/ports/driving"
)

var rankCmd = &cobra.Command{
	Use:   "rank <keyword> <listing-id>",
	Short: "Find where a listing ranks for a keyword",
	Long: `Pages through search results for the keyword until the listing is
found, the results run out or the search depth is exhausted.

Not finding the listing is a normal result, not an error.`,
	Example: `  placerank rank "강남역 맛집" 1716926393
  placerank rank --max-pages 20 "역삼 고기집" 1716926393`,
	Args: cobra.ExactArgs(2),
	RunE: runRank,
}

var (
	batchConcurrency int
	batchDelay       time.Duration
	batchFile        string
)

var batchCmd = &cobra.Command{
	Use:   "batch <listing-id> [keyword...]",
	Short: "Find a listing's rank for many keywords",
	Long: `Runs rank searches for every keyword in windows of --concurrency
searches, pausing --delay between windows. A failing keyword is reported
without stopping the others.

Keywords come from the arguments and, with --file, from a file with one
keyword per line. Blank lines and lines starting with # are skipped.

Interrupting the batch finishes the searches already running and prints
the partial report.`,
	Example: `  placerank batch 1716926393 "강남역 맛집" "역삼 고기집"
  placerank batch 1716926393 --file keywords.txt --concurrency 2 --delay 5s`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rankCmd.Flags().IntVar(&maxPages, "max-pages", 0, "search depth in pages (0 = configured)")

	batchCmd.Flags().IntVar(&maxPages, "max-pages", 0, "search depth in pages (0 = configured)")
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", 0, "searches per window (0 = configured)")
	batchCmd.Flags().DurationVar(&batchDelay, "delay", 0, "pause between windows (0 = configured)")
	batchCmd.Flags().StringVarP(&batchFile, "file", "f", "", "read keywords from file")

	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(batchCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	searcher, err := requireRankSearcher(cmd)
	if err != nil {
		return err
	}

	keyword, targetID := args[0], args[1]
	result, err := searcher.FindRank(cmd.Context(), keyword, targetID)
	if err != nil {
		return fmt.Errorf("rank search failed: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, result)
	}
	printRankResult(cmd, result)
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	searcher, err := requireRankSearcher(cmd)
	if err != nil {
		return err
	}

	targetID := args[0]
	keywords := args[1:]
	if batchFile != "" {
		fromFile, err := readKeywordFile(batchFile)
		if err != nil {
			return err
		}
		keywords = append(keywords, fromFile...)
	}
	if len(keywords) == 0 {
		return errors.New("no keywords given")
	}

	opts := driving.BatchOptions{
		Concurrency: batchConcurrency,
		WindowDelay: batchDelay,
	}
	if !jsonOutput {
		cmd.Printf("Searching %d keywords for %s...\n", len(keywords), targetID)
	}

	report, batchErr := searcher.FindRankBatch(cmd.Context(), keywords, targetID, opts)
	if report == nil {
		return fmt.Errorf("batch failed: %w", batchErr)
	}

	if jsonOutput {
		if err := printJSON(cmd, report); err != nil {
			return err
		}
	} else {
		printBatchReport(cmd, report)
	}

	if batchErr != nil {
		return fmt.Errorf("batch incomplete: %w", batchErr)
	}
	return nil
}

func printRankResult(cmd *cobra.Command, r domain.RankResult) {
	if !r.Found() {
		cmd.Printf("%s: not found in %d pages\n", r.Keyword, r.PagesScanned)
		return
	}
	cmd.Printf("%s: rank %d (page %d, position %d of %d)\n",
		r.Keyword, *r.Rank, r.Page, r.Position, r.TotalResultsOnPage)
	if r.ListingName != "" {
		cmd.Printf("  %s", r.ListingName)
		if r.Category != "" {
			cmd.Printf(" · %s", r.Category)
		}
		cmd.Println()
	}
	if r.TotalResults > 0 {
		cmd.Printf("  %d results in total\n", r.TotalResults)
	}
}

func printBatchReport(cmd *cobra.Command, report *driving.BatchReport) {
	cmd.Println()
	for _, o := range report.Outcomes {
		switch {
		case o.Failed():
			cmd.Printf("  %-30s error: %s\n", o.Keyword, o.Error)
		case o.Result.Found():
			cmd.Printf("  %-30s %d\n", o.Keyword, *o.Result.Rank)
		default:
			cmd.Printf("  %-30s -\n", o.Keyword)
		}
	}
	cmd.Println()

	s := report.Summary
	cmd.Printf("%d keywords: %d found, %d not found, %d failed (%s)\n",
		s.Total, s.Found, s.NotFound, s.Failed,
		report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	cmd.Printf("Batch ID: %s\n", report.BatchID)
}

func readKeywordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening keyword file: %w", err)
	}
	defer f.Close()
	return readKeywords(f)
}

// readKeywords returns one keyword per line, skipping blanks and # comments.
func readKeywords(r io.Reader) ([]string, error) {
	var keywords []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keywords = append(keywords, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading keywords: %w", err)
	}
	return keywords, nil
}
