package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/placerank/internal/core/domain"
	"github.com/custodia-labs/placerank/internal/core/ports/driving"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl <listing-id>",
	Short: "Crawl a listing's detail page",
	Long: `Fetches the listing's detail page and review data, then prints the
merged record with its parsed address, classified keywords and
completeness score.

Missing fields lower the completeness score and are listed as
validation errors or warnings. Only a failed page fetch is an error.`,
	Args: cobra.ExactArgs(1),
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	crawler, err := requireListingCrawler(cmd)
	if err != nil {
		return err
	}

	report, err := crawler.Crawl(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, report)
	}
	printCrawlReport(cmd, report)
	return nil
}

func printCrawlReport(cmd *cobra.Command, report *driving.CrawlReport) {
	rec := report.Record

	name := rec.Basic.Name
	if name == "" {
		name = "(unnamed)"
	}
	cmd.Printf("%s [%s]\n", name, rec.ID)
	if rec.Basic.Category != "" {
		cmd.Printf("  Category:     %s\n", rec.Basic.Category)
	}
	if h := rec.Ranking.Category.Hierarchy; h != "" {
		cmd.Printf("  Hierarchy:    %s (%s)\n", h, rec.Ranking.Category.Type)
	}
	if addr := displayAddress(rec.Address); addr != "" {
		cmd.Printf("  Address:      %s\n", addr)
	}
	cmd.Printf("  Menus:        %d\n", len(rec.Menus))
	cmd.Printf("  Reviews:      %d (%.2f)\n", rec.Reviews.Stats.Total, rec.Reviews.Stats.AverageScore)
	cmd.Printf("  Completeness: %d%%\n", rec.Completeness)
	cmd.Println()

	cmd.Printf("Keywords (%d)\n", report.Stats.Total)
	printKeywordGroup(cmd, "core", rec.Keywords.Core)
	printKeywordGroup(cmd, "location", rec.Keywords.Location)
	printKeywordGroup(cmd, "menu", rec.Keywords.Menu)
	printKeywordGroup(cmd, "attribute", rec.Keywords.Attribute)
	printKeywordGroup(cmd, "sentiment", rec.Keywords.Sentiment)

	if len(rec.Ranking.VotedKeywords) > 0 {
		cmd.Println()
		cmd.Println("Voted keywords")
		for _, v := range rec.Ranking.VotedKeywords {
			cmd.Printf("  %-24s %d\n", v.Keyword, v.Count)
		}
	}

	if len(rec.Competitors) > 0 {
		cmd.Println()
		cmd.Printf("Similar places (%d)\n", len(rec.Competitors))
		for _, c := range rec.Competitors {
			cmd.Printf("  %-24s %s\n", c.Name, c.ID)
		}
	}

	if len(report.Validation.Errors) > 0 || len(report.Validation.Warnings) > 0 {
		cmd.Println()
		for _, e := range report.Validation.Errors {
			cmd.Printf("error:   %s\n", e)
		}
		for _, w := range report.Validation.Warnings {
			cmd.Printf("warning: %s\n", w)
		}
	}
}

func printKeywordGroup(cmd *cobra.Command, label string, words []string) {
	if len(words) == 0 {
		return
	}
	sorted := append([]string(nil), words...)
	sort.Strings(sorted)
	cmd.Printf("  %-10s %s\n", label+":", strings.Join(sorted, ", "))
}

func displayAddress(a domain.ParsedAddress) string {
	if a.Original.Road != "" {
		return a.Original.Road
	}
	return a.Original.Informal
}
