// Package cli implements the placerank command line on top of the driving
// ports. Commands read their services from package state set by main.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/placerank/internal/core/ports/driving"
	"github.com/custodia-labs/placerank/internal/logger"
)

// version is set at build time.
var version = "dev"

// Services are the driving ports the commands run against.
type Services struct {
	Rank     driving.RankSearcher
	Listing  driving.ListingCrawler
	History  driving.RankHistory
	Settings driving.SettingsService
}

// Options are the global flags that shape service wiring.
type Options struct {
	// NoStore keeps results in memory only.
	NoStore bool

	// MetricsAddr serves Prometheus metrics when set.
	MetricsAddr string

	// MaxPages overrides the configured search depth when non-zero.
	MaxPages int
}

// Bootstrap builds the search services for one invocation. The returned
// func releases them.
type Bootstrap func(ctx context.Context, opts Options) (*Services, func(), error)

var (
	rankSearcher    driving.RankSearcher
	listingCrawler  driving.ListingCrawler
	rankHistory     driving.RankHistory
	settingsService driving.SettingsService

	bootstrap Bootstrap
	release   func()
)

// Global flags.
var (
	verbose     bool
	jsonOutput  bool
	noStore     bool
	metricsAddr string
	maxPages    int
)

var rootCmd = &cobra.Command{
	Use:   "placerank",
	Short: "Track where listings rank in place search",
	Long: `placerank finds the position of a listing in mobile place search
results for one or many keywords, and crawls listing detail pages into
classified, validated records.

Results are kept in a local history database unless --no-store is set.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		logger.SetOutput(cmd.ErrOrStderr())
		logger.SetVerbose(verbose)
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if release != nil {
			release()
			release = nil
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output results as JSON")
	rootCmd.PersistentFlags().BoolVar(&noStore, "no-store", false, "do not persist results")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetServices sets the services used by the commands. Nil fields are
// left unchanged.
func SetServices(s Services) {
	if s.Rank != nil {
		rankSearcher = s.Rank
	}
	if s.Listing != nil {
		listingCrawler = s.Listing
	}
	if s.History != nil {
		rankHistory = s.History
	}
	if s.Settings != nil {
		settingsService = s.Settings
	}
}

// SetBootstrap registers the builder for the search services. It runs at
// most once, on the first command that needs them.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// ExecuteContext runs the root command.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// ensureServices runs the bootstrap if one is registered and has not run.
func ensureServices(cmd *cobra.Command) error {
	if bootstrap == nil {
		return nil
	}
	b := bootstrap
	bootstrap = nil

	services, closeFn, err := b(cmd.Context(), Options{
		NoStore:     noStore,
		MetricsAddr: metricsAddr,
		MaxPages:    maxPages,
	})
	if err != nil {
		return fmt.Errorf("setting up: %w", err)
	}
	if services != nil {
		SetServices(*services)
	}
	release = closeFn
	return nil
}

func requireRankSearcher(cmd *cobra.Command) (driving.RankSearcher, error) {
	if err := ensureServices(cmd); err != nil {
		return nil, err
	}
	if rankSearcher == nil {
		return nil, errors.New("rank service not configured")
	}
	return rankSearcher, nil
}

func requireListingCrawler(cmd *cobra.Command) (driving.ListingCrawler, error) {
	if err := ensureServices(cmd); err != nil {
		return nil, err
	}
	if listingCrawler == nil {
		return nil, errors.New("listing service not configured")
	}
	return listingCrawler, nil
}

func requireRankHistory(cmd *cobra.Command) (driving.RankHistory, error) {
	if err := ensureServices(cmd); err != nil {
		return nil, err
	}
	if rankHistory == nil {
		return nil, errors.New("history store not configured")
	}
	return rankHistory, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
