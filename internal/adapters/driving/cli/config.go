package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/placerank/internal/core/ports/driving"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change settings stored in the config file.

Every key can also be set with an environment variable named after it,
e.g. search.max_pages as PLACERANK_SEARCH_MAX_PAGES. Environment values
take precedence over the file.

Listing id lookups for N2/N3 identifiers are set as
gdid.lookup.<TYPE>:<id>, e.g. gdid.lookup.N2:12345.`,
	RunE: runConfigList,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List effective settings and where they come from",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the effective value of a key",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a key in the config file",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a key from the config file",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return errors.New("settings service not configured")
		}
		cmd.Println(settingsService.Path())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func configEntries() ([]driving.ConfigEntry, error) {
	if settingsService == nil {
		return nil, errors.New("settings service not configured")
	}
	return settingsService.Entries()
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	entries, err := configEntries()
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, entries)
	}

	for _, e := range entries {
		cmd.Printf("%-32s %-24s (%s)\n", e.Key, e.Value, e.Source)
	}

	// Entries tolerates invalid values so they can be listed and fixed.
	if _, err := settingsService.Get(); err != nil {
		cmd.Println()
		cmd.Printf("Warning: %v\n", err)
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	entries, err := configEntries()
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	for _, e := range entries {
		if e.Key == args[0] {
			if jsonOutput {
				return printJSON(cmd, e)
			}
			cmd.Println(e.Value)
			return nil
		}
	}
	return fmt.Errorf("unknown config key %q", args[0])
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s = %s\n", args[0], args[1])
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Unset(args[0]); err != nil {
		return fmt.Errorf("failed to unset %s: %w", args[0], err)
	}
	cmd.Printf("Unset %s\n", args[0])
	return nil
}
