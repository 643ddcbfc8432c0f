package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "View and change sync settings",
	Long: `View and change gridsync settings stored in ~/.gridsync/config.toml.

Examples:
  gridsync settings show
  gridsync settings set server.url https://grid.example.com/api/v1
  gridsync settings set sync.interval_ms 5m
  gridsync settings set storage.backend file`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a single setting",
	Long: `Change a single setting by key. Durations accept a number in the key's
unit or a Go duration such as 90s or 5m. Run 'gridsync settings keys' for
the list of keys.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Server]")
	if settings.ServerURL != "" {
		cmd.Printf("  URL: %s\n", settings.ServerURL)
	} else {
		cmd.Println("  URL: (not set)")
	}
	cmd.Printf("  Request timeout: %s\n", settings.RequestTimeout)
	if settings.RateLimit > 0 {
		cmd.Printf("  Rate limit: %g req/s\n", settings.RateLimit)
	} else {
		cmd.Println("  Rate limit: unlimited")
	}
	cmd.Println()

	cmd.Println("[Sync]")
	cmd.Printf("  Auto sync: %t\n", settings.AutoSync)
	cmd.Printf("  Interval: %s\n", settings.Interval)
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", settings.StorageBackend.Description())
	dir := settings.StorageDir
	if dir == "" {
		dir = "(default)"
	}
	cmd.Printf("  Directory: %s\n", dir)
	cmd.Println()

	cmd.Println("[Daemon]")
	logFile := settings.LogFile
	if logFile == "" {
		logFile = "(stderr)"
	}
	cmd.Printf("  Log file: %s\n", logFile)
	metricsAddr := settings.MetricsAddr
	if metricsAddr == "" {
		metricsAddr = "(disabled)"
	}
	cmd.Printf("  Metrics: %s\n", metricsAddr)

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to update %s: %w", key, err)
	}

	cmd.Printf("Updated %s.\n", key)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}
