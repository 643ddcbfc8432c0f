// Package cli provides the gridsync command-line interface.
package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gridsync/internal/core/ports/driven"
	"github.com/custodia-labs/gridsync/internal/core/ports/driving"
	"github.com/custodia-labs/gridsync/internal/logger"
)

var (
	version = "dev"
	verbose bool
)

// Services used by commands. Set by SetServices before Execute.
var (
	syncService     driving.SyncService
	settingsService driving.SettingsService
	tokenStore      driven.TokenStore
)

var rootCmd = &cobra.Command{
	Use:   "gridsync",
	Short: "Offline change sync for grid asset data",
	Long: `gridsync queues changes to grid assets (power lines, poles, spans, taps,
equipment and substations) while offline and synchronises them with the
grid server when a connection is available.

Queued changes survive restarts. Each sync uploads the queue as one batch,
then downloads changes made on the server since the last successful sync.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx available to commands.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetServices sets the services used by commands.
// Any of them may be nil; commands needing a missing service return an error.
func SetServices(sync driving.SyncService, settings driving.SettingsService, tokens driven.TokenStore) {
	syncService = sync
	settingsService = settings
	tokenStore = tokens
}

// commandContext returns the command context, or Background if unset.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// startAutoSync enables periodic sync for long-running commands when the
// settings ask for it. The returned func disables it again.
func startAutoSync() func() {
	if syncService == nil || settingsService == nil {
		return func() {}
	}
	settings, err := settingsService.Get()
	if err != nil || !settings.AutoSync {
		return func() {}
	}
	syncService.EnableAutoSync(settings.Interval)
	return syncService.DisableAutoSync
}

// formatTime renders a timestamp in local time, or "never" when zero.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
