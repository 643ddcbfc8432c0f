package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	Long:  `Shows the queue counts, the last successful sync and the configured server.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	state := syncService.State()

	cmd.Println("Sync Status")
	cmd.Println("===========")
	cmd.Println()

	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			server := settings.ServerURL
			if server == "" {
				server = "(not configured)"
			}
			cmd.Printf("  Server:     %s\n", server)
		}
	}
	if tokenStore != nil {
		if tokenStore.IsAuthenticated() {
			cmd.Println("  Auth:       token configured")
		} else {
			cmd.Println("  Auth:       none")
		}
	}

	cmd.Printf("  Last sync:  %s\n", formatTime(state.LastSyncTime))
	cmd.Printf("  Pending:    %d\n", state.PendingRecords)
	cmd.Printf("  Failed:     %d\n", state.FailedRecords)
	if state.IsSyncing {
		cmd.Printf("  Running:    %s\n", state.Phase)
	}
	if state.HasError() {
		cmd.Printf("  Last error: %s\n", state.Error)
	}

	return nil
}
