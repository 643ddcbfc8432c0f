package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gridsync/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronise queued changes with the server",
	Long: `Uploads every queued change as one batch, then downloads changes made on
the server since the last successful sync.

Changes the server rejects stay in the queue marked as failed and are sent
again on the next sync. If a sync is already running (for example from a
daemon using the same data directory), this waits for it instead.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	ctx := commandContext(cmd)

	states, unsubscribe := syncService.Subscribe()
	defer unsubscribe()

	before := syncService.State()
	cmd.Printf("Synchronising %d pending change(s)...\n", before.PendingRecords+before.FailedRecords)

	done := syncService.Sync(ctx)
	var lastPhase domain.SyncPhase

wait:
	for {
		select {
		case state, ok := <-states:
			if !ok {
				states = nil
				continue
			}
			if state.IsSyncing && state.Phase != lastPhase {
				cmd.Printf("  %s\n", phaseLabel(state.Phase))
				lastPhase = state.Phase
			}
		case <-done:
			break wait
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	state := syncService.State()
	if state.HasError() {
		return fmt.Errorf("sync failed: %s", state.Error)
	}

	cmd.Printf("Sync completed at %s.\n", formatTime(state.LastSyncTime))
	cmd.Printf("  Pending: %d\n", state.PendingRecords)
	cmd.Printf("  Failed:  %d\n", state.FailedRecords)
	if state.FailedRecords > 0 {
		cmd.Println("Rejected changes are kept and retried; see 'gridsync pending --failed'.")
	}
	return nil
}

// phaseLabel describes a sync phase for progress output.
func phaseLabel(phase domain.SyncPhase) string {
	switch phase {
	case domain.PhaseUploading:
		return "Uploading changes..."
	case domain.PhaseDownloading:
		return "Downloading server changes..."
	default:
		return "Idle"
	}
}
