package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gridsync/internal/core/domain"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List queued changes",
	Long: `Lists the changes waiting to be uploaded, oldest first.
Changes the server rejected are shown with status failed and their reason.`,
	Args: cobra.NoArgs,
	RunE: runPending,
}

// Flags for pending.
var (
	pendingJSON   bool
	pendingFailed bool
)

func init() {
	pendingCmd.Flags().BoolVar(&pendingJSON, "json", false, "Print the queue as JSON")
	pendingCmd.Flags().BoolVar(&pendingFailed, "failed", false, "Only show changes the server rejected")
	rootCmd.AddCommand(pendingCmd)
}

func runPending(cmd *cobra.Command, _ []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	records := syncService.PendingChanges()
	if pendingFailed {
		failed := make([]domain.SyncRecord, 0, len(records))
		for i := range records {
			if records[i].Status == domain.StatusFailed {
				failed = append(failed, records[i])
			}
		}
		records = failed
	}

	if pendingJSON {
		if records == nil {
			records = []domain.SyncRecord{}
		}
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding queue: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(records) == 0 {
		cmd.Println("No queued changes.")
		return nil
	}

	cmd.Printf("%-36s  %-8s  %-12s  %-8s  %-19s  %s\n", "ID", "ACTION", "ENTITY", "STATUS", "RECORDED", "TARGET")
	for i := range records {
		r := &records[i]
		target := domain.PayloadIdentifier(r.Data)
		if target == "" {
			target = "-"
		}
		cmd.Printf("%-36s  %-8s  %-12s  %-8s  %-19s  %s\n",
			r.ID, r.Action, r.EntityType, r.Status, formatTime(r.Timestamp), target)
		if r.Status == domain.StatusFailed && r.ErrorMessage != "" {
			cmd.Printf("    error: %s\n", r.ErrorMessage)
		}
	}
	cmd.Printf("\n%d change(s)\n", len(records))

	return nil
}
