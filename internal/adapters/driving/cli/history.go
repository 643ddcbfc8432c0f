package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent sync cycles",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of cycles to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}
	if historyLimit <= 0 {
		return errors.New("--limit must be positive")
	}

	results, err := syncService.History(commandContext(cmd), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(results) == 0 {
		cmd.Println("No sync history.")
		return nil
	}

	cmd.Printf("%-19s  %-8s  %8s  %8s  %10s  %8s\n", "STARTED", "RESULT", "UPLOADED", "REJECTED", "DOWNLOADED", "DURATION")
	for _, r := range results {
		result := "ok"
		if !r.Success {
			result = "failed"
		}
		cmd.Printf("%-19s  %-8s  %8d  %8d  %10d  %8s\n",
			formatTime(r.StartedAt), result, r.Uploaded, r.Rejected, r.Downloaded, r.Duration().Round(time.Millisecond))
		if r.Error != "" {
			cmd.Printf("    error: %s\n", r.Error)
		}
	}

	return nil
}
