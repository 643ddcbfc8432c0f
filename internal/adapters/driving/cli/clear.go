package cli

import (
	"bufio"
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard all queued changes",
	Long: `Removes every queued change, pending and failed, without sending it.
This cannot be undone.`,
	Args: cobra.NoArgs,
	RunE: runClear,
}

var clearYes bool

func init() {
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, _ []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	count := len(syncService.PendingChanges())
	if count == 0 {
		cmd.Println("No queued changes.")
		return nil
	}

	if !clearYes {
		cmd.Printf("Discard %d queued change(s)? [y/N]: ", count)
		reader := bufio.NewReader(cmd.InOrStdin())
		answer, _ := reader.ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			cmd.Println("Cancelled.")
			return nil
		}
	}

	syncService.ClearPendingChanges(commandContext(cmd))
	cmd.Printf("Discarded %d change(s).\n", count)
	return nil
}
