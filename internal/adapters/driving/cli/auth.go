package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the sync server access token",
	Long: `Store, inspect and remove the bearer token sent to the sync server.

The token is kept in the config file. When GRIDSYNC_TOKEN is set in the
environment it takes precedence over the stored token.

Examples:
  # Prompt for the token without echoing it
  gridsync auth set-token

  # Show whether a token is configured
  gridsync auth status`,
}

var authSetTokenCmd = &cobra.Command{
	Use:   "set-token [token]",
	Short: "Store the access token",
	Long: `Stores the bearer token used for sync requests.
Without an argument the token is read from the terminal without echo.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthSetToken,
}

var authClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored access token",
	Args:  cobra.NoArgs,
	RunE:  runAuthClear,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether an access token is configured",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authSetTokenCmd)
	authCmd.AddCommand(authClearCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthSetToken(cmd *cobra.Command, args []string) error {
	if tokenStore == nil {
		return errors.New("token store not configured")
	}

	var token string
	if len(args) > 0 {
		token = args[0]
	} else {
		cmd.Print("Access token: ")
		token = readSecret(cmd)
		cmd.Println()
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token cannot be empty")
	}

	if err := tokenStore.SetToken(token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	cmd.Printf("Token saved (%s).\n", maskToken(token))
	return nil
}

func runAuthClear(cmd *cobra.Command, _ []string) error {
	if tokenStore == nil {
		return errors.New("token store not configured")
	}

	if err := tokenStore.ClearToken(); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}

	cmd.Println("Token removed.")
	if tokenStore.IsAuthenticated() {
		cmd.Println("GRIDSYNC_TOKEN is still set in the environment and will be used.")
	}
	return nil
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	if tokenStore == nil {
		return errors.New("token store not configured")
	}

	if !tokenStore.IsAuthenticated() {
		cmd.Println("No access token configured. Requests are sent without authorisation.")
		return nil
	}

	token, err := tokenStore.GetToken(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	cmd.Printf("Access token configured: %s\n", maskToken(token))
	return nil
}

// readSecret reads a line without echo when stdin is a terminal,
// falling back to the command's input otherwise.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readSecret(cmd *cobra.Command) string {
	if cmd.InOrStdin() == os.Stdin && term.IsTerminal(int(os.Stdin.Fd())) {
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(secret)
		}
	}
	reader := bufio.NewReader(cmd.InOrStdin())
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
