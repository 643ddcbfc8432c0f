package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// runCommand executes the root command with args and returns its output.
// Flags are reset afterwards since cobra keeps them between executions.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCommandWithInput(t, "", args...)
}

func runCommandWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	return runCommandContext(t, context.Background(), input, args...)
}

func runCommandContext(t *testing.T, ctx context.Context, input string, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetContext(context.Background())
		resetFlags(rootCmd)
	}()

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

// withServices swaps in mocks for the duration of a test.
func withServices(t *testing.T, sync *mockSyncService, settings *mockSettingsService, tokens *mockTokenStore) {
	t.Helper()

	oldSync, oldSettings, oldTokens := syncService, settingsService, tokenStore
	syncService, settingsService, tokenStore = nil, nil, nil
	if sync != nil {
		syncService = sync
	}
	if settings != nil {
		settingsService = settings
	}
	if tokens != nil {
		tokenStore = tokens
	}
	t.Cleanup(func() {
		syncService, settingsService, tokenStore = oldSync, oldSettings, oldTokens
	})
}

// safeBuffer is a bytes.Buffer safe for concurrent writers.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
