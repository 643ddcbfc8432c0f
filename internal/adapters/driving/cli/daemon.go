package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gridsync/internal/core/domain"
	"github.com/custodia-labs/gridsync/internal/logger"
)

// StateObserver consumes sync state snapshots until ctx is done.
type StateObserver interface {
	Watch(ctx context.Context, states <-chan domain.SyncState)
}

// DaemonConfig holds the optional collaborators of the daemon command.
type DaemonConfig struct {
	// MetricsHandler serves the metrics endpoint. Nil disables metrics.
	MetricsHandler http.Handler

	// Observer receives every state snapshot, typically to update metrics.
	Observer StateObserver

	// WatchConfig starts watching the config file and calls onChange after
	// it has been reloaded. The returned func stops watching.
	WatchConfig func(onChange func()) (stop func() error, err error)
}

var daemonConfig *DaemonConfig

// SetDaemonConfig sets the collaborators of the daemon command.
func SetDaemonConfig(config *DaemonConfig) {
	daemonConfig = config
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run periodic sync in the foreground",
	Long: `Runs a sync immediately, then every sync interval until interrupted.

Edits to the config file are picked up while running: a changed interval
restarts the schedule. The server URL and storage settings apply on the
next start.

Use --metrics-addr (or metrics.addr) to expose Prometheus metrics at
/metrics, and --log-file (or log.file) to write a rotating log.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

// Flags for daemon.
var (
	daemonLogFile     string
	daemonMetricsAddr string
)

// metricsShutdownTimeout bounds graceful shutdown of the metrics server.
const metricsShutdownTimeout = 5 * time.Second

func init() {
	daemonCmd.Flags().StringVar(&daemonLogFile, "log-file", "", "Write logs to a rotating file")
	daemonCmd.Flags().StringVar(&daemonMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if !settings.IsRemoteConfigured() {
		return errors.New("server url not set; run 'gridsync settings set server.url <url>'")
	}

	logFile := firstSet(daemonLogFile, settings.LogFile)
	if logFile != "" {
		logger.SetFile(logFile)
		defer logger.Close() //nolint:errcheck
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config := daemonConfig
	if config == nil {
		config = &DaemonConfig{}
	}

	if config.Observer != nil {
		states, unsubscribe := syncService.Subscribe()
		defer unsubscribe()
		go config.Observer.Watch(ctx, states)
	}

	metricsAddr := firstSet(daemonMetricsAddr, settings.MetricsAddr)
	if metricsAddr != "" && config.MetricsHandler != nil {
		server := startMetricsServer(metricsAddr, config.MetricsHandler)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
		cmd.Printf("Metrics available at http://%s/metrics\n", metricsAddr)
	}

	syncService.EnableAutoSync(settings.Interval)
	defer syncService.DisableAutoSync()

	cmd.Printf("Syncing with %s every %s. Press Ctrl+C to stop.\n", settings.ServerURL, settings.Interval)
	logger.Info("daemon: started, interval %s", settings.Interval)

	if config.WatchConfig != nil {
		current := settings.Interval
		stopWatching, err := config.WatchConfig(func() {
			current = reapplyInterval(current)
		})
		if err != nil {
			logger.Warn("daemon: config changes will not be picked up: %v", err)
		} else {
			defer stopWatching() //nolint:errcheck
		}
	}

	syncService.Sync(ctx)

	<-ctx.Done()
	cmd.Println("Stopping...")
	logger.Info("daemon: stopped")
	return nil
}

// reapplyInterval restarts the schedule if the configured interval changed.
// Called from the config watcher goroutine only.
func reapplyInterval(current time.Duration) time.Duration {
	settings, err := settingsService.Get()
	if err != nil {
		logger.Warn("daemon: reading settings after config change: %v", err)
		return current
	}
	if settings.Interval == current {
		return current
	}
	logger.Info("daemon: sync interval changed from %s to %s", current, settings.Interval)
	syncService.EnableAutoSync(settings.Interval)
	return settings.Interval
}

func startMetricsServer(addr string, handler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("daemon: metrics server: %v", err)
		}
	}()
	return server
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
