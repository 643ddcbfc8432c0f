// Command gridsync queues offline grid asset changes and synchronises them
// with the sync server.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/custodia-labs/gridsync/internal/adapters/driven/applier"
	"github.com/custodia-labs/gridsync/internal/adapters/driven/auth"
	configfile "github.com/custodia-labs/gridsync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/gridsync/internal/adapters/driven/metrics"
	"github.com/custodia-labs/gridsync/internal/adapters/driven/notify"
	"github.com/custodia-labs/gridsync/internal/adapters/driven/remote"
	filestore "github.com/custodia-labs/gridsync/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/gridsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/gridsync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/gridsync/internal/adapters/driving/cli"
	"github.com/custodia-labs/gridsync/internal/core/domain"
	"github.com/custodia-labs/gridsync/internal/core/ports/driven"
	"github.com/custodia-labs/gridsync/internal/core/services"
	"github.com/custodia-labs/gridsync/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const journalFile = "applied.jsonl"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	configStore, err := configfile.NewConfigStore(os.Getenv("GRIDSYNC_HOME"))
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	storage, err := openStorage(settings)
	if err != nil {
		return err
	}
	defer storage.close()

	tokenStore := auth.NewConfigTokenStore(configStore)
	collector := metrics.NewCollector()

	syncRemote, err := newRemote(ctx, settings, tokenStore, collector)
	if err != nil {
		// Commands that fix the settings must still run.
		logger.Warn("sync server unavailable: %v", err)
	}

	var journal io.Writer
	if storage.dir != "" {
		j := applier.OpenJournal(filepath.Join(storage.dir, journalFile))
		defer j.Close()
		journal = j
	}

	notifier := notify.FuncNotifier(func() {
		logger.Debug("server changes applied")
	})

	syncService := services.NewSyncService(ctx, storage.queue, syncRemote, applier.New(journal), notifier)
	syncService.SetHistoryStore(storage.history)
	defer syncService.Close()

	cli.SetVersion(version)
	cli.SetServices(syncService, settingsService, tokenStore)
	cli.SetDaemonConfig(&cli.DaemonConfig{
		MetricsHandler: collector.Handler(),
		Observer:       collector,
		WatchConfig: func(onChange func()) (func() error, error) {
			watcher := configfile.NewConfigWatcher(configStore, onChange)
			if err := watcher.Start(); err != nil {
				return nil, err
			}
			return watcher.Stop, nil
		},
	})

	return cli.ExecuteContext(ctx)
}

// storageSet holds the stores for the configured backend.
type storageSet struct {
	queue   driven.QueueStore
	history driven.SyncHistoryStore
	// dir is where on-disk artifacts live; empty for the memory backend.
	dir   string
	close func()
}

func openStorage(settings *domain.SyncSettings) (*storageSet, error) {
	switch settings.StorageBackend {
	case domain.StorageFile:
		store, err := filestore.NewQueueStore(settings.StorageDir)
		if err != nil {
			return nil, fmt.Errorf("open file queue store: %w", err)
		}
		return &storageSet{
			queue:   store,
			history: memory.NewHistoryStore(),
			dir:     store.Dir(),
			close:   func() {},
		}, nil
	case domain.StorageMemory:
		return &storageSet{
			queue:   memory.NewQueueStore(),
			history: memory.NewHistoryStore(),
			close:   func() {},
		}, nil
	default:
		store, err := sqlite.NewStore(settings.StorageDir)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return &storageSet{
			queue:   store.QueueStore(),
			history: store.HistoryStore(),
			dir:     filepath.Dir(store.Path()),
			close: func() {
				if err := store.Close(); err != nil {
					logger.Warn("closing store: %v", err)
				}
			},
		}, nil
	}
}

// newRemote returns nil when no server URL is configured, so the service
// reports the remote as not configured instead of holding a nil pointer.
func newRemote(
	ctx context.Context,
	settings *domain.SyncSettings,
	tokens driven.TokenStore,
	collector *metrics.Collector,
) (driven.SyncRemote, error) {
	if settings.ServerURL == "" {
		return nil, nil
	}

	cfg := remote.Config{
		BaseURL:   settings.ServerURL,
		Timeout:   settings.RequestTimeout,
		RateLimit: settings.RateLimit,
		Transport: collector.InstrumentRoundTripper(http.DefaultTransport),
		UserAgent: "gridsync/" + version,
	}
	if tokens.IsAuthenticated() {
		cfg.TokenSource = auth.NewTokenSource(ctx, tokens)
	}

	client, err := remote.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}
