package file

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/gridsync/internal/logger"
)

// reloadDebounce collapses the burst of events an editor save produces.
const reloadDebounce = 200 * time.Millisecond

// ConfigWatcher reloads a ConfigStore when its file changes on disk and
// then calls onChange. The containing directory is watched so that
// editors which replace the file by rename are still seen.
type ConfigWatcher struct {
	store    *ConfigStore
	onChange func()
	debounce time.Duration

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewConfigWatcher creates a watcher for store. onChange may be nil.
func NewConfigWatcher(store *ConfigStore, onChange func()) *ConfigWatcher {
	return &ConfigWatcher{
		store:    store,
		onChange: onChange,
		debounce: reloadDebounce,
	}
}

// Start begins watching. Returns an error if already running.
func (w *ConfigWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("config watcher already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	dir := filepath.Dir(w.store.Path())
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching config directory %s: %w", dir, err)
	}

	w.watcher = watcher
	w.done = make(chan struct{})
	w.running = true
	w.wg.Add(1)
	go w.loop(watcher, w.done)

	return nil
}

// Stop stops watching and waits for the event loop to exit. Idempotent.
func (w *ConfigWatcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.done)
	watcher := w.watcher
	w.mu.Unlock()

	err := watcher.Close()
	w.wg.Wait()
	if err != nil {
		return fmt.Errorf("closing config watcher: %w", err)
	}
	return nil
}

func (w *ConfigWatcher) loop(watcher *fsnotify.Watcher, done <-chan struct{}) {
	defer w.wg.Done()

	target := filepath.Clean(w.store.Path())
	var (
		timer  *time.Timer
		reload <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-done:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			reload = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("config: watcher error: %v", err)

		case <-reload:
			reload = nil
			w.apply()
		}
	}
}

func (w *ConfigWatcher) apply() {
	if err := w.store.Load(); err != nil {
		logger.Warn("config: keeping previous settings, reload failed: %v", err)
		return
	}
	logger.Debug("config: reloaded %s", w.store.Path())
	if w.onChange != nil {
		w.onChange()
	}
}
