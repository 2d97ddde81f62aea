package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"skillsight/internal/errors"
)

// CatalogWatcher watches a rules catalog file and reloads the catalog when
// it changes. Reloads are debounced so editors that write in several steps
// trigger one swap, and a malformed file leaves the active catalog intact.
type CatalogWatcher struct {
	mu sync.Mutex

	path    string
	catalog *Catalog

	lastModTime time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	onReload func(revision int)
	logger   *errors.Logger

	running bool
}

// NewCatalogWatcher creates a watcher for the catalog file at path. The
// onReload hook runs after each successful swap with the new revision and
// may be nil.
func NewCatalogWatcher(path string, catalog *Catalog, debounceDelay time.Duration, onReload func(revision int), logger *errors.Logger) *CatalogWatcher {
	if debounceDelay == 0 {
		debounceDelay = time.Second
	}

	return &CatalogWatcher{
		path:          path,
		catalog:       catalog,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1), // Buffered to prevent blocking
		onReload:      onReload,
		logger:        logger,
	}
}

// Start begins watching the catalog file for changes.
func (w *CatalogWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("catalog watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fsWatcher = watcher

	if stat, err := os.Stat(w.path); err == nil {
		w.lastModTime = stat.ModTime()
	}

	if err := w.fsWatcher.Add(w.path); err != nil {
		if !os.IsNotExist(err) {
			w.closeWatcher()
			return fmt.Errorf("failed to watch catalog file %s: %w", w.path, err)
		}
	}
	// Watch the directory too, to catch atomic writes (rename operations)
	// and the file being created later.
	dir := filepath.Dir(w.path)
	if err := w.fsWatcher.Add(dir); err != nil {
		w.closeWatcher()
		return fmt.Errorf("failed to watch catalog directory %s: %w", dir, err)
	}

	w.running = true
	go w.watchLoop()

	if w.logger != nil {
		w.logger.Info("Rules catalog watcher started",
			"file", w.path,
			"debounce_delay", w.debounceDelay)
	}
	return nil
}

// Stop stops the watcher.
func (w *CatalogWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	close(w.stopChan)

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	if w.fsWatcher != nil {
		if err := w.fsWatcher.Close(); err != nil {
			if w.logger != nil {
				w.logger.LogError(err, "Failed to close catalog file watcher")
			}
			return err
		}
	}

	w.running = false

	if w.logger != nil {
		w.logger.Info("Rules catalog watcher stopped")
	}
	return nil
}

// IsRunning returns whether the watcher is currently running.
func (w *CatalogWatcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *CatalogWatcher) closeWatcher() {
	if w.fsWatcher != nil {
		if err := w.fsWatcher.Close(); err != nil && w.logger != nil {
			w.logger.LogError(err, "Failed to close file watcher during cleanup")
		}
	}
}

func (w *CatalogWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if w.shouldProcessEvent(event) {
				w.scheduleReload()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.LogError(err, "Catalog file watcher error")
			}

		case <-w.reloadChan:
			if w.fileChanged() {
				w.reload()
			}

		case <-w.stopChan:
			return
		}
	}
}

func (w *CatalogWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Name != w.path && filepath.Base(event.Name) != filepath.Base(w.path) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// fileChanged checks the modification time so a debounced trigger with no
// real content change does not force a reload.
func (w *CatalogWatcher) fileChanged() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	stat, err := os.Stat(w.path)
	if err != nil {
		return false
	}
	if w.lastModTime.IsZero() || stat.ModTime().After(w.lastModTime) {
		w.lastModTime = stat.ModTime()
		return true
	}
	return false
}

func (w *CatalogWatcher) reload() {
	if err := w.catalog.LoadFile(w.path); err != nil {
		if w.logger != nil {
			w.logger.LogError(err, "Rules catalog reload failed, keeping previous rules",
				"file", w.path)
		}
		return
	}

	revision := w.catalog.Revision()
	if w.logger != nil {
		w.logger.Info("Rules catalog reloaded",
			"file", w.path,
			"revision", revision,
			"forms", w.catalog.FormTypes())
	}
	if w.onReload != nil {
		w.onReload(revision)
	}
}

func (w *CatalogWatcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		select {
		case w.reloadChan <- struct{}{}:
			// Reload scheduled
		default:
			// Channel is full, reload already scheduled
		}
	})
}
