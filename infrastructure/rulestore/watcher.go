package rulestore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig configures the rule directory watcher
type WatcherConfig struct {
	// Dir is the directory holding rule documents
	Dir string

	// DebounceDelay is how long to wait for more changes before emitting
	DebounceDelay time.Duration

	// Logger for logging events
	Logger *slog.Logger
}

// RuleChange reports that the document of a category changed on disk
type RuleChange struct {
	// Category is the document name without extension
	Category string

	// Removed is true when the document no longer exists
	Removed bool
}

// Watcher watches a rule directory and emits one RuleChange per category
// after changes settle.
type Watcher struct {
	config  WatcherConfig
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op // category → most recent operation

	events    chan RuleChange
	done      chan struct{}
	closeOnce sync.Once
}

// NewWatcher creates a new rule directory watcher
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	if config.Dir == "" {
		return nil, fmt.Errorf("rule watcher needs a directory")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.DebounceDelay == 0 {
		config.DebounceDelay = 100 * time.Millisecond
	}

	return &Watcher{
		config:  config,
		watcher: fsw,
		logger:  logger,
		pending: make(map[string]fsnotify.Op),
		events:  make(chan RuleChange, 16),
		done:    make(chan struct{}),
	}, nil
}

// Events returns the channel of rule changes. It is closed when the
// watcher stops.
func (w *Watcher) Events() <-chan RuleChange {
	return w.events
}

// Start begins watching the directory until ctx is done or Stop is called
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.config.Dir); err != nil {
		return fmt.Errorf("failed to watch rule directory %s: %w", w.config.Dir, err)
	}

	go w.processEvents(ctx)

	w.logger.Info("rule watcher started",
		"dir", w.config.Dir,
		"debounce", w.config.DebounceDelay)
	return nil
}

// Done is closed once the watcher has released the directory watch,
// either through Stop or because the Start context ended.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	ticker := time.NewTicker(w.config.DebounceDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := w.Stop(); err != nil {
				w.logger.Warn("rule watcher close failed", "error", err)
			}
			return

		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("rule watcher error", "error", err)

		case <-ticker.C:
			w.flushPending()
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	category, ok := CategoryOf(filepath.Base(event.Name))
	if !ok || event.Has(fsnotify.Chmod) && event.Op == fsnotify.Chmod {
		return
	}

	w.pendingMu.Lock()
	w.pending[category] = event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("rule document change detected",
		"category", category,
		"op", event.Op.String())
}

func (w *Watcher) flushPending() {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toSend := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for category, op := range toSend {
		change := RuleChange{
			Category: category,
			Removed:  op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename),
		}
		select {
		case w.events <- change:
		default:
			w.logger.Warn("rule change channel full, dropping event", "category", category)
		}
	}
}
