// Package watcher observes a lore book root, debounces bursts of filesystem
// events into single changes, and serializes the resulting push invocations
// so that no two pushes for the same root ever run concurrently.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tavern-tools/loresync/internal/localstore"
)

// Config holds watcher tuning knobs.
type Config struct {
	// Debounce is the stability window: a change is delivered only after
	// no further events have arrived for this long.
	Debounce time.Duration
	// Poll is how often the pending set is checked against the window.
	Poll time.Duration
	// Logger for watch activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Debounce: 500 * time.Millisecond,
		Poll:     100 * time.Millisecond,
		Logger:   log.New(os.Stderr, "[watch] ", log.LstdFlags),
	}
}

// Watcher drives auto-push for one local lore book root. It watches the
// index file and the entries subtree recursively; any add, change, delete,
// or rename under either feeds the push gate after debouncing.
type Watcher struct {
	dir    string
	config *Config
	gate   *PushGate

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]time.Time
}

// New creates a Watcher for dir that invokes push through a serializing gate.
func New(dir string, push PushFunc, config *Config) (*Watcher, error) {
	if config == nil {
		config = DefaultConfig()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &Watcher{
		dir:     dir,
		config:  config,
		gate:    NewPushGate(push, config.Logger),
		fsw:     fsw,
		pending: make(map[string]time.Time),
	}, nil
}

// Run watches until ctx is cancelled. The underlying OS watch handle is
// closed on the way out, so wiring ctx to process interruption gives the
// termination hook the watch loop needs.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	entriesDir := filepath.Join(w.dir, localstore.EntriesDirName)
	if err := w.addRecursive(entriesDir); err != nil {
		return err
	}

	w.config.Logger.Printf("Watching %s", w.dir)

	ticker := time.NewTicker(w.config.Poll)
	defer ticker.Stop()
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			w.config.Logger.Println("Watch interrupted, stopping")
			w.gate.Wait()
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.config.Logger.Printf("Watcher error: %v", err)

		case <-ticker.C:
			if w.drainStable() {
				w.gate.Trigger(ctx)
			}
		}
	}
}

// addRecursive watches dir and every directory below it. Missing directories
// are skipped; the index file watch on the root already covers their later
// creation.
func (w *Watcher) addRecursive(dir string) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return nil
}

// handleEvent records qualifying events in the pending set and extends the
// recursive watch when new directories appear under the entries subtree.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.inEntriesTree(event.Name) {
				if err := w.fsw.Add(event.Name); err != nil {
					w.config.Logger.Printf("Failed to watch new directory %s: %v", event.Name, err)
				}
			}
			return
		}
	}

	if !w.qualifies(event.Name) {
		return
	}

	w.config.Logger.Printf("File event: %s %s", event.Op, event.Name)
	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// qualifies reports whether a path participates in the sync: the index file
// or any content file under the entries subtree.
func (w *Watcher) qualifies(path string) bool {
	if filepath.Base(path) == localstore.IndexFileName {
		return filepath.Dir(path) == filepath.Clean(w.dir)
	}
	ext := filepath.Ext(path)
	if ext != ".yaml" && ext != ".yml" {
		return false
	}
	return w.inEntriesTree(path)
}

// inEntriesTree reports whether path lies within the entries subtree. A bare
// string prefix check would also match siblings like entries_backup/, so the
// relative path is computed instead.
func (w *Watcher) inEntriesTree(path string) bool {
	entriesDir := filepath.Join(w.dir, localstore.EntriesDirName)
	rel, err := filepath.Rel(entriesDir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

// drainStable reports whether the pending set is non-empty and every entry
// has been quiet for the full stability window; if so the set is cleared.
// A burst of saves is observed as one change this way.
func (w *Watcher) drainStable() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) == 0 {
		return false
	}
	now := time.Now()
	for _, queuedAt := range w.pending {
		if now.Sub(queuedAt) < w.config.Debounce {
			return false
		}
	}
	w.pending = make(map[string]time.Time)
	return true
}
