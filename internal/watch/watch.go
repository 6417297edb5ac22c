// Package watch triggers re-analysis when JS/TS source files change, for
// `cmd/flowgraph watch`. It is a debounced wrapper around fsnotify,
// grounded on panbanda-omen's pkg/watch.Watcher.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

var watchedExtensions = map[string]bool{
	".js": true, ".mjs": true, ".cjs": true, ".jsx": true,
	".ts": true, ".tsx": true,
}

func isWatchable(path string) bool {
	return watchedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Watcher monitors a directory tree for JS/TS source changes and invokes a
// callback once each changed file has settled for the debounce period.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	root      string
	debounce  time.Duration
	callback  func(path string)

	mu      sync.Mutex
	pending map[string]time.Time
}

// New creates a Watcher rooted at root. debounce <= 0 selects a 500ms
// default, matching the teacher's watcher.
func New(root string, debounce time.Duration, callback func(path string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		fsWatcher: fsw,
		root:      root,
		debounce:  debounce,
		callback:  callback,
		pending:   make(map[string]time.Time),
	}, nil
}

// Run walks root adding every directory except node_modules and .git (and
// everything beneath them) to the watch list, then blocks
// processing filesystem events until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	err := filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if info.Name() == "node_modules" || info.Name() == ".git" {
				return filepath.SkipDir
			}
			return w.fsWatcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return w.fsWatcher.Close()
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case _, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	if !isWatchable(event.Name) {
		return
	}
	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending()
		}
	}
}

func (w *Watcher) processPending() {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			ready = append(ready, path)
		}
	}
	for _, path := range ready {
		delete(w.pending, path)
	}
	w.mu.Unlock()

	for _, path := range ready {
		if w.callback != nil {
			w.callback(path)
		}
	}
}
