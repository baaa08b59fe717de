// Package watcher reloads a topology document when it changes on disk.
// Events caused by the editor's own reconciliation writes are filtered out
// through a write-intent guard shared with the writer.
package watcher

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a topology file for external changes
type Watcher struct {
	path     string
	guard    *WriteGuard
	onChange func()
	debounce time.Duration
}

// New creates a watcher for the given file. Events are suppressed while the
// guard holds an active write lease.
func New(path string, guard *WriteGuard, onChange func()) *Watcher {
	return &Watcher{
		path:     path,
		guard:    guard,
		onChange: onChange,
		debounce: 500 * time.Millisecond,
	}
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Guard returns the write guard shared with the reconciler.
func (w *Watcher) Guard() *WriteGuard {
	return w.guard
}

// Watch starts watching the file for changes. It blocks until the context is
// cancelled or an error occurs.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory containing the file so editor-style replace-on-save
	// (write temp, rename over) is still seen
	dir := filepath.Dir(w.path)
	filename := filepath.Base(w.path)

	if err := watcher.Add(dir); err != nil {
		return err
	}

	log.Printf("Watching %s for changes", w.path)

	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if w.guard != nil && w.guard.Active() {
				// Our own reconciliation write; not an external edit
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				if w.guard != nil && w.guard.Active() {
					return
				}
				log.Printf("File changed: %s", w.path)
				w.onChange()
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watcher error: %v", err)

		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return ctx.Err()
		}
	}
}
