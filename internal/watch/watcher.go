// Package watch regenerates output when input tables change on disk.
package watch

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the directories of a fixed set of table files and
// invokes a callback for each table that changed, debounced so editor
// save storms collapse into one regeneration.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	tables   map[string]struct{}
	onChange func(path string)
}

// New creates a watcher over the given table files. Paths must be
// absolute; their parent directories are watched so tables recreated by
// rename-over-save are still seen.
func New(tables []string, debounce time.Duration, onChange func(path string)) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fs:       fs,
		debounce: debounce,
		tables:   make(map[string]struct{}, len(tables)),
		onChange: onChange,
	}

	dirs := make(map[string]struct{})
	for _, t := range tables {
		clean := filepath.Clean(t)
		w.tables[clean] = struct{}{}
		dirs[filepath.Dir(clean)] = struct{}{}
	}
	for dir := range dirs {
		if err := fs.Add(dir); err != nil {
			fs.Close()
			return nil, err
		}
	}

	return w, nil
}

// Close releases the underlying file system watcher
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run processes events until ctx is cancelled or the watcher is closed.
// Changed tables are batched and flushed once per debounce window.
func (w *Watcher) Run(ctx context.Context) error {
	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerC <-chan time.Time

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			pending[filepath.Clean(ev.Name)] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			}

		case <-timerC:
			for path := range pending {
				w.onChange(path)
			}
			pending = make(map[string]struct{})
			timer = nil
			timerC = nil

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", err)
		}
	}
}

// relevant filters events down to writes and creations of watched tables
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	_, ok := w.tables[filepath.Clean(ev.Name)]
	return ok
}
