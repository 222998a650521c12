// Package watch reruns a scan whenever class files under a directory
// change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
)

// Func is called once at start and again after each settled burst of
// changes. Its error is logged and does not stop the watch.
type Func func(ctx context.Context) error

type Watcher struct {
	root     string
	debounce time.Duration
	logger   hclog.Logger
	fsw      *fsnotify.Watcher
}

func New(root string, debounce time.Duration, logger hclog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}
	w := &Watcher{root: root, debounce: debounce, logger: logger, fsw: fsw}
	if err := w.addRecursive(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addRecursive watches dir and every directory below it.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			w.logger.Warn("skipping unreadable directory", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// relevant reports whether an event can change scan results.
func relevant(ev fsnotify.Event) bool {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return false
	}
	// removed or renamed directories carry no extension
	return strings.HasSuffix(ev.Name, ".class") || filepath.Ext(ev.Name) == ""
}

// Run calls fn, then again whenever class files settle after a change,
// until ctx is cancelled. It closes the watcher on return.
func (w *Watcher) Run(ctx context.Context, fn Func) error {
	defer w.fsw.Close()

	w.trigger(ctx, fn)

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				// new subdirectories need their own watch
				if err := w.addRecursive(ev.Name); err != nil {
					w.logger.Debug("not watching new path", "path", ev.Name, "error", err)
				}
			}
			if !relevant(ev) {
				continue
			}
			w.logger.Trace("change detected", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-timer.C:
			w.trigger(ctx, fn)
		}
	}
}

func (w *Watcher) trigger(ctx context.Context, fn Func) {
	if err := fn(ctx); err != nil {
		w.logger.Error("rescan failed", "root", w.root, "error", err)
	}
}
