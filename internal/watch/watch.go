// Package watch reports changes to service directories.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a directory must stay quiet before its
// change is reported.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches a set of directories.
type Watcher struct {
	// Debounce groups the events of one burst of writes.
	Debounce time.Duration

	logger  *slog.Logger
	watcher *fsnotify.Watcher
	dirs    map[string]string // cleaned absolute path to the name given to New
}

// New watches dirs. Close releases the watcher.
func New(logger *slog.Logger, dirs ...string) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		Debounce: DefaultDebounce,
		logger:   logger,
		watcher:  fw,
		dirs:     make(map[string]string, len(dirs)),
	}
	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("resolve %s: %w", dir, err)
		}
		if err := fw.Add(abs); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		w.dirs[abs] = dir
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run calls changed with the name of every directory whose files changed,
// once per burst of events, until ctx is done or the watcher is closed.
// Calls to changed are sequential.
func (w *Watcher) Run(ctx context.Context, changed func(ctx context.Context, dir string)) error {
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	pending := make(map[string]bool)
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			dir, relevant := w.relevant(event)
			if !relevant {
				continue
			}
			w.logger.Debug("directory changed",
				slog.String("event", event.Op.String()),
				slog.String("file", event.Name))
			pending[dir] = true
			timer.Reset(debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("file watcher error", slog.Any("error", err))

		case <-timer.C:
			dirs := make([]string, 0, len(pending))
			for dir := range pending {
				dirs = append(dirs, dir)
			}
			sort.Strings(dirs)
			clear(pending)
			for _, dir := range dirs {
				changed(ctx, dir)
			}
		}
	}
}

// relevant maps an event to the watched directory it belongs to.
func (w *Watcher) relevant(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return "", false
	}
	// Editors and the filesystem sink write through hidden temporary files.
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return "", false
	}
	dir, ok := w.dirs[filepath.Dir(event.Name)]
	return dir, ok
}
