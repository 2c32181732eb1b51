// Package watcher reloads roadmap data when its backing files change.
package watcher

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultQuiet is how long the store files must stay untouched before a
// batch of changes is reported.
const DefaultQuiet = 250 * time.Millisecond

// Watcher reports which store files changed once writes to them settle.
// Parent directories are watched instead of the files so atomic
// temp-and-rename writes are seen. Every file touched during a burst is
// reported in one call, so a store that rewrites tasks and phases
// together triggers a single reload.
type Watcher struct {
	fs       *fsnotify.Watcher
	files    map[string]bool
	quiet    time.Duration
	onChange func(changed []string)
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer
	// gen invalidates a flush whose timer fired after being replaced.
	gen    uint64
	closed bool

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New starts watching paths. quiet 0 uses DefaultQuiet. onChange receives
// the sorted absolute paths that changed since the previous call.
func New(paths []string, quiet time.Duration, onChange func(changed []string), logger *slog.Logger) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("watcher: no paths")
	}
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: %w", err)
	}
	w := &Watcher{
		fs:       fsw,
		files:    make(map[string]bool),
		quiet:    quiet,
		onChange: onChange,
		logger:   logger,
		pending:  make(map[string]bool),
		done:     make(chan struct{}),
	}
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watcher: %w", err)
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watcher: watch %s: %w", dir, err)
		}
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Quiet returns the settle time.
func (w *Watcher) Quiet() time.Duration { return w.quiet }

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			path, ok := w.storeFile(ev)
			if !ok {
				continue
			}
			w.logger.Debug("data file changed", "path", path, "op", ev.Op.String())
			w.note(path)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// storeFile maps an event to the watched file it touched.
func (w *Watcher) storeFile(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return "", false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil || !w.files[abs] {
		return "", false
	}
	return abs, true
}

// note adds path to the pending batch and restarts the quiet period.
func (w *Watcher) note(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.pending[path] = true
	w.gen++
	gen := w.gen
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.quiet, func() { w.flush(gen) })
}

func (w *Watcher) flush(gen uint64) {
	w.mu.Lock()
	if gen != w.gen || w.closed || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	w.pending = make(map[string]bool)
	w.timer = nil
	w.mu.Unlock()

	sort.Strings(changed)
	w.onChange(changed)
}

// Close stops watching and drops any unreported changes.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		w.mu.Unlock()

		close(w.done)
		err = w.fs.Close()
		w.wg.Wait()
	})
	return err
}
