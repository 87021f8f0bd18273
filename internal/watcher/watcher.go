// Package watcher reports debounced changes to a fixed set of graph
// definition files.
//
// Editors often replace a file by writing a temporary and renaming it over
// the original, which drops a watch placed on the file itself. The watcher
// therefore subscribes to each file's parent directory and filters events
// down to the files it was asked about.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventOp represents the type of file system operation.
type EventOp int

const (
	Create EventOp = iota
	Write
	Remove
	Rename
)

// String returns the string representation of EventOp.
func (op EventOp) String() string {
	switch op {
	case Create:
		return "Create"
	case Write:
		return "Write"
	case Remove:
		return "Remove"
	case Rename:
		return "Rename"
	default:
		return "Unknown"
	}
}

// Event represents a change to one watched file.
type Event struct {
	Path string
	Op   EventOp
	Time time.Time
}

// DefaultDebounce is used when WatcherConfig.Debounce is zero.
const DefaultDebounce = 100 * time.Millisecond

// WatcherConfig holds configuration for the file watcher.
type WatcherConfig struct {
	// Files are the graph definition files to watch.
	Files []string
	// Debounce is the quiet period after the last change to a file before
	// its event is emitted.
	Debounce time.Duration
	// Logger receives watch errors. Defaults to slog.Default().
	Logger *slog.Logger
}

// Watcher watches files for changes and emits debounced events.
type Watcher struct {
	cfg    WatcherConfig
	files  map[string]struct{}
	dirs   []string
	fsw    *fsnotify.Watcher
	mu     sync.Mutex
	closed bool
}

// NewWatcher creates a new file watcher with the given configuration.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if len(cfg.Files) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	files := make(map[string]struct{}, len(cfg.Files))
	seenDirs := make(map[string]struct{})
	var dirs []string
	for _, f := range cfg.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", f, err)
		}
		files[abs] = struct{}{}
		dir := filepath.Dir(abs)
		if _, ok := seenDirs[dir]; !ok {
			seenDirs[dir] = struct{}{}
			dirs = append(dirs, dir)
		}
	}

	return &Watcher{cfg: cfg, files: files, dirs: dirs}, nil
}

// Start begins watching and returns a channel of debounced events. The
// channel is closed when ctx is cancelled or the watcher is closed.
func (w *Watcher) Start(ctx context.Context) (<-chan Event, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.fsw = fsw
	w.mu.Unlock()

	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	out := make(chan Event, 16)
	go w.eventLoop(ctx, fsw, out)
	return out, nil
}

// Close shuts down the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}

// Watching reports whether path is one of the watched files.
func (w *Watcher) Watching(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	_, ok := w.files[abs]
	return ok
}

func (w *Watcher) eventLoop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- Event) {
	// Pending timers may still fire after the loop exits, so out is closed
	// only once every in-flight emit has returned.
	var emitters sync.WaitGroup
	defer func() {
		emitters.Wait()
		close(out)
	}()

	type pending struct {
		event Event
		timer *time.Timer
	}
	pendingEvents := make(map[string]*pending)
	var mu sync.Mutex
	done := make(chan struct{})
	defer close(done)

	emit := func(path string) {
		defer emitters.Done()
		mu.Lock()
		p := pendingEvents[path]
		delete(pendingEvents, path)
		mu.Unlock()
		if p == nil {
			return
		}
		select {
		case out <- p.event:
		case <-ctx.Done():
		case <-done:
		}
	}

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			for _, p := range pendingEvents {
				if p.timer.Stop() {
					emitters.Done()
				}
			}
			mu.Unlock()
			return

		case fsEvent, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !w.Watching(fsEvent.Name) {
				continue
			}
			op, valid := convertOp(fsEvent.Op)
			if !valid {
				continue
			}
			evt := Event{Path: fsEvent.Name, Op: op, Time: time.Now()}
			path := fsEvent.Name

			// Debounce: restart the timer for this path.
			mu.Lock()
			if p, exists := pendingEvents[path]; exists {
				p.event = evt
				if p.timer.Stop() {
					emitters.Done()
				}
				emitters.Add(1)
				p.timer = time.AfterFunc(w.cfg.Debounce, func() { emit(path) })
			} else {
				p := &pending{event: evt}
				emitters.Add(1)
				p.timer = time.AfterFunc(w.cfg.Debounce, func() { emit(path) })
				pendingEvents[path] = p
			}
			mu.Unlock()

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.cfg.Logger.Warn("file watch error", "error", err)
		}
	}
}

func convertOp(op fsnotify.Op) (EventOp, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return Create, true
	case op.Has(fsnotify.Write):
		return Write, true
	case op.Has(fsnotify.Remove):
		return Remove, true
	case op.Has(fsnotify.Rename):
		return Rename, true
	default:
		return 0, false
	}
}
