package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher signals when any of a set of files changes on disk. It watches
// the parent directories rather than the files themselves, because most
// writers (go test included) replace files via create-then-rename, which
// drops a direct file watch.
type Watcher struct {
	files    map[string]struct{} // absolute paths of interest
	fsw      *fsnotify.Watcher
	debounce *Debouncer
	changed  chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a watcher for the given files. debounce of 0 uses the
// default window.
func New(debounce time.Duration, paths ...string) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no paths to watch")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	files := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("resolve watch path %q: %w", p, err)
		}
		files[abs] = struct{}{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		files:    files,
		fsw:      fsw,
		debounce: NewDebouncer(debounce),
		changed:  make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Changed delivers one signal per settled burst of writes to any watched
// file. The channel has capacity one; signals are never stacked.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changed
}

// Start registers the directory watches and begins the event loop.
func (w *Watcher) Start() error {
	dirs := make(map[string]struct{})
	for f := range w.files {
		dirs[filepath.Dir(f)] = struct{}{}
	}
	for d := range dirs {
		if err := w.fsw.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}

	go w.watchLoop()
	return nil
}

// Stop shuts the watcher down. No signals are delivered after Stop.
func (w *Watcher) Stop() {
	w.cancel()
	w.debounce.Cancel()
	w.fsw.Close()
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			// Only writes and replace-style updates matter (not chmod, etc).
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, watched := w.files[abs]; !watched {
				continue
			}
			w.debounce.Trigger(w.signal)

		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			// Watch errors are transient (editor temp files, etc); the
			// next real event still arrives.
		}
	}
}

func (w *Watcher) signal() {
	if w.ctx.Err() != nil {
		return
	}
	select {
	case w.changed <- struct{}{}:
	default:
		// A signal is already pending; the consumer will pick up the
		// latest state when it drains it.
	}
}
