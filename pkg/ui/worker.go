// This file implements the BackgroundWorker for off-thread snapshot builds.
package ui

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/covview/covview/pkg/loader"
	"github.com/covview/covview/pkg/model"
	"github.com/covview/covview/pkg/watcher"
)

// WorkerState represents the current state of the background worker.
type WorkerState int

const (
	// WorkerIdle means the worker is waiting for profile changes.
	WorkerIdle WorkerState = iota
	// WorkerProcessing means the worker is building a new snapshot.
	WorkerProcessing
	// WorkerStopped means the worker has been stopped.
	WorkerStopped
)

// String returns a human-readable state name.
func (s WorkerState) String() string {
	switch s {
	case WorkerIdle:
		return "idle"
	case WorkerProcessing:
		return "processing"
	case WorkerStopped:
		return "stopped"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// WorkerError wraps errors with phase context.
type WorkerError struct {
	Phase string    // "parse" or "assemble"
	Cause error     // The underlying error
	Time  time.Time // When the error occurred
}

func (e WorkerError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Phase, e.Cause)
}

func (e WorkerError) Unwrap() error {
	return e.Cause
}

// SnapshotReadyMsg is sent to the UI when a new snapshot tree is ready.
// The UI thread applies it with Synchronize; the worker never touches the
// view tree.
type SnapshotReadyMsg struct {
	Root *model.Node
}

// SnapshotErrorMsg is sent to the UI when snapshot building fails.
type SnapshotErrorMsg struct {
	Err         error
	Recoverable bool // True if the next profile write should recover
}

// BackgroundWorker watches the cover profile and rebuilds snapshot trees
// off the UI thread. It owns the loader.Builder, so unchanged subtrees
// keep their instances across rebuilds and the UI's Synchronize pass stays
// cheap.
type BackgroundWorker struct {
	// Configuration
	profilePath  string
	manifestPath string
	debounce     time.Duration

	// State
	mu       sync.RWMutex
	state    WorkerState
	dirty    bool // True if a change came in while processing
	snapshot *model.Node
	started  bool

	// Error tracking
	lastError *WorkerError

	// Components
	builder *loader.Builder
	watcher *watcher.Watcher
	program *tea.Program

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// WorkerConfig configures the BackgroundWorker.
type WorkerConfig struct {
	ProfilePath  string
	ManifestPath string
	RootName     string
	Debounce     time.Duration
	Program      *tea.Program
}

// NewBackgroundWorker creates a new background worker.
func NewBackgroundWorker(cfg WorkerConfig) (*BackgroundWorker, error) {
	if cfg.ProfilePath == "" {
		return nil, fmt.Errorf("profile path is required")
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = 200 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())

	paths := []string{cfg.ProfilePath}
	if cfg.ManifestPath != "" {
		paths = append(paths, cfg.ManifestPath)
	}
	fw, err := watcher.New(cfg.Debounce, paths...)
	if err != nil {
		cancel()
		return nil, err
	}

	builder := loader.NewBuilder()
	if cfg.RootName != "" {
		builder.RootName = cfg.RootName
	}

	return &BackgroundWorker{
		profilePath:  cfg.ProfilePath,
		manifestPath: cfg.ManifestPath,
		debounce:     cfg.Debounce,
		program:      cfg.Program,
		builder:      builder,
		watcher:      fw,
		state:        WorkerIdle,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}, nil
}

// Start begins watching for profile changes and processing in the
// background. Start is idempotent.
func (w *BackgroundWorker) Start() error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = true
	w.mu.Unlock()

	if err := w.watcher.Start(); err != nil {
		return err
	}

	go w.processLoop()
	return nil
}

// Stop halts the background worker and cleans up resources. Stop is
// idempotent.
func (w *BackgroundWorker) Stop() {
	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	w.state = WorkerStopped
	wasStarted := w.started
	w.mu.Unlock()

	w.cancel()
	w.watcher.Stop()

	if wasStarted {
		select {
		case <-w.done:
		case <-time.After(2 * time.Second):
			// Timeout waiting for graceful shutdown
		}
	}
}

// TriggerRefresh manually triggers a rebuild. Has no effect if the worker
// is stopped; if a build is in flight the request is coalesced into it.
func (w *BackgroundWorker) TriggerRefresh() {
	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	if w.state == WorkerProcessing {
		w.dirty = true
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	go w.process()
}

// SetProgram attaches the bubbletea program that receives snapshot
// messages. Must be called before Start.
func (w *BackgroundWorker) SetProgram(p *tea.Program) {
	w.mu.Lock()
	w.program = p
	w.mu.Unlock()
}

// Snapshot returns the most recent snapshot tree (may be nil).
func (w *BackgroundWorker) Snapshot() *model.Node {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshot
}

// State returns the current worker state.
func (w *BackgroundWorker) State() WorkerState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// LastError returns the most recent error (nil if the last build
// succeeded).
func (w *BackgroundWorker) LastError() *WorkerError {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastError
}

// processLoop waits for settled change signals and triggers builds.
func (w *BackgroundWorker) processLoop() {
	defer close(w.done)

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-w.watcher.Changed():
			w.process()
		}
	}
}

// process builds a new snapshot from the current profile.
func (w *BackgroundWorker) process() {
	w.mu.Lock()
	if w.state != WorkerIdle {
		if w.state == WorkerProcessing {
			// Mark dirty so the current build re-runs when done
			w.dirty = true
		}
		w.mu.Unlock()
		return
	}
	w.state = WorkerProcessing
	w.dirty = false
	w.mu.Unlock()

	// Returns nil if content is unchanged or on error
	snapshot := w.buildSnapshot()

	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	if snapshot != nil {
		w.snapshot = snapshot
	}
	wasDirty := w.dirty
	w.state = WorkerIdle
	w.mu.Unlock()

	if w.program != nil && snapshot != nil {
		w.program.Send(SnapshotReadyMsg{Root: snapshot})
	}

	if wasDirty {
		go w.process()
	}
}

// buildSnapshot parses the profile and assembles a tree. It runs on the
// worker goroutine, never the UI thread. Returns nil when the content is
// unchanged since the last build or on error.
func (w *BackgroundWorker) buildSnapshot() *model.Node {
	start := time.Now()

	var root *model.Node
	buildErr := w.safeCompute("assemble", func() error {
		var err error
		root, err = w.builder.Build(w.profilePath, w.manifestPath)
		return err
	})

	if buildErr != nil {
		log.Printf("buildSnapshot: %v", buildErr)
		w.recordError(buildErr)
		if w.program != nil {
			w.program.Send(SnapshotErrorMsg{Err: buildErr, Recoverable: true})
		}
		return nil
	}
	w.recordError(nil)

	// The builder returns the previous root instance when nothing changed;
	// in that case there is nothing to tell the UI.
	w.mu.RLock()
	unchanged := root == w.snapshot
	w.mu.RUnlock()
	if unchanged {
		log.Printf("buildSnapshot: content unchanged, skipping notify")
		return nil
	}

	log.Printf("buildSnapshot: %d nodes in %v", root.CountNodes(), time.Since(start))
	return root
}

// safeCompute executes fn and recovers from any panics, returning a
// WorkerError if fn panics or fails.
func (w *BackgroundWorker) safeCompute(phase string, fn func() error) *WorkerError {
	var result *WorkerError
	func() {
		defer func() {
			if r := recover(); r != nil {
				result = &WorkerError{
					Phase: phase,
					Cause: fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
					Time:  time.Now(),
				}
			}
		}()
		if err := fn(); err != nil {
			result = &WorkerError{
				Phase: phase,
				Cause: err,
				Time:  time.Now(),
			}
		}
	}()
	return result
}

// recordError tracks the outcome of the latest build.
func (w *BackgroundWorker) recordError(err *WorkerError) {
	w.mu.Lock()
	w.lastError = err
	w.mu.Unlock()
}

// WatcherChanged exposes the watcher's change channel for integration.
func (w *BackgroundWorker) WatcherChanged() <-chan struct{} {
	return w.watcher.Changed()
}
