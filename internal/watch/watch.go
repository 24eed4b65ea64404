// Package watch re-runs packaging when the build directory changes.
//
// File system events are debounced so that a compiler writing several
// artifacts produces a single run. An optional fixed interval schedules
// rescans for build directories on file systems without inotify support.
// Both sources feed one trigger channel and runs never overlap.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	ferrors "git.home.luguber.info/inful/fwpack/internal/foundation/errors"
	"git.home.luguber.info/inful/fwpack/internal/fsops"
	"git.home.luguber.info/inful/fwpack/internal/logfields"
)

// Trigger reasons passed to RunFunc.
const (
	ReasonStartup  = "startup"
	ReasonChange   = "change"
	ReasonInterval = "interval"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 2 * time.Second

// RunFunc performs one packaging run.
type RunFunc func(ctx context.Context, reason string)

// Options tune the watcher.
type Options struct {
	Debounce   time.Duration
	Interval   time.Duration
	RunOnStart bool
	// Ignore reports base names whose events must not trigger a run.
	// Dotfiles are always ignored.
	Ignore func(name string) bool
}

// Watcher watches a build directory and serializes packaging runs.
type Watcher struct {
	dir  string
	run  RunFunc
	opts Options

	fs        *fsnotify.Watcher
	scheduler gocron.Scheduler
	triggers  chan string

	mu       sync.Mutex
	debounce *time.Timer
}

// New creates a watcher for dir. Nothing is watched until Run is called.
func New(dir string, run RunFunc, opts Options) (*Watcher, error) {
	if !fsops.IsDir(dir) {
		return nil, ferrors.NewError(ferrors.CategoryNotFound, "build directory does not exist").
			WithContext("path", dir).UserAction().Build()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.RuntimeError("failed to create file watcher").WithCause(err).Build()
	}

	w := &Watcher{
		dir:      dir,
		run:      run,
		opts:     opts,
		fs:       fw,
		triggers: make(chan string, 1),
	}

	if opts.Interval > 0 {
		s, err := gocron.NewScheduler()
		if err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
		}
		if _, err := s.NewJob(
			gocron.DurationJob(opts.Interval),
			gocron.NewTask(w.trigger, ReasonInterval),
			gocron.WithName("fwpack-rescan"),
		); err != nil {
			_ = s.Shutdown()
			_ = fw.Close()
			return nil, fmt.Errorf("failed to create rescan job: %w", err)
		}
		w.scheduler = s
	}

	return w, nil
}

// Run blocks until ctx is cancelled, executing one packaging run per trigger.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.fs.Add(w.dir); err != nil {
		_ = w.fs.Close()
		return ferrors.FileSystemError("failed to watch build directory").WithCause(err).
			WithContext("path", w.dir).Build()
	}
	defer w.stop()

	slog.Info("Watching build directory",
		logfields.Path(w.dir),
		slog.Duration("debounce", w.opts.Debounce),
		slog.Duration("interval", w.opts.Interval))

	go w.watchLoop(ctx)
	if w.scheduler != nil {
		w.scheduler.Start()
	}
	if w.opts.RunOnStart {
		w.trigger(ReasonStartup)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case reason := <-w.triggers:
			slog.Debug("Packaging triggered", slog.String("reason", reason))
			w.run(ctx, reason)
		}
	}
}

func (w *Watcher) stop() {
	w.mu.Lock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.mu.Unlock()

	if w.scheduler != nil {
		if err := w.scheduler.Shutdown(); err != nil {
			slog.Warn("Error stopping scheduler", logfields.Error(err))
		}
	}
	if err := w.fs.Close(); err != nil {
		slog.Warn("Error closing file watcher", logfields.Error(err))
	}
	slog.Info("Stopped watching build directory", logfields.Path(w.dir))
}

// trigger queues a run. A pending trigger absorbs new ones.
func (w *Watcher) trigger(reason string) {
	select {
	case w.triggers <- reason:
	default:
	}
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			slog.Debug("Build directory changed", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			w.schedule()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Error("Build watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	if w.opts.Ignore != nil && w.opts.Ignore(name) {
		return false
	}
	return true
}

// schedule restarts the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(w.opts.Debounce, func() { w.trigger(ReasonChange) })
}
