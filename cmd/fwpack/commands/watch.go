package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	ferrors "git.home.luguber.info/inful/fwpack/internal/foundation/errors"
	"git.home.luguber.info/inful/fwpack/internal/config"
	"git.home.luguber.info/inful/fwpack/internal/logfields"
	"git.home.luguber.info/inful/fwpack/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Flags PackageFlags `embed:""`

	Debounce time.Duration `help:"Quiet period after the last change before packaging"`
	Interval time.Duration `help:"Also package on this fixed interval (0 disables)"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	settings, err := loadSettings(root, w.Flags)
	if err != nil {
		return err
	}
	if w.Debounce > 0 {
		settings.Watch.Debounce = w.Debounce
	}
	if w.Interval > 0 {
		settings.Watch.Interval = w.Interval
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunWatch(ctx, settings)
}

// RunWatch packages on every build directory change until ctx is cancelled.
func RunWatch(ctx context.Context, settings *config.Settings) error {
	own := &ownArtifacts{}

	run := func(ctx context.Context, reason string) {
		slog.Info("Packaging", slog.String("reason", reason))
		plan := buildPlan(settings)
		own.set(plan.ZipName)
		if _, err := runPlan(ctx, settings, plan, os.Stdout); err != nil {
			// Strict failures do not end a watch session.
			slog.Error("Packaging run failed", logfields.Error(err))
		}
	}

	w, err := watch.New(settings.BuildDir, run, watch.Options{
		Debounce:   settings.Watch.Debounce,
		Interval:   settings.Watch.Interval,
		RunOnStart: true,
		Ignore:     own.has,
	})
	if err != nil {
		return err
	}
	if err := w.Run(ctx); err != nil {
		return ferrors.RuntimeError("watch failed").WithCause(err).Build()
	}
	return nil
}

// ownArtifacts remembers the archive name the packager writes into the build
// dir so that writing it does not trigger another run.
type ownArtifacts struct {
	mu   sync.Mutex
	name string
}

func (o *ownArtifacts) set(name string) {
	o.mu.Lock()
	o.name = name
	o.mu.Unlock()
}

func (o *ownArtifacts) has(name string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.name != "" && name == o.name
}
