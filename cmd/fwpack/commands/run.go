package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	ferrors "git.home.luguber.info/inful/fwpack/internal/foundation/errors"
	"git.home.luguber.info/inful/fwpack/internal/config"
	"git.home.luguber.info/inful/fwpack/internal/gitinfo"
	"git.home.luguber.info/inful/fwpack/internal/history"
	"git.home.luguber.info/inful/fwpack/internal/logfields"
	"git.home.luguber.info/inful/fwpack/internal/manifest"
	"git.home.luguber.info/inful/fwpack/internal/metrics"
	"git.home.luguber.info/inful/fwpack/internal/notify"
	"git.home.luguber.info/inful/fwpack/internal/packager"
	"git.home.luguber.info/inful/fwpack/internal/project"
	"git.home.luguber.info/inful/fwpack/internal/retry"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	Flags PackageFlags `embed:""`
}

func (r *RunCmd) Run(_ *Global, root *CLI) error {
	settings, err := loadSettings(root, r.Flags)
	if err != nil {
		return err
	}
	_, err = RunPackage(context.Background(), settings, os.Stdout)
	return err
}

// RunPackage performs one packaging run with every optional sink configured in
// settings. Step failures only produce an error in strict mode.
func RunPackage(ctx context.Context, settings *config.Settings, out io.Writer) (*packager.Report, error) {
	return runPlan(ctx, settings, buildPlan(settings), out)
}

func runPlan(ctx context.Context, settings *config.Settings, plan packager.Plan, out io.Writer) (*packager.Report, error) {
	var git *gitinfo.Info
	if needsGitStamp(settings) {
		git = inspectGit(settings.ProjectConfig)
	}

	opts := []packager.Option{packager.WithOutput(out)}
	var registry *prom.Registry
	if settings.Metrics.File != "" {
		registry = prom.NewRegistry()
		opts = append(opts, packager.WithRecorder(metrics.NewPrometheusRecorder(registry)))
	}
	if settings.Manifest {
		opts = append(opts, packager.WithExtraStep(manifest.Step(git)))
	}

	report := packager.New(plan, opts...).Run(ctx)

	if registry != nil {
		if err := metrics.WriteTextfile(settings.Metrics.File, registry); err != nil {
			slog.Warn("Failed to write metrics textfile", logfields.Path(settings.Metrics.File), logfields.Error(err))
		}
	}
	if settings.History.Enabled {
		recordHistory(ctx, settings.History.Path, history.FromReport(report, git))
	}
	if settings.Notify.URL != "" {
		publish(ctx, settings.Notify, notify.EventFromReport(report, git))
	}

	failures := report.Failures()
	slog.Info("Packaging run finished",
		logfields.RunID(report.RunID),
		logfields.DurationMS(float64(report.Duration.Milliseconds())),
		logfields.Failures(len(failures)),
		slog.String("outcome", report.Outcome()))

	if settings.Strict && len(failures) > 0 {
		steps := make([]string, 0, len(failures))
		for _, f := range failures {
			steps = append(steps, f.Step)
		}
		return report, ferrors.BuildError(fmt.Sprintf("%d packaging step(s) failed", len(failures))).
			WithContext("steps", strings.Join(steps, ",")).
			WithContext("run_id", report.RunID).
			Build()
	}
	return report, nil
}

// buildPlan loads the project configuration and computes every artifact path.
func buildPlan(settings *config.Settings) packager.Plan {
	cfg, fallbacks := project.Load(settings.ProjectConfig)
	for _, fb := range fallbacks {
		slog.Warn("Project setting unavailable, using default",
			slog.String("key", fb.Key),
			slog.String("value", fb.Value),
			logfields.Error(fb.Reason))
	}
	if err := cfg.Validate(); err != nil {
		slog.Warn("Project configuration produces unusual file names", logfields.Error(err))
	}
	return packager.NewPlan(cfg, settings.BuildDir, settings.OutputDir, settings.Marker)
}

// needsGitStamp reports whether any enabled sink records the commit.
func needsGitStamp(settings *config.Settings) bool {
	return settings.Manifest || settings.History.Enabled || settings.Notify.URL != ""
}

func inspectGit(projectConfig string) *gitinfo.Info {
	dir := filepath.Dir(filepath.Dir(projectConfig))
	info, err := gitinfo.Inspect(dir)
	switch {
	case errors.Is(err, gitinfo.ErrNotRepository):
		slog.Debug("Project is not a git repository", logfields.Path(dir))
		return nil
	case err != nil:
		slog.Warn("Failed to inspect git repository", logfields.Path(dir), logfields.Error(err))
		return nil
	}
	slog.Debug("Git state", logfields.Commit(info.Short()), logfields.Branch(info.Branch), slog.Bool("dirty", info.Dirty))
	return info
}

func recordHistory(ctx context.Context, path string, run history.Run) {
	store, err := history.Open(path)
	if err != nil {
		slog.Warn("Failed to open history database", logfields.Path(path), logfields.Error(err))
		return
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close history database", logfields.Error(err))
		}
	}()
	if err := store.Record(ctx, run); err != nil {
		slog.Warn("Failed to record run", logfields.RunID(run.ID), logfields.Error(err))
	}
}

func publish(ctx context.Context, cfg config.NotifyConfig, ev notify.Event) {
	err := notifyPolicy(cfg).Do(ctx, "notify", func(ctx context.Context) error {
		pub, err := notify.NewNATSPublisher(cfg.URL, cfg.Subject, cfg.Timeout)
		if err != nil {
			return err
		}
		defer pub.Close()
		return pub.Publish(ctx, ev)
	})
	if err != nil {
		slog.Warn("Failed to publish run notification", logfields.Error(err))
	}
}

func notifyPolicy(cfg config.NotifyConfig) retry.Policy {
	mode, err := retry.ParseMode(cfg.Backoff)
	if err != nil {
		slog.Warn("Invalid notify backoff, using linear", logfields.Error(err))
		mode = retry.ModeLinear
	}
	return retry.NewPolicy(mode, time.Second, 30*time.Second, cfg.Retries)
}
