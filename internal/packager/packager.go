package packager

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/fwpack/internal/archive"
	ferrors "git.home.luguber.info/inful/fwpack/internal/foundation/errors"
	"git.home.luguber.info/inful/fwpack/internal/fsops"
	"git.home.luguber.info/inful/fwpack/internal/logfields"
	"git.home.luguber.info/inful/fwpack/internal/metrics"
	"git.home.luguber.info/inful/fwpack/internal/observability"
)

// Step names, in the order they can appear in a report.
const (
	StepEnsureOutputDir = "ensure-output-dir"
	StepRemoveStale     = "remove-stale"
	StepCopyHex         = "copy-hex"
	StepEnterBuildDir   = "enter-build-dir"
	StepZipBinary       = "zip-binary"
	StepCopyArchive     = "copy-archive"
	StepRenameHex       = "rename-hex"
	StepListOutput      = "list-output"
)

// ExtraStep runs after the layout steps and before the output listing.
type ExtraStep struct {
	Name string
	Run  func(ctx context.Context, r *Report) (src, dst string, err error)
}

// Packager executes the packaging steps for one Plan.
type Packager struct {
	plan     Plan
	out      io.Writer
	recorder metrics.Recorder
	runID    string
	extra    []ExtraStep
}

// Option configures a Packager.
type Option func(*Packager)

// WithOutput sets where diagnostics and the listing are printed (stdout by default).
func WithOutput(w io.Writer) Option {
	return func(p *Packager) { p.out = w }
}

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Packager) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(p *Packager) { p.runID = id }
}

// WithExtraStep appends a step that runs before the output listing.
func WithExtraStep(step ExtraStep) Option {
	return func(p *Packager) { p.extra = append(p.extra, step) }
}

// New creates a packager for plan.
func New(plan Plan, opts ...Option) *Packager {
	p := &Packager{
		plan:     plan,
		out:      os.Stdout,
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.runID == "" {
		p.runID = uuid.NewString()
	}
	return p
}

// Run executes every step and returns the report. It never stops early.
func (p *Packager) Run(ctx context.Context) *Report {
	ctx = observability.WithRunID(ctx, p.runID)
	ctx = observability.WithBoard(ctx, p.plan.Config.Board)

	r := &Report{RunID: p.runID, Plan: p.plan, StartedAt: time.Now()}

	observability.InfoContext(ctx, "Starting packaging run",
		logfields.Project(p.plan.Config.Project),
		logfields.Version(p.plan.Config.Version),
		logfields.Branch(string(p.plan.Branch)))

	p.step(ctx, r, StepEnsureOutputDir, "", p.plan.OutputDir, func() error {
		return fsops.EnsureDir(p.plan.OutputDir)
	})

	for _, stale := range p.plan.StaleFiles() {
		if !fsops.IsFile(stale) {
			continue
		}
		p.step(ctx, r, StepRemoveStale, stale, "", func() error {
			_, err := fsops.RemoveIfFile(stale)
			return err
		})
	}

	switch p.plan.Branch {
	case BranchArchive:
		p.runArchiveLayout(ctx, r)
	default:
		p.runPrebuiltLayout(ctx, r)
	}

	for _, extra := range p.extra {
		p.extraStep(ctx, r, extra)
	}

	p.step(ctx, r, StepListOutput, p.plan.OutputDir, "", func() error {
		listing, err := fsops.ListDir(p.plan.OutputDir)
		r.Listing = listing
		return err
	})

	r.Duration = time.Since(r.StartedAt)
	p.recordRun(r)

	if err := r.WriteListing(p.out); err != nil {
		observability.WarnContext(ctx, "Failed to print listing", logfields.Error(err))
	}

	observability.InfoContext(ctx, "Packaging run finished",
		logfields.Failures(len(r.Failures())),
		logfields.DurationMS(float64(r.Duration.Microseconds())/1000))
	return r
}

func (p *Packager) runArchiveLayout(ctx context.Context, r *Report) {
	plan := p.plan

	p.step(ctx, r, StepCopyHex, plan.HexSource, plan.OutputDir, func() error {
		_, err := fsops.CopyFile(plan.HexSource, plan.OutputDir)
		return err
	})

	p.step(ctx, r, StepEnterBuildDir, plan.BuildDir, "", func() error {
		info, err := os.Stat(plan.BuildDir)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", plan.BuildDir)
		}
		return nil
	})

	p.step(ctx, r, StepZipBinary, plan.BinaryName, plan.ZipName, func() error {
		return archive.ZipSingle(plan.BuildDir, plan.BinaryName, plan.BuildZip())
	})

	p.step(ctx, r, StepCopyArchive, plan.BuildZip(), plan.OutputDir, func() error {
		_, err := fsops.CopyFile(plan.BuildZip(), plan.OutputDir)
		return err
	})

	p.step(ctx, r, StepRenameHex, plan.CopiedHex(), plan.OutputHex(), func() error {
		return os.Rename(plan.CopiedHex(), plan.OutputHex())
	})
}

func (p *Packager) runPrebuiltLayout(ctx context.Context, r *Report) {
	plan := p.plan

	p.step(ctx, r, StepCopyArchive, plan.PrebuiltArchive, plan.OutputZip(), func() error {
		_, err := fsops.CopyFile(plan.PrebuiltArchive, plan.OutputZip())
		return err
	})

	p.step(ctx, r, StepCopyHex, plan.HexSource, plan.OutputHex(), func() error {
		_, err := fsops.CopyFile(plan.HexSource, plan.OutputHex())
		return err
	})
}

func (p *Packager) extraStep(ctx context.Context, r *Report, extra ExtraStep) {
	start := time.Now()
	src, dst, err := extra.Run(ctx, r)
	p.finish(ctx, r, extra.Name, src, dst, start, err)
}

func (p *Packager) step(ctx context.Context, r *Report, name, src, dst string, fn func() error) {
	start := time.Now()
	p.finish(ctx, r, name, src, dst, start, fn())
}

func (p *Packager) finish(ctx context.Context, r *Report, name, src, dst string, start time.Time, err error) {
	res := StepResult{Step: name, Source: src, Dest: dst, Duration: time.Since(start)}
	ctx = observability.WithStep(ctx, name)

	if err != nil {
		res.Err = classify(name, src, dst, err)
		p.diagnose(name, src, dst)
		observability.ErrorContext(ctx, "Packaging step failed",
			logfields.Source(src), logfields.Dest(dst), logfields.Error(err))
		p.recorder.IncStepResult(name, metrics.ResultFailed)
	} else {
		observability.DebugContext(ctx, "Packaging step done",
			logfields.Source(src), logfields.Dest(dst))
		p.recorder.IncStepResult(name, metrics.ResultSuccess)
	}
	p.recorder.ObserveStepDuration(name, res.Duration)
	r.Steps = append(r.Steps, res)
}

// diagnose prints the one-line message users see on stdout for a failed step.
func (p *Packager) diagnose(name, src, dst string) {
	var msg string
	switch name {
	case StepEnsureOutputDir:
		msg = "Cannot create " + dst
	case StepRemoveStale:
		msg = "Cannot delete " + src
	case StepEnterBuildDir:
		msg = "Cannot change dir to " + src
	case StepZipBinary:
		msg = fmt.Sprintf("Cannot zip %s to %s", src, dst)
	case StepRenameHex:
		msg = fmt.Sprintf("Cannot rename %s to %s", src, dst)
	case StepListOutput:
		msg = "Cannot list " + src
	case StepCopyHex, StepCopyArchive:
		msg = fmt.Sprintf("Cannot copy %s to %s", src, dst)
	default:
		msg = fmt.Sprintf("Cannot run %s", name)
		if dst != "" {
			msg += " for " + dst
		}
	}
	_, _ = fmt.Fprintln(p.out, msg)
}

func classify(name, src, dst string, err error) error {
	var b *ferrors.ErrorBuilder
	switch name {
	case StepZipBinary:
		b = ferrors.ArchiveError("cannot create archive").WithCause(err)
	default:
		b = ferrors.FileSystemError("step "+name+" failed").WithCause(err)
	}
	return b.WithContext("step", name).
		WithContext("src", src).
		WithContext("dst", dst).
		Build()
}

func (p *Packager) recordRun(r *Report) {
	p.recorder.ObserveRunDuration(r.Duration)
	p.recorder.IncRunOutcome(r.Outcome())
	for _, f := range r.Produced() {
		if info, err := os.Stat(f); err == nil {
			p.recorder.SetArtifactBytes(filepath.Ext(f)[1:], info.Size())
		}
	}
}
