package commands

import (
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/fwpack/internal/config"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Settings file path" default:"fwpack.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run     RunCmd     `cmd:"" default:"withargs" help:"Package the current build outputs (default)"`
	Watch   WatchCmd   `cmd:"" help:"Re-package whenever the build directory changes"`
	History HistoryCmd `cmd:"" help:"List recorded packaging runs"`
	Init    InitCmd    `cmd:"" help:"Write an example settings file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel honours -v first, then FWPACK_LOG_LEVEL, then defaults to info.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv(config.EnvLogLevel))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// PackageFlags override settings file values for a packaging run.
type PackageFlags struct {
	ProjectConfig string `name:"project-config" help:"Project configuration (arduino.json)" type:"path"`
	BuildDir      string `name:"build-dir" help:"Directory holding the compiler outputs" type:"path"`
	OutputDir     string `name:"output-dir" short:"o" help:"Directory receiving the versioned artifacts" type:"path"`
	Marker        string `name:"marker" help:"Board substring selecting the archive layout"`
	Manifest      bool   `name:"manifest" help:"Write a YAML manifest next to the artifacts"`
	Strict        bool   `name:"strict" help:"Exit non-zero when any step failed"`
	Record        bool   `name:"record" help:"Record the run in the history database"`
	MetricsFile   string `name:"metrics-file" help:"Write Prometheus metrics to this textfile" type:"path"`
	NotifyURL     string `name:"notify-url" help:"NATS server to announce finished runs on"`
}

// Apply copies every flag that was set onto s.
func (f PackageFlags) Apply(s *config.Settings) {
	if f.ProjectConfig != "" {
		s.ProjectConfig = f.ProjectConfig
	}
	if f.BuildDir != "" {
		s.BuildDir = f.BuildDir
	}
	if f.OutputDir != "" {
		s.OutputDir = f.OutputDir
	}
	if f.Marker != "" {
		s.Marker = f.Marker
	}
	if f.MetricsFile != "" {
		s.Metrics.File = f.MetricsFile
	}
	if f.NotifyURL != "" {
		s.Notify.URL = f.NotifyURL
	}
	s.Manifest = s.Manifest || f.Manifest
	s.Strict = s.Strict || f.Strict
	s.History.Enabled = s.History.Enabled || f.Record
}

// loadSettings reads the settings file and applies flag overrides on top.
func loadSettings(root *CLI, flags PackageFlags) (*config.Settings, error) {
	settings, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	flags.Apply(settings)
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}
