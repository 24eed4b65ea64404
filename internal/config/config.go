package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/fwpack/internal/foundation/errors"
	"git.home.luguber.info/inful/fwpack/internal/retry"
)

// Defaults reproduce the fixed paths the packaging workflow has always used.
const (
	DefaultConfigFile    = "fwpack.yaml"
	DefaultProjectConfig = "./.vscode/arduino.json"
	DefaultBuildDir      = "./build"
	DefaultOutputDir     = "./generated"
	DefaultMarker        = "rak4631"
	DefaultHistoryPath   = "./.fwpack/history.db"
	DefaultNotifySubject = "firmware.packaged"
	DefaultDebounce      = 2 * time.Second
)

// Settings represents the tool configuration (fwpack.yaml).
type Settings struct {
	ProjectConfig string        `yaml:"project_config"`
	BuildDir      string        `yaml:"build_dir"`
	OutputDir     string        `yaml:"output_dir"`
	Marker        string        `yaml:"marker"`
	Manifest      bool          `yaml:"manifest"`
	Strict        bool          `yaml:"strict"`
	History       HistoryConfig `yaml:"history"`
	Metrics       MetricsConfig `yaml:"metrics"`
	Notify        NotifyConfig  `yaml:"notify"`
	Watch         WatchConfig   `yaml:"watch"`
}

// HistoryConfig controls the run history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// MetricsConfig controls the Prometheus textfile output.
type MetricsConfig struct {
	File string `yaml:"file,omitempty"`
}

// NotifyConfig controls the NATS run notification.
type NotifyConfig struct {
	URL     string        `yaml:"url,omitempty"`
	Subject string        `yaml:"subject,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
	Retries int           `yaml:"retries,omitempty"`
	Backoff string        `yaml:"backoff,omitempty"` // fixed|linear|exponential
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce,omitempty"`
	Interval time.Duration `yaml:"interval,omitempty"` // 0 disables periodic runs
}

// Default returns settings matching the historical fixed paths.
func Default() *Settings {
	s := &Settings{}
	s.applyDefaults()
	return s
}

// Load loads settings from the specified file. A missing file is not an error;
// the defaults are used instead. Environment overrides are applied last.
func Load(path string) (*Settings, error) {
	loadEnvFile()

	s := &Settings{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Debug("No settings file, using defaults", "path", path)
	case err != nil:
		return nil, ferrors.ConfigError("failed to read settings file").WithCause(err).
			WithContext("path", path).Build()
	default:
		if err := decode(data, s); err != nil {
			return nil, ferrors.ConfigError("failed to parse settings file").WithCause(err).
				WithContext("path", path).Build()
		}
	}

	s.applyEnvOverrides()
	s.applyDefaults()

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func decode(data []byte, s *Settings) error {
	expanded := os.ExpandEnv(string(data))
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Settings) applyDefaults() {
	if s.ProjectConfig == "" {
		s.ProjectConfig = DefaultProjectConfig
	}
	if s.BuildDir == "" {
		s.BuildDir = DefaultBuildDir
	}
	if s.OutputDir == "" {
		s.OutputDir = DefaultOutputDir
	}
	if s.Marker == "" {
		s.Marker = DefaultMarker
	}
	if s.History.Path == "" {
		s.History.Path = DefaultHistoryPath
	}
	if s.Notify.Subject == "" {
		s.Notify.Subject = DefaultNotifySubject
	}
	if s.Notify.Timeout <= 0 {
		s.Notify.Timeout = 5 * time.Second
	}
	if s.Watch.Debounce <= 0 {
		s.Watch.Debounce = DefaultDebounce
	}
}

// Validate checks settings that would make a packaging run meaningless.
func (s *Settings) Validate() error {
	if s.Watch.Interval < 0 {
		return ferrors.ValidationError("watch.interval must not be negative").
			WithContext("interval", s.Watch.Interval.String()).Build()
	}
	if s.Notify.Retries < 0 {
		return ferrors.ValidationError("notify.retries must not be negative").
			WithContext("retries", s.Notify.Retries).Build()
	}
	if _, err := retry.ParseMode(s.Notify.Backoff); err != nil {
		return ferrors.ValidationError("invalid notify.backoff").WithCause(err).Build()
	}
	if cleanPath(s.BuildDir) == cleanPath(s.OutputDir) {
		return ferrors.ValidationError("build_dir and output_dir must differ").
			WithContext("dir", s.BuildDir).Build()
	}
	return nil
}

// Init writes an example settings file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ConfigError(fmt.Sprintf("settings file already exists: %s (use --force to overwrite)", path)).Build()
	}

	example := Default()
	example.History.Enabled = true
	example.Manifest = true
	example.Notify.Retries = 2
	example.Notify.Backoff = string(retry.ModeExponential)

	data, err := yaml.Marshal(example)
	if err != nil {
		return ferrors.InternalError("failed to marshal settings").WithCause(err).Build()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ferrors.FileSystemError("failed to write settings file").WithCause(err).
			WithContext("path", path).Build()
	}
	return nil
}
