package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Environment variables that override settings file values.
const (
	EnvBuildDir      = "FWPACK_BUILD_DIR"
	EnvOutputDir     = "FWPACK_OUTPUT_DIR"
	EnvProjectConfig = "FWPACK_PROJECT_CONFIG"
	EnvMarker        = "FWPACK_MARKER"
	EnvNotifyURL     = "FWPACK_NOTIFY_URL"
	EnvLogLevel      = "FWPACK_LOG_LEVEL"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFile loads the first .env file found. Existing process variables are not overwritten.
func loadEnvFile() {
	for _, envPath := range envFiles {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			slog.Warn("Failed to load env file", "path", envPath, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", envPath)
		return
	}
}

func (s *Settings) applyEnvOverrides() {
	overrides := []struct {
		key string
		dst *string
	}{
		{EnvBuildDir, &s.BuildDir},
		{EnvOutputDir, &s.OutputDir},
		{EnvProjectConfig, &s.ProjectConfig},
		{EnvMarker, &s.Marker},
		{EnvNotifyURL, &s.Notify.URL},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.key); v != "" {
			*o.dst = v
		}
	}
}

func cleanPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
