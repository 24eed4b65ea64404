package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/fwpack/internal/foundation/errors"
)

func writeSettings(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	s, err := Load(DefaultConfigFile)
	require.NoError(t, err)

	assert.Equal(t, DefaultProjectConfig, s.ProjectConfig)
	assert.Equal(t, DefaultBuildDir, s.BuildDir)
	assert.Equal(t, DefaultOutputDir, s.OutputDir)
	assert.Equal(t, DefaultMarker, s.Marker)
	assert.Equal(t, DefaultHistoryPath, s.History.Path)
	assert.Equal(t, DefaultNotifySubject, s.Notify.Subject)
	assert.Equal(t, DefaultDebounce, s.Watch.Debounce)
	assert.False(t, s.History.Enabled)
}

func TestLoad_FileValues(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeSettings(t, dir, `
build_dir: out/build
output_dir: dist
marker: nrf52
manifest: true
history:
  enabled: true
watch:
  debounce: 500ms
  interval: 1m
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "out/build", s.BuildDir)
	assert.Equal(t, "dist", s.OutputDir)
	assert.Equal(t, "nrf52", s.Marker)
	assert.True(t, s.Manifest)
	assert.True(t, s.History.Enabled)
	assert.Equal(t, 500*time.Millisecond, s.Watch.Debounce)
	assert.Equal(t, time.Minute, s.Watch.Interval)
	assert.Equal(t, DefaultProjectConfig, s.ProjectConfig)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeSettings(t, dir, "output_dir: dist\n")
	t.Setenv(EnvOutputDir, "release")
	t.Setenv(EnvMarker, "rak11310")

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "release", s.OutputDir)
	assert.Equal(t, "rak11310", s.Marker)
}

func TestLoad_DotEnvExpansion(t *testing.T) {
	const probe = "FWPACK_TEST_ENV_PROBE"
	dir := t.TempDir()
	t.Chdir(dir)
	t.Cleanup(func() { _ = os.Unsetenv(probe) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(probe+"=from-dotenv\n"), 0o600))
	path := writeSettings(t, dir, "build_dir: ${"+probe+"}\n")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", s.BuildDir)
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeSettings(t, dir, "bulid_dir: typo\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestValidate(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())

	s.OutputDir = s.BuildDir
	err := s.Validate()
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	s = Default()
	s.Watch.Interval = -time.Second
	require.Error(t, s.Validate())

	s = Default()
	s.Notify.Backoff = "sometimes"
	err = s.Validate()
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	s = Default()
	s.Notify.Retries = -1
	require.Error(t, s.Validate())
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFile)

	require.NoError(t, Init(path, false))
	t.Chdir(dir)
	s, err := Load(path)
	require.NoError(t, err)
	assert.True(t, s.History.Enabled)
	assert.True(t, s.Manifest)
	assert.Equal(t, 2, s.Notify.Retries)
	assert.Equal(t, "exponential", s.Notify.Backoff)

	err = Init(path, false)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	require.NoError(t, Init(path, true))
}
