// Package manifest describes the distribution files a packaging run produced.
package manifest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/fwpack/internal/gitinfo"
	"git.home.luguber.info/inful/fwpack/internal/packager"
)

// StepName is the report step that writes the manifest.
const StepName = "write-manifest"

// Manifest is written next to the artifacts as <project>_V<version>.manifest.yaml.
type Manifest struct {
	RunID       string        `yaml:"run_id"`
	GeneratedAt time.Time     `yaml:"generated_at"`
	Project     string        `yaml:"project"`
	Version     string        `yaml:"version"`
	Sketch      string        `yaml:"sketch,omitempty"`
	Board       string        `yaml:"board"`
	Layout      string        `yaml:"layout"`
	Git         *gitinfo.Info `yaml:"git,omitempty"`
	Artifacts   []Artifact    `yaml:"artifacts"`
	Failures    []string      `yaml:"failures,omitempty"`
}

// Artifact is one produced file.
type Artifact struct {
	Name   string `yaml:"name"`
	Size   int64  `yaml:"size"`
	SHA256 string `yaml:"sha256"`
}

// FileName returns the manifest file name for a plan.
func FileName(plan packager.Plan) string {
	return plan.Config.VersionedBase() + ".manifest.yaml"
}

// Build assembles the manifest for a report. Failures recorded so far are included.
func Build(r *packager.Report, git *gitinfo.Info) (*Manifest, error) {
	m := &Manifest{
		RunID:       r.RunID,
		GeneratedAt: r.StartedAt.UTC().Truncate(time.Second),
		Project:     r.Plan.Config.Project,
		Version:     r.Plan.Config.Version,
		Sketch:      r.Plan.Config.Sketch,
		Board:       r.Plan.Config.Board,
		Layout:      string(r.Plan.Branch),
		Git:         git,
		Artifacts:   []Artifact{},
	}
	for _, path := range r.Produced() {
		a, err := describe(path)
		if err != nil {
			return nil, err
		}
		m.Artifacts = append(m.Artifacts, a)
	}
	for _, f := range r.Failures() {
		m.Failures = append(m.Failures, f.Step)
	}
	return m, nil
}

func describe(path string) (Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return Artifact{}, err
	}
	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return Artifact{}, fmt.Errorf("hash %s: %w", path, err)
	}
	return Artifact{Name: filepath.Base(path), Size: n, SHA256: hex.EncodeToString(h.Sum(nil))}, nil
}

// Write stores the manifest as YAML.
func (m *Manifest) Write(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a manifest written by Write.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// Step returns the packager step that writes the manifest into the output dir.
func Step(git *gitinfo.Info) packager.ExtraStep {
	return packager.ExtraStep{
		Name: StepName,
		Run: func(_ context.Context, r *packager.Report) (string, string, error) {
			dst := filepath.Join(r.Plan.OutputDir, FileName(r.Plan))
			m, err := Build(r, git)
			if err != nil {
				return "", dst, err
			}
			return "", dst, m.Write(dst)
		},
	}
}
