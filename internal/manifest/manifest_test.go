package manifest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/fwpack/internal/gitinfo"
	"git.home.luguber.info/inful/fwpack/internal/packager"
	"git.home.luguber.info/inful/fwpack/internal/project"
)

func TestManifestStep(t *testing.T) {
	root := t.TempDir()
	build := filepath.Join(root, "build")
	output := filepath.Join(root, "generated")
	require.NoError(t, os.MkdirAll(build, 0o755))
	hexBody := []byte(":00000001FF\n")
	require.NoError(t, os.WriteFile(filepath.Join(build, "Demo.hex"), hexBody, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(build, "Demo.zip"), []byte("zip"), 0o644))

	cfg := &project.Config{Version: "1.2.3", Sketch: "Demo", Board: "rak11310", Project: "Demo"}
	plan := packager.NewPlan(cfg, build, output, "rak4631")
	git := &gitinfo.Info{Commit: "0123456789abcdef", Branch: "main"}

	var out bytes.Buffer
	r := packager.New(plan, packager.WithOutput(&out), packager.WithExtraStep(Step(git))).Run(context.Background())
	require.True(t, r.Succeeded(), "failures: %v", r.Failures())

	path := filepath.Join(output, "Demo_V1.2.3.manifest.yaml")
	assert.Contains(t, r.Listing, path)

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, r.RunID, m.RunID)
	assert.Equal(t, "Demo", m.Project)
	assert.Equal(t, "1.2.3", m.Version)
	assert.Equal(t, "rak11310", m.Board)
	assert.Equal(t, string(packager.BranchPrebuilt), m.Layout)
	assert.Equal(t, git, m.Git)
	assert.Empty(t, m.Failures)

	require.Len(t, m.Artifacts, 2)
	sum := sha256.Sum256(hexBody)
	assert.Equal(t, Artifact{Name: "Demo_V1.2.3.hex", Size: int64(len(hexBody)), SHA256: hex.EncodeToString(sum[:])}, m.Artifacts[0])
	assert.Equal(t, "Demo_V1.2.3.zip", m.Artifacts[1].Name)
}

func TestBuild_RecordsFailures(t *testing.T) {
	root := t.TempDir()
	cfg := &project.Config{Version: "1.0.0", Sketch: "Demo", Board: "rak4631", Project: "Demo"}
	plan := packager.NewPlan(cfg, filepath.Join(root, "build"), filepath.Join(root, "generated"), "rak4631")

	var out bytes.Buffer
	r := packager.New(plan, packager.WithOutput(&out)).Run(context.Background())

	m, err := Build(r, nil)
	require.NoError(t, err)
	assert.Empty(t, m.Artifacts)
	assert.Contains(t, m.Failures, packager.StepCopyHex)
	assert.Contains(t, m.Failures, packager.StepZipBinary)
	assert.Nil(t, m.Git)
}
