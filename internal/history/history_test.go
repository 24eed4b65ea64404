package history

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/fwpack/internal/gitinfo"
	"git.home.luguber.info/inful/fwpack/internal/packager"
	"git.home.luguber.info/inful/fwpack/internal/project"
)

func TestStore_RecordListGet(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), ".fwpack", "history.db"))
	require.NoError(t, err)
	defer store.Close()

	base := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	older := Run{ID: "run-1", StartedAt: base, Duration: 120 * time.Millisecond, Project: "Demo", Version: "1.0.0",
		Board: "rak4631", Layout: "archive", Failures: []string{}, Files: []string{"Demo_V1.0.0.hex", "Demo_V1.0.0.zip"}}
	newer := Run{ID: "run-2", StartedAt: base.Add(time.Hour), Duration: 80 * time.Millisecond, Project: "Demo", Version: "1.0.1",
		Board: "rak4631", Layout: "archive", Failures: []string{"copy-hex", "rename-hex"}, Files: []string{"Demo_V1.0.1.zip"}, Commit: "abc123"}

	require.NoError(t, store.Record(ctx, older))
	require.NoError(t, store.Record(ctx, newer))

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, []string{"copy-hex", "rename-hex"}, runs[0].Failures)
	assert.Equal(t, "abc123", runs[0].Commit)
	assert.True(t, runs[1].StartedAt.Equal(base))
	assert.Equal(t, 120*time.Millisecond, runs[1].Duration)

	limited, err := store.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)

	got, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, older.Files, got.Files)

	_, err = store.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_DuplicateIDRejected(t *testing.T) {
	ctx := context.Background()
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	run := Run{ID: "dup", StartedAt: time.Now(), Project: "P", Version: "1", Board: "b", Layout: "prebuilt"}
	require.NoError(t, store.Record(ctx, run))
	require.Error(t, store.Record(ctx, run))
}

func TestFromReport(t *testing.T) {
	root := t.TempDir()
	build := filepath.Join(root, "build")
	require.NoError(t, os.MkdirAll(build, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(build, "Demo.zip"), []byte("zip"), 0o644))

	cfg := &project.Config{Version: "2.0.0", Sketch: "Demo", Board: "rak3172", Project: "Demo"}
	plan := packager.NewPlan(cfg, build, filepath.Join(root, "generated"), "rak4631")
	var out bytes.Buffer
	r := packager.New(plan, packager.WithOutput(&out), packager.WithRunID("run-x")).Run(context.Background())

	run := FromReport(r, &gitinfo.Info{Commit: "deadbeef"})

	assert.Equal(t, "run-x", run.ID)
	assert.Equal(t, "prebuilt", run.Layout)
	assert.Equal(t, []string{"Demo_V2.0.0.zip"}, run.Files)
	assert.Equal(t, []string{packager.StepCopyHex}, run.Failures)
	assert.Equal(t, "deadbeef", run.Commit)
}
