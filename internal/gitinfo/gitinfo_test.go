package gitinfo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.ino"), []byte("void setup() {}\n"), 0o600))

	w, err := repo.Worktree()
	require.NoError(t, err)
	_, err = w.Add("app.ino")
	require.NoError(t, err)

	commit, err := w.Commit("Initial firmware", &git.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir, commit.String()
}

func TestInspect_CleanCheckout(t *testing.T) {
	dir, commit := initRepo(t)
	sub := filepath.Join(dir, "build")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	info, err := Inspect(sub)
	require.NoError(t, err)

	assert.Equal(t, commit, info.Commit)
	assert.Equal(t, commit[:7], info.Short())
	assert.NotEmpty(t, info.Branch)
	assert.False(t, info.Dirty)
}

func TestInspect_DirtyCheckout(t *testing.T) {
	dir, _ := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.ino"), []byte("void loop() {}\n"), 0o600))

	info, err := Inspect(dir)
	require.NoError(t, err)
	assert.True(t, info.Dirty)
}

func TestInspect_NotARepository(t *testing.T) {
	_, err := Inspect(t.TempDir())
	require.ErrorIs(t, err, ErrNotRepository)
}

func TestShort_Nil(t *testing.T) {
	var info *Info
	assert.Equal(t, "", info.Short())
}
