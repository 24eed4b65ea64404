// Package gitinfo stamps packaging runs with the state of the project's git checkout.
package gitinfo

import (
	"errors"

	"github.com/go-git/go-git/v5"

	ferrors "git.home.luguber.info/inful/fwpack/internal/foundation/errors"
)

// Info describes the checkout a firmware was built from.
type Info struct {
	Commit string `yaml:"commit" json:"commit"`
	Branch string `yaml:"branch,omitempty" json:"branch,omitempty"`
	Dirty  bool   `yaml:"dirty" json:"dirty"`
}

// Short returns the abbreviated commit hash.
func (i *Info) Short() string {
	if i == nil {
		return ""
	}
	if len(i.Commit) > 7 {
		return i.Commit[:7]
	}
	return i.Commit
}

// ErrNotRepository is returned when path is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// Inspect opens the repository containing path (searching parent directories)
// and reports HEAD and whether the work tree has uncommitted changes.
func Inspect(path string) (*Info, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, ErrNotRepository
	}
	if err != nil {
		return nil, ferrors.GitError("open repository").WithCause(err).
			WithContext("path", path).Build()
	}

	head, err := repo.Head()
	if err != nil {
		return nil, ferrors.GitError("resolve HEAD").WithCause(err).
			WithContext("path", path).Build()
	}

	info := &Info{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}

	wt, err := repo.Worktree()
	if err != nil {
		return info, nil // bare repository, nothing to be dirty
	}
	status, err := wt.Status()
	if err != nil {
		return nil, ferrors.GitError("read work tree status").WithCause(err).
			WithContext("path", path).Build()
	}
	info.Dirty = !status.IsClean()
	return info, nil
}
