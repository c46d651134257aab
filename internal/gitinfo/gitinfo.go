// Package gitinfo reports the revision of the source tree documentation was
// generated from.
package gitinfo

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

const shortHashLen = 7

// ErrNotRepository is returned when no git repository encloses the path.
var ErrNotRepository = errors.New("not a git repository")

// Info describes the checked out revision.
type Info struct {
	Commit string `json:"commit"`
	Branch string `json:"branch,omitempty"` // empty for a detached HEAD
	Dirty  bool   `json:"dirty"`
}

// Short returns the abbreviated commit hash.
func (i Info) Short() string {
	if len(i.Commit) <= shortHashLen {
		return i.Commit
	}
	return i.Commit[:shortHashLen]
}

// Describe opens the repository enclosing path (searching parent directories
// for .git) and reads HEAD.
func Describe(path string) (*Info, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, path)
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}

	ref, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, fmt.Errorf("repository has no commits: %w", err)
		}
		return nil, fmt.Errorf("read HEAD: %w", err)
	}

	info := &Info{Commit: ref.Hash().String()}
	if ref.Name().IsBranch() {
		info.Branch = ref.Name().Short()
	}

	if wt, wtErr := repo.Worktree(); wtErr == nil {
		if status, stErr := wt.Status(); stErr == nil {
			info.Dirty = !status.IsClean()
		}
	}
	return info, nil
}
