// Package provenance records which commit of the surrounding repository a
// run was produced from.
package provenance

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Info describes the repository state. The zero value means "not in a repository".
type Info struct {
	Commit string `json:"commit,omitempty"`
	Branch string `json:"branch,omitempty"`
	Dirty  bool   `json:"dirty,omitempty"`
}

// Describe looks for a git repository at dir or any parent.
func Describe(dir string) (Info, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return Info{}, nil
		}
		return Info{}, fmt.Errorf("open repository: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			// Fresh repository without commits.
			return Info{}, nil
		}
		return Info{}, fmt.Errorf("resolve HEAD: %w", err)
	}
	info := Info{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}
	wt, err := repo.Worktree()
	if err != nil {
		return info, nil
	}
	st, err := wt.Status()
	if err != nil {
		return info, fmt.Errorf("worktree status: %w", err)
	}
	info.Dirty = !st.IsClean()
	return info, nil
}

// Map renders Info for the manifest; it returns nil for the zero value.
func (i Info) Map() map[string]any {
	if i.Commit == "" {
		return nil
	}
	return map[string]any{
		"commit": i.Commit,
		"branch": i.Branch,
		"dirty":  i.Dirty,
	}
}
