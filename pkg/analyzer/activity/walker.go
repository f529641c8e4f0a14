package activity

import (
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/groupstat/groupstat/internal/vcs"
)

// walkCommits returns the set of unique commits reachable from the union of
// all local and remote-tracking branch tips. The commit graph is treated as
// set construction over hashes: a visited set keyed by commit identifier
// guarantees a commit shared by several branches appears exactly once, no
// matter the traversal order.
func walkCommits(repo vcs.Repository) ([]vcs.Commit, error) {
	branches, err := repo.Branches()
	if err != nil {
		return nil, err
	}

	stack := make([]plumbing.Hash, 0, len(branches))
	for _, ref := range branches {
		stack = append(stack, ref.Hash())
	}

	seen := make(map[plumbing.Hash]struct{})
	var commits []vcs.Commit
	for len(stack) > 0 {
		hash := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, ok := seen[hash]; ok {
			continue
		}
		seen[hash] = struct{}{}

		commit, err := repo.CommitObject(hash)
		if err != nil {
			// A dangling tip or truncated history stops that line of
			// ancestry, not the whole walk.
			continue
		}
		commits = append(commits, commit)
		stack = append(stack, commit.ParentHashes()...)
	}
	return commits, nil
}
