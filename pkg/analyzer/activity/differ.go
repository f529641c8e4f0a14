package activity

import (
	"strings"

	"github.com/groupstat/groupstat/internal/vcs"
)

// diffCommit computes the per-file and total line deltas for a commit
// against its primary parent. Root commits diff against the empty tree, so
// every line counts as added. Merge commits diff against the first parent
// only; lines already reachable through both parents are not counted twice.
// Binary file patches contribute zero lines.
func diffCommit(repo vcs.Repository, commit vcs.Commit) (*CommitDelta, error) {
	toTree, err := commit.Tree()
	if err != nil {
		return nil, err
	}

	fromTree := repo.EmptyTree()
	if commit.NumParents() > 0 {
		parent, err := commit.Parent(0)
		if err != nil {
			return nil, err
		}
		fromTree, err = parent.Tree()
		if err != nil {
			return nil, err
		}
	}

	changes, err := fromTree.Diff(toTree)
	if err != nil {
		return nil, err
	}

	delta := &CommitDelta{Hash: commit.Hash().String()}
	for _, change := range changes {
		patch, err := change.Patch()
		if err != nil {
			return nil, err
		}

		var added, removed int
		for _, fp := range patch.FilePatches() {
			if fp.IsBinary() {
				continue
			}
			for _, chunk := range fp.Chunks() {
				switch chunk.Type() {
				case vcs.ChunkAdd:
					added += countLines(chunk.Content())
				case vcs.ChunkDelete:
					removed += countLines(chunk.Content())
				}
			}
		}

		path := change.ToName()
		if path == "" {
			path = change.FromName()
		}
		delta.Files = append(delta.Files, FileDelta{Path: path, Added: added, Removed: removed})
		delta.Added += added
		delta.Removed += removed
	}
	return delta, nil
}

// countLines counts lines in chunk content, treating a trailing fragment
// without a newline as a line.
func countLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}
