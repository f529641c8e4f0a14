package activity

import (
	"context"
	"errors"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/groupstat/groupstat/internal/vcs"
)

// Minimal in-memory vcs implementation for error-path tests that are
// awkward to provoke with a real repository.

type mockOpener struct {
	repo    *mockRepo
	openErr error
}

func (o *mockOpener) PlainOpen(path string) (vcs.Repository, error) {
	if o.openErr != nil {
		return nil, o.openErr
	}
	return o.repo, nil
}

type mockRepo struct {
	branches []vcs.Reference
	commits  map[plumbing.Hash]*mockCommit
}

func (r *mockRepo) Branches() ([]vcs.Reference, error) {
	return r.branches, nil
}

func (r *mockRepo) CommitObject(h plumbing.Hash) (vcs.Commit, error) {
	c, ok := r.commits[h]
	if !ok {
		return nil, errors.New("object not found")
	}
	return c, nil
}

func (r *mockRepo) EmptyTree() vcs.Tree {
	return mockTree{}
}

func (r *mockRepo) FetchOrigin(ctx context.Context) error {
	return nil
}

type mockRef struct {
	name string
	hash plumbing.Hash
}

// branchRefs wraps a tip hash as a single-branch reference list.
func branchRefs(h plumbing.Hash) []vcs.Reference {
	return []vcs.Reference{mockRef{name: "master", hash: h}}
}

func (r mockRef) Name() string        { return r.name }
func (r mockRef) Hash() plumbing.Hash { return r.hash }

type mockCommit struct {
	repo    *mockRepo
	hash    plumbing.Hash
	parents []plumbing.Hash
	author  object.Signature
	added   int
	removed int
	treeErr error
}

func (c *mockCommit) Hash() plumbing.Hash           { return c.hash }
func (c *mockCommit) NumParents() int               { return len(c.parents) }
func (c *mockCommit) ParentHashes() []plumbing.Hash { return c.parents }
func (c *mockCommit) Author() object.Signature      { return c.author }

func (c *mockCommit) Parent(n int) (vcs.Commit, error) {
	return c.repo.CommitObject(c.parents[n])
}

func (c *mockCommit) Tree() (vcs.Tree, error) {
	if c.treeErr != nil {
		return nil, c.treeErr
	}
	return mockTree{added: c.added, removed: c.removed}, nil
}

// mockTree carries the delta its commit should report; Diff hands the
// to-side's counts back as a single change.
type mockTree struct {
	added   int
	removed int
}

func (t mockTree) Diff(to vcs.Tree) (vcs.Changes, error) {
	mt, ok := to.(mockTree)
	if !ok {
		return nil, vcs.ErrInvalidType
	}
	return vcs.Changes{mockChange{tree: mt}}, nil
}

type mockChange struct {
	tree mockTree
}

func (c mockChange) FromName() string { return "" }
func (c mockChange) ToName() string   { return "file.txt" }

func (c mockChange) Patch() (vcs.Patch, error) {
	return mockPatch{tree: c.tree}, nil
}

type mockPatch struct {
	tree mockTree
}

func (p mockPatch) FilePatches() []vcs.FilePatch {
	return []vcs.FilePatch{mockFilePatch{tree: p.tree}}
}

type mockFilePatch struct {
	tree mockTree
}

func (fp mockFilePatch) IsBinary() bool { return false }

func (fp mockFilePatch) Chunks() []vcs.Chunk {
	var chunks []vcs.Chunk
	if fp.tree.added > 0 {
		chunks = append(chunks, mockChunk{typ: vcs.ChunkAdd, lines: fp.tree.added})
	}
	if fp.tree.removed > 0 {
		chunks = append(chunks, mockChunk{typ: vcs.ChunkDelete, lines: fp.tree.removed})
	}
	return chunks
}

type mockChunk struct {
	typ   vcs.ChunkType
	lines int
}

func (c mockChunk) Type() vcs.ChunkType { return c.typ }

func (c mockChunk) Content() string {
	return strings.Repeat("x\n", c.lines)
}
