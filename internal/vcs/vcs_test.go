package vcs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestGitOpener_PlainOpen(t *testing.T) {
	repoPath := initTestRepo(t)

	opener := NewGitOpener()
	repo, err := opener.PlainOpen(repoPath)
	if err != nil {
		t.Fatalf("PlainOpen() error = %v", err)
	}
	if repo == nil {
		t.Fatal("PlainOpen() returned nil repository")
	}
}

func TestGitOpener_PlainOpen_NonExistent(t *testing.T) {
	opener := NewGitOpener()
	_, err := opener.PlainOpen("/nonexistent/path")
	if err == nil {
		t.Error("PlainOpen() should return error for non-existent path")
	}
}

func TestGitRepository_Branches(t *testing.T) {
	repoPath := initTestRepo(t)

	opener := NewGitOpener()
	repo, err := opener.PlainOpen(repoPath)
	if err != nil {
		t.Fatalf("PlainOpen() error = %v", err)
	}

	refs, err := repo.Branches()
	if err != nil {
		t.Fatalf("Branches() error = %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("Branches() returned %d refs, want 1", len(refs))
	}
	if refs[0].Hash().IsZero() {
		t.Error("branch tip has zero hash")
	}
}

func TestGitRepository_Branches_IncludesRemoteTracking(t *testing.T) {
	repoPath := initTestRepo(t)

	raw, err := git.PlainOpen(repoPath)
	if err != nil {
		t.Fatal(err)
	}
	head, err := raw.Head()
	if err != nil {
		t.Fatal(err)
	}

	// Simulate a remote-tracking branch pointing at the same commit.
	remoteRef := plumbing.NewHashReference("refs/remotes/origin/topic", head.Hash())
	if err := raw.Storer.SetReference(remoteRef); err != nil {
		t.Fatal(err)
	}

	opener := NewGitOpener()
	repo, err := opener.PlainOpen(repoPath)
	if err != nil {
		t.Fatal(err)
	}

	refs, err := repo.Branches()
	if err != nil {
		t.Fatalf("Branches() error = %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("Branches() returned %d refs, want 2 (local + remote-tracking)", len(refs))
	}

	var foundRemote bool
	for _, ref := range refs {
		if ref.Name() == "origin/topic" {
			foundRemote = true
		}
	}
	if !foundRemote {
		t.Error("remote-tracking branch origin/topic not enumerated")
	}
}

func TestGitRepository_CommitObject(t *testing.T) {
	repoPath := initTestRepo(t)

	opener := NewGitOpener()
	repo, err := opener.PlainOpen(repoPath)
	if err != nil {
		t.Fatal(err)
	}

	refs, err := repo.Branches()
	if err != nil {
		t.Fatal(err)
	}

	commit, err := repo.CommitObject(refs[0].Hash())
	if err != nil {
		t.Fatalf("CommitObject() error = %v", err)
	}
	if commit.NumParents() != 0 {
		t.Errorf("NumParents() = %d, want 0 for root commit", commit.NumParents())
	}
	if commit.Author().Name != "Test" {
		t.Errorf("Author().Name = %q, want %q", commit.Author().Name, "Test")
	}
}

func TestGitRepository_EmptyTreeDiff(t *testing.T) {
	repoPath := initTestRepo(t)

	opener := NewGitOpener()
	repo, err := opener.PlainOpen(repoPath)
	if err != nil {
		t.Fatal(err)
	}

	refs, err := repo.Branches()
	if err != nil {
		t.Fatal(err)
	}
	commit, err := repo.CommitObject(refs[0].Hash())
	if err != nil {
		t.Fatal(err)
	}
	tree, err := commit.Tree()
	if err != nil {
		t.Fatal(err)
	}

	changes, err := repo.EmptyTree().Diff(tree)
	if err != nil {
		t.Fatalf("Diff() from empty tree error = %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("Diff() returned %d changes, want 1", len(changes))
	}

	patch, err := changes[0].Patch()
	if err != nil {
		t.Fatal(err)
	}

	added := 0
	for _, fp := range patch.FilePatches() {
		if fp.IsBinary() {
			continue
		}
		for _, chunk := range fp.Chunks() {
			if chunk.Type() == ChunkAdd {
				added++
			}
		}
	}
	if added == 0 {
		t.Error("empty-tree diff produced no added chunks")
	}
}

func TestGitRepository_FetchOrigin_NoRemote(t *testing.T) {
	repoPath := initTestRepo(t)

	opener := NewGitOpener()
	repo, err := opener.PlainOpen(repoPath)
	if err != nil {
		t.Fatal(err)
	}

	if err := repo.FetchOrigin(context.Background()); err == nil {
		t.Error("FetchOrigin() should fail when no origin remote is configured")
	}
}

func TestSetDefaultOpener(t *testing.T) {
	original := DefaultOpener()
	defer SetDefaultOpener(original)

	custom := NewGitOpener()
	SetDefaultOpener(custom)
	if DefaultOpener() != Opener(custom) {
		t.Error("SetDefaultOpener did not replace the default")
	}
}

// initTestRepo creates a temp repository with a single commit on one branch.
func initTestRepo(t *testing.T) string {
	t.Helper()
	repoPath := t.TempDir()
	repo, err := git.PlainInit(repoPath, false)
	if err != nil {
		t.Fatalf("Failed to init repo: %v", err)
	}

	w, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(repoPath, "notes.txt")
	if err := os.WriteFile(testFile, []byte("first line\nsecond line\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Add("notes.txt"); err != nil {
		t.Fatal(err)
	}
	_, err = w.Commit("Initial commit", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return repoPath
}
