package groups

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkdirs(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, os.MkdirAll(p, 0755))
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()

	// group-a is itself a repository.
	mkdirs(t, filepath.Join(root, "group-a", ".git"))

	// group-b cloned into a nested project folder.
	mkdirs(t,
		filepath.Join(root, "group-b", "project", ".git"),
		filepath.Join(root, "group-b", "notes"),
	)

	// group-c has no repository at all.
	mkdirs(t, filepath.Join(root, "group-c", "docs"))

	// Plain files at the root are not groups.
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("x"), 0644))

	found, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, found, 2)

	assert.Equal(t, "group-a", found[0].Label)
	assert.Equal(t, filepath.Join(root, "group-a"), found[0].RepoPath)

	assert.Equal(t, "group-b", found[1].Label)
	assert.Equal(t, filepath.Join(root, "group-b", "project"), found[1].RepoPath)
}

func TestDiscover_NestedRepoPicksFirstByName(t *testing.T) {
	root := t.TempDir()
	mkdirs(t,
		filepath.Join(root, "group-a", "beta", ".git"),
		filepath.Join(root, "group-a", "alpha", ".git"),
	)

	found, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, filepath.Join(root, "group-a", "alpha"), found[0].RepoPath)
}

func TestDiscover_GitfileWorktree(t *testing.T) {
	// Submodules and linked worktrees carry a .git file instead of a
	// directory; both count.
	root := t.TempDir()
	dir := filepath.Join(root, "group-a")
	mkdirs(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git"), []byte("gitdir: ../elsewhere\n"), 0644))

	found, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, dir, found[0].RepoPath)
}

func TestDiscover_MissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}

func TestDiscover_EmptyRoot(t *testing.T) {
	found, err := Discover(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, found)
}
