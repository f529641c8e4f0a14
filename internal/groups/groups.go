// Package groups discovers group repositories under a course folder. Each
// immediate subdirectory is one group; its label is the directory name.
package groups

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Group is a discovered group folder and the git repository inside it.
type Group struct {
	// Label is the group's folder name.
	Label string

	// RepoPath is the path to the working tree containing .git.
	RepoPath string
}

// isRepo reports whether dir contains a .git entry (directory or gitfile).
func isRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// findRepo locates the repository for a group folder. The folder itself
// wins if it is a repository; otherwise the first child directory (in
// name order) holding one is used. Groups that cloned into a nested
// project folder are common, so both layouts are supported.
func findRepo(dir string) (string, bool) {
	if isRepo(dir) {
		return dir, true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		child := filepath.Join(dir, e.Name())
		if isRepo(child) {
			return child, true
		}
	}
	return "", false
}

// Discover lists the group repositories under root, sorted by label.
// Folders without any repository are skipped.
func Discover(root string) ([]Group, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading groups folder %s: %w", root, err)
	}

	var found []Group
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		repo, ok := findRepo(dir)
		if !ok {
			continue
		}
		found = append(found, Group{Label: e.Name(), RepoPath: repo})
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].Label < found[j].Label
	})
	return found, nil
}
