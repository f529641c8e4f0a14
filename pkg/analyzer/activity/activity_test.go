package activity

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupstat/groupstat/pkg/identity"
)

var (
	day1 = time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	day2 = time.Date(2025, 3, 3, 11, 0, 0, 0, time.UTC)
	day3 = time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)

	windowStart = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
)

// initGroupRepo builds the shared-ancestor scenario: A(root, +10, "ann") and
// B(+5/-2, "Ann.S") on the default branch, C(+3/-1, "bob") on an unmerged
// feature branch off A. A is reachable from both tips.
func initGroupRepo(t *testing.T) string {
	t.Helper()
	repoPath := t.TempDir()
	repo, err := git.PlainInit(repoPath, false)
	require.NoError(t, err)

	w, err := repo.Worktree()
	require.NoError(t, err)

	hashA := commitFiles(t, w, repoPath, map[string]string{
		"main.txt": lines(10),
	}, "ann", day1)

	// B truncates main.txt by 2 lines and adds a 5-line file.
	commitFiles(t, w, repoPath, map[string]string{
		"main.txt":  lines(8),
		"extra.txt": lines(5),
	}, "Ann.S", day2)

	require.NoError(t, w.Checkout(&git.CheckoutOptions{
		Hash:   hashA,
		Branch: plumbing.NewBranchReferenceName("feature"),
		Create: true,
	}))

	// C removes 1 line from main.txt and adds a 3-line file.
	commitFiles(t, w, repoPath, map[string]string{
		"main.txt": lines(9),
		"c.txt":    lines(3),
	}, "bob", day3)

	return repoPath
}

func commitFiles(t *testing.T, w *git.Worktree, repoPath string, files map[string]string, author string, when time.Time) plumbing.Hash {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(repoPath, name), []byte(content), 0644))
		_, err := w.Add(name)
		require.NoError(t, err)
	}
	hash, err := w.Commit("update "+author, &git.CommitOptions{
		Author: &object.Signature{
			Name:  author,
			Email: "dev@example.com",
			When:  when,
		},
	})
	require.NoError(t, err)
	return hash
}

func lines(n int) string {
	var b []byte
	for i := 0; i < n; i++ {
		b = append(b, []byte("line\n")...)
	}
	return string(b)
}

func newTestAnalyzer(opts ...Option) *Analyzer {
	base := []Option{
		WithWindow(windowStart, windowEnd),
		WithLocation(time.UTC),
	}
	return New(append(base, opts...)...)
}

func TestAnalyze_DeduplicatesAcrossBranches(t *testing.T) {
	repoPath := initGroupRepo(t)

	resolver := identity.NewResolver(identity.WithAliases(map[string]map[string]string{
		"group-a": {"ann.s": "ann"},
	}))
	analyzer := newTestAnalyzer(WithResolver(resolver))

	analysis, err := analyzer.Analyze(context.Background(), "group-a", repoPath)
	require.NoError(t, err)

	// A is reachable from both branch tips but processed once.
	assert.Equal(t, 3, analysis.TotalCommits)

	ann := analysis.Total("ann")
	require.NotNil(t, ann)
	assert.Equal(t, 2, ann.Commits)
	assert.Equal(t, 15, ann.Added)
	assert.Equal(t, 2, ann.Removed)
	assert.Equal(t, 2, ann.ActiveDays)

	bob := analysis.Total("bob")
	require.NotNil(t, bob)
	assert.Equal(t, 1, bob.Commits)
	assert.Equal(t, 3, bob.Added)
	assert.Equal(t, 1, bob.Removed)
}

func TestAnalyze_AliasConvergence(t *testing.T) {
	repoPath := initGroupRepo(t)

	resolver := identity.NewResolver(identity.WithAliases(map[string]map[string]string{
		"group-a": {"ann.s": "ann"},
	}))
	analyzer := newTestAnalyzer(WithResolver(resolver))

	analysis, err := analyzer.Analyze(context.Background(), "group-a", repoPath)
	require.NoError(t, err)

	// "ann" and "Ann.S" merge into a single identity, not two.
	assert.Len(t, analysis.Totals, 2)
	assert.Nil(t, analysis.Total("ann.s"))
}

func TestAnalyze_UnresolvedAuthorsWarned(t *testing.T) {
	repoPath := initGroupRepo(t)

	resolver := identity.NewResolver(identity.WithAliases(map[string]map[string]string{
		"group-a": {"ann.s": "ann"},
	}))
	analyzer := newTestAnalyzer(WithResolver(resolver))

	analysis, err := analyzer.Analyze(context.Background(), "group-a", repoPath)
	require.NoError(t, err)

	// "ann" and "bob" have no alias entries; with a table configured for
	// the group they surface as warnings so the config can be extended.
	assert.Equal(t, []string{"ann", "bob"}, analysis.UnresolvedAuthors)

	// With no alias tables at all, passthrough is silent.
	quiet, err := newTestAnalyzer().Analyze(context.Background(), "group-a", repoPath)
	require.NoError(t, err)
	assert.Empty(t, quiet.UnresolvedAuthors)
}

func TestAnalyze_ExclusionComplete(t *testing.T) {
	repoPath := initGroupRepo(t)

	resolver := identity.NewResolver(
		identity.WithAliases(map[string]map[string]string{
			"group-a": {"ann.s": "ann"},
		}),
		identity.WithExcluded([]string{"ann"}),
	)
	analyzer := newTestAnalyzer(WithResolver(resolver))

	analysis, err := analyzer.Analyze(context.Background(), "group-a", repoPath)
	require.NoError(t, err)

	assert.Nil(t, analysis.Total("ann"))
	assert.Nil(t, analysis.Series("ann"))
	require.NotNil(t, analysis.Total("bob"))
	// Unique commit count still reflects the full walk.
	assert.Equal(t, 3, analysis.TotalCommits)
}

func TestAnalyze_WindowClipsDailyNotTotals(t *testing.T) {
	repoPath := t.TempDir()
	repo, err := git.PlainInit(repoPath, false)
	require.NoError(t, err)
	w, err := repo.Worktree()
	require.NoError(t, err)

	early := time.Date(2025, 2, 20, 9, 0, 0, 0, time.UTC)
	commitFiles(t, w, repoPath, map[string]string{"a.txt": lines(4)}, "ann", early)
	commitFiles(t, w, repoPath, map[string]string{"b.txt": lines(6)}, "ann", day2)

	analyzer := newTestAnalyzer()
	analysis, err := analyzer.Analyze(context.Background(), "group-a", repoPath)
	require.NoError(t, err)

	ann := analysis.Total("ann")
	require.NotNil(t, ann)
	assert.Equal(t, 2, ann.Commits)
	assert.Equal(t, 10, ann.Added)

	series := analysis.Series("ann")
	require.NotNil(t, series)

	// One entry per window day, zero-filled.
	assert.Len(t, series.Days, 10)

	var dailyCommits, dailyAdded int
	for _, d := range series.Days {
		dailyCommits += d.Commits
		dailyAdded += d.Added
	}
	// Only the in-window commit appears in the series.
	assert.Equal(t, 1, dailyCommits)
	assert.Equal(t, 6, dailyAdded)
	assert.Equal(t, 1, series.Days[len(series.Days)-1].CumulativeCommits)
}

func TestAnalyze_MergeDiffsFirstParentOnly(t *testing.T) {
	repoPath := t.TempDir()
	repo, err := git.PlainInit(repoPath, false)
	require.NoError(t, err)
	w, err := repo.Worktree()
	require.NoError(t, err)

	hashA := commitFiles(t, w, repoPath, map[string]string{"main.txt": lines(10)}, "ann", day1)
	hashB := commitFiles(t, w, repoPath, map[string]string{"main.txt": lines(12)}, "ann", day2)

	require.NoError(t, w.Checkout(&git.CheckoutOptions{
		Hash:   hashA,
		Branch: plumbing.NewBranchReferenceName("feature"),
		Create: true,
	}))
	hashC := commitFiles(t, w, repoPath, map[string]string{"side.txt": lines(3)}, "bob", day3)

	// Merge feature into the default branch by committing the union state
	// with both parents.
	require.NoError(t, w.Checkout(&git.CheckoutOptions{Hash: hashB}))
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, "side.txt"), []byte(lines(3)), 0644))
	_, err = w.Add("side.txt")
	require.NoError(t, err)
	mergeHash, err := w.Commit("merge feature", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "ann",
			Email: "dev@example.com",
			When:  day3,
		},
		Parents: []plumbing.Hash{hashB, hashC},
	})
	require.NoError(t, err)

	opener := newTestAnalyzer().opener
	vcsRepo, err := opener.PlainOpen(repoPath)
	require.NoError(t, err)
	mergeCommit, err := vcsRepo.CommitObject(mergeHash)
	require.NoError(t, err)
	require.Equal(t, 2, mergeCommit.NumParents())

	delta, err := diffCommit(vcsRepo, mergeCommit)
	require.NoError(t, err)

	// Only the difference to the first parent counts: side.txt arriving.
	// main.txt's 12 lines already exist on the first-parent side.
	assert.Equal(t, 3, delta.Added)
	assert.Equal(t, 0, delta.Removed)
}

func TestAnalyze_RootCommitCountsAllLinesAdded(t *testing.T) {
	repoPath := t.TempDir()
	repo, err := git.PlainInit(repoPath, false)
	require.NoError(t, err)
	w, err := repo.Worktree()
	require.NoError(t, err)

	commitFiles(t, w, repoPath, map[string]string{"only.txt": lines(7)}, "ann", day1)

	analyzer := newTestAnalyzer()
	analysis, err := analyzer.Analyze(context.Background(), "group-a", repoPath)
	require.NoError(t, err)

	ann := analysis.Total("ann")
	require.NotNil(t, ann)
	assert.Equal(t, 7, ann.Added)
	assert.Equal(t, 0, ann.Removed)
}

func TestAnalyze_BinaryFilesContributeZero(t *testing.T) {
	repoPath := t.TempDir()
	repo, err := git.PlainInit(repoPath, false)
	require.NoError(t, err)
	w, err := repo.Worktree()
	require.NoError(t, err)

	binary := append([]byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0x01, 0x02}, make([]byte, 64)...)
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, "image.png"), binary, 0644))
	_, err = w.Add("image.png")
	require.NoError(t, err)
	_, err = w.Commit("add image", &git.CommitOptions{
		Author: &object.Signature{Name: "ann", Email: "dev@example.com", When: day1},
	})
	require.NoError(t, err)

	analyzer := newTestAnalyzer()
	analysis, err := analyzer.Analyze(context.Background(), "group-a", repoPath)
	require.NoError(t, err)

	ann := analysis.Total("ann")
	require.NotNil(t, ann)
	assert.Equal(t, 1, ann.Commits)
	assert.Equal(t, 0, ann.Added)
	assert.Equal(t, 0, ann.Removed)
}

func TestAnalyze_NotRepository(t *testing.T) {
	analyzer := newTestAnalyzer()
	_, err := analyzer.Analyze(context.Background(), "group-a", t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotRepository))
}

func TestAnalyze_DiffErrorSkipsCommit(t *testing.T) {
	good := plumbing.NewHash("1111111111111111111111111111111111111111")
	bad := plumbing.NewHash("2222222222222222222222222222222222222222")

	repo := &mockRepo{}
	repo.commits = map[plumbing.Hash]*mockCommit{
		good: {
			repo: repo, hash: good, added: 5,
			author: object.Signature{Name: "ann", When: day1},
		},
		bad: {
			repo: repo, hash: bad, parents: []plumbing.Hash{good},
			author:  object.Signature{Name: "ann", When: day2},
			treeErr: errors.New("corrupted object"),
		},
	}
	repo.branches = branchRefs(bad)

	analyzer := newTestAnalyzer(WithOpener(&mockOpener{repo: repo}))
	analysis, err := analyzer.Analyze(context.Background(), "group-a", "whatever")
	require.NoError(t, err)

	assert.Equal(t, 1, analysis.DiffErrors)
	ann := analysis.Total("ann")
	require.NotNil(t, ann)
	assert.Equal(t, 1, ann.Commits)
	assert.Equal(t, 5, ann.Added)
	assert.Equal(t, 2, analysis.TotalCommits)
}

func TestAnalyze_DanglingBranchTipSkipped(t *testing.T) {
	good := plumbing.NewHash("1111111111111111111111111111111111111111")
	missing := plumbing.NewHash("3333333333333333333333333333333333333333")

	repo := &mockRepo{}
	repo.commits = map[plumbing.Hash]*mockCommit{
		good: {
			repo: repo, hash: good, added: 2,
			author: object.Signature{Name: "ann", When: day1},
		},
	}
	repo.branches = append(branchRefs(good), mockRef{name: "broken", hash: missing})

	analyzer := newTestAnalyzer(WithOpener(&mockOpener{repo: repo}))
	analysis, err := analyzer.Analyze(context.Background(), "group-a", "whatever")
	require.NoError(t, err)
	assert.Equal(t, 1, analysis.TotalCommits)
}

func TestAnalyze_Balance(t *testing.T) {
	repoPath := initGroupRepo(t)

	resolver := identity.NewResolver(identity.WithAliases(map[string]map[string]string{
		"group-a": {"ann.s": "ann"},
	}))
	analyzer := newTestAnalyzer(WithResolver(resolver))

	analysis, err := analyzer.Analyze(context.Background(), "group-a", repoPath)
	require.NoError(t, err)

	assert.Equal(t, "ann", analysis.Balance.DominantMember)
	assert.InDelta(t, 2.0/3.0, analysis.Balance.DominantRatio, 1e-9)
}
