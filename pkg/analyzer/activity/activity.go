// Package activity aggregates per-author commit statistics across every
// branch of a git repository. Commits reachable from multiple branches are
// counted once, raw author names are unified through alias resolution, and
// line deltas are folded into all-history totals plus a window-clipped,
// zero-filled daily series per contributor.
package activity

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/groupstat/groupstat/internal/progress"
	"github.com/groupstat/groupstat/internal/vcs"
	"github.com/groupstat/groupstat/pkg/identity"
)

// ErrNotRepository is returned when a group's path does not resolve to a
// readable git repository. Fatal for that group only.
var ErrNotRepository = fmt.Errorf("not a git repository")

// Analyzer runs the walk/diff/resolve/aggregate pipeline for one group.
type Analyzer struct {
	opener   vcs.Opener
	resolver *identity.Resolver
	window   Window
	loc      *time.Location
	fetch    bool
	spinner  *progress.Tracker
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithOpener sets the VCS opener (useful for testing).
func WithOpener(opener vcs.Opener) Option {
	return func(a *Analyzer) {
		a.opener = opener
	}
}

// WithResolver sets the identity resolver shared by the run.
func WithResolver(r *identity.Resolver) Option {
	return func(a *Analyzer) {
		a.resolver = r
	}
}

// WithWindow bounds the daily series to [start, end]. Totals are never
// window-clipped.
func WithWindow(start, end time.Time) Option {
	return func(a *Analyzer) {
		a.window = Window{Start: start, End: end}
	}
}

// WithLocation sets the reference timezone for day bucketing.
func WithLocation(loc *time.Location) Option {
	return func(a *Analyzer) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// WithFetch enables a best-effort origin fetch before walking.
func WithFetch(fetch bool) Option {
	return func(a *Analyzer) {
		a.fetch = fetch
	}
}

// WithSpinner sets a progress spinner for the analyzer.
func WithSpinner(spinner *progress.Tracker) Option {
	return func(a *Analyzer) {
		a.spinner = spinner
	}
}

// New creates an activity analyzer. The default window covers the last 30
// days in local time.
func New(opts ...Option) *Analyzer {
	now := time.Now()
	a := &Analyzer{
		opener:   vcs.DefaultOpener(),
		resolver: identity.NewResolver(),
		window:   Window{Start: now.AddDate(0, 0, -30), End: now},
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze walks every branch of the group's repository and folds each unique
// commit into per-author aggregates. A commit whose diff cannot be computed
// is skipped and counted in DiffErrors; an unreadable repository is fatal
// for the group.
func (a *Analyzer) Analyze(ctx context.Context, group, repoPath string) (*Analysis, error) {
	repo, err := a.opener.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotRepository, repoPath)
	}

	if a.fetch {
		// Keeping stale local refs is preferable to failing the group when
		// the remote is unreachable.
		_ = repo.FetchOrigin(ctx)
	}

	commits, err := walkCommits(repo)
	if err != nil {
		return nil, fmt.Errorf("walking branches of %s: %w", repoPath, err)
	}

	analysis := &Analysis{
		Group:        group,
		RepoPath:     repoPath,
		GeneratedAt:  time.Now().UTC(),
		Window:       a.window,
		TotalCommits: len(commits),
	}

	acc := newAccumulator(a.loc)
	unresolved := make(map[string]struct{})
	warnUnresolved := a.resolver.HasAliases(group)

	for _, commit := range commits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sig := commit.Author()
		canonical, known := a.resolver.Resolve(group, sig.Name)
		if !known && warnUnresolved {
			unresolved[identity.Normalize(sig.Name)] = struct{}{}
		}
		if a.resolver.IsExcluded(group, canonical) {
			continue
		}

		delta, err := diffCommit(repo, commit)
		if err != nil {
			analysis.DiffErrors++
			continue
		}
		delta.Author = sig.Name
		delta.Date = sig.When.In(a.loc)

		acc.fold(canonical, delta)
		if a.spinner != nil {
			a.spinner.Tick()
		}
	}

	analysis.Totals, analysis.Daily = acc.finalize(a.window)
	analysis.Balance = computeBalance(analysis.Totals)

	slopes := make(map[string]float64, len(analysis.Daily))
	for _, s := range analysis.Daily {
		slopes[s.Identity] = commitTrend(s.Days)
	}
	for i := range analysis.Totals {
		analysis.Totals[i].TrendSlope = slopes[analysis.Totals[i].Identity]
	}

	for name := range unresolved {
		analysis.UnresolvedAuthors = append(analysis.UnresolvedAuthors, name)
	}
	sort.Strings(analysis.UnresolvedAuthors)

	return analysis, nil
}
