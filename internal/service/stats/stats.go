// Package stats orchestrates activity analysis across every group
// repository under a course folder.
package stats

import (
	"context"
	"runtime"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/groupstat/groupstat/internal/groups"
	"github.com/groupstat/groupstat/internal/progress"
	"github.com/groupstat/groupstat/internal/vcs"
	"github.com/groupstat/groupstat/pkg/analyzer/activity"
	"github.com/groupstat/groupstat/pkg/config"
	"github.com/groupstat/groupstat/pkg/identity"
)

// Service runs group discovery and per-group analysis.
type Service struct {
	config *config.Config
	opener vcs.Opener
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithOpener sets the VCS opener (for testing).
func WithOpener(opener vcs.Opener) Option {
	return func(s *Service) {
		s.opener = opener
	}
}

// New creates a stats service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.LoadOrDefault(),
		opener: vcs.DefaultOpener(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunOptions configures a single analysis run.
type RunOptions struct {
	// TargetDate is the deadline day the window is anchored to. The daily
	// series ends analysis_days after it.
	TargetDate time.Time

	// StartDate overrides the configured project start date when non-zero.
	StartDate time.Time

	// Fetch updates each repository from origin before walking.
	Fetch bool

	// Tracker ticks once per finished group.
	Tracker *progress.Tracker
}

// GroupResult is the outcome for a single group. Err is set when the
// group's repository could not be analyzed; the rest of the run is
// unaffected.
type GroupResult struct {
	Group    string             `json:"group"`
	RepoPath string             `json:"repo_path"`
	Analysis *activity.Analysis `json:"analysis,omitempty"`
	Err      error              `json:"-"`
}

// RunResult is the outcome of a whole folder run, in group label order.
type RunResult struct {
	Groups []GroupResult   `json:"groups"`
	Window activity.Window `json:"window"`

	// TargetDate is the deadline the window was anchored to. Days after it
	// are the post-deadline tail.
	TargetDate time.Time `json:"target_date"`
}

// Analyses returns the successful analyses in group order.
func (r *RunResult) Analyses() []*activity.Analysis {
	out := make([]*activity.Analysis, 0, len(r.Groups))
	for _, g := range r.Groups {
		if g.Analysis != nil {
			out = append(out, g.Analysis)
		}
	}
	return out
}

// Failed returns the groups whose analysis errored.
func (r *RunResult) Failed() []GroupResult {
	var out []GroupResult
	for _, g := range r.Groups {
		if g.Err != nil {
			out = append(out, g)
		}
	}
	return out
}

// resolver builds the run-wide identity resolver from configuration.
func (s *Service) resolver() *identity.Resolver {
	return identity.NewResolver(
		identity.WithAliases(s.config.Groups.AliasMappingByGroup),
		identity.WithExcluded(s.config.Groups.ExcludedMembers),
		identity.WithExcludedByGroup(s.config.Groups.ExcludedMembersByGroup),
	)
}

// window derives the daily-series window for a run: configured project
// start through the target date plus the configured trailing days.
func (s *Service) window(opts RunOptions, loc *time.Location) (activity.Window, time.Time, error) {
	start := opts.StartDate
	if start.IsZero() {
		var err error
		start, err = s.config.StartDate(loc)
		if err != nil {
			return activity.Window{}, time.Time{}, err
		}
	}

	target := opts.TargetDate
	if target.IsZero() {
		target = time.Now().In(loc)
	}
	end := target.AddDate(0, 0, s.config.Window.AnalysisDays)

	return activity.Window{Start: start, End: end}, target, nil
}

// AnalyzeFolders discovers the groups under root and analyzes each
// repository concurrently. One failing group never aborts the run.
func (s *Service) AnalyzeFolders(ctx context.Context, root string, opts RunOptions) (*RunResult, error) {
	loc, err := s.config.Location()
	if err != nil {
		return nil, err
	}
	window, target, err := s.window(opts, loc)
	if err != nil {
		return nil, err
	}

	found, err := groups.Discover(root)
	if err != nil {
		return nil, err
	}

	resolver := s.resolver()
	result := &RunResult{
		Groups:     make([]GroupResult, len(found)),
		Window:     window,
		TargetDate: target,
	}

	p := pool.New().WithMaxGoroutines(runtime.NumCPU())
	for i, g := range found {
		p.Go(func() {
			analyzer := activity.New(
				activity.WithOpener(s.opener),
				activity.WithResolver(resolver),
				activity.WithWindow(window.Start, window.End),
				activity.WithLocation(loc),
				activity.WithFetch(opts.Fetch),
			)

			analysis, err := analyzer.Analyze(ctx, g.Label, g.RepoPath)
			result.Groups[i] = GroupResult{
				Group:    g.Label,
				RepoPath: g.RepoPath,
				Analysis: analysis,
				Err:      err,
			}
			if opts.Tracker != nil {
				opts.Tracker.Tick()
			}
		})
	}
	p.Wait()

	return result, nil
}

// FetchAll updates every group repository from origin without analyzing.
// Unreachable remotes are reported per group.
func (s *Service) FetchAll(ctx context.Context, root string, tracker *progress.Tracker) ([]GroupResult, error) {
	found, err := groups.Discover(root)
	if err != nil {
		return nil, err
	}

	results := make([]GroupResult, len(found))
	p := pool.New().WithMaxGoroutines(runtime.NumCPU())
	for i, g := range found {
		p.Go(func() {
			res := GroupResult{Group: g.Label, RepoPath: g.RepoPath}
			repo, err := s.opener.PlainOpen(g.RepoPath)
			if err != nil {
				res.Err = err
			} else {
				res.Err = repo.FetchOrigin(ctx)
			}
			results[i] = res
			if tracker != nil {
				tracker.Tick()
			}
		})
	}
	p.Wait()

	return results, nil
}
