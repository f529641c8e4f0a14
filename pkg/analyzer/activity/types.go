package activity

import "time"

// dayFormat is the bucket key layout for daily aggregation.
const dayFormat = "2006-01-02"

// FileDelta is the line delta for a single file within a commit.
type FileDelta struct {
	Path    string `json:"path"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
}

// CommitDelta is the line-addition/removal summary for one unique commit,
// diffed against its primary parent.
type CommitDelta struct {
	Hash    string      `json:"hash"`
	Author  string      `json:"author"`
	Date    time.Time   `json:"date"`
	Added   int         `json:"added"`
	Removed int         `json:"removed"`
	Files   []FileDelta `json:"files,omitempty"`
}

// Window is the inclusive date range bounding daily series.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether a time falls on a day within the window.
func (w Window) Contains(t time.Time) bool {
	day := t.Format(dayFormat)
	return day >= w.Start.Format(dayFormat) && day <= w.End.Format(dayFormat)
}

// Days returns every day key in the window in chronological order.
func (w Window) Days() []string {
	if w.Start.IsZero() || w.End.Before(w.Start) {
		return nil
	}
	var days []string
	end := w.End.Format(dayFormat)
	for d := w.Start; ; d = d.AddDate(0, 0, 1) {
		key := d.Format(dayFormat)
		days = append(days, key)
		if key == end {
			break
		}
	}
	return days
}

// AuthorTotal aggregates all-history activity for one canonical identity.
type AuthorTotal struct {
	Identity   string  `json:"identity"`
	Commits    int     `json:"commits"`
	Added      int     `json:"added"`
	Removed    int     `json:"removed"`
	ActiveDays int     `json:"active_days"`
	TrendSlope float64 `json:"trend_slope"`
}

// DayActivity is one zero-filled day in an author's daily series.
type DayActivity struct {
	Day               string `json:"day"`
	Commits           int    `json:"commits"`
	Added             int    `json:"added"`
	Removed           int    `json:"removed"`
	CumulativeCommits int    `json:"cumulative_commits"`
}

// DailySeries is the windowed, zero-filled activity timeline for one
// canonical identity. It has exactly one entry per day in the window.
type DailySeries struct {
	Identity string        `json:"identity"`
	Days     []DayActivity `json:"days"`
}

// Balance summarizes how evenly commits are distributed within a group.
type Balance struct {
	DominantMember string  `json:"dominant_member,omitempty"`
	DominantRatio  float64 `json:"dominant_ratio"`
}

// Analysis is the per-group aggregation result.
type Analysis struct {
	Group       string    `json:"group"`
	RepoPath    string    `json:"repo_path"`
	GeneratedAt time.Time `json:"generated_at"`
	Window      Window    `json:"window"`

	// TotalCommits counts unique commits reachable from any branch,
	// regardless of author exclusion.
	TotalCommits int `json:"total_commits"`

	Totals []AuthorTotal `json:"totals"`
	Daily  []DailySeries `json:"daily"`

	Balance Balance `json:"balance"`

	// UnresolvedAuthors lists normalized raw author names that had no alias
	// entry although alias tables were configured for the group.
	UnresolvedAuthors []string `json:"unresolved_authors,omitempty"`

	// DiffErrors counts commits skipped because their diff failed.
	DiffErrors int `json:"diff_errors"`
}

// Total returns the AuthorTotal for an identity, or nil.
func (a *Analysis) Total(identity string) *AuthorTotal {
	for i := range a.Totals {
		if a.Totals[i].Identity == identity {
			return &a.Totals[i]
		}
	}
	return nil
}

// Series returns the DailySeries for an identity, or nil.
func (a *Analysis) Series(identity string) *DailySeries {
	for i := range a.Daily {
		if a.Daily[i].Identity == identity {
			return &a.Daily[i]
		}
	}
	return nil
}

// WarningCount is the number of non-fatal issues observed for the group.
func (a *Analysis) WarningCount() int {
	return len(a.UnresolvedAuthors) + a.DiffErrors
}
