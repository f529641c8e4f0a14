package activity

import (
	"sort"
	"time"
)

// accumulator folds resolved commit deltas into per-author buckets. Only
// sums and set-unions are used, so fold order never affects the result.
type accumulator struct {
	loc    *time.Location
	totals map[string]*authorBuckets
}

// authorBuckets holds one author's per-day counters across all history.
type authorBuckets struct {
	days map[string]*dayBucket
}

type dayBucket struct {
	commits int
	added   int
	removed int
}

func newAccumulator(loc *time.Location) *accumulator {
	return &accumulator{
		loc:    loc,
		totals: make(map[string]*authorBuckets),
	}
}

// fold adds one commit delta to an identity's buckets. The commit date is
// normalized to the accumulator's reference zone before day bucketing.
func (a *accumulator) fold(identity string, delta *CommitDelta) {
	buckets, ok := a.totals[identity]
	if !ok {
		buckets = &authorBuckets{days: make(map[string]*dayBucket)}
		a.totals[identity] = buckets
	}

	day := delta.Date.In(a.loc).Format(dayFormat)
	bucket, ok := buckets.days[day]
	if !ok {
		bucket = &dayBucket{}
		buckets.days[day] = bucket
	}
	bucket.commits++
	bucket.added += delta.Added
	bucket.removed += delta.Removed
}

// finalize produces the all-history totals and the window-clipped,
// zero-filled daily series for every identity that has at least one commit.
// Totals cover every fold; the daily series only covers days inside the
// window, with explicit zero entries for inactive days.
func (a *accumulator) finalize(window Window) ([]AuthorTotal, []DailySeries) {
	identities := make([]string, 0, len(a.totals))
	for identity := range a.totals {
		identities = append(identities, identity)
	}
	sort.Strings(identities)

	windowDays := window.Days()

	totals := make([]AuthorTotal, 0, len(identities))
	series := make([]DailySeries, 0, len(identities))
	for _, identity := range identities {
		buckets := a.totals[identity]

		total := AuthorTotal{Identity: identity}
		for _, bucket := range buckets.days {
			total.Commits += bucket.commits
			total.Added += bucket.added
			total.Removed += bucket.removed
			if bucket.commits > 0 {
				total.ActiveDays++
			}
		}

		daily := DailySeries{Identity: identity, Days: make([]DayActivity, 0, len(windowDays))}
		cumulative := 0
		for _, day := range windowDays {
			entry := DayActivity{Day: day}
			if bucket, ok := buckets.days[day]; ok {
				entry.Commits = bucket.commits
				entry.Added = bucket.added
				entry.Removed = bucket.removed
			}
			cumulative += entry.Commits
			entry.CumulativeCommits = cumulative
			daily.Days = append(daily.Days, entry)
		}

		totals = append(totals, total)
		series = append(series, daily)
	}

	// Most active first; ties broken by the stable name sort above.
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Commits > totals[j].Commits
	})
	sort.SliceStable(series, func(i, j int) bool {
		return commitSum(series[i]) > commitSum(series[j])
	})

	return totals, series
}

func commitSum(s DailySeries) int {
	n := 0
	for _, d := range s.Days {
		n += d.Commits
	}
	return n
}
