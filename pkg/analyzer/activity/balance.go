package activity

import "gonum.org/v1/gonum/stat"

// computeBalance determines the dominant contributor for a group and the
// share of commits they own. A group with no commits has an empty balance.
func computeBalance(totals []AuthorTotal) Balance {
	var sum, max int
	var dominant string
	for _, t := range totals {
		sum += t.Commits
		if t.Commits > max {
			max = t.Commits
			dominant = t.Identity
		}
	}
	if sum == 0 {
		return Balance{}
	}
	return Balance{
		DominantMember: dominant,
		DominantRatio:  float64(max) / float64(sum),
	}
}

// commitTrend fits a least-squares line to an author's daily commit counts
// over the window and returns the slope in commits per day. Fewer than two
// days yields zero.
func commitTrend(days []DayActivity) float64 {
	if len(days) < 2 {
		return 0
	}

	xs := make([]float64, len(days))
	ys := make([]float64, len(days))
	for i, d := range days {
		xs[i] = float64(i)
		ys[i] = float64(d.Commits)
	}

	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return slope
}
