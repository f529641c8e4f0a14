// Package charts renders per-group activity dashboards as self-contained
// HTML pages.
package charts

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/groupstat/groupstat/pkg/analyzer/activity"
)

// Options configures dashboard rendering.
type Options struct {
	// Title heads the page.
	Title string

	// TopN caps the members plotted per group; totals are already sorted
	// by commit count, so the most active members survive the cut.
	TopN int

	// TargetDay marks the deadline on the X axis (YYYY-MM-DD); days after
	// it are the post-deadline tail.
	TargetDay string
}

// Render writes one cumulative-commit line chart per group to w as a
// single HTML page.
func Render(w io.Writer, analyses []*activity.Analysis, o Options) error {
	if o.TopN <= 0 {
		o.TopN = 4
	}

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	if o.Title != "" {
		page.PageTitle = o.Title
	}

	for _, a := range analyses {
		page.AddCharts(groupChart(a, o))
	}
	return page.Render(w)
}

// groupChart plots each top member's cumulative commit count over the
// analysis window.
func groupChart(a *activity.Analysis, o Options) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    a.Group,
			Subtitle: fmt.Sprintf("%d commits total", a.TotalCommits),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Day"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Cumulative commits"}),
	)
	line.SetXAxis(a.Window.Days())

	plotted := 0
	for _, total := range a.Totals {
		if plotted >= o.TopN {
			break
		}
		series := a.Series(total.Identity)
		if series == nil {
			continue
		}

		data := make([]opts.LineData, len(series.Days))
		for j, day := range series.Days {
			data[j] = opts.LineData{Value: day.CumulativeCommits}
		}

		seriesOpts := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		}
		if plotted == 0 && o.TargetDay != "" {
			// The deadline sits on the first series; one line per chart.
			seriesOpts = append(seriesOpts,
				charts.WithMarkLineNameXAxisItemOpts(opts.MarkLineNameXAxisItem{
					Name:  "deadline",
					XAxis: o.TargetDay,
				}),
				charts.WithMarkLineStyleOpts(opts.MarkLineStyle{
					Symbol: []string{"none", "none"},
				}),
			)
		}
		line.AddSeries(total.Identity, data, seriesOpts...)
		plotted++
	}
	return line
}
