package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/groupstat/groupstat/internal/output"
	"github.com/groupstat/groupstat/internal/progress"
	"github.com/groupstat/groupstat/internal/service/stats"
	"github.com/groupstat/groupstat/pkg/analyzer/activity"
	"github.com/groupstat/groupstat/pkg/config"
)

var analyzeCmd = &cobra.Command{
	Use:     "analyze [folder]",
	Aliases: []string{"a"},
	Short:   "Analyze commit activity for every group under a folder",
	Long: `Walks every branch of each group repository and reports per-member
commit counts, added and removed lines, active days, and contribution
balance. Daily activity is clipped to the monitored window; totals
cover the whole history.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("target-date", "", "Deadline day the window is anchored to (YYYY-MM-DD, default today)")
	analyzeCmd.Flags().String("start-date", "", "Project start date override (YYYY-MM-DD)")
	analyzeCmd.Flags().Int("days", -1, "Days of activity to keep after the target date (overrides config)")
	analyzeCmd.Flags().Bool("fetch", false, "Fetch each repository from origin before analyzing")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if days, _ := cmd.Flags().GetInt("days"); days >= 0 {
		if err := validateDays(days); err != nil {
			return err
		}
		cfg.Window.AnalysisDays = days
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	targetDate, err := getDateFlag(cmd, "target-date", loc)
	if err != nil {
		return err
	}
	startDate, err := getDateFlag(cmd, "start-date", loc)
	if err != nil {
		return err
	}
	fetch, _ := cmd.Flags().GetBool("fetch")

	spinner := progress.NewSpinner("Analyzing group repositories...")
	svc := stats.New(stats.WithConfig(cfg))
	result, err := svc.AnalyzeFolders(cmd.Context(), getFolder(args), stats.RunOptions{
		TargetDate: targetDate,
		StartDate:  startDate,
		Fetch:      fetch,
		Tracker:    spinner,
	})
	spinner.FinishSuccess()
	if err != nil {
		return err
	}

	formatter, err := output.NewFormatter(output.ParseFormat(getFormat(cmd, cfg)), getOutputFile(cmd), cfg.Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if formatter.Format() == output.FormatJSON || formatter.Format() == output.FormatTOON {
		return formatter.Output(result)
	}

	return printRun(formatter, cfg, result)
}

func printRun(formatter *output.Formatter, cfg *config.Config, result *stats.RunResult) error {
	report := &output.Report{
		Title: "Group Activity",
		Data:  result,
	}

	for _, g := range result.Groups {
		if g.Err != nil {
			continue
		}
		report.Sections = append(report.Sections, groupTable(formatter, cfg, g.Analysis))
	}
	report.Sections = append(report.Sections, balanceTable(result))

	if err := formatter.Output(report); err != nil {
		return err
	}

	for _, g := range result.Failed() {
		formatter.Warning("group %s skipped: %v", g.Group, g.Err)
	}
	for _, g := range result.Groups {
		if g.Analysis == nil {
			continue
		}
		for _, name := range g.Analysis.UnresolvedAuthors {
			formatter.Warning("group %s: author %q has no alias mapping", g.Group, name)
		}
		if g.Analysis.DiffErrors > 0 {
			formatter.Warning("group %s: %d commits skipped (diff failed)", g.Group, g.Analysis.DiffErrors)
		}
	}
	return nil
}

// groupTable builds the per-member summary for one group. Added-line cells
// are colored against the configured volume thresholds.
func groupTable(formatter *output.Formatter, cfg *config.Config, a *activity.Analysis) *output.Table {
	var rows [][]string
	for _, t := range a.Totals {
		added := humanize.Comma(int64(t.Added))
		if formatter.Colored() {
			added = output.VolumeColor(t.Added, cfg.Thresholds.Low, cfg.Thresholds.Medium, cfg.Thresholds.High, added)
		}
		rows = append(rows, []string{
			t.Identity,
			strconv.Itoa(t.Commits),
			added,
			humanize.Comma(int64(t.Removed)),
			strconv.Itoa(t.ActiveDays),
			fmt.Sprintf("%+.2f", t.TrendSlope),
		})
	}

	return output.NewTable(
		fmt.Sprintf("Group %s", a.Group),
		[]string{"Member", "Commits", "Added", "Removed", "Active Days", "Trend"},
		rows,
		[]string{fmt.Sprintf("Commits: %d", a.TotalCommits), "", "", "", "", ""},
		a,
	)
}

// balanceTable summarizes contribution balance across all groups.
func balanceTable(result *stats.RunResult) *output.Table {
	var rows [][]string
	for _, g := range result.Groups {
		if g.Analysis == nil {
			continue
		}
		a := g.Analysis
		rows = append(rows, []string{
			a.Group,
			strconv.Itoa(a.TotalCommits),
			a.Balance.DominantMember,
			fmt.Sprintf("%.0f%%", a.Balance.DominantRatio*100),
			strconv.Itoa(a.WarningCount()),
		})
	}

	return output.NewTable(
		"Contribution Balance",
		[]string{"Group", "Commits", "Dominant Member", "Share", "Warnings"},
		rows,
		nil,
		nil,
	)
}
