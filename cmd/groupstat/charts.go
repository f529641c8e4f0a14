package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	chartsSvc "github.com/groupstat/groupstat/internal/charts"
	"github.com/groupstat/groupstat/internal/output"
	"github.com/groupstat/groupstat/internal/progress"
	"github.com/groupstat/groupstat/internal/service/stats"
)

var chartsCmd = &cobra.Command{
	Use:   "charts [folder]",
	Short: "Render per-group activity charts as HTML",
	Long: `Analyzes every group under the folder and writes an HTML dashboard
with one cumulative-commit chart per group, plotting the most active
members over the monitored window.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCharts,
}

func init() {
	chartsCmd.Flags().String("target-date", "", "Deadline day the window is anchored to (YYYY-MM-DD, default today)")
	chartsCmd.Flags().String("start-date", "", "Project start date override (YYYY-MM-DD)")
	chartsCmd.Flags().Int("top", 0, "Members to plot per group (overrides config)")
	chartsCmd.Flags().Bool("fetch", false, "Fetch each repository from origin before analyzing")

	rootCmd.AddCommand(chartsCmd)
}

func runCharts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
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

	topN := cfg.Output.TopN
	if top, _ := cmd.Flags().GetInt("top"); top > 0 {
		topN = top
	}

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

	outputPath := getOutputFile(cmd)
	if outputPath == "" {
		outputPath = "activity.html"
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputPath, err)
	}
	if err := chartsSvc.Render(f, result.Analyses(), chartsSvc.Options{
		Title:     "Group Activity",
		TopN:      topN,
		TargetDay: result.TargetDate.Format("2006-01-02"),
	}); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	formatter, err := output.NewFormatter(output.FormatText, "", cfg.Output.Color)
	if err != nil {
		return err
	}
	formatter.Success("Wrote %s (%d groups)", outputPath, len(result.Analyses()))
	for _, g := range result.Failed() {
		formatter.Warning("group %s skipped: %v", g.Group, g.Err)
	}
	return nil
}
