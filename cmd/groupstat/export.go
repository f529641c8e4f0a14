package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/groupstat/groupstat/internal/output"
	"github.com/groupstat/groupstat/internal/progress"
	"github.com/groupstat/groupstat/internal/service/stats"
	"github.com/groupstat/groupstat/pkg/analyzer/activity"
)

var exportCmd = &cobra.Command{
	Use:   "export [folder]",
	Short: "Export per-member statistics as CSV",
	Long: `Analyzes every group under the folder and writes two CSV files: one
row per member with all-history totals, and one row per member per day
over the monitored window.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("global", "group_statistics.csv", "Path for the per-member totals CSV")
	exportCmd.Flags().String("daily", "daily_statistics.csv", "Path for the per-day CSV")
	exportCmd.Flags().String("target-date", "", "Deadline day the window is anchored to (YYYY-MM-DD, default today)")
	exportCmd.Flags().String("start-date", "", "Project start date override (YYYY-MM-DD)")
	exportCmd.Flags().Bool("fetch", false, "Fetch each repository from origin before analyzing")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
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

	globalPath, _ := cmd.Flags().GetString("global")
	dailyPath, _ := cmd.Flags().GetString("daily")
	analyses := result.Analyses()

	if err := writeCSV(globalPath, analyses, output.WriteGlobalCSV); err != nil {
		return err
	}
	if err := writeCSV(dailyPath, analyses, output.WriteDailyCSV); err != nil {
		return err
	}

	formatter, err := output.NewFormatter(output.FormatText, "", cfg.Output.Color)
	if err != nil {
		return err
	}
	formatter.Success("Wrote %s and %s (%d groups)", globalPath, dailyPath, len(analyses))
	for _, g := range result.Failed() {
		formatter.Warning("group %s skipped: %v", g.Group, g.Err)
	}
	return nil
}

func writeCSV(path string, analyses []*activity.Analysis, write func(w io.Writer, analyses []*activity.Analysis) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f, analyses); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
