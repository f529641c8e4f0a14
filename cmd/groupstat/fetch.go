package main

import (
	"github.com/spf13/cobra"

	"github.com/groupstat/groupstat/internal/output"
	"github.com/groupstat/groupstat/internal/progress"
	"github.com/groupstat/groupstat/internal/service/stats"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [folder]",
	Short: "Update every group repository from origin",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	spinner := progress.NewSpinner("Fetching group repositories...")
	svc := stats.New(stats.WithConfig(cfg))
	results, err := svc.FetchAll(cmd.Context(), getFolder(args), spinner)
	spinner.FinishSuccess()
	if err != nil {
		return err
	}

	formatter, err := output.NewFormatter(output.FormatText, "", cfg.Output.Color)
	if err != nil {
		return err
	}

	updated := 0
	for _, r := range results {
		if r.Err != nil {
			formatter.Warning("group %s: %v", r.Group, r.Err)
			continue
		}
		updated++
		if verbose {
			formatter.Info("group %s updated", r.Group)
		}
	}
	formatter.Success("Fetched %d/%d group repositories", updated, len(results))
	return nil
}
