package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/groupstat/groupstat/pkg/config"
)

// getFolder returns the groups folder from args, defaulting to ".".
func getFolder(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

// getFormat returns the effective format: flag first, then config.
func getFormat(cmd *cobra.Command, cfg *config.Config) string {
	if format, _ := cmd.Flags().GetString("format"); format != "" {
		return format
	}
	return cfg.Output.Format
}

// getOutputFile returns the output file path from the command.
func getOutputFile(cmd *cobra.Command) string {
	outputFile, _ := cmd.Flags().GetString("output")
	return outputFile
}

// getDateFlag parses an optional YYYY-MM-DD flag.
func getDateFlag(cmd *cobra.Command, name string, loc *time.Location) (time.Time, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" {
		return time.Time{}, nil
	}
	d, err := config.ParseDate(s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return d, nil
}

// validateDays validates the --days flag and returns an error if invalid.
func validateDays(days int) error {
	if days < 0 {
		return fmt.Errorf("--days must not be negative (got %d)", days)
	}
	return nil
}
