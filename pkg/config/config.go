// Package config loads groupstat configuration from TOML, YAML, or JSON
// files, mirroring the layout instructors maintain alongside their course
// material.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for groupstat.
type Config struct {
	// Groups holds identity mapping and exclusion settings.
	Groups GroupsConfig `koanf:"groups" json:"groups" toml:"groups"`

	// Window bounds the daily statistics period.
	Window WindowConfig `koanf:"window" json:"window" toml:"window"`

	// Thresholds color the summary table by line volume.
	Thresholds ThresholdConfig `koanf:"thresholds" json:"thresholds" toml:"thresholds"`

	// Output settings.
	Output OutputConfig `koanf:"output" json:"output" toml:"output"`
}

// GroupsConfig maps raw author names to canonical members and lists
// identities dropped from every aggregate.
type GroupsConfig struct {
	// AliasMappingByGroup maps a group label to alias -> canonical name.
	// The "global" key is the fallback table for every group.
	AliasMappingByGroup map[string]map[string]string `koanf:"alias_mapping_by_group" json:"alias_mapping_by_group" toml:"alias_mapping_by_group"`

	// ExcludedMembers are canonical names dropped in every group
	// (typically instructor or CI accounts).
	ExcludedMembers []string `koanf:"excluded_members" json:"excluded_members" toml:"excluded_members"`

	// ExcludedMembersByGroup drops canonical names in specific groups only.
	ExcludedMembersByGroup map[string][]string `koanf:"excluded_members_by_group" json:"excluded_members_by_group" toml:"excluded_members_by_group"`
}

// WindowConfig bounds the daily-series window.
type WindowConfig struct {
	// ProjectStartDate is the first day of the monitored period
	// (YYYY-MM-DD). Required.
	ProjectStartDate string `koanf:"project_start_date" json:"project_start_date" toml:"project_start_date"`

	// AnalysisDays extends the window past the target date so activity
	// after a deadline stays visible.
	AnalysisDays int `koanf:"analysis_days" json:"analysis_days" toml:"analysis_days"`

	// Timezone is the IANA zone used for day bucketing. Empty means the
	// machine's local zone.
	Timezone string `koanf:"timezone" json:"timezone" toml:"timezone"`
}

// ThresholdConfig defines line-volume thresholds for the summary table.
type ThresholdConfig struct {
	Low    int `koanf:"low" json:"low" toml:"low"`
	Medium int `koanf:"medium" json:"medium" toml:"medium"`
	High   int `koanf:"high" json:"high" toml:"high"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" json:"format" toml:"format"` // text, json, markdown, toon
	Color  bool   `koanf:"color" json:"color" toml:"color"`
	TopN   int    `koanf:"top_n" json:"top_n" toml:"top_n"` // members per chart
}

// DefaultConfig returns a config with sensible defaults. The project start
// date has no default and must come from the file or a flag.
func DefaultConfig() *Config {
	return &Config{
		Groups: GroupsConfig{
			AliasMappingByGroup:    map[string]map[string]string{},
			ExcludedMembersByGroup: map[string][]string{},
		},
		Window: WindowConfig{
			AnalysisDays: 10,
		},
		Thresholds: ThresholdConfig{
			Low:    10,
			Medium: 30,
			High:   100,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
			TopN:   4,
		},
	}
}

// Load loads configuration from a file, merging it over defaults and
// validating the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := validateRaw(k.Raw()); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault tries standard config locations and falls back to defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"groupstat.toml",
		"groupstat.yaml",
		"groupstat.yml",
		"groupstat.json",
		".groupstat.toml",
		".groupstat.yaml",
		".groupstat.yml",
		".groupstat.json",
	}

	for _, name := range configNames {
		if _, err := os.Stat(name); err == nil {
			cfg, err := Load(name)
			if err == nil {
				return cfg
			}
		}
	}
	return DefaultConfig()
}

// ParseDate parses a YYYY-MM-DD date string in the given zone.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// Location resolves the configured timezone, defaulting to local.
func (c *Config) Location() (*time.Location, error) {
	if c.Window.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Window.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Window.Timezone, err)
	}
	return loc, nil
}

// StartDate parses the configured project start date. An empty value is an
// error: the monitored period has no sensible default.
func (c *Config) StartDate(loc *time.Location) (time.Time, error) {
	if c.Window.ProjectStartDate == "" {
		return time.Time{}, fmt.Errorf("project_start_date is required (config or --start-date)")
	}
	return ParseDate(c.Window.ProjectStartDate, loc)
}
