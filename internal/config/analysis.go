package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prash-dwivedi/crater.report/internal/units"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
// This is the single source of truth for all default analysis values.
const DefaultConfigPath = "config/analysis.defaults.json"

// AnalysisConfig represents the root configuration for crater analysis
// parameters. The schema matches the /api/params endpoint so the same JSON
// can be used for both startup configuration and runtime inspection.
//
// All fields are pointers so a partial config file only overrides what it
// names; the Get* methods supply defaults for everything else.
type AnalysisConfig struct {
	// Surface stage params
	SurfaceBins *int `json:"surface_bins,omitempty"`
	PileupCount *int `json:"pileup_count,omitempty"`

	// Axis stage params
	RimTolerance    *float64 `json:"rim_tolerance,omitempty"`
	MinorAxisWindow *int     `json:"minor_axis_window,omitempty"`

	// Ratio stage params
	ProjectileDiameter *float64 `json:"projectile_diameter,omitempty"`
	LengthScale        *float64 `json:"length_scale,omitempty"`

	// Runner params
	WatchInterval *string `json:"watch_interval,omitempty"` // duration string like "5s"
	StatsInterval *string `json:"stats_interval,omitempty"` // duration string like "60s"
}

// EmptyAnalysisConfig returns an AnalysisConfig with all fields set to nil.
// Use LoadAnalysisConfig to load actual values from a file.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size. Fields omitted from the JSON file retain their default
// values, so partial configs are safe.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical analysis defaults from
// DefaultConfigPath. It searches for the file in the current directory and
// common parent directories. Panics if the file cannot be loaded, intended
// for test setup.
func MustLoadDefaultConfig() *AnalysisConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadAnalysisConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *AnalysisConfig) Validate() error {
	if c.SurfaceBins != nil && *c.SurfaceBins < 2 {
		return fmt.Errorf("surface_bins must be at least 2, got %d", *c.SurfaceBins)
	}

	if c.PileupCount != nil && *c.PileupCount < 1 {
		return fmt.Errorf("pileup_count must be at least 1, got %d", *c.PileupCount)
	}

	if c.RimTolerance != nil && *c.RimTolerance <= 0 {
		return fmt.Errorf("rim_tolerance must be positive, got %f", *c.RimTolerance)
	}

	// The minor axis averages distances[1:window], so the window must cover
	// at least the second-largest distance.
	if c.MinorAxisWindow != nil && *c.MinorAxisWindow < 2 {
		return fmt.Errorf("minor_axis_window must be at least 2, got %d", *c.MinorAxisWindow)
	}

	if c.ProjectileDiameter != nil && *c.ProjectileDiameter <= 0 {
		return fmt.Errorf("projectile_diameter must be positive, got %f", *c.ProjectileDiameter)
	}

	if c.LengthScale != nil && *c.LengthScale <= 0 {
		return fmt.Errorf("length_scale must be positive, got %f", *c.LengthScale)
	}

	if c.WatchInterval != nil && *c.WatchInterval != "" {
		if _, err := time.ParseDuration(*c.WatchInterval); err != nil {
			return fmt.Errorf("invalid watch_interval '%s': %w", *c.WatchInterval, err)
		}
	}

	if c.StatsInterval != nil && *c.StatsInterval != "" {
		if _, err := time.ParseDuration(*c.StatsInterval); err != nil {
			return fmt.Errorf("invalid stats_interval '%s': %w", *c.StatsInterval, err)
		}
	}

	return nil
}

// GetSurfaceBins returns the surface_bins value or the default.
func (c *AnalysisConfig) GetSurfaceBins() int {
	if c.SurfaceBins == nil {
		return 100
	}
	return *c.SurfaceBins
}

// GetPileupCount returns the pileup_count value or the default.
func (c *AnalysisConfig) GetPileupCount() int {
	if c.PileupCount == nil {
		return 7
	}
	return *c.PileupCount
}

// GetRimTolerance returns the rim_tolerance value or the default.
func (c *AnalysisConfig) GetRimTolerance() float64 {
	if c.RimTolerance == nil {
		return 3.0
	}
	return *c.RimTolerance
}

// GetMinorAxisWindow returns the minor_axis_window value or the default.
func (c *AnalysisConfig) GetMinorAxisWindow() int {
	if c.MinorAxisWindow == nil {
		return 10
	}
	return *c.MinorAxisWindow
}

// GetProjectileDiameter returns the projectile_diameter value or the default.
func (c *AnalysisConfig) GetProjectileDiameter() float64 {
	if c.ProjectileDiameter == nil {
		return 100.0
	}
	return *c.ProjectileDiameter
}

// GetLengthScale returns the length_scale value or the default
// (angstroms to nanometers).
func (c *AnalysisConfig) GetLengthScale() float64 {
	if c.LengthScale == nil {
		return 1 / units.AngstromsPerNanometer
	}
	return *c.LengthScale
}

// GetWatchInterval parses and returns the WatchInterval as a time.Duration.
func (c *AnalysisConfig) GetWatchInterval() time.Duration {
	if c.WatchInterval == nil || *c.WatchInterval == "" {
		return 5 * time.Second // default
	}
	d, err := time.ParseDuration(*c.WatchInterval)
	if err != nil {
		return 5 * time.Second // default on parse error
	}
	return d
}

// GetStatsInterval parses and returns the StatsInterval as a time.Duration.
func (c *AnalysisConfig) GetStatsInterval() time.Duration {
	if c.StatsInterval == nil || *c.StatsInterval == "" {
		return 60 * time.Second // default
	}
	d, err := time.ParseDuration(*c.StatsInterval)
	if err != nil {
		return 60 * time.Second // default on parse error
	}
	return d
}
