// Package config defines the per-pass configuration for the dredge telemetry
// pipeline. A pass is one wholesale computation over one uploaded file set;
// the same config document is accepted at startup (JSON file) and at runtime
// (API body), so all fields are pointers and omitted fields fall back to the
// documented defaults via the Get* accessors.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/harbour-data/dredge.report/internal/units"
)

// PassConfig represents the operator-supplied configuration for one
// computation pass. Fields omitted from the JSON document retain their
// defaults, so partial configs are safe.
type PassConfig struct {
	// Density params (t/m3)
	SolidsDensity    *float64 `json:"solids_density,omitempty"`
	WaterDensity     *float64 `json:"water_density,omitempty"`
	InSituDensity    *float64 `json:"in_situ_density,omitempty"`
	AMOBDensity      *float64 `json:"amob_density,omitempty"`
	ManualZoneDepth  *float64 `json:"manual_zone_depth,omitempty"`
	SideActivityBand *float64 `json:"side_activity_band,omitempty"`

	// Cycle detection params
	MinRunningSpeedKn *float64 `json:"min_running_speed_kn,omitempty"`
	CycleStartNumber  *int     `json:"cycle_start_number,omitempty"`
	TrackGap          *string  `json:"track_gap,omitempty"` // duration string like "2m"

	// Start/end extraction rules, keyed "displacement_start",
	// "displacement_end", "volume_start", "volume_end". Values are rule
	// strings like "window-min@dredge_start" or "zero".
	Extraction map[string]string `json:"extraction,omitempty"`

	// Display params
	DisplayTimezone *string `json:"display_timezone,omitempty"`
	DurationFormat  *string `json:"duration_format,omitempty"`
}

// EmptyPassConfig returns a PassConfig with all fields unset. The Get*
// accessors supply defaults for anything left nil.
func EmptyPassConfig() *PassConfig {
	return &PassConfig{}
}

// LoadPassConfig loads a PassConfig from a JSON file. The file is validated
// to have a .json extension and to be under the max file size.
func LoadPassConfig(path string) (*PassConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

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

	cfg := EmptyPassConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are within their documented
// operating ranges.
func (c *PassConfig) Validate() error {
	if c.SolidsDensity != nil {
		if *c.SolidsDensity < 2.0 || *c.SolidsDensity > 3.0 {
			return fmt.Errorf("solids_density must be between 2.0 and 3.0 t/m3, got %f", *c.SolidsDensity)
		}
	}
	if c.WaterDensity != nil {
		if *c.WaterDensity < 1.0 || *c.WaterDensity > 1.1 {
			return fmt.Errorf("water_density must be between 1.0 and 1.1 t/m3, got %f", *c.WaterDensity)
		}
	}
	if c.MinRunningSpeedKn != nil {
		if *c.MinRunningSpeedKn < 0 || *c.MinRunningSpeedKn > 2 {
			return fmt.Errorf("min_running_speed_kn must be between 0 and 2 knots, got %f", *c.MinRunningSpeedKn)
		}
	}
	if c.TrackGap != nil && *c.TrackGap != "" {
		if _, err := time.ParseDuration(*c.TrackGap); err != nil {
			return fmt.Errorf("invalid track_gap '%s': %w", *c.TrackGap, err)
		}
	}
	if c.DisplayTimezone != nil && !units.IsTimezoneValid(*c.DisplayTimezone) {
		return fmt.Errorf("invalid display_timezone %q", *c.DisplayTimezone)
	}
	if c.DurationFormat != nil && !units.IsValidDurationFormat(*c.DurationFormat) {
		return fmt.Errorf("duration_format must be one of %s, got %q",
			units.GetValidDurationFormatsString(), *c.DurationFormat)
	}
	return nil
}

// GetSolidsDensity returns the solids density or the default (quartz sand).
func (c *PassConfig) GetSolidsDensity() float64 {
	if c.SolidsDensity == nil {
		return 2.65
	}
	return *c.SolidsDensity
}

// GetWaterDensity returns the water density or the default (sea water).
func (c *PassConfig) GetWaterDensity() float64 {
	if c.WaterDensity == nil {
		return 1.025
	}
	return *c.WaterDensity
}

// GetInSituDensity returns the target in-situ density used for the settled
// bottom-volume estimate, or 0 when unset (estimate skipped).
func (c *PassConfig) GetInSituDensity() float64 {
	if c.InSituDensity == nil {
		return 0
	}
	return *c.InSituDensity
}

// GetAMOBDensity returns the mixture-density threshold for the AMOB counter
// or the default.
func (c *PassConfig) GetAMOBDensity() float64 {
	if c.AMOBDensity == nil {
		return 1.15
	}
	return *c.AMOBDensity
}

// GetManualZoneDepth returns the fallback target depth applied to samples
// outside any zone, or 0 when unset.
func (c *PassConfig) GetManualZoneDepth() float64 {
	if c.ManualZoneDepth == nil {
		return 0
	}
	return *c.ManualZoneDepth
}

// GetSideActivityBand returns the magnitude below which a side-specific
// channel reading counts as noise for the dredge-side classification.
func (c *PassConfig) GetSideActivityBand() float64 {
	if c.SideActivityBand == nil {
		return 0.05
	}
	return *c.SideActivityBand
}

// GetMinRunningSpeedKn returns the minimum speed over ground for a status-1
// sample to open a new cycle.
func (c *PassConfig) GetMinRunningSpeedKn() float64 {
	if c.MinRunningSpeedKn == nil {
		return 0.5
	}
	return *c.MinRunningSpeedKn
}

// GetCycleStartNumber returns the operator-configured number of the first
// detected cycle.
func (c *PassConfig) GetCycleStartNumber() int {
	if c.CycleStartNumber == nil {
		return 1
	}
	return *c.CycleStartNumber
}

// GetTrackGap parses and returns the plot-segment gap threshold.
func (c *PassConfig) GetTrackGap() time.Duration {
	if c.TrackGap == nil || *c.TrackGap == "" {
		return 2 * time.Minute
	}
	d, err := time.ParseDuration(*c.TrackGap)
	if err != nil {
		return 2 * time.Minute
	}
	return d
}

// GetDisplayTimezone returns the display timezone or UTC.
func (c *PassConfig) GetDisplayTimezone() string {
	if c.DisplayTimezone == nil || *c.DisplayTimezone == "" {
		return "UTC"
	}
	return *c.DisplayTimezone
}

// GetDurationFormat returns the duration display format or the clock default.
func (c *PassConfig) GetDurationFormat() string {
	if c.DurationFormat == nil || *c.DurationFormat == "" {
		return units.DurationClock
	}
	return *c.DurationFormat
}

// GetExtraction returns the extraction rule string for the given key, or ""
// when the operator supplied none (the engine then uses its default rule).
func (c *PassConfig) GetExtraction(key string) string {
	if c.Extraction == nil {
		return ""
	}
	return c.Extraction[key]
}
