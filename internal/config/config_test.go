package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harbour-data/dredge.report/internal/units"
)

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := EmptyPassConfig()
	assert.Equal(t, 2.65, cfg.GetSolidsDensity())
	assert.Equal(t, 1.025, cfg.GetWaterDensity())
	assert.Equal(t, 0.0, cfg.GetInSituDensity())
	assert.Equal(t, 1.15, cfg.GetAMOBDensity())
	assert.Equal(t, 0.0, cfg.GetManualZoneDepth())
	assert.Equal(t, 0.05, cfg.GetSideActivityBand())
	assert.Equal(t, 0.5, cfg.GetMinRunningSpeedKn())
	assert.Equal(t, 1, cfg.GetCycleStartNumber())
	assert.Equal(t, 2*time.Minute, cfg.GetTrackGap())
	assert.Equal(t, "UTC", cfg.GetDisplayTimezone())
	assert.Equal(t, units.DurationClock, cfg.GetDurationFormat())
	assert.Equal(t, "", cfg.GetExtraction("displacement_start"))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     PassConfig
		wantErr bool
	}{
		{"empty config is valid", PassConfig{}, false},
		{"solids density in range", PassConfig{SolidsDensity: floatPtr(2.65)}, false},
		{"solids density too low", PassConfig{SolidsDensity: floatPtr(1.5)}, true},
		{"solids density too high", PassConfig{SolidsDensity: floatPtr(3.5)}, true},
		{"water density out of range", PassConfig{WaterDensity: floatPtr(1.2)}, true},
		{"running speed negative", PassConfig{MinRunningSpeedKn: floatPtr(-0.1)}, true},
		{"running speed too high", PassConfig{MinRunningSpeedKn: floatPtr(3)}, true},
		{"bad track gap", PassConfig{TrackGap: strPtr("abc")}, true},
		{"good track gap", PassConfig{TrackGap: strPtr("90s")}, false},
		{"bad timezone", PassConfig{DisplayTimezone: strPtr("Nowhere/Nope")}, true},
		{"bad duration format", PassConfig{DurationFormat: strPtr("hh:mm")}, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadPassConfig(t *testing.T) {
	t.Parallel()

	t.Run("loads a partial config and keeps defaults", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "pass.json")
		doc := `{"solids_density": 2.4, "track_gap": "5m", "extraction": {"displacement_start": "window-min@dredge_start"}}`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

		cfg, err := LoadPassConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 2.4, cfg.GetSolidsDensity())
		assert.Equal(t, 5*time.Minute, cfg.GetTrackGap())
		assert.Equal(t, 1.025, cfg.GetWaterDensity())
		assert.Equal(t, "window-min@dredge_start", cfg.GetExtraction("displacement_start"))
	})

	t.Run("rejects non-json extension", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "pass.yaml")
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
		_, err := LoadPassConfig(path)
		assert.Error(t, err)
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "pass.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"water_density": 2.0}`), 0o644))
		_, err := LoadPassConfig(path)
		assert.Error(t, err)
	})

	t.Run("rejects missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadPassConfig(filepath.Join(t.TempDir(), "missing.json"))
		assert.Error(t, err)
	})
}
