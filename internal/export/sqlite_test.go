package export

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harbour-data/dredge.report/internal/attribution"
	"github.com/harbour-data/dredge.report/internal/cycle"
	"github.com/harbour-data/dredge.report/internal/geo"
	"github.com/harbour-data/dredge.report/internal/metrics"
	"github.com/harbour-data/dredge.report/internal/telemetry"
	"github.com/harbour-data/dredge.report/internal/zones"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "export.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func countRows(t *testing.T, db *DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestOpenCreatesSchema(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	for _, table := range []string{"samples", "cycles", "cycle_metrics", "zones"} {
		assert.Equal(t, 0, countRows(t, db, table))
	}
}

func TestWriteSamples(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	num := 3
	zone := "Basin"
	base := time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC)

	samples := []telemetry.Sample{
		{
			Timestamp: base, Status: 2, CycleNumber: &num,
			ShipEasting: 456_789, ShipNorthing: 5_936_000,
			SpeedKn: 1.5, Displacement: 5200, CargoVolume: 100,
			MixtureDensityBB: 1.3, MixtureDensitySB: math.NaN(),
			AbsHeadDepthBB: -11, AbsHeadDepthSB: math.NaN(),
		},
		{
			Timestamp: base.Add(time.Second), Status: 1,
			ShipEasting: math.NaN(), ShipNorthing: math.NaN(),
			SpeedKn: 8, Displacement: math.NaN(), CargoVolume: math.NaN(),
			MixtureDensityBB: math.NaN(), MixtureDensitySB: math.NaN(),
			AbsHeadDepthBB: math.NaN(), AbsHeadDepthSB: math.NaN(),
		},
	}
	attrs := []attribution.Attribution{{Zone: &zone}, {}}

	require.NoError(t, db.WriteSamples(samples, attrs))
	assert.Equal(t, 2, countRows(t, db, "samples"))

	var gotZone *string
	var gotDensitySB *float64
	require.NoError(t, db.QueryRow(
		"SELECT zone, mixture_density_sb FROM samples WHERE status = 2").Scan(&gotZone, &gotDensitySB))
	require.NotNil(t, gotZone)
	assert.Equal(t, "Basin", *gotZone)
	assert.Nil(t, gotDensitySB, "NaN readings export as NULL")

	var nullCount int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM samples WHERE cycle_number IS NULL").Scan(&nullCount))
	assert.Equal(t, 1, nullCount)
}

func TestWriteCycles(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	base := time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC)
	end := base.Add(time.Hour)
	net := 1400.0
	total := time.Hour

	results := []metrics.CycleMetrics{
		{
			Cycle:           cycle.Cycle{Number: 1, EmptyRunStart: &base, End: &end},
			Complete:        true,
			NetDisplacement: &net,
			TotalDuration:   &total,
			DredgeSide:      metrics.SideBB,
			DredgeKm:        0.8,
		},
		{
			Cycle:      cycle.Cycle{Number: 2, EmptyRunStart: &base},
			Complete:   false,
			DredgeSide: metrics.SideUnknown,
		},
	}

	require.NoError(t, db.WriteCycles(results))
	assert.Equal(t, 2, countRows(t, db, "cycles"))
	assert.Equal(t, 2, countRows(t, db, "cycle_metrics"))

	var totalSeconds float64
	var side string
	require.NoError(t, db.QueryRow(
		"SELECT total_s, dredge_side FROM cycle_metrics WHERE number = 1").Scan(&totalSeconds, &side))
	assert.Equal(t, 3600.0, totalSeconds)
	assert.Equal(t, "bb", side)

	var endStr *string
	require.NoError(t, db.QueryRow(
		"SELECT cycle_end FROM cycles WHERE number = 2").Scan(&endStr))
	assert.Nil(t, endStr, "missing markers export as NULL")
}

func TestWriteZones(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	depth := -12.5
	zs := []zones.Zone{{
		Name: "Area 1",
		Ring: []geo.Point{
			{Lon: 8.3, Lat: 53.5}, {Lon: 8.31, Lat: 53.5}, {Lon: 8.305, Lat: 53.51},
		},
		TargetDepth: &depth,
	}}

	require.NoError(t, db.WriteZones(zs))
	assert.Equal(t, 3, countRows(t, db, "zones"))

	var gotDepth float64
	require.NoError(t, db.QueryRow(
		"SELECT target_depth FROM zones WHERE name = 'Area 1' AND vertex = 0").Scan(&gotDepth))
	assert.Equal(t, -12.5, gotDepth)
}
