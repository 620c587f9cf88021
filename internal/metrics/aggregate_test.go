package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harbour-data/dredge.report/internal/attribution"
	"github.com/harbour-data/dredge.report/internal/cycle"
	"github.com/harbour-data/dredge.report/internal/extract"
	"github.com/harbour-data/dredge.report/internal/telemetry"
)

var base = time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

func tsPtr(minutes int) *time.Time {
	t := at(minutes)
	return &t
}

func floatPtr(v float64) *float64 { return &v }

var defaultParams = Params{
	SolidsDensity:    2.65,
	WaterDensity:     1.025,
	AMOBDensity:      1.15,
	SideActivityBand: 0.05,
}

// nanSample returns a sample with every instrument channel NaN, the way the
// decoder leaves absent fields.
func nanSample(minutes, status int) telemetry.Sample {
	nan := math.NaN()
	return telemetry.Sample{
		Timestamp:    at(minutes),
		Status:       status,
		ShipEasting:  nan,
		ShipNorthing: nan,
		SpeedKn:      nan,

		MixtureDensityBB: nan, MixtureDensitySB: nan,
		MixtureVelocityBB: nan, MixtureVelocitySB: nan,
		PumpSpeedBB: nan, PumpSpeedSB: nan,
		PumpPressureBB: nan, PumpPressureSB: nan,
		PumpPowerBB: nan, PumpPowerSB: nan,
	}
}

var fullCycle = cycle.Cycle{
	Number:         1,
	EmptyRunStart:  tsPtr(0),
	DredgeStart:    tsPtr(2),
	LoadedRunStart: tsPtr(6),
	DischargeStart: tsPtr(8),
	End:            tsPtr(10),
}

func TestSolidsChain(t *testing.T) {
	t.Parallel()

	values := map[int]extract.Values{1: {
		DisplacementStart: floatPtr(5000),
		DisplacementEnd:   floatPtr(6400),
		VolumeStart:       floatPtr(0),
		VolumeEnd:         floatPtr(1000),
	}}

	out := Aggregate(nil, nil, []cycle.Cycle{fullCycle}, values, defaultParams)
	require.Len(t, out, 1)
	m := out[0]

	require.NotNil(t, m.NetDisplacement)
	assert.Equal(t, 1400.0, *m.NetDisplacement)
	require.NotNil(t, m.NetVolume)
	assert.Equal(t, 1000.0, *m.NetVolume)
	require.NotNil(t, m.CargoDensity)
	assert.InDelta(t, 1.4, *m.CargoDensity, 1e-9)

	// fraction = (1.4 - 1.025) / (2.65 - 1.025)
	require.NotNil(t, m.SolidsFraction)
	assert.InDelta(t, 0.2307692, *m.SolidsFraction, 1e-6)
	require.NotNil(t, m.SolidsVolume)
	assert.InDelta(t, 230.7692, *m.SolidsVolume, 1e-3)
	require.NotNil(t, m.SolidsMass)
	assert.InDelta(t, 611.538, *m.SolidsMass, 1e-2)

	assert.Nil(t, m.BottomVolume, "no in-situ density configured")
}

func TestBottomVolume(t *testing.T) {
	t.Parallel()

	params := defaultParams
	params.InSituDensity = 1.9

	values := map[int]extract.Values{1: {
		DisplacementStart: floatPtr(5000),
		DisplacementEnd:   floatPtr(6400),
		VolumeStart:       floatPtr(0),
		VolumeEnd:         floatPtr(1000),
	}}
	out := Aggregate(nil, nil, []cycle.Cycle{fullCycle}, values, params)
	require.Len(t, out, 1)

	require.NotNil(t, out[0].BottomVolume)
	// mass * (rho_s - rho_w) / (rho_s * (rho_insitu - rho_w))
	expected := *out[0].SolidsMass * (2.65 - 1.025) / (2.65 * (1.9 - 1.025))
	assert.InDelta(t, expected, *out[0].BottomVolume, 1e-9)
}

func TestSolidsChainUndefinedCases(t *testing.T) {
	t.Parallel()

	t.Run("zero net volume", func(t *testing.T) {
		t.Parallel()
		values := map[int]extract.Values{1: {
			DisplacementStart: floatPtr(5000),
			DisplacementEnd:   floatPtr(6400),
			VolumeStart:       floatPtr(1000),
			VolumeEnd:         floatPtr(1000),
		}}
		out := Aggregate(nil, nil, []cycle.Cycle{fullCycle}, values, defaultParams)
		require.Len(t, out, 1)
		assert.NotNil(t, out[0].NetVolume)
		assert.Nil(t, out[0].CargoDensity)
		assert.Nil(t, out[0].SolidsFraction)
		assert.Nil(t, out[0].SolidsMass)
	})

	t.Run("cargo density below water yields negative fraction, no fault", func(t *testing.T) {
		t.Parallel()
		// A barely loaded hopper: 10 t over 1000 m3 reads 0.01 t/m3, far
		// below sea water. The chain keeps computing, it never raises.
		values := map[int]extract.Values{1: {
			DisplacementStart: floatPtr(5000),
			DisplacementEnd:   floatPtr(5010),
			VolumeStart:       floatPtr(0),
			VolumeEnd:         floatPtr(1000),
		}}
		out := Aggregate(nil, nil, []cycle.Cycle{fullCycle}, values, defaultParams)
		require.Len(t, out, 1)
		m := out[0]

		require.NotNil(t, m.CargoDensity)
		assert.InDelta(t, 0.01, *m.CargoDensity, 1e-9)
		require.NotNil(t, m.SolidsFraction)
		assert.Negative(t, *m.SolidsFraction)
		require.NotNil(t, m.SolidsVolume)
		assert.Negative(t, *m.SolidsVolume)
		require.NotNil(t, m.SolidsMass)
		assert.Negative(t, *m.SolidsMass)
	})

	t.Run("missing readings", func(t *testing.T) {
		t.Parallel()
		values := map[int]extract.Values{1: {
			DisplacementEnd: floatPtr(6400),
		}}
		out := Aggregate(nil, nil, []cycle.Cycle{fullCycle}, values, defaultParams)
		require.Len(t, out, 1)
		assert.Nil(t, out[0].NetDisplacement)
		assert.Nil(t, out[0].CargoDensity)
	})

	t.Run("no extraction at all", func(t *testing.T) {
		t.Parallel()
		out := Aggregate(nil, nil, []cycle.Cycle{fullCycle}, nil, defaultParams)
		require.Len(t, out, 1)
		assert.Nil(t, out[0].NetDisplacement)
	})
}

func TestPhaseDurations(t *testing.T) {
	t.Parallel()

	out := Aggregate(nil, nil, []cycle.Cycle{fullCycle}, nil, defaultParams)
	require.Len(t, out, 1)
	m := out[0]

	require.NotNil(t, m.EmptyRunDuration)
	assert.Equal(t, 2*time.Minute, *m.EmptyRunDuration)
	require.NotNil(t, m.DredgeDuration)
	assert.Equal(t, 4*time.Minute, *m.DredgeDuration)
	require.NotNil(t, m.LoadedRunDuration)
	assert.Equal(t, 2*time.Minute, *m.LoadedRunDuration)
	require.NotNil(t, m.DischargeDuration)
	assert.Equal(t, 2*time.Minute, *m.DischargeDuration)
	require.NotNil(t, m.TotalDuration)
	assert.Equal(t, 10*time.Minute, *m.TotalDuration)
	assert.True(t, m.Complete)
}

func TestPhaseDurationsTruncatedCycle(t *testing.T) {
	t.Parallel()

	truncated := cycle.Cycle{Number: 2, DredgeStart: tsPtr(0), LoadedRunStart: tsPtr(5)}
	out := Aggregate(nil, nil, []cycle.Cycle{truncated}, nil, defaultParams)
	require.Len(t, out, 1)
	m := out[0]

	assert.False(t, m.Complete)
	assert.Nil(t, m.EmptyRunDuration)
	require.NotNil(t, m.DredgeDuration)
	assert.Equal(t, 5*time.Minute, *m.DredgeDuration)
	assert.Nil(t, m.TotalDuration)
}

func TestPhaseDistances(t *testing.T) {
	t.Parallel()

	samples := []telemetry.Sample{}
	// Empty run: two samples 1 km apart.
	s := nanSample(0, telemetry.StatusEmptyRun)
	s.ShipEasting, s.ShipNorthing = 456_000, 5_936_000
	samples = append(samples, s)
	s = nanSample(1, telemetry.StatusEmptyRun)
	s.ShipEasting, s.ShipNorthing = 457_000, 5_936_000
	samples = append(samples, s)
	// Dredging: 500 m.
	s = nanSample(2, telemetry.StatusDredging)
	s.ShipEasting, s.ShipNorthing = 457_000, 5_936_000
	samples = append(samples, s)
	s = nanSample(3, telemetry.StatusDredging)
	s.ShipEasting, s.ShipNorthing = 457_000, 5_936_500
	samples = append(samples, s)

	out := Aggregate(samples, nil, []cycle.Cycle{fullCycle}, nil, defaultParams)
	require.Len(t, out, 1)
	assert.InDelta(t, 1.0, out[0].EmptyRunKm, 1e-9)
	assert.InDelta(t, 0.5, out[0].DredgeKm, 1e-9)
	assert.Equal(t, 0.0, out[0].LoadedRunKm)
}

func TestDredgeSideClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		bb, sb   float64
		expected string
	}{
		{"bb only", 2.5, 0.0, SideBB},
		{"sb only", 0.0, 3.1, SideSB},
		{"both", 2.5, 3.1, SideBoth},
		{"all below tolerance", 0.04, 0.04, SideUnknown},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := nanSample(3, telemetry.StatusDredging)
			s.PumpSpeedBB = tt.bb
			s.PumpSpeedSB = tt.sb

			out := Aggregate([]telemetry.Sample{s}, nil, []cycle.Cycle{fullCycle}, nil, defaultParams)
			require.Len(t, out, 1)
			assert.Equal(t, tt.expected, out[0].DredgeSide)
		})
	}

	t.Run("non-dredging samples ignored", func(t *testing.T) {
		t.Parallel()
		s := nanSample(7, telemetry.StatusLoadedRun)
		s.PumpSpeedBB = 5
		out := Aggregate([]telemetry.Sample{s}, nil, []cycle.Cycle{fullCycle}, nil, defaultParams)
		require.Len(t, out, 1)
		assert.Equal(t, SideUnknown, out[0].DredgeSide)
	})
}

func TestMajorityZone(t *testing.T) {
	t.Parallel()

	north := "north"
	south := "south"
	samples := []telemetry.Sample{
		nanSample(2, telemetry.StatusDredging),
		nanSample(3, telemetry.StatusDredging),
		nanSample(4, telemetry.StatusDredging),
		nanSample(5, telemetry.StatusDredging),
	}
	attrs := []attribution.Attribution{
		{Zone: &north},
		{Zone: &south},
		{Zone: &north},
		{},
	}

	out := Aggregate(samples, attrs, []cycle.Cycle{fullCycle}, nil, defaultParams)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].Zone)
	assert.Equal(t, "north", *out[0].Zone)
}

func TestAMOBDuration(t *testing.T) {
	t.Parallel()

	samples := []telemetry.Sample{
		nanSample(2, telemetry.StatusDredging),
		nanSample(3, telemetry.StatusDredging),
		nanSample(4, telemetry.StatusDredging),
	}
	samples[0].MixtureDensityBB = 1.30 // above default threshold
	samples[1].MixtureDensityBB = 1.05 // below
	samples[2].MixtureDensitySB = 1.20 // above, on the other side

	out := Aggregate(samples, nil, []cycle.Cycle{fullCycle}, nil, defaultParams)
	require.Len(t, out, 1)
	// Samples 0 and 2 count; each weighted by the gap to the next sample
	// (1 minute, the last one a nominal second).
	assert.Equal(t, time.Minute+time.Second, out[0].AMOBDuration)
}

func TestAMOBUsesZoneMinimum(t *testing.T) {
	t.Parallel()

	s := nanSample(3, telemetry.StatusDredging)
	s.MixtureDensityBB = 1.20 // above default 1.15, below zone minimum

	zoneMin := 1.25
	attrs := []attribution.Attribution{{MinDensity: &zoneMin}}

	out := Aggregate([]telemetry.Sample{s}, attrs, []cycle.Cycle{fullCycle}, nil, defaultParams)
	require.Len(t, out, 1)
	assert.Equal(t, time.Duration(0), out[0].AMOBDuration)
}

func TestMeanMixtureDensity(t *testing.T) {
	t.Parallel()

	samples := []telemetry.Sample{
		nanSample(2, telemetry.StatusDredging),
		nanSample(3, telemetry.StatusDredging),
	}
	samples[0].MixtureDensityBB = 1.2
	samples[1].MixtureDensityBB = 1.4

	out := Aggregate(samples, nil, []cycle.Cycle{fullCycle}, nil, defaultParams)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].MeanMixtureDensityBB)
	assert.InDelta(t, 1.3, *out[0].MeanMixtureDensityBB, 1e-9)
	assert.Nil(t, out[0].MeanMixtureDensitySB)
}
