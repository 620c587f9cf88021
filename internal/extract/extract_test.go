package extract

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harbour-data/dredge.report/internal/cycle"
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

// fullCaps marks both extraction channels present.
var fullCaps = telemetry.Capabilities{Displacement: true, CargoVolume: true}

// testCycle covers minutes 0-8: empty run 0, dredge 2, loaded run 4,
// discharge 6, end 8.
var testCycle = cycle.Cycle{
	Number:         1,
	EmptyRunStart:  tsPtr(0),
	DredgeStart:    tsPtr(2),
	LoadedRunStart: tsPtr(4),
	DischargeStart: tsPtr(6),
	End:            tsPtr(8),
}

// rampSamples returns minute-spaced samples whose displacement rises by 100
// per minute from 5000 and whose volume rises by 10 per minute from 0.
func rampSamples(n int) []telemetry.Sample {
	samples := make([]telemetry.Sample, n)
	for i := range samples {
		samples[i] = telemetry.Sample{
			Timestamp:    at(i),
			Displacement: 5000 + float64(i)*100,
			CargoVolume:  float64(i) * 10,
		}
	}
	return samples
}

func traceContains(trace []string, substr string) bool {
	for _, entry := range trace {
		if strings.Contains(entry, substr) {
			return true
		}
	}
	return false
}

func TestParseRule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Rule
		wantErr bool
	}{
		{"window-min@dredge_start", Rule{Kind: RuleWindowMin, Transition: TransitionDredgeStart}, false},
		{"window-max@cycle_end", Rule{Kind: RuleWindowMax, Transition: TransitionCycleEnd}, false},
		{"first-after@loaded_run_start", Rule{Kind: RuleFirstAfter, Transition: TransitionLoadedRunStart}, false},
		{"zero", Rule{Kind: RuleZero}, false},
		{"zero@dredge_start", Rule{}, true},
		{"window-min", Rule{}, true},
		{"window-min@nonsense", Rule{}, true},
		{"median@dredge_start", Rule{}, true},
		{"", Rule{}, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseRule(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	t.Run("valid map", func(t *testing.T) {
		t.Parallel()
		s, err := ParseStrategy(map[string]string{
			KeyDisplacementStart: "window-min@dredge_start",
			KeyVolumeEnd:         "zero",
		})
		require.NoError(t, err)
		assert.Len(t, s, 2)
	})

	t.Run("unknown key fails loudly", func(t *testing.T) {
		t.Parallel()
		_, err := ParseStrategy(map[string]string{"displacment_start": "zero"})
		assert.Error(t, err)
	})

	t.Run("empty rule string means default", func(t *testing.T) {
		t.Parallel()
		s, err := ParseStrategy(map[string]string{KeyVolumeStart: ""})
		require.NoError(t, err)
		assert.Empty(t, s)
	})

	t.Run("nil map is fine", func(t *testing.T) {
		t.Parallel()
		s, err := ParseStrategy(nil)
		require.NoError(t, err)
		assert.Empty(t, s)
	})
}

func TestExtractDefault(t *testing.T) {
	t.Parallel()

	v := Extract(rampSamples(10), testCycle, Strategy{}, fullCaps)

	// Default: value at the dredge -> loaded-run transition (minute 4).
	require.NotNil(t, v.DisplacementStart)
	assert.Equal(t, 5400.0, *v.DisplacementStart)
	require.NotNil(t, v.VolumeStart)
	assert.Equal(t, 40.0, *v.VolumeStart)
	assert.True(t, traceContains(v.Trace, "no rule configured"))
}

func TestExtractWindowRules(t *testing.T) {
	t.Parallel()

	strat := Strategy{
		KeyDisplacementStart: {Kind: RuleWindowMin, Transition: TransitionDredgeStart},
		KeyDisplacementEnd:   {Kind: RuleWindowMax, Transition: TransitionDischargeStart},
	}
	v := Extract(rampSamples(10), testCycle, strat, fullCaps)

	// Window-min around minute 2 covers minutes 1-3 -> 5100.
	require.NotNil(t, v.DisplacementStart)
	assert.Equal(t, 5100.0, *v.DisplacementStart)
	// Window-max around minute 6 covers minutes 5-7 -> 5700.
	require.NotNil(t, v.DisplacementEnd)
	assert.Equal(t, 5700.0, *v.DisplacementEnd)
	assert.True(t, traceContains(v.Trace, "3 samples in window"))
}

func TestExtractFirstAfterAndZero(t *testing.T) {
	t.Parallel()

	strat := Strategy{
		KeyVolumeStart: {Kind: RuleZero},
		KeyVolumeEnd:   {Kind: RuleFirstAfter, Transition: TransitionDischargeStart},
	}
	v := Extract(rampSamples(10), testCycle, strat, fullCaps)

	require.NotNil(t, v.VolumeStart)
	assert.Equal(t, 0.0, *v.VolumeStart)
	// First sample strictly after minute 6 is minute 7 -> 70.
	require.NotNil(t, v.VolumeEnd)
	assert.Equal(t, 70.0, *v.VolumeEnd)
}

func TestExtractMissingTransitionFallsBack(t *testing.T) {
	t.Parallel()

	truncated := cycle.Cycle{
		Number:         1,
		DredgeStart:    tsPtr(2),
		LoadedRunStart: tsPtr(4),
	}
	strat := Strategy{
		KeyDisplacementEnd: {Kind: RuleWindowMax, Transition: TransitionCycleEnd},
	}
	v := Extract(rampSamples(10), truncated, strat, fullCaps)

	// cycle_end is missing: fall back to the default at minute 4.
	require.NotNil(t, v.DisplacementEnd)
	assert.Equal(t, 5400.0, *v.DisplacementEnd)
	assert.True(t, traceContains(v.Trace, "falling back to default"))
}

func TestExtractAbsentChannel(t *testing.T) {
	t.Parallel()

	caps := telemetry.Capabilities{Displacement: true} // no cargo volume sensor
	v := Extract(rampSamples(10), testCycle, Strategy{}, caps)

	assert.NotNil(t, v.DisplacementStart)
	assert.Nil(t, v.VolumeStart)
	assert.Nil(t, v.VolumeEnd)
	assert.True(t, traceContains(v.Trace, "channel absent"))
}

func TestExtractNaNReadings(t *testing.T) {
	t.Parallel()

	samples := rampSamples(10)
	// Knock out the window around the dredge start.
	for i := 1; i <= 3; i++ {
		samples[i].Displacement = math.NaN()
	}
	strat := Strategy{
		KeyDisplacementStart: {Kind: RuleWindowMin, Transition: TransitionDredgeStart},
	}
	v := Extract(samples, testCycle, strat, fullCaps)

	assert.Nil(t, v.DisplacementStart)
	assert.True(t, traceContains(v.Trace, "empty window"))
}

func TestExtractDefaultMissingTransition(t *testing.T) {
	t.Parallel()

	bare := cycle.Cycle{Number: 1, EmptyRunStart: tsPtr(0)}
	v := Extract(rampSamples(10), bare, Strategy{}, fullCaps)

	assert.Nil(t, v.DisplacementStart)
	assert.True(t, traceContains(v.Trace, "default unavailable"))
}
