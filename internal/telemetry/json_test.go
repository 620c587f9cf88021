package telemetry

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleJSONNullsAbsentReadings(t *testing.T) {
	t.Parallel()

	s := Sample{
		Timestamp:    time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC),
		Status:       2,
		ShipEasting:  456_789,
		ShipNorthing: 5_936_000,
		SpeedKn:      1.5,
		Displacement: 5600,
		Tide:         math.NaN(),
		CargoVolume:  math.NaN(),
	}
	s.FillLevels[0] = 4.2
	for i := 1; i < len(s.FillLevels); i++ {
		s.FillLevels[i] = math.NaN()
	}

	data, err := json.Marshal(s)
	require.NoError(t, err, "absent readings must encode as null, not fail")

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, 456_789.0, m["ship_easting"])
	assert.Nil(t, m["tide"])
	assert.Nil(t, m["cargo_volume"])
	assert.Nil(t, m["cycle_number"])

	var back Sample
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s.Timestamp, back.Timestamp)
	assert.Equal(t, 5600.0, back.Displacement)
	assert.True(t, math.IsNaN(back.Tide), "null decodes back to NaN")
	assert.Equal(t, 4.2, back.FillLevels[0])
	assert.True(t, math.IsNaN(back.FillLevels[5]))
}
