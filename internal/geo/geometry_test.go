package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointInPolygon(t *testing.T) {
	t.Parallel()

	square := []Point{
		{Lon: 4.0, Lat: 52.0},
		{Lon: 4.1, Lat: 52.0},
		{Lon: 4.1, Lat: 52.1},
		{Lon: 4.0, Lat: 52.1},
	}

	tests := []struct {
		name   string
		p      Point
		ring   []Point
		inside bool
	}{
		{"centre", Point{Lon: 4.05, Lat: 52.05}, square, true},
		{"outside east", Point{Lon: 4.2, Lat: 52.05}, square, false},
		{"outside north", Point{Lon: 4.05, Lat: 52.2}, square, false},
		{"degenerate two-point ring", Point{Lon: 4.05, Lat: 52.0}, square[:2], false},
		{"empty ring", Point{Lon: 4.05, Lat: 52.0}, nil, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.inside, PointInPolygon(tt.p, tt.ring))
		})
	}

	t.Run("explicitly closed ring behaves like open", func(t *testing.T) {
		t.Parallel()
		closed := append(append([]Point{}, square...), square[0])
		assert.True(t, PointInPolygon(Point{Lon: 4.05, Lat: 52.05}, closed))
		assert.False(t, PointInPolygon(Point{Lon: 4.2, Lat: 52.05}, closed))
	})

	t.Run("concave polygon", func(t *testing.T) {
		t.Parallel()
		// A U shape: the notch at the top centre is outside.
		u := []Point{
			{Lon: 0, Lat: 0}, {Lon: 3, Lat: 0}, {Lon: 3, Lat: 3},
			{Lon: 2, Lat: 3}, {Lon: 2, Lat: 1}, {Lon: 1, Lat: 1},
			{Lon: 1, Lat: 3}, {Lon: 0, Lat: 3},
		}
		assert.False(t, PointInPolygon(Point{Lon: 1.5, Lat: 2}, u))
		assert.True(t, PointInPolygon(Point{Lon: 0.5, Lat: 2}, u))
		assert.True(t, PointInPolygon(Point{Lon: 1.5, Lat: 0.5}, u))
	})
}

func TestPlanarDistanceKm(t *testing.T) {
	t.Parallel()

	t.Run("straight segments", func(t *testing.T) {
		t.Parallel()
		d := PlanarDistanceKm([]float64{0, 3000, 3000}, []float64{0, 0, 4000})
		assert.InDelta(t, 7.0, d, 1e-9)
	})

	t.Run("nan positions skipped without breaking the chain", func(t *testing.T) {
		t.Parallel()
		nan := math.NaN()
		d := PlanarDistanceKm([]float64{0, nan, 3000}, []float64{0, 0, 4000})
		assert.InDelta(t, 5.0, d, 1e-9)
	})

	t.Run("empty and single point", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 0.0, PlanarDistanceKm(nil, nil))
		assert.Equal(t, 0.0, PlanarDistanceKm([]float64{1}, []float64{1}))
	})
}
