// Package metrics combines the cycle table, the start/end readings and the
// zone attribution into the per-cycle engineering and billing figures.
package metrics

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/harbour-data/dredge.report/internal/attribution"
	"github.com/harbour-data/dredge.report/internal/cycle"
	"github.com/harbour-data/dredge.report/internal/extract"
	"github.com/harbour-data/dredge.report/internal/geo"
	"github.com/harbour-data/dredge.report/internal/telemetry"
)

// Dredge-side classification results.
const (
	SideBB      = "bb"
	SideSB      = "sb"
	SideBoth    = "both"
	SideUnknown = "unknown"
)

// Params holds the density and tolerance configuration of one pass.
type Params struct {
	SolidsDensity    float64 // t/m3
	WaterDensity     float64 // t/m3
	InSituDensity    float64 // t/m3; 0 disables the bottom-volume estimate
	AMOBDensity      float64 // t/m3 fallback when a sample has no zone minimum
	SideActivityBand float64 // readings at or below this magnitude are noise
}

// CycleMetrics is the derived output record of one cycle. Underivable
// figures are nil (missing readings, zero volume, equal densities); they are
// never an error. Incomplete cycles carry whatever could be computed but are
// flagged so summary consumers can exclude them.
type CycleMetrics struct {
	Cycle    cycle.Cycle `json:"cycle"`
	Complete bool        `json:"complete"`

	StartDisplacement *float64 `json:"start_displacement"`
	EndDisplacement   *float64 `json:"end_displacement"`
	StartVolume       *float64 `json:"start_volume"`
	EndVolume         *float64 `json:"end_volume"`

	NetDisplacement *float64 `json:"net_displacement"`
	NetVolume       *float64 `json:"net_volume"`
	CargoDensity    *float64 `json:"cargo_density"`
	SolidsFraction  *float64 `json:"solids_fraction"`
	SolidsVolume    *float64 `json:"solids_volume"`
	SolidsMass      *float64 `json:"solids_mass"`
	BottomVolume    *float64 `json:"bottom_volume,omitempty"`

	EmptyRunDuration  *time.Duration `json:"empty_run_duration,omitempty"`
	DredgeDuration    *time.Duration `json:"dredge_duration,omitempty"`
	LoadedRunDuration *time.Duration `json:"loaded_run_duration,omitempty"`
	DischargeDuration *time.Duration `json:"discharge_duration,omitempty"`
	TotalDuration     *time.Duration `json:"total_duration,omitempty"`

	EmptyRunKm  float64 `json:"empty_run_km"`
	DredgeKm    float64 `json:"dredge_km"`
	LoadedRunKm float64 `json:"loaded_run_km"`
	DischargeKm float64 `json:"discharge_km"`

	DredgeSide string  `json:"dredge_side"`
	Zone       *string `json:"zone,omitempty"`

	AMOBDuration time.Duration `json:"amob_duration"`

	MeanMixtureDensityBB *float64 `json:"mean_mixture_density_bb,omitempty"`
	MeanMixtureDensitySB *float64 `json:"mean_mixture_density_sb,omitempty"`
}

// Aggregate computes the metrics record of every detected cycle. The attrs
// slice must be aligned with samples (as produced by attribution.Attribute);
// values holds the extraction result per cycle number.
func Aggregate(samples []telemetry.Sample, attrs []attribution.Attribution,
	cycles []cycle.Cycle, values map[int]extract.Values, p Params) []CycleMetrics {

	out := make([]CycleMetrics, 0, len(cycles))
	for _, c := range cycles {
		out = append(out, aggregateOne(samples, attrs, c, values[c.Number], p))
	}
	return out
}

func aggregateOne(samples []telemetry.Sample, attrs []attribution.Attribution,
	c cycle.Cycle, v extract.Values, p Params) CycleMetrics {

	m := CycleMetrics{
		Cycle:             c,
		Complete:          c.Complete(),
		StartDisplacement: v.DisplacementStart,
		EndDisplacement:   v.DisplacementEnd,
		StartVolume:       v.VolumeStart,
		EndVolume:         v.VolumeEnd,
		DredgeSide:        SideUnknown,
	}

	m.NetDisplacement = delta(v.DisplacementEnd, v.DisplacementStart)
	m.NetVolume = delta(v.VolumeEnd, v.VolumeStart)
	deriveSolids(&m, p)

	m.EmptyRunDuration = span(c.EmptyRunStart, c.DredgeStart)
	m.DredgeDuration = span(c.DredgeStart, c.LoadedRunStart)
	m.LoadedRunDuration = span(c.LoadedRunStart, c.DischargeStart)
	m.DischargeDuration = span(c.DischargeStart, c.End)
	m.TotalDuration = span(c.EmptyRunStart, c.End)

	start, end, ok := c.Interval()
	if !ok {
		return m
	}

	inCycle := func(ts time.Time) bool {
		return !ts.Before(start) && !ts.After(end)
	}

	m.EmptyRunKm = phaseDistanceKm(samples, inCycle, func(st int) bool { return st == telemetry.StatusEmptyRun })
	m.DredgeKm = phaseDistanceKm(samples, inCycle, func(st int) bool { return st == telemetry.StatusDredging })
	m.LoadedRunKm = phaseDistanceKm(samples, inCycle, func(st int) bool { return st == telemetry.StatusLoadedRun })
	m.DischargeKm = phaseDistanceKm(samples, inCycle, telemetry.IsDischarge)

	classifySideAndZones(&m, samples, attrs, inCycle, p)
	return m
}

// deriveSolids computes the TDS chain. Each step propagates nil instead of
// faulting: zero net volume leaves the cargo density undefined, equal
// configured densities leave the solids fraction undefined.
func deriveSolids(m *CycleMetrics, p Params) {
	if m.NetDisplacement == nil || m.NetVolume == nil {
		return
	}
	if *m.NetVolume <= 0 {
		return
	}
	density := *m.NetDisplacement / *m.NetVolume
	m.CargoDensity = &density

	if p.SolidsDensity == p.WaterDensity {
		return
	}
	fraction := (density - p.WaterDensity) / (p.SolidsDensity - p.WaterDensity)
	m.SolidsFraction = &fraction

	volume := fraction * *m.NetVolume
	m.SolidsVolume = &volume
	mass := volume * p.SolidsDensity
	m.SolidsMass = &mass

	// Settled in-situ volume: how much seabed the load corresponds to at
	// the target in-situ density.
	if p.InSituDensity > p.WaterDensity {
		bottom := mass * (p.SolidsDensity - p.WaterDensity) /
			(p.SolidsDensity * (p.InSituDensity - p.WaterDensity))
		m.BottomVolume = &bottom
	}
}

func phaseDistanceKm(samples []telemetry.Sample, inCycle func(time.Time) bool, phase func(int) bool) float64 {
	var eastings, northings []float64
	for i := range samples {
		s := &samples[i]
		if !inCycle(s.Timestamp) || !phase(s.Status) {
			continue
		}
		eastings = append(eastings, s.ShipEasting)
		northings = append(northings, s.ShipNorthing)
	}
	return geo.PlanarDistanceKm(eastings, northings)
}

// classifySideAndZones walks the dredge-phase samples of the cycle once,
// accumulating side-channel activity, the duration-weighted zone vote, the
// above-threshold (AMOB) time and the mean mixture densities.
func classifySideAndZones(m *CycleMetrics, samples []telemetry.Sample,
	attrs []attribution.Attribution, inCycle func(time.Time) bool, p Params) {

	var activityBB, activitySB float64
	var densBB, densSB []float64
	zoneWeight := map[string]float64{}
	var zoneOrder []string
	var amob time.Duration

	for i := range samples {
		s := &samples[i]
		if !inCycle(s.Timestamp) || s.Status != telemetry.StatusDredging {
			continue
		}

		activityBB += sideActivity(p.SideActivityBand,
			s.MixtureVelocityBB, s.PumpSpeedBB, s.PumpPressureBB, s.PumpPowerBB)
		activitySB += sideActivity(p.SideActivityBand,
			s.MixtureVelocitySB, s.PumpSpeedSB, s.PumpPressureSB, s.PumpPowerSB)

		if !math.IsNaN(s.MixtureDensityBB) {
			densBB = append(densBB, s.MixtureDensityBB)
		}
		if !math.IsNaN(s.MixtureDensitySB) {
			densSB = append(densSB, s.MixtureDensitySB)
		}

		// Weight by the gap to the next sample; the last sample of a run
		// contributes one nominal second.
		dt := time.Second
		if i+1 < len(samples) {
			if d := samples[i+1].Timestamp.Sub(s.Timestamp); d > 0 {
				dt = d
			}
		}

		if i < len(attrs) && attrs[i].Zone != nil {
			name := *attrs[i].Zone
			if _, seen := zoneWeight[name]; !seen {
				zoneOrder = append(zoneOrder, name)
			}
			zoneWeight[name] += dt.Seconds()
		}

		threshold := p.AMOBDensity
		if i < len(attrs) && attrs[i].MinDensity != nil {
			threshold = *attrs[i].MinDensity
		}
		if peak := peakDensity(s); !math.IsNaN(peak) && peak > threshold {
			amob += dt
		}
	}

	switch {
	case activityBB > 0 && activitySB > 0:
		m.DredgeSide = SideBoth
	case activityBB > 0:
		m.DredgeSide = SideBB
	case activitySB > 0:
		m.DredgeSide = SideSB
	}

	// Majority vote, ties resolved by first appearance in the stream.
	var bestName string
	var bestWeight float64
	for _, name := range zoneOrder {
		if zoneWeight[name] > bestWeight {
			bestName, bestWeight = name, zoneWeight[name]
		}
	}
	if bestName != "" {
		m.Zone = &bestName
	}

	if len(densBB) > 0 {
		mean := stat.Mean(densBB, nil)
		m.MeanMixtureDensityBB = &mean
	}
	if len(densSB) > 0 {
		mean := stat.Mean(densSB, nil)
		m.MeanMixtureDensitySB = &mean
	}
	m.AMOBDuration = amob
}

func sideActivity(band float64, readings ...float64) float64 {
	var sum float64
	for _, v := range readings {
		if !math.IsNaN(v) && math.Abs(v) > band {
			sum += math.Abs(v)
		}
	}
	return sum
}

func peakDensity(s *telemetry.Sample) float64 {
	switch {
	case math.IsNaN(s.MixtureDensityBB):
		return s.MixtureDensitySB
	case math.IsNaN(s.MixtureDensitySB):
		return s.MixtureDensityBB
	default:
		return math.Max(s.MixtureDensityBB, s.MixtureDensitySB)
	}
}

func delta(end, start *float64) *float64 {
	if end == nil || start == nil {
		return nil
	}
	d := *end - *start
	return &d
}

func span(from, to *time.Time) *time.Duration {
	if from == nil || to == nil {
		return nil
	}
	d := to.Sub(*from)
	return &d
}
