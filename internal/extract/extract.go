package extract

import (
	"fmt"
	"math"
	"time"

	"github.com/harbour-data/dredge.report/internal/cycle"
	"github.com/harbour-data/dredge.report/internal/telemetry"
)

// windowHalf is the half-width of the extremum search window around a
// transition.
const windowHalf = time.Minute

// Values holds the resolved start/end readings for one cycle plus the audit
// trace explaining each resolution. Unresolvable entries are nil, never an
// error.
type Values struct {
	DisplacementStart *float64 `json:"displacement_start"`
	DisplacementEnd   *float64 `json:"displacement_end"`
	VolumeStart       *float64 `json:"volume_start"`
	VolumeEnd         *float64 `json:"volume_end"`
	Trace             []string `json:"trace"`
}

// Extract resolves the four start/end readings for one cycle from its
// restricted sample slice. Resolution order per entry: the configured rule
// when present and its anchor transition exists, otherwise the documented
// default (value at the dredge -> loaded-run transition). Missing channels
// and empty windows resolve to nil.
func Extract(samples []telemetry.Sample, c cycle.Cycle, strat Strategy, caps telemetry.Capabilities) Values {
	v := Values{}

	displacement := func(s *telemetry.Sample) float64 { return s.Displacement }
	volume := func(s *telemetry.Sample) float64 { return s.CargoVolume }

	v.DisplacementStart = resolve(&v, KeyDisplacementStart, samples, c, strat, caps.Displacement, displacement)
	v.DisplacementEnd = resolve(&v, KeyDisplacementEnd, samples, c, strat, caps.Displacement, displacement)
	v.VolumeStart = resolve(&v, KeyVolumeStart, samples, c, strat, caps.CargoVolume, volume)
	v.VolumeEnd = resolve(&v, KeyVolumeEnd, samples, c, strat, caps.CargoVolume, volume)
	return v
}

func resolve(v *Values, key string, samples []telemetry.Sample, c cycle.Cycle,
	strat Strategy, channelPresent bool, column func(*telemetry.Sample) float64) *float64 {

	tracef := func(format string, args ...interface{}) {
		v.Trace = append(v.Trace, fmt.Sprintf("%s: %s", key, fmt.Sprintf(format, args...)))
	}

	if !channelPresent {
		tracef("channel absent from upload -> none")
		return nil
	}

	if rule, ok := strat[key]; ok {
		if rule.Kind == RuleZero {
			tracef("rule zero -> 0")
			zero := 0.0
			return &zero
		}
		at := transitionTime(c, rule.Transition)
		if at == nil {
			tracef("rule %s@%s skipped (transition missing), falling back to default", rule.Kind, rule.Transition)
		} else {
			return applyRule(tracef, rule, *at, samples, column)
		}
	} else {
		tracef("no rule configured, using default (value at %s)", TransitionLoadedRunStart)
	}

	// Documented default: the reading at the dredge -> loaded-run
	// transition.
	at := transitionTime(c, TransitionLoadedRunStart)
	if at == nil {
		tracef("default unavailable (%s missing) -> none", TransitionLoadedRunStart)
		return nil
	}
	return valueAt(tracef, *at, samples, column)
}

func applyRule(tracef func(string, ...interface{}), rule Rule, at time.Time,
	samples []telemetry.Sample, column func(*telemetry.Sample) float64) *float64 {

	switch rule.Kind {
	case RuleWindowMin, RuleWindowMax:
		lo, hi := at.Add(-windowHalf), at.Add(windowHalf)
		best := math.NaN()
		count := 0
		for i := range samples {
			ts := samples[i].Timestamp
			if ts.Before(lo) || ts.After(hi) {
				continue
			}
			val := column(&samples[i])
			if math.IsNaN(val) {
				continue
			}
			count++
			if math.IsNaN(best) ||
				(rule.Kind == RuleWindowMin && val < best) ||
				(rule.Kind == RuleWindowMax && val > best) {
				best = val
			}
		}
		if math.IsNaN(best) {
			tracef("rule %s@%s: empty window -> none", rule.Kind, rule.Transition)
			return nil
		}
		tracef("rule %s@%s -> %.3f (%d samples in window)", rule.Kind, rule.Transition, best, count)
		return &best

	case RuleFirstAfter:
		for i := range samples {
			if !samples[i].Timestamp.After(at) {
				continue
			}
			val := column(&samples[i])
			if math.IsNaN(val) {
				tracef("rule %s@%s: first sample after transition has no reading -> none", rule.Kind, rule.Transition)
				return nil
			}
			tracef("rule %s@%s -> %.3f", rule.Kind, rule.Transition, val)
			return &val
		}
		tracef("rule %s@%s: no sample after transition -> none", rule.Kind, rule.Transition)
		return nil
	}
	return nil
}

// valueAt returns the reading of the first sample at or after the given
// instant.
func valueAt(tracef func(string, ...interface{}), at time.Time,
	samples []telemetry.Sample, column func(*telemetry.Sample) float64) *float64 {

	for i := range samples {
		if samples[i].Timestamp.Before(at) {
			continue
		}
		val := column(&samples[i])
		if math.IsNaN(val) {
			tracef("default at %s: sample has no reading -> none", at.UTC().Format(time.RFC3339))
			return nil
		}
		tracef("default at %s -> %.3f", at.UTC().Format(time.RFC3339), val)
		return &val
	}
	tracef("default at %s: no sample at or after transition -> none", at.UTC().Format(time.RFC3339))
	return nil
}
