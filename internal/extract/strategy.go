// Package extract selects the representative displacement and cargo-volume
// readings that mark the "empty" and "loaded" states of one cycle.
//
// Which sample represents a state differs per vessel and operator (sensor
// settling, overflow practice), so the selection is driven by named
// heuristics configured per quantity and edge. Every resolution step is
// recorded in a human-readable trace: operators must be able to see why a
// value was chosen.
package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/harbour-data/dredge.report/internal/cycle"
)

// RuleKind names a selection heuristic.
type RuleKind string

const (
	// RuleWindowMin / RuleWindowMax take the extremum within a +/-1 minute
	// window centred on a named transition.
	RuleWindowMin RuleKind = "window-min"
	RuleWindowMax RuleKind = "window-max"
	// RuleFirstAfter takes the first sample strictly after a named
	// transition.
	RuleFirstAfter RuleKind = "first-after"
	// RuleZero pins the value to zero (used for vessels without a usable
	// empty baseline).
	RuleZero RuleKind = "zero"
)

// Transition names a phase boundary of the cycle table.
type Transition string

const (
	TransitionEmptyRunStart  Transition = "empty_run_start"
	TransitionDredgeStart    Transition = "dredge_start"
	TransitionLoadedRunStart Transition = "loaded_run_start"
	TransitionDischargeStart Transition = "discharge_start"
	TransitionCycleEnd       Transition = "cycle_end"
)

// Rule pairs a heuristic with the transition it anchors on. RuleZero needs
// no transition.
type Rule struct {
	Kind       RuleKind   `json:"kind"`
	Transition Transition `json:"transition,omitempty"`
}

// Strategy maps extraction keys ("displacement_start", "displacement_end",
// "volume_start", "volume_end") to rules. Absent keys resolve through the
// documented default: the value at the dredge -> loaded-run transition.
type Strategy map[string]Rule

// Extraction keys.
const (
	KeyDisplacementStart = "displacement_start"
	KeyDisplacementEnd   = "displacement_end"
	KeyVolumeStart       = "volume_start"
	KeyVolumeEnd         = "volume_end"
)

// ParseRule decodes a rule string of the form "kind@transition" (or just
// "zero").
func ParseRule(s string) (Rule, error) {
	kind, transition, found := strings.Cut(s, "@")
	r := Rule{Kind: RuleKind(kind), Transition: Transition(transition)}

	switch r.Kind {
	case RuleZero:
		if found {
			return Rule{}, fmt.Errorf("rule %q: zero takes no transition", s)
		}
		return r, nil
	case RuleWindowMin, RuleWindowMax, RuleFirstAfter:
		if !found {
			return Rule{}, fmt.Errorf("rule %q: missing @transition", s)
		}
	default:
		return Rule{}, fmt.Errorf("unknown rule kind %q", kind)
	}

	switch r.Transition {
	case TransitionEmptyRunStart, TransitionDredgeStart, TransitionLoadedRunStart,
		TransitionDischargeStart, TransitionCycleEnd:
		return r, nil
	default:
		return Rule{}, fmt.Errorf("unknown transition %q", transition)
	}
}

// ParseStrategy decodes the operator configuration map. Unknown keys and
// malformed rules fail loudly here so a typo cannot silently fall back to
// defaults.
func ParseStrategy(config map[string]string) (Strategy, error) {
	s := Strategy{}
	for key, raw := range config {
		switch key {
		case KeyDisplacementStart, KeyDisplacementEnd, KeyVolumeStart, KeyVolumeEnd:
		default:
			return nil, fmt.Errorf("unknown extraction key %q", key)
		}
		if raw == "" {
			continue
		}
		rule, err := ParseRule(raw)
		if err != nil {
			return nil, fmt.Errorf("extraction key %q: %w", key, err)
		}
		s[key] = rule
	}
	return s, nil
}

// transitionTime maps a named transition to its timestamp in the cycle
// table, nil when the marker is absent.
func transitionTime(c cycle.Cycle, t Transition) *time.Time {
	switch t {
	case TransitionEmptyRunStart:
		return c.EmptyRunStart
	case TransitionDredgeStart:
		return c.DredgeStart
	case TransitionLoadedRunStart:
		return c.LoadedRunStart
	case TransitionDischargeStart:
		return c.DischargeStart
	case TransitionCycleEnd:
		return c.End
	default:
		return nil
	}
}
