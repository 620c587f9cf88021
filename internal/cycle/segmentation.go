// Package cycle reconstructs discrete dredging cycles (Umlauf: empty run ->
// dredging -> loaded run -> discharge) from the ordered status-code stream.
//
// Detection is an explicit state machine rather than a chain of inline
// conditionals: the discharge family and the end-of-cycle refresh are
// stateful and the stream-boundary cases (last row, truncated cycles) are
// exactly where inline logic goes subtly wrong.
package cycle

import (
	"math"
	"sort"
	"time"

	"github.com/harbour-data/dredge.report/internal/telemetry"
)

// Cycle is one detected interval over the sample stream. Every phase
// timestamp is optional: a cycle truncated at a data boundary keeps the
// markers it has. Phase times are non-decreasing when present.
type Cycle struct {
	Number         int        `json:"number"`
	EmptyRunStart  *time.Time `json:"empty_run_start,omitempty"`
	DredgeStart    *time.Time `json:"dredge_start,omitempty"`
	LoadedRunStart *time.Time `json:"loaded_run_start,omitempty"`
	DischargeStart *time.Time `json:"discharge_start,omitempty"`
	End            *time.Time `json:"end,omitempty"`
}

// Complete reports whether the cycle has both boundary markers. Incomplete
// cycles stay visible in raw views but are excluded from cycle-indexed
// summaries.
func (c Cycle) Complete() bool {
	return c.EmptyRunStart != nil && c.End != nil
}

// Interval returns the time span covered by the cycle's known markers.
func (c Cycle) Interval() (start, end time.Time, ok bool) {
	first := firstPresent(c.EmptyRunStart, c.DredgeStart, c.LoadedRunStart, c.DischargeStart)
	last := firstPresent(c.End, c.DischargeStart, c.LoadedRunStart, c.DredgeStart, c.EmptyRunStart)
	if first == nil || last == nil {
		return time.Time{}, time.Time{}, false
	}
	return *first, *last, true
}

func firstPresent(ts ...*time.Time) *time.Time {
	for _, t := range ts {
		if t != nil {
			return t
		}
	}
	return nil
}

// Config holds the segmentation parameters.
type Config struct {
	// MinRunningSpeedKn gates the empty-run start: a status-1 sample opens a
	// cycle only when the vessel is actually under way, filtering out
	// stationary status-1 noise at the berth.
	MinRunningSpeedKn float64
	// StartNumber is the operator-configured number of the first cycle.
	StartNumber int
}

type machineState int

const (
	awaitingStart machineState = iota
	inEmptyRun
	inDredge
	inLoadedRun
	inDischarge
)

type machine struct {
	cfg    Config
	state  machineState
	cur    Cycle
	next   int
	cycles []Cycle
}

// Segment scans the status-code stream and emits the cycle table. The input
// is sorted defensively by timestamp first (on a copy; the caller's slice is
// not reordered).
//
// A cycle closes only when a status-1 sample follows the discharge family,
// or when the stream ends while still in discharge. Cycles truncated at
// either boundary are emitted as incomplete rather than dropped.
func Segment(samples []telemetry.Sample, cfg Config) []Cycle {
	sorted := make([]telemetry.Sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	m := &machine{cfg: cfg, next: cfg.StartNumber}
	for i := range sorted {
		for reprocess := true; reprocess; {
			reprocess = m.step(&sorted[i])
		}
	}
	m.finish()
	return m.cycles
}

// step advances the machine by one sample. It returns true when the sample
// closed a cycle and must be reconsidered as the start of the next one.
func (m *machine) step(s *telemetry.Sample) bool {
	ts := s.Timestamp

	switch m.state {
	case awaitingStart:
		switch {
		case s.Status == telemetry.StatusEmptyRun && m.underWay(s):
			m.cur = Cycle{Number: m.next, EmptyRunStart: &ts}
			m.state = inEmptyRun
		case s.Status == telemetry.StatusDredging:
			// Stream starts mid-cycle: keep the dredge work as a truncated
			// cycle with no empty-run marker instead of losing it.
			m.cur = Cycle{Number: m.next, DredgeStart: &ts}
			m.state = inDredge
		}
	case inEmptyRun:
		if s.Status == telemetry.StatusDredging {
			m.cur.DredgeStart = &ts
			m.state = inDredge
		}
	case inDredge:
		if s.Status == telemetry.StatusLoadedRun {
			m.cur.LoadedRunStart = &ts
			m.state = inLoadedRun
		}
	case inLoadedRun:
		if telemetry.IsDischarge(s.Status) {
			m.cur.DischargeStart = &ts
			m.cur.End = &ts
			m.state = inDischarge
		}
	case inDischarge:
		if telemetry.IsDischarge(s.Status) {
			// The cycle end keeps tracking the latest discharge-family
			// sample until the next empty run begins.
			m.cur.End = &ts
		} else if s.Status == telemetry.StatusEmptyRun {
			m.emit()
			return true
		}
	}
	return false
}

func (m *machine) underWay(s *telemetry.Sample) bool {
	return !math.IsNaN(s.SpeedKn) && s.SpeedKn > m.cfg.MinRunningSpeedKn
}

func (m *machine) emit() {
	m.cycles = append(m.cycles, m.cur)
	m.next++
	m.cur = Cycle{}
	m.state = awaitingStart
}

// finish flushes the open cycle at end of stream. Ending inside the
// discharge family yields a complete cycle; ending anywhere else yields a
// truncated one, surfaced rather than silently dropped.
func (m *machine) finish() {
	if m.state != awaitingStart {
		m.emit()
	}
}

// CompleteOnly filters the cycle table down to complete cycles for
// cycle-indexed summary consumers.
func CompleteOnly(cycles []Cycle) []Cycle {
	out := make([]Cycle, 0, len(cycles))
	for _, c := range cycles {
		if c.Complete() {
			out = append(out, c)
		}
	}
	return out
}
