package cycle

import "github.com/harbour-data/dredge.report/internal/telemetry"

// AssignNumbers runs the simple per-sample numbering pass: each status-1 run
// starts a new cycle number and every following sample inherits the most
// recent number until the next status-1 run. Samples before the first
// status-1 stay unassigned.
//
// This pass is deliberately independent of the phase state machine (no speed
// gate, no legality checks): it exists so raw-sample views can be grouped by
// cycle even when detection rejects a cycle as incomplete.
func AssignNumbers(samples []telemetry.Sample, startNumber int) {
	num := startNumber - 1
	assigned := false
	prevWasEmptyRun := false

	for i := range samples {
		isEmptyRun := samples[i].Status == telemetry.StatusEmptyRun
		if isEmptyRun && !prevWasEmptyRun {
			num++
			assigned = true
		}
		prevWasEmptyRun = isEmptyRun

		if assigned {
			n := num
			samples[i].CycleNumber = &n
		} else {
			samples[i].CycleNumber = nil
		}
	}
}
