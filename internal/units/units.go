// Package units provides shared constants and conversions for speeds,
// densities, durations and display timezones.
package units

// Duration display format constants
const (
	DurationClock          = "clock"
	DurationDecimalMinutes = "decimal-minutes"
	DurationDecimalHours   = "decimal-hours"
)

// ValidDurationFormats contains all valid duration display formats
var ValidDurationFormats = []string{DurationClock, DurationDecimalMinutes, DurationDecimalHours}

// IsValidDurationFormat checks if the given format is a known display format
func IsValidDurationFormat(format string) bool {
	for _, f := range ValidDurationFormats {
		if format == f {
			return true
		}
	}
	return false
}

// GetValidDurationFormatsString returns a comma-separated string of valid
// formats for error messages
func GetValidDurationFormatsString() string {
	return "clock, decimal-minutes, decimal-hours"
}

// KnotsToMetersPerSecond converts a speed in knots to meters per second.
// Vessel logs record speed over ground in knots.
func KnotsToMetersPerSecond(kn float64) float64 {
	return kn * 0.514444
}

// MetersPerSecondToKnots converts a speed in meters per second to knots.
func MetersPerSecondToKnots(mps float64) float64 {
	return mps / 0.514444
}
