package units

import (
	"fmt"
	"time"
)

// FormatDuration renders a duration in the requested display format.
// Unknown formats fall back to the clock rendering.
func FormatDuration(d time.Duration, format string) string {
	switch format {
	case DurationDecimalMinutes:
		return fmt.Sprintf("%.1f", d.Minutes())
	case DurationDecimalHours:
		return fmt.Sprintf("%.2f", d.Hours())
	default:
		return FormatClock(d)
	}
}

// FormatClock renders a duration as HH:MM:SS. Durations of a day or more
// keep accumulating hours rather than rolling over.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	total := int64(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
