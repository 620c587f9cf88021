package units

import (
	"fmt"
	"time"
)

// IsTimezoneValid checks if the given timezone is valid by attempting to load
// it from the tz database. This validates against the actual system tz
// database rather than a hardcoded list.
func IsTimezoneValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// ConvertTime converts a UTC time to the specified timezone.
// All pipeline tables hold UTC instants; this conversion is display-only.
func ConvertTime(utcTime time.Time, targetTimezone string) (time.Time, error) {
	if targetTimezone == "" || targetTimezone == "UTC" {
		return utcTime, nil
	}
	loc, err := time.LoadLocation(targetTimezone)
	if err != nil {
		return utcTime, fmt.Errorf("failed to load timezone %s: %w", targetTimezone, err)
	}
	return utcTime.In(loc), nil
}
