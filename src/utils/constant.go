package utils

import "math"

// -----------------------------------------------------------------------------

// Constants and helper functions for history sizing.
// One sample lands per family per collection tick, so a day of minute ticks
// is 1440 rows per buffer.
const (
	DefaultHistoryHours    = 24
	DefaultIntervalSeconds = 60
)

// -----------------------------------------------------------------------------

// CalculateMaxDataPoints sizes a history buffer from the retention window and
// the collection cadence. Falls back to the defaults on nonsense input.
func CalculateMaxDataPoints(historyHours, intervalSeconds int) int {
	if historyHours <= 0 {
		historyHours = DefaultHistoryHours
	}
	if intervalSeconds <= 0 {
		intervalSeconds = DefaultIntervalSeconds
	}
	return int(math.Ceil(float64(historyHours) * 3600 / float64(intervalSeconds)))
}
