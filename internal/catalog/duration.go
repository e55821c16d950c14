package catalog

import "math"

// The egress backend reports timestamps and durations in a unit that varies
// by deployment (seconds, milliseconds, or finer ticks). Units are inferred
// from magnitude thresholds and normalized to milliseconds. This heuristic is
// preserved as observed from the backend's behavior; an explicit unit from
// the source would be preferable.
const (
	nanosThreshold  = 1_000_000_000_000_000 // above this, value is treated as nanoseconds
	microsThreshold = 1_000_000_000_000     // above this, value is treated as microseconds
)

// toMillis normalizes a backend-reported time value to milliseconds.
func toMillis(value int64) int64 {
	abs := value
	if abs < 0 {
		abs = -abs
	}
	if abs > nanosThreshold {
		return value / 1_000_000
	}
	if abs > microsThreshold {
		return value / 1_000
	}
	return value
}

// toSeconds normalizes a backend-reported duration to whole seconds,
// floored at zero.
func toSeconds(value int64) int64 {
	if value <= 0 {
		return 0
	}
	ms := toMillis(value)
	s := int64(math.Round(float64(ms) / 1000))
	if s < 0 {
		return 0
	}
	return s
}

// estimateDurationSeconds guesses a recording length from its size using a
// fixed bitrate assumption (~500 KB per 30 seconds). Heuristic fallback for
// legacy objects with no authoritative duration.
func estimateDurationSeconds(sizeBytes int64) int64 {
	if sizeBytes <= 0 {
		return 0
	}
	return int64(math.Round(float64(sizeBytes) / (500 * 1024) * 30))
}
