// Package snapshot holds the timestamped value history of synchronized fields.
//
// A Snapshot pairs a tick timestamp with a Value and an optional velocity. A Ring keeps
// a fixed number of snapshots ordered newest first, so that index 0 is always the most
// recent sample, and is the input to reconstruction in the blend package.
package snapshot

import "time"

// TicksPerSecond is the tick rate of snapshot timestamps. One tick is 100ns.
const TicksPerSecond int64 = 10_000_000

// Snapshot is one authoritative sample of a field. It is immutable once created.
type Snapshot struct {
	// Ticks is the sample time on the time base shared by sender and receiver.
	Ticks int64
	Value Value
	// Velocity is the optional rate of change at Ticks, per second. Its kind is
	// VelocityKind(Value.Kind()); the zero Value means no velocity was sent.
	Velocity Value
}

// HasVelocity reports whether the snapshot carries a velocity sample.
func (s Snapshot) HasVelocity() bool {
	return !s.Velocity.IsZero()
}

// TicksFromDuration converts a duration to ticks.
func TicksFromDuration(d time.Duration) int64 {
	return int64(d / 100)
}

// TicksToDuration converts ticks to a duration.
func TicksToDuration(ticks int64) time.Duration {
	return time.Duration(ticks * 100)
}

// TicksFromSeconds converts seconds to ticks, rounding to the nearest tick.
func TicksFromSeconds(seconds float64) int64 {
	t := seconds * float64(TicksPerSecond)
	if t < 0 {
		return int64(t - 0.5)
	}

	return int64(t + 0.5)
}

// TicksToSeconds converts ticks to seconds.
func TicksToSeconds(ticks int64) float64 {
	return float64(ticks) / float64(TicksPerSecond)
}
