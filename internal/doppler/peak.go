// Package doppler implements the temporal peak-tracking core: finding
// prominence-qualified local maxima in a smoothed magnitude spectrum,
// associating them into persistent tracks block by block, and deriving a
// Doppler speed estimate from the dominant track's stable approach/leave
// frequencies.
package doppler

import "time"

// Timestamp is a monotonic block time, expressed the way the engine's
// external interface requires: a seconds/nanoseconds pair. It converts
// cleanly to and from time.Duration for internal arithmetic.
type Timestamp struct {
	Seconds     int64
	Nanoseconds int64
}

// TimestampFromDuration builds a Timestamp from an elapsed duration since
// the start of the recording.
func TimestampFromDuration(d time.Duration) Timestamp {
	return Timestamp{
		Seconds:     int64(d / time.Second),
		Nanoseconds: int64(d % time.Second),
	}
}

// Duration returns the timestamp as a time.Duration since stream start.
func (t Timestamp) Duration() time.Duration {
	return time.Duration(t.Seconds)*time.Second + time.Duration(t.Nanoseconds)
}

// Seconds64 returns the timestamp as a floating-point number of seconds,
// the form the rescue clause's "< 2s" / ">= 4s" comparisons are stated in.
func (t Timestamp) Seconds64() float64 {
	return float64(t.Seconds) + float64(t.Nanoseconds)/1e9
}

// Before reports whether t occurs strictly before o.
func (t Timestamp) Before(o Timestamp) bool {
	return t.Duration() < o.Duration()
}

// Sub returns t - o as a duration.
func (t Timestamp) Sub(o Timestamp) time.Duration {
	return t.Duration() - o.Duration()
}

// Peak is an immutable record of one prominence-qualified local maximum
// observed in an averaged magnitude spectrum.
type Peak struct {
	// Value is the magnitude at the peak, in dB.
	Value float64
	// Height is the prominence: the smaller of the two drops from the peak
	// to its flanking valleys, i.e. the magnitude above the higher of the
	// two valleys, in dB. Height is always >= the detection
	// threshold the Peak Finder was called with.
	Height float64
	// Position is the integer bin index of the maximum sample.
	Position int
	// InterpolatedPosition is a real-valued refinement of Position. The
	// engine performs no sub-bin interpolation (see DESIGN.md's open
	// question on identity refinement), so this always equals
	// float64(Position).
	InterpolatedPosition float64
	// Timestamp is the block time the peak was observed at.
	Timestamp Timestamp
}
