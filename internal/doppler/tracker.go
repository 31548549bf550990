package doppler

import (
	"fmt"
	"io"
	"math"
)

// TracerParams holds the Peak Tracer's tunable parameters, resolved from
// config for one engine instance.
type TracerParams struct {
	MaxBinJump               int
	BroadestInterruption     int
	PeakDetectionTime        float64
	DetectionHeightThreshold float64
	TracingHeightThreshold   float64
	Rescue                   RescueParams
}

// TrackSet is an ordered sequence of tracks, kept sorted ascending by the
// current location (last interpolated_position) of each track. The
// invariant is re-established at the end of every block.
type TrackSet struct {
	tracks []*PeakHistory
}

// Tracks returns the live tracks in sorted order. The returned slice must
// not be mutated by the caller.
func (ts *TrackSet) Tracks() []*PeakHistory {
	return ts.tracks
}

// Len reports the number of live tracks.
func (ts *TrackSet) Len() int {
	return len(ts.tracks)
}

func (ts *TrackSet) sort() {
	// Small N (tens of tracks at most); a plain insertion sort keeps this
	// dependency-free and is plenty fast for the sizes this engine sees.
	for i := 1; i < len(ts.tracks); i++ {
		for j := i; j > 0 && ts.tracks[j-1].LastPosition() > ts.tracks[j].LastPosition(); j-- {
			ts.tracks[j-1], ts.tracks[j] = ts.tracks[j], ts.tracks[j-1]
		}
	}
}

// Tracer runs the per-block association procedure: it walks this block's
// ordered peaks against the ordered TrackSet with a pair of cursors,
// attaches each peak to the closer of its two neighbouring tracks when
// within tolerance, opens a new track when admission is still open, ages
// every track that received nothing, and retires the dead.
type Tracer struct {
	params TracerParams
	warn   io.Writer
}

// NewTracer creates a Tracer that logs anomalous-association warnings to
// warn (typically os.Stderr; a nil warn discards them).
func NewTracer(params TracerParams, warn io.Writer) *Tracer {
	if warn == nil {
		warn = io.Discard
	}
	return &Tracer{params: params, warn: warn}
}

// Trace associates peaks (sorted ascending by interpolated_position, per
// the Peak Finder's contract) with ts's tracks, ages and retires tracks,
// and admits new ones while allowNew holds. ts is mutated in place.
func (t *Tracer) Trace(ts *TrackSet, peaks []Peak, allowNew bool) {
	n := len(ts.tracks)
	gotPeak := make([]bool, n)
	noPeakCalled := make([]bool, n)

	var pending []*PeakHistory

	curr := 0
	for _, p := range peaks {
		for curr < n && !(float64(p.Position) < ts.tracks[curr].LastPosition()) {
			if !gotPeak[curr] && !noPeakCalled[curr] {
				ts.tracks[curr].NoPeak()
				noPeakCalled[curr] = true
			}
			curr++
		}
		prev := curr - 1

		dPrev, dCurr := math.Inf(1), math.Inf(1)
		if prev >= 0 {
			dPrev = math.Abs(float64(p.Position) - ts.tracks[prev].LastPosition())
		}
		if curr < n {
			dCurr = math.Abs(float64(p.Position) - ts.tracks[curr].LastPosition())
		}

		target := -1
		switch {
		case math.Min(dPrev, dCurr) <= float64(t.params.MaxBinJump):
			if dCurr <= dPrev {
				target = curr
			} else {
				target = prev
			}
		case allowNew:
			pending = append(pending, NewPeakHistory(p, t.params.BroadestInterruption))
			continue
		default:
			continue
		}

		if target == prev && float64(p.Position) < ts.tracks[prev].LastPosition()-1 {
			fmt.Fprintf(t.warn, "doppler: anomalous association at t=%d.%09ds: peak position %d is left of track position %.1f by more than one bin\n",
				p.Timestamp.Seconds, p.Timestamp.Nanoseconds, p.Position, ts.tracks[prev].LastPosition())
			continue
		}

		if gotPeak[target] {
			fmt.Fprintf(t.warn, "doppler: anomalous association at t=%d.%09ds: track at position %.1f already matched this block, dropping peak at position %d\n",
				p.Timestamp.Seconds, p.Timestamp.Nanoseconds, ts.tracks[target].LastPosition(), p.Position)
			continue
		}

		ts.tracks[target].AddPeak(p)
		gotPeak[target] = true
	}

	for i := 0; i < n; i++ {
		if !gotPeak[i] && !noPeakCalled[i] {
			ts.tracks[i].NoPeak()
		}
	}

	alive := ts.tracks[:0]
	for _, tr := range ts.tracks {
		if tr.IsAlive(t.params.Rescue) {
			alive = append(alive, tr)
		}
	}
	ts.tracks = alive

	ts.tracks = append(ts.tracks, pending...)
	ts.sort()
}

// ThresholdFor returns the prominence threshold the Peak Finder should
// use for a block at the given allowNew state: the stricter admission-
// window threshold while new tracks may still be opened, the looser
// tracing threshold afterward.
func (p TracerParams) ThresholdFor(allowNew bool) float64 {
	if allowNew {
		return p.DetectionHeightThreshold
	}
	return p.TracingHeightThreshold
}
