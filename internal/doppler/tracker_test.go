package doppler

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultParams() TracerParams {
	return TracerParams{
		MaxBinJump:               5,
		BroadestInterruption:     10,
		PeakDetectionTime:        1.5,
		DetectionHeightThreshold: 15,
		TracingHeightThreshold:   5,
		Rescue: RescueParams{
			ApproachBeforeSeconds: 2,
			LeaveAfterSeconds:     4,
			StableBeginRunLength:  3,
			StableEndRunLength:    3,
		},
	}
}

func TestTracerOpensNewTrackWhenAdmissionOpen(t *testing.T) {
	var ts TrackSet
	tracer := NewTracer(defaultParams(), nil)

	tracer.Trace(&ts, []Peak{peakAt(0, 100)}, true)

	require.Equal(t, 1, ts.Len())
	assert.Equal(t, 100.0, ts.Tracks()[0].LastPosition())
}

func TestTracerRejectsNewTrackWhenAdmissionClosed(t *testing.T) {
	var ts TrackSet
	tracer := NewTracer(defaultParams(), nil)

	tracer.Trace(&ts, []Peak{peakAt(2, 100)}, false)

	assert.Equal(t, 0, ts.Len())
}

func TestTracerAdmissionGateNeverIncreasesAfterWindow(t *testing.T) {
	var ts TrackSet
	tracer := NewTracer(defaultParams(), nil)

	tracer.Trace(&ts, []Peak{peakAt(0, 50), peakAt(0, 100)}, true)
	before := ts.Len()

	tracer.Trace(&ts, []Peak{peakAt(2, 200)}, false)
	after := ts.Len()

	assert.LessOrEqual(t, after, before)
}

func TestTracerAssociatesWithinMaxBinJump(t *testing.T) {
	var ts TrackSet
	tracer := NewTracer(defaultParams(), nil)

	tracer.Trace(&ts, []Peak{peakAt(0, 100)}, true)
	tracer.Trace(&ts, []Peak{peakAt(1, 103)}, true)

	require.Equal(t, 1, ts.Len(), "a peak within max_bin_jump should associate, not open a second track")
	assert.Len(t, ts.Tracks()[0].Peaks(), 2)
}

func TestTracerOpensSecondTrackBeyondMaxBinJump(t *testing.T) {
	var ts TrackSet
	tracer := NewTracer(defaultParams(), nil)

	tracer.Trace(&ts, []Peak{peakAt(0, 100)}, true)
	tracer.Trace(&ts, []Peak{peakAt(1, 200)}, true)

	assert.Equal(t, 2, ts.Len())
}

func TestTracerSortInvariantHoldsAfterEveryBlock(t *testing.T) {
	var ts TrackSet
	tracer := NewTracer(defaultParams(), nil)

	tracer.Trace(&ts, []Peak{peakAt(0, 50), peakAt(0, 150)}, true)
	tracer.Trace(&ts, []Peak{peakAt(1, 10), peakAt(1, 55), peakAt(1, 155)}, true)

	tracks := ts.Tracks()
	for i := 1; i < len(tracks); i++ {
		assert.LessOrEqual(t, tracks[i-1].LastPosition(), tracks[i].LastPosition())
	}
}

func TestTracerAgesUnmatchedTracks(t *testing.T) {
	var ts TrackSet
	tracer := NewTracer(defaultParams(), nil)

	tracer.Trace(&ts, []Peak{peakAt(0, 100)}, true)
	tracer.Trace(&ts, nil, true)

	require.Equal(t, 1, ts.Len())
	assert.Equal(t, 1, ts.Tracks()[0].Missed())
}

func TestTracerRetiresDeadTracks(t *testing.T) {
	params := defaultParams()
	params.BroadestInterruption = 2
	params.Rescue.ApproachBeforeSeconds = -1 // never rescue in this test

	var ts TrackSet
	tracer := NewTracer(params, nil)

	tracer.Trace(&ts, []Peak{peakAt(0, 100)}, true)
	for i := 0; i < 3; i++ {
		tracer.Trace(&ts, nil, true)
	}

	assert.Equal(t, 0, ts.Len(), "a track missed past its interruption budget with no rescue must retire")
}

func TestTracerLogsAndDropsDoubleAttach(t *testing.T) {
	var ts TrackSet
	var buf bytes.Buffer
	tracer := NewTracer(defaultParams(), &buf)

	tracer.Trace(&ts, []Peak{peakAt(0, 100)}, true)
	// Two peaks this block both within range of the single track; only
	// one may attach.
	tracer.Trace(&ts, []Peak{peakAt(1, 101), peakAt(1, 102)}, true)

	assert.NotEmpty(t, buf.String(), "a same-block double attach must log a warning")
}

func TestTracerAttachesPeakRightOfPrevWithinMaxBinJump(t *testing.T) {
	var ts TrackSet
	var buf bytes.Buffer
	tracer := NewTracer(defaultParams(), &buf)

	// Two simultaneous tracks, far enough apart that the cursor's closer
	// track is unambiguous.
	tracer.Trace(&ts, []Peak{peakAt(0, 100), peakAt(0, 200)}, true)
	require.Equal(t, 2, ts.Len())

	// A peak at 103 is closer to the track at 100 (distance 3) than to the
	// track at 200 (distance 97), and within max_bin_jump of it: it attaches
	// to the track at 100 without any warning.
	tracer.Trace(&ts, []Peak{peakAt(1, 103)}, true)

	assert.Empty(t, buf.String(), "a peak within max_bin_jump of its closer track must not log a warning")
	assert.Len(t, ts.Tracks()[0].Peaks(), 2, "the peak must attach to the closer track")
	assert.Len(t, ts.Tracks()[1].Peaks(), 1, "the farther track must not receive the peak")
}
