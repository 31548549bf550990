package doppler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMagnitudeSkipsDCAndMatchesHypot(t *testing.T) {
	blockSize := 8
	// interleaved re/im pairs for bins 0..4
	spectrum := []float64{
		100, 0, // bin 0 (DC), skipped
		3, 4, // bin 1 -> magnitude 5
		0, 0, // bin 2 -> magnitude 0
		6, 8, // bin 3 -> magnitude 10
		1, 1, // bin 4
	}

	mag := ExtractMagnitude(spectrum, blockSize)
	require.Len(t, mag, blockSize/2)
	assert.InDelta(t, 5.0, mag[0], 1e-9)
	assert.InDelta(t, 0.0, mag[1], 1e-9)
	assert.InDelta(t, 10.0, mag[2], 1e-9)
	assert.InDelta(t, math.Hypot(1, 1), mag[3], 1e-9)
}

func TestFFTBufferEmitsOnlyWhenFull(t *testing.T) {
	buf := NewFFTBuffer(3, 8)

	_, ready := buf.Push([]float64{1, 2})
	assert.False(t, ready)

	_, ready = buf.Push([]float64{1, 2})
	assert.False(t, ready)

	avg, ready := buf.Push([]float64{1, 2})
	assert.True(t, ready)
	assert.Len(t, avg, 2)
}

func TestFFTBufferDropsOldestAfterEmit(t *testing.T) {
	buf := NewFFTBuffer(2, 8)
	buf.Push([]float64{2, 2})
	avg1, ready := buf.Push([]float64{4, 4})
	require.True(t, ready)
	_ = avg1

	// window is now just the second vector; pushing a third averages
	// (4,4) and (6,6) -> mean (5,5), not (2,2) again.
	avg2, ready := buf.Push([]float64{6, 6})
	require.True(t, ready)
	assert.NotEqual(t, avg1, avg2)
}
