package doppler

import "math"

// ExtractMagnitude converts one block's complex spectrum, laid out as
// interleaved real/imaginary pairs for bins 0..N/2 (N = blockSize), into a
// magnitude vector of length N/2 covering bins 1..N/2 — the DC term (bin
// 0) is skipped.
func ExtractMagnitude(spectrum []float64, blockSize int) []float64 {
	n := blockSize / 2
	mag := make([]float64, n)
	for bin := 1; bin <= n; bin++ {
		re := spectrum[2*bin]
		im := spectrum[2*bin+1]
		mag[bin-1] = math.Hypot(re, im)
	}
	return mag
}

// FFTBuffer is a bounded FIFO queue of up to W magnitude vectors. Once
// full, each subsequent push emits the element-wise mean of the queued
// vectors (normalized per bin via normDB, referenced against blockSize,
// not W) and drops the oldest vector to make room.
type FFTBuffer struct {
	width     int
	blockSize int
	vectors   [][]float64
}

// NewFFTBuffer creates an empty buffer of the given width (W in the
// moving-average spec) and block size (N, the normalization reference).
func NewFFTBuffer(width, blockSize int) *FFTBuffer {
	return &FFTBuffer{width: width, blockSize: blockSize}
}

// Push appends a magnitude vector. If the buffer is not yet full, it
// returns (nil, false). Once full, it returns the normalized per-bin
// mean of the queued vectors and true, then pops the oldest vector.
func (b *FFTBuffer) Push(mag []float64) ([]float64, bool) {
	b.vectors = append(b.vectors, mag)
	if len(b.vectors) < b.width {
		return nil, false
	}

	n := len(mag)
	mean := make([]float64, n)
	for _, v := range b.vectors {
		for i := 0; i < n; i++ {
			mean[i] += v[i]
		}
	}
	for i := range mean {
		mean[i] = normDB(mean[i]/float64(len(b.vectors)), b.blockSize)
	}

	b.vectors = b.vectors[1:]
	return mean, true
}
