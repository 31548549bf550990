// Package stft turns a decoded mono sample stream into the overlapping,
// windowed complex spectra the Doppler engine's core expects, so the core
// never needs to know where its input came from.
package stft

import (
	"math"
	"time"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/wunderwelt/dopplerspeed/internal/doppler"
)

// Block is one STFT frame: a timestamp and an interleaved real/imaginary
// spectrum for bins 0..blockSize/2, matching the engine's
// `inputBuffer: float[N+2]` interface.
type Block struct {
	Timestamp doppler.Timestamp
	Spectrum  []float64
}

// Framer extracts successive overlapping windows of length BlockSize
// from a sample stream, advancing by StepSize samples each time, applies
// a Hann window, and computes the complex spectrum of each window.
type Framer struct {
	sampleRate float64
	blockSize  int
	stepSize   int

	window []float64
	fft    *fourier.FFT
}

// NewFramer builds a Framer for the given sample rate and block/step
// geometry. blockSize must be even and positive; stepSize must be
// positive.
func NewFramer(sampleRate float64, blockSize, stepSize int) *Framer {
	return &Framer{
		sampleRate: sampleRate,
		blockSize:  blockSize,
		stepSize:   stepSize,
		window:     hannWindow(blockSize),
		fft:        fourier.NewFFT(blockSize),
	}
}

// hannWindow returns the Hann window coefficients for a window of length
// n: w[i] = 0.5 * (1 - cos(2*pi*i/(n-1))).
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// NumBlocks reports how many complete blocks Frame will emit for a
// stream of numSamples samples, matching (n-block_size)/step_size + 1.
func (f *Framer) NumBlocks(numSamples int) int {
	if numSamples < f.blockSize {
		return 0
	}
	return (numSamples-f.blockSize)/f.stepSize + 1
}

// Frame windows and transforms every complete block in samples and
// returns them in timestamp order. Each block's timestamp is
// step_index * step_size / sample_rate seconds, so timestamps are
// monotonically non-decreasing by construction.
func (f *Framer) Frame(samples []float64) []Block {
	n := f.NumBlocks(len(samples))
	if n == 0 {
		return nil
	}

	blocks := make([]Block, 0, n)
	windowed := make([]float64, f.blockSize)
	halfN := f.blockSize/2 + 1

	for step := 0; step < n; step++ {
		offset := step * f.stepSize
		for i := 0; i < f.blockSize; i++ {
			windowed[i] = samples[offset+i] * f.window[i]
		}

		coeffs := f.fft.Coefficients(nil, windowed)

		spectrum := make([]float64, 2*halfN)
		for bin := 0; bin < halfN; bin++ {
			spectrum[2*bin] = real(coeffs[bin])
			spectrum[2*bin+1] = imag(coeffs[bin])
		}

		seconds := float64(offset) / f.sampleRate
		blocks = append(blocks, Block{
			Timestamp: doppler.TimestampFromDuration(time.Duration(seconds * float64(time.Second))),
			Spectrum:  spectrum,
		})
	}

	return blocks
}
