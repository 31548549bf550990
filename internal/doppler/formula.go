package doppler

import "math"

// SpeedOfSound is the reference speed used by the Doppler formula, in
// metres per second.
const SpeedOfSound = 343.0

// metersPerSecondToKMH converts the formula's natural m/s output to km/h.
const metersPerSecondToKMH = 3.6

// SpeedMovingSource computes the ground speed, in km/h, of a source whose
// emitted tone was observed at approach frequency fApproach and leave
// frequency fLeave. The arguments may be frequencies in Hz or raw bin
// positions — the formula is scale-invariant in (fApproach, fLeave) as
// long as both are measured identically.
//
// Positive results indicate fApproach > fLeave, the ordinary case of a
// source approaching then receding (its observed frequency drops).
func SpeedMovingSource(fApproach, fLeave float64) float64 {
	denom := fApproach + fLeave
	if denom == 0 {
		return 0
	}
	return (fApproach - fLeave) / denom * SpeedOfSound * metersPerSecondToKMH
}

// FreqForBin converts a (fractional) bin index to a frequency in Hz,
// given the sample rate and block size.
func FreqForBin(bin, sampleRate float64, blockSize int) float64 {
	return sampleRate * bin / float64(blockSize)
}

// BinForFreq converts a frequency in Hz to a (fractional) bin index,
// given the sample rate and block size.
func BinForFreq(freq, sampleRate float64, blockSize int) float64 {
	return freq * float64(blockSize) / sampleRate
}

// normDB applies the Moving Average Buffer's normalization: a linear
// magnitude x, referenced against block size N, expressed in dB.
func normDB(x float64, blockSize int) float64 {
	ratio := 2 * x / float64(blockSize)
	if ratio <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(ratio)
}
