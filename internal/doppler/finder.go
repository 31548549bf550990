package doppler

// direction tracks whether the scan line is currently rising, falling, or
// flat, mirroring the three-state machine the Peak Finder is specified
// against.
type direction int

const (
	stagnating direction = iota
	ascending
	descending
)

// valley remembers the position and value of the most recently passed
// local minimum, used as the left-hand reference for the next candidate's
// prominence check.
type valley struct {
	position int
	value    float64
}

// FindPeaks scans x[0:M) for prominence-qualified local maxima in a single
// O(M) pass and returns them in ascending position order, each stamped
// with ts. threshold is the minimum prominence (in dB) a peak must clear
// against both its left and right flanking valley.
//
// A peak is only emitted once it has been confirmed by a right-hand
// valley at least threshold below its value; a candidate still pending at
// the end of x is dropped.
func FindPeaks(x []float64, threshold float64, ts Timestamp) []Peak {
	if len(x) == 0 {
		return nil
	}

	var peaks []Peak

	dir := stagnating
	lastValley := valley{position: 0, value: x[0]}
	var candidate Peak
	validCandidate := false

	previous := x[0]
	for i := 0; i < len(x); i++ {
		current := x[i]

		switch {
		case current < previous:
			if dir != descending {
				// A summit was just passed at i-1.
				height := previous - lastValley.value
				if height >= threshold {
					candidate = Peak{
						Value:                previous,
						Height:               height,
						Position:             i - 1,
						InterpolatedPosition: float64(i - 1),
						Timestamp:            ts,
					}
					validCandidate = true
				}
			}
			dir = descending

		case current > previous:
			if dir != ascending {
				// A valley was just passed at i-1.
				if validCandidate {
					heightRight := candidate.Value - previous
					if heightRight >= threshold {
						if heightRight < candidate.Height {
							candidate.Height = heightRight
						}
						peaks = append(peaks, candidate)
					}
					validCandidate = false
				}
				lastValley = valley{position: i - 1, value: previous}
			}
			dir = ascending

		default:
			dir = stagnating
		}

		previous = current
	}

	return peaks
}
