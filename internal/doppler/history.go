package doppler

// PeakHistory is a track: an ordered, append-only sequence of Peak
// observations believed to belong to the same persistent spectral line,
// plus the bookkeeping needed to age and retire it.
type PeakHistory struct {
	peaks []Peak

	// broadestAllowedInterruption is copied from config at creation and
	// never changes afterward.
	broadestAllowedInterruption int

	sumOfHeights float64

	total          int
	missed         int
	recentlyMissed int

	alive bool
}

// NewPeakHistory creates a track seeded with its first peak.
func NewPeakHistory(first Peak, broadestAllowedInterruption int) *PeakHistory {
	h := &PeakHistory{
		broadestAllowedInterruption: broadestAllowedInterruption,
		alive:                       true,
	}
	h.AddPeak(first)
	return h
}

// AddPeak records a successful association for this block.
func (h *PeakHistory) AddPeak(p Peak) {
	h.peaks = append(h.peaks, p)
	h.sumOfHeights += p.Height
	h.total++
	h.recentlyMissed = 0
}

// NoPeak records that this track received no peak in the current block.
func (h *PeakHistory) NoPeak() {
	h.total++
	h.missed++
	h.recentlyMissed++
}

// Peaks returns the track's observed peaks in order. The returned slice
// must not be mutated by the caller.
func (h *PeakHistory) Peaks() []Peak {
	return h.peaks
}

// SumOfHeights returns the accumulated prominence of every peak added.
func (h *PeakHistory) SumOfHeights() float64 {
	return h.sumOfHeights
}

// Total, Missed, RecentlyMissed expose the counters for test and metrics
// consumption; Total = len(Peaks()) + Missed always holds.
func (h *PeakHistory) Total() int          { return h.total }
func (h *PeakHistory) Missed() int         { return h.missed }
func (h *PeakHistory) RecentlyMissed() int { return h.recentlyMissed }

// Last returns the most recently observed peak. Calling it on a track
// with no peaks yet is a programming error; a freshly constructed
// PeakHistory always has at least one.
func (h *PeakHistory) Last() Peak {
	return h.peaks[len(h.peaks)-1]
}

// LastPosition returns the track's current location for matching
// purposes: the last peak's interpolated position.
func (h *PeakHistory) LastPosition() float64 {
	return h.Last().InterpolatedPosition
}

// IsAlive reports whether the track should still be considered active.
// It applies the naive death rule, then a rescue clause if the naive rule
// would retire the track: a track that swept cleanly across the
// observation window (a legitimate downward Doppler pass-by) is kept
// alive even past its interruption budget.
func (h *PeakHistory) IsAlive(rescue RescueParams) bool {
	h.alive = h.alive && h.recentlyMissed < h.broadestAllowedInterruption
	if h.alive {
		return true
	}

	begin, hasBegin := h.StableBegin(rescue.StableBeginRunLength)
	end, hasEnd := h.StableEnd(rescue.StableEndRunLength)
	if hasBegin && hasEnd &&
		begin.Timestamp.Seconds64() < rescue.ApproachBeforeSeconds &&
		end.Timestamp.Seconds64() >= rescue.LeaveAfterSeconds &&
		begin.InterpolatedPosition > end.InterpolatedPosition {
		h.alive = true
		return true
	}

	return false
}

// RescueParams holds the rescue clause's timing thresholds. Keeping them
// as an argument rather than a PeakHistory field lets the same track be
// evaluated consistently under one engine's configuration without
// threading config through every constructor.
type RescueParams struct {
	ApproachBeforeSeconds float64
	LeaveAfterSeconds     float64
	StableBeginRunLength  int
	StableEndRunLength    int
}

// StableBegin returns the first peak of the earliest run of at least
// runLength consecutive peaks sharing the same interpolated_position
// (exact equality), or false if no such run exists.
func (h *PeakHistory) StableBegin(runLength int) (Peak, bool) {
	if len(h.peaks) == 0 {
		return Peak{}, false
	}

	runStart := 0
	for i := 1; i <= len(h.peaks); i++ {
		samePosition := i < len(h.peaks) && h.peaks[i].InterpolatedPosition == h.peaks[runStart].InterpolatedPosition
		if samePosition {
			continue
		}
		if i-runStart >= runLength {
			return h.peaks[runStart], true
		}
		runStart = i
	}
	return Peak{}, false
}

// StableEnd returns the first peak (in time) of the most recent run of
// peaks within +/-1 bin of a fixed anchor, requiring a run length
// strictly greater than runLength (i.e. at least runLength+1), scanning
// backward from the most recent peak. The anchor is the run's most
// recent (rightmost) peak, exactly mirroring StableBegin's fixed-anchor
// comparison — only the tolerance (+/-1 bin instead of exact equality)
// and scan direction differ. A steadily drifting sequence (each adjacent
// pair close, but the run as a whole sliding away from any one value)
// does not qualify, since every candidate is compared against the same
// anchor rather than its neighbour.
func (h *PeakHistory) StableEnd(runLength int) (Peak, bool) {
	n := len(h.peaks)
	if n == 0 {
		return Peak{}, false
	}

	runEnd := n - 1
	for i := n - 2; i >= -1; i-- {
		withinTolerance := i >= 0 && absFloat(h.peaks[i].InterpolatedPosition-h.peaks[runEnd].InterpolatedPosition) <= 1.0
		if withinTolerance {
			continue
		}
		runLen := runEnd - i
		if runLen > runLength {
			return h.peaks[i+1], true
		}
		runEnd = i
	}
	return Peak{}, false
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
