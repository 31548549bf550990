package doppler

import (
	"io"

	"github.com/wunderwelt/dopplerspeed/internal/config"
)

// FrequencyFeature is one sample of the dominant track's frequency
// trajectory, as emitted by the Speed Reporter.
type FrequencyFeature struct {
	Timestamp   Timestamp
	DurationSec float64
	FrequencyHz float64
}

// SpeedFeature is the single derived speed estimate for a pass-by, if
// the dominant track ever reached both a stable approach and a stable
// leave.
type SpeedFeature struct {
	Timestamp   Timestamp
	DurationSec float64
	SpeedKMH    float64
}

// RunResult is the complete output of one end-to-end run: the dominant
// track's frequency trajectory, and at most one speed estimate.
type RunResult struct {
	DominatingFrequencies []FrequencyFeature
	SpeedEstimate         *SpeedFeature
}

// DebugSink is the narrow interface the Moving Average Buffer stage
// drives with each emitted averaged spectrum, matching spec.md §9's
// "inject a diagnostic sink behind a narrow interface" design note. The
// core depends only on this structural shape, not on any filesystem-
// backed implementation, so it stays testable without one.
type DebugSink interface {
	WriteHeader(centerFrequenciesHz []float64) error
	WriteRow(normalizedMagnitudes []float64) error
}

// noopDebugSink discards everything written to it; used when no sink is
// supplied to NewEngine.
type noopDebugSink struct{}

func (noopDebugSink) WriteHeader([]float64) error { return nil }
func (noopDebugSink) WriteRow([]float64) error    { return nil }

// Engine is the synchronous, single-threaded core pipeline: Magnitude
// Extractor -> Moving Average Buffer -> Peak Finder -> Peak Tracer, fed
// block by block via Process, with the Speed Reporter's selection logic
// running once at Finish.
type Engine struct {
	cfg config.EngineConfig

	buffer *FFTBuffer
	tracer *Tracer
	tracks TrackSet

	upperBinLimit int

	sink          DebugSink
	headerWritten bool
}

// NewEngine constructs an Engine from a resolved configuration. warn
// receives anomalous-association diagnostics (typically os.Stderr); pass
// nil to discard them. sink receives the averaged, normalized spectrum
// for every block the Moving Average Buffer actually emits (never the
// raw per-block magnitude, and never for the blocks before the buffer
// fills); pass nil to discard it.
func NewEngine(cfg config.EngineConfig, warn io.Writer, sink DebugSink) *Engine {
	if sink == nil {
		sink = noopDebugSink{}
	}
	params := TracerParams{
		MaxBinJump:               cfg.MaxBinJump,
		BroadestInterruption:     cfg.BroadestInterruption,
		PeakDetectionTime:        cfg.PeakDetectionTime,
		DetectionHeightThreshold: cfg.PeakDetectionHeightThreshold,
		TracingHeightThreshold:   cfg.PeakTracingHeightThreshold,
		Rescue: RescueParams{
			ApproachBeforeSeconds: cfg.RescueApproachBeforeSeconds,
			LeaveAfterSeconds:     cfg.RescueLeaveAfterSeconds,
			StableBeginRunLength:  cfg.StableBeginRunLength,
			StableEndRunLength:    cfg.StableEndRunLength,
		},
	}

	upperBin := int(cfg.BinForFrequency(cfg.UpperThresholdFrequency))
	maxBin := cfg.BlockSize / 2
	if upperBin > maxBin {
		upperBin = maxBin
	}
	if upperBin < 0 {
		upperBin = 0
	}

	return &Engine{
		cfg:           cfg,
		buffer:        NewFFTBuffer(cfg.MovingFFTAverageWidth, cfg.BlockSize),
		tracer:        NewTracer(params, warn),
		upperBinLimit: upperBin,
		sink:          sink,
	}
}

// Process feeds one block's complex spectrum (interleaved re/im pairs for
// bins 0..N/2) through the pipeline. Blocks must be presented in strictly
// non-decreasing timestamp order.
func (e *Engine) Process(spectrum []float64, ts Timestamp) {
	mag := ExtractMagnitude(spectrum, e.cfg.BlockSize)

	averaged, ready := e.buffer.Push(mag)
	if !ready {
		return
	}

	if !e.headerWritten {
		freqs := make([]float64, len(averaged))
		for i := range freqs {
			freqs[i] = FreqForBin(float64(i+1), e.cfg.SampleRate, e.cfg.BlockSize)
		}
		_ = e.sink.WriteHeader(freqs)
		e.headerWritten = true
	}
	_ = e.sink.WriteRow(averaged)

	allowNew := ts.Seconds64() < e.cfg.PeakDetectionTime

	scanWidth := e.upperBinLimit
	if scanWidth > len(averaged) {
		scanWidth = len(averaged)
	}
	threshold := e.tracer.params.ThresholdFor(allowNew)
	peaks := FindPeaks(averaged[:scanWidth], threshold, ts)

	// averaged[i] holds the magnitude of bin i+1 (ExtractMagnitude skips
	// the DC term), so the Peak Finder's array-index positions need a
	// +1 shift to become true bin indices before anything downstream
	// (association, stability, frequency conversion) sees them.
	for i := range peaks {
		peaks[i].Position++
		peaks[i].InterpolatedPosition++
	}

	e.tracer.Trace(&e.tracks, peaks, allowNew)
}

// Finish runs the Speed Reporter's end-of-stream selection: the track
// with the greatest accumulated prominence contributes its full
// frequency trajectory, and the first track (in the same descending
// order) with both a stable begin and a stable end contributes exactly
// one speed estimate.
func (e *Engine) Finish() RunResult {
	var result RunResult

	if e.tracks.Len() == 0 {
		return result
	}

	ordered := append([]*PeakHistory(nil), e.tracks.Tracks()...)
	sortBySumOfHeightsDescending(ordered)

	stepDuration := float64(e.cfg.StepSize) / e.cfg.SampleRate

	dominant := ordered[0]
	for _, p := range dominant.Peaks() {
		result.DominatingFrequencies = append(result.DominatingFrequencies, FrequencyFeature{
			Timestamp:   p.Timestamp,
			DurationSec: stepDuration,
			FrequencyHz: FreqForBin(p.InterpolatedPosition, e.cfg.SampleRate, e.cfg.BlockSize),
		})
	}

	for _, tr := range ordered {
		begin, hasBegin := tr.StableBegin(e.cfg.StableBeginRunLength)
		end, hasEnd := tr.StableEnd(e.cfg.StableEndRunLength)
		if !hasBegin || !hasEnd {
			continue
		}
		result.SpeedEstimate = &SpeedFeature{
			Timestamp:   begin.Timestamp,
			DurationSec: end.Timestamp.Sub(begin.Timestamp).Seconds(),
			SpeedKMH:    SpeedMovingSource(begin.InterpolatedPosition, end.InterpolatedPosition),
		}
		break
	}

	return result
}

// Tracks exposes the live TrackSet for diagnostics and testing.
func (e *Engine) Tracks() *TrackSet {
	return &e.tracks
}

func sortBySumOfHeightsDescending(tracks []*PeakHistory) {
	for i := 1; i < len(tracks); i++ {
		for j := i; j > 0 && tracks[j-1].SumOfHeights() < tracks[j].SumOfHeights(); j-- {
			tracks[j-1], tracks[j] = tracks[j], tracks[j-1]
		}
	}
}
