package config

import "fmt"

// EngineConfig is the fully resolved parameter set the engine is
// constructed from: sample geometry plus every spec.md §6 parameter,
// already defaulted. Unlike TuningConfig its fields are concrete values,
// not optional overrides — it is what EngineConfigFromTuning hands to the engine
// after folding defaults, file, and CLI-flag layers together.
type EngineConfig struct {
	SampleRate float64
	BlockSize  int
	StepSize   int

	PeakDetectionTime            float64
	PeakDetectionHeightThreshold float64
	PeakTracingHeightThreshold   float64
	UpperThresholdFrequency      float64
	MaxBinJump                   int
	BroadestInterruption         int
	MovingFFTAverageWidth        int
	WriteDebugCSV                bool
	RescueApproachBeforeSeconds  float64
	RescueLeaveAfterSeconds      float64
	StableBeginRunLength         int
	StableEndRunLength           int
}

// EngineConfigFromTuning resolves an EngineConfig from sample geometry and
// a (possibly partial) TuningConfig. It performs the configuration-invalid
// checks spec.md §7 assigns to initialisation: channel count is checked by
// the caller (WAV ingest only ever presents mono), block size must be even
// since spec.md §4.1 requires an N/2 bin count.
func EngineConfigFromTuning(sampleRate float64, stepSize, blockSize int, cfg *TuningConfig) (EngineConfig, error) {
	if blockSize%2 != 0 {
		return EngineConfig{}, fmt.Errorf("block_size must be even, got %d", blockSize)
	}
	if blockSize <= 0 || stepSize <= 0 {
		return EngineConfig{}, fmt.Errorf("block_size and step_size must be positive, got block_size=%d step_size=%d", blockSize, stepSize)
	}
	if sampleRate <= 0 {
		return EngineConfig{}, fmt.Errorf("sample_rate must be positive, got %f", sampleRate)
	}
	if cfg == nil {
		cfg = EmptyTuningConfig()
	}

	return EngineConfig{
		SampleRate: sampleRate,
		BlockSize:  blockSize,
		StepSize:   stepSize,

		PeakDetectionTime:            cfg.GetPeakDetectionTime(),
		PeakDetectionHeightThreshold: cfg.GetPeakDetectionHeightThreshold(),
		PeakTracingHeightThreshold:   cfg.GetPeakTracingHeightThreshold(),
		UpperThresholdFrequency:      cfg.GetUpperThresholdFrequency(),
		MaxBinJump:                   cfg.GetMaxBinJump(),
		BroadestInterruption:         cfg.GetBroadestInterruption(),
		MovingFFTAverageWidth:        cfg.GetMovingFFTAverageWidth(),
		WriteDebugCSV:                cfg.GetWriteDebugCSV(),
		RescueApproachBeforeSeconds:  cfg.GetRescueApproachBeforeSeconds(),
		RescueLeaveAfterSeconds:      cfg.GetRescueLeaveAfterSeconds(),
		StableBeginRunLength:         cfg.GetStableBeginRunLength(),
		StableEndRunLength:           cfg.GetStableEndRunLength(),
	}, nil
}

// DefaultEngineConfig returns an EngineConfig using only spec.md §6
// defaults, for the given sample geometry. Convenient for tests.
func DefaultEngineConfig(sampleRate float64, stepSize, blockSize int) EngineConfig {
	cfg, err := EngineConfigFromTuning(sampleRate, stepSize, blockSize, EmptyTuningConfig())
	if err != nil {
		panic(err)
	}
	return cfg
}

// BinForFrequency converts a frequency in Hz to a (fractional) bin index.
func (c EngineConfig) BinForFrequency(freq float64) float64 {
	return freq * float64(c.BlockSize) / c.SampleRate
}

// FreqForBin converts a (fractional) bin index to a frequency in Hz.
func (c EngineConfig) FreqForBin(bin float64) float64 {
	return c.SampleRate * bin / float64(c.BlockSize)
}
