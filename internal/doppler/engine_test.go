package doppler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wunderwelt/dopplerspeed/internal/config"
)

// buildSpectrum synthesizes one block's interleaved complex spectrum with
// a flat baseline magnitude everywhere, a single prominent bump at bin and
// a one-bin dip below the baseline right after it. The dip gives the bump
// the rising right-hand valley the Peak Finder needs to confirm it, so the
// Peak Finder sees exactly one local maximum.
func buildSpectrum(blockSize, bin int, bump, baseline float64) []float64 {
	n := blockSize/2 + 1
	spectrum := make([]float64, 2*n)
	for b := 0; b < n; b++ {
		spectrum[2*b] = baseline
	}
	spectrum[2*bin] = bump
	spectrum[2*(bin+1)] = baseline / 10
	return spectrum
}

func testEngineConfig(t *testing.T, overrides *config.TuningConfig) config.EngineConfig {
	t.Helper()
	cfg, err := config.EngineConfigFromTuning(44100, 1024, 1024, overrides)
	require.NoError(t, err)
	return cfg
}

func TestEngineSteadyToneProducesConstantTrajectory(t *testing.T) {
	tuning := config.EmptyTuningConfig()
	require.NoError(t, tuning.Set(config.IDUpperThresholdFrequency, "20000"))
	require.NoError(t, tuning.Set(config.IDMovingFFTAverageWidth, "1"))
	require.NoError(t, tuning.Set(config.IDPeakDetectionTime, "10"))
	require.NoError(t, tuning.Set(config.IDPeakDetectionHeightThreshold, "15"))
	cfg := testEngineConfig(t, tuning)

	e := NewEngine(cfg, nil, nil)
	for i := 0; i < 6; i++ {
		ts := TimestampFromDuration(time.Duration(i) * 100 * time.Millisecond)
		e.Process(buildSpectrum(cfg.BlockSize, 50, 1.0, 0.001), ts)
	}

	result := e.Finish()
	require.NotEmpty(t, result.DominatingFrequencies)
	expectedHz := cfg.FreqForBin(50)
	for _, f := range result.DominatingFrequencies {
		assert.InDelta(t, expectedHz, f.FrequencyHz, 1e-6)
	}
	if result.SpeedEstimate != nil {
		assert.InDelta(t, 0.0, result.SpeedEstimate.SpeedKMH, 1e-6)
	}
}

func TestEngineDownwardSweepProducesPositiveSpeed(t *testing.T) {
	tuning := config.EmptyTuningConfig()
	require.NoError(t, tuning.Set(config.IDUpperThresholdFrequency, "20000"))
	require.NoError(t, tuning.Set(config.IDMovingFFTAverageWidth, "1"))
	require.NoError(t, tuning.Set(config.IDPeakDetectionTime, "10"))
	cfg := testEngineConfig(t, tuning)

	e := NewEngine(cfg, nil, nil)
	bins := []int{110, 110, 110, 106, 102, 98, 94, 90, 90, 90, 90}
	for i, bin := range bins {
		ts := TimestampFromDuration(time.Duration(i) * 100 * time.Millisecond)
		e.Process(buildSpectrum(cfg.BlockSize, bin, 1.0, 0.001), ts)
	}

	result := e.Finish()
	require.NotNil(t, result.SpeedEstimate, "a clean downward sweep with stable ends should yield a speed estimate")
	assert.Greater(t, result.SpeedEstimate.SpeedKMH, 0.0, "an approaching-then-leaving source should report positive speed")
}

func TestEngineBelowThresholdNoiseYieldsEmptyResult(t *testing.T) {
	tuning := config.EmptyTuningConfig()
	require.NoError(t, tuning.Set(config.IDUpperThresholdFrequency, "20000"))
	require.NoError(t, tuning.Set(config.IDMovingFFTAverageWidth, "1"))
	cfg := testEngineConfig(t, tuning)

	e := NewEngine(cfg, nil, nil)
	for i := 0; i < 6; i++ {
		ts := TimestampFromDuration(time.Duration(i) * 100 * time.Millisecond)
		// bump barely above baseline: prominence well under the default
		// 15dB admission threshold.
		e.Process(buildSpectrum(cfg.BlockSize, 50, 0.0011, 0.001), ts)
	}

	result := e.Finish()
	assert.Empty(t, result.DominatingFrequencies)
	assert.Nil(t, result.SpeedEstimate)
}

func TestEngineAdmissionWindowRespected(t *testing.T) {
	tuning := config.EmptyTuningConfig()
	require.NoError(t, tuning.Set(config.IDUpperThresholdFrequency, "20000"))
	require.NoError(t, tuning.Set(config.IDMovingFFTAverageWidth, "1"))
	require.NoError(t, tuning.Set(config.IDPeakDetectionTime, "1.5"))
	cfg := testEngineConfig(t, tuning)

	e := NewEngine(cfg, nil, nil)
	// First tonal arrives well after the 1.5s admission window closes.
	for i := 0; i < 4; i++ {
		ts := TimestampFromDuration(time.Duration(2000+i*100) * time.Millisecond)
		e.Process(buildSpectrum(cfg.BlockSize, 50, 1.0, 0.001), ts)
	}

	result := e.Finish()
	assert.Empty(t, result.DominatingFrequencies, "a tonal appearing after the admission window must not be tracked")
}
