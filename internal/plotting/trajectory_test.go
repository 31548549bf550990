package plotting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wunderwelt/dopplerspeed/internal/doppler"
)

func sampleFrequencies() []doppler.FrequencyFeature {
	var out []doppler.FrequencyFeature
	for i := 0; i < 5; i++ {
		out = append(out, doppler.FrequencyFeature{
			Timestamp:   doppler.Timestamp{Seconds: int64(i)},
			DurationSec: 0.1,
			FrequencyHz: 1000 - float64(i)*10,
		})
	}
	return out
}

func TestTrajectoryRendersPNGWithoutError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trajectory.png")
	speed := &doppler.SpeedFeature{
		Timestamp:   doppler.Timestamp{Seconds: 0},
		DurationSec: 4,
		SpeedKMH:    42.5,
	}

	err := Trajectory(path, sampleFrequencies(), speed)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestTrajectoryWithoutSpeedEstimateStillRenders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trajectory-no-speed.png")

	err := Trajectory(path, sampleFrequencies(), nil)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestTrajectoryRejectsEmptyFrequencies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	err := Trajectory(path, nil, nil)
	assert.Error(t, err)
}

func TestFrequencyAtPicksClosestSample(t *testing.T) {
	freqs := sampleFrequencies()
	got := frequencyAt(freqs, doppler.Timestamp{Seconds: 2})
	assert.Equal(t, freqs[2].FrequencyHz, got)
}
