// Package plotting renders the dominant track's frequency trajectory for
// human inspection of a run, as a reporting convenience around the core
// engine.
package plotting

import (
	"fmt"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/wunderwelt/dopplerspeed/internal/doppler"
)

// Trajectory renders the dominant track's dominating-frequencies series
// to a PNG at path: a line plot of frequency over time, with the stable
// begin/end points marked and a straight reference line between them
// labelled with the derived km/h value.
//
// Rendering failure is meant to be logged by the caller and not fail the
// run; Trajectory only returns the error for that purpose.
func Trajectory(path string, frequencies []doppler.FrequencyFeature, speed *doppler.SpeedFeature) error {
	if len(frequencies) == 0 {
		return fmt.Errorf("plotting: no frequency trajectory to render")
	}

	p := plot.New()
	p.Title.Text = "Doppler pass-by frequency trajectory"
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "frequency (Hz)"

	pts := make(plotter.XYs, len(frequencies))
	for i, f := range frequencies {
		pts[i] = plotter.XY{X: f.Timestamp.Seconds64(), Y: f.FrequencyHz}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("plotting: build trajectory line: %w", err)
	}
	line.Width = vg.Points(1.5)
	p.Add(line)

	if speed != nil {
		fitLine, err := plotter.NewLine(plotter.XYs{
			{X: speed.Timestamp.Seconds64(), Y: frequencyAt(frequencies, speed.Timestamp)},
			{X: speed.Timestamp.Seconds64() + speed.DurationSec, Y: frequencyAt(frequencies, endTimestamp(speed))},
		})
		if err == nil {
			fitLine.Width = vg.Points(2)
			fitLine.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
			p.Add(fitLine)
			p.Legend.Add(fmt.Sprintf("%.1f km/h", speed.SpeedKMH), fitLine)
		}

		markers, err := plotter.NewScatter(plotter.XYs{
			{X: speed.Timestamp.Seconds64(), Y: frequencyAt(frequencies, speed.Timestamp)},
			{X: speed.Timestamp.Seconds64() + speed.DurationSec, Y: frequencyAt(frequencies, endTimestamp(speed))},
		})
		if err == nil {
			p.Add(markers)
		}
	}

	return p.Save(12*vg.Inch, 5*vg.Inch, path)
}

func frequencyAt(frequencies []doppler.FrequencyFeature, ts doppler.Timestamp) float64 {
	closest := frequencies[0]
	bestDiff := absDuration(closest.Timestamp.Sub(ts))
	for _, f := range frequencies[1:] {
		diff := absDuration(f.Timestamp.Sub(ts))
		if diff < bestDiff {
			closest = f
			bestDiff = diff
		}
	}
	return closest.FrequencyHz
}

func endTimestamp(speed *doppler.SpeedFeature) doppler.Timestamp {
	return doppler.TimestampFromDuration(speed.Timestamp.Duration() + time.Duration(speed.DurationSec*float64(time.Second)))
}

func absDuration(d interface{ Seconds() float64 }) float64 {
	s := d.Seconds()
	if s < 0 {
		return -s
	}
	return s
}
