// Package wavio decodes a WAV file to normalized mono float64 samples.
package wavio

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// AudioDecoder is a narrow, format-independent interface to an audio
// source; Decoder implements it. The STFT Framer itself takes a plain
// sample slice (see Decoder.ReadAll).
type AudioDecoder interface {
	// ReadChunk returns up to n samples, normalized to [-1, 1]. It
	// returns fewer than n samples (possibly zero) with a nil error at
	// end of stream.
	ReadChunk(n int) ([]float64, error)
	SampleRate() int
	NumChannels() int
	Close() error
}

// Decoder reads a mono PCM WAV file.
type Decoder struct {
	file     *os.File
	decoder  *wav.Decoder
	format   *audio.Format
	bitDepth int
}

// Open opens path as a WAV file and validates it is mono. Non-mono input
// is the configuration-invalid error spec.md §7 assigns to channel
// counts outside [1,1].
func Open(path string) (*Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wavio: open %q: %w", path, err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("wavio: %q is not a valid WAV file", path)
	}
	if err := dec.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("wavio: seek to PCM data in %q: %w", path, err)
	}

	numChans := int(dec.NumChans)
	if numChans != 1 {
		f.Close()
		return nil, fmt.Errorf("wavio: %q has %d channels, only mono (1) is supported", path, numChans)
	}

	format := &audio.Format{NumChannels: numChans, SampleRate: int(dec.SampleRate)}

	return &Decoder{
		file:     f,
		decoder:  dec,
		format:   format,
		bitDepth: int(dec.BitDepth),
	}, nil
}

// SampleRate returns the file's sample rate in Hz.
func (d *Decoder) SampleRate() int {
	return int(d.decoder.SampleRate)
}

// NumChannels returns the file's channel count (always 1 after Open).
func (d *Decoder) NumChannels() int {
	return d.format.NumChannels
}

// ReadChunk reads up to n samples, normalized to [-1, 1] using the
// source bit depth.
func (d *Decoder) ReadChunk(n int) ([]float64, error) {
	buf := &audio.IntBuffer{
		Format:         d.format,
		Data:           make([]int, n),
		SourceBitDepth: d.bitDepth,
	}

	read, err := d.decoder.PCMBuffer(buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("wavio: read chunk: %w", err)
	}
	if read == 0 {
		return nil, nil
	}

	fullScale := float64(int(1) << (d.bitDepth - 1))
	out := make([]float64, read)
	for i := 0; i < read; i++ {
		out[i] = float64(buf.Data[i]) / fullScale
	}
	return out, nil
}

// Close releases the underlying file handle.
func (d *Decoder) Close() error {
	return d.file.Close()
}

// ReadAll decodes the entire file to a normalized sample slice. Intended
// for the offline batch CLI, which retains the whole recording in memory
// per spec.md's "offline batch is fine" non-goal on bounded streaming.
func (d *Decoder) ReadAll() ([]float64, error) {
	var samples []float64
	const chunkSize = 1 << 16
	for {
		chunk, err := d.ReadChunk(chunkSize)
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			break
		}
		samples = append(samples, chunk...)
	}
	return samples, nil
}
