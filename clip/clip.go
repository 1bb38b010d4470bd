// Package clip holds decoded stereo audio clips and the WAV I/O used to
// load them and to write renders.
package clip

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
)

// ErrEmpty is returned for clips without sample frames.
var ErrEmpty = errors.New("clip has no frames")

// Clip is decoded stereo audio at a fixed sample rate.
type Clip struct {
	Name       string
	Left       []float32
	Right      []float32
	SampleRate int
}

// FromSamples builds a clip from channel data. A nil right channel duplicates
// the left one.
func FromSamples(name string, left, right []float32, sampleRate int) (*Clip, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("clip %q: invalid sample rate %d", name, sampleRate)
	}
	if len(left) == 0 {
		return nil, fmt.Errorf("clip %q: %w", name, ErrEmpty)
	}
	if right == nil {
		right = left
	}
	if len(right) != len(left) {
		return nil, fmt.Errorf("clip %q: left/right length mismatch (%d vs %d)", name, len(left), len(right))
	}
	return &Clip{Name: name, Left: left, Right: right, SampleRate: sampleRate}, nil
}

// Frames returns the number of sample frames.
func (c *Clip) Frames() int {
	if c == nil {
		return 0
	}
	return len(c.Left)
}

// Duration returns the clip length in seconds. A nil clip has zero length.
func (c *Clip) Duration() float64 {
	if c == nil || c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Left)) / float64(c.SampleRate)
}

// Load decodes a mono or stereo WAV file and converts it to sampleRate.
// Channels beyond the second are ignored.
func Load(path string, sampleRate int) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("invalid wav buffer: %s", path)
	}

	numCh := buf.Format.NumChannels
	srcRate := buf.Format.SampleRate
	if srcRate <= 0 {
		return nil, fmt.Errorf("invalid wav sample-rate: %d", srcRate)
	}
	frames := len(buf.Data) / numCh
	if frames == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmpty)
	}

	left := make([]float32, frames)
	right := make([]float32, frames)
	for i := range frames {
		left[i] = buf.Data[i*numCh]
		if numCh == 1 {
			right[i] = left[i]
		} else {
			right[i] = buf.Data[i*numCh+1]
		}
	}

	if sampleRate > 0 && sampleRate != srcRate {
		if left, err = Resample(left, srcRate, sampleRate); err != nil {
			return nil, err
		}
		if right, err = Resample(right, srcRate, sampleRate); err != nil {
			return nil, err
		}
	} else {
		sampleRate = srcRate
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return FromSamples(name, left, right, sampleRate)
}

// LoadAll loads every path at sampleRate, stopping at the first failure.
func LoadAll(paths []string, sampleRate int) ([]*Clip, error) {
	out := make([]*Clip, 0, len(paths))
	for _, p := range paths {
		c, err := Load(p, sampleRate)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Resample converts one channel between rates.
func Resample(in []float32, fromRate, toRate int) ([]float32, error) {
	if fromRate == toRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, fmt.Errorf("resample %d->%d: %w", fromRate, toRate, err)
	}

	in64 := make([]float64, len(in))
	for i, v := range in {
		in64[i] = float64(v)
	}
	out64 := r.Process(in64)
	out := make([]float32, len(out64))
	for i, v := range out64 {
		out[i] = float32(v)
	}
	return out, nil
}
