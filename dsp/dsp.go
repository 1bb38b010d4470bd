package dsp

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// ButterworthQ is the Q of a maximally flat second-order section.
const ButterworthQ = 0.7071067811865476

// Biquad implements a second-order IIR filter (no heap allocations in Process)
type Biquad struct {
	b0, b1, b2 float32
	a1, a2     float32

	x1, x2 float32
	y1, y2 float32
}

// NewLowpass creates a lowpass biquad filter.
func NewLowpass(cutoff, sampleRate, q float32) *Biquad {
	b := &Biquad{}
	b.SetLowpass(cutoff, sampleRate, q)
	return b
}

// SetLowpass recomputes lowpass coefficients in place. The filter history is
// kept so that a cutoff sweep does not click.
func (b *Biquad) SetLowpass(cutoff, sampleRate, q float32) {
	if q <= 0 {
		q = ButterworthQ
	}
	w0 := 2.0 * math.Pi * float64(cutoff) / float64(sampleRate)
	alpha := math.Sin(w0) / (2.0 * float64(q))
	cosw0 := math.Cos(w0)

	a0 := 1.0 + alpha
	b.b0 = float32((1.0 - cosw0) / 2.0 / a0)
	b.b1 = float32((1.0 - cosw0) / a0)
	b.b2 = b.b0
	b.a1 = float32(-2.0 * cosw0 / a0)
	b.a2 = float32((1.0 - alpha) / a0)
}

// Process processes one sample through the biquad filter
func (b *Biquad) Process(input float32) float32 {
	// Direct Form I
	output := b.b0*input + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2
	output = float32(dspcore.FlushDenormals(float64(output)))

	b.x2 = b.x1
	b.x1 = input
	b.y2 = b.y1
	b.y1 = output

	return output
}

// Reset clears the filter state
func (b *Biquad) Reset() {
	b.x1, b.x2 = 0, 0
	b.y1, b.y2 = 0, 0
}

// StereoLowpass is a pair of lowpass sections sharing one cutoff.
type StereoLowpass struct {
	left, right Biquad
	sampleRate  float32
	q           float32
	cutoff      float32
}

// NewStereoLowpass creates a stereo lowpass at cutoff Hz.
func NewStereoLowpass(sampleRate int, cutoff float64) *StereoLowpass {
	s := &StereoLowpass{sampleRate: float32(sampleRate), q: ButterworthQ}
	s.SetCutoff(cutoff)
	return s
}

// SetCutoff retunes both sections. The cutoff is clamped to [10 Hz, 0.45*fs].
func (s *StereoLowpass) SetCutoff(hz float64) {
	c := float32(hz)
	if c < 10 {
		c = 10
	}
	if nyq := 0.45 * s.sampleRate; c > nyq {
		c = nyq
	}
	if c == s.cutoff {
		return
	}
	s.cutoff = c
	s.left.SetLowpass(c, s.sampleRate, s.q)
	s.right.SetLowpass(c, s.sampleRate, s.q)
}

// Cutoff returns the effective (clamped) cutoff in Hz.
func (s *StereoLowpass) Cutoff() float64 { return float64(s.cutoff) }

// Process filters one stereo frame.
func (s *StereoLowpass) Process(l, r float32) (float32, float32) {
	return s.left.Process(l), s.right.Process(r)
}

// Reset clears both histories.
func (s *StereoLowpass) Reset() {
	s.left.Reset()
	s.right.Reset()
}

// CubicInterpolate reads between samples[1] and samples[2] with 3rd order
// Lagrange interpolation. frac is in [0,1).
func CubicInterpolate(samples [4]float32, frac float32) float32 {
	d := frac
	c0 := samples[1]
	c1 := samples[2] - samples[0]/3.0 - samples[1]/2.0 - samples[3]/6.0
	c2 := samples[0]/2.0 - samples[1] + samples[2]/2.0
	c3 := samples[1]/2.0 - samples[2]/2.0 + (samples[3]-samples[0])/6.0
	return c0 + d*(c1+d*(c2+d*c3))
}
