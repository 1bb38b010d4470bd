// Package reverb provides the shared reverb send bus: a synthetic stereo room
// impulse response and a streaming partitioned convolver.
package reverb

import (
	"fmt"
	"math"
	"math/rand"
)

// RoomConfig controls synthetic room IR generation.
type RoomConfig struct {
	SampleRate  int
	Length      float64 // seconds
	Seed        int64
	Reflections int
	TailLevel   float64
	Width       float64 // 0 = mono tail, 1 = fully decorrelated
	Decay       float64 // seconds to -60 dB
	Damping     float64 // one-pole smoothing on the tail noise, 0..1
	FadeOut     float64 // cosine fade at the end, seconds
	Peak        float64
}

// DefaultRoomConfig returns a small, soft room.
func DefaultRoomConfig(sampleRate int) RoomConfig {
	return RoomConfig{
		SampleRate:  sampleRate,
		Length:      1.2,
		Seed:        1,
		Reflections: 18,
		TailLevel:   0.08,
		Width:       0.7,
		Decay:       1.0,
		Damping:     0.6,
		FadeOut:     0.02,
		Peak:        0.5,
	}
}

// Validate checks the configuration.
func (c *RoomConfig) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	}
	if c.Length <= 0 {
		return fmt.Errorf("length must be > 0")
	}
	if c.Reflections < 0 {
		return fmt.Errorf("reflections must be >= 0")
	}
	if c.TailLevel < 0 {
		return fmt.Errorf("tail level must be >= 0")
	}
	if c.Width < 0 || c.Width > 1 {
		return fmt.Errorf("width must be in [0,1]")
	}
	if c.Decay <= 0 {
		return fmt.Errorf("decay must be > 0")
	}
	if c.Damping < 0 || c.Damping >= 1 {
		return fmt.Errorf("damping must be in [0,1)")
	}
	if c.Peak <= 0 {
		return fmt.Errorf("peak must be > 0")
	}
	return nil
}

// GenerateRoom synthesizes a stereo IR: sparse early reflections in the first
// 60 ms followed by an exponentially decaying noise tail.
func GenerateRoom(cfg RoomConfig) ([]float32, []float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	sr := float64(cfg.SampleRate)
	n := max(1, int(math.Round(cfg.Length*sr)))
	left := make([]float64, n)
	right := make([]float64, n)
	rng := rand.New(rand.NewSource(cfg.Seed))

	for range cfg.Reflections {
		t := 0.002 + 0.058*rng.Float64()
		idx := int(t * sr)
		if idx >= n {
			continue
		}
		amp := (0.2 + 0.5*rng.Float64()) * math.Pow(10, -3*t/cfg.Decay)
		side := (rng.Float64()*2 - 1) * cfg.Width
		left[idx] += amp * (1 - 0.5*side)
		right[idx] += amp * (1 + 0.5*side)
	}

	if cfg.TailLevel > 0 {
		// -60 dB after Decay seconds.
		k := math.Log(1000) / cfg.Decay
		var tl, tr float64
		for i := range n {
			env := math.Exp(-k * float64(i) / sr)
			common := rng.NormFloat64()
			nl := (1-cfg.Width)*common + cfg.Width*rng.NormFloat64()
			nr := (1-cfg.Width)*common + cfg.Width*rng.NormFloat64()
			tl = cfg.Damping*tl + (1-cfg.Damping)*nl
			tr = cfg.Damping*tr + (1-cfg.Damping)*nr
			left[i] += cfg.TailLevel * env * tl
			right[i] += cfg.TailLevel * env * tr
		}
	}

	fadeOut(left, cfg.FadeOut, cfg.SampleRate)
	fadeOut(right, cfg.FadeOut, cfg.SampleRate)

	peak := math.Max(maxAbs(left), maxAbs(right))
	if peak < 1e-12 {
		peak = 1e-12
	}
	g := cfg.Peak / peak
	outL := make([]float32, n)
	outR := make([]float32, n)
	for i := range n {
		outL[i] = float32(left[i] * g)
		outR[i] = float32(right[i] * g)
	}
	return outL, outR, nil
}

func fadeOut(buf []float64, seconds float64, sampleRate int) {
	m := min(len(buf), int(math.Round(seconds*float64(sampleRate))))
	if m <= 0 {
		return
	}
	start := len(buf) - m
	for i := range m {
		buf[start+i] *= 0.5 * (1 + math.Cos(math.Pi*float64(i)/float64(m)))
	}
}

func maxAbs(x []float64) float64 {
	m := 0.0
	for _, v := range x {
		m = math.Max(m, math.Abs(v))
	}
	return m
}
