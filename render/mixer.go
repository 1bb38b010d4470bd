// Package render is a small software mixer whose voices implement
// layer.AudioHandle, so channels can be heard offline or through a live
// audio device.
package render

import (
	"encoding/binary"
	"math"
	"slices"
	"sync"

	"github.com/cwbudde/algo-approx"

	"github.com/cwbudde/algo-blend/reverb"
)

// DefaultSmoothing is the volume de-zipper time constant in seconds.
const DefaultSmoothing = 0.005

// Mixer sums handles into a stereo bus with an optional reverb send.
type Mixer struct {
	mu sync.Mutex

	sampleRate int
	maxVoices  int
	handles    []*Handle
	seq        uint64
	nextID     uint64

	smooth     float32
	masterGain float32
	groupGain  map[string]float32

	reverb    *reverb.Convolver
	reverbWet float32

	outL, outR, send []float32
}

// NewMixer creates a mixer. maxVoices <= 0 disables voice limiting.
func NewMixer(sampleRate, maxVoices int) *Mixer {
	m := &Mixer{
		sampleRate: sampleRate,
		maxVoices:  maxVoices,
		masterGain: 1,
		groupGain:  make(map[string]float32),
		reverbWet:  1,
	}
	m.SetSmoothing(DefaultSmoothing)
	return m
}

// SampleRate returns the output rate.
func (m *Mixer) SampleRate() int { return m.sampleRate }

// SetSmoothing sets the volume smoothing time constant. Zero disables it.
func (m *Mixer) SetSmoothing(seconds float64) {
	if seconds <= 0 {
		m.smooth = 1
		return
	}
	m.smooth = 1 - approx.FastExp(float32(-1/(seconds*float64(m.sampleRate))))
}

// SetMasterGain scales the final mix.
func (m *Mixer) SetMasterGain(g float64) { m.masterGain = float32(max(0, g)) }

// SetGroupGain scales every handle routed to the named mixer group.
func (m *Mixer) SetGroupGain(group string, g float64) {
	m.groupGain[group] = float32(max(0, g))
}

// SetReverb installs the shared reverb send. Handles feed it in proportion
// to their ReverbZoneMix. A nil convolver removes it.
func (m *Mixer) SetReverb(c *reverb.Convolver, wet float64) {
	m.reverb = c
	m.reverbWet = float32(max(0, wet))
}

// NewHandle allocates a silent voice on this mixer.
func (m *Mixer) NewHandle() *Handle {
	m.nextID++
	h := &Handle{m: m, id: m.nextID, pitch: 1, volume: 1, gain: 1}
	m.handles = append(m.handles, h)
	return h
}

// Handles returns the live handles in creation order.
func (m *Mixer) Handles() []*Handle { return slices.Clone(m.handles) }

func (m *Mixer) remove(h *Handle) {
	m.handles = slices.DeleteFunc(m.handles, func(x *Handle) bool { return x == h })
}

// Locked runs fn while holding the lock that Read takes.
func (m *Mixer) Locked(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
}

// Process renders numFrames of stereo interleaved audio.
func (m *Mixer) Process(numFrames int) []float32 {
	out := make([]float32, numFrames*2)
	m.processInto(out)
	return out
}

// Read serves float32 little-endian stereo frames, for use as an audio
// device stream. It never returns an error.
func (m *Mixer) Read(p []byte) (int, error) {
	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	buf := make([]float32, frames*2)
	m.Locked(func() { m.processInto(buf) })
	for i, v := range buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return frames * 8, nil
}

func (m *Mixer) processInto(out []float32) {
	frames := len(out) / 2
	m.outL = grow(m.outL, frames)
	m.outR = grow(m.outR, frames)
	var send []float32
	if m.reverb != nil {
		m.send = grow(m.send, frames)
		send = m.send
	}

	m.limitVoices()
	for _, h := range m.handles {
		g, ok := m.groupGain[h.routing.MixerGroup]
		if !ok {
			g = 1
		}
		h.render(m.outL, m.outR, send, m.smooth, g)
	}
	if m.reverb != nil {
		wetL := make([]float32, frames)
		wetR := make([]float32, frames)
		m.reverb.ProcessAdd(send, wetL, wetR)
		for i := range frames {
			m.outL[i] += wetL[i] * m.reverbWet
			m.outR[i] += wetR[i] * m.reverbWet
		}
	}
	for i := range frames {
		out[i*2] = m.outL[i] * m.masterGain
		out[i*2+1] = m.outR[i] * m.masterGain
	}
}

// limitVoices keeps the maxVoices most important playing handles audible.
// Lower Priority values win; among equals the most recently started wins.
func (m *Mixer) limitVoices() {
	var playing []*Handle
	for _, h := range m.handles {
		h.virtual = false
		if h.playing {
			playing = append(playing, h)
		}
	}
	if m.maxVoices <= 0 || len(playing) <= m.maxVoices {
		return
	}
	slices.SortStableFunc(playing, func(a, b *Handle) int {
		if a.routing.Priority != b.routing.Priority {
			return a.routing.Priority - b.routing.Priority
		}
		switch {
		case a.startSeq > b.startSeq:
			return -1
		case a.startSeq < b.startSeq:
			return 1
		}
		return 0
	})
	for _, h := range playing[m.maxVoices:] {
		h.virtual = true
	}
}

func grow(buf []float32, n int) []float32 {
	if cap(buf) < n {
		return make([]float32, n)
	}
	buf = buf[:n]
	clear(buf)
	return buf
}
