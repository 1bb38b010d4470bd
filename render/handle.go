package render

import (
	"math"

	"github.com/cwbudde/algo-blend/clip"
	"github.com/cwbudde/algo-blend/dsp"
	"github.com/cwbudde/algo-blend/layer"
)

const (
	speedOfSound = 343.0
	minDistance  = 1.0
)

var (
	_ layer.AudioHandle = (*Handle)(nil)
	_ layer.Positioner  = (*Handle)(nil)
)

// Handle is one mixer voice. It implements layer.AudioHandle and io.Closer.
// Methods must be called from the goroutine that drives the mixer, or inside
// Mixer.Locked.
type Handle struct {
	m  *Mixer
	id uint64

	clip     *clip.Clip
	pos      float64
	pitch    float64
	playing  bool
	virtual  bool
	startSeq uint64

	volume float64
	gain   float32

	routing layer.Routing

	cutoff float64
	filter *dsp.StereoLowpass

	distance     float64
	prevDistance float64
	hasDistance  bool
}

// Play starts c from the beginning. Clips not created by the clip package
// are ignored.
func (h *Handle) Play(c layer.ClipHandle) {
	cl, ok := c.(*clip.Clip)
	if !ok || cl.Frames() == 0 {
		return
	}
	h.clip = cl
	h.pos = 0
	h.playing = true
	h.gain = float32(h.volume)
	h.m.seq++
	h.startSeq = h.m.seq
	if h.filter != nil {
		h.filter.Reset()
	}
}

// Pause stops playback and keeps the position.
func (h *Handle) Pause() { h.playing = false }

// Resume continues a paused clip. A clip that ran to its end stays stopped.
func (h *Handle) Resume() {
	if h.clip != nil && h.pos < float64(h.clip.Frames()) {
		h.playing = true
	}
}

// IsPlaying reports whether the handle advances its clip.
func (h *Handle) IsPlaying() bool { return h.playing }

// Virtual reports whether voice limiting muted the handle in the last block.
func (h *Handle) Virtual() bool { return h.virtual }

// SetVolume sets the target gain. Changes are smoothed per sample.
func (h *Handle) SetVolume(v float64) {
	if math.IsNaN(v) || v < 0 {
		v = 0
	}
	h.volume = v
}

// Volume returns the target gain.
func (h *Handle) Volume() float64 { return h.volume }

// SetPitch sets the playback rate multiplier. Non-positive values are ignored.
func (h *Handle) SetPitch(p float64) {
	if p > 0 && !math.IsInf(p, 0) {
		h.pitch = p
	}
}

// Pitch returns the playback rate multiplier.
func (h *Handle) Pitch() float64 { return h.pitch }

// SetStartOffset moves the position of the current clip.
func (h *Handle) SetStartOffset(seconds float64) {
	if h.clip == nil || math.IsNaN(seconds) {
		return
	}
	frames := float64(h.clip.Frames())
	h.pos = min(max(seconds*float64(h.clip.SampleRate), 0), frames-1)
}

// Position returns the playback position in seconds.
func (h *Handle) Position() float64 {
	if h.clip == nil {
		return 0
	}
	return h.pos / float64(h.clip.SampleRate)
}

// ClipDuration returns the current clip length in seconds, or 0.
func (h *Handle) ClipDuration() float64 { return h.clip.Duration() }

// LowPassCutoff returns the requested cutoff. The filter is created on first
// use at layer.DefaultCutoffHz.
func (h *Handle) LowPassCutoff() float64 {
	h.ensureFilter()
	return h.cutoff
}

// SetLowPassCutoff retunes the filter without clearing its state. Cutoffs at
// or above layer.DefaultCutoffHz bypass it.
func (h *Handle) SetLowPassCutoff(hz float64) {
	if math.IsNaN(hz) {
		return
	}
	h.ensureFilter()
	h.cutoff = hz
	h.filter.SetCutoff(hz)
}

func (h *Handle) ensureFilter() {
	if h.filter == nil {
		h.cutoff = layer.DefaultCutoffHz
		h.filter = dsp.NewStereoLowpass(h.m.sampleRate, h.cutoff)
	}
}

// Configure stores the routing.
func (h *Handle) Configure(r layer.Routing) { h.routing = r }

// Routing returns the configured routing.
func (h *Handle) Routing() layer.Routing { return h.routing }

// SetDistance places the source d units from the listener. The change since
// the previous block drives the doppler shift.
func (h *Handle) SetDistance(d float64) {
	if math.IsNaN(d) || d < 0 {
		d = 0
	}
	if !h.hasDistance {
		h.prevDistance = d
		h.hasDistance = true
	}
	h.distance = d
}

// Close removes the handle from its mixer.
func (h *Handle) Close() error {
	h.playing = false
	h.m.remove(h)
	return nil
}

// spatialGain is the distance attenuation blended by SpatialBlend.
func (h *Handle) spatialGain() float64 {
	blend := clampUnit(h.routing.SpatialBlend)
	if blend == 0 {
		return 1
	}
	maxDist := h.routing.MaxDistance
	if maxDist <= 0 {
		maxDist = minDistance
	}
	d := min(h.distance, maxDist)
	var g float64
	if h.routing.Rolloff != nil {
		g = clampUnit(h.routing.Rolloff.Evaluate(d / maxDist))
	} else {
		g = minDistance / max(d, minDistance)
	}
	return 1 - blend + blend*g
}

// panGains is an equal-power pan of the 2D part of the signal.
func (h *Handle) panGains() (float32, float32) {
	p := max(-1, min(1, h.routing.Pan)) * (1 - clampUnit(h.routing.SpatialBlend))
	theta := (p + 1) * math.Pi / 4
	return float32(math.Cos(theta) * math.Sqrt2), float32(math.Sin(theta) * math.Sqrt2)
}

// dopplerFactor scales the rate from the radial speed over the last block.
func (h *Handle) dopplerFactor(blockSeconds float64) float64 {
	if h.routing.Doppler <= 0 || blockSeconds <= 0 || !h.hasDistance {
		return 1
	}
	v := (h.distance - h.prevDistance) / blockSeconds
	f := speedOfSound / (speedOfSound + h.routing.Doppler*v)
	if math.IsNaN(f) || f <= 0 {
		f = 0.5
	}
	f = min(2, max(0.5, f))
	return 1 + clampUnit(h.routing.SpatialBlend)*(f-1)
}

// render adds up to len(outL) frames into the buses. Virtual voices advance
// without contributing.
func (h *Handle) render(outL, outR, send []float32, smooth float32, groupGain float32) {
	if !h.playing || h.clip == nil {
		return
	}
	frames := len(outL)
	blockSeconds := float64(frames) / float64(h.m.sampleRate)
	step := h.pitch * float64(h.clip.SampleRate) / float64(h.m.sampleRate) * h.dopplerFactor(blockSeconds)
	h.prevDistance = h.distance

	n := h.clip.Frames()
	target := float32(h.volume * h.spatialGain())
	gl, gr := h.panGains()
	sendLevel := float32(max(0, h.routing.ReverbZoneMix))
	filtered := h.filter != nil && h.cutoff < layer.DefaultCutoffHz

	for i := range frames {
		idx := int(h.pos)
		frac := float32(h.pos - float64(idx))
		l := dsp.CubicInterpolate(h.window(h.clip.Left, idx), frac)
		r := dsp.CubicInterpolate(h.window(h.clip.Right, idx), frac)
		if filtered {
			l, r = h.filter.Process(l, r)
		}
		h.gain += (target - h.gain) * smooth
		if !h.virtual {
			g := h.gain * groupGain
			outL[i] += l * g * gl
			outR[i] += r * g * gr
			if send != nil && sendLevel > 0 {
				send[i] += 0.5 * (l + r) * g * sendLevel
			}
		}

		h.pos += step
		if h.pos >= float64(n) {
			if !h.routing.Loop {
				h.pos = float64(n)
				h.playing = false
				return
			}
			h.pos = math.Mod(h.pos, float64(n))
		}
	}
}

// window returns the four samples around idx for cubic interpolation,
// wrapping for looped clips and zero padding otherwise.
func (h *Handle) window(data []float32, idx int) [4]float32 {
	var w [4]float32
	n := len(data)
	for k := range 4 {
		j := idx - 1 + k
		if j < 0 || j >= n {
			if !h.routing.Loop {
				continue
			}
			j = ((j % n) + n) % n
		}
		w[k] = data[j]
	}
	return w
}

func clampUnit(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
