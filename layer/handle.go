package layer

import "github.com/cwbudde/algo-blend/curve"

// DefaultCutoffHz is the low-pass cutoff that counts as "no filtering".
const DefaultCutoffHz = 22000.0

// ClipHandle is an opaque clip reference. A nil handle or one with a
// non-positive duration is treated as unusable and skipped.
type ClipHandle interface {
	Duration() float64
}

// AudioHandle is the single audio-emitting voice a Channel owns. Handles that
// also implement io.Closer are closed when the channel is closed.
type AudioHandle interface {
	Play(clip ClipHandle)
	Pause()
	Resume()
	IsPlaying() bool
	SetVolume(v float64)
	SetPitch(p float64)
	// SetStartOffset moves the playback position of the current clip, in seconds.
	SetStartOffset(seconds float64)
	ClipDuration() float64
	LowPassCutoff() float64
	SetLowPassCutoff(hz float64)
	// Configure applies pass-through routing once, when the channel is created.
	Configure(r Routing)
}

// Routing is passed through to the audio system untouched.
type Routing struct {
	Priority      int // 0 highest, 256 lowest
	Loop          bool
	SpatialBlend  float64 // 0 = 2D, 1 = 3D
	Pan           float64 // -1 left, 1 right
	Doppler       float64
	MaxDistance   float64
	ReverbZoneMix float64
	MixerGroup    string
	// Rolloff maps distance/MaxDistance to gain. Nil selects logarithmic rolloff.
	Rolloff *curve.Curve
}

func usable(c ClipHandle) bool {
	return c != nil && c.Duration() > 0
}
