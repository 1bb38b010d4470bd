package render

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/cwbudde/algo-blend/clip"
	"github.com/cwbudde/algo-blend/curve"
	"github.com/cwbudde/algo-blend/layer"
	"github.com/cwbudde/algo-blend/reverb"
)

func constClip(t *testing.T, v float32, frames int) *clip.Clip {
	t.Helper()
	data := make([]float32, frames)
	for i := range data {
		data[i] = v
	}
	c, err := clip.FromSamples("const", data, nil, 48000)
	if err != nil {
		t.Fatalf("FromSamples: %v", err)
	}
	return c
}

func left(out []float32) []float32 {
	l := make([]float32, len(out)/2)
	for i := range l {
		l[i] = out[i*2]
	}
	return l
}

func rms(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(x)))
}

func newTestMixer(maxVoices int) *Mixer {
	m := NewMixer(48000, maxVoices)
	m.SetSmoothing(0)
	return m
}

func TestHandlePlaysClipAtUnityGain(t *testing.T) {
	m := newTestMixer(0)
	h := m.NewHandle()
	h.Play(constClip(t, 0.5, 64))
	out := m.Process(32)
	for i := range 32 {
		if math.Abs(float64(out[i*2])-0.5) > 1e-6 || math.Abs(float64(out[i*2+1])-0.5) > 1e-6 {
			t.Fatalf("frame %d: got L=%f R=%f want 0.5", i, out[i*2], out[i*2+1])
		}
	}
}

func TestNonLoopingClipStopsAtEnd(t *testing.T) {
	m := newTestMixer(0)
	h := m.NewHandle()
	h.Play(constClip(t, 0.5, 10))
	out := left(m.Process(20))
	if h.IsPlaying() {
		t.Fatalf("handle should stop at clip end")
	}
	for i := 10; i < 20; i++ {
		if out[i] != 0 {
			t.Fatalf("expected silence after end at %d, got %f", i, out[i])
		}
	}
	h.Resume()
	if h.IsPlaying() {
		t.Fatalf("resume after end must not restart")
	}
}

func TestLoopingClipKeepsPlaying(t *testing.T) {
	m := newTestMixer(0)
	h := m.NewHandle()
	h.Configure(layer.Routing{Loop: true})
	h.Play(constClip(t, 0.25, 10))
	out := left(m.Process(35))
	if !h.IsPlaying() {
		t.Fatalf("looping handle stopped")
	}
	for i, v := range out {
		if math.Abs(float64(v)-0.25) > 1e-6 {
			t.Fatalf("frame %d: got %f", i, v)
		}
	}
}

func TestPauseKeepsPosition(t *testing.T) {
	m := newTestMixer(0)
	h := m.NewHandle()
	h.Play(constClip(t, 0.5, 4800))
	m.Process(480)
	h.Pause()
	pos := h.Position()
	out := left(m.Process(480))
	if h.Position() != pos {
		t.Fatalf("paused handle moved: %g -> %g", pos, h.Position())
	}
	if rms(out) != 0 {
		t.Fatalf("paused handle produced output")
	}
	h.Resume()
	m.Process(480)
	if math.Abs(h.Position()-0.02) > 1e-9 {
		t.Fatalf("position after resume: got %g want 0.02", h.Position())
	}
}

func TestPitchChangesRate(t *testing.T) {
	m := newTestMixer(0)
	h := m.NewHandle()
	h.SetPitch(2)
	h.Play(constClip(t, 0.5, 4800))
	m.Process(480)
	if math.Abs(h.Position()-0.02) > 1e-9 {
		t.Fatalf("pitch 2 position: got %g want 0.02", h.Position())
	}
	h.SetPitch(-1)
	if h.Pitch() != 2 {
		t.Fatalf("negative pitch should be ignored")
	}
}

func TestStartOffsetAndDuration(t *testing.T) {
	m := newTestMixer(0)
	h := m.NewHandle()
	if h.ClipDuration() != 0 {
		t.Fatalf("no clip should report zero duration")
	}
	h.Play(constClip(t, 0.5, 48000))
	if h.ClipDuration() != 1 {
		t.Fatalf("duration: got %g", h.ClipDuration())
	}
	h.SetStartOffset(0.25)
	if h.Position() != 0.25 {
		t.Fatalf("offset: got %g", h.Position())
	}
	h.SetStartOffset(5)
	if h.Position() >= 1 {
		t.Fatalf("offset beyond end should clamp, got %g", h.Position())
	}
}

func TestPlayIgnoresForeignClips(t *testing.T) {
	m := newTestMixer(0)
	h := m.NewHandle()
	h.Play(nil)
	if h.IsPlaying() {
		t.Fatalf("nil clip must not start playback")
	}
}

func TestVoiceLimitMutesLeastImportant(t *testing.T) {
	m := newTestMixer(1)
	lo := m.NewHandle()
	lo.Configure(layer.Routing{Priority: 200})
	hi := m.NewHandle()
	hi.Configure(layer.Routing{Priority: 10})
	lo.Play(constClip(t, 0.25, 100))
	hi.Play(constClip(t, 0.5, 100))

	out := left(m.Process(16))
	if !lo.Virtual() || hi.Virtual() {
		t.Fatalf("expected low priority voice virtual: lo=%v hi=%v", lo.Virtual(), hi.Virtual())
	}
	if math.Abs(float64(out[0])-0.5) > 1e-6 {
		t.Fatalf("only the important voice should sound, got %f", out[0])
	}
	if lo.Position() == 0 {
		t.Fatalf("virtual voice should keep advancing")
	}
}

func TestLowPassAttenuatesHighFrequencies(t *testing.T) {
	data := make([]float32, 4800)
	for i := range data {
		data[i] = float32(0.5 * math.Sin(2*math.Pi*8000*float64(i)/48000))
	}
	src, _ := clip.FromSamples("hf", data, nil, 48000)

	m := newTestMixer(0)
	h := m.NewHandle()
	if h.LowPassCutoff() != layer.DefaultCutoffHz {
		t.Fatalf("default cutoff: got %g", h.LowPassCutoff())
	}
	h.Play(src)
	dry := rms(left(m.Process(2400)))

	h.SetLowPassCutoff(300)
	m.Process(480)
	wet := rms(left(m.Process(1920)))
	if wet > dry*0.05 {
		t.Fatalf("expected strong attenuation: dry=%f wet=%f", dry, wet)
	}
}

func TestSpatialAttenuation(t *testing.T) {
	m := newTestMixer(0)
	h := m.NewHandle()
	h.Configure(layer.Routing{SpatialBlend: 1, MaxDistance: 50})
	h.SetDistance(10)
	h.Play(constClip(t, 1, 100))
	out := left(m.Process(8))
	if math.Abs(float64(out[4])-0.1) > 1e-5 {
		t.Fatalf("log rolloff at 10: got %f want 0.1", out[4])
	}

	m2 := newTestMixer(0)
	h2 := m2.NewHandle()
	h2.Configure(layer.Routing{
		SpatialBlend: 0.5,
		MaxDistance:  20,
		Rolloff:      curve.MustNew(curve.Linear, curve.Point{In: 0, Out: 1}, curve.Point{In: 1, Out: 0}),
	})
	h2.SetDistance(20)
	h2.Play(constClip(t, 1, 100))
	out = left(m2.Process(8))
	if math.Abs(float64(out[4])-0.5) > 1e-5 {
		t.Fatalf("half-blended custom rolloff: got %f want 0.5", out[4])
	}
}

func TestEqualPowerPan(t *testing.T) {
	m := newTestMixer(0)
	h := m.NewHandle()
	h.Configure(layer.Routing{Pan: -1})
	h.Play(constClip(t, 0.5, 100))
	out := m.Process(4)
	if math.Abs(float64(out[2])-0.5*math.Sqrt2) > 1e-5 || math.Abs(float64(out[3])) > 1e-6 {
		t.Fatalf("hard left pan: L=%f R=%f", out[2], out[3])
	}
}

func TestVolumeSmoothing(t *testing.T) {
	m := NewMixer(48000, 0)
	h := m.NewHandle()
	h.Play(constClip(t, 1, 48000))
	m.Process(16)
	h.SetVolume(0)
	out := left(m.Process(4800))
	if out[0] < 0.9 {
		t.Fatalf("first sample after a volume drop should be smoothed, got %f", out[0])
	}
	if out[len(out)-1] > 1e-3 {
		t.Fatalf("volume should settle near zero, got %f", out[len(out)-1])
	}
	for i := 1; i < len(out); i++ {
		if out[i] > out[i-1]+1e-7 {
			t.Fatalf("smoothing should decay monotonically at %d", i)
		}
	}
}

func TestGroupGainAndMaster(t *testing.T) {
	m := newTestMixer(0)
	h := m.NewHandle()
	h.Configure(layer.Routing{MixerGroup: "ambience"})
	m.SetGroupGain("ambience", 0.5)
	m.SetMasterGain(0.5)
	h.Play(constClip(t, 1, 100))
	out := left(m.Process(4))
	if math.Abs(float64(out[1])-0.25) > 1e-6 {
		t.Fatalf("got %f want 0.25", out[1])
	}
}

func TestReverbSend(t *testing.T) {
	conv, err := reverb.NewConvolver([]float32{0, 0, 0.5}, nil, 8)
	if err != nil {
		t.Fatalf("NewConvolver: %v", err)
	}
	m := newTestMixer(0)
	m.SetReverb(conv, 1)
	dry := m.NewHandle()
	dry.Play(constClip(t, 1, 1000))
	wet := left(m.Process(64))
	if wet[4] != 1 {
		t.Fatalf("no send expected before latency, got %f", wet[4])
	}

	m2 := newTestMixer(0)
	conv2, _ := reverb.NewConvolver([]float32{0, 0, 0.5}, nil, 8)
	m2.SetReverb(conv2, 1)
	h := m2.NewHandle()
	h.Configure(layer.Routing{ReverbZoneMix: 1})
	h.Play(constClip(t, 1, 1000))
	out := left(m2.Process(64))
	if math.Abs(float64(out[40])-1.5) > 1e-4 {
		t.Fatalf("expected dry plus half wet, got %f", out[40])
	}
}

func TestReadServesFloat32LE(t *testing.T) {
	m := newTestMixer(0)
	h := m.NewHandle()
	h.Play(constClip(t, 0.5, 100))
	p := make([]byte, 8*4+3)
	n, err := m.Read(p)
	if err != nil || n != 32 {
		t.Fatalf("Read: n=%d err=%v", n, err)
	}
	v := math.Float32frombits(binary.LittleEndian.Uint32(p[8:]))
	if math.Abs(float64(v)-0.5) > 1e-6 {
		t.Fatalf("decoded sample: got %f", v)
	}
}

func TestCloseRemovesHandle(t *testing.T) {
	m := newTestMixer(0)
	a := m.NewHandle()
	m.NewHandle()
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(m.Handles()) != 1 {
		t.Fatalf("expected one handle left, got %d", len(m.Handles()))
	}
}

func TestChannelDrivesHandle(t *testing.T) {
	m := newTestMixer(0)
	h := m.NewHandle()
	cfg := layer.DefaultChannelConfig()
	cfg.Routing.Loop = true
	cfg.Routing.Priority = 3
	ch := layer.NewChannel("pad", h, []layer.ClipHandle{constClip(t, 0.5, 480)}, cfg, layer.WithRNG(layer.NewRNG(1)))
	if h.Routing().Priority != 3 || !h.Routing().Loop {
		t.Fatalf("routing not applied: %+v", h.Routing())
	}
	ch.Play()
	if !h.IsPlaying() {
		t.Fatalf("channel play did not start the handle")
	}
	ch.RequestLowPassEngage(1000, 0.1)
	for range 10 {
		ch.Tick(0.01)
	}
	if math.Abs(h.LowPassCutoff()-1000) > 1e-9 {
		t.Fatalf("cutoff after sweep: got %g", h.LowPassCutoff())
	}
	ch.SetPlaybackState(false)
	if h.IsPlaying() {
		t.Fatalf("expected pause")
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(m.Handles()) != 0 {
		t.Fatalf("closing the channel should release the handle")
	}
}

func TestFadeInOnPlayStartsSilent(t *testing.T) {
	m := NewMixer(48000, 0)
	h := m.NewHandle()
	cfg := layer.DefaultChannelConfig()
	cfg.FadeInOnPlay = true
	cfg.FadeInTime = 1
	ch := layer.NewChannel("pad", h, []layer.ClipHandle{constClip(t, 0.5, 48000)}, cfg)
	ch.Play()
	out := left(m.Process(64))
	for i, v := range out {
		if math.Abs(float64(v)) > 1e-3 {
			t.Fatalf("frame %d: fade-in should open silent, got %f", i, v)
		}
	}
	ch.Tick(0.5)
	out = left(m.Process(4800))
	if last := out[len(out)-1]; math.Abs(float64(last)-0.25) > 0.01 {
		t.Fatalf("halfway through the fade: got %f want 0.25", last)
	}
}
