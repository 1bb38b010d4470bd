package layer

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-blend/curve"
)

func scenarioBlender() (*Blender, []*recordingLayer) {
	low := curve.MustNew(curve.Linear, curve.Point{In: 0, Out: 1}, curve.Point{In: 1, Out: 0})
	mid := curve.MustNew(curve.Linear, curve.Point{In: 0, Out: 0}, curve.Point{In: 0.5, Out: 1}, curve.Point{In: 1, Out: 0})
	high := curve.MustNew(curve.Linear, curve.Point{In: 0, Out: 0}, curve.Point{In: 1, Out: 1})

	layers := []*recordingLayer{{}, {}, {}}
	b := NewBlender(BlenderConfig{})
	b.Bind(layers[0], low)
	b.Bind(layers[1], mid)
	b.Bind(layers[2], high)
	return b, layers
}

func totalWrites(layers []*recordingLayer) int {
	n := 0
	for _, l := range layers {
		n += l.writes
	}
	return n
}

func TestBlenderScenarioLowMidHigh(t *testing.T) {
	b, layers := scenarioBlender()
	if b.State() != StateUnset || b.Intensity() != -1 {
		t.Fatalf("expected unset blender, got %s %f", b.State(), b.Intensity())
	}

	b.SetIntensity(0.5)
	want := []float64{0.5, 1.0, 0.5}
	for i, l := range layers {
		if math.Abs(l.volume-want[i]) > 1e-12 || !l.shouldPlay {
			t.Fatalf("layer %d: volume=%f shouldPlay=%v want %f true", i, l.volume, l.shouldPlay, want[i])
		}
	}
	if b.State() != StateActive {
		t.Fatalf("expected active, got %s", b.State())
	}

	b.SetIntensity(0)
	for i, l := range layers {
		if l.volume != 0 || l.shouldPlay {
			t.Fatalf("layer %d after zero: volume=%f shouldPlay=%v", i, l.volume, l.shouldPlay)
		}
	}
	if b.State() != StateIdleZero {
		t.Fatalf("expected idle-zero, got %s", b.State())
	}

	before := totalWrites(layers)
	b.SetIntensity(0)
	if totalWrites(layers) != before {
		t.Fatalf("second zero produced %d extra writes", totalWrites(layers)-before)
	}
}

func TestSetIntensityZeroTwiceEvaluatesOnce(t *testing.T) {
	b, _ := scenarioBlender()
	if !b.SetIntensity(0) {
		t.Fatalf("first zero from unset should evaluate")
	}
	if b.SetIntensity(0) {
		t.Fatalf("second zero should be a no-op")
	}
	if b.Passes() != 1 {
		t.Fatalf("expected 1 pass, got %d", b.Passes())
	}
}

func TestNearlyEqualIntensityEvaluatesAtMostOnce(t *testing.T) {
	b, _ := scenarioBlender()
	b.SetIntensity(0.3)
	b.SetIntensity(0.3 + DefaultEpsilon/2)
	b.SetIntensity(0.3 - DefaultEpsilon/4)
	if b.Passes() != 1 {
		t.Fatalf("expected 1 pass, got %d", b.Passes())
	}
	b.SetIntensity(0.31)
	if b.Passes() != 2 {
		t.Fatalf("distinct intensity should evaluate, passes=%d", b.Passes())
	}
}

func TestZeroAppliedOncePerEntry(t *testing.T) {
	b, layers := scenarioBlender()
	b.SetIntensity(0.8)
	b.SetIntensity(0)
	b.SetIntensity(1e-9)
	if b.Passes() != 2 {
		t.Fatalf("near-zero after zero should not re-apply, passes=%d", b.Passes())
	}
	b.SetIntensity(0.4)
	b.SetIntensity(0)
	if b.Passes() != 4 {
		t.Fatalf("re-entering zero should apply again, passes=%d", b.Passes())
	}
	if layers[0].volume != 1 || !layers[0].shouldPlay {
		t.Fatalf("low layer should be full at zero intensity: %+v", layers[0])
	}
}

func TestSetIntensityClampsInput(t *testing.T) {
	b, layers := scenarioBlender()
	b.SetIntensity(7)
	if b.Intensity() != 1 || layers[2].volume != 1 || layers[0].shouldPlay {
		t.Fatalf("expected clamp to 1: intensity=%f high=%f", b.Intensity(), layers[2].volume)
	}
	b.SetIntensity(-3)
	if b.Intensity() != 0 || b.State() != StateIdleZero {
		t.Fatalf("expected clamp to 0, got %f %s", b.Intensity(), b.State())
	}
	b.SetIntensity(math.NaN())
	if b.Passes() != 2 {
		t.Fatalf("NaN should read as zero, passes=%d", b.Passes())
	}
}

func TestActivePushIsUnconditional(t *testing.T) {
	b, layers := scenarioBlender()
	b.SetIntensity(1)
	if layers[0].shouldPlay || layers[0].volume != 0 {
		t.Fatalf("low layer should be paused at full intensity")
	}
	if got := b.Levels(); got[0] != 0 || got[1] != 0 || got[2] != 1 {
		t.Fatalf("unexpected levels %v", got)
	}
	writes := layers[0].writes
	b.SetIntensity(0.9)
	if layers[0].writes != writes+2 {
		t.Fatalf("every active pass writes volume and state to every layer")
	}
}

func TestPlayAllAndInit(t *testing.T) {
	layers := []*recordingLayer{{}, {}}
	b := NewBlender(BlenderConfig{PlayOnInit: true})
	b.Bind(layers[0], nil)
	b.Bind(nil, nil)
	b.Bind(layers[1], nil)
	b.Init()
	if layers[0].plays != 1 || layers[1].plays != 1 {
		t.Fatalf("Init with PlayOnInit should play every layer")
	}
	b.SetIntensity(0)
	b.PlayAll()
	if layers[0].plays != 2 || layers[1].plays != 2 {
		t.Fatalf("PlayAll should ignore intensity state")
	}

	quiet := NewBlender(BlenderConfig{})
	quiet.Bind(layers[0], nil)
	quiet.Init()
	if layers[0].plays != 2 {
		t.Fatalf("Init without PlayOnInit should not play")
	}
}

func TestBlenderDrivesChannelsAndTicksScheduler(t *testing.T) {
	sched := NewScheduler()
	hLow, hHigh := newFakeHandle(), newFakeHandle()
	low := NewChannel("low", hLow, clips(1), DefaultChannelConfig(), WithScheduler(sched))
	high := NewChannel("high", hHigh, clips(1), DefaultChannelConfig(), WithScheduler(sched))

	b := NewBlender(BlenderConfig{PlayOnInit: true}, WithBlenderScheduler(sched))
	b.Bind(low, curve.MustNew(curve.Linear, curve.Point{In: 0, Out: 1}, curve.Point{In: 1, Out: 0}))
	b.Bind(high, curve.MustNew(curve.Linear, curve.Point{In: 0, Out: 0}, curve.Point{In: 1, Out: 1}))
	b.Init()

	b.SetIntensity(0)
	if !low.IsPlaying() || high.IsPlaying() {
		t.Fatalf("at zero intensity low should play and high should pause")
	}
	b.SetIntensity(0.75)
	if !high.IsPlaying() || math.Abs(hHigh.volume-0.75) > 1e-12 || math.Abs(hLow.volume-0.25) > 1e-12 {
		t.Fatalf("unexpected volumes low=%f high=%f", hLow.volume, hHigh.volume)
	}
	if len(hHigh.plays) != 1 {
		t.Fatalf("resume must not restart the clip")
	}

	high.RequestLowPassEngage(1000, 1)
	b.Tick(1)
	if hHigh.cutoff != 1000 {
		t.Fatalf("blender tick should advance shared scheduler, cutoff=%f", hHigh.cutoff)
	}
}

func TestPlayAllKeepsBlendedLevelsOfSingleLayers(t *testing.T) {
	h := newFakeHandle()
	c := NewChannel("low", h, clips(1), DefaultChannelConfig())
	b := NewBlender(BlenderConfig{})
	b.Bind(c, curve.MustNew(curve.Linear, curve.Point{In: 0, Out: 1}, curve.Point{In: 1, Out: 0}))

	b.SetIntensity(0.75)
	b.PlayAll()
	if math.Abs(c.Volume()-0.25) > 1e-12 || math.Abs(h.volume-0.25) > 1e-12 {
		t.Fatalf("PlayAll overrode blended level: channel=%f handle=%f", c.Volume(), h.volume)
	}

	b.SetIntensity(1)
	b.PlayAll()
	if c.Volume() != 0 || h.volume != 0 {
		t.Fatalf("PlayAll at silent level should stay silent: channel=%f handle=%f", c.Volume(), h.volume)
	}
	if len(h.plays) != 2 {
		t.Fatalf("PlayAll should start the layer each time, got %d plays", len(h.plays))
	}
}

func TestBlenderTicksPrivateChannelSchedulers(t *testing.T) {
	h := newFakeHandle()
	c := NewChannel("a", h, clips(1), DefaultChannelConfig())
	b := NewBlender(BlenderConfig{})
	b.Bind(c, nil)
	c.RequestFadeIn(1)
	b.Tick(1)
	if h.volume != 1 {
		t.Fatalf("blender tick should reach channel-owned scheduler, volume=%f", h.volume)
	}
}
