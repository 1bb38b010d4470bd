package reverb

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-blend/clip"
)

func directConvolve(x, h []float32) []float32 {
	out := make([]float32, len(x)+len(h)-1)
	for i, xv := range x {
		for j, hv := range h {
			out[i+j] += xv * hv
		}
	}
	return out
}

func TestConvolverMatchesDirectWithPartitionLatency(t *testing.T) {
	ir := []float32{1, 0.3, -0.2, 0.1, 0.05}
	c, err := NewConvolver(ir, []float32{0.8, -0.1, 0.05}, 16)
	if err != nil {
		t.Fatalf("NewConvolver: %v", err)
	}
	input := make([]float32, 200)
	for i := range input {
		input[i] = float32(math.Sin(float64(i) * 0.07))
	}
	outL := make([]float32, len(input))
	outR := make([]float32, len(input))
	// Uneven chunking must not matter.
	for start := 0; start < len(input); {
		end := min(len(input), start+7)
		c.ProcessAdd(input[start:end], outL[start:end], outR[start:end])
		start = end
	}
	want := directConvolve(input, ir)
	for i := 16; i < len(input); i++ {
		if d := math.Abs(float64(outL[i] - want[i-16])); d > 1e-4 {
			t.Fatalf("left mismatch at %d: got %f want %f", i, outL[i], want[i-16])
		}
	}
	for i := range 16 {
		if outL[i] != 0 || outR[i] != 0 {
			t.Fatalf("expected silence during latency at %d", i)
		}
	}
}

func TestConvolverResetClearsTail(t *testing.T) {
	c, err := NewConvolver([]float32{1, 0.5, 0.25}, nil, 4)
	if err != nil {
		t.Fatalf("NewConvolver: %v", err)
	}
	l := make([]float32, 8)
	r := make([]float32, 8)
	c.ProcessAdd([]float32{1, 0, 0, 0, 0, 0, 0, 0}, l, r)
	c.Reset()
	l = make([]float32, 8)
	r = make([]float32, 8)
	c.ProcessAdd(make([]float32, 8), l, r)
	for i := range l {
		if l[i] != 0 || r[i] != 0 {
			t.Fatalf("expected silence after reset at %d: %f %f", i, l[i], r[i])
		}
	}
}

func TestGenerateRoomDeterministicAndNormalized(t *testing.T) {
	cfg := DefaultRoomConfig(16000)
	cfg.Length = 0.25
	l1, r1, err := GenerateRoom(cfg)
	if err != nil {
		t.Fatalf("GenerateRoom: %v", err)
	}
	l2, _, _ := GenerateRoom(cfg)
	if len(l1) != 4000 || len(r1) != 4000 {
		t.Fatalf("unexpected length %d", len(l1))
	}
	var peak float64
	for i := range l1 {
		if l1[i] != l2[i] {
			t.Fatalf("not deterministic at %d", i)
		}
		peak = math.Max(peak, math.Max(math.Abs(float64(l1[i])), math.Abs(float64(r1[i]))))
	}
	if math.Abs(peak-cfg.Peak) > 1e-4 {
		t.Fatalf("peak: got %f want %f", peak, cfg.Peak)
	}
	if math.Abs(float64(l1[len(l1)-1])) > 1e-3 {
		t.Fatalf("fade-out should end near zero, got %f", l1[len(l1)-1])
	}
}

func TestRoomConfigValidate(t *testing.T) {
	cfg := DefaultRoomConfig(48000)
	cfg.Decay = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for zero decay")
	}
	cfg = DefaultRoomConfig(100)
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for low sample rate")
	}
}

func TestConvolverFromWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ir.wav")
	if err := clip.WriteMonoWAV(path, []float32{0.9, 0.4, 0.2, 0.1}, 48000); err != nil {
		t.Fatalf("WriteMonoWAV: %v", err)
	}
	c, err := NewConvolverFromWAV(path, 48000, 4)
	if err != nil {
		t.Fatalf("NewConvolverFromWAV: %v", err)
	}
	if c.IRLen() != 4 {
		t.Fatalf("ir length: got %d", c.IRLen())
	}
	l := make([]float32, 8)
	r := make([]float32, 8)
	c.ProcessAdd([]float32{1, 0, 0, 0, 0, 0, 0, 0}, l, r)
	if l[4] < 0.8 || math.Abs(float64(l[4]-r[4])) > 1e-6 {
		t.Fatalf("expected dual-mono impulse after latency, got L=%f R=%f", l[4], r[4])
	}
}
