package layer

import (
	"log/slog"
	"math"

	"github.com/cwbudde/algo-blend/curve"
)

// DefaultEpsilon is the tolerance for treating two intensities as equal.
const DefaultEpsilon = 1e-6

// unsetIntensity sits outside [0,1] so the first SetIntensity always runs.
const unsetIntensity = -1.0

// Layer is what the blender drives. *Channel implements it.
type Layer interface {
	Play()
	SetVolume(v float64)
	SetPlaybackState(shouldPlay bool)
}

// State is the blender's position in its zero/active cycle.
type State int

const (
	StateUnset State = iota
	StateIdleZero
	StateActive
)

func (s State) String() string {
	switch s {
	case StateIdleZero:
		return "idle-zero"
	case StateActive:
		return "active"
	default:
		return "unset"
	}
}

// BlenderConfig holds blender settings.
type BlenderConfig struct {
	// PlayOnInit makes Init call PlayAll.
	PlayOnInit bool
	// Epsilon for intensity comparisons. Zero selects DefaultEpsilon.
	Epsilon float64
}

// BlenderOption configures a Blender.
type BlenderOption func(*Blender)

// WithBlenderScheduler makes Blender.Tick advance s.
func WithBlenderScheduler(s *Scheduler) BlenderOption {
	return func(b *Blender) { b.sched = s }
}

// WithBlenderLogger sets the logger for debug records.
func WithBlenderLogger(l *slog.Logger) BlenderOption {
	return func(b *Blender) {
		if l != nil {
			b.log = l
		}
	}
}

type binding struct {
	layer Layer
	curve *curve.Curve
	level float64
}

// Blender maps intensity to per-layer volumes through response curves.
type Blender struct {
	cfg        BlenderConfig
	bindings   []binding
	last       float64
	processing bool
	state      State
	passes     int
	sched      *Scheduler
	log        *slog.Logger
}

// NewBlender creates a blender with no bindings.
func NewBlender(cfg BlenderConfig, opts ...BlenderOption) *Blender {
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = DefaultEpsilon
	}
	b := &Blender{
		cfg:        cfg,
		last:       unsetIntensity,
		processing: true,
		log:        discardLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Bind appends a layer driven by c. Bindings are evaluated in bind order.
func (b *Blender) Bind(l Layer, c *curve.Curve) {
	b.bindings = append(b.bindings, binding{layer: l, curve: c})
}

// Len returns the number of bindings.
func (b *Blender) Len() int { return len(b.bindings) }

// Init performs start-up actions: PlayAll when PlayOnInit is set.
func (b *Blender) Init() {
	if b.cfg.PlayOnInit {
		b.PlayAll()
	}
}

// SetIntensity clamps v to [0,1] and pushes curve results to the layers when
// it differs from the previous value. Zero is pushed once per entry into the
// idle state. It reports whether an evaluation pass ran.
func (b *Blender) SetIntensity(v float64) bool {
	if math.IsNaN(v) {
		v = 0
	}
	v = clamp01(v)
	if b.approx(v, b.last) {
		return false
	}
	defer func() { b.last = v }()

	if b.approx(v, 0) {
		ran := false
		if b.processing {
			b.push(v)
			b.processing = false
			ran = true
		}
		b.state = StateIdleZero
		return ran
	}

	b.processing = true
	b.state = StateActive
	b.push(v)
	return true
}

// PlayAll calls Play on every bound layer regardless of intensity.
func (b *Blender) PlayAll() {
	for _, bd := range b.bindings {
		if bd.layer != nil {
			bd.layer.Play()
		}
	}
}

// Tick advances the shared scheduler and any layer with its own clock.
func (b *Blender) Tick(dt float64) {
	if b.sched != nil {
		b.sched.Tick(dt)
	}
	for _, bd := range b.bindings {
		if t, ok := bd.layer.(interface{ Tick(float64) }); ok {
			t.Tick(dt)
		}
	}
}

// Intensity returns the last accepted intensity, or -1 before the first.
func (b *Blender) Intensity() float64 { return b.last }

// State returns the current state.
func (b *Blender) State() State { return b.state }

// Passes counts evaluation passes since creation.
func (b *Blender) Passes() int { return b.passes }

// Levels returns the volumes pushed by the last pass, in bind order.
func (b *Blender) Levels() []float64 {
	out := make([]float64, len(b.bindings))
	for i, bd := range b.bindings {
		out[i] = bd.level
	}
	return out
}

func (b *Blender) push(v float64) {
	b.passes++
	for i := range b.bindings {
		bd := &b.bindings[i]
		if bd.layer == nil {
			continue
		}
		level := clamp01(bd.curve.Evaluate(v))
		bd.level = level
		bd.layer.SetVolume(level)
		bd.layer.SetPlaybackState(level > 0)
	}
	b.log.Debug("blend pass", "intensity", v, "levels", b.Levels())
}

func (b *Blender) approx(a, c float64) bool {
	return math.Abs(a-c) <= b.cfg.Epsilon
}
