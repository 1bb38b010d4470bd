package curve

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidCurve is returned when control points are not strictly increasing
// in their input coordinate or contain non-finite values.
var ErrInvalidCurve = errors.New("invalid curve")

// Mode selects how values between control points are interpolated.
type Mode int

const (
	// Linear interpolates straight segments between points.
	Linear Mode = iota
	// Step holds the output of the left point until the next one.
	Step
	// Hermite uses cubic Hermite segments shaped by per-point tangents.
	Hermite
)

func (m Mode) String() string {
	switch m {
	case Linear:
		return "linear"
	case Step:
		return "step"
	case Hermite:
		return "hermite"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses a mode name. The empty string selects Linear.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear":
		return Linear, nil
	case "step", "constant":
		return Step, nil
	case "hermite", "smooth":
		return Hermite, nil
	default:
		return Linear, fmt.Errorf("%w: unknown mode %q", ErrInvalidCurve, s)
	}
}

// Point is a single control point. Tangents are slopes (dOut/dIn) and only
// matter in Hermite mode.
type Point struct {
	In         float64 `json:"in" yaml:"in"`
	Out        float64 `json:"out" yaml:"out"`
	InTangent  float64 `json:"in_tangent,omitempty" yaml:"in_tangent,omitempty"`
	OutTangent float64 `json:"out_tangent,omitempty" yaml:"out_tangent,omitempty"`
}

// Curve is an immutable piecewise function. The zero value and a nil *Curve
// evaluate to 0 everywhere.
type Curve struct {
	points []Point
	mode   Mode
}

// New validates points and returns a curve. Points are copied.
func New(mode Mode, points ...Point) (*Curve, error) {
	if mode < Linear || mode > Hermite {
		return nil, fmt.Errorf("%w: unknown mode %d", ErrInvalidCurve, int(mode))
	}
	for i, p := range points {
		if !isFinite(p.In) || !isFinite(p.Out) || !isFinite(p.InTangent) || !isFinite(p.OutTangent) {
			return nil, fmt.Errorf("%w: point %d is not finite", ErrInvalidCurve, i)
		}
		if i > 0 && p.In <= points[i-1].In {
			return nil, fmt.Errorf("%w: point %d input %g not greater than %g", ErrInvalidCurve, i, p.In, points[i-1].In)
		}
	}
	c := &Curve{mode: mode, points: make([]Point, len(points))}
	copy(c.points, points)
	return c, nil
}

// MustNew is like New but panics on invalid input. Intended for literals.
func MustNew(mode Mode, points ...Point) *Curve {
	c, err := New(mode, points...)
	if err != nil {
		panic(err)
	}
	return c
}

// FromPairs builds a curve from alternating in/out values.
func FromPairs(mode Mode, pairs ...float64) (*Curve, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of coordinates", ErrInvalidCurve)
	}
	points := make([]Point, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		points = append(points, Point{In: pairs[i], Out: pairs[i+1]})
	}
	return New(mode, points...)
}

// Mode returns the interpolation mode.
func (c *Curve) Mode() Mode {
	if c == nil {
		return Linear
	}
	return c.mode
}

// Points returns a copy of the control points.
func (c *Curve) Points() []Point {
	if c == nil {
		return nil
	}
	out := make([]Point, len(c.points))
	copy(out, c.points)
	return out
}

// Len returns the number of control points.
func (c *Curve) Len() int {
	if c == nil {
		return 0
	}
	return len(c.points)
}

// Domain returns the input range covered by the control points.
func (c *Curve) Domain() (lo, hi float64) {
	if c.Len() == 0 {
		return 0, 0
	}
	return c.points[0].In, c.points[len(c.points)-1].In
}

// Evaluate returns the curve value at x. Inputs outside the domain clamp to
// the first or last point.
func (c *Curve) Evaluate(x float64) float64 {
	n := c.Len()
	if n == 0 {
		return 0
	}
	first, last := c.points[0], c.points[n-1]
	if math.IsNaN(x) || x <= first.In {
		return first.Out
	}
	if x >= last.In {
		return last.Out
	}

	i := c.segment(x)
	p0, p1 := c.points[i], c.points[i+1]
	span := p1.In - p0.In
	t := (x - p0.In) / span

	switch c.mode {
	case Step:
		return p0.Out
	case Hermite:
		t2 := t * t
		t3 := t2 * t
		h00 := 2*t3 - 3*t2 + 1
		h10 := t3 - 2*t2 + t
		h01 := -2*t3 + 3*t2
		h11 := t3 - t2
		return h00*p0.Out + h10*span*p0.OutTangent + h01*p1.Out + h11*span*p1.InTangent
	default:
		return p0.Out + t*(p1.Out-p0.Out)
	}
}

// segment returns i such that points[i].In <= x < points[i+1].In.
func (c *Curve) segment(x float64) int {
	lo, hi := 0, len(c.points)-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if c.points[mid].In <= x {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
