// Package automation produces intensity values over time for offline renders
// and live playback.
package automation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-blend/curve"
)

// Source yields the intensity at time t in seconds.
type Source interface {
	Intensity(t float64) float64
}

// Constant holds one intensity forever.
type Constant float64

// Intensity returns c.
func (c Constant) Intensity(float64) float64 { return float64(c) }

// Keyframes interpolates intensity between (time, value) points.
type Keyframes struct {
	c *curve.Curve
}

// NewKeyframes builds keyframes from points whose In is time in seconds.
func NewKeyframes(mode curve.Mode, points ...curve.Point) (*Keyframes, error) {
	c, err := curve.New(mode, points...)
	if err != nil {
		return nil, fmt.Errorf("keyframes: %w", err)
	}
	return &Keyframes{c: c}, nil
}

// ParseKeyframes reads "t:v,t:v,..." with linear interpolation.
func ParseKeyframes(s string) (*Keyframes, error) {
	var points []curve.Point
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		ts, vs, ok := strings.Cut(field, ":")
		if !ok {
			return nil, fmt.Errorf("keyframe %q: want time:value", field)
		}
		t, err := strconv.ParseFloat(strings.TrimSpace(ts), 64)
		if err != nil {
			return nil, fmt.Errorf("keyframe %q: %w", field, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(vs), 64)
		if err != nil {
			return nil, fmt.Errorf("keyframe %q: %w", field, err)
		}
		points = append(points, curve.Point{In: t, Out: v})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no keyframes in %q", s)
	}
	return NewKeyframes(curve.Linear, points...)
}

// Intensity evaluates the keyframe curve, holding the end values outside it.
func (k *Keyframes) Intensity(t float64) float64 { return k.c.Evaluate(t) }

// End returns the time of the last keyframe.
func (k *Keyframes) End() float64 {
	_, hi := k.c.Domain()
	return hi
}
