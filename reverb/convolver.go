package reverb

import (
	"fmt"

	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"

	"github.com/cwbudde/algo-blend/clip"
)

// DefaultPartSize is the convolver block length and therefore its latency.
const DefaultPartSize = 128

// Convolver runs a mono send through a stereo IR with partitioned
// overlap-add convolution. Input of any length is buffered into full
// partitions, so output lags input by exactly PartSize frames.
type Convolver struct {
	partSize int
	irLen    int

	left  *dspconv.StreamingOverlapAddT[float32, complex64]
	right *dspconv.StreamingOverlapAddT[float32, complex64]

	in   []float32
	outL []float32
	outR []float32
	pos  int
}

// NewConvolver creates a convolver for the given stereo IR. A nil right IR
// reuses the left one.
func NewConvolver(leftIR, rightIR []float32, partSize int) (*Convolver, error) {
	if partSize <= 0 {
		partSize = DefaultPartSize
	}
	c := &Convolver{
		partSize: partSize,
		in:       make([]float32, partSize),
		outL:     make([]float32, partSize),
		outR:     make([]float32, partSize),
	}
	if err := c.SetIR(leftIR, rightIR); err != nil {
		return nil, err
	}
	return c, nil
}

// NewConvolverFromWAV loads an IR file at sampleRate.
func NewConvolverFromWAV(path string, sampleRate, partSize int) (*Convolver, error) {
	ir, err := clip.Load(path, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("load reverb ir: %w", err)
	}
	return NewConvolver(ir.Left, ir.Right, partSize)
}

// NewRoomConvolver synthesizes a room IR and wraps it in a convolver.
func NewRoomConvolver(cfg RoomConfig, partSize int) (*Convolver, error) {
	l, r, err := GenerateRoom(cfg)
	if err != nil {
		return nil, err
	}
	return NewConvolver(l, r, partSize)
}

// SetIR replaces the impulse response and clears all history.
func (c *Convolver) SetIR(leftIR, rightIR []float32) error {
	if len(leftIR) == 0 {
		leftIR = []float32{1}
	}
	if rightIR == nil {
		rightIR = leftIR
	}
	if len(rightIR) == 0 {
		rightIR = []float32{1}
	}
	l, err := dspconv.NewStreamingOverlapAdd32(leftIR, c.partSize)
	if err != nil {
		return fmt.Errorf("left ir: %w", err)
	}
	r, err := dspconv.NewStreamingOverlapAdd32(rightIR, c.partSize)
	if err != nil {
		return fmt.Errorf("right ir: %w", err)
	}
	c.left, c.right = l, r
	c.irLen = max(len(leftIR), len(rightIR))
	c.Reset()
	return nil
}

// PartSize returns the partition length in frames.
func (c *Convolver) PartSize() int { return c.partSize }

// IRLen returns the longer of the two IR lengths.
func (c *Convolver) IRLen() int { return c.irLen }

// ProcessAdd convolves send and adds the stereo result into dstL and dstR,
// which must be at least len(send) long.
func (c *Convolver) ProcessAdd(send, dstL, dstR []float32) {
	for i, x := range send {
		dstL[i] += c.outL[c.pos]
		dstR[i] += c.outR[c.pos]
		c.in[c.pos] = x
		c.pos++
		if c.pos == c.partSize {
			c.flush()
		}
	}
}

func (c *Convolver) flush() {
	c.pos = 0
	errL := c.left.ProcessBlockTo(c.outL, c.in)
	errR := c.right.ProcessBlockTo(c.outR, c.in)
	if errL != nil || errR != nil {
		clear(c.outL)
		clear(c.outR)
	}
}

// Reset clears buffered input and the convolution tails.
func (c *Convolver) Reset() {
	if c.left != nil {
		c.left.Reset()
	}
	if c.right != nil {
		c.right.Reset()
	}
	clear(c.in)
	clear(c.outL)
	clear(c.outR)
	c.pos = 0
}
