package layer

import (
	"errors"
	"io"
	"log/slog"
)

// CueRelease is how long a one-shot voice outlives the end of its clip
// before its handle is released.
const CueRelease = 0.1

// HandleFactory creates a fresh handle for one cue instance. It may return
// nil when no voice is available.
type HandleFactory func() AudioHandle

// Positioner is implemented by handles that attenuate with listener distance.
type Positioner interface {
	SetDistance(d float64)
}

// CueOption configures a Cue.
type CueOption func(*Cue)

// CueRNG sets the random source for selection and randomization.
func CueRNG(r RNG) CueOption {
	return func(c *Cue) {
		if r != nil {
			c.rng = r
		}
	}
}

// CueLogger sets the logger for debug records.
func CueLogger(l *slog.Logger) CueOption {
	return func(c *Cue) {
		if l != nil {
			c.log = l
		}
	}
}

type cueVoice struct {
	handle    AudioHandle
	remaining float64
	loop      bool
}

// Cue is a reusable fire-and-forget sound. Every PlayAt takes a new handle
// from the factory, configures it like a Channel would and releases it once
// the clip has finished. Looping voices live until Stop or Close.
type Cue struct {
	name      string
	clips     []ClipHandle
	cfg       ChannelConfig
	newHandle HandleFactory
	rng       RNG
	selector  *Selector
	log       *slog.Logger

	voices []*cueVoice
}

// NewCue creates a cue over clips. newHandle must not be nil.
func NewCue(name string, clips []ClipHandle, cfg ChannelConfig, newHandle HandleFactory, opts ...CueOption) *Cue {
	c := &Cue{
		name:      name,
		clips:     append([]ClipHandle(nil), clips...),
		cfg:       cfg,
		newHandle: newHandle,
		log:       discardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = defaultRNG()
	}
	c.selector = NewSelector(cfg.Policy, c.rng)
	c.log = c.log.With("cue", name)
	return c
}

// Name returns the cue name.
func (c *Cue) Name() string { return c.name }

// Active returns the number of voices not yet released.
func (c *Cue) Active() int { return len(c.voices) }

// PlayAt starts one instance at the given listener distance and returns its
// handle, or nil when nothing could be played.
func (c *Cue) PlayAt(distance float64) AudioHandle {
	idx, err := c.selector.Next(len(c.clips))
	if err != nil {
		c.log.Debug("cue skipped", "err", err)
		return nil
	}
	clip := c.clips[idx]
	if !usable(clip) {
		c.log.Debug("cue skipped: unusable clip", "index", idx)
		return nil
	}
	if c.newHandle == nil {
		return nil
	}
	h := c.newHandle()
	if h == nil {
		c.log.Debug("cue skipped: no handle")
		return nil
	}

	h.Configure(c.cfg.Routing)
	if p, ok := h.(Positioner); ok {
		p.SetDistance(distance)
	}
	pitch, volume := c.cfg.Pitch, c.cfg.Volume
	if c.cfg.Policy != Single {
		pitch = uniform(c.rng, c.cfg.PitchMin, c.cfg.PitchMax)
		volume = uniform(c.rng, c.cfg.VolumeMin, c.cfg.VolumeMax)
	}
	h.SetPitch(pitch)
	h.SetVolume(clamp01(volume))
	h.Play(clip)

	offset := 0.0
	if c.cfg.RandomizeStart {
		if d := h.ClipDuration(); d > 0 {
			offset = c.rng.Float64() * d
			h.SetStartOffset(offset)
		}
	}

	v := &cueVoice{handle: h, loop: c.cfg.Routing.Loop}
	if !v.loop {
		v.remaining = (h.ClipDuration()-offset)/pitch + CueRelease
	}
	c.voices = append(c.voices, v)
	c.log.Debug("cue play", "index", idx, "distance", distance, "pitch", pitch, "volume", volume, "release", v.remaining)
	return h
}

// Tick advances release timers by dt seconds and closes finished voices.
func (c *Cue) Tick(dt float64) error {
	var errs []error
	kept := c.voices[:0]
	for _, v := range c.voices {
		if !v.loop {
			v.remaining -= dt
			if v.remaining <= 0 {
				errs = append(errs, release(v.handle))
				continue
			}
		}
		kept = append(kept, v)
	}
	clear(c.voices[len(kept):])
	c.voices = kept
	return errors.Join(errs...)
}

// Stop releases every voice at once, looping ones included.
func (c *Cue) Stop() error {
	var errs []error
	for _, v := range c.voices {
		errs = append(errs, release(v.handle))
	}
	clear(c.voices)
	c.voices = c.voices[:0]
	return errors.Join(errs...)
}

// Close is Stop.
func (c *Cue) Close() error { return c.Stop() }

func release(h AudioHandle) error {
	h.Pause()
	if closer, ok := h.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
