package layer

import (
	"io"
	"log/slog"
)

// ChannelOption configures a Channel.
type ChannelOption func(*Channel)

// WithScheduler runs the channel's transitions on a shared scheduler. The
// host ticks it; Channel.Tick becomes a no-op.
func WithScheduler(s *Scheduler) ChannelOption {
	return func(c *Channel) {
		if s != nil {
			c.sched = s
			c.ownSched = false
		}
	}
}

// WithRNG sets the random source for selection and randomization.
func WithRNG(r RNG) ChannelOption {
	return func(c *Channel) {
		if r != nil {
			c.rng = r
		}
	}
}

// WithLogger sets the logger for debug records. Nil keeps the discard logger.
func WithLogger(l *slog.Logger) ChannelOption {
	return func(c *Channel) {
		if l != nil {
			c.log = l
		}
	}
}

// Channel is one playable layer. It exclusively owns its AudioHandle.
type Channel struct {
	id       string
	handle   AudioHandle
	clips    []ClipHandle
	cfg      ChannelConfig
	rng      RNG
	selector *Selector
	sched    *Scheduler
	ownSched bool
	log      *slog.Logger

	volume        float64
	lowPassActive bool
}

// NewChannel creates a channel around handle and applies cfg.Routing, the base
// pitch and the base volume to it.
// The id keys the channel's transitions and must be unique per scheduler.
// A nil handle yields a channel whose operations do nothing.
func NewChannel(id string, handle AudioHandle, clips []ClipHandle, cfg ChannelConfig, opts ...ChannelOption) *Channel {
	c := &Channel{
		id:       id,
		handle:   handle,
		clips:    append([]ClipHandle(nil), clips...),
		cfg:      cfg,
		sched:    NewScheduler(),
		ownSched: true,
		log:      discardLogger(),
		volume:   clamp01(cfg.Volume),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = defaultRNG()
	}
	c.selector = NewSelector(cfg.Policy, c.rng)
	c.log = c.log.With("channel", id)
	if c.handle != nil {
		c.handle.Configure(cfg.Routing)
		c.handle.SetPitch(cfg.Pitch)
		c.handle.SetVolume(clamp01(cfg.Volume))
	}
	return c
}

// ID returns the channel id.
func (c *Channel) ID() string { return c.id }

// Config returns the channel configuration.
func (c *Channel) Config() ChannelConfig { return c.cfg }

// Volume returns the last volume written to the handle.
func (c *Channel) Volume() float64 { return c.volume }

// IsPlaying reports whether the handle is audibly playing.
func (c *Channel) IsPlaying() bool {
	return c.handle != nil && c.handle.IsPlaying()
}

// LowPassActive reports whether the last filter request was an engage.
func (c *Channel) LowPassActive() bool { return c.lowPassActive }

// Selector exposes the clip selector, mostly for inspection.
func (c *Channel) Selector() *Selector { return c.selector }

// Play selects the next clip and starts it. Empty clip sets, unusable clips
// and a missing handle are silently skipped.
func (c *Channel) Play() {
	if c.handle == nil {
		c.log.Debug("play skipped: no handle")
		return
	}
	idx, err := c.selector.Next(len(c.clips))
	if err != nil {
		c.log.Debug("play skipped", "err", err)
		return
	}
	clip := c.clips[idx]
	if !usable(clip) {
		c.log.Debug("play skipped: unusable clip", "index", idx)
		return
	}

	// Single keeps whatever level the host last applied.
	if c.cfg.Policy != Single {
		pitch := uniform(c.rng, c.cfg.PitchMin, c.cfg.PitchMax)
		volume := uniform(c.rng, c.cfg.VolumeMin, c.cfg.VolumeMax)
		c.handle.SetPitch(pitch)
		c.SetVolume(volume)
		c.log.Debug("randomized", "pitch", pitch, "volume", volume)
	}
	// The fade writes 0 before the clip starts so the first frames are silent.
	if c.cfg.FadeInOnPlay {
		c.RequestFadeIn(c.cfg.FadeInTime)
	}
	c.handle.Play(clip)

	if c.cfg.RandomizeStart {
		if d := c.handle.ClipDuration(); d > 0 {
			c.handle.SetStartOffset(c.rng.Float64() * d)
		}
	}
	c.log.Debug("play", "index", idx, "volume", c.volume)
}

// SetVolume clamps v to [0,1] and applies it.
func (c *Channel) SetVolume(v float64) {
	v = clamp01(v)
	c.volume = v
	if c.handle != nil {
		c.handle.SetVolume(v)
	}
}

// SetPlaybackState pauses or resumes the handle. It keeps the playback
// position and does nothing when the handle is already in that state.
func (c *Channel) SetPlaybackState(shouldPlay bool) {
	if c.handle == nil {
		return
	}
	playing := c.handle.IsPlaying()
	switch {
	case shouldPlay && !playing:
		c.handle.Resume()
	case !shouldPlay && playing:
		c.handle.Pause()
	}
}

// RequestFadeIn ramps the volume from 0 to the configured base volume,
// replacing any running fade.
func (c *Channel) RequestFadeIn(duration float64) *Task {
	if c.handle == nil {
		return nil
	}
	c.log.Debug("fade in", "duration", duration)
	return c.sched.Start(c.id, NewTask(Fade, 0, c.cfg.Volume, duration, c.SetVolume))
}

// RequestLowPassEngage sweeps the cutoff from its current value to
// targetHz, replacing any running filter transition.
func (c *Channel) RequestLowPassEngage(targetHz, duration float64) *Task {
	if c.handle == nil {
		return nil
	}
	c.lowPassActive = true
	return c.startFilter(FilterSweep, targetHz, duration)
}

// RequestLowPassReset sweeps the cutoff back to DefaultCutoffHz, replacing
// any running filter transition.
func (c *Channel) RequestLowPassReset(duration float64) *Task {
	if c.handle == nil {
		return nil
	}
	c.lowPassActive = false
	return c.startFilter(FilterReset, DefaultCutoffHz, duration)
}

// SetLowPassActive engages or resets the filter with the configured target
// and times. Repeating the current state does nothing.
func (c *Channel) SetLowPassActive(active bool) {
	switch {
	case active && !c.lowPassActive:
		c.RequestLowPassEngage(c.cfg.LowPassTargetHz, c.cfg.LowPassTime)
	case !active && c.lowPassActive:
		c.RequestLowPassReset(c.cfg.FilterResetTime)
	}
}

func (c *Channel) startFilter(kind Kind, targetHz, duration float64) *Task {
	start := c.handle.LowPassCutoff()
	c.log.Debug("filter transition", "kind", kind, "from", start, "to", targetHz, "duration", duration)
	return c.sched.Start(c.id, NewTask(kind, start, targetHz, duration, c.handle.SetLowPassCutoff))
}

// Tick advances the channel's private scheduler. Channels on a shared
// scheduler are advanced by whoever owns it.
func (c *Channel) Tick(dt float64) {
	if c.ownSched {
		c.sched.Tick(dt)
	}
}

// Close cancels the channel's transitions and releases the handle.
func (c *Channel) Close() error {
	c.sched.CancelChannel(c.id)
	h := c.handle
	c.handle = nil
	if closer, ok := h.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
