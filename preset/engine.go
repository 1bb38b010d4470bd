package preset

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cwbudde/algo-blend/clip"
	"github.com/cwbudde/algo-blend/layer"
	"github.com/cwbudde/algo-blend/render"
	"github.com/cwbudde/algo-blend/reverb"
)

// Engine is a built scene: one mixer handle and channel per layer, all
// transitions on one shared scheduler, driven by one blender. Cues take
// their handles from the same mixer on demand.
type Engine struct {
	Mixer     *render.Mixer
	Scheduler *layer.Scheduler
	Blender   *layer.Blender
	Channels  []*layer.Channel
	Handles   []*render.Handle
	Cues      []*layer.Cue

	sampleRate int
	log        *slog.Logger
}

// Build loads every clip and wires the scene. A nil logger discards.
func (s *Scene) Build(log *slog.Logger) (*Engine, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	m := render.NewMixer(s.SampleRate, s.MaxVoices)
	m.SetMasterGain(s.MasterGain)
	for g, v := range s.Groups {
		m.SetGroupGain(g, v)
	}
	if s.Reverb != nil {
		var conv *reverb.Convolver
		var err error
		if s.Reverb.IRWavPath != "" {
			conv, err = reverb.NewConvolverFromWAV(s.Reverb.IRWavPath, s.SampleRate, reverb.DefaultPartSize)
		} else {
			room := s.Reverb.Room
			room.SampleRate = s.SampleRate
			conv, err = reverb.NewRoomConvolver(room, reverb.DefaultPartSize)
		}
		if err != nil {
			return nil, fmt.Errorf("reverb: %w", err)
		}
		m.SetReverb(conv, s.Reverb.Wet)
	}

	sched := layer.NewScheduler()
	e := &Engine{
		Mixer:      m,
		Scheduler:  sched,
		Blender:    layer.NewBlender(s.Blender, layer.WithBlenderScheduler(sched), layer.WithBlenderLogger(log)),
		sampleRate: s.SampleRate,
		log:        log,
	}
	for i, l := range s.Layers {
		handles, err := loadClips(l.Clips, s.SampleRate)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("layer %q: %w", l.Name, err)
		}

		h := m.NewHandle()
		h.SetDistance(l.Distance)
		opts := []layer.ChannelOption{layer.WithScheduler(sched), layer.WithLogger(log)}
		if s.Seed != 0 {
			opts = append(opts, layer.WithRNG(layer.NewRNG(s.Seed+int64(i))))
		}
		ch := layer.NewChannel(l.Name, h, handles, l.Config, opts...)
		e.Channels = append(e.Channels, ch)
		e.Handles = append(e.Handles, h)
		e.Blender.Bind(ch, l.Curve)
		log.Debug("layer ready", "layer", l.Name, "clips", len(handles), "policy", l.Config.Policy)
	}

	for i, l := range s.Cues {
		handles, err := loadClips(l.Clips, s.SampleRate)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("cue %q: %w", l.Name, err)
		}
		opts := []layer.CueOption{layer.CueLogger(log)}
		if s.Seed != 0 {
			opts = append(opts, layer.CueRNG(layer.NewRNG(s.Seed+int64(len(s.Layers)+i))))
		}
		factory := func() layer.AudioHandle { return m.NewHandle() }
		e.Cues = append(e.Cues, layer.NewCue(l.Name, handles, l.Config, factory, opts...))
		log.Debug("cue ready", "cue", l.Name, "clips", len(handles), "policy", l.Config.Policy)
	}
	return e, nil
}

func loadClips(paths []string, sampleRate int) ([]layer.ClipHandle, error) {
	clips, err := clip.LoadAll(paths, sampleRate)
	if err != nil {
		return nil, err
	}
	handles := make([]layer.ClipHandle, len(clips))
	for i, c := range clips {
		handles[i] = c
	}
	return handles, nil
}

// SampleRate returns the output rate.
func (e *Engine) SampleRate() int { return e.sampleRate }

// Channel returns the channel with the given name, or nil.
func (e *Engine) Channel(name string) *layer.Channel {
	for _, c := range e.Channels {
		if c.ID() == name {
			return c
		}
	}
	return nil
}

// Cue returns the cue with the given name, or nil.
func (e *Engine) Cue(name string) *layer.Cue {
	for _, c := range e.Cues {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// Tick advances transitions and cue release timers by dt seconds.
func (e *Engine) Tick(dt float64) {
	e.Blender.Tick(dt)
	for _, c := range e.Cues {
		if err := c.Tick(dt); err != nil {
			e.log.Warn("cue release failed", "cue", c.Name(), "err", err)
		}
	}
}

// Advance ticks by the block length and renders numFrames of stereo
// interleaved audio.
func (e *Engine) Advance(numFrames int) []float32 {
	e.Tick(float64(numFrames) / float64(e.sampleRate))
	return e.Mixer.Process(numFrames)
}

// Close stops every cue and closes every channel, releasing their handles.
func (e *Engine) Close() error {
	var errs []error
	for _, c := range e.Cues {
		errs = append(errs, c.Close())
	}
	for _, c := range e.Channels {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
