package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cwbudde/algo-blend/automation"
	"github.com/cwbudde/algo-blend/layer"
	"github.com/cwbudde/algo-blend/preset"
)

// controller applies commands and ticks under the mixer lock, so the audio
// callback never sees a half-applied update.
type controller struct {
	e   *preset.Engine
	log *slog.Logger
}

func newController(e *preset.Engine, log *slog.Logger) *controller {
	return &controller{e: e, log: log}
}

func (c *controller) run(src automation.Source, rate float64, stop <-chan struct{}) {
	if rate <= 0 {
		rate = 100
	}
	dt := 1 / rate
	tick := time.NewTicker(time.Duration(dt * float64(time.Second)))
	defer tick.Stop()
	elapsed := 0.0
	for {
		select {
		case <-stop:
			return
		case <-tick.C:
			c.step(src, elapsed, dt)
			elapsed += dt
		}
	}
}

func (c *controller) step(src automation.Source, t, dt float64) {
	c.e.Mixer.Locked(func() {
		if src != nil {
			c.e.Blender.SetIntensity(src.Intensity(t))
		}
		c.e.Tick(dt)
	})
}

// command handles one line of input. It reports whether to quit.
func (c *controller) command(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	// Keywords are case-insensitive, layer and cue names are not.
	fields[0] = strings.ToLower(fields[0])
	if fields[0] == "lp" && len(fields) > 1 {
		fields[1] = strings.ToLower(fields[1])
	}
	switch fields[0] {
	case "q", "quit", "exit":
		return true, nil
	case "lp":
		if len(fields) < 2 || (fields[1] != "on" && fields[1] != "off") {
			return false, fmt.Errorf("usage: lp on|off [layer]")
		}
		chans, err := c.channels(fields[2:])
		if err != nil {
			return false, err
		}
		c.e.Mixer.Locked(func() {
			for _, ch := range chans {
				ch.SetLowPassActive(fields[1] == "on")
			}
		})
		return false, nil
	case "play":
		chans, err := c.channels(fields[1:])
		if err != nil {
			return false, err
		}
		c.e.Mixer.Locked(func() {
			for _, ch := range chans {
				ch.Play()
			}
		})
		return false, nil
	case "cue":
		if len(fields) < 2 || len(fields) > 3 {
			return false, fmt.Errorf("usage: cue <name> [distance]")
		}
		cue := c.e.Cue(fields[1])
		if cue == nil {
			return false, fmt.Errorf("unknown cue %q", fields[1])
		}
		distance := 0.0
		if len(fields) == 3 {
			d, err := strconv.ParseFloat(fields[2], 64)
			if err != nil || d < 0 {
				return false, fmt.Errorf("invalid distance %q", fields[2])
			}
			distance = d
		}
		var played bool
		c.e.Mixer.Locked(func() {
			played = cue.PlayAt(distance) != nil
		})
		c.log.Info("cue", "name", fields[1], "distance", distance, "played", played)
		return false, nil
	}

	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return false, fmt.Errorf("unknown command %q", line)
	}
	var ran bool
	var levels []float64
	c.e.Mixer.Locked(func() {
		ran = c.e.Blender.SetIntensity(v)
		levels = c.e.Blender.Levels()
	})
	c.log.Info("intensity", "value", v, "evaluated", ran, "levels", levels)
	return false, nil
}

func (c *controller) channels(names []string) ([]*layer.Channel, error) {
	if len(names) == 0 {
		return c.e.Channels, nil
	}
	var out []*layer.Channel
	for _, n := range names {
		ch := c.e.Channel(n)
		if ch == nil {
			return nil, fmt.Errorf("unknown layer %q", n)
		}
		out = append(out, ch)
	}
	return out, nil
}
