package layer

import "fmt"

// ChannelConfig holds the playback parameters of one channel. It is copied
// into the channel at construction and never read again from the caller.
type ChannelConfig struct {
	Policy Policy

	// Base values applied when a channel is created. Volume is also the
	// fade-in target.
	Volume float64
	Pitch  float64

	// Randomization ranges used by Sequence and RandomNoRepeat plays.
	VolumeMin float64
	VolumeMax float64
	PitchMin  float64
	PitchMax  float64

	RandomizeStart bool

	Routing Routing

	FadeInTime   float64
	FadeInOnPlay bool

	LowPassTargetHz float64
	LowPassTime     float64
	FilterResetTime float64
}

// DefaultChannelConfig returns neutral settings: unit pitch and volume, no
// randomization, priority 128, a 1 kHz low-pass target.
func DefaultChannelConfig() ChannelConfig {
	return ChannelConfig{
		Policy:          Single,
		Volume:          1,
		Pitch:           1,
		VolumeMin:       1,
		VolumeMax:       1,
		PitchMin:        1,
		PitchMax:        1,
		Routing:         Routing{Priority: 128, MaxDistance: 50},
		LowPassTargetHz: 1000,
	}
}

// Validate reports the first out-of-range field.
func (c ChannelConfig) Validate() error {
	if c.Policy < Single || c.Policy > RandomNoRepeat {
		return fmt.Errorf("unknown policy %d", int(c.Policy))
	}
	if c.Volume < 0 || c.Volume > 1 {
		return fmt.Errorf("volume must be in [0,1]")
	}
	if c.Pitch <= 0 || c.Pitch > 3 {
		return fmt.Errorf("pitch must be in (0,3]")
	}
	if c.VolumeMin < 0 || c.VolumeMax > 1 || c.VolumeMin > c.VolumeMax {
		return fmt.Errorf("volume range must satisfy 0 <= min <= max <= 1")
	}
	if c.PitchMin <= 0 || c.PitchMax > 3 || c.PitchMin > c.PitchMax {
		return fmt.Errorf("pitch range must satisfy 0 < min <= max <= 3")
	}
	r := c.Routing
	if r.Priority < 0 || r.Priority > 256 {
		return fmt.Errorf("priority must be in [0,256]")
	}
	if r.SpatialBlend < 0 || r.SpatialBlend > 1 {
		return fmt.Errorf("spatial_blend must be in [0,1]")
	}
	if r.Pan < -1 || r.Pan > 1 {
		return fmt.Errorf("pan must be in [-1,1]")
	}
	if r.Doppler < 0 || r.Doppler > 5 {
		return fmt.Errorf("doppler must be in [0,5]")
	}
	if r.MaxDistance <= 0 {
		return fmt.Errorf("max_distance must be > 0")
	}
	if r.ReverbZoneMix < 0 || r.ReverbZoneMix > 1 {
		return fmt.Errorf("reverb_zone_mix must be in [0,1]")
	}
	if c.FadeInTime < 0 || c.LowPassTime < 0 || c.FilterResetTime < 0 {
		return fmt.Errorf("transition times must be >= 0")
	}
	if c.LowPassTargetHz <= 0 || c.LowPassTargetHz > DefaultCutoffHz {
		return fmt.Errorf("lowpass target must be in (0,%g]", DefaultCutoffHz)
	}
	return nil
}
