// Package preset loads scene files describing a set of layered channels and
// builds the mixer, channels and blender they describe.
package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/cwbudde/algo-blend/curve"
	"github.com/cwbudde/algo-blend/layer"
	"github.com/cwbudde/algo-blend/reverb"
)

// File is the on-disk scene schema. Pointer fields are optional and keep the
// defaults when absent.
type File struct {
	SampleRate *int               `json:"sample_rate" yaml:"sample_rate"`
	MaxVoices  *int               `json:"max_voices" yaml:"max_voices"`
	MasterGain *float64           `json:"master_gain" yaml:"master_gain"`
	PlayOnInit *bool              `json:"play_on_init" yaml:"play_on_init"`
	Epsilon    *float64           `json:"epsilon" yaml:"epsilon"`
	Seed       *int64             `json:"seed" yaml:"seed"`
	Reverb     *ReverbSetting     `json:"reverb" yaml:"reverb"`
	Groups     map[string]float64 `json:"groups" yaml:"groups"`
	Layers     []LayerSetting     `json:"layers" yaml:"layers"`
	// Cues use the layer schema; their curve is ignored.
	Cues       []LayerSetting     `json:"cues" yaml:"cues"`
}

// ReverbSetting enables the shared reverb send. Without an IR file a room is
// synthesized.
type ReverbSetting struct {
	IRWavPath string   `json:"ir_wav_path" yaml:"ir_wav_path"`
	Wet       *float64 `json:"wet" yaml:"wet"`
	Length    *float64 `json:"length" yaml:"length"`
	Decay     *float64 `json:"decay" yaml:"decay"`
}

// LayerSetting describes one channel and its response curve.
type LayerSetting struct {
	Name           string      `json:"name" yaml:"name"`
	Clips          []string    `json:"clips" yaml:"clips"`
	PlayType       string      `json:"play_type" yaml:"play_type"`
	Volume         *float64    `json:"volume" yaml:"volume"`
	Pitch          *float64    `json:"pitch" yaml:"pitch"`
	VolumeRange    []float64   `json:"volume_range" yaml:"volume_range"`
	PitchRange     []float64   `json:"pitch_range" yaml:"pitch_range"`
	RandomizeStart bool        `json:"randomize_start" yaml:"randomize_start"`
	Loop           bool        `json:"loop" yaml:"loop"`
	Priority       *int        `json:"priority" yaml:"priority"`
	SpatialBlend   *float64    `json:"spatial_blend" yaml:"spatial_blend"`
	Pan            *float64    `json:"pan" yaml:"pan"`
	Doppler        *float64    `json:"doppler" yaml:"doppler"`
	MaxDistance    *float64    `json:"max_distance" yaml:"max_distance"`
	ReverbZoneMix  *float64    `json:"reverb_zone_mix" yaml:"reverb_zone_mix"`
	MixerGroup     string      `json:"mixer_group" yaml:"mixer_group"`
	Distance       *float64    `json:"distance" yaml:"distance"`
	Rolloff        *curve.File `json:"rolloff" yaml:"rolloff"`
	FadeInTime     *float64    `json:"fade_in_time" yaml:"fade_in_time"`
	FadeInOnPlay   bool        `json:"fade_in_on_play" yaml:"fade_in_on_play"`
	LowPassHz      *float64    `json:"lowpass_target_hz" yaml:"lowpass_target_hz"`
	LowPassTime    *float64    `json:"lowpass_time" yaml:"lowpass_time"`
	FilterReset    *float64    `json:"filter_reset_time" yaml:"filter_reset_time"`
	Curve          curve.File  `json:"curve" yaml:"curve"`
}

// Scene is a validated, defaulted scene description.
type Scene struct {
	SampleRate int
	MaxVoices  int
	MasterGain float64
	Seed       int64
	Blender    layer.BlenderConfig
	Reverb     *Reverb
	Groups     map[string]float64
	Layers     []Layer
	Cues       []Layer
}

// Reverb is the resolved reverb send configuration.
type Reverb struct {
	IRWavPath string
	Wet       float64
	Room      reverb.RoomConfig
}

// Layer is one resolved channel or cue.
type Layer struct {
	Name     string
	Clips    []string
	Config   layer.ChannelConfig
	Distance float64
	Curve    *curve.Curve
}

// DefaultScene returns an empty scene at 48 kHz with 32 voices.
func DefaultScene() *Scene {
	return &Scene{
		SampleRate: 48000,
		MaxVoices:  32,
		MasterGain: 1,
		Blender:    layer.BlenderConfig{Epsilon: layer.DefaultEpsilon},
		Groups:     map[string]float64{},
	}
}

// Load reads a JSON or YAML scene (by extension) and applies it on top of
// DefaultScene. Relative clip and IR paths resolve against the file's
// directory.
func Load(path string) (*Scene, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &f)
	default:
		err = json.Unmarshal(b, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	s := DefaultScene()
	if err := ApplyFile(s, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.resolvePaths(filepath.Dir(path))
	return s, nil
}

func (s *Scene) resolvePaths(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Clean(filepath.Join(base, p))
	}
	if s.Reverb != nil {
		s.Reverb.IRWavPath = abs(s.Reverb.IRWavPath)
	}
	for _, ls := range [][]Layer{s.Layers, s.Cues} {
		for i := range ls {
			for j, c := range ls[i].Clips {
				ls[i].Clips[j] = abs(c)
			}
		}
	}
}

// ApplyFile applies a parsed scene file onto dst.
func ApplyFile(dst *Scene, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination scene")
	}
	if f == nil {
		return nil
	}

	if f.SampleRate != nil {
		if *f.SampleRate < 8000 || *f.SampleRate > 384000 {
			return fmt.Errorf("sample_rate must be in [8000,384000]")
		}
		dst.SampleRate = *f.SampleRate
	}
	if f.MaxVoices != nil {
		if *f.MaxVoices < 0 {
			return fmt.Errorf("max_voices must be >= 0")
		}
		dst.MaxVoices = *f.MaxVoices
	}
	if f.MasterGain != nil {
		if *f.MasterGain < 0 {
			return fmt.Errorf("master_gain must be >= 0")
		}
		dst.MasterGain = *f.MasterGain
	}
	if f.PlayOnInit != nil {
		dst.Blender.PlayOnInit = *f.PlayOnInit
	}
	if f.Epsilon != nil {
		if *f.Epsilon <= 0 || *f.Epsilon >= 0.5 {
			return fmt.Errorf("epsilon must be in (0,0.5)")
		}
		dst.Blender.Epsilon = *f.Epsilon
	}
	if f.Seed != nil {
		dst.Seed = *f.Seed
	}
	if err := applyReverb(dst, f.Reverb); err != nil {
		return err
	}
	for g, v := range f.Groups {
		if v < 0 {
			return fmt.Errorf("groups[%s] must be >= 0", g)
		}
		dst.Groups[g] = v
	}

	seen := make(map[string]bool, len(f.Layers))
	for i := range f.Layers {
		l, err := buildLayer(&f.Layers[i])
		if err != nil {
			return fmt.Errorf("layers[%d]: %w", i, err)
		}
		if seen[l.Name] {
			return fmt.Errorf("layers[%d]: duplicate name %q", i, l.Name)
		}
		seen[l.Name] = true
		dst.Layers = append(dst.Layers, l)
	}

	seenCue := make(map[string]bool, len(f.Cues))
	for i := range f.Cues {
		c := f.Cues[i]
		c.Curve = curve.File{}
		l, err := buildLayer(&c)
		if err != nil {
			return fmt.Errorf("cues[%d]: %w", i, err)
		}
		if seenCue[l.Name] {
			return fmt.Errorf("cues[%d]: duplicate name %q", i, l.Name)
		}
		seenCue[l.Name] = true
		dst.Cues = append(dst.Cues, l)
	}
	return nil
}

func applyReverb(dst *Scene, r *ReverbSetting) error {
	if r == nil {
		return nil
	}
	rv := &Reverb{
		IRWavPath: strings.TrimSpace(r.IRWavPath),
		Wet:       1,
		Room:      reverb.DefaultRoomConfig(dst.SampleRate),
	}
	if r.Wet != nil {
		if *r.Wet < 0 {
			return fmt.Errorf("reverb.wet must be >= 0")
		}
		rv.Wet = *r.Wet
	}
	if r.Length != nil {
		rv.Room.Length = *r.Length
	}
	if r.Decay != nil {
		rv.Room.Decay = *r.Decay
	}
	if err := rv.Room.Validate(); err != nil {
		return fmt.Errorf("reverb: %w", err)
	}
	dst.Reverb = rv
	return nil
}

func buildLayer(s *LayerSetting) (Layer, error) {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return Layer{}, fmt.Errorf("name is required")
	}
	policy, err := layer.ParsePolicy(s.PlayType)
	if err != nil {
		return Layer{}, err
	}

	cfg := layer.DefaultChannelConfig()
	cfg.Policy = policy
	cfg.RandomizeStart = s.RandomizeStart
	cfg.FadeInOnPlay = s.FadeInOnPlay
	setFloat(&cfg.Volume, s.Volume)
	setFloat(&cfg.Pitch, s.Pitch)
	cfg.VolumeMin, cfg.VolumeMax = cfg.Volume, cfg.Volume
	cfg.PitchMin, cfg.PitchMax = cfg.Pitch, cfg.Pitch
	if err := setRange(&cfg.VolumeMin, &cfg.VolumeMax, s.VolumeRange, "volume_range"); err != nil {
		return Layer{}, err
	}
	if err := setRange(&cfg.PitchMin, &cfg.PitchMax, s.PitchRange, "pitch_range"); err != nil {
		return Layer{}, err
	}

	r := &cfg.Routing
	r.Loop = s.Loop
	r.MixerGroup = s.MixerGroup
	if s.Priority != nil {
		r.Priority = *s.Priority
	}
	setFloat(&r.SpatialBlend, s.SpatialBlend)
	setFloat(&r.Pan, s.Pan)
	setFloat(&r.Doppler, s.Doppler)
	setFloat(&r.MaxDistance, s.MaxDistance)
	setFloat(&r.ReverbZoneMix, s.ReverbZoneMix)
	if s.Rolloff != nil {
		if r.Rolloff, err = s.Rolloff.Build(); err != nil {
			return Layer{}, fmt.Errorf("rolloff: %w", err)
		}
	}

	setFloat(&cfg.FadeInTime, s.FadeInTime)
	setFloat(&cfg.LowPassTargetHz, s.LowPassHz)
	setFloat(&cfg.LowPassTime, s.LowPassTime)
	setFloat(&cfg.FilterResetTime, s.FilterReset)
	if err := cfg.Validate(); err != nil {
		return Layer{}, err
	}

	c, err := s.Curve.Build()
	if err != nil {
		return Layer{}, fmt.Errorf("curve: %w", err)
	}
	l := Layer{Name: name, Config: cfg, Curve: c}
	for _, p := range s.Clips {
		if p = strings.TrimSpace(p); p != "" {
			l.Clips = append(l.Clips, p)
		}
	}
	if s.Distance != nil {
		if *s.Distance < 0 {
			return Layer{}, fmt.Errorf("distance must be >= 0")
		}
		l.Distance = *s.Distance
	}
	return l, nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setRange(lo, hi *float64, v []float64, field string) error {
	switch len(v) {
	case 0:
		return nil
	case 2:
		*lo, *hi = v[0], v[1]
		return nil
	default:
		return fmt.Errorf("%s must have two values, got %d", field, len(v))
	}
}
