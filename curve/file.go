package curve

// File is the serialized form of a curve used in presets and tool output.
type File struct {
	Mode   string  `json:"mode,omitempty" yaml:"mode,omitempty"`
	Points []Point `json:"points" yaml:"points"`
}

// Build validates the file and returns the curve.
func (f File) Build() (*Curve, error) {
	mode, err := ParseMode(f.Mode)
	if err != nil {
		return nil, err
	}
	return New(mode, f.Points...)
}

// File returns the serializable form of c.
func (c *Curve) File() File {
	return File{Mode: c.Mode().String(), Points: c.Points()}
}
