package layer

// fakeClip is a ClipHandle with a fixed length.
type fakeClip struct {
	name   string
	length float64
}

func (c *fakeClip) Duration() float64 {
	if c == nil {
		return 0
	}
	return c.length
}

// fakeHandle records what the channel does to it.
type fakeHandle struct {
	playing  bool
	paused   bool
	clip     ClipHandle
	volume   float64
	pitch    float64
	offset   float64
	cutoff   float64
	routing  Routing
	distance float64

	plays      []ClipHandle
	volumes    []float64
	playLevels []float64
	pauses     int
	resumes    int
	configured int
	closed     bool
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{cutoff: DefaultCutoffHz, volume: 1, pitch: 1}
}

func (h *fakeHandle) Play(c ClipHandle) {
	h.clip = c
	h.plays = append(h.plays, c)
	h.playLevels = append(h.playLevels, h.volume)
	h.playing = true
	h.paused = false
	h.offset = 0
}

func (h *fakeHandle) Pause() {
	h.pauses++
	if h.playing {
		h.paused = true
	}
}

func (h *fakeHandle) Resume() {
	h.resumes++
	h.paused = false
}

func (h *fakeHandle) IsPlaying() bool { return h.playing && !h.paused }

func (h *fakeHandle) SetVolume(v float64) {
	h.volume = v
	h.volumes = append(h.volumes, v)
}

func (h *fakeHandle) SetPitch(p float64) { h.pitch = p }
func (h *fakeHandle) SetStartOffset(s float64) { h.offset = s }
func (h *fakeHandle) LowPassCutoff() float64 { return h.cutoff }
func (h *fakeHandle) SetLowPassCutoff(hz float64) { h.cutoff = hz }
func (h *fakeHandle) Configure(r Routing) { h.routing = r; h.configured++ }
func (h *fakeHandle) Close() error { h.closed = true; return nil }
func (h *fakeHandle) SetDistance(d float64) { h.distance = d }

func (h *fakeHandle) ClipDuration() float64 {
	if h.clip == nil {
		return 0
	}
	return h.clip.Duration()
}

// scriptedRNG replays fixed draws, cycling when exhausted.
type scriptedRNG struct {
	ints   []int
	floats []float64
	ni, nf int
}

func (r *scriptedRNG) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[r.ni%len(r.ints)]
	r.ni++
	return v % n
}

func (r *scriptedRNG) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.5
	}
	v := r.floats[r.nf%len(r.floats)]
	r.nf++
	return v
}

// recordingLayer counts blender writes.
type recordingLayer struct {
	volume     float64
	shouldPlay bool
	writes     int
	plays      int
}

func (l *recordingLayer) Play() { l.plays++ }
func (l *recordingLayer) SetVolume(v float64) { l.volume = v; l.writes++ }
func (l *recordingLayer) SetPlaybackState(b bool) { l.shouldPlay = b; l.writes++ }

func clips(n int) []ClipHandle {
	out := make([]ClipHandle, n)
	for i := range out {
		out[i] = &fakeClip{length: 2}
	}
	return out
}
