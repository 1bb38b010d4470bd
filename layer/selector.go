package layer

import "errors"

// ErrEmptyClipSet is returned when selecting from zero clips.
var ErrEmptyClipSet = errors.New("empty clip set")

// SelectorState is the mutable part of clip selection.
type SelectorState struct {
	LastPlayed int // -1 before the first random pick
	Cursor     int
}

// NewSelectorState returns the initial state.
func NewSelectorState() SelectorState {
	return SelectorState{LastPlayed: -1}
}

// SelectNext picks the next clip index for policy among setSize clips and
// updates state.
//
// RandomNoRepeat redraws while the pick equals the previous one, giving up
// after 2*setSize draws and accepting the last draw.
func SelectNext(policy Policy, setSize int, state *SelectorState, rng RNG) (int, error) {
	if setSize <= 0 {
		return 0, ErrEmptyClipSet
	}
	switch policy {
	case Sequence:
		if state.Cursor < 0 || state.Cursor >= setSize {
			state.Cursor = 0
		}
		idx := state.Cursor
		state.Cursor = (state.Cursor + 1) % setSize
		return idx, nil
	case RandomNoRepeat:
		maxAttempts := setSize * 2
		var idx int
		for attempts := 0; ; {
			idx = rng.Intn(setSize)
			attempts++
			if attempts >= maxAttempts {
				break
			}
			if setSize == 1 || idx != state.LastPlayed {
				break
			}
		}
		state.LastPlayed = idx
		return idx, nil
	default:
		return 0, nil
	}
}

// Selector bundles a policy with its state and random source.
type Selector struct {
	policy Policy
	state  SelectorState
	rng    RNG
}

// NewSelector creates a selector. A nil rng selects a time-seeded source.
func NewSelector(policy Policy, rng RNG) *Selector {
	if rng == nil {
		rng = defaultRNG()
	}
	return &Selector{policy: policy, state: NewSelectorState(), rng: rng}
}

// Next returns the next index among setSize clips.
func (s *Selector) Next(setSize int) (int, error) {
	return SelectNext(s.policy, setSize, &s.state, s.rng)
}

// Policy returns the selection policy.
func (s *Selector) Policy() Policy { return s.policy }

// State returns a copy of the current state.
func (s *Selector) State() SelectorState { return s.state }
