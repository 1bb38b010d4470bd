package layer

import (
	"fmt"
	"strings"
)

// Policy selects how a channel picks the next clip.
type Policy int

const (
	// Single always plays the first clip and never randomizes.
	Single Policy = iota
	// Sequence cycles through the clips in order.
	Sequence
	// RandomNoRepeat draws uniformly, avoiding the previous pick.
	RandomNoRepeat
)

func (p Policy) String() string {
	switch p {
	case Single:
		return "single"
	case Sequence:
		return "sequence"
	case RandomNoRepeat:
		return "random"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy parses a policy name. The empty string selects Single.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "single":
		return Single, nil
	case "sequence":
		return Sequence, nil
	case "random", "random_no_repeat", "randomnorepeat":
		return RandomNoRepeat, nil
	default:
		return Single, fmt.Errorf("unknown play type %q", s)
	}
}
