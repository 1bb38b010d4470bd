package layer

import (
	"math/rand"
	"time"
)

// RNG supplies uniform draws. *rand.Rand satisfies it.
type RNG interface {
	// Float64 returns a value in [0,1).
	Float64() float64
	// Intn returns a value in [0,n). n > 0.
	Intn(n int) int
}

// NewRNG returns a math/rand backed RNG for the given seed.
func NewRNG(seed int64) RNG {
	return rand.New(rand.NewSource(seed))
}

// uniform draws from [lo,hi). Reversed bounds are accepted.
func uniform(r RNG, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

func defaultRNG() RNG {
	return NewRNG(time.Now().UnixNano())
}
