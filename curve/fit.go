package curve

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/cwbudde/mayfly"
)

// Sample is one target (intensity, volume) pair for Fit.
type Sample struct {
	In  float64 `json:"intensity" yaml:"intensity"`
	Out float64 `json:"volume" yaml:"volume"`
}

// FitOptions controls Fit. Zero values select defaults.
type FitOptions struct {
	Points     int    // control points, evenly spaced over the sample range (default 5)
	Mode       Mode   // Linear or Hermite; Hermite tangents are Catmull-Rom
	MaxEvals   int    // objective evaluations (default 2000)
	Population int    // mayfly population per sex (default 10)
	Variant    string // mayfly variant, see newMayflyConfig (default "desma")
	Seed       int64
}

// FitResult holds the best curve found.
type FitResult struct {
	Curve   *Curve
	RMSE    float64
	Initial float64 // RMSE of the starting guess
	Evals   int
}

// Fit searches control-point outputs in [0,1] that minimise the RMSE between
// the curve and samples. The returned curve is never worse than the
// nearest-sample starting guess.
func Fit(samples []Sample, opts FitOptions) (*FitResult, error) {
	if len(samples) < 2 {
		return nil, errors.New("fit needs at least 2 samples")
	}
	if opts.Points <= 0 {
		opts.Points = 5
	}
	if opts.Points < 2 {
		opts.Points = 2
	}
	if opts.MaxEvals <= 0 {
		opts.MaxEvals = 2000
	}
	if opts.Population < 2 {
		opts.Population = 10
	}
	if opts.Mode == Step {
		return nil, errors.New("step curves cannot be fitted")
	}
	for i, s := range samples {
		if !isFinite(s.In) || !isFinite(s.Out) {
			return nil, fmt.Errorf("sample %d is not finite", i)
		}
	}

	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].In < sorted[j].In })
	lo, hi := sorted[0].In, sorted[len(sorted)-1].In
	if hi <= lo {
		return nil, errors.New("samples must span a non-empty intensity range")
	}

	knots := make([]float64, opts.Points)
	for i := range knots {
		knots[i] = lo + (hi-lo)*float64(i)/float64(opts.Points-1)
	}

	initial := make([]float64, opts.Points)
	for i, x := range knots {
		initial[i] = clamp01(nearest(sorted, x).Out)
	}
	best := append([]float64(nil), initial...)
	bestScore := fitRMSE(knots, best, opts.Mode, sorted)
	initialScore := bestScore

	evals := 0
	for evals < opts.MaxEvals {
		remaining := opts.MaxEvals - evals
		iters := max(1, remaining/(2*opts.Population))
		cfg, err := newMayflyConfig(strings.ToLower(opts.Variant), opts.Population, opts.Points, iters)
		if err != nil {
			return nil, err
		}
		cfg.Rand = rand.New(rand.NewSource(opts.Seed + int64(evals)*7919))
		cfg.ObjectiveFunc = func(pos []float64) float64 {
			evals++
			outs := make([]float64, len(pos))
			for i := range pos {
				outs[i] = clamp01(pos[i])
			}
			score := fitRMSE(knots, outs, opts.Mode, sorted)
			if score < bestScore {
				bestScore = score
				best = outs
			}
			return score
		}
		before := evals
		if _, err := runMayfly(cfg); err != nil {
			return nil, err
		}
		if evals == before {
			break
		}
	}

	c, err := buildFitted(knots, best, opts.Mode)
	if err != nil {
		return nil, err
	}
	return &FitResult{Curve: c, RMSE: bestScore, Initial: initialScore, Evals: evals}, nil
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "ma":
		cfg = mayfly.NewDefaultConfig()
	case "", "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported mayfly variant %q", variant)
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = max(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}

func buildFitted(knots, outs []float64, mode Mode) (*Curve, error) {
	points := make([]Point, len(knots))
	for i := range knots {
		points[i] = Point{In: knots[i], Out: outs[i]}
	}
	if mode == Hermite {
		for i := range points {
			prev, next := points[max(0, i-1)], points[min(len(points)-1, i+1)]
			slope := (next.Out - prev.Out) / (next.In - prev.In)
			points[i].InTangent = slope
			points[i].OutTangent = slope
		}
	}
	return New(mode, points...)
}

func fitRMSE(knots, outs []float64, mode Mode, samples []Sample) float64 {
	c, err := buildFitted(knots, outs, mode)
	if err != nil {
		return math.Inf(1)
	}
	var sum float64
	for _, s := range samples {
		d := c.Evaluate(s.In) - s.Out
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func nearest(sorted []Sample, x float64) Sample {
	i := sort.Search(len(sorted), func(i int) bool { return sorted[i].In >= x })
	if i == 0 {
		return sorted[0]
	}
	if i == len(sorted) {
		return sorted[len(sorted)-1]
	}
	if x-sorted[i-1].In <= sorted[i].In-x {
		return sorted[i-1]
	}
	return sorted[i]
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
