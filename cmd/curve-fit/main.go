package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/cwbudde/algo-blend/curve"
)

func main() {
	samplesPath := flag.String("samples", "", "JSON or YAML list of {intensity, volume} targets")
	points := flag.Int("points", 5, "Control points, evenly spaced over the sampled intensity range")
	mode := flag.String("mode", "linear", "Curve mode: linear|hermite")
	maxEvals := flag.Int("max-evals", 4000, "Maximum objective evaluations")
	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	seed := flag.Int64("seed", 1, "Random seed")
	output := flag.String("output", "", "Write the curve JSON here instead of stdout")
	flag.Parse()

	if *samplesPath == "" {
		die("-samples is required")
	}
	samples, err := readSamples(*samplesPath)
	if err != nil {
		die("reading samples: %v", err)
	}
	m, err := curve.ParseMode(*mode)
	if err != nil {
		die("invalid -mode: %v", err)
	}

	res, err := curve.Fit(samples, curve.FitOptions{
		Points:     *points,
		Mode:       m,
		MaxEvals:   *maxEvals,
		Population: *mayflyPop,
		Variant:    *mayflyVariant,
		Seed:       *seed,
	})
	if err != nil {
		die("fit: %v", err)
	}
	fmt.Fprintf(os.Stderr, "Fitted %d points to %d samples: rmse %.5f (initial %.5f, %d evals)\n",
		res.Curve.Len(), len(samples), res.RMSE, res.Initial, res.Evals)

	b, err := json.MarshalIndent(res.Curve.File(), "", "  ")
	if err != nil {
		die("encode: %v", err)
	}
	b = append(b, '\n')
	if *output == "" {
		os.Stdout.Write(b)
		return
	}
	if err := os.WriteFile(*output, b, 0o644); err != nil {
		die("write %s: %v", *output, err)
	}
}

func readSamples(path string) ([]curve.Sample, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []curve.Sample
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &out)
	default:
		err = json.Unmarshal(b, &out)
	}
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s has no samples", path)
	}
	return out, nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
