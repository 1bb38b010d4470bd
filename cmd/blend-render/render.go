package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-blend/analysis"
	"github.com/cwbudde/algo-blend/automation"
	"github.com/cwbudde/algo-blend/preset"
)

type lowPassWindow struct {
	On, Off float64
	Set     bool
}

type renderOptions struct {
	Frames    int
	BlockSize int
	LowPass   lowPassWindow
}

type renderResult struct {
	Samples    []float32
	BlockTimes []float64
	Intensity  []float64
	Passes     int
}

// renderScene drives the blender once per block and collects the mix.
func renderScene(e *preset.Engine, src automation.Source, opts renderOptions) renderResult {
	sr := e.SampleRate()
	if opts.BlockSize < 1 {
		opts.BlockSize = 256
	}
	res := renderResult{Samples: make([]float32, 0, opts.Frames*2)}

	e.Blender.Init()
	engaged := false
	for done := 0; done < opts.Frames; {
		n := min(opts.BlockSize, opts.Frames-done)
		t := float64(done) / float64(sr)

		v := src.Intensity(t)
		e.Blender.SetIntensity(v)
		if opts.LowPass.Set {
			want := t >= opts.LowPass.On && t < opts.LowPass.Off
			if want != engaged {
				for _, c := range e.Channels {
					c.SetLowPassActive(want)
				}
				engaged = want
			}
		}

		res.Samples = append(res.Samples, e.Advance(n)...)
		res.BlockTimes = append(res.BlockTimes, t)
		res.Intensity = append(res.Intensity, e.Blender.Intensity())
		done += n
	}
	res.Passes = e.Blender.Passes()
	return res
}

func newSource(constant float64, keyframes, script string) (automation.Source, func(), error) {
	switch {
	case script != "":
		s, err := automation.LoadScript(script)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case keyframes != "":
		k, err := automation.ParseKeyframes(keyframes)
		if err != nil {
			return nil, nil, err
		}
		return k, func() {}, nil
	default:
		return automation.Constant(constant), func() {}, nil
	}
}

func parseWindow(raw string) (lowPassWindow, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return lowPassWindow{}, nil
	}
	a, b, ok := strings.Cut(raw, ":")
	if !ok {
		return lowPassWindow{}, fmt.Errorf("%q (use on:off seconds)", raw)
	}
	on, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
	if err != nil {
		return lowPassWindow{}, fmt.Errorf("%q: %w", raw, err)
	}
	off, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil {
		return lowPassWindow{}, fmt.Errorf("%q: %w", raw, err)
	}
	if off <= on || on < 0 {
		return lowPassWindow{}, fmt.Errorf("%q: need 0 <= on < off", raw)
	}
	return lowPassWindow{On: on, Off: off, Set: true}, nil
}

type reportRow struct {
	Time       float64 `json:"time"`
	Intensity  float64 `json:"intensity"`
	DB         float64 `json:"dbfs"`
	CentroidHz float64 `json:"centroid_hz"`
}

type report struct {
	Rows    []reportRow      `json:"rows"`
	Summary analysis.Summary `json:"summary"`
	Passes  int              `json:"passes"`
}

func buildReport(res renderResult, sampleRate int, interval float64) report {
	rep := report{
		Summary: analysis.Summarize(res.Samples, sampleRate),
		Passes:  res.Passes,
	}
	if interval <= 0 {
		return rep
	}
	mono := analysis.StereoToMono(res.Samples)
	for _, lv := range analysis.Envelope(mono, sampleRate, interval) {
		start := int(lv.Time * float64(sampleRate))
		end := min(len(mono), start+int(interval*float64(sampleRate)))
		rep.Rows = append(rep.Rows, reportRow{
			Time:       lv.Time,
			Intensity:  intensityAt(res, lv.Time),
			DB:         lv.DB,
			CentroidHz: analysis.SpectralCentroid(mono[start:end], sampleRate),
		})
	}
	return rep
}

func intensityAt(res renderResult, t float64) float64 {
	v := 0.0
	for i, bt := range res.BlockTimes {
		if bt > t {
			break
		}
		v = res.Intensity[i]
	}
	return v
}

func printReport(w io.Writer, rep report) {
	if len(rep.Rows) > 0 {
		fmt.Fprintf(w, "%8s %9s %9s %10s\n", "time", "intensity", "dBFS", "centroid")
	}
	for _, r := range rep.Rows {
		fmt.Fprintf(w, "%7.2fs %9.3f %9.1f %8.0fHz\n", r.Time, r.Intensity, r.DB, r.CentroidHz)
	}
	fmt.Fprintf(w, "Blend passes: %d\n", rep.Passes)
}

func summaryLine(s analysis.Summary) string {
	return fmt.Sprintf("peak %.3f, rms %.1f dBFS, centroid %.0f Hz", s.Peak, s.DB, s.CentroidHz)
}
