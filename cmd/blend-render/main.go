package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/cwbudde/algo-blend/analysis"
	"github.com/cwbudde/algo-blend/clip"
	"github.com/cwbudde/algo-blend/preset"
)

func main() {
	presetPath := flag.String("preset", "", "Scene file (.json, .yaml or .yml), required")
	duration := flag.Float64("duration", 10.0, "Render length in seconds")
	blockSize := flag.Int("block", 256, "Frames per control block")
	intensity := flag.Float64("intensity", 0.5, "Constant intensity, used when no keyframes or script are given")
	keyframes := flag.String("keyframes", "", "Intensity keyframes as time:value pairs, e.g. 0:0,5:1,10:0.3")
	script := flag.String("script", "", "Lua file defining function intensity(t)")
	lowpass := flag.String("lowpass", "", "Engage the low-pass on every layer between two times, e.g. 3:8")
	report := flag.Float64("report", 1.0, "Level report interval in seconds (0 disables)")
	reportJSON := flag.String("report-json", "", "Write the level report as JSON to this path")
	output := flag.String("output", "output.wav", "Output WAV file path")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *presetPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -preset is required")
		os.Exit(2)
	}
	scene, err := preset.Load(*presetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading scene %q: %v\n", *presetPath, err)
		os.Exit(1)
	}
	src, closeSrc, err := newSource(*intensity, *keyframes, *script)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeSrc()
	window, err := parseWindow(*lowpass)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing -lowpass: %v\n", err)
		os.Exit(1)
	}

	engine, err := scene.Build(log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building scene: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	fmt.Printf("Rendering %s for %.2f seconds at %d Hz (%d layers)...\n", *presetPath, *duration, scene.SampleRate, len(engine.Channels))

	res := renderScene(engine, src, renderOptions{
		Frames:    max(1, int(*duration*float64(scene.SampleRate))),
		BlockSize: *blockSize,
		LowPass:   window,
	})

	if err := clip.WriteStereoWAV(*output, res.Samples, scene.SampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}

	rep := buildReport(res, scene.SampleRate, *report)
	printReport(os.Stdout, rep)
	if *reportJSON != "" {
		b, err := json.MarshalIndent(rep, "", "  ")
		if err == nil {
			err = os.WriteFile(*reportJSON, b, 0o644)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Successfully wrote %s (%d frames, %s)\n", *output, len(res.Samples)/2, summaryLine(analysis.Summarize(res.Samples, scene.SampleRate)))
}
