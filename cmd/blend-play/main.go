package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/cwbudde/algo-blend/automation"
	"github.com/cwbudde/algo-blend/preset"
)

func main() {
	presetPath := flag.String("preset", "", "Scene file (.json, .yaml or .yml), required")
	script := flag.String("script", "", "Lua file defining function intensity(t); stdin commands still work")
	tickRate := flag.Float64("tick-rate", 100, "Control updates per second")
	bufferMS := flag.Int("buffer-ms", 40, "Device buffer length in milliseconds")
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
	engine, err := scene.Build(log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building scene: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	var src automation.Source
	if *script != "" {
		s, err := automation.LoadScript(*script)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer s.Close()
		src = s
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   scene.SampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(*bufferMS) * time.Millisecond,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening audio device: %v\n", err)
		os.Exit(1)
	}
	<-ready

	ctl := newController(engine, log)
	engine.Mixer.Locked(engine.Blender.Init)

	player := ctx.NewPlayer(engine.Mixer)
	player.Play()
	defer player.Close()

	stop := make(chan struct{})
	go ctl.run(src, *tickRate, stop)

	fmt.Printf("Playing %s (%d layers, %d cues). Commands: <intensity 0..1>, lp on|off [layer], play [layer], cue <name> [distance], q\n", *presetPath, len(engine.Channels), len(engine.Cues))

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	for {
		select {
		case <-sig:
			close(stop)
			return
		case line, ok := <-lines:
			if !ok {
				close(stop)
				return
			}
			quit, err := ctl.command(line)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
			}
			if quit {
				close(stop)
				return
			}
		}
	}
}
