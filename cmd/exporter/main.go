package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/you/fakechat/internal/config"
	"github.com/you/fakechat/internal/export"
	"github.com/you/fakechat/internal/version"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	_ = godotenv.Load()

	var (
		versionFlag bool
		durationSec int
		quality     string
		format      string
		crop        bool
		lightTheme  bool
		outDir      string
		scenario    string
		speedMS     int
		chatters    int
		seed        uint64
		pace        bool
		quiet       bool
	)

	flag.BoolVar(&versionFlag, "version", false, "Print build version and exit")
	flag.IntVar(&durationSec, "duration", 0, "Clip duration in seconds")
	flag.StringVar(&quality, "quality", "", "Quality preset: "+strings.Join(export.PresetNames(), ", "))
	flag.StringVar(&format, "format", "", "Container format: webm or mp4")
	flag.BoolVar(&crop, "crop", false, "Crop the canvas to the chat panel")
	flag.BoolVar(&lightTheme, "light", false, "Render with the light theme")
	flag.StringVar(&outDir, "out", "", "Output directory")
	flag.StringVar(&scenario, "scenario", "", "Scenario preset to apply")
	flag.IntVar(&speedMS, "speed-ms", 0, "Base interval between messages in milliseconds")
	flag.IntVar(&chatters, "chatters", 0, "Number of active chatters")
	flag.Uint64Var(&seed, "seed", 0, "Random seed for reproducible clips (0 = random)")
	flag.BoolVar(&pace, "pace", false, "Throttle rendering to real time")
	flag.BoolVar(&quiet, "quiet", false, "Suppress progress output")
	flag.Parse()

	if versionFlag {
		fmt.Printf(
			"exporter version: %s (commit %s, built %s)\n",
			version.Version,
			version.Commit,
			version.BuildTime,
		)
		os.Exit(0)
	}

	overrides := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		overrides[f.Name] = true
	})

	cfg := config.Load()

	if overrides["duration"] && durationSec > 0 {
		cfg.Export.DurationSec = durationSec
	}
	if overrides["quality"] {
		cfg.Export.Quality = strings.TrimSpace(quality)
	}
	if overrides["format"] {
		cfg.Export.Format = strings.ToLower(strings.TrimSpace(format))
	}
	if overrides["crop"] {
		cfg.Export.Crop = crop
	}
	if overrides["light"] {
		cfg.Export.LightTheme = lightTheme
	}
	if overrides["out"] {
		cfg.Export.OutputDir = strings.TrimSpace(outDir)
	}
	if overrides["scenario"] {
		cfg.Sim = config.ApplyScenario(cfg.Sim, strings.TrimSpace(scenario))
	}
	if overrides["speed-ms"] && speedMS > 0 {
		cfg.Sim.SpeedMS = speedMS
	}
	if overrides["chatters"] && chatters > 0 {
		cfg.Sim.ActiveChatters = chatters
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("exporter: received %s, cancelling", sig)
		cancel()
	}()

	opts := export.Options{
		Sim:    cfg.Sim,
		Export: cfg.Export,
		Seed:   seed,
		Pace:   pace,
	}
	if !quiet {
		opts.OnProgress = func(p export.Progress) {
			fmt.Fprintf(os.Stderr, "\r%-12s %5.1f%%", p.Stage, p.Percent)
		}
	}

	pipeline := export.NewPipeline(opts)
	res, err := pipeline.Run(ctx)
	if !quiet {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		if errors.Is(err, export.ErrCanceled) {
			log.Printf("exporter: canceled, partial output removed")
			os.Exit(130)
		}
		log.Fatalf("exporter: %v", err)
	}

	sizeMB := float64(res.SizeBytes) / (1024 * 1024)
	log.Printf("exporter: wrote %s (%s, %d frames, %.2f MB) in %s",
		res.Path, res.Container, res.Frames, sizeMB, res.Elapsed.Round(0))
}
