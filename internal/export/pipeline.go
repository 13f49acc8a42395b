package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/you/fakechat/internal/chatgen"
	"github.com/you/fakechat/internal/config"
	"github.com/you/fakechat/internal/core"
	"github.com/you/fakechat/internal/identity"
	"github.com/you/fakechat/internal/render"
	"github.com/you/fakechat/internal/rng"
	"github.com/you/fakechat/internal/timeline"
)

// ErrCanceled reports an export aborted before completion. The partial
// output file is removed.
var ErrCanceled = errors.New("export canceled")

// State tracks where a pipeline run currently is.
type State int32

const (
	StateIdle State = iota
	StateRendering
	StateEncoding
	StateCancelling
)

func (s State) String() string {
	switch s {
	case StateRendering:
		return "rendering"
	case StateEncoding:
		return "encoding"
	case StateCancelling:
		return "cancelling"
	default:
		return "idle"
	}
}

// Progress reports export advancement. Percent runs 0-100 over the
// whole job; when an MP4 transcode is planned the render phase only
// climbs to 80 and the transcode covers the rest.
type Progress struct {
	Percent float64
	Stage   string
}

type ProgressFunc func(Progress)

// Cropped panel dimensions match the on-screen chat widget.
const (
	cropWidth  = 400
	cropHeight = 600
)

type Options struct {
	Sim    config.SimConfig
	Export config.ExportConfig
	// Seed fixes the random stream for reproducible clips; zero seeds
	// from entropy.
	Seed       uint64
	OnProgress ProgressFunc
	// Pace throttles frame production to real time. Off by default;
	// ffmpeg consumes as fast as frames render.
	Pace bool
	// NewEncoder overrides the ffmpeg encoder, for tests.
	NewEncoder EncoderFactory
}

// Result describes a finished export.
type Result struct {
	Job       string
	Path      string
	Container string
	Frames    int
	Viewers   int
	SizeBytes int64
	Elapsed   time.Duration
}

// Pipeline generates a chat timeline, renders every frame and encodes
// the result. One Pipeline value runs one job at a time.
type Pipeline struct {
	opts  Options
	state atomic.Int32

	// transcode is swapped out in tests.
	transcode func(ctx context.Context, inPath, outPath string, preset Preset) error
}

func NewPipeline(opts Options) *Pipeline {
	p := &Pipeline{opts: opts}
	p.transcode = func(ctx context.Context, inPath, outPath string, preset Preset) error {
		return TranscodeMP4(ctx, opts.Export.FFmpegPath, inPath, outPath, preset)
	}
	return p
}

func (p *Pipeline) State() State {
	return State(p.state.Load())
}

func (p *Pipeline) setState(s State) {
	p.state.Store(int32(s))
}

func (p *Pipeline) progress(pct float64, stage string) {
	if p.opts.OnProgress != nil {
		p.opts.OnProgress(Progress{Percent: pct, Stage: stage})
	}
}

// Run executes the export end to end. It blocks until the file is
// written, the context is canceled, or encoding fails.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	job := uuid.NewString()
	sim, exp := p.opts.Sim, p.opts.Export

	preset, err := LookupPreset(exp.Quality)
	if err != nil {
		return nil, err
	}
	wantMP4 := strings.EqualFold(exp.Format, "mp4")

	width, height := preset.Width, preset.Height
	placement := render.FullCanvas
	if exp.Crop {
		width, height = cropWidth, cropHeight
		placement = render.Cropped
	}

	var src *rng.Source
	if p.opts.Seed != 0 {
		src = rng.NewSeeded(p.opts.Seed)
	} else {
		src = rng.New()
	}

	p.setState(StateRendering)
	defer p.setState(StateIdle)
	p.progress(0, "preparing")

	viewers := chatgen.ViewerCount(src, sim.ActiveChatters)
	pool := chatgen.ExportPool(src, sim.Usernames, sim.ActiveChatters)

	official := core.OfficialBadgeList(sim.BadgeKinds)
	customs := chatgen.CustomBadges(sim.CustomBadges)
	reg := identity.NewExport(src, sim.ColorsEnabled, official, customs)
	reg.Preload(pool)

	emotes := chatgen.CustomEmotes(sim.CustomEmotes)
	gen := chatgen.New(src, exportGenParams(sim, emotes))

	speed := sim.SpeedMS
	if speed <= 0 {
		speed = 1000
	}
	events := timeline.Build(src, gen, reg, pool, timeline.Params{
		DurationSec:       float64(exp.DurationSec),
		MessagesPerSecond: 1000 / float64(speed),
		BotEnabled:        sim.BotEnabled,
		BotMessage:        sim.BotMessage,
		BotDelaySec:       float64(sim.BotDelaySec),
	})

	images := PreloadImages(ctx, imageRefs(official, customs, emotes))

	r := render.New(render.Options{
		Placement:  placement,
		LightTheme: exp.LightTheme,
		Viewers:    viewers,
		Emotes:     emotes,
	})

	outDir := exp.OutputDir
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "output dir")
	}
	webmPath := filepath.Join(outDir, outputFileName(exp.DurationSec, time.Now(), "webm"))

	factory := p.opts.NewEncoder
	if factory == nil {
		factory = NewFFmpegEncoder(exp.FFmpegPath)
	}
	enc := factory(width, height, preset, webmPath)
	if err := enc.Start(ctx); err != nil {
		return nil, err
	}

	totalFrames := exp.DurationSec * preset.FPS
	renderCeiling := 100.0
	if wantMP4 {
		renderCeiling = 80.0
	}

	var limiter *rate.Limiter
	if p.opts.Pace {
		limiter = rate.NewLimiter(rate.Limit(preset.FPS), 1)
	}

	surf := render.NewImageSurface(width, height, images)
	for f := 0; f < totalFrames; f++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, p.abort(enc, webmPath)
			}
		} else if ctx.Err() != nil {
			return nil, p.abort(enc, webmPath)
		}
		r.Render(surf, float64(f)/float64(preset.FPS), events)
		if err := enc.WriteFrame(surf.RGBA()); err != nil {
			if ctx.Err() != nil {
				return nil, p.abort(enc, webmPath)
			}
			_ = enc.Close()
			_ = os.Remove(webmPath)
			return nil, err
		}
		p.progress(renderCeiling*float64(f+1)/float64(totalFrames), "rendering")
	}

	if err := enc.Close(); err != nil {
		if ctx.Err() != nil {
			_ = os.Remove(webmPath)
			return nil, ErrCanceled
		}
		_ = os.Remove(webmPath)
		return nil, err
	}
	if ctx.Err() != nil {
		_ = os.Remove(webmPath)
		return nil, ErrCanceled
	}

	path, container := webmPath, "webm"
	if wantMP4 {
		p.setState(StateEncoding)
		p.progress(80, "transcoding")
		mp4Path := strings.TrimSuffix(webmPath, ".webm") + ".mp4"
		if err := p.transcode(ctx, webmPath, mp4Path, preset); err != nil {
			if ctx.Err() != nil {
				_ = os.Remove(webmPath)
				return nil, ErrCanceled
			}
			// Keep the WebM; the clip is still usable.
			slog.Warn("mp4 transcode failed, keeping webm", "job", job, "err", err)
		} else {
			_ = os.Remove(webmPath)
			path, container = mp4Path, "mp4"
		}
	}
	p.progress(100, "done")

	var size int64
	if fi, err := os.Stat(path); err == nil {
		size = fi.Size()
	}
	res := &Result{
		Job:       job,
		Path:      path,
		Container: container,
		Frames:    totalFrames,
		Viewers:   viewers,
		SizeBytes: size,
		Elapsed:   time.Since(started),
	}
	slog.Info("export finished",
		"job", job, "path", path, "container", container,
		"frames", totalFrames, "size_bytes", size, "elapsed", res.Elapsed)
	return res, nil
}

func (p *Pipeline) abort(enc Encoder, path string) error {
	p.setState(StateCancelling)
	_ = enc.Close()
	_ = os.Remove(path)
	return ErrCanceled
}

func exportGenParams(sim config.SimConfig, customs []core.Emote) chatgen.Params {
	emojis := sim.Emojis
	if len(emojis) == 0 {
		emojis = core.DefaultEmojiPool
	}
	return chatgen.Params{
		Mode:          chatgen.ModeExport,
		Words:         sim.Words,
		Emojis:        emojis,
		Customs:       customs,
		EmotesEnabled: sim.EmotesEnabled,
		EmoteOnly:     sim.EmoteOnly,
	}
}

func imageRefs(official, customs []core.Badge, emotes []core.Emote) []string {
	refs := make([]string, 0, len(official)+len(customs)+len(emotes))
	for _, b := range official {
		refs = append(refs, b.ImageRef)
	}
	for _, b := range customs {
		refs = append(refs, b.ImageRef)
	}
	for _, e := range core.EnabledEmotes(emotes) {
		refs = append(refs, e.ImageRef)
	}
	return refs
}

func outputFileName(durationSec int, now time.Time, ext string) string {
	return fmt.Sprintf("twitch-chat-%ds-%s.%s", durationSec, now.Format("2006-01-02"), ext)
}
