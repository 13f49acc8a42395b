package export

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/you/fakechat/internal/config"
	"github.com/you/fakechat/internal/core"
)

type fakeEncoder struct {
	mu      sync.Mutex
	path    string
	started bool
	closed  bool
	frames  int
	onFrame func(n int)
}

func (f *fakeEncoder) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	return os.WriteFile(f.path, []byte("webm"), 0o644)
}

func (f *fakeEncoder) WriteFrame(frame *image.RGBA) error {
	f.mu.Lock()
	f.frames++
	n := f.frames
	cb := f.onFrame
	f.mu.Unlock()
	if cb != nil {
		cb(n)
	}
	return nil
}

func (f *fakeEncoder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func testSim() config.SimConfig {
	return config.SimConfig{
		SpeedMS:        500,
		ActiveChatters: 5,
		Usernames:      []string{"alice", "bob", "carol"},
		Words:          []string{"hello", "chat", "pog"},
		EmotesEnabled:  true,
		ColorsEnabled:  true,
		BotEnabled:     true,
		BotMessage:     "stay hydrated",
		BotDelaySec:    30,
	}
}

func testOptions(t *testing.T, enc *fakeEncoder) Options {
	t.Helper()
	return Options{
		Sim: testSim(),
		Export: config.ExportConfig{
			DurationSec: 2,
			Quality:     "low",
			Format:      "webm",
			OutputDir:   t.TempDir(),
		},
		Seed: 7,
		NewEncoder: func(width, height int, preset Preset, outPath string) Encoder {
			enc.path = outPath
			return enc
		},
	}
}

func TestRunProducesAllFrames(t *testing.T) {
	enc := &fakeEncoder{}
	opts := testOptions(t, enc)
	var percents []float64
	opts.OnProgress = func(p Progress) { percents = append(percents, p.Percent) }

	p := NewPipeline(opts)
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := 2 * 24 // duration * low preset fps
	if res.Frames != want {
		t.Errorf("frames = %d, want %d", res.Frames, want)
	}
	if enc.frames != want {
		t.Errorf("encoder received %d frames, want %d", enc.frames, want)
	}
	if !enc.started || !enc.closed {
		t.Errorf("encoder lifecycle: started=%v closed=%v", enc.started, enc.closed)
	}
	if res.Container != "webm" {
		t.Errorf("container = %q, want webm", res.Container)
	}
	if res.Viewers < 1 {
		t.Errorf("viewers = %d, want >= 1", res.Viewers)
	}
	if filepath.Dir(res.Path) != filepath.Dir(enc.path) {
		t.Errorf("path = %q, want in output dir", res.Path)
	}

	if len(percents) == 0 {
		t.Fatal("no progress reported")
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Fatalf("progress went backwards at %d: %v -> %v", i, percents[i-1], percents[i])
		}
	}
	if last := percents[len(percents)-1]; last != 100 {
		t.Errorf("final progress = %v, want 100", last)
	}
	if p.State() != StateIdle {
		t.Errorf("state after run = %v, want idle", p.State())
	}
}

func TestCancelRemovesPartialOutput(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	enc := &fakeEncoder{onFrame: func(n int) {
		if n == 10 {
			cancel()
		}
	}}
	p := NewPipeline(testOptions(t, enc))

	res, err := p.Run(ctx)
	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("Run error = %v, want ErrCanceled", err)
	}
	if res != nil {
		t.Fatalf("result = %+v, want nil", res)
	}
	if _, err := os.Stat(enc.path); !os.IsNotExist(err) {
		t.Errorf("partial output still present at %s", enc.path)
	}
	if p.State() != StateIdle {
		t.Errorf("state after cancel = %v, want idle", p.State())
	}
}

func TestMP4TranscodeReplacesWebM(t *testing.T) {
	enc := &fakeEncoder{}
	opts := testOptions(t, enc)
	opts.Export.Format = "mp4"
	var renderPercents []float64
	opts.OnProgress = func(p Progress) {
		if p.Stage == "rendering" {
			renderPercents = append(renderPercents, p.Percent)
		}
	}

	p := NewPipeline(opts)
	p.transcode = func(ctx context.Context, inPath, outPath string, preset Preset) error {
		return os.WriteFile(outPath, []byte("mp4"), 0o644)
	}

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Container != "mp4" {
		t.Errorf("container = %q, want mp4", res.Container)
	}
	if !strings.HasSuffix(res.Path, ".mp4") {
		t.Errorf("path = %q, want .mp4", res.Path)
	}
	if _, err := os.Stat(enc.path); !os.IsNotExist(err) {
		t.Errorf("webm intermediate still present at %s", enc.path)
	}
	for _, pct := range renderPercents {
		if pct > 80 {
			t.Fatalf("render progress %v exceeds 80 with transcode planned", pct)
		}
	}
}

func TestMP4TranscodeFailureKeepsWebM(t *testing.T) {
	enc := &fakeEncoder{}
	opts := testOptions(t, enc)
	opts.Export.Format = "mp4"

	p := NewPipeline(opts)
	p.transcode = func(ctx context.Context, inPath, outPath string, preset Preset) error {
		return errors.New("codec unavailable")
	}

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Container != "webm" {
		t.Errorf("container = %q, want webm fallback", res.Container)
	}
	if _, err := os.Stat(res.Path); err != nil {
		t.Errorf("webm output missing: %v", err)
	}
}

func TestLookupPreset(t *testing.T) {
	p, err := LookupPreset("")
	if err != nil {
		t.Fatalf("LookupPreset(\"\"): %v", err)
	}
	if p.Name != "medium" || p.Width != 1920 || p.FPS != 30 {
		t.Errorf("default preset = %+v, want medium 1920x1080@30", p)
	}

	p, err = LookupPreset("4k")
	if err != nil {
		t.Fatalf("LookupPreset(4k): %v", err)
	}
	if p.Width != 3840 || p.Height != 2160 || p.Bitrate != 40_000_000 {
		t.Errorf("4k preset = %+v", p)
	}

	if _, err := LookupPreset("potato"); err == nil {
		t.Error("unknown quality accepted")
	}
}

func TestEncodeArgs(t *testing.T) {
	args := strings.Join(encodeArgs(1280, 720, presets["low"], "out.webm"), " ")
	for _, want := range []string{"-f rawvideo", "-pix_fmt rgba", "-s 1280x720", "-r 24", "libvpx-vp9", "-b:v 2000000", "out.webm"} {
		if !strings.Contains(args, want) {
			t.Errorf("encode args missing %q: %s", want, args)
		}
	}
}

func TestTranscodeArgs(t *testing.T) {
	args := strings.Join(transcodeArgs("in.webm", "out.mp4", presets["medium"]), " ")
	for _, want := range []string{"-i in.webm", "libx264", "-movflags +faststart", "out.mp4"} {
		if !strings.Contains(args, want) {
			t.Errorf("transcode args missing %q: %s", want, args)
		}
	}
}

func TestImageRefsSkipsDisabledEmotes(t *testing.T) {
	badges := []core.Badge{{Kind: "moderator", Name: "Moderator", ImageRef: "https://cdn/mod.png"}}
	emotes := []core.Emote{
		{Name: "pog", ImageRef: "https://cdn/pog.png", Enabled: true},
		{Name: "off", ImageRef: "https://cdn/off.png", Enabled: false},
	}
	refs := imageRefs(badges, nil, emotes)
	want := []string{"https://cdn/mod.png", "https://cdn/pog.png"}
	if len(refs) != len(want) {
		t.Fatalf("imageRefs = %v, want %v", refs, want)
	}
	for i, ref := range want {
		if refs[i] != ref {
			t.Fatalf("imageRefs[%d] = %q, want %q", i, refs[i], ref)
		}
	}
}

func TestOutputFileName(t *testing.T) {
	at := time.Date(2025, 3, 14, 15, 9, 2, 0, time.UTC)
	got := outputFileName(45, at, "webm")
	if got != "twitch-chat-45s-2025-03-14.webm" {
		t.Errorf("outputFileName = %q", got)
	}
}
