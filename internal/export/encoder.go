package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/pkg/errors"
)

// Encoder consumes rendered frames and produces a video file.
type Encoder interface {
	Start(ctx context.Context) error
	WriteFrame(frame *image.RGBA) error
	Close() error
}

// EncoderFactory builds the encoder for one export run. The pipeline
// swaps in a fake during tests.
type EncoderFactory func(width, height int, preset Preset, outPath string) Encoder

// FFmpegEncoder streams raw RGBA frames over stdin into an ffmpeg
// child process encoding VP9 into a WebM container.
type FFmpegEncoder struct {
	ffmpeg  string
	width   int
	height  int
	preset  Preset
	outPath string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
}

// NewFFmpegEncoder returns the default EncoderFactory bound to the
// given ffmpeg binary (empty means "ffmpeg" from PATH).
func NewFFmpegEncoder(ffmpeg string) EncoderFactory {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	return func(width, height int, preset Preset, outPath string) Encoder {
		return &FFmpegEncoder{
			ffmpeg:  ffmpeg,
			width:   width,
			height:  height,
			preset:  preset,
			outPath: outPath,
		}
	}
}

func encodeArgs(width, height int, preset Preset, outPath string) []string {
	return []string{
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", strconv.Itoa(preset.FPS),
		"-i", "pipe:0",
		"-c:v", "libvpx-vp9",
		"-b:v", strconv.Itoa(preset.Bitrate),
		"-pix_fmt", "yuv420p",
		outPath,
	}
}

func (e *FFmpegEncoder) Start(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, e.ffmpeg, encodeArgs(e.width, e.height, e.preset, e.outPath)...)
	cmd.Stderr = &e.stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return errors.Wrap(err, "ffmpeg stdin")
	}
	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "start ffmpeg")
	}
	e.cmd = cmd
	e.stdin = stdin
	return nil
}

func (e *FFmpegEncoder) WriteFrame(frame *image.RGBA) error {
	b := frame.Bounds()
	rowLen := b.Dx() * 4
	if frame.Stride == rowLen {
		_, err := e.stdin.Write(frame.Pix)
		return errors.Wrap(err, "write frame")
	}
	for y := 0; y < b.Dy(); y++ {
		row := frame.Pix[y*frame.Stride : y*frame.Stride+rowLen]
		if _, err := e.stdin.Write(row); err != nil {
			return errors.Wrap(err, "write frame")
		}
	}
	return nil
}

func (e *FFmpegEncoder) Close() error {
	if e.cmd == nil {
		return nil
	}
	_ = e.stdin.Close()
	if err := e.cmd.Wait(); err != nil {
		return errors.Wrapf(err, "ffmpeg: %s", e.stderr.String())
	}
	return nil
}

// transcodeArgs builds the WebM to MP4 conversion command.
func transcodeArgs(inPath, outPath string, preset Preset) []string {
	return []string{
		"-y",
		"-i", inPath,
		"-c:v", "libx264",
		"-preset", "medium",
		"-b:v", strconv.Itoa(preset.Bitrate),
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		outPath,
	}
}

// TranscodeMP4 converts a finished WebM file to MP4. On failure the tmp
// output is removed and the error returned; callers keep the WebM.
func TranscodeMP4(ctx context.Context, ffmpeg, inPath, outPath string, preset Preset) error {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, ffmpeg, transcodeArgs(inPath, outPath, preset)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		_ = os.Remove(outPath)
		return errors.Wrapf(err, "transcode: %s", string(out))
	}
	return nil
}
