package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
)

// Params describes the video stream written by the encoder.
type Params struct {
	Width, Height int
	FPS           int
	Encoder       string // libx264, h264_nvenc or h264_videotoolbox
	Quality       int
	// AudioPath is an optional sound looped under the video.
	AudioPath   string
	AudioVolume float64
	Duration    float64 // Seconds; used to fade the audio out
}

type Encoder interface {
	Encode(ctx context.Context, frames <-chan *image.RGBA, out string, params Params) error
}

// FFmpegEncoder pipes raw RGBA frames into an ffmpeg process.
type FFmpegEncoder struct {
	// Binary defaults to "ffmpeg".
	Binary string
}

// Encode writes every frame received from frames until the channel is
// closed, then waits for ffmpeg to finish the file.
func (e *FFmpegEncoder) Encode(ctx context.Context, frames <-chan *image.RGBA, out string, params Params) error {
	bin := e.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, bin, BuildArgs(out, params)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	writeErr := e.pump(ctx, stdin, frames, params)
	stdin.Close()
	waitErr := cmd.Wait()

	if writeErr != nil {
		return fmt.Errorf("write raw error: %w (ffmpeg: %s)", writeErr, lastLine(stderr.Bytes()))
	}
	if waitErr != nil {
		return fmt.Errorf("ffmpeg wait error: %w (ffmpeg: %s)", waitErr, lastLine(stderr.Bytes()))
	}
	return nil
}

func (e *FFmpegEncoder) pump(ctx context.Context, w io.Writer, frames <-chan *image.RGBA, params Params) error {
	bounds := image.Rect(0, 0, params.Width, params.Height)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case img, ok := <-frames:
			if !ok {
				return nil
			}
			if img.Rect.Dx() != params.Width || img.Rect.Dy() != params.Height {
				return fmt.Errorf("frame is %dx%d, stream is %dx%d", img.Rect.Dx(), img.Rect.Dy(), params.Width, params.Height)
			}
			if err := writeRawRGBA(w, img, bounds); err != nil {
				return err
			}
		}
	}
}

// BuildArgs returns the ffmpeg arguments for a rawvideo RGBA stream on
// stdin, with quality options matching the encoder.
func BuildArgs(out string, params Params) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", params.Width, params.Height),
		"-framerate", fmt.Sprintf("%d", params.FPS),
		"-i", "-",
	}

	if params.AudioPath != "" {
		args = append(args, "-stream_loop", "-1", "-i", params.AudioPath)
		args = append(args, "-filter_complex", fmt.Sprintf("[1:a]%s[aout]", audioVolumeExpr(params.AudioVolume, params.Duration)))
		args = append(args, "-map", "0:v", "-map", "[aout]", "-shortest")
	}

	encoder := params.Encoder
	if encoder == "" {
		encoder = "libx264"
	}
	args = append(args, "-pix_fmt", "yuv420p", "-c:v", encoder)

	// Quality options differ per encoder
	switch encoder {
	case "h264_videotoolbox":
		bitrate := params.Quality * 100 // kbit/s: 75 -> 7.5 Mbit/s
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", params.Quality))
	default:
		args = append(args, "-crf", fmt.Sprintf("%d", params.Quality), "-preset", "medium")
	}

	return append(args, out)
}

// audioVolumeExpr fades the looped sound in and out over the video.
func audioVolumeExpr(volume, total float64) string {
	fadeIn, fadeOut := 2.0, 2.0
	if total < fadeIn+fadeOut {
		fadeIn = total * 0.1
		fadeOut = total * 0.1
	}
	if fadeIn <= 0 {
		return fmt.Sprintf("volume=%f", volume)
	}
	return fmt.Sprintf("volume='%f*(if(lte(t,%f), t/%f, if(gte(t,%f), (%f-t)/%f, 1.0)))':eval=frame",
		volume, fadeIn, fadeIn, total-fadeOut, total, fadeOut)
}

func writeRawRGBA(w io.Writer, img *image.RGBA, bounds image.Rectangle) error {
	if img.Stride != bounds.Dx()*4 || img.Rect.Min != (image.Point{}) {
		packed := image.NewRGBA(bounds)
		draw.Draw(packed, bounds, img, img.Rect.Min, draw.Src)
		img = packed
	}
	_, err := w.Write(img.Pix)
	return err
}

func lastLine(b []byte) string {
	b = bytes.TrimSpace(b)
	if i := bytes.LastIndexByte(b, '\n'); i >= 0 {
		b = b[i+1:]
	}
	if len(b) == 0 {
		return "no output"
	}
	return string(b)
}

var ErrNoFFmpeg = errors.New("ffmpeg not found in PATH")

// Available reports whether the ffmpeg binary can be found.
func Available() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("%w: %v", ErrNoFFmpeg, err)
	}
	return nil
}
