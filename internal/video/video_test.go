package video

import (
	"bytes"
	"context"
	"image"
	"strings"
	"testing"
)

func TestBuildArgsQuality(t *testing.T) {
	tests := []struct {
		encoder  string
		expected []string
	}{
		{"", []string{"-c:v", "libx264", "-crf", "23", "-preset", "medium"}},
		{"libx264", []string{"-crf", "23"}},
		{"h264_nvenc", []string{"-c:v", "h264_nvenc", "-cq", "23"}},
		{"h264_videotoolbox", []string{"-b:v", "2300k"}},
	}

	for _, tt := range tests {
		t.Run(tt.encoder, func(t *testing.T) {
			args := BuildArgs("out.mp4", Params{Width: 1280, Height: 720, FPS: 30, Encoder: tt.encoder, Quality: 23})
			joined := strings.Join(args, " ")
			if !strings.Contains(joined, strings.Join(tt.expected, " ")) {
				t.Errorf("Expected %v in %q", tt.expected, joined)
			}
			if args[len(args)-1] != "out.mp4" {
				t.Errorf("Expected output last, got %q", args[len(args)-1])
			}
			if !strings.Contains(joined, "-video_size 1280x720 -framerate 30 -i -") {
				t.Errorf("Unexpected input args %q", joined)
			}
		})
	}
}

func TestBuildArgsAudio(t *testing.T) {
	args := BuildArgs("out.mp4", Params{Width: 2, Height: 2, FPS: 30, AudioPath: "forest.ogg", AudioVolume: 0.5, Duration: 12})
	joined := strings.Join(args, " ")
	for _, want := range []string{"-stream_loop -1 -i forest.ogg", "-map 0:v -map [aout]", "-shortest", "volume='0.500000*"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Expected %q in %q", want, joined)
		}
	}
}

func TestAudioVolumeShortVideo(t *testing.T) {
	if got := audioVolumeExpr(1, 0); got != "volume=1.000000" {
		t.Errorf("Expected a flat volume without duration, got %q", got)
	}
	if got := audioVolumeExpr(1, 2); !strings.Contains(got, "lte(t,0.200000)") {
		t.Errorf("Expected short fades for a short video, got %q", got)
	}
}

func TestPump(t *testing.T) {
	frames := make(chan *image.RGBA, 2)
	a := image.NewRGBA(image.Rect(0, 0, 2, 2))
	a.Pix[0] = 7
	// A sub-image has a stride wider than its width and must be repacked.
	big := image.NewRGBA(image.Rect(0, 0, 4, 4))
	big.Pix[big.PixOffset(2, 2)] = 9
	b := big.SubImage(image.Rect(2, 2, 4, 4)).(*image.RGBA)
	frames <- a
	frames <- b
	close(frames)

	var buf bytes.Buffer
	e := &FFmpegEncoder{}
	if err := e.pump(context.Background(), &buf, frames, Params{Width: 2, Height: 2}); err != nil {
		t.Fatalf("pump failed: %v", err)
	}
	if buf.Len() != 2*2*4*2 {
		t.Fatalf("Expected %d bytes, got %d", 2*2*4*2, buf.Len())
	}
	if buf.Bytes()[0] != 7 || buf.Bytes()[16] != 9 {
		t.Error("Frame bytes written in the wrong place")
	}
}

func TestPumpRejectsWrongSize(t *testing.T) {
	frames := make(chan *image.RGBA, 1)
	frames <- image.NewRGBA(image.Rect(0, 0, 3, 3))
	close(frames)
	e := &FFmpegEncoder{}
	if err := e.pump(context.Background(), &bytes.Buffer{}, frames, Params{Width: 2, Height: 2}); err == nil {
		t.Error("Expected a size mismatch error")
	}
}

func TestPumpCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := &FFmpegEncoder{}
	if err := e.pump(ctx, &bytes.Buffer{}, make(chan *image.RGBA), Params{Width: 2, Height: 2}); err == nil {
		t.Error("Expected the cancelled context to stop the pump")
	}
}
