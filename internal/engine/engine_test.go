package engine

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/ivlev/forestscroll/internal/config"
	"github.com/ivlev/forestscroll/internal/logger"
	"github.com/ivlev/forestscroll/internal/script"
	"github.com/ivlev/forestscroll/internal/video"
)

// shadeSource returns a uniform frame whose red channel is its index.
type shadeSource struct{}

func (shadeSource) Load(ctx context.Context, index int) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 9))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(index * 10)
		img.Pix[i+3] = 255
	}
	return img, nil
}

// recordEncoder keeps the red value at the center of each frame.
type recordEncoder struct {
	reds   []uint8
	sizes  []image.Rectangle
	params video.Params
	fail   error
}

func (e *recordEncoder) Encode(ctx context.Context, frames <-chan *image.RGBA, out string, params video.Params) error {
	e.params = params
	if e.fail != nil {
		return e.fail
	}
	for img := range frames {
		e.sizes = append(e.sizes, img.Rect)
		e.reds = append(e.reds, img.RGBAAt(img.Rect.Dx()/2, img.Rect.Dy()/2).R)
	}
	return nil
}

func testProject(enc video.Encoder) *Project {
	cfg := config.Default()
	cfg.Player.TotalFrames = 20
	cfg.Player.PreloadCount = 3
	cfg.Player.MobileBreakpoint = 10
	cfg.Export.Width = 64
	cfg.Export.Height = 36
	cfg.Export.VideoEncoder = "libx264"
	return &Project{
		Config:    cfg,
		Script:    script.Default(1, 10),
		Encoder:   enc,
		Output:    "out.mp4",
		Source:    shadeSource{},
		NoAmbient: true,
		Log:       logger.Discard(),
	}
}

func TestRunStreamsEveryFrame(t *testing.T) {
	enc := &recordEncoder{}
	p := testProject(enc)
	var progress []int
	p.OnFrame = func(done, total int) { progress = append(progress, done) }

	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Frames != 10 || len(enc.reds) != 10 || len(progress) != 10 {
		t.Fatalf("Expected 10 frames, got stats %d, encoded %d, progress %d", stats.Frames, len(enc.reds), len(progress))
	}
	for _, r := range enc.sizes {
		if r.Dx() != 64 || r.Dy() != 36 {
			t.Fatalf("Expected 64x36 frames, got %v", r)
		}
	}
	if enc.params.Quality != 23 || enc.params.FPS != 10 {
		t.Errorf("Unexpected encoder params %+v", enc.params)
	}
	if stats.LoadedFrames != 20 {
		t.Errorf("Expected every frame loaded, got %d", stats.LoadedFrames)
	}
	if stats.Buffers != 2 {
		t.Errorf("Expected two composite buffers for the run, got %d", stats.Buffers)
	}
	// Frame 0 is drawn first (plus the warm center highlight) and the
	// spring has carried the journey forward by the last frame.
	first, last := enc.reds[0], enc.reds[len(enc.reds)-1]
	if first > 20 {
		t.Errorf("Expected frame 0 first, got red %d", first)
	}
	if int(last) < int(first)+25 {
		t.Errorf("Expected the journey to have moved, red went %d -> %d", first, last)
	}
}

func TestRunEncoderFailure(t *testing.T) {
	boom := errors.New("ffmpeg missing")
	p := testProject(&recordEncoder{fail: boom})
	done := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background())
		done <- err
	}()
	select {
	case err := <-done:
		if !errors.Is(err, boom) {
			t.Errorf("Expected the encoder error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run blocked after the encoder failed")
	}
}

func TestRunNeedsScript(t *testing.T) {
	p := testProject(&recordEncoder{})
	p.Script = nil
	if _, err := p.Run(context.Background()); err == nil {
		t.Error("Expected an error without a script")
	}
}

func TestDefaultQuality(t *testing.T) {
	tests := map[string]int{"h264_videotoolbox": 75, "h264_nvenc": 28, "libx264": 23, "": 23}
	for enc, expected := range tests {
		if got := DefaultQuality(enc); got != expected {
			t.Errorf("DefaultQuality(%q): expected %d, got %d", enc, expected, got)
		}
	}
}

func TestStatsFPS(t *testing.T) {
	if got := (Stats{Frames: 60, Total: 2 * time.Second}).FPS(); got != 30 {
		t.Errorf("Expected 30 fps, got %v", got)
	}
	if (Stats{}).FPS() != 0 {
		t.Error("Expected 0 fps for an empty run")
	}
}

