// Package engine renders a scripted scroll journey headlessly and streams
// the composited frames to a video encoder.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/forestscroll/internal/config"
	"github.com/ivlev/forestscroll/internal/journey"
	"github.com/ivlev/forestscroll/internal/logger"
	"github.com/ivlev/forestscroll/internal/loop"
	"github.com/ivlev/forestscroll/internal/player"
	"github.com/ivlev/forestscroll/internal/script"
	"github.com/ivlev/forestscroll/internal/source"
	"github.com/ivlev/forestscroll/internal/stage"
	"github.com/ivlev/forestscroll/internal/system"
	"github.com/ivlev/forestscroll/internal/video"
	"github.com/ivlev/forestscroll/internal/viewport"
)

// Project is one export run.
type Project struct {
	Config  config.App
	Script  *script.Script
	Encoder video.Encoder
	Output  string
	// Source replaces the image directory from the player config.
	Source source.Source
	// AudioPath is muxed under the video when set.
	AudioPath string
	// NoAmbient renders the frame sequence alone.
	NoAmbient bool
	// OnFrame is called after each frame is handed to the encoder.
	OnFrame func(done, total int)
	Log     logrus.FieldLogger
}

type Stats struct {
	Frames       int
	LoadedFrames int
	TotalFrames  int
	Buffers      int // Composite buffers allocated for the whole run
	Preload      time.Duration
	Total        time.Duration
}

// FPS is the effective render speed of the run.
func (s Stats) FPS() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Total.Seconds()
}

// DefaultQuality picks a quality value that suits the encoder.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75 // Good quality for VideoToolbox
	case "h264_nvenc":
		return 28 // Roughly CRF 23 for NVENC
	default:
		return 23 // Standard x264 CRF
	}
}

// epoch is the loop time of the first frame. Frame times are derived from
// it, so a run does not depend on the wall clock.
var epoch = time.Unix(0, 0)

func (p *Project) Run(ctx context.Context) (Stats, error) {
	startTime := time.Now()
	var stats Stats

	log := p.Log
	if log == nil {
		log = logger.Log
	}
	if p.Script == nil {
		return stats, errors.New("export needs a script")
	}
	if err := p.Script.Validate(); err != nil {
		return stats, err
	}

	cfg := p.Config
	exp := cfg.Export
	// Sound goes into the video file, never to a device.
	cfg.Ambient.SoundEnabled = false

	w, h := float64(exp.Width), float64(exp.Height)
	vp := viewport.NewManual(w, h, 1, h*exp.JourneyScreens)
	st := stage.NewRasterStage(w, h, 1)
	st.Mount(cfg.Player.CanvasID, 0)
	lp := loop.New(epoch)

	opts := journey.Options{DisableAmbient: p.NoAmbient, Log: log}
	if p.Source != nil {
		opts.Player = append(opts.Player, player.WithSource(p.Source))
	}
	j, err := journey.New(st, vp, lp, cfg, opts)
	if err != nil {
		return stats, err
	}
	defer j.Destroy()

	vp.ScrollToProgress(p.Script.ProgressAt(0))
	j.Prepare()
	if err := j.Start(ctx); err != nil {
		return stats, err
	}
	stats.Preload = time.Since(startTime)

	encoder := exp.VideoEncoder
	if encoder == "" {
		encoder = "libx264"
	}
	quality := exp.Quality
	if quality == 0 {
		quality = DefaultQuality(encoder)
	}
	params := video.Params{
		Width:       exp.Width,
		Height:      exp.Height,
		FPS:         p.Script.FPS,
		Encoder:     encoder,
		Quality:     quality,
		AudioPath:   p.AudioPath,
		AudioVolume: p.Config.Ambient.SoundVolume,
		Duration:    p.Script.Duration,
	}

	log.WithFields(logrus.Fields{
		"size":    fmt.Sprintf("%dx%d", exp.Width, exp.Height),
		"fps":     p.Script.FPS,
		"frames":  p.Script.Frames(),
		"encoder": encoder,
		"quality": quality,
	}).Info("[*] Rendering journey")

	// The channel is unbuffered: once frame i is taken, the encoder has
	// finished writing frame i-1 and its buffer can go back to the pool.
	// Two buffers are in use at a time, so the pool keeps two.
	frames := make(chan *image.RGBA)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.Encoder.Encode(gctx, frames, p.Output, params)
	})

	total := p.Script.Frames()
	pool := system.NewFramePool(image.Rect(0, 0, exp.Width, exp.Height), 2)
	step := time.Second / time.Duration(p.Script.FPS)
	var prev *image.RGBA

produce:
	for i := 0; i < total; i++ {
		t := float64(i) / float64(p.Script.FPS)
		vp.ScrollToProgress(p.Script.ProgressAt(t))
		lp.Advance(epoch.Add(time.Duration(i) * step))

		img := pool.Get()
		st.Composite(img)
		select {
		case frames <- img:
		case <-gctx.Done():
			pool.Put(img)
			break produce
		}
		if prev != nil {
			pool.Put(prev)
		}
		prev = img
		stats.Frames++
		if p.OnFrame != nil {
			p.OnFrame(stats.Frames, total)
		}
	}
	close(frames)

	stats.Buffers = pool.Allocated()
	if err := g.Wait(); err != nil {
		return stats, fmt.Errorf("encode: %w", err)
	}
	if prev != nil {
		pool.Put(prev)
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	m := j.Player.Metrics()
	stats.LoadedFrames, stats.TotalFrames = m.LoadedFrames, m.TotalFrames
	stats.Total = time.Since(startTime)
	return stats, nil
}
