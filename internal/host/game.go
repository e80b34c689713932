package host

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"

	"github.com/ivlev/forestscroll/internal/ambient"
	"github.com/ivlev/forestscroll/internal/config"
	"github.com/ivlev/forestscroll/internal/journey"
	"github.com/ivlev/forestscroll/internal/logger"
	"github.com/ivlev/forestscroll/internal/loop"
	"github.com/ivlev/forestscroll/internal/player"
	"github.com/ivlev/forestscroll/internal/source"
	"github.com/ivlev/forestscroll/internal/telemetry"
)

type Options struct {
	// Source replaces the image directory from the player config.
	Source source.Source
	Sound  ambient.Soundscape
	// Sampler enables periodic telemetry logging.
	Sampler *telemetry.Sampler
	Log     logrus.FieldLogger
}

type layout struct {
	w, h, scale float64
}

// Game drives the journey from ebiten. Update is the loop goroutine.
type Game struct {
	cfg      config.App
	loop     *loop.Loop
	vp       *ScrollViewport
	stage    *Stage
	journey  *journey.Journey
	loading  *loadingScreen
	sampler  *telemetry.Sampler
	reporter *telemetry.Reporter
	log      logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc
	errc   chan error

	mu      sync.Mutex
	pending *layout

	started bool
	quit    bool
}

func New(cfg config.App, opts Options) (*Game, error) {
	log := opts.Log
	if log == nil {
		log = logger.Log
	}
	w, h := float64(cfg.Window.Width), float64(cfg.Window.Height)

	g := &Game{
		cfg:     cfg,
		loop:    loop.New(time.Now()),
		vp:      NewScrollViewport(w, h, 1, cfg.Window.JourneyScreens),
		stage:   NewStage(w, h, 1),
		loading: newLoadingScreen(),
		sampler: opts.Sampler,
		log:     log,
		errc:    make(chan error, 1),
	}
	g.ctx, g.cancel = context.WithCancel(context.Background())
	g.stage.Mount(cfg.Player.CanvasID, 0)

	playerOpts := []player.Option{
		player.OnProgress(g.loading.progress),
		player.OnReady(g.loading.ready),
		player.OnLoad(func() { log.Info("[*] all frames settled") }),
	}
	if opts.Source != nil {
		playerOpts = append(playerOpts, player.WithSource(opts.Source))
	}
	var ambientOpts []ambient.Option
	if opts.Sound != nil {
		ambientOpts = append(ambientOpts, ambient.WithSoundscape(opts.Sound))
	}

	j, err := journey.New(g.stage, g.vp, g.loop, cfg, journey.Options{
		Player:  playerOpts,
		Ambient: ambientOpts,
		Log:     log,
	})
	if err != nil {
		g.stage.Close()
		return nil, err
	}
	g.journey = j
	return g, nil
}

func (g *Game) Update() error {
	if g.quit {
		return ebiten.Termination
	}
	g.applyLayout()
	if !g.started {
		g.start()
	}

	dt := 1 / float64(ebiten.TPS())
	g.handleInput()
	g.vp.Step(dt)
	g.loading.update(dt)
	g.loop.Advance(time.Now())

	select {
	case err := <-g.errc:
		return err
	default:
		return nil
	}
}

// start runs once the first layout is known, so the canvases are sized
// for the real window.
func (g *Game) start() {
	g.started = true
	g.journey.Prepare()
	go func() {
		if err := g.journey.Start(g.ctx); err != nil && !errors.Is(err, player.ErrDestroyed) {
			g.errc <- fmt.Errorf("start journey: %w", err)
		}
	}()
	if g.sampler != nil && g.cfg.Window.TelemetryInterval > 0 {
		g.reporter = g.sampler.Every(g.loop, g.cfg.Window.TelemetryInterval, g.journey.Player.Metrics, g.log)
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.stage.Draw(screen)
	g.loading.draw(screen)
}

// Layout renders at device resolution. The size change itself is applied
// on the next Update.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	scale := 1.0
	if m := ebiten.Monitor(); m != nil {
		scale = m.DeviceScaleFactor()
	}
	g.mu.Lock()
	g.pending = &layout{w: float64(outsideWidth), h: float64(outsideHeight), scale: scale}
	g.mu.Unlock()
	return int(math.Ceil(float64(outsideWidth) * scale)), int(math.Ceil(float64(outsideHeight) * scale))
}

func (g *Game) applyLayout() {
	g.mu.Lock()
	l := g.pending
	g.pending = nil
	g.mu.Unlock()
	if l == nil || l.w <= 0 || l.h <= 0 {
		return
	}
	g.stage.w, g.stage.h, g.stage.pixelRatio = l.w, l.h, l.scale
	g.vp.Resize(l.w, l.h, l.scale)
}

// Close stops telemetry and tears the journey down. Call it after RunGame
// has returned.
func (g *Game) Close() {
	if g.reporter != nil {
		g.reporter.Stop()
	}
	g.journey.Destroy()
	g.cancel()
	g.stage.Close()
}

// Run opens the window and blocks until it is closed.
func Run(cfg config.App, opts Options) error {
	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	g, err := New(cfg, opts)
	if err != nil {
		return err
	}
	defer g.Close()
	return ebiten.RunGame(g)
}
