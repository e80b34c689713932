// Package player scrubs through an image sequence as the viewport scrolls.
// Scroll progress sets a target frame, a damped spring moves the drawn
// position toward it and adjacent frames are cross-faded by the fraction.
package player

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/ivlev/forestscroll/internal/config"
	"github.com/ivlev/forestscroll/internal/logger"
	"github.com/ivlev/forestscroll/internal/loop"
	"github.com/ivlev/forestscroll/internal/render"
	"github.com/ivlev/forestscroll/internal/source"
	"github.com/ivlev/forestscroll/internal/stage"
	"github.com/ivlev/forestscroll/internal/viewport"
	"github.com/sirupsen/logrus"
)

var (
	ErrCanvasNotFound = errors.New("canvas not found")
	ErrDestroyed      = errors.New("player destroyed")
)

// PlaybackState is the spring state in frame units.
type PlaybackState struct {
	Current  float64
	Target   float64
	Velocity float64
}

// Metrics is an observability snapshot.
type Metrics struct {
	FPS          float64
	CurrentFrame int
	TotalFrames  int
	LoadedFrames int
	Progress     float64
	IsMobile     bool
}

type Option func(*Player)

// WithSource replaces the default frame files under cfg.ImagePath.
func WithSource(src source.Source) Option {
	return func(p *Player) { p.src = src }
}

func WithProber(probe source.Prober) Option {
	return func(p *Player) { p.probe = probe }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Player) { p.log = log }
}

// WithWorkers bounds the number of concurrent decodes during preload.
func WithWorkers(n int) Option {
	return func(p *Player) { p.workers = n }
}

// OnLoad is called once every preloaded frame has settled.
func OnLoad(fn func()) Option {
	return func(p *Player) { p.onLoad = fn }
}

// OnProgress is called after each preload settles with the settled
// percentage, the number of frames loaded successfully and the total.
func OnProgress(fn func(percent, loaded, total int)) Option {
	return func(p *Player) { p.onProgress = fn }
}

func OnReady(fn func()) Option {
	return func(p *Player) { p.onReady = fn }
}

func OnError(fn func(error)) Option {
	return func(p *Player) { p.onError = fn }
}

// Player is the frame sequence player. Apart from Init, every method must
// be called on the loop goroutine.
type Player struct {
	cfg    config.Player
	stage  stage.Stage
	vp     viewport.Viewport
	loop   *loop.Loop
	canvas render.Canvas
	src    source.Source
	probe  source.Prober
	log    logrus.FieldLogger

	workers    int
	onLoad     func()
	onProgress func(percent, loaded, total int)
	onReady    func()
	onError    func(error)

	ctx    context.Context
	cancel context.CancelFunc

	total    int
	isMobile bool
	store    *frameStore
	state    PlaybackState

	smoothing       float64
	lastScrollY     float64
	lastTargetIndex int
	scrollPending   loop.Handle

	prepared    bool
	initStarted atomic.Bool
	live        bool
	started     bool
	paused      bool
	destroyed   bool
	frame       loop.Handle
	resizeTimer loop.Handle
	unsubscribe []func()
	ready       chan struct{}

	lastTick time.Time
	fps      float64
}

// New looks up the player's canvas and applies the options. A missing
// canvas is reported through OnError and returned as ErrCanvasNotFound.
func New(st stage.Stage, vp viewport.Viewport, lp *loop.Loop, cfg config.Player, opts ...Option) (*Player, error) {
	p := &Player{
		cfg:             cfg,
		stage:           st,
		vp:              vp,
		loop:            lp,
		probe:           source.Probe,
		log:             logger.Log,
		workers:         cfg.Workers,
		smoothing:       cfg.Smoothing,
		lastTargetIndex: -1,
		ready:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := cfg.Validate(); err != nil {
		p.fail(err)
		return nil, err
	}

	canvas, ok := st.Canvas(cfg.CanvasID)
	if !ok {
		err := fmt.Errorf("%w: %q", ErrCanvasNotFound, cfg.CanvasID)
		p.fail(err)
		return nil, err
	}
	p.canvas = canvas

	if p.workers <= 0 {
		p.workers = 8
	}
	p.total = cfg.TotalFrames
	p.ctx, p.cancel = context.WithCancel(context.Background())
	return p, nil
}

func (p *Player) fail(err error) {
	p.log.WithError(err).Error("[!] frame player failed")
	if p.onError != nil {
		p.onError(err)
	}
}

// Prepare applies the mobile frame count and sizes the canvas. It touches
// the viewport and the canvas, so it belongs on the loop goroutine; Init
// calls it when nobody did.
func (p *Player) Prepare() {
	if p.prepared || p.destroyed {
		return
	}
	p.prepared = true

	if p.vp.Width() < p.cfg.MobileBreakpoint {
		p.isMobile = true
		p.total = p.cfg.MobileFrameCount
		p.log.WithField("frames", p.total).Info("[*] mobile viewport, using reduced frame count")
	}
	p.store = newFrameStore(p.total)

	p.canvas.Resize(p.vp.Width(), p.vp.Height(), p.vp.PixelRatio())
	p.canvas.Clear(opaqueBlack)
}

// Init runs the initialization sequence: mobile check, format probe,
// canvas sizing, then the preload (first, middle and last frame before
// everything else). It blocks until every preload has settled and hands
// the rest to the loop: listeners, the draw loop and OnReady. Ready is
// closed once that has run.
func (p *Player) Init(ctx context.Context) error {
	if p.ctx.Err() != nil {
		return ErrDestroyed
	}
	if !p.initStarted.CompareAndSwap(false, true) {
		return errors.New("player already initialized")
	}
	p.Prepare()

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	unlink := context.AfterFunc(p.ctx, stop)
	defer unlink()

	if p.src == nil {
		format := p.cfg.ImageFormat
		if !p.probe(ctx, format) {
			fallback := source.Fallback(format)
			p.log.WithFields(logrus.Fields{"format": format, "fallback": fallback}).Info("[*] image format not supported, falling back")
			format = fallback
		}
		p.src = source.NewDir(p.cfg.ImagePath, p.cfg.ImagePrefix, format)
	} else if rf, ok := p.src.(source.Reformatter); ok && !p.probe(ctx, p.cfg.ImageFormat) {
		rf.SetFormat(source.Fallback(p.cfg.ImageFormat))
	}

	if err := p.preload(ctx); err != nil {
		if p.ctx.Err() != nil {
			return ErrDestroyed
		}
		return err
	}

	p.loop.Post(p.start)
	return nil
}

// Ready is closed once the player is drawing.
func (p *Player) Ready() <-chan struct{} {
	return p.ready
}

func (p *Player) start() {
	if p.destroyed || p.started {
		return
	}
	p.started = true
	p.live = true

	p.lastScrollY = p.vp.ScrollY()
	p.unsubscribe = append(p.unsubscribe,
		p.vp.OnScroll(p.handleScroll),
		p.vp.OnResize(p.handleResize),
	)

	p.updateScroll()
	p.render()
	if !p.paused {
		p.frame = p.loop.RequestFrame(p.tick)
	}

	close(p.ready)
	p.log.WithFields(logrus.Fields{
		"frames": p.total,
		"loaded": p.store.loadedCount(),
	}).Info("[*] frame player ready")
	if p.onReady != nil {
		p.onReady()
	}
}

func (p *Player) tick(now time.Time) {
	p.frame = 0
	if p.destroyed || p.paused {
		return
	}
	if !p.lastTick.IsZero() {
		if dt := now.Sub(p.lastTick); dt > 0 {
			p.fps = float64(time.Second) / float64(dt)
		}
	}
	p.lastTick = now

	p.step()
	p.render()
	p.frame = p.loop.RequestFrame(p.tick)
}

func (p *Player) handleScroll() {
	if p.destroyed || p.scrollPending != 0 {
		return
	}
	p.scrollPending = p.loop.RequestFrame(func(time.Time) {
		p.scrollPending = 0
		p.updateScroll()
	})
}

func (p *Player) handleResize() {
	if p.destroyed {
		return
	}
	if p.resizeTimer != 0 {
		p.loop.CancelTimer(p.resizeTimer)
	}
	p.resizeTimer = p.loop.AfterFunc(p.cfg.ResizeDebounce, func() {
		p.resizeTimer = 0
		if p.destroyed {
			return
		}
		p.canvas.Resize(p.vp.Width(), p.vp.Height(), p.vp.PixelRatio())
		p.canvas.Clear(opaqueBlack)
		p.render()
	})
}

// JumpToFrame moves straight to frame i, clamped, bypassing the spring,
// and redraws.
func (p *Player) JumpToFrame(i int) {
	if p.destroyed || p.store == nil {
		return
	}
	i = max(0, min(i, p.total-1))
	p.state = PlaybackState{Current: float64(i), Target: float64(i)}
	p.lastTargetIndex = i
	p.requestLoad(i)
	p.render()
}

// JumpToProgress jumps to the frame nearest percent (0..100) of the sequence.
func (p *Player) JumpToProgress(percent float64) {
	if p.destroyed || p.store == nil {
		return
	}
	frac := viewport.Clamp01(percent / 100)
	p.JumpToFrame(int(math.Round(frac * float64(p.total-1))))
}

func (p *Player) Pause() {
	p.paused = true
	if p.frame != 0 {
		p.loop.CancelFrame(p.frame)
		p.frame = 0
	}
}

func (p *Player) Resume() {
	if p.destroyed || !p.paused {
		return
	}
	p.paused = false
	p.lastTick = time.Time{}
	if p.started && p.frame == 0 {
		p.frame = p.loop.RequestFrame(p.tick)
	}
}

func (p *Player) Paused() bool { return p.paused }

// Progress is the drawn position as a fraction of the sequence.
func (p *Player) Progress() float64 {
	if p.total <= 1 {
		return 0
	}
	return viewport.Clamp01(p.state.Current / float64(p.total-1))
}

func (p *Player) State() PlaybackState {
	return p.state
}

// TotalFrames is the frame count after the mobile override.
func (p *Player) TotalFrames() int {
	return p.total
}

// FrameStatus reports the load state of frame i.
func (p *Player) FrameStatus(i int) Status {
	if p.store == nil {
		return Unloaded
	}
	return p.store.status(i)
}

func (p *Player) Metrics() Metrics {
	m := Metrics{
		FPS:          p.fps,
		CurrentFrame: int(math.Round(p.state.Current)),
		TotalFrames:  p.total,
		Progress:     p.Progress(),
		IsMobile:     p.isMobile,
	}
	if p.store != nil {
		m.LoadedFrames = p.store.loadedCount()
	}
	return m
}

// Destroy stops the draw loop, cancels in-flight loads, detaches the
// listeners and releases the frames and the canvas. It is idempotent.
func (p *Player) Destroy() {
	if p.destroyed {
		return
	}
	p.destroyed = true
	p.cancel()

	if p.frame != 0 {
		p.loop.CancelFrame(p.frame)
		p.frame = 0
	}
	if p.scrollPending != 0 {
		p.loop.CancelFrame(p.scrollPending)
		p.scrollPending = 0
	}
	if p.resizeTimer != 0 {
		p.loop.CancelTimer(p.resizeTimer)
		p.resizeTimer = 0
	}
	for _, cancel := range p.unsubscribe {
		cancel()
	}
	p.unsubscribe = nil

	if p.store != nil {
		p.store.close()
	}
	p.canvas = nil
	p.log.Debug("[*] frame player destroyed")
}
