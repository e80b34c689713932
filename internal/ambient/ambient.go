// Package ambient draws the decorative layer over the frame sequence:
// drifting leaves and light specks, golden sparkles, fog, light rays, a
// vignette and a color tint. Scroll speed makes everything move faster.
package ambient

import (
	"fmt"
	"image/color"
	"math"
	"math/rand/v2"
	"time"

	"github.com/ivlev/forestscroll/internal/config"
	"github.com/ivlev/forestscroll/internal/logger"
	"github.com/ivlev/forestscroll/internal/loop"
	"github.com/ivlev/forestscroll/internal/render"
	"github.com/ivlev/forestscroll/internal/stage"
	"github.com/ivlev/forestscroll/internal/viewport"
	"github.com/sirupsen/logrus"
)

// rayBase is the light ray opacity at both ends of the journey.
const rayBase = 0.2

// Soundscape is a looping background sound.
type Soundscape interface {
	Play()
	SetVolume(v float64)
	Close() error
}

type Option func(*Overlay)

func WithRand(rng *rand.Rand) Option {
	return func(o *Overlay) { o.rng = rng }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(o *Overlay) { o.log = log }
}

// WithSoundscape supplies the sound played when sound is enabled.
func WithSoundscape(s Soundscape) Option {
	return func(o *Overlay) { o.sound = s }
}

// Overlay is the ambient layer. Every method must be called on the loop goroutine.
type Overlay struct {
	cfg    config.Ambient
	stage  stage.Stage
	vp     viewport.Viewport
	loop   *loop.Loop
	canvas render.Canvas
	rng    *rand.Rand
	log    logrus.FieldLogger
	sound  Soundscape
	tint   color.NRGBA

	particles []Particle
	sparkles  []Sparkle

	multiplier      float64
	lastScrollY     float64
	scrollProgress  float64
	lightRayOpacity float64
	elapsed         float64

	frame       loop.Handle
	decay       loop.Handle
	lastFrame   time.Time
	unsubscribe []func()
	destroyed   bool
}

// New creates the overlay's layer, fills the entity pools and starts the
// draw loop.
func New(st stage.Stage, vp viewport.Viewport, lp *loop.Loop, cfg config.Ambient, opts ...Option) (*Overlay, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tint, err := config.ParseTint(cfg.ColorTint, cfg.TintAlpha)
	if err != nil {
		return nil, err
	}

	o := &Overlay{
		cfg:             cfg,
		stage:           st,
		vp:              vp,
		loop:            lp,
		log:             logger.Log,
		tint:            tint,
		multiplier:      1,
		lightRayOpacity: LightRayOpacity(0),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		o.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}

	o.canvas = st.AddLayer(cfg.LayerID, cfg.LayerZ)
	if o.canvas == nil {
		return nil, fmt.Errorf("ambient layer %q could not be created", cfg.LayerID)
	}
	w, h := vp.Width(), vp.Height()
	o.canvas.Resize(w, h, vp.PixelRatio())
	o.canvas.Clear(color.Transparent)

	o.particles = make([]Particle, cfg.ParticleCount)
	for i := range o.particles {
		o.particles[i] = newParticle(o.rng, w, h, cfg.ParticleSpeed)
	}
	o.sparkles = make([]Sparkle, cfg.SparkleCount)
	for i := range o.sparkles {
		o.sparkles[i] = newSparkle(o.rng, w, h, cfg.ParticleSpeed)
	}

	o.lastScrollY = vp.ScrollY()
	o.unsubscribe = append(o.unsubscribe,
		vp.OnScroll(o.handleScroll),
		vp.OnResize(o.handleResize),
	)
	o.decay = lp.AfterFunc(cfg.DecayInterval, o.decayMultiplier)
	o.frame = lp.RequestFrame(o.tick)

	if cfg.SoundEnabled && o.sound != nil {
		o.updateVolume()
		o.sound.Play()
	}

	o.log.WithFields(logrus.Fields{
		"particles": len(o.particles),
		"sparkles":  len(o.sparkles),
	}).Debug("[*] ambient overlay started")
	return o, nil
}

// LightRayOpacity peaks at the middle of the journey and falls off
// linearly to rayBase at both ends.
func LightRayOpacity(p float64) float64 {
	p = viewport.Clamp01(p)
	return rayBase + (1-rayBase)*(1-math.Abs(2*p-1))
}

// UpdateProgress feeds the player's progress in.
func (o *Overlay) UpdateProgress(p float64) {
	o.scrollProgress = viewport.Clamp01(p)
	o.lightRayOpacity = LightRayOpacity(o.scrollProgress)
}

func (o *Overlay) Progress() float64        { return o.scrollProgress }
func (o *Overlay) LightRayOpacity() float64 { return o.lightRayOpacity }

// Multiplier is the current scroll speed factor, 1 at rest.
func (o *Overlay) Multiplier() float64 { return o.multiplier }

// Particles exposes the particle pool for inspection.
func (o *Overlay) Particles() []Particle { return o.particles }
func (o *Overlay) Sparkles() []Sparkle   { return o.sparkles }

func (o *Overlay) handleScroll() {
	if o.destroyed {
		return
	}
	y := o.vp.ScrollY()
	delta := math.Abs(y - o.lastScrollY)
	o.lastScrollY = y

	raw := 1 + math.Min(delta/o.cfg.VelocityScale, o.cfg.MaxBoost)
	o.multiplier = o.multiplier*0.8 + raw*0.2
	o.updateVolume()
}

func (o *Overlay) decayMultiplier() {
	if o.destroyed {
		return
	}
	o.multiplier = 1 + (o.multiplier-1)*0.9
	o.updateVolume()
	o.decay = o.loop.AfterFunc(o.cfg.DecayInterval, o.decayMultiplier)
}

func (o *Overlay) updateVolume() {
	if !o.cfg.SoundEnabled || o.sound == nil || o.cfg.MaxBoost <= 0 {
		return
	}
	boost := math.Min((o.multiplier-1)/o.cfg.MaxBoost, 1)
	o.sound.SetVolume(o.cfg.SoundVolume * (0.6 + 0.4*boost))
}

func (o *Overlay) handleResize() {
	if o.destroyed {
		return
	}
	o.canvas.Resize(o.vp.Width(), o.vp.Height(), o.vp.PixelRatio())
}

func (o *Overlay) tick(now time.Time) {
	o.frame = 0
	if o.destroyed {
		return
	}
	dt := 1.0
	if !o.lastFrame.IsZero() {
		dt = math.Max(0, math.Min(float64(now.Sub(o.lastFrame))/float64(time.Second/60), 3))
	}
	o.lastFrame = now

	o.render(dt)
	o.frame = o.loop.RequestFrame(o.tick)
}

// Destroy stops the loop and the decay timer, removes the layer, drops
// the pools and closes the soundscape. It is idempotent.
func (o *Overlay) Destroy() {
	if o.destroyed {
		return
	}
	o.destroyed = true

	if o.frame != 0 {
		o.loop.CancelFrame(o.frame)
		o.frame = 0
	}
	if o.decay != 0 {
		o.loop.CancelTimer(o.decay)
		o.decay = 0
	}
	for _, cancel := range o.unsubscribe {
		cancel()
	}
	o.unsubscribe = nil

	o.stage.RemoveLayer(o.cfg.LayerID)
	o.canvas = nil
	o.particles = nil
	o.sparkles = nil

	if o.sound != nil {
		if err := o.sound.Close(); err != nil {
			o.log.WithError(err).Warn("[!] closing soundscape")
		}
	}
	o.log.Debug("[*] ambient overlay destroyed")
}
