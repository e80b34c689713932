package ambient

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/ivlev/forestscroll/internal/config"
	"github.com/ivlev/forestscroll/internal/logger"
	"github.com/ivlev/forestscroll/internal/loop"
	"github.com/ivlev/forestscroll/internal/render"
	"github.com/ivlev/forestscroll/internal/stage"
	"github.com/ivlev/forestscroll/internal/viewport"
)

// recordCanvas remembers the paints it was asked to fill with.
type recordCanvas struct {
	w, h   float64
	fills  []render.Paint
	clears int
	panics bool
}

func (c *recordCanvas) Size() (float64, float64) { return c.w, c.h }
func (c *recordCanvas) PixelRatio() float64      { return 1 }
func (c *recordCanvas) Resize(w, h, _ float64)   { c.w, c.h = w, h }
func (c *recordCanvas) Clear(color.Color) {
	c.clears++
	c.fills = nil
}
func (c *recordCanvas) DrawImage(image.Image, render.Rect, float64) {}
func (c *recordCanvas) Fill(_ render.Path, p render.Paint) {
	if c.panics {
		panic("broken canvas")
	}
	c.fills = append(c.fills, p)
}

type recordStage struct {
	canvas  *recordCanvas
	removed []string
}

func (s *recordStage) Canvas(string) (render.Canvas, bool) { return s.canvas, true }
func (s *recordStage) AddLayer(string, int) render.Canvas  { return s.canvas }
func (s *recordStage) RemoveLayer(id string)               { s.removed = append(s.removed, id) }

type fakeSound struct {
	plays   int
	volumes []float64
	closed  int
}

func (s *fakeSound) Play()               { s.plays++ }
func (s *fakeSound) SetVolume(v float64) { s.volumes = append(s.volumes, v) }
func (s *fakeSound) Close() error {
	s.closed++
	return nil
}

type harness struct {
	o    *Overlay
	vp   *viewport.Manual
	loop *loop.Loop
	now  time.Time
}

func newHarness(t *testing.T, st stage.Stage, cfg config.Ambient, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		vp:  viewport.NewManual(160, 90, 1, 90*6),
		now: time.Unix(1000, 0),
	}
	h.loop = loop.New(h.now)
	base := []Option{
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithLogger(logger.Discard()),
	}
	o, err := New(st, h.vp, h.loop, cfg, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	h.o = o
	return h
}

func (h *harness) advance(d time.Duration) {
	h.now = h.now.Add(d)
	h.loop.Advance(h.now)
}

func TestLightRayOpacity(t *testing.T) {
	peak := LightRayOpacity(0.5)
	if math.Abs(peak-1) > 1e-9 {
		t.Errorf("Expected full opacity at the midpoint, got %v", peak)
	}
	for i := 1; i <= 50; i++ {
		step := float64(i) / 100
		down := LightRayOpacity(0.5 - step)
		up := LightRayOpacity(0.5 + step)
		if down >= LightRayOpacity(0.5-step+0.01) || up >= LightRayOpacity(0.5+step-0.01) {
			t.Fatalf("Opacity not strictly decreasing away from the midpoint at step %v", step)
		}
	}
	for _, p := range []float64{0, 1} {
		if got := LightRayOpacity(p); math.Abs(got-rayBase) > 1e-9 || got <= 0 {
			t.Errorf("Expected baseline %v at p=%v, got %v", rayBase, p, got)
		}
	}

	h := newHarness(t, &recordStage{canvas: &recordCanvas{}}, config.DefaultAmbient())
	h.o.UpdateProgress(1.7)
	if h.o.Progress() != 1 || h.o.LightRayOpacity() != rayBase {
		t.Errorf("Expected progress clamped to 1, got %v", h.o.Progress())
	}
}

func TestPools(t *testing.T) {
	cfg := config.DefaultAmbient()
	cfg.ParticleCount = 1000
	cfg.SparkleCount = 30
	h := newHarness(t, &recordStage{canvas: &recordCanvas{}}, cfg)

	if len(h.o.Particles()) != 1000 || len(h.o.Sparkles()) != 30 {
		t.Fatalf("Unexpected pool sizes %d and %d", len(h.o.Particles()), len(h.o.Sparkles()))
	}
	leaves := 0
	for _, p := range h.o.Particles() {
		if p.Kind == Leaf {
			leaves++
		}
		if p.Depth < 0 || p.Depth > 1 {
			t.Fatalf("Depth %v out of range", p.Depth)
		}
	}
	if share := float64(leaves) / 1000; share < 0.22 || share > 0.38 {
		t.Errorf("Expected about 30%% leaves, got %v", share)
	}
}

func TestEntitiesStayInBounds(t *testing.T) {
	cfg := config.DefaultAmbient()
	cfg.ParticleSpeed = 40
	h := newHarness(t, &recordStage{canvas: &recordCanvas{}}, cfg)

	m := cfg.WrapMargin
	in := func(x, y float64) bool {
		return x >= -m && x <= 160+m && y >= -m && y <= 90+m
	}
	for i := 0; i < 200; i++ {
		if i%10 == 0 {
			h.vp.ScrollTo(float64(i%20) * 20)
		}
		h.advance(16 * time.Millisecond)
		for _, p := range h.o.Particles() {
			if !in(p.X, p.Y) {
				t.Fatalf("Particle escaped to (%v, %v) on tick %d", p.X, p.Y, i)
			}
		}
		for _, s := range h.o.Sparkles() {
			if !in(s.X, s.Y) {
				t.Fatalf("Sparkle escaped to (%v, %v) on tick %d", s.X, s.Y, i)
			}
		}
	}
}

func TestWrap(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	tests := []struct {
		name   string
		x, y   float64
		checkX func(float64) bool
		checkY func(float64) bool
	}{
		{"below", 50, 200, func(x float64) bool { return x >= 0 && x <= 100 }, func(y float64) bool { return y == 0 }},
		{"above", 50, -50, func(x float64) bool { return x >= 0 && x <= 100 }, func(y float64) bool { return y == 100 }},
		{"right", 130, 50, func(x float64) bool { return x == 0 }, func(y float64) bool { return y == 50 }},
		{"left", -30, 50, func(x float64) bool { return x == 100 }, func(y float64) bool { return y == 50 }},
		{"inside margin", 105, -5, func(x float64) bool { return x == 105 }, func(y float64) bool { return y == -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := wrap(rng, tt.x, tt.y, 100, 100, 10)
			if !tt.checkX(x) || !tt.checkY(y) {
				t.Errorf("Unexpected wrap result (%v, %v)", x, y)
			}
		})
	}
}

func TestWrappedEntitiesReturnOnScreen(t *testing.T) {
	h := newHarness(t, &recordStage{canvas: &recordCanvas{}}, config.DefaultAmbient())
	m := h.o.cfg.WrapMargin

	p := &h.o.Particles()[0]
	p.X, p.Y, p.VX, p.VY = 80, 90+m+5, 0, 0
	s := &h.o.Sparkles()[0]
	s.X, s.Y, s.VX, s.VY = -m-5, 40, 0, 0

	h.advance(16 * time.Millisecond)

	if p.Y != 0 || p.X < 0 || p.X > 160 {
		t.Errorf("Expected the particle on the top edge, got (%v, %v)", p.X, p.Y)
	}
	if s.X < 0 || s.X > 160 || s.Y < 0 || s.Y > 90 {
		t.Errorf("Expected the sparkle inside the view, got (%v, %v)", s.X, s.Y)
	}
}

func TestVelocityMultiplier(t *testing.T) {
	h := newHarness(t, &recordStage{canvas: &recordCanvas{}}, config.DefaultAmbient())
	if h.o.Multiplier() != 1 {
		t.Fatalf("Expected multiplier 1 at rest, got %v", h.o.Multiplier())
	}

	h.vp.ScrollTo(100)
	if got := h.o.Multiplier(); math.Abs(got-1.4) > 1e-9 {
		t.Errorf("Expected 1.4 after a 100px scroll, got %v", got)
	}

	h.advance(50 * time.Millisecond)
	if got := h.o.Multiplier(); math.Abs(got-1.36) > 1e-9 {
		t.Errorf("Expected 1.36 after one decay, got %v", got)
	}

	h.advance(50 * time.Millisecond)
	if got := h.o.Multiplier(); math.Abs(got-1.324) > 1e-9 {
		t.Errorf("Expected 1.324 after two decays, got %v", got)
	}
}

func TestBurstFollowsMultiplier(t *testing.T) {
	cfg := config.DefaultAmbient()
	cfg.SparkleCount = 0
	canvas := &recordCanvas{}
	h := newHarness(t, &recordStage{canvas: canvas}, cfg)

	h.advance(16 * time.Millisecond)
	calm := len(canvas.fills)

	for i := 0; i < 10; i++ {
		h.vp.ScrollTo(float64(450 * ((i + 1) % 2)))
	}
	if h.o.Multiplier() <= 2 {
		t.Fatalf("Expected a fast scroll to push the multiplier over 2, got %v", h.o.Multiplier())
	}
	h.advance(16 * time.Millisecond)
	if len(canvas.fills) != calm+1 {
		t.Errorf("Expected exactly one extra fill for the burst, got %d then %d", calm, len(canvas.fills))
	}

	for i := 0; i < 100; i++ {
		h.advance(50 * time.Millisecond)
	}
	if math.Abs(h.o.Multiplier()-1) > 0.01 {
		t.Errorf("Expected the multiplier to decay back to 1, got %v", h.o.Multiplier())
	}
}

func TestRenderOrder(t *testing.T) {
	cfg := config.DefaultAmbient()
	cfg.ParticleCount = 0
	cfg.SparkleCount = 0
	canvas := &recordCanvas{}
	h := newHarness(t, &recordStage{canvas: canvas}, cfg)
	h.advance(16 * time.Millisecond)

	var kinds []render.PaintKind
	for _, p := range canvas.fills {
		kinds = append(kinds, p.Kind)
	}
	expected := []render.PaintKind{
		render.PaintRadial,
		render.PaintLinear, render.PaintLinear, render.PaintLinear, render.PaintLinear, render.PaintLinear,
		render.PaintRadial,
		render.PaintSolid,
	}
	if len(kinds) != len(expected) {
		t.Fatalf("Expected %d fills, got %v", len(expected), kinds)
	}
	for i := range expected {
		if kinds[i] != expected[i] {
			t.Fatalf("Fill %d: expected kind %v, got %v", i, expected[i], kinds[i])
		}
	}

	tint, _ := config.ParseTint(cfg.ColorTint, cfg.TintAlpha)
	if last := canvas.fills[len(canvas.fills)-1]; last.Color != tint {
		t.Errorf("Expected the tint last, got %+v", last.Color)
	}
	vignette := canvas.fills[len(canvas.fills)-2]
	if edge := vignette.Stops[len(vignette.Stops)-1].Color; edge.A == 0 || edge.R != 0 {
		t.Errorf("Expected a dark vignette edge, got %+v", edge)
	}

	cfg.LightRays = false
	canvas2 := &recordCanvas{}
	h2 := newHarness(t, &recordStage{canvas: canvas2}, cfg)
	h2.advance(16 * time.Millisecond)
	if len(canvas2.fills) != 3 {
		t.Errorf("Expected fog, vignette and tint without rays, got %d fills", len(canvas2.fills))
	}
}

func TestRecoversPanic(t *testing.T) {
	canvas := &recordCanvas{panics: true}
	h := newHarness(t, &recordStage{canvas: canvas}, config.DefaultAmbient())
	h.advance(16 * time.Millisecond)
	h.advance(16 * time.Millisecond)
	if h.loop.Pending() != 1 {
		t.Error("Expected the overlay loop to survive a failed draw")
	}
}

func TestResize(t *testing.T) {
	st := stage.NewRasterStage(160, 90, 1)
	cfg := config.DefaultAmbient()
	h := newHarness(t, st, cfg)

	h.vp.Resize(320, 180, 2)
	c, ok := st.Canvas(cfg.LayerID)
	if !ok {
		t.Fatal("Expected the overlay layer on the stage")
	}
	if w, hh := c.Size(); w != 320 || hh != 180 || c.PixelRatio() != 2 {
		t.Errorf("Expected 320x180@2, got %vx%v@%v", w, hh, c.PixelRatio())
	}
}

func TestSoundscape(t *testing.T) {
	cfg := config.DefaultAmbient()
	cfg.SoundEnabled = true
	sound := &fakeSound{}
	h := newHarness(t, &recordStage{canvas: &recordCanvas{}}, cfg, WithSoundscape(sound))

	if sound.plays != 1 {
		t.Errorf("Expected the sound to start, got %d plays", sound.plays)
	}
	first := sound.volumes[len(sound.volumes)-1]
	h.vp.ScrollTo(300)
	if louder := sound.volumes[len(sound.volumes)-1]; louder <= first {
		t.Errorf("Expected fast scrolling to raise the volume, got %v", louder)
	}

	h.o.Destroy()
	if sound.closed != 1 {
		t.Errorf("Expected the sound closed once, got %d", sound.closed)
	}
}

func TestDestroy(t *testing.T) {
	st := stage.NewRasterStage(160, 90, 1)
	cfg := config.DefaultAmbient()
	h := newHarness(t, st, cfg)

	h.o.Destroy()
	h.o.Destroy()

	if _, ok := st.Canvas(cfg.LayerID); ok {
		t.Error("Expected the overlay layer removed")
	}
	if h.loop.Pending() != 0 {
		t.Errorf("Expected no pending frames, got %d", h.loop.Pending())
	}
	if s, r := h.vp.Listeners(); s != 0 || r != 0 {
		t.Errorf("Expected listeners detached, got %d and %d", s, r)
	}
	if h.o.Particles() != nil || h.o.Sparkles() != nil {
		t.Error("Expected the pools released")
	}

	before := h.o.Multiplier()
	h.vp.ScrollTo(400)
	h.advance(time.Second)
	if h.o.Multiplier() != before {
		t.Error("A destroyed overlay should ignore scroll and timers")
	}
}
