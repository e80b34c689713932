package ambient

import (
	"fmt"
	"image/color"
	"math"

	"github.com/ivlev/forestscroll/internal/render"
	"github.com/lucasb-eyer/go-colorful"
)

var (
	fogMorning = mustHex("#dce8d8")
	fogDusk    = mustHex("#7f9688")
	leafNear   = mustHex("#c8a040")
	leafFar    = mustHex("#5c7a3a")
)

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

func nrgba(c colorful.Color, alpha float64) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return render.RGBA(r, g, b, alpha)
}

// render advances the entities by dt sixtieths of a second and redraws
// the layer back to front. A panic is logged and the frame dropped.
func (o *Overlay) render(dt float64) {
	defer func() {
		if r := recover(); r != nil {
			o.log.WithError(fmt.Errorf("%v", r)).Error("[!] ambient draw failed")
		}
	}()
	if o.canvas == nil {
		return
	}
	w, h := o.canvas.Size()
	o.elapsed += dt / 60

	o.canvas.Clear(color.Transparent)
	o.drawFog(w, h)
	if o.cfg.LightRays {
		o.drawLightRays(w, h)
	}
	o.updateParticles(dt, w, h)
	o.drawParticles()
	o.updateSparkles(dt, w, h)
	o.drawSparkles()
	if o.multiplier > o.cfg.BurstThreshold {
		o.drawBurst(w, h)
	}
	o.drawVignette(w, h)
	o.canvas.Fill(render.RectPath(render.Rect{W: w, H: h}), render.Solid(o.tint))
}

func (o *Overlay) drawFog(w, h float64) {
	if o.cfg.FogIntensity <= 0 {
		return
	}
	fog := fogMorning.BlendLab(fogDusk, o.scrollProgress)
	alpha := o.cfg.FogIntensity * (0.5 + 0.5*o.scrollProgress)
	drift := math.Sin(o.elapsed*0.1) * w * 0.05
	o.canvas.Fill(render.RectPath(render.Rect{W: w, H: h}), render.Radial(w/2+drift, h*0.8, 0, math.Max(w, h)*0.8,
		render.Stop{Offset: 0, Color: nrgba(fog, alpha*0.5)},
		render.Stop{Offset: 0.6, Color: nrgba(fog, alpha*0.2)},
		render.Stop{Offset: 1, Color: nrgba(fog, 0)},
	))
}

// drawLightRays fans angled wedges down from a point above the top right.
func (o *Overlay) drawLightRays(w, h float64) {
	const rays = 5
	ox, oy := w*0.75, -h*0.1
	length := math.Hypot(w, h) * 1.2
	for i := 0; i < rays; i++ {
		angle := math.Pi/2 + 0.15 + float64(i)*0.12 + math.Sin(o.elapsed*0.3+float64(i))*0.03
		alpha := 0.12 * o.lightRayOpacity * (1 - float64(i)*0.12)
		x1 := ox + length*math.Cos(angle)
		y1 := oy + length*math.Sin(angle)
		o.canvas.Fill(render.Wedge(ox, oy, length, angle, 0.06), render.Linear(ox, oy, x1, y1,
			render.Stop{Offset: 0, Color: render.RGBA(255, 240, 200, alpha)},
			render.Stop{Offset: 1, Color: render.RGBA(255, 240, 200, 0)},
		))
	}
}

func (o *Overlay) drawParticles() {
	for _, p := range o.particles {
		alpha := p.Opacity * (0.5 + 0.5*p.Depth)
		switch p.Kind {
		case Leaf:
			c := leafFar.BlendLab(leafNear, p.Depth)
			o.canvas.Fill(render.Ellipse(p.X, p.Y, p.Size, p.Size*0.5, p.Rotation), render.Solid(nrgba(c, alpha)))
		default:
			r := p.Size * 3
			o.canvas.Fill(render.Circle(p.X, p.Y, r), render.Radial(p.X, p.Y, 0, r,
				render.Stop{Offset: 0, Color: render.RGBA(255, 250, 220, alpha)},
				render.Stop{Offset: 1, Color: render.RGBA(255, 250, 220, 0)},
			))
		}
	}
}

// drawSparkles draws a glow, a four-point star and a bright center per
// sparkle, brighter while the light rays are.
func (o *Overlay) drawSparkles() {
	for _, s := range o.sparkles {
		twinkle := (math.Sin(s.Phase) + 1) / 2
		alpha := twinkle * (0.3 + 0.7*o.lightRayOpacity) * (0.4 + 0.6*s.Depth)
		if alpha <= 0.01 {
			continue
		}
		glow := s.Size * 4
		o.canvas.Fill(render.Circle(s.X, s.Y, glow), render.Radial(s.X, s.Y, 0, glow,
			render.Stop{Offset: 0, Color: render.RGBA(255, 215, 120, alpha*0.4)},
			render.Stop{Offset: 1, Color: render.RGBA(255, 215, 120, 0)},
		))
		o.canvas.Fill(render.Star(s.X, s.Y, s.Size*3, s.Size*0.8, 4, s.Phase*0.5), render.Solid(render.RGBA(255, 235, 170, alpha*0.8)))
		o.canvas.Fill(render.Circle(s.X, s.Y, s.Size*0.6), render.Solid(render.RGBA(255, 255, 240, alpha)))
	}
}

func (o *Overlay) drawBurst(w, h float64) {
	span := o.cfg.MaxBoost + 1 - o.cfg.BurstThreshold
	intensity := 1.0
	if span > 0 {
		intensity = math.Min((o.multiplier-o.cfg.BurstThreshold)/span, 1)
	}
	r := math.Max(w, h) * 0.5
	o.canvas.Fill(render.RectPath(render.Rect{W: w, H: h}), render.Radial(w/2, h/2, 0, r,
		render.Stop{Offset: 0, Color: render.RGBA(255, 200, 80, 0.15*intensity)},
		render.Stop{Offset: 1, Color: render.RGBA(255, 200, 80, 0)},
	))
}

func (o *Overlay) drawVignette(w, h float64) {
	if o.cfg.VignetteIntensity <= 0 {
		return
	}
	o.canvas.Fill(render.RectPath(render.Rect{W: w, H: h}), render.Radial(w/2, h/2, math.Min(w, h)*0.3, math.Max(w, h)*0.75,
		render.Stop{Offset: 0, Color: render.RGBA(0, 0, 0, 0)},
		render.Stop{Offset: 1, Color: render.RGBA(0, 0, 0, o.cfg.VignetteIntensity)},
	))
}
