package player

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/ivlev/forestscroll/internal/render"
)

var opaqueBlack = color.RGBA{A: 255}

// render draws the current position. A panic while drawing is logged and
// the loop carries on with the next frame.
func (p *Player) render() {
	defer func() {
		if r := recover(); r != nil {
			p.log.WithField("frame", p.state.Current).
				WithError(fmt.Errorf("%v", r)).
				Error("[!] frame draw failed")
		}
	}()
	p.draw()
}

// draw composites floor(current) and, faded in by the fraction, the next
// frame. Nothing is drawn while the first of the two is not loaded, which
// leaves the previous picture on the canvas.
func (p *Player) draw() {
	if p.destroyed || p.canvas == nil || p.store == nil {
		return
	}
	cur := p.state.Current
	i1 := int(math.Floor(cur))
	i2 := min(int(math.Ceil(cur)), p.total-1)
	blend := cur - float64(i1)

	img1, ok := p.store.get(i1)
	if !ok {
		return
	}
	w, h := p.canvas.Size()
	p.canvas.DrawImage(img1, cover(img1, w, h), 1)

	if i2 != i1 && blend > p.cfg.BlendThreshold {
		if img2, ok := p.store.get(i2); ok {
			p.canvas.DrawImage(img2, cover(img2, w, h), blend)
		}
	}

	p.drawAtmosphere(w, h)
}

func cover(img image.Image, w, h float64) render.Rect {
	b := img.Bounds()
	return render.Cover(float64(b.Dx()), float64(b.Dy()), w, h)
}

// drawAtmosphere darkens toward a green dusk as the journey goes on and
// lays a warm highlight over the center that fades out on the way.
func (p *Player) drawAtmosphere(w, h float64) {
	progress := p.Progress()
	full := render.RectPath(render.Rect{W: w, H: h})

	p.canvas.Fill(full, render.Solid(render.RGBA(10, 25, 15, progress*0.15)))

	radius := math.Max(w, h) * 0.6
	p.canvas.Fill(full, render.Radial(w/2, h/2, 0, radius,
		render.Stop{Offset: 0, Color: render.RGBA(255, 250, 235, 0.06*(1-progress))},
		render.Stop{Offset: 1, Color: render.RGBA(255, 250, 235, 0)},
	))
}
