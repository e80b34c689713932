// Package host runs the journey in an ebiten window: canvases backed by
// GPU images, keyboard and wheel scrolling, a loading screen and a looping
// forest soundscape.
package host

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/ivlev/forestscroll/internal/render"
)

// Canvas is a render.Canvas on an offscreen ebiten image. Decoded frames
// are uploaded once and kept in the stage's texture cache.
type Canvas struct {
	w, h       float64
	pixelRatio float64
	img        *ebiten.Image
	textures   *fifoCache[image.Image, *ebiten.Image]

	vs []ebiten.Vertex
	is []uint16
}

func newCanvas(w, h, pixelRatio float64, textures *fifoCache[image.Image, *ebiten.Image]) *Canvas {
	c := &Canvas{textures: textures}
	c.Resize(w, h, pixelRatio)
	return c
}

func (c *Canvas) Size() (float64, float64) { return c.w, c.h }
func (c *Canvas) PixelRatio() float64      { return c.pixelRatio }
func (c *Canvas) Image() *ebiten.Image     { return c.img }

func (c *Canvas) Resize(w, h, pixelRatio float64) {
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	c.w, c.h, c.pixelRatio = w, h, pixelRatio
	pw := max(1, int(math.Ceil(w*pixelRatio)))
	ph := max(1, int(math.Ceil(h*pixelRatio)))
	if c.img != nil {
		if b := c.img.Bounds(); b.Dx() == pw && b.Dy() == ph {
			c.img.Clear()
			return
		}
		c.img.Deallocate()
	}
	c.img = ebiten.NewImage(pw, ph)
}

func (c *Canvas) Clear(clr color.Color) {
	c.img.Fill(clr)
}

func (c *Canvas) DrawImage(img image.Image, dst render.Rect, alpha float64) {
	if img == nil || alpha <= 0 || dst.W <= 0 || dst.H <= 0 {
		return
	}
	b := img.Bounds()
	if b.Empty() {
		return
	}
	tex := c.textures.get(img, func() *ebiten.Image {
		return ebiten.NewImageFromImage(img)
	})

	s := c.pixelRatio
	op := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear}
	op.GeoM.Scale(dst.W*s/float64(b.Dx()), dst.H*s/float64(b.Dy()))
	op.GeoM.Translate(dst.X*s, dst.Y*s)
	if alpha < 1 {
		op.ColorScale.ScaleAlpha(float32(alpha))
	}
	c.img.DrawImage(tex, op)
}

func (c *Canvas) Fill(p render.Path, paint render.Paint) {
	if len(p) < 3 {
		return
	}
	s := float32(c.pixelRatio)
	var path vector.Path
	path.MoveTo(float32(p[0].X)*s, float32(p[0].Y)*s)
	for _, pt := range p[1:] {
		path.LineTo(float32(pt.X)*s, float32(pt.Y)*s)
	}
	path.Close()

	c.vs, c.is = path.AppendVerticesAndIndicesForFilling(c.vs[:0], c.is[:0])
	for i := range c.vs {
		c.vs[i].SrcX, c.vs[i].SrcY = 0, 0
		c.vs[i].ColorR, c.vs[i].ColorG, c.vs[i].ColorB, c.vs[i].ColorA = 1, 1, 1, 1
	}

	op := &ebiten.DrawTrianglesShaderOptions{
		Uniforms:  gradientUniforms(paint, c.pixelRatio),
		FillRule:  ebiten.FillRuleNonZero,
		AntiAlias: true,
	}
	c.img.DrawTrianglesShader(c.vs, c.is, ensureGradientShader(), op)
}

func (c *Canvas) dispose() {
	if c.img != nil {
		c.img.Deallocate()
		c.img = nil
	}
}
