package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// Raster is a software Canvas. It is not safe for concurrent use.
type Raster struct {
	w, h       float64
	pixelRatio float64
	img        *image.RGBA
	scratch    *image.RGBA
	rast       *vector.Rasterizer
	// Scaler is used by DrawImage. ApproxBiLinear keeps export speed reasonable.
	Scaler xdraw.Scaler
}

func NewRaster(w, h, pixelRatio float64) *Raster {
	r := &Raster{Scaler: xdraw.ApproxBiLinear}
	r.Resize(w, h, pixelRatio)
	return r
}

func (r *Raster) Size() (float64, float64) { return r.w, r.h }
func (r *Raster) PixelRatio() float64      { return r.pixelRatio }

// Image exposes the backing store.
func (r *Raster) Image() *image.RGBA { return r.img }

func (r *Raster) Resize(w, h, pixelRatio float64) {
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	r.w, r.h, r.pixelRatio = w, h, pixelRatio
	pw := int(math.Ceil(w * pixelRatio))
	ph := int(math.Ceil(h * pixelRatio))
	if pw < 1 {
		pw = 1
	}
	if ph < 1 {
		ph = 1
	}
	r.img = image.NewRGBA(image.Rect(0, 0, pw, ph))
	if r.rast == nil {
		r.rast = vector.NewRasterizer(1, 1)
	}
}

func (r *Raster) Clear(c color.Color) {
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

func (r *Raster) DrawImage(img image.Image, dst Rect, alpha float64) {
	if img == nil || alpha <= 0 {
		return
	}
	dr := r.pixelRect(dst)
	if dr.Empty() || !dr.Overlaps(r.img.Bounds()) {
		return
	}

	if alpha >= 1 {
		r.Scaler.Scale(r.img, dr, img, img.Bounds(), draw.Over, nil)
		return
	}

	// Scale into scratch first, then composite through a uniform mask.
	size := image.Rect(0, 0, dr.Dx(), dr.Dy())
	if r.scratch == nil || r.scratch.Bounds() != size {
		r.scratch = image.NewRGBA(size)
	}
	r.Scaler.Scale(r.scratch, size, img, img.Bounds(), draw.Src, nil)
	mask := image.NewUniform(color.Alpha{A: alpha8(alpha)})
	draw.DrawMask(r.img, dr, r.scratch, image.Point{}, mask, image.Point{}, draw.Over)
}

func (r *Raster) Fill(p Path, paint Paint) {
	if len(p) < 3 {
		return
	}
	// Rasterize only the path's bounding box: the mask is clip-sized and
	// drawn into the matching sub-image.
	clip := r.pixelRect(p.Bounds()).Inset(-1).Intersect(r.img.Bounds())
	if clip.Empty() {
		return
	}
	r.rast.Reset(clip.Dx(), clip.Dy())
	r.rast.DrawOp = draw.Over

	s := r.pixelRatio
	ox, oy := float64(clip.Min.X), float64(clip.Min.Y)
	r.rast.MoveTo(float32(p[0].X*s-ox), float32(p[0].Y*s-oy))
	for _, pt := range p[1:] {
		r.rast.LineTo(float32(pt.X*s-ox), float32(pt.Y*s-oy))
	}
	r.rast.ClosePath()

	var src image.Image
	if paint.Kind == PaintSolid || len(paint.Stops) == 0 {
		src = image.NewUniform(premul(paint.Color))
	} else {
		src = paintImage{paint: paint, scale: r.pixelRatio}
	}

	sub := r.img.SubImage(clip).(*image.RGBA)
	r.rast.Draw(sub, sub.Bounds(), src, clip.Min)
}

func (r *Raster) pixelRect(rc Rect) image.Rectangle {
	s := r.pixelRatio
	return image.Rect(
		int(math.Floor(rc.X*s)),
		int(math.Floor(rc.Y*s)),
		int(math.Ceil((rc.X+rc.W)*s)),
		int(math.Ceil((rc.Y+rc.H)*s)),
	)
}

// paintImage adapts a gradient Paint to image.Image in backing-store pixels.
type paintImage struct {
	paint Paint
	scale float64
}

func (p paintImage) ColorModel() color.Model { return color.RGBAModel }

func (p paintImage) Bounds() image.Rectangle {
	return image.Rect(-1<<30, -1<<30, 1<<30, 1<<30)
}

func (p paintImage) At(x, y int) color.Color {
	return p.paint.At((float64(x)+0.5)/p.scale, (float64(y)+0.5)/p.scale)
}
