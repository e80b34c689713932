package render

import "math"

type Point struct {
	X, Y float64
}

type Rect struct {
	X, Y, W, H float64
}

// Path is a closed polygon in logical pixels.
type Path []Point

// Cover returns where an srcW×srcH image lands when it fills a dstW×dstH
// area: aspect ratio kept, centered, overflow left to the canvas to crop.
func Cover(srcW, srcH, dstW, dstH float64) Rect {
	if srcW <= 0 || srcH <= 0 {
		return Rect{W: dstW, H: dstH}
	}
	scale := math.Max(dstW/srcW, dstH/srcH)
	w := srcW * scale
	h := srcH * scale
	return Rect{
		X: (dstW - w) / 2,
		Y: (dstH - h) / 2,
		W: w,
		H: h,
	}
}

func RectPath(r Rect) Path {
	return Path{
		{r.X, r.Y},
		{r.X + r.W, r.Y},
		{r.X + r.W, r.Y + r.H},
		{r.X, r.Y + r.H},
	}
}

const ellipseSegments = 32

// Ellipse approximates an ellipse rotated by rot radians around its center.
func Ellipse(cx, cy, rx, ry, rot float64) Path {
	sin, cos := math.Sincos(rot)
	p := make(Path, ellipseSegments)
	for i := range p {
		a := 2 * math.Pi * float64(i) / ellipseSegments
		x := rx * math.Cos(a)
		y := ry * math.Sin(a)
		p[i] = Point{
			X: cx + x*cos - y*sin,
			Y: cy + x*sin + y*cos,
		}
	}
	return p
}

func Circle(cx, cy, r float64) Path {
	return Ellipse(cx, cy, r, r, 0)
}

// Star returns a star with the given number of points, alternating between
// the outer and inner radius. The first point faces rot.
func Star(cx, cy, outer, inner float64, points int, rot float64) Path {
	if points < 2 {
		points = 2
	}
	p := make(Path, points*2)
	step := math.Pi / float64(points)
	for i := range p {
		r := outer
		if i%2 == 1 {
			r = inner
		}
		a := rot + float64(i)*step
		p[i] = Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return p
}

// Wedge is a triangle from (ox, oy) reaching length along angle and opening
// by spread radians.
func Wedge(ox, oy, length, angle, spread float64) Path {
	a0 := angle - spread/2
	a1 := angle + spread/2
	return Path{
		{ox, oy},
		{ox + length*math.Cos(a0), oy + length*math.Sin(a0)},
		{ox + length*math.Cos(a1), oy + length*math.Sin(a1)},
	}
}

// Bounds returns the axis-aligned box around p.
func (p Path) Bounds() Rect {
	if len(p) == 0 {
		return Rect{}
	}
	minX, minY := p[0].X, p[0].Y
	maxX, maxY := minX, minY
	for _, pt := range p[1:] {
		minX = math.Min(minX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxX = math.Max(maxX, pt.X)
		maxY = math.Max(maxY, pt.Y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}
