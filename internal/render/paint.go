package render

import (
	"image/color"
	"math"
)

type PaintKind int

const (
	PaintSolid PaintKind = iota
	PaintLinear
	PaintRadial
)

// Stop is a gradient color stop. Offset is in [0,1].
type Stop struct {
	Offset float64
	Color  color.NRGBA
}

// Paint says how a filled path is colored. Gradients follow canvas 2D
// rules: positions before the first stop take its color, after the last
// stop the last color. Radial gradients here are concentric.
type Paint struct {
	Kind  PaintKind
	Color color.NRGBA

	// Linear: from (X0,Y0) to (X1,Y1). Radial: center (X0,Y0), radii R0..R1.
	X0, Y0, X1, Y1 float64
	R0, R1         float64
	Stops          []Stop
}

func Solid(c color.NRGBA) Paint {
	return Paint{Kind: PaintSolid, Color: c}
}

func Linear(x0, y0, x1, y1 float64, stops ...Stop) Paint {
	return Paint{Kind: PaintLinear, X0: x0, Y0: y0, X1: x1, Y1: y1, Stops: stops}
}

func Radial(cx, cy, r0, r1 float64, stops ...Stop) Paint {
	return Paint{Kind: PaintRadial, X0: cx, Y0: cy, R0: r0, R1: r1, Stops: stops}
}

// RGBA builds a non-premultiplied color from 0..255 channels and a 0..1 alpha.
func RGBA(r, g, b uint8, a float64) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: alpha8(a)}
}

func alpha8(a float64) uint8 {
	if a <= 0 {
		return 0
	}
	if a >= 1 {
		return 255
	}
	return uint8(a*255 + 0.5)
}

// Position returns the gradient parameter at (x, y), clamped to [0,1].
// Solid paints return 0.
func (p Paint) Position(x, y float64) float64 {
	var t float64
	switch p.Kind {
	case PaintLinear:
		dx, dy := p.X1-p.X0, p.Y1-p.Y0
		den := dx*dx + dy*dy
		if den == 0 {
			return 0
		}
		t = ((x-p.X0)*dx + (y-p.Y0)*dy) / den
	case PaintRadial:
		span := p.R1 - p.R0
		if span == 0 {
			return 0
		}
		t = (math.Hypot(x-p.X0, y-p.Y0) - p.R0) / span
	default:
		return 0
	}
	return math.Max(0, math.Min(1, t))
}

// At returns the premultiplied color at (x, y) in logical pixels.
func (p Paint) At(x, y float64) color.RGBA {
	if p.Kind == PaintSolid || len(p.Stops) == 0 {
		return premul(p.Color)
	}
	return p.colorAt(p.Position(x, y))
}

func (p Paint) colorAt(t float64) color.RGBA {
	stops := p.Stops
	if t <= stops[0].Offset {
		return premul(stops[0].Color)
	}
	last := stops[len(stops)-1]
	if t >= last.Offset {
		return premul(last.Color)
	}
	for i := 0; i < len(stops)-1; i++ {
		a, b := stops[i], stops[i+1]
		if t > b.Offset {
			continue
		}
		span := b.Offset - a.Offset
		if span <= 0 {
			return premul(b.Color)
		}
		return mix(premul(a.Color), premul(b.Color), (t-a.Offset)/span)
	}
	return premul(last.Color)
}

func premul(c color.NRGBA) color.RGBA {
	a := uint32(c.A)
	return color.RGBA{
		R: uint8((uint32(c.R)*a + 127) / 255),
		G: uint8((uint32(c.G)*a + 127) / 255),
		B: uint8((uint32(c.B)*a + 127) / 255),
		A: c.A,
	}
}

func mix(a, b color.RGBA, t float64) color.RGBA {
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return color.RGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: lerp(a.A, b.A)}
}
