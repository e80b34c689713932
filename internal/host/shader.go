package host

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/ivlev/forestscroll/internal/render"
)

const maxStops = 4

// gradientShaderSrc colors a fill from up to four premultiplied stops.
// Mode 0 is solid, 1 linear from Start to End, 2 radial around Start.
const gradientShaderSrc = `//kage:unit pixels
package main

var Mode float
var Start vec2
var End vec2
var Radii vec2
var Count float
var Offsets [4]float
var Colors [4]vec4

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	p := dst.xy
	t := 0.0
	if Mode == 1 {
		d := End - Start
		den := dot(d, d)
		if den > 0 {
			t = dot(p-Start, d) / den
		}
	} else if Mode == 2 {
		span := Radii.y - Radii.x
		if span != 0 {
			t = (distance(p, Start) - Radii.x) / span
		}
	}
	t = clamp(t, 0, 1)

	c := Colors[0]
	for i := 1; i < 4; i++ {
		if float(i) < Count {
			a := Offsets[i-1]
			b := Offsets[i]
			if t >= b {
				c = Colors[i]
			} else if t > a {
				c = mix(Colors[i-1], Colors[i], (t-a)/max(b-a, 0.0001))
			}
		}
	}
	return c
}
`

var gradientShader *ebiten.Shader

// Compiled lazily on the update goroutine.
func ensureGradientShader() *ebiten.Shader {
	if gradientShader == nil {
		s, err := ebiten.NewShader([]byte(gradientShaderSrc))
		if err != nil {
			panic("host: failed to compile gradient shader: " + err.Error())
		}
		gradientShader = s
	}
	return gradientShader
}

// gradientUniforms converts a paint in logical pixels to shader uniforms
// in backing-store pixels. Paints with more than four stops keep the
// first three and the last.
func gradientUniforms(p render.Paint, pixelRatio float64) map[string]any {
	mode := 0
	stops := p.Stops
	switch {
	case p.Kind == render.PaintSolid || len(stops) == 0:
		stops = []render.Stop{{Offset: 0, Color: p.Color}}
	case p.Kind == render.PaintLinear:
		mode = 1
	case p.Kind == render.PaintRadial:
		mode = 2
	}
	if len(stops) > maxStops {
		trimmed := append([]render.Stop{}, stops[:maxStops-1]...)
		stops = append(trimmed, stops[len(stops)-1])
	}

	offsets := make([]float32, maxStops)
	colors := make([]float32, maxStops*4)
	for i, s := range stops {
		offsets[i] = float32(s.Offset)
		a := float32(s.Color.A) / 255
		colors[i*4+0] = float32(s.Color.R) / 255 * a
		colors[i*4+1] = float32(s.Color.G) / 255 * a
		colors[i*4+2] = float32(s.Color.B) / 255 * a
		colors[i*4+3] = a
	}

	s := float32(pixelRatio)
	return map[string]any{
		"Mode":    float32(mode),
		"Start":   []float32{float32(p.X0) * s, float32(p.Y0) * s},
		"End":     []float32{float32(p.X1) * s, float32(p.Y1) * s},
		"Radii":   []float32{float32(p.R0) * s, float32(p.R1) * s},
		"Count":   float32(len(stops)),
		"Offsets": offsets,
		"Colors":  colors,
	}
}
