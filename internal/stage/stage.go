// Package stage owns the canvases of a page: the ones the host provides up
// front and the layers components add for themselves.
package stage

import (
	"image"
	"image/draw"
	"sort"

	"github.com/ivlev/forestscroll/internal/render"
)

type Stage interface {
	// Canvas looks up a canvas by element id.
	Canvas(id string) (render.Canvas, bool)
	// AddLayer creates a transparent full-viewport canvas stacked at z.
	// Adding an existing id returns that layer.
	AddLayer(id string, z int) render.Canvas
	RemoveLayer(id string)
}

type rasterLayer struct {
	id     string
	z      int
	seq    int
	canvas *render.Raster
}

// RasterStage keeps software canvases and composites them back to front.
type RasterStage struct {
	width, height float64
	pixelRatio    float64
	layers        map[string]*rasterLayer
	seq           int
}

func NewRasterStage(w, h, pixelRatio float64) *RasterStage {
	return &RasterStage{
		width:      w,
		height:     h,
		pixelRatio: pixelRatio,
		layers:     make(map[string]*rasterLayer),
	}
}

// Mount registers a host-provided canvas under id, like an element in markup.
func (s *RasterStage) Mount(id string, z int) *render.Raster {
	if l, ok := s.layers[id]; ok {
		return l.canvas
	}
	s.seq++
	l := &rasterLayer{id: id, z: z, seq: s.seq, canvas: render.NewRaster(s.width, s.height, s.pixelRatio)}
	s.layers[id] = l
	return l.canvas
}

func (s *RasterStage) Canvas(id string) (render.Canvas, bool) {
	l, ok := s.layers[id]
	if !ok {
		return nil, false
	}
	return l.canvas, true
}

func (s *RasterStage) AddLayer(id string, z int) render.Canvas {
	return s.Mount(id, z)
}

func (s *RasterStage) RemoveLayer(id string) {
	delete(s.layers, id)
}

// Layers returns the layer ids back to front.
func (s *RasterStage) Layers() []string {
	ordered := s.ordered()
	ids := make([]string, len(ordered))
	for i, l := range ordered {
		ids[i] = l.id
	}
	return ids
}

// Composite draws every layer into dst back to front. Layers whose backing
// store does not match dst are scaled by their own bounds, top-left aligned.
func (s *RasterStage) Composite(dst *image.RGBA) {
	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)
	for _, l := range s.ordered() {
		src := l.canvas.Image()
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Over)
	}
}

func (s *RasterStage) ordered() []*rasterLayer {
	out := make([]*rasterLayer, 0, len(s.layers))
	for _, l := range s.layers {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].z == out[j].z {
			return out[i].seq < out[j].seq
		}
		return out[i].z < out[j].z
	})
	return out
}
