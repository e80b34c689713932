package host

import (
	"image"
	"image/color"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/ivlev/forestscroll/internal/render"
)

// textureCacheSize bounds the frames kept on the GPU. A blend needs two,
// scrubbing back and forth a few more.
const textureCacheSize = 24

type layer struct {
	id     string
	z, seq int
	canvas *Canvas
}

// Stage stacks ebiten canvases and draws them onto the screen in z order.
type Stage struct {
	w, h, pixelRatio float64
	layers           []*layer
	seq              int
	textures         *fifoCache[image.Image, *ebiten.Image]
}

func NewStage(w, h, pixelRatio float64) *Stage {
	return &Stage{
		w: w, h: h, pixelRatio: pixelRatio,
		textures: newFIFOCache[image.Image](textureCacheSize, func(img *ebiten.Image) {
			img.Deallocate()
		}),
	}
}

// Mount adds a canvas the host owns, such as the frame canvas.
func (s *Stage) Mount(id string, z int) *Canvas {
	if l := s.find(id); l != nil {
		return l.canvas
	}
	s.seq++
	l := &layer{id: id, z: z, seq: s.seq, canvas: newCanvas(s.w, s.h, s.pixelRatio, s.textures)}
	s.layers = append(s.layers, l)
	sort.SliceStable(s.layers, func(i, j int) bool {
		if s.layers[i].z == s.layers[j].z {
			return s.layers[i].seq < s.layers[j].seq
		}
		return s.layers[i].z < s.layers[j].z
	})
	return l.canvas
}

func (s *Stage) Canvas(id string) (render.Canvas, bool) {
	if l := s.find(id); l != nil {
		return l.canvas, true
	}
	return nil, false
}

func (s *Stage) AddLayer(id string, z int) render.Canvas {
	return s.Mount(id, z)
}

func (s *Stage) RemoveLayer(id string) {
	for i, l := range s.layers {
		if l.id == id {
			l.canvas.dispose()
			s.layers = append(s.layers[:i], s.layers[i+1:]...)
			return
		}
	}
}

// Draw composites every layer over black.
func (s *Stage) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)
	for _, l := range s.layers {
		if l.canvas.img != nil {
			screen.DrawImage(l.canvas.img, nil)
		}
	}
}

// Close releases every layer and cached texture.
func (s *Stage) Close() {
	for _, l := range s.layers {
		l.canvas.dispose()
	}
	s.layers = nil
	s.textures.purge()
}

func (s *Stage) find(id string) *layer {
	for _, l := range s.layers {
		if l.id == id {
			return l
		}
	}
	return nil
}
