package stage

import (
	"image"
	"image/color"
	"reflect"
	"testing"

	"github.com/ivlev/forestscroll/internal/render"
)

func TestCanvasLookup(t *testing.T) {
	s := NewRasterStage(20, 10, 2)
	s.Mount("forest-canvas", 0)

	c, ok := s.Canvas("forest-canvas")
	if !ok {
		t.Fatal("Expected mounted canvas to be found")
	}
	if w, h := c.Size(); w != 20 || h != 10 {
		t.Errorf("Expected 20x10, got %vx%v", w, h)
	}
	if _, ok := s.Canvas("missing"); ok {
		t.Error("Unknown id should not be found")
	}
}

func TestLayersOrder(t *testing.T) {
	s := NewRasterStage(4, 4, 1)
	s.AddLayer("top", 10)
	s.Mount("base", 0)
	s.AddLayer("also-top", 10)

	expected := []string{"base", "top", "also-top"}
	if got := s.Layers(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}

	again := s.AddLayer("top", 99)
	if c, _ := s.Canvas("top"); c != again {
		t.Error("Adding an existing id should return the same canvas")
	}

	s.RemoveLayer("top")
	if got := s.Layers(); !reflect.DeepEqual(got, []string{"base", "also-top"}) {
		t.Errorf("Unexpected layers after remove: %v", got)
	}
}

func TestComposite(t *testing.T) {
	s := NewRasterStage(4, 4, 1)
	base := s.Mount("base", 0)
	base.Clear(color.RGBA{R: 255, A: 255})

	over := s.AddLayer("over", 1)
	over.Clear(color.RGBA{})
	over.Fill(render.RectPath(render.Rect{X: 0, Y: 0, W: 2, H: 4}), render.Solid(color.NRGBA{B: 255, A: 255}))

	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	s.Composite(dst)

	if c := dst.RGBAAt(0, 1); c.B != 255 || c.R != 0 {
		t.Errorf("Expected the upper layer on the left, got %+v", c)
	}
	if c := dst.RGBAAt(3, 1); c.R != 255 || c.B != 0 {
		t.Errorf("Expected the base layer on the right, got %+v", c)
	}
}
