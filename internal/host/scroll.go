package host

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/ivlev/forestscroll/internal/viewport"
)

// ScrollViewport is a manual viewport that can also glide to a position,
// the way a page scrolls after PageDown or End.
type ScrollViewport struct {
	*viewport.Manual
	glide   *gween.Tween
	glideTo float64
}

// NewScrollViewport sizes the document to screens viewport heights.
func NewScrollViewport(w, h, pixelRatio, screens float64) *ScrollViewport {
	return &ScrollViewport{Manual: viewport.NewManual(w, h, pixelRatio, h*screens)}
}

// ScrollBy stops any glide and scrolls immediately.
func (v *ScrollViewport) ScrollBy(dy float64) {
	v.glide = nil
	v.Manual.ScrollBy(dy)
}

// Glide eases the scroll position to y over d.
func (v *ScrollViewport) Glide(y float64, d time.Duration) {
	y = max(0, min(y, v.ScrollExtent()))
	if d <= 0 {
		v.glide = nil
		v.Manual.ScrollTo(y)
		return
	}
	v.glideTo = y
	v.glide = gween.New(float32(v.ScrollY()), float32(y), float32(d.Seconds()), ease.OutCubic)
}

// Destination is where a running glide ends, or the current position.
func (v *ScrollViewport) Destination() float64 {
	if v.glide != nil {
		return v.glideTo
	}
	return v.ScrollY()
}

func (v *ScrollViewport) Gliding() bool { return v.glide != nil }

// Step advances a running glide by dt seconds.
func (v *ScrollViewport) Step(dt float64) {
	if v.glide == nil {
		return
	}
	y, done := v.glide.Update(float32(dt))
	if done {
		v.glide = nil
		v.Manual.ScrollTo(v.glideTo)
		return
	}
	v.Manual.ScrollTo(float64(y))
}
