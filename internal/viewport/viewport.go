// Package viewport describes the scrollable window the journey is shown in.
package viewport

// Viewport is everything the player and the overlay read from the page.
// Listeners are called on the loop goroutine.
type Viewport interface {
	// Width and Height are the layout size in logical pixels.
	Width() float64
	Height() float64
	PixelRatio() float64
	ScrollY() float64
	// ScrollExtent is the largest reachable ScrollY.
	ScrollExtent() float64
	OnScroll(fn func()) (cancel func())
	OnResize(fn func()) (cancel func())
}

// Progress returns how far v is scrolled through its extent, in [0,1].
func Progress(v Viewport) float64 {
	extent := v.ScrollExtent()
	if extent <= 0 {
		return 0
	}
	return Clamp01(v.ScrollY() / extent)
}

func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
