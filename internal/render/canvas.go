// Package render is the 2D drawing surface the player and the overlay
// paint on, with a software implementation over image.RGBA.
package render

import (
	"image"
	"image/color"
)

// Canvas is the subset of a 2D context the journey needs. Coordinates are
// logical pixels; implementations scale by their pixel ratio.
type Canvas interface {
	Size() (w, h float64)
	PixelRatio() float64
	// Resize sets the logical size and reallocates the backing store at
	// w*pixelRatio × h*pixelRatio. Contents are lost.
	Resize(w, h, pixelRatio float64)
	Clear(c color.Color)
	// DrawImage scales img into dst and composites it at alpha.
	DrawImage(img image.Image, dst Rect, alpha float64)
	Fill(p Path, paint Paint)
}
