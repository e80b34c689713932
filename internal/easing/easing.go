// Package easing holds the easing curves shared by the player and scroll scripts.
package easing

import "math"

// Func maps t in [0,1] to an eased value in [0,1].
type Func func(t float64) float64

func Linear(t float64) float64 { return t }

// InOutCubic is the symmetric cubic ease: 4t³ below 0.5, mirrored above.
func InOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// ByName resolves a curve name used in scroll scripts. Unknown names are linear.
func ByName(name string) Func {
	switch name {
	case "inOutCubic", "in_out_cubic", "easeInOutCubic":
		return InOutCubic
	}
	return Linear
}

// Known reports whether name resolves to a curve other than the linear fallback.
func Known(name string) bool {
	switch name {
	case "", "linear", "inOutCubic", "in_out_cubic", "easeInOutCubic":
		return true
	}
	return false
}

func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
