package view

import (
	"fmt"
	"math"
)

// Zoom scale extent.
const (
	MinScale = 0.1
	MaxScale = 8
)

// Viewport is the zoom/pan transform: screen = world*K + (X, Y).
type Viewport struct {
	K      float64 `json:"k"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewViewport returns the identity transform for a width x height screen.
func NewViewport(width, height float64) Viewport {
	return Viewport{K: 1, Width: width, Height: height}
}

// ZoomAt scales by factor keeping the world point under (sx, sy) fixed.
// The resulting scale is clamped to [MinScale, MaxScale].
func (v *Viewport) ZoomAt(factor, sx, sy float64) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	wx, wy := v.ToWorld(sx, sy)
	v.K = clamp(v.K*factor, MinScale, MaxScale)
	v.X = sx - wx*v.K
	v.Y = sy - wy*v.K
}

// Pan translates by (dx, dy) screen pixels.
func (v *Viewport) Pan(dx, dy float64) {
	v.X += dx
	v.Y += dy
}

// Reset restores the identity transform.
func (v *Viewport) Reset() {
	v.K, v.X, v.Y = 1, 0, 0
}

// Resize changes the screen size, keeping the transform.
func (v *Viewport) Resize(width, height float64) {
	v.Width, v.Height = width, height
}

// ToWorld converts a screen point to world coordinates.
func (v Viewport) ToWorld(sx, sy float64) (float64, float64) {
	return (sx - v.X) / v.K, (sy - v.Y) / v.K
}

// ToScreen converts a world point to screen coordinates.
func (v Viewport) ToScreen(wx, wy float64) (float64, float64) {
	return wx*v.K + v.X, wy*v.K + v.Y
}

// Transform renders the SVG transform attribute.
func (v Viewport) Transform() string {
	return fmt.Sprintf("translate(%g,%g) scale(%g)", v.X, v.Y, v.K)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
