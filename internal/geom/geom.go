// Package geom holds the pure screen-space math for overlay placement:
// world-to-screen projection and unit vectors along and across an edge.
package geom

import "math"

// Viewport is a snapshot of the scene's pan and zoom state. Project maps
// world coordinates into screen coordinates under that state.
type Viewport struct {
	PanX  float64 `json:"pan_x"`
	PanY  float64 `json:"pan_y"`
	Scale float64 `json:"scale"`
}

// Project maps a world-space point to screen space: scale around the origin,
// then translate by the pan offset.
func (v Viewport) Project(x, y float64) (float64, float64) {
	return x*v.Scale + v.PanX, y*v.Scale + v.PanY
}

// Midpoint returns the point halfway along the segment.
func Midpoint(x1, y1, x2, y2 float64) (float64, float64) {
	return (x1 + x2) / 2, (y1 + y2) / 2
}

// Parallel returns the unit vector pointing from (x1,y1) toward (x2,y2).
// The segment must have nonzero length: coincident endpoints divide by zero,
// so callers rule out self-loops and zero-length edges first.
func Parallel(x1, y1, x2, y2 float64) (float64, float64) {
	dx := x2 - x1
	dy := y2 - y1
	length := math.Hypot(dx, dy)
	return dx / length, dy / length
}

// Normal returns the unit vector perpendicular to the segment, the parallel
// vector rotated a quarter turn counterclockwise. Same nonzero-length
// requirement as Parallel.
func Normal(x1, y1, x2, y2 float64) (float64, float64) {
	ux, uy := Parallel(x1, y1, x2, y2)
	return -uy, ux
}
