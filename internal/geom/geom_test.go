package geom

import (
	"math"
	"testing"
)

const eps = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestViewport_Project(t *testing.T) {
	for _, tc := range []struct {
		name  string
		vp    Viewport
		x, y  float64
		wantX float64
		wantY float64
	}{
		{"Identity", Viewport{Scale: 1}, 10, 20, 10, 20},
		{"PanOnly", Viewport{PanX: 5, PanY: -3, Scale: 1}, 10, 20, 15, 17},
		{"ZoomOnly", Viewport{Scale: 2}, 10, 20, 20, 40},
		{"PanAndZoom", Viewport{PanX: 100, PanY: 50, Scale: 0.5}, 10, 20, 105, 60},
		{"Origin", Viewport{PanX: 7, PanY: 9, Scale: 3}, 0, 0, 7, 9},
	} {
		t.Run(tc.name, func(t *testing.T) {
			gx, gy := tc.vp.Project(tc.x, tc.y)
			if !near(gx, tc.wantX) || !near(gy, tc.wantY) {
				t.Errorf("Project(%v, %v) = (%v, %v), want (%v, %v)", tc.x, tc.y, gx, gy, tc.wantX, tc.wantY)
			}
		})
	}
}

func TestMidpoint(t *testing.T) {
	mx, my := Midpoint(0, 0, 10, 4)
	if !near(mx, 5) || !near(my, 2) {
		t.Errorf("Midpoint = (%v, %v), want (5, 2)", mx, my)
	}
}

func TestParallel(t *testing.T) {
	for _, tc := range []struct {
		name           string
		x1, y1, x2, y2 float64
		wantX, wantY   float64
	}{
		{"Right", 0, 0, 5, 0, 1, 0},
		{"Up", 0, 0, 0, 3, 0, 1},
		{"Diagonal", 0, 0, 3, 4, 0.6, 0.8},
		{"Reversed", 3, 4, 0, 0, -0.6, -0.8},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ux, uy := Parallel(tc.x1, tc.y1, tc.x2, tc.y2)
			if !near(ux, tc.wantX) || !near(uy, tc.wantY) {
				t.Errorf("Parallel = (%v, %v), want (%v, %v)", ux, uy, tc.wantX, tc.wantY)
			}
		})
	}
}

func TestNormal(t *testing.T) {
	ux, uy := Parallel(1, 1, 4, 5)
	nx, ny := Normal(1, 1, 4, 5)

	if dot := ux*nx + uy*ny; !near(dot, 0) {
		t.Errorf("normal not perpendicular to parallel: dot = %v", dot)
	}
	if length := math.Hypot(nx, ny); !near(length, 1) {
		t.Errorf("normal length = %v, want 1", length)
	}
	// Quarter turn counterclockwise from the parallel direction.
	if !near(nx, -uy) || !near(ny, ux) {
		t.Errorf("Normal = (%v, %v), want (%v, %v)", nx, ny, -uy, ux)
	}
}
