// Package scene defines the rendering boundary the overlay engine draws
// against, and an in-process Stage implementation of it. The engine owns the
// overlay elements it creates; the scene owns everything else: nodes and
// their continuously-moving positions, the drawn edge list, and the camera.
package scene

import (
	"github.com/groblegark/linklens/internal/geom"
	"github.com/groblegark/linklens/internal/model"
)

// Renderer is the read-and-create surface the overlay engine uses. Elements
// come back already inserted into the display list; destroying an element
// removes it. Alive turns false when the scene has been torn down, at which
// point the loop driver must stop scheduling work against it.
type Renderer interface {
	Alive() bool
	Viewport() geom.Viewport
	NodeScale() float64
	// Edges returns per-frame snapshots of every drawn edge. Positions are
	// re-read each call, so a new snapshot reflects the latest node motion.
	Edges() []model.Edge
	NewText(text, color string) Text
	NewLine() Line
}

// Element is the capability set shared by every overlay primitive.
type Element interface {
	ID() string
	// Attached reports whether the element is still in the display list.
	// Mutating a detached element is a no-op.
	Attached() bool
	SetOpacity(opacity float64)
	Destroy()
}

// Text is a text overlay element: edge labels and legend captions.
type Text interface {
	Element
	Text() string
	SetColor(color string)
	SetTransform(x, y, scale float64)
}

// Line is a stroked overlay element: edge indicators and legend color marks.
type Line interface {
	Element
	Color() string
	SetColor(color string)
	Stroke(x1, y1, x2, y2, width, opacity float64)
}
