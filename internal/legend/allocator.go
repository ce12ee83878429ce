// Package legend assigns palette colors to link types and keeps the on-screen
// legend in step with the assignments. Colors are refcounted: a type keeps
// its color and legend row for as long as at least one tracked edge bears it.
package legend

import (
	"sort"

	"github.com/groblegark/linklens/internal/model"
	"github.com/groblegark/linklens/internal/scene"
)

type entry struct {
	color    string
	useCount int
	row      int
	y        float64
	mark     scene.Line
	caption  scene.Text
}

// Allocator owns the palette cursor, the per-type refcounts, and the legend
// rows. It is not safe for concurrent use; the overlay engine serializes all
// calls.
type Allocator struct {
	renderer  scene.Renderer
	palette   []string
	textColor string

	cursor  int
	offset  float64
	entries map[string]*entry
}

// NewAllocator returns an empty allocator drawing through r. A nil or empty
// palette falls back to DefaultPalette.
func NewAllocator(r scene.Renderer, palette []string, textColor string) *Allocator {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	if textColor == "" {
		textColor = DefaultTextColor
	}
	return &Allocator{
		renderer:  r,
		palette:   palette,
		textColor: textColor,
		offset:    originY,
		entries:   make(map[string]*entry),
	}
}

// Acquire returns the color assigned to label, creating the assignment and
// its legend row on first use. The cursor advances cyclically on creation.
// With visible false the new row is drawn fully transparent; bookkeeping is
// identical either way. fresh reports whether a new row was created.
func (a *Allocator) Acquire(label string, visible bool) (color string, fresh bool) {
	if e, ok := a.entries[label]; ok {
		e.useCount++
		return e.color, false
	}

	color = a.palette[a.cursor]
	a.cursor = (a.cursor + 1) % len(a.palette)

	e := &entry{
		color:    color,
		useCount: 1,
		row:      int((a.offset - originY) / rowHeight),
		y:        a.offset,
	}
	a.offset += rowHeight

	opacity := 0.0
	if visible {
		opacity = 1
	}
	midY := e.y + rowHeight/2
	e.mark = a.renderer.NewLine()
	e.mark.SetColor(color)
	e.mark.Stroke(originX, midY, originX+markLength, midY, markWidth, opacity)
	e.caption = a.renderer.NewText(label, a.textColor)
	e.caption.SetTransform(originX+markLength+markGap, e.y, 1)
	e.caption.SetOpacity(opacity)

	a.entries[label] = e
	return color, true
}

// Release drops one reference to label. When the last reference goes, the
// row is destroyed, the cursor rolls back one palette slot, and the next-row
// offset rolls back one row. Releasing an unknown label is a no-op.
// reclaimed reports whether the row was destroyed.
func (a *Allocator) Release(label string) (reclaimed bool) {
	e, ok := a.entries[label]
	if !ok {
		return false
	}
	e.useCount--
	if e.useCount > 0 {
		return false
	}
	e.mark.Destroy()
	e.caption.Destroy()
	delete(a.entries, label)
	a.cursor = (a.cursor - 1 + len(a.palette)) % len(a.palette)
	a.offset -= rowHeight
	return true
}

// Color returns the color currently assigned to label, or "" when none is.
func (a *Allocator) Color(label string) string {
	if e, ok := a.entries[label]; ok {
		return e.color
	}
	return ""
}

// Len reports how many legend rows are live.
func (a *Allocator) Len() int {
	return len(a.entries)
}

// SetVisible fades every row fully in or out. Assignments are untouched.
func (a *Allocator) SetVisible(visible bool) {
	opacity := 0.0
	if visible {
		opacity = 1
	}
	for _, e := range a.entries {
		e.mark.SetOpacity(opacity)
		e.caption.SetOpacity(opacity)
	}
}

// ApplyTextColor recolors every caption, and future ones, to color.
func (a *Allocator) ApplyTextColor(color string) {
	a.textColor = color
	for _, e := range a.entries {
		e.caption.SetColor(color)
	}
}

// Reset destroys every row and returns the cursor and offset to their
// starting positions.
func (a *Allocator) Reset() {
	for label, e := range a.entries {
		e.mark.Destroy()
		e.caption.Destroy()
		delete(a.entries, label)
	}
	a.cursor = 0
	a.offset = originY
}

// Snapshot returns the live rows ordered by row position.
func (a *Allocator) Snapshot() []model.LegendRow {
	rows := make([]model.LegendRow, 0, len(a.entries))
	for label, e := range a.entries {
		rows = append(rows, model.LegendRow{
			Label:    label,
			Color:    e.color,
			UseCount: e.useCount,
			Row:      e.row,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Row != rows[j].Row {
			return rows[i].Row < rows[j].Row
		}
		return rows[i].Label < rows[j].Label
	})
	return rows
}
