// Package overlay keeps edge decorations synchronized with a moving scene:
// type labels at edge midpoints and colored indicator lines alongside edges,
// with a refcounted legend behind them. The engine owns an authoritative map
// keyed by directed edge identity; the scene's edge list is the source of
// truth the map is reconciled against.
package overlay

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/groblegark/linklens/internal/events"
	"github.com/groblegark/linklens/internal/geom"
	"github.com/groblegark/linklens/internal/legend"
	"github.com/groblegark/linklens/internal/metrics"
	"github.com/groblegark/linklens/internal/model"
	"github.com/groblegark/linklens/internal/resolver"
	"github.com/groblegark/linklens/internal/scene"
)

// Placement tuning, in screen pixels.
const (
	defaultLabelOpacity = 0.9
	pairNudge           = 7.0 // vertical push separating a mirror pair's labels
	indicatorOpacity    = 0.28
	indicatorWidth      = 2.0
	normalNudge         = 2.0 // sideways shift off the scene's own edge stroke
	endpointInset       = 4.0 // pull-in per unit of endpoint weight
)

// entry is one tracked edge's overlay state. label is nil when the edge has
// no classification; indicator is nil when color mode was off at creation.
// color is the indicator's legend color, "" for unlabeled edges.
type entry struct {
	edge      model.Edge
	pair      model.PairState
	label     scene.Text
	indicator scene.Line
	color     string
}

// Engine reconciles overlay entries against the scene and keeps their
// geometry fresh. All mutation happens on the loop driver's goroutine; the
// lock exists so HTTP readers can take consistent snapshots.
type Engine struct {
	mu        sync.RWMutex
	renderer  scene.Renderer
	resolver  resolver.Resolver
	legend    *legend.Allocator
	publisher events.Publisher
	logger    *slog.Logger
	textColor string

	entries map[model.EdgeKey]*entry
}

// NewEngine returns an empty engine drawing through r, classifying through
// res, and coloring through alloc. A nil publisher or logger falls back to
// no-op and default implementations.
func NewEngine(r scene.Renderer, res resolver.Resolver, alloc *legend.Allocator, pub events.Publisher, logger *slog.Logger) *Engine {
	if pub == nil {
		pub = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		renderer:  r,
		resolver:  res,
		legend:    alloc,
		publisher: pub,
		logger:    logger,
		textColor: legend.DefaultTextColor,
		entries:   make(map[model.EdgeKey]*entry),
	}
}

// AddEdge starts tracking an edge. Tracking an already-tracked identity is a
// no-op. When the mirror edge is already tracked the new entry becomes the
// pair's Second and the mirror is flipped to First. Self-loops are never
// classified; their indicator, if any, carries no stroke color. The resolver
// runs once here — the answer is cached on the entry for its lifetime.
func (e *Engine) AddEdge(ctx context.Context, edge model.Edge, s model.Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.addEdgeLocked(ctx, edge, s)
}

func (e *Engine) addEdgeLocked(ctx context.Context, edge model.Edge, s model.Settings) {
	key := edge.Key()
	if _, ok := e.entries[key]; ok {
		return
	}

	ent := &entry{edge: edge, pair: model.PairNone}
	if mirror, ok := e.entries[key.Mirror()]; ok {
		ent.pair = model.PairSecond
		mirror.pair = model.PairFirst
	}

	label := ""
	if !key.SelfLoop() {
		var err error
		label, err = e.resolver.Resolve(ctx, key.Source, key.Target)
		switch {
		case err != nil:
			// A broken backend leaves the edge unlabeled; it is not retried
			// until the edge is dropped and re-added.
			e.logger.Warn("classification lookup failed", "edge", key.String(), "error", err)
			metrics.ResolveTotal.WithLabelValues("error").Inc()
			label = ""
		case label == "":
			metrics.ResolveTotal.WithLabelValues("none").Inc()
		default:
			metrics.ResolveTotal.WithLabelValues("labeled").Inc()
		}
	}

	if label != "" {
		ent.label = e.renderer.NewText(label, e.textColor)
	}
	if s.ColorMode {
		ent.indicator = e.renderer.NewLine()
		if label != "" {
			color, fresh := e.legend.Acquire(label, s.ShowLegend)
			ent.color = color
			ent.indicator.SetColor(color)
			if fresh {
				e.publish(ctx, events.TopicLegendAcquired, events.LegendAcquired{Label: label, Color: color})
			}
		}
	}

	e.entries[key] = ent
	e.setGauges()
	e.publish(ctx, events.TopicOverlayAdded, events.OverlayAdded{
		Source: key.Source,
		Target: key.Target,
		Type:   label,
		Pair:   ent.pair.String(),
		Color:  ent.color,
	})
}

// RemoveEdge stops tracking an edge, destroying its elements and giving back
// its legend reference. Removing an untracked identity is a no-op. A tracked
// mirror's pair state resets to None: the pair is broken.
func (e *Engine) RemoveEdge(ctx context.Context, key model.EdgeKey) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeEdgeLocked(ctx, key)
}

func (e *Engine) removeEdgeLocked(ctx context.Context, key model.EdgeKey) {
	ent, ok := e.entries[key]
	if !ok {
		return
	}

	typ := ""
	if ent.label != nil {
		// The label's literal text is the semantic type key.
		typ = ent.label.Text()
		ent.label.Destroy()
		if e.legend.Release(typ) {
			e.publish(ctx, events.TopicLegendReleased, events.LegendReleased{Label: typ, Color: ent.color})
		}
	}
	if ent.indicator != nil {
		ent.indicator.Destroy()
	}
	if mirror, ok := e.entries[key.Mirror()]; ok && mirror.pair != model.PairNone {
		mirror.pair = model.PairNone
	}

	delete(e.entries, key)
	e.setGauges()
	e.publish(ctx, events.TopicOverlayRemoved, events.OverlayRemoved{
		Source: key.Source,
		Target: key.Target,
		Type:   typ,
	})
}

// Reconcile drops every tracked entry whose edge the scene no longer draws —
// the only path by which stale entries are purged — and returns the live
// edges not yet tracked.
func (e *Engine) Reconcile(ctx context.Context, live []model.Edge) []model.Edge {
	e.mu.Lock()
	defer e.mu.Unlock()

	liveSet := make(map[model.EdgeKey]struct{}, len(live))
	var missing []model.Edge
	for _, edge := range live {
		key := edge.Key()
		liveSet[key] = struct{}{}
		if _, ok := e.entries[key]; !ok {
			missing = append(missing, edge)
		}
	}
	for key := range e.entries {
		if _, ok := liveSet[key]; !ok {
			e.removeEdgeLocked(ctx, key)
		}
	}
	return missing
}

// SyncStructure reconciles against the live edge list and starts tracking
// whatever the scene drew since the last pass.
func (e *Engine) SyncStructure(ctx context.Context, live []model.Edge, s model.Settings) {
	for _, edge := range e.Reconcile(ctx, live) {
		e.AddEdge(ctx, edge, s)
	}
}

// RefreshLabel repositions an edge's label at the projected midpoint, scaled
// so it reads the same at any node scale, and recomputes its opacity.
// Untracked edges, unlabeled entries, and externally detached elements are
// skipped; reconcile owns cleanup.
func (e *Engine) RefreshLabel(edge model.Edge, labelsVisible bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, ok := e.entries[edge.Key()]
	if !ok || ent.label == nil {
		return
	}
	ent.edge = edge
	if !ent.label.Attached() {
		return
	}

	vp := e.renderer.Viewport()
	mx, my := geom.Midpoint(edge.Source.X, edge.Source.Y, edge.Target.X, edge.Target.Y)
	x, y := vp.Project(mx, my)
	switch ent.pair {
	case model.PairFirst:
		y -= pairNudge
	case model.PairSecond:
		y += pairNudge
	}

	scale := 1.0
	if ns := e.renderer.NodeScale(); ns > 0 {
		scale = 1 / ns
	}
	ent.label.SetTransform(x, y, scale)

	if !labelsVisible {
		ent.label.SetOpacity(0)
		return
	}
	opacity := defaultLabelOpacity
	if edge.Source.LabelOpacity >= 0 && edge.Target.LabelOpacity >= 0 {
		opacity = math.Max(edge.Source.LabelOpacity, edge.Target.LabelOpacity)
	}
	ent.label.SetOpacity(opacity)
}

// RefreshIndicator redraws an edge's indicator beside the scene's own edge
// stroke: shifted off it along the normal (growing with the square root of
// zoom) and pulled in from each endpoint along the edge in proportion to the
// endpoint's weight. Thickness shrinks with the square root of node scale;
// opacity stays fixed and low. The stroke color assigned at creation is
// preserved. Self-loops and zero-length edges skip the vector math entirely.
func (e *Engine) RefreshIndicator(edge model.Edge) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, ok := e.entries[edge.Key()]
	if !ok || ent.indicator == nil {
		return
	}
	ent.edge = edge
	if !ent.indicator.Attached() {
		return
	}

	vp := e.renderer.Viewport()
	ns := e.renderer.NodeScale()
	x1, y1 := vp.Project(edge.Source.X, edge.Source.Y)
	x2, y2 := vp.Project(edge.Target.X, edge.Target.Y)

	if !edge.SelfLoop() && !edge.ZeroLength() {
		nx, ny := geom.Normal(x1, y1, x2, y2)
		shift := normalNudge * math.Sqrt(vp.Scale)
		x1 += nx * shift
		y1 += ny * shift
		x2 += nx * shift
		y2 += ny * shift

		px, py := geom.Parallel(x1, y1, x2, y2)
		srcInset := endpointInset * edge.Source.Weight * ns
		tgtInset := endpointInset * edge.Target.Weight * ns
		x1 += px * srcInset
		y1 += py * srcInset
		x2 -= px * tgtInset
		y2 -= py * tgtInset
	}

	width := indicatorWidth
	if ns > 0 {
		width = indicatorWidth / math.Sqrt(ns)
	}
	ent.indicator.Stroke(x1, y1, x2, y2, width, indicatorOpacity)
}

// DestroyAll removes every tracked entry and resets the legend to a clean
// slate. Restart paths call this so a fresh loop never doubles visuals.
func (e *Engine) DestroyAll(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for key := range e.entries {
		e.removeEdgeLocked(ctx, key)
	}
	e.legend.Reset()
	e.setGauges()
}

// SetLegendVisible fades the legend in or out without touching assignments.
func (e *Engine) SetLegendVisible(visible bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.legend.SetVisible(visible)
}

// ApplyTextColor recolors every label and legend caption, current and future.
func (e *Engine) ApplyTextColor(color string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.textColor = color
	for _, ent := range e.entries {
		if ent.label != nil {
			ent.label.SetColor(color)
		}
	}
	e.legend.ApplyTextColor(color)
}

// Len reports how many entries are tracked.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.entries)
}

// LegendLen reports how many legend rows are live.
func (e *Engine) LegendLen() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.legend.Len()
}

// Snapshot returns the tracked entries sorted by identity.
func (e *Engine) Snapshot() []model.OverlayEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]model.OverlayEntry, 0, len(e.entries))
	for key, ent := range e.entries {
		oe := model.OverlayEntry{
			Source:    key.Source,
			Target:    key.Target,
			Pair:      ent.pair,
			PairName:  ent.pair.String(),
			Color:     ent.color,
			Label:     ent.label != nil,
			Indicator: ent.indicator != nil,
			SelfLoop:  key.SelfLoop(),
		}
		if ent.label != nil {
			oe.Type = ent.label.Text()
		}
		out = append(out, oe)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Target < out[j].Target
	})
	return out
}

// LegendSnapshot returns the live legend rows in display order.
func (e *Engine) LegendSnapshot() []model.LegendRow {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.legend.Snapshot()
}

func (e *Engine) setGauges() {
	metrics.OverlayEntries.Set(float64(len(e.entries)))
	metrics.LegendEntries.Set(float64(e.legend.Len()))
}

func (e *Engine) publish(ctx context.Context, topic string, event any) {
	if err := e.publisher.Publish(ctx, topic, event); err != nil {
		e.logger.Warn("publishing event", "topic", topic, "error", err)
		return
	}
	metrics.EventsPublished.WithLabelValues(topic).Inc()
}
