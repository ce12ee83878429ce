package overlay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/groblegark/linklens/internal/events"
	"github.com/groblegark/linklens/internal/geom"
	"github.com/groblegark/linklens/internal/legend"
	"github.com/groblegark/linklens/internal/model"
	"github.com/groblegark/linklens/internal/resolver"
	"github.com/groblegark/linklens/internal/scene"
)

type fakeElement struct {
	id       string
	attached bool
	opacity  float64
}

func (f *fakeElement) ID() string           { return f.id }
func (f *fakeElement) Attached() bool       { return f.attached }
func (f *fakeElement) SetOpacity(v float64) { f.opacity = v }
func (f *fakeElement) Destroy()             { f.attached = false }

type fakeText struct {
	fakeElement
	content string
	color   string
	x, y    float64
	scale   float64
}

func (f *fakeText) Text() string      { return f.content }
func (f *fakeText) SetColor(c string) { f.color = c }
func (f *fakeText) SetTransform(x, y, scale float64) {
	f.x, f.y, f.scale = x, y, scale
}

type fakeLine struct {
	fakeElement
	color   string
	x1, y1  float64
	x2, y2  float64
	width   float64
	alpha   float64
	strokes int
}

func (f *fakeLine) Color() string     { return f.color }
func (f *fakeLine) SetColor(c string) { f.color = c }
func (f *fakeLine) Stroke(x1, y1, x2, y2, width, opacity float64) {
	f.x1, f.y1, f.x2, f.y2 = x1, y1, x2, y2
	f.width, f.alpha = width, opacity
	f.strokes++
}

type fakeRenderer struct {
	alive     bool
	vp        geom.Viewport
	nodeScale float64
	texts     []*fakeText
	lines     []*fakeLine
}

var _ scene.Renderer = (*fakeRenderer)(nil)

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{alive: true, vp: geom.Viewport{Scale: 1}, nodeScale: 1}
}

func (f *fakeRenderer) Alive() bool             { return f.alive }
func (f *fakeRenderer) Viewport() geom.Viewport { return f.vp }
func (f *fakeRenderer) NodeScale() float64      { return f.nodeScale }
func (f *fakeRenderer) Edges() []model.Edge     { return nil }

func (f *fakeRenderer) NewText(content, color string) scene.Text {
	t := &fakeText{fakeElement: fakeElement{attached: true}, content: content, color: color, scale: 1}
	f.texts = append(f.texts, t)
	return t
}

func (f *fakeRenderer) NewLine() scene.Line {
	l := &fakeLine{fakeElement: fakeElement{attached: true}}
	f.lines = append(f.lines, l)
	return l
}

type recordingPublisher struct {
	topics   []string
	payloads []any
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event any) error {
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type countingResolver struct {
	inner resolver.Resolver
	calls int
}

func (c *countingResolver) Name() string { return "counting" }

func (c *countingResolver) Resolve(ctx context.Context, source, target string) (string, error) {
	c.calls++
	return c.inner.Resolve(ctx, source, target)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func edge(source, target string) model.Edge {
	return model.Edge{
		Source: model.Node{ID: source, Weight: 1, LabelOpacity: model.OpacityUnknown},
		Target: model.Node{ID: target, Weight: 1, LabelOpacity: model.OpacityUnknown},
	}
}

func newTestEngine(res resolver.Resolver) (*Engine, *fakeRenderer, *recordingPublisher) {
	r := newFakeRenderer()
	pub := &recordingPublisher{}
	eng := NewEngine(r, res, legend.NewAllocator(r, nil, ""), pub, testLogger())
	return eng, r, pub
}

func familyResolver() resolver.Resolver {
	return resolver.NewStatic([]model.Link{
		{Source: "a", Target: "b", Type: "parent"},
		{Source: "b", Target: "a", Type: "child"},
		{Source: "a", Target: "c", Type: "parent"},
	})
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEngine_MirrorPairScenario(t *testing.T) {
	eng, _, _ := newTestEngine(familyResolver())
	ctx := context.Background()
	s := model.DefaultSettings()

	eng.AddEdge(ctx, edge("a", "b"), s)
	eng.AddEdge(ctx, edge("b", "a"), s)
	eng.AddEdge(ctx, edge("a", "c"), s)

	rows := eng.LegendSnapshot()
	if len(rows) != 2 {
		t.Fatalf("legend rows = %d, want 2", len(rows))
	}
	if rows[0].Label != "parent" || rows[0].UseCount != 2 || rows[0].Color != legend.DefaultPalette[0] {
		t.Errorf("row 0 = %+v, want parent x2 in %s", rows[0], legend.DefaultPalette[0])
	}
	if rows[1].Label != "child" || rows[1].UseCount != 1 || rows[1].Color != legend.DefaultPalette[1] {
		t.Errorf("row 1 = %+v, want child x1 in %s", rows[1], legend.DefaultPalette[1])
	}

	byKey := map[string]model.OverlayEntry{}
	for _, oe := range eng.Snapshot() {
		byKey[oe.Source+"->"+oe.Target] = oe
	}
	if got := byKey["a->b"].Pair; got != model.PairFirst {
		t.Errorf("a->b pair = %v, want %v", got, model.PairFirst)
	}
	if got := byKey["b->a"].Pair; got != model.PairSecond {
		t.Errorf("b->a pair = %v, want %v", got, model.PairSecond)
	}
	if got := byKey["a->c"].Pair; got != model.PairNone {
		t.Errorf("a->c pair = %v, want %v", got, model.PairNone)
	}
	if got := byKey["a->c"].Color; got != legend.DefaultPalette[0] {
		t.Errorf("a->c color = %q, want %q", got, legend.DefaultPalette[0])
	}

	eng.RemoveEdge(ctx, model.EdgeKey{Source: "a", Target: "c"})
	rows = eng.LegendSnapshot()
	if len(rows) != 2 || rows[0].UseCount != 1 {
		t.Fatalf("after removal legend = %+v, want parent down to one use", rows)
	}

	eng.RemoveEdge(ctx, model.EdgeKey{Source: "a", Target: "b"})
	rows = eng.LegendSnapshot()
	if len(rows) != 1 || rows[0].Label != "child" {
		t.Fatalf("after removal legend = %+v, want only child", rows)
	}
	for _, oe := range eng.Snapshot() {
		if oe.Pair != model.PairNone {
			t.Errorf("%s->%s pair = %v after mirror removal, want %v", oe.Source, oe.Target, oe.Pair, model.PairNone)
		}
	}
}

func TestEngine_AddEdgeTrackedOnce(t *testing.T) {
	res := &countingResolver{inner: familyResolver()}
	eng, _, _ := newTestEngine(res)
	ctx := context.Background()
	s := model.DefaultSettings()

	eng.AddEdge(ctx, edge("a", "b"), s)
	eng.AddEdge(ctx, edge("a", "b"), s)

	if got := eng.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}
	if res.calls != 1 {
		t.Errorf("resolver calls = %d, want 1", res.calls)
	}
}

func TestEngine_RepairAfterReAdd(t *testing.T) {
	eng, _, _ := newTestEngine(familyResolver())
	ctx := context.Background()
	s := model.DefaultSettings()

	eng.AddEdge(ctx, edge("a", "b"), s)
	eng.AddEdge(ctx, edge("b", "a"), s)
	eng.RemoveEdge(ctx, model.EdgeKey{Source: "b", Target: "a"})
	eng.AddEdge(ctx, edge("b", "a"), s)

	byKey := map[string]model.PairState{}
	for _, oe := range eng.Snapshot() {
		byKey[oe.Source+"->"+oe.Target] = oe.Pair
	}
	if byKey["a->b"] != model.PairFirst || byKey["b->a"] != model.PairSecond {
		t.Errorf("pair states after re-add = %v, want a->b First and b->a Second", byKey)
	}
}

func TestEngine_SelfLoop(t *testing.T) {
	res := &countingResolver{inner: familyResolver()}
	eng, r, _ := newTestEngine(res)
	ctx := context.Background()

	eng.AddEdge(ctx, edge("a", "a"), model.DefaultSettings())

	if res.calls != 0 {
		t.Errorf("resolver calls = %d, want 0 for a self-loop", res.calls)
	}
	if len(r.texts) != 0 {
		t.Errorf("labels created = %d, want 0", len(r.texts))
	}
	if len(r.lines) != 1 {
		t.Fatalf("indicators created = %d, want 1", len(r.lines))
	}
	if r.lines[0].color != "" {
		t.Errorf("self-loop indicator color = %q, want none", r.lines[0].color)
	}
	if got := eng.LegendLen(); got != 0 {
		t.Errorf("LegendLen() = %d, want 0", got)
	}

	snap := eng.Snapshot()
	if len(snap) != 1 || !snap[0].SelfLoop || snap[0].Label {
		t.Errorf("snapshot = %+v, want one unlabeled self-loop entry", snap)
	}
}

func TestEngine_UnclassifiedEdge(t *testing.T) {
	eng, r, pub := newTestEngine(resolver.None)
	ctx := context.Background()

	eng.AddEdge(ctx, edge("x", "y"), model.DefaultSettings())

	if len(r.texts) != 0 {
		t.Errorf("labels created = %d, want 0", len(r.texts))
	}
	if len(r.lines) != 1 || r.lines[0].color != "" {
		t.Errorf("want a single colorless indicator, got %+v", r.lines)
	}
	if got := eng.LegendLen(); got != 0 {
		t.Errorf("LegendLen() = %d, want 0", got)
	}
	added, ok := pub.payloads[len(pub.payloads)-1].(events.OverlayAdded)
	if !ok || added.Type != "" {
		t.Errorf("published %+v, want an OverlayAdded with empty type", pub.payloads)
	}
}

func TestEngine_ResolverFailure(t *testing.T) {
	failing := resolver.Func(func(context.Context, string, string) (string, error) {
		return "", errors.New("backend down")
	})
	eng, r, _ := newTestEngine(failing)
	ctx := context.Background()

	eng.AddEdge(ctx, edge("x", "y"), model.DefaultSettings())

	if got := eng.Len(); got != 1 {
		t.Fatalf("Len() = %d, want the edge tracked despite the failure", got)
	}
	if len(r.texts) != 0 {
		t.Errorf("labels created = %d, want 0", len(r.texts))
	}
}

func TestEngine_ColorModeOff(t *testing.T) {
	eng, r, _ := newTestEngine(familyResolver())
	ctx := context.Background()
	s := model.Settings{ColorMode: false, ShowLabels: true, ShowLegend: true}

	eng.AddEdge(ctx, edge("a", "b"), s)

	if len(r.lines) != 0 {
		t.Errorf("indicators created = %d, want 0 with color mode off", len(r.lines))
	}
	if len(r.texts) != 1 {
		t.Errorf("labels created = %d, want 1", len(r.texts))
	}
	if got := eng.LegendLen(); got != 0 {
		t.Errorf("LegendLen() = %d, want 0 with color mode off", got)
	}
}

func TestEngine_HiddenLegendStillCounts(t *testing.T) {
	eng, r, _ := newTestEngine(familyResolver())
	ctx := context.Background()
	s := model.Settings{ColorMode: true, ShowLabels: true, ShowLegend: false}

	eng.AddEdge(ctx, edge("a", "b"), s)

	if got := eng.LegendLen(); got != 1 {
		t.Fatalf("LegendLen() = %d, want bookkeeping even while hidden", got)
	}
	// One legend mark plus the indicator; the mark must be transparent.
	if len(r.lines) != 2 {
		t.Fatalf("lines created = %d, want 2", len(r.lines))
	}
	mark := r.lines[1]
	if mark.alpha != 0 {
		t.Errorf("hidden legend mark opacity = %v, want 0", mark.alpha)
	}
}

func TestEngine_RemoveEdgeIdempotent(t *testing.T) {
	eng, _, pub := newTestEngine(familyResolver())
	ctx := context.Background()

	eng.RemoveEdge(ctx, model.EdgeKey{Source: "a", Target: "b"})
	if len(pub.topics) != 0 {
		t.Fatalf("events after removing untracked edge = %v, want none", pub.topics)
	}

	eng.AddEdge(ctx, edge("a", "b"), model.DefaultSettings())
	eng.RemoveEdge(ctx, model.EdgeKey{Source: "a", Target: "b"})
	n := len(pub.topics)
	eng.RemoveEdge(ctx, model.EdgeKey{Source: "a", Target: "b"})
	if len(pub.topics) != n {
		t.Errorf("second removal published %v, want nothing new", pub.topics[n:])
	}
	if got := eng.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
}

func TestEngine_RemoveDestroysElements(t *testing.T) {
	eng, r, _ := newTestEngine(familyResolver())
	ctx := context.Background()

	eng.AddEdge(ctx, edge("a", "b"), model.DefaultSettings())
	eng.RemoveEdge(ctx, model.EdgeKey{Source: "a", Target: "b"})

	for _, txt := range r.texts {
		if txt.attached {
			t.Errorf("text %q still attached after removal", txt.content)
		}
	}
	for i, ln := range r.lines {
		if ln.attached {
			t.Errorf("line %d still attached after removal", i)
		}
	}
}

func TestEngine_ReconcilePurgesStale(t *testing.T) {
	eng, _, _ := newTestEngine(familyResolver())
	ctx := context.Background()
	s := model.DefaultSettings()

	eng.AddEdge(ctx, edge("a", "b"), s)
	eng.AddEdge(ctx, edge("a", "c"), s)

	missing := eng.Reconcile(ctx, []model.Edge{edge("a", "b"), edge("b", "a")})
	if len(missing) != 1 || missing[0].Key() != (model.EdgeKey{Source: "b", Target: "a"}) {
		t.Fatalf("missing = %+v, want just b->a", missing)
	}
	if got := eng.Len(); got != 1 {
		t.Errorf("Len() = %d, want a->c purged", got)
	}
	rows := eng.LegendSnapshot()
	if len(rows) != 1 || rows[0].UseCount != 1 {
		t.Errorf("legend after purge = %+v, want parent down to one use", rows)
	}
}

func TestEngine_SyncStructure(t *testing.T) {
	eng, _, _ := newTestEngine(familyResolver())
	ctx := context.Background()
	s := model.DefaultSettings()

	eng.AddEdge(ctx, edge("a", "b"), s)
	eng.SyncStructure(ctx, []model.Edge{edge("b", "a"), edge("a", "c")}, s)

	keys := map[string]bool{}
	for _, oe := range eng.Snapshot() {
		keys[oe.Source+"->"+oe.Target] = true
	}
	if keys["a->b"] || !keys["b->a"] || !keys["a->c"] {
		t.Errorf("tracked after sync = %v, want b->a and a->c only", keys)
	}
}

func TestEngine_RefreshLabel(t *testing.T) {
	eng, r, _ := newTestEngine(familyResolver())
	ctx := context.Background()
	r.vp = geom.Viewport{PanX: 5, PanY: -3, Scale: 2}
	r.nodeScale = 4

	e := edge("a", "b")
	e.Source.X, e.Source.Y = 0, 0
	e.Target.X, e.Target.Y = 10, 20
	eng.AddEdge(ctx, e, model.DefaultSettings())
	eng.RefreshLabel(e, true)

	lbl := r.texts[0]
	if !almostEqual(lbl.x, 15) || !almostEqual(lbl.y, 17) {
		t.Errorf("label at (%v, %v), want projected midpoint (15, 17)", lbl.x, lbl.y)
	}
	if !almostEqual(lbl.scale, 0.25) {
		t.Errorf("label scale = %v, want 1/nodeScale = 0.25", lbl.scale)
	}
	if !almostEqual(lbl.opacity, 0.9) {
		t.Errorf("label opacity = %v, want the 0.9 default with unknown endpoints", lbl.opacity)
	}
}

func TestEngine_RefreshLabelOpacity(t *testing.T) {
	tests := []struct {
		name     string
		src, tgt float64
		visible  bool
		want     float64
	}{
		{"both known", 0.4, 0.7, true, 0.7},
		{"source unknown", model.OpacityUnknown, 0.7, true, 0.9},
		{"target unknown", 0.4, model.OpacityUnknown, true, 0.9},
		{"hidden", 0.4, 0.7, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, r, _ := newTestEngine(familyResolver())
			e := edge("a", "b")
			e.Source.LabelOpacity = tt.src
			e.Target.LabelOpacity = tt.tgt
			eng.AddEdge(context.Background(), e, model.DefaultSettings())
			eng.RefreshLabel(e, tt.visible)
			if got := r.texts[0].opacity; !almostEqual(got, tt.want) {
				t.Errorf("opacity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngine_RefreshLabelPairNudge(t *testing.T) {
	eng, r, _ := newTestEngine(familyResolver())
	ctx := context.Background()
	s := model.DefaultSettings()

	ab := edge("a", "b")
	ba := edge("b", "a")
	eng.AddEdge(ctx, ab, s)
	eng.AddEdge(ctx, ba, s)
	eng.RefreshLabel(ab, true)
	eng.RefreshLabel(ba, true)

	first, second := r.texts[0], r.texts[1]
	if !almostEqual(second.y-first.y, 2*pairNudge) {
		t.Errorf("pair labels at y=%v and y=%v, want %v apart", first.y, second.y, 2*pairNudge)
	}
}

func TestEngine_RefreshLabelDetached(t *testing.T) {
	eng, r, _ := newTestEngine(familyResolver())
	ctx := context.Background()

	e := edge("a", "b")
	eng.AddEdge(ctx, e, model.DefaultSettings())
	r.texts[0].Destroy()
	before := *r.texts[0]

	eng.RefreshLabel(e, true)

	if r.texts[0].x != before.x || r.texts[0].opacity != before.opacity {
		t.Errorf("detached label mutated: %+v", r.texts[0])
	}
}

func TestEngine_RefreshIndicator(t *testing.T) {
	eng, r, _ := newTestEngine(familyResolver())
	ctx := context.Background()

	e := edge("a", "c")
	e.Source.X, e.Source.Y = 0, 0
	e.Target.X, e.Target.Y = 10, 0
	eng.AddEdge(ctx, e, model.DefaultSettings())
	eng.RefreshIndicator(e)

	ind := r.lines[0]
	if ind.strokes != 1 {
		t.Fatalf("strokes = %d, want 1", ind.strokes)
	}
	// Horizontal edge: normal shift moves both ends to y=2, weight insets
	// pull x in by 4 from each side.
	if !almostEqual(ind.x1, 4) || !almostEqual(ind.y1, 2) || !almostEqual(ind.x2, 6) || !almostEqual(ind.y2, 2) {
		t.Errorf("stroke = (%v,%v)-(%v,%v), want (4,2)-(6,2)", ind.x1, ind.y1, ind.x2, ind.y2)
	}
	if !almostEqual(ind.width, 2) {
		t.Errorf("width = %v, want 2", ind.width)
	}
	if !almostEqual(ind.alpha, indicatorOpacity) {
		t.Errorf("opacity = %v, want %v", ind.alpha, indicatorOpacity)
	}
	if ind.color != legend.DefaultPalette[0] {
		t.Errorf("color = %q, want %q preserved across strokes", ind.color, legend.DefaultPalette[0])
	}
}

func TestEngine_RefreshIndicatorScaling(t *testing.T) {
	eng, r, _ := newTestEngine(familyResolver())
	ctx := context.Background()
	r.vp = geom.Viewport{Scale: 4}
	r.nodeScale = 4

	e := edge("a", "c")
	e.Source.X, e.Source.Y = 0, 0
	e.Target.X, e.Target.Y = 100, 0
	eng.AddEdge(ctx, e, model.DefaultSettings())
	eng.RefreshIndicator(e)

	ind := r.lines[0]
	// Normal shift doubles with sqrt(zoom)=2, width halves with sqrt(nodeScale)=2.
	if !almostEqual(ind.y1, 4) || !almostEqual(ind.y2, 4) {
		t.Errorf("normal shift gave y=(%v,%v), want 4", ind.y1, ind.y2)
	}
	if !almostEqual(ind.width, 1) {
		t.Errorf("width = %v, want 1", ind.width)
	}
}

func TestEngine_RefreshIndicatorSelfLoop(t *testing.T) {
	eng, r, _ := newTestEngine(familyResolver())
	ctx := context.Background()

	e := edge("a", "a")
	e.Source.X, e.Source.Y = 3, 4
	e.Target.X, e.Target.Y = 3, 4
	eng.AddEdge(ctx, e, model.DefaultSettings())
	eng.RefreshIndicator(e)

	ind := r.lines[0]
	if !almostEqual(ind.x1, 3) || !almostEqual(ind.y1, 4) || !almostEqual(ind.x2, 3) || !almostEqual(ind.y2, 4) {
		t.Errorf("self-loop stroke = (%v,%v)-(%v,%v), want the node position untouched", ind.x1, ind.y1, ind.x2, ind.y2)
	}
}

func TestEngine_RefreshUntrackedEdge(t *testing.T) {
	eng, r, _ := newTestEngine(familyResolver())

	eng.RefreshLabel(edge("a", "b"), true)
	eng.RefreshIndicator(edge("a", "b"))

	if len(r.texts) != 0 || len(r.lines) != 0 {
		t.Errorf("refresh of untracked edge created elements: %d texts, %d lines", len(r.texts), len(r.lines))
	}
}

func TestEngine_DestroyAll(t *testing.T) {
	eng, r, _ := newTestEngine(familyResolver())
	ctx := context.Background()
	s := model.DefaultSettings()

	eng.AddEdge(ctx, edge("a", "b"), s)
	eng.AddEdge(ctx, edge("b", "a"), s)
	eng.DestroyAll(ctx)

	if got := eng.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
	if got := eng.LegendLen(); got != 0 {
		t.Errorf("LegendLen() = %d, want 0", got)
	}
	for _, txt := range r.texts {
		if txt.attached {
			t.Errorf("text %q survived DestroyAll", txt.content)
		}
	}

	// A fresh edge starts the palette over.
	eng.AddEdge(ctx, edge("a", "b"), s)
	if got := eng.LegendSnapshot()[0].Color; got != legend.DefaultPalette[0] {
		t.Errorf("first color after reset = %q, want %q", got, legend.DefaultPalette[0])
	}
}

func TestEngine_ApplyTextColor(t *testing.T) {
	eng, r, _ := newTestEngine(familyResolver())
	ctx := context.Background()

	eng.AddEdge(ctx, edge("a", "b"), model.DefaultSettings())
	eng.ApplyTextColor("#FFFFFF")
	eng.AddEdge(ctx, edge("a", "c"), model.DefaultSettings())

	for _, txt := range r.texts {
		if txt.color != "#FFFFFF" {
			t.Errorf("text %q color = %q, want #FFFFFF", txt.content, txt.color)
		}
	}
}

func TestEngine_EventOrder(t *testing.T) {
	eng, _, pub := newTestEngine(familyResolver())
	ctx := context.Background()

	eng.AddEdge(ctx, edge("a", "b"), model.DefaultSettings())
	eng.RemoveEdge(ctx, model.EdgeKey{Source: "a", Target: "b"})

	want := []string{
		events.TopicLegendAcquired,
		events.TopicOverlayAdded,
		events.TopicLegendReleased,
		events.TopicOverlayRemoved,
	}
	if len(pub.topics) != len(want) {
		t.Fatalf("topics = %v, want %v", pub.topics, want)
	}
	for i := range want {
		if pub.topics[i] != want[i] {
			t.Errorf("topic[%d] = %q, want %q", i, pub.topics[i], want[i])
		}
	}
}
