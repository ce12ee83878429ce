package scene

import (
	"fmt"
	"sort"
	"sync"

	"github.com/groblegark/linklens/internal/geom"
	"github.com/groblegark/linklens/internal/idgen"
	"github.com/groblegark/linklens/internal/model"
)

// Position is a single node position update, as delivered by feeders.
type Position struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Stage is the in-process scene. Feeders mutate nodes, edges and the camera
// through the HTTP and WebSocket surfaces; the loop driver reads snapshots
// and hosts its overlay elements in the display list.
type Stage struct {
	mu        sync.RWMutex
	nodes     map[string]*model.Node
	edges     []model.EdgeKey
	viewport  geom.Viewport
	nodeScale float64
	display   map[Element]struct{}
	closed    bool
}

// NewStage returns an empty stage with an identity camera.
func NewStage() *Stage {
	return &Stage{
		nodes:     make(map[string]*model.Node),
		viewport:  geom.Viewport{Scale: 1},
		nodeScale: 1,
		display:   make(map[Element]struct{}),
	}
}

// Alive reports whether the stage can still host overlay elements.
func (s *Stage) Alive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed
}

// Close tears the stage down: every hosted element detaches and the stage
// stops accepting new ones.
func (s *Stage) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.display = make(map[Element]struct{})
}

// Viewport returns the current pan/zoom state.
func (s *Stage) Viewport() geom.Viewport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewport
}

// NodeScale returns the global node size factor.
func (s *Stage) NodeScale() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodeScale
}

// Camera returns the combined viewport and node-scale state.
func (s *Stage) Camera() model.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.Camera{
		PanX:      s.viewport.PanX,
		PanY:      s.viewport.PanY,
		Scale:     s.viewport.Scale,
		NodeScale: s.nodeScale,
	}
}

// SetCamera replaces the viewport and node-scale state. Non-positive scale
// factors are rejected.
func (s *Stage) SetCamera(c model.Camera) error {
	if c.Scale <= 0 {
		return fmt.Errorf("camera scale must be positive, got %v", c.Scale)
	}
	if c.NodeScale <= 0 {
		return fmt.Errorf("camera node_scale must be positive, got %v", c.NodeScale)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport = geom.Viewport{PanX: c.PanX, PanY: c.PanY, Scale: c.Scale}
	s.nodeScale = c.NodeScale
	return nil
}

// UpsertNode adds or replaces a node. A non-positive weight defaults to 1.
func (s *Stage) UpsertNode(n model.Node) error {
	if n.ID == "" {
		return fmt.Errorf("node id must not be empty")
	}
	if n.Weight <= 0 {
		n.Weight = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[n.ID] = &n
	return nil
}

// RemoveNode deletes a node and every edge touching it. It reports whether
// the node existed.
func (s *Stage) RemoveNode(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[id]; !ok {
		return false
	}
	delete(s.nodes, id)
	kept := s.edges[:0]
	for _, k := range s.edges {
		if k.Source != id && k.Target != id {
			kept = append(kept, k)
		}
	}
	s.edges = kept
	return true
}

// Node returns a snapshot of one node by ID.
func (s *Stage) Node(id string) (model.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return model.Node{}, false
	}
	return *n, true
}

// Move applies a batch of position updates under one lock and returns how
// many matched a known node.
func (s *Stage) Move(positions []Position) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	moved := 0
	for _, p := range positions {
		n, ok := s.nodes[p.ID]
		if !ok {
			continue
		}
		n.X, n.Y = p.X, p.Y
		moved++
	}
	return moved
}

// Link draws a directed edge between two known nodes. Linking an existing
// edge is a no-op; the bool reports whether a new edge was added.
func (s *Stage) Link(source, target string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[source]; !ok {
		return false, fmt.Errorf("unknown node %q", source)
	}
	if _, ok := s.nodes[target]; !ok {
		return false, fmt.Errorf("unknown node %q", target)
	}
	key := model.EdgeKey{Source: source, Target: target}
	for _, k := range s.edges {
		if k == key {
			return false, nil
		}
	}
	s.edges = append(s.edges, key)
	return true, nil
}

// Unlink removes a directed edge and reports whether it existed.
func (s *Stage) Unlink(source, target string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := model.EdgeKey{Source: source, Target: target}
	for i, k := range s.edges {
		if k == key {
			s.edges = append(s.edges[:i], s.edges[i+1:]...)
			return true
		}
	}
	return false
}

// Edges returns fresh snapshots of every drawn edge, in insertion order.
func (s *Stage) Edges() []model.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Edge, 0, len(s.edges))
	for _, k := range s.edges {
		src, ok := s.nodes[k.Source]
		if !ok {
			continue
		}
		tgt, ok := s.nodes[k.Target]
		if !ok {
			continue
		}
		out = append(out, model.Edge{Source: *src, Target: *tgt})
	}
	return out
}

// Snapshot returns the full scene state for the inspection endpoint, nodes
// sorted by ID for stable output.
func (s *Stage) Snapshot() model.SceneSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := model.SceneSnapshot{
		Nodes: make([]model.Node, 0, len(s.nodes)),
		Edges: make([]model.EdgeKey, len(s.edges)),
		Camera: model.Camera{
			PanX:      s.viewport.PanX,
			PanY:      s.viewport.PanY,
			Scale:     s.viewport.Scale,
			NodeScale: s.nodeScale,
		},
	}
	for _, n := range s.nodes {
		snap.Nodes = append(snap.Nodes, *n)
	}
	sort.Slice(snap.Nodes, func(i, j int) bool { return snap.Nodes[i].ID < snap.Nodes[j].ID })
	copy(snap.Edges, s.edges)
	return snap
}

// NewText creates a text element and inserts it into the display list.
func (s *Stage) NewText(content, color string) Text {
	t := &text{stage: s, id: idgen.MustGenerate("el-"), content: content, color: color, scale: 1}
	s.insert(t)
	return t
}

// NewLine creates a line element and inserts it into the display list.
func (s *Stage) NewLine() Line {
	l := &line{stage: s, id: idgen.MustGenerate("el-")}
	s.insert(l)
	return l
}

// ElementCount reports how many elements the display list holds.
func (s *Stage) ElementCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.display)
}

func (s *Stage) insert(el Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.display[el] = struct{}{}
}

func (s *Stage) attached(el Element) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.display[el]
	return ok
}

func (s *Stage) detach(el Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.display, el)
}
