package model

// PairState records an edge's membership in a mirror pair: two tracked edges
// connecting the same nodes in opposite directions. The two labels of a pair
// are nudged apart vertically so they do not overlap at the shared midpoint.
type PairState int

const (
	PairNone PairState = iota
	PairFirst
	PairSecond
)

// String returns the lowercase name of the pair state.
func (p PairState) String() string {
	switch p {
	case PairFirst:
		return "first"
	case PairSecond:
		return "second"
	}
	return "none"
}

// EdgeKey identifies a directed edge by its endpoint node IDs. The overlay
// tracks edges by this ordered pair, so an edge and its mirror are distinct.
type EdgeKey struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Mirror returns the key of the opposite-direction edge.
func (k EdgeKey) Mirror() EdgeKey {
	return EdgeKey{Source: k.Target, Target: k.Source}
}

// SelfLoop reports whether the key connects a node to itself.
func (k EdgeKey) SelfLoop() bool {
	return k.Source == k.Target
}

// String returns the key in "source->target" form.
func (k EdgeKey) String() string {
	return k.Source + "->" + k.Target
}

// OpacityUnknown marks an endpoint whose label opacity the scene does not
// know. Consumers fall back to a default visible opacity.
const OpacityUnknown float64 = -1

// Node is a point-in-time snapshot of a scene node. Weight is the node's
// visual size factor; LabelOpacity is the current opacity of the node's own
// name label, or OpacityUnknown.
type Node struct {
	ID           string  `json:"id"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Weight       float64 `json:"weight"`
	LabelOpacity float64 `json:"label_opacity"`
}

// Edge is a point-in-time snapshot of a rendered edge. Snapshots are taken
// from the scene once per frame; node positions move continuously between
// frames, so a snapshot is only as fresh as the tick that produced it.
type Edge struct {
	Source Node `json:"source"`
	Target Node `json:"target"`
}

// Key returns the edge's identity.
func (e Edge) Key() EdgeKey {
	return EdgeKey{Source: e.Source.ID, Target: e.Target.ID}
}

// SelfLoop reports whether both endpoints are the same node.
func (e Edge) SelfLoop() bool {
	return e.Source.ID == e.Target.ID
}

// ZeroLength reports whether the endpoints currently coincide, in which case
// direction vectors along the edge are undefined.
func (e Edge) ZeroLength() bool {
	return e.Source.X == e.Target.X && e.Source.Y == e.Target.Y
}
