package model

// OverlayEntry is a read-only snapshot of one tracked overlay entry, as
// served by the overlay inspection endpoint.
type OverlayEntry struct {
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Type      string    `json:"type,omitempty"`
	Pair      PairState `json:"-"`
	PairName  string    `json:"pair"`
	Color     string    `json:"color,omitempty"`
	Label     bool      `json:"label"`
	Indicator bool      `json:"indicator"`
	SelfLoop  bool      `json:"self_loop,omitempty"`
}

// LegendRow is a read-only snapshot of one legend entry.
type LegendRow struct {
	Label    string `json:"label"`
	Color    string `json:"color"`
	UseCount int    `json:"use_count"`
	Row      int    `json:"row"`
}

// Camera is the scene's pan/zoom state plus the global node-scale factor.
type Camera struct {
	PanX      float64 `json:"pan_x"`
	PanY      float64 `json:"pan_y"`
	Scale     float64 `json:"scale"`
	NodeScale float64 `json:"node_scale"`
}

// SceneSnapshot is the response for the scene inspection endpoint. Edge
// positions are implied by the node entries.
type SceneSnapshot struct {
	Nodes  []Node    `json:"nodes"`
	Edges  []EdgeKey `json:"edges"`
	Camera Camera    `json:"camera"`
}

// Status holds aggregate counts for the health/status endpoint.
type Status struct {
	Status      string `json:"status"`
	Nodes       int    `json:"nodes"`
	Edges       int    `json:"edges"`
	Tracked     int    `json:"tracked"`
	LegendRows  int    `json:"legend_rows"`
	LoopRunning bool   `json:"loop_running"`
	Frame       uint64 `json:"frame"`
}
