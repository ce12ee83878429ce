// Package client provides a transport-agnostic interface for the linklens
// service and an HTTP/JSON implementation that talks to the linklens REST API.
package client

import (
	"context"

	"github.com/groblegark/linklens/internal/model"
)

// LensClient is the interface that all linklens CLI commands use to
// communicate with the lens server. It is implemented by HTTPClient and can
// be backed by any transport.
type LensClient interface {
	// Scene
	GetScene(ctx context.Context) (*model.SceneSnapshot, error)
	UpsertNode(ctx context.Context, req *UpsertNodeRequest) (*model.Node, error)
	RemoveNode(ctx context.Context, id string) error
	AddEdge(ctx context.Context, source, target string) (bool, error)
	RemoveEdge(ctx context.Context, source, target string) error
	UpdateViewport(ctx context.Context, req *ViewportRequest) (*model.Camera, error)

	// Overlay
	GetOverlay(ctx context.Context) (*OverlayResponse, error)
	GetLegend(ctx context.Context) (*LegendResponse, error)

	// Settings
	GetSettings(ctx context.Context) (*model.Settings, error)
	UpdateSettings(ctx context.Context, req *SettingsRequest) (*model.Settings, error)

	// Loop
	RestartLoop(ctx context.Context) (*LoopStatus, error)
	StopLoop(ctx context.Context) (*LoopStatus, error)

	// Links
	ListLinks(ctx context.Context) (*ListLinksResponse, error)
	PutLink(ctx context.Context, req *PutLinkRequest) (*model.Link, error)
	DeleteLink(ctx context.Context, source, target string) error

	// Rules
	ReloadRules(ctx context.Context) (*ReloadSummary, error)

	// Health
	Health(ctx context.Context) (*model.Status, error)

	// Lifecycle
	Close() error
}

// UpsertNodeRequest holds parameters for creating or moving a node.
type UpsertNodeRequest struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Weight float64 `json:"weight,omitempty"`
	// LabelOpacity distinguishes "not reported" (nil) from zero.
	LabelOpacity *float64 `json:"label_opacity,omitempty"`
}

// ViewportRequest holds optional camera fields for a viewport patch.
// Nil pointer fields mean "don't change".
type ViewportRequest struct {
	PanX      *float64 `json:"pan_x,omitempty"`
	PanY      *float64 `json:"pan_y,omitempty"`
	Scale     *float64 `json:"scale,omitempty"`
	NodeScale *float64 `json:"node_scale,omitempty"`
}

// SettingsRequest holds optional overlay toggles for a settings patch.
// Nil pointer fields mean "don't change".
type SettingsRequest struct {
	ColorMode  *bool `json:"color_mode,omitempty"`
	ShowLabels *bool `json:"show_labels,omitempty"`
	ShowLegend *bool `json:"show_legend,omitempty"`
}

// PutLinkRequest holds parameters for storing a link record.
type PutLinkRequest struct {
	Source    string `json:"source"`
	Target    string `json:"target"`
	Type      string `json:"type"`
	CreatedBy string `json:"created_by,omitempty"`
}

// OverlayResponse is the response from GetOverlay.
type OverlayResponse struct {
	Entries []model.OverlayEntry `json:"entries"`
	Total   int                  `json:"total"`
}

// LegendResponse is the response from GetLegend.
type LegendResponse struct {
	Rows  []model.LegendRow `json:"rows"`
	Total int               `json:"total"`
}

// ListLinksResponse is the response from ListLinks.
type ListLinksResponse struct {
	Links []*model.Link `json:"links"`
	Total int           `json:"total"`
}

// LoopStatus is the response from RestartLoop and StopLoop.
type LoopStatus struct {
	Running bool   `json:"running"`
	Frame   uint64 `json:"frame"`
}

// ReloadSummary is the response from ReloadRules.
type ReloadSummary struct {
	Source   string `json:"source"`
	Links    int    `json:"links"`
	Prefixes int    `json:"prefixes"`
}
