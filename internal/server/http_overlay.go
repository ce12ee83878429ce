package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/groblegark/linklens/internal/driver"
	"github.com/groblegark/linklens/internal/model"
)

// handleGetOverlay handles GET /v1/overlay.
// Returns the tracked entries with their resolved type, pair state and color.
func (s *Server) handleGetOverlay(w http.ResponseWriter, _ *http.Request) {
	entries := s.engine.Snapshot()
	if entries == nil {
		entries = []model.OverlayEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"total":   len(entries),
	})
}

// handleGetLegend handles GET /v1/legend.
func (s *Server) handleGetLegend(w http.ResponseWriter, _ *http.Request) {
	rows := s.engine.LegendSnapshot()
	if rows == nil {
		rows = []model.LegendRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rows":  rows,
		"total": len(rows),
	})
}

// handleGetSettings handles GET /v1/settings.
func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.driver.Settings())
}

// handleUpdateSettings handles PATCH /v1/settings.
// Absent fields keep their current value; the driver decides what applies
// immediately and what waits for the next tick.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ColorMode  *bool `json:"color_mode"`
		ShowLabels *bool `json:"show_labels"`
		ShowLegend *bool `json:"show_legend"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	settings := s.driver.Settings()
	if in.ColorMode != nil {
		settings.ColorMode = *in.ColorMode
	}
	if in.ShowLabels != nil {
		settings.ShowLabels = *in.ShowLabels
	}
	if in.ShowLegend != nil {
		settings.ShowLegend = *in.ShowLegend
	}

	s.driver.ApplySettings(r.Context(), settings)

	writeJSON(w, http.StatusOK, settings)
}

// handleLoopRestart handles POST /v1/loop/restart.
// Tears the overlay down and starts a fresh loop; fails when the renderer is
// no longer able to host elements.
func (s *Server) handleLoopRestart(w http.ResponseWriter, r *http.Request) {
	if err := s.driver.Restart(r.Context()); err != nil {
		if errors.Is(err, driver.ErrRendererUnavailable) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to restart loop")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"running": s.driver.Running(),
		"frame":   s.driver.Frame(),
	})
}

// handleLoopStop handles POST /v1/loop/stop.
func (s *Server) handleLoopStop(w http.ResponseWriter, r *http.Request) {
	s.driver.Stop(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"running": s.driver.Running(),
		"frame":   s.driver.Frame(),
	})
}
