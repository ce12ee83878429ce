package server

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/groblegark/linklens/internal/model"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *Server) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/scene", s.handleGetScene)
	mux.HandleFunc("POST /v1/nodes", s.handleUpsertNode)
	mux.HandleFunc("DELETE /v1/nodes/{id}", s.handleRemoveNode)
	mux.HandleFunc("POST /v1/edges", s.handleLink)
	mux.HandleFunc("DELETE /v1/edges/{source}/{target}", s.handleUnlink)
	mux.HandleFunc("PATCH /v1/viewport", s.handleUpdateViewport)
	mux.HandleFunc("GET /v1/overlay", s.handleGetOverlay)
	mux.HandleFunc("GET /v1/legend", s.handleGetLegend)
	mux.HandleFunc("GET /v1/settings", s.handleGetSettings)
	mux.HandleFunc("PATCH /v1/settings", s.handleUpdateSettings)
	mux.HandleFunc("POST /v1/loop/restart", s.handleLoopRestart)
	mux.HandleFunc("POST /v1/loop/stop", s.handleLoopStop)
	mux.HandleFunc("GET /v1/links", s.handleListLinks)
	mux.HandleFunc("POST /v1/links", s.handlePutLink)
	mux.HandleFunc("DELETE /v1/links/{source}/{target}", s.handleDeleteLink)
	mux.HandleFunc("POST /v1/rules/reload", s.handleRulesReload)
	mux.HandleFunc("GET /v1/events", s.handleEventStream)
	mux.HandleFunc("GET /v1/scene/ws", s.handleSceneWS)
	mux.Handle("GET /metrics", promhttp.Handler())

	handler := AuthMiddleware(authToken, mux)
	handler = LoggingMiddleware(s.logger, handler)
	return RecoveryMiddleware(s.logger, handler)
}

// handleHealth handles GET /v1/health.
// Returns aggregate counts so one call answers "is it up and what is it doing".
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	snap := s.stage.Snapshot()
	status := "ok"
	if !s.stage.Alive() {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, model.Status{
		Status:      status,
		Nodes:       len(snap.Nodes),
		Edges:       len(snap.Edges),
		Tracked:     s.engine.Len(),
		LegendRows:  s.engine.LegendLen(),
		LoopRunning: s.driver.Running(),
		Frame:       s.driver.Frame(),
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
