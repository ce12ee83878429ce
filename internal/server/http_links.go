package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/groblegark/linklens/internal/model"
)

// handleListLinks handles GET /v1/links.
func (s *Server) handleListLinks(w http.ResponseWriter, r *http.Request) {
	links, err := s.links.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list links")
		return
	}

	// Ensure links is never null in JSON output.
	if links == nil {
		links = []*model.Link{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"links": links,
		"total": len(links),
	})
}

// handlePutLink handles POST /v1/links.
// A link record only affects edges classified after it lands; already-tracked
// edges keep their resolved type until they are re-added.
func (s *Server) handlePutLink(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Source    string `json:"source"`
		Target    string `json:"target"`
		Type      string `json:"type"`
		CreatedBy string `json:"created_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if in.Source == "" {
		writeError(w, http.StatusBadRequest, "source is required")
		return
	}
	if in.Target == "" {
		writeError(w, http.StatusBadRequest, "target is required")
		return
	}
	if !model.LinkType(in.Type).IsValid() {
		writeError(w, http.StatusBadRequest, "type must be 1-50 characters")
		return
	}

	link := &model.Link{
		Source:    in.Source,
		Target:    in.Target,
		Type:      model.LinkType(in.Type),
		CreatedAt: time.Now().UTC(),
		CreatedBy: in.CreatedBy,
	}
	if err := s.links.Put(r.Context(), link); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store link")
		return
	}

	writeJSON(w, http.StatusCreated, link)
}

// handleDeleteLink handles DELETE /v1/links/{source}/{target}.
func (s *Server) handleDeleteLink(w http.ResponseWriter, r *http.Request) {
	source := r.PathValue("source")
	target := r.PathValue("target")

	removed, err := s.links.Delete(r.Context(), source, target)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete link")
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "link not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleRulesReload handles POST /v1/rules/reload.
// The bound reload function publishes its own event, so watcher-triggered and
// endpoint-triggered reloads look the same to subscribers.
func (s *Server) handleRulesReload(w http.ResponseWriter, r *http.Request) {
	if s.reload == nil {
		writeError(w, http.StatusConflict, "no rules source configured")
		return
	}

	summary, err := s.reload(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
