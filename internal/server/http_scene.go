package server

import (
	"encoding/json"
	"net/http"

	"github.com/groblegark/linklens/internal/events"
	"github.com/groblegark/linklens/internal/model"
)

// nodeInput is the JSON body for node upserts, over HTTP and WebSocket alike.
// label_opacity distinguishes absent from zero: omitted means the scene does
// not know the opacity, zero means fully faded.
type nodeInput struct {
	ID           string   `json:"id"`
	X            float64  `json:"x"`
	Y            float64  `json:"y"`
	Weight       float64  `json:"weight"`
	LabelOpacity *float64 `json:"label_opacity"`
}

func (in nodeInput) node() model.Node {
	n := model.Node{ID: in.ID, X: in.X, Y: in.Y, Weight: in.Weight, LabelOpacity: model.OpacityUnknown}
	if in.LabelOpacity != nil {
		n.LabelOpacity = *in.LabelOpacity
	}
	return n
}

// handleGetScene handles GET /v1/scene.
func (s *Server) handleGetScene(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stage.Snapshot())
}

// handleUpsertNode handles POST /v1/nodes.
func (s *Server) handleUpsertNode(w http.ResponseWriter, r *http.Request) {
	var in nodeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if in.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := s.stage.UpsertNode(in.node()); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.publish(r.Context(), events.TopicSceneUpdated, events.SceneUpdated{Op: "node.upsert", NodeID: in.ID})

	stored, _ := s.stage.Node(in.ID)
	writeJSON(w, http.StatusOK, stored)
}

// handleRemoveNode handles DELETE /v1/nodes/{id}.
// Removing a node drops every edge touching it; the overlay catches up on the
// next structural sync.
func (s *Server) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	if !s.stage.RemoveNode(id) {
		writeError(w, http.StatusNotFound, "node not found")
		return
	}

	s.publish(r.Context(), events.TopicSceneUpdated, events.SceneUpdated{Op: "node.remove", NodeID: id})

	w.WriteHeader(http.StatusNoContent)
}

// handleLink handles POST /v1/edges.
func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Source string `json:"source"`
		Target string `json:"target"`
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

	added, err := s.stage.Link(in.Source, in.Target)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	if added {
		s.publish(r.Context(), events.TopicSceneUpdated, events.SceneUpdated{
			Op:     "link",
			Source: in.Source,
			Target: in.Target,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"added": added})
}

// handleUnlink handles DELETE /v1/edges/{source}/{target}.
func (s *Server) handleUnlink(w http.ResponseWriter, r *http.Request) {
	source := r.PathValue("source")
	target := r.PathValue("target")

	if !s.stage.Unlink(source, target) {
		writeError(w, http.StatusNotFound, "edge not found")
		return
	}

	s.publish(r.Context(), events.TopicSceneUpdated, events.SceneUpdated{
		Op:     "unlink",
		Source: source,
		Target: target,
	})

	w.WriteHeader(http.StatusNoContent)
}

// handleUpdateViewport handles PATCH /v1/viewport.
// Absent fields keep their current value.
func (s *Server) handleUpdateViewport(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PanX      *float64 `json:"pan_x"`
		PanY      *float64 `json:"pan_y"`
		Scale     *float64 `json:"scale"`
		NodeScale *float64 `json:"node_scale"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	cam := s.stage.Camera()
	if in.PanX != nil {
		cam.PanX = *in.PanX
	}
	if in.PanY != nil {
		cam.PanY = *in.PanY
	}
	if in.Scale != nil {
		cam.Scale = *in.Scale
	}
	if in.NodeScale != nil {
		cam.NodeScale = *in.NodeScale
	}

	if err := s.stage.SetCamera(cam); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.publish(r.Context(), events.TopicSceneUpdated, events.SceneUpdated{Op: "viewport"})

	writeJSON(w, http.StatusOK, cam)
}
