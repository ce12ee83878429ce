package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/groblegark/linklens/internal/events"
	"github.com/groblegark/linklens/internal/idgen"
	"github.com/groblegark/linklens/internal/metrics"
	"github.com/groblegark/linklens/internal/model"
	"github.com/groblegark/linklens/internal/scene"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is one feeder message. Op selects the operation; the other fields
// carry its arguments.
type wsRequest struct {
	Op        string           `json:"op"`
	Positions []scene.Position `json:"positions,omitempty"`
	Node      *nodeInput       `json:"node,omitempty"`
	ID        string           `json:"id,omitempty"`
	Source    string           `json:"source,omitempty"`
	Target    string           `json:"target,omitempty"`
	Camera    *model.Camera    `json:"camera,omitempty"`
}

// handleSceneWS handles GET /v1/scene/ws.
// Feeders stream scene updates as JSON messages; "positions" batches are the
// hot path and get no reply, everything else answers only on error. Unknown
// node IDs in a positions batch are skipped, not rejected, so feeders can
// stream ahead of structure updates.
func (s *Server) handleSceneWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	session := idgen.MustGenerate("feed-")
	metrics.WSClients.Inc()
	defer metrics.WSClients.Dec()
	s.logger.Info("feeder connected", "session", session, "remote", r.RemoteAddr)
	defer s.logger.Info("feeder disconnected", "session", session)

	if err := conn.WriteJSON(map[string]string{"session": session}); err != nil {
		return
	}

	ctx := r.Context()
	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		if msg := s.applyWSOp(ctx, &req); msg != "" {
			if err := conn.WriteJSON(map[string]string{"error": msg}); err != nil {
				return
			}
		}
	}
}

// applyWSOp applies one feeder operation to the stage. It returns an error
// message for the client, or "" on success.
func (s *Server) applyWSOp(ctx context.Context, req *wsRequest) string {
	switch req.Op {
	case "positions":
		s.stage.Move(req.Positions)

	case "node":
		if req.Node == nil || req.Node.ID == "" {
			return "node with id is required"
		}
		if err := s.stage.UpsertNode(req.Node.node()); err != nil {
			return err.Error()
		}
		s.publish(ctx, events.TopicSceneUpdated, events.SceneUpdated{Op: "node.upsert", NodeID: req.Node.ID})

	case "remove":
		if req.ID == "" {
			return "id is required"
		}
		if s.stage.RemoveNode(req.ID) {
			s.publish(ctx, events.TopicSceneUpdated, events.SceneUpdated{Op: "node.remove", NodeID: req.ID})
		}

	case "link":
		if req.Source == "" || req.Target == "" {
			return "source and target are required"
		}
		added, err := s.stage.Link(req.Source, req.Target)
		if err != nil {
			return err.Error()
		}
		if added {
			s.publish(ctx, events.TopicSceneUpdated, events.SceneUpdated{
				Op:     "link",
				Source: req.Source,
				Target: req.Target,
			})
		}

	case "unlink":
		if req.Source == "" || req.Target == "" {
			return "source and target are required"
		}
		if s.stage.Unlink(req.Source, req.Target) {
			s.publish(ctx, events.TopicSceneUpdated, events.SceneUpdated{
				Op:     "unlink",
				Source: req.Source,
				Target: req.Target,
			})
		}

	case "viewport":
		if req.Camera == nil {
			return "camera is required"
		}
		if err := s.stage.SetCamera(*req.Camera); err != nil {
			return err.Error()
		}
		s.publish(ctx, events.TopicSceneUpdated, events.SceneUpdated{Op: "viewport"})

	default:
		return fmt.Sprintf("unknown op %q", req.Op)
	}
	return ""
}
