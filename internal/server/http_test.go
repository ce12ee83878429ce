package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/groblegark/linklens/internal/driver"
	"github.com/groblegark/linklens/internal/events"
	"github.com/groblegark/linklens/internal/legend"
	"github.com/groblegark/linklens/internal/linkstore"
	"github.com/groblegark/linklens/internal/model"
	"github.com/groblegark/linklens/internal/overlay"
	"github.com/groblegark/linklens/internal/resolver"
	"github.com/groblegark/linklens/internal/scene"
)

// newTestServer wires a full in-memory stack: stage, engine resolving from
// the memory link store, driver with a long interval (tests step manually)
// and a hub serving as the only publisher.
func newTestServer() (*Server, http.Handler) {
	stage := scene.NewStage()
	hub := events.NewHub()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	links := linkstore.NewMemory()
	eng := overlay.NewEngine(stage, resolver.NewStore(links), legend.NewAllocator(stage, nil, ""), hub, logger)
	drv := driver.New(stage, eng, hub, logger, driver.Config{Interval: time.Hour, SyncEvery: 1})
	srv := New(Deps{
		Stage:     stage,
		Engine:    eng,
		Driver:    drv,
		Links:     links,
		Publisher: hub,
		Hub:       hub,
		Logger:    logger,
	})
	return srv, srv.NewHTTPHandler("")
}

// doJSON performs an HTTP request with an optional JSON body and returns the recorder.
func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// requireStatus asserts the recorder has the expected HTTP status code.
func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("expected status %d, got %d; body: %s", code, rec.Code, rec.Body.String())
	}
}

// decodeJSON decodes the recorder's response body into v.
func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

// seedScene creates three nodes through the API.
func seedScene(t *testing.T, h http.Handler) {
	t.Helper()
	for _, n := range []map[string]any{
		{"id": "a", "x": 0.0, "y": 0.0},
		{"id": "b", "x": 10.0, "y": 0.0},
		{"id": "c", "x": 0.0, "y": 10.0},
	} {
		requireStatus(t, doJSON(t, h, "POST", "/v1/nodes", n), 200)
	}
}

func TestHandleHTTPErrors(t *testing.T) {
	for _, tc := range []struct {
		name      string
		method    string
		path      string
		body      any
		code      int
		wantError string
	}{
		{"UpsertNode/MissingID", "POST", "/v1/nodes", map[string]any{"x": 1.0}, 400, "id is required"},
		{"UpsertNode/BadBody", "POST", "/v1/nodes", "not an object", 400, "invalid JSON body"},
		{"RemoveNode/NotFound", "DELETE", "/v1/nodes/nonexistent", nil, 404, "node not found"},
		{"Link/MissingSource", "POST", "/v1/edges", map[string]any{"target": "b"}, 400, "source is required"},
		{"Link/MissingTarget", "POST", "/v1/edges", map[string]any{"source": "a"}, 400, "target is required"},
		{"Link/UnknownNode", "POST", "/v1/edges", map[string]any{"source": "a", "target": "b"}, 404, ""},
		{"Unlink/NotFound", "DELETE", "/v1/edges/a/b", nil, 404, "edge not found"},
		{"Viewport/BadScale", "PATCH", "/v1/viewport", map[string]any{"scale": -2.0}, 400, ""},
		{"Viewport/BadBody", "PATCH", "/v1/viewport", "x", 400, "invalid JSON body"},
		{"Settings/BadBody", "PATCH", "/v1/settings", "x", 400, "invalid JSON body"},
		{"PutLink/MissingSource", "POST", "/v1/links", map[string]any{"target": "b", "type": "parent"}, 400, "source is required"},
		{"PutLink/MissingType", "POST", "/v1/links", map[string]any{"source": "a", "target": "b"}, 400, "type must be 1-50 characters"},
		{"DeleteLink/NotFound", "DELETE", "/v1/links/a/b", nil, 404, "link not found"},
		{"RulesReload/NotConfigured", "POST", "/v1/rules/reload", nil, 409, "no rules source configured"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, h := newTestServer()
			rec := doJSON(t, h, tc.method, tc.path, tc.body)
			requireStatus(t, rec, tc.code)
			if tc.wantError != "" {
				var body map[string]string
				decodeJSON(t, rec, &body)
				if body["error"] != tc.wantError {
					t.Fatalf("expected error=%q, got %q", tc.wantError, body["error"])
				}
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	_, h := newTestServer()
	rec := doJSON(t, h, "GET", "/v1/health", nil)
	requireStatus(t, rec, 200)
	var st model.Status
	decodeJSON(t, rec, &st)
	if st.Status != "ok" {
		t.Fatalf("expected status=ok, got %q", st.Status)
	}
	if st.Nodes != 0 || st.Edges != 0 || st.Tracked != 0 {
		t.Fatalf("expected empty counts, got %+v", st)
	}
	if st.LoopRunning {
		t.Fatal("expected loop to be stopped")
	}
}

func TestHandleUpsertNode(t *testing.T) {
	_, h := newTestServer()
	rec := doJSON(t, h, "POST", "/v1/nodes", map[string]any{"id": "a", "x": 1.5, "y": 2.5})
	requireStatus(t, rec, 200)
	var n model.Node
	decodeJSON(t, rec, &n)
	if n.ID != "a" || n.X != 1.5 || n.Y != 2.5 {
		t.Fatalf("got node %+v", n)
	}
	if n.Weight != 1 {
		t.Fatalf("expected weight defaulted to 1, got %v", n.Weight)
	}
	if n.LabelOpacity != model.OpacityUnknown {
		t.Fatalf("expected label opacity unknown, got %v", n.LabelOpacity)
	}
}

func TestHandleUpsertNode_ZeroOpacityIsKnown(t *testing.T) {
	_, h := newTestServer()
	rec := doJSON(t, h, "POST", "/v1/nodes", map[string]any{"id": "a", "label_opacity": 0.0})
	requireStatus(t, rec, 200)
	var n model.Node
	decodeJSON(t, rec, &n)
	if n.LabelOpacity != 0 {
		t.Fatalf("expected label opacity 0, got %v", n.LabelOpacity)
	}
}

func TestHandleRemoveNode(t *testing.T) {
	_, h := newTestServer()
	seedScene(t, h)
	requireStatus(t, doJSON(t, h, "POST", "/v1/edges", map[string]any{"source": "a", "target": "b"}), 200)

	requireStatus(t, doJSON(t, h, "DELETE", "/v1/nodes/a", nil), 204)
	requireStatus(t, doJSON(t, h, "DELETE", "/v1/nodes/a", nil), 404)

	// Edges touching the node are gone too.
	rec := doJSON(t, h, "GET", "/v1/scene", nil)
	requireStatus(t, rec, 200)
	var snap model.SceneSnapshot
	decodeJSON(t, rec, &snap)
	if len(snap.Nodes) != 2 || len(snap.Edges) != 0 {
		t.Fatalf("expected 2 nodes and 0 edges, got %d nodes %d edges", len(snap.Nodes), len(snap.Edges))
	}
}

func TestHandleLinkAndUnlink(t *testing.T) {
	_, h := newTestServer()
	seedScene(t, h)

	rec := doJSON(t, h, "POST", "/v1/edges", map[string]any{"source": "a", "target": "b"})
	requireStatus(t, rec, 200)
	var result map[string]bool
	decodeJSON(t, rec, &result)
	if !result["added"] {
		t.Fatal("expected added=true")
	}

	// Linking the same pair again is a no-op.
	rec = doJSON(t, h, "POST", "/v1/edges", map[string]any{"source": "a", "target": "b"})
	requireStatus(t, rec, 200)
	decodeJSON(t, rec, &result)
	if result["added"] {
		t.Fatal("expected added=false on duplicate link")
	}

	requireStatus(t, doJSON(t, h, "DELETE", "/v1/edges/a/b", nil), 204)
	requireStatus(t, doJSON(t, h, "DELETE", "/v1/edges/a/b", nil), 404)
}

func TestHandleGetScene(t *testing.T) {
	_, h := newTestServer()
	seedScene(t, h)
	requireStatus(t, doJSON(t, h, "POST", "/v1/edges", map[string]any{"source": "a", "target": "b"}), 200)

	rec := doJSON(t, h, "GET", "/v1/scene", nil)
	requireStatus(t, rec, 200)
	var snap model.SceneSnapshot
	decodeJSON(t, rec, &snap)
	if len(snap.Nodes) != 3 || len(snap.Edges) != 1 {
		t.Fatalf("expected 3 nodes and 1 edge, got %d nodes %d edges", len(snap.Nodes), len(snap.Edges))
	}
	if snap.Camera.Scale != 1 || snap.Camera.NodeScale != 1 {
		t.Fatalf("expected identity camera, got %+v", snap.Camera)
	}
}

func TestHandleUpdateViewport(t *testing.T) {
	_, h := newTestServer()

	rec := doJSON(t, h, "PATCH", "/v1/viewport", map[string]any{"scale": 2.0})
	requireStatus(t, rec, 200)
	var cam model.Camera
	decodeJSON(t, rec, &cam)
	if cam.Scale != 2 || cam.NodeScale != 1 {
		t.Fatalf("expected scale=2 node_scale=1, got %+v", cam)
	}

	// A later partial patch keeps the earlier value.
	rec = doJSON(t, h, "PATCH", "/v1/viewport", map[string]any{"pan_x": 5.0})
	requireStatus(t, rec, 200)
	decodeJSON(t, rec, &cam)
	if cam.PanX != 5 || cam.Scale != 2 {
		t.Fatalf("expected pan_x=5 scale=2, got %+v", cam)
	}
}

func TestHandleOverlayAndLegend(t *testing.T) {
	srv, h := newTestServer()
	seedScene(t, h)
	requireStatus(t, doJSON(t, h, "POST", "/v1/links", map[string]any{"source": "a", "target": "b", "type": "parent"}), 201)
	requireStatus(t, doJSON(t, h, "POST", "/v1/edges", map[string]any{"source": "a", "target": "b"}), 200)
	requireStatus(t, doJSON(t, h, "POST", "/v1/edges", map[string]any{"source": "a", "target": "c"}), 200)

	if !srv.driver.Step(context.Background()) {
		t.Fatal("driver step failed")
	}

	rec := doJSON(t, h, "GET", "/v1/overlay", nil)
	requireStatus(t, rec, 200)
	var ov struct {
		Entries []model.OverlayEntry `json:"entries"`
		Total   int                  `json:"total"`
	}
	decodeJSON(t, rec, &ov)
	if ov.Total != 2 || len(ov.Entries) != 2 {
		t.Fatalf("expected 2 entries, got total=%d len=%d", ov.Total, len(ov.Entries))
	}
	// Entries come back sorted by source then target.
	if ov.Entries[0].Type != "parent" || ov.Entries[0].Color != legend.DefaultPalette[0] {
		t.Fatalf("expected a->b classified parent with first palette color, got %+v", ov.Entries[0])
	}
	if ov.Entries[1].Type != "" || ov.Entries[1].Color != "" {
		t.Fatalf("expected a->c unclassified, got %+v", ov.Entries[1])
	}

	rec = doJSON(t, h, "GET", "/v1/legend", nil)
	requireStatus(t, rec, 200)
	var lg struct {
		Rows  []model.LegendRow `json:"rows"`
		Total int               `json:"total"`
	}
	decodeJSON(t, rec, &lg)
	if lg.Total != 1 || len(lg.Rows) != 1 {
		t.Fatalf("expected 1 legend row, got total=%d len=%d", lg.Total, len(lg.Rows))
	}
	if lg.Rows[0].Label != "parent" || lg.Rows[0].UseCount != 1 {
		t.Fatalf("got legend row %+v", lg.Rows[0])
	}

	// Health reflects the tracked state.
	rec = doJSON(t, h, "GET", "/v1/health", nil)
	requireStatus(t, rec, 200)
	var st model.Status
	decodeJSON(t, rec, &st)
	if st.Tracked != 2 || st.LegendRows != 1 {
		t.Fatalf("expected tracked=2 legend_rows=1, got %+v", st)
	}
}

func TestHandleSettings(t *testing.T) {
	_, h := newTestServer()

	rec := doJSON(t, h, "GET", "/v1/settings", nil)
	requireStatus(t, rec, 200)
	var s model.Settings
	decodeJSON(t, rec, &s)
	if !s.ColorMode || !s.ShowLabels || !s.ShowLegend {
		t.Fatalf("expected all defaults on, got %+v", s)
	}

	rec = doJSON(t, h, "PATCH", "/v1/settings", map[string]any{"show_labels": false})
	requireStatus(t, rec, 200)
	decodeJSON(t, rec, &s)
	if s.ShowLabels {
		t.Fatal("expected show_labels off")
	}
	if !s.ColorMode || !s.ShowLegend {
		t.Fatalf("expected untouched fields to keep their value, got %+v", s)
	}

	rec = doJSON(t, h, "GET", "/v1/settings", nil)
	requireStatus(t, rec, 200)
	decodeJSON(t, rec, &s)
	if s.ShowLabels {
		t.Fatal("expected patched settings to persist")
	}
}

func TestHandleLoopLifecycle(t *testing.T) {
	_, h := newTestServer()

	rec := doJSON(t, h, "POST", "/v1/loop/restart", nil)
	requireStatus(t, rec, 200)
	var state map[string]any
	decodeJSON(t, rec, &state)
	if state["running"] != true {
		t.Fatalf("expected running=true, got %v", state["running"])
	}

	rec = doJSON(t, h, "POST", "/v1/loop/stop", nil)
	requireStatus(t, rec, 200)
	decodeJSON(t, rec, &state)
	if state["running"] != false {
		t.Fatalf("expected running=false, got %v", state["running"])
	}
}

func TestHandleLoopRestart_RendererGone(t *testing.T) {
	srv, h := newTestServer()
	srv.stage.Close()

	rec := doJSON(t, h, "POST", "/v1/loop/restart", nil)
	requireStatus(t, rec, 409)
}

func TestHandleLinksCRUD(t *testing.T) {
	_, h := newTestServer()

	rec := doJSON(t, h, "POST", "/v1/links", map[string]any{"source": "a", "target": "b", "type": "parent", "created_by": "alice"})
	requireStatus(t, rec, 201)
	var link model.Link
	decodeJSON(t, rec, &link)
	if link.Type != model.LinkParent || link.CreatedBy != "alice" {
		t.Fatalf("got link %+v", link)
	}
	if link.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}

	rec = doJSON(t, h, "GET", "/v1/links", nil)
	requireStatus(t, rec, 200)
	var list struct {
		Links []model.Link `json:"links"`
		Total int          `json:"total"`
	}
	decodeJSON(t, rec, &list)
	if list.Total != 1 || len(list.Links) != 1 {
		t.Fatalf("expected 1 link, got total=%d len=%d", list.Total, len(list.Links))
	}

	requireStatus(t, doJSON(t, h, "DELETE", "/v1/links/a/b", nil), 204)
	requireStatus(t, doJSON(t, h, "DELETE", "/v1/links/a/b", nil), 404)
}

func TestHandleRulesReload(t *testing.T) {
	srv, h := newTestServer()
	srv.reload = func(context.Context) (events.RulesReloaded, error) {
		return events.RulesReloaded{Source: "rules.toml", Links: 2, Prefixes: 1}, nil
	}

	rec := doJSON(t, h, "POST", "/v1/rules/reload", nil)
	requireStatus(t, rec, 200)
	var summary events.RulesReloaded
	decodeJSON(t, rec, &summary)
	if summary.Source != "rules.toml" || summary.Links != 2 || summary.Prefixes != 1 {
		t.Fatalf("got summary %+v", summary)
	}

	srv.reload = func(context.Context) (events.RulesReloaded, error) {
		return events.RulesReloaded{}, errors.New("fetch rules from rules.toml: no such file")
	}
	rec = doJSON(t, h, "POST", "/v1/rules/reload", nil)
	requireStatus(t, rec, 500)
}

func TestMutationsPublishSceneEvents(t *testing.T) {
	srv, h := newTestServer()
	sub := srv.hub.Subscribe([]string{events.TopicSceneUpdated})
	defer srv.hub.Unsubscribe(sub)

	requireStatus(t, doJSON(t, h, "POST", "/v1/nodes", map[string]any{"id": "a"}), 200)

	select {
	case evt := <-sub.C():
		var upd events.SceneUpdated
		if err := json.Unmarshal(evt.Data, &upd); err != nil {
			t.Fatalf("failed to decode event: %v", err)
		}
		if upd.Op != "node.upsert" || upd.NodeID != "a" {
			t.Fatalf("got event %+v", upd)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for scene event")
	}
}
