package main

import (
	"testing"

	"github.com/groblegark/linklens/internal/model"
	"github.com/groblegark/linklens/internal/replay"
)

func TestFrameOps_NewNodes(t *testing.T) {
	known := make(map[string]model.Node)
	f := replay.Frame{
		Nodes: []model.Node{
			{ID: "a", X: 1, Y: 2, Weight: 1},
			{ID: "b", X: 3, Y: 4, Weight: 2},
		},
	}

	msgs := frameOps(f, known)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	for i, msg := range msgs {
		if msg.Op != "node" {
			t.Errorf("msgs[%d].Op = %q, want %q", i, msg.Op, "node")
		}
	}
	if len(known) != 2 {
		t.Fatalf("got %d known nodes, want 2", len(known))
	}
}

func TestFrameOps_KnownNodesBecomePositions(t *testing.T) {
	known := make(map[string]model.Node)
	frameOps(replay.Frame{
		Nodes: []model.Node{
			{ID: "a", X: 1, Y: 2, Weight: 1},
			{ID: "b", X: 3, Y: 4, Weight: 2},
		},
	}, known)

	msgs := frameOps(replay.Frame{
		Nodes: []model.Node{
			{ID: "a", X: 10, Y: 20, Weight: 1},
			{ID: "b", X: 30, Y: 40, Weight: 2},
		},
	}, known)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if msgs[0].Op != "positions" {
		t.Fatalf("got op %q, want %q", msgs[0].Op, "positions")
	}
	if len(msgs[0].Positions) != 2 {
		t.Fatalf("got %d positions, want 2", len(msgs[0].Positions))
	}
	if msgs[0].Positions[0].X != 10 {
		t.Errorf("got X=%v, want 10", msgs[0].Positions[0].X)
	}
	if known["a"].X != 10 {
		t.Errorf("known map not updated, got X=%v", known["a"].X)
	}
}

func TestFrameOps_WeightChangeResendsNode(t *testing.T) {
	known := make(map[string]model.Node)
	frameOps(replay.Frame{
		Nodes: []model.Node{{ID: "a", X: 1, Y: 2, Weight: 1}},
	}, known)

	msgs := frameOps(replay.Frame{
		Nodes: []model.Node{{ID: "a", X: 1, Y: 2, Weight: 5}},
	}, known)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if msgs[0].Op != "node" {
		t.Fatalf("got op %q, want %q", msgs[0].Op, "node")
	}
	if msgs[0].Node.Weight != 5 {
		t.Errorf("got weight %v, want 5", msgs[0].Node.Weight)
	}
}

func TestFrameOps_OpacityChangeResendsNode(t *testing.T) {
	known := make(map[string]model.Node)
	frameOps(replay.Frame{
		Nodes: []model.Node{{ID: "a", LabelOpacity: 1}},
	}, known)

	msgs := frameOps(replay.Frame{
		Nodes: []model.Node{{ID: "a", LabelOpacity: 0.5}},
	}, known)
	if len(msgs) != 1 || msgs[0].Op != "node" {
		t.Fatalf("got %v, want a single node op", msgs)
	}
}

func TestFrameOps_OpOrder(t *testing.T) {
	known := map[string]model.Node{
		"old": {ID: "old", X: 0, Y: 0},
		"bye": {ID: "bye"},
	}
	f := replay.Frame{
		Nodes: []model.Node{
			{ID: "new", X: 1, Y: 1},
			{ID: "old", X: 2, Y: 2},
		},
		Remove:      []string{"bye"},
		LinksAdd:    []model.EdgeKey{{Source: "new", Target: "old"}},
		LinksRemove: []model.EdgeKey{{Source: "old", Target: "bye"}},
		Camera:      &model.Camera{Scale: 2},
	}

	msgs := frameOps(f, known)
	want := []string{"node", "positions", "remove", "link", "unlink", "viewport"}
	if len(msgs) != len(want) {
		t.Fatalf("got %d messages, want %d", len(msgs), len(want))
	}
	for i, op := range want {
		if msgs[i].Op != op {
			t.Errorf("msgs[%d].Op = %q, want %q", i, msgs[i].Op, op)
		}
	}
	if _, ok := known["bye"]; ok {
		t.Error("removed node still in known map")
	}
}

func TestFrameOps_CameraOnly(t *testing.T) {
	known := make(map[string]model.Node)
	msgs := frameOps(replay.Frame{Camera: &model.Camera{Scale: 1.5}}, known)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if msgs[0].Op != "viewport" {
		t.Errorf("got op %q, want %q", msgs[0].Op, "viewport")
	}
	if msgs[0].Camera.Scale != 1.5 {
		t.Errorf("got scale %v, want 1.5", msgs[0].Camera.Scale)
	}
}

func TestFrameOps_EmptyFrame(t *testing.T) {
	known := make(map[string]model.Node)
	if msgs := frameOps(replay.Frame{}, known); len(msgs) != 0 {
		t.Fatalf("got %d messages for an empty frame, want 0", len(msgs))
	}
}
