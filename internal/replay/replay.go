// Package replay encodes scene activity as a JSONL frame stream and plays
// it back. A stream opens with a header record; every following line is one
// frame of node, link, and camera changes.
package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/groblegark/linklens/internal/model"
	"github.com/groblegark/linklens/internal/scene"
)

const streamVersion = "1"

// Header is the first JSONL record of a stream.
type Header struct {
	Version   string    `json:"version"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// Frame is one tick's worth of scene input. Upserted nodes carry their full
// state, so movement is just an upsert with new coordinates.
type Frame struct {
	Tick        uint64          `json:"tick"`
	Nodes       []model.Node    `json:"nodes,omitempty"`
	Remove      []string        `json:"remove,omitempty"`
	LinksAdd    []model.EdgeKey `json:"links_add,omitempty"`
	LinksRemove []model.EdgeKey `json:"links_remove,omitempty"`
	Camera      *model.Camera   `json:"camera,omitempty"`
}

// SnapshotFrame converts a full scene snapshot into a single frame that
// recreates it.
func SnapshotFrame(snap model.SceneSnapshot) Frame {
	cam := snap.Camera
	return Frame{
		Nodes:    snap.Nodes,
		LinksAdd: snap.Edges,
		Camera:   &cam,
	}
}

// Writer emits a JSONL frame stream.
type Writer struct {
	enc *json.Encoder
}

// NewWriter starts a stream on w by writing the header line.
func NewWriter(w io.Writer) (*Writer, error) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	h := Header{Version: streamVersion, Type: "header", CreatedAt: time.Now().UTC()}
	if err := enc.Encode(h); err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	return &Writer{enc: enc}, nil
}

// Write appends one frame to the stream.
func (w *Writer) Write(f Frame) error {
	if err := w.enc.Encode(f); err != nil {
		return fmt.Errorf("encode frame %d: %w", f.Tick, err)
	}
	return nil
}

// Reader decodes a JSONL frame stream.
type Reader struct {
	dec *json.Decoder
}

func NewReader(r io.Reader) *Reader {
	return &Reader{dec: json.NewDecoder(r)}
}

// Header reads and validates the stream header. Call it once, before Next.
func (r *Reader) Header() (Header, error) {
	var h Header
	if err := r.dec.Decode(&h); err != nil {
		return Header{}, fmt.Errorf("decode header: %w", err)
	}
	if h.Type != "header" {
		return Header{}, errors.New("stream does not open with a header record")
	}
	if h.Version != streamVersion {
		return Header{}, fmt.Errorf("unsupported stream version %q", h.Version)
	}
	return h, nil
}

// Next returns the following frame. io.EOF ends the stream.
func (r *Reader) Next() (Frame, error) {
	var f Frame
	if err := r.dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	return f, nil
}

// Apply feeds one frame into the stage: upserts, then node removals, then
// link changes, then the camera.
func Apply(st *scene.Stage, f Frame) error {
	for _, n := range f.Nodes {
		if err := st.UpsertNode(n); err != nil {
			return fmt.Errorf("frame %d: %w", f.Tick, err)
		}
	}
	for _, id := range f.Remove {
		st.RemoveNode(id)
	}
	for _, k := range f.LinksAdd {
		if _, err := st.Link(k.Source, k.Target); err != nil {
			return fmt.Errorf("frame %d: %w", f.Tick, err)
		}
	}
	for _, k := range f.LinksRemove {
		st.Unlink(k.Source, k.Target)
	}
	if f.Camera != nil {
		if err := st.SetCamera(*f.Camera); err != nil {
			return fmt.Errorf("frame %d: %w", f.Tick, err)
		}
	}
	return nil
}
