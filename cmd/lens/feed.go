package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/groblegark/linklens/internal/model"
	"github.com/groblegark/linklens/internal/replay"
	"github.com/groblegark/linklens/internal/scene"
)

// feedMsg mirrors the server's scene feed message shape.
type feedMsg struct {
	Op        string           `json:"op"`
	Positions []scene.Position `json:"positions,omitempty"`
	Node      *model.Node      `json:"node,omitempty"`
	ID        string           `json:"id,omitempty"`
	Source    string           `json:"source,omitempty"`
	Target    string           `json:"target,omitempty"`
	Camera    *model.Camera    `json:"camera,omitempty"`
}

var feedCmd = &cobra.Command{
	Use:     "feed [file]",
	Short:   "Stream a replay file into the server scene",
	GroupID: "scene",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")

		in := os.Stdin
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()
			in = f
		}

		r := replay.NewReader(in)
		if _, err := r.Header(); err != nil {
			return fmt.Errorf("reading stream: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		conn, err := dialFeed(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()

		var hello struct {
			Session string `json:"session"`
		}
		if err := conn.ReadJSON(&hello); err != nil {
			return fmt.Errorf("reading session greeting: %w", err)
		}
		fmt.Printf("Connected (session %s)\n", hello.Session)

		// Drain replies so server errors surface without blocking sends.
		go func() {
			for {
				var reply struct {
					Error string `json:"error"`
				}
				if err := conn.ReadJSON(&reply); err != nil {
					return
				}
				if reply.Error != "" {
					log.Printf("server: %s", reply.Error)
				}
			}
		}()

		known := make(map[string]model.Node)
		frames := 0
		for {
			frame, err := r.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return err
			}
			for _, msg := range frameOps(frame, known) {
				if err := conn.WriteJSON(msg); err != nil {
					return fmt.Errorf("sending frame %d: %w", frame.Tick, err)
				}
			}
			frames++

			select {
			case <-ctx.Done():
				fmt.Printf("Fed %d frames\n", frames)
				return nil
			case <-time.After(interval):
			}
		}
		fmt.Printf("Fed %d frames\n", frames)
		return nil
	},
}

// dialFeed opens the scene feed socket, translating the configured server URL
// to its ws:// equivalent.
func dialFeed(ctx context.Context) (*websocket.Conn, error) {
	wsURL := serverURL
	switch {
	case strings.HasPrefix(wsURL, "https://"):
		wsURL = "wss://" + strings.TrimPrefix(wsURL, "https://")
	case strings.HasPrefix(wsURL, "http://"):
		wsURL = "ws://" + strings.TrimPrefix(wsURL, "http://")
	}
	wsURL += "/v1/scene/ws"

	header := http.Header{}
	if authToken != "" {
		header.Set("Authorization", "Bearer "+authToken)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", wsURL, err)
	}
	return conn, nil
}

// frameOps converts one replay frame into feed messages. Nodes already seen
// with unchanged weight and opacity collapse into a single positions batch;
// everything else follows the frame's order: nodes, removals, links, unlinks,
// camera.
func frameOps(f replay.Frame, known map[string]model.Node) []feedMsg {
	var msgs []feedMsg

	var moves []scene.Position
	for _, n := range f.Nodes {
		prev, ok := known[n.ID]
		if ok && prev.Weight == n.Weight && prev.LabelOpacity == n.LabelOpacity {
			moves = append(moves, scene.Position{ID: n.ID, X: n.X, Y: n.Y})
		} else {
			node := n
			msgs = append(msgs, feedMsg{Op: "node", Node: &node})
		}
		known[n.ID] = n
	}
	if len(moves) > 0 {
		msgs = append(msgs, feedMsg{Op: "positions", Positions: moves})
	}

	for _, id := range f.Remove {
		msgs = append(msgs, feedMsg{Op: "remove", ID: id})
		delete(known, id)
	}
	for _, k := range f.LinksAdd {
		msgs = append(msgs, feedMsg{Op: "link", Source: k.Source, Target: k.Target})
	}
	for _, k := range f.LinksRemove {
		msgs = append(msgs, feedMsg{Op: "unlink", Source: k.Source, Target: k.Target})
	}
	if f.Camera != nil {
		msgs = append(msgs, feedMsg{Op: "viewport", Camera: f.Camera})
	}
	return msgs
}

func init() {
	feedCmd.Flags().Duration("interval", 50*time.Millisecond, "delay between frames")
}
