package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/groblegark/linklens/internal/events"
	"github.com/groblegark/linklens/internal/model"
	"github.com/groblegark/linklens/internal/ui"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Watch the overlay for changes",
	GroupID: "scene",
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		once, _ := cmd.Flags().GetBool("once")
		topics, _ := cmd.Flags().GetString("topics")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		seen := make(map[model.EdgeKey]model.OverlayEntry)

		// Initial query.
		if err := queryAndPrint(ctx, seen); err != nil {
			return err
		}
		if once {
			return nil
		}

		// Event-driven when NATS is reachable, polling otherwise.
		if natsURL := os.Getenv("LINKLENS_NATS_URL"); natsURL != "" {
			return watchNATS(ctx, natsURL, topics, seen)
		}
		return watchPoll(ctx, interval, seen)
	},
}

// watchNATS subscribes to server events and re-queries on changes with debounce.
func watchNATS(ctx context.Context, natsURL, topics string, seen map[model.EdgeKey]model.OverlayEntry) error {
	// reconnectCh receives a signal when the NATS client reconnects after
	// a disconnect, so we can immediately re-query for missed events.
	reconnectCh := make(chan struct{}, 1)

	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats: disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("nats: reconnected")
			select {
			case reconnectCh <- struct{}{}:
			default:
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(topics)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer cancel()

	debounce := time.NewTimer(0)
	debounce.Stop()
	// Drain the timer channel in case it fired between NewTimer and Stop.
	select {
	case <-debounce.C:
	default:
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			debounce.Reset(200 * time.Millisecond)
		case <-reconnectCh:
			debounce.Reset(0) // immediate re-query
		case <-debounce.C:
			if err := queryAndPrint(ctx, seen); err != nil {
				return err
			}
		}
	}
}

// watchPoll polls for changes at the given interval.
func watchPoll(ctx context.Context, interval time.Duration, seen map[model.EdgeKey]model.OverlayEntry) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
		if err := queryAndPrint(ctx, seen); err != nil {
			return err
		}
	}
}

// queryAndPrint fetches the overlay, diffs against the seen map, and prints
// any changes.
func queryAndPrint(ctx context.Context, seen map[model.EdgeKey]model.OverlayEntry) error {
	resp, err := lensClient.GetOverlay(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	changed, removed := diffOverlay(resp.Entries, seen)
	if len(changed) == 0 && len(removed) == 0 {
		return nil
	}
	if jsonOutput {
		return printJSON(struct {
			Changed []model.OverlayEntry `json:"changed"`
			Removed []model.EdgeKey      `json:"removed,omitempty"`
		}{changed, removed})
	}
	for _, e := range changed {
		line := fmt.Sprintf("+ %s->%s", e.Source, e.Target)
		if e.Type != "" {
			line += "  " + e.Type
		}
		if e.Color != "" {
			line += "  " + ui.RenderHex(e.Color, e.Color)
		}
		if e.PairName != "" && e.PairName != "none" {
			line += "  (" + e.PairName + ")"
		}
		fmt.Println(line)
	}
	for _, k := range removed {
		fmt.Printf("- %s->%s\n", k.Source, k.Target)
	}
	return nil
}

// diffOverlay compares entries against the seen map and returns entries that
// are new or changed since last seen, plus keys that disappeared. It updates
// seen in place.
func diffOverlay(entries []model.OverlayEntry, seen map[model.EdgeKey]model.OverlayEntry) ([]model.OverlayEntry, []model.EdgeKey) {
	current := make(map[model.EdgeKey]bool, len(entries))
	var changed []model.OverlayEntry
	for _, e := range entries {
		key := model.EdgeKey{Source: e.Source, Target: e.Target}
		current[key] = true
		if prev, ok := seen[key]; !ok || prev != e {
			changed = append(changed, e)
		}
		seen[key] = e
	}

	var removed []model.EdgeKey
	for key := range seen {
		if !current[key] {
			removed = append(removed, key)
			delete(seen, key)
		}
	}
	sort.Slice(removed, func(i, j int) bool {
		if removed[i].Source != removed[j].Source {
			return removed[i].Source < removed[j].Source
		}
		return removed[i].Target < removed[j].Target
	})
	return changed, removed
}

func init() {
	watchCmd.Flags().Duration("interval", 5*time.Second, "polling interval")
	watchCmd.Flags().Bool("once", false, "exit after first query")
	watchCmd.Flags().String("topics", "linklens.>", "NATS subject filter for event-driven mode")
}
