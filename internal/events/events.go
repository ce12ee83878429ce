// Package events defines the overlay lifecycle event bus: topic names,
// payload shapes, and the publisher/subscriber interfaces with NATS and
// in-process implementations. Publishing is best-effort everywhere; a failed
// publish is logged by the caller and never fails the operation.
package events

import "context"

// Event topic constants
const (
	TopicOverlayAdded   = "linklens.overlay.added"
	TopicOverlayRemoved = "linklens.overlay.removed"
	TopicLegendAcquired = "linklens.legend.acquired"
	TopicLegendReleased = "linklens.legend.released"

	// Loop lifecycle events
	TopicLoopStarted = "linklens.loop.started"
	TopicLoopStopped = "linklens.loop.stopped"

	// Input-side events (scene structure, settings and rules; never per-frame motion)
	TopicSceneUpdated    = "linklens.scene.updated"
	TopicRulesReloaded   = "linklens.rules.reloaded"
	TopicSettingsApplied = "linklens.settings.applied"
)

// Event types

type OverlayAdded struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type,omitempty"`
	Pair   string `json:"pair"`
	Color  string `json:"color,omitempty"`
}

type OverlayRemoved struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type,omitempty"`
}

type LegendAcquired struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

type LegendReleased struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

type LoopStarted struct {
	Interval  string `json:"interval"`
	SyncEvery int    `json:"sync_every"`
}

type LoopStopped struct {
	Reason string `json:"reason"`
	Frames uint64 `json:"frames"`
}

type SceneUpdated struct {
	Op     string `json:"op"` // node.upsert, node.remove, link, unlink, viewport
	NodeID string `json:"node_id,omitempty"`
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
}

type RulesReloaded struct {
	Source   string `json:"source"`
	Links    int    `json:"links"`
	Prefixes int    `json:"prefixes"`
}

type SettingsApplied struct {
	ColorMode  bool `json:"color_mode"`
	ShowLabels bool `json:"show_labels"`
	ShowLegend bool `json:"show_legend"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers raw event payloads on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}

// NoopPublisher is a Publisher that does nothing. The engine and driver fall
// back to it when constructed without a publisher.
type NoopPublisher struct{}

func (n *NoopPublisher) Publish(ctx context.Context, topic string, event any) error {
	return nil
}

func (n *NoopPublisher) Close() error {
	return nil
}

// Fanout publishes every event to each member publisher. All members are
// attempted even when one fails; the first error is returned.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, topic string, event any) error {
	var firstErr error
	for _, p := range f {
		if err := p.Publish(ctx, topic, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f Fanout) Close() error {
	var firstErr error
	for _, p := range f {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
