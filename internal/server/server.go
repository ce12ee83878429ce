// Package server exposes the scene and its overlay over HTTP: JSON endpoints
// for structure and inspection, an SSE stream for lifecycle events, and a
// WebSocket feed for continuous position data.
package server

import (
	"context"
	"log/slog"

	"github.com/groblegark/linklens/internal/driver"
	"github.com/groblegark/linklens/internal/events"
	"github.com/groblegark/linklens/internal/linkstore"
	"github.com/groblegark/linklens/internal/metrics"
	"github.com/groblegark/linklens/internal/overlay"
	"github.com/groblegark/linklens/internal/scene"
)

// ReloadFunc re-reads the classification rules document and reports what was
// loaded. The serve command binds this to the configured rules source; the
// reload endpoint and the file watcher both go through it.
type ReloadFunc func(ctx context.Context) (events.RulesReloaded, error)

// Server holds the collaborators behind the HTTP surface. All handlers are
// read-mostly; mutations go to the stage, the driver or the link store, never
// directly to the overlay engine.
type Server struct {
	stage     *scene.Stage
	engine    *overlay.Engine
	driver    *driver.Driver
	links     linkstore.Store
	publisher events.Publisher
	hub       *events.Hub
	reload    ReloadFunc
	logger    *slog.Logger
}

// Deps carries the collaborators a Server needs. Publisher defaults to the
// hub, Hub to a fresh one and Logger to slog.Default; Reload may stay nil
// when no rules source is configured.
type Deps struct {
	Stage     *scene.Stage
	Engine    *overlay.Engine
	Driver    *driver.Driver
	Links     linkstore.Store
	Publisher events.Publisher
	Hub       *events.Hub
	Reload    ReloadFunc
	Logger    *slog.Logger
}

// New returns a Server wired to the given collaborators.
func New(d Deps) *Server {
	if d.Hub == nil {
		d.Hub = events.NewHub()
	}
	if d.Publisher == nil {
		d.Publisher = d.Hub
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Server{
		stage:     d.Stage,
		engine:    d.Engine,
		driver:    d.Driver,
		links:     d.Links,
		publisher: d.Publisher,
		hub:       d.Hub,
		reload:    d.Reload,
		logger:    d.Logger,
	}
}

// publish sends an event best-effort; failures are logged and never block
// the request that triggered them.
func (s *Server) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "error", err)
		return
	}
	metrics.EventsPublished.WithLabelValues(topic).Inc()
}
