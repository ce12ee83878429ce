// Package metrics holds the Prometheus collectors for the overlay engine and
// its transport surfaces. Collectors register on the default registry; the
// server exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linklens_frames_total",
		Help: "Loop driver ticks processed",
	})

	SyncSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "linklens_sync_seconds",
		Help:    "Time spent in a structural sync pass",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})

	OverlayEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "linklens_overlay_entries",
		Help: "Overlay entries currently tracked",
	})

	LegendEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "linklens_legend_entries",
		Help: "Legend rows currently live",
	})

	ResolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linklens_resolve_total",
		Help: "Classification lookups by outcome",
	}, []string{"outcome"}) // labeled, none, error

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linklens_events_published_total",
		Help: "Events published by topic",
	}, []string{"topic"})

	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "linklens_ws_clients",
		Help: "Connected WebSocket feeders",
	})
)
