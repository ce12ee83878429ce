// Package driver runs the per-frame update loop. Every frame re-reads the
// scene's edge snapshots and refreshes overlay geometry; every syncEvery-th
// frame a structural sync runs first so tracked entries follow what the
// scene actually draws. The loop can be stopped and restarted at runtime;
// a renderer that goes away stops it on its own.
package driver

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/groblegark/linklens/internal/events"
	"github.com/groblegark/linklens/internal/metrics"
	"github.com/groblegark/linklens/internal/model"
	"github.com/groblegark/linklens/internal/overlay"
	"github.com/groblegark/linklens/internal/scene"
)

const (
	DefaultInterval  = 50 * time.Millisecond
	DefaultSyncEvery = 10
)

// ErrRendererUnavailable is returned by Restart when the scene can no longer
// host overlay elements.
var ErrRendererUnavailable = errors.New("renderer unavailable")

// Config tunes the loop. Zero values fall back to the defaults.
type Config struct {
	// Interval is the frame period.
	Interval time.Duration

	// SyncEvery is how many frames pass between structural syncs.
	SyncEvery int
}

// Driver owns the loop goroutine and the live settings toggles.
type Driver struct {
	renderer  scene.Renderer
	engine    *overlay.Engine
	publisher events.Publisher
	logger    *slog.Logger
	interval  time.Duration
	syncEvery int

	mu       sync.Mutex
	settings model.Settings
	running  bool
	frame    uint64
	stop     chan struct{}
	done     chan struct{}
}

// New creates a stopped driver with default settings (everything visible).
func New(r scene.Renderer, eng *overlay.Engine, pub events.Publisher, logger *slog.Logger, cfg Config) *Driver {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.SyncEvery <= 0 {
		cfg.SyncEvery = DefaultSyncEvery
	}
	if pub == nil {
		pub = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		renderer:  r,
		engine:    eng,
		publisher: pub,
		logger:    logger,
		interval:  cfg.Interval,
		syncEvery: cfg.SyncEvery,
		settings:  model.DefaultSettings(),
	}
}

// Start launches the frame loop. Starting a running driver is a no-op.
func (d *Driver) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.frame = 0
	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	stop, done := d.stop, d.done
	d.mu.Unlock()

	go d.run(ctx, stop, done)
	d.logger.Info("update loop started", "interval", d.interval, "sync_every", d.syncEvery)
	d.publish(ctx, events.TopicLoopStarted, events.LoopStarted{
		Interval:  d.interval.String(),
		SyncEvery: d.syncEvery,
	})
}

// Stop halts the loop and waits for the in-flight frame to finish. Stopping
// a stopped driver is a no-op.
func (d *Driver) Stop(ctx context.Context) {
	d.mu.Lock()
	stop, done := d.stop, d.done
	d.stop = nil
	d.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
	d.halted(ctx, "requested")
}

// Restart tears down every overlay entry and legend row, then starts a fresh
// loop, so nothing is drawn twice. It fails when the renderer is gone — the
// one condition surfaced to the caller rather than swallowed.
func (d *Driver) Restart(ctx context.Context) error {
	if !d.renderer.Alive() {
		return ErrRendererUnavailable
	}
	d.Stop(ctx)
	d.engine.DestroyAll(ctx)
	d.Start(ctx)
	return nil
}

// Step runs one frame: a structural sync on every syncEvery-th frame, then a
// geometry refresh for each edge the scene currently draws. It reports false
// when the renderer has gone away, which ends the loop.
func (d *Driver) Step(ctx context.Context) bool {
	if !d.renderer.Alive() {
		return false
	}
	d.mu.Lock()
	frame := d.frame
	d.frame++
	s := d.settings
	d.mu.Unlock()

	metrics.FramesTotal.Inc()
	live := d.renderer.Edges()
	if frame%uint64(d.syncEvery) == 0 {
		start := time.Now()
		d.engine.SyncStructure(ctx, live, s)
		metrics.SyncSeconds.Observe(time.Since(start).Seconds())
	}
	for _, e := range live {
		d.engine.RefreshLabel(e, s.ShowLabels)
		if s.ColorMode {
			d.engine.RefreshIndicator(e)
		}
	}
	return true
}

// Running reports whether the loop goroutine is live.
func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Frame returns how many frames have run since the last Start.
func (d *Driver) Frame() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frame
}

// Settings returns the current toggle state.
func (d *Driver) Settings() model.Settings {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settings
}

// ApplySettings installs new toggles and fans the visible changes out right
// away rather than waiting a frame: legend visibility flips on the spot, and
// a color mode change rebuilds every entry so indicators exist exactly when
// the mode is on. Label visibility takes effect on the next refresh.
func (d *Driver) ApplySettings(ctx context.Context, s model.Settings) {
	d.mu.Lock()
	prev := d.settings
	d.settings = s
	d.mu.Unlock()

	if prev.ShowLegend != s.ShowLegend {
		d.engine.SetLegendVisible(s.ShowLegend)
	}
	if prev.ColorMode != s.ColorMode {
		d.engine.DestroyAll(ctx)
		if d.renderer.Alive() {
			d.engine.SyncStructure(ctx, d.renderer.Edges(), s)
		}
	}
	d.publish(ctx, events.TopicSettingsApplied, events.SettingsApplied{
		ColorMode:  s.ColorMode,
		ShowLabels: s.ShowLabels,
		ShowLegend: s.ShowLegend,
	})
}

func (d *Driver) run(ctx context.Context, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.halted(ctx, "context canceled")
			return
		case <-stop:
			return
		case <-ticker.C:
			if !d.Step(ctx) {
				d.halted(ctx, "renderer unavailable")
				return
			}
		}
	}
}

// halted flips the running flag exactly once per Start and publishes the
// stop event. Both the loop goroutine and Stop funnel through it.
func (d *Driver) halted(ctx context.Context, reason string) {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	frames := d.frame
	d.mu.Unlock()

	d.logger.Info("update loop stopped", "reason", reason, "frames", frames)
	d.publish(ctx, events.TopicLoopStopped, events.LoopStopped{Reason: reason, Frames: frames})
}

func (d *Driver) publish(ctx context.Context, topic string, event any) {
	if err := d.publisher.Publish(ctx, topic, event); err != nil {
		d.logger.Warn("publishing event", "topic", topic, "error", err)
		return
	}
	metrics.EventsPublished.WithLabelValues(topic).Inc()
}
