package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/groblegark/linklens/internal/config"
	"github.com/groblegark/linklens/internal/driver"
	"github.com/groblegark/linklens/internal/events"
	"github.com/groblegark/linklens/internal/legend"
	"github.com/groblegark/linklens/internal/linkstore"
	"github.com/groblegark/linklens/internal/linkstore/postgres"
	"github.com/groblegark/linklens/internal/metrics"
	"github.com/groblegark/linklens/internal/model"
	"github.com/groblegark/linklens/internal/overlay"
	"github.com/groblegark/linklens/internal/replay"
	"github.com/groblegark/linklens/internal/resolver"
	"github.com/groblegark/linklens/internal/rules"
	"github.com/groblegark/linklens/internal/scene"
	"github.com/groblegark/linklens/internal/server"
)

var serveSeedFile string

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the linklens server",
	GroupID: "system",
	// Override PersistentPreRunE so we don't create an HTTP client.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		// Load configuration.
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Connect the link store.
		var links linkstore.Store
		if cfg.DatabaseURL != "" {
			store, err := postgres.New(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			links = store
			logger.Info("link store: postgres")
		} else {
			links = linkstore.NewMemory()
			logger.Info("link store: in-memory (LINKLENS_DATABASE_URL not set)")
		}

		// Create event publishers. The hub always runs because it backs the
		// SSE stream; NATS joins the fanout when configured.
		hub := events.NewHub()
		var publisher events.Publisher = hub
		if cfg.NATSURL != "" {
			natsPub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				links.Close()
				return err
			}
			publisher = events.Fanout{natsPub, hub}
			logger.Info("NATS events enabled", "nats_url", cfg.NATSURL)
		} else {
			logger.Info("NATS events disabled (LINKLENS_NATS_URL not set)")
		}

		// Classification chain: rules document stages first, stored links
		// last. Swap lets reloads replace the chain in place.
		swap := resolver.NewSwap(resolver.NewStore(links))

		var (
			src       rules.Source
			palette   []string
			textColor string
			settings  = model.DefaultSettings()
		)
		if cfg.RulesPath != "" {
			src, err = rules.NewSource(context.Background(), cfg.RulesPath, cfg.S3Region, cfg.S3Endpoint)
			if err != nil {
				publisher.Close()
				links.Close()
				return err
			}
			file, err := rules.Load(context.Background(), src)
			if err != nil {
				publisher.Close()
				links.Close()
				return err
			}
			palette = file.Palette
			textColor = file.TextColor
			if file.Settings != nil {
				settings = *file.Settings
			}
			swap.Store(resolver.NewChain(append(file.Resolvers(), resolver.NewStore(links))...))
			logger.Info("rules loaded",
				"source", src.Location(),
				"links", len(file.Links),
				"prefixes", len(file.Prefixes),
			)
		}

		// Create the scene and overlay components.
		stage := scene.NewStage()
		if serveSeedFile != "" {
			if err := seedStage(stage, serveSeedFile); err != nil {
				publisher.Close()
				links.Close()
				return err
			}
			snap := stage.Snapshot()
			logger.Info("scene seeded",
				"file", serveSeedFile,
				"nodes", len(snap.Nodes),
				"edges", len(snap.Edges),
			)
		}
		alloc := legend.NewAllocator(stage, palette, textColor)
		engine := overlay.NewEngine(stage, swap, alloc, publisher, logger)
		drv := driver.New(stage, engine, publisher, logger, driver.Config{
			Interval:  cfg.FrameInterval,
			SyncEvery: cfg.SyncEvery,
		})

		// Reload swaps the classification chain; palette and settings are
		// boot-only so earlier color grants stay stable.
		var reload server.ReloadFunc
		if src != nil {
			reload = func(ctx context.Context) (events.RulesReloaded, error) {
				file, err := rules.Load(ctx, src)
				if err != nil {
					return events.RulesReloaded{}, err
				}
				swap.Store(resolver.NewChain(append(file.Resolvers(), resolver.NewStore(links))...))
				if file.TextColor != "" {
					engine.ApplyTextColor(file.TextColor)
				}
				ev := events.RulesReloaded{
					Source:   src.Location(),
					Links:    len(file.Links),
					Prefixes: len(file.Prefixes),
				}
				if err := publisher.Publish(ctx, events.TopicRulesReloaded, ev); err != nil {
					logger.Warn("failed to publish event", "topic", events.TopicRulesReloaded, "error", err)
				} else {
					metrics.EventsPublished.WithLabelValues(events.TopicRulesReloaded).Inc()
				}
				return ev, nil
			}
		}

		// Watch the rules source if there is anything to watch.
		var watcher *rules.Watcher
		if src != nil {
			watchPath := ""
			if local, ok := src.(*rules.LocalSource); ok && cfg.RulesWatch {
				watchPath = local.Location()
			}
			if watchPath != "" || cfg.RulesRefresh > 0 {
				watcher, err = rules.NewWatcher(rules.WatcherConfig{
					Path:    watchPath,
					Refresh: cfg.RulesRefresh,
				}, func() {
					if _, err := reload(context.Background()); err != nil {
						logger.Warn("rules reload failed", "error", err)
					}
				}, logger)
				if err != nil {
					publisher.Close()
					links.Close()
					return err
				}
				watcher.Start()
				logger.Info("rules watcher started", "path", watchPath, "refresh", cfg.RulesRefresh)
			}
		}

		// Seed settings and start the loop.
		ctx := context.Background()
		drv.ApplySettings(ctx, settings)
		drv.Start(ctx)

		// Start the HTTP server.
		srv := server.New(server.Deps{
			Stage:     stage,
			Engine:    engine,
			Driver:    drv,
			Links:     links,
			Publisher: publisher,
			Hub:       hub,
			Reload:    reload,
			Logger:    logger,
		})
		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: srv.NewHTTPHandler(cfg.AuthToken),
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		logger.Info("linklens server started",
			"http_addr", cfg.HTTPAddr,
			"frame_interval", cfg.FrameInterval,
			"sync_every", cfg.SyncEvery,
		)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		// Graceful shutdown.
		if watcher != nil {
			watcher.Stop()
			logger.Info("rules watcher stopped")
		}

		drv.Stop(ctx)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		stage.Close()

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := links.Close(); err != nil {
			logger.Error("error closing link store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

// seedStage fast-forwards a recorded stream into the stage, leaving the scene
// in the recording's final state.
func seedStage(stage *scene.Stage, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()

	r := replay.NewReader(f)
	if _, err := r.Header(); err != nil {
		return fmt.Errorf("reading seed stream: %w", err)
	}
	for {
		frame, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading seed stream: %w", err)
		}
		if err := replay.Apply(stage, frame); err != nil {
			return fmt.Errorf("applying seed frame %d: %w", frame.Tick, err)
		}
	}
}

func init() {
	serveCmd.Flags().StringVar(&serveSeedFile, "seed", "", "Replay file to load into the scene before serving")
}
