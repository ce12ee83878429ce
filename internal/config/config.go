package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr    string // LINKLENS_HTTP_ADDR (default ":8080")
	DatabaseURL string // LINKLENS_DATABASE_URL (optional, empty = in-memory link store)
	NATSURL     string // LINKLENS_NATS_URL (optional, empty = no event bus)
	AuthToken   string // LINKLENS_AUTH_TOKEN (optional, empty = auth disabled)

	// Update loop settings
	FrameInterval time.Duration // LINKLENS_FRAME_INTERVAL (default 50ms)
	SyncEvery     int           // LINKLENS_SYNC_EVERY (default 10 frames)

	// Rules settings
	RulesPath    string        // LINKLENS_RULES_PATH (local path or s3://bucket/key; empty = no rules)
	RulesRefresh time.Duration // LINKLENS_RULES_REFRESH (default 0 = no periodic reload)
	RulesWatch   bool          // LINKLENS_RULES_WATCH (default true; only local paths are watchable)
	S3Endpoint   string        // LINKLENS_S3_ENDPOINT (custom endpoint for MinIO)
	S3Region     string        // LINKLENS_S3_REGION (default "us-east-1")
}

func Load() (*Config, error) {
	c := &Config{
		HTTPAddr:    envOrDefault("LINKLENS_HTTP_ADDR", ":8080"),
		DatabaseURL: os.Getenv("LINKLENS_DATABASE_URL"),
		NATSURL:     os.Getenv("LINKLENS_NATS_URL"),
		AuthToken:   os.Getenv("LINKLENS_AUTH_TOKEN"),
		RulesPath:   os.Getenv("LINKLENS_RULES_PATH"),
		S3Endpoint:  os.Getenv("LINKLENS_S3_ENDPOINT"),
		S3Region:    envOrDefault("LINKLENS_S3_REGION", "us-east-1"),
	}

	interval, err := time.ParseDuration(envOrDefault("LINKLENS_FRAME_INTERVAL", "50ms"))
	if err != nil {
		return nil, fmt.Errorf("LINKLENS_FRAME_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("LINKLENS_FRAME_INTERVAL must be positive, got %s", interval)
	}
	c.FrameInterval = interval

	syncEvery, err := strconv.Atoi(envOrDefault("LINKLENS_SYNC_EVERY", "10"))
	if err != nil {
		return nil, fmt.Errorf("LINKLENS_SYNC_EVERY: %w", err)
	}
	if syncEvery < 1 {
		return nil, fmt.Errorf("LINKLENS_SYNC_EVERY must be at least 1, got %d", syncEvery)
	}
	c.SyncEvery = syncEvery

	if v := os.Getenv("LINKLENS_RULES_REFRESH"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("LINKLENS_RULES_REFRESH: %w", err)
		}
		if d < 0 {
			return nil, fmt.Errorf("LINKLENS_RULES_REFRESH must not be negative, got %s", d)
		}
		c.RulesRefresh = d
	}

	watch, err := strconv.ParseBool(envOrDefault("LINKLENS_RULES_WATCH", "true"))
	if err != nil {
		return nil, fmt.Errorf("LINKLENS_RULES_WATCH: %w", err)
	}
	c.RulesWatch = watch

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
