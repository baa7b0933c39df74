package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/lei-flow/internal/config"
	"github.com/Veraticus/lei-flow/internal/cache"
	"github.com/Veraticus/lei-flow/internal/registry"
	"github.com/Veraticus/lei-flow/internal/service"
	"github.com/Veraticus/lei-flow/internal/storage"
)

// openCacheStore builds the configured cache persistence backend.
func openCacheStore(ctx context.Context) (service.CacheStore, error) {
	backend := viper.GetString("cache.backend")
	path := config.ExpandPath(viper.GetString("cache.path"))

	switch backend {
	case "sqlite":
		if path == "" {
			path = filepath.Join(filepath.Dir(config.DefaultCachePath()), "lei_cache.db")
		}
		store, err := storage.NewSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	default:
		if path == "" {
			path = config.DefaultCachePath()
		}
		return cache.NewJSONStore(path)
	}
}

// registryConfig assembles the registry client configuration from viper.
func registryConfig() registry.Config {
	return registry.Config{
		BaseURL:        viper.GetString("registry.base_url"),
		RateLimitDelay: viper.GetDuration("registry.rate_limit_delay"),
		MaxRetries:     viper.GetInt("registry.max_retries"),
		Timeout:        viper.GetDuration("registry.timeout"),
	}
}

// loadCacheOrWarn restores persisted cache state; a load failure
// degrades to an empty cache rather than failing the run.
func loadCacheOrWarn(ctx context.Context, c *cache.Cache, store service.CacheStore) {
	start := time.Now()
	if err := c.Load(ctx, store); err != nil {
		slog.Warn("Failed to load cache, continuing with empty cache", "error", err)
		return
	}
	slog.Debug("Cache ready", "entries", c.Len(), "elapsed", time.Since(start))
}
