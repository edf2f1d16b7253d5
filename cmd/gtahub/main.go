// Package main is the entry point for the gtahub site server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"gtahub/config"
	"gtahub/internal/cache"
	"gtahub/internal/cms"
	"gtahub/internal/content"
	"gtahub/internal/httpclient"
	"gtahub/internal/logging"
	"gtahub/internal/observability"
	"gtahub/internal/server"
	"gtahub/internal/version"
)

func main() {
	versionFlag := flag.Bool("version", false, "Print version information")
	prettyFlag := flag.Bool("pretty", false, "Human-readable log output")
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Local overrides; absence is fine.
	_ = godotenv.Load()

	// Setup structured logging
	var logger *slog.Logger
	if *prettyFlag || os.Getenv("LOG_PRETTY") != "" {
		logger = slog.New(logging.NewPrettyHandler(os.Stdout))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	slog.SetDefault(logger)

	slog.Info("starting gtahub",
		"version", version.Version,
		"commit", version.Commit,
		"build_date", version.Date,
	)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Response cache: shared Redis when configured, else per-process.
	var store cache.Store
	if cfg.Cache.RedisURL != "" {
		redisStore, err := cache.NewRedisStore(cache.RedisConfig{URL: cfg.Cache.RedisURL})
		if err != nil {
			slog.Error("failed to connect response cache", "error", err)
			os.Exit(1)
		}
		store = redisStore
		slog.Info("response cache backend", "backend", "redis")
	} else {
		store = cache.NewMemoryStore()
		slog.Info("response cache backend", "backend", "memory")
	}
	defer func() { _ = store.Close() }()

	if cfg.Metrics.Enabled {
		slog.Info("prometheus metrics enabled", "endpoint", cfg.Metrics.Endpoint)
	} else {
		slog.Info("prometheus metrics disabled")
	}
	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	httpCfg := httpclient.DefaultConfig()
	if cfg.CMS.Timeout > 0 {
		httpCfg.Timeout = cfg.CMS.Timeout
	}
	client := cms.New(cfg.CMS.BaseURL, cfg.CMS.Token, httpclient.New(&httpCfg))

	if cfg.CMS.Token == "" {
		slog.Warn("CMS_API_TOKEN not set, upstream requests will be unauthenticated")
	}

	svc := content.New(client, store, cfg.TTLs(), metrics, logger)

	srv := server.New(svc, client, cfg.TTLs(), logger, &server.Config{
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsEndpoint: cfg.Metrics.Endpoint,
		BodySizeLimit:   cfg.Server.BodySizeLimit,
	})

	// Handle graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	addr := ":" + cfg.Server.Port
	slog.Info("starting server", "address", addr)

	if err := srv.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
		} else {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}
}
