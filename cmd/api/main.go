package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/oxypet/petcare-ai-platform/internal/api/router"
	"github.com/oxypet/petcare-ai-platform/internal/app/bootstrap"
	appconfig "github.com/oxypet/petcare-ai-platform/internal/config"
	"github.com/oxypet/petcare-ai-platform/internal/http/handlers"
	"github.com/oxypet/petcare-ai-platform/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// Running without a .env file is the normal production case.
		_ = err
	}

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting petcare-ai-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := bootstrap.BuildPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	rdb := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if rdb == nil {
		logger.Error("redis is required for owner conversation history", "addr", cfg.RedisAddr)
		os.Exit(1)
	}
	defer func() { _ = rdb.Close() }()

	chatClient, err := bootstrap.BuildOpenAIClient(cfg)
	if err != nil {
		logger.Error("failed to build OpenAI client", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	svcs, err := bootstrap.BuildServices(pool, rdb, chatClient, cfg, logger, registry)
	if err != nil {
		logger.Error("failed to build services", "error", err)
		os.Exit(1)
	}

	conversationHandler := handlers.NewConversationHandler(svcs.ClientAI, svcs.Aurora, logger)
	reportsHandler := handlers.NewReportsHandler(svcs.Aurora, logger)
	healthHandler := handlers.NewHealthHandler(map[string]handlers.Pinger{
		"postgres": handlers.PingFunc(pool.Ping),
		"redis":    handlers.PingFunc(redisPinger(rdb)),
	})

	r := router.New(&router.Config{
		Logger:             logger,
		Conversations:      conversationHandler,
		Reports:            reportsHandler,
		Health:             healthHandler,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		MessageRateLimit:   cfg.MessageRateLimit,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// redisPinger adapts the redis client's StatusCmd-returning Ping to a
// plain error-returning check.
func redisPinger(rdb *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}
