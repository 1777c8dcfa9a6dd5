package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pricing-health/internal/config"
	"pricing-health/internal/pricing"
	"pricing-health/internal/server"
	"pricing-health/internal/storage"
	"pricing-health/pkg/logger"
	"pricing-health/pkg/redis"
)

// ENTRY POINT

func main() {
	zapLogger, err := logger.New()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLogger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	// The service must not run without a reachable contract store
	mongoClient, err := storage.Connect(ctx, cfg.MongoURI, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Disconnect(context.Background())

	store := storage.New(mongoClient.Database(cfg.MongoDatabase), zapLogger)

	// Cache is optional: no REDIS_ADDR means every request recomputes
	var cache pricing.Cache
	if cfg.RedisAddr != "" {
		redisClient := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		defer redisClient.Close()
		cache = redisClient
	}

	pipeline := pricing.New(store, store, store, zapLogger)
	cached := pricing.NewCached(pipeline, cache, cfg.CacheTTL, zapLogger)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      server.New(cached, store, zapLogger),
		ReadTimeout:  cfg.HTTPRequestTimeout,
		WriteTimeout: cfg.HTTPRequestTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			zapLogger.Warn("HTTP server shutdown failed", zap.Error(err))
		}
	}()

	zapLogger.Info("Starting HTTP server", zap.String("addr", cfg.HTTPAddr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zapLogger.Fatal("Server stopped with error", zap.Error(err))
	}

	zapLogger.Info("Server shutdown gracefully")
}
