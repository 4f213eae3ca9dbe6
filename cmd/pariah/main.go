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

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pariah"
	"github.com/kailas-cloud/pariah/internal/config"
	logpkg "github.com/kailas-cloud/pariah/internal/logger"
	"github.com/kailas-cloud/pariah/internal/metrics"
	chiTransport "github.com/kailas-cloud/pariah/internal/transport/chi"
	"github.com/kailas-cloud/pariah/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting pariah search gateway",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("engine_url", cfg.Engine.URL),
		zap.Int("pool_size", cfg.Engine.PoolSize),
	)

	// Registered explicitly, no init().
	metrics.RegisterEngineMetrics()
	metrics.RegisterGatewayMetrics()

	opts := []pariah.Option{
		pariah.WithURL(cfg.Engine.URL),
		pariah.WithPoolSize(cfg.Engine.PoolSize),
		pariah.WithDialTimeout(time.Duration(cfg.Engine.DialTimeoutSec) * time.Second),
		pariah.WithLogger(logger.Named("sdk")),
		pariah.WithPrometheus(prometheus.DefaultRegisterer),
	}
	if cfg.Engine.RateLimitRPS > 0 {
		opts = append(opts, pariah.WithRateLimit(cfg.Engine.RateLimitRPS, cfg.Engine.RateLimitBurst))
	}
	if !*cfg.Engine.InstallTemplate {
		opts = append(opts, pariah.WithoutTemplate())
	}

	readyCtx, cancelReady := context.WithTimeout(context.Background(),
		time.Duration(cfg.Engine.ReadinessTimeout)*time.Second)
	client, err := pariah.New(readyCtx, opts...)
	cancelReady()
	if err != nil {
		logger.Fatal("Engine not ready", zap.Error(err))
	}
	defer client.Close()
	logger.Info("Connected to engine")

	server := chiTransport.NewServer(client, chiTransport.Paging{
		DefaultSize: cfg.Search.DefaultPageSize,
		MaxSize:     cfg.Search.MaxPageSize,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
