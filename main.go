package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cloudclassify/app"
	"cloudclassify/config"
	qhttp "cloudclassify/http"
	"cloudclassify/logger"
	"cloudclassify/telemetry"
	"go.uber.org/zap"
)

func main() {
	// 1. Load config
	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		Encoding:   cfg.Log.Encoding,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	ctx := context.Background()

	// 2. Tracing
	shutdownTracing, err := telemetry.Init(ctx, telemetry.TracingConfig{
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		zlog.Fatal("failed to initialize tracing", zap.Error(err))
	}

	// 3. Models and handlers
	application, err := app.New(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize application", zap.Error(err))
	}
	zlog.Info("serving models",
		zap.String("driver", cfg.Blob.Driver),
		zap.String("wine", application.Wine.Key()),
		zap.String("iris", application.Iris.Key()))

	// 4. Start HTTP server
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		MaxBodyBytes:   cfg.Http.MaxBodyBytes,
		AllowedOrigins: cfg.Http.AllowedOrigins,
	}, application.Handlers, zlog)
	go func() {
		if err := server.Start(); err != nil {
			zlog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 5. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(ctx, cfg.Http.Timeout)
	defer cancel()
	if err := server.Stop(stopCtx); err != nil {
		zlog.Warn("server forced to shutdown", zap.Error(err))
	}
	if err := application.Close(); err != nil {
		zlog.Warn("failed to release resources", zap.Error(err))
	}
	if err := shutdownTracing(stopCtx); err != nil {
		zlog.Warn("failed to flush traces", zap.Error(err))
	}
	zlog.Info("exiting")
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "config.yaml"
}
