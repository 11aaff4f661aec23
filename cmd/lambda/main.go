package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"cloudclassify/app"
	"cloudclassify/config"
	qhttp "cloudclassify/http"
	"cloudclassify/logger"
	"cloudclassify/serverless"
	"cloudclassify/telemetry"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	zlog := logger.Must(logger.Options{Level: cfg.Log.Level, Encoding: cfg.Log.Encoding})

	shutdownTracing, err := telemetry.Init(ctx, telemetry.TracingConfig{
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		zlog.Fatal("failed to initialize tracing", zap.Error(err))
	}

	application, err := app.New(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize application", zap.Error(err))
	}

	handler, ok := application.Handlers.Function(cfg.FunctionTarget)
	if !ok {
		zlog.Fatal("unknown function target", zap.String("target", cfg.FunctionTarget))
	}
	serverCfg := qhttp.DefaultServerConfig()
	serverCfg.MaxBodyBytes = cfg.Http.MaxBodyBytes
	serverCfg.AllowedOrigins = cfg.Http.AllowedOrigins

	zlog.Info("starting lambda handler", zap.String("target", cfg.FunctionTarget))
	adapter := serverless.NewAdapter(qhttp.Wrap(serverCfg, zlog, handler))
	lambda.StartWithOptions(adapter.Handle, lambda.WithEnableSIGTERM(func() {
		if err := application.Close(); err != nil {
			zlog.Warn("failed to release resources", zap.Error(err))
		}
		if err := shutdownTracing(context.Background()); err != nil {
			zlog.Warn("failed to flush traces", zap.Error(err))
		}
		zlog.Sync()
	}))
}
