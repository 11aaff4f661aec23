// Package app 根据配置组装模型存储、加载器和处理器，供各入口共用
package app

import (
	"context"
	"errors"
	"fmt"

	"cloudclassify/blob"
	"cloudclassify/config"
	"cloudclassify/db"
	qhttp "cloudclassify/http"
	"cloudclassify/ml"
	"cloudclassify/monitoring"
	"go.uber.org/zap"
)

type App struct {
	Handlers *qhttp.Handlers
	Wine     *ml.Predictor
	Iris     *ml.Predictor

	closers []func() error
}

// New 按配置创建预测处理器
// 模型缓存、审计日志和实时推送仅在配置后启用
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{}

	store, err := blob.NewStore(ctx, blob.Config{
		Driver:    cfg.Blob.Driver,
		Directory: cfg.ML.Dir,
		Bucket:    cfg.Blob.Bucket,
		Region:    cfg.Blob.Region,
		Prefix:    cfg.Blob.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("create model store: %w", err)
	}

	loaderOpts := []ml.LoaderOption{ml.WithLogger(logger)}
	if cfg.ML.CacheSize > 0 {
		cache, err := ml.NewCache(cfg.ML.CacheSize)
		if err != nil {
			return nil, err
		}
		if fs, ok := store.(*blob.FilesystemStore); ok {
			watcher, err := cache.Watch(logger)
			if err != nil {
				return nil, fmt.Errorf("watch model directory: %w", err)
			}
			for _, key := range []string{cfg.ML.WinePath, cfg.ML.IrisPath} {
				if path, err := fs.Path(key); err == nil {
					watcher.Track(path)
				}
			}
		}
		a.closers = append(a.closers, cache.Close)
		loaderOpts = append(loaderOpts, ml.WithCache(cache))
		logger.Info("model cache enabled", zap.Int("size", cfg.ML.CacheSize))
	}
	loader := ml.NewLoader(store, loaderOpts...)

	a.Wine = ml.NewPredictor(loader, cfg.ML.WinePath)
	a.Iris = ml.NewPredictor(loader, cfg.ML.IrisPath)

	handlerOpts := []qhttp.HandlersOption{qhttp.WithLogger(logger)}
	if cfg.Audit.Path != "" {
		audit, err := db.Open(cfg.Audit.Path)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		a.closers = append(a.closers, audit.Close)
		handlerOpts = append(handlerOpts, qhttp.WithRecorder(audit))
		logger.Info("audit log enabled", zap.String("path", cfg.Audit.Path))
	}

	if cfg.Http.PredictionStream {
		hub := monitoring.NewHub(logger)
		go hub.Run()
		a.closers = append(a.closers, hub.Close)
		handlerOpts = append(handlerOpts, qhttp.WithPredictionStream(hub))
		logger.Info("prediction stream enabled")
	}

	a.Handlers = qhttp.NewHandlers(a.Wine, a.Iris, handlerOpts...)
	return a, nil
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	ml.ShutdownONNX()
	return errors.Join(errs...)
}
