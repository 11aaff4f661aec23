package ml

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"cloudclassify/blob"
	"cloudclassify/telemetry"
	"go.uber.org/zap"
)

// Loader 模型加载器
// 未配置缓存时每次Load都重新读取和解析
type Loader struct {
	store  blob.Store
	cache  *Cache
	logger *zap.Logger
}

type LoaderOption func(*Loader)

func WithCache(cache *Cache) LoaderOption {
	return func(l *Loader) {
		l.cache = cache
	}
}

func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

func NewLoader(store blob.Store, opts ...LoaderOption) *Loader {
	l := &Loader{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load 加载模型，.onnx文件交给ONNX Runtime，其余按JSON模型解析
func (l *Loader) Load(ctx context.Context, key string) (model Model, err error) {
	cacheKey, onDisk := l.cacheKey(key)
	var gen uint64
	if l.cache != nil {
		if cached, ok := l.cache.Get(cacheKey); ok {
			return cached, nil
		}
		// 读取前开始监听，读取期间的改写也会产生事件
		if onDisk {
			l.cache.track(cacheKey)
		}
		gen = l.cache.generation(cacheKey)
	}

	start := time.Now()
	defer func() {
		telemetry.ObserveModelLoad(time.Since(start), err)
	}()

	data, err := l.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", key, err)
	}

	if strings.EqualFold(filepath.Ext(key), ".onnx") {
		model, err = NewONNXModel(data, 0)
	} else {
		model, err = Decode(data)
	}
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", key, err)
	}

	l.logger.Debug("model loaded", zap.String("key", key), zap.Int("bytes", len(data)), zap.Duration("elapsed", time.Since(start)))
	if l.cache != nil && !l.cache.addIfCurrent(cacheKey, model, gen) {
		l.logger.Debug("model changed while loading, not cached", zap.String("key", key))
	}
	return model, nil
}

// cacheKey 文件系统存储使用绝对路径作为缓存key，与监听事件对应
type pathResolver interface {
	Path(key string) (string, error)
}

func (l *Loader) cacheKey(key string) (string, bool) {
	if fs, ok := l.store.(pathResolver); ok {
		if path, err := fs.Path(key); err == nil {
			return path, true
		}
	}
	return key, false
}
