package ml

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher 模型文件变化时清除缓存
type Watcher struct {
	fs     *fsnotify.Watcher
	cache  *Cache
	logger *zap.Logger

	mu   sync.Mutex
	dirs map[string]struct{}
	done chan struct{}
}

// Watch 为缓存启用fsnotify监听，之后加入的key按所在目录监听
func (c *Cache) Watch(logger *zap.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{
		fs:     fs,
		cache:  c,
		logger: logger,
		dirs:   make(map[string]struct{}),
		done:   make(chan struct{}),
	}
	c.watcher = w
	go w.run()
	return w, nil
}

// Track 监听path所在目录
func (w *Watcher) Track(path string) {
	dir := filepath.Dir(path)
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.dirs[dir]; ok {
		return
	}
	if err := w.fs.Add(dir); err != nil {
		w.logger.Warn("cannot watch model directory", zap.String("dir", dir), zap.Error(err))
		return
	}
	w.dirs[dir] = struct{}{}
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				key := filepath.Clean(event.Name)
				w.cache.Remove(key)
				w.logger.Debug("evicted cached model", zap.String("path", key), zap.String("op", event.Op.String()))
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("model watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) Close() error {
	err := w.fs.Close()
	<-w.done
	return err
}
