package ml

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache 模型缓存，key为解析后的文件路径
// 每次Remove都会推进该key的版本号，加载期间文件发生变化的结果不会写入缓存
type Cache struct {
	models  *lru.Cache[string, Model]
	watcher *Watcher

	mu   sync.Mutex
	gens map[string]uint64
}

func NewCache(size int) (*Cache, error) {
	models, err := lru.New[string, Model](size)
	if err != nil {
		return nil, fmt.Errorf("create model cache: %w", err)
	}
	return &Cache{models: models, gens: make(map[string]uint64)}, nil
}

func (c *Cache) Get(key string) (Model, bool) {
	return c.models.Get(key)
}

func (c *Cache) Add(key string, model Model) {
	c.track(key)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models.Add(key, model)
}

func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[key]++
	c.models.Remove(key)
}

func (c *Cache) Len() int {
	return c.models.Len()
}

// Close 停止关联的文件监听
func (c *Cache) Close() error {
	if c.watcher == nil {
		return nil
	}
	return c.watcher.Close()
}

func (c *Cache) track(path string) {
	if c.watcher != nil {
		c.watcher.Track(path)
	}
}

func (c *Cache) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key]
}

// addIfCurrent 仅当key自gen以来未被移除时写入缓存
func (c *Cache) addIfCurrent(key string, model Model, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[key] != gen {
		return false
	}
	c.models.Add(key, model)
	return true
}
