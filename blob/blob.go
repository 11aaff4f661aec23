package blob

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound 对象不存在
var ErrNotFound = errors.New("blob not found")

// Store 只读的模型文件存储
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Config 存储驱动配置
type Config struct {
	Driver    string
	Directory string
	Bucket    string
	Region    string
	Prefix    string
}

// NewStore 创建存储，驱动为空时使用本地文件系统
func NewStore(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", "filesystem":
		return NewFilesystemStore(cfg.Directory)
	case "s3":
		if cfg.Bucket == "" || cfg.Region == "" {
			return nil, errors.New("s3 driver requires bucket and region")
		}
		return NewS3Store(ctx, cfg.Bucket, cfg.Region, cfg.Prefix)
	default:
		return nil, fmt.Errorf("unsupported blob driver: %s", cfg.Driver)
	}
}
