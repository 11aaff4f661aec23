package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemStore 本地目录存储
type FilesystemStore struct {
	dir string
}

func NewFilesystemStore(dir string) (*FilesystemStore, error) {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &FilesystemStore{dir: abs}, nil
}

// Dir 返回根目录的绝对路径
func (f *FilesystemStore) Dir() string {
	return f.dir
}

// Path 将key解析为根目录下的文件路径
// 绝对路径必须位于根目录内
func (f *FilesystemStore) Path(key string) (string, error) {
	var path string
	if filepath.IsAbs(key) {
		path = filepath.Clean(key)
	} else {
		path = filepath.Join(f.dir, key)
	}
	rel, err := filepath.Rel(f.dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes store root %s", key, f.dir)
	}
	return path, nil
}

// Get 每次调用都重新读取文件
func (f *FilesystemStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := f.Path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return data, err
}
