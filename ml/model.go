package ml

import (
	"context"
	"errors"
)

var (
	ErrUnknownFormat   = errors.New("unknown model format")
	ErrFeatureMismatch = errors.New("feature count mismatch")
	ErrEmptyModel      = errors.New("model has no parameters")
)

// Model 批量预测接口
type Model interface {
	Predict(rows [][]float64) ([]float64, error)
}

// Describer 返回特征数和类别
type Describer interface {
	NumFeatures() int
	Classes() []float64
}

// ModelProvider 单条特征向量预测
type ModelProvider interface {
	Predict(ctx context.Context, vector []float64) (int, error)
}
