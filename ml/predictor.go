package ml

import (
	"context"
	"errors"
)

// Predictor 预测器
type Predictor struct {
	loader *Loader
	key    string
}

func NewPredictor(loader *Loader, key string) *Predictor {
	return &Predictor{loader: loader, key: key}
}

func (p *Predictor) Key() string {
	return p.key
}

// Predict 加载模型并预测，标签截断为整数
func (p *Predictor) Predict(ctx context.Context, vector []float64) (int, error) {
	model, err := p.loader.Load(ctx, p.key)
	if err != nil {
		return 0, err
	}
	labels, err := model.Predict([][]float64{vector})
	if err != nil {
		return 0, err
	}
	if len(labels) == 0 {
		return 0, errors.New("model returned no predictions")
	}
	return int(labels[0]), nil
}
