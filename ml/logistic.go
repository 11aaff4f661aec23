package ml

import (
	"encoding/json"
	"fmt"
)

// LogisticRegression 逻辑回归
// 一行系数为二分类，k行系数对应k个类别
type LogisticRegression struct {
	header
	coef      [][]float64
	intercept []float64
}

type logisticBody struct {
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

func decodeLogisticRegression(h header, body json.RawMessage) (Model, error) {
	var lb logisticBody
	if err := json.Unmarshal(body, &lb); err != nil {
		return nil, err
	}
	k := len(lb.Coef)
	switch {
	case k == 0:
		return nil, ErrEmptyModel
	case len(lb.Intercept) != k:
		return nil, fmt.Errorf("%d intercepts for %d coefficient rows", len(lb.Intercept), k)
	case k == 1 && len(h.classes) != 2:
		return nil, fmt.Errorf("binary coefficients need 2 classes, have %d", len(h.classes))
	case k > 1 && k != len(h.classes):
		return nil, fmt.Errorf("%d coefficient rows for %d classes", k, len(h.classes))
	}
	width := len(lb.Coef[0])
	for i, row := range lb.Coef {
		if len(row) != width {
			return nil, fmt.Errorf("coefficient row %d has %d values, want %d", i, len(row), width)
		}
	}
	if h.nFeatures == 0 {
		h.nFeatures = width
	} else if h.nFeatures != width {
		return nil, fmt.Errorf("%w: coefficients have %d columns, n_features is %d", ErrFeatureMismatch, width, h.nFeatures)
	}
	return &LogisticRegression{header: h, coef: lb.Coef, intercept: lb.Intercept}, nil
}

func (lr *LogisticRegression) Predict(rows [][]float64) ([]float64, error) {
	if err := lr.checkRows(rows); err != nil {
		return nil, err
	}
	labels := make([]float64, len(rows))
	for i, row := range rows {
		scores := lr.decision(row)
		if len(scores) == 1 {
			if scores[0] > 0 {
				labels[i] = lr.classes[1]
			} else {
				labels[i] = lr.classes[0]
			}
			continue
		}
		labels[i] = lr.classes[argmax(scores)]
	}
	return labels, nil
}

func (lr *LogisticRegression) decision(row []float64) []float64 {
	scores := make([]float64, len(lr.coef))
	for k, weights := range lr.coef {
		score := lr.intercept[k]
		for j, w := range weights {
			score += w * row[j]
		}
		scores[k] = score
	}
	return scores
}
