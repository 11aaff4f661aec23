package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// KNN 取欧氏距离最近的k个样本投票
// 票数相同时取classes中靠前的类别
type KNN struct {
	header
	k      int
	points [][]float64
	labels []float64
}

type knnBody struct {
	K      int         `json:"k"`
	Points [][]float64 `json:"points"`
	Labels []float64   `json:"labels"`
}

func decodeKNN(h header, body json.RawMessage) (Model, error) {
	var kb knnBody
	if err := json.Unmarshal(body, &kb); err != nil {
		return nil, err
	}
	if len(kb.Points) == 0 {
		return nil, ErrEmptyModel
	}
	if len(kb.Labels) != len(kb.Points) {
		return nil, fmt.Errorf("%d labels for %d points", len(kb.Labels), len(kb.Points))
	}
	if kb.K <= 0 || kb.K > len(kb.Points) {
		return nil, fmt.Errorf("k=%d out of range for %d points", kb.K, len(kb.Points))
	}
	width := len(kb.Points[0])
	if h.nFeatures == 0 {
		h.nFeatures = width
	}
	for i, p := range kb.Points {
		if len(p) != h.nFeatures {
			return nil, fmt.Errorf("%w: point %d has %d features, want %d", ErrFeatureMismatch, i, len(p), h.nFeatures)
		}
	}
	for i, label := range kb.Labels {
		if h.classIndex(label) < 0 {
			return nil, fmt.Errorf("point %d label %v not in classes", i, label)
		}
	}
	return &KNN{header: h, k: kb.K, points: kb.Points, labels: kb.Labels}, nil
}

func (m *KNN) Predict(rows [][]float64) ([]float64, error) {
	if err := m.checkRows(rows); err != nil {
		return nil, err
	}
	labels := make([]float64, len(rows))
	for i, row := range rows {
		labels[i] = m.vote(row)
	}
	return labels, nil
}

func (m *KNN) vote(row []float64) float64 {
	type neighbor struct {
		idx  int
		dist float64
	}
	neighbors := make([]neighbor, len(m.points))
	for i, p := range m.points {
		neighbors[i] = neighbor{idx: i, dist: euclidean(row, p)}
	}
	sort.SliceStable(neighbors, func(a, b int) bool {
		return neighbors[a].dist < neighbors[b].dist
	})

	counts := make([]float64, len(m.classes))
	for _, n := range neighbors[:m.k] {
		counts[m.classIndex(m.labels[n.idx])]++
	}
	return m.classes[argmax(counts)]
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
