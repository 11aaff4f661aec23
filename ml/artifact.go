package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Artifact JSON模型文件的外层结构
type Artifact struct {
	Format       string          `json:"format"`
	NumFeatures  int             `json:"n_features"`
	FeatureNames []string        `json:"feature_names,omitempty"`
	Classes      []float64       `json:"classes"`
	Model        json.RawMessage `json:"model"`
}

type decoder func(h header, body json.RawMessage) (Model, error)

var decoders = map[string]decoder{
	"decision_tree":       decodeDecisionTree,
	"random_forest":       decodeRandomForest,
	"logistic_regression": decodeLogisticRegression,
	"knn":                 decodeKNN,
}

// Formats 支持的模型格式
func Formats() []string {
	formats := make([]string, 0, len(decoders))
	for name := range decoders {
		formats = append(formats, name)
	}
	sort.Strings(formats)
	return formats
}

// Decode 解析模型文件
func Decode(data []byte) (Model, error) {
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return artifact.Build()
}

// Build 按格式构建模型
func (a *Artifact) Build() (Model, error) {
	decode, ok := decoders[a.Format]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownFormat, a.Format, strings.Join(Formats(), ", "))
	}
	if a.NumFeatures < 0 {
		return nil, fmt.Errorf("negative n_features %d", a.NumFeatures)
	}
	if len(a.FeatureNames) > 0 && a.NumFeatures > 0 && len(a.FeatureNames) != a.NumFeatures {
		return nil, fmt.Errorf("%d feature names for n_features %d", len(a.FeatureNames), a.NumFeatures)
	}
	if len(a.Classes) == 0 {
		return nil, errors.New("artifact declares no classes")
	}
	if len(a.Model) == 0 {
		return nil, ErrEmptyModel
	}
	h := header{nFeatures: a.NumFeatures, classes: a.Classes}
	model, err := decode(h, a.Model)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.Format, err)
	}
	return model, nil
}

type header struct {
	nFeatures int
	classes   []float64
}

func (h header) NumFeatures() int {
	return h.nFeatures
}

func (h header) Classes() []float64 {
	return append([]float64(nil), h.classes...)
}

func (h header) checkRows(rows [][]float64) error {
	if len(rows) == 0 {
		return errors.New("no rows to predict")
	}
	for i, row := range rows {
		if h.nFeatures > 0 && len(row) != h.nFeatures {
			return fmt.Errorf("%w: row %d has %d features, model expects %d", ErrFeatureMismatch, i, len(row), h.nFeatures)
		}
	}
	return nil
}

func (h header) classIndex(label float64) int {
	for i, c := range h.classes {
		if c == label {
			return i
		}
	}
	return -1
}

// argmax 返回第一个最大值的下标
func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
