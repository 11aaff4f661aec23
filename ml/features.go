package ml

import (
	"encoding/json"
	"fmt"
)

// 特征顺序与模型训练时的列顺序一致
var (
	wineFeatureNames = []string{
		"Alcohol",
		"Malic acid",
		"Ash",
		"Alcalinity of ash",
		"Magnesium",
		"Total phenols",
		"Flavanoids",
		"Nonflavanoid phenols",
		"Proanthocyanins",
		"Color intensity",
		"Hue",
		"OD280/OD315 of diluted wines",
		"Proline",
	}
	irisFeatureNames = []string{
		"sepal_length",
		"sepal_width",
		"petal_length",
		"petal_width",
	}
)

func WineFeatureNames() []string {
	return append([]string(nil), wineFeatureNames...)
}

func IrisFeatureNames() []string {
	return append([]string(nil), irisFeatureNames...)
}

// FeatureVector 按顺序从JSON对象中提取特征
func FeatureVector(fields map[string]interface{}, names []string) ([]float64, error) {
	vector := make([]float64, len(names))
	for i, name := range names {
		raw, ok := fields[name]
		if !ok {
			return nil, fmt.Errorf("missing feature %q", name)
		}
		v, err := toFloat(raw)
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", name, err)
		}
		vector[i] = v
	}
	return vector, nil
}

func toFloat(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case json.Number:
		return v.Float64()
	case nil:
		return 0, fmt.Errorf("value is null")
	default:
		return 0, fmt.Errorf("value %v is not a number", raw)
	}
}
