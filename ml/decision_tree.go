package ml

import (
	"encoding/json"
	"errors"
	"fmt"
)

type DecisionTree struct {
	header
	nodes []TreeNode
}

// TreeNode 扁平化决策树的节点
// x[FeatureIdx] <= Threshold 时进入左子节点
// 叶子节点给出类别下标或Value中的各类别权重
type TreeNode struct {
	FeatureIdx int       `json:"feature_idx"`
	Threshold  float64   `json:"threshold"`
	LeftChild  int       `json:"left_child"`
	RightChild int       `json:"right_child"`
	ClassLabel int       `json:"class_label"`
	Value      []float64 `json:"value,omitempty"`
	IsLeaf     bool      `json:"is_leaf"`
}

type treeBody struct {
	Nodes []TreeNode `json:"nodes"`
}

func decodeDecisionTree(h header, body json.RawMessage) (Model, error) {
	var tb treeBody
	if err := json.Unmarshal(body, &tb); err != nil {
		return nil, err
	}
	return NewDecisionTree(h, tb.Nodes)
}

// NewDecisionTree 创建决策树并校验节点
func NewDecisionTree(h header, nodes []TreeNode) (*DecisionTree, error) {
	if len(nodes) == 0 {
		return nil, ErrEmptyModel
	}
	for i, node := range nodes {
		if node.IsLeaf {
			if len(node.Value) > 0 {
				if len(node.Value) != len(h.classes) {
					return nil, fmt.Errorf("leaf %d has %d values for %d classes", i, len(node.Value), len(h.classes))
				}
				continue
			}
			if node.ClassLabel < 0 || node.ClassLabel >= len(h.classes) {
				return nil, fmt.Errorf("leaf %d class index %d out of range", i, node.ClassLabel)
			}
			continue
		}
		if node.FeatureIdx < 0 || (h.nFeatures > 0 && node.FeatureIdx >= h.nFeatures) {
			return nil, fmt.Errorf("node %d feature index %d out of range", i, node.FeatureIdx)
		}
		if node.LeftChild <= i || node.LeftChild >= len(nodes) || node.RightChild <= i || node.RightChild >= len(nodes) {
			return nil, fmt.Errorf("node %d has invalid children %d/%d", i, node.LeftChild, node.RightChild)
		}
	}
	return &DecisionTree{header: h, nodes: nodes}, nil
}

func (dt *DecisionTree) Predict(rows [][]float64) ([]float64, error) {
	if err := dt.checkRows(rows); err != nil {
		return nil, err
	}
	labels := make([]float64, len(rows))
	for i, row := range rows {
		proba, err := dt.predictProba(row)
		if err != nil {
			return nil, err
		}
		labels[i] = dt.classes[argmax(proba)]
	}
	return labels, nil
}

func (dt *DecisionTree) predictProba(features []float64) ([]float64, error) {
	leaf, err := dt.leaf(features)
	if err != nil {
		return nil, err
	}
	proba := make([]float64, len(dt.classes))
	if len(leaf.Value) == 0 {
		proba[leaf.ClassLabel] = 1
		return proba, nil
	}
	var total float64
	for _, v := range leaf.Value {
		total += v
	}
	if total == 0 {
		return proba, nil
	}
	for i, v := range leaf.Value {
		proba[i] = v / total
	}
	return proba, nil
}

func (dt *DecisionTree) leaf(features []float64) (TreeNode, error) {
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node, nil
		}
		if node.FeatureIdx >= len(features) {
			return TreeNode{}, fmt.Errorf("%w: tree reads feature %d of %d", ErrFeatureMismatch, node.FeatureIdx, len(features))
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.nodes) {
			return TreeNode{}, errors.New("invalid tree state")
		}
	}
}
