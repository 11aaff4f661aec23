package ml

import (
	"encoding/json"
	"fmt"
)

// RandomForest 随机森林，对各棵树的类别概率取平均
type RandomForest struct {
	header
	trees []*DecisionTree
}

type forestBody struct {
	Trees []treeBody `json:"trees"`
}

func decodeRandomForest(h header, body json.RawMessage) (Model, error) {
	var fb forestBody
	if err := json.Unmarshal(body, &fb); err != nil {
		return nil, err
	}
	if len(fb.Trees) == 0 {
		return nil, ErrEmptyModel
	}
	forest := &RandomForest{header: h, trees: make([]*DecisionTree, 0, len(fb.Trees))}
	for i, tb := range fb.Trees {
		tree, err := NewDecisionTree(h, tb.Nodes)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		forest.trees = append(forest.trees, tree)
	}
	return forest, nil
}

func (rf *RandomForest) Predict(rows [][]float64) ([]float64, error) {
	if err := rf.checkRows(rows); err != nil {
		return nil, err
	}
	labels := make([]float64, len(rows))
	for i, row := range rows {
		sum := make([]float64, len(rf.classes))
		for _, tree := range rf.trees {
			proba, err := tree.predictProba(row)
			if err != nil {
				return nil, err
			}
			for c, p := range proba {
				sum[c] += p
			}
		}
		labels[i] = rf.classes[argmax(sum)]
	}
	return labels, nil
}
