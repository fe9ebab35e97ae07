package model

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// DecisionTree CART 分类树，由 golearn 的 trees.NewDecisionTreeClassifier 拟合。
//
// CART 拟合不含随机性，产物只保存超参数与训练数据；
// gob 解码后的模型在首次预测时按相同参数重新拟合，得到同一棵树。
type DecisionTree struct {
	Criterion string // gini（默认）/ entropy
	MaxDepth  int    // 0 表示不限

	X       [][]float64
	Y       []int // 类别下标
	Classes []float64

	mu   sync.Mutex
	tree cartTree
}

// NewDecisionTree 创建使用默认参数的决策树。
func NewDecisionTree() *DecisionTree {
	return &DecisionTree{Criterion: CriterionGini}
}

func (t *DecisionTree) Name() string { return "decision_tree" }

func (t *DecisionTree) validate() error {
	if err := checkCriterion("decision_tree", t.Criterion); err != nil {
		return err
	}
	if t.MaxDepth < 0 {
		return fmt.Errorf("decision_tree: max_depth must be >= 0, got %d", t.MaxDepth)
	}
	return nil
}

// Fit 训练决策树。
func (t *DecisionTree) Fit(X mat.Matrix, y []float64) error {
	if err := t.validate(); err != nil {
		return err
	}
	x, err := checkXY(X, y)
	if err != nil {
		return err
	}
	classes, idx := classIndex(y)
	tree, err := fitCART(t.Criterion, t.MaxDepth, x, idx, len(classes), indices(len(x)), indices(len(x[0])))
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.X, t.Y, t.Classes = x, idx, classes
	t.tree = tree
	return nil
}

// Predict 返回每行的预测类别。
func (t *DecisionTree) Predict(X mat.Matrix) ([]float64, error) {
	tree, err := t.fitted()
	if err != nil {
		return nil, err
	}
	x, err := checkPredict(X, len(t.X[0]))
	if err != nil {
		return nil, err
	}
	codes, err := predictCART(tree, x, indices(len(x[0])), len(t.Classes))
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(codes))
	for i, c := range codes {
		out[i] = t.Classes[c]
	}
	return out, nil
}

// fitted 返回已拟合的树，解码后的模型在这里按保存的训练数据重建。
func (t *DecisionTree) fitted() (cartTree, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tree != nil {
		return t.tree, nil
	}
	if len(t.X) == 0 {
		return nil, ErrNotFitted
	}
	tree, err := fitCART(t.Criterion, t.MaxDepth, t.X, t.Y, len(t.Classes), indices(len(t.X)), indices(len(t.X[0])))
	if err != nil {
		return nil, err
	}
	t.tree = tree
	return tree, nil
}
