package model

import (
	"fmt"

	"github.com/sjwhitworth/golearn/base"
	"github.com/sjwhitworth/golearn/trees"
)

// 分裂准则
const (
	CriterionGini    = "gini"
	CriterionEntropy = "entropy"
)

// cartTree 是 golearn CART 分类树的最小接口。
type cartTree interface {
	Fit(base.FixedDataGrid) error
	Predict(base.FixedDataGrid) []int64
}

func checkCriterion(name, criterion string) error {
	switch criterion {
	case "", CriterionGini, CriterionEntropy:
		return nil
	}
	return fmt.Errorf("%s: unknown criterion %q", name, criterion)
}

// fitCART 在 rows × features 子表上训练一棵 CART 树。
// y 为类别下标，k 为类别数；maxDepth 为 0 表示不限深度。
func fitCART(criterion string, maxDepth int, x [][]float64, y []int, k int, rows, features []int) (cartTree, error) {
	if criterion == "" {
		criterion = CriterionGini
	}
	depth := int64(maxDepth)
	if maxDepth == 0 {
		depth = -1
	}
	labels := make([]int64, k)
	for i := range labels {
		labels[i] = int64(i)
	}
	grid, err := instances(x, rows, features, y)
	if err != nil {
		return nil, err
	}
	tree := trees.NewDecisionTreeClassifier(criterion, depth, labels)
	if err := tree.Fit(grid); err != nil {
		return nil, err
	}
	return tree, nil
}

// predictCART 返回每行的类别下标。
func predictCART(tree cartTree, x [][]float64, features []int, k int) ([]int, error) {
	grid, err := instances(x, indices(len(x)), features, nil)
	if err != nil {
		return nil, err
	}
	codes := tree.Predict(grid)
	if len(codes) != len(x) {
		return nil, fmt.Errorf("model: tree returned %d predictions for %d rows", len(codes), len(x))
	}
	out := make([]int, len(codes))
	for i, c := range codes {
		if c < 0 || int(c) >= k {
			return nil, fmt.Errorf("model: tree predicted unknown class %d", c)
		}
		out[i] = int(c)
	}
	return out, nil
}

// instances 把 rows × features 子表转换为 golearn 的 DenseInstances：
// 特征为 FloatAttribute，类别下标写入数值型类别列（y 为 nil 时全为 0）。
func instances(x [][]float64, rows, features []int, y []int) (*base.DenseInstances, error) {
	inst := base.NewDenseInstances()
	specs := make([]base.AttributeSpec, len(features))
	for i, f := range features {
		specs[i] = inst.AddAttribute(base.NewFloatAttribute(fmt.Sprintf("x%d", f)))
	}
	class := base.NewFloatAttribute("class")
	classSpec := inst.AddAttribute(class)
	if err := inst.AddClassAttribute(class); err != nil {
		return nil, err
	}
	if err := inst.Extend(len(rows)); err != nil {
		return nil, err
	}
	for r, row := range rows {
		for i, f := range features {
			inst.Set(specs[i], r, base.PackFloatToBytes(x[row][f]))
		}
		label := 0.0
		if y != nil {
			label = float64(y[row])
		}
		inst.Set(classSpec, r, base.PackFloatToBytes(label))
	}
	return inst, nil
}
