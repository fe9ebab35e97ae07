package model

import (
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Classifier 是分类模型的最小抽象：Fit 训练，Predict 输出类别标签。
// 具体实现包括决策树、随机森林、逻辑回归、SVM、梯度提升树。
//
// 约定：
//   - Fit 每次调用都从头训练，不保留上一次的状态
//   - Fit 不得修改 X / y（多个 goroutine 会共享同一份训练数据）
//   - 超参数不合法时 Fit 返回错误
type Classifier interface {
	Name() string
	Fit(X mat.Matrix, y []float64) error
	Predict(X mat.Matrix) ([]float64, error)
}

// ErrNotFitted 表示模型尚未训练。
var ErrNotFitted = errors.New("model: not fitted")

// Score 返回模型在 (X, y) 上的准确率。
func Score(c Classifier, X mat.Matrix, y []float64) (float64, error) {
	pred, err := c.Predict(X)
	if err != nil {
		return 0, err
	}
	return Accuracy(pred, y)
}

// Accuracy 返回预测正确的比例。
func Accuracy(pred, y []float64) (float64, error) {
	if len(pred) != len(y) {
		return 0, fmt.Errorf("model: %d predictions for %d labels", len(pred), len(y))
	}
	if len(y) == 0 {
		return 0, errors.New("model: empty evaluation set")
	}
	hit := 0
	for i := range y {
		if pred[i] == y[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(y)), nil
}

// checkXY 校验训练数据形状并返回行切片视图。
func checkXY(X mat.Matrix, y []float64) ([][]float64, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, errors.New("model: empty training set")
	}
	if r != len(y) {
		return nil, fmt.Errorf("model: %d rows but %d labels", r, len(y))
	}
	rows := toRows(X)
	for i, row := range rows {
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("model: non-finite value at (%d,%d)", i, j)
			}
		}
	}
	return rows, nil
}

// checkPredict 校验预测输入的列数。
func checkPredict(X mat.Matrix, nFeatures int) ([][]float64, error) {
	if nFeatures == 0 {
		return nil, ErrNotFitted
	}
	_, c := X.Dims()
	if c != nFeatures {
		return nil, fmt.Errorf("model: fitted on %d features, got %d", nFeatures, c)
	}
	return toRows(X), nil
}

// toRows 把矩阵拷贝为行主序切片，便于树模型按行随机访问。
func toRows(X mat.Matrix) [][]float64 {
	d := mat.DenseCopyOf(X)
	r, _ := d.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = d.RawRowView(i)
	}
	return rows
}

// classIndex 把标签映射为 0..K-1 的类别下标，classes 升序。
func classIndex(y []float64) (classes []float64, idx []int) {
	seen := make(map[float64]struct{})
	for _, v := range y {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			classes = append(classes, v)
		}
	}
	sort.Float64s(classes)
	pos := make(map[float64]int, len(classes))
	for i, c := range classes {
		pos[c] = i
	}
	idx = make([]int, len(y))
	for i, v := range y {
		idx[i] = pos[v]
	}
	return classes, idx
}

// requireBinary 校验标签只包含 0/1。
func requireBinary(name string, y []float64) error {
	for i, v := range y {
		if v != 0 && v != 1 {
			return fmt.Errorf("%s: label %v at row %d is not 0/1", name, v, i)
		}
	}
	return nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func init() {
	// 模型产物以 gob 编码，Classifier 接口字段需要注册具体类型
	gob.Register(&DecisionTree{})
	gob.Register(&RandomForest{})
	gob.Register(&LogisticRegression{})
	gob.Register(&SVM{})
	gob.Register(&GradientBoosting{})
}
