package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// LogisticRegression 二分类逻辑回归，L2 正则，牛顿法（IRLS）求解。
//
// 目标函数：sum(logloss) + 1/(2C)·||w||²，截距不参与正则。
// 特征在训练前标准化，Weights 为标准化空间下的系数。
type LogisticRegression struct {
	C       float64 // 正则强度的倒数，默认 1
	MaxIter int     // 默认 100
	Tol     float64 // 牛顿步长收敛阈值，默认 1e-8

	Weights   []float64
	Intercept float64
	Scaler    Scaler
	NFeatures int
	Iters     int
}

// NewLogisticRegression 创建指定 C 的逻辑回归。
func NewLogisticRegression(c float64) *LogisticRegression {
	return &LogisticRegression{C: c}
}

func (m *LogisticRegression) Name() string { return "logistic_regression" }

// Fit 训练模型。y 只能包含 0/1。
func (m *LogisticRegression) Fit(X mat.Matrix, y []float64) error {
	c := m.C
	if c == 0 {
		c = 1
	}
	if c < 0 || math.IsNaN(c) || math.IsInf(c, 0) {
		return fmt.Errorf("logistic_regression: C must be positive, got %v", m.C)
	}
	maxIter := m.MaxIter
	if maxIter == 0 {
		maxIter = 100
	}
	if maxIter < 0 {
		return fmt.Errorf("logistic_regression: max_iter must be positive, got %d", m.MaxIter)
	}
	tol := m.Tol
	if tol <= 0 {
		tol = 1e-8
	}
	raw, err := checkXY(X, y)
	if err != nil {
		return err
	}
	if err := requireBinary(m.Name(), y); err != nil {
		return err
	}

	scaler := fitScaler(raw)
	x := scaler.transform(raw)
	p := len(x[0])
	d := p + 1 // 最后一维为截距
	lambda := 1 / c

	w := make([]float64, d)
	grad := mat.NewVecDense(d, nil)
	step := mat.NewVecDense(d, nil)
	hess := mat.NewSymDense(d, nil)
	var chol mat.Cholesky
	iters := 0
	for ; iters < maxIter; iters++ {
		for a := 0; a < d; a++ {
			grad.SetVec(a, 0)
			for b := a; b < d; b++ {
				hess.SetSym(a, b, 0)
			}
		}
		for i, row := range x {
			z := w[p]
			for j, v := range row {
				z += w[j] * v
			}
			pr := sigmoid(z)
			r := pr - y[i]
			s := pr * (1 - pr)
			for a := 0; a < d; a++ {
				va := 1.0
				if a < p {
					va = row[a]
				}
				grad.SetVec(a, grad.AtVec(a)+r*va)
				for b := a; b < d; b++ {
					vb := 1.0
					if b < p {
						vb = row[b]
					}
					hess.SetSym(a, b, hess.At(a, b)+s*va*vb)
				}
			}
		}
		for a := 0; a < p; a++ {
			grad.SetVec(a, grad.AtVec(a)+lambda*w[a])
			hess.SetSym(a, a, hess.At(a, a)+lambda)
		}
		// 单一类别时截距的 Hessian 趋近 0，加微小抖动保证正定
		hess.SetSym(p, p, hess.At(p, p)+1e-10)

		if ok := chol.Factorize(hess); !ok {
			return errors.New("logistic_regression: hessian is not positive definite")
		}
		if err := chol.SolveVecTo(step, grad); err != nil {
			return fmt.Errorf("logistic_regression: newton step: %w", err)
		}
		maxStep := 0.0
		for a := 0; a < d; a++ {
			w[a] -= step.AtVec(a)
			maxStep = math.Max(maxStep, math.Abs(step.AtVec(a)))
		}
		if maxStep < tol {
			iters++
			break
		}
	}

	m.Weights = w[:p]
	m.Intercept = w[p]
	m.Scaler = scaler
	m.NFeatures = p
	m.Iters = iters
	return nil
}

// PredictProba 返回每行属于类别 1 的概率。
func (m *LogisticRegression) PredictProba(X mat.Matrix) ([]float64, error) {
	raw, err := checkPredict(X, m.NFeatures)
	if err != nil {
		return nil, err
	}
	x := m.Scaler.transform(raw)
	out := make([]float64, len(x))
	for i, row := range x {
		z := m.Intercept
		for j, v := range row {
			z += m.Weights[j] * v
		}
		out[i] = sigmoid(z)
	}
	return out, nil
}

// Predict 概率大于 0.5 判为 1。
func (m *LogisticRegression) Predict(X mat.Matrix) ([]float64, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(proba))
	for i, p := range proba {
		if p > 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}
