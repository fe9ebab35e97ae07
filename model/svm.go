package model

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// 核函数
const (
	KernelRBF    = "rbf"
	KernelLinear = "linear"
)

// SVM 核化 Pegasos 求解的二分类支持向量机。
//
// 偏置通过增广核 K(a,b)+1 吸收；λ = 1/(C·n)，迭代 Epochs·n 步。
// 特征在训练前标准化；Gamma 为 0 时取 1/n_features。
type SVM struct {
	C      float64 // 默认 1
	Kernel string  // rbf（默认）/ linear
	Gamma  float64 // rbf 带宽，0 表示 auto
	Epochs int     // 默认 10
	Seed   int64

	SupportVectors [][]float64
	Coef           []float64
	FittedGamma    float64
	Scaler         Scaler
	NFeatures      int
}

// NewSVM 创建指定 C 与核函数的 SVM。
func NewSVM(c float64, kernel string) *SVM {
	return &SVM{C: c, Kernel: kernel}
}

func (m *SVM) Name() string { return "svm" }

func (m *SVM) kernel(a, b []float64) float64 {
	switch m.Kernel {
	case KernelLinear:
		return floats.Dot(a, b) + 1
	default:
		d := 0.0
		for i := range a {
			t := a[i] - b[i]
			d += t * t
		}
		return math.Exp(-m.FittedGamma*d) + 1
	}
}

// Fit 训练模型。y 只能包含 0/1。
func (m *SVM) Fit(X mat.Matrix, y []float64) error {
	c := m.C
	if c == 0 {
		c = 1
	}
	if c < 0 || math.IsNaN(c) || math.IsInf(c, 0) {
		return fmt.Errorf("svm: C must be positive, got %v", m.C)
	}
	switch m.Kernel {
	case "":
		m.Kernel = KernelRBF
	case KernelRBF, KernelLinear:
	default:
		return fmt.Errorf("svm: unknown kernel %q", m.Kernel)
	}
	if m.Gamma < 0 {
		return fmt.Errorf("svm: gamma must be >= 0, got %v", m.Gamma)
	}
	epochs := m.Epochs
	if epochs == 0 {
		epochs = 10
	}
	if epochs < 0 {
		return fmt.Errorf("svm: epochs must be positive, got %d", m.Epochs)
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
	n, p := len(x), len(x[0])
	m.FittedGamma = m.Gamma
	if m.FittedGamma == 0 {
		m.FittedGamma = 1 / float64(p)
	}

	sign := make([]float64, n)
	for i, v := range y {
		sign[i] = 2*v - 1
	}
	lambda := 1 / (c * float64(n))
	steps := epochs * n
	alpha := make([]int, n)
	// decision[i] = Σ_j α_j·y_j·K(x_j, x_i)，每次 α 增加时增量更新
	decision := make([]float64, n)
	rng := rand.New(rand.NewSource(m.Seed))
	for t := 1; t <= steps; t++ {
		i := rng.Intn(n)
		if sign[i]*decision[i]/(lambda*float64(t)) < 1 {
			alpha[i]++
			for k := range decision {
				decision[k] += sign[i] * m.kernel(x[i], x[k])
			}
		}
	}

	m.SupportVectors = m.SupportVectors[:0]
	m.Coef = m.Coef[:0]
	norm := lambda * float64(steps)
	for i, a := range alpha {
		if a > 0 {
			m.SupportVectors = append(m.SupportVectors, x[i])
			m.Coef = append(m.Coef, float64(a)*sign[i]/norm)
		}
	}
	m.Scaler = scaler
	m.NFeatures = p
	return nil
}

// Decision 返回每行的决策函数值，正数判为类别 1。
func (m *SVM) Decision(X mat.Matrix) ([]float64, error) {
	raw, err := checkPredict(X, m.NFeatures)
	if err != nil {
		return nil, err
	}
	x := m.Scaler.transform(raw)
	out := make([]float64, len(x))
	for i, row := range x {
		for j, sv := range m.SupportVectors {
			out[i] += m.Coef[j] * m.kernel(sv, row)
		}
	}
	return out, nil
}

func (m *SVM) Predict(X mat.Matrix) ([]float64, error) {
	d, err := m.Decision(X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(d))
	for i, v := range d {
		if v > 0 {
			out[i] = 1
		}
	}
	return out, nil
}
