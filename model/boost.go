package model

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// BoostNode 梯度提升树节点；Feature < 0 表示叶子，Weight 已乘学习率。
type BoostNode struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Weight    float64
}

// BoostTree 一棵回归树（拟合 logloss 的二阶近似）。
type BoostTree struct {
	Nodes []BoostNode
}

func (t BoostTree) value(row []float64) float64 {
	n := &t.Nodes[0]
	for n.Feature >= 0 {
		if row[n.Feature] <= n.Threshold {
			n = &t.Nodes[n.Left]
		} else {
			n = &t.Nodes[n.Right]
		}
	}
	return n.Weight
}

// GradientBoosting 二阶梯度提升树（binary:logistic），参数含义与 xgboost 相同：
//
//	叶子权重 w = -G/(H+Lambda)·LearningRate
//	分裂增益 ½[GL²/(HL+λ) + GR²/(HR+λ) - G²/(H+λ)] - Gamma，大于 0 才分裂
//	子节点 Hessian 之和不得小于 MinChildWeight
//
// Lambda 与 MinChildWeight 按字面值使用，请通过 NewGradientBoosting 获取默认值。
type GradientBoosting struct {
	LearningRate    float64 // 默认 0.3
	MaxDepth        int     // 默认 6
	MinChildWeight  float64
	Gamma           float64
	ColsampleByTree float64 // 默认 1
	NEstimators     int     // 默认 100
	Lambda          float64
	BaseScore       float64 // 默认 0.5
	Seed            int64

	Trees     []BoostTree
	BaseValue float64 // logit(BaseScore)
	NFeatures int
}

// NewGradientBoosting 返回 xgboost 默认参数的模型。
func NewGradientBoosting() *GradientBoosting {
	return &GradientBoosting{
		LearningRate:    0.3,
		MaxDepth:        6,
		MinChildWeight:  1,
		ColsampleByTree: 1,
		NEstimators:     100,
		Lambda:          1,
		BaseScore:       0.5,
	}
}

func (m *GradientBoosting) Name() string { return "xgboost" }

type boostParams struct {
	lr, minChild, gamma, colsample, lambda, base float64
	depth, rounds                                int
}

func (m *GradientBoosting) params() (boostParams, error) {
	p := boostParams{
		lr: m.LearningRate, minChild: m.MinChildWeight, gamma: m.Gamma,
		colsample: m.ColsampleByTree, lambda: m.Lambda, base: m.BaseScore,
		depth: m.MaxDepth, rounds: m.NEstimators,
	}
	if p.lr == 0 {
		p.lr = 0.3
	}
	if p.depth == 0 {
		p.depth = 6
	}
	if p.colsample == 0 {
		p.colsample = 1
	}
	if p.rounds == 0 {
		p.rounds = 100
	}
	if p.base == 0 {
		p.base = 0.5
	}
	switch {
	case p.lr < 0 || math.IsNaN(p.lr):
		return p, fmt.Errorf("xgboost: learning_rate must be positive, got %v", m.LearningRate)
	case p.depth < 0:
		return p, fmt.Errorf("xgboost: max_depth must be positive, got %d", m.MaxDepth)
	case p.minChild < 0:
		return p, fmt.Errorf("xgboost: min_child_weight must be >= 0, got %v", m.MinChildWeight)
	case p.gamma < 0:
		return p, fmt.Errorf("xgboost: gamma must be >= 0, got %v", m.Gamma)
	case p.colsample < 0 || p.colsample > 1:
		return p, fmt.Errorf("xgboost: colsample_bytree must be in (0, 1], got %v", m.ColsampleByTree)
	case p.rounds < 0:
		return p, fmt.Errorf("xgboost: n_estimators must be positive, got %d", m.NEstimators)
	case p.lambda < 0:
		return p, fmt.Errorf("xgboost: lambda must be >= 0, got %v", m.Lambda)
	case p.base <= 0 || p.base >= 1:
		return p, fmt.Errorf("xgboost: base_score must be in (0, 1), got %v", m.BaseScore)
	}
	return p, nil
}

// Fit 训练模型。y 只能包含 0/1。
func (m *GradientBoosting) Fit(X mat.Matrix, y []float64) error {
	cfg, err := m.params()
	if err != nil {
		return err
	}
	x, err := checkXY(X, y)
	if err != nil {
		return err
	}
	if err := requireBinary(m.Name(), y); err != nil {
		return err
	}

	n, p := len(x), len(x[0])
	base := math.Log(cfg.base / (1 - cfg.base))
	margin := make([]float64, n)
	for i := range margin {
		margin[i] = base
	}
	grad := make([]float64, n)
	hess := make([]float64, n)
	rows := indices(n)
	nCols := int(cfg.colsample * float64(p))
	if nCols < 1 {
		nCols = 1
	}
	rng := rand.New(rand.NewSource(m.Seed))

	trees := make([]BoostTree, 0, cfg.rounds)
	for r := 0; r < cfg.rounds; r++ {
		for i := range x {
			pr := sigmoid(margin[i])
			grad[i] = pr - y[i]
			hess[i] = math.Max(pr*(1-pr), 1e-16)
		}
		features := indices(p)
		if nCols < p {
			features = rng.Perm(p)[:nCols]
			sort.Ints(features)
		}
		b := &boostBuilder{
			x: x, grad: grad, hess: hess, cfg: cfg,
			features: features, goLeft: make([]bool, n),
		}
		b.grow(presort(x, rows, features, p), 0)
		tree := BoostTree{Nodes: b.nodes}
		for i, row := range x {
			margin[i] += tree.value(row)
		}
		trees = append(trees, tree)
	}

	m.Trees = trees
	m.BaseValue = base
	m.NFeatures = p
	return nil
}

// PredictProba 返回每行属于类别 1 的概率。
func (m *GradientBoosting) PredictProba(X mat.Matrix) ([]float64, error) {
	x, err := checkPredict(X, m.NFeatures)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, row := range x {
		z := m.BaseValue
		for _, t := range m.Trees {
			z += t.value(row)
		}
		out[i] = sigmoid(z)
	}
	return out, nil
}

func (m *GradientBoosting) Predict(X mat.Matrix) ([]float64, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(proba))
	for i, v := range proba {
		if v > 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}

type boostBuilder struct {
	x          [][]float64
	grad, hess []float64
	cfg        boostParams
	features   []int
	goLeft     []bool
	nodes      []BoostNode
}

func (b *boostBuilder) leafWeight(g, h float64) float64 {
	if h+b.cfg.lambda == 0 {
		return 0
	}
	return -g / (h + b.cfg.lambda) * b.cfg.lr
}

func (b *boostBuilder) score(g, h float64) float64 {
	if h+b.cfg.lambda == 0 {
		return 0
	}
	return g * g / (h + b.cfg.lambda)
}

func (b *boostBuilder) grow(cols [][]int, depth int) int {
	rows := nodeRows(cols)
	var g, h float64
	for _, i := range rows {
		g += b.grad[i]
		h += b.hess[i]
	}
	id := len(b.nodes)
	b.nodes = append(b.nodes, BoostNode{Feature: -1, Weight: b.leafWeight(g, h)})
	if depth >= b.cfg.depth || len(rows) < 2 {
		return id
	}

	parent := b.score(g, h)
	bestGain, bestFeat, bestThr := 0.0, -1, 0.0
	for _, f := range b.features {
		col := cols[f]
		var gl, hl float64
		for j := 0; j < len(col)-1; j++ {
			gl += b.grad[col[j]]
			hl += b.hess[col[j]]
			lo, hi := b.x[col[j]][f], b.x[col[j+1]][f]
			if lo == hi {
				continue
			}
			gr, hr := g-gl, h-hl
			if hl < b.cfg.minChild || hr < b.cfg.minChild {
				continue
			}
			gain := 0.5*(b.score(gl, hl)+b.score(gr, hr)-parent) - b.cfg.gamma
			if gain > bestGain {
				bestGain, bestFeat, bestThr = gain, f, splitThreshold(lo, hi)
			}
		}
	}
	if bestFeat < 0 {
		return id
	}

	for _, i := range rows {
		b.goLeft[i] = b.x[i][bestFeat] <= bestThr
	}
	left, right := partition(cols, b.goLeft)
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[id] = BoostNode{Feature: bestFeat, Threshold: bestThr, Left: l, Right: r}
	return id
}
