package model

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// RandomForest 随机森林：每棵 golearn CART 树在 bootstrap 样本和随机特征子集上训练，
// 预测取多数票（票数相同取较小类别）。
//
// 抽样只使用由 Seed 初始化的私有随机源，相同 Seed 与训练数据得到同一片森林；
// 产物因此只保存超参数与训练数据，gob 解码后首次预测时重建。
type RandomForest struct {
	NEstimators int    // 默认 100
	MaxDepth    int    // 0 表示不限
	Criterion   string // gini（默认）/ entropy
	MaxFeatures int    // 每棵树的特征数，0 表示 sqrt(p)
	Seed        int64

	X       [][]float64
	Y       []int // 类别下标
	Classes []float64

	mu      sync.Mutex
	members []forestMember
}

type forestMember struct {
	features []int
	tree     cartTree
}

// NewRandomForest 创建 n 棵树的随机森林。
func NewRandomForest(n int) *RandomForest {
	return &RandomForest{NEstimators: n, Criterion: CriterionGini}
}

func (f *RandomForest) Name() string { return "random_forest" }

func (f *RandomForest) validate() error {
	if f.NEstimators < 0 {
		return fmt.Errorf("random_forest: n_estimators must be >= 1, got %d", f.NEstimators)
	}
	if f.MaxDepth < 0 {
		return fmt.Errorf("random_forest: max_depth must be >= 0, got %d", f.MaxDepth)
	}
	if f.MaxFeatures < 0 {
		return fmt.Errorf("random_forest: max_features must be >= 0, got %d", f.MaxFeatures)
	}
	return checkCriterion("random_forest", f.Criterion)
}

// Fit 训练随机森林，相同 Seed 结果一致。
func (f *RandomForest) Fit(X mat.Matrix, y []float64) error {
	if err := f.validate(); err != nil {
		return err
	}
	x, err := checkXY(X, y)
	if err != nil {
		return err
	}
	classes, idx := classIndex(y)
	members, err := f.grow(x, idx, len(classes))
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.X, f.Y, f.Classes = x, idx, classes
	f.members = members
	return nil
}

func (f *RandomForest) grow(x [][]float64, y []int, k int) ([]forestMember, error) {
	n := f.NEstimators
	if n == 0 {
		n = 100
	}
	p := len(x[0])
	m := f.MaxFeatures
	if m == 0 {
		m = int(math.Max(1, math.Floor(math.Sqrt(float64(p)))))
	}
	if m > p {
		m = p
	}

	rng := rand.New(rand.NewSource(f.Seed))
	members := make([]forestMember, n)
	for t := range members {
		rows := make([]int, len(x))
		for i := range rows {
			rows[i] = rng.Intn(len(x))
		}
		features := rng.Perm(p)[:m]
		sort.Ints(features)
		tree, err := fitCART(f.Criterion, f.MaxDepth, x, y, k, rows, features)
		if err != nil {
			return nil, fmt.Errorf("random_forest: tree %d: %w", t, err)
		}
		members[t] = forestMember{features: features, tree: tree}
	}
	return members, nil
}

// Predict 返回每行的预测类别。
func (f *RandomForest) Predict(X mat.Matrix) ([]float64, error) {
	members, err := f.fitted()
	if err != nil {
		return nil, err
	}
	x, err := checkPredict(X, len(f.X[0]))
	if err != nil {
		return nil, err
	}
	k := len(f.Classes)
	votes := make([][]float64, len(x))
	for i := range votes {
		votes[i] = make([]float64, k)
	}
	for _, mb := range members {
		codes, err := predictCART(mb.tree, x, mb.features, k)
		if err != nil {
			return nil, err
		}
		for i, c := range codes {
			votes[i][c]++
		}
	}
	out := make([]float64, len(x))
	for i, v := range votes {
		out[i] = f.Classes[argmax(v)]
	}
	return out, nil
}

func (f *RandomForest) fitted() ([]forestMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members != nil {
		return f.members, nil
	}
	if len(f.X) == 0 {
		return nil, ErrNotFitted
	}
	members, err := f.grow(f.X, f.Y, len(f.Classes))
	if err != nil {
		return nil, err
	}
	f.members = members
	return members, nil
}

// Len 返回森林中的树数（未拟合时为 0）。
func (f *RandomForest) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.members)
}

// argmax 返回最大值下标，相同取最前。
func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
