package candidate

import (
	"fmt"

	"github.com/rushteam/survkit/core"
	"github.com/rushteam/survkit/search"
)

// Registry 按注册顺序保存候选模型，ID 唯一。
type Registry struct {
	cands []*Candidate
	byID  map[string]*Candidate
}

// NewRegistry 创建注册表，重复 ID 返回错误。
func NewRegistry(cands ...*Candidate) (*Registry, error) {
	r := &Registry{byID: make(map[string]*Candidate, len(cands))}
	for _, c := range cands {
		if err := r.Add(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add 追加候选模型。
func (r *Registry) Add(c *Candidate) error {
	if _, dup := r.byID[c.ID()]; dup {
		return core.NewDomainError(core.ModuleCandidate, core.ErrorCodeInvalidInput,
			fmt.Sprintf("candidate: duplicate id %q", c.ID()))
	}
	r.byID[c.ID()] = c
	r.cands = append(r.cands, c)
	return nil
}

// All 按注册顺序返回全部候选。
func (r *Registry) All() []*Candidate {
	return append([]*Candidate(nil), r.cands...)
}

// Lookup 按 ID 查找。
func (r *Registry) Lookup(id string) (*Candidate, bool) {
	c, ok := r.byID[id]
	return c, ok
}

func (r *Registry) Len() int { return len(r.cands) }

// Searchable 以 search.Candidate 形式返回全部候选，供编排器使用。
func (r *Registry) Searchable() []search.Candidate {
	out := make([]search.Candidate, len(r.cands))
	for i, c := range r.cands {
		out[i] = c
	}
	return out
}

// Subset 返回只包含指定 ID 的新注册表（按 ids 顺序）。
func (r *Registry) Subset(ids ...string) (*Registry, error) {
	out := &Registry{byID: make(map[string]*Candidate, len(ids))}
	for _, id := range ids {
		c, ok := r.byID[id]
		if !ok {
			return nil, core.NewDomainError(core.ModuleCandidate, core.ErrorCodeNotFound,
				fmt.Sprintf("candidate: unknown id %q", id))
		}
		if err := out.Add(c); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Default 返回五个默认候选及其网格。
func Default() *Registry {
	r, err := NewRegistry(
		mustNew(FamilyRandomForest, ForestGrid{NEstimators: []int{1, 5, 10}}),
		mustNew(FamilyLogisticRegression, LogisticGrid{C: []float64{1, 5, 10}}),
		mustNew(FamilyDecisionTree, TreeGrid{Criterion: []string{"gini", "entropy"}}),
		mustNew(FamilySVM, SVMGrid{C: []float64{1, 10, 20}, Kernel: []string{"rbf", "linear"}}),
		mustNew(FamilyXGBoost, BoostGrid{
			LearningRate:    []float64{0.20, 0.30, 0.35, 0.37, 0.40},
			MaxDepth:        []int{6, 7, 8, 9, 10},
			MinChildWeight:  []float64{5, 7, 8, 9},
			Gamma:           []float64{0.0, 0.1, 0.2, 0.3},
			ColsampleByTree: []float64{0.5, 0.7, 0.8, 0.9, 1.0},
		}),
	)
	if err != nil {
		panic(err)
	}
	return r
}

// FinalXGBoostParams 是默认的最终模型参数（梯度提升树）。
func FinalXGBoostParams() map[string]any {
	return map[string]any{
		"colsample_bytree": 0.7,
		"gamma":            0.2,
		"learning_rate":    0.37,
		"max_depth":        7,
		"min_child_weight": 7.0,
		"n_estimators":     100,
		"seed":             0,
	}
}

func mustNew(id string, g Grid) *Candidate {
	c, err := New(id, g)
	if err != nil {
		panic(err)
	}
	return c
}
