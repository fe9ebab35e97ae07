// Package candidate 维护参与网格搜索的候选模型：家族、参数网格，以及从 YAML 加载的注册表。
package candidate

import (
	"fmt"
	"sort"

	"github.com/rushteam/survkit/core"
	"github.com/rushteam/survkit/model"
	"github.com/rushteam/survkit/search"
)

// Candidate 候选模型：唯一 ID + 类型化参数网格。创建后不可变。
type Candidate struct {
	id   string
	grid Grid
}

var _ search.Candidate = (*Candidate)(nil)

// New 创建候选模型。
func New(id string, grid Grid) (*Candidate, error) {
	if id == "" {
		return nil, core.NewDomainError(core.ModuleCandidate, core.ErrorCodeInvalidInput, "candidate: empty id")
	}
	if grid == nil {
		return nil, core.NewDomainError(core.ModuleCandidate, core.ErrorCodeInvalidInput,
			fmt.Sprintf("candidate %q: nil grid", id))
	}
	return &Candidate{id: id, grid: grid}, nil
}

func (c *Candidate) ID() string          { return c.id }
func (c *Candidate) Family() string      { return c.grid.Family() }
func (c *Candidate) Axes() []search.Axis { return c.grid.Axes() }
func (c *Candidate) Grid() Grid          { return c.grid }

// Build 按参数构造新的分类器。
func (c *Candidate) Build(params search.Assignment) (model.Classifier, error) {
	return c.grid.Build(params)
}

// Assign 把 map 形式的参数（例如配置文件里固定的最终参数）转换为按名称排序的 Assignment，
// 并通过一次 Build 校验参数名和类型。
func (c *Candidate) Assign(params map[string]any) (search.Assignment, error) {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	a := make(search.Assignment, len(names))
	for i, k := range names {
		a[i] = search.Param{Name: k, Value: params[k]}
	}
	if _, err := c.grid.Build(a); err != nil {
		return nil, core.WrapDomainError(core.ModuleCandidate, core.ErrorCodeInvalidInput, err,
			"candidate %q: invalid parameters", c.id)
	}
	return a, nil
}

// Combinations 返回网格的组合数。
func (c *Candidate) Combinations() int {
	return search.Count(c.grid.Axes())
}
