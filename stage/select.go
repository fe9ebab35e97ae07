package stage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rushteam/survkit/candidate"
	"github.com/rushteam/survkit/core"
	"github.com/rushteam/survkit/pipeline"
	"github.com/rushteam/survkit/pkg/dsl"
	"github.com/rushteam/survkit/search"
	"github.com/rushteam/survkit/trainer"
)

// Select 决定最终训练的候选与参数：
//   - Candidate + Params：直接固定（不依赖搜索结果）
//   - 只有 Candidate：使用该候选在搜索中的最佳参数
//   - 都没有：用 Selector 在 Report.Ranked() 中挑第一个满足规则的结果（空规则即分数最高者）
//
// Seed 非空时写入随机模型的 seed 参数（逻辑回归与决策树的拟合不含随机性，不写入）。
type Select struct {
	Candidate string
	Params    map[string]any
	Selector  *dsl.Selector
	Seed      *int64
}

func (n *Select) Name() string        { return "select.rule" }
func (n *Select) Kind() pipeline.Kind { return pipeline.KindSelect }

func (n *Select) Process(ctx context.Context, st *pipeline.State) error {
	reg := st.Registry
	if reg == nil {
		reg = candidate.Default()
	}

	var (
		c      *candidate.Candidate
		params search.Assignment
		err    error
	)
	switch {
	case n.Candidate != "":
		var ok bool
		if c, ok = reg.Lookup(n.Candidate); !ok {
			return core.NewDomainError(core.ModuleSelect, core.ErrorCodeNotFound,
				fmt.Sprintf("select: unknown candidate %q", n.Candidate))
		}
		if n.Params != nil {
			if params, err = c.Assign(n.Params); err != nil {
				return err
			}
			break
		}
		if st.Report == nil {
			return core.NewDomainError(core.ModuleSelect, core.ErrorCodeInvalidInput,
				fmt.Sprintf("select: candidate %q has no params and no search report", n.Candidate))
		}
		res, ok := st.Report.Lookup(n.Candidate)
		if !ok {
			return core.NewDomainError(core.ModuleSelect, core.ErrorCodeNotFound,
				fmt.Sprintf("select: candidate %q has no search result", n.Candidate))
		}
		params = res.BestParams
	default:
		if st.Report == nil {
			return core.NewDomainError(core.ModuleSelect, core.ErrorCodeInvalidInput,
				"select: no pinned candidate and no search report")
		}
		sel := n.Selector
		if sel == nil {
			sel, _ = dsl.NewSelector("")
		}
		res, err := sel.Pick(st.Report.Ranked())
		if err != nil {
			return err
		}
		var ok bool
		if c, ok = reg.Lookup(res.CandidateID); !ok {
			return core.NewDomainError(core.ModuleSelect, core.ErrorCodeNotFound,
				fmt.Sprintf("select: candidate %q not in registry", res.CandidateID))
		}
		params = res.BestParams
	}

	params = n.withSeed(c, params)
	st.Choice = &trainer.Choice{Candidate: c, Params: params}
	st.Logger.Info("candidate selected", zap.String("candidate", c.ID()), zap.Stringer("params", params))
	fmt.Fprintf(st.Out, "Selected %s %s\n", c.ID(), params)
	return nil
}

func (n *Select) withSeed(c *candidate.Candidate, params search.Assignment) search.Assignment {
	if n.Seed == nil || !candidate.Seeded(c.Family()) {
		return params
	}
	out := make(search.Assignment, 0, len(params)+1)
	for _, p := range params {
		if p.Name != "seed" {
			out = append(out, p)
		}
	}
	return append(out, search.Param{Name: "seed", Value: int(*n.Seed)})
}
