package stage

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/rushteam/survkit/candidate"
	"github.com/rushteam/survkit/core"
	"github.com/rushteam/survkit/pipeline"
	"github.com/rushteam/survkit/search"
)

// Search 对注册表中的候选做网格搜索，打印耗时与结果表。
//
// 有候选全部组合失败时，默认在打印部分结果后中止流水线；
// AllowExhausted 为 true 时只记录错误并继续。
type Search struct {
	Folds          int
	Workers        int
	Registry       *candidate.Registry // nil 时使用默认的五个候选
	AllowExhausted bool
}

func (n *Search) Name() string        { return "search.grid" }
func (n *Search) Kind() pipeline.Kind { return pipeline.KindSearch }

func (n *Search) Process(ctx context.Context, st *pipeline.State) error {
	if st.Dataset == nil || !st.Dataset.Labeled() {
		return core.NewDomainError(core.ModuleSearch, core.ErrorCodeInvalidInput, "search: no labeled dataset")
	}
	reg := n.Registry
	if reg == nil {
		reg = candidate.Default()
	}
	st.Registry = reg

	opts := []search.Option{search.WithLogger(st.Logger)}
	if n.Folds > 0 {
		opts = append(opts, search.WithFolds(n.Folds))
	}
	if n.Workers > 0 {
		opts = append(opts, search.WithWorkers(n.Workers))
	}
	report, err := search.New(opts...).Run(ctx, st.Dataset.X, st.Dataset.Y, reg.Searchable())
	if report != nil {
		st.Report = report
		fmt.Fprintln(st.Out, search.FormatElapsed(report.Elapsed))
		if werr := report.WriteTable(st.Out); werr != nil {
			return werr
		}
	}
	if err == nil {
		return nil
	}
	if n.AllowExhausted && onlyExhausted(err) {
		st.Logger.Warn(err.Error())
		return nil
	}
	return err
}

func onlyExhausted(err error) bool {
	for _, e := range multierr.Errors(err) {
		if !core.IsCandidateSearchExhausted(e) {
			return false
		}
	}
	return true
}
