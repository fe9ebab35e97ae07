// Package dsl 提供基于 CEL 的选择规则，用于从搜索结果中挑选最终训练的候选模型。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/survkit/core"
	"github.com/rushteam/survkit/search"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("result", cel.DynType),
		// 允许 result.score > 1 这类 double 与 int 的比较
		cel.CrossTypeNumericComparisons(true),
	)
}

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Selector 是编译后的选择规则，可并发复用。
//
// 表达式语法（CEL 标准语法），可用字段：
//   - result.candidate  候选 ID
//   - result.family     模型家族
//   - result.score      最佳平均准确率
//   - result.std        对应的标准差
//   - result.failed     失败被跳过的组合数
//   - result.params     最佳参数（map）
//
// 示例：
//   - `result.family == "xgboost"` → 指定家族
//   - `result.score >= 0.8 && result.std < 0.05` → 分数高且稳定
//   - `"kernel" in result.params && result.params.kernel == "linear"`
type Selector struct {
	expr string
	prg  cel.Program
}

// NewSelector 编译表达式。空表达式匹配任何结果。
func NewSelector(expr string) (*Selector, error) {
	s := &Selector{expr: expr}
	if expr == "" {
		return s, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, core.WrapDomainError(core.ModuleSelect, core.ErrorCodeInvalidInput, issues.Err(),
			"select: compile %q", expr)
	}
	if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
		return nil, core.NewDomainError(core.ModuleSelect, core.ErrorCodeInvalidInput,
			fmt.Sprintf("select: expression %q must return bool, got %s", expr, t))
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleSelect, core.ErrorCodeInvalidInput, err,
			"select: program %q", expr)
	}
	s.prg = prg
	return s, nil
}

// String 返回原始表达式。
func (s *Selector) String() string { return s.expr }

// Match 判断结果是否满足规则。
func (s *Selector) Match(r search.Result) (bool, error) {
	if s.prg == nil {
		return true, nil
	}
	out, _, err := s.prg.Eval(map[string]any{"result": Input(r)})
	if err != nil {
		// 访问不存在的 key 会报错，可用 "key" in result.params 先判断
		return false, fmt.Errorf("select: eval %q: %w", s.expr, err)
	}
	ok, isBool := out.Value().(bool)
	if !isBool {
		return false, fmt.Errorf("select: expression %q must return bool, got %T", s.expr, out.Value())
	}
	return ok, nil
}

// Pick 按顺序返回第一个满足规则的结果（ranked 通常为 Report.Ranked()）。
func (s *Selector) Pick(ranked []search.Result) (search.Result, error) {
	for _, r := range ranked {
		ok, err := s.Match(r)
		if err != nil {
			return search.Result{}, err
		}
		if ok {
			return r, nil
		}
	}
	return search.Result{}, core.NewDomainError(core.ModuleSelect, core.ErrorCodeNotFound,
		fmt.Sprintf("select: no search result matches %q", s.expr))
}

// Evaluate 编译并执行一次表达式。
func Evaluate(expr string, r search.Result) (bool, error) {
	s, err := NewSelector(expr)
	if err != nil {
		return false, err
	}
	return s.Match(r)
}

// Input 构建 CEL 表达式的输入数据
func Input(r search.Result) map[string]any {
	return map[string]any{
		"candidate": r.CandidateID,
		"family":    r.Family,
		"score":     r.BestScore,
		"std":       r.BestStd,
		"failed":    r.Failed,
		"params":    r.BestParams.Map(),
	}
}
