package candidate

import (
	"fmt"

	"github.com/rushteam/survkit/model"
	"github.com/rushteam/survkit/pkg/conv"
	"github.com/rushteam/survkit/search"
)

// 模型家族
const (
	FamilyRandomForest       = "random_forest"
	FamilyLogisticRegression = "logistic_regression"
	FamilyDecisionTree       = "decision_tree"
	FamilySVM                = "svm"
	FamilyXGBoost            = "xgboost"
)

// Seeded 报告家族的模型是否接受 seed 参数（拟合过程含随机抽样）。
func Seeded(family string) bool {
	switch family {
	case FamilyRandomForest, FamilySVM, FamilyXGBoost:
		return true
	}
	return false
}

// Grid 是某个模型家族的参数网格。接口是封闭的：只有本包定义的网格类型可以实现。
//
// Axes 只包含非空的参数维度；Build 按给定参数构造新的分类器，
// 未出现在参数中的超参数使用该家族的默认值，未知参数名返回错误。
type Grid interface {
	Family() string
	Axes() []search.Axis
	Build(params search.Assignment) (model.Classifier, error)
	sealed()
}

// ForestGrid 随机森林网格。
type ForestGrid struct {
	NEstimators []int    `yaml:"n_estimators"`
	MaxDepth    []int    `yaml:"max_depth"`
	Criterion   []string `yaml:"criterion"`
	Seed        int64    `yaml:"seed"`
}

func (ForestGrid) Family() string { return FamilyRandomForest }
func (ForestGrid) sealed()        {}

func (g ForestGrid) Axes() []search.Axis {
	var axes []search.Axis
	axes = appendAxis(axes, "n_estimators", g.NEstimators)
	axes = appendAxis(axes, "max_depth", g.MaxDepth)
	axes = appendAxis(axes, "criterion", g.Criterion)
	return axes
}

func (g ForestGrid) Build(params search.Assignment) (model.Classifier, error) {
	m := &model.RandomForest{Criterion: model.CriterionGini, Seed: g.Seed}
	for _, p := range params {
		var err error
		switch p.Name {
		case "n_estimators":
			m.NEstimators, err = intParam(p)
		case "max_depth":
			m.MaxDepth, err = intParam(p)
		case "criterion":
			m.Criterion, err = stringParam(p)
		case "seed":
			m.Seed, err = int64Param(p)
		default:
			err = unknownParam(FamilyRandomForest, p)
		}
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// LogisticGrid 逻辑回归网格。
type LogisticGrid struct {
	C       []float64 `yaml:"C"`
	MaxIter []int     `yaml:"max_iter"`
}

func (LogisticGrid) Family() string { return FamilyLogisticRegression }
func (LogisticGrid) sealed()        {}

func (g LogisticGrid) Axes() []search.Axis {
	var axes []search.Axis
	axes = appendAxis(axes, "C", g.C)
	axes = appendAxis(axes, "max_iter", g.MaxIter)
	return axes
}

func (g LogisticGrid) Build(params search.Assignment) (model.Classifier, error) {
	m := model.NewLogisticRegression(1)
	for _, p := range params {
		var err error
		switch p.Name {
		case "C", "c": // viper 会把配置键转为小写
			m.C, err = floatParam(p)
		case "max_iter":
			m.MaxIter, err = intParam(p)
		default:
			err = unknownParam(FamilyLogisticRegression, p)
		}
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// TreeGrid 决策树网格。CART 拟合是确定性的，没有 seed 参数。
type TreeGrid struct {
	Criterion []string `yaml:"criterion"`
	MaxDepth  []int    `yaml:"max_depth"`
}

func (TreeGrid) Family() string { return FamilyDecisionTree }
func (TreeGrid) sealed()        {}

func (g TreeGrid) Axes() []search.Axis {
	var axes []search.Axis
	axes = appendAxis(axes, "criterion", g.Criterion)
	axes = appendAxis(axes, "max_depth", g.MaxDepth)
	return axes
}

func (g TreeGrid) Build(params search.Assignment) (model.Classifier, error) {
	m := model.NewDecisionTree()
	for _, p := range params {
		var err error
		switch p.Name {
		case "criterion":
			m.Criterion, err = stringParam(p)
		case "max_depth":
			m.MaxDepth, err = intParam(p)
		default:
			err = unknownParam(FamilyDecisionTree, p)
		}
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// SVMGrid 支持向量机网格。Gamma 为空时使用 auto（1/n_features）。
type SVMGrid struct {
	C      []float64 `yaml:"C"`
	Kernel []string  `yaml:"kernel"`
	Gamma  []float64 `yaml:"gamma"`
	Seed   int64     `yaml:"seed"`
}

func (SVMGrid) Family() string { return FamilySVM }
func (SVMGrid) sealed()        {}

func (g SVMGrid) Axes() []search.Axis {
	var axes []search.Axis
	axes = appendAxis(axes, "C", g.C)
	axes = appendAxis(axes, "kernel", g.Kernel)
	axes = appendAxis(axes, "gamma", g.Gamma)
	return axes
}

func (g SVMGrid) Build(params search.Assignment) (model.Classifier, error) {
	m := model.NewSVM(1, model.KernelRBF)
	m.Seed = g.Seed
	for _, p := range params {
		var err error
		switch p.Name {
		case "C", "c": // viper 会把配置键转为小写
			m.C, err = floatParam(p)
		case "kernel":
			m.Kernel, err = stringParam(p)
		case "gamma":
			m.Gamma, err = floatParam(p)
		case "seed":
			m.Seed, err = int64Param(p)
		default:
			err = unknownParam(FamilySVM, p)
		}
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// BoostGrid 梯度提升树网格，参数名与 xgboost 一致。
type BoostGrid struct {
	LearningRate    []float64 `yaml:"learning_rate"`
	MaxDepth        []int     `yaml:"max_depth"`
	MinChildWeight  []float64 `yaml:"min_child_weight"`
	Gamma           []float64 `yaml:"gamma"`
	ColsampleByTree []float64 `yaml:"colsample_bytree"`
	NEstimators     []int     `yaml:"n_estimators"`
	Lambda          []float64 `yaml:"lambda"`
	Seed            int64     `yaml:"seed"`
}

func (BoostGrid) Family() string { return FamilyXGBoost }
func (BoostGrid) sealed()        {}

func (g BoostGrid) Axes() []search.Axis {
	var axes []search.Axis
	axes = appendAxis(axes, "learning_rate", g.LearningRate)
	axes = appendAxis(axes, "max_depth", g.MaxDepth)
	axes = appendAxis(axes, "min_child_weight", g.MinChildWeight)
	axes = appendAxis(axes, "gamma", g.Gamma)
	axes = appendAxis(axes, "colsample_bytree", g.ColsampleByTree)
	axes = appendAxis(axes, "n_estimators", g.NEstimators)
	axes = appendAxis(axes, "lambda", g.Lambda)
	return axes
}

func (g BoostGrid) Build(params search.Assignment) (model.Classifier, error) {
	m := model.NewGradientBoosting()
	m.Seed = g.Seed
	for _, p := range params {
		var err error
		switch p.Name {
		case "learning_rate":
			m.LearningRate, err = floatParam(p)
		case "max_depth":
			m.MaxDepth, err = intParam(p)
		case "min_child_weight":
			m.MinChildWeight, err = floatParam(p)
		case "gamma":
			m.Gamma, err = floatParam(p)
		case "colsample_bytree":
			m.ColsampleByTree, err = floatParam(p)
		case "n_estimators":
			m.NEstimators, err = intParam(p)
		case "lambda", "reg_lambda":
			m.Lambda, err = floatParam(p)
		case "base_score":
			m.BaseScore, err = floatParam(p)
		case "seed", "random_state":
			m.Seed, err = int64Param(p)
		default:
			err = unknownParam(FamilyXGBoost, p)
		}
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func appendAxis[T any](axes []search.Axis, name string, values []T) []search.Axis {
	if len(values) == 0 {
		return axes
	}
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return append(axes, search.Axis{Name: name, Values: vs})
}

func unknownParam(family string, p search.Param) error {
	return fmt.Errorf("%s: unknown parameter %q", family, p.Name)
}

func intParam(p search.Param) (int, error) {
	if f, ok := p.Value.(float64); ok && f != float64(int(f)) {
		return 0, fmt.Errorf("parameter %q: %v is not an integer", p.Name, p.Value)
	}
	v, ok := conv.ToInt(p.Value)
	if !ok {
		return 0, fmt.Errorf("parameter %q: expected integer, got %T", p.Name, p.Value)
	}
	return v, nil
}

func int64Param(p search.Param) (int64, error) {
	v, err := intParam(p)
	return int64(v), err
}

func floatParam(p search.Param) (float64, error) {
	if _, isBool := p.Value.(bool); isBool {
		return 0, fmt.Errorf("parameter %q: expected number, got bool", p.Name)
	}
	v, ok := conv.ToFloat64(p.Value)
	if !ok {
		return 0, fmt.Errorf("parameter %q: expected number, got %T", p.Name, p.Value)
	}
	return v, nil
}

func stringParam(p search.Param) (string, error) {
	v, ok := conv.ToString(p.Value)
	if !ok {
		return "", fmt.Errorf("parameter %q: expected string, got %T", p.Name, p.Value)
	}
	return v, nil
}
