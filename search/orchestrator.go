package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/rushteam/survkit/core"
	"github.com/rushteam/survkit/model"
)

// Event 描述一次 fit/score 操作（单个组合在单个折上）。
type Event struct {
	CandidateID string
	Combination int // 组合在枚举结果中的下标
	Fold        int
	Params      Assignment
	Score       float64
	Err         error
}

// Observer 观察每次 fit/score；会被多个 goroutine 并发调用，实现方需自行保证并发安全。
type Observer func(Event)

// Orchestrator 网格搜索编排器。
type Orchestrator struct {
	folds      int
	workers    int
	stratified bool
	logger     *zap.Logger
	observer   Observer
}

// Option 配置 Orchestrator。
type Option func(*Orchestrator)

// WithFolds 设置交叉验证折数（默认 5）。
func WithFolds(k int) Option {
	return func(o *Orchestrator) { o.folds = k }
}

// WithWorkers 设置并发评估的组合数上限（默认 runtime.NumCPU()）。
func WithWorkers(n int) Option {
	return func(o *Orchestrator) { o.workers = n }
}

// WithStratified 是否使用分层 K 折（默认 true）。
func WithStratified(on bool) Option {
	return func(o *Orchestrator) { o.stratified = on }
}

// WithLogger 设置日志。
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithObserver 设置 fit/score 观察者。
func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

// New 创建编排器。
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		folds:      core.Defaults.DefaultSearchFolds(),
		workers:    runtime.NumCPU(),
		stratified: true,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.workers < 1 {
		o.workers = 1
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// Folds 返回交叉验证折数。
func (o *Orchestrator) Folds() int { return o.folds }

type foldData struct {
	trainX, testX *mat.Dense
	trainY, testY []float64
}

// trial 单个组合的评估结果，下标与枚举顺序一致。
type trial struct {
	scores []float64
	err    error
}

// Run 依次搜索每个候选模型。
//
// 单个组合失败（构造或训练出错）只会被跳过并计数；某个候选的所有组合都失败时，
// 该候选记为 CandidateSearchExhausted，搜索继续进行，最终返回已完成的部分报告与合并后的错误。
// ctx 取消后不再调度新的组合，返回已完成部分与 ctx.Err()。
func (o *Orchestrator) Run(ctx context.Context, X mat.Matrix, y []float64, candidates []Candidate) (*Report, error) {
	rows, _ := X.Dims()
	if rows != len(y) {
		return nil, core.NewDomainError(core.ModuleSearch, core.ErrorCodeInvalidInput,
			fmt.Sprintf("search: %d rows but %d labels", rows, len(y)))
	}
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c.ID()]; dup {
			return nil, core.NewDomainError(core.ModuleSearch, core.ErrorCodeInvalidInput,
				fmt.Sprintf("search: duplicate candidate id %q", c.ID()))
		}
		seen[c.ID()] = struct{}{}
	}

	var splits []Fold
	var err error
	if o.stratified {
		splits, err = StratifiedKFold(y, o.folds)
	} else {
		splits, err = KFold(rows, o.folds)
	}
	if err != nil {
		return nil, err
	}
	data := materialize(X, y, splits)

	start := time.Now()
	report := &Report{Folds: o.folds}
	var errs error
	canceled := false
	for _, c := range candidates {
		if ctx.Err() != nil {
			break
		}
		res, cerr := o.searchCandidate(ctx, c, data)
		if cerr != nil {
			if ctx.Err() != nil && errors.Is(cerr, ctx.Err()) {
				canceled = true
			}
			errs = multierr.Append(errs, cerr)
			if core.IsCandidateSearchExhausted(cerr) {
				report.Exhausted = append(report.Exhausted, c.ID())
			}
			continue
		}
		report.Results = append(report.Results, res)
		o.logger.Info("candidate searched",
			zap.String("candidate", res.CandidateID),
			zap.Float64("best_score", res.BestScore),
			zap.Stringer("best_params", res.BestParams),
			zap.Int("combinations", len(res.Trials)),
			zap.Int("failed", res.Failed),
		)
	}
	report.Elapsed = time.Since(start)
	if err := ctx.Err(); err != nil && !canceled {
		errs = multierr.Append(errs, err)
	}
	return report, errs
}

func (o *Orchestrator) searchCandidate(ctx context.Context, c Candidate, data []foldData) (Result, error) {
	combos := Enumerate(c.Axes())
	if len(combos) == 0 {
		return Result{}, core.NewDomainError(core.ModuleSearch, core.ErrorCodeCandidateSearchExhausted,
			fmt.Sprintf("search: candidate %q has an axis with no values", c.ID()))
	}
	trials := make([]trial, len(combos))

	var g errgroup.Group
	g.SetLimit(o.workers)
	for i, params := range combos {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			trials[i] = o.evaluate(ctx, c, i, params, data)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res := Result{
		CandidateID: c.ID(),
		Family:      c.Family(),
		BestScore:   math.Inf(-1),
		Trials:      make([]Trial, len(combos)),
	}
	var firstErr error
	best := -1
	for i, t := range trials {
		res.Trials[i] = Trial{Params: combos[i], Scores: t.scores}
		if t.err != nil {
			res.Trials[i].Err = t.err.Error()
			res.Failed++
			if firstErr == nil {
				firstErr = t.err
			}
			o.logger.Debug("combination skipped",
				zap.String("candidate", c.ID()),
				zap.Stringer("params", combos[i]),
				zap.Error(t.err),
			)
			continue
		}
		mean, variance := stat.PopMeanVariance(t.scores, nil)
		res.Trials[i].Mean = mean
		res.Trials[i].Std = math.Sqrt(variance)
		// 严格大于：分数相同保留先枚举到的组合
		if mean > res.BestScore {
			best = i
			res.BestScore = mean
			res.BestStd = res.Trials[i].Std
		}
	}
	if best < 0 {
		return Result{}, core.WrapDomainError(core.ModuleSearch, core.ErrorCodeCandidateSearchExhausted, firstErr,
			"search: candidate %q: all %d combinations failed", c.ID(), len(combos))
	}
	res.BestParams = combos[best]
	return res, nil
}

// evaluate 对单个组合做 K 折交叉验证；每折构造新的分类器，任一折失败即整个组合失败。
func (o *Orchestrator) evaluate(ctx context.Context, c Candidate, idx int, params Assignment, data []foldData) trial {
	scores := make([]float64, 0, len(data))
	for f, d := range data {
		if err := ctx.Err(); err != nil {
			return trial{err: err}
		}
		score, err := fitScore(c, params, d)
		if o.observer != nil {
			o.observer(Event{CandidateID: c.ID(), Combination: idx, Fold: f, Params: params, Score: score, Err: err})
		}
		if err != nil {
			return trial{err: fmt.Errorf("fold %d: %w", f, err)}
		}
		scores = append(scores, score)
	}
	return trial{scores: scores}
}

func fitScore(c Candidate, params Assignment, d foldData) (float64, error) {
	clf, err := c.Build(params)
	if err != nil {
		return 0, err
	}
	if err := clf.Fit(d.trainX, d.trainY); err != nil {
		return 0, err
	}
	return model.Score(clf, d.testX, d.testY)
}

// materialize 预先拷贝每折的训练/测试数据，所有组合共享（只读）。
func materialize(X mat.Matrix, y []float64, splits []Fold) []foldData {
	out := make([]foldData, len(splits))
	for i, s := range splits {
		out[i].trainX, out[i].trainY = Subset(X, y, s.Train)
		out[i].testX, out[i].testY = Subset(X, y, s.Test)
	}
	return out
}

// Subset 按行下标拷贝 X 和 y。
func Subset(X mat.Matrix, y []float64, rows []int) (*mat.Dense, []float64) {
	_, c := X.Dims()
	sub := mat.NewDense(len(rows), c, nil)
	ys := make([]float64, len(rows))
	for i, r := range rows {
		for j := 0; j < c; j++ {
			sub.Set(i, j, X.At(r, j))
		}
		ys[i] = y[r]
	}
	return sub, ys
}
