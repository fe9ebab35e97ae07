// Package trainer 用选定的候选模型和参数做最终训练。
package trainer

import (
	"context"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/survkit/core"
	"github.com/rushteam/survkit/feature"
	"github.com/rushteam/survkit/model"
	"github.com/rushteam/survkit/search"
)

// Choice 最终训练使用的候选与参数。
type Choice struct {
	Candidate search.Candidate
	Params    search.Assignment
}

// Trainer 按顺序 K 折轮转训练，保留最后一折的模型。
type Trainer struct {
	folds  int
	logger *zap.Logger
}

// Option 配置 Trainer。
type Option func(*Trainer)

// WithFolds 设置轮转折数（默认 8）。
func WithFolds(k int) Option {
	return func(t *Trainer) { t.folds = k }
}

// WithLogger 设置日志。
func WithLogger(l *zap.Logger) Option {
	return func(t *Trainer) { t.logger = l }
}

// New 创建 Trainer。
func New(opts ...Option) *Trainer {
	t := &Trainer{
		folds:  core.Defaults.DefaultFinalFolds(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = zap.NewNop()
	}
	return t
}

// Train 对 ds 做不打乱顺序的 K 折划分；每一折都用新构造的分类器在该折的训练部分上训练，
// 只保留最后一折的模型，并报告它在自身训练分区上的准确率。
// 任何一折失败都返回 FinalFitFailed，不重试。
func (t *Trainer) Train(ctx context.Context, ds *feature.Dataset, choice Choice) (*Artifact, error) {
	if choice.Candidate == nil {
		return nil, core.NewDomainError(core.ModuleTrainer, core.ErrorCodeInvalidInput, "trainer: no candidate chosen")
	}
	if ds == nil || !ds.Labeled() {
		return nil, core.NewDomainError(core.ModuleTrainer, core.ErrorCodeFinalFitFailed, "trainer: dataset has no labels")
	}
	id := choice.Candidate.ID()
	splits, err := search.KFold(ds.Rows(), t.folds)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleTrainer, core.ErrorCodeFinalFitFailed, err,
			"trainer: %s", id)
	}

	var (
		last       model.Classifier
		lastX      *mat.Dense
		lastY      []float64
		foldScores = make([]float64, 0, len(splits))
	)
	for f, s := range splits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		trainX, trainY := search.Subset(ds.X, ds.Y, s.Train)
		clf, err := choice.Candidate.Build(choice.Params)
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleTrainer, core.ErrorCodeFinalFitFailed, err,
				"trainer: %s fold %d: build", id, f)
		}
		if err := clf.Fit(trainX, trainY); err != nil {
			return nil, core.WrapDomainError(core.ModuleTrainer, core.ErrorCodeFinalFitFailed, err,
				"trainer: %s fold %d: fit", id, f)
		}
		testX, testY := search.Subset(ds.X, ds.Y, s.Test)
		holdout, err := model.Score(clf, testX, testY)
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleTrainer, core.ErrorCodeFinalFitFailed, err,
				"trainer: %s fold %d: score", id, f)
		}
		foldScores = append(foldScores, holdout)
		t.logger.Debug("fold trained",
			zap.String("candidate", id),
			zap.Int("fold", f),
			zap.Int("train_rows", len(s.Train)),
			zap.Float64("holdout_accuracy", holdout),
		)
		last, lastX, lastY = clf, trainX, trainY
	}

	score, err := model.Score(last, lastX, lastY)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleTrainer, core.ErrorCodeFinalFitFailed, err,
			"trainer: %s: score", id)
	}
	t.logger.Info("final model trained",
		zap.String("candidate", id),
		zap.Stringer("params", choice.Params),
		zap.Float64("train_accuracy", score),
	)
	return &Artifact{
		CandidateID: id,
		Family:      choice.Candidate.Family(),
		Params:      append(search.Assignment(nil), choice.Params...),
		Model:       last,
		TrainScore:  score,
		FoldScores:  foldScores,
		Folds:       t.folds,
		Metadata:    ds.Metadata(),
	}, nil
}
