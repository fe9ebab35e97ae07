package stage

import (
	"context"
	"fmt"

	"github.com/rushteam/survkit/core"
	"github.com/rushteam/survkit/pipeline"
	"github.com/rushteam/survkit/trainer"
)

// Train 用选定的候选做最终训练。
type Train struct {
	Folds int
}

func (n *Train) Name() string        { return "trainer.kfold" }
func (n *Train) Kind() pipeline.Kind { return pipeline.KindTrain }

func (n *Train) Process(ctx context.Context, st *pipeline.State) error {
	if st.Dataset == nil || st.Choice == nil {
		return core.NewDomainError(core.ModuleTrainer, core.ErrorCodeInvalidInput, "train: dataset or choice missing")
	}
	opts := []trainer.Option{trainer.WithLogger(st.Logger)}
	if n.Folds > 0 {
		opts = append(opts, trainer.WithFolds(n.Folds))
	}
	art, err := trainer.New(opts...).Train(ctx, st.Dataset, *st.Choice)
	if err != nil {
		return err
	}
	st.Artifact = art
	fmt.Fprintf(st.Out, "Training accuracy (%s, last of %d folds): %.4f\n", art.CandidateID, art.Folds, art.TrainScore)
	return nil
}
