// Package stage 提供训练流水线的各个 Node：数据准备、网格搜索、候选选择、最终训练、产物落盘。
package stage

import (
	"context"

	"go.uber.org/zap"

	"github.com/rushteam/survkit/core"
	"github.com/rushteam/survkit/feature"
	"github.com/rushteam/survkit/pipeline"
)

// Prepare 读取训练 CSV 并生成数值特征矩阵。State.Rows 已有数据时直接使用。
type Prepare struct {
	Path string
}

func (n *Prepare) Name() string        { return "feature.prepare" }
func (n *Prepare) Kind() pipeline.Kind { return pipeline.KindPrepare }

func (n *Prepare) Process(ctx context.Context, st *pipeline.State) error {
	rows := st.Rows
	if rows == nil {
		if n.Path == "" {
			return core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidInput, "prepare: no input path")
		}
		var err error
		if rows, err = feature.LoadPassengersFile(n.Path); err != nil {
			return err
		}
		st.Rows = rows
	}

	missing := feature.MissingCounts(rows)
	st.Logger.Debug("missing values before imputation",
		zap.Int("age", missing[feature.ColAge]),
		zap.Int("embarked", missing[feature.ColEmbarked]),
		zap.Int("cabin", missing[feature.ColCabin]),
	)
	ds, err := feature.Prepare(rows)
	if err != nil {
		return err
	}
	st.Dataset = ds
	st.Logger.Info("dataset prepared",
		zap.Int("rows", ds.Rows()),
		zap.Strings("columns", ds.Columns),
		zap.Float64("age_median", ds.Imputation.Age),
		zap.String("embarked_mode", ds.Imputation.Embarked),
		zap.Strings("encoded", ds.Encoding.Columns()),
	)
	if st.Logger.Core().Enabled(zap.DebugLevel) {
		stats := ds.Describe()
		for _, c := range ds.Columns {
			s := stats[c]
			st.Logger.Debug("feature statistics",
				zap.String("column", c),
				zap.Float64("mean", s.Mean),
				zap.Float64("std", s.Std),
				zap.Float64("min", s.Min),
				zap.Float64("median", s.Median),
				zap.Float64("max", s.Max),
			)
		}
	}
	return nil
}
