package trainer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/rushteam/survkit/feature"
	"github.com/rushteam/survkit/model"
	"github.com/rushteam/survkit/search"
)

// Artifact 最终训练产物：模型 + 重建特征所需的元数据。
type Artifact struct {
	CandidateID string
	Family      string
	Params      search.Assignment
	Model       model.Classifier
	// TrainScore 最后一个模型在其训练分区上的准确率
	TrainScore float64
	// FoldScores 每一轮在留出折上的准确率（仅供参考，不参与选择）
	FoldScores []float64
	Folds      int
	Metadata   feature.Metadata
}

// Prediction 单个乘客的预测结果。
type Prediction struct {
	PassengerID int
	Survived    int
}

// Predict 对已准备好的数据做预测。
func (a *Artifact) Predict(ds *feature.Dataset) ([]Prediction, error) {
	if a.Model == nil {
		return nil, model.ErrNotFitted
	}
	pred, err := a.Model.Predict(ds.X)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", a.CandidateID, err)
	}
	out := make([]Prediction, len(pred))
	for i, p := range pred {
		out[i] = Prediction{PassengerID: ds.IDs[i], Survived: int(p)}
	}
	return out, nil
}

// PredictPassengers 用产物中保存的编码映射和填充值处理原始记录后预测。
// 出现训练时未见过的类别时返回 EncodingError。
func (a *Artifact) PredictPassengers(rows []feature.Passenger) ([]Prediction, error) {
	ds, err := feature.Transform(rows, a.Metadata)
	if err != nil {
		return nil, err
	}
	return a.Predict(ds)
}

// WritePredictions 以 PassengerId,Survived 两列 CSV 输出预测结果。
func WritePredictions(w io.Writer, preds []Prediction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{feature.ColPassengerID, feature.ColSurvived}); err != nil {
		return err
	}
	for _, p := range preds {
		if err := cw.Write([]string{strconv.Itoa(p.PassengerID), strconv.Itoa(p.Survived)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
