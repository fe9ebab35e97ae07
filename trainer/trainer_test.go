package trainer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rushteam/survkit/candidate"
	"github.com/rushteam/survkit/core"
	"github.com/rushteam/survkit/feature"
	"github.com/rushteam/survkit/model"
	"github.com/rushteam/survkit/search"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

// passengers 生成 n 条记录：女性与一等舱乘客存活。
func passengers(n int) []feature.Passenger {
	rows := make([]feature.Passenger, n)
	ports := []string{"S", "C", "Q"}
	for i := range rows {
		sex := "male"
		if i%3 == 0 {
			sex = "female"
		}
		class := 1 + i%3
		survived := 0
		if sex == "female" || class == 1 {
			survived = 1
		}
		rows[i] = feature.Passenger{
			PassengerID: i + 1,
			Survived:    iptr(survived),
			Pclass:      class,
			Sex:         sex,
			Age:         fptr(float64(20 + i%30)),
			SibSp:       i % 2,
			Parch:       i % 4 / 3,
			Fare:        fptr(float64(10 * (4 - class))),
			Embarked:    ports[i%3],
		}
	}
	return rows
}

func prepared(t *testing.T, n int) *feature.Dataset {
	t.Helper()
	ds, err := feature.Prepare(passengers(n))
	require.NoError(t, err)
	return ds
}

func treeChoice(t *testing.T) Choice {
	t.Helper()
	c, ok := candidate.Default().Lookup(candidate.FamilyDecisionTree)
	require.True(t, ok)
	return Choice{Candidate: c, Params: search.Assignment{{Name: "criterion", Value: "gini"}}}
}

func TestTrain_KeepsLastFold(t *testing.T) {
	ds := prepared(t, 43)
	tr := New(WithLogger(zaptest.NewLogger(t)))

	art, err := tr.Train(context.Background(), ds, treeChoice(t))
	require.NoError(t, err)
	assert.Equal(t, "decision_tree", art.CandidateID)
	assert.Equal(t, candidate.FamilyDecisionTree, art.Family)
	assert.Equal(t, 8, art.Folds)
	assert.Len(t, art.FoldScores, 8)
	assert.Equal(t, ds.Metadata().Encoding, art.Metadata.Encoding)

	// 分数是最后一折训练分区上的准确率
	splits, err := search.KFold(43, 8)
	require.NoError(t, err)
	x, y := search.Subset(ds.X, ds.Y, splits[7].Train)
	want, err := model.Score(art.Model, x, y)
	require.NoError(t, err)
	assert.Equal(t, want, art.TrainScore)
	assert.Len(t, splits[0].Test, 6, "first 43%8 folds are one row larger")
}

func TestTrain_Reproducible(t *testing.T) {
	ds := prepared(t, 40)
	a, err := New().Train(context.Background(), ds, treeChoice(t))
	require.NoError(t, err)
	b, err := New().Train(context.Background(), ds, treeChoice(t))
	require.NoError(t, err)
	assert.Equal(t, a.TrainScore, b.TrainScore)
	assert.Equal(t, a.FoldScores, b.FoldScores)
}

func TestTrain_Failures(t *testing.T) {
	svm, ok := candidate.Default().Lookup(candidate.FamilySVM)
	require.True(t, ok)

	tests := []struct {
		name   string
		rows   int
		choice func(t *testing.T) Choice
	}{
		{"fit error", 40, func(*testing.T) Choice {
			return Choice{Candidate: svm, Params: search.Assignment{{Name: "kernel", Value: "poly"}}}
		}},
		{"build error", 40, func(*testing.T) Choice {
			return Choice{Candidate: svm, Params: search.Assignment{{Name: "degree", Value: 3}}}
		}},
		{"fewer rows than folds", 5, treeChoice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Train(context.Background(), prepared(t, tt.rows), tt.choice(t))
			require.Error(t, err)
			assert.True(t, core.IsFinalFitFailed(err), "got %v", err)
		})
	}
}

func TestTrain_UnlabeledDataset(t *testing.T) {
	rows := passengers(20)
	for i := range rows {
		rows[i].Survived = nil
	}
	ds, err := feature.Prepare(rows, feature.WithUnlabeled())
	require.NoError(t, err)
	_, err = New().Train(context.Background(), ds, treeChoice(t))
	assert.True(t, core.IsFinalFitFailed(err))
}

func TestArtifact_PredictPassengers(t *testing.T) {
	ds := prepared(t, 40)
	art, err := New(WithFolds(4)).Train(context.Background(), ds, treeChoice(t))
	require.NoError(t, err)

	fresh := passengers(3)
	for i := range fresh {
		fresh[i].PassengerID = 900 + i
		fresh[i].Survived = nil
		fresh[i].Age = nil
	}
	preds, err := art.PredictPassengers(fresh)
	require.NoError(t, err)
	require.Len(t, preds, 3)
	assert.Equal(t, 900, preds[0].PassengerID)
	for _, p := range preds {
		assert.Contains(t, []int{0, 1}, p.Survived)
	}

	fresh[0].Embarked = "X"
	_, err = art.PredictPassengers(fresh)
	assert.True(t, core.IsEncoding(err))
}

func TestWritePredictions(t *testing.T) {
	var buf bytes.Buffer
	err := WritePredictions(&buf, []Prediction{{PassengerID: 892, Survived: 0}, {PassengerID: 893, Survived: 1}})
	require.NoError(t, err)
	assert.Equal(t, "PassengerId,Survived\n892,0\n893,1\n", buf.String())
}
