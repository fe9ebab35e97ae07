package model

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// grid 生成 40 行、可线性分割的二维数据：x0 + x1 > 6 为正类。
func grid() (*mat.Dense, []float64) {
	x := mat.NewDense(40, 2, nil)
	y := make([]float64, 40)
	for i := 0; i < 40; i++ {
		a, b := float64(i%10), float64(i/10)
		x.Set(i, 0, a)
		x.Set(i, 1, b)
		if a+b > 6 {
			y[i] = 1
		}
	}
	return x, y
}

func TestClassifiers_FitSeparableData(t *testing.T) {
	tests := []struct {
		name string
		clf  Classifier
		min  float64
	}{
		{"decision_tree gini", NewDecisionTree(), 0.9},
		{"decision_tree entropy", &DecisionTree{Criterion: CriterionEntropy}, 0.9},
		{"random_forest", &RandomForest{NEstimators: 10, MaxFeatures: 2, Seed: 1}, 0.9},
		{"logistic_regression", NewLogisticRegression(10), 0.9},
		{"svm linear", &SVM{C: 10, Kernel: KernelLinear, Seed: 1}, 0.8},
		{"svm rbf", &SVM{C: 10, Kernel: KernelRBF, Seed: 1}, 0.8},
		{"xgboost", NewGradientBoosting(), 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := grid()
			require.NoError(t, tt.clf.Fit(x, y))
			acc, err := Score(tt.clf, x, y)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, acc, tt.min)
		})
	}
}

func TestClassifiers_Deterministic(t *testing.T) {
	tests := []struct {
		name string
		make func() Classifier
	}{
		{"random_forest", func() Classifier { return &RandomForest{NEstimators: 5, Seed: 7} }},
		{"svm", func() Classifier { return &SVM{C: 1, Seed: 7} }},
		{"xgboost colsample", func() Classifier {
			m := NewGradientBoosting()
			m.ColsampleByTree = 0.5
			m.NEstimators = 20
			m.Seed = 7
			return m
		}},
		{"random_forest subspace", func() Classifier { return &RandomForest{NEstimators: 7, MaxFeatures: 1, Seed: 7} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := grid()
			a, b := tt.make(), tt.make()
			require.NoError(t, a.Fit(x, y))
			require.NoError(t, b.Fit(x, y))
			pa, err := a.Predict(x)
			require.NoError(t, err)
			pb, err := b.Predict(x)
			require.NoError(t, err)
			assert.Equal(t, pa, pb)
		})
	}
}

func TestClassifiers_InvalidHyperparameters(t *testing.T) {
	tests := []struct {
		name string
		clf  Classifier
	}{
		{"tree criterion", &DecisionTree{Criterion: "mse"}},
		{"tree depth", &DecisionTree{MaxDepth: -1}},
		{"forest estimators", &RandomForest{NEstimators: -1}},
		{"forest criterion", &RandomForest{NEstimators: 2, Criterion: "bogus"}},
		{"forest max features", &RandomForest{NEstimators: 2, MaxFeatures: -1}},
		{"lr C", NewLogisticRegression(-1)},
		{"svm kernel", NewSVM(1, "poly")},
		{"svm C", NewSVM(-2, KernelRBF)},
		{"xgboost colsample", &GradientBoosting{ColsampleByTree: 1.5}},
		{"xgboost gamma", &GradientBoosting{Gamma: -0.1}},
		{"xgboost base score", &GradientBoosting{BaseScore: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := grid()
			assert.Error(t, tt.clf.Fit(x, y))
		})
	}
}

func TestClassifiers_InputErrors(t *testing.T) {
	x, y := grid()

	_, err := NewDecisionTree().Predict(x)
	assert.ErrorIs(t, err, ErrNotFitted)

	assert.Error(t, NewDecisionTree().Fit(x, y[:10]), "row/label mismatch")

	multi := append([]float64(nil), y...)
	multi[0] = 2
	assert.Error(t, NewLogisticRegression(1).Fit(x, multi))
	assert.Error(t, NewGradientBoosting().Fit(x, multi))
	assert.NoError(t, NewDecisionTree().Fit(x, multi), "trees handle any class set")

	tree := NewDecisionTree()
	require.NoError(t, tree.Fit(x, y))
	_, err = tree.Predict(mat.NewDense(1, 3, nil))
	assert.Error(t, err)
}

func TestRandomForest_RebuiltAfterDecode(t *testing.T) {
	x, y := grid()
	f := &RandomForest{NEstimators: 5, Seed: 11}
	require.NoError(t, f.Fit(x, y))
	assert.Equal(t, 5, f.Len())
	want, err := f.Predict(x)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(f))
	var decoded RandomForest
	require.NoError(t, gob.NewDecoder(&buf).Decode(&decoded))
	assert.Equal(t, 0, decoded.Len())
	got, err := decoded.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 5, decoded.Len())

	_, err = (&RandomForest{}).Predict(x)
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestGradientBoosting_GammaPrunesEverything(t *testing.T) {
	x, y := grid()
	m := NewGradientBoosting()
	m.Gamma = 1e6
	m.NEstimators = 3
	require.NoError(t, m.Fit(x, y))
	for _, tree := range m.Trees {
		assert.Len(t, tree.Nodes, 1)
	}
}

func TestClassifiers_GobRoundTrip(t *testing.T) {
	x, y := grid()
	for _, clf := range []Classifier{
		NewDecisionTree(),
		&RandomForest{NEstimators: 3, Seed: 3},
		NewLogisticRegression(1),
		NewSVM(1, KernelRBF),
		NewGradientBoosting(),
	} {
		t.Run(clf.Name(), func(t *testing.T) {
			require.NoError(t, clf.Fit(x, y))
			want, err := clf.Predict(x)
			require.NoError(t, err)

			var buf bytes.Buffer
			var in Classifier = clf
			require.NoError(t, gob.NewEncoder(&buf).Encode(&in))
			var out Classifier
			require.NoError(t, gob.NewDecoder(&buf).Decode(&out))

			got, err := out.Predict(x)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestAccuracy(t *testing.T) {
	acc, err := Accuracy([]float64{1, 0, 1, 1}, []float64{1, 0, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.75, acc)

	_, err = Accuracy([]float64{1}, nil)
	assert.Error(t, err)
	_, err = Accuracy(nil, nil)
	assert.Error(t, err)
}
