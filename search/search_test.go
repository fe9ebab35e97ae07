package search

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/survkit/core"
	"github.com/rushteam/survkit/model"
)

// constClassifier 总是预测同一个类别。
type constClassifier struct {
	label float64
	fail  bool
}

func (c *constClassifier) Name() string { return "const" }

func (c *constClassifier) Fit(X mat.Matrix, y []float64) error {
	if c.fail {
		return errors.New("const: refusing to fit")
	}
	return nil
}

func (c *constClassifier) Predict(X mat.Matrix) ([]float64, error) {
	r, _ := X.Dims()
	out := make([]float64, r)
	for i := range out {
		out[i] = c.label
	}
	return out, nil
}

type fakeCandidate struct {
	id   string
	axes []Axis
}

func (f fakeCandidate) ID() string     { return f.id }
func (f fakeCandidate) Family() string { return "const" }
func (f fakeCandidate) Axes() []Axis   { return f.axes }

func (f fakeCandidate) Build(params Assignment) (model.Classifier, error) {
	c := &constClassifier{}
	if v, ok := params.Get("label"); ok {
		c.label = v.(float64)
	}
	if v, ok := params.Get("fail"); ok {
		c.fail = v.(bool)
	}
	if v, ok := params.Get("build"); ok && v == "broken" {
		return nil, errors.New("const: bad build")
	}
	return c, nil
}

// tenRows 6 个负样本 + 4 个正样本；分层 5 折下常数 0 的平均准确率为 0.6，常数 1 为 0.4。
func tenRows() (*mat.Dense, []float64) {
	x := mat.NewDense(10, 1, nil)
	for i := 0; i < 10; i++ {
		x.Set(i, 0, float64(i))
	}
	return x, []float64{0, 0, 0, 0, 0, 0, 1, 1, 1, 1}
}

func TestEnumerate(t *testing.T) {
	got := Enumerate([]Axis{
		{Name: "a", Values: []any{1, 2}},
		{Name: "b", Values: []any{"x", "y", "z"}},
	})
	want := []Assignment{
		{{"a", 1}, {"b", "x"}}, {{"a", 1}, {"b", "y"}}, {{"a", 1}, {"b", "z"}},
		{{"a", 2}, {"b", "x"}}, {{"a", 2}, {"b", "y"}}, {{"a", 2}, {"b", "z"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("enumeration mismatch (-want +got):\n%s", diff)
	}

	empty := Enumerate(nil)
	require.Len(t, empty, 1)
	assert.Empty(t, empty[0])

	assert.Nil(t, Enumerate([]Axis{{Name: "a"}}))
	assert.Equal(t, 500, Count([]Axis{
		{Name: "a", Values: make([]any, 5)},
		{Name: "b", Values: make([]any, 4)},
		{Name: "c", Values: make([]any, 25)},
	}))
}

func TestAssignment(t *testing.T) {
	a := Assignment{{"C", 10}, {"kernel", "rbf"}}
	assert.Equal(t, "{C: 10, kernel: rbf}", a.String())
	assert.Equal(t, map[string]any{"C": 10, "kernel": "rbf"}, a.Map())
	_, ok := a.Get("gamma")
	assert.False(t, ok)
	assert.Equal(t, "{}", Assignment{}.String())
}

func TestKFold(t *testing.T) {
	folds, err := KFold(10, 8)
	require.NoError(t, err)
	require.Len(t, folds, 8)
	assert.Equal(t, []int{0, 1}, folds[0].Test)
	assert.Equal(t, []int{2, 3}, folds[1].Test)
	assert.Equal(t, []int{4}, folds[2].Test)
	assert.Equal(t, []int{9}, folds[7].Test)
	assert.Len(t, folds[7].Train, 9)

	_, err = KFold(3, 8)
	assert.True(t, core.IsInvalidInput(err))
	_, err = KFold(3, 1)
	assert.True(t, core.IsInvalidInput(err))
}

func TestStratifiedKFold(t *testing.T) {
	y := []float64{0, 0, 0, 0, 0, 0, 1, 1, 1, 1}
	folds, err := StratifiedKFold(y, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 6, 7}, folds[0].Test)
	assert.Equal(t, []int{3, 4, 5, 8, 9}, folds[1].Test)
	assert.Equal(t, folds[1].Test, folds[0].Train)

	folds, err = StratifiedKFold(y, 5)
	require.NoError(t, err)
	seen := make(map[int]int)
	for _, f := range folds {
		require.NotEmpty(t, f.Test)
		assert.Len(t, f.Train, 10-len(f.Test))
		for _, i := range f.Test {
			seen[i]++
		}
	}
	assert.Len(t, seen, 10, "every row is tested exactly once")
}

func TestRun_FitCountPerCandidate(t *testing.T) {
	x, y := tenRows()
	var fits atomic.Int64
	o := New(WithObserver(func(Event) { fits.Add(1) }), WithWorkers(3), WithLogger(zaptest.NewLogger(t)))

	cands := []Candidate{
		fakeCandidate{id: "grid", axes: []Axis{
			{Name: "label", Values: []any{0.0, 1.0}},
			{Name: "tag", Values: []any{"a", "b", "c"}},
		}},
		fakeCandidate{id: "defaults"},
	}
	report, err := o.Run(context.Background(), x, y, cands)
	require.NoError(t, err)
	assert.EqualValues(t, (6+1)*5, fits.Load())
	assert.Equal(t, (6+1)*5, report.Fits())
	require.Len(t, report.Results, 2)
	assert.Len(t, report.Results[0].Trials, 6)
	assert.Empty(t, report.Results[1].BestParams)
}

func TestRun_BestIsHighestMeanEarliestOnTie(t *testing.T) {
	x, y := tenRows()
	report, err := New(WithWorkers(4)).Run(context.Background(), x, y, []Candidate{
		fakeCandidate{id: "c", axes: []Axis{
			{Name: "label", Values: []any{1.0, 0.0}},
			{Name: "tag", Values: []any{"first", "second"}},
		}},
	})
	require.NoError(t, err)
	res, ok := report.Lookup("c")
	require.True(t, ok)
	assert.InDelta(t, 0.6, res.BestScore, 1e-12)
	assert.Equal(t, Assignment{{"label", 0.0}, {"tag", "first"}}, res.BestParams)
	assert.InDelta(t, 0.4, res.Trials[0].Mean, 1e-12)
	assert.InDelta(t, 0.2, res.BestStd, 1e-12)
}

func TestRun_SkipsFailingCombinations(t *testing.T) {
	x, y := tenRows()
	report, err := New().Run(context.Background(), x, y, []Candidate{
		fakeCandidate{id: "c", axes: []Axis{
			{Name: "fail", Values: []any{true, false}},
			{Name: "label", Values: []any{0.0}},
		}},
	})
	require.NoError(t, err)
	res := report.Results[0]
	assert.Equal(t, 1, res.Failed)
	assert.NotEmpty(t, res.Trials[0].Err)
	assert.Equal(t, Assignment{{"fail", false}, {"label", 0.0}}, res.BestParams)
}

func TestRun_ExhaustedCandidateKeepsPartialReport(t *testing.T) {
	x, y := tenRows()
	report, err := New().Run(context.Background(), x, y, []Candidate{
		fakeCandidate{id: "ok"},
		fakeCandidate{id: "broken", axes: []Axis{{Name: "build", Values: []any{"broken"}}}},
		fakeCandidate{id: "also_ok", axes: []Axis{{Name: "label", Values: []any{1.0}}}},
	})
	require.Error(t, err)
	assert.True(t, core.IsCandidateSearchExhausted(err))
	require.NotNil(t, report)
	assert.Equal(t, []string{"broken"}, report.Exhausted)
	require.Len(t, report.Results, 2)
	assert.Equal(t, "ok", report.Results[0].CandidateID)
	assert.Equal(t, "also_ok", report.Results[1].CandidateID)

	ranked := report.Ranked()
	assert.Equal(t, "ok", ranked[0].CandidateID)
}

func TestRun_InvalidInput(t *testing.T) {
	x, y := tenRows()
	_, err := New().Run(context.Background(), x, y, []Candidate{fakeCandidate{id: "a"}, fakeCandidate{id: "a"}})
	assert.True(t, core.IsInvalidInput(err))

	_, err = New().Run(context.Background(), x, y[:5], []Candidate{fakeCandidate{id: "a"}})
	assert.True(t, core.IsInvalidInput(err))

	_, err = New(WithFolds(20)).Run(context.Background(), x, y, []Candidate{fakeCandidate{id: "a"}})
	assert.True(t, core.IsInvalidInput(err))
}

func TestRun_CanceledContext(t *testing.T) {
	x, y := tenRows()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := New().Run(ctx, x, y, []Candidate{fakeCandidate{id: "a"}})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Empty(t, report.Results)
}

func TestRun_CanceledMidCandidateReportsOnce(t *testing.T) {
	x, y := tenRows()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o := New(WithWorkers(1), WithObserver(func(Event) { cancel() }))
	_, err := o.Run(ctx, x, y, []Candidate{
		fakeCandidate{id: "a", axes: []Axis{{Name: "label", Values: []any{0.0, 1.0}}}},
		fakeCandidate{id: "b"},
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, multierr.Errors(err), 1)
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{3725*time.Second + 456*time.Millisecond, "Time taken: 1 hours 2 minutes and 5.46 seconds."},
		{42 * time.Second, "Time taken: 0 hours 0 minutes and 42 seconds."},
		{90*time.Second + 500*time.Millisecond, "Time taken: 0 hours 1 minutes and 30.5 seconds."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatElapsed(tt.d))
	}
}
