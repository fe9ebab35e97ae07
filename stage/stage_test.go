package stage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rushteam/survkit/candidate"
	"github.com/rushteam/survkit/core"
	"github.com/rushteam/survkit/feature"
	"github.com/rushteam/survkit/persist"
	"github.com/rushteam/survkit/pipeline"
	"github.com/rushteam/survkit/pkg/dsl"
	"github.com/rushteam/survkit/store"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func seed(v int64) *int64     { return &v }

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
			Fare:        fptr(float64(10 * (4 - class))),
			Embarked:    ports[i%3],
		}
	}
	return rows
}

func registry(t *testing.T, cands ...*candidate.Candidate) *candidate.Registry {
	t.Helper()
	reg, err := candidate.NewRegistry(cands...)
	require.NoError(t, err)
	return reg
}

func newCandidate(t *testing.T, id string, g candidate.Grid) *candidate.Candidate {
	t.Helper()
	c, err := candidate.New(id, g)
	require.NoError(t, err)
	return c
}

// newState 的 out 为 nil 时输出被丢弃。
func newState(t *testing.T, out io.Writer) *pipeline.State {
	st := pipeline.NewState(zaptest.NewLogger(t), out)
	st.Rows = passengers(60)
	return st
}

func TestStages_EndToEnd(t *testing.T) {
	reg := registry(t,
		newCandidate(t, "tree", candidate.TreeGrid{MaxDepth: []int{1, 3}}),
		newCandidate(t, "logistic", candidate.LogisticGrid{C: []float64{0.1, 1}}),
	)
	mem := store.NewMemoryStore()
	p := &pipeline.Pipeline{Name: "e2e", Nodes: []pipeline.Node{
		&Prepare{},
		&Search{Folds: 3, Workers: 2, Registry: reg},
		&Select{Seed: seed(0)},
		&Train{Folds: 4},
		&Persist{Key: "model.gob", Persister: persist.New(mem)},
	}}

	var out bytes.Buffer
	st := newState(t, &out)
	require.NoError(t, p.Run(context.Background(), st))

	require.NotNil(t, st.Dataset)
	require.NotNil(t, st.Report)
	assert.Len(t, st.Report.Results, 2)
	require.NotNil(t, st.Choice)
	best := st.Report.Ranked()[0]
	assert.Equal(t, best.CandidateID, st.Choice.Candidate.ID())
	require.NotNil(t, st.Artifact)
	assert.Equal(t, 4, st.Artifact.Folds)
	assert.Equal(t, "model.gob", st.ArtifactName)

	assert.Contains(t, out.String(), "Time taken:")
	assert.Contains(t, out.String(), "Training accuracy")
	assert.Contains(t, out.String(), "Model saved to memory store as model.gob")

	art, err := persist.New(mem).Load(context.Background(), "model.gob")
	require.NoError(t, err)
	preds, err := art.Predict(st.Dataset)
	require.NoError(t, err)
	assert.Len(t, preds, 60)
}

func TestPrepare_LogsFeatureStatistics(t *testing.T) {
	obs, logs := observer.New(zap.DebugLevel)
	st := pipeline.NewState(zap.New(obs), nil)
	st.Rows = passengers(30)
	require.NoError(t, (&Prepare{}).Process(context.Background(), st))

	prepared := logs.FilterMessage("dataset prepared").All()
	require.Len(t, prepared, 1)
	assert.Equal(t, []interface{}{feature.ColEmbarked, feature.ColSex}, prepared[0].ContextMap()["encoded"])

	stats := logs.FilterMessage("feature statistics").All()
	require.Len(t, stats, len(feature.FeatureColumns))
	assert.Equal(t, feature.ColPclass, stats[0].ContextMap()["column"])
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name      string
		node      *Select
		wantID    string
		wantSeed  bool
		wantDepth any
	}{
		{
			name:      "pinned forest params with seed",
			node:      &Select{Candidate: candidate.FamilyRandomForest, Params: map[string]any{"max_depth": 3}, Seed: seed(7)},
			wantID:    candidate.FamilyRandomForest,
			wantSeed:  true,
			wantDepth: 3,
		},
		{
			name:      "tree ignores seed",
			node:      &Select{Candidate: candidate.FamilyDecisionTree, Params: map[string]any{"max_depth": 3}, Seed: seed(7)},
			wantID:    candidate.FamilyDecisionTree,
			wantDepth: 3,
		},
		{
			name:   "logistic ignores seed",
			node:   &Select{Candidate: candidate.FamilyLogisticRegression, Params: map[string]any{"C": 10.0}, Seed: seed(7)},
			wantID: candidate.FamilyLogisticRegression,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := pipeline.NewState(zaptest.NewLogger(t), nil)
			require.NoError(t, tt.node.Process(context.Background(), st))
			require.NotNil(t, st.Choice)
			assert.Equal(t, tt.wantID, st.Choice.Candidate.ID())

			s, ok := st.Choice.Params.Get("seed")
			assert.Equal(t, tt.wantSeed, ok)
			if ok {
				assert.Equal(t, 7, s)
			}
			if tt.wantDepth != nil {
				d, _ := st.Choice.Params.Get("max_depth")
				assert.Equal(t, tt.wantDepth, d)
			}
		})
	}
}

func TestSelect_RuleAndBestParams(t *testing.T) {
	reg := registry(t,
		newCandidate(t, "tree", candidate.TreeGrid{MaxDepth: []int{1, 3}}),
		newCandidate(t, "logistic", candidate.LogisticGrid{C: []float64{1}}),
	)
	st := newState(t, nil)
	assert.Equal(t, io.Discard, st.Out)
	require.NoError(t, (&Prepare{}).Process(context.Background(), st))
	require.NoError(t, (&Search{Folds: 3, Registry: reg}).Process(context.Background(), st))

	sel, err := dsl.NewSelector(`result.family == "logistic_regression"`)
	require.NoError(t, err)
	require.NoError(t, (&Select{Selector: sel}).Process(context.Background(), st))
	assert.Equal(t, "logistic", st.Choice.Candidate.ID())

	res, ok := st.Report.Lookup("tree")
	require.True(t, ok)
	require.NoError(t, (&Select{Candidate: "tree"}).Process(context.Background(), st))
	assert.Equal(t, res.BestParams, st.Choice.Params)

	none, err := dsl.NewSelector(`result.score > 2.0`)
	require.NoError(t, err)
	err = (&Select{Selector: none}).Process(context.Background(), st)
	assert.True(t, core.IsNotFound(err), "got %v", err)
}

func TestSelect_Errors(t *testing.T) {
	st := pipeline.NewState(zaptest.NewLogger(t), nil)

	err := (&Select{Candidate: "nope", Params: map[string]any{}}).Process(context.Background(), st)
	assert.True(t, core.IsNotFound(err), "got %v", err)

	err = (&Select{Candidate: candidate.FamilySVM}).Process(context.Background(), st)
	assert.True(t, core.IsInvalidInput(err), "got %v", err)

	err = (&Select{}).Process(context.Background(), st)
	assert.True(t, core.IsInvalidInput(err), "got %v", err)

	err = (&Select{Candidate: candidate.FamilySVM, Params: map[string]any{"degree": 3}}).Process(context.Background(), st)
	assert.True(t, core.IsInvalidInput(err), "got %v", err)
}

func TestSearch_ExhaustedCandidate(t *testing.T) {
	reg := registry(t,
		newCandidate(t, "tree", candidate.TreeGrid{MaxDepth: []int{2}}),
		newCandidate(t, "broken", candidate.SVMGrid{C: []float64{1}, Kernel: []string{"poly"}}),
	)
	tests := []struct {
		name  string
		allow bool
	}{
		{"abort", false},
		{"allow", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			st := newState(t, &out)
			require.NoError(t, (&Prepare{}).Process(context.Background(), st))

			err := (&Search{Folds: 3, Registry: reg, AllowExhausted: tt.allow}).Process(context.Background(), st)
			if tt.allow {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, core.IsCandidateSearchExhausted(err), "got %v", err)
			}
			require.NotNil(t, st.Report)
			assert.Equal(t, []string{"broken"}, st.Report.Exhausted)
			_, ok := st.Report.Lookup("tree")
			assert.True(t, ok)
			assert.Contains(t, out.String(), "Time taken:")
		})
	}
}

func TestStages_MissingInputs(t *testing.T) {
	ctx := context.Background()
	st := pipeline.NewState(zaptest.NewLogger(t), nil)

	assert.True(t, core.IsInvalidInput((&Prepare{}).Process(ctx, st)))
	assert.True(t, core.IsInvalidInput((&Search{}).Process(ctx, st)))
	assert.True(t, core.IsInvalidInput((&Train{}).Process(ctx, st)))

	err := (&Persist{Key: "x", Persister: persist.New(store.NewMemoryStore())}).Process(ctx, st)
	assert.True(t, core.IsPersistence(err))

	err = (&Prepare{Path: "does-not-exist.csv"}).Process(ctx, st)
	assert.Error(t, err)
}
