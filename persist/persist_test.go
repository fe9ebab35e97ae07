package persist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rushteam/survkit/candidate"
	"github.com/rushteam/survkit/core"
	"github.com/rushteam/survkit/feature"
	"github.com/rushteam/survkit/store"
	"github.com/rushteam/survkit/trainer"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func trainedArtifact(t *testing.T) (*trainer.Artifact, *feature.Dataset) {
	t.Helper()
	rows := make([]feature.Passenger, 48)
	for i := range rows {
		sex := []string{"male", "female"}[i%2]
		rows[i] = feature.Passenger{
			PassengerID: i + 1,
			Survived:    iptr(i % 2),
			Pclass:      1 + i%3,
			Sex:         sex,
			Age:         fptr(float64(18 + i)),
			Fare:        fptr(float64(5 + i%7)),
			SibSp:       i % 3,
			Embarked:    []string{"S", "C", "Q"}[i%3],
		}
	}
	ds, err := feature.Prepare(rows)
	require.NoError(t, err)

	c, ok := candidate.Default().Lookup(candidate.FamilyXGBoost)
	require.True(t, ok)
	params := candidate.FinalXGBoostParams()
	params["n_estimators"] = 10
	a, err := c.Assign(params)
	require.NoError(t, err)

	art, err := trainer.New().Train(context.Background(), ds, trainer.Choice{Candidate: c, Params: a})
	require.NoError(t, err)
	return art, ds
}

func TestSaveLoad_RoundTripPredictsIdentically(t *testing.T) {
	art, ds := trainedArtifact(t)
	ctx := context.Background()

	stores := []core.Store{store.NewMemoryStore(), store.NewFileStore(t.TempDir())}
	for _, s := range stores {
		t.Run(s.Name(), func(t *testing.T) {
			p := New(s, WithLogger(zaptest.NewLogger(t)))
			require.NoError(t, p.Save(ctx, "model.gob", art))

			back, err := p.Load(ctx, "model.gob")
			require.NoError(t, err)
			assert.Equal(t, art.CandidateID, back.CandidateID)
			assert.Equal(t, art.Params, back.Params)
			assert.Equal(t, art.TrainScore, back.TrainScore)
			assert.Equal(t, art.Metadata.Encoding, back.Metadata.Encoding)

			want, err := art.Predict(ds)
			require.NoError(t, err)
			got, err := back.Predict(ds)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestSave_MetadataSidecar(t *testing.T) {
	art, _ := trainedArtifact(t)
	root := t.TempDir()
	p := New(store.NewFileStore(root), WithMetadataSidecar(true))
	require.NoError(t, p.Save(context.Background(), "xgboost_titanic.gob", art))

	meta, err := feature.LoadFeatureMetadata(filepath.Join(root, "xgboost_titanic.gob"+MetadataSuffix))
	require.NoError(t, err)
	assert.Equal(t, feature.FeatureColumns, meta.FeatureColumns)
	assert.NoError(t, meta.Validate())
}

type brokenStore struct{ *store.MemoryStore }

func (brokenStore) Set(context.Context, string, []byte) error { return errors.New("disk full") }

func TestSave_WriteFailure(t *testing.T) {
	art, _ := trainedArtifact(t)
	ctx := context.Background()

	err := New(brokenStore{store.NewMemoryStore()}).Save(ctx, "model.gob", art)
	require.Error(t, err)
	assert.True(t, core.IsPersistence(err))
	assert.Contains(t, err.Error(), "disk full")

	err = New(store.NewFileStore(t.TempDir())).Save(ctx, "../escape.gob", art)
	assert.True(t, core.IsPersistence(err))

	if os.Geteuid() != 0 {
		root := t.TempDir()
		require.NoError(t, os.Chmod(root, 0o500))
		t.Cleanup(func() { _ = os.Chmod(root, 0o755) })
		err = New(store.NewFileStore(root)).Save(ctx, "model.gob", art)
		assert.True(t, core.IsPersistence(err))
	}

	assert.True(t, core.IsPersistence(New(store.NewMemoryStore()).Save(ctx, "x", nil)))
}

func TestLoad_Failures(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	p := New(mem)

	_, err := p.Load(ctx, "missing.gob")
	assert.True(t, core.IsPersistence(err))
	assert.True(t, core.IsStoreNotFound(err))

	require.NoError(t, mem.Set(ctx, "corrupt.gob", []byte("not gob")))
	_, err = p.Load(ctx, "corrupt.gob")
	assert.True(t, core.IsPersistence(err))
}
