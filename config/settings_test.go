package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/survkit/candidate"
	"github.com/rushteam/survkit/config"
	_ "github.com/rushteam/survkit/config/builders"
	"github.com/rushteam/survkit/core"
	"github.com/rushteam/survkit/pipeline"
	"github.com/rushteam/survkit/store"
)

func nodeTypes(cfg *pipeline.Config) []string {
	types := make([]string, len(cfg.Pipeline.Nodes))
	for i, n := range cfg.Pipeline.Nodes {
		types[i] = n.Type
	}
	return types
}

func TestLoad_Defaults(t *testing.T) {
	v, err := config.NewViper("")
	require.NoError(t, err)
	s, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, "train.csv", s.Data.Train)
	assert.True(t, s.Search.Enabled)
	assert.Equal(t, 5, s.Search.Folds)
	assert.Equal(t, candidate.FamilyXGBoost, s.Final.Candidate)
	assert.Equal(t, 8, s.Final.Folds)
	assert.Equal(t, "xgboost_titanic.gob", s.Artifact.Name)
	assert.Equal(t, "file", s.Artifact.Store)

	cfg := s.Pipeline()
	assert.Equal(t,
		[]string{"feature.prepare", "search.grid", "select.rule", "trainer.kfold", "persist.artifact"},
		nodeTypes(cfg))
	assert.Equal(t, candidate.FinalXGBoostParams(), cfg.Pipeline.Nodes[2].Config["params"])
	require.NoError(t, config.ValidatePipelineConfig(cfg))
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SURVKIT_SEARCH_FOLDS", "3")
	t.Setenv("SURVKIT_ARTIFACT_STORE", "memory")

	v, err := config.NewViper("")
	require.NoError(t, err)
	s, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Search.Folds)
	assert.Equal(t, "memory", s.Artifact.Store)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "survkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
search:
  enabled: false
final:
  candidate: svm
  params:
    C: 10
    kernel: linear
  folds: 4
artifact:
  name: svm.gob
  store: memory
`), 0o644))

	v, err := config.NewViper(path)
	require.NoError(t, err)
	s, err := config.Load(v)
	require.NoError(t, err)

	cfg := s.Pipeline()
	assert.Equal(t,
		[]string{"feature.prepare", "select.rule", "trainer.kfold", "persist.artifact"},
		nodeTypes(cfg))
	sel := cfg.Pipeline.Nodes[1].Config
	assert.Equal(t, "svm", sel["candidate"])
	params, ok := sel["params"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "linear", params["kernel"])
	assert.Len(t, params, 2)

	_, err = config.NewViper(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSettings_Validate(t *testing.T) {
	valid := func() *config.Settings {
		v, err := config.NewViper("")
		require.NoError(t, err)
		s, err := config.Load(v)
		require.NoError(t, err)
		return s
	}
	tests := []struct {
		name   string
		mutate func(s *config.Settings)
	}{
		{"no final candidate without search", func(s *config.Settings) {
			s.Search.Enabled = false
			s.Final.Candidate = ""
		}},
		{"select without search", func(s *config.Settings) {
			s.Search.Enabled = false
			s.Final.Select = "result.score > 0.8"
		}},
		{"no final params without search", func(s *config.Settings) {
			s.Search.Enabled = false
			s.Final.Candidate = "svm"
			s.Final.Params = nil
		}},
		{"search folds", func(s *config.Settings) { s.Search.Folds = 1 }},
		{"final folds", func(s *config.Settings) { s.Final.Folds = 0 }},
		{"artifact name", func(s *config.Settings) { s.Artifact.Name = "" }},
		{"artifact store", func(s *config.Settings) { s.Artifact.Store = "s3" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, core.IsInvalidInput(err), "got %v", err)
		})
	}
}

func TestSettings_ValidateWithoutSearch(t *testing.T) {
	v, err := config.NewViper("")
	require.NoError(t, err)
	s, err := config.Load(v)
	require.NoError(t, err)
	s.Search.Enabled = false

	s.Final.Candidate = candidate.FamilyXGBoost
	assert.NoError(t, s.Validate(), "xgboost falls back to the tuned parameters")

	s.Final.Candidate = candidate.FamilySVM
	s.Final.Params = map[string]interface{}{"C": 10.0, "kernel": "linear"}
	assert.NoError(t, s.Validate())
}

func TestArtifactSettings_OpenStore(t *testing.T) {
	st, err := config.ArtifactSettings{Store: "memory"}.OpenStore()
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, st)

	st, err = config.ArtifactSettings{Store: "file", Dir: t.TempDir()}.OpenStore()
	require.NoError(t, err)
	assert.Equal(t, "file", st.Name())

	_, err = config.ArtifactSettings{Store: "s3"}.OpenStore()
	assert.True(t, core.IsInvalidInput(err))

	_, err = config.ArtifactSettings{Store: "redis", Redis: config.RedisSettings{Addr: "127.0.0.1:1"}}.OpenStore()
	assert.True(t, core.IsPersistence(err), "got %v", err)
}

func TestValidatePipelineConfig(t *testing.T) {
	assert.Subset(t, config.SupportedTypes(),
		[]string{"feature.prepare", "search.grid", "select.rule", "trainer.kfold", "persist.artifact"})

	cfg := &pipeline.Config{}
	cfg.Pipeline.Name = "empty"
	assert.Error(t, config.ValidatePipelineConfig(cfg))

	cfg.Pipeline.Nodes = []pipeline.NodeConfig{{Type: "feature.prepare"}, {Type: "recall.emb"}}
	err := config.ValidatePipelineConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"recall.emb"`)
}
