package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/rushteam/survkit/candidate"
	"github.com/rushteam/survkit/core"
	"github.com/rushteam/survkit/pipeline"
	"github.com/rushteam/survkit/store"
)

// EnvPrefix 环境变量前缀：SURVKIT_SEARCH_FOLDS 覆盖 search.folds。
const EnvPrefix = "SURVKIT"

// Settings 是命令行使用的扁平配置，来源优先级：flag > 环境变量 > 配置文件 > 默认值。
type Settings struct {
	Data     DataSettings     `mapstructure:"data" yaml:"data"`
	Search   SearchSettings   `mapstructure:"search" yaml:"search"`
	Final    FinalSettings    `mapstructure:"final" yaml:"final"`
	Artifact ArtifactSettings `mapstructure:"artifact" yaml:"artifact"`
}

type DataSettings struct {
	Train  string `mapstructure:"train" yaml:"train"`
	Test   string `mapstructure:"test" yaml:"test"`
	Output string `mapstructure:"output" yaml:"output"` // 预测结果 CSV
}

type SearchSettings struct {
	Enabled        bool     `mapstructure:"enabled" yaml:"enabled"`
	Folds          int      `mapstructure:"folds" yaml:"folds"`
	Workers        int      `mapstructure:"workers" yaml:"workers"`
	Candidates     string   `mapstructure:"candidates" yaml:"candidates"` // 候选注册表 YAML 路径，空则使用默认
	Only           []string `mapstructure:"only" yaml:"only"`             // 只搜索这些候选
	AllowExhausted bool     `mapstructure:"allow_exhausted" yaml:"allow_exhausted"`
}

type FinalSettings struct {
	Candidate string         `mapstructure:"candidate" yaml:"candidate"`
	Params    map[string]any `mapstructure:"params" yaml:"params"`
	Select    string         `mapstructure:"select" yaml:"select"` // CEL 规则，非空时忽略 Candidate/Params
	Folds     int            `mapstructure:"folds" yaml:"folds"`
	Seed      int64          `mapstructure:"seed" yaml:"seed"`
}

type ArtifactSettings struct {
	Name    string        `mapstructure:"name" yaml:"name"`
	Store   string        `mapstructure:"store" yaml:"store"` // file / redis / memory
	Dir     string        `mapstructure:"dir" yaml:"dir"`
	Sidecar bool          `mapstructure:"sidecar" yaml:"sidecar"`
	Redis   RedisSettings `mapstructure:"redis" yaml:"redis"`
}

type RedisSettings struct {
	Addr   string `mapstructure:"addr" yaml:"addr"`
	DB     int    `mapstructure:"db" yaml:"db"`
	Prefix string `mapstructure:"prefix" yaml:"prefix"`
}

// SetDefaults 写入默认值：默认流程与原始实验一致（五个候选搜索 + 固定参数的梯度提升树）。
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data.train", "train.csv")
	v.SetDefault("data.test", "test.csv")
	v.SetDefault("data.output", "predictions.csv")
	v.SetDefault("search.enabled", true)
	v.SetDefault("search.folds", core.Defaults.DefaultSearchFolds())
	v.SetDefault("search.workers", 0)
	v.SetDefault("final.candidate", candidate.FamilyXGBoost)
	v.SetDefault("final.folds", core.Defaults.DefaultFinalFolds())
	v.SetDefault("final.seed", core.Defaults.DefaultSeed())
	v.SetDefault("artifact.name", core.Defaults.DefaultArtifactName())
	v.SetDefault("artifact.store", "file")
	v.SetDefault("artifact.dir", ".")
	v.SetDefault("artifact.redis.addr", "localhost:6379")
}

// NewViper 创建带默认值与环境变量绑定的 viper 实例；path 非空时读取配置文件。
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return v, nil
}

// Load 从 viper 解析 Settings 并校验。
func Load(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate 校验配置组合。
func (s *Settings) Validate() error {
	invalid := func(format string, args ...any) error {
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, fmt.Sprintf(format, args...))
	}
	if !s.Search.Enabled && s.Final.Candidate == "" {
		return invalid("final.candidate is required when search is disabled")
	}
	if !s.Search.Enabled && s.Final.Select != "" {
		return invalid("final.select needs search results, enable search")
	}
	if !s.Search.Enabled && s.Final.Params == nil && s.Final.Candidate != candidate.FamilyXGBoost {
		return invalid("final.params is required for candidate %q when search is disabled", s.Final.Candidate)
	}
	if s.Search.Enabled && s.Search.Folds < 2 {
		return invalid("search.folds must be >= 2, got %d", s.Search.Folds)
	}
	if s.Final.Folds < 2 {
		return invalid("final.folds must be >= 2, got %d", s.Final.Folds)
	}
	if s.Artifact.Name == "" {
		return invalid("artifact.name is empty")
	}
	switch s.Artifact.Store {
	case "file", "redis", "memory":
	default:
		return invalid("artifact.store must be file, redis or memory, got %q", s.Artifact.Store)
	}
	return nil
}

// Pipeline 把 Settings 展开为 Node 配置链。
func (s *Settings) Pipeline() *pipeline.Config {
	cfg := &pipeline.Config{}
	cfg.Pipeline.Name = "survkit.train"
	add := func(typ string, c map[string]interface{}) {
		cfg.Pipeline.Nodes = append(cfg.Pipeline.Nodes, pipeline.NodeConfig{Type: typ, Config: c})
	}

	add("feature.prepare", map[string]interface{}{"path": s.Data.Train})
	if s.Search.Enabled {
		c := map[string]interface{}{
			"folds":           s.Search.Folds,
			"workers":         s.Search.Workers,
			"allow_exhausted": s.Search.AllowExhausted,
		}
		if s.Search.Candidates != "" {
			c["candidates"] = s.Search.Candidates
		}
		if len(s.Search.Only) > 0 {
			only := make([]interface{}, len(s.Search.Only))
			for i, id := range s.Search.Only {
				only[i] = id
			}
			c["only"] = only
		}
		add("search.grid", c)
	}
	sel := map[string]interface{}{"seed": s.Final.Seed}
	switch {
	case s.Final.Select != "":
		sel["rule"] = s.Final.Select
	case s.Final.Params != nil:
		sel["candidate"] = s.Final.Candidate
		sel["params"] = s.Final.Params
	case s.Final.Candidate == candidate.FamilyXGBoost:
		// 未指定参数时使用调优后的固定参数
		sel["candidate"] = s.Final.Candidate
		sel["params"] = candidate.FinalXGBoostParams()
	default:
		sel["candidate"] = s.Final.Candidate
	}
	add("select.rule", sel)
	add("trainer.kfold", map[string]interface{}{"folds": s.Final.Folds})
	add("persist.artifact", s.Artifact.NodeConfig())
	return cfg
}

// NodeConfig 以 persist.artifact 节点配置的形式返回产物设置。
func (a ArtifactSettings) NodeConfig() map[string]interface{} {
	return map[string]interface{}{
		"name":         a.Name,
		"store":        a.Store,
		"dir":          a.Dir,
		"sidecar":      a.Sidecar,
		"redis_addr":   a.Redis.Addr,
		"redis_db":     a.Redis.DB,
		"redis_prefix": a.Redis.Prefix,
	}
}

// OpenStore 按设置创建产物存储。
func (a ArtifactSettings) OpenStore() (core.Store, error) {
	switch a.Store {
	case "", "file":
		dir := a.Dir
		if dir == "" {
			dir = "."
		}
		return store.NewFileStore(dir), nil
	case "memory":
		return store.NewMemoryStore(), nil
	case "redis":
		rs, err := store.NewRedisStore(a.Redis.Addr, a.Redis.DB)
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleStore, core.ErrorCodePersistence, err,
				"store: connect redis %s", a.Redis.Addr)
		}
		if a.Redis.Prefix != "" {
			return rs.WithPrefix(a.Redis.Prefix), nil
		}
		return rs, nil
	default:
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput,
			fmt.Sprintf("store: unknown backend %q", a.Store))
	}
}
