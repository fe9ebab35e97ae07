package builders

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/survkit/candidate"
	"github.com/rushteam/survkit/config"
	"github.com/rushteam/survkit/persist"
	"github.com/rushteam/survkit/pipeline"
	"github.com/rushteam/survkit/pkg/conv"
	"github.com/rushteam/survkit/pkg/dsl"
	"github.com/rushteam/survkit/stage"
)

func init() {
	config.Register("feature.prepare", BuildPrepareNode)
	config.Register("search.grid", BuildSearchNode)
	config.Register("select.rule", BuildSelectNode)
	config.Register("trainer.kfold", BuildTrainNode)
	config.Register("persist.artifact", BuildPersistNode)
}

func BuildPrepareNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &stage.Prepare{Path: conv.ConfigGet(cfg, "path", "")}, nil
}

// BuildSearchNode 配置项：
//   - folds / workers / allow_exhausted
//   - candidates：注册表 YAML 路径，或内联的候选列表（与注册表文件的 candidates 相同结构）
//   - only：只搜索这些候选 ID
func BuildSearchNode(cfg map[string]interface{}) (pipeline.Node, error) {
	n := &stage.Search{
		Folds:          int(conv.ConfigGetInt64(cfg, "folds", 0)),
		Workers:        int(conv.ConfigGetInt64(cfg, "workers", 0)),
		AllowExhausted: conv.ConfigGet(cfg, "allow_exhausted", false),
	}

	var reg *candidate.Registry
	switch c := cfg["candidates"].(type) {
	case nil:
		reg = candidate.Default()
	case string:
		r, err := candidate.LoadRegistry(c)
		if err != nil {
			return nil, err
		}
		reg = r
	case []interface{}:
		r, err := inlineRegistry(c)
		if err != nil {
			return nil, err
		}
		reg = r
	default:
		return nil, fmt.Errorf("candidates: expected path or list, got %T", c)
	}

	if only := conv.SliceAnyToString(cfg["only"]); len(only) > 0 {
		sub, err := reg.Subset(only...)
		if err != nil {
			return nil, err
		}
		reg = sub
	}
	n.Registry = reg
	return n, nil
}

// inlineRegistry 把 YAML 解析出的候选列表重新编码后按注册表文件格式严格解析。
func inlineRegistry(list []interface{}) (*candidate.Registry, error) {
	data, err := yaml.Marshal(map[string]interface{}{"candidates": list})
	if err != nil {
		return nil, fmt.Errorf("candidates: %w", err)
	}
	return candidate.ParseRegistry(data)
}

func BuildSelectNode(cfg map[string]interface{}) (pipeline.Node, error) {
	n := &stage.Select{
		Candidate: conv.ConfigGet(cfg, "candidate", ""),
	}
	if params, ok := cfg["params"].(map[string]interface{}); ok {
		n.Params = params
	}
	sel, err := dsl.NewSelector(conv.ConfigGet(cfg, "rule", ""))
	if err != nil {
		return nil, err
	}
	n.Selector = sel
	if _, ok := cfg["seed"]; ok {
		seed := conv.ConfigGetInt64(cfg, "seed", 0)
		n.Seed = &seed
	}
	return n, nil
}

func BuildTrainNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &stage.Train{Folds: int(conv.ConfigGetInt64(cfg, "folds", 0))}, nil
}

// BuildPersistNode 配置项：name、store（file/redis/memory）、dir、sidecar、redis_addr、redis_db、redis_prefix。
func BuildPersistNode(cfg map[string]interface{}) (pipeline.Node, error) {
	settings := config.ArtifactSettings{
		Name:    conv.ConfigGet(cfg, "name", ""),
		Store:   conv.ConfigGet(cfg, "store", "file"),
		Dir:     conv.ConfigGet(cfg, "dir", "."),
		Sidecar: conv.ConfigGet(cfg, "sidecar", false),
		Redis: config.RedisSettings{
			Addr:   conv.ConfigGet(cfg, "redis_addr", "localhost:6379"),
			DB:     int(conv.ConfigGetInt64(cfg, "redis_db", 0)),
			Prefix: conv.ConfigGet(cfg, "redis_prefix", ""),
		},
	}
	if settings.Name == "" {
		return nil, fmt.Errorf("name not found")
	}
	st, err := settings.OpenStore()
	if err != nil {
		return nil, err
	}
	return &stage.Persist{
		Key:       settings.Name,
		Persister: persist.New(st, persist.WithMetadataSidecar(settings.Sidecar)),
	}, nil
}
