package candidate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// GridDecoder 把 YAML 中 grid 节点解码为某个家族的网格。
type GridDecoder func(data []byte) (Grid, error)

var (
	familiesMu sync.RWMutex
	families   = map[string]GridDecoder{}
)

// RegisterFamily 注册家族的网格解码器，通常在 init 中调用。
func RegisterFamily(family string, dec GridDecoder) {
	familiesMu.Lock()
	defer familiesMu.Unlock()
	families[family] = dec
}

// SupportedFamilies 返回已注册的家族名称（升序）。
func SupportedFamilies() []string {
	familiesMu.RLock()
	defer familiesMu.RUnlock()
	out := make([]string, 0, len(families))
	for f := range families {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func lookupFamily(family string) (GridDecoder, bool) {
	familiesMu.RLock()
	defer familiesMu.RUnlock()
	dec, ok := families[family]
	return dec, ok
}

// strictGrid 严格解码：未知字段（拼错的参数名）直接报错。
func strictGrid[T Grid](data []byte) (Grid, error) {
	var g T
	if len(data) == 0 {
		return g, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&g); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s grid: %w", g.Family(), err)
	}
	return g, nil
}

func init() {
	RegisterFamily(FamilyRandomForest, strictGrid[ForestGrid])
	RegisterFamily(FamilyLogisticRegression, strictGrid[LogisticGrid])
	RegisterFamily(FamilyDecisionTree, strictGrid[TreeGrid])
	RegisterFamily(FamilySVM, strictGrid[SVMGrid])
	RegisterFamily(FamilyXGBoost, strictGrid[BoostGrid])
}
