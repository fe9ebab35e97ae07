package candidate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/survkit/core"
)

// File 是候选注册表的 YAML 结构：
//
//	candidates:
//	  - id: svm
//	    family: svm
//	    grid:
//	      C: [1, 10, 20]
//	      kernel: [rbf, linear]
type File struct {
	Candidates []Entry `yaml:"candidates"`
}

// Entry 单个候选的配置；Grid 的字段由 Family 决定。
type Entry struct {
	ID     string    `yaml:"id"`
	Family string    `yaml:"family"`
	Grid   yaml.Node `yaml:"grid"`
}

// LoadRegistry 从 YAML 文件加载候选注册表。
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取候选配置文件失败: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry 解析 YAML 格式的候选注册表。未知家族、未知参数名都会返回 INVALID_INPUT。
func ParseRegistry(data []byte) (*Registry, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, core.WrapDomainError(core.ModuleCandidate, core.ErrorCodeInvalidInput, err,
			"candidate: parse registry")
	}
	return f.Registry()
}

// Registry 根据已解析的条目构建注册表（流水线配置内联候选时使用）。
func (f File) Registry() (*Registry, error) {
	if len(f.Candidates) == 0 {
		return nil, core.NewDomainError(core.ModuleCandidate, core.ErrorCodeInvalidInput,
			"candidate: registry has no candidates")
	}
	r, _ := NewRegistry()
	for i, e := range f.Candidates {
		c, err := e.Candidate()
		if err != nil {
			return nil, fmt.Errorf("candidates[%d]: %w", i, err)
		}
		if err := r.Add(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Candidate 按家族解码网格并创建候选；ID 为空时使用家族名。
func (e Entry) Candidate() (*Candidate, error) {
	dec, ok := lookupFamily(e.Family)
	if !ok {
		return nil, core.NewDomainError(core.ModuleCandidate, core.ErrorCodeInvalidInput,
			fmt.Sprintf("candidate %q: unknown family %q (supported: %v)", e.ID, e.Family, SupportedFamilies()))
	}
	var raw []byte
	if !e.Grid.IsZero() {
		var err error
		if raw, err = yaml.Marshal(&e.Grid); err != nil {
			return nil, core.WrapDomainError(core.ModuleCandidate, core.ErrorCodeInvalidInput, err,
				"candidate %q: grid", e.ID)
		}
	}
	g, err := dec(raw)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleCandidate, core.ErrorCodeInvalidInput, err,
			"candidate %q", e.ID)
	}
	id := e.ID
	if id == "" {
		id = e.Family
	}
	return New(id, g)
}
