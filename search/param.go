// Package search 实现穷举网格搜索：按声明顺序枚举参数组合，
// 对每个组合做 K 折交叉验证，汇总每个候选模型的最佳参数。
package search

import (
	"fmt"
	"strings"

	"github.com/rushteam/survkit/model"
)

// Axis 是网格的一个维度：参数名及候选取值（按声明顺序）。
type Axis struct {
	Name   string
	Values []any
}

// Param 是一个具体的参数取值。
type Param struct {
	Name  string
	Value any
}

// Assignment 是一组参数取值，顺序与网格维度一致。
// 取值类型限定为 int / float64 / string / bool，以便 gob 编码与 CEL 求值。
type Assignment []Param

// Get 返回参数取值。
func (a Assignment) Get(name string) (any, bool) {
	for _, p := range a {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// Map 以 map 形式返回参数（用于日志与 CEL 变量）。
func (a Assignment) Map() map[string]any {
	out := make(map[string]any, len(a))
	for _, p := range a {
		out[p.Name] = p.Value
	}
	return out
}

func (a Assignment) String() string {
	parts := make([]string, len(a))
	for i, p := range a {
		parts[i] = fmt.Sprintf("%s: %v", p.Name, p.Value)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Candidate 是可被搜索的候选模型：固定的家族、参数网格，以及按参数构造分类器的能力。
//
// Build 每次调用都必须返回新的分类器实例；搜索会在多个 goroutine 中并发调用。
type Candidate interface {
	ID() string
	Family() string
	Axes() []Axis
	Build(params Assignment) (model.Classifier, error)
}
