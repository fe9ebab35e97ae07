// Package survkit 是 Titanic 乘客生存预测的模型选择工具包。
//
// 设计要点：
//   - Pipeline-first: 训练流程通过 Node 串联（Prepare → Search → Select → Train → Persist）
//   - 候选可扩展: 模型家族在 candidate 包注册，网格可由 YAML 声明
//   - 产物自描述: 模型与特征编码、填充值一起保存，推理时复现同样的特征
package survkit

import "github.com/rushteam/survkit/pipeline"

// 轻量 facade：便于用户直接 import "survkit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind
type State = pipeline.State

const (
	KindPrepare = pipeline.KindPrepare
	KindSearch  = pipeline.KindSearch
	KindSelect  = pipeline.KindSelect
	KindTrain   = pipeline.KindTrain
	KindPersist = pipeline.KindPersist
)
