package pipeline

import (
	"context"
)

// Kind 用于标记 Node 所处阶段，方便日志按阶段打点。
type Kind string

const (
	KindPrepare Kind = "prepare" // 数据准备：CSV → 数值特征矩阵
	KindSearch  Kind = "search"  // 超参搜索：网格 × K 折交叉验证
	KindSelect  Kind = "select"  // 候选选择：固定参数或 CEL 规则
	KindTrain   Kind = "train"   // 最终训练：顺序 K 折轮转
	KindPersist Kind = "persist" // 产物落盘
)

// Node 是 Pipeline 的最小可扩展单元。
// 每个 Node 读取 State 中上游阶段的产出，写入自己的产出；已写入的产出不再被修改。
type Node interface {
	Name() string
	Kind() Kind

	Process(ctx context.Context, st *State) error
}

// NodeBuilder 根据配置（YAML 解析后的 map）构建 Node。
type NodeBuilder func(map[string]interface{}) (Node, error)
