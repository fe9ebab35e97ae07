package pipeline

import (
	"io"

	"go.uber.org/zap"

	"github.com/rushteam/survkit/candidate"
	"github.com/rushteam/survkit/feature"
	"github.com/rushteam/survkit/search"
	"github.com/rushteam/survkit/trainer"
)

// State 在各阶段之间传递产出。每个字段只由一个阶段写入一次。
type State struct {
	Logger *zap.Logger
	// Out 控制台输出（搜索耗时、结果表、训练准确率），nil 时丢弃
	Out io.Writer

	Rows     []feature.Passenger
	Dataset  *feature.Dataset
	Registry *candidate.Registry
	Report   *search.Report
	Choice   *trainer.Choice
	Artifact *trainer.Artifact
	// ArtifactName 落盘后的产物名称
	ArtifactName string
}

// NewState 创建空的 State。
func NewState(logger *zap.Logger, out io.Writer) *State {
	if logger == nil {
		logger = zap.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	return &State{Logger: logger, Out: out}
}
