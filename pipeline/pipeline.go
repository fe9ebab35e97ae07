package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Pipeline 把训练流程拆成可组合的 Node 链：prepare → search → select → train → persist。
// 任一 Node 返回错误即中止，后续 Node 不再执行。
type Pipeline struct {
	Name  string
	Nodes []Node
}

func (p *Pipeline) Run(ctx context.Context, st *State) error {
	if st == nil {
		st = NewState(nil, nil)
	}
	log := st.Logger.With(zap.String("pipeline", p.Name))
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		log.Debug("node start", zap.String("node", node.Name()), zap.String("kind", string(node.Kind())))
		if err := node.Process(ctx, st); err != nil {
			log.Error("node failed", zap.String("node", node.Name()), zap.Error(err))
			return fmt.Errorf("%s: %w", node.Name(), err)
		}
		log.Info("node done", zap.String("node", node.Name()), zap.Duration("elapsed", time.Since(start)))
	}
	return nil
}
