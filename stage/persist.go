package stage

import (
	"context"
	"fmt"

	"github.com/rushteam/survkit/core"
	"github.com/rushteam/survkit/persist"
	"github.com/rushteam/survkit/pipeline"
)

// Persist 保存最终产物。
type Persist struct {
	Key       string // 产物名称，例如 xgboost_titanic.gob
	Persister *persist.Persister
}

func (n *Persist) Name() string        { return "persist.artifact" }
func (n *Persist) Kind() pipeline.Kind { return pipeline.KindPersist }

func (n *Persist) Process(ctx context.Context, st *pipeline.State) error {
	if st.Artifact == nil {
		return core.NewDomainError(core.ModulePersist, core.ErrorCodePersistence, "persist: no artifact to save")
	}
	if err := n.Persister.Save(ctx, n.Key, st.Artifact); err != nil {
		return err
	}
	st.ArtifactName = n.Key
	fmt.Fprintf(st.Out, "Model saved to %s store as %s\n", n.Persister.Store().Name(), n.Key)
	return nil
}
