// Package persist 负责训练产物的序列化与存取。
//
// 产物使用 encoding/gob 编码（模型实现均在 model 包中通过 gob.Register 注册），
// 写入任意 core.Store：本地文件、Redis 或内存。
package persist

import (
	"bytes"
	"context"
	"encoding/gob"

	"go.uber.org/zap"

	"github.com/rushteam/survkit/core"
	"github.com/rushteam/survkit/trainer"
)

// formatVersion 产物编码格式版本，结构不兼容变更时递增。
const formatVersion = 1

// MetadataSuffix 特征元数据旁路文件的后缀。
const MetadataSuffix = ".meta.json"

type envelope struct {
	Version  int
	Artifact trainer.Artifact
}

// Persister 保存/加载训练产物。
type Persister struct {
	store   core.Store
	logger  *zap.Logger
	sidecar bool
}

// Option 配置 Persister。
type Option func(*Persister)

// WithLogger 设置日志。
func WithLogger(l *zap.Logger) Option {
	return func(p *Persister) { p.logger = l }
}

// WithMetadataSidecar 保存时额外写入 <name>.meta.json（特征元数据），供其他语言的推理方读取。
func WithMetadataSidecar(on bool) Option {
	return func(p *Persister) { p.sidecar = on }
}

// New 创建 Persister。
func New(store core.Store, opts ...Option) *Persister {
	p := &Persister{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// Store 返回底层存储。
func (p *Persister) Store() core.Store { return p.store }

// Save 编码并写入产物。失败返回 PersistenceError；不会触发重新训练。
func (p *Persister) Save(ctx context.Context, name string, art *trainer.Artifact) error {
	if art == nil || art.Model == nil {
		return core.NewDomainError(core.ModulePersist, core.ErrorCodePersistence, "persist: nothing to save")
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(envelope{Version: formatVersion, Artifact: *art}); err != nil {
		return core.WrapDomainError(core.ModulePersist, core.ErrorCodePersistence, err,
			"persist: encode %s", name)
	}
	if err := p.store.Set(ctx, name, buf.Bytes()); err != nil {
		return core.WrapDomainError(core.ModulePersist, core.ErrorCodePersistence, err,
			"persist: write %s to %s store", name, p.store.Name())
	}
	if p.sidecar {
		meta, err := art.Metadata.MarshalIndent()
		if err != nil {
			return core.WrapDomainError(core.ModulePersist, core.ErrorCodePersistence, err,
				"persist: encode metadata for %s", name)
		}
		if err := p.store.Set(ctx, name+MetadataSuffix, meta); err != nil {
			return core.WrapDomainError(core.ModulePersist, core.ErrorCodePersistence, err,
				"persist: write %s%s", name, MetadataSuffix)
		}
	}
	p.logger.Info("artifact saved",
		zap.String("name", name),
		zap.String("store", p.store.Name()),
		zap.String("candidate", art.CandidateID),
		zap.Int("bytes", buf.Len()),
	)
	return nil
}

// Load 读取并解码产物。
func (p *Persister) Load(ctx context.Context, name string) (*trainer.Artifact, error) {
	data, err := p.store.Get(ctx, name)
	if err != nil {
		return nil, core.WrapDomainError(core.ModulePersist, core.ErrorCodePersistence, err,
			"persist: read %s from %s store", name, p.store.Name())
	}
	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, core.WrapDomainError(core.ModulePersist, core.ErrorCodePersistence, err,
			"persist: decode %s", name)
	}
	if env.Version != formatVersion {
		return nil, core.NewDomainError(core.ModulePersist, core.ErrorCodePersistence,
			"persist: unsupported artifact format version")
	}
	return &env.Artifact, nil
}
