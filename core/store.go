package core

import (
	"context"
	"errors"
)

// Store 是存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//   - 避免循环依赖：领域层不依赖基础设施层
//
// 使用场景：
//   - 模型产物存储：训练完成的模型（含编码映射）按名称写入
//   - 元数据存储：特征列、编码映射的 JSON 旁路文件
//
// 实现：
//   - store.FileStore 实现此接口（本地目录，原子写入）
//   - store.RedisStore 实现此接口
//   - store.MemoryStore 实现此接口（测试/开发）
type Store interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Get 读取单个 key 的值
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入单个 key-value
	Set(ctx context.Context, key string, value []byte) error

	// Delete 删除单个 key
	Delete(ctx context.Context, key string) error

	// Close 关闭连接/释放资源
	Close() error
}

// Store 错误定义（使用统一的 DomainError）
var (
	// ErrStoreNotFound 表示 key 不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

	// ErrStoreInvalidKey 表示 key 不合法（例如包含路径分隔符）
	ErrStoreInvalidKey = NewDomainError(ModuleStore, ErrorCodeInvalidInput, "store: invalid key")
)

// IsStoreNotFound 检查错误是否为 key 不存在（错误链中任意一层均可）
func IsStoreNotFound(err error) bool {
	if errors.Is(err, ErrStoreNotFound) {
		return true
	}
	domainErr := GetDomainError(err)
	if domainErr != nil && domainErr.Module == ModuleStore {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}
