package domain

import (
	"context"
	"encoding/json"
	"time"
)

// RawJSON 原样保存的 JSON 片段
type RawJSON = json.RawMessage

// KVRepository 键值存储，各键独立，后写覆盖
type KVRepository interface {
	// Get 获取值，不存在或已过期时 ok 为 false
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Put 写入值，ttl 为 0 表示永不过期
	Put(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete 删除键
	Delete(ctx context.Context, key string) error

	// PurgeExpired 物理删除过期数据，返回删除数量
	PurgeExpired(ctx context.Context) (int64, error)
}

// DocumentRepository 文档存储，写入均按文档键串行化
type DocumentRepository interface {
	// Get 读取当前文档，缺失或无法解析时返回版本为 1 的空文档
	Get(ctx context.Context) (*Document, error)

	// CompareAndSwap baseVersion 与当前版本一致时写入并将版本加 1
	// 否则返回 *ConflictError，不做任何写入
	CompareAndSwap(ctx context.Context, baseVersion int64, links []Link, categories []Category) (*Document, error)

	// Update 在串行化的读-改-写中执行 fn，fn 返回 nil 时版本加 1 并保存
	Update(ctx context.Context, fn func(doc *Document) error) (*Document, error)
}
