package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	"github.com/haierkeys/cloudnav-sync-service/pkg/logger"
	"go.uber.org/zap"
)

// documentRepository 实现 domain.DocumentRepository 接口
// 同进程内的写入经写队列串行化，跨进程由修订号条件写入兜底
type documentRepository struct {
	dao *Dao
	key string
	now func() time.Time
}

var _ domain.DocumentRepository = (*documentRepository)(nil)

// NewDocumentRepository 创建 DocumentRepository 实例
func NewDocumentRepository(dao *Dao) domain.DocumentRepository {
	return &documentRepository{dao: dao, key: domain.KeyDocument, now: time.Now}
}

// Get 读取当前文档
func (r *documentRepository) Get(ctx context.Context) (*domain.Document, error) {
	raw, _, ok, err := r.dao.store.getRevision(ctx, r.key)
	if err != nil {
		return nil, err
	}
	return decodeDocument(raw, ok, r.now()), nil
}

// CompareAndSwap baseVersion 与当前版本一致时整体替换文档
func (r *documentRepository) CompareAndSwap(ctx context.Context, baseVersion int64, links []domain.Link, categories []domain.Category) (*domain.Document, error) {
	return r.write(ctx, func(cur *domain.Document) (*domain.Document, error) {
		if cur.Version != baseVersion {
			return nil, &domain.ConflictError{ExpectedVersion: baseVersion, CurrentVersion: cur.Version}
		}
		return &domain.Document{
			Links:      domain.CloneLinks(links),
			Categories: append([]domain.Category{}, categories...),
		}, nil
	})
}

// Update 串行化的读-改-写，fn 返回错误时不写入
func (r *documentRepository) Update(ctx context.Context, fn func(doc *domain.Document) error) (*domain.Document, error) {
	return r.write(ctx, func(cur *domain.Document) (*domain.Document, error) {
		next := cur.Clone()
		if err := fn(next); err != nil {
			return nil, err
		}
		return next, nil
	})
}

// write 在写队列中完成 读取 -> 生成新文档 -> 条件写入
func (r *documentRepository) write(ctx context.Context, build func(cur *domain.Document) (*domain.Document, error)) (*domain.Document, error) {
	var result *domain.Document

	err := r.dao.ExecuteWrite(ctx, r.key, func() error {
		raw, rev, exists, err := r.dao.store.getRevision(ctx, r.key)
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}
		now := r.now()
		cur := decodeDocument(raw, exists, now)

		next, err := build(cur)
		if err != nil {
			return err
		}
		next.Version = cur.Version + 1
		next.UpdatedAt = now.UnixMilli()

		data, err := encodeDocument(next)
		if err != nil {
			return fmt.Errorf("encode document: %w", err)
		}

		swapped, err := r.dao.store.putIfRevision(ctx, r.key, data, rev, exists)
		if err != nil {
			return fmt.Errorf("write document: %w", err)
		}
		if !swapped {
			// 其他进程抢先写入
			latest, gerr := r.Get(ctx)
			if gerr != nil {
				return gerr
			}
			r.dao.Logger().Warn("document revision changed concurrently",
				zap.String(logger.FieldKey, r.key),
				zap.Int64(logger.FieldBaseVersion, cur.Version),
				zap.Int64(logger.FieldVersion, latest.Version),
			)
			return &domain.ConflictError{ExpectedVersion: cur.Version, CurrentVersion: latest.Version}
		}

		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
