package dao

import (
	"context"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	"github.com/haierkeys/cloudnav-sync-service/internal/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// kvRepository 基于 gorm 的键值仓储
type kvRepository struct {
	dao *Dao
}

var _ domain.KVRepository = (*kvRepository)(nil)

// NewKVRepository 创建 KVRepository 实例
func NewKVRepository(dao *Dao) domain.KVRepository {
	return dao.KV()
}

func (r *kvRepository) table(ctx context.Context) *gorm.DB {
	return r.dao.db.WithContext(ctx).Model(&model.KV{})
}

func notExpired(db *gorm.DB, now time.Time) *gorm.DB {
	return db.Where("expires_at = 0 OR expires_at > ?", now.UnixMilli())
}

// Get 获取值，已过期的行视为不存在
func (r *kvRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var m model.KV
	err := notExpired(r.table(ctx).Where("name = ?", key), time.Now()).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return m.Value, true, nil
}

// Put 覆盖写入，ttl 为 0 表示永不过期
func (r *kvRepository) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixMilli()
	}

	return r.dao.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.KV{}).Where("name = ?", key).Updates(map[string]any{
			"value":      value,
			"expires_at": expiresAt,
			"revision":   gorm.Expr("revision + 1"),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at"}),
		}).Create(&model.KV{Name: key, Value: value, Revision: 1, ExpiresAt: expiresAt}).Error
	})
}

// Delete 删除键，不存在时不报错
func (r *kvRepository) Delete(ctx context.Context, key string) error {
	return r.dao.db.WithContext(ctx).Where("name = ?", key).Delete(&model.KV{}).Error
}

// PurgeExpired 物理删除已过期的行
func (r *kvRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res := r.dao.db.WithContext(ctx).
		Where("expires_at > 0 AND expires_at <= ?", time.Now().UnixMilli()).
		Delete(&model.KV{})
	return res.RowsAffected, res.Error
}

func (r *kvRepository) getRevision(ctx context.Context, key string) (string, int64, bool, error) {
	var m model.KV
	err := notExpired(r.table(ctx).Where("name = ?", key), time.Now()).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, err
	}
	return m.Value, m.Revision, true, nil
}

func (r *kvRepository) putIfRevision(ctx context.Context, key, value string, rev int64, exists bool) (bool, error) {
	if !exists {
		res := r.dao.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.KV{Name: key, Value: value, Revision: 1})
		return res.RowsAffected == 1, res.Error
	}

	res := r.table(ctx).Where("name = ? AND revision = ?", key, rev).Updates(map[string]any{
		"value":      value,
		"revision":   rev + 1,
		"expires_at": 0,
	})
	return res.RowsAffected == 1, res.Error
}
