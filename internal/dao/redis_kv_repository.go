package dao

import (
	"context"
	"errors"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

var errRevisionMismatch = errors.New("revision mismatch")

// redisKVRepository 基于 Redis 的键值仓储，过期由 Redis 原生处理
type redisKVRepository struct {
	dao    *Dao
	prefix string
}

var _ domain.KVRepository = (*redisKVRepository)(nil)

func (r *redisKVRepository) key(k string) string {
	return r.prefix + k
}

func (r *redisKVRepository) revKey(k string) string {
	return r.prefix + k + ":rev"
}

func (r *redisKVRepository) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.dao.rdb.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *redisKVRepository) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.dao.rdb.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *redisKVRepository) Delete(ctx context.Context, key string) error {
	return r.dao.rdb.Del(ctx, r.key(key), r.revKey(key)).Err()
}

// PurgeExpired Redis 自行淘汰过期键
func (r *redisKVRepository) PurgeExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

func (r *redisKVRepository) getRevision(ctx context.Context, key string) (string, int64, bool, error) {
	vals, err := r.dao.rdb.MGet(ctx, r.key(key), r.revKey(key)).Result()
	if err != nil {
		return "", 0, false, err
	}

	value, ok := vals[0].(string)
	if !ok {
		return "", 0, false, nil
	}
	var rev int64
	if s, isStr := vals[1].(string); isStr {
		rev, _ = parseInt64(s)
	}
	return value, rev, true, nil
}

// putIfRevision 使用 WATCH/MULTI 实现乐观锁
func (r *redisKVRepository) putIfRevision(ctx context.Context, key, value string, rev int64, exists bool) (bool, error) {
	k, rk := r.key(key), r.revKey(key)

	txf := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, k).Result()
		if err != nil {
			return err
		}
		if (n == 1) != exists {
			return errRevisionMismatch
		}
		cur, err := tx.Get(ctx, rk).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != rev {
			return errRevisionMismatch
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, value, 0)
			pipe.Set(ctx, rk, rev+1, 0)
			return nil
		})
		return err
	}

	err := r.dao.rdb.Watch(ctx, txf, k, rk)
	if errors.Is(err, errRevisionMismatch) || errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
