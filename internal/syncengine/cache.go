package syncengine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	"github.com/haierkeys/cloudnav-sync-service/pkg/fileurl"
	"github.com/pkg/errors"
)

// CacheFileName 本地缓存文件名
const CacheFileName = "cloudnav_data_cache.json"

type cachePayload struct {
	Links      []domain.Link     `json:"links"`
	Categories []domain.Category `json:"categories"`
}

// LocalCache 工作副本的本地持久化，每次修改同步写入
type LocalCache struct {
	mu   sync.Mutex
	path string
}

// NewLocalCache dir 为空时使用当前目录
func NewLocalCache(dir string) *LocalCache {
	return &LocalCache{path: filepath.Join(dir, CacheFileName)}
}

// Path 缓存文件路径
func (c *LocalCache) Path() string {
	return c.path
}

// Load 读取缓存，文件不存在时 ok 为 false
// 内容损坏视为没有缓存
func (c *LocalCache) Load() (links []domain.Link, cats []domain.Category, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, false, nil
		}
		return nil, nil, false, errors.Wrap(err, "read local cache")
	}

	var p cachePayload
	if json.Unmarshal(data, &p) != nil {
		return nil, nil, false, nil
	}
	if p.Links == nil {
		p.Links = []domain.Link{}
	}
	if p.Categories == nil {
		p.Categories = []domain.Category{}
	}
	return p.Links, p.Categories, true, nil
}

// Save 原子写入
func (c *LocalCache) Save(links []domain.Link, cats []domain.Category) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(cachePayload{Links: links, Categories: cats})
	if err != nil {
		return errors.Wrap(err, "encode local cache")
	}
	if err := fileurl.WriteFileAtomic(c.path, data, 0o600); err != nil {
		return errors.Wrap(err, "write local cache")
	}
	return nil
}

// Clear 删除缓存文件
func (c *LocalCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove local cache")
	}
	return nil
}
