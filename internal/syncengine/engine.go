// Package syncengine 客户端同步引擎
//
// 维护链接与分类的工作副本，每次修改先同步写入本地缓存，
// 持有凭证时再以 baseVersion 条件写入服务端。远端写入失败不会回滚本地修改。
package syncengine

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"sync"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/dataset"
	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
	"github.com/haierkeys/cloudnav-sync-service/pkg/logger"
	"go.uber.org/zap"
)

// State 会话状态
type State int

const (
	Uninitialized State = iota
	CloudLoaded
	LocalFallback
	Dirty
	Syncing
	SyncError
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case CloudLoaded:
		return "cloud-loaded"
	case LocalFallback:
		return "local-fallback"
	case Dirty:
		return "dirty"
	case Syncing:
		return "syncing"
	case SyncError:
		return "sync-error"
	}
	return "unknown"
}

// ErrCategoryNotFound 分类不存在
var ErrCategoryNotFound = errors.New("category not found")

// Snapshot 当前会话状态的只读副本
type Snapshot struct {
	State            State
	ConfirmedVersion int64
	Links            []domain.Link
	Categories       []domain.Category
	HasCredential    bool
	RequiresAuth     bool
	// LastError 最近一次加载或同步失败的原因
	LastError error
}

// MutateFunc 在工作副本的拷贝上修改，返回 error 时不做任何写入
type MutateFunc func(links []domain.Link, cats []domain.Category) ([]domain.Link, []domain.Category, error)

// Option Engine 选项
type Option func(e *Engine)

// WithCredential 初始凭证
func WithCredential(credential string) Option {
	return func(e *Engine) { e.credential = credential }
}

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock 替换时钟，测试使用
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine 单个客户端会话的同步引擎
// 同一会话内的写入不做流水线，上一次写入返回后才会发起下一次
type Engine struct {
	mu sync.Mutex

	store  Store
	cache  *LocalCache
	logger *zap.Logger
	now    func() time.Time

	credential   string
	requiresAuth bool

	state            State
	links            []domain.Link
	cats             []domain.Category
	confirmedVersion int64
	lastErr          error

	// 解锁状态只保存在内存中
	unlocked map[string]bool
}

// New 创建 Engine，调用 Load 之前状态为 Uninitialized
func New(store Store, cache *LocalCache, opts ...Option) *Engine {
	e := &Engine{
		store:        store,
		cache:        cache,
		logger:       zap.NewNop(),
		now:          time.Now,
		requiresAuth: true,
		state:        Uninitialized,
		links:        []domain.Link{},
		cats:         []domain.Category{},
		unlocked:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Snapshot 返回当前状态
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		State:            e.state,
		ConfirmedVersion: e.confirmedVersion,
		Links:            domain.CloneLinks(e.links),
		Categories:       append([]domain.Category{}, e.cats...),
		HasCredential:    e.credential != "",
		RequiresAuth:     e.requiresAuth,
		LastError:        e.lastErr,
	}
}

// Load 从云端加载，失败或云端为空时回退到本地缓存
// 返回的 error 只表示本地缓存读取失败，回退原因见 Snapshot().LastError
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.load(ctx)
}

func (e *Engine) load(ctx context.Context) error {
	e.lastErr = nil

	status, err := e.store.CheckAuth(ctx, e.credential)
	if err != nil {
		return e.fallback(err)
	}
	e.requiresAuth = status.RequiresAuth
	if status.RequiresAuth && e.credential == "" {
		return e.fallback(domain.ErrAuthRequired)
	}

	doc, err := e.store.Get(ctx, e.credential)
	if err != nil {
		if errors.Is(err, domain.ErrExpired) {
			e.credential = ""
		}
		return e.fallback(err)
	}

	e.confirmedVersion = doc.Version
	// 云端为空时保留本地数据，下一次写入会推送到云端
	if len(doc.Links) == 0 && len(doc.Categories) == 0 {
		return e.fallback(nil)
	}

	e.links, e.cats = dataset.Repair(doc.Links, doc.Categories)
	e.state = CloudLoaded
	if err := e.cache.Save(e.links, e.cats); err != nil {
		e.logger.Warn("local cache write failed", zap.Error(err))
	}
	e.logger.Info("cloud document loaded",
		zap.Int64(logger.FieldVersion, doc.Version),
		zap.Int(logger.FieldLinks, len(e.links)),
		zap.Int(logger.FieldCategories, len(e.cats)))
	return nil
}

// fallback 使用本地缓存，没有缓存时使用内置默认数据
func (e *Engine) fallback(reason error) error {
	e.state = LocalFallback
	e.lastErr = reason
	if reason != nil {
		e.logger.Info("using local cache", zap.Error(reason))
	}

	links, cats, ok, err := e.cache.Load()
	if err != nil {
		return err
	}
	if !ok {
		def := dataset.DefaultDocument()
		links, cats = def.Links, def.Categories
	}
	e.links, e.cats = dataset.Repair(links, cats)
	return nil
}

// authenticated 持有凭证或服务端为开放模式
func (e *Engine) authenticated() bool {
	return e.credential != "" || !e.requiresAuth
}

// Mutate 修改工作副本并同步写入本地缓存，已认证时再条件写入服务端
// 远端写入失败时状态为 SyncError，工作副本保持修改后的内容
func (e *Engine) Mutate(ctx context.Context, fn MutateFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mutate(ctx, fn)
}

func (e *Engine) mutate(ctx context.Context, fn MutateFunc) error {
	links, cats, err := fn(domain.CloneLinks(e.links), append([]domain.Category{}, e.cats...))
	if err != nil {
		return err
	}

	e.links, e.cats = links, cats
	e.state = Dirty
	if err := e.cache.Save(e.links, e.cats); err != nil {
		return err
	}

	if !e.authenticated() {
		return nil
	}
	return e.push(ctx)
}

// guarded 需要凭证的修改，没有凭证时不做任何修改
func (e *Engine) guarded(ctx context.Context, fn MutateFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.authenticated() {
		return domain.ErrAuthRequired
	}
	return e.mutate(ctx, fn)
}

func (e *Engine) push(ctx context.Context) error {
	e.state = Syncing
	res, err := e.store.Put(ctx, e.credential, e.confirmedVersion, e.links, e.cats)
	if err != nil {
		e.state = SyncError
		e.lastErr = err
		if errors.Is(err, domain.ErrExpired) {
			e.credential = ""
		}
		e.logger.Warn("sync failed", zap.Int64(logger.FieldBaseVersion, e.confirmedVersion), zap.Error(err))
		return err
	}
	e.confirmedVersion = res.Version
	e.state = CloudLoaded
	e.lastErr = nil
	return nil
}

// Push 将当前工作副本写入服务端
func (e *Engine) Push(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.authenticated() {
		return domain.ErrAuthRequired
	}
	return e.push(ctx)
}

// Login 校验凭证，成功后保存并重新加载
func (e *Engine) Login(ctx context.Context, candidate string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.Login(ctx, candidate); err != nil {
		return err
	}
	e.credential = candidate
	return e.load(ctx)
}

// Logout 丢弃凭证并从本地缓存重新加载
func (e *Engine) Logout() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.credential = ""
	e.unlocked = make(map[string]bool)
	return e.fallback(nil)
}

// AddLink 新增链接
func (e *Engine) AddLink(ctx context.Context, in dataset.NewLinkInput) (domain.Link, error) {
	var added domain.Link
	err := e.guarded(ctx, func(links []domain.Link, cats []domain.Category) ([]domain.Link, []domain.Category, error) {
		if !dataset.IsValidURL(in.URL) {
			return nil, nil, domain.ErrInvalidDocument
		}
		if len(links) >= dataset.MaxLinks {
			return nil, nil, domain.ErrTooManyLinks
		}
		var out []domain.Link
		out, added = dataset.AddLink(links, in, e.now())
		out, cats = dataset.Repair(out, cats)
		return out, cats, nil
	})
	return added, err
}

// EditLink 修改链接
func (e *Engine) EditLink(ctx context.Context, id string, in dataset.NewLinkInput) error {
	return e.guarded(ctx, func(links []domain.Link, cats []domain.Category) ([]domain.Link, []domain.Category, error) {
		out, ok := dataset.EditLink(links, id, in)
		if !ok {
			return nil, nil, domain.ErrNotFound
		}
		out, cats = dataset.Repair(out, cats)
		return out, cats, nil
	})
}

// DeleteLink 删除链接
func (e *Engine) DeleteLink(ctx context.Context, id string) error {
	return e.guarded(ctx, func(links []domain.Link, cats []domain.Category) ([]domain.Link, []domain.Category, error) {
		out, ok := dataset.DeleteLink(links, id)
		if !ok {
			return nil, nil, domain.ErrNotFound
		}
		return out, cats, nil
	})
}

// TogglePin 切换置顶
func (e *Engine) TogglePin(ctx context.Context, id string) error {
	return e.Mutate(ctx, func(links []domain.Link, cats []domain.Category) ([]domain.Link, []domain.Category, error) {
		out, ok := dataset.TogglePin(links, id)
		if !ok {
			return nil, nil, domain.ErrNotFound
		}
		return out, cats, nil
	})
}

// Reorder 按 ids 的顺序重写 order，未列出的链接保持原值
func (e *Engine) Reorder(ctx context.Context, ids []string) error {
	return e.Mutate(ctx, func(links []domain.Link, cats []domain.Category) ([]domain.Link, []domain.Category, error) {
		pos := make(map[string]int64, len(ids))
		for i, id := range ids {
			pos[id] = int64(i)
		}
		for i := range links {
			if v, ok := pos[links[i].ID]; ok {
				links[i].Order = &v
			}
		}
		return dataset.SortPinnedFirst(links), cats, nil
	})
}

// UpdateCategories 整体替换分类，丢失分类的链接归入常用推荐
func (e *Engine) UpdateCategories(ctx context.Context, next []domain.Category) error {
	return e.guarded(ctx, func(links []domain.Link, _ []domain.Category) ([]domain.Link, []domain.Category, error) {
		if len(next) > dataset.MaxCategories {
			return nil, nil, domain.ErrTooManyCategories
		}
		out, cats := dataset.Repair(links, append([]domain.Category{}, next...))
		return out, cats, nil
	})
}

// DeleteCategory 删除分类，常用推荐不可删除
func (e *Engine) DeleteCategory(ctx context.Context, id string) error {
	return e.guarded(ctx, func(links []domain.Link, cats []domain.Category) ([]domain.Link, []domain.Category, error) {
		found := false
		for _, c := range cats {
			if c.ID == id {
				found = true
				break
			}
		}
		if !found && id != domain.CommonCategoryID {
			return nil, nil, ErrCategoryNotFound
		}
		return dataset.DeleteCategory(links, cats, id)
	})
}

// ImportMerge 合并导入的书签
func (e *Engine) ImportMerge(ctx context.Context, res *domain.ImportResult) error {
	return e.guarded(ctx, func(links []domain.Link, cats []domain.Category) ([]domain.Link, []domain.Category, error) {
		out, merged := dataset.MergeImport(links, cats, res.Links, res.Categories)
		if len(out) > dataset.MaxLinks {
			return nil, nil, domain.ErrTooManyLinks
		}
		return out, merged, nil
	})
}

// ApplyAISort 合并 AI 分类建议，返回新增的分类名称
func (e *Engine) ApplyAISort(ctx context.Context, s domain.AISuggestion) ([]string, error) {
	var added []string
	err := e.guarded(ctx, func(links []domain.Link, cats []domain.Category) ([]domain.Link, []domain.Category, error) {
		var out []domain.Link
		out, cats, added = dataset.MergeAISort(links, cats, s)
		out, cats = dataset.Repair(out, cats)
		return out, cats, nil
	})
	return added, err
}

// RestoreBackup 用备份内容替换工作副本
func (e *Engine) RestoreBackup(ctx context.Context, p domain.BackupPayload) error {
	return e.guarded(ctx, func(_ []domain.Link, _ []domain.Category) ([]domain.Link, []domain.Category, error) {
		links, cats := dataset.Repair(domain.CloneLinks(p.Links), append([]domain.Category{}, p.Categories...))
		return links, cats, nil
	})
}

// UnlockCategory 常量时间比较分类密码，成功后本会话内可见
func (e *Engine) UnlockCategory(id, candidate string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, c := range e.cats {
		if c.ID != id {
			continue
		}
		if c.Password == "" {
			return true
		}
		want := sha256.Sum256([]byte(c.Password))
		got := sha256.Sum256([]byte(candidate))
		if subtle.ConstantTimeCompare(want[:], got[:]) == 1 {
			e.unlocked[id] = true
			return true
		}
		return false
	}
	return false
}

// LockCategory 重新锁定
func (e *Engine) LockCategory(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.unlocked, id)
}

// VisibleLinks 隐藏锁定分类中的链接并按关键字过滤
func (e *Engine) VisibleLinks(query string) []domain.Link {
	e.mu.Lock()
	defer e.mu.Unlock()
	return dataset.VisibleLinks(e.links, e.cats, e.unlocked, query)
}
