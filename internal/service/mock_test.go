package service

import (
	"context"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/domain"
)

type memKV struct {
	domain.KVRepository
	mu   sync.Mutex
	data map[string]string
	ttl  map[string]time.Duration
}

func newMemKV() *memKV {
	return &memKV{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (m *memKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttl[key] = ttl
	return nil
}

type memDocRepo struct {
	domain.DocumentRepository
	mu  sync.Mutex
	doc domain.Document
}

func newMemDocRepo() *memDocRepo {
	return &memDocRepo{doc: domain.Document{Version: 1, Links: []domain.Link{}, Categories: []domain.Category{}}}
}

func (m *memDocRepo) Get(ctx context.Context) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc.Clone(), nil
}

func (m *memDocRepo) CompareAndSwap(ctx context.Context, base int64, links []domain.Link, cats []domain.Category) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if base != m.doc.Version {
		return nil, &domain.ConflictError{ExpectedVersion: base, CurrentVersion: m.doc.Version}
	}
	m.doc = domain.Document{Version: m.doc.Version + 1, UpdatedAt: time.Now().UnixMilli(), Links: links, Categories: cats}
	return m.doc.Clone(), nil
}

func (m *memDocRepo) Update(ctx context.Context, fn func(doc *domain.Document) error) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.doc.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.Version = m.doc.Version + 1
	m.doc = *next
	return m.doc.Clone(), nil
}

// slowDocRepo 读取阻塞到 release 关闭，调用方的 ctx 已取消时返回错误
type slowDocRepo struct {
	*memDocRepo
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (m *slowDocRepo) Get(ctx context.Context) (*domain.Document, error) {
	m.once.Do(func() { close(m.started) })
	<-m.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.memDocRepo.Get(ctx)
}

type memStorage struct {
	mu       sync.Mutex
	files    map[string][]byte
	checkErr error
	sendErr  error
}

func newMemStorage() *memStorage {
	return &memStorage{files: map[string][]byte{}}
}

func (m *memStorage) SendContent(ctx context.Context, key string, content []byte) (string, error) {
	if m.sendErr != nil {
		return "", m.sendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[key] = append([]byte{}, content...)
	return key, nil
}

func (m *memStorage) ReadContent(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, fs.ErrNotExist)
	}
	return b, nil
}

func (m *memStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, key)
	return nil
}

func (m *memStorage) Check(ctx context.Context) error {
	return m.checkErr
}

func (m *memStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}
