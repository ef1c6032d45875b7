// Package writequeue serializes writes that target the same storage key
// Package writequeue 按存储键串行化写操作，同一个键上的读-改-写不会交叉执行
package writequeue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrWriteQueueFull 当某个键的写队列已满时返回
	ErrWriteQueueFull = errors.New("write queue is full")
	// ErrWriteQueueClosed 当写队列管理器已关闭时返回
	ErrWriteQueueClosed = errors.New("write queue is closed")
	// ErrWriteTimeout 当写操作等待超时时返回
	ErrWriteTimeout = errors.New("write operation timeout")
)

// Config write queue configuration
// Config 写队列配置
type Config struct {
	// QueueCapacity 每个键的队列容量，默认 100
	QueueCapacity int
	// WriteTimeout 单次写操作等待上限，默认 30 秒
	WriteTimeout time.Duration
	// IdleTimeout 队列空闲多久后回收，默认 10 分钟
	IdleTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		QueueCapacity: 100,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   10 * time.Minute,
	}
}

type writeOp struct {
	ctx    context.Context
	fn     func() error
	result chan error
}

type keyQueue struct {
	key      string
	ch       chan writeOp
	lastUsed atomic.Int64
	closed   atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	workerWg sync.WaitGroup
}

func (q *keyQueue) stop() {
	q.stopOnce.Do(func() {
		q.closed.Store(true)
		close(q.stopCh)
	})
}

// Manager 管理所有键的写队列，每个键一个 worker，FIFO 执行
type Manager struct {
	config Config
	logger *zap.Logger

	queues sync.Map // map[string]*keyQueue

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool

	cleanupWg   sync.WaitGroup
	cleanupDone chan struct{}
}

// New 创建写队列管理器，cfg 为 nil 时使用默认配置
func New(cfg *Config, logger *zap.Logger) *Manager {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.QueueCapacity > 0 {
			c.QueueCapacity = cfg.QueueCapacity
		}
		if cfg.WriteTimeout > 0 {
			c.WriteTimeout = cfg.WriteTimeout
		}
		if cfg.IdleTimeout > 0 {
			c.IdleTimeout = cfg.IdleTimeout
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		config:      c,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		cleanupDone: make(chan struct{}),
	}

	m.cleanupWg.Add(1)
	go m.cleanupIdleQueues()

	m.logger.Info("write queue manager started",
		zap.Int("queueCapacity", c.QueueCapacity),
		zap.Duration("writeTimeout", c.WriteTimeout),
		zap.Duration("idleTimeout", c.IdleTimeout))

	return m
}

// Execute 提交写操作并等待结果
// 同一个 key 的写操作按提交顺序依次执行
func (m *Manager) Execute(ctx context.Context, key string, fn func() error) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrWriteQueueClosed
	}
	m.mu.RUnlock()

	queue := m.getOrCreateQueue(key)
	if queue == nil {
		return ErrWriteQueueClosed
	}

	result := make(chan error, 1)
	select {
	case queue.ch <- writeOp{ctx: ctx, fn: fn, result: result}:
	default:
		return ErrWriteQueueFull
	}

	timeout := m.config.WriteTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrWriteTimeout
	case <-m.ctx.Done():
		return ErrWriteQueueClosed
	}
}

func (m *Manager) getOrCreateQueue(key string) *keyQueue {
	if v, ok := m.queues.Load(key); ok {
		q := v.(*keyQueue)
		if !q.closed.Load() {
			q.lastUsed.Store(time.Now().UnixNano())
			return q
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil
	}

	q := &keyQueue{
		key:    key,
		ch:     make(chan writeOp, m.config.QueueCapacity),
		stopCh: make(chan struct{}),
	}
	q.lastUsed.Store(time.Now().UnixNano())

	actual, loaded := m.queues.LoadOrStore(key, q)
	if loaded {
		existing := actual.(*keyQueue)
		if !existing.closed.Load() {
			existing.lastUsed.Store(time.Now().UnixNano())
			return existing
		}
		m.queues.Store(key, q)
	}

	q.workerWg.Add(1)
	go m.worker(q)

	m.logger.Debug("created write queue", zap.String("key", key))
	return q
}

func (m *Manager) worker(q *keyQueue) {
	defer q.workerWg.Done()
	defer q.closed.Store(true)

	for {
		select {
		case <-m.ctx.Done():
			m.drain(q)
			return
		case <-q.stopCh:
			m.drain(q)
			return
		case op := <-q.ch:
			m.executeOp(q, op)
		}
	}
}

func (m *Manager) executeOp(q *keyQueue, op writeOp) {
	q.lastUsed.Store(time.Now().UnixNano())

	if err := op.ctx.Err(); err != nil {
		op.result <- err
		return
	}

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error("write op panic", zap.String("key", q.key), zap.Any("panic", r), zap.Stack("stack"))
				err = errors.New("write op panic")
			}
		}()
		err = op.fn()
	}()

	op.result <- err
}

func (m *Manager) drain(q *keyQueue) {
	for {
		select {
		case op := <-q.ch:
			m.executeOp(q, op)
		default:
			return
		}
	}
}

func (m *Manager) cleanupIdleQueues() {
	defer m.cleanupWg.Done()

	ticker := time.NewTicker(m.config.IdleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.cleanupDone:
			return
		case <-ticker.C:
			m.doCleanup()
		}
	}
}

func (m *Manager) doCleanup() {
	now := time.Now().UnixNano()
	idle := m.config.IdleTimeout.Nanoseconds()

	m.queues.Range(func(k, v interface{}) bool {
		q := v.(*keyQueue)
		if now-q.lastUsed.Load() > idle && len(q.ch) == 0 && !q.closed.Load() {
			q.stop()
			m.queues.CompareAndDelete(k, q)
		}
		return true
	})
}

// QueueCount 当前活跃的写队列数量
func (m *Manager) QueueCount() int {
	n := 0
	m.queues.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

// Shutdown 关闭写队列管理器，等待队列中剩余的写操作执行完毕
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.logger.Info("write queue manager shutting down")
	close(m.cleanupDone)

	done := make(chan struct{})
	go func() {
		m.queues.Range(func(_, v interface{}) bool {
			v.(*keyQueue).stop()
			return true
		})
		m.queues.Range(func(_, v interface{}) bool {
			v.(*keyQueue).workerWg.Wait()
			return true
		})
		m.cleanupWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.cancel()
		m.logger.Info("write queue manager shutdown completed")
		return nil
	case <-ctx.Done():
		m.cancel()
		m.logger.Warn("write queue manager shutdown timeout")
		return ctx.Err()
	}
}
