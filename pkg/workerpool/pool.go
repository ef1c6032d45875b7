// Package workerpool 提供有界的后台任务池，用于备份快照、过期清理等异步工作
package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	// ErrWorkerPoolFull 当任务队列已满时返回
	ErrWorkerPoolFull = errors.New("worker pool queue is full")
	// ErrWorkerPoolClosed 当 Worker Pool 已关闭时返回
	ErrWorkerPoolClosed = errors.New("worker pool is closed")
	// ErrTaskCancelled 当任务在执行前被取消时返回
	ErrTaskCancelled = errors.New("task was cancelled")
)

// Config Worker Pool 配置
type Config struct {
	// MaxWorkers 最大并发 worker 数量，默认 4
	MaxWorkers int
	// QueueSize 任务队列大小，默认 64
	QueueSize int
}

func DefaultConfig() Config {
	return Config{MaxWorkers: 4, QueueSize: 64}
}

type job struct {
	ctx  context.Context
	fn   func(context.Context) error
	done chan error
}

// Pool 固定数量 worker 的任务池
type Pool struct {
	config Config
	logger *zap.Logger

	jobs     chan job
	workerWg sync.WaitGroup

	active atomic.Int64
	failed atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// New 创建新的 Worker Pool，cfg 为 nil 时使用默认配置
func New(cfg *Config, logger *zap.Logger) *Pool {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.MaxWorkers > 0 {
			c.MaxWorkers = cfg.MaxWorkers
		}
		if cfg.QueueSize > 0 {
			c.QueueSize = cfg.QueueSize
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		config: c,
		logger: logger,
		jobs:   make(chan job, c.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < c.MaxWorkers; i++ {
		p.workerWg.Add(1)
		go p.worker()
	}

	p.logger.Info("worker pool started",
		zap.Int("maxWorkers", c.MaxWorkers),
		zap.Int("queueSize", c.QueueSize))
	return p
}

func (p *Pool) worker() {
	defer p.workerWg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case j, ok := <-p.jobs:
			if !ok {
				return
			}
			p.run(j)
		}
	}
}

func (p *Pool) run(j job) {
	p.active.Add(1)
	defer p.active.Add(-1)

	var err error
	if j.ctx.Err() != nil {
		err = ErrTaskCancelled
	} else {
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.logger.Error("worker pool task panic", zap.Any("panic", r), zap.Stack("stack"))
					err = errors.New("task panic")
				}
			}()
			err = j.fn(j.ctx)
		}()
	}

	if err != nil {
		p.failed.Add(1)
		if j.done == nil {
			p.logger.Warn("async task failed", zap.Error(err))
		}
	}
	if j.done != nil {
		j.done <- err
	}
}

func (p *Pool) enqueue(j job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrWorkerPoolClosed
	}
	select {
	case p.jobs <- j:
		return nil
	default:
		return ErrWorkerPoolFull
	}
}

// Submit 提交任务并等待完成
func (p *Pool) Submit(ctx context.Context, fn func(context.Context) error) error {
	done := make(chan error, 1)
	if err := p.enqueue(job{ctx: ctx, fn: fn, done: done}); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrWorkerPoolClosed
	}
}

// SubmitAsync 异步提交任务（不等待结果），失败只记录日志
func (p *Pool) SubmitAsync(ctx context.Context, fn func(context.Context) error) error {
	return p.enqueue(job{ctx: ctx, fn: fn})
}

// Metrics Worker Pool 指标
type Metrics struct {
	MaxWorkers int
	Active     int64
	Queued     int
	Failed     int64
}

func (p *Pool) GetMetrics() Metrics {
	return Metrics{
		MaxWorkers: p.config.MaxWorkers,
		Active:     p.active.Load(),
		Queued:     len(p.jobs),
		Failed:     p.failed.Load(),
	}
}

// Shutdown 停止接收新任务并等待队列中的任务完成，ctx 到期后强制取消
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.workerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("worker pool shutdown completed")
		return nil
	case <-ctx.Done():
		p.cancel()
		p.logger.Warn("worker pool shutdown timeout, forcing cancellation")
		return ctx.Err()
	}
}
