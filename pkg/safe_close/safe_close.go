// Package safe_close 协调多个后台 goroutine 的优雅退出
package safe_close

import (
	"sync"
)

// SafeClose 收集关闭信号并等待所有挂载的 goroutine 结束
type SafeClose struct {
	mu     sync.Mutex
	wg     sync.WaitGroup
	signal chan struct{}
	once   sync.Once
	err    error
}

func NewSafeClose() *SafeClose {
	return &SafeClose{
		signal: make(chan struct{}),
	}
}

// Attach 在新的 goroutine 中运行 fn，fn 结束前必须调用 done
// closeSignal 在 SendCloseSignal 后关闭
func (s *SafeClose) Attach(fn func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	var once sync.Once
	done := func() { once.Do(s.wg.Done) }
	go fn(done, s.signal)
}

// SendCloseSignal 广播关闭信号，只有第一次调用的 err 会被保留
func (s *SafeClose) SendCloseSignal(err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.signal)
	})
}

// CloseSignal 返回关闭信号通道
func (s *SafeClose) CloseSignal() <-chan struct{} {
	return s.signal
}

// WaitClosed 等待所有挂载的 goroutine 退出，返回触发关闭的错误
func (s *SafeClose) WaitClosed() error {
	<-s.signal
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
