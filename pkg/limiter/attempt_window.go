package limiter

import (
	"sync"
	"time"
)

// AttemptWindow 登录尝试计数器：每个 key 最多允许 max 次尝试
// 距离最后一次被允许的尝试超过 window 后重新计数
type AttemptWindow struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string]*attemptEntry
	now     func() time.Time
}

type attemptEntry struct {
	count int
	last  time.Time
}

func NewAttemptWindow(max int, window time.Duration) *AttemptWindow {
	return &AttemptWindow{
		max:     max,
		window:  window,
		entries: make(map[string]*attemptEntry),
		now:     time.Now,
	}
}

// Allow 记录一次尝试并返回是否仍在限额内，被拒绝的尝试不会延长窗口
func (w *AttemptWindow) Allow(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	e, ok := w.entries[key]
	if !ok || now.Sub(e.last) > w.window {
		w.entries[key] = &attemptEntry{count: 1, last: now}
		return true
	}
	if e.count >= w.max {
		return false
	}
	e.count++
	e.last = now
	return true
}

// Prune 清理已过期的记录
func (w *AttemptWindow) Prune() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	n := 0
	for k, e := range w.entries {
		if now.Sub(e.last) > w.window {
			delete(w.entries, k)
			n++
		}
	}
	return n
}

// Len 当前跟踪的 key 数量
func (w *AttemptWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}
