package limiter

import (
	"errors"
	"log/slog"
)

// ErrConcurrencyLimit 表示并发上限已触发。
var ErrConcurrencyLimit = errors.New("concurrency limit exceeded")

// SemaphoreLimiter 使用带缓冲的信号量限制同时执行的批量查询数。
// nil 或 max <= 0 创建的实例不做限制。
type SemaphoreLimiter struct {
	sem chan struct{}
}

// NewSemaphoreLimiter 创建一个并发信号量限流器。
func NewSemaphoreLimiter(max int) *SemaphoreLimiter {
	if max <= 0 {
		return &SemaphoreLimiter{}
	}
	return &SemaphoreLimiter{sem: make(chan struct{}, max)}
}

func (l *SemaphoreLimiter) disabled() bool {
	return l == nil || l.sem == nil
}

// TryAcquire 尝试获取一个并发令牌，快速失败。
func (l *SemaphoreLimiter) TryAcquire() bool {
	if l.disabled() {
		return true
	}
	select {
	case l.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release 释放一个并发令牌。
func (l *SemaphoreLimiter) Release() {
	if l.disabled() {
		return
	}
	select {
	case <-l.sem:
	default:
		slog.Warn("concurrency limiter release without acquire")
	}
}

// InUse 返回当前占用的令牌数。
func (l *SemaphoreLimiter) InUse() int {
	if l.disabled() {
		return 0
	}
	return len(l.sem)
}
