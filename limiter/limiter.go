// Package limiter 提供了 HTTP 接口使用的令牌桶限流器与并发信号量。
package limiter

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate" // 导入基于令牌桶算法的限流库。

	"github.com/wyfcoding/rectcount/config"
)

// Limiter 接口定义了限流器的通用行为。
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error) // 检查是否允许请求通过。
}

// LocalLimiter 是一个基于令牌桶算法的本地全局限流器，支持运行时调整速率。
type LocalLimiter struct {
	limiter *rate.Limiter // 底层的令牌桶限流器实例，自身并发安全。
}

// NewLocalLimiter 创建并返回一个新的 LocalLimiter 实例。
// r: 每秒生成的令牌数。b: 令牌桶的容量，即允许的瞬时突发请求数。
func NewLocalLimiter(r rate.Limit, b int) *LocalLimiter {
	return &LocalLimiter{
		limiter: rate.NewLimiter(r, b),
	}
}

// NewFromConfig 按配置创建限流器，未启用时返回 nil。
func NewFromConfig(cfg config.RateLimitConfig) *LocalLimiter {
	if !cfg.Enabled {
		return nil
	}
	return NewLocalLimiter(rate.Limit(cfg.Rate), cfg.Burst)
}

// Allow 尝试从令牌桶中获取一个令牌。key 未被使用，因为它是全局限流。
func (l *LocalLimiter) Allow(_ context.Context, _ string) (bool, error) {
	return l.limiter.Allow(), nil
}

// Update 调整速率与突发容量，已累积的令牌保持不变。
func (l *LocalLimiter) Update(r rate.Limit, b int) {
	l.limiter.SetLimit(r)
	l.limiter.SetBurst(b)
}

// RegisterReloadHook 在配置热更新时同步限流参数。
func RegisterReloadHook(l *LocalLimiter) {
	if l == nil {
		return
	}
	config.RegisterReloadHook(func(updated *config.Config) {
		if updated == nil {
			return
		}
		l.Update(rate.Limit(updated.RateLimit.Rate), updated.RateLimit.Burst)
		slog.Info("rate limiter updated", "rate", updated.RateLimit.Rate, "burst", updated.RateLimit.Burst)
	})
}
