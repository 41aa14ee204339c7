// Package retry 提供带抖动的指数退避重试，用于数据集读取等可能瞬时失败的 IO 操作.
package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// Policy 描述重试次数与退避曲线.
type Policy struct {
	MaxAttempts    int // 总尝试次数，<=1 表示不重试
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	Jitter         float64 // 0~1，按比例随机扰动下一次退避
}

// DefaultPolicy 读取远端数据集使用的默认策略.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		Multiplier:     2.0,
		Jitter:         0.1,
	}
}

// Do 执行 fn，直到成功、retryable 判定为不可重试、次数耗尽或 ctx 结束.
// retryable 为空时所有错误都重试.
func Do(ctx context.Context, p Policy, fn func(context.Context) error, retryable func(error) bool) error {
	attempts := max(p.MaxAttempts, 1)
	backoff := p.InitialBackoff

	var (
		err     error
		attempt int
	)
	for attempt = 1; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= attempts || (retryable != nil && !retryable(err)) {
			break
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}
		backoff = p.next(backoff)
	}

	if attempt == 1 {
		return err
	}
	return fmt.Errorf("after %d attempts: %w", attempt, err)
}

func (p Policy) next(cur time.Duration) time.Duration {
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	next := float64(cur) * mult
	if p.Jitter > 0 {
		next += (rand.Float64()*2 - 1) * p.Jitter * next
	}
	if p.MaxBackoff > 0 {
		return min(time.Duration(next), p.MaxBackoff)
	}
	return time.Duration(next)
}
