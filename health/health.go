// Package health 聚合各依赖的健康检查结果。
package health

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

const defaultTimeout = 2 * time.Second

// Checker 定义健康检查函数原型。
type Checker func(ctx context.Context) error

// Report 是一次健康检查的汇总结果。
type Report struct {
	Status string            `json:"status"` // ok 或 unavailable
	Checks map[string]string `json:"checks"`
}

// Healthy 报告所有检查项是否都通过。
func (r Report) Healthy() bool {
	return r.Status == "ok"
}

// Registry 保存命名的检查项，检查时并发执行。
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	timeout  time.Duration
}

// NewRegistry 创建检查注册表，timeout <= 0 时使用 2s。
func NewRegistry(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Registry{checkers: make(map[string]Checker), timeout: timeout}
}

// Register 注册或替换一个检查项。
func (r *Registry) Register(name string, c Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = c
}

// Names 返回已注册检查项名称，按字典序排列。
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.checkers))
	for name := range r.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check 并发执行所有检查项。
func (r *Registry) Check(ctx context.Context) Report {
	r.mu.RLock()
	checkers := make(map[string]Checker, len(r.checkers))
	for name, c := range r.checkers {
		checkers[name] = c
	}
	r.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		report = Report{Status: "ok", Checks: make(map[string]string, len(checkers))}
	)
	for name, c := range checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := c(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Status = "unavailable"
				report.Checks[name] = err.Error()
				return
			}
			report.Checks[name] = "ok"
		}()
	}
	wg.Wait()
	return report
}

// ReadyChecker 将布尔就绪状态转换为检查项。
func ReadyChecker(ready func() bool, reason string) Checker {
	return func(context.Context) error {
		if ready == nil || !ready() {
			return errors.New(reason)
		}
		return nil
	}
}
