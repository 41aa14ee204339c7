package server

import (
	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/rectcount/limiter"
	"github.com/wyfcoding/rectcount/metrics"
	"github.com/wyfcoding/rectcount/middleware"
)

// RouterOptions 控制可选路由。
type RouterOptions struct {
	Metrics      *metrics.Metrics // 非空时在 MetricsPath 暴露指标
	MetricsPath  string
	BatchLimiter *limiter.SemaphoreLimiter // 限制同时执行的批量查询
}

// RegisterRoutes 注册计数服务的全部路由。
func RegisterRoutes(engine *gin.Engine, h *Handler, opts RouterOptions) {
	engine.GET("/healthz", h.Health)
	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		engine.GET(path, gin.WrapH(opts.Metrics.Handler()))
	}

	v1 := engine.Group("/v1")
	v1.GET("/count", h.Count)
	v1.POST("/count/batch", middleware.ConcurrencyLimit(opts.BatchLimiter), h.CountBatch)
	v1.GET("/index", h.Info)
	v1.POST("/index/reload", h.Reload)
}
