package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/rectcount/limiter"
	"github.com/wyfcoding/rectcount/response"
	"github.com/wyfcoding/rectcount/xerrors"
)

// RateLimit 构造一个 Gin 限流中间件，以客户端 IP 作为限流标识。
// l 为 nil 时不做限制。
func RateLimit(l limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		key := c.ClientIP()

		allowed, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			// 限流组件故障时放行，但必须记录告警日志。
			slog.ErrorContext(c.Request.Context(), "rate limiter internal error, fail-open applied", "key", key, "error", err)
			c.Next()
			return
		}

		if !allowed {
			slog.WarnContext(c.Request.Context(), "request rejected by rate limiter", "key", key, "path", c.Request.URL.Path)
			response.Error(c, xerrors.ErrRateLimited.Derive("client %s", key))
			c.Abort()
			return
		}

		c.Next()
	}
}
