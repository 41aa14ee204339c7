package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/rectcount/limiter"
	"github.com/wyfcoding/rectcount/response"
)

// ConcurrencyLimit 限制同时处理的请求数，超出上限时不排队，直接返回 503。
func ConcurrencyLimit(l *limiter.SemaphoreLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.TryAcquire() {
			slog.WarnContext(c.Request.Context(), "batch concurrency limit exceeded", "path", c.FullPath(), "in_use", l.InUse())
			response.ErrorWithStatus(c, http.StatusServiceUnavailable, "service busy", limiter.ErrConcurrencyLimit.Error())
			c.Abort()
			return
		}

		defer l.Release()
		c.Next()
	}
}
