// Package middleware 提供了 HTTP 服务使用的 Gin 中间件。
package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/rectcount/response"
)

// Recovery 捕获处理链中的 panic，记录堆栈与请求 ID 后返回 500，进程继续服务。
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.ErrorContext(c.Request.Context(), "panic recovered",
					"error", err,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"query", c.Request.URL.RawQuery,
					"request_id", GetRequestID(c),
					"stack", string(debug.Stack()),
				)

				response.ErrorWithStatus(c, http.StatusInternalServerError, "internal server error", "request "+GetRequestID(c)+" failed unexpectedly")
				c.Abort()
			}
		}()
		c.Next()
	}
}
