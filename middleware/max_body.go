package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/rectcount/response"
)

// MaxBodyBytes 返回一个限制请求体大小的 Gin 中间件，上限 <= 0 时不生效。
// 每个请求重新调用 limit，上限可以随配置热更新。
// 先按 Content-Length 快速拒绝，再用 MaxBytesReader 兜住分块传输的请求体。
func MaxBodyBytes(limit func() int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		n := limit()
		if n <= 0 {
			c.Next()
			return
		}

		if c.Request.ContentLength > n {
			response.ErrorWithStatus(c, http.StatusRequestEntityTooLarge, "request body too large", fmt.Sprintf("content length %d exceeds %d bytes", c.Request.ContentLength, n))
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
