package middleware

import (
	"log/slog"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

const (
	HeaderXRequestID = "X-Request-ID"
	requestIDKey     = "request_id"
)

var (
	nodeOnce sync.Once
	node     *snowflake.Node
)

func idNode() *snowflake.Node {
	nodeOnce.Do(func() {
		n, err := snowflake.NewNode(1)
		if err != nil {
			slog.Error("failed to create snowflake node", "error", err)
			return
		}
		node = n
	})
	return node
}

// RequestID 返回一个用于生成或传递请求 ID 的 Gin 中间件。
// 请求头中没有 X-Request-ID 时使用雪花算法生成。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderXRequestID)
		if requestID == "" {
			if n := idNode(); n != nil {
				requestID = n.Generate().String()
			}
		}

		c.Set(requestIDKey, requestID)
		c.Header(HeaderXRequestID, requestID)

		c.Next()
	}
}

// GetRequestID 返回当前请求的 ID。
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
