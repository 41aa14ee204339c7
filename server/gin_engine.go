package server

import (
	"github.com/gin-gonic/gin" // 导入Gin Web框架。
)

// NewDefaultGinEngine 创建一个不带任何默认中间件的 Gin 引擎，
// 由调用方负责决定中间件顺序与集合。
func NewDefaultGinEngine(middlewares ...gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(middlewares...)
	return engine
}
