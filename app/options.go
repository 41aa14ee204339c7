package app

import (
	"time"

	"github.com/wyfcoding/rectcount/server" // 导入服务器接口定义
)

// Option 是一个函数类型，用于配置应用程序选项。
type Option func(*options)

type options struct {
	servers         []server.Server // 应用程序管理的服务器列表
	cleanups        []func()        // 关闭时需要执行的清理函数，逆序执行
	shutdownTimeout time.Duration
}

// WithServer 添加一个或多个 `server.Server` 实例，它们随应用启动并在关闭时被优雅停止。
func WithServer(servers ...server.Server) Option {
	return func(o *options) {
		o.servers = append(o.servers, servers...)
	}
}

// WithCleanup 添加一个清理函数，用于在应用程序关闭时释放资源。
func WithCleanup(cleanup func()) Option {
	return func(o *options) {
		if cleanup != nil {
			o.cleanups = append(o.cleanups, cleanup)
		}
	}
}

// WithShutdownTimeout 设置停止全部服务器的总超时，默认 10s。
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		o.shutdownTimeout = d
	}
}
