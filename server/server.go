package server

import "context"

// Server 接口定义了一个通用的服务器行为契约。
type Server interface {
	// Start 启动服务器并阻塞，直到 ctx 被取消 (此时执行优雅关闭) 或服务器出错。
	Start(ctx context.Context) error
	// Stop 优雅地停止服务器，等待正在处理的请求完成。
	Stop(ctx context.Context) error
}
