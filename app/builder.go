package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/rectcount/cache"
	"github.com/wyfcoding/rectcount/config"
	"github.com/wyfcoding/rectcount/dataset"
	"github.com/wyfcoding/rectcount/health"
	"github.com/wyfcoding/rectcount/limiter"
	"github.com/wyfcoding/rectcount/logging"
	"github.com/wyfcoding/rectcount/metrics"
	"github.com/wyfcoding/rectcount/middleware"
	"github.com/wyfcoding/rectcount/rectindex"
	"github.com/wyfcoding/rectcount/server"
	"github.com/wyfcoding/rectcount/service"
	"github.com/wyfcoding/rectcount/storage"
	"github.com/wyfcoding/rectcount/tracing"
)

// Builder 根据配置组装计数服务的全部组件。
type Builder struct {
	cfg      *config.Config
	version  string
	watch    bool
	cleanups []func() // 已启动资源的释放函数，按启动顺序记录
}

// NewBuilder 创建一个新的应用构建器。
func NewBuilder(cfg *config.Config, version string) *Builder {
	return &Builder{cfg: cfg, version: version}
}

// WithHotReload 注册配置热更新回调 (日志级别、限流、MinIO、索引)。
func (b *Builder) WithHotReload() *Builder {
	b.watch = true
	return b
}

// Components 是 Build 组装出的组件，便于测试直接访问。
type Components struct {
	Logger  *logging.Logger
	Service *service.QueryService
	Engine  *gin.Engine
	Metrics *metrics.Metrics
	Store   storage.Storage
}

// Build 组装组件并发布初始索引。初始索引构建失败时返回错误，
// 此前已启动的资源 (指标端口、缓存、追踪导出器) 会逆序释放。
func (b *Builder) Build(ctx context.Context) (_ *App, _ *Components, err error) {
	defer func() {
		if err != nil {
			b.release()
		}
	}()

	cfg := b.cfg
	logger := b.initLogger()
	comps := &Components{Logger: logger}

	b.initTracing(logger.Logger)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.NewMetrics(cfg.Server.Name)
		m.RegisterBuildInfo(cfg.Server.Name, b.version)
		if cfg.Metrics.Port != "" {
			b.addCleanup(m.ExposeHTTP(cfg.Metrics.Port, cfg.Metrics.Path))
		}
	}
	comps.Metrics = m

	store, err := b.initStorage()
	if err != nil {
		return nil, nil, err
	}
	comps.Store = store

	var countCache *cache.CountCache
	if cfg.Cache.Enabled {
		countCache, err = cache.NewCountCache(cfg.Cache.LifeWindow, cfg.Cache.MaxMB)
		if err != nil {
			return nil, nil, err
		}
		b.addCleanup(func() { _ = countCache.Close() })
	}

	strategyName := cfg.Index.Strategy
	if strategyName == "" {
		strategyName = string(rectindex.StrategyPersistent)
	}
	strategy, err := rectindex.ParseStrategy(strategyName)
	if err != nil {
		return nil, nil, err
	}
	var format dataset.Format
	if cfg.Index.Format != "" {
		if format, err = dataset.ParseFormat(cfg.Index.Format); err != nil {
			return nil, nil, err
		}
	}
	var indexMetrics *metrics.IndexMetrics
	if m != nil {
		indexMetrics = metrics.NewIndexMetrics(m)
	}

	svc := service.New(service.Options{
		Strategy:     strategy,
		Source:       cfg.Index.Source,
		Format:       format,
		BatchWorkers: cfg.Index.BatchWorkers,
		MaxBatch:     cfg.Index.MaxBatch,
		Store:        store,
		Cache:        countCache,
		Metrics:      indexMetrics,
		Logger:       logger.Logger,
	})
	if _, err := svc.Reload(ctx); err != nil {
		return nil, nil, fmt.Errorf("build initial index: %w", err)
	}
	comps.Service = svc

	checks := health.NewRegistry(0)
	checks.Register("index", health.ReadyChecker(svc.Ready, "index not ready"))
	if object, ok := strings.CutPrefix(cfg.Index.Source, dataset.ObjectScheme); ok {
		checks.Register("dataset_object", health.ObjectChecker(store, object))
	}

	rateLimiter := limiter.NewFromConfig(cfg.RateLimit)
	engine := b.newEngine(logger.Logger, m, rateLimiter, svc)
	server.RegisterRoutes(engine, server.NewHandler(svc, checks), server.RouterOptions{
		Metrics:      metricsOnMainPort(cfg, m),
		MetricsPath:  cfg.Metrics.Path,
		BatchLimiter: limiter.NewSemaphoreLimiter(cfg.RateLimit.MaxConcurrentBatches),
	})
	comps.Engine = engine

	if b.watch {
		service.RegisterReloadHook(svc)
		if rateLimiter != nil {
			limiter.RegisterReloadHook(rateLimiter)
		}
		if mc, ok := store.(*storage.MinIOClient); ok {
			storage.RegisterReloadHook(mc)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.HTTP.Addr, cfg.Server.HTTP.Port)
	httpServer := server.NewGinServer(engine, addr, logger.Logger, server.GinOptions{
		ReadTimeout:     cfg.Server.HTTP.ReadTimeout,
		WriteTimeout:    cfg.Server.HTTP.WriteTimeout,
		ShutdownTimeout: cfg.Server.HTTP.ShutdownTimeout,
	})
	opts := []Option{WithServer(httpServer), WithShutdownTimeout(2 * shutdownTimeout(cfg))}
	for _, fn := range b.cleanups {
		opts = append(opts, WithCleanup(fn))
	}
	b.cleanups = nil

	return New(cfg.Server.Name, logger.Logger, opts...), comps, nil
}

func (b *Builder) addCleanup(fn func()) {
	b.cleanups = append(b.cleanups, fn)
}

// release 逆序执行已登记的释放函数，用于构建失败时回滚。
func (b *Builder) release() {
	for i := len(b.cleanups) - 1; i >= 0; i-- {
		b.cleanups[i]()
	}
	b.cleanups = nil
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.HTTP.ShutdownTimeout > 0 {
		return cfg.Server.HTTP.ShutdownTimeout
	}
	return defaultShutdownTimeout
}

// metricsOnMainPort 未配置独立端口时，指标挂在业务端口上。
func metricsOnMainPort(cfg *config.Config, m *metrics.Metrics) *metrics.Metrics {
	if m == nil || cfg.Metrics.Port != "" {
		return nil
	}
	return m
}

func (b *Builder) initLogger() *logging.Logger {
	cfg := b.cfg
	return logging.Init(logging.Config{
		Service:    cfg.Server.Name,
		Module:     "server",
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		Console:    cfg.Server.Environment != "prod",
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
}

func (b *Builder) initTracing(logger *slog.Logger) {
	tc := b.cfg.Tracing
	if tc.ServiceName == "" {
		tc.ServiceName = b.cfg.Server.Name
	}
	shutdown, err := tracing.InitTracer(tc)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		return
	}
	b.addCleanup(func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", "error", err)
		}
	})
}

// initStorage 配置了 MinIO 时返回 MinIO 驱动，否则返回内存存储。
func (b *Builder) initStorage() (storage.Storage, error) {
	mc := b.cfg.Minio
	if mc.Endpoint == "" {
		return storage.NewMemoryStorage(), nil
	}
	client, err := storage.NewMinIOClient(mc)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (b *Builder) newEngine(logger *slog.Logger, m *metrics.Metrics, rl *limiter.LocalLimiter, svc *service.QueryService) *gin.Engine {
	if b.cfg.Server.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	mws := []gin.HandlerFunc{
		middleware.Recovery(logger),
		middleware.RequestID(),
	}
	if b.cfg.Tracing.Enabled {
		mws = append(mws, middleware.Tracing(b.cfg.Server.Name))
	}
	mws = append(mws,
		middleware.Logger(logger, "/healthz", b.cfg.Metrics.Path),
		middleware.HTTPMetrics(m, "/healthz", b.cfg.Metrics.Path),
		middleware.MaxBodyBytes(func() int64 { return maxBodyBytes(svc.MaxBatch()) }),
	)
	if rl != nil {
		mws = append(mws, middleware.RateLimit(rl))
	}
	mws = append(mws, middleware.HTTPErrorHandler())
	return server.NewDefaultGinEngine(mws...)
}

// maxBodyBytes 按批量上限估算请求体大小，每个点按 64 字节计。
// 上限随 index.max_batch 热更新。
func maxBodyBytes(maxBatch int) int64 {
	if maxBatch <= 0 {
		maxBatch = service.DefaultMaxBatch
	}
	return int64(maxBatch)*64 + 1024
}
