// Package service 持有当前发布的计数索引，负责构建、热切换与查询。
package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wyfcoding/rectcount/cache"
	"github.com/wyfcoding/rectcount/config"
	"github.com/wyfcoding/rectcount/dataset"
	"github.com/wyfcoding/rectcount/geometry"
	"github.com/wyfcoding/rectcount/metrics"
	"github.com/wyfcoding/rectcount/rectindex"
	"github.com/wyfcoding/rectcount/storage"
	"github.com/wyfcoding/rectcount/tracing"
	"github.com/wyfcoding/rectcount/xerrors"
)

// DefaultMaxBatch 单次批量查询允许的最大点数。
const DefaultMaxBatch = 10000

// Options 构造 QueryService 的参数。Cache、Metrics、Store 可以为空。
type Options struct {
	Strategy     rectindex.Strategy
	Source       string // 本地路径或 minio://<object>
	Format       dataset.Format
	BatchWorkers int
	MaxBatch     int
	Store        storage.Storage
	Cache        *cache.CountCache
	Metrics      *metrics.IndexMetrics
	Logger       *slog.Logger
}

// IndexInfo 描述已发布索引的概况。
type IndexInfo struct {
	Strategy      string              `json:"strategy"`
	Source        string              `json:"source,omitempty"`
	Rectangles    int                 `json:"rectangles"`
	Versions      int                 `json:"versions"`
	Nodes         int                 `json:"nodes"`
	Bounds        *geometry.Rectangle `json:"bounds,omitempty"` // 仅持久化索引且非空时给出。
	Generation    uint64              `json:"generation"`
	BuiltAt       time.Time           `json:"built_at"`
	BuildDuration string              `json:"build_duration"`
}

type snapshot struct {
	counter rectindex.Counter
	info    IndexInfo
}

// persistentStats 由持久化线段树索引实现。
type persistentStats interface {
	Versions() int
	Nodes() int
	Bounds() (geometry.Rectangle, bool)
}

// QueryService 并发安全：查询无锁读取当前快照，重建在旁路完成后原子替换指针，
// 读者只会看到旧索引或新索引。
type QueryService struct {
	buildMu    sync.Mutex   // 串行化重建
	mu         sync.RWMutex // 保护 opts 中可热更新的字段
	opts       Options
	current    atomic.Pointer[snapshot]
	generation atomic.Uint64
	cache      *cache.CountCache
	metrics    *metrics.IndexMetrics
	logger     *slog.Logger
}

// New 创建尚未发布索引的服务，查询前需要调用 Build 或 Reload。
func New(opts Options) *QueryService {
	if opts.Strategy == "" {
		opts.Strategy = rectindex.StrategyPersistent
	}
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = DefaultMaxBatch
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryService{
		opts:    opts,
		cache:   opts.Cache,
		metrics: opts.Metrics,
		logger:  logger.With("component", "query_service"),
	}
}

// Build 使用给定的矩形集合构建索引并发布。
func (s *QueryService) Build(ctx context.Context, rects []geometry.Rectangle) (IndexInfo, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	return s.build(ctx, rects, "", s.options().Strategy)
}

func (s *QueryService) options() Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts
}

// Reload 从配置的数据源重新读取矩形并发布新索引。失败时保留旧索引继续服务。
func (s *QueryService) Reload(ctx context.Context) (IndexInfo, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	ctx, span := tracing.StartSpan(ctx, "rectindex.reload")
	defer span.End()

	opts := s.options()
	if opts.Source == "" {
		err := xerrors.ErrSourceUnavailable.Derive("no dataset source configured")
		tracing.SetError(ctx, err)
		return IndexInfo{}, err
	}
	tracing.AddTag(ctx, "source", opts.Source)

	src := dataset.ParseSource(opts.Source, opts.Store)
	rects, err := dataset.Load(ctx, src, opts.Format)
	if err != nil {
		tracing.SetError(ctx, err)
		s.logger.ErrorContext(ctx, "index reload failed, keeping previous index", "source", src.Name(), "error", err)
		return IndexInfo{}, err
	}
	return s.build(ctx, rects, src.Name(), opts.Strategy)
}

// build 调用方必须持有 buildMu。
func (s *QueryService) build(ctx context.Context, rects []geometry.Rectangle, source string, strategy rectindex.Strategy) (IndexInfo, error) {
	ctx, span := tracing.StartSpan(ctx, "rectindex.build")
	defer span.End()
	tracing.AddTag(ctx, "strategy", string(strategy))
	tracing.AddTag(ctx, "rectangles", len(rects))

	start := time.Now()
	counter, err := rectindex.New(strategy, rects)
	if err != nil {
		tracing.SetError(ctx, err)
		return IndexInfo{}, err
	}
	elapsed := time.Since(start)

	info := IndexInfo{
		Strategy:      counter.Name(),
		Source:        source,
		Rectangles:    counter.Len(),
		Generation:    s.generation.Add(1),
		BuiltAt:       time.Now(),
		BuildDuration: elapsed.String(),
	}
	if ps, ok := counter.(persistentStats); ok {
		info.Versions = ps.Versions()
		info.Nodes = ps.Nodes()
		if b, ok := ps.Bounds(); ok {
			info.Bounds = &b
		}
	}

	s.current.Store(&snapshot{counter: counter, info: info})
	if s.cache != nil {
		if err := s.cache.Reset(); err != nil {
			s.logger.WarnContext(ctx, "count cache reset failed", "error", err)
		}
	}
	s.metrics.ObserveBuild(info.Strategy, elapsed, info.Rectangles, info.Versions, info.Nodes)

	s.logger.InfoContext(ctx, "index published",
		"strategy", info.Strategy,
		"rectangles", info.Rectangles,
		"versions", info.Versions,
		"nodes", info.Nodes,
		"generation", info.Generation,
		"duration", elapsed,
	)
	return info, nil
}

func (s *QueryService) load() (*snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, xerrors.ErrIndexNotReady.Derive("no index has been published yet")
	}
	return snap, nil
}

// Ready 报告是否已有索引发布。
func (s *QueryService) Ready() bool {
	return s.current.Load() != nil
}

// Info 返回当前索引概况。
func (s *QueryService) Info() (IndexInfo, error) {
	snap, err := s.load()
	if err != nil {
		return IndexInfo{}, err
	}
	return snap.info, nil
}

// MaxBatch 返回当前生效的批量上限，配置热更新后立即变化。
func (s *QueryService) MaxBatch() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts.MaxBatch
}

// Count 返回包含点 p 的矩形个数。
func (s *QueryService) Count(ctx context.Context, p geometry.Point) (int, error) {
	snap, err := s.load()
	if err != nil {
		return 0, err
	}
	strategy := snap.info.Strategy
	c := s.cache
	if c == nil {
		s.metrics.ObserveQueries(strategy, "off", 1)
		return snap.counter.Count(p), nil
	}

	gen := snap.info.Generation
	if n, ok := c.Get(gen, p); ok {
		s.metrics.ObserveQueries(strategy, "hit", 1)
		return n, nil
	}
	n := snap.counter.Count(p)
	if err := c.Set(gen, p, n); err != nil {
		s.logger.DebugContext(ctx, "count cache set failed", "point", p.String(), "error", err)
	}
	s.metrics.ObserveQueries(strategy, "miss", 1)
	return n, nil
}

// CountBatch 并发查询一组点，结果顺序与输入一致。
// 点集为空或超过上限时返回 InvalidArg 错误。
func (s *QueryService) CountBatch(ctx context.Context, points []geometry.Point) ([]int, error) {
	s.mu.RLock()
	maxBatch, workers := s.opts.MaxBatch, s.opts.BatchWorkers
	s.mu.RUnlock()

	if len(points) == 0 {
		return nil, xerrors.ErrEmptyBatch.Derive("batch must contain at least one point")
	}
	if len(points) > maxBatch {
		return nil, xerrors.ErrBatchTooLarge.Derive("%d points exceeds limit %d", len(points), maxBatch)
	}
	snap, err := s.load()
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "rectindex.count_batch")
	defer span.End()
	tracing.AddTag(ctx, "points", len(points))
	s.metrics.ObserveBatch(len(points))

	strategy := snap.info.Strategy
	c := s.cache
	if c == nil {
		counts, err := rectindex.CountBatch(ctx, snap.counter, points, workers)
		if err != nil {
			tracing.SetError(ctx, err)
			return nil, err
		}
		s.metrics.ObserveQueries(strategy, "off", len(points))
		return counts, nil
	}

	gen := snap.info.Generation
	counts := make([]int, len(points))
	var (
		missIdx    []int
		missPoints []geometry.Point
	)
	for i, p := range points {
		if n, ok := c.Get(gen, p); ok {
			counts[i] = n
			continue
		}
		missIdx = append(missIdx, i)
		missPoints = append(missPoints, p)
	}

	computed, err := rectindex.CountBatch(ctx, snap.counter, missPoints, workers)
	if err != nil {
		tracing.SetError(ctx, err)
		return nil, err
	}
	for j, i := range missIdx {
		counts[i] = computed[j]
		if err := c.Set(gen, missPoints[j], computed[j]); err != nil {
			s.logger.DebugContext(ctx, "count cache set failed", "error", err)
		}
	}
	s.metrics.ObserveQueries(strategy, "hit", len(points)-len(missIdx))
	s.metrics.ObserveQueries(strategy, "miss", len(missIdx))
	return counts, nil
}

// UpdateConfig 应用新的索引配置。策略或数据源变化时重新构建索引。
func (s *QueryService) UpdateConfig(ctx context.Context, cfg config.IndexConfig) error {
	strategy := rectindex.StrategyPersistent
	if cfg.Strategy != "" {
		parsed, err := rectindex.ParseStrategy(cfg.Strategy)
		if err != nil {
			return err
		}
		strategy = parsed
	}
	var err error
	var format dataset.Format
	if cfg.Format != "" {
		if format, err = dataset.ParseFormat(cfg.Format); err != nil {
			return err
		}
	}

	s.mu.Lock()
	changed := strategy != s.opts.Strategy || cfg.Source != s.opts.Source || format != s.opts.Format
	s.opts.Strategy = strategy
	s.opts.Source = cfg.Source
	s.opts.Format = format
	s.opts.BatchWorkers = cfg.BatchWorkers
	if cfg.MaxBatch > 0 {
		s.opts.MaxBatch = cfg.MaxBatch
	}
	s.mu.Unlock()

	if !changed {
		return nil
	}
	_, err = s.Reload(ctx)
	return err
}

// RegisterReloadHook 在配置热更新时同步索引配置。
func RegisterReloadHook(s *QueryService) {
	if s == nil {
		return
	}
	config.RegisterReloadHook(func(updated *config.Config) {
		if updated == nil {
			return
		}
		if err := s.UpdateConfig(context.Background(), updated.Index); err != nil {
			s.logger.Error("index config reload failed", "error", err)
		}
	})
}
