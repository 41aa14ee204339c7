package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// IndexMetrics 描述当前已发布索引的规模与查询情况。
type IndexMetrics struct {
	BuildDuration *prometheus.HistogramVec // 维度: strategy
	Rectangles    prometheus.Gauge
	Versions      prometheus.Gauge
	Nodes         prometheus.Gauge
	Queries       *prometheus.CounterVec // 维度: strategy, cache (hit|miss|off)
	QueryPoints   prometheus.Histogram   // 每次批量查询的点数
}

// NewIndexMetrics 在 m 的注册表上创建索引指标。
func NewIndexMetrics(m *Metrics) *IndexMetrics {
	return &IndexMetrics{
		BuildDuration: m.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rectindex_build_duration_seconds",
			Help:    "Time spent building a rectangle index",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"strategy"}),
		Rectangles: m.NewGauge(prometheus.GaugeOpts{
			Name: "rectindex_rectangles",
			Help: "Number of rectangles in the published index",
		}),
		Versions: m.NewGauge(prometheus.GaugeOpts{
			Name: "rectindex_versions",
			Help: "Number of persistent tree versions in the published index",
		}),
		Nodes: m.NewGauge(prometheus.GaugeOpts{
			Name: "rectindex_nodes",
			Help: "Number of persistent tree nodes in the published index",
		}),
		Queries: m.NewCounterVec(prometheus.CounterOpts{
			Name: "rectindex_queries_total",
			Help: "Total number of point queries",
		}, []string{"strategy", "cache"}),
		QueryPoints: m.NewHistogram(prometheus.HistogramOpts{
			Name:    "rectindex_query_points",
			Help:    "Number of points per batch query",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}

// ObserveBuild 记录一次构建的耗时与结果规模。versions、nodes 对非持久化策略为 0。
func (im *IndexMetrics) ObserveBuild(strategy string, d time.Duration, rects, versions, nodes int) {
	if im == nil {
		return
	}
	im.BuildDuration.WithLabelValues(strategy).Observe(d.Seconds())
	im.Rectangles.Set(float64(rects))
	im.Versions.Set(float64(versions))
	im.Nodes.Set(float64(nodes))
}

// ObserveQueries 累加查询次数。
func (im *IndexMetrics) ObserveQueries(strategy, cache string, n int) {
	if im == nil || n == 0 {
		return
	}
	im.Queries.WithLabelValues(strategy, cache).Add(float64(n))
}

// ObserveBatch 记录批量查询的点数。
func (im *IndexMetrics) ObserveBatch(points int) {
	if im == nil {
		return
	}
	im.QueryPoints.Observe(float64(points))
}
