package rectindex

import (
	"github.com/wyfcoding/rectcount/algorithm"
	"github.com/wyfcoding/rectcount/geometry"
)

// PersistentIndex 基于扫描线与可持久化线段树的离线计数索引。
// 版本 k 表示按 x 排序后前 k 个事件生效时 y 方向各桶被多少矩形覆盖；
// 查询时按 x 选版本、按 y 选桶，再沿根到叶路径求和。
type PersistentIndex struct {
	tree  *algorithm.PersistentSegmentTree
	xs    []int // 未去重的 x 边界，升序。
	ys    []int // 离散化后的 y 边界，升序。
	count int

	bounds    geometry.Rectangle
	hasBounds bool
}

// NewPersistentIndex 校验矩形后构建索引。构建在当前 goroutine 内一次完成，
// 返回后索引只读，可被并发查询。
func NewPersistentIndex(rects []geometry.Rectangle) (*PersistentIndex, error) {
	if err := geometry.ValidateAll(rects); err != nil {
		return nil, err
	}

	ys := CompressY(rects)
	events, xs := BuildEvents(rects)
	tree := algorithm.NewPersistentSegmentTree(make([]int, len(ys)))
	for _, e := range events {
		lo, _ := algorithm.IndexOf(ys, e.YLow)
		hi, _ := algorithm.IndexOf(ys, e.YHigh)
		tree.Add(e.Delta, lo, hi)
	}

	bounds, ok := geometry.Bounds(rects)
	return &PersistentIndex{
		tree:      tree,
		xs:        xs,
		ys:        ys,
		count:     len(rects),
		bounds:    bounds,
		hasBounds: ok,
	}, nil
}

// Count 返回包含点 p 的矩形个数。
func (idx *PersistentIndex) Count(p geometry.Point) int {
	version := algorithm.UpperBound(idx.xs, p.X)
	if version == 0 || version >= idx.tree.Versions() {
		return 0
	}
	if len(idx.ys) == 0 || p.Y < idx.ys[0] || p.Y >= idx.ys[len(idx.ys)-1] {
		return 0
	}
	bucket := algorithm.UpperBound(idx.ys, p.Y) - 1
	return idx.tree.GetSum(bucket, version)
}

func (idx *PersistentIndex) Name() string {
	return string(StrategyPersistent)
}

// Len 返回矩形个数。
func (idx *PersistentIndex) Len() int {
	return idx.count
}

// Versions 返回树的版本个数，恒为 2*Len()+1。
func (idx *PersistentIndex) Versions() int {
	return idx.tree.Versions()
}

// Nodes 返回所有版本共享的节点总数。
func (idx *PersistentIndex) Nodes() int {
	return idx.tree.NodeCount()
}

// Buckets 返回 y 方向离散化后的边界个数。
func (idx *PersistentIndex) Buckets() int {
	return len(idx.ys)
}

// Bounds 返回全部矩形的外包矩形，索引为空时 ok 为 false。
// 外包矩形之外的点计数恒为 0。
func (idx *PersistentIndex) Bounds() (geometry.Rectangle, bool) {
	return idx.bounds, idx.hasBounds
}
