package rectindex

import (
	"slices"

	"github.com/wyfcoding/rectcount/geometry"
)

// CountLinear 逐个检查矩形，返回包含点 p 的矩形个数。O(N)，无需预处理。
func CountLinear(rects []geometry.Rectangle, p geometry.Point) int {
	count := 0
	for _, r := range rects {
		if r.Contains(p) {
			count++
		}
	}
	return count
}

// LinearScan 持有矩形副本的线性扫描计数器。
type LinearScan struct {
	rects []geometry.Rectangle
}

// NewLinearScan 校验并复制矩形集合。
func NewLinearScan(rects []geometry.Rectangle) (*LinearScan, error) {
	if err := geometry.ValidateAll(rects); err != nil {
		return nil, err
	}
	return &LinearScan{rects: slices.Clone(rects)}, nil
}

func (s *LinearScan) Count(p geometry.Point) int {
	return CountLinear(s.rects, p)
}

func (s *LinearScan) Name() string {
	return string(StrategyLinear)
}

func (s *LinearScan) Len() int {
	return len(s.rects)
}
