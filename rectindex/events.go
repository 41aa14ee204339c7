package rectindex

import (
	"cmp"
	"slices"

	"github.com/wyfcoding/rectcount/algorithm"
	"github.com/wyfcoding/rectcount/geometry"
)

// Event 扫描线事件：在 X 处对 y 区间 [YLow, YHigh) 施加 Delta (+1 进入，-1 离开)。
type Event struct {
	X     int
	YLow  int
	YHigh int
	Delta int
}

// BuildEvents 为每个矩形生成进入与离开两个事件，按 X 升序稳定排序；
// X 相同时离开事件排在进入事件之前，与点的半开区间语义一致。
// 同时返回所有 x 边界的升序序列 (不去重，长度为矩形数的两倍)，作为版本选择的键。
func BuildEvents(rects []geometry.Rectangle) ([]Event, []int) {
	events := make([]Event, 0, 2*len(rects))
	xs := make([]int, 0, 2*len(rects))
	for _, r := range rects {
		events = append(events,
			Event{X: r.LowerLeft.X, YLow: r.LowerLeft.Y, YHigh: r.UpperRight.Y, Delta: 1},
			Event{X: r.UpperRight.X, YLow: r.LowerLeft.Y, YHigh: r.UpperRight.Y, Delta: -1},
		)
		xs = append(xs, r.LowerLeft.X, r.UpperRight.X)
	}
	slices.SortStableFunc(events, func(a, b Event) int {
		if c := cmp.Compare(a.X, b.X); c != 0 {
			return c
		}
		return cmp.Compare(a.Delta, b.Delta)
	})
	slices.Sort(xs)
	return events, xs
}

// CompressY 收集所有矩形的上下边界并离散化。
func CompressY(rects []geometry.Rectangle) []int {
	ys := make([]int, 0, 2*len(rects))
	for _, r := range rects {
		ys = append(ys, r.LowerLeft.Y, r.UpperRight.Y)
	}
	return algorithm.CompressCoordinates(ys)
}
