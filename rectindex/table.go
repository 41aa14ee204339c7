package rectindex

import (
	"github.com/wyfcoding/rectcount/algorithm"
	"github.com/wyfcoding/rectcount/geometry"
)

// StaticTable 离散化后的二维计数表：cells[i][j] 为覆盖格子 [xs[i], xs[i+1]) × [ys[j], ys[j+1]) 的矩形数。
// 构建 O(N + X·Y) (二维差分 + 前缀和)，查询 O(log N)，空间 O(X·Y)。
type StaticTable struct {
	xs    []int
	ys    []int
	cells [][]int
	count int
}

// NewStaticTable 校验矩形后构建计数表。
func NewStaticTable(rects []geometry.Rectangle) (*StaticTable, error) {
	if err := geometry.ValidateAll(rects); err != nil {
		return nil, err
	}

	xs := make([]int, 0, 2*len(rects))
	for _, r := range rects {
		xs = append(xs, r.LowerLeft.X, r.UpperRight.X)
	}
	xs = algorithm.CompressCoordinates(xs)
	ys := CompressY(rects)

	// 多留一行一列承接差分的右上角。
	cells := make([][]int, len(xs)+1)
	for i := range cells {
		cells[i] = make([]int, len(ys)+1)
	}
	for _, r := range rects {
		x1, _ := algorithm.IndexOf(xs, r.LowerLeft.X)
		x2, _ := algorithm.IndexOf(xs, r.UpperRight.X)
		y1, _ := algorithm.IndexOf(ys, r.LowerLeft.Y)
		y2, _ := algorithm.IndexOf(ys, r.UpperRight.Y)
		cells[x1][y1]++
		cells[x2][y1]--
		cells[x1][y2]--
		cells[x2][y2]++
	}
	for i := range cells {
		for j := range cells[i] {
			if i > 0 {
				cells[i][j] += cells[i-1][j]
			}
			if j > 0 {
				cells[i][j] += cells[i][j-1]
			}
			if i > 0 && j > 0 {
				cells[i][j] -= cells[i-1][j-1]
			}
		}
	}

	return &StaticTable{xs: xs, ys: ys, cells: cells, count: len(rects)}, nil
}

func (t *StaticTable) Count(p geometry.Point) int {
	if len(t.xs) == 0 {
		return 0
	}
	if p.X < t.xs[0] || p.X >= t.xs[len(t.xs)-1] || p.Y < t.ys[0] || p.Y >= t.ys[len(t.ys)-1] {
		return 0
	}
	i := algorithm.UpperBound(t.xs, p.X) - 1
	j := algorithm.UpperBound(t.ys, p.Y) - 1
	return t.cells[i][j]
}

func (t *StaticTable) Name() string {
	return string(StrategyTable)
}

func (t *StaticTable) Len() int {
	return t.count
}
