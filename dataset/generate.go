package dataset

import (
	"math/rand/v2"

	"github.com/wyfcoding/rectcount/geometry"
)

// Random 生成 n 个落在 [0, span) 内的合法矩形，同一 seed 结果确定。
// 边长不超过 span/4 且至少为 1。
func Random(n, span int, seed uint64) []geometry.Rectangle {
	if n <= 0 {
		return nil
	}
	span = max(span, 2)
	rng := rand.New(rand.NewPCG(seed, uint64(n)))
	side := max(span/4, 1)
	rects := make([]geometry.Rectangle, n)
	for i := range rects {
		x1, y1 := rng.IntN(span-1), rng.IntN(span-1)
		x2 := min(x1+1+rng.IntN(side), span)
		y2 := min(y1+1+rng.IntN(side), span)
		rects[i] = geometry.Rect(x1, y1, x2, y2)
	}
	return rects
}

// RandomPoints 生成 n 个落在 [0, span) 内的查询点。
func RandomPoints(n, span int, seed uint64) []geometry.Point {
	if n <= 0 {
		return nil
	}
	span = max(span, 1)
	rng := rand.New(rand.NewPCG(seed, ^uint64(n)))
	points := make([]geometry.Point, n)
	for i := range points {
		points[i] = geometry.Pt(rng.IntN(span), rng.IntN(span))
	}
	return points
}

// Nested 生成 n 个同心正方形，第 i 个覆盖 [10i, 10(2n-i)) × [10i, 10(2n-i))。
// 靠近中心的点被全部 n 个矩形包含，适合作为压测的最坏输入。
func Nested(n int) []geometry.Rectangle {
	if n <= 0 {
		return nil
	}
	rects := make([]geometry.Rectangle, n)
	for i := range rects {
		lo, hi := 10*i, 10*(2*n-i)
		rects[i] = geometry.Rect(lo, lo, hi, hi)
	}
	return rects
}
