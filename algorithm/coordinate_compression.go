package algorithm

import (
	"slices"
	"sort"
)

// CompressCoordinates 坐标离散化：返回去重后的升序坐标序列，不修改输入。
// 结构规模由不同坐标的个数决定，而不是坐标的数值范围。
func CompressCoordinates(values []int) []int {
	if len(values) == 0 {
		return []int{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}

// UpperBound 返回升序序列中小于等于 v 的元素个数 (即第一个大于 v 的位置)。
func UpperBound(sorted []int, v int) int {
	return sort.Search(len(sorted), func(i int) bool { return sorted[i] > v })
}

// IndexOf 返回 v 在去重升序序列中的下标；v 不存在时 ok 为 false。
func IndexOf(sorted []int, v int) (idx int, ok bool) {
	return slices.BinarySearch(sorted, v)
}
