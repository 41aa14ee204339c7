package algorithm

// PSTNode 主席树节点。
// 节点一旦追加进 nodes 就不再修改，多个版本可以共享同一个节点。
type PSTNode struct {
	Value int // 该节点区间上累计的增量 (懒标记，不下推)。
	L, R  int // 左右子节点索引，0 表示空。
}

// PersistentSegmentTree 可持久化线段树 (主席树)，支持区间加、单点求和。
// 每次 Add 基于最新版本产生一个新版本，只复制 O(log N) 个节点，其余子树与旧版本共享。
// 构建完成后所有读操作均不修改结构，可被任意多个 goroutine 并发调用。
type PersistentSegmentTree struct {
	roots []int     // 每个版本的根节点索引。
	nodes []PSTNode // 静态数组模拟动态节点，0 号节点作为空节点。
	n     int       // 叶子个数，覆盖区间 [0, n)。
}

// NewPersistentSegmentTree 基于叶子初值构建版本 0。
// 区间按 [l, mid) 与 [mid, r) 二分，长度为 0 或 1 时停止。
func NewPersistentSegmentTree(values []int) *PersistentSegmentTree {
	n := len(values)
	t := &PersistentSegmentTree{
		roots: make([]int, 0, 1),
		nodes: make([]PSTNode, 1, 2*n+2),
		n:     n,
	}
	t.roots = append(t.roots, t.build(values, 0, n))
	return t
}

// build 递归构建 [l, r) 区间，返回节点索引。
func (t *PersistentSegmentTree) build(values []int, l, r int) int {
	if r-l <= 1 {
		node := PSTNode{}
		if r-l == 1 {
			node.Value = values[l]
		}
		return t.alloc(node)
	}
	mid := (l + r) >> 1
	left := t.build(values, l, mid)
	right := t.build(values, mid, r)
	return t.alloc(PSTNode{L: left, R: right})
}

func (t *PersistentSegmentTree) alloc(node PSTNode) int {
	t.nodes = append(t.nodes, node)
	return len(t.nodes) - 1
}

// Add 在最新版本上对叶子区间 [lo, hi) 加上 delta，产生新版本并返回其版本号。
// lo >= hi 时不分配任何节点，新版本直接复用上一版本的根。
func (t *PersistentSegmentTree) Add(delta, lo, hi int) int {
	prev := t.roots[len(t.roots)-1]
	root := prev
	if lo < hi {
		root = t.add(prev, 0, t.n, delta, lo, hi)
	}
	t.roots = append(t.roots, root)
	return len(t.roots) - 1
}

// add 返回更新后的节点索引；未受影响的节点原样返回以便共享。
func (t *PersistentSegmentTree) add(idx, l, r, delta, lo, hi int) int {
	cur := t.nodes[idx]
	// 完全覆盖：只复制当前节点并累加增量，子节点原样共享。
	if lo <= l && r <= hi {
		cur.Value += delta
		return t.alloc(cur)
	}
	// 不相交，或是未被完全覆盖的单个叶子。
	if hi <= l || r <= lo || r-l <= 1 {
		return idx
	}
	mid := (l + r) >> 1
	left := t.add(cur.L, l, mid, delta, lo, hi)
	right := t.add(cur.R, mid, r, delta, lo, hi)
	return t.alloc(PSTNode{Value: cur.Value, L: left, R: right})
}

// GetSum 查询版本 version 中第 index 个叶子的取值，即根到叶路径上所有节点值之和。
// 版本或叶子越界时返回 0。
func (t *PersistentSegmentTree) GetSum(index, version int) int {
	if version < 0 || version >= len(t.roots) || index < 0 || index >= t.n {
		return 0
	}
	idx := t.roots[version]
	sum, l, r := 0, 0, t.n
	for idx != 0 {
		node := &t.nodes[idx]
		sum += node.Value
		mid := (l + r) >> 1
		if index < mid {
			idx, r = node.L, mid
		} else {
			idx, l = node.R, mid
		}
	}
	return sum
}

// Root 返回版本 version 的根节点索引，版本不存在时返回 0。
func (t *PersistentSegmentTree) Root(version int) int {
	if version < 0 || version >= len(t.roots) {
		return 0
	}
	return t.roots[version]
}

// Node 返回指定索引的节点副本。
func (t *PersistentSegmentTree) Node(idx int) PSTNode {
	return t.nodes[idx]
}

// Versions 返回版本总数 (包括版本 0)。
func (t *PersistentSegmentTree) Versions() int {
	return len(t.roots)
}

// CurrentVersion 获取当前最新版本号。
func (t *PersistentSegmentTree) CurrentVersion() int {
	return len(t.roots) - 1
}

// NodeCount 返回已分配的节点数 (不含 0 号空节点)。
func (t *PersistentSegmentTree) NodeCount() int {
	return len(t.nodes) - 1
}

// Leaves 返回叶子个数。
func (t *PersistentSegmentTree) Leaves() int {
	return t.n
}
