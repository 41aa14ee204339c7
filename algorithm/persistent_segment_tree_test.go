package algorithm

import (
	"math/bits"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistentSegmentTreeBuild(t *testing.T) {
	tree := NewPersistentSegmentTree([]int{3, 1, 4, 1, 5})

	require.Equal(t, 1, tree.Versions())
	assert.Equal(t, 5, tree.Leaves())
	for i, want := range []int{3, 1, 4, 1, 5} {
		assert.Equal(t, want, tree.GetSum(i, 0), "leaf %d", i)
	}
	// 5 个叶子的平衡二叉树共 9 个节点。
	assert.Equal(t, 9, tree.NodeCount())
}

func TestPersistentSegmentTreeEmpty(t *testing.T) {
	tree := NewPersistentSegmentTree(nil)

	assert.Equal(t, 0, tree.Leaves())
	assert.Equal(t, 1, tree.NodeCount())
	assert.Equal(t, 0, tree.GetSum(0, 0))
	assert.Equal(t, 0, tree.GetSum(0, 5))
}

func TestPersistentSegmentTreeAddKeepsHistory(t *testing.T) {
	tree := NewPersistentSegmentTree(make([]int, 8))

	v1 := tree.Add(1, 2, 6)
	v2 := tree.Add(2, 0, 3)
	v3 := tree.Add(-1, 2, 6)

	require.Equal(t, []int{1, 2, 3}, []int{v1, v2, v3})
	require.Equal(t, 4, tree.Versions())
	assert.Equal(t, 3, tree.CurrentVersion())

	expect := [][]int{
		{0, 0, 0, 0, 0, 0, 0, 0},
		{0, 0, 1, 1, 1, 1, 0, 0},
		{2, 2, 3, 1, 1, 1, 0, 0},
		{2, 2, 2, 0, 0, 0, 0, 0},
	}
	for v, leaves := range expect {
		for i, want := range leaves {
			assert.Equal(t, want, tree.GetSum(i, v), "version %d leaf %d", v, i)
		}
	}
}

func TestPersistentSegmentTreeLeafOutOfRange(t *testing.T) {
	tree := NewPersistentSegmentTree(make([]int, 4))
	v := tree.Add(7, 0, 1)

	assert.Equal(t, 7, tree.GetSum(0, v))
	assert.Zero(t, tree.GetSum(-1, v))
	assert.Zero(t, tree.GetSum(4, v))
	assert.Zero(t, tree.GetSum(100, v))
}

func TestPersistentSegmentTreeEmptyRangeSharesRoot(t *testing.T) {
	tree := NewPersistentSegmentTree(make([]int, 4))
	before := tree.NodeCount()

	v := tree.Add(5, 3, 3)
	tree.Add(5, 3, 1)

	assert.Equal(t, 3, tree.Versions())
	assert.Equal(t, before, tree.NodeCount())
	assert.Equal(t, tree.Root(0), tree.Root(v))
	for i := 0; i < 4; i++ {
		assert.Zero(t, tree.GetSum(i, v))
	}
}

func TestPersistentSegmentTreeStructuralSharing(t *testing.T) {
	const n = 16
	tree := NewPersistentSegmentTree(make([]int, n))

	// 只修改左半区间，右子树应与旧版本是同一个节点。
	v := tree.Add(1, 1, 5)
	oldRoot := tree.Node(tree.Root(v - 1))
	newRoot := tree.Node(tree.Root(v))

	assert.NotEqual(t, tree.Root(v-1), tree.Root(v))
	assert.Equal(t, oldRoot.R, newRoot.R)
	assert.NotEqual(t, oldRoot.L, newRoot.L)

	// 完全覆盖的节点只复制自身，子节点仍是旧节点。
	v = tree.Add(1, 0, n)
	assert.Equal(t, tree.Node(tree.Root(v-1)).L, tree.Node(tree.Root(v)).L)
	assert.Equal(t, tree.Node(tree.Root(v-1)).R, tree.Node(tree.Root(v)).R)
	assert.Equal(t, 1, tree.Node(tree.Root(v)).Value)
}

func TestPersistentSegmentTreeLogarithmicGrowth(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for _, n := range []int{1, 2, 3, 17, 100, 1000, 4096} {
		tree := NewPersistentSegmentTree(make([]int, n))
		depth := bits.Len(uint(n)) + 1
		for i := 0; i < 200; i++ {
			lo := rng.IntN(n)
			hi := lo + 1 + rng.IntN(n-lo)
			before := tree.NodeCount()
			tree.Add(1, lo, hi)
			allocated := tree.NodeCount() - before
			assert.LessOrEqual(t, allocated, 4*depth, "n=%d range [%d,%d)", n, lo, hi)
			assert.Positive(t, allocated)
		}
	}
}

func TestPersistentSegmentTreeMatchesNaive(t *testing.T) {
	const n = 37
	rng := rand.New(rand.NewPCG(1, 2))
	tree := NewPersistentSegmentTree(make([]int, n))
	history := [][]int{make([]int, n)}

	for i := 0; i < 300; i++ {
		lo := rng.IntN(n)
		hi := lo + rng.IntN(n-lo+1)
		delta := rng.IntN(7) - 3
		tree.Add(delta, lo, hi)

		next := append([]int(nil), history[len(history)-1]...)
		for j := lo; j < hi; j++ {
			next[j] += delta
		}
		history = append(history, next)
	}

	for v, leaves := range history {
		for i, want := range leaves {
			require.Equal(t, want, tree.GetSum(i, v), "version %d leaf %d", v, i)
		}
	}
}

func TestPersistentSegmentTreeConcurrentReads(t *testing.T) {
	const n = 64
	tree := NewPersistentSegmentTree(make([]int, n))
	for i := 0; i < n; i++ {
		tree.Add(1, i, n)
	}
	nodes := tree.NodeCount()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for v := 0; v < tree.Versions(); v++ {
				for i := 0; i < n; i++ {
					// 版本 v 中叶子 i 被前 v 次更新里 start <= i 的那些覆盖。
					want := min(v, i+1)
					if got := tree.GetSum(i, v); got != want {
						t.Errorf("version %d leaf %d: got %d want %d", v, i, got, want)
						return
					}
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, nodes, tree.NodeCount(), "reads must not allocate")
	assert.Equal(t, tree.GetSum(10, 20), tree.GetSum(10, 20))
}

func TestPersistentSegmentTreeOutOfRangeVersion(t *testing.T) {
	tree := NewPersistentSegmentTree(make([]int, 4))
	tree.Add(1, 0, 4)

	assert.Zero(t, tree.GetSum(0, -1))
	assert.Zero(t, tree.GetSum(0, 2))
	assert.Zero(t, tree.Root(9))
}
