package rectindex

import (
	"context"
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"github.com/wyfcoding/rectcount/geometry"
)

// batchChunk 每个任务处理的点数，避免为每个点单独调度 goroutine。
const batchChunk = 256

// CountBatch 并发查询一组点，结果与输入顺序一致。
// workers <= 0 时使用 GOMAXPROCS。计数器只读，因此无需加锁。
func CountBatch(ctx context.Context, c Counter, points []geometry.Point, workers int) ([]int, error) {
	counts := make([]int, len(points))
	if len(points) == 0 {
		return counts, nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := pool.New().WithMaxGoroutines(workers).WithContext(ctx).WithCancelOnError()
	for start := 0; start < len(points); start += batchChunk {
		end := min(start+batchChunk, len(points))
		p.Go(func(ctx context.Context) error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				counts[i] = c.Count(points[i])
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}
