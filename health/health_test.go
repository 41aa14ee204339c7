package health

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wyfcoding/rectcount/storage"
)

func TestRegistryCheck(t *testing.T) {
	r := NewRegistry(0)
	ready := false
	r.Register("index", ReadyChecker(func() bool { return ready }, "index not ready"))
	r.Register("always", func(context.Context) error { return nil })
	assert.Equal(t, []string{"always", "index"}, r.Names())

	report := r.Check(context.Background())
	assert.False(t, report.Healthy())
	assert.Equal(t, "index not ready", report.Checks["index"])
	assert.Equal(t, "ok", report.Checks["always"])

	ready = true
	assert.True(t, r.Check(context.Background()).Healthy())
}

func TestRegistryTimeout(t *testing.T) {
	r := NewRegistry(10 * time.Millisecond)
	r.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	report := r.Check(context.Background())
	assert.False(t, report.Healthy())
	assert.Equal(t, context.DeadlineExceeded.Error(), report.Checks["slow"])
}

func TestObjectChecker(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	check := ObjectChecker(store, "rects.json")
	assert.Error(t, check(ctx))

	assert.NoError(t, store.Upload(ctx, "rects.json", strings.NewReader("[]"), 2, "application/json"))
	assert.NoError(t, check(ctx))

	assert.Error(t, ObjectChecker(nil, "x")(ctx))
	assert.False(t, errors.Is(check(ctx), context.Canceled))
}
