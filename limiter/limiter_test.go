package limiter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/wyfcoding/rectcount/config"
)

func TestLocalLimiterBurst(t *testing.T) {
	l := NewLocalLimiter(rate.Limit(0.001), 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "")
	assert.False(t, ok)

	l.Update(rate.Inf, 1)
	ok, _ = l.Allow(ctx, "")
	assert.True(t, ok)
}

func TestNewFromConfig(t *testing.T) {
	assert.Nil(t, NewFromConfig(config.RateLimitConfig{Enabled: false, Rate: 1, Burst: 1}))
	assert.NotNil(t, NewFromConfig(config.RateLimitConfig{Enabled: true, Rate: 1, Burst: 1}))
}

func TestSemaphoreLimiter(t *testing.T) {
	l := NewSemaphoreLimiter(1)
	require.True(t, l.TryAcquire())
	assert.False(t, l.TryAcquire())
	assert.Equal(t, 1, l.InUse())

	l.Release()
	require.True(t, l.TryAcquire())
	l.Release()
	l.Release()
	assert.Zero(t, l.InUse())

	unlimited := NewSemaphoreLimiter(0)
	for i := 0; i < 10; i++ {
		assert.True(t, unlimited.TryAcquire())
	}
	var nilLimiter *SemaphoreLimiter
	assert.True(t, nilLimiter.TryAcquire())
	nilLimiter.Release()
	assert.Zero(t, nilLimiter.InUse())
}
