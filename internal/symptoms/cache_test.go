package symptoms

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightline-health/intake-ai-platform/pkg/logging"
)

type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i])), 1}
	}
	return out, nil
}

func newCacheUnderTest(t *testing.T) (*CachedEmbedder, *countingEmbedder, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	inner := &countingEmbedder{}
	cache := NewCachedEmbedder(inner, "test-model", client, time.Hour, logging.Default())
	return cache, inner, mr
}

func TestCachedEmbedderHitsSkipInner(t *testing.T) {
	cache, inner, _ := newCacheUnderTest(t)
	ctx := context.Background()

	first, err := cache.Embed(ctx, []string{"fever", "cough"})
	require.NoError(t, err)
	require.Equal(t, 1, inner.calls)

	second, err := cache.Embed(ctx, []string{"fever", "cough"})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls, "cached texts should not re-embed")
	assert.Equal(t, first, second)
}

func TestCachedEmbedderPartialMiss(t *testing.T) {
	cache, inner, _ := newCacheUnderTest(t)
	ctx := context.Background()

	_, err := cache.Embed(ctx, []string{"fever"})
	require.NoError(t, err)

	out, err := cache.Embed(ctx, []string{"fever", "chills"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 2, inner.calls, "only the miss should re-embed")
	assert.Equal(t, []float32{5, 1}, out[0])
	assert.Equal(t, []float32{6, 1}, out[1])
}

func TestCachedEmbedderSurvivesRedisOutage(t *testing.T) {
	cache, inner, mr := newCacheUnderTest(t)
	mr.Close()

	out, err := cache.Embed(context.Background(), []string{"fever"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 1, inner.calls)
}
