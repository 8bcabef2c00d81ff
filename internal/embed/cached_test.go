package embed

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder counts texts that reach it.
type countingEmbedder struct {
	*StaticEmbedder
	texts atomic.Int64
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.texts.Add(1)
	return c.StaticEmbedder.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.texts.Add(int64(len(texts)))
	return c.StaticEmbedder.EmbedBatch(ctx, texts)
}

var _ Embedder = (*CachedEmbedder)(nil)

func TestCachedEmbedder_RepeatedQueryHitsCache(t *testing.T) {
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder(0)}
	c := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	first, err := c.Embed(ctx, "select!")
	require.NoError(t, err)
	second, err := c.Embed(ctx, "select!")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), inner.texts.Load())
	assert.Equal(t, 1, c.Len())
}

func TestCachedEmbedder_BatchOnlyEmbedsMisses(t *testing.T) {
	// Given: one of three texts already cached
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder(0)}
	c := NewCachedEmbedder(inner, 10)
	ctx := context.Background()
	_, err := c.Embed(ctx, "b")
	require.NoError(t, err)

	// When: the batch is embedded
	out, err := c.EmbedBatch(ctx, []string{"a", "b", "c"})

	// Then: only the two misses reach the inner embedder
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, int64(3), inner.texts.Load())
	assert.Equal(t, 3, c.Len())
}

func TestCachedEmbedder_EvictsOldest(t *testing.T) {
	c := NewCachedEmbedder(NewStaticEmbedder(0), 2)
	ctx := context.Background()

	for _, s := range []string{"a", "b", "c"} {
		_, err := c.Embed(ctx, s)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, DefaultDimensions, c.Dimensions())
}
