package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zerrors "github.com/wrath-codes/zenith/internal/errors"
)

func newTestHNSW(t *testing.T) *HNSWStore {
	t.Helper()
	s := NewHNSWStore(HNSWConfig{Dimensions: 4})
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestHNSWStore_AddAndSearch(t *testing.T) {
	// Given: three vectors, one nearly parallel to the query
	s := newTestHNSW(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, []string{"a", "b", "c"}, [][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0.9, 0.1, 0, 0},
	}))

	// When: searching for the first axis
	hits, err := s.Search(ctx, []float32{2, 0, 0, 0}, 2)

	// Then: the exact match leads with cosine similarity ~1
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ID)
	assert.Equal(t, "c", hits[1].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-5)
	assert.Less(t, hits[1].Score, hits[0].Score)
}

func TestHNSWStore_ScoreIsSignedCosine(t *testing.T) {
	s := newTestHNSW(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, []string{"opposite"}, [][]float32{{-1, 0, 0, 0}}))

	hits, err := s.Search(ctx, []float32{1, 0, 0, 0}, 1)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, -1.0, hits[0].Score, 1e-5)
}

func TestHNSWStore_ReplaceOrphansOldNode(t *testing.T) {
	s := newTestHNSW(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, []string{"a", "b"}, [][]float32{{1, 0, 0, 0}, {0, 1, 0, 0}}))

	require.NoError(t, s.Add(ctx, []string{"a"}, [][]float32{{0, 0, 1, 0}}))

	assert.Equal(t, 2, s.Count())
	assert.Equal(t, 1, s.Orphans())
	hits, err := s.Search(ctx, []float32{0, 0, 1, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, "a", hits[0].ID)
}

func TestHNSWStore_Delete(t *testing.T) {
	s := newTestHNSW(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, []string{"a", "b"}, [][]float32{{1, 0, 0, 0}, {0, 1, 0, 0}}))

	require.NoError(t, s.Delete(ctx, []string{"a", "missing"}))

	assert.False(t, s.Contains("a"))
	hits, err := s.Search(ctx, []float32{1, 0, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].ID)
}

func TestHNSWStore_DimensionMismatch(t *testing.T) {
	s := newTestHNSW(t)
	ctx := context.Background()

	err := s.Add(ctx, []string{"a"}, [][]float32{{1, 0}})
	assert.Equal(t, zerrors.ErrCodeDimensionMismatch, zerrors.GetCode(err))

	_, err = s.Search(ctx, []float32{1}, 1)
	assert.Equal(t, zerrors.ErrCodeDimensionMismatch, zerrors.GetCode(err))
}

func TestHNSWStore_EmptyAndZeroQueries(t *testing.T) {
	s := newTestHNSW(t)
	ctx := context.Background()

	hits, err := s.Search(ctx, []float32{1, 0, 0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, hits)

	require.NoError(t, s.Add(ctx, []string{"a", "zero"}, [][]float32{{1, 0, 0, 0}, {0, 0, 0, 0}}))
	assert.False(t, s.Contains("zero"))

	hits, err = s.Search(ctx, []float32{0, 0, 0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestHNSWStore_SaveAndLoad(t *testing.T) {
	// Given: a saved index
	dir := t.TempDir()
	ctx := context.Background()
	s := NewHNSWStore(HNSWConfig{Dimensions: 4})
	require.NoError(t, s.Add(ctx, []string{"a", "b"}, [][]float32{{1, 0, 0, 0}, {0, 1, 0, 0}}))
	require.NoError(t, s.Save(filepath.Join(dir, VectorsFile)))
	require.NoError(t, s.Close())

	// When: it is reopened from the data directory
	loaded, err := OpenHNSWStore(dir, 4)
	require.NoError(t, err)
	defer loaded.Close()

	// Then: vectors and ids survive
	assert.Equal(t, 2, loaded.Count())
	hits, err := loaded.Search(ctx, []float32{0, 1, 0, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, "b", hits[0].ID)
}

func TestOpenHNSWStore_FreshAndWrongDimensions(t *testing.T) {
	dir := t.TempDir()

	fresh, err := OpenHNSWStore(dir, 4)
	require.NoError(t, err)
	assert.Zero(t, fresh.Count())
	require.NoError(t, fresh.Add(context.Background(), []string{"a"}, [][]float32{{1, 0, 0, 0}}))
	require.NoError(t, fresh.Save(filepath.Join(dir, VectorsFile)))

	_, err = OpenHNSWStore(dir, 8)
	assert.Equal(t, zerrors.ErrCodeDimensionMismatch, zerrors.GetCode(err))
}

func TestHNSWStore_Closed(t *testing.T) {
	s := NewHNSWStore(HNSWConfig{Dimensions: 4})
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.Search(context.Background(), []float32{1, 0, 0, 0}, 1)
	assert.Equal(t, zerrors.ErrCodeVectorStore, zerrors.GetCode(err))
	assert.Zero(t, s.Count())
}
