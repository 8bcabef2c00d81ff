// Package embed turns text into vectors for symbol and doc-chunk search.
package embed

import (
	"context"
	"math"
)

// DefaultDimensions is the vector width of the static embedder.
const DefaultDimensions = 256

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for several texts, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector width.
	Dimensions() int

	// ModelName identifies the model; cached vectors are keyed by it.
	ModelName() string

	Close() error
}

// normalize scales v to unit length in place. Zero vectors are left alone.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}
