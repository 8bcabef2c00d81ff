package search

import (
	"context"
	"strings"

	"github.com/wrath-codes/zenith/internal/embed"
	zerrors "github.com/wrath-codes/zenith/internal/errors"
	"github.com/wrath-codes/zenith/internal/store"
)

// VectorIndex finds the nearest stored vectors to a query vector.
type VectorIndex interface {
	Search(ctx context.Context, query []float32, k int) ([]store.VectorHit, error)
}

// SymbolLookup loads symbol metadata by id, in request order.
type SymbolLookup interface {
	Get(ctx context.Context, ids []string) ([]store.Symbol, error)
}

// VectorSearcher embeds a query and resolves its nearest symbols and doc
// chunks.
type VectorSearcher struct {
	embedder embed.Embedder
	index    VectorIndex
	symbols  SymbolLookup
}

// NewVectorSearcher creates a searcher.
func NewVectorSearcher(embedder embed.Embedder, index VectorIndex, symbols SymbolLookup) *VectorSearcher {
	return &VectorSearcher{embedder: embedder, index: index, symbols: symbols}
}

// Search returns up to k hits, most similar first. Hits whose metadata is
// gone are dropped.
func (v *VectorSearcher) Search(ctx context.Context, query string, k int) ([]VectorSearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, zerrors.InvalidQuery("search query must not be empty")
	}
	vec, err := v.embedder.Embed(ctx, query)
	if err != nil {
		return nil, zerrors.New(zerrors.ErrCodeEmbeddingFailed, "embed query", err)
	}
	hits, err := v.index.Search(ctx, vec, k)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return []VectorSearchResult{}, nil
	}

	ids := make([]string, len(hits))
	scores := make(map[string]float64, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
		scores[h.ID] = h.Score
	}
	syms, err := v.symbols.Get(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]VectorSearchResult, 0, len(syms))
	for _, s := range syms {
		out = append(out, VectorSearchResult{
			ID:         s.ID,
			Ecosystem:  s.Ecosystem,
			Package:    s.Package,
			Version:    s.Version,
			Kind:       s.Kind,
			Name:       s.Name,
			Signature:  s.Signature,
			DocComment: s.DocComment,
			FilePath:   s.FilePath,
			LineStart:  s.LineStart,
			LineEnd:    s.LineEnd,
			Score:      scores[s.ID],
			SourceType: VectorSource(s.SourceType),
		})
	}
	return out, nil
}
