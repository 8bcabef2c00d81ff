package search

import (
	"sort"
	"strings"
)

// normalizeVectorScore maps cosine similarity from [-1, 1] to [0, 1].
func normalizeVectorScore(score float64) float64 {
	return (score + 1) / 2
}

// CombineResults blends vector and lexical results into one ranked list.
//
// Results are keyed by lowercased name: the vector result's Name, or the FTS
// result's Title falling back to its EntityID. Each channel writes only its
// own score, and after every write
//
//	combined = alpha*vector + (1-alpha)*fts
//
// with a missing channel counting as zero. alpha is clamped to [0, 1].
// Ordering is by combined score descending; equal scores keep first-seen
// order. The output holds at most limit results.
func CombineResults(vector []VectorSearchResult, fts []FtsSearchResult, alpha float64, limit int) []HybridSearchResult {
	alpha = clamp01(alpha)

	merged := make([]*HybridSearchResult, 0, len(vector)+len(fts))
	byKey := make(map[string]*HybridSearchResult, len(vector)+len(fts))

	getOrCreate := func(key string, init func() HybridSearchResult) *HybridSearchResult {
		if r, ok := byKey[key]; ok {
			return r
		}
		r := init()
		byKey[key] = &r
		merged = append(merged, &r)
		return &r
	}

	for _, vr := range vector {
		norm := normalizeVectorScore(vr.Score)
		r := getOrCreate(strings.ToLower(vr.Name), func() HybridSearchResult {
			source := SourceVectorSymbol
			if vr.SourceType == VectorSourceDocChunk {
				source = SourceVectorDocChunk
			}
			return HybridSearchResult{
				ID:      vr.ID,
				Name:    vr.Name,
				Kind:    vr.Kind,
				Content: vr.DocComment,
				Source:  source,
			}
		})
		r.VectorScore = &norm
		r.CombinedScore = alpha*norm + (1-alpha)*valueOr0(r.FTSScore)
	}

	for _, fr := range fts {
		name := fr.EntityID
		if fr.Title != nil {
			name = *fr.Title
		}
		relevance := fr.Relevance
		r := getOrCreate(strings.ToLower(name), func() HybridSearchResult {
			return HybridSearchResult{
				ID:      fr.EntityID,
				Name:    name,
				Kind:    fr.EntityType,
				Content: fr.Content,
				Source:  SourceFTS,
			}
		})
		r.FTSScore = &relevance
		r.CombinedScore = alpha*valueOr0(r.VectorScore) + (1-alpha)*relevance
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CombinedScore > merged[j].CombinedScore
	})

	if limit < 0 {
		limit = 0
	}
	if len(merged) > limit {
		merged = merged[:limit]
	}

	results := make([]HybridSearchResult, len(merged))
	for i, r := range merged {
		results[i] = *r
	}
	return results
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func valueOr0(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// fromVector wraps vector hits as hybrid results with alpha fixed at 1.
func fromVector(vector []VectorSearchResult, limit int) []HybridSearchResult {
	return CombineResults(vector, nil, 1, limit)
}

// fromFTS wraps lexical hits as hybrid results with alpha fixed at 0.
func fromFTS(fts []FtsSearchResult, limit int) []HybridSearchResult {
	return CombineResults(nil, fts, 0, limit)
}
