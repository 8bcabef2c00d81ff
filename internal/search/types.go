// Package search turns lexical and vector candidates into one ranked answer.
//
// The FTS bridge normalizes per-kind knowledge-base matches, CombineResults
// blends them with vector similarity, and Engine dispatches a request to the
// vector, fts, hybrid or graph mode.
package search

// FtsSearchResult is one lexical match from the knowledge base.
// Relevance is positional within the batch of its own kind, in (0, 1].
type FtsSearchResult struct {
	EntityType string  `json:"entity_type"`
	EntityID   string  `json:"entity_id"`
	Title      *string `json:"title"`
	Content    string  `json:"content"`
	Relevance  float64 `json:"relevance"`
}

// FtsSearchFilters narrows an FTS bridge call. Empty EntityTypes means all
// kinds; Limit bounds each kind's batch.
type FtsSearchFilters struct {
	EntityTypes []string `json:"entity_types,omitempty"`
	Limit       int      `json:"limit"`
}

// DefaultFTSLimit is the per-kind batch size when the filter sets none.
const DefaultFTSLimit = 20

// VectorSource tells a code-symbol hit from a documentation-chunk hit.
type VectorSource string

const (
	VectorSourceAPISymbol VectorSource = "api_symbol"
	VectorSourceDocChunk  VectorSource = "doc_chunk"
)

// VectorSearchResult is one nearest-neighbour hit. Score is cosine
// similarity in [-1, 1].
type VectorSearchResult struct {
	ID         string       `json:"id"`
	Ecosystem  string       `json:"ecosystem"`
	Package    string       `json:"package"`
	Version    string       `json:"version"`
	Kind       string       `json:"kind"`
	Name       string       `json:"name"`
	Signature  string       `json:"signature,omitempty"`
	DocComment string       `json:"doc_comment,omitempty"`
	FilePath   string       `json:"file_path,omitempty"`
	LineStart  int          `json:"line_start,omitempty"`
	LineEnd    int          `json:"line_end,omitempty"`
	Score      float64      `json:"score"`
	SourceType VectorSource `json:"source_type"`
}

// HybridSource records which channel first produced a hybrid result.
type HybridSource string

const (
	SourceVectorSymbol   HybridSource = "vector_symbol"
	SourceVectorDocChunk HybridSource = "vector_doc_chunk"
	SourceFTS            HybridSource = "fts"
)

// HybridSearchResult is one fused result. At least one of VectorScore and
// FTSScore is set; CombinedScore drives ranking.
type HybridSearchResult struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Kind          string       `json:"kind"`
	Content       string       `json:"content"`
	VectorScore   *float64     `json:"vector_score"`
	FTSScore      *float64     `json:"fts_score"`
	CombinedScore float64      `json:"combined_score"`
	Source        HybridSource `json:"source"`
}
