package mcp

import (
	"github.com/wrath-codes/zenith/internal/graph"
	"github.com/wrath-codes/zenith/internal/refgraph"
	"github.com/wrath-codes/zenith/internal/search"
)

// SearchInput defines the input schema for the search tool.
type SearchInput struct {
	Query string   `json:"query" jsonschema:"the search query; may be empty in graph mode"`
	Mode  string   `json:"mode,omitempty" jsonschema:"search mode: vector, fts, hybrid or graph, default hybrid"`
	Alpha *float64 `json:"alpha,omitempty" jsonschema:"weight of the vector signal in hybrid mode, 0 to 1"`
	Limit int      `json:"limit,omitempty" jsonschema:"maximum number of results"`
	Types []string `json:"types,omitempty" jsonschema:"knowledge kinds to search lexically, e.g. finding, task"`
}

// SearchOutput defines the output schema for the search tool.
type SearchOutput struct {
	Mode    string                      `json:"mode" jsonschema:"the mode that answered the request"`
	Results []search.HybridSearchResult `json:"results" jsonschema:"ranked results, best first"`
	Graph   *GraphAnalysisOutput        `json:"graph,omitempty" jsonschema:"decision graph analysis, graph mode only"`
}

// FTSSearchInput defines the input schema for the fts_search tool.
type FTSSearchInput struct {
	Query string   `json:"query" jsonschema:"full-text query over the knowledge base"`
	Types []string `json:"types,omitempty" jsonschema:"knowledge kinds to search, default all"`
	Limit int      `json:"limit,omitempty" jsonschema:"maximum matches per kind, default 20"`
}

// FTSSearchOutput defines the output schema for the fts_search tool.
type FTSSearchOutput struct {
	Results []search.FtsSearchResult `json:"results" jsonschema:"matches grouped by kind in rank order"`
}

// GraphAnalyzeInput defines the input schema for the graph_analyze tool.
type GraphAnalyzeInput struct {
	MaxNodes int `json:"max_nodes,omitempty" jsonschema:"skip centrality above this node count, default from config"`
}

// CentralityOutput is one node's betweenness score.
type CentralityOutput struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// GraphAnalysisOutput defines the output schema for the graph_analyze tool.
type GraphAnalysisOutput struct {
	NodeCount        int                `json:"node_count"`
	EdgeCount        int                `json:"edge_count"`
	Components       int                `json:"components"`
	HasCycles        bool               `json:"has_cycles"`
	TopologicalOrder []string           `json:"topological_order" jsonschema:"node labels in dependency order, null when the graph has cycles"`
	Centrality       []CentralityOutput `json:"centrality" jsonschema:"betweenness scores, highest first"`
}

// GraphPathInput defines the input schema for the graph_path tool.
type GraphPathInput struct {
	From string `json:"from" jsonschema:"source node label, type:id"`
	To   string `json:"to" jsonschema:"target node label, type:id"`
}

// GraphPathOutput defines the output schema for the graph_path tool.
type GraphPathOutput struct {
	Found bool     `json:"found"`
	Path  []string `json:"path" jsonschema:"node labels from source to target inclusive"`
}

// RefInput is one symbol occurrence in a ref_summary batch.
type RefInput struct {
	RefID     string `json:"ref_id" jsonschema:"stable id file::kind::name::line"`
	FilePath  string `json:"file_path"`
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	LineStart int    `json:"line_start,omitempty"`
	LineEnd   int    `json:"line_end,omitempty"`
	Signature string `json:"signature,omitempty"`
	Doc       string `json:"doc,omitempty"`
}

// EdgeInput is one categorized reference in a ref_summary batch.
type EdgeInput struct {
	SourceRefID string `json:"source_ref_id"`
	TargetRefID string `json:"target_ref_id"`
	Category    string `json:"category" jsonschema:"same_module, other_module_same_crate, other_crate_workspace or external"`
	Evidence    string `json:"evidence,omitempty"`
}

// RefSummaryInput defines the input schema for the ref_summary tool.
type RefSummaryInput struct {
	Refs   []RefInput  `json:"refs"`
	Edges  []EdgeInput `json:"edges,omitempty"`
	Lookup string      `json:"lookup,omitempty" jsonschema:"ref_id whose signature to return"`
}

// RefSummaryOutput defines the output schema for the ref_summary tool.
type RefSummaryOutput struct {
	Refs       int64            `json:"refs"`
	Edges      int64            `json:"edges"`
	Categories map[string]int64 `json:"categories" jsonschema:"edge count per category"`
	Signature  *string          `json:"signature,omitempty"`
}

func toGraphOutput(a graph.GraphAnalysis) GraphAnalysisOutput {
	out := GraphAnalysisOutput{
		NodeCount:        a.NodeCount,
		EdgeCount:        a.EdgeCount,
		Components:       a.Components,
		HasCycles:        a.HasCycles,
		TopologicalOrder: a.TopologicalOrder,
		Centrality:       make([]CentralityOutput, len(a.Centrality)),
	}
	for i, c := range a.Centrality {
		out.Centrality[i] = CentralityOutput{Label: c.Label, Score: c.Score}
	}
	return out
}

// toBatch validates categories and converts the tool input to a batch.
func (in RefSummaryInput) toBatch() (refgraph.Batch, error) {
	b := refgraph.Batch{
		Refs:  make([]refgraph.SymbolRefHit, len(in.Refs)),
		Edges: make([]refgraph.RefEdge, len(in.Edges)),
	}
	for i, r := range in.Refs {
		b.Refs[i] = refgraph.SymbolRefHit(r)
	}
	for i, e := range in.Edges {
		cat, ok := refgraph.ParseCategory(e.Category)
		if !ok {
			return refgraph.Batch{}, NewInvalidParamsError("unknown ref category \"" + e.Category + "\"")
		}
		b.Edges[i] = refgraph.RefEdge{
			SourceRefID: e.SourceRefID,
			TargetRefID: e.TargetRefID,
			Category:    cat,
			Evidence:    e.Evidence,
		}
	}
	return b, nil
}
