package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	zerrors "github.com/wrath-codes/zenith/internal/errors"
	"github.com/wrath-codes/zenith/internal/graph"
	"github.com/wrath-codes/zenith/internal/knowledge"
)

// Mode selects how Engine answers a request.
type Mode string

const (
	ModeVector Mode = "vector"
	ModeFTS    Mode = "fts"
	ModeHybrid Mode = "hybrid"
	ModeGraph  Mode = "graph"
	// ModeRecursive is recognized so it can be refused with a clear error.
	ModeRecursive Mode = "recursive"
)

// Modes lists the modes Engine serves.
var Modes = []Mode{ModeVector, ModeFTS, ModeHybrid, ModeGraph}

// ParseMode resolves a mode name. Unknown and unsupported modes fail with
// ERR_405_UNSUPPORTED_MODE.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	err := zerrors.New(zerrors.ErrCodeUnsupportedMode, fmt.Sprintf("unsupported search mode %q", s), nil).
		WithDetail("mode", s)
	if m == ModeRecursive {
		return "", err.WithSuggestion("Recursive search is not available; use hybrid")
	}
	return "", err.WithSuggestion("Use one of: vector, fts, hybrid, graph")
}

// EngineConfig holds defaults applied to requests that leave them unset.
type EngineConfig struct {
	Alpha              float64
	Limit              int
	VectorCandidates   int
	CentralityMaxNodes int
}

// DefaultEngineConfig returns the defaults used when no config is loaded.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{Alpha: 0.7, Limit: 20, VectorCandidates: 50, CentralityMaxNodes: 500}
}

// Request is one search call.
type Request struct {
	Query string `json:"query"`
	Mode  Mode   `json:"mode"`
	// Alpha weights the vector signal in hybrid mode; nil uses the default.
	Alpha *float64 `json:"alpha,omitempty"`
	Limit int      `json:"limit,omitempty"`
	// Types restricts the knowledge kinds searched lexically.
	Types []string `json:"types,omitempty"`
	// MaxCentralityNodes overrides the centrality guard in graph mode.
	MaxCentralityNodes int `json:"max_centrality_nodes,omitempty"`
}

// Response carries ranked results, or a graph analysis in graph mode.
type Response struct {
	Mode    Mode                 `json:"mode"`
	Results []HybridSearchResult `json:"results,omitempty"`
	Graph   *graph.GraphAnalysis `json:"graph,omitempty"`
	Took    time.Duration        `json:"took_ns"`
}

// Engine dispatches requests to the vector, lexical and graph backends.
type Engine struct {
	fts    *FTSBridge
	vector *VectorSearcher
	links  graph.LinkSource
	config EngineConfig
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithVectorSearcher enables the vector and hybrid modes' vector channel.
// Without it the vector channel yields nothing.
func WithVectorSearcher(v *VectorSearcher) EngineOption {
	return func(e *Engine) { e.vector = v }
}

// WithLinkSource enables graph mode.
func WithLinkSource(src graph.LinkSource) EngineOption {
	return func(e *Engine) { e.links = src }
}

// NewEngine creates an engine over a knowledge searcher.
func NewEngine(searcher knowledge.Searcher, cfg EngineConfig, opts ...EngineOption) *Engine {
	def := DefaultEngineConfig()
	if cfg.Limit <= 0 {
		cfg.Limit = def.Limit
	}
	if cfg.VectorCandidates <= 0 {
		cfg.VectorCandidates = def.VectorCandidates
	}
	if cfg.CentralityMaxNodes <= 0 {
		cfg.CentralityMaxNodes = def.CentralityMaxNodes
	}
	e := &Engine{fts: NewFTSBridge(searcher), config: cfg}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search answers req. An empty mode means hybrid.
func (e *Engine) Search(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	mode := req.Mode
	if mode == "" {
		mode = ModeHybrid
	}
	mode, err := ParseMode(string(mode))
	if err != nil {
		return nil, err
	}
	if mode != ModeGraph && strings.TrimSpace(req.Query) == "" {
		return nil, zerrors.InvalidQuery("search query must not be empty")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = e.config.Limit
	}
	slog.Debug("search_started",
		slog.String("mode", string(mode)),
		slog.String("query", req.Query),
		slog.Int("limit", limit))

	resp := &Response{Mode: mode}
	switch mode {
	case ModeVector:
		v, err := e.searchVector(ctx, req.Query, limit)
		if err != nil {
			return nil, err
		}
		resp.Results = fromVector(v, limit)

	case ModeFTS:
		f, err := e.fts.Search(ctx, req.Query, FtsSearchFilters{EntityTypes: req.Types, Limit: limit})
		if err != nil {
			return nil, err
		}
		resp.Results = fromFTS(f, limit)

	case ModeHybrid:
		alpha := e.config.Alpha
		if req.Alpha != nil {
			alpha = *req.Alpha
		}
		v, f, err := e.fetchCandidates(ctx, req)
		if err != nil {
			return nil, err
		}
		resp.Results = CombineResults(v, f, alpha, limit)

	case ModeGraph:
		analysis, err := e.AnalyzeGraph(ctx, req.MaxCentralityNodes)
		if err != nil {
			return nil, err
		}
		resp.Graph = &analysis
	}

	resp.Took = time.Since(start)
	slog.Info("search_completed",
		slog.String("mode", string(mode)),
		slog.Int("results", len(resp.Results)),
		slog.Duration("took", resp.Took))
	return resp, nil
}

// FTSSearch queries the FTS bridge directly, without fusion.
func (e *Engine) FTSSearch(ctx context.Context, query string, filters FtsSearchFilters) ([]FtsSearchResult, error) {
	return e.fts.Search(ctx, query, filters)
}

// AnalyzeGraph builds the decision graph from the current links and
// analyzes it. maxNodes <= 0 uses the configured centrality guard.
func (e *Engine) AnalyzeGraph(ctx context.Context, maxNodes int) (graph.GraphAnalysis, error) {
	dg, err := e.DecisionGraph(ctx)
	if err != nil {
		return graph.GraphAnalysis{}, err
	}
	if maxNodes <= 0 {
		maxNodes = e.config.CentralityMaxNodes
	}
	return dg.Analyze(maxNodes), nil
}

// DecisionGraph builds a fresh graph from the link source.
func (e *Engine) DecisionGraph(ctx context.Context) (*graph.DecisionGraph, error) {
	if e.links == nil {
		return nil, zerrors.InternalError("graph mode has no link source", nil)
	}
	return graph.FromSource(ctx, e.links)
}

func (e *Engine) searchVector(ctx context.Context, query string, k int) ([]VectorSearchResult, error) {
	if e.vector == nil {
		return []VectorSearchResult{}, nil
	}
	return e.vector.Search(ctx, query, k)
}

// fetchCandidates runs the vector and lexical fetches concurrently. A
// failing channel fails the search; when both fail the errors are joined.
func (e *Engine) fetchCandidates(ctx context.Context, req Request) ([]VectorSearchResult, []FtsSearchResult, error) {
	var (
		vec            []VectorSearchResult
		lex            []FtsSearchResult
		vecErr, lexErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vec, vecErr = e.searchVector(gctx, req.Query, e.config.VectorCandidates)
		return nil
	})
	g.Go(func() error {
		lex, lexErr = e.fts.Search(gctx, req.Query, FtsSearchFilters{EntityTypes: req.Types, Limit: e.config.VectorCandidates})
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	var errs []error
	if vecErr != nil {
		errs = append(errs, channelError("vector", vecErr))
	}
	if lexErr != nil {
		errs = append(errs, channelError("fts", lexErr))
	}
	switch len(errs) {
	case 0:
		return vec, lex, nil
	case 1:
		return nil, nil, errs[0]
	default:
		return nil, nil, errors.Join(errs...)
	}
}

func channelError(channel string, err error) error {
	slog.Warn("search_channel_failed",
		slog.String("channel", channel),
		slog.String("error", err.Error()))
	return zerrors.New(zerrors.ErrCodeSearchFailed,
		fmt.Sprintf("hybrid search: %s channel failed: %v", channel, err), err).
		WithDetail("channel", channel)
}

// KnowledgeLinks reads decision graph rows from the knowledge store.
type KnowledgeLinks struct {
	Store *knowledge.Store
}

// LinkRows implements graph.LinkSource.
func (k KnowledgeLinks) LinkRows(ctx context.Context) ([]graph.Row, error) {
	links, err := k.Store.ListLinks(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]graph.Row, len(links))
	for i, l := range links {
		rows[i] = graph.Row{
			SourceType: l.SourceType,
			SourceID:   l.SourceID,
			TargetType: l.TargetType,
			TargetID:   l.TargetID,
			Relation:   l.Relation,
		}
	}
	return rows, nil
}
