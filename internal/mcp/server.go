package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wrath-codes/zenith/internal/config"
	"github.com/wrath-codes/zenith/internal/refgraph"
	"github.com/wrath-codes/zenith/internal/search"
	"github.com/wrath-codes/zenith/pkg/version"
)

// Limits applied to tool inputs.
const (
	defaultLimit = 20
	maxLimit     = 200
)

// Server is the MCP server for zenith. It exposes the search engine,
// decision graph and reference graph as tools.
type Server struct {
	mcp    *mcp.Server
	engine *search.Engine
	config *config.Config
	logger *slog.Logger
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var tools = []ToolInfo{
	{
		Name:        "search",
		Description: "Search symbols, documentation and the knowledge base. Hybrid mode blends vector similarity with full-text relevance; vector, fts and graph modes are also available.",
	},
	{
		Name:        "fts_search",
		Description: "Full-text search over findings, hypotheses, insights, research, tasks, issues, studies and the audit trail. Results keep each kind's rank order.",
	},
	{
		Name:        "graph_analyze",
		Description: "Analyze the decision graph built from knowledge links: node and edge counts, components, cycles, topological order and betweenness centrality.",
	},
	{
		Name:        "graph_path",
		Description: "Find the shortest directed path between two knowledge entities in the decision graph. Nodes are named type:id.",
	},
	{
		Name:        "ref_summary",
		Description: "Load a batch of symbol references into a fresh reference graph and report edge counts per category, optionally with one symbol's signature.",
	},
}

// NewServer creates a new MCP server.
func NewServer(engine *search.Engine, cfg *config.Config) (*Server, error) {
	if engine == nil {
		return nil, errors.New("search engine is required")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}

	s := &Server{
		engine: engine,
		config: cfg,
		logger: slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "zenith",
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()

	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return "zenith", version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(tools))
	copy(out, tools)
	return out
}

// CallTool invokes a tool by name with JSON-like arguments and returns its
// structured output.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "search":
		in, err := decodeArgs[SearchInput](args)
		if err != nil {
			return nil, err
		}
		return s.search(ctx, in)
	case "fts_search":
		in, err := decodeArgs[FTSSearchInput](args)
		if err != nil {
			return nil, err
		}
		return s.ftsSearch(ctx, in)
	case "graph_analyze":
		in, err := decodeArgs[GraphAnalyzeInput](args)
		if err != nil {
			return nil, err
		}
		return s.graphAnalyze(ctx, in)
	case "graph_path":
		in, err := decodeArgs[GraphPathInput](args)
		if err != nil {
			return nil, err
		}
		return s.graphPath(ctx, in)
	case "ref_summary":
		in, err := decodeArgs[RefSummaryInput](args)
		if err != nil {
			return nil, err
		}
		return s.refSummary(ctx, in)
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

func decodeArgs[T any](args map[string]any) (T, error) {
	var in T
	data, err := json.Marshal(args)
	if err != nil {
		return in, NewInvalidParamsError(err.Error())
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return in, NewInvalidParamsError(err.Error())
	}
	return in, nil
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	handlers := map[string]func(t *mcp.Tool){
		"search":        func(t *mcp.Tool) { mcp.AddTool(s.mcp, t, s.mcpSearchHandler) },
		"fts_search":    func(t *mcp.Tool) { mcp.AddTool(s.mcp, t, s.mcpFTSSearchHandler) },
		"graph_analyze": func(t *mcp.Tool) { mcp.AddTool(s.mcp, t, s.mcpGraphAnalyzeHandler) },
		"graph_path":    func(t *mcp.Tool) { mcp.AddTool(s.mcp, t, s.mcpGraphPathHandler) },
		"ref_summary":   func(t *mcp.Tool) { mcp.AddTool(s.mcp, t, s.mcpRefSummaryHandler) },
	}
	for _, info := range tools {
		handlers[info.Name](&mcp.Tool{Name: info.Name, Description: info.Description})
		s.logger.Debug("tool_registered", slog.String("name", info.Name))
	}
	s.logger.Info("mcp_tools_registered", slog.Int("count", len(tools)))
}

// search runs one engine request.
func (s *Server) search(ctx context.Context, in SearchInput) (SearchOutput, error) {
	start := time.Now()
	requestID := generateRequestID()

	mode := search.ModeHybrid
	if strings.TrimSpace(in.Mode) != "" {
		m, err := search.ParseMode(in.Mode)
		if err != nil {
			return SearchOutput{}, MapError(err)
		}
		mode = m
	}
	if in.Alpha != nil && (*in.Alpha < 0 || *in.Alpha > 1) {
		return SearchOutput{}, NewInvalidParamsError("alpha must be between 0 and 1")
	}

	req := search.Request{
		Query: in.Query,
		Mode:  mode,
		Alpha: in.Alpha,
		Limit: clampLimit(in.Limit, s.config.Search.Limit, 1, maxLimit),
		Types: in.Types,
	}
	s.logger.Info("tool_search_started",
		slog.String("request_id", requestID),
		slog.String("mode", string(mode)),
		slog.Int("limit", req.Limit))

	resp, err := s.engine.Search(ctx, req)
	if err != nil {
		s.logger.Error("tool_search_failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()))
		return SearchOutput{}, MapError(err)
	}

	out := SearchOutput{Mode: string(resp.Mode), Results: resp.Results}
	if out.Results == nil {
		out.Results = []search.HybridSearchResult{}
	}
	if resp.Graph != nil {
		g := toGraphOutput(*resp.Graph)
		out.Graph = &g
	}
	s.logger.Info("tool_search_completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)),
		slog.Int("result_count", len(out.Results)))
	return out, nil
}

func (s *Server) ftsSearch(ctx context.Context, in FTSSearchInput) (FTSSearchOutput, error) {
	results, err := s.engine.FTSSearch(ctx, in.Query, search.FtsSearchFilters{
		EntityTypes: in.Types,
		Limit:       clampLimit(in.Limit, search.DefaultFTSLimit, 1, maxLimit),
	})
	if err != nil {
		return FTSSearchOutput{}, MapError(err)
	}
	return FTSSearchOutput{Results: results}, nil
}

func (s *Server) graphAnalyze(ctx context.Context, in GraphAnalyzeInput) (GraphAnalysisOutput, error) {
	if in.MaxNodes < 0 {
		return GraphAnalysisOutput{}, NewInvalidParamsError("max_nodes must not be negative")
	}
	analysis, err := s.engine.AnalyzeGraph(ctx, in.MaxNodes)
	if err != nil {
		return GraphAnalysisOutput{}, MapError(err)
	}
	return toGraphOutput(analysis), nil
}

func (s *Server) graphPath(ctx context.Context, in GraphPathInput) (GraphPathOutput, error) {
	if strings.TrimSpace(in.From) == "" || strings.TrimSpace(in.To) == "" {
		return GraphPathOutput{}, NewInvalidParamsError("from and to are required")
	}
	dg, err := s.engine.DecisionGraph(ctx)
	if err != nil {
		return GraphPathOutput{}, MapError(err)
	}
	path := dg.ShortestPath(in.From, in.To)
	if path == nil {
		return GraphPathOutput{Path: []string{}}, nil
	}
	return GraphPathOutput{Found: true, Path: path}, nil
}

func (s *Server) refSummary(ctx context.Context, in RefSummaryInput) (RefSummaryOutput, error) {
	batch, err := in.toBatch()
	if err != nil {
		return RefSummaryOutput{}, err
	}
	sum, err := refgraph.Summarize(ctx, batch, in.Lookup)
	if err != nil {
		return RefSummaryOutput{}, MapError(err)
	}
	return RefSummaryOutput(sum), nil
}

// mcpSearchHandler is the MCP SDK handler for the search tool.
func (s *Server) mcpSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	out, err := s.search(ctx, input)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return textResult(FormatSearchResults(input.Query, out)), out, nil
}

// mcpFTSSearchHandler is the MCP SDK handler for the fts_search tool.
func (s *Server) mcpFTSSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input FTSSearchInput) (
	*mcp.CallToolResult,
	FTSSearchOutput,
	error,
) {
	out, err := s.ftsSearch(ctx, input)
	if err != nil {
		return nil, FTSSearchOutput{}, err
	}
	return textResult(FormatFTSResults(input.Query, out.Results)), out, nil
}

// mcpGraphAnalyzeHandler is the MCP SDK handler for the graph_analyze tool.
func (s *Server) mcpGraphAnalyzeHandler(ctx context.Context, _ *mcp.CallToolRequest, input GraphAnalyzeInput) (
	*mcp.CallToolResult,
	GraphAnalysisOutput,
	error,
) {
	out, err := s.graphAnalyze(ctx, input)
	if err != nil {
		return nil, GraphAnalysisOutput{}, err
	}
	return textResult(FormatGraphAnalysis(out)), out, nil
}

// mcpGraphPathHandler is the MCP SDK handler for the graph_path tool.
func (s *Server) mcpGraphPathHandler(ctx context.Context, _ *mcp.CallToolRequest, input GraphPathInput) (
	*mcp.CallToolResult,
	GraphPathOutput,
	error,
) {
	out, err := s.graphPath(ctx, input)
	if err != nil {
		return nil, GraphPathOutput{}, err
	}
	return textResult(FormatGraphPath(input, out)), out, nil
}

// mcpRefSummaryHandler is the MCP SDK handler for the ref_summary tool.
func (s *Server) mcpRefSummaryHandler(ctx context.Context, _ *mcp.CallToolRequest, input RefSummaryInput) (
	*mcp.CallToolResult,
	RefSummaryOutput,
	error,
) {
	out, err := s.refSummary(ctx, input)
	if err != nil {
		return nil, RefSummaryOutput{}, err
	}
	return textResult(FormatRefSummary(out)), out, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("mcp_server_starting", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
		} else {
			s.logger.Info("mcp_server_stopped")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
