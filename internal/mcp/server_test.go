package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrath-codes/zenith/internal/config"
	"github.com/wrath-codes/zenith/internal/knowledge"
	"github.com/wrath-codes/zenith/internal/search"
)

type fixture struct {
	server *Server
	store  *knowledge.Store
	f, h   string
	in     string
}

// newFixture builds a server over an in-memory knowledge store holding a
// finding -> hypothesis -> insight chain.
func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	ks, err := knowledge.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ks.Close() })

	f, err := ks.CreateFinding(ctx, knowledge.Finding{Content: "p99 latency doubles under load"})
	require.NoError(t, err)
	h, err := ks.CreateHypothesis(ctx, knowledge.Hypothesis{Content: "lock contention in the connection pool"})
	require.NoError(t, err)
	in, err := ks.CreateInsight(ctx, knowledge.Insight{Content: "shard the pool by tenant"})
	require.NoError(t, err)
	_, err = ks.CreateLink(ctx, "finding", f.ID, "hypothesis", h.ID, "supports")
	require.NoError(t, err)
	_, err = ks.CreateLink(ctx, "hypothesis", h.ID, "insight", in.ID, "informs")
	require.NoError(t, err)

	engine := search.NewEngine(ks, search.DefaultEngineConfig(),
		search.WithLinkSource(search.KnowledgeLinks{Store: ks}))
	srv, err := NewServer(engine, config.NewConfig())
	require.NoError(t, err)

	return fixture{server: srv, store: ks, f: f.ID, h: h.ID, in: in.ID}
}

func TestNewServer_NilEngine_ReturnsError(t *testing.T) {
	_, err := NewServer(nil, nil)
	assert.Error(t, err)
}

func TestServer_Info(t *testing.T) {
	fx := newFixture(t)
	name, ver := fx.server.Info()
	assert.Equal(t, "zenith", name)
	assert.NotEmpty(t, ver)
	assert.NotNil(t, fx.server.MCPServer())
}

func TestServer_ListTools(t *testing.T) {
	// Given: a server
	fx := newFixture(t)

	// When: listing tools
	list := fx.server.ListTools()

	// Then: every operation is exposed
	names := make([]string, len(list))
	for i, tool := range list {
		names[i] = tool.Name
		assert.NotEmpty(t, tool.Description)
	}
	assert.Equal(t, []string{"search", "fts_search", "graph_analyze", "graph_path", "ref_summary"}, names)
}

func TestServer_CallTool_UnknownTool(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.server.CallTool(context.Background(), "search_code", nil)

	require.Error(t, err)
	assert.Equal(t, ErrCodeMethodNotFound, MapError(err).Code)
}

func TestServer_CallTool_Search(t *testing.T) {
	// Given: a finding mentioning latency
	fx := newFixture(t)

	// When: searching in the default hybrid mode
	res, err := fx.server.CallTool(context.Background(), "search", map[string]any{"query": "latency"})

	// Then: the lexical channel surfaces the finding
	require.NoError(t, err)
	out := res.(SearchOutput)
	assert.Equal(t, "hybrid", out.Mode)
	require.NotEmpty(t, out.Results)
	assert.Equal(t, fx.f, out.Results[0].ID)
	assert.Equal(t, search.SourceFTS, out.Results[0].Source)
	assert.Nil(t, out.Graph)
}

func TestServer_CallTool_SearchValidation(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing query", map[string]any{}},
		{"blank query", map[string]any{"query": "   "}},
		{"recursive mode", map[string]any{"query": "latency", "mode": "recursive"}},
		{"unknown mode", map[string]any{"query": "latency", "mode": "fuzzy"}},
		{"alpha out of range", map[string]any{"query": "latency", "alpha": 1.5}},
		{"wrong type", map[string]any{"query": 42}},
	}
	fx := newFixture(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// When: calling search with bad arguments
			_, err := fx.server.CallTool(context.Background(), "search", tt.args)

			// Then: the call fails with invalid params
			require.Error(t, err)
			assert.Equal(t, ErrCodeInvalidParams, MapError(err).Code)
		})
	}
}

func TestServer_CallTool_SearchGraphMode(t *testing.T) {
	fx := newFixture(t)

	res, err := fx.server.CallTool(context.Background(), "search", map[string]any{"query": "", "mode": "graph"})

	require.NoError(t, err)
	out := res.(SearchOutput)
	require.NotNil(t, out.Graph)
	assert.Equal(t, 3, out.Graph.NodeCount)
	assert.Empty(t, out.Results)
}

func TestServer_CallTool_FTSSearch(t *testing.T) {
	// Given: entries of several kinds mentioning "pool"
	fx := newFixture(t)

	// When: restricting the search to insights
	res, err := fx.server.CallTool(context.Background(), "fts_search", map[string]any{
		"query": "pool",
		"types": []string{"insight"},
	})

	// Then: only the insight matches
	require.NoError(t, err)
	out := res.(FTSSearchOutput)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "insight", out.Results[0].EntityType)
	assert.Equal(t, fx.in, out.Results[0].EntityID)
	assert.Equal(t, 1.0, out.Results[0].Relevance)
}

func TestServer_CallTool_GraphAnalyze(t *testing.T) {
	fx := newFixture(t)

	res, err := fx.server.CallTool(context.Background(), "graph_analyze", map[string]any{})

	require.NoError(t, err)
	out := res.(GraphAnalysisOutput)
	assert.Equal(t, 3, out.NodeCount)
	assert.Equal(t, 2, out.EdgeCount)
	assert.Equal(t, 1, out.Components)
	assert.False(t, out.HasCycles)
	assert.Equal(t, []string{"finding:" + fx.f, "hypothesis:" + fx.h, "insight:" + fx.in}, out.TopologicalOrder)
	require.Len(t, out.Centrality, 3)
	assert.Equal(t, CentralityOutput{Label: "hypothesis:" + fx.h, Score: 1}, out.Centrality[0])

	// And: a tight guard skips centrality
	res, err = fx.server.CallTool(context.Background(), "graph_analyze", map[string]any{"max_nodes": 2})
	require.NoError(t, err)
	assert.Empty(t, res.(GraphAnalysisOutput).Centrality)

	_, err = fx.server.CallTool(context.Background(), "graph_analyze", map[string]any{"max_nodes": -1})
	assert.Equal(t, ErrCodeInvalidParams, MapError(err).Code)
}

func TestServer_CallTool_GraphAnalyze_CyclicOrderIsNull(t *testing.T) {
	// Given: the insight links back to the finding, closing a cycle
	fx := newFixture(t)
	_, err := fx.store.CreateLink(context.Background(), "insight", fx.in, "finding", fx.f, "informs")
	require.NoError(t, err)

	// When: analyzing the graph
	res, err := fx.server.CallTool(context.Background(), "graph_analyze", map[string]any{})
	require.NoError(t, err)
	out := res.(GraphAnalysisOutput)

	// Then: there is no order, and it encodes as null rather than []
	assert.True(t, out.HasCycles)
	assert.Nil(t, out.TopologicalOrder)
	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"topological_order":null`)
}

func TestServer_CallTool_GraphPath(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	// When: asking for the path along the chain
	res, err := fx.server.CallTool(ctx, "graph_path", map[string]any{
		"from": "finding:" + fx.f,
		"to":   "insight:" + fx.in,
	})

	// Then: it passes through the hypothesis
	require.NoError(t, err)
	out := res.(GraphPathOutput)
	assert.True(t, out.Found)
	assert.Equal(t, []string{"finding:" + fx.f, "hypothesis:" + fx.h, "insight:" + fx.in}, out.Path)

	// And: the reverse direction has no path
	res, err = fx.server.CallTool(ctx, "graph_path", map[string]any{
		"from": "insight:" + fx.in,
		"to":   "finding:" + fx.f,
	})
	require.NoError(t, err)
	assert.False(t, res.(GraphPathOutput).Found)
	assert.Empty(t, res.(GraphPathOutput).Path)

	_, err = fx.server.CallTool(ctx, "graph_path", map[string]any{"from": "finding:" + fx.f})
	assert.Equal(t, ErrCodeInvalidParams, MapError(err).Code)
}

func TestServer_CallTool_RefSummary(t *testing.T) {
	// Given: three refs and two categorized edges
	fx := newFixture(t)
	args := map[string]any{
		"refs": []map[string]any{
			{"ref_id": "src/a.rs::fn::spawn::10", "file_path": "src/a.rs", "kind": "fn", "name": "spawn", "signature": "pub fn spawn()"},
			{"ref_id": "src/b.rs::fn::run::3", "file_path": "src/b.rs", "kind": "fn", "name": "run"},
			{"ref_id": "ext::fn::block_on::0", "file_path": "ext", "kind": "fn", "name": "block_on"},
		},
		"edges": []map[string]any{
			{"source_ref_id": "src/a.rs::fn::spawn::10", "target_ref_id": "src/b.rs::fn::run::3", "category": "other_module_same_crate"},
			{"source_ref_id": "src/b.rs::fn::run::3", "target_ref_id": "ext::fn::block_on::0", "category": "external"},
		},
		"lookup": "src/a.rs::fn::spawn::10",
	}

	// When: summarizing the batch
	res, err := fx.server.CallTool(context.Background(), "ref_summary", args)

	// Then: counts and the signature are reported
	require.NoError(t, err)
	out := res.(RefSummaryOutput)
	assert.Equal(t, int64(3), out.Refs)
	assert.Equal(t, int64(2), out.Edges)
	assert.Equal(t, map[string]int64{"other_module_same_crate": 1, "external": 1}, out.Categories)
	require.NotNil(t, out.Signature)
	assert.Equal(t, "pub fn spawn()", *out.Signature)
}

func TestServer_CallTool_RefSummaryUnknownCategory(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.server.CallTool(context.Background(), "ref_summary", map[string]any{
		"refs":  []map[string]any{},
		"edges": []map[string]any{{"source_ref_id": "a", "target_ref_id": "b", "category": "sideways"}},
	})

	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidParams, MapError(err).Code)
}

func TestServer_InMemoryTransport(t *testing.T) {
	// Given: a client connected to the server over in-memory transports
	fx := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := fx.server.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	// When: listing tools over the protocol
	listed, err := session.ListTools(ctx, nil)
	require.NoError(t, err)

	// Then: the five tools are advertised
	assert.Len(t, listed.Tools, 5)

	// And: a tool call returns markdown text
	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "graph_analyze",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "## Decision Graph")
	assert.Contains(t, text.Text, "**Nodes:** 3")
}
